package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nsreddit/internal/handlers"
	"nsreddit/internal/identity"
	"nsreddit/internal/media"
	"nsreddit/internal/middleware"
	"nsreddit/internal/models"
	"nsreddit/internal/router"
	"nsreddit/internal/store"
	"nsreddit/internal/utils"
	"nsreddit/internal/votes"
	"nsreddit/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errBoom = errors.New("boom")

type adminRemoval struct {
	userID string
	id     int64
	reason *string
}

// fakeStore is an in-memory stand-in for the database. Base scores plus the
// recorded votes make up a target's score.
type fakeStore struct {
	mu sync.Mutex

	threads   map[int64]models.Thread
	summaries []models.ThreadSummary
	comments  map[int64][]models.Comment
	base      map[votes.Key]int
	votes     map[string]map[votes.Key]votes.Value
	admins    map[string]bool
	profiles  map[string]models.Profile

	listCalls        int
	targetCalls      int
	voteErr          error
	inviteErr        error
	createdThreads   []models.Thread
	createdComments  []models.Comment
	deletedThreads   []int64
	deletedComments  []int64
	removedThreads   []adminRemoval
	removedComments  []adminRemoval
	removeErr        error
	ensuredProfiles  []string
	invitesPresented []*string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		threads:  make(map[int64]models.Thread),
		comments: make(map[int64][]models.Comment),
		base:     make(map[votes.Key]int),
		votes:    make(map[string]map[votes.Key]votes.Value),
		admins:   make(map[string]bool),
		profiles: make(map[string]models.Profile),
	}
}

var (
	_ handlers.ForumStore      = (*fakeStore)(nil)
	_ handlers.ModerationStore = (*fakeStore)(nil)
	_ handlers.ProfileStore    = (*fakeStore)(nil)
)

func (f *fakeStore) UpsertVote(_ context.Context, userID string, key votes.Key, value votes.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return f.voteErr
	}
	if f.votes[userID] == nil {
		f.votes[userID] = make(map[votes.Key]votes.Value)
	}
	f.votes[userID][key] = value
	return nil
}

func (f *fakeStore) DeleteVote(_ context.Context, userID string, key votes.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voteErr != nil {
		return f.voteErr
	}
	delete(f.votes[userID], key)
	return nil
}

func (f *fakeStore) ListThreads(context.Context) ([]models.ThreadSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.summaries, nil
}

func (f *fakeStore) GetThread(_ context.Context, id int64) (models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.threads[id]
	if !ok {
		return models.Thread{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateThread(_ context.Context, userID string, thread models.Thread) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread.AuthorID = &userID
	f.createdThreads = append(f.createdThreads, thread)
	return 42, nil
}

func (f *fakeStore) SoftDeleteThread(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedThreads = append(f.deletedThreads, id)
	return nil
}

func (f *fakeStore) ListComments(_ context.Context, threadID int64) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[threadID], nil
}

func (f *fakeStore) CreateComment(_ context.Context, userID string, c models.Comment) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(100 + len(f.createdComments))
	c.AuthorID = &userID
	f.createdComments = append(f.createdComments, c)
	return c, nil
}

func (f *fakeStore) SoftDeleteComment(_ context.Context, _ string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedComments = append(f.deletedComments, id)
	return nil
}

func (f *fakeStore) scoreLocked(key votes.Key) int {
	score := f.base[key]
	for _, mine := range f.votes {
		score += int(mine[key])
	}
	return score
}

func (f *fakeStore) Scores(_ context.Context, targetType votes.TargetType, ids []int64) (map[votes.Key]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[votes.Key]int, len(ids))
	for _, id := range ids {
		key := votes.Key{Type: targetType, ID: id}
		out[key] = f.scoreLocked(key)
	}
	return out, nil
}

func (f *fakeStore) UserVotes(_ context.Context, userID string, targetType votes.TargetType, ids []int64) (map[votes.Key]votes.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[votes.Key]votes.Value)
	for _, id := range ids {
		key := votes.Key{Type: targetType, ID: id}
		if v := f.votes[userID][key]; v != votes.None {
			out[key] = v
		}
	}
	return out, nil
}

func (f *fakeStore) TargetState(_ context.Context, userID string, key votes.Key) (int, votes.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetCalls++
	return f.scoreLocked(key), f.votes[userID][key], nil
}

func (f *fakeStore) IsAdmin(_ context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[userID], nil
}

func (f *fakeStore) EnforceAdmin(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.admins[userID] {
		return errors.New("not an admin")
	}
	return nil
}

func (f *fakeStore) AdminSoftDeleteThread(_ context.Context, userID string, id int64, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedThreads = append(f.removedThreads, adminRemoval{userID, id, reason})
	return nil
}

func (f *fakeStore) AdminSoftDeleteComment(_ context.Context, userID string, id int64, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedComments = append(f.removedComments, adminRemoval{userID, id, reason})
	return nil
}

func (f *fakeStore) RecentThreads(context.Context, int) ([]models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Thread, 0, len(f.threads))
	for _, t := range f.threads {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) RecentComments(context.Context, int) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, cs := range f.comments {
		out = append(out, cs...)
	}
	return out, nil
}

func (f *fakeStore) EnforceInvite(_ context.Context, _ string, invite *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitesPresented = append(f.invitesPresented, invite)
	return f.inviteErr
}

func (f *fakeStore) EnsureProfile(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensuredProfiles = append(f.ensuredProfiles, userID)
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, userID string, displayName, bio *string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Profile{ID: userID, DisplayName: displayName, Bio: bio}
	f.profiles[userID] = p
	return p, nil
}

// tokenAuth accepts the tokens it maps to users.
type tokenAuth map[string]identity.User

func (a tokenAuth) Authenticate(_ context.Context, token string) (identity.User, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return identity.User{}, identity.ErrInvalidSession
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (d *fakeDeleter) DeleteUser(_ context.Context, userID string) error {
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, userID)
	return nil
}

type fakeUploader struct {
	readyErr  error
	uploadErr error
	got       struct {
		filename, mimeType string
		size               int64
		body               []byte
	}
}

func (u *fakeUploader) Ready() error { return u.readyErr }

func (u *fakeUploader) Upload(_ context.Context, r io.Reader, size int64, filename, mimeType string) (media.Object, error) {
	if u.uploadErr != nil {
		return media.Object{}, u.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return media.Object{}, err
	}
	u.got.filename, u.got.mimeType, u.got.size, u.got.body = filename, mimeType, size, body
	key := "threads/fixed.png"
	return media.Object{Key: key, URL: media.PublicURL("https://cdn.example.com", key), MimeType: mimeType}, nil
}

const (
	testUser  = "11111111-2222-3333-4444-555555555555"
	testToken = "token-1"
)

func signedIn() *middleware.Session {
	return &middleware.Session{AccessToken: testToken, User: identity.User{ID: testUser}}
}

func testDeps(t *testing.T, st *fakeStore) router.Deps {
	t.Helper()
	cache, err := utils.NewCache(16)
	require.NoError(t, err)
	d := router.Deps{
		SessionAuth:    tokenAuth{testToken: {ID: testUser}},
		APIAuth:        tokenAuth{testToken: {ID: testUser}},
		MaxUploadBytes: 5 << 20,
		Registry:       votes.NewRegistry(64, 0),
		Cache:          cache,
		Log:            zap.NewNop(),
	}
	if st != nil {
		d.Forum, d.Moderation, d.Profiles = st, st, st
	}
	return d
}

// newServer builds the full route table. sess, when set, stands in for the
// cookie session.
func newServer(t *testing.T, d router.Deps, sess *middleware.Session) *gin.Engine {
	t.Helper()
	r := gin.New()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	r.HTMLRender = renderer
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(func(c *gin.Context) {
		if sess != nil {
			c.Set(middleware.SessionKey, sess)
		}
		c.Next()
	})
	router.RegisterRoutes(r, d)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
