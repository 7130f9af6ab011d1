package handlers

import (
	"errors"
	"html/template"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nsreddit/internal/comments"
	"nsreddit/internal/middleware"
	"nsreddit/internal/models"
	"nsreddit/internal/store"
	"nsreddit/internal/utils"
	"nsreddit/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	threadListCacheKey = "threads:list"
	threadListTTL      = 10 * time.Second

	// listPage is the vote engine page of the front page.
	listPage = "threads"
)

func threadPage(id int64) string {
	return "thread:" + strconv.FormatInt(id, 10)
}

type ThreadHandler struct {
	store     ForumStore
	uploader  Uploader
	registry  *votes.Registry
	cache     *utils.Cache
	maxUpload int64
	log       *zap.Logger
}

// NewThreadHandler wires the thread and comment pages. uploader may be nil
// when object storage is not configured.
func NewThreadHandler(forum ForumStore, uploader Uploader, registry *votes.Registry, cache *utils.Cache, maxUpload int64, log *zap.Logger) *ThreadHandler {
	return &ThreadHandler{
		store:     forum,
		uploader:  uploader,
		registry:  registry,
		cache:     cache,
		maxUpload: maxUpload,
		log:       log.With(zap.String("component", "threads")),
	}
}

func (h *ThreadHandler) available(c *gin.Context) bool {
	if h.store == nil {
		RenderError(c, http.StatusInternalServerError, msgNotConfigured)
		return false
	}
	return true
}

// threadRow is one entry of the front page.
type threadRow struct {
	models.ThreadSummary
	Author      string
	Score       int
	CurrentVote int
}

func (h *ThreadHandler) listing(c *gin.Context) ([]models.ThreadSummary, error) {
	if cached, ok := h.cache.Get(threadListCacheKey).([]models.ThreadSummary); ok {
		return cached, nil
	}
	threads, err := h.store.ListThreads(c.Request.Context())
	if err != nil {
		return nil, err
	}
	h.cache.Set(threadListCacheKey, threads, threadListTTL)
	return threads, nil
}

// List renders the front page.
func (h *ThreadHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}

	threads, err := h.listing(c)
	if err != nil {
		h.log.Error("list threads", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load threads.")
		return
	}

	scores := make(map[votes.Key]int, len(threads))
	ids := make([]int64, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
		scores[votes.Key{Type: votes.TargetThread, ID: t.ID}] = t.Score
	}

	var mine map[votes.Key]votes.Value
	if userID := middleware.CurrentSession(c).UserID(); userID != "" {
		mine, err = h.store.UserVotes(c.Request.Context(), userID, votes.TargetThread, ids)
		if err != nil {
			h.log.Warn("load own votes", zap.String("user", userID), zap.Error(err))
		} else {
			h.registry.Put(userID, listPage, votes.New(h.store, userID, votes.WithScores(scores), votes.WithVotes(mine)))
		}
	}

	rows := make([]threadRow, 0, len(threads))
	for _, t := range threads {
		key := votes.Key{Type: votes.TargetThread, ID: t.ID}
		rows = append(rows, threadRow{
			ThreadSummary: t,
			Author:        utils.AuthorLabel(t.AuthorDisplayName, t.AuthorID),
			Score:         t.Score,
			CurrentVote:   int(mine[key]),
		})
	}

	Render(c, http.StatusOK, "thread/list.html", gin.H{
		"Threads": rows,
		"Page":    listPage,
	})
}

// threadView is the thread at the top of its detail page.
type threadView struct {
	models.Thread
	BodyHTML    template.HTML
	Author      string
	IsOwner     bool
	IsImage     bool
	Score       int
	CurrentVote int
}

// commentView is one comment of the flattened forest, in display order.
type commentView struct {
	ID          int64
	BodyHTML    template.HTML
	Author      string
	AuthorID    string
	CreatedAt   time.Time
	Removed     bool
	IsOwner     bool
	Indent      int
	ParentID    int64
	RootID      int64
	PrevID      int64
	NextID      int64
	ShowRoot    bool
	Replies     int
	Score       int
	CurrentVote int
}

// Detail renders a thread and its comments.
func (h *ThreadHandler) Detail(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Thread not found.")
		return
	}
	if !h.available(c) {
		return
	}
	ctx := c.Request.Context()

	thread, err := h.store.GetThread(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "Thread not found.")
		return
	}
	if err != nil {
		h.log.Error("get thread", zap.Int64("thread", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load this thread.")
		return
	}

	rows, err := h.store.ListComments(ctx, id)
	if err != nil {
		h.log.Warn("list comments", zap.Int64("thread", id), zap.Error(err))
		rows = nil
	}
	records := store.CommentRecords(rows)

	userID := middleware.CurrentSession(c).UserID()
	engine := h.pageEngine(c, userID, thread.ID, records)

	threadKey := votes.Key{Type: votes.TargetThread, ID: thread.ID}
	view := threadView{
		Thread:   thread,
		BodyHTML: utils.RenderMarkdown(thread.Body),
		Author:   utils.AuthorLabel(profileName(thread.Author), thread.AuthorID),
		IsOwner:  userID != "" && utils.Deref(thread.AuthorID) == userID,
		IsImage:  strings.HasPrefix(utils.Deref(thread.MediaMimeType), "image/"),
	}
	if engine != nil {
		view.Score = engine.Score(threadKey)
		view.CurrentVote = int(engine.Current(threadKey))
	}

	forest := comments.BuildTree(records)
	nav := comments.BuildNavigationIndex(records)

	Render(c, http.StatusOK, "thread/detail.html", gin.H{
		"Thread":       view,
		"Comments":     flattenComments(forest, nav, engine, userID),
		"CommentCount": len(records),
		"Page":         threadPage(thread.ID),
	})
}

// pageEngine loads scores and the viewer's votes for the thread and its
// comments, and registers a fresh vote engine for the page. It returns an
// engine even for signed-out viewers so the page can show scores.
func (h *ThreadHandler) pageEngine(c *gin.Context, userID string, threadID int64, records []comments.Comment) *votes.Engine {
	ctx := c.Request.Context()

	commentIDs := make([]int64, 0, len(records))
	for _, r := range records {
		commentIDs = append(commentIDs, r.ID)
	}

	threadScores, err := h.store.Scores(ctx, votes.TargetThread, []int64{threadID})
	if err != nil {
		h.log.Warn("load thread score", zap.Int64("thread", threadID), zap.Error(err))
		return nil
	}
	commentScores, err := h.store.Scores(ctx, votes.TargetComment, commentIDs)
	if err != nil {
		h.log.Warn("load comment scores", zap.Int64("thread", threadID), zap.Error(err))
		return nil
	}
	scores := make(map[votes.Key]int, len(threadScores)+len(commentScores))
	maps.Copy(scores, threadScores)
	maps.Copy(scores, commentScores)

	mine := make(map[votes.Key]votes.Value)
	if userID != "" {
		own, err := h.store.UserVotes(ctx, userID, votes.TargetThread, []int64{threadID})
		if err != nil {
			h.log.Warn("load own votes", zap.String("user", userID), zap.Error(err))
			return votes.New(h.store, "", votes.WithScores(scores))
		}
		ownComments, err := h.store.UserVotes(ctx, userID, votes.TargetComment, commentIDs)
		if err != nil {
			h.log.Warn("load own votes", zap.String("user", userID), zap.Error(err))
			return votes.New(h.store, "", votes.WithScores(scores))
		}
		maps.Copy(mine, own)
		maps.Copy(mine, ownComments)
	}

	engine := votes.New(h.store, userID, votes.WithScores(scores), votes.WithVotes(mine))
	if userID != "" {
		h.registry.Put(userID, threadPage(threadID), engine)
	}
	return engine
}

// flattenComments walks the forest depth first into display order.
func flattenComments(forest []*comments.Node, nav *comments.NavigationIndex, engine *votes.Engine, userID string) []commentView {
	type frame struct {
		node  *comments.Node
		depth int
	}

	out := make([]commentView, 0, len(forest))
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, commentViewOf(f.node, f.depth, nav, engine, userID))
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
	return out
}

func commentViewOf(n *comments.Node, depth int, nav *comments.NavigationIndex, engine *votes.Engine, userID string) commentView {
	v := commentView{
		ID:        n.ID,
		Author:    utils.AuthorLabel(n.AuthorDisplayName, n.AuthorID),
		AuthorID:  utils.Deref(n.AuthorID),
		CreatedAt: n.CreatedAt,
		Removed:   n.IsDeleted,
		IsOwner:   userID != "" && utils.Deref(n.AuthorID) == userID,
		Indent:    comments.IndentDepth(depth),
		Replies:   len(n.Children),
	}
	if !n.IsDeleted {
		v.BodyHTML = utils.RenderMarkdown(n.Body)
	}
	if pid, ok := nav.Parent(n.ID); ok {
		v.ParentID = pid
	}
	v.RootID = nav.RootOf(n.ID)
	v.ShowRoot = nav.ShowRootShortcut(n.ID)
	if prev, ok := nav.Prev(n.ID); ok {
		v.PrevID = prev
	}
	if next, ok := nav.Next(n.ID); ok {
		v.NextID = next
	}
	if engine != nil {
		key := votes.Key{Type: votes.TargetComment, ID: n.ID}
		v.Score = engine.Score(key)
		v.CurrentVote = int(engine.Current(key))
	}
	return v
}

func profileName(p *models.Profile) *string {
	if p == nil {
		return nil
	}
	return p.DisplayName
}

// ShowCreate renders the new thread form.
func (h *ThreadHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "thread/new.html", gin.H{"Title": "", "Body": "", "URL": ""})
}

// Create validates and stores a new thread, uploading its image first.
func (h *ThreadHandler) Create(c *gin.Context) {
	if !h.available(c) {
		return
	}
	userID := middleware.CurrentSession(c).UserID()

	limitBody(c, h.maxUpload)
	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		code, msg := http.StatusBadRequest, "Could not read the form. Please try again."
		if bodyTooLarge(err) {
			msg = "Images must be 5 MB or smaller."
		}
		Render(c, code, "thread/new.html", gin.H{"Title": "", "Body": "", "URL": "", "Error": msg})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	body := strings.TrimSpace(c.PostForm("body"))
	rawURL := c.PostForm("url")

	form := gin.H{"Title": title, "Body": body, "URL": rawURL}
	fail := func(code int, msg string) {
		form["Error"] = msg
		Render(c, code, "thread/new.html", form)
	}

	if title == "" || body == "" {
		fail(http.StatusBadRequest, "Title and body are required.")
		return
	}

	link, domain, err := utils.NormalizeLink(rawURL)
	if err != nil {
		fail(http.StatusBadRequest, "The URL looks invalid. Please check it and try again.")
		return
	}

	thread := models.Thread{
		Title:     title,
		Body:      body,
		URL:       utils.OptionalString(link),
		URLDomain: utils.OptionalString(domain),
	}

	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") {
			fail(http.StatusBadRequest, "We currently only support image uploads.")
			return
		}
		if h.maxUpload > 0 && header.Size > h.maxUpload {
			fail(http.StatusBadRequest, "Images must be 5 MB or smaller.")
			return
		}
		if h.uploader == nil {
			h.log.Error("image upload without object storage")
			fail(http.StatusInternalServerError, "Could not upload your image. Please try again or use a smaller file.")
			return
		}

		obj, err := h.uploader.Upload(c.Request.Context(), file, header.Size, header.Filename, mimeType)
		if err != nil {
			h.log.Error("upload thread image", zap.String("user", userID), zap.Error(err))
			fail(http.StatusInternalServerError, "Could not upload your image. Please try again or use a smaller file.")
			return
		}
		thread.MediaURL = &obj.URL
		thread.MediaMimeType = &obj.MimeType
	}

	id, err := h.store.CreateThread(c.Request.Context(), userID, thread)
	if err != nil {
		h.log.Error("create thread", zap.String("user", userID), zap.Error(err))
		fail(http.StatusInternalServerError, "Could not create your thread. Please try again.")
		return
	}

	h.cache.Delete(threadListCacheKey)
	c.Redirect(http.StatusFound, "/thread/"+strconv.FormatInt(id, 10))
}

// Delete soft deletes the viewer's own thread once confirmed.
func (h *ThreadHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Thread not found.")
		return
	}
	if !h.available(c) {
		return
	}

	action := "/thread/" + strconv.FormatInt(id, 10) + "/delete"
	if !confirmed(c) {
		Render(c, http.StatusOK, "confirm.html", gin.H{
			"Message": "Delete this thread? This cannot be undone.",
			"Action":  action,
			"Cancel":  "/thread/" + strconv.FormatInt(id, 10),
		})
		return
	}

	userID := middleware.CurrentSession(c).UserID()
	if err := h.store.SoftDeleteThread(c.Request.Context(), userID, id); err != nil {
		h.log.Error("delete thread", zap.Int64("thread", id), zap.String("user", userID), zap.Error(err))
		RenderError(c, http.StatusBadRequest, "Could not delete this thread.")
		return
	}

	h.cache.Delete(threadListCacheKey)
	c.Redirect(http.StatusFound, "/thread/"+strconv.FormatInt(id, 10))
}
