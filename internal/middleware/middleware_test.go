package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nsreddit/internal/identity"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFunc func(ctx context.Context, token string) (identity.User, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (identity.User, error) {
	return f(ctx, token)
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    *BearerError
	}{
		{"", "", ErrMissingAuthHeader},
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"BEARER abc extra", "abc", nil},
		{"Basic abc", "", ErrBadAuthHeader},
		{"Bearer", "", ErrBadAuthHeader},
		{"Bearer ", "", ErrBadAuthHeader},
		{" Bearer abc", "", ErrBadAuthHeader},
		{"Bearer \t", "", ErrMissingToken},
	}
	for _, tt := range tests {
		token, err := ParseBearer(tt.header)
		assert.Equal(t, tt.token, token, tt.header)
		assert.Equal(t, tt.err, err, tt.header)
	}
}

func newSessionEngine(auth identity.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.POST("/login", func(c *gin.Context) {
		if err := SignIn(c, c.PostForm("token")); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.Use(LoadSession(auth, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		sess := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"user": sess.UserID(), "invite": sess.InviteToken})
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func loginRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("token="+token))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookiesOf(w *httptest.ResponseRecorder) []*http.Cookie {
	return (&http.Response{Header: w.Header()}).Cookies()
}

func do(r *gin.Engine, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadSessionResolvesStoredToken(t *testing.T) {
	r := newSessionEngine(authFunc(func(_ context.Context, token string) (identity.User, error) {
		if token == "good" {
			return identity.User{ID: "u-1"}, nil
		}
		return identity.User{}, identity.ErrInvalidSession
	}))

	w := do(r, loginRequest("good"), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	jar := cookiesOf(w)

	w = do(r, httptest.NewRequest(http.MethodGet, "/whoami", nil), jar)
	assert.JSONEq(t, `{"user":"u-1","invite":""}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/private", nil), jar)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadSessionDropsRejectedToken(t *testing.T) {
	r := newSessionEngine(authFunc(func(context.Context, string) (identity.User, error) {
		return identity.User{}, identity.ErrInvalidSession
	}))

	jar := cookiesOf(do(r, loginRequest("stale"), nil))

	w := do(r, httptest.NewRequest(http.MethodGet, "/private", nil), jar)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestLoadSessionInviteFromURLWins(t *testing.T) {
	r := newSessionEngine(nil)

	w := do(r, httptest.NewRequest(http.MethodGet, "/whoami?invite=%20abc%20", nil), nil)
	assert.JSONEq(t, `{"user":"","invite":"abc"}`, w.Body.String())
	jar := cookiesOf(w)

	w = do(r, httptest.NewRequest(http.MethodGet, "/whoami", nil), jar)
	assert.JSONEq(t, `{"user":"","invite":"abc"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/whoami?invite=xyz", nil), jar)
	assert.JSONEq(t, `{"user":"","invite":"xyz"}`, w.Body.String())
}

func TestAuthRequiredHTMX(t *testing.T) {
	r := newSessionEngine(nil)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("HX-Request", "true")

	w := do(r, req, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("HX-Redirect"))
	assert.Empty(t, w.Body.String())
}

func TestSessionHelpers(t *testing.T) {
	var nilSess *Session
	assert.False(t, nilSess.Authenticated())
	assert.Nil(t, (&Session{}).Invite())
	assert.Equal(t, "tok", *(&Session{InviteToken: "tok"}).Invite())
}
