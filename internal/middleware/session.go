package middleware

import (
	"errors"
	"net/http"
	"strings"

	"nsreddit/internal/identity"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionKey = "session"

	accessTokenKey = "access_token"
	inviteTokenKey = "invite_token"
)

// Session is the request's view of who is signed in. It is rebuilt from the
// cookie on every request and passed to handlers through the gin context.
type Session struct {
	AccessToken string
	User        identity.User
	InviteToken string
}

func (s *Session) Authenticated() bool {
	return s != nil && s.User.ID != ""
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

// Invite returns the invite token, nil when there is none.
func (s *Session) Invite() *string {
	if s == nil || s.InviteToken == "" {
		return nil
	}
	tok := s.InviteToken
	return &tok
}

// LoadSession hydrates the Session from the cookie store. A stored token the
// provider no longer accepts is dropped from the cookie.
func LoadSession(auth identity.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessions.Default(c)
		sess := &Session{}
		dirty := false

		if invite := strings.TrimSpace(c.Query("invite")); invite != "" {
			sess.InviteToken = invite
			store.Set(inviteTokenKey, invite)
			dirty = true
		} else if stored, ok := store.Get(inviteTokenKey).(string); ok {
			sess.InviteToken = strings.TrimSpace(stored)
		}

		if token, ok := store.Get(accessTokenKey).(string); ok && token != "" && auth != nil {
			user, err := auth.Authenticate(c.Request.Context(), token)
			switch {
			case err == nil:
				sess.AccessToken = token
				sess.User = user
			case errors.Is(err, identity.ErrInvalidSession):
				store.Delete(accessTokenKey)
				dirty = true
			default:
				log.Warn("session lookup failed", zap.String("component", "session"), zap.Error(err))
			}
		}

		if dirty {
			if err := store.Save(); err != nil {
				log.Warn("session save failed", zap.String("component", "session"), zap.Error(err))
			}
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the request's session, never nil.
func CurrentSession(c *gin.Context) *Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(*Session); ok && sess != nil {
			return sess
		}
	}
	return &Session{}
}

// SignIn stores an accepted access token and clears the spent invite.
func SignIn(c *gin.Context, token string) error {
	store := sessions.Default(c)
	store.Set(accessTokenKey, token)
	store.Delete(inviteTokenKey)
	return store.Save()
}

// SignOut clears the cookie session.
func SignOut(c *gin.Context) error {
	store := sessions.Default(c)
	store.Clear()
	store.Options(sessions.Options{Path: "/", MaxAge: -1})
	return store.Save()
}

// AuthRequired sends signed-out visitors to the sign-in page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c).Authenticated() {
			c.Next()
			return
		}
		if c.GetHeader("HX-Request") != "" {
			c.Header("HX-Redirect", "/auth")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Redirect(http.StatusFound, "/auth")
		c.Abort()
	}
}
