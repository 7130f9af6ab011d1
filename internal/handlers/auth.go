package handlers

import (
	"errors"
	"net/http"
	"strings"

	"nsreddit/internal/identity"
	"nsreddit/internal/middleware"
	"nsreddit/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthClientConfig is what the sign-in page needs to talk to the identity
// provider from the browser.
type AuthClientConfig struct {
	URL     string
	AnonKey string
}

type AuthHandler struct {
	auth     identity.Authenticator
	profiles ProfileStore
	tokens   TokenForgetter
	registry *votes.Registry
	client   AuthClientConfig
	log      *zap.Logger
}

func NewAuthHandler(auth identity.Authenticator, profiles ProfileStore, tokens TokenForgetter, registry *votes.Registry, client AuthClientConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		profiles: profiles,
		tokens:   tokens,
		registry: registry,
		client:   client,
		log:      log.With(zap.String("component", "auth")),
	}
}

// ShowAuth renders the sign-in page.
func (h *AuthHandler) ShowAuth(c *gin.Context) {
	if middleware.CurrentSession(c).Authenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/signin.html", gin.H{
		"AuthURL":     h.client.URL,
		"AuthAnonKey": h.client.AnonKey,
		"Error":       "",
	})
}

func (h *AuthHandler) signInFailed(c *gin.Context, code int, msg string) {
	Render(c, code, "auth/signin.html", gin.H{
		"AuthURL":     h.client.URL,
		"AuthAnonKey": h.client.AnonKey,
		"Error":       msg,
	})
}

// CreateSession accepts the provider's access token, admits the user
// through the invite check and keeps the token in the cookie session.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	if h.auth == nil || h.profiles == nil {
		h.log.Error("missing identity or database configuration")
		h.signInFailed(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	token := strings.TrimSpace(c.PostForm("access_token"))
	if token == "" {
		h.signInFailed(c, http.StatusBadRequest, "Missing access token.")
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidSession) {
			h.log.Warn("resolve session", zap.Error(err))
		}
		h.signInFailed(c, http.StatusUnauthorized, "Invalid or expired session.")
		return
	}

	invite := middleware.CurrentSession(c).Invite()
	if err := h.profiles.EnforceInvite(ctx, user.ID, invite); err != nil {
		h.log.Info("invite check rejected sign-in", zap.String("user", user.ID), zap.Bool("has_invite", invite != nil), zap.Error(err))
		h.signInFailed(c, http.StatusForbidden, "An invite is required to join. Ask a member for an invite link.")
		return
	}

	if err := h.profiles.EnsureProfile(ctx, user.ID); err != nil {
		h.log.Error("ensure profile", zap.String("user", user.ID), zap.Error(err))
		h.signInFailed(c, http.StatusInternalServerError, "Could not sign you in. Please try again.")
		return
	}

	if err := middleware.SignIn(c, token); err != nil {
		h.log.Error("save session", zap.String("user", user.ID), zap.Error(err))
		h.signInFailed(c, http.StatusInternalServerError, "Could not sign you in. Please try again.")
		return
	}

	h.log.Info("signed in", zap.String("user", user.ID))
	if c.GetHeader("HX-Request") != "" {
		HtmxRedirect(c, "/")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// SignOut clears the cookie session and the user's cached vote state.
func (h *AuthHandler) SignOut(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess.Authenticated() {
		h.registry.Forget(sess.UserID())
	}
	if h.tokens != nil && sess.AccessToken != "" {
		if err := h.tokens.Forget(c.Request.Context(), sess.AccessToken); err != nil {
			h.log.Warn("forget cached token", zap.Error(err))
		}
	}
	if err := middleware.SignOut(c); err != nil {
		h.log.Warn("clear session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/")
}
