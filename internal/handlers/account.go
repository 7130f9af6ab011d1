package handlers

import (
	"errors"
	"net/http"

	"nsreddit/internal/identity"
	"nsreddit/internal/middleware"
	"nsreddit/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	auth     identity.Authenticator
	deleter  AccountDeleter
	tokens   TokenForgetter
	registry *votes.Registry
	log      *zap.Logger
}

// NewAccountHandler wires account deletion. tokens may be nil when no
// token cache is in front of the identity provider.
func NewAccountHandler(auth identity.Authenticator, deleter AccountDeleter, tokens TokenForgetter, registry *votes.Registry, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		auth:     auth,
		deleter:  deleter,
		tokens:   tokens,
		registry: registry,
		log:      log.With(zap.String("component", "delete-account")),
	}
}

// DeleteAccount removes the bearer's account from the identity provider
// (POST /api/delete-account).
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if h.auth == nil || h.deleter == nil {
		h.log.Error("missing identity admin configuration")
		jsonError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	token, berr := middleware.ParseBearer(c.GetHeader("Authorization"))
	if berr != nil {
		jsonError(c, http.StatusUnauthorized, berr.Message)
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidSession) {
			h.log.Warn("resolve session", zap.Error(err))
		}
		jsonError(c, http.StatusUnauthorized, "Invalid or expired session.")
		return
	}

	if err := h.deleter.DeleteUser(ctx, user.ID); err != nil {
		h.log.Error("delete user", zap.String("user", user.ID), zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Failed to delete account.")
		return
	}

	h.registry.Forget(user.ID)
	if h.tokens != nil {
		if err := h.tokens.Forget(ctx, token); err != nil {
			h.log.Warn("forget cached token", zap.String("user", user.ID), zap.Error(err))
		}
	}
	if middleware.CurrentSession(c).UserID() == user.ID {
		if err := middleware.SignOut(c); err != nil {
			h.log.Warn("clear session", zap.String("user", user.ID), zap.Error(err))
		}
	}

	h.log.Info("account deleted", zap.String("user", user.ID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
