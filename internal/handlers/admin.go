package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"nsreddit/internal/identity"
	"nsreddit/internal/middleware"
	"nsreddit/internal/models"
	"nsreddit/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const modRecentLimit = 50

type AdminHandler struct {
	auth  identity.Authenticator
	store ModerationStore
	log   *zap.Logger
}

// NewAdminHandler wires the moderation routes. auth resolves bearer tokens
// of the JSON API; either argument may be nil when unconfigured.
func NewAdminHandler(auth identity.Authenticator, mod ModerationStore, log *zap.Logger) *AdminHandler {
	return &AdminHandler{auth: auth, store: mod, log: log}
}

// removal describes one of the admin remove endpoints.
type removal struct {
	component string
	idField   string
	failure   string
	remove    func(h *AdminHandler, c *gin.Context, userID string, id int64, reason *string) error
}

var (
	threadRemoval = removal{
		component: "admin threads remove",
		idField:   "threadId",
		failure:   "Failed to remove thread.",
		remove: func(h *AdminHandler, c *gin.Context, userID string, id int64, reason *string) error {
			return h.store.AdminSoftDeleteThread(c.Request.Context(), userID, id, reason)
		},
	}
	commentRemoval = removal{
		component: "admin comments remove",
		idField:   "commentId",
		failure:   "Failed to remove comment.",
		remove: func(h *AdminHandler, c *gin.Context, userID string, id int64, reason *string) error {
			return h.store.AdminSoftDeleteComment(c.Request.Context(), userID, id, reason)
		},
	}
)

// RemoveThread handles POST /api/admin/threads/remove.
func (h *AdminHandler) RemoveThread(c *gin.Context) {
	h.handleRemoval(c, threadRemoval)
}

// RemoveComment handles POST /api/admin/comments/remove.
func (h *AdminHandler) RemoveComment(c *gin.Context) {
	h.handleRemoval(c, commentRemoval)
}

func (h *AdminHandler) handleRemoval(c *gin.Context, r removal) {
	log := h.log.With(zap.String("component", r.component))

	if h.auth == nil || h.store == nil {
		log.Error("missing identity or database configuration")
		jsonError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	token, berr := middleware.ParseBearer(c.GetHeader("Authorization"))
	if berr != nil {
		jsonError(c, http.StatusUnauthorized, berr.Message)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	id, ok := numericID(body[r.idField])
	if !ok {
		jsonError(c, http.StatusBadRequest, r.idField+" is required and must be a number.")
		return
	}
	var reason *string
	if s, ok := body["reason"].(string); ok {
		reason = utils.OptionalString(s)
	}

	user, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidSession) {
			log.Warn("resolve session", zap.Error(err))
		}
		jsonError(c, http.StatusUnauthorized, "Invalid or expired session.")
		return
	}

	if err := h.store.EnforceAdmin(c.Request.Context(), user.ID); err != nil {
		log.Warn("admin check failed", zap.String("user", user.ID), zap.Error(err))
		jsonError(c, http.StatusForbidden, "You are not allowed to perform this action.")
		return
	}

	if err := r.remove(h, c, user.ID, id, reason); err != nil {
		log.Error("remove", zap.Int64("id", id), zap.String("user", user.ID), zap.Error(err))
		jsonError(c, http.StatusBadRequest, r.failure)
		return
	}

	log.Info("removed", zap.Int64("id", id), zap.String("user", user.ID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// numericID accepts a JSON number or a numeric string naming a positive
// whole id.
func numericID(v any) (int64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Mod renders the moderation dashboard with the latest threads and comments.
func (h *AdminHandler) Mod(c *gin.Context) {
	if h.store == nil {
		RenderError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}
	log := h.log.With(zap.String("component", "mod"))
	sess := middleware.CurrentSession(c)
	ctx := c.Request.Context()

	isAdmin, err := h.store.IsAdmin(ctx, sess.UserID())
	if err != nil {
		log.Error("admin flag", zap.String("user", sess.UserID()), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the moderation queue.")
		return
	}
	if !isAdmin {
		RenderError(c, http.StatusForbidden, "You are not allowed to perform this action.")
		return
	}

	threads, err := h.store.RecentThreads(ctx, modRecentLimit)
	if err != nil {
		log.Error("recent threads", zap.Error(err))
		threads = []models.Thread{}
	}
	comments, err := h.store.RecentComments(ctx, modRecentLimit)
	if err != nil {
		log.Error("recent comments", zap.Error(err))
		comments = []models.Comment{}
	}

	Render(c, http.StatusOK, "mod.html", gin.H{
		"Threads":     threads,
		"Comments":    comments,
		"AccessToken": sess.AccessToken,
	})
}
