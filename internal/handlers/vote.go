package handlers

import (
	"net/http"
	"strings"

	"nsreddit/internal/middleware"
	"nsreddit/internal/utils"
	"nsreddit/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VoteHandler struct {
	store    ForumStore
	registry *votes.Registry
	cache    *utils.Cache
	log      *zap.Logger
}

func NewVoteHandler(forum ForumStore, registry *votes.Registry, cache *utils.Cache, log *zap.Logger) *VoteHandler {
	return &VoteHandler{
		store:    forum,
		registry: registry,
		cache:    cache,
		log:      log.With(zap.String("component", "votes")),
	}
}

// Vote toggles the viewer's vote on a thread or comment
// (POST /vote/:type/:id/:dir) and answers {score, currentVote}.
func (h *VoteHandler) Vote(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if !sess.Authenticated() {
		redirectToAuth(c)
		return
	}

	targetType, err := votes.ParseTargetType(c.Param("type"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, msgVoteFailed)
		return
	}
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		jsonError(c, http.StatusBadRequest, msgVoteFailed)
		return
	}
	direction, err := votes.ParseDirection(c.Param("dir"))
	if err != nil {
		jsonError(c, http.StatusBadRequest, msgVoteFailed)
		return
	}
	if h.store == nil {
		jsonError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	ctx := c.Request.Context()
	userID := sess.UserID()
	key := votes.Key{Type: targetType, ID: id}

	// Votes from a page that was never rendered here (or whose engine has
	// expired) get an engine of their own, keyed by the target.
	page := votePage(c.PostForm("page"), key)
	engine, ok := h.registry.Get(userID, page)
	if !ok {
		engine = votes.New(h.store, userID)
		h.registry.Put(userID, page, engine)
	}
	if !engine.Has(key) {
		score, mine, err := h.store.TargetState(ctx, userID, key)
		if err != nil {
			h.log.Error("load vote target", zap.Stringer("target", key), zap.String("user", userID), zap.Error(err))
			jsonError(c, http.StatusInternalServerError, msgVoteFailed)
			return
		}
		engine.Hydrate(map[votes.Key]int{key: score}, map[votes.Key]votes.Value{key: mine})
	}

	res, err := engine.Toggle(ctx, key, direction)
	if err != nil {
		h.log.Error("toggle vote", zap.Stringer("target", key), zap.String("user", userID), zap.Error(err))
		jsonError(c, http.StatusInternalServerError, msgVoteFailed)
		return
	}

	if targetType == votes.TargetThread {
		h.cache.Delete(threadListCacheKey)
	}

	c.JSON(http.StatusOK, gin.H{
		"score":       res.Score,
		"currentVote": int(res.Current),
	})
}

// votePage maps the page a vote was cast from onto a registry page. Only
// pages this server renders are accepted; anything else falls back to the
// target's own key.
func votePage(raw string, key votes.Key) string {
	if raw == listPage {
		return raw
	}
	if rest, ok := strings.CutPrefix(raw, "thread:"); ok {
		if id, ok := utils.ParseID(rest); ok && threadPage(id) == raw {
			return raw
		}
	}
	return key.String()
}
