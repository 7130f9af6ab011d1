package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"nsreddit/internal/middleware"
	"nsreddit/internal/models"
	"nsreddit/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateComment posts a comment, or a reply when parent_id is set.
func (h *ThreadHandler) CreateComment(c *gin.Context) {
	threadID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Thread not found.")
		return
	}
	if !h.available(c) {
		return
	}
	back := "/thread/" + strconv.FormatInt(threadID, 10)

	body := strings.TrimSpace(c.PostForm("body"))
	if body == "" {
		c.Redirect(http.StatusFound, back)
		return
	}

	comment := models.Comment{ThreadID: threadID, Body: body}
	if raw := c.PostForm("parent_id"); raw != "" {
		parentID, ok := utils.ParseID(raw)
		if !ok {
			RenderError(c, http.StatusBadRequest, "Could not post your comment.")
			return
		}
		comment.ParentID = &parentID
	}

	userID := middleware.CurrentSession(c).UserID()
	created, err := h.store.CreateComment(c.Request.Context(), userID, comment)
	if err != nil {
		h.log.Error("create comment", zap.Int64("thread", threadID), zap.String("user", userID), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not post your comment.")
		return
	}

	h.cache.Delete(threadListCacheKey)
	c.Redirect(http.StatusFound, back+"#comment-"+strconv.FormatInt(created.ID, 10))
}

// DeleteComment soft deletes the viewer's own comment once confirmed.
func (h *ThreadHandler) DeleteComment(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Comment not found.")
		return
	}
	if !h.available(c) {
		return
	}

	back := "/"
	if threadID, ok := utils.ParseID(c.PostForm("thread_id")); ok {
		back = "/thread/" + strconv.FormatInt(threadID, 10)
	}

	if !confirmed(c) {
		Render(c, http.StatusOK, "confirm.html", gin.H{
			"Message": "Delete this comment? This cannot be undone.",
			"Action":  "/comments/" + strconv.FormatInt(id, 10) + "/delete",
			"Cancel":  back,
			"Fields":  gin.H{"thread_id": c.PostForm("thread_id")},
		})
		return
	}

	userID := middleware.CurrentSession(c).UserID()
	if err := h.store.SoftDeleteComment(c.Request.Context(), userID, id); err != nil {
		h.log.Error("delete comment", zap.Int64("comment", id), zap.String("user", userID), zap.Error(err))
		RenderError(c, http.StatusBadRequest, "Could not delete a comment.")
		return
	}

	c.Redirect(http.StatusFound, back)
}
