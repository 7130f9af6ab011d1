package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Guidelines renders the community guidelines.
func Guidelines(c *gin.Context) {
	Render(c, http.StatusOK, "pages/guidelines.html", nil)
}

// CommentGuidelines renders the commenting guidelines.
func CommentGuidelines(c *gin.Context) {
	Render(c, http.StatusOK, "pages/comments-guidelines.html", nil)
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "Page not found.")
}
