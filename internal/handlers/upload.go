package handlers

import (
	"errors"
	"net/http"

	"nsreddit/internal/media"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler stores files posted by the thread composer.
type UploadHandler struct {
	uploader Uploader
	maxBytes int64
	log      *zap.Logger
}

// NewUploadHandler returns a handler answering 500 on every request when
// uploader is nil.
func NewUploadHandler(uploader Uploader, maxBytes int64, log *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		maxBytes: maxBytes,
		log:      log.With(zap.String("component", "upload")),
	}
}

// Upload handles POST /api/upload with the file under the "file" key.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.uploader == nil {
		h.log.Error("object storage is not configured")
		jsonError(c, http.StatusInternalServerError, "R2 is not configured on the server.")
		return
	}
	if err := h.uploader.Ready(); err != nil {
		h.log.Error("object storage is not ready", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "R2 public base URL is not configured.")
		return
	}

	limitBody(c, h.maxBytes)
	file, header, err := c.Request.FormFile("file")
	if bodyTooLarge(err) {
		jsonError(c, http.StatusBadRequest, "File is too large.")
		return
	}
	if err != nil {
		jsonError(c, http.StatusBadRequest, "Missing file in form data under key 'file'.")
		return
	}
	defer file.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		jsonError(c, http.StatusBadRequest, "File is too large.")
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = media.DefaultFilename
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = media.DefaultMimeType
	}

	obj, err := h.uploader.Upload(c.Request.Context(), file, header.Size, filename, mimeType)
	if err != nil {
		if errors.Is(err, media.ErrPublicURLNotConfigured) {
			jsonError(c, http.StatusInternalServerError, "R2 public base URL is not configured.")
			return
		}
		h.log.Error("upload failed", zap.String("filename", filename), zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Upload failed. Please try again.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      obj.URL,
		"mimeType": obj.MimeType,
	})
}
