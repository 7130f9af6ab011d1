package handlers

import (
	"errors"
	"net/http"
	"strings"

	"nsreddit/internal/middleware"
	"nsreddit/internal/models"
	"nsreddit/internal/store"
	"nsreddit/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	store ProfileStore
	log   *zap.Logger
}

func NewProfileHandler(profiles ProfileStore, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: profiles, log: log.With(zap.String("component", "profile"))}
}

// Show renders the signed-in user's profile form.
func (h *ProfileHandler) Show(c *gin.Context) {
	if h.store == nil {
		RenderError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}
	userID := middleware.CurrentSession(c).UserID()

	profile, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("get profile", zap.String("user", userID), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load your profile.")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		profile = models.Profile{ID: userID}
	}

	Render(c, http.StatusOK, "profile/edit.html", gin.H{
		"Profile":     profile,
		"AccessToken": middleware.CurrentSession(c).AccessToken,
	})
}

// Update saves the display name and about text. Blank values clear them.
func (h *ProfileHandler) Update(c *gin.Context) {
	if h.store == nil {
		RenderError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}
	userID := middleware.CurrentSession(c).UserID()

	displayName := utils.OptionalString(c.PostForm("display_name"))
	bio := utils.OptionalString(c.PostForm("bio"))

	profile, err := h.store.UpdateProfile(c.Request.Context(), userID, displayName, bio)
	if err != nil {
		h.log.Error("update profile", zap.String("user", userID), zap.Error(err))
		Render(c, http.StatusInternalServerError, "profile/edit.html", gin.H{
			"Profile":     models.Profile{ID: userID, DisplayName: displayName, Bio: bio},
			"AccessToken": middleware.CurrentSession(c).AccessToken,
			"Error":       "Could not save your profile. Please try again.",
		})
		return
	}

	Render(c, http.StatusOK, "profile/edit.html", gin.H{
		"Profile":     profile,
		"AccessToken": middleware.CurrentSession(c).AccessToken,
		"Saved":       true,
	})
}

// Public renders anyone's profile (GET /u/:id).
func (h *ProfileHandler) Public(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		RenderError(c, http.StatusNotFound, "User not found.")
		return
	}
	if h.store == nil {
		RenderError(c, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		RenderError(c, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		h.log.Error("get profile", zap.String("profile", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load this profile.")
		return
	}

	Render(c, http.StatusOK, "profile/public.html", gin.H{
		"Profile": profile,
		"Label":   utils.AuthorLabel(profile.DisplayName, &profile.ID),
		"IsSelf":  middleware.CurrentSession(c).UserID() == profile.ID,
	})
}
