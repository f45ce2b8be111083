package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"order-desk-backend/internal/models"
	"order-desk-backend/internal/services"
)

const maxAvatarSize = 5 << 20

type ProfilesHandler struct {
	profiles *services.ProfileService
}

func NewProfilesHandler(profiles *services.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// GetMe godoc
// @Summary     Current profile
// @Description Returns the caller's profile, creating it on first access.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.Profile
// @Failure     401 {object} models.ErrorResponse
// @Router      /me [get]
func (h *ProfilesHandler) GetMe(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Profile)
}

// UpdateMe godoc
// @Summary     Update current profile
// @Tags        profiles
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.Profile
// @Failure     400 {object} models.ErrorResponse
// @Router      /me [patch]
func (h *ProfilesHandler) UpdateMe(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.profiles.UpdateFullName(c.Request.Context(), s.UserID, req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadAvatar godoc
// @Summary     Upload avatar
// @Description Uploads a jpeg, png or webp image (max 5MB) to Supabase Storage and sets it as the caller's avatar.
// @Tags        profiles
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       avatar formData file true "Avatar image"
// @Success     200 {object} models.AvatarResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /me/avatar [post]
func (h *ProfilesHandler) UploadAvatar(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarSize+1<<20)
	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "avatar file is required", Message: err.Error()})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "avatar too large", Message: "avatar must be at most 5MB"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open file", Message: err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	profile, err := h.profiles.UploadAvatar(c.Request.Context(), s.UserID, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}

	url := ""
	if profile.AvatarURL != nil {
		url = *profile.AvatarURL
	}
	c.JSON(http.StatusOK, models.AvatarResponse{AvatarURL: url})
}

// GetStats godoc
// @Summary     Worker statistics
// @Description Counts of assigned, completed and in-progress orders plus progress entries for the caller.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.WorkerStats
// @Router      /me/stats [get]
func (h *ProfilesHandler) GetStats(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	stats, err := h.profiles.WorkerStats(c.Request.Context(), s.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListProfiles godoc
// @Summary     List profiles
// @Description Lists every user profile. Admin only.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProfileListResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /profiles [get]
func (h *ProfilesHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.profiles.ListProfiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileListResponse{Profiles: profiles})
}
