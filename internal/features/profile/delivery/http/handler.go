package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bandscope-backend/internal/common/middleware"
	"bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/features/profile/service"
)

const maxAvatarBytes = 5 << 20

type ProfileHandler struct {
	service service.ProfileService
}

func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	profiles := router.Group("/profiles")
	profiles.Use(auth)
	{
		profiles.GET("", h.List)
		profiles.GET("/me", h.GetMe)
		profiles.PUT("/me", h.UpsertMe)
		profiles.POST("/me/avatar", h.UploadAvatar)
		profiles.GET("/:id", h.GetByID)
	}
}

// @Summary List profiles
// @Description List all profiles, venues excluded (the discovery feed population).
// @Tags profiles
// @Produce json
// @Success 200 {array} models.Profile
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context(), models.RoleVenue)
	if err != nil {
		// Background-style fetch: degrade to an empty list, not an error page.
		c.JSON(http.StatusOK, []*models.Profile{})
		return
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	c.JSON(http.StatusOK, profiles)
}

// @Summary Get own profile
// @Tags profiles
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse "No profile row yet (mid-onboarding)"
// @Router /profiles/me [get]
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Create or update own profile
// @Description Onboarding and edit both submit the full profile. The location
// @Description is geocoded server-side; geocoding failure never blocks the save.
// @Tags profiles
// @Accept json
// @Produce json
// @Param profile body models.UpsertProfileRequest true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me [put]
func (h *ProfileHandler) UpsertMe(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid profile payload"})
		return
	}

	profile, err := h.service.Upsert(c.Request.Context(), userID, &req)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Upload avatar
// @Tags profiles
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing avatar file"})
		return
	}
	if file.Size > maxAvatarBytes {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Avatar exceeds 5MB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unreadable avatar file"})
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	profile, err := h.service.UploadAvatar(c.Request.Context(),
		middleware.AccessToken(c), userID, file.Filename, contentType, src)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		// Storage errors surface verbatim to the uploading user.
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Get profile by id
// @Tags profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID format"})
		return
	}

	profile, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, false
	}
	return userID, true
}
