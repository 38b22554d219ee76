package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bandscope-backend/internal/common/middleware"
	"bandscope-backend/internal/features/follow/service"
	profileservice "bandscope-backend/internal/features/profile/service"
)

type FollowHandler struct {
	service  service.FollowService
	profiles profileservice.ProfileService
}

func NewFollowHandler(svc service.FollowService, profiles profileservice.ProfileService) *FollowHandler {
	return &FollowHandler{service: svc, profiles: profiles}
}

func (h *FollowHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	follows := router.Group("/profiles/:id/follow")
	follows.Use(auth)
	{
		follows.GET("", h.Status)
		follows.POST("", h.Follow)
		follows.DELETE("", h.Unfollow)
	}
}

// @Summary Follow a profile
// @Tags follows
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FollowStatus
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/{id}/follow [post]
func (h *FollowHandler) Follow(c *gin.Context) {
	viewerID, targetID, ok := h.edge(c)
	if !ok {
		return
	}

	if err := h.service.Follow(c.Request.Context(), viewerID, targetID); err != nil {
		if errors.Is(err, service.ErrSelfFollow) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respondStatus(c, viewerID, targetID)
}

// @Summary Unfollow a profile
// @Tags follows
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FollowStatus
// @Router /profiles/{id}/follow [delete]
func (h *FollowHandler) Unfollow(c *gin.Context) {
	viewerID, targetID, ok := h.edge(c)
	if !ok {
		return
	}

	if err := h.service.Unfollow(c.Request.Context(), viewerID, targetID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respondStatus(c, viewerID, targetID)
}

// @Summary Follow status and counts for a profile
// @Tags follows
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.FollowStatus
// @Router /profiles/{id}/follow [get]
func (h *FollowHandler) Status(c *gin.Context) {
	viewerID, targetID, ok := h.edge(c)
	if !ok {
		return
	}
	h.respondStatus(c, viewerID, targetID)
}

func (h *FollowHandler) respondStatus(c *gin.Context, viewerID, targetID uuid.UUID) {
	status, err := h.service.Status(c.Request.Context(), viewerID, targetID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// edge resolves the viewer's own profile and the target profile id from the
// request. Following is an edge between profiles, not auth users, so callers
// without a profile row yet cannot follow anyone.
func (h *FollowHandler) edge(c *gin.Context) (viewerID, targetID uuid.UUID, ok bool) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, uuid.Nil, false
	}

	targetID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid profile ID format"})
		return uuid.Nil, uuid.Nil, false
	}

	viewer, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, profileservice.ErrProfileNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Create a profile first"})
			return uuid.Nil, uuid.Nil, false
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return uuid.Nil, uuid.Nil, false
	}
	return viewer.ID, targetID, true
}
