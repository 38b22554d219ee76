package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bandscope-backend/internal/features/discovery/service"
	"bandscope-backend/internal/features/profile/models"
)

type DiscoveryHandler struct {
	service service.DiscoveryService
}

func NewDiscoveryHandler(svc service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{service: svc}
}

func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.GET("/discovery", auth, h.Search)
}

// @Summary Search the discovery feed
// @Description Text and radius filters compose with AND. The near parameter
// @Description is geocoded server-side into the radius center.
// @Tags discovery
// @Produce json
// @Param q query string false "Name or location substring"
// @Param near query string false "Free-text location for the radius center"
// @Param radius query number false "Radius in miles, one of the configured options"
// @Success 200 {array} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /discovery [get]
func (h *DiscoveryHandler) Search(c *gin.Context) {
	filter := &service.Filter{Query: c.Query("q")}

	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		miles, err := strconv.ParseFloat(raw, 64)
		if err != nil || miles <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid radius"})
			return
		}
		if !h.service.ValidRadius(miles) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Radius is not one of the allowed options"})
			return
		}
		filter.RadiusMiles = miles
	}

	if near := strings.TrimSpace(c.Query("near")); near != "" {
		center, err := h.service.ResolveCenter(c.Request.Context(), near)
		if err != nil {
			if errors.Is(err, service.ErrLocationNotFound) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Location could not be resolved"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Geocoding unavailable"})
			return
		}
		filter.Center = center
	}

	if filter.RadiusMiles > 0 && filter.Center == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Radius filter requires a location"})
		return
	}

	profiles, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	c.JSON(http.StatusOK, profiles)
}
