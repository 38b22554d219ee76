package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bandscope-backend/internal/common/middleware"
	"bandscope-backend/internal/features/event/models"
	"bandscope-backend/internal/features/event/service"
	profileservice "bandscope-backend/internal/features/profile/service"
)

type EventHandler struct {
	service  service.EventService
	profiles profileservice.ProfileService
}

func NewEventHandler(service service.EventService, profiles profileservice.ProfileService) *EventHandler {
	return &EventHandler{service: service, profiles: profiles}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	events := router.Group("/events")
	events.Use(auth)
	{
		events.GET("", h.List)
		events.GET("/:id", h.GetByID)
		events.POST("", h.Create)
	}
}

// @Summary List upcoming events
// @Tags events
// @Produce json
// @Success 200 {array} models.Event
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, []*models.Event{})
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// @Summary Get event by id
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} models.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	event, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

// @Summary Create an event
// @Description Only band and venue profiles may create events.
// @Tags events
// @Accept json
// @Produce json
// @Param event body models.CreateEventRequest true "Event fields"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	creator, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Complete your profile before creating events"})
		return
	}

	event, err := h.service.Create(c.Request.Context(), creator, &req)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotAllowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, event)
}
