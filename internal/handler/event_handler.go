package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/moderation"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup, actor gin.HandlerFunc) {
	anyRole := middleware.RequireRole(moderation.RoleResident, moderation.RoleManager, moderation.RoleAdmin)
	reviewer := middleware.RequireRole(moderation.RoleManager, moderation.RoleAdmin)

	events := router.Group("/api/events")
	{
		events.GET("", anyRole, h.ListEvents)
		events.GET("/:id", anyRole, h.GetEvent)
		events.POST("", reviewer, actor, h.CreateEvent)
		events.POST("/:id/registrations", anyRole, actor, h.Register)
		events.GET("/:id/registrations/me", anyRole, actor, h.MyRegistration)
		events.GET("/:id/roster", reviewer, actor, h.Roster)
	}
}

// ListEvents returns paginated events, optionally scoped to a community
// @Summary      List events
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        community_id  query     string  false  "Filter by community"
// @Param        upcoming      query     bool    false  "Only events that have not started yet"
// @Param        page          query     int     false  "Page number (default: 1)"
// @Param        limit         query     int     false  "Items per page (default: 20)"
// @Success      200           {object}  response.Response
// @Router       /api/events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := pagination.Parse(c)

	var communityID *uuid.UUID
	if raw := c.Query("community_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
			return
		}
		communityID = &id
	}
	upcomingOnly := c.Query("upcoming") == "true"

	events, total, err := h.eventService.List(c.Request.Context(), communityID, upcomingOnly, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, events, params.Page, params.Limit, total))
}

// GetEvent returns a single event with its remaining capacity
// @Summary      Get event by ID
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid event id"))
		return
	}

	event, err := h.eventService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, event))
}

// CreateEvent creates a capacity-limited event
// @Summary      Create event
// @Description  Creates an event. Restricted to reviewers whose scope covers the community.
// @Tags         events
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEventRequest  true  "Event payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, event))
}

// Register submits a pending registration for an event
// @Summary      Register for event
// @Description  Creates a pending registration. A slot is consumed and a ticket issued only when a reviewer approves it.
// @Tags         events
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true   "Event ID"
// @Param        payload  body      service.RegisterEventRequest  false  "Optional note to reviewers"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/events/{id}/registrations [post]
func (h *EventHandler) Register(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid event id"))
		return
	}

	var req service.RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is fine — the note is optional
		req.Note = ""
	}

	reg, err := h.eventService.Register(c.Request.Context(), actor, eventID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reg))
}

// MyRegistration returns the caller's registration for an event
// @Summary      Get my registration
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/events/{id}/registrations/me [get]
func (h *EventHandler) MyRegistration(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid event id"))
		return
	}

	reg, err := h.eventService.MyRegistration(c.Request.Context(), actor, eventID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reg))
}

// Roster returns the approved attendees of an event
// @Summary      Event roster
// @Tags         events
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Event ID"
// @Param        page   query     int     false  "Page number (default: 1)"
// @Param        limit  query     int     false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Router       /api/events/{id}/roster [get]
func (h *EventHandler) Roster(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid event id"))
		return
	}

	params := pagination.Parse(c)

	roster, total, err := h.eventService.Roster(c.Request.Context(), actor, eventID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, roster, params.Page, params.Limit, total))
}
