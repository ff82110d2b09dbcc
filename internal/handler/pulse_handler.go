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

type PulseHandler struct {
	pulseService service.PulseService
}

func NewPulseHandler(pulseService service.PulseService) *PulseHandler {
	return &PulseHandler{pulseService: pulseService}
}

func (h *PulseHandler) RegisterRoutes(router *gin.RouterGroup, actor gin.HandlerFunc) {
	anyRole := middleware.RequireRole(moderation.RoleResident, moderation.RoleManager, moderation.RoleAdmin)

	pulses := router.Group("/api/pulses")
	{
		pulses.POST("", anyRole, actor, h.SubmitPulse)
		pulses.GET("/feed/:communityId", anyRole, h.Feed)
	}

	router.GET("/api/my/pulses", anyRole, actor, h.MyPulses)
}

// SubmitPulse creates a pending pulse for review
// @Summary      Submit pulse
// @Description  Creates a pulse in the review queue. It appears in the feed only after approval.
// @Tags         pulses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitPulseRequest  true  "Pulse payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/pulses [post]
func (h *PulseHandler) SubmitPulse(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.SubmitPulseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pulse, err := h.pulseService.Submit(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, pulse))
}

// Feed returns the approved, visible pulses of a community, newest first
// @Summary      Community pulse feed
// @Tags         pulses
// @Security     BearerAuth
// @Produce      json
// @Param        communityId  path      string  true   "Community ID"
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Success      200          {object}  response.Response
// @Router       /api/pulses/feed/{communityId} [get]
func (h *PulseHandler) Feed(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	params := pagination.Parse(c)

	pulses, total, err := h.pulseService.Feed(c.Request.Context(), communityID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, pulses, params.Page, params.Limit, total))
}

// MyPulses lists the caller's own pulses in every status
// @Summary      List my pulses
// @Tags         pulses
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Router       /api/my/pulses [get]
func (h *PulseHandler) MyPulses(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	pulses, total, err := h.pulseService.MyPulses(c.Request.Context(), actor, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, pulses, params.Page, params.Limit, total))
}
