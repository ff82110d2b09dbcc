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

// DecisionRequest carries the reviewer's notes. Rejections must include
// them; approvals may.
type DecisionRequest struct {
	Notes string `json:"notes"`
}

type ModerationHandler struct {
	moderationService service.ModerationService
}

func NewModerationHandler(moderationService service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) RegisterRoutes(router *gin.RouterGroup, actor gin.HandlerFunc) {
	anyRole := middleware.RequireRole(moderation.RoleResident, moderation.RoleManager, moderation.RoleAdmin)
	reviewer := middleware.RequireRole(moderation.RoleManager, moderation.RoleAdmin)

	mod := router.Group("/api/moderation")
	{
		mod.GET("/pending", reviewer, actor, h.ListPending)
		mod.GET("/stats", reviewer, actor, h.Stats)

		items := mod.Group("/items/:kind/:id")
		{
			items.PUT("/approve", reviewer, actor, h.Approve)
			items.PUT("/reject", reviewer, actor, h.Reject)
			// Owners may query their own submission's status.
			items.GET("/status", anyRole, actor, h.GetStatus)
		}
	}
}

func parseItemRef(c *gin.Context) (moderation.Kind, uuid.UUID, bool) {
	kind, err := moderation.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "unknown resource kind"))
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid resource id"))
		return "", uuid.Nil, false
	}

	return kind, id, true
}

// ListPending returns the review queue of one resource kind within the
// caller's scope
// @Summary      List pending resources
// @Tags         moderation
// @Security     BearerAuth
// @Produce      json
// @Param        kind          query     string  true   "Resource kind: join-requests, pulses, listings, event-registrations"
// @Param        community_id  query     string  false  "Restrict to one community"
// @Param        search        query     string  false  "Search resource text"
// @Param        page          query     int     false  "Page number (default: 1)"
// @Param        limit         query     int     false  "Items per page (default: 20)"
// @Success      200           {object}  response.Response
// @Failure      400           {object}  response.Response
// @Router       /api/moderation/pending [get]
func (h *ModerationHandler) ListPending(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	kind, err := moderation.ParseKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "unknown resource kind"))
		return
	}

	var communityID *uuid.UUID
	if raw := c.Query("community_id"); raw != "" {
		id, perr := uuid.Parse(raw)
		if perr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
			return
		}
		communityID = &id
	}

	params := pagination.Parse(c)

	resources, total, err := h.moderationService.ListPending(c.Request.Context(), kind, actor, communityID, params.Search, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, resources, params.Page, params.Limit, total))
}

// Stats returns pending counts per kind within the caller's scope
// @Summary      Moderation queue statistics
// @Tags         moderation
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/moderation/stats [get]
func (h *ModerationHandler) Stats(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	stats, err := h.moderationService.Stats(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// Approve approves a pending resource and runs its side effect
// @Summary      Approve resource
// @Tags         moderation
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        kind     path      string                  true   "Resource kind"
// @Param        id       path      string                  true   "Resource ID"
// @Param        payload  body      handler.DecisionRequest  false  "Optional reviewer notes"
// @Success      200      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/moderation/items/{kind}/{id}/approve [put]
func (h *ModerationHandler) Approve(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	kind, id, ok := parseItemRef(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is fine — approval notes are optional
		req.Notes = ""
	}

	result, err := h.moderationService.Approve(c.Request.Context(), kind, id, actor, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}

	h.writeResult(c, result)
}

// Reject rejects a pending resource; notes are mandatory
// @Summary      Reject resource
// @Tags         moderation
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        kind     path      string                  true  "Resource kind"
// @Param        id       path      string                  true  "Resource ID"
// @Param        payload  body      handler.DecisionRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/moderation/items/{kind}/{id}/reject [put]
func (h *ModerationHandler) Reject(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	kind, id, ok := parseItemRef(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Notes = ""
	}

	result, err := h.moderationService.Reject(c.Request.Context(), kind, id, actor, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}

	h.writeResult(c, result)
}

// GetStatus returns the review state of a resource for its owner or a
// reviewer in scope
// @Summary      Get resource review status
// @Tags         moderation
// @Security     BearerAuth
// @Produce      json
// @Param        kind  path      string  true  "Resource kind"
// @Param        id    path      string  true  "Resource ID"
// @Success      200   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/moderation/items/{kind}/{id}/status [get]
func (h *ModerationHandler) GetStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	kind, id, ok := parseItemRef(c)
	if !ok {
		return
	}

	res, err := h.moderationService.GetStatus(c.Request.Context(), kind, id, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func (h *ModerationHandler) writeResult(c *gin.Context, result *service.ModerationResult) {
	if result.Warning != "" {
		c.JSON(http.StatusOK, response.SuccessWithWarning(http.StatusOK, result.Resource, result.Warning))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result.Resource))
}
