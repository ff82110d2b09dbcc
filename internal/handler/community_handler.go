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

type CommunityHandler struct {
	communityService service.CommunityService
}

func NewCommunityHandler(communityService service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

// RegisterRoutes binds community endpoints. The actor middleware resolves
// the caller's moderation identity and, for managers, their current scope.
func (h *CommunityHandler) RegisterRoutes(router *gin.RouterGroup, actor gin.HandlerFunc) {
	anyRole := middleware.RequireRole(moderation.RoleResident, moderation.RoleManager, moderation.RoleAdmin)
	reviewer := middleware.RequireRole(moderation.RoleManager, moderation.RoleAdmin)
	admin := middleware.RequireRole(moderation.RoleAdmin)

	communities := router.Group("/api/communities")
	{
		communities.GET("", anyRole, h.ListCommunities)
		communities.GET("/:id", anyRole, h.GetCommunity)
		communities.POST("", admin, actor, h.CreateCommunity)
		communities.PUT("/:id", admin, actor, h.UpdateCommunity)
		communities.GET("/:id/members", reviewer, h.ListMembers)
		communities.POST("/:id/managers", admin, actor, h.AssignManager)
		communities.DELETE("/:id/managers/:userId", admin, actor, h.RevokeManager)
		communities.POST("/:id/join-requests", anyRole, actor, h.SubmitJoinRequest)
	}

	router.GET("/api/my/join-requests", anyRole, actor, h.MyJoinRequests)
}

// ListCommunities returns paginated communities with optional name search
// @Summary      List communities
// @Tags         communities
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name"
// @Success      200     {object}  response.Response
// @Router       /api/communities [get]
func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	params := pagination.Parse(c)

	communities, total, err := h.communityService.List(c.Request.Context(), params.Search, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, communities, params.Page, params.Limit, total))
}

// GetCommunity returns a single community
// @Summary      Get community by ID
// @Tags         communities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Community ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/communities/{id} [get]
func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	community, err := h.communityService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, community))
}

// CreateCommunity creates a community
// @Summary      Create community
// @Tags         communities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCommunityRequest  true  "Community payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/communities [post]
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	community, err := h.communityService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, community))
}

// UpdateCommunity modifies a community
// @Summary      Update community
// @Tags         communities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Community ID"
// @Param        payload  body      service.UpdateCommunityRequest  true  "Update payload"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/communities/{id} [put]
func (h *CommunityHandler) UpdateCommunity(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	var req service.UpdateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	community, err := h.communityService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, community))
}

// ListMembers returns the approved membership roster of a community
// @Summary      List community members
// @Tags         communities
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Community ID"
// @Param        page   query     int     false  "Page number (default: 1)"
// @Param        limit  query     int     false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Router       /api/communities/{id}/members [get]
func (h *CommunityHandler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	params := pagination.Parse(c)

	members, total, err := h.communityService.ListMembers(c.Request.Context(), id, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, members, params.Page, params.Limit, total))
}

// AssignManager grants a user moderation scope over a community
// @Summary      Assign community manager
// @Tags         communities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Community ID"
// @Param        payload  body      service.AssignManagerRequest  true  "Manager payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/communities/{id}/managers [post]
func (h *CommunityHandler) AssignManager(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	var req service.AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid user id"))
		return
	}

	if err := h.communityService.AssignManager(c.Request.Context(), actor, communityID, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "manager assigned"}))
}

// RevokeManager removes a user's moderation scope over a community
// @Summary      Revoke community manager
// @Tags         communities
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Community ID"
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  response.Response
// @Router       /api/communities/{id}/managers/{userId} [delete]
func (h *CommunityHandler) RevokeManager(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid user id"))
		return
	}

	if err := h.communityService.RevokeManager(c.Request.Context(), actor, communityID, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "manager revoked"}))
}

// SubmitJoinRequest enters the caller into the community's review queue
// @Summary      Submit join request
// @Description  Creates a pending join request. Membership is granted only after a reviewer approves it.
// @Tags         communities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true   "Community ID"
// @Param        payload  body      service.SubmitJoinRequestDTO  false  "Optional message to reviewers"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/communities/{id}/join-requests [post]
func (h *CommunityHandler) SubmitJoinRequest(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
		return
	}

	var req service.SubmitJoinRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is fine — the message is optional
		req.Message = ""
	}

	request, err := h.communityService.SubmitJoinRequest(c.Request.Context(), actor, communityID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// MyJoinRequests lists the caller's own join requests across communities
// @Summary      List my join requests
// @Tags         communities
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Router       /api/my/join-requests [get]
func (h *CommunityHandler) MyJoinRequests(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	requests, total, err := h.communityService.MyJoinRequests(c.Request.Context(), actor, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, requests, params.Page, params.Limit, total))
}
