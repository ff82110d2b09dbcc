package handler

import (
	"context"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ListingHandler struct {
	listingService service.ListingService
}

func NewListingHandler(listingService service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

func (h *ListingHandler) RegisterRoutes(router *gin.RouterGroup, actor gin.HandlerFunc) {
	anyRole := middleware.RequireRole(moderation.RoleResident, moderation.RoleManager, moderation.RoleAdmin)

	listings := router.Group("/api/listings")
	{
		listings.GET("", anyRole, h.SearchListings)
		listings.POST("", anyRole, actor, h.SubmitListing)
		listings.PUT("/:id/sold", anyRole, actor, h.MarkSold)
		listings.PUT("/:id/close", anyRole, actor, h.CloseListing)
	}

	router.GET("/api/my/listings", anyRole, actor, h.MyListings)
}

// SearchListings browses the approved, visible marketplace
// @Summary      Search marketplace listings
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        community_id  query     string  false  "Filter by community"
// @Param        category      query     string  false  "Filter by category"
// @Param        search        query     string  false  "Search title and description"
// @Param        page          query     int     false  "Page number (default: 1)"
// @Param        limit         query     int     false  "Items per page (default: 20)"
// @Success      200           {object}  response.Response
// @Router       /api/listings [get]
func (h *ListingHandler) SearchListings(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ListingSearchFilter{
		Category: c.Query("category"),
		Search:   params.Search,
		Page:     params.Page,
		Limit:    params.Limit,
	}
	if raw := c.Query("community_id"); raw != "" {
		communityID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid community id"))
			return
		}
		filter.CommunityID = &communityID
	}

	listings, total, err := h.listingService.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, listings, params.Page, params.Limit, total))
}

// SubmitListing creates a pending marketplace listing for review
// @Summary      Submit listing
// @Description  Creates a listing in the review queue. It becomes searchable only after approval.
// @Tags         listings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitListingRequest  true  "Listing payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/listings [post]
func (h *ListingHandler) SubmitListing(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req service.SubmitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	listing, err := h.listingService.Submit(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, listing))
}

// MarkSold marks the caller's approved listing as sold
// @Summary      Mark listing sold
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/listings/{id}/sold [put]
func (h *ListingHandler) MarkSold(c *gin.Context) {
	ownerTransition(c, h.listingService.MarkSold)
}

// CloseListing withdraws the caller's approved listing
// @Summary      Close listing
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/listings/{id}/close [put]
func (h *ListingHandler) CloseListing(c *gin.Context) {
	ownerTransition(c, h.listingService.Close)
}

func ownerTransition(c *gin.Context, op func(ctx context.Context, actor moderation.Actor, id uuid.UUID) (*model.MarketplaceListing, error)) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid listing id"))
		return
	}

	listing, err := op(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listing))
}

// MyListings lists the caller's own listings in every status
// @Summary      List my listings
// @Tags         listings
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default: 1)"
// @Param        limit  query     int  false  "Items per page (default: 20)"
// @Success      200    {object}  response.Response
// @Router       /api/my/listings [get]
func (h *ListingHandler) MyListings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	listings, total, err := h.listingService.MyListings(c.Request.Context(), actor, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, listings, params.Page, params.Limit, total))
}
