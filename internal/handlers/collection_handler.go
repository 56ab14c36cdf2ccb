package handlers

import (
	"net/http"

	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	Collections *services.CollectionService
}

func NewCollectionHandler(collections *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{Collections: collections}
}

func (h *CollectionHandler) Create(c *gin.Context) {
	var req services.CreateCollectionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	req.OrganizerId = c.GetString("user_id")

	collection, err := h.Collections.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(collection, "Collection created"))
}

func (h *CollectionHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.Collections.Categories()})
}

func (h *CollectionHandler) PublicStats(c *gin.Context) {
	stats, err := h.Collections.PublicStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(stats, "Successful"))
}

func (h *CollectionHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Collections.List(services.ListCollectionsDTO{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CollectionHandler) Get(c *gin.Context) {
	collection, err := h.Collections.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(collection, "Successful"))
}

func (h *CollectionHandler) GetByShareLink(c *gin.Context) {
	collection, err := h.Collections.GetByShareLink(c.Param("link"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(collection, "Successful"))
}

func (h *CollectionHandler) ListMine(c *gin.Context) {
	list, err := h.Collections.ListByOrganizer(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(list, "Successful"))
}

func (h *CollectionHandler) ListDonations(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Collections.ListDonations(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats is organizer-only: it exposes the available balance.
func (h *CollectionHandler) Stats(c *gin.Context) {
	collection, err := h.Collections.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if collection.OrganizerId != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, common.NewErrorResponse("Only the organizer can view collection stats", nil, http.StatusForbidden))
		return
	}

	stats, err := h.Collections.Stats(collection.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(stats, "Successful"))
}
