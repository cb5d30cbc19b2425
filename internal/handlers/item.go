// internal/handlers/item.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/utils"
)

type ItemHandler struct {
	itemService *services.ItemService
}

func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.itemService.CreateItem(userID, collegeID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"item": item})
}

// GET /items
func (h *ItemHandler) ListItems(c *gin.Context) {
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	filters := services.ItemFilters{
		Mode:      c.Query("mode"),
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		Search:    c.Query("search"),
	}
	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MinPrice = &f
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MaxPrice = &f
		}
	}

	result, err := h.itemService.ListItems(c, collegeID, filters)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /items/my
func (h *ItemHandler) ListMyItems(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	items, err := h.itemService.ListMyItems(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"items": items})
}

// GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID", nil)
		return
	}

	item, err := h.itemService.GetItem(itemID, collegeID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"item": item})
}

// PUT /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID", nil)
		return
	}

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.itemService.UpdateItem(itemID, userID, collegeID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"item": item})
}

// DELETE /items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid item ID", nil)
		return
	}

	if err := h.itemService.DeleteItem(itemID, userID, collegeID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Item deleted"})
}

// GET /categories
func (h *ItemHandler) ListCategories(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"categories": services.Categories})
}
