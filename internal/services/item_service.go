// internal/services/item_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

type ItemService struct {
	db *gorm.DB
}

type CreateItemRequest struct {
	Title       string               `json:"title" validate:"required,min=2,max=255"`
	Description string               `json:"description,omitempty" validate:"max=5000"`
	Category    string               `json:"category" validate:"required"`
	Mode        models.ItemMode      `json:"mode" validate:"required,oneof=buy borrow both"`
	PriceBuy    *float64             `json:"price_buy,omitempty" validate:"omitempty,gte=0"`
	PriceBorrow *float64             `json:"price_borrow,omitempty" validate:"omitempty,gte=0"`
	Deposit     *float64             `json:"deposit,omitempty" validate:"omitempty,gte=0"`
	Condition   models.ItemCondition `json:"condition" validate:"required,oneof=new like_new good fair poor"`
	Images      []string             `json:"images,omitempty" validate:"max=10"`
}

type UpdateItemRequest struct {
	Title       string                `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    string                `json:"category,omitempty"`
	Mode        models.ItemMode       `json:"mode,omitempty" validate:"omitempty,oneof=buy borrow both"`
	PriceBuy    *float64              `json:"price_buy,omitempty" validate:"omitempty,gte=0"`
	PriceBorrow *float64              `json:"price_borrow,omitempty" validate:"omitempty,gte=0"`
	Deposit     *float64              `json:"deposit,omitempty" validate:"omitempty,gte=0"`
	Condition   *models.ItemCondition `json:"condition,omitempty" validate:"omitempty,oneof=new like_new good fair poor"`
	Images      []string              `json:"images,omitempty" validate:"omitempty,max=10"`
}

type ItemFilters struct {
	Mode      string
	Category  string
	Condition string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Categories is the fixed taxonomy the catalog is filtered on.
var Categories = []Category{
	{ID: "textbooks", Name: "Textbooks", Icon: "book"},
	{ID: "electronics", Name: "Electronics", Icon: "laptop"},
	{ID: "furniture", Name: "Furniture", Icon: "sofa"},
	{ID: "clothing", Name: "Clothing", Icon: "shirt"},
	{ID: "sports", Name: "Sports", Icon: "dumbbell"},
	{ID: "instruments", Name: "Instruments", Icon: "music"},
	{ID: "appliances", Name: "Appliances", Icon: "refrigerator"},
	{ID: "other", Name: "Other", Icon: "package"},
}

func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{db: db}
}

func validCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *ItemService) CreateItem(ownerID, collegeID uuid.UUID, req *CreateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	if !validCategory(req.Category) {
		return nil, apperrors.InvalidInput("unknown category")
	}

	if err := validatePricing(req.Mode, req.PriceBuy, req.PriceBorrow); err != nil {
		return nil, err
	}

	item := &models.Item{
		CollegeID:   collegeID,
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Mode:        req.Mode,
		PriceBuy:    req.PriceBuy,
		PriceBorrow: req.PriceBorrow,
		Deposit:     req.Deposit,
		Condition:   req.Condition,
		Status:      models.ItemStatusAvailable,
		Images:      models.StringList(req.Images),
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetItem(item.ID, collegeID)
}

// ListItems returns the browsable catalog for a campus: available and
// rented items only, never sold or unavailable ones.
func (s *ItemService) ListItems(c *gin.Context, collegeID uuid.UUID, filters ItemFilters) (*utils.PaginationResult, error) {
	params := utils.GetPaginationParams(c)

	query := s.db.Model(&models.Item{}).
		Preload("Owner").
		Where("college_id = ?", collegeID).
		Where("status IN ?", []models.ItemStatus{models.ItemStatusAvailable, models.ItemStatusRented})

	switch filters.Mode {
	case "", "all":
	case "buy":
		query = query.Where("mode IN ?", []models.ItemMode{models.ItemModeBuy, models.ItemModeBoth})
	case "borrow":
		query = query.Where("mode IN ?", []models.ItemMode{models.ItemModeBorrow, models.ItemModeBoth})
	default:
		return nil, apperrors.InvalidInput("invalid mode filter")
	}

	if filters.Category != "" && filters.Category != "all" {
		query = query.Where("category = ?", filters.Category)
	}

	if filters.Condition != "" {
		query = query.Where("condition = ?", filters.Condition)
	}

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if filters.MinPrice != nil {
		query = query.Where("price_buy >= ? OR price_borrow >= ?", *filters.MinPrice, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price_buy <= ? OR price_borrow <= ?", *filters.MaxPrice, *filters.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	allowedSorts := []string{"created_at", "price_buy", "price_borrow", "title"}
	query = utils.ApplySort(query, params, allowedSorts)
	query = utils.ApplyPagination(query, params)

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	result := utils.CreatePaginationResult(items, total, params)
	return &result, nil
}

// ListMyItems returns every item the user owns, regardless of status.
func (s *ItemService) ListMyItems(ownerID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, nil
}

func (s *ItemService) GetItem(itemID, collegeID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := s.db.Preload("Owner").First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if item.CollegeID != collegeID {
		return nil, apperrors.Forbidden("item belongs to another campus")
	}

	return &item, nil
}

func (s *ItemService) UpdateItem(itemID, userID, collegeID uuid.UUID, req *UpdateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	item, err := s.GetItem(itemID, collegeID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID != userID {
		return nil, apperrors.Forbidden("only the owner can edit an item")
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != "" {
		if !validCategory(req.Category) {
			return nil, apperrors.InvalidInput("unknown category")
		}
		updates["category"] = req.Category
	}
	if req.Mode != "" {
		updates["mode"] = req.Mode
	}
	if req.PriceBuy != nil {
		updates["price_buy"] = *req.PriceBuy
	}
	if req.PriceBorrow != nil {
		updates["price_borrow"] = *req.PriceBorrow
	}
	if req.Deposit != nil {
		updates["deposit"] = *req.Deposit
	}
	if req.Condition != nil {
		updates["condition"] = *req.Condition
	}
	if req.Images != nil {
		updates["images"] = models.StringList(req.Images)
	}

	// Status is deliberately not updatable here. Availability moves only
	// through order and borrow transitions.
	if len(updates) == 0 {
		return item, nil
	}

	if err := s.db.Model(item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return s.GetItem(itemID, collegeID)
}

func (s *ItemService) DeleteItem(itemID, userID, collegeID uuid.UUID) error {
	item, err := s.GetItem(itemID, collegeID)
	if err != nil {
		return err
	}

	if item.OwnerID != userID {
		return apperrors.Forbidden("only the owner can delete an item")
	}

	if item.Status == models.ItemStatusRented {
		return apperrors.Conflict("item is currently on loan")
	}

	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func validatePricing(mode models.ItemMode, priceBuy, priceBorrow *float64) error {
	if (mode == models.ItemModeBuy || mode == models.ItemModeBoth) && priceBuy == nil {
		return apperrors.InvalidInput("price_buy is required for buyable items")
	}
	if (mode == models.ItemModeBorrow || mode == models.ItemModeBoth) && priceBorrow == nil {
		return apperrors.InvalidInput("price_borrow is required for borrowable items")
	}
	return nil
}
