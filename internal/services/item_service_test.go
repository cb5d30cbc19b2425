// internal/services/item_service_test.go
package services

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
)

type ItemServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ItemService
	college *models.College
	owner   *models.User
}

func (s *ItemServiceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *ItemServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewItemService(s.db)
	s.college = createTestCollege(s.T(), s.db, "Stanford University", "stanford.edu")
	s.owner = createTestUser(s.T(), s.db, s.college.ID, "owner@stanford.edu")
}

func (s *ItemServiceTestSuite) listContext(query string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/v1/items"+query, nil)
	return c
}

func floatPtr(v float64) *float64 { return &v }

func (s *ItemServiceTestSuite) TestCreateItem() {
	item, err := s.service.CreateItem(s.owner.ID, s.college.ID, &CreateItemRequest{
		Title:     "Desk Lamp",
		Category:  "furniture",
		Mode:      models.ItemModeBuy,
		PriceBuy:  floatPtr(15),
		Condition: models.ItemConditionLikeNew,
		Images:    []string{"https://example.com/lamp.jpg"},
	})
	s.Require().NoError(err)
	s.Equal(models.ItemStatusAvailable, item.Status)
	s.Equal(s.owner.ID, item.OwnerID)
	s.Equal(s.college.ID, item.CollegeID)
	s.Len(item.Images, 1)
}

func (s *ItemServiceTestSuite) TestCreateItemPricingRules() {
	// A buyable item needs a buy price.
	_, err := s.service.CreateItem(s.owner.ID, s.college.ID, &CreateItemRequest{
		Title:     "Desk Lamp",
		Category:  "furniture",
		Mode:      models.ItemModeBuy,
		Condition: models.ItemConditionGood,
	})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))

	// A dual-mode item needs both prices.
	_, err = s.service.CreateItem(s.owner.ID, s.college.ID, &CreateItemRequest{
		Title:     "Desk Lamp",
		Category:  "furniture",
		Mode:      models.ItemModeBoth,
		PriceBuy:  floatPtr(15),
		Condition: models.ItemConditionGood,
	})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *ItemServiceTestSuite) TestCreateItemUnknownCategory() {
	_, err := s.service.CreateItem(s.owner.ID, s.college.ID, &CreateItemRequest{
		Title:     "Mystery Box",
		Category:  "mystery",
		Mode:      models.ItemModeBuy,
		PriceBuy:  floatPtr(10),
		Condition: models.ItemConditionGood,
	})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *ItemServiceTestSuite) TestListItemsScopedToCampusAndStatus() {
	createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)

	sold := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)
	s.Require().NoError(s.db.Model(sold).Update("status", models.ItemStatusSold).Error)

	mit := createTestCollege(s.T(), s.db, "MIT", "mit.edu")
	outsider := createTestUser(s.T(), s.db, mit.ID, "outsider@mit.edu")
	createTestItem(s.T(), s.db, outsider.ID, mit.ID, models.ItemModeBuy)

	result, err := s.service.ListItems(s.listContext(""), s.college.ID, ItemFilters{})
	s.Require().NoError(err)
	s.Equal(int64(1), result.Total)
}

func (s *ItemServiceTestSuite) TestListItemsModeFilter() {
	createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)
	createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBorrow)
	createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBoth)

	result, err := s.service.ListItems(s.listContext(""), s.college.ID, ItemFilters{Mode: "buy"})
	s.Require().NoError(err)
	s.Equal(int64(2), result.Total)

	result, err = s.service.ListItems(s.listContext(""), s.college.ID, ItemFilters{Mode: "borrow"})
	s.Require().NoError(err)
	s.Equal(int64(2), result.Total)

	_, err = s.service.ListItems(s.listContext(""), s.college.ID, ItemFilters{Mode: "lease"})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *ItemServiceTestSuite) TestGetItemCrossCollegeForbidden() {
	item := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)

	mit := createTestCollege(s.T(), s.db, "MIT", "mit.edu")
	_, err := s.service.GetItem(item.ID, mit.ID)
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *ItemServiceTestSuite) TestUpdateItemOwnerOnly() {
	item := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)
	other := createTestUser(s.T(), s.db, s.college.ID, "other@stanford.edu")

	_, err := s.service.UpdateItem(item.ID, other.ID, s.college.ID, &UpdateItemRequest{Title: "Hijacked"})
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *ItemServiceTestSuite) TestUpdateItemCannotTouchStatus() {
	item := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)

	updated, err := s.service.UpdateItem(item.ID, s.owner.ID, s.college.ID, &UpdateItemRequest{
		Title:    "Calculus Textbook 2nd Ed",
		PriceBuy: floatPtr(45),
	})
	s.Require().NoError(err)
	s.Equal("Calculus Textbook 2nd Ed", updated.Title)
	s.Equal(45.0, updated.BuyPrice())
	s.Equal(models.ItemStatusAvailable, updated.Status)
}

func (s *ItemServiceTestSuite) TestDeleteRentedItemConflicts() {
	item := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBorrow)
	s.Require().NoError(s.db.Model(item).Update("status", models.ItemStatusRented).Error)

	err := s.service.DeleteItem(item.ID, s.owner.ID, s.college.ID)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *ItemServiceTestSuite) TestDeleteItem() {
	item := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)

	s.Require().NoError(s.service.DeleteItem(item.ID, s.owner.ID, s.college.ID))

	_, err := s.service.GetItem(item.ID, s.college.ID)
	s.True(errors.Is(err, apperrors.ErrNotFound))
}

func (s *ItemServiceTestSuite) TestListMyItemsIncludesAllStatuses() {
	createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)
	sold := createTestItem(s.T(), s.db, s.owner.ID, s.college.ID, models.ItemModeBuy)
	s.Require().NoError(s.db.Model(sold).Update("status", models.ItemStatusSold).Error)

	items, err := s.service.ListMyItems(s.owner.ID)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func TestItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}
