// internal/services/stats_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/models"
)

type StatsServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *StatsService
	college *models.College
	seller  *models.User
	buyer   *models.User
}

func (s *StatsServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewStatsService(s.db)
	s.college = createTestCollege(s.T(), s.db, "Stanford University", "stanford.edu")
	s.seller = createTestUser(s.T(), s.db, s.college.ID, "seller@stanford.edu")
	s.buyer = createTestUser(s.T(), s.db, s.college.ID, "buyer@stanford.edu")
}

func (s *StatsServiceTestSuite) TestDashboard() {
	item := createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBoth)
	createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBuy)

	now := time.Now()
	s.Require().NoError(s.db.Create(&models.Order{
		ItemID:        item.ID,
		BuyerID:       s.buyer.ID,
		SellerID:      s.seller.ID,
		CollegeID:     s.college.ID,
		Amount:        50.0,
		Status:        models.OrderStatusCompleted,
		PaymentStatus: models.PaymentStatusPaid,
		CompletedAt:   &now,
	}).Error)

	// A cancelled order counts for nobody.
	s.Require().NoError(s.db.Create(&models.Order{
		ItemID:        item.ID,
		BuyerID:       s.buyer.ID,
		SellerID:      s.seller.ID,
		CollegeID:     s.college.ID,
		Amount:        30.0,
		Status:        models.OrderStatusCancelled,
		PaymentStatus: models.PaymentStatusPending,
	}).Error)

	s.Require().NoError(s.db.Create(&models.BorrowRequest{
		ItemID:        item.ID,
		BorrowerID:    s.buyer.ID,
		LenderID:      s.seller.ID,
		CollegeID:     s.college.ID,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 4),
		Days:          4,
		RentalAmount:  20.0,
		DepositAmount: 20.0,
		TotalAmount:   40.0,
		Status:        models.BorrowStatusClosed,
		PaymentStatus: models.PaymentStatusRefunded,
	}).Error)

	sellerStats, err := s.service.Dashboard(s.seller.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), sellerStats.ItemsListed)
	s.Equal(int64(1), sellerStats.ItemsSold)
	s.Equal(int64(1), sellerStats.ItemsLent)
	s.Equal(50.0, sellerStats.SalesEarnings)
	s.Equal(20.0, sellerStats.RentalEarnings)
	s.Equal(70.0, sellerStats.TotalEarnings)

	buyerStats, err := s.service.Dashboard(s.buyer.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), buyerStats.ItemsBought)
	s.Equal(int64(1), buyerStats.ItemsBorrowed)
	s.Zero(buyerStats.TotalEarnings)
}

func (s *StatsServiceTestSuite) TestFeaturedItemsCapsAtEight() {
	for i := 0; i < 10; i++ {
		createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBuy)
	}
	sold := createTestItem(s.T(), s.db, s.seller.ID, s.college.ID, models.ItemModeBuy)
	s.Require().NoError(s.db.Model(sold).Update("status", models.ItemStatusSold).Error)

	items, err := s.service.FeaturedItems(s.college.ID)
	s.Require().NoError(err)
	s.Len(items, 8)
	for _, item := range items {
		s.Equal(models.ItemStatusAvailable, item.Status)
	}
}

func TestStatsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceTestSuite))
}
