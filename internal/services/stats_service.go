// internal/services/stats_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/models"
)

type StatsService struct {
	db *gorm.DB
}

type DashboardStats struct {
	ItemsListed    int64   `json:"items_listed"`
	ItemsBought    int64   `json:"items_bought"`
	ItemsSold      int64   `json:"items_sold"`
	ItemsBorrowed  int64   `json:"items_borrowed"`
	ItemsLent      int64   `json:"items_lent"`
	SalesEarnings  float64 `json:"sales_earnings"`
	RentalEarnings float64 `json:"rental_earnings"`
	TotalEarnings  float64 `json:"total_earnings"`
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Dashboard aggregates a user's marketplace activity. Earnings count
// only settled transactions: completed orders and closed loans.
func (s *StatsService) Dashboard(userID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}
	activeOrClosed := []models.BorrowStatus{models.BorrowStatusActive, models.BorrowStatusClosed}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.ItemsListed, s.db.Model(&models.Item{}).Where("owner_id = ?", userID)},
		{&stats.ItemsBought, s.db.Model(&models.Order{}).Where("buyer_id = ? AND status = ?", userID, models.OrderStatusCompleted)},
		{&stats.ItemsSold, s.db.Model(&models.Order{}).Where("seller_id = ? AND status = ?", userID, models.OrderStatusCompleted)},
		{&stats.ItemsBorrowed, s.db.Model(&models.BorrowRequest{}).Where("borrower_id = ? AND status IN ?", userID, activeOrClosed)},
		{&stats.ItemsLent, s.db.Model(&models.BorrowRequest{}).Where("lender_id = ? AND status IN ?", userID, activeOrClosed)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
	}

	if err := s.db.Model(&models.Order{}).
		Where("seller_id = ? AND status = ?", userID, models.OrderStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.SalesEarnings).Error; err != nil {
		return nil, fmt.Errorf("failed to compute sales earnings: %w", err)
	}

	if err := s.db.Model(&models.BorrowRequest{}).
		Where("lender_id = ? AND status = ?", userID, models.BorrowStatusClosed).
		Select("COALESCE(SUM(rental_amount), 0)").Scan(&stats.RentalEarnings).Error; err != nil {
		return nil, fmt.Errorf("failed to compute rental earnings: %w", err)
	}

	stats.TotalEarnings = stats.SalesEarnings + stats.RentalEarnings
	return stats, nil
}

// FeaturedItems returns the campus's newest available listings.
func (s *StatsService) FeaturedItems(collegeID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	err := s.db.Preload("Owner").
		Where("college_id = ? AND status = ?", collegeID, models.ItemStatusAvailable).
		Order("created_at DESC").
		Limit(8).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured items: %w", err)
	}
	return items, nil
}
