// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	OrderID  *uuid.UUID `json:"order_id,omitempty"`
	BorrowID *uuid.UUID `json:"borrow_id,omitempty"`
	Rating   int        `json:"rating" validate:"required,gte=1,lte=5"`
	Comment  string     `json:"comment,omitempty" validate:"max=2000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CreateReview rates the counterparty of a transaction the reviewer took
// part in. The reviewee's aggregate rating is maintained incrementally:
// a running sum and count, recomputed in the same statement that inserts
// the review, so it never drifts from the mean and never rescans the
// review table.
func (s *ReviewService) CreateReview(reviewerID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}
	if (req.OrderID == nil) == (req.BorrowID == nil) {
		return nil, apperrors.InvalidInput("exactly one of order_id or borrow_id is required")
	}

	var review *models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		revieweeID, err := s.counterparty(tx, reviewerID, req)
		if err != nil {
			return err
		}

		dupe := tx.Model(&models.Review{}).Where("reviewer_id = ?", reviewerID)
		if req.OrderID != nil {
			dupe = dupe.Where("order_id = ?", *req.OrderID)
		} else {
			dupe = dupe.Where("borrow_id = ?", *req.BorrowID)
		}
		var count int64
		if err := dupe.Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return apperrors.Conflict("transaction already reviewed")
		}

		review = &models.Review{
			ReviewerID: reviewerID,
			RevieweeID: revieweeID,
			OrderID:    req.OrderID,
			BorrowID:   req.BorrowID,
			Rating:     req.Rating,
			Comment:    req.Comment,
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		// rating = mean of all ratings, rounded to one decimal.
		res := tx.Exec(`
			UPDATE users
			SET rating_sum = rating_sum + ?,
			    total_reviews = total_reviews + 1,
			    rating = ROUND((rating_sum + ?) * 1.0 / (total_reviews + 1), 1)
			WHERE id = ?`,
			req.Rating, req.Rating, revieweeID)
		if res.Error != nil {
			return fmt.Errorf("failed to update rating: %w", res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Reviewer").Preload("Reviewee").First(review, review.ID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return review, nil
}

// ListForUser returns the reviews a user has received, newest first.
func (s *ReviewService) ListForUser(userID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("Reviewer").
		Where("reviewee_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) counterparty(tx *gorm.DB, reviewerID uuid.UUID, req *CreateReviewRequest) (uuid.UUID, error) {
	if req.OrderID != nil {
		var order models.Order
		if err := tx.First(&order, *req.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, apperrors.NotFound("order")
			}
			return uuid.Nil, fmt.Errorf("database error: %w", err)
		}
		switch reviewerID {
		case order.BuyerID:
			return order.SellerID, nil
		case order.SellerID:
			return order.BuyerID, nil
		default:
			return uuid.Nil, apperrors.Forbidden("not a participant in this order")
		}
	}

	var borrow models.BorrowRequest
	if err := tx.First(&borrow, *req.BorrowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperrors.NotFound("borrow request")
		}
		return uuid.Nil, fmt.Errorf("database error: %w", err)
	}
	switch reviewerID {
	case borrow.BorrowerID:
		return borrow.LenderID, nil
	case borrow.LenderID:
		return borrow.BorrowerID, nil
	default:
		return uuid.Nil, apperrors.Forbidden("not a participant in this borrow request")
	}
}
