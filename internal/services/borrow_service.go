// internal/services/borrow_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

// DepositRefunder returns a held deposit to the borrower once the
// lender confirms the return. Refund failures are reported but never
// block the bookkeeping.
type DepositRefunder interface {
	RefundDeposit(borrow *models.BorrowRequest) error
}

type BorrowService struct {
	db            *gorm.DB
	notifications *NotificationService
	refunder      DepositRefunder
}

type CreateBorrowRequest struct {
	ItemID    uuid.UUID `json:"item_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

type BorrowDecisionRequest struct {
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason,omitempty" validate:"max=1000"`
}

func NewBorrowService(db *gorm.DB, notifications *NotificationService, refunder DepositRefunder) *BorrowService {
	return &BorrowService{
		db:            db,
		notifications: notifications,
		refunder:      refunder,
	}
}

// RentalDays converts a date range to billable days: whole 24h periods,
// minimum one day. A same-day loan still bills a full day.
func RentalDays(start, end time.Time) int {
	days := int(end.Sub(start) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// CreateRequest opens a borrow request. Rental and deposit amounts are
// snapshotted here; total_amount = rental_amount + deposit_amount holds
// for the life of the request.
func (s *BorrowService) CreateRequest(borrowerID, collegeID uuid.UUID, req *CreateBorrowRequest) (*models.BorrowRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.InvalidInput("end_date must not be before start_date")
	}

	var borrow *models.BorrowRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, req.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("item")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if item.CollegeID != collegeID {
			return apperrors.Forbidden("item belongs to another campus")
		}
		if item.Status != models.ItemStatusAvailable {
			return apperrors.Conflict("item is not available")
		}
		if !item.SellableVia(models.ItemModeBorrow) {
			return apperrors.InvalidInput("item is not for borrowing")
		}
		if item.OwnerID == borrowerID {
			return apperrors.Conflict("cannot borrow your own item")
		}

		days := RentalDays(req.StartDate, req.EndDate)
		rental := item.BorrowPrice() * float64(days)
		deposit := item.DepositAmount()

		borrow = &models.BorrowRequest{
			ItemID:        item.ID,
			BorrowerID:    borrowerID,
			LenderID:      item.OwnerID,
			CollegeID:     collegeID,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			Days:          days,
			RentalAmount:  rental,
			DepositAmount: deposit,
			TotalAmount:   rental + deposit,
			Status:        models.BorrowStatusRequested,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(borrow).Error; err != nil {
			return fmt.Errorf("failed to create borrow request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.getBorrow(borrow.ID)
	if err != nil {
		return nil, err
	}

	go s.notifications.SendBorrowRequestEmail(full)

	return full, nil
}

// ListRequests returns the user's borrow requests, as borrower or lender.
func (s *BorrowService) ListRequests(userID uuid.UUID, side string) ([]models.BorrowRequest, error) {
	query := s.db.Preload("Item").Preload("Borrower").Preload("Lender")

	if side == "lent" {
		query = query.Where("lender_id = ?", userID)
	} else {
		query = query.Where("borrower_id = ?", userID)
	}

	var borrows []models.BorrowRequest
	if err := query.Order("created_at DESC").Find(&borrows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch borrow requests: %w", err)
	}
	return borrows, nil
}

// ListPending returns requests awaiting the user's decision as lender.
func (s *BorrowService) ListPending(lenderID uuid.UUID) ([]models.BorrowRequest, error) {
	var borrows []models.BorrowRequest
	err := s.db.Preload("Item").Preload("Borrower").Preload("Lender").
		Where("lender_id = ? AND status = ?", lenderID, models.BorrowStatusRequested).
		Order("created_at DESC").
		Find(&borrows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	return borrows, nil
}

func (s *BorrowService) GetRequest(borrowID, userID uuid.UUID) (*models.BorrowRequest, error) {
	borrow, err := s.getBorrow(borrowID)
	if err != nil {
		return nil, err
	}

	if borrow.BorrowerID != userID && borrow.LenderID != userID {
		return nil, apperrors.Forbidden("not a participant in this borrow request")
	}
	return borrow, nil
}

// Decide approves or rejects a pending request. Only one decision ever
// takes effect: the status flip is conditional on being requested.
func (s *BorrowService) Decide(borrowID, userID uuid.UUID, req *BorrowDecisionRequest) (*models.BorrowRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var borrow models.BorrowRequest
		if err := tx.First(&borrow, borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("borrow request")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if borrow.LenderID != userID {
			return apperrors.Forbidden("only the lender can decide a request")
		}

		updates := map[string]interface{}{}
		if req.Approved {
			updates["status"] = models.BorrowStatusApproved
		} else {
			updates["status"] = models.BorrowStatusRejected
			updates["rejection_reason"] = req.RejectionReason
		}

		res := tx.Model(&models.BorrowRequest{}).
			Where("id = ? AND status = ?", borrow.ID, models.BorrowStatusRequested).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update borrow request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("request already processed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	borrow, err := s.getBorrow(borrowID)
	if err != nil {
		return nil, err
	}

	if req.Approved {
		go s.notifications.SendBorrowApprovedEmail(borrow)
	} else {
		go s.notifications.SendBorrowRejectedEmail(borrow)
	}

	return borrow, nil
}

// Return marks an active loan as returned and makes the item browsable
// again. Either side can report the return.
func (s *BorrowService) Return(borrowID, userID uuid.UUID) (*models.BorrowRequest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var borrow models.BorrowRequest
		if err := tx.First(&borrow, borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("borrow request")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if borrow.BorrowerID != userID && borrow.LenderID != userID {
			return apperrors.Forbidden("not a participant in this borrow request")
		}

		now := time.Now()
		res := tx.Model(&models.BorrowRequest{}).
			Where("id = ? AND status = ?", borrow.ID, models.BorrowStatusActive).
			Updates(map[string]interface{}{
				"status":      models.BorrowStatusReturned,
				"returned_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update borrow request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("loan is not active")
		}

		if err := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", borrow.ItemID, models.ItemStatusRented).
			Update("status", models.ItemStatusAvailable).Error; err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getBorrow(borrowID)
}

// ConfirmReturn closes the loan: the lender acknowledges the item came
// back undamaged and the deposit goes back to the borrower.
func (s *BorrowService) ConfirmReturn(borrowID, userID uuid.UUID) (*models.BorrowRequest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var borrow models.BorrowRequest
		if err := tx.First(&borrow, borrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("borrow request")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if borrow.LenderID != userID {
			return apperrors.Forbidden("only the lender can confirm a return")
		}

		res := tx.Model(&models.BorrowRequest{}).
			Where("id = ? AND status = ?", borrow.ID, models.BorrowStatusReturned).
			Updates(map[string]interface{}{
				"status":         models.BorrowStatusClosed,
				"payment_status": models.PaymentStatusRefunded,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update borrow request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("item has not been returned yet")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	borrow, err := s.getBorrow(borrowID)
	if err != nil {
		return nil, err
	}

	if s.refunder != nil && borrow.DepositAmount > 0 {
		go func(b models.BorrowRequest) {
			if err := s.refunder.RefundDeposit(&b); err != nil {
				logBorrowRefundFailure(&b, err)
			}
		}(*borrow)
	}

	go s.notifications.SendReturnConfirmedEmail(borrow)

	return borrow, nil
}

func logBorrowRefundFailure(b *models.BorrowRequest, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"borrow_id": b.ID,
		"amount":    b.DepositAmount,
	}).Error("Deposit refund failed, manual follow-up required")
}

func (s *BorrowService) getBorrow(borrowID uuid.UUID) (*models.BorrowRequest, error) {
	var borrow models.BorrowRequest
	if err := s.db.Preload("Item").Preload("Borrower").Preload("Lender").First(&borrow, borrowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("borrow request")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &borrow, nil
}
