// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

type OrderService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateOrderRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
}

func NewOrderService(db *gorm.DB, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		notifications: notifications,
	}
}

// CreateOrder opens a buy transaction against an available item. The
// amount is snapshotted from the item's buy price so later edits never
// change what the buyer owes. The item stays available until the order
// completes: concurrent orders race on the item status flip instead.
func (s *OrderService) CreateOrder(buyerID, collegeID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	var order *models.Order
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
		if !item.SellableVia(models.ItemModeBuy) {
			return apperrors.InvalidInput("item is not for sale")
		}
		if item.OwnerID == buyerID {
			return apperrors.Conflict("cannot buy your own item")
		}

		order = &models.Order{
			ItemID:        item.ID,
			BuyerID:       buyerID,
			SellerID:      item.OwnerID,
			CollegeID:     collegeID,
			Amount:        item.BuyPrice(),
			Status:        models.OrderStatusCreated,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getOrder(order.ID)
}

// ListOrders returns the user's orders, as buyer or as seller.
func (s *OrderService) ListOrders(userID uuid.UUID, side string) ([]models.Order, error) {
	query := s.db.Preload("Item").Preload("Buyer").Preload("Seller")

	if side == "sold" {
		query = query.Where("seller_id = ?", userID)
	} else {
		query = query.Where("buyer_id = ?", userID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != userID && order.SellerID != userID {
		return nil, apperrors.Forbidden("not a participant in this order")
	}
	return order, nil
}

// CompleteOrder finalizes a paid order: the buyer confirms the handover
// and the item flips available -> sold. The conditional item update is
// what guarantees at most one order ever wins an item; a second
// completion attempt for the same item loses the race and conflicts.
func (s *OrderService) CompleteOrder(orderID, userID uuid.UUID) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if order.BuyerID != userID {
			return apperrors.Forbidden("only the buyer can complete an order")
		}
		if order.PaymentStatus != models.PaymentStatusPaid {
			return apperrors.Conflict("payment not completed")
		}
		if order.Status != models.OrderStatusPaid {
			return apperrors.Conflict("order is not in a completable state")
		}

		res := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", order.ItemID, models.ItemStatusAvailable).
			Update("status", models.ItemStatusSold)
		if res.Error != nil {
			return fmt.Errorf("failed to update item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("item is no longer available")
		}

		now := time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":       models.OrderStatusCompleted,
			"completed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	go s.notifications.SendSaleEmail(order)

	return order, nil
}

// CancelOrder aborts an unpaid order. Paid orders cannot be cancelled,
// they settle through completion.
func (s *OrderService) CancelOrder(orderID, userID uuid.UUID) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("order")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if order.BuyerID != userID && order.SellerID != userID {
			return apperrors.Forbidden("not a participant in this order")
		}
		if order.Status != models.OrderStatusCreated {
			return apperrors.Conflict("only unpaid orders can be cancelled")
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusCreated).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("order state changed, retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.getOrder(orderID)
}

func (s *OrderService) getOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Item").Preload("Buyer").Preload("Seller").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}
