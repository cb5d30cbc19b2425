// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	checkoutsession "github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/refund"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

// PaymentService owns checkout sessions and reconciliation. Payment
// state can arrive twice, from the status poll and from the webhook,
// so the paid transition is a conditional single-row update keyed by
// session id: whichever path loses the race is a no-op.
type PaymentService struct {
	db            *gorm.DB
	config        *config.Config
	notifications *NotificationService
}

type CreateCheckoutRequest struct {
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	BorrowID  *uuid.UUID `json:"borrow_id,omitempty"`
	OriginURL string     `json:"origin_url" validate:"required,url"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type PaymentStatusResponse struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	AmountTotal   float64 `json:"amount_total"`
	Currency      string  `json:"currency"`
}

func NewPaymentService(db *gorm.DB, config *config.Config, notifications *NotificationService) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:            db,
		config:        config,
		notifications: notifications,
	}
}

// CreateCheckout opens a checkout session for exactly one order or one
// borrow request and records the pending payment transaction.
func (s *PaymentService) CreateCheckout(userID uuid.UUID, req *CreateCheckoutRequest) (*CheckoutResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}
	if (req.OrderID == nil) == (req.BorrowID == nil) {
		return nil, apperrors.InvalidInput("exactly one of order_id or borrow_id is required")
	}

	var amount float64
	metadata := models.JSONB{"user_id": userID.String()}

	if req.OrderID != nil {
		var order models.Order
		if err := s.db.First(&order, *req.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("order")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if order.BuyerID != userID {
			return nil, apperrors.Forbidden("only the buyer can pay for an order")
		}
		if order.Status != models.OrderStatusCreated {
			return nil, apperrors.Conflict("order is not awaiting payment")
		}
		amount = order.Amount
		metadata["type"] = "buy"
		metadata["order_id"] = order.ID.String()
	} else {
		var borrow models.BorrowRequest
		if err := s.db.First(&borrow, *req.BorrowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("borrow request")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if borrow.BorrowerID != userID {
			return nil, apperrors.Forbidden("only the borrower can pay for a loan")
		}
		if borrow.Status != models.BorrowStatusApproved {
			return nil, apperrors.Conflict("borrow request is not approved")
		}
		amount = borrow.TotalAmount
		metadata["type"] = "borrow"
		metadata["borrow_id"] = borrow.ID.String()
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.config.Payment.Currency),
					UnitAmount: stripe.Int64(int64(amount * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Campus Market payment"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.OriginURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(req.OriginURL + "/payment/cancel"),
	}
	for k, v := range metadata {
		if str, ok := v.(string); ok {
			params.AddMetadata(k, str)
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	txn := &models.PaymentTransaction{
		SessionID:     sess.ID,
		UserID:        userID,
		OrderID:       req.OrderID,
		BorrowID:      req.BorrowID,
		Amount:        amount,
		Currency:      s.config.Payment.Currency,
		PaymentStatus: models.PaymentStatusPending,
		Metadata:      metadata,
	}
	if err := s.db.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment transaction: %w", err)
	}

	if req.OrderID != nil {
		s.db.Model(&models.Order{}).Where("id = ?", *req.OrderID).
			Update("payment_session_id", sess.ID)
	} else {
		s.db.Model(&models.BorrowRequest{}).Where("id = ?", *req.BorrowID).
			Update("payment_session_id", sess.ID)
	}

	return &CheckoutResponse{
		CheckoutURL: sess.URL,
		SessionID:   sess.ID,
	}, nil
}

// CheckStatus polls the processor for a session and reconciles on the
// way out. Safe to call any number of times.
func (s *PaymentService) CheckStatus(sessionID string, userID uuid.UUID) (*PaymentStatusResponse, error) {
	var txn models.PaymentTransaction
	if err := s.db.Where("session_id = ?", sessionID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment transaction")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if txn.UserID != userID {
		return nil, apperrors.Forbidden("not your payment session")
	}

	sess, err := checkoutsession.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout session: %w", err)
	}

	if err := s.Reconcile(sessionID, string(sess.PaymentStatus)); err != nil {
		return nil, err
	}

	return &PaymentStatusResponse{
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   float64(sess.AmountTotal) / 100,
		Currency:      string(sess.Currency),
	}, nil
}

// HandleWebhook verifies the processor's signature and reconciles the
// referenced session.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.Payment.StripeWebhookSecret)
	if err != nil {
		return apperrors.InvalidInput("invalid webhook signature")
	}

	if event.Type != "checkout.session.completed" {
		return nil
	}

	sessionID, _ := event.Data.Object["id"].(string)
	paymentStatus, _ := event.Data.Object["payment_status"].(string)
	if sessionID == "" {
		return apperrors.InvalidInput("webhook event missing session id")
	}

	return s.Reconcile(sessionID, paymentStatus)
}

// Reconcile applies a processor-reported payment state to our records.
// The core is one conditional update: flip the transaction to paid only
// if it is not already paid. RowsAffected zero means another invocation
// got there first and the cascade is skipped entirely, which is what
// makes double delivery harmless.
func (s *PaymentService) Reconcile(sessionID, processorStatus string) error {
	if processorStatus != "paid" {
		return nil
	}

	var paidTxn *models.PaymentTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentTransaction{}).
			Where("session_id = ? AND payment_status <> ?", sessionID, models.PaymentStatusPaid).
			Update("payment_status", models.PaymentStatusPaid)
		if res.Error != nil {
			return fmt.Errorf("failed to update payment transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already reconciled, or unknown session.
			return nil
		}

		var txn models.PaymentTransaction
		if err := tx.Where("session_id = ?", sessionID).First(&txn).Error; err != nil {
			return fmt.Errorf("failed to load payment transaction: %w", err)
		}

		if txn.OrderID != nil {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", *txn.OrderID, models.OrderStatusCreated).
				Updates(map[string]interface{}{
					"status":         models.OrderStatusPaid,
					"payment_status": models.PaymentStatusPaid,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to update order: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				// A paid transaction against an order that already left
				// the created state, usually a cancel racing the payment.
				logrus.WithFields(logrus.Fields{
					"session_id": sessionID,
					"order_id":   *txn.OrderID,
				}).Warn("Payment received for order no longer awaiting payment")
			}
		}

		if txn.BorrowID != nil {
			res := tx.Model(&models.BorrowRequest{}).
				Where("id = ? AND status = ?", *txn.BorrowID, models.BorrowStatusApproved).
				Updates(map[string]interface{}{
					"status":         models.BorrowStatusActive,
					"payment_status": models.PaymentStatusPaid,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to update borrow request: %w", res.Error)
			}

			if res.RowsAffected > 0 {
				var borrow models.BorrowRequest
				if err := tx.First(&borrow, *txn.BorrowID).Error; err != nil {
					return fmt.Errorf("failed to load borrow request: %w", err)
				}
				if err := tx.Model(&models.Item{}).
					Where("id = ? AND status = ?", borrow.ItemID, models.ItemStatusAvailable).
					Update("status", models.ItemStatusRented).Error; err != nil {
					return fmt.Errorf("failed to update item: %w", err)
				}
			}
		}

		paidTxn = &txn
		return nil
	})
	if err != nil {
		return err
	}

	if paidTxn != nil && paidTxn.OrderID != nil {
		var order models.Order
		if err := s.db.Preload("Item").Preload("Buyer").Preload("Seller").
			First(&order, *paidTxn.OrderID).Error; err == nil {
			go s.notifications.SendOrderConfirmationEmail(&order)
		}
	}

	return nil
}

// RefundDeposit returns the deposit portion of a borrow payment through
// the processor. Implements DepositRefunder.
func (s *PaymentService) RefundDeposit(borrow *models.BorrowRequest) error {
	if borrow.PaymentSessionID == "" {
		return fmt.Errorf("borrow %s has no payment session", borrow.ID)
	}

	sess, err := checkoutsession.Get(borrow.PaymentSessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch checkout session: %w", err)
	}
	if sess.PaymentIntent == nil {
		return fmt.Errorf("session %s has no payment intent", borrow.PaymentSessionID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		Amount:        stripe.Int64(int64(borrow.DepositAmount * 100)),
		Reason:        stripe.String("requested_by_customer"),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"borrow_id": borrow.ID,
		"amount":    borrow.DepositAmount,
	}).Info("Deposit refunded")

	return nil
}

// GetPaymentHistory lists a user's payment transactions, newest first.
func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.PaymentTransaction, int64, error) {
	query := s.db.Model(&models.PaymentTransaction{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "payment_status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.PaymentTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

