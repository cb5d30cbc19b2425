// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	var req services.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.paymentService.CreateCheckout(userID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, resp)
}

// GET /payments/status/:session_id
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	sessionID := c.Param("session_id")
	if sessionID == "" {
		utils.BadRequestResponse(c, "Session ID required", nil)
		return
	}

	status, err := h.paymentService.CheckStatus(sessionID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /payments/history
func (h *PaymentHandler) GetHistory(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	params := utils.GetPaginationParams(c)

	transactions, total, err := h.paymentService.GetPaymentHistory(userID, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /webhook/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read request body", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(payload, signature); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			utils.HandleServiceError(c, err)
			return
		}
		// Reconcile is safe to retry; transient failures answer 200.
		logrus.WithError(err).Error("Webhook processing failed")
	}

	utils.SuccessResponse(c, gin.H{"status": "success"})
}
