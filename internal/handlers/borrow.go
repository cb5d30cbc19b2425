// internal/handlers/borrow.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/utils"
)

type BorrowHandler struct {
	borrowService *services.BorrowService
}

func NewBorrowHandler(borrowService *services.BorrowService) *BorrowHandler {
	return &BorrowHandler{
		borrowService: borrowService,
	}
}

// POST /borrow
func (h *BorrowHandler) CreateRequest(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	var req services.CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	borrow, err := h.borrowService.CreateRequest(userID, collegeID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"borrow_request": borrow})
}

// GET /borrow?type=borrowed|lent
func (h *BorrowHandler) ListRequests(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrows, err := h.borrowService.ListRequests(userID, c.DefaultQuery("type", "borrowed"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"borrow_requests": borrows})
}

// GET /borrow/pending
func (h *BorrowHandler) ListPending(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrows, err := h.borrowService.ListPending(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"borrow_requests": borrows})
}

// GET /borrow/:id
func (h *BorrowHandler) GetRequest(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid borrow request ID", nil)
		return
	}

	borrow, err := h.borrowService.GetRequest(borrowID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"borrow_request": borrow})
}

// POST /borrow/:id/approve
func (h *BorrowHandler) Decide(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid borrow request ID", nil)
		return
	}

	var req services.BorrowDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	borrow, err := h.borrowService.Decide(borrowID, userID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	message := "Request rejected"
	if req.Approved {
		message = "Request approved"
	}

	utils.SuccessResponse(c, gin.H{
		"message":        message,
		"borrow_request": borrow,
	})
}

// POST /borrow/:id/return
func (h *BorrowHandler) Return(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid borrow request ID", nil)
		return
	}

	borrow, err := h.borrowService.Return(borrowID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        "Item returned",
		"borrow_request": borrow,
	})
}

// POST /borrow/:id/confirm-return
func (h *BorrowHandler) ConfirmReturn(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	borrowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid borrow request ID", nil)
		return
	}

	borrow, err := h.borrowService.ConfirmReturn(borrowID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        "Return confirmed, deposit refunded",
		"borrow_request": borrow,
	})
}
