// internal/handlers/message.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/utils"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// POST /messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	message, err := h.messageService.SendMessage(userID, collegeID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"message": message})
}

// GET /conversations
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	conversations, err := h.messageService.ListConversations(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"conversations": conversations})
}

// GET /messages/unread-count
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	count, err := h.messageService.UnreadCount(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"unread_count": count})
}

// GET /conversations/:id/messages
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid conversation ID", nil)
		return
	}

	messages, err := h.messageService.GetMessages(conversationID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"messages": messages})
}
