// internal/services/message_service.go
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

type MessageService struct {
	db *gorm.DB
}

type SendMessageRequest struct {
	ReceiverID uuid.UUID  `json:"receiver_id" validate:"required"`
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	Content    string     `json:"content" validate:"required,min=1,max=5000"`
}

type ConversationSummary struct {
	Conversation models.Conversation `json:"conversation"`
	UnreadCount  int64               `json:"unread_count"`
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SendMessage delivers a message to another user on the same campus,
// creating the conversation on first contact. One conversation exists
// per (pair of users, item).
func (s *MessageService) SendMessage(senderID, collegeID uuid.UUID, req *SendMessageRequest) (*models.Message, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}
	if req.ReceiverID == senderID {
		return nil, apperrors.InvalidInput("cannot message yourself")
	}

	var receiver models.User
	if err := s.db.First(&receiver, req.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("receiver")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if receiver.CollegeID != collegeID {
		return nil, apperrors.Forbidden("can only message users on the same campus")
	}

	var message *models.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		conv, err := s.findOrCreateConversation(tx, senderID, req.ReceiverID, collegeID, req.ItemID)
		if err != nil {
			return err
		}

		message = &models.Message{
			ConversationID: conv.ID,
			SenderID:       senderID,
			ReceiverID:     req.ReceiverID,
			Content:        req.Content,
		}
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		preview := req.Content
		if runes := []rune(preview); len(runes) > 100 {
			preview = string(runes[:100])
		}
		now := time.Now()
		if err := tx.Model(conv).Updates(map[string]interface{}{
			"last_message":    preview,
			"last_message_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Sender").First(message, message.ID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return message, nil
}

// ListConversations returns the user's conversations with unread counts,
// most recently active first.
func (s *MessageService) ListConversations(userID uuid.UUID) ([]ConversationSummary, error) {
	var conversations []models.Conversation
	err := s.db.Preload("Item").Preload("Initiator").Preload("Recipient").
		Where("initiator_id = ? OR recipient_id = ?", userID, userID).
		Order("last_message_at DESC").
		Limit(50).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		var unread int64
		if err := s.db.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND read = ?", conv.ID, userID, false).
			Count(&unread).Error; err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}
		summaries = append(summaries, ConversationSummary{
			Conversation: conv,
			UnreadCount:  unread,
		})
	}
	return summaries, nil
}

// UnreadCount returns the user's total unread messages across all
// conversations, for the navigation badge.
func (s *MessageService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// GetMessages returns a conversation's messages oldest first and marks
// the caller's incoming messages as read.
func (s *MessageService) GetMessages(conversationID, userID uuid.UUID) ([]models.Message, error) {
	var conv models.Conversation
	if err := s.db.First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("conversation")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !conv.Involves(userID) {
		return nil, apperrors.Forbidden("not a participant in this conversation")
	}

	if err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ?", conversationID, userID).
		Update("read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	var messages []models.Message
	err := s.db.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(200).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, nil
}

func (s *MessageService) findOrCreateConversation(tx *gorm.DB, senderID, receiverID, collegeID uuid.UUID, itemID *uuid.UUID) (*models.Conversation, error) {
	query := tx.Where(
		"(initiator_id = ? AND recipient_id = ?) OR (initiator_id = ? AND recipient_id = ?)",
		senderID, receiverID, receiverID, senderID,
	)
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	} else {
		query = query.Where("item_id IS NULL")
	}

	var conv models.Conversation
	err := query.First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	conv = models.Conversation{
		ItemID:      itemID,
		InitiatorID: senderID,
		RecipientID: receiverID,
		CollegeID:   collegeID,
	}
	if err := tx.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}
