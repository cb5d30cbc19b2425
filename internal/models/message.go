// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation pairs two users, optionally around an item. Messaging
// shares identity and college scoping with the rest of the system but
// is otherwise independent of the transaction core.
type Conversation struct {
	BaseModel
	ItemID        *uuid.UUID `json:"item_id,omitempty" gorm:"type:uuid;index"`
	InitiatorID   uuid.UUID  `json:"initiator_id" gorm:"type:uuid;not null;index"`
	RecipientID   uuid.UUID  `json:"recipient_id" gorm:"type:uuid;not null;index"`
	CollegeID     uuid.UUID  `json:"college_id" gorm:"type:uuid;not null;index"`
	LastMessage   string     `json:"last_message,omitempty" gorm:"size:100"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" gorm:"index"`

	// Relationships
	Item      *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Initiator User      `json:"initiator,omitempty" gorm:"foreignKey:InitiatorID"`
	Recipient User      `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
	Messages  []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// Involves reports whether the user is one of the two participants.
func (c *Conversation) Involves(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.RecipientID == userID
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	ReceiverID     uuid.UUID `json:"receiver_id" gorm:"type:uuid;not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Read           bool      `json:"read" gorm:"default:false"`

	// Relationships
	Sender User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
