// internal/models/payment.go
package models

import "github.com/google/uuid"

// PaymentTransaction bridges a checkout session at the payment processor
// to exactly one internal transaction: order_id or borrow_id, never both.
// The payment_status column is the reconciliation idempotence guard -
// flipping it to paid is a conditional single-row update keyed by
// session_id.
type PaymentTransaction struct {
	BaseModel
	SessionID     string        `json:"session_id" gorm:"size:255;uniqueIndex;not null"`
	UserID        uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	OrderID       *uuid.UUID    `json:"order_id,omitempty" gorm:"type:uuid;index"`
	BorrowID      *uuid.UUID    `json:"borrow_id,omitempty" gorm:"type:uuid;index"`
	Amount        float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency      string        `json:"currency" gorm:"size:10;default:'usd'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending';index"`
	Metadata      JSONB         `json:"metadata,omitempty" gorm:"type:text"`

	// Relationships
	Order  *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Borrow *BorrowRequest `json:"borrow,omitempty" gorm:"foreignKey:BorrowID"`
}
