// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a buy transaction. Amount is a snapshot of the item's buy price
// at creation time, so later item edits never change what the buyer owes.
type Order struct {
	BaseModel
	ItemID           uuid.UUID     `json:"item_id" gorm:"type:uuid;not null;index"`
	BuyerID          uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID         uuid.UUID     `json:"seller_id" gorm:"type:uuid;not null;index"`
	CollegeID        uuid.UUID     `json:"college_id" gorm:"type:uuid;not null;index"`
	Amount           float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status           OrderStatus   `json:"status" gorm:"type:varchar(20);default:'created';index"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`
	PaymentSessionID string        `json:"payment_session_id,omitempty" gorm:"size:255;index"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`

	// Relationships
	Item   Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Buyer  User `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}
