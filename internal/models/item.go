// internal/models/item.go
package models

import "github.com/google/uuid"

// Item status is the single source of truth for availability. Only the
// transaction core (orders, borrows, payment reconciliation) moves it
// between available/rented/sold; item edits cannot.
type Item struct {
	BaseModel
	CollegeID   uuid.UUID     `json:"college_id" gorm:"type:uuid;not null;index"`
	OwnerID     uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string        `json:"title" gorm:"size:255;not null"`
	Description string        `json:"description" gorm:"type:text"`
	Category    string        `json:"category" gorm:"size:100;index"`
	Mode        ItemMode      `json:"mode" gorm:"type:varchar(10);not null"`
	PriceBuy    *float64      `json:"price_buy,omitempty" gorm:"type:decimal(10,2)"`
	PriceBorrow *float64      `json:"price_borrow,omitempty" gorm:"type:decimal(10,2)"`
	Deposit     *float64      `json:"deposit,omitempty" gorm:"type:decimal(10,2)"`
	Condition   ItemCondition `json:"condition" gorm:"type:varchar(20)"`
	Status      ItemStatus    `json:"status" gorm:"type:varchar(20);default:'available';index"`
	Images      StringList    `json:"images" gorm:"type:text"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// BuyPrice returns the snapshot price for a purchase, 0 when unset.
func (i *Item) BuyPrice() float64 {
	if i.PriceBuy == nil {
		return 0
	}
	return *i.PriceBuy
}

func (i *Item) BorrowPrice() float64 {
	if i.PriceBorrow == nil {
		return 0
	}
	return *i.PriceBorrow
}

func (i *Item) DepositAmount() float64 {
	if i.Deposit == nil {
		return 0
	}
	return *i.Deposit
}

// SellableVia reports whether the item's mode admits the given mode.
func (i *Item) SellableVia(mode ItemMode) bool {
	return i.Mode == mode || i.Mode == ItemModeBoth
}
