// internal/models/borrow.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// BorrowRequest is a rental transaction. Amounts are snapshots taken when
// the request is created: rental_amount = price_borrow * days and
// total_amount = rental_amount + deposit_amount, always.
type BorrowRequest struct {
	BaseModel
	ItemID           uuid.UUID     `json:"item_id" gorm:"type:uuid;not null;index"`
	BorrowerID       uuid.UUID     `json:"borrower_id" gorm:"type:uuid;not null;index"`
	LenderID         uuid.UUID     `json:"lender_id" gorm:"type:uuid;not null;index"`
	CollegeID        uuid.UUID     `json:"college_id" gorm:"type:uuid;not null;index"`
	StartDate        time.Time     `json:"start_date" gorm:"not null"`
	EndDate          time.Time     `json:"end_date" gorm:"not null"`
	Days             int           `json:"days" gorm:"not null"`
	RentalAmount     float64       `json:"rental_amount" gorm:"type:decimal(10,2);not null"`
	DepositAmount    float64       `json:"deposit_amount" gorm:"type:decimal(10,2);not null"`
	TotalAmount      float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status           BorrowStatus  `json:"status" gorm:"type:varchar(20);default:'requested';index"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending'"`
	PaymentSessionID string        `json:"payment_session_id,omitempty" gorm:"size:255;index"`
	RejectionReason  string        `json:"rejection_reason,omitempty" gorm:"type:text"`
	ReturnedAt       *time.Time    `json:"returned_at,omitempty"`

	// Relationships
	Item     Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Borrower User `json:"borrower,omitempty" gorm:"foreignKey:BorrowerID"`
	Lender   User `json:"lender,omitempty" gorm:"foreignKey:LenderID"`
}
