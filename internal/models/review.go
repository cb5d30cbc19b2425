// internal/models/review.go
package models

import "github.com/google/uuid"

// Review rates the counterparty of a closed transaction. At most one
// review per (reviewer, order) or (reviewer, borrow) pair.
type Review struct {
	BaseModel
	ReviewerID uuid.UUID  `json:"reviewer_id" gorm:"type:uuid;not null;index"`
	RevieweeID uuid.UUID  `json:"reviewee_id" gorm:"type:uuid;not null;index"`
	OrderID    *uuid.UUID `json:"order_id,omitempty" gorm:"type:uuid;index"`
	BorrowID   *uuid.UUID `json:"borrow_id,omitempty" gorm:"type:uuid;index"`
	Rating     int        `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment    string     `json:"comment,omitempty" gorm:"type:text"`

	// Relationships
	Reviewer User `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
	Reviewee User `json:"reviewee,omitempty" gorm:"foreignKey:RevieweeID"`
}
