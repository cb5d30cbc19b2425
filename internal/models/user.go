// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type College struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null"`
	Domain   string `json:"domain" gorm:"size:255;uniqueIndex;not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

type User struct {
	BaseModel
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	Name           string     `json:"name" gorm:"size:255;not null"`
	Phone          string     `json:"phone,omitempty" gorm:"size:30"`
	CollegeID      uuid.UUID  `json:"college_id" gorm:"type:uuid;not null;index"`
	Role           UserRole   `json:"role" gorm:"type:varchar(20);default:'student'"`
	Status         UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Rating         float64    `json:"rating" gorm:"type:decimal(3,1);default:0"`
	RatingSum      int64      `json:"-" gorm:"default:0"`
	TotalReviews   int64      `json:"total_reviews" gorm:"default:0"`
	AvatarURL      string     `json:"avatar_url,omitempty" gorm:"size:512"`
	StudentIDImage string     `json:"-" gorm:"size:512"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	College College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
	Items   []Item  `json:"items,omitempty" gorm:"foreignKey:OwnerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
