package model

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
	"gorm.io/gorm"
)

// User represents a registered marketplace user.
type User struct {
	ID           uuid.UUID   `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string      `json:"name" gorm:"size:255;not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string      `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Phone        null.String `json:"phone" gorm:"size:50"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserSummary is the projection of a user attached to other documents.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// OwnerSummary projects the fields shown for a spot owner.
func OwnerSummary(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Phone: u.Phone.String}
}

// ContactSummary projects the fields shown for a booking user and in auth
// responses.
func ContactSummary(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
