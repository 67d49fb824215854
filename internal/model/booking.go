package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingStatus represents the status of a booking. Only BookingStatusBooked
// is ever assigned by this service.
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a reservation by a user against a spot for a time window.
// TotalCost is caller supplied.
type Booking struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID       `json:"user" gorm:"type:char(36);not null;index"`
	ParkingSpotID uuid.UUID       `json:"parkingSpot" gorm:"type:char(36);not null;index"`
	StartTime     time.Time       `json:"startTime" gorm:"not null"`
	EndTime       time.Time       `json:"endTime" gorm:"not null"`
	TotalCost     decimal.Decimal `json:"totalCost" gorm:"type:decimal(10,2);not null"`
	Status        BookingStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookingView is a booking with its spot and user expanded.
type BookingView struct {
	Booking
	Spot *ParkingSpot `json:"parkingSpot"`
	User *UserSummary `json:"user"`
}
