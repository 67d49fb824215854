package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
	"gorm.io/gorm"
)

// SpotType classifies a parking spot.
type SpotType string

const (
	SpotTypeStreet     SpotType = "street"
	SpotTypeParkingLot SpotType = "parking_lot"
	SpotTypePrivate    SpotType = "private"
	SpotTypeGarage     SpotType = "garage"
)

// SpotStatus represents the availability status of a spot.
type SpotStatus string

const (
	SpotStatusAvailable SpotStatus = "available"
	SpotStatusFull      SpotStatus = "full"
	SpotStatusInactive  SpotStatus = "inactive"
)

// StatusFor derives the status that matches an availability counter.
func StatusFor(availableSpots int) SpotStatus {
	if availableSpots > 0 {
		return SpotStatusAvailable
	}
	return SpotStatusFull
}

// ParkingSpot is a published parking location with a capacity counter.
// AvailableSpots is not bounded by TotalSpots and can drop below zero
// through bookings.
type ParkingSpot struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Title          string          `json:"title" gorm:"size:255;not null"`
	Description    null.String     `json:"description" gorm:"type:text"`
	Address        string          `json:"address" gorm:"size:512;not null"`
	Latitude       float64         `json:"latitude" gorm:"not null;index:idx_spot_location,priority:1"`
	Longitude      float64         `json:"longitude" gorm:"not null;index:idx_spot_location,priority:2"`
	AvailableSpots int             `json:"availableSpots" gorm:"not null"`
	TotalSpots     int             `json:"totalSpots" gorm:"not null"`
	PricePerHour   decimal.Decimal `json:"pricePerHour" gorm:"type:decimal(10,2);not null"`
	SpotType       SpotType        `json:"spotType" gorm:"type:varchar(20);not null"`
	Amenities      Tags            `json:"amenities" gorm:"type:text"`
	CreatedBy      uuid.UUID       `json:"createdBy" gorm:"type:char(36);not null;index"`
	Status         SpotStatus      `json:"status" gorm:"type:varchar(20);not null;index"`
	LastUpdated    time.Time       `json:"lastUpdated" gorm:"not null;index"`
	CreatedAt      time.Time       `json:"createdAt" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (s *ParkingSpot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SpotUpdate carries a partial update of a spot. Nil fields are left
// untouched; LastUpdated is always written.
type SpotUpdate struct {
	Title          *string
	Description    *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	AvailableSpots *int
	TotalSpots     *int
	PricePerHour   *decimal.Decimal
	SpotType       *SpotType
	Amenities      *Tags
	Status         *SpotStatus
	LastUpdated    time.Time
}

// SpotView is a spot with its owner expanded. The Owner field shadows the
// embedded CreatedBy id in JSON output.
type SpotView struct {
	ParkingSpot
	Owner *UserSummary `json:"createdBy"`
}
