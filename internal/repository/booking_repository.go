package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parkspot/internal/model"
)

// reserveSQL decrements availability by one with no floor and derives the
// status from the decremented value. status is assigned first because MySQL
// evaluates SET assignments left to right using already-updated columns.
const reserveSQL = `UPDATE parking_spots
SET status = CASE WHEN available_spots > 1 THEN ? ELSE ? END,
    available_spots = available_spots - 1,
    last_updated = ?
WHERE id = ?`

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	// CreateAndReserve stores the booking and decrements the referenced
	// spot's availability. ErrNotFound is returned when the spot is absent.
	CreateAndReserve(ctx context.Context, booking *model.Booking, at time.Time) error
	// ListByUser returns the user's bookings, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// CreateAndReserve runs the decrement and the insert in one transaction.
func (r *bookingRepository) CreateAndReserve(ctx context.Context, booking *model.Booking, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(reserveSQL, string(model.SpotStatusAvailable), string(model.SpotStatusFull), at, booking.ParkingSpotID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(booking).Error
	})
	return translate(err)
}

// ListByUser lists bookings created by a user.
func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	bookings := []model.Booking{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
