package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"parkspot/internal/cache"
	"parkspot/internal/errors"
	"parkspot/internal/model"
	"parkspot/internal/repository"
)

// BookingInput carries a booking request. The window order and the cost
// are taken as given.
type BookingInput struct {
	ParkingSpotID uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	TotalCost     decimal.Decimal
}

// BookingService manages the booking ledger.
type BookingService interface {
	CreateBooking(ctx context.Context, userID uuid.UUID, in BookingInput) (*model.BookingView, error)
	ListMyBookings(ctx context.Context, userID uuid.UUID) ([]model.BookingView, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	spots    repository.SpotRepository
	users    repository.UserRepository
	cache    *cache.Client
	notifier SpotNotifier
	log      *zap.Logger
	now      func() time.Time
}

// NewBookingService creates a new booking service. notifier may be nil.
func NewBookingService(
	bookings repository.BookingRepository,
	spots repository.SpotRepository,
	users repository.UserRepository,
	cache *cache.Client,
	notifier SpotNotifier,
	log *zap.Logger,
) BookingService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &bookingService{
		bookings: bookings,
		spots:    spots,
		users:    users,
		cache:    cache,
		notifier: notifier,
		log:      log.Named("bookings"),
		now:      time.Now,
	}
}

// CreateBooking records a booking and takes one unit of the spot's
// availability. Availability is not floored at zero.
func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, in BookingInput) (*model.BookingView, error) {
	now := s.now().UTC()
	booking := &model.Booking{
		UserID:        userID,
		ParkingSpotID: in.ParkingSpotID,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		TotalCost:     in.TotalCost,
		Status:        model.BookingStatusBooked,
		CreatedAt:     now,
	}

	if err := s.bookings.CreateAndReserve(ctx, booking, now); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ErrSpotNotFound
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	_ = s.cache.Delete(ctx, spotCacheKey(in.ParkingSpotID))

	spot, err := s.spots.FindByID(ctx, in.ParkingSpotID)
	if err != nil {
		return nil, fmt.Errorf("reload booked spot: %w", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load booking user: %w", err)
	}

	if view, err := spotView(ctx, s.users, spot); err != nil {
		s.log.Warn("spot event skipped", zap.String("spot_id", spot.ID.String()), zap.Error(err))
	} else {
		s.notifier.Publish(model.EventSpotAvailability, view)
	}

	return &model.BookingView{
		Booking: *booking,
		Spot:    spot,
		User:    model.ContactSummary(user),
	}, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID uuid.UUID) ([]model.BookingView, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load booking user: %w", err)
	}
	return bookingViews(ctx, s.spots, bookings, model.ContactSummary(user))
}
