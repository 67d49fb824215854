package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"parkspot/internal/cache"
	"parkspot/internal/errors"
	"parkspot/internal/geo"
	"parkspot/internal/model"
	"parkspot/internal/repository"
)

const spotCacheTTL = time.Minute

// SpotNotifier receives spot change events.
type SpotNotifier interface {
	Publish(eventType string, spot *model.SpotView)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, *model.SpotView) {}

// SpotQuery filters a spot listing. The location filter applies only when
// both Lat and Lng are set; a nil Radius means geo.DefaultRadiusKm.
type SpotQuery struct {
	Lat    *float64
	Lng    *float64
	Radius *float64
}

// SpotInput carries the fields of a new spot. Nil pointers take defaults.
type SpotInput struct {
	Title          string
	Description    null.String
	Address        string
	Latitude       float64
	Longitude      float64
	AvailableSpots *int
	TotalSpots     *int
	PricePerHour   *decimal.Decimal
	SpotType       model.SpotType
	Amenities      model.Tags
	Status         model.SpotStatus
}

// SpotService manages the spot directory.
type SpotService interface {
	ListSpots(ctx context.Context, q SpotQuery) ([]model.SpotView, error)
	GetSpot(ctx context.Context, id uuid.UUID) (*model.SpotView, error)
	CreateSpot(ctx context.Context, ownerID uuid.UUID, in SpotInput) (*model.SpotView, error)
	UpdateSpot(ctx context.Context, ownerID, spotID uuid.UUID, upd model.SpotUpdate) (*model.SpotView, error)
	SetAvailability(ctx context.Context, callerID, spotID uuid.UUID, availableSpots int) (*model.SpotView, error)
	ListOwnedSpots(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error)
}

type spotService struct {
	spots        repository.SpotRepository
	users        repository.UserRepository
	cache        *cache.Client
	notifier     SpotNotifier
	log          *zap.Logger
	requireOwner bool
	now          func() time.Time
}

// SpotServiceOption customizes a spot service.
type SpotServiceOption func(*spotService)

// WithAvailabilityOwnerCheck restricts availability updates to the spot owner.
func WithAvailabilityOwnerCheck(enabled bool) SpotServiceOption {
	return func(s *spotService) { s.requireOwner = enabled }
}

// WithNotifier sets the receiver of spot change events.
func WithNotifier(n SpotNotifier) SpotServiceOption {
	return func(s *spotService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewSpotService creates a new spot service.
func NewSpotService(
	spots repository.SpotRepository,
	users repository.UserRepository,
	cache *cache.Client,
	log *zap.Logger,
	opts ...SpotServiceOption,
) SpotService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &spotService{
		spots:    spots,
		users:    users,
		cache:    cache,
		notifier: nopNotifier{},
		log:      log.Named("spots"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *spotService) ListSpots(ctx context.Context, q SpotQuery) ([]model.SpotView, error) {
	var box *geo.BoundingBox
	if q.Lat != nil && q.Lng != nil {
		radius := geo.DefaultRadiusKm
		if q.Radius != nil {
			radius = *q.Radius
		}
		if radius < 0 {
			return nil, fmt.Errorf("%w: radius must not be negative", errors.ErrInvalidInput)
		}
		b := geo.Around(*q.Lat, *q.Lng, radius)
		box = &b
	}

	spots, err := s.spots.List(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	return spotViews(ctx, s.users, spots)
}

func (s *spotService) GetSpot(ctx context.Context, id uuid.UUID) (*model.SpotView, error) {
	var cached model.SpotView
	if s.cache.GetJSON(ctx, spotCacheKey(id), &cached) {
		return &cached, nil
	}

	spot, err := s.spots.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ErrSpotNotFound
		}
		return nil, fmt.Errorf("find spot: %w", err)
	}
	view, err := spotView(ctx, s.users, spot)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, spotCacheKey(id), view, spotCacheTTL)
	return view, nil
}

func (s *spotService) CreateSpot(ctx context.Context, ownerID uuid.UUID, in SpotInput) (*model.SpotView, error) {
	now := s.now().UTC()
	spot := &model.ParkingSpot{
		Title:          in.Title,
		Description:    in.Description,
		Address:        in.Address,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		AvailableSpots: 1,
		TotalSpots:     1,
		PricePerHour:   decimal.Zero,
		SpotType:       model.SpotTypeStreet,
		Amenities:      in.Amenities,
		CreatedBy:      ownerID,
		LastUpdated:    now,
		CreatedAt:      now,
	}
	if in.AvailableSpots != nil {
		spot.AvailableSpots = *in.AvailableSpots
	}
	if in.TotalSpots != nil {
		spot.TotalSpots = *in.TotalSpots
	}
	if in.PricePerHour != nil {
		spot.PricePerHour = *in.PricePerHour
	}
	if in.SpotType != "" {
		spot.SpotType = in.SpotType
	}
	if spot.Amenities == nil {
		spot.Amenities = model.Tags{}
	}
	spot.Status = in.Status
	if spot.Status == "" {
		spot.Status = model.StatusFor(spot.AvailableSpots)
	}

	if err := s.spots.Create(ctx, spot); err != nil {
		return nil, fmt.Errorf("create spot: %w", err)
	}
	view, err := spotView(ctx, s.users, spot)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(model.EventSpotCreated, view)
	return view, nil
}

func (s *spotService) UpdateSpot(ctx context.Context, ownerID, spotID uuid.UUID, upd model.SpotUpdate) (*model.SpotView, error) {
	upd.LastUpdated = s.now().UTC()
	if upd.AvailableSpots != nil && upd.Status == nil {
		status := model.StatusFor(*upd.AvailableSpots)
		upd.Status = &status
	}

	spot, err := s.spots.Update(ctx, spotID, ownerID, upd)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ErrSpotNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("update spot: %w", err)
	}
	return s.afterWrite(ctx, model.EventSpotUpdated, spot)
}

func (s *spotService) SetAvailability(ctx context.Context, callerID, spotID uuid.UUID, availableSpots int) (*model.SpotView, error) {
	status := model.StatusFor(availableSpots)
	upd := model.SpotUpdate{
		AvailableSpots: &availableSpots,
		Status:         &status,
		LastUpdated:    s.now().UTC(),
	}

	scope := uuid.Nil
	if s.requireOwner {
		scope = callerID
	}
	spot, err := s.spots.Update(ctx, spotID, scope, upd)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			if s.requireOwner {
				return nil, errors.ErrSpotNotFoundOrUnauthorized
			}
			return nil, errors.ErrSpotNotFound
		}
		return nil, fmt.Errorf("set availability: %w", err)
	}
	return s.afterWrite(ctx, model.EventSpotAvailability, spot)
}

func (s *spotService) ListOwnedSpots(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error) {
	spots, err := s.spots.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned spots: %w", err)
	}
	return spots, nil
}

// afterWrite composes the response view, drops the stale cache entry and
// announces the change.
func (s *spotService) afterWrite(ctx context.Context, event string, spot *model.ParkingSpot) (*model.SpotView, error) {
	_ = s.cache.Delete(ctx, spotCacheKey(spot.ID))

	view, err := spotView(ctx, s.users, spot)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(event, view)
	return view, nil
}
