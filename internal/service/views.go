package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"parkspot/internal/model"
	"parkspot/internal/repository"
)

func spotCacheKey(id uuid.UUID) string {
	return "spot:" + id.String()
}

// spotViews attaches owners to spots with one lookup for the whole set.
// Spots whose owner no longer exists get a nil owner.
func spotViews(ctx context.Context, users repository.UserRepository, spots []model.ParkingSpot) ([]model.SpotView, error) {
	ids := make([]uuid.UUID, 0, len(spots))
	seen := make(map[uuid.UUID]bool, len(spots))
	for _, s := range spots {
		if !seen[s.CreatedBy] {
			seen[s.CreatedBy] = true
			ids = append(ids, s.CreatedBy)
		}
	}

	owners, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load spot owners: %w", err)
	}
	byID := make(map[uuid.UUID]*model.User, len(owners))
	for i := range owners {
		byID[owners[i].ID] = &owners[i]
	}

	views := make([]model.SpotView, 0, len(spots))
	for _, s := range spots {
		views = append(views, model.SpotView{ParkingSpot: s, Owner: model.OwnerSummary(byID[s.CreatedBy])})
	}
	return views, nil
}

func spotView(ctx context.Context, users repository.UserRepository, spot *model.ParkingSpot) (*model.SpotView, error) {
	views, err := spotViews(ctx, users, []model.ParkingSpot{*spot})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// bookingViews attaches spots to bookings. user is set on every view.
func bookingViews(ctx context.Context, spots repository.SpotRepository, bookings []model.Booking, user *model.UserSummary) ([]model.BookingView, error) {
	ids := make([]uuid.UUID, 0, len(bookings))
	seen := make(map[uuid.UUID]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.ParkingSpotID] {
			seen[b.ParkingSpotID] = true
			ids = append(ids, b.ParkingSpotID)
		}
	}

	found, err := spots.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load booked spots: %w", err)
	}
	byID := make(map[uuid.UUID]*model.ParkingSpot, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	views := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, model.BookingView{Booking: b, Spot: byID[b.ParkingSpotID], User: user})
	}
	return views, nil
}
