package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parkspot/internal/geo"
	"parkspot/internal/model"
)

// SpotRepository defines parking spot persistence operations.
type SpotRepository interface {
	Create(ctx context.Context, spot *model.ParkingSpot) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSpot, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ParkingSpot, error)
	// List returns spots inside box (all spots when box is nil), most
	// recently updated first.
	List(ctx context.Context, box *geo.BoundingBox) ([]model.ParkingSpot, error)
	// ListByOwner returns the owner's spots, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error)
	// Update applies upd to the spot and returns the stored result. When
	// ownerID is not uuid.Nil the write only matches spots created by that
	// user; ErrNotFound is returned when nothing matched.
	Update(ctx context.Context, id, ownerID uuid.UUID, upd model.SpotUpdate) (*model.ParkingSpot, error)
}

type spotRepository struct {
	db *gorm.DB
}

// NewSpotRepository creates a new parking spot repository.
func NewSpotRepository(db *gorm.DB) SpotRepository {
	return &spotRepository{db: db}
}

// Create creates a new parking spot.
func (r *spotRepository) Create(ctx context.Context, spot *model.ParkingSpot) error {
	return translate(r.db.WithContext(ctx).Create(spot).Error)
}

// FindByID finds a parking spot by ID.
func (r *spotRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSpot, error) {
	var spot model.ParkingSpot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&spot).Error; err != nil {
		return nil, translate(err)
	}
	return &spot, nil
}

// FindByIDs finds the spots that exist among ids.
func (r *spotRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ParkingSpot, error) {
	spots := []model.ParkingSpot{}
	if len(ids) == 0 {
		return spots, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&spots).Error; err != nil {
		return nil, err
	}
	return spots, nil
}

// List lists spots, optionally restricted to a bounding box.
func (r *spotRepository) List(ctx context.Context, box *geo.BoundingBox) ([]model.ParkingSpot, error) {
	q := r.db.WithContext(ctx).Model(&model.ParkingSpot{})
	if box != nil {
		q = q.Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
			Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	spots := []model.ParkingSpot{}
	if err := q.Order("last_updated DESC").Find(&spots).Error; err != nil {
		return nil, err
	}
	return spots, nil
}

// ListByOwner lists the spots created by a user.
func (r *spotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error) {
	spots := []model.ParkingSpot{}
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", ownerID).
		Order("created_at DESC").
		Find(&spots).Error; err != nil {
		return nil, err
	}
	return spots, nil
}

// Update applies a partial update, scoped to the owner when ownerID is set.
func (r *spotRepository) Update(ctx context.Context, id, ownerID uuid.UUID, upd model.SpotUpdate) (*model.ParkingSpot, error) {
	var spot model.ParkingSpot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.ParkingSpot{}).Where("id = ?", id)
		if ownerID != uuid.Nil {
			q = q.Where("created_by = ?", ownerID)
		}

		res := q.Updates(spotColumns(upd))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&spot).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &spot, nil
}

// spotColumns converts a SpotUpdate into a column map so zero values such
// as an availability of 0 are still written.
func spotColumns(upd model.SpotUpdate) map[string]interface{} {
	cols := map[string]interface{}{"last_updated": upd.LastUpdated}
	if upd.Title != nil {
		cols["title"] = *upd.Title
	}
	if upd.Description != nil {
		cols["description"] = *upd.Description
	}
	if upd.Address != nil {
		cols["address"] = *upd.Address
	}
	if upd.Latitude != nil {
		cols["latitude"] = *upd.Latitude
	}
	if upd.Longitude != nil {
		cols["longitude"] = *upd.Longitude
	}
	if upd.AvailableSpots != nil {
		cols["available_spots"] = *upd.AvailableSpots
	}
	if upd.TotalSpots != nil {
		cols["total_spots"] = *upd.TotalSpots
	}
	if upd.PricePerHour != nil {
		cols["price_per_hour"] = *upd.PricePerHour
	}
	if upd.SpotType != nil {
		cols["spot_type"] = *upd.SpotType
	}
	if upd.Amenities != nil {
		cols["amenities"] = *upd.Amenities
	}
	if upd.Status != nil {
		cols["status"] = *upd.Status
	}
	return cols
}
