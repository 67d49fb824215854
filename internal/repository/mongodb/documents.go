// Package mongodb implements the repository interfaces on MongoDB. Ids are
// stored as UUID strings in _id; field names follow the camelCase layout of
// the public API.
package mongodb

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/guregu/null.v4"

	"parkspot/internal/model"
	"parkspot/internal/repository"
)

const (
	usersCollection    = "users"
	spotsCollection    = "parkingspots"
	bookingsCollection = "bookings"
)

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Phone     *string   `bson:"phone,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type spotDocument struct {
	ID             string               `bson:"_id"`
	Title          string               `bson:"title"`
	Description    *string              `bson:"description,omitempty"`
	Address        string               `bson:"address"`
	Latitude       float64              `bson:"latitude"`
	Longitude      float64              `bson:"longitude"`
	AvailableSpots int                  `bson:"availableSpots"`
	TotalSpots     int                  `bson:"totalSpots"`
	PricePerHour   primitive.Decimal128 `bson:"pricePerHour"`
	SpotType       string               `bson:"spotType"`
	Amenities      []string             `bson:"amenities"`
	CreatedBy      string               `bson:"createdBy"`
	Status         string               `bson:"status"`
	LastUpdated    time.Time            `bson:"lastUpdated"`
	CreatedAt      time.Time            `bson:"createdAt"`
}

type bookingDocument struct {
	ID          string               `bson:"_id"`
	User        string               `bson:"user"`
	ParkingSpot string               `bson:"parkingSpot"`
	StartTime   time.Time            `bson:"startTime"`
	EndTime     time.Time            `bson:"endTime"`
	TotalCost   primitive.Decimal128 `bson:"totalCost"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

func newUserDocument(u *model.User) userDocument {
	return userDocument{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Phone:     u.Phone.Ptr(),
		CreatedAt: u.CreatedAt,
	}
}

func (d userDocument) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("user %q: %w", d.ID, err)
	}
	return model.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Phone:        null.StringFromPtr(d.Phone),
		CreatedAt:    d.CreatedAt,
	}, nil
}

func newSpotDocument(s *model.ParkingSpot) (spotDocument, error) {
	price, err := toDecimal128(s.PricePerHour)
	if err != nil {
		return spotDocument{}, err
	}
	amenities := []string(s.Amenities)
	if amenities == nil {
		amenities = []string{}
	}
	return spotDocument{
		ID:             s.ID.String(),
		Title:          s.Title,
		Description:    s.Description.Ptr(),
		Address:        s.Address,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		AvailableSpots: s.AvailableSpots,
		TotalSpots:     s.TotalSpots,
		PricePerHour:   price,
		SpotType:       string(s.SpotType),
		Amenities:      amenities,
		CreatedBy:      s.CreatedBy.String(),
		Status:         string(s.Status),
		LastUpdated:    s.LastUpdated,
		CreatedAt:      s.CreatedAt,
	}, nil
}

func (d spotDocument) toModel() (model.ParkingSpot, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.ParkingSpot{}, fmt.Errorf("spot %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return model.ParkingSpot{}, fmt.Errorf("spot %q owner: %w", d.ID, err)
	}
	price, err := fromDecimal128(d.PricePerHour)
	if err != nil {
		return model.ParkingSpot{}, fmt.Errorf("spot %q price: %w", d.ID, err)
	}
	return model.ParkingSpot{
		ID:             id,
		Title:          d.Title,
		Description:    null.StringFromPtr(d.Description),
		Address:        d.Address,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		AvailableSpots: d.AvailableSpots,
		TotalSpots:     d.TotalSpots,
		PricePerHour:   price,
		SpotType:       model.SpotType(d.SpotType),
		Amenities:      model.Tags(d.Amenities),
		CreatedBy:      owner,
		Status:         model.SpotStatus(d.Status),
		LastUpdated:    d.LastUpdated,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func newBookingDocument(b *model.Booking) (bookingDocument, error) {
	cost, err := toDecimal128(b.TotalCost)
	if err != nil {
		return bookingDocument{}, err
	}
	return bookingDocument{
		ID:          b.ID.String(),
		User:        b.UserID.String(),
		ParkingSpot: b.ParkingSpotID.String(),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		TotalCost:   cost,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}, nil
}

func (d bookingDocument) toModel() (model.Booking, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %q: %w", d.ID, err)
	}
	user, err := uuid.Parse(d.User)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %q user: %w", d.ID, err)
	}
	spot, err := uuid.Parse(d.ParkingSpot)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %q spot: %w", d.ID, err)
	}
	cost, err := fromDecimal128(d.TotalCost)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %q cost: %w", d.ID, err)
	}
	return model.Booking{
		ID:            id,
		UserID:        user,
		ParkingSpotID: spot,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		TotalCost:     cost,
		Status:        model.BookingStatus(d.Status),
		CreatedAt:     d.CreatedAt,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// translate maps driver errors onto the storage-neutral ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return err
	}
}
