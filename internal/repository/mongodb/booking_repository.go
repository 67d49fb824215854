package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkspot/internal/model"
	"parkspot/internal/repository"
)

type bookingRepository struct {
	spots    *mongo.Collection
	bookings *mongo.Collection
}

// NewBookingRepository builds a MongoDB-backed booking repository.
func NewBookingRepository(db *mongo.Database) repository.BookingRepository {
	return &bookingRepository{
		spots:    db.Collection(spotsCollection),
		bookings: db.Collection(bookingsCollection),
	}
}

// reservePipeline decrements availability with no floor and recomputes the
// status from the new value in a single document update.
func reservePipeline(at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "availableSpots", Value: bson.D{{Key: "$subtract", Value: bson.A{"$availableSpots", 1}}}},
			{Key: "lastUpdated", Value: at},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$availableSpots", 0}}},
				string(model.SpotStatusAvailable),
				string(model.SpotStatusFull),
			}}}},
		}}},
	}
}

// CreateAndReserve decrements the spot first and then inserts the booking.
// The two writes are not transactional: a failed insert leaves the
// decrement in place.
func (r *bookingRepository) CreateAndReserve(ctx context.Context, booking *model.Booking, at time.Time) error {
	res, err := r.spots.UpdateOne(ctx, bson.M{"_id": booking.ParkingSpotID.String()}, reservePipeline(at))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = at
	}
	doc, err := newBookingDocument(booking)
	if err != nil {
		return err
	}
	_, err = r.bookings.InsertOne(ctx, doc)
	return translate(err)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	cur, err := r.bookings.Find(ctx, bson.M{"user": userID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(docs))
	for _, d := range docs {
		b, err := d.toModel()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
