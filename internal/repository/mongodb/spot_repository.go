package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkspot/internal/geo"
	"parkspot/internal/model"
	"parkspot/internal/repository"
)

type spotRepository struct {
	coll *mongo.Collection
}

// NewSpotRepository builds a MongoDB-backed parking spot repository.
func NewSpotRepository(db *mongo.Database) repository.SpotRepository {
	return &spotRepository{coll: db.Collection(spotsCollection)}
}

func (r *spotRepository) Create(ctx context.Context, spot *model.ParkingSpot) error {
	if spot.ID == uuid.Nil {
		spot.ID = uuid.New()
	}
	if spot.CreatedAt.IsZero() {
		spot.CreatedAt = time.Now().UTC()
	}
	doc, err := newSpotDocument(spot)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return translate(err)
}

func (r *spotRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSpot, error) {
	var doc spotDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	spot, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

func (r *spotRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ParkingSpot, error) {
	if len(ids) == 0 {
		return []model.ParkingSpot{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}}, nil)
}

func (r *spotRepository) List(ctx context.Context, box *geo.BoundingBox) ([]model.ParkingSpot, error) {
	filter := bson.M{}
	if box != nil {
		filter["latitude"] = bson.M{"$gte": box.MinLat, "$lte": box.MaxLat}
		filter["longitude"] = bson.M{"$gte": box.MinLng, "$lte": box.MaxLng}
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "lastUpdated", Value: -1}}))
}

func (r *spotRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error) {
	return r.find(ctx, bson.M{"createdBy": ownerID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// Update matches on id, and on createdBy when ownerID is set, and returns
// the document as stored after the write.
func (r *spotRepository) Update(ctx context.Context, id, ownerID uuid.UUID, upd model.SpotUpdate) (*model.ParkingSpot, error) {
	filter := bson.M{"_id": id.String()}
	if ownerID != uuid.Nil {
		filter["createdBy"] = ownerID.String()
	}
	set, err := spotFields(upd)
	if err != nil {
		return nil, err
	}

	var doc spotDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	spot, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

func (r *spotRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.ParkingSpot, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	var docs []spotDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	spots := make([]model.ParkingSpot, 0, len(docs))
	for _, d := range docs {
		s, err := d.toModel()
		if err != nil {
			return nil, err
		}
		spots = append(spots, s)
	}
	return spots, nil
}

func spotFields(upd model.SpotUpdate) (bson.M, error) {
	set := bson.M{"lastUpdated": upd.LastUpdated}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Latitude != nil {
		set["latitude"] = *upd.Latitude
	}
	if upd.Longitude != nil {
		set["longitude"] = *upd.Longitude
	}
	if upd.AvailableSpots != nil {
		set["availableSpots"] = *upd.AvailableSpots
	}
	if upd.TotalSpots != nil {
		set["totalSpots"] = *upd.TotalSpots
	}
	if upd.PricePerHour != nil {
		price, err := toDecimal128(*upd.PricePerHour)
		if err != nil {
			return nil, err
		}
		set["pricePerHour"] = price
	}
	if upd.SpotType != nil {
		set["spotType"] = string(*upd.SpotType)
	}
	if upd.Amenities != nil {
		amenities := []string(*upd.Amenities)
		if amenities == nil {
			amenities = []string{}
		}
		set["amenities"] = amenities
	}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	return set, nil
}
