package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cafetab/cafetab/internal/catalog"
)

type OfferingRepo struct {
	collection *mongo.Collection
}

func NewOfferingRepo(db *mongo.Database) *OfferingRepo {
	return &OfferingRepo{
		collection: db.Collection("offerings"),
	}
}

func (r *OfferingRepo) EnsureIndexes(ctx context.Context) error {
	categoryIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, categoryIndexModel); err != nil {
		return fmt.Errorf("cannot create category index: %w", err)
	}
	return nil
}

func (r *OfferingRepo) Create(ctx context.Context, o *catalog.Offering) error {
	if o == nil {
		return fmt.Errorf("offering is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create offering: %w", err)
	}

	return nil
}

func (r *OfferingRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Offering, error) {
	var o catalog.Offering
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get offering: %w", err)
	}
	return &o, nil
}

func (r *OfferingRepo) List(ctx context.Context) ([]*catalog.Offering, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list offerings: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Offering
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode offerings: %w", err)
	}

	return result, nil
}

func (r *OfferingRepo) ListAvailable(ctx context.Context) ([]*catalog.Offering, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("cannot list available offerings: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Offering
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode offerings: %w", err)
	}

	return result, nil
}

func (r *OfferingRepo) Save(ctx context.Context, o *catalog.Offering) error {
	if o == nil {
		return fmt.Errorf("offering is nil")
	}

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update offering: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("offering not found")
	}

	return nil
}
