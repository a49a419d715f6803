package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cafetab/cafetab/internal/billing"
)

type PeriodRepo struct {
	collection *mongo.Collection
}

func NewPeriodRepo(db *mongo.Database) *PeriodRepo {
	return &PeriodRepo{
		collection: db.Collection("billing_periods"),
	}
}

func (r *PeriodRepo) EnsureIndexes(ctx context.Context) error {
	activeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, activeIndexModel); err != nil {
		return fmt.Errorf("cannot create active index: %w", err)
	}
	return nil
}

func (r *PeriodRepo) Create(ctx context.Context, p *billing.Period) error {
	if p == nil {
		return fmt.Errorf("period is nil")
	}

	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("cannot create billing period: %w", err)
	}

	return nil
}

func (r *PeriodRepo) Get(ctx context.Context, id uuid.UUID) (*billing.Period, error) {
	var p billing.Period
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get billing period: %w", err)
	}
	return &p, nil
}

func (r *PeriodRepo) GetActive(ctx context.Context) (*billing.Period, error) {
	var p billing.Period
	err := r.collection.FindOne(ctx, bson.M{"active": true}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get active billing period: %w", err)
	}
	return &p, nil
}

func (r *PeriodRepo) List(ctx context.Context) ([]*billing.Period, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list billing periods: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*billing.Period
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode billing periods: %w", err)
	}

	return result, nil
}

func (r *PeriodRepo) Save(ctx context.Context, p *billing.Period) error {
	if p == nil {
		return fmt.Errorf("period is nil")
	}

	filter := bson.M{"_id": p.ID}
	update := bson.M{"$set": p}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update billing period: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("billing period not found")
	}

	return nil
}

func (r *PeriodRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"active": active, "updated_at": time.Now()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot set billing period active flag: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("billing period not found")
	}

	return nil
}

func (r *PeriodRepo) DeactivateOthers(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{"_id": bson.M{"$ne": id}, "active": true}
	update := bson.M{"$set": bson.M{"active": false}}

	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("cannot deactivate billing periods: %w", err)
	}

	return nil
}
