package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cafetab/cafetab/internal/tables"
)

type TableRepo struct {
	collection *mongo.Collection
}

func NewTableRepo(db *mongo.Database) *TableRepo {
	return &TableRepo{
		collection: db.Collection("tables"),
	}
}

func (r *TableRepo) EnsureIndexes(ctx context.Context) error {
	tokenIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "scan_token", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, tokenIndexModel); err != nil {
		return fmt.Errorf("cannot create scan_token index: %w", err)
	}

	numberIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, numberIndexModel); err != nil {
		return fmt.Errorf("cannot create number index: %w", err)
	}
	return nil
}

func (r *TableRepo) Create(ctx context.Context, t *tables.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot create table: %w", err)
	}

	return nil
}

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*tables.Table, error) {
	var t tables.Table
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &t, nil
}

func (r *TableRepo) GetByToken(ctx context.Context, token string) (*tables.Table, error) {
	var t tables.Table
	err := r.collection.FindOne(ctx, bson.M{"scan_token": token}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table by token: %w", err)
	}
	return &t, nil
}

func (r *TableRepo) List(ctx context.Context) ([]*tables.Table, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*tables.Table
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}

	return result, nil
}

func (r *TableRepo) Save(ctx context.Context, t *tables.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	filter := bson.M{"_id": t.ID}
	update := bson.M{"$set": t}
	// omitempty keeps a nil period out of $set, so clearing it needs $unset.
	if t.BillingPeriodID == nil {
		update["$unset"] = bson.M{"billing_period_id": ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update table: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("table not found")
	}

	return nil
}
