package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cafetab/cafetab/internal/notify"
)

// SettingsRepo stores the single notification settings document.
type SettingsRepo struct {
	collection *mongo.Collection
}

func NewSettingsRepo(db *mongo.Database) *SettingsRepo {
	return &SettingsRepo{
		collection: db.Collection("settings"),
	}
}

func (r *SettingsRepo) Get(ctx context.Context) (*notify.Settings, error) {
	var s notify.Settings
	err := r.collection.FindOne(ctx, bson.M{}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s *notify.Settings) error {
	if s == nil {
		return fmt.Errorf("settings is nil")
	}

	filter := bson.M{"_id": s.ID}
	update := bson.M{"$set": s}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot save settings: %w", err)
	}

	return nil
}
