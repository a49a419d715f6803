package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cafetab/cafetab/cmd/utils/internal/seeding"
)

const seedMarker = "demo_cafetab_v1"

// SeedDemo loads a demo menu, a handful of tables and an active billing
// period. Safe to run repeatedly; a marker document keeps it one-shot.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": seedMarker})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Demo seeds already applied, skipping")
		return nil
	}

	if err := seeding.SeedDemo(ctx, db); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         seedMarker,
		"description": "Demo menu, tables and an active billing period",
		"applied_at":  time.Now(),
	})
	if err != nil {
		logger.Infof("Failed to mark seed as applied: %v", err)
	}

	logger.Info("Demo seeds applied successfully")
	return nil
}

func connect(ctx context.Context, config *apt.Config) (*mongo.Client, *mongo.Database, error) {
	mongoURL, _ := config.GetString("mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := config.GetString("mongo.name")
	if dbName == "" {
		dbName = "cafetab"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(dbName), nil
}
