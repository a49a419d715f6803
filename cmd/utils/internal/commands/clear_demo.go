package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// ClearDemo removes seeded demo data and the seed marker so seed-demo can run
// again. Orders created against demo tables go with them.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	for _, name := range []string{"orders", "offerings", "tables", "billing_periods"} {
		result, err := db.Collection(name).DeleteMany(ctx, bson.M{"created_by": "demo-seed"})
		if err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
		logger.Infof("Cleared %d demo documents from %s", result.DeletedCount, name)
	}

	if _, err := db.Collection("_seeds").DeleteOne(ctx, bson.M{"_id": seedMarker}); err != nil {
		return fmt.Errorf("clear seed marker: %w", err)
	}

	logger.Info("Demo data cleanup completed")
	return nil
}
