package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
)

// ResetDB drops the whole database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("DANGER: This will drop the entire database!")
	logger.Infof("This action cannot be undone!")

	client, db, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}

	logger.Infof("Dropped database: %s", db.Name())
	return nil
}
