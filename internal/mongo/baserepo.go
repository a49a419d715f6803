package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMongoURL = "mongodb://localhost:27017"
	defaultDBName   = "cafetab"
	connectTimeout  = 10 * time.Second
)

// BaseRepo owns the Mongo client shared by every collection repo. Start must
// succeed before any collection repo is constructed from GetDatabase.
type BaseRepo struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewBaseRepo(config *apt.Config, logger apt.Logger) *BaseRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BaseRepo{
		logger: logger,
		config: config,
	}
}

func (r *BaseRepo) Start(ctx context.Context) error {
	url := r.config.GetStringOrDef("db.mongo.url", defaultMongoURL)
	name := r.config.GetStringOrDef("db.mongo.name", defaultDBName)

	opts := options.Client().ApplyURI(url).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(name)

	r.logger.Info("Connected to MongoDB", "url", url, "database", name)
	return nil
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
	}
	r.logger.Info("Disconnected from MongoDB")
	return nil
}

// Ping reports whether the primary is reachable; used by health checks.
func (r *BaseRepo) Ping(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("mongo client not started")
	}
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *BaseRepo) GetDatabase() *mongo.Database {
	return r.db
}
