// Package database owns the MongoDB client used by the catalog.
package database

import (
	"context"
	"fmt"
	"time"

	infracontext "github.com/jonesrussell/course-catalog/infrastructure/context"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/infrastructure/retry"
	"github.com/jonesrussell/course-catalog/internal/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type DB struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     infralogger.Logger
}

// New connects to MongoDB and verifies the connection with a ping,
// retrying with backoff while the server is unreachable.
func New(ctx context.Context, cfg config.MongoDBConfig, log infralogger.Logger) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.ConnectAttempts
	retryCfg.InitialDelay = cfg.RetryDelay
	retryCfg.OnRetry = func(attempt int, delay time.Duration, retryErr error) {
		log.Warn("MongoDB not reachable, retrying",
			infralogger.Int("attempt", attempt),
			infralogger.Duration("delay", delay),
			infralogger.Error(retryErr),
		)
	}

	pingErr := retry.Do(ctx, retryCfg, func(attemptCtx context.Context) error {
		pingCtx, cancel := infracontext.WithPingTimeout(attemptCtx)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if pingErr != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongodb: %w", pingErr)
	}

	log.Info("Database connection established",
		infralogger.String("database", cfg.Database),
		infralogger.String("collection", cfg.Collection),
	)

	return &DB{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     log,
	}, nil
}

// Collection returns the courses collection.
func (d *DB) Collection() *mongo.Collection {
	return d.collection
}

// Ping checks that the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *DB) Close(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}
