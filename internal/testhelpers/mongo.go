package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoImage        = "mongo:7.0"
	mongoStartTimeout = 2 * time.Minute
)

// StartMongo runs a MongoDB container for the calling test and returns a
// fresh collection in it. The test is skipped in -short mode and when no
// container runtime is available.
func StartMongo(t *testing.T) *mongo.Collection {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), mongoStartTimeout)
	defer cancel()

	container, err := tcmongo.Run(ctx, mongoImage)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start mongodb container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongodb connection string: %v", err)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongodb: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	if pingErr := client.Ping(ctx, nil); pingErr != nil {
		t.Fatalf("ping mongodb: %v", pingErr)
	}

	return client.Database("catalog_test_" + uuid.NewString()[:8]).Collection("courses")
}
