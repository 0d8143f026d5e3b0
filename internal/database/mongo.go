package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"propertyapi/internal/config"
)

var mongoConnect = mongo.Connect

// NewMongo connects to MongoDB with command tracing enabled and verifies the primary is reachable.
func NewMongo(c config.MongoConfig) (*mongo.Client, error) {
	if c.URI == "" || c.Database == "" || c.Collection == "" {
		return nil, fmt.Errorf("invalid mongo config: uri, database, and collection are required")
	}

	timeout := connectTimeout(c.ConnectTimeoutSec)
	opts := options.Client().
		ApplyURI(c.URI).
		SetAppName(applicationName).
		SetMonitor(otelmongo.NewMonitor()).
		SetServerSelectionTimeout(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongoConnect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	disconnect := func() error { return client.Disconnect(context.Background()) }
	if err := verify(timeout, ping, disconnect); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
