package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"propertyapi/internal/config"
)

func TestNewMongo(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		client, err := NewMongo(config.MongoConfig{URI: "mongodb://localhost:27017"})
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("connect error", func(t *testing.T) {
		orig := mongoConnect
		mongoConnect = func(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error) {
			return nil, errors.New("dial refused")
		}
		defer func() { mongoConnect = orig }()

		client, err := NewMongo(config.MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "propertyapi",
			Collection: "properties",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "mongo connect: dial refused")
		assert.Nil(t, client)
	})
}
