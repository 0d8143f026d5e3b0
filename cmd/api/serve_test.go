package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"propertyapi/internal/config"
	"propertyapi/internal/logging"
	"propertyapi/internal/repository"
)

func stubStartup(t *testing.T, c *config.AppConfig, openErr error) *[]string {
	t.Helper()
	origCfg, origLogger, origInit, origOpen := cfg, logger, initTracing, openRepo
	t.Cleanup(func() {
		cfg, logger, initTracing, openRepo = origCfg, origLogger, origInit, origOpen
	})

	cfg = c
	logger = logging.Discard()

	var released []string
	initTracing = func(context.Context, *slog.Logger) (func(context.Context) error, error) {
		return func(context.Context) error {
			released = append(released, "tracing")
			return nil
		}, nil
	}
	openRepo = func(context.Context, *config.AppConfig, *slog.Logger) (repository.PropertyRepository, func(context.Context) error, error) {
		if openErr != nil {
			return nil, nil, openErr
		}
		return &memRepo{}, func(context.Context) error {
			released = append(released, "database")
			return nil
		}, nil
	}
	return &released
}

func TestRunServe_StartupFailureReleasesResources(t *testing.T) {
	t.Run("database unavailable", func(t *testing.T) {
		released := stubStartup(t, config.Default(), errors.New("connection refused"))

		err := runServe(serveCmd, nil)

		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, []string{"tracing"}, *released)
	})

	t.Run("storage misconfigured", func(t *testing.T) {
		c := config.Default()
		c.Storage.Driver = "s3"
		released := stubStartup(t, c, nil)

		err := runServe(serveCmd, nil)

		assert.ErrorContains(t, err, "unsupported STORAGE_DRIVER")
		assert.Equal(t, []string{"database", "tracing"}, *released)
	})

	t.Run("bad reconcile schedule", func(t *testing.T) {
		c := config.Default()
		c.Storage.UploadDir = t.TempDir()
		c.Reconcile.Schedule = "every tuesday"
		released := stubStartup(t, c, nil)

		err := runServe(serveCmd, nil)

		assert.ErrorContains(t, err, "invalid reconcile schedule")
		assert.Equal(t, []string{"database", "tracing"}, *released)
	})
}
