package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"propertyapi/docs"
	"propertyapi/internal/config"
	"propertyapi/internal/database"
	"propertyapi/internal/database/migration"
	handlers "propertyapi/internal/http/handler"
	"propertyapi/internal/http/middleware"
	"propertyapi/internal/repository"
	"propertyapi/internal/repository/mongodb"
	"propertyapi/internal/repository/postgres"
	"propertyapi/internal/service"
	"propertyapi/internal/storage"
)

const (
	driverLocal = "local"
	driverMinIO = "minio"
)

// openRepository connects the configured record store and prepares its schema.
// The returned func releases the connection.
func openRepository(ctx context.Context, c *config.AppConfig, log *slog.Logger) (repository.PropertyRepository, func(context.Context) error, error) {
	h, err := database.Open(c, log)
	if err != nil {
		return nil, nil, err
	}

	switch h.Driver {
	case database.DriverMongo:
		repo := mongodb.NewPropertyMongo(h.Mongo.Database(c.Mongo.Database).Collection(c.Mongo.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = h.Close(ctx)
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return repo, h.Close, nil
	default:
		if err := migration.EnsureMigrated(ctx, h.SQL, log, c.Database.Host); err != nil {
			_ = h.Close(ctx)
			return nil, nil, err
		}
		return postgres.NewPropertyPostgres(h.SQL), h.Close, nil
	}
}

// openStorage builds the configured blob store.
func openStorage(c *config.AppConfig) (storage.Storage, error) {
	switch c.Storage.Driver {
	case driverLocal:
		return storage.NewLocal(c.Storage.UploadDir, c.PublicBaseURL)
	case driverMinIO:
		return storage.NewMinIO(c.MinIO)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (want %s or %s)", c.Storage.Driver, driverLocal, driverMinIO)
	}
}

// newApp assembles the Fiber app: middleware, API routes, static uploads, metrics and docs.
func newApp(c *config.AppConfig, log *slog.Logger, svc service.PropertyService, pinger handlers.Pinger, reg *prometheus.Registry) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             c.HTTP.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(log.With(slog.String("component", "http"))))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New(cors.Config{AllowOrigins: c.HTTP.CORSAllowOrigins}))

	var auth middleware.Authenticator
	if c.Auth.JWTSecret != "" {
		auth = middleware.NewJWTAuthenticator(c.Auth.JWTSecret)
	}
	handlers.RegisterRoutes(app, pinger, svc, auth)

	// Files are opened per request, so a reclaimed image stops being served as soon as it is deleted.
	if c.Storage.Driver == driverLocal {
		app.Use(strings.TrimSuffix(storage.PublicPrefix, "/"), filesystem.New(filesystem.Config{
			Root: http.Dir(c.Storage.UploadDir),
		}))
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	return app, nil
}
