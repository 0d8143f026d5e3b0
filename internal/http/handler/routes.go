package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"propertyapi/internal/http/middleware"
	"propertyapi/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Mutating property routes require a bearer token when auth is non-nil.
func RegisterRoutes(app *fiber.App, pinger Pinger, svc service.PropertyService, auth middleware.Authenticator) {
	app.Get("/health", HealthCheck(pinger))
	app.Get("/healthz", Liveness())
	app.Get("/api/test", APITest())

	var guard []fiber.Handler
	if auth != nil {
		guard = append(guard, middleware.RequireAuth(auth))
	}
	guarded := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), h)
	}

	props := app.Group("/api/properties")
	props.Get("/", ListProperties(svc))
	props.Get("/filter", FilterProperties(svc))
	props.Post("/upload-property", guarded(UploadProperty(svc))...)
	props.Put("/:id", guarded(UpdateProperty(svc))...)
	props.Delete("/:id", guarded(DeleteProperty(svc))...)
}

// HealthCheck checks backing store connectivity only.
func HealthCheck(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if p == nil || p.Ping(ctx) != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// Liveness answers 200 while the process is up.
func Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// APITest answers the smoke-test endpoint kept for existing frontends.
func APITest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Backend is working!"})
	}
}
