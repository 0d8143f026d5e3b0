package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"propertyapi/internal/http/middleware"
	"propertyapi/internal/service"
)

// errorPayload defines the standardized error response body.
// Message repeats error.message at the top level for clients that read only that field.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Message   string        `json:"message"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Message:   message,
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps a service error kind to its status. fallback is the message used
// for server-side failures.
func writeServiceError(c *fiber.Ctx, err error, fallback string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", verr.Error())
	case errors.Is(err, service.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Property not found")
	case errors.Is(err, service.ErrAssetStore):
		return writeError(c, fiber.StatusInternalServerError, "ASSET_STORE_ERROR", fallback)
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
