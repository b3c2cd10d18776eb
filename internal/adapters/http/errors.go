package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`              // bad_request, not_found, or a command failure kind
	Command   string `json:"command,omitempty"` // command name for command failures
	Message   string `json:"message"`           // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// commandStatus maps a rejected command to its HTTP status.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		return 404
	case errors.Is(err, usecases.ErrDuplicateID):
		return 409
	case usecases.FailureKind(err) == "internal":
		return 500
	default:
		return 422
	}
}

// errCommand reports a rejected command line. The code is the failure kind.
func errCommand(c *fiber.Ctx, err error) error {
	status := commandStatus(err)
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      usecases.FailureKind(err),
		Command:   usecases.FailureCommand(err),
		Message:   usecases.FailureReason(err),
		RequestID: reqID,
	})
}
