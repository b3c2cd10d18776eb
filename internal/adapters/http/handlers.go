package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// commandRequest is the JSON form of a command submission. Plain-text bodies
// are taken as the line itself.
type commandRequest struct {
	Line string `json:"line"`
}

// ExecuteCommandHandler runs one command line from the request body.
// On success it responds with the outward event that was broadcast.
func ExecuteCommandHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		line := string(c.Body())
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			var req commandRequest
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
			line = req.Line
		}
		if strings.ContainsAny(strings.TrimRight(line, "\r\n"), "\r\n") {
			return errBadRequest(c, "body must contain a single command line")
		}

		event, err := deps.Commands.Execute(c.UserContext(), "http", line)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Debug("http command rejected", "kind", usecases.FailureKind(err))
			return errCommand(c, err)
		}
		return c.JSON(event)
	}
}

// ListCommandsHandler returns the registered command names.
func ListCommandsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"commands": deps.Commands.Commands()})
	}
}

// HelpHandler returns the command reference as plain text.
func HelpHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(usecases.HelpText)
	}
}

// ListFeaturesHandler returns stored features in insertion order,
// optionally filtered by ?tag=.
func ListFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		features, err := deps.Features.List(c.UserContext(), c.Query("tag"))
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(features, c.QueryInt("offset", 0), c.QueryInt("limit", 100), 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetFeatureHandler returns a single feature by id.
func GetFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		feature, err := deps.Features.Get(c.UserContext(), id)
		if errors.Is(err, usecases.ErrNotFound) {
			return errNotFound(c, "feature '"+id+"' not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(feature)
	}
}

// GeoJSONHandler exports the store as a GeoJSON FeatureCollection.
func GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := deps.Features.GeoJSON(c.UserContext(), c.Query("tag"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// ListEventsHandler returns recent journal entries, optionally for one ?feature=.
func ListEventsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Journal == nil {
			return newError(c, fiber.StatusServiceUnavailable, "unavailable", "event journal not configured")
		}
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		entries, err := deps.Journal.Recent(c.UserContext(), c.Query("feature"), limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"data": entries})
	}
}
