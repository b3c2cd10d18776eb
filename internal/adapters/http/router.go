package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/mapcat/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, WebSocket and static routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// WebSocket, registered before compression and ETag which would
	// otherwise wrap the upgraded connection
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Commands: rate limited per client IP
	commandHandlers := []fiber.Handler{}
	if deps.CommandRateLimit > 0 {
		commandHandlers = append(commandHandlers, limiter.New(limiter.Config{
			Max:        deps.CommandRateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many commands, please try again later")
			},
		}))
	}
	commandHandlers = append(commandHandlers, ExecuteCommandHandler(deps))
	v1.Post("/commands", commandHandlers...)
	v1.Get("/commands", ListCommandsHandler(deps))
	v1.Get("/help", HelpHandler())

	// Read API: 5s per-request timeout
	v1.Get("/features", timeout.NewWithContext(ListFeaturesHandler(deps), 5*time.Second))
	v1.Get("/features.geojson", timeout.NewWithContext(GeoJSONHandler(deps), 5*time.Second))
	v1.Get("/features/:id", timeout.NewWithContext(GetFeatureHandler(deps), 5*time.Second))
	v1.Get("/events", timeout.NewWithContext(ListEventsHandler(deps), 5*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// Embedded map page
	app.Use("/", StaticHandler())
}
