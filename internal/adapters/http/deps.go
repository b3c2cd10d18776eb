package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/mapcat/internal/adapters/postgres"
	"github.com/samirrijal/mapcat/internal/adapters/valkey"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Commands *usecases.CommandService
	Features *usecases.FeatureService
	Hub      *Hub
	NATS     *nats.Conn
	DB       *postgres.DB
	Journal  *postgres.Journal
	Cache    *valkey.Cache

	// CommandRateLimit caps POST /v1/commands per client IP per minute. Zero disables it.
	CommandRateLimit int
}
