package ports

import (
	"context"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

// EventPublisher delivers outward events to a sink (websocket hub, broker, journal).
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Name() string
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// CommandRunner executes one raw command line from the named input source.
type CommandRunner interface {
	Execute(ctx context.Context, source, line string) (domain.Event, error)
}
