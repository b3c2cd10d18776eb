package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/pkg/metrics"
)

// ErrQueueFull is returned when an async sink cannot keep up.
var ErrQueueFull = errors.New("publish queue full")

// AsyncPublisher decouples a network sink from command processing: Publish
// only enqueues, and Run delivers events in order on its own goroutine.
type AsyncPublisher struct {
	next  ports.EventPublisher
	queue chan domain.Event
}

// NewAsyncPublisher wraps next with a queue of the given size.
func NewAsyncPublisher(next ports.EventPublisher, buffer int) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &AsyncPublisher{next: next, queue: make(chan domain.Event, buffer)}
}

func (p *AsyncPublisher) Name() string { return p.next.Name() }

func (p *AsyncPublisher) Publish(_ context.Context, event domain.Event) error {
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is done, then drains what is left
// with a short grace period.
func (p *AsyncPublisher) Run(ctx context.Context) {
	for {
		select {
		case event := <-p.queue:
			p.deliver(ctx, event)
		case <-ctx.Done():
			p.drain()
			return
		}
	}
}

func (p *AsyncPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-p.queue:
			p.deliver(ctx, event)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) deliver(ctx context.Context, event domain.Event) {
	if err := p.next.Publish(ctx, event); err != nil {
		metrics.EventPublishErrors.WithLabelValues(p.next.Name()).Inc()
		slog.ErrorContext(ctx, "async publish", "sink", p.next.Name(), "action", event.Action(), "error", err)
	}
}
