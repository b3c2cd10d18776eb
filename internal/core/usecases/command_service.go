package usecases

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapcat/internal/core/command"
	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/pkg/metrics"
	"github.com/samirrijal/mapcat/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/samirrijal/mapcat/internal/core/usecases")

// CommandService turns raw command lines into store mutations and outward
// events. Lines are processed one at a time: parse, handle and publish of one
// line complete before the next line starts, whatever its input source.
type CommandService struct {
	mu         sync.Mutex
	store      ports.FeatureStore
	handlers   map[string]Handler
	publishers []ports.EventPublisher
	logger     *slog.Logger
}

// NewCommandService creates a service over store with the default handlers.
func NewCommandService(store ports.FeatureStore, publishers ...ports.EventPublisher) *CommandService {
	return NewCommandServiceWithHandlers(store, DefaultHandlers(), publishers...)
}

// NewCommandServiceWithHandlers creates a service with an explicit handler set.
func NewCommandServiceWithHandlers(store ports.FeatureStore, handlers []Handler, publishers ...ports.EventPublisher) *CommandService {
	byName := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		byName[h.Name()] = h
	}
	return &CommandService{
		store:      store,
		handlers:   byName,
		publishers: publishers,
		logger:     slog.Default(),
	}
}

// AddPublisher attaches another event sink.
func (s *CommandService) AddPublisher(p ports.EventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = append(s.publishers, p)
}

// Commands lists the registered command names.
func (s *CommandService) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one raw line from source. On success the event has already
// been handed to every publisher. Failures are *command.ParseError or
// *CommandError values; the store is untouched when one is returned.
func (s *CommandService) Execute(ctx context.Context, source, line string) (domain.Event, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanExecuteCommand)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSource, source))

	start := time.Now()
	defer func() { metrics.CommandDuration.Observe(time.Since(start).Seconds()) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.DebugContext(ctx, "command received", "source", source, "line", line)

	parsed, err := command.Parse(line)
	if err != nil {
		return nil, s.fail(ctx, span, source, line, err)
	}
	span.SetAttributes(attribute.String(telemetry.AttrCommand, parsed.Name))

	h, ok := s.handlers[parsed.Name]
	if !ok {
		err := newCommandError(parsed.Name, ErrUnknownCommand, "unknown command '%s'", parsed.Name)
		return nil, s.fail(ctx, span, source, line, err)
	}

	event, err := h.Handle(s.store, parsed)
	if err != nil {
		return nil, s.fail(ctx, span, source, line, err)
	}

	metrics.CommandsTotal.WithLabelValues(parsed.Name, "ok").Inc()
	metrics.Features.Set(float64(s.store.Len()))
	span.SetAttributes(
		attribute.String(telemetry.AttrResult, "ok"),
		attribute.String(telemetry.AttrAction, string(event.Action())),
	)

	s.publish(ctx, event)
	return event, nil
}

// Snapshot calls fn with the current features while no command can run, so a
// subscriber registered inside fn sees every later event exactly once.
func (s *CommandService) Snapshot(fn func(features []domain.Feature)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store.List())
}

func (s *CommandService) fail(ctx context.Context, span trace.Span, source, line string, err error) error {
	kind := FailureKind(err)
	name := FailureCommand(err)
	label := name
	if _, known := s.handlers[name]; !known {
		// keep metric label cardinality bounded
		label = "unknown"
	}

	metrics.CommandsTotal.WithLabelValues(label, "error").Inc()
	metrics.CommandFailures.WithLabelValues(kind).Inc()
	span.SetAttributes(attribute.String(telemetry.AttrResult, kind))
	span.SetStatus(codes.Error, err.Error())

	s.logger.WarnContext(ctx, "command rejected",
		"source", source,
		"command", name,
		"kind", kind,
		"reason", FailureReason(err),
		"line", line,
	)
	return err
}

func (s *CommandService) publish(ctx context.Context, event domain.Event) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, event); err != nil {
			metrics.EventPublishErrors.WithLabelValues(p.Name()).Inc()
			s.logger.ErrorContext(ctx, "publish event", "sink", p.Name(), "action", event.Action(), "error", err)
			continue
		}
		metrics.EventsPublished.WithLabelValues(string(event.Action()), p.Name()).Inc()
	}
}
