package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpadapter "github.com/samirrijal/mapcat/internal/adapters/http"
	"github.com/samirrijal/mapcat/internal/adapters/memory"
	natsadapter "github.com/samirrijal/mapcat/internal/adapters/nats"
	"github.com/samirrijal/mapcat/internal/adapters/postgres"
	"github.com/samirrijal/mapcat/internal/adapters/valkey"
	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/core/usecases"
	"github.com/samirrijal/mapcat/internal/pkg/config"
	"github.com/samirrijal/mapcat/internal/pkg/logging"
	"github.com/samirrijal/mapcat/internal/pkg/telemetry"
)

// run wires the store, the command pipeline and every configured sink, then
// serves until SIGINT/SIGTERM. stdout carries only help output; logs go to stderr.
func run(parent context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	logging.Setup(stderr, cfg.Log.Level, cfg.Log.Format)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	store := memory.NewFeatureStore()
	hub := httpadapter.NewHub()
	commands := usecases.NewCommandService(store, hub)

	deps := &httpadapter.Dependencies{
		Commands:         commands,
		Hub:              hub,
		CommandRateLimit: cfg.Server.CommandRateLimit,
	}

	// Network sinks are queued so a slow broker or database never stalls a command.
	var sinks sync.WaitGroup
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	addSink := func(p ports.EventPublisher) {
		async := usecases.NewAsyncPublisher(p, 0)
		commands.AddPublisher(async)
		sinks.Add(1)
		go func() {
			defer sinks.Done()
			async.Run(sinkCtx)
		}()
		slog.Info("event sink enabled", "sink", p.Name())
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}
	deps.Features = usecases.NewFeatureService(store, cache, cfg.Valkey.TTLSeconds)

	// NATS
	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer nc.Drain()
			deps.NATS = nc

			pub, err := natsadapter.NewPublisher(nc, cfg.NATS.EventsSubjectPrefix, cfg.NATS.Encoding)
			if err != nil {
				slog.Warn("nats publisher unavailable", "error", err)
			} else {
				addSink(pub)
			}

			if cfg.NATS.CommandsSubject != "" {
				sub := natsadapter.NewCommandSubscriber(nc, cfg.NATS.CommandsSubject, cfg.NATS.QueueGroup, commands)
				if err := sub.Start(ctx); err != nil {
					slog.Warn("nats command intake unavailable", "error", err)
				} else {
					defer sub.Close()
				}
			}
		}
	}

	// Event journal
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("database unavailable", "error", err)
		} else {
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				slog.Warn("journal schema", "error", err)
			}
			journal := postgres.NewJournal(db)
			deps.DB = db
			deps.Journal = journal
			addSink(journal)
		}
	}

	// Runs before the connection defers above so queued events drain first.
	defer func() {
		stopSinks()
		sinks.Wait()
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             1024 * 1024, // 1 MB max request body
		AppName:               "mapcat",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))
	httpadapter.SetupRoutes(app, deps)

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", ln.Addr().String(), "url", cfg.Server.URL())
		serveErr <- app.Listener(ln)
	}()

	if cfg.Server.OpenBrowser {
		if err := openBrowser(cfg.Server.URL()); err != nil {
			slog.Warn("open browser", "url", cfg.Server.URL(), "error", err)
		}
	}

	// stdin EOF ends input, not the server: subscribers keep watching the map.
	if cfg.Input.Stdin {
		go func() {
			if err := readCommands(ctx, stdin, stdout, commands); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("stdin", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped", "features", store.Len())
	return nil
}
