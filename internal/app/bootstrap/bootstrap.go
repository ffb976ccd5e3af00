package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	workshopservice "ideaforge/contexts/ideation/workshop-service"
	postgresadapter "ideaforge/contexts/ideation/workshop-service/adapters/postgres"
	workerapp "ideaforge/contexts/ideation/workshop-service/application/workers"
	"ideaforge/contexts/ideation/workshop-service/ports"
	"ideaforge/internal/platform/config"
	"ideaforge/internal/platform/db"
	"ideaforge/internal/platform/httpserver"
	"ideaforge/internal/platform/logging"
	"ideaforge/internal/platform/messaging"
	"ideaforge/internal/platform/metrics"
	"ideaforge/internal/shared/events"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// WorkshopEventTypes lists every event the workshop module writes to its
// outbox.
var WorkshopEventTypes = []string{
	"session.created",
	"session.state_changed",
	"session.deleted",
	"topic.locked",
	"contribution.batch_submitted",
	"vote.cast",
}

type APIApp struct {
	server  *httpserver.Server
	closers []func() error
	logger  *slog.Logger
}

type WorkerApp struct {
	outboxRelay  workerapp.OutboxRelay
	local        *messaging.Local
	pollInterval time.Duration
	closers      []func() error
	logger       *slog.Logger
}

// Workshop is an opened store with the module wired on top of it.
type Workshop struct {
	Module workshopservice.Module
	Config config.Config
	close  func() error
}

func (w *Workshop) Close() error {
	if w == nil || w.close == nil {
		return nil
	}
	return w.close()
}

// OpenWorkshop connects the configured store, applies the schema and wires
// the workshop module. The cli shares it with the api and worker processes.
func OpenWorkshop(ctx context.Context, cfg config.Config, monitor ports.Metrics, logger *slog.Logger) (*Workshop, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required")
		}
		pg, err := db.Open(ctx, cfg.PostgresDSN, db.PoolOptions{
			MaxOpenConns:    cfg.PostgresMaxOpenConns,
			MaxIdleConns:    cfg.PostgresMaxIdleConns,
			ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return &Workshop{
			Module: workshopservice.NewPostgresModule(pg.DB, monitor, logger),
			Config: cfg,
			close:  pg.Close,
		}, nil
	case config.StoreDriverSQLite:
		module, store, err := workshopservice.NewSQLiteModule(cfg.SQLitePath, monitor, logger)
		if err != nil {
			return nil, err
		}
		return &Workshop{
			Module: module,
			Config: cfg,
			close:  store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.Init(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat).With("process", "api")

	var monitor *metrics.Workshop
	if cfg.EnableMetrics {
		monitor = metrics.NewWorkshop(metricsNamespace(cfg.ServiceName))
	}

	workshop, err := OpenWorkshop(ctx, cfg, metricsPort(monitor), logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(workshop.Module, httpserver.Options{
		Addr:          normalizeAddr(cfg.HTTPPort),
		Metrics:       monitor,
		EnableSwagger: cfg.EnableSwagger,
		Logger:        logger,
	})
	return &APIApp{
		server:  server,
		closers: []func() error{workshop.Close},
		logger:  logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.Init(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat).With("process", "worker")

	workshop, err := OpenWorkshop(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	app := &WorkerApp{
		pollInterval: cfg.OutboxPollInterval,
		closers:      []func() error{workshop.Close},
		logger:       logger,
	}

	var publisher ports.EventPublisher
	if strings.TrimSpace(cfg.NATSURL) != "" {
		bus, err := messaging.ConnectNATS(cfg.NATSURL, cfg.ServiceName+"-worker", logger)
		if err != nil {
			_ = workshop.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() error {
			bus.Close()
			return nil
		})
		publisher = bus
	} else {
		app.local = messaging.NewLocal(logger)
		publisher = app.local
	}

	app.outboxRelay = workerapp.OutboxRelay{
		Outbox:        workshop.Module.Outbox,
		Publisher:     publisher,
		Clock:         postgresadapter.SystemClock{},
		BatchSize:     cfg.OutboxBatchSize,
		SubjectPrefix: cfg.NATSSubjectPrefix,
		Logger:        logger,
	}
	return app, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Run(ctx)
}

func (a *APIApp) Close() error {
	return closeAll(a.closers)
}

// Run relays the outbox until ctx is cancelled. Without NATS the relayed
// events are only logged by an in-process subscriber.
func (w *WorkerApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Subscribe before the first relay cycle; the local bus drops events
	// that have no subscriber.
	if w.local != nil {
		for _, eventType := range WorkshopEventTypes {
			w.local.Subscribe(gctx, subject(w.outboxRelay.SubjectPrefix, eventType), w.logEvent)
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"nats", w.local == nil,
	)

	g.Go(func() error {
		err := w.outboxRelay.Run(gctx, w.pollInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func (w *WorkerApp) Close() error {
	return closeAll(w.closers)
}

func (w *WorkerApp) logEvent(_ context.Context, event events.Envelope) error {
	w.logger.Info("workshop event relayed",
		"event", "bootstrap_worker_event_relayed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"session_id", event.PartitionKey,
	)
	return nil
}

func subject(prefix string, eventType string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// metricsPort avoids handing the module a typed nil inside a non-nil
// interface.
func metricsPort(monitor *metrics.Workshop) ports.Metrics {
	if monitor == nil {
		return nil
	}
	return monitor
}

func metricsNamespace(service string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.TrimSpace(service))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
