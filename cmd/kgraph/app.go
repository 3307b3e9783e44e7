package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/modonty1-rgb/modonty-sub005/api"
	"github.com/modonty1-rgb/modonty-sub005/config"
	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/export"
	"github.com/modonty1-rgb/modonty-sub005/extract"
	"github.com/modonty1-rgb/modonty-sub005/fetch"
	"github.com/modonty1-rgb/modonty-sub005/graph"
	"github.com/modonty1-rgb/modonty-sub005/metrics"
	"github.com/modonty1-rgb/modonty-sub005/normalize"
	"github.com/modonty1-rgb/modonty-sub005/pipeline"
	"github.com/modonty1-rgb/modonty-sub005/storage"
	"github.com/modonty1-rgb/modonty-sub005/validation"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

// App wires together all components from the configuration.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS, only for the nats storage backend
	natsConn *nats.Conn
	js       jetstream.JetStream

	Metrics    *metrics.Collector
	Fetcher    *content.FileFetcher
	Generator  *graph.Generator
	Normalizer *normalize.Normalizer
	Vocabulary *schemaorg.Cache
	Ensemble   *validation.Ensemble
	Store      *storage.Store
	Service    *pipeline.Service
	Auditor    *extract.Auditor
	Exporter   *export.Exporter
}

// NewApp creates a new application instance. Storage is not opened until
// Start.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, Metrics: metrics.NewCollector()}

	pageFetcher := fetch.NewFetcher(cfg.FetchOptions())
	a.Vocabulary = schemaorg.NewCache(a.vocabularySource(),
		schemaorg.WithTTL(cfg.Vocabulary.TTL),
		schemaorg.WithLogger(logger))
	a.Normalizer = normalize.NewNormalizer(nil, logger)

	ensemble, err := validation.NewEnsemble(a.Vocabulary, a.Normalizer, validation.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create validator ensemble: %w", err)
	}
	a.Ensemble = ensemble

	a.Fetcher = content.NewFileFetcher(cfg.Content.Dir)
	a.Generator = graph.NewGenerator(cfg.GraphSite())
	a.Exporter = export.NewExporter(a.Normalizer.Loader())
	a.Auditor = extract.NewAuditor(ensemble,
		extract.WithGetter(pageFetcher),
		extract.WithMetrics(a.Metrics),
		extract.WithLogger(logger))
	return a, nil
}

func (a *App) vocabularySource() schemaorg.Source {
	if a.cfg.Vocabulary.File != "" {
		return schemaorg.FileSource{Path: a.cfg.Vocabulary.File}
	}
	getter := fetch.NewFetcher(fetch.Options{
		Timeout:        a.cfg.Vocabulary.Timeout,
		UserAgent:      a.cfg.Fetch.UserAgent,
		MaxContentSize: 64 << 20,
	})
	return schemaorg.NewHTTPSource(a.cfg.Vocabulary.URL, getter)
}

// Start opens storage and builds the pipeline service.
func (a *App) Start(ctx context.Context) error {
	backend, err := a.openBackend(ctx)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.Store = storage.NewStore(backend, storage.WithLogger(a.logger))
	a.Service = pipeline.NewService(a.Fetcher, a.Generator, a.Normalizer, a.Ensemble, a.Store,
		pipeline.WithValidationOptions(a.cfg.ValidationOptions()),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithLogger(a.logger))
	return nil
}

func (a *App) openBackend(ctx context.Context) (storage.Backend, error) {
	if a.cfg.Storage.Backend != config.BackendNATS {
		a.logger.Debug("Using in-memory storage")
		return storage.NewMemoryBackend(), nil
	}

	a.logger.Info("Connecting to NATS", "url", a.cfg.Storage.NATSURL)
	conn, err := nats.Connect(a.cfg.Storage.NATSURL,
		nats.Name("kgraph"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", a.cfg.Storage.NATSURL, err)
	}
	a.natsConn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	backend, err := storage.NewKVBackend(ctx, js, a.cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Connected to NATS", "bucket", a.cfg.Storage.Bucket)
	return backend, nil
}

// Server returns the HTTP API for the started app.
func (a *App) Server() *api.Server {
	return api.NewServer(a.Service, a.Ensemble, a.Auditor, a.Exporter, a.Metrics, a.logger)
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("NATS drain failed", "error", err)
		}
		a.natsConn.Close()
	}
}
