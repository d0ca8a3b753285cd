// Package app wires together all dependencies and runs the catalog search
// service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gopikant21/jumbotail/internal/cache"
	"github.com/gopikant21/jumbotail/internal/catalog"
	"github.com/gopikant21/jumbotail/internal/config"
	"github.com/gopikant21/jumbotail/internal/event"
	handler "github.com/gopikant21/jumbotail/internal/handler/http"
	"github.com/gopikant21/jumbotail/internal/normalizer"
	"github.com/gopikant21/jumbotail/internal/ranking"
	"github.com/gopikant21/jumbotail/internal/seed"
	"github.com/gopikant21/jumbotail/internal/service"
	"github.com/gopikant21/jumbotail/pkg/health"
	"github.com/gopikant21/jumbotail/pkg/httpclient"
	pkgkafka "github.com/gopikant21/jumbotail/pkg/kafka"
	"github.com/gopikant21/jumbotail/pkg/tracing"
)

// App holds the running components of the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	consumer   *event.ProductConsumer
	httpServer *http.Server

	// bgCancel stops handler-spawned background work (reindex) at shutdown.
	bgCancel        context.CancelFunc
	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "catalog-search",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSampler,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Core components.
	store := catalog.NewStore()
	norm := normalizer.New()
	ranker := ranking.NewEngine()
	resultCache := cache.New(cfg.CacheCapacity, cfg.CacheTTL)

	// Upstream product feed client, used only for reindexing.
	var feed service.FeedClient
	if cfg.ProductFeedURL != "" {
		feed = httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("product-feed"),
			logger,
		)
	}

	searchService := service.NewSearchService(store, norm, ranker, resultCache, logger, cfg.ProductFeedURL, feed)

	// Seed a deterministic demo catalog so the service is usable standalone.
	if cfg.SeedEnabled {
		result := searchService.BulkLoad(ctx, seed.Products(cfg.SeedCount))
		logger.Info("seed catalog loaded",
			slog.Int("products", result.SuccessCount),
			slog.Int("errors", result.ErrorCount),
		)
	}

	// Kafka consumers keep the catalog in sync with product lifecycle events.
	var consumer *event.ProductConsumer
	if cfg.KafkaEnabled {
		consumer = event.NewProductConsumer(cfg.KafkaBrokers, "catalog-search", searchService, logger)
		logger.Info("kafka consumers initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("catalog", func(ctx context.Context) error {
		if store.Len() == 0 && cfg.SeedEnabled {
			return fmt.Errorf("catalog is empty")
		}
		return nil
	})
	if cfg.KafkaEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	// Background work spawned by handlers outlives individual requests but
	// must not outlive the application.
	bgCtx, bgCancel := context.WithCancel(context.Background())

	router := handler.NewRouter(bgCtx, searchService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		consumer:        consumer,
		httpServer:      httpServer,
		bgCancel:        bgCancel,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.bgCancel()

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
