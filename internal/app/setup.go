// Package app wires the product catalog components together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productcatalog/internal/config"
	"github.com/abgdnv/productcatalog/internal/service"
	"github.com/abgdnv/productcatalog/internal/store"
	"github.com/abgdnv/productcatalog/internal/transport/rest"
	"github.com/abgdnv/productcatalog/internal/transport/rpc"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	pnats "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
)

type Dependencies struct {
	ProductService service.ProductService
	DB             rest.Pinger
	NATS           *nats.Conn
	// Metrics serves the Prometheus scrape endpoint; nil when metrics are disabled.
	Metrics http.Handler
	Logger  *slog.Logger
}

// SetupDependencies builds the service on top of PostgreSQL. When events are
// enabled the products stream is created and writes are published to it.
func SetupDependencies(ctx context.Context, dbPool *pgxpool.Pool, nc *nats.Conn, cfg *config.Config, metrics http.Handler, logger *slog.Logger) (*Dependencies, error) {
	publisher, err := setupPublisher(ctx, nc, cfg.Events, logger)
	if err != nil {
		return nil, err
	}
	return &Dependencies{
		ProductService: service.NewService(store.NewPgStore(dbPool), publisher),
		DB:             dbPool,
		NATS:           nc,
		Metrics:        metrics,
		Logger:         logger,
	}, nil
}

func setupPublisher(ctx context.Context, nc *nats.Conn, cfg config.EventsConfig, logger *slog.Logger) (messaging.Publisher, error) {
	if !cfg.Enabled {
		logger.Info("Product events are disabled")
		return messaging.NoopPublisher{}, nil
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}
	if _, err := pnats.EnsureStream(ctx, js, messaging.ProductsStream, messaging.ProductsSubjects); err != nil {
		return nil, fmt.Errorf("failed to set up event stream: %w", err)
	}
	logger.Info("Product events are published", "stream", messaging.ProductsStream)
	return pnats.NewNatsPublisher(js), nil
}

// SetupHttpHandler builds the ops router: health, readiness and metrics.
// Used by E2E tests to probe the service without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.NewHandler(deps.DB, deps.NATS, deps.Metrics, deps.Logger).RegisterRoutes(mux)
	return mux
}

// SetupHttpServer creates and configures an HTTP server for the ops endpoints.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, SetupHttpHandler(deps))
}

// SetupRPCServer creates the message-pattern router serving the catalog commands.
func SetupRPCServer(deps *Dependencies, cfg *config.Config) *rpc.Server {
	return rpc.NewServer(deps.NATS, deps.ProductService, cfg.RPC, cfg.Pagination, deps.Logger)
}
