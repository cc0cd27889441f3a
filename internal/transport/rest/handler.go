// Package rest provides the operational HTTP endpoints of the catalog.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnStatus is satisfied by *nats.Conn.
type ConnStatus interface {
	IsConnected() bool
}

type Handler struct {
	db      Pinger
	nc      ConnStatus
	metrics http.Handler
	timeout time.Duration
	logger  *slog.Logger
}

// NewHandler creates the ops handler. metrics may be nil when metrics are disabled.
func NewHandler(db Pinger, nc ConnStatus, metrics http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		db:      db,
		nc:      nc,
		metrics: metrics,
		timeout: 2 * time.Second,
		logger:  logger.With("component", "rest"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
}

// HealthCheck reports that the process is alive.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadinessCheck reports whether the database and the NATS connection can serve commands.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := map[string]string{"database": "up", "nats": "up"}
	ready := true
	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "database is not ready", "error", err)
		status["database"] = "down"
		ready = false
	}
	if !h.nc.IsConnected() {
		h.logger.WarnContext(ctx, "nats is not connected")
		status["nats"] = "down"
		ready = false
	}
	if !ready {
		web.RespondJSON(w, h.logger, http.StatusServiceUnavailable, status)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, status)
}
