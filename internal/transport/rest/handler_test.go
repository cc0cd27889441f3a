package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type connStatus bool

func (c connStatus) IsConnected() bool { return bool(c) }

func Test_ReadinessCheck(t *testing.T) {
	testCases := []struct {
		name       string
		pingErr    error
		connected  bool
		wantStatus int
		wantBody   map[string]string
	}{
		{name: "ready", connected: true, wantStatus: http.StatusOK, wantBody: map[string]string{"database": "up", "nats": "up"}},
		{name: "database down", pingErr: errors.New("refused"), connected: true, wantStatus: http.StatusServiceUnavailable, wantBody: map[string]string{"database": "down", "nats": "up"}},
		{name: "nats down", connected: false, wantStatus: http.StatusServiceUnavailable, wantBody: map[string]string{"database": "up", "nats": "down"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			db := new(mockPinger)
			db.On("Ping", mock.Anything).Return(tc.pingErr).Once()
			h := NewHandler(db, connStatus(tc.connected), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
			r := chi.NewRouter()
			h.RegisterRoutes(r)
			rec := httptest.NewRecorder()

			// when
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			// then
			assert.Equal(t, tc.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantBody, body)
			db.AssertExpectations(t)
		})
	}
}

func Test_HealthAndMetricsRoutes(t *testing.T) {
	// given
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("catalog_rpc_requests_total 1"))
	})
	h := NewHandler(new(mockPinger), connStatus(true), metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	// when
	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	scrape := httptest.NewRecorder()
	r.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "OK", health.Body.String())
	assert.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "catalog_rpc_requests_total")
}

func Test_MetricsRouteAbsentWhenDisabled(t *testing.T) {
	// given
	h := NewHandler(new(mockPinger), connStatus(true), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()

	// when
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
