// Package e2e runs the catalog against real PostgreSQL and NATS containers.
//
// The suite starts both containers with testcontainers-go, applies the embedded
// migrations, runs the RPC router and calls it through the typed client the way
// other services do. Product events are read back from the JetStream stream.
package e2e

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/internal/app"
	"github.com/abgdnv/productcatalog/internal/config"
	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/store"
	productv1 "github.com/abgdnv/productcatalog/pkg/api/product/v1"
	"github.com/abgdnv/productcatalog/pkg/client/product"
	pkgconfig "github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	pnats "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/rpc"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipE2ETests = "PRODUCT_SVC_SKIP_E2E_TESTS"
const natsImg = "nats:2.11.6-alpine"

type ProductServiceE2ESuite struct {
	suite.Suite
	ctx           context.Context
	cancel        context.CancelFunc
	logger        *slog.Logger
	pgContainer   *postgres.PostgresContainer
	natsContainer *nats.NATSContainer
	dbPool        *pgxpool.Pool
	nc            *natsgo.Conn
	js            jetstream.JetStream
	httpServer    *httptest.Server
	client        *product.Client
	served        chan error
}

func TestProductServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(ProductServiceE2ESuite))
}

func (s *ProductServiceE2ESuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("products"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	require.NoError(s.T(), store.Migrate(connStr, s.logger), "Failed to apply migrations")
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err)

	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")
	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second, "catalog-e2e", s.logger)
	require.NoError(s.T(), err)
	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err)

	cfg := &config.Config{
		RPC:        pkgconfig.RPCServerConfig{QueueGroup: "catalog", Workers: 8, HandlerTimeout: 5 * time.Second},
		Pagination: pkgconfig.DefaultPagination(),
		Events:     config.EventsConfig{Enabled: true},
	}
	deps, err := app.SetupDependencies(s.ctx, s.dbPool, s.nc, cfg, nil, s.logger)
	require.NoError(s.T(), err)
	rpcServer := app.SetupRPCServer(deps, cfg)
	s.served = make(chan error, 1)
	go func() { s.served <- rpcServer.Serve(s.ctx) }()
	s.httpServer = httptest.NewServer(app.SetupHttpHandler(deps))

	s.client = product.NewClient(s.nc, pkgconfig.RPCClientConfig{
		Timeout: 5 * time.Second,
		CircuitBreaker: pkgconfig.CircuitBreakerConfig{
			ConsecutiveFailures: 5,
			ErrorRatePercent:    50,
			MaxHalfOpenRequests: 1,
			OpenTimeout:         time.Second,
		},
	})
	require.Eventually(s.T(), func() bool {
		_, err := s.client.FindAll(s.ctx, 1, 1)
		return err == nil
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *ProductServiceE2ESuite) TearDownSuite() {
	s.cancel()
	if s.served != nil {
		<-s.served
	}
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := testcontainers.TerminateContainer(s.pgContainer); err != nil {
			s.logger.Error("Failed to terminate PostgreSQL container", "error", err)
		}
	}
	if s.natsContainer != nil {
		if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
			s.logger.Error("Failed to terminate NATS container", "error", err)
		}
	}
}

func (s *ProductServiceE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate products table")
	require.NoError(s.T(), s.js.DeleteStream(s.ctx, messaging.ProductsStream))
	_, err = pnats.EnsureStream(s.ctx, s.js, messaging.ProductsStream, messaging.ProductsSubjects)
	require.NoError(s.T(), err)
}

func (s *ProductServiceE2ESuite) create(name string, price float64) *productv1.Product {
	s.T().Helper()
	created, err := s.client.Create(s.ctx, productv1.CreateProductRequest{Name: name, Price: &price})
	require.NoError(s.T(), err)
	return created
}

func (s *ProductServiceE2ESuite) requireStatus(err error, status int, code string) {
	s.T().Helper()
	var rpcErr *rpc.Error
	require.True(s.T(), errors.As(err, &rpcErr), "expected rpc error, got %v", err)
	assert.Equal(s.T(), status, rpcErr.Status)
	assert.Equal(s.T(), code, rpcErr.Code)
}

func (s *ProductServiceE2ESuite) TestCreateThenList() {
	// given
	a := s.create("A", 10)
	s.create("B", 20)

	// when
	page, err := s.client.FindAll(s.ctx, 1, 1)

	// then
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Data, 1)
	assert.Equal(s.T(), a.ID, page.Data[0].ID)
	assert.Equal(s.T(), productv1.PageMeta{Total: 2, Page: 1, LastPage: 2}, page.Meta)

	beyond, err := s.client.FindAll(s.ctx, 3, 1)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), beyond.Data)
	assert.Equal(s.T(), int64(2), beyond.Meta.LastPage)
}

func (s *ProductServiceE2ESuite) TestValidationErrors() {
	negative := -5.0
	_, err := s.client.Create(s.ctx, productv1.CreateProductRequest{Name: "Bad", Price: &negative})
	s.requireStatus(err, http.StatusBadRequest, perrors.CodeValidationFailed)

	_, err = s.client.FindAll(s.ctx, -1, 10)
	s.requireStatus(err, http.StatusBadRequest, perrors.CodeValidationFailed)

	_, err = s.client.FindAll(s.ctx, 1, 0)
	s.requireStatus(err, http.StatusBadRequest, perrors.CodeValidationFailed)

	_, err = s.client.Validate(s.ctx, []int64{})
	s.requireStatus(err, http.StatusBadRequest, perrors.CodeValidationFailed)
}

func (s *ProductServiceE2ESuite) TestNotFound() {
	name := "x"
	_, err := s.client.FindOne(s.ctx, 404)
	s.requireStatus(err, http.StatusNotFound, perrors.CodeProductNotFound)
	_, err = s.client.Update(s.ctx, productv1.UpdateProductRequest{ID: 404, Name: &name})
	s.requireStatus(err, http.StatusNotFound, perrors.CodeProductNotFound)
	_, err = s.client.Remove(s.ctx, 404)
	s.requireStatus(err, http.StatusNotFound, perrors.CodeProductNotFound)
	_, err = s.client.HardRemove(s.ctx, 404)
	s.requireStatus(err, http.StatusNotFound, perrors.CodeProductNotFound)
}

func (s *ProductServiceE2ESuite) TestUpdateAndRemoveLifecycle() {
	// given
	created := s.create("Chair", 40)
	price := 45.5

	// when
	updated, err := s.client.Update(s.ctx, productv1.UpdateProductRequest{ID: created.ID, Price: &price})
	require.NoError(s.T(), err)
	removed, err := s.client.Remove(s.ctx, created.ID)
	require.NoError(s.T(), err)
	again, err := s.client.Remove(s.ctx, created.ID)
	require.NoError(s.T(), err)

	// then
	assert.Equal(s.T(), "Chair", updated.Name)
	assert.Equal(s.T(), 45.5, updated.Price)
	assert.False(s.T(), removed.Available)
	assert.False(s.T(), again.Available)
	_, err = s.client.FindOne(s.ctx, created.ID)
	s.requireStatus(err, http.StatusNotFound, perrors.CodeProductNotFound)

	validated, err := s.client.Validate(s.ctx, []int64{created.ID, created.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), validated, 1)
	assert.False(s.T(), validated[0].Available)
}

func (s *ProductServiceE2ESuite) TestHardRemove() {
	// given
	keep := s.create("Keep", 1)
	gone := s.create("Gone", 2)

	// when
	deleted, err := s.client.HardRemove(s.ctx, gone.ID)

	// then
	require.NoError(s.T(), err)
	assert.Equal(s.T(), gone.ID, deleted.ID)
	_, err = s.client.Validate(s.ctx, []int64{keep.ID, gone.ID})
	s.requireStatus(err, http.StatusNotFound, perrors.CodeSomeProductsNotFound)
	page, err := s.client.FindAll(s.ctx, 1, 10)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), page.Meta.Total)
}

func (s *ProductServiceE2ESuite) TestEventsArePublished() {
	// given
	created := s.create("Lamp", 12)
	_, err := s.client.Remove(s.ctx, created.ID)
	require.NoError(s.T(), err)

	// when
	consumer, err := s.js.OrderedConsumer(s.ctx, messaging.ProductsStream, jetstream.OrderedConsumerConfig{})
	require.NoError(s.T(), err)
	batch, err := consumer.Fetch(2, jetstream.FetchMaxWait(5*time.Second))
	require.NoError(s.T(), err)

	// then
	var subjects []string
	for msg := range batch.Messages() {
		subjects = append(subjects, msg.Subject())
	}
	assert.Equal(s.T(), []string{messaging.ProductCreatedSubject, messaging.ProductRemovedSubject}, subjects)
}

func (s *ProductServiceE2ESuite) TestReadiness() {
	// when
	resp, err := http.Get(s.httpServer.URL + "/readyz")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	// then
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}
