// Package product is a typed client for the catalog's message-pattern API.
// Other services use it to call the catalog over NATS request-reply.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	productv1 "github.com/abgdnv/productcatalog/pkg/api/product/v1"
	"github.com/abgdnv/productcatalog/pkg/config"
	pnats "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/rpc"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
)

// Client sends commands to the catalog. It is safe for concurrent use.
type Client struct {
	nc      *nats.Conn
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewClient creates a client whose calls are bounded by cfg.Timeout and guarded by a circuit breaker.
func NewClient(nc *nats.Conn, cfg config.RPCClientConfig) *Client {
	return &Client{
		nc:      nc,
		timeout: cfg.Timeout,
		breaker: newCircuitBreaker(cfg.CircuitBreaker),
	}
}

// newCircuitBreaker trips on transport failures and 5xx replies. Business errors
// such as NotFound or validation failures count as successful calls.
func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	maxRequests := cfg.MaxHalfOpenRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	st := gobreaker.Settings{
		Name:        "product-catalog-client",
		MaxRequests: maxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var rpcErr *rpc.Error
			if errors.As(err, &rpcErr) {
				return rpcErr.IsClientError()
			}
			return false
		},
	}
	return gobreaker.NewCircuitBreaker[struct{}](st)
}

func (c *Client) Create(ctx context.Context, req productv1.CreateProductRequest) (*productv1.Product, error) {
	var out productv1.Product
	if err := c.call(ctx, productv1.CreateProductSubject, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindAll(ctx context.Context, page, limit int32) (*productv1.ProductPage, error) {
	var out productv1.ProductPage
	req := productv1.FindAllProductsRequest{Page: &page, Limit: &limit}
	if err := c.call(ctx, productv1.FindAllProductsSubject, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindOne(ctx context.Context, id int64) (*productv1.Product, error) {
	return c.byID(ctx, productv1.FindOneProductSubject, id)
}

func (c *Client) Update(ctx context.Context, req productv1.UpdateProductRequest) (*productv1.Product, error) {
	var out productv1.Product
	if err := c.call(ctx, productv1.UpdateProductSubject, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Remove(ctx context.Context, id int64) (*productv1.Product, error) {
	return c.byID(ctx, productv1.RemoveProductSubject, id)
}

// HardRemove permanently deletes a product. Reserved for compensating transactions.
func (c *Client) HardRemove(ctx context.Context, id int64) (*productv1.Product, error) {
	return c.byID(ctx, productv1.HardRemoveProductSubject, id)
}

// Validate returns the products for ids, failing with a 404 *rpc.Error when any id is unknown.
func (c *Client) Validate(ctx context.Context, ids []int64) ([]productv1.Product, error) {
	var out []productv1.Product
	if err := c.call(ctx, productv1.ValidateProductsSubject, productv1.ValidateProductsRequest(ids), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) byID(ctx context.Context, subject string, id int64) (*productv1.Product, error) {
	var out productv1.Product
	if err := c.call(ctx, subject, productv1.ProductIDRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends payload on subject and decodes the reply envelope into out.
// Failed commands are returned as *rpc.Error.
func (c *Client) call(ctx context.Context, subject string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	reqID, ok := web.GetRequestID(ctx)
	if !ok || reqID == "" {
		reqID = uuid.NewString()
	}
	msg.Header.Set(web.RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, pnats.HeaderCarrier(msg.Header))

	_, err = c.breaker.Execute(func() (struct{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		reply, err := c.nc.RequestMsgWithContext(callCtx, msg)
		if err != nil {
			return struct{}{}, fmt.Errorf("%s request failed: %w", subject, err)
		}
		return struct{}{}, rpc.DecodeReply(reply.Data, out)
	})
	return err
}
