// Package rpc serves the catalog commands over NATS request-reply.
//
// Every command has its own subject. Replicas join one queue group so each
// request is handled once. Replies use the envelope of pkg/rpc.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	productv1 "github.com/abgdnv/productcatalog/pkg/api/product/v1"
	"github.com/abgdnv/productcatalog/pkg/config"
	pnats "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/rpc"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// request is a decoded command in flight. Handlers add log attributes as they learn them.
type request struct {
	subject string
	data    []byte
	attrs   []any
}

func (r *request) with(args ...any) {
	r.attrs = append(r.attrs, args...)
}

type handlerFunc func(ctx context.Context, req *request) (any, error)

type Server struct {
	nc         *nats.Conn
	service    service.ProductService
	cfg        config.RPCServerConfig
	pagination config.PaginationConfig
	validate   *validator.Validate
	logger     *slog.Logger
	tracer     trace.Tracer
	requests   metric.Int64Counter
	duration   metric.Float64Histogram

	sem    chan struct{}
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewServer(nc *nats.Conn, svc service.ProductService, cfg config.RPCServerConfig, pagination config.PaginationConfig, logger *slog.Logger) *Server {
	meter := otel.Meter("product-catalog")
	requests, err := meter.Int64Counter("catalog_rpc_requests", metric.WithDescription("Total number of handled commands"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_rpc_requests counter: %v", err))
	}
	duration, err := meter.Float64Histogram("catalog_rpc_duration", metric.WithUnit("s"), metric.WithDescription("Command handling latency"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_rpc_duration histogram: %v", err))
	}
	return &Server{
		nc:         nc,
		service:    svc,
		cfg:        cfg,
		pagination: pagination,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With("component", "rpc"),
		tracer:     otel.Tracer("product-catalog/rpc"),
		requests:   requests,
		duration:   duration,
		sem:        make(chan struct{}, cfg.Workers),
	}
}

func (s *Server) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		productv1.CreateProductSubject:     s.create,
		productv1.FindAllProductsSubject:   s.findAll,
		productv1.FindOneProductSubject:    s.findOne,
		productv1.UpdateProductSubject:     s.update,
		productv1.RemoveProductSubject:     s.remove,
		productv1.HardRemoveProductSubject: s.hardRemove,
		productv1.ValidateProductsSubject:  s.validateProducts,
	}
}

// Serve subscribes to every command subject and blocks until ctx is done.
// On return no new commands are accepted and in-flight ones have replied.
func (s *Server) Serve(ctx context.Context) error {
	// handlers outlive ctx so that in-flight commands can finish during shutdown
	base := context.WithoutCancel(ctx)
	handlers := s.handlers()
	subs := make([]*nats.Subscription, 0, len(handlers))
	for subject, h := range handlers {
		sub, err := s.nc.QueueSubscribe(subject, s.cfg.QueueGroup, s.dispatch(base, subject, h))
		if err != nil {
			s.unsubscribe(subs)
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	if err := s.nc.Flush(); err != nil {
		s.unsubscribe(subs)
		return fmt.Errorf("failed to flush subscriptions: %w", err)
	}
	s.logger.Info("RPC server is listening", "subjects", productv1.Subjects, "queue_group", s.cfg.QueueGroup, "workers", s.cfg.Workers)

	<-ctx.Done()
	s.logger.Info("RPC server is shutting down")
	s.unsubscribe(subs)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("RPC server stopped")
	return nil
}

func (s *Server) unsubscribe(subs []*nats.Subscription) {
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
}

// dispatch runs each message on its own goroutine, bounded by the worker semaphore.
func (s *Server) dispatch(base context.Context, subject string, h handlerFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		s.sem <- struct{}{}
		go func() {
			defer func() {
				<-s.sem
				s.wg.Done()
			}()
			s.handle(base, subject, h, msg)
		}()
	}
}

func (s *Server) handle(base context.Context, subject string, h handlerFunc, msg *nats.Msg) {
	start := time.Now()
	ctx := otel.GetTextMapPropagator().Extract(base, pnats.HeaderCarrier(msg.Header))
	requestID := msg.Header.Get(web.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = web.WithRequestID(ctx, requestID)
	ctx, span := s.tracer.Start(ctx, subject,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", subject),
		))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HandlerTimeout)
	defer cancel()

	req := &request{subject: subject, data: msg.Data}
	var data []byte
	status := http.StatusOK
	result, err := s.safeCall(ctx, h, req)
	if err == nil {
		data, err = rpc.EncodeResponse(result)
	}
	if err != nil {
		rpcErr := perrors.ToRPC(err)
		status = rpcErr.Status
		data = rpc.EncodeError(rpcErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, rpcErr.Code)
		s.logFailure(ctx, req, rpcErr, err)
	}

	if msg.Reply == "" {
		s.logger.WarnContext(ctx, "command has no reply subject", "command", subject)
	} else if respErr := msg.Respond(data); respErr != nil {
		s.logger.ErrorContext(ctx, "failed to send reply", "command", subject, "error", respErr)
	}

	attrs := metric.WithAttributes(
		attribute.String("command", subject),
		attribute.String("status", strconv.Itoa(status)),
	)
	s.requests.Add(ctx, 1, attrs)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// safeCall converts a handler panic into an error reply.
func (s *Server) safeCall(ctx context.Context, h handlerFunc, req *request) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic in %s handler: %v", perrors.ErrStorage, req.subject, rec)
		}
	}()
	return h(ctx, req)
}

func (s *Server) logFailure(ctx context.Context, req *request, rpcErr *rpc.Error, err error) {
	args := append([]any{"command", req.subject, "status", rpcErr.Status, "code", rpcErr.Code, "error", err}, req.attrs...)
	if rpcErr.IsClientError() {
		s.logger.WarnContext(ctx, "command failed", args...)
		return
	}
	s.logger.ErrorContext(ctx, "command failed", args...)
}

// decode unmarshals the payload into v and validates it.
func (s *Server) decode(req *request, v any) error {
	if err := json.Unmarshal(req.data, v); err != nil {
		return fmt.Errorf("%w: malformed %s payload: %v", perrors.ErrInvalidArgument, req.subject, err)
	}
	return s.check(v)
}

func (s *Server) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Server) create(ctx context.Context, req *request) (any, error) {
	var in productv1.CreateProductRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}
	req.with("name", in.Name)
	created, err := s.service.Create(ctx, service.CreateProductDto{Name: in.Name, Price: *in.Price})
	if err != nil {
		return nil, err
	}
	return toProduct(created), nil
}

func (s *Server) findAll(ctx context.Context, req *request) (any, error) {
	var in productv1.FindAllProductsRequest
	if len(req.data) > 0 {
		if err := json.Unmarshal(req.data, &in); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload: %v", perrors.ErrInvalidArgument, req.subject, err)
		}
	}
	if err := s.check(&in); err != nil {
		return nil, err
	}
	pageNum, limit := s.applyPaging(in)
	req.with("page", pageNum, "limit", limit)
	page, err := s.service.FindAll(ctx, pageNum, limit)
	if err != nil {
		return nil, err
	}
	out := productv1.ProductPage{
		Data: make([]productv1.Product, len(page.Data)),
		Meta: productv1.PageMeta{Total: page.Total, Page: page.Page, LastPage: page.LastPage},
	}
	for i := range page.Data {
		out.Data[i] = toProduct(&page.Data[i])
	}
	return out, nil
}

// applyPaging fills absent values with the configured defaults and caps the limit.
func (s *Server) applyPaging(in productv1.FindAllProductsRequest) (page, limit int32) {
	page, limit = s.pagination.DefaultPage, s.pagination.DefaultLimit
	if in.Page != nil {
		page = *in.Page
	}
	if in.Limit != nil {
		limit = *in.Limit
	}
	return page, min(limit, s.pagination.MaxLimit)
}

func (s *Server) findOne(ctx context.Context, req *request) (any, error) {
	return s.byID(ctx, req, s.service.FindOne)
}

func (s *Server) remove(ctx context.Context, req *request) (any, error) {
	return s.byID(ctx, req, s.service.Remove)
}

func (s *Server) hardRemove(ctx context.Context, req *request) (any, error) {
	return s.byID(ctx, req, s.service.HardRemove)
}

func (s *Server) byID(ctx context.Context, req *request, op func(context.Context, int64) (*service.ProductDto, error)) (any, error) {
	var in productv1.ProductIDRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}
	req.with("product_id", in.ID)
	product, err := op(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return toProduct(product), nil
}

func (s *Server) update(ctx context.Context, req *request) (any, error) {
	var in productv1.UpdateProductRequest
	if err := s.decode(req, &in); err != nil {
		return nil, err
	}
	req.with("product_id", in.ID)
	updated, err := s.service.Update(ctx, service.UpdateProductDto{ID: in.ID, Name: in.Name, Price: in.Price})
	if err != nil {
		return nil, err
	}
	return toProduct(updated), nil
}

func (s *Server) validateProducts(ctx context.Context, req *request) (any, error) {
	var ids productv1.ValidateProductsRequest
	if err := json.Unmarshal(req.data, &ids); err != nil {
		return nil, fmt.Errorf("%w: malformed %s payload: %v", perrors.ErrInvalidArgument, req.subject, err)
	}
	req.with("product_ids", []int64(ids))
	if err := s.validate.Var([]int64(ids), "required,min=1,dive,gt=0"); err != nil {
		return nil, fmt.Errorf("%w: %v", perrors.ErrInvalidArgument, err)
	}
	products, err := s.service.ValidateProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]productv1.Product, len(products))
	for i := range products {
		out[i] = toProduct(&products[i])
	}
	return out, nil
}

func toProduct(p *service.ProductDto) productv1.Product {
	return productv1.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Available: p.Available,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
