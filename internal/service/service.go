// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/store"
	"github.com/abgdnv/productcatalog/internal/store/db"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/abgdnv/productcatalog/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the catalog operations.
type ProductService interface {
	// Create adds a new available product.
	// Returns ErrCreateProduct if the store rejects it.
	Create(ctx context.Context, product CreateProductDto) (*ProductDto, error)

	// FindAll returns a page of available products with paging metadata.
	// A page past the last one yields empty data. Returns ErrInvalidArgument if page or limit is below 1.
	FindAll(ctx context.Context, page, limit int32) (*ProductPageDto, error)

	// FindOne returns an available product.
	// Returns ErrProductNotFound if it is absent or unavailable.
	FindOne(ctx context.Context, id int64) (*ProductDto, error)

	// Update changes the provided fields of an available product.
	// Returns ErrProductNotFound if it is absent or unavailable.
	Update(ctx context.Context, product UpdateProductDto) (*ProductDto, error)

	// Remove marks a product unavailable. Removing it again succeeds.
	// Returns ErrProductNotFound if it does not exist.
	Remove(ctx context.Context, id int64) (*ProductDto, error)

	// HardRemove deletes a product permanently and returns its last state.
	// Returns ErrProductNotFound if it does not exist.
	HardRemove(ctx context.Context, id int64) (*ProductDto, error)

	// ValidateProducts returns every product in ids regardless of availability.
	// Returns ErrSomeProductsNotFound unless each distinct id exists.
	ValidateProducts(ctx context.Context, ids []int64) ([]ProductDto, error)
}

// Service implements ProductService.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	writes     metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("product-catalog")
	writes, err := meter.Int64Counter("catalog_product_writes", metric.WithDescription("Total number of successful product writes"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_product_writes counter: %v", err))
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		writes:     writes,
	}
}

type CreateProductDto struct {
	Name  string
	Price float64
}

// UpdateProductDto carries the fields to change. Nil fields are left untouched.
type UpdateProductDto struct {
	ID    int64
	Name  *string
	Price *float64
}

type ProductDto struct {
	ID        int64
	Name      string
	Price     float64
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductPageDto struct {
	Data     []ProductDto
	Total    int64
	Page     int32
	LastPage int64
}

func (s *Service) Create(ctx context.Context, product CreateProductDto) (*ProductDto, error) {
	if product.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0, got %v", perrors.ErrInvalidArgument, product.Price)
	}
	created, err := s.repository.Create(ctx, product.Name, product.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", product.Name, err)
	}
	s.afterWrite(ctx, messaging.ProductCreatedSubject, created)
	return toDto(created), nil
}

func (s *Service) FindAll(ctx context.Context, page, limit int32) (*ProductPageDto, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be >= 1, got page=%d limit=%d", perrors.ErrInvalidArgument, page, limit)
	}
	total, err := s.repository.CountAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	result := &ProductPageDto{
		Data:     []ProductDto{},
		Total:    total,
		Page:     page,
		LastPage: lastPage(total, limit),
	}

	offset := int64(page-1) * int64(limit)
	if offset >= total || offset > math.MaxInt32 {
		return result, nil
	}
	products, err := s.repository.FindAvailable(ctx, int32(offset), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products page %d: %w", page, err)
	}
	result.Data = toDtos(products)
	return result, nil
}

func (s *Service) FindOne(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindAvailableByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

func (s *Service) Update(ctx context.Context, product UpdateProductDto) (*ProductDto, error) {
	if product.Price != nil && *product.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0, got %v", perrors.ErrInvalidArgument, *product.Price)
	}
	updated, err := s.repository.Update(ctx, product.ID, product.Name, product.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, err)
	}
	s.afterWrite(ctx, messaging.ProductUpdatedSubject, updated)
	return toDto(updated), nil
}

func (s *Service) Remove(ctx context.Context, id int64) (*ProductDto, error) {
	removed, err := s.repository.MarkUnavailable(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to remove product with ID %d: %w", id, err)
	}
	s.afterWrite(ctx, messaging.ProductRemovedSubject, removed)
	return toDto(removed), nil
}

func (s *Service) HardRemove(ctx context.Context, id int64) (*ProductDto, error) {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	s.afterWrite(ctx, messaging.ProductDeletedSubject, deleted)
	return toDto(deleted), nil
}

func (s *Service) ValidateProducts(ctx context.Context, ids []int64) ([]ProductDto, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one product id is required", perrors.ErrInvalidArgument)
	}
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	if unique[0] < 1 {
		return nil, fmt.Errorf("%w: product ids must be positive, got %d", perrors.ErrInvalidArgument, unique[0])
	}

	products, err := s.repository.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products %v: %w", unique, err)
	}
	if len(products) != len(unique) {
		return nil, fmt.Errorf("found %d of %d products: %w", len(products), len(unique), perrors.ErrSomeProductsNotFound)
	}
	return toDtos(products), nil
}

// afterWrite records the write and publishes its event. Publishing is best effort.
func (s *Service) afterWrite(ctx context.Context, subject string, product *db.Product) {
	s.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("event", subject)))

	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.ProductEvent{
		Carrier:    carrier,
		Kind:       subject,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Available:  product.Available,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish product event", "subject", subject, "product_id", product.ID, "error", err)
	}
}

// lastPage is ceil(total/limit). limit is at least 1.
func lastPage(total int64, limit int32) int64 {
	l := int64(limit)
	return (total + l - 1) / l
}

func toDtos(products []db.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}

// toDto converts a db.Product to a ProductDto.
func toDto(product *db.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Available: product.Available,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
