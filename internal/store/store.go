// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/abgdnv/productcatalog/internal/store/db"
)

// ProductStore abstracts the product table. Implementations wrap their failures
// with the sentinels of the errors package: ErrProductNotFound for missing rows,
// ErrCreateProduct for rejected inserts and ErrStorage for everything else.
type ProductStore interface {
	// Create inserts an available product and returns it with its generated id.
	Create(ctx context.Context, name string, price float64) (*db.Product, error)

	// CountAvailable returns the number of products with available=true.
	CountAvailable(ctx context.Context) (int64, error)

	// FindAvailable returns a page of available products ordered by id.
	// Returns an empty slice past the last row.
	FindAvailable(ctx context.Context, offset, limit int32) ([]db.Product, error)

	// FindAvailableByID returns the product only while it is available.
	// Returns ErrProductNotFound otherwise.
	FindAvailableByID(ctx context.Context, id int64) (*db.Product, error)

	// FindByIDs returns the products matching ids regardless of availability, ordered by id.
	FindByIDs(ctx context.Context, ids []int64) ([]db.Product, error)

	// Update sets the non-nil fields of an available product.
	// Returns ErrProductNotFound if the product is absent or unavailable.
	Update(ctx context.Context, id int64, name *string, price *float64) (*db.Product, error)

	// MarkUnavailable soft-deletes a product. Repeating it on an unavailable product succeeds.
	// Returns ErrProductNotFound if no row exists.
	MarkUnavailable(ctx context.Context, id int64) (*db.Product, error)

	// DeleteByID physically removes a product and returns the deleted row.
	// Returns ErrProductNotFound if no row exists.
	DeleteByID(ctx context.Context, id int64) (*db.Product, error)
}
