package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/store/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
	q  *db.Queries
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		q:  db.New(dbp),
	}
}

func (p *PgStore) Create(ctx context.Context, name string, price float64) (*db.Product, error) {
	product, err := p.q.Create(ctx, db.CreateParams{Name: name, Price: price})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrCreateProduct, err)
	}
	return &product, nil
}

func (p *PgStore) CountAvailable(ctx context.Context) (int64, error) {
	count, err := p.q.CountAvailable(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count products: %w", perrors.ErrStorage, err)
	}
	return count, nil
}

func (p *PgStore) FindAvailable(ctx context.Context, offset, limit int32) ([]db.Product, error) {
	products, err := p.q.FindAvailable(ctx, db.FindAvailableParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find products: %w", perrors.ErrStorage, err)
	}
	return products, nil
}

func (p *PgStore) FindAvailableByID(ctx context.Context, id int64) (*db.Product, error) {
	product, err := p.q.FindAvailableByID(ctx, id)
	if err != nil {
		return nil, rowError(err, "failed to find product by ID")
	}
	return &product, nil
}

func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]db.Product, error) {
	products, err := p.q.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find products by IDs: %w", perrors.ErrStorage, err)
	}
	return products, nil
}

func (p *PgStore) Update(ctx context.Context, id int64, name *string, price *float64) (*db.Product, error) {
	product, err := p.q.Update(ctx, db.UpdateParams{ID: id, Name: name, Price: price})
	if err != nil {
		return nil, rowError(err, "failed to update product")
	}
	return &product, nil
}

func (p *PgStore) MarkUnavailable(ctx context.Context, id int64) (*db.Product, error) {
	product, err := p.q.MarkUnavailable(ctx, id)
	if err != nil {
		return nil, rowError(err, "failed to remove product")
	}
	return &product, nil
}

func (p *PgStore) DeleteByID(ctx context.Context, id int64) (*db.Product, error) {
	product, err := p.q.DeleteByID(ctx, id)
	if err != nil {
		return nil, rowError(err, "failed to delete product")
	}
	return &product, nil
}

// rowError maps pgx.ErrNoRows to ErrProductNotFound and anything else to ErrStorage.
func rowError(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return perrors.ErrProductNotFound
	}
	return fmt.Errorf("%w: %s: %w", perrors.ErrStorage, msg, err)
}
