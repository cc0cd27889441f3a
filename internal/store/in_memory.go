package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/store/db"
)

// InMemory implements ProductStore using an in-memory map.
// It is a test double for the service and router tests.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]db.Product
	nextID   int64
	now      func() time.Time
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]db.Product),
		nextID:   1,
		now:      time.Now,
	}
}

func (s *InMemory) Create(_ context.Context, name string, price float64) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	product := db.Product{
		ID:        s.nextID,
		Name:      name,
		Price:     price,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.products[product.ID] = product

	return &product, nil
}

func (s *InMemory) CountAvailable(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, p := range s.products {
		if p.Available {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) FindAvailable(_ context.Context, offset, limit int32) ([]db.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	available := s.sorted(func(p db.Product) bool { return p.Available })
	if int(offset) >= len(available) {
		return []db.Product{}, nil
	}
	end := min(int(offset)+int(limit), len(available))
	return available[offset:end], nil
}

func (s *InMemory) FindAvailableByID(_ context.Context, id int64) (*db.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || !p.Available {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *InMemory) FindByIDs(_ context.Context, ids []int64) ([]db.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(p db.Product) bool { return slices.Contains(ids, p.ID) }), nil
}

func (s *InMemory) Update(_ context.Context, id int64, name *string, price *float64) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || !p.Available {
		return nil, perrors.ErrProductNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if price != nil {
		p.Price = *price
	}
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

func (s *InMemory) MarkUnavailable(_ context.Context, id int64) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	p.Available = false
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

func (s *InMemory) DeleteByID(_ context.Context, id int64) (*db.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	delete(s.products, id)
	return &p, nil
}

// sorted returns the products accepted by keep, ordered by id. Callers hold the lock.
func (s *InMemory) sorted(keep func(db.Product) bool) []db.Product {
	list := make([]db.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b db.Product) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

var _ ProductStore = (*InMemory)(nil)
var _ ProductStore = (*PgStore)(nil)
