// Package productv1 is the message-pattern contract of the product catalog:
// the command subjects and the payloads carried on them.
package productv1

import "time"

// Command subjects. Each one is a NATS subject served with request-reply.
const (
	CreateProductSubject     = "create-product"
	FindAllProductsSubject   = "find-all-products"
	FindOneProductSubject    = "find-one-product"
	UpdateProductSubject     = "update-product"
	RemoveProductSubject     = "remove-product"
	HardRemoveProductSubject = "hard-remove-product"
	ValidateProductsSubject  = "validate-products"
)

// Subjects lists every command served by the catalog.
var Subjects = []string{
	CreateProductSubject,
	FindAllProductsSubject,
	FindOneProductSubject,
	UpdateProductSubject,
	RemoveProductSubject,
	HardRemoveProductSubject,
	ValidateProductsSubject,
}

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateProductRequest struct {
	Name  string   `json:"name"  validate:"required,max=100"`
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// FindAllProductsRequest selects a page. Absent fields take the configured defaults.
type FindAllProductsRequest struct {
	Page  *int32 `json:"page,omitempty"  validate:"omitnil,gte=1"`
	Limit *int32 `json:"limit,omitempty" validate:"omitnil,gte=1"`
}

// ProductIDRequest is the payload of find-one, remove and hard-remove.
type ProductIDRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// UpdateProductRequest changes name and/or price. Absent fields are left untouched.
type UpdateProductRequest struct {
	ID    int64    `json:"id"    validate:"gt=0"`
	Name  *string  `json:"name"  validate:"omitempty,min=1,max=100"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

// ValidateProductsRequest is a bare JSON array of product ids.
type ValidateProductsRequest []int64

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int32 `json:"page"`
	LastPage int64 `json:"lastPage"`
}

type ProductPage struct {
	Data []Product `json:"data"`
	Meta PageMeta  `json:"meta"`
}
