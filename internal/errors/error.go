// Package errors defines the catalog failure taxonomy and how it is reported to callers.
package errors

import (
	"errors"
	"net/http"

	"github.com/abgdnv/productcatalog/pkg/rpc"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrProductNotFound      = errors.New("product not found")
	ErrSomeProductsNotFound = errors.New("some products were not found")
	ErrCreateProduct        = errors.New("failed to create product")
	ErrStorage              = errors.New("storage failure")
)

const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeSomeProductsNotFound = "SOME_PRODUCTS_NOT_FOUND"
	CodeCreateProductFailed  = "CREATE_PRODUCT_FAILED"
	CodeStorageFailure       = "STORAGE_FAILURE"
)

// ToRPC translates err into the wire error. Messages of storage failures are
// replaced with a generic one so driver details never reach the caller.
func ToRPC(err error) *rpc.Error {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return &rpc.Error{Message: err.Error(), Status: http.StatusBadRequest, Code: CodeValidationFailed}
	case errors.Is(err, ErrSomeProductsNotFound):
		return &rpc.Error{Message: ErrSomeProductsNotFound.Error(), Status: http.StatusNotFound, Code: CodeSomeProductsNotFound}
	case errors.Is(err, ErrProductNotFound):
		return &rpc.Error{Message: ErrProductNotFound.Error(), Status: http.StatusNotFound, Code: CodeProductNotFound}
	case errors.Is(err, ErrCreateProduct):
		return &rpc.Error{Message: ErrCreateProduct.Error(), Status: http.StatusBadRequest, Code: CodeCreateProductFailed}
	default:
		return &rpc.Error{Message: ErrStorage.Error(), Status: http.StatusInternalServerError, Code: CodeStorageFailure}
	}
}
