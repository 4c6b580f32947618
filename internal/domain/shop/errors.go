package shop

import "errors"

var (
	ErrProductNotFound  = errors.New("shop: product not found")
	ErrCategoryNotFound = errors.New("shop: category not found")
	ErrCustomerNotFound = errors.New("shop: customer not found")
	ErrOrderNotFound    = errors.New("shop: order not found")
	ErrInvalidFilter    = errors.New("shop: invalid filter")
)
