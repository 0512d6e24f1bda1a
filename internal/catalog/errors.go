package catalog

import "errors"

var (
	ErrFieldsRequired = errors.New("all fields are required")
	ErrCodeInUse      = errors.New("product code already in use")
	ErrNotFound       = errors.New("product not found")
	ErrInvalidPrice   = errors.New("price must be a finite number")
	ErrPersist        = errors.New("save products")
)
