package catalog

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// Product is one catalog record as stored in the backing file.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Stock       int     `json:"stock"`
}

// NewProduct carries the caller-supplied fields of a product; the id is assigned by the store.
// A zero value in any field counts as missing, so price 0 and stock 0 are rejected.
// A NaN or infinite price is rejected as well.
type NewProduct struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"required"`
	Thumbnail   string  `json:"thumbnail" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Stock       int     `json:"stock" validate:"required"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ID          *int     `json:"id,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Thumbnail   *string  `json:"thumbnail,omitempty"`
	Code        *string  `json:"code,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
}

var validate = validator.New()

func (np NewProduct) complete() bool {
	if err := validate.Struct(np); err != nil {
		return false
	}
	return finite(np.Price)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// valid reports whether the patch can be persisted; JSON has no encoding for NaN or Inf.
func (p Patch) valid() bool {
	return p.Price == nil || finite(*p.Price)
}

func (np NewProduct) product(id int) Product {
	return Product{
		ID:          id,
		Title:       np.Title,
		Description: np.Description,
		Price:       np.Price,
		Thumbnail:   np.Thumbnail,
		Code:        np.Code,
		Stock:       np.Stock,
	}
}

// apply merges the non-nil fields of p onto a copy of dst.
func (p Patch) apply(dst Product) Product {
	if p.ID != nil {
		dst.ID = *p.ID
	}
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Thumbnail != nil {
		dst.Thumbnail = *p.Thumbnail
	}
	if p.Code != nil {
		dst.Code = *p.Code
	}
	if p.Stock != nil {
		dst.Stock = *p.Stock
	}
	return dst
}

// Empty reports whether the patch mentions no field at all.
func (p Patch) Empty() bool {
	return p == Patch{}
}
