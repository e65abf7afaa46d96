package admin

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

const (
	defaultLanguage = "Romanian"
	defaultFormat   = "Paperback"
)

// ValidationError blocks a save before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ProductForm is the admin create/edit form.
type ProductForm struct {
	Title         string              `json:"title"`
	Author        string              `json:"author"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	Stock         int                 `json:"stock"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	ISBN          string              `json:"isbn"`
	Publisher     string              `json:"publisher"`
	Pages         catalog.FlexString  `json:"pages"`
	Year          catalog.FlexString  `json:"year"`
	ImageURL      string              `json:"imageUrl"`
	Featured      bool                `json:"featured"`
}

// FormFromProduct pre-fills the form for editing.
func FormFromProduct(p catalog.Product) ProductForm {
	return ProductForm{
		Title:         p.Title,
		Author:        p.Author,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		Description:   p.Description,
		Category:      p.Category,
		ISBN:          p.ISBN,
		Publisher:     p.Specifications.Publisher,
		Pages:         p.Specifications.Pages,
		Year:          p.Specifications.Year,
		ImageURL:      p.ImageURL,
		Featured:      p.Featured,
	}
}

func (f ProductForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(f.Author) == "" {
		return &ValidationError{Field: "author", Reason: "is required"}
	}
	if f.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if f.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if f.DiscountPrice.Valid && !f.DiscountPrice.Decimal.IsZero() {
		if f.DiscountPrice.Decimal.IsNegative() {
			return &ValidationError{Field: "discountPrice", Reason: "must not be negative"}
		}
		if f.DiscountPrice.Decimal.GreaterThanOrEqual(f.Price) {
			return &ValidationError{Field: "discountPrice", Reason: "must be lower than the original price"}
		}
	}
	return nil
}

// Payload is the request body; an empty or zero discount is sent as null.
func (f ProductForm) Payload() clients.ProductPayload {
	discount := f.DiscountPrice
	if discount.Valid && discount.Decimal.IsZero() {
		discount = decimal.NullDecimal{}
	}
	return clients.ProductPayload{
		Title:         f.Title,
		Author:        f.Author,
		Price:         f.Price,
		DiscountPrice: discount,
		Stock:         f.Stock,
		Description:   f.Description,
		Category:      f.Category,
		ISBN:          f.ISBN,
		ImageURL:      f.ImageURL,
		Featured:      f.Featured,
		Specifications: catalog.Specifications{
			Publisher: f.Publisher,
			Pages:     f.Pages,
			Year:      f.Year,
			Language:  defaultLanguage,
			Format:    defaultFormat,
		},
	}
}
