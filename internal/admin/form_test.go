package admin

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

func TestProductFormValidate(t *testing.T) {
	valid := ProductForm{Title: "Ion", Author: "Liviu Rebreanu", Price: decimal.NewFromInt(40), Stock: 1}

	tests := map[string]struct {
		mutate    func(*ProductForm)
		wantField string
	}{
		"valid without discount": {mutate: func(f *ProductForm) {}},
		"valid with discount": {
			mutate: func(f *ProductForm) { f.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(30)) },
		},
		"zero discount counts as none": {
			mutate: func(f *ProductForm) { f.DiscountPrice = decimal.NewNullDecimal(decimal.Zero) },
		},
		"missing title": {mutate: func(f *ProductForm) { f.Title = "  " }, wantField: "title"},
		"missing author": {mutate: func(f *ProductForm) { f.Author = "" }, wantField: "author"},
		"negative price": {mutate: func(f *ProductForm) { f.Price = decimal.NewFromInt(-1) }, wantField: "price"},
		"negative stock": {mutate: func(f *ProductForm) { f.Stock = -2 }, wantField: "stock"},
		"discount equal to price": {
			mutate:    func(f *ProductForm) { f.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(40)) },
			wantField: "discountPrice",
		},
		"discount above price": {
			mutate:    func(f *ProductForm) { f.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(41)) },
			wantField: "discountPrice",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := valid
			tc.mutate(&f)
			err := f.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestPayloadAddsSpecificationDefaults(t *testing.T) {
	f := ProductForm{
		Title:         "Ion",
		Author:        "Liviu Rebreanu",
		Price:         decimal.RequireFromString("39.99"),
		DiscountPrice: decimal.NewNullDecimal(decimal.Zero),
		Publisher:     "Polirom",
		Pages:         "480",
	}
	p := f.Payload()

	assert.Equal(t, "Romanian", p.Specifications.Language)
	assert.Equal(t, "Paperback", p.Specifications.Format)
	assert.Equal(t, "Polirom", p.Specifications.Publisher)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Nil(t, raw["discountPrice"])
}

func TestFormFromProductRoundTrip(t *testing.T) {
	p := catalog.Product{
		Title:          "Ion",
		Author:         "Liviu Rebreanu",
		Price:          decimal.NewFromInt(40),
		Stock:          2,
		Specifications: catalog.Specifications{Publisher: "Polirom", Year: "1920"},
		Featured:       true,
	}
	f := FormFromProduct(p)
	assert.Equal(t, "Polirom", f.Publisher)
	assert.Equal(t, catalog.FlexString("1920"), f.Year)
	assert.True(t, f.Featured)
	assert.NoError(t, f.Validate())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, s)

	s, err = ParseStatus("inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, s)

	_, err = ParseStatus("deleted")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
