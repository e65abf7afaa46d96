package catalog

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FlexString decodes a JSON string or number into its textual form.
// The bookstore backend is not consistent about ids, page counts and years.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

type Specifications struct {
	Publisher string     `json:"publisher,omitempty"`
	Pages     FlexString `json:"pages,omitempty"`
	Year      FlexString `json:"year,omitempty"`
	Language  string     `json:"language,omitempty"`
	Format    string     `json:"format,omitempty"`
}

type Product struct {
	ID             FlexString          `json:"id"`
	Title          string              `json:"title"`
	Author         string              `json:"author"`
	Price          decimal.Decimal     `json:"price"`
	DiscountPrice  decimal.NullDecimal `json:"discountPrice"`
	Stock          int                 `json:"stock"`
	Category       string              `json:"category"`
	Description    string              `json:"description"`
	ImageURL       string              `json:"imageUrl"`
	ISBN           string              `json:"isbn,omitempty"`
	Rating         *float64            `json:"rating,omitempty"`
	ReviewCount    int                 `json:"reviewCount,omitempty"`
	Specifications Specifications      `json:"specifications"`
	Featured       bool                `json:"featured"`
	IsActive       bool                `json:"isActive"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// HasDiscount reports whether a usable discount price is set. A zero discount
// counts as absent.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice.Valid && !p.DiscountPrice.Decimal.IsZero()
}

// EffectivePrice is the price a shopper pays: the discount price when present,
// the list price otherwise. Filtering and sorting use it exclusively.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// DiscountPercent is the rounded percentage saved, or 0 without a discount.
func (p Product) DiscountPercent() int64 {
	if !p.HasDiscount() || !p.Price.IsPositive() {
		return 0
	}
	ratio := p.DiscountPrice.Decimal.Div(p.Price)
	return decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p Product) InStock() bool { return p.Stock > 0 }

func (p Product) ratingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Categories returns the distinct product categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Find returns the product with the given id.
func Find(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Product{}, false
}
