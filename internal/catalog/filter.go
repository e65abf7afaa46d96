package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type SortKey string

const (
	SortName      SortKey = "name"
	SortAuthor    SortKey = "author"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// AllCategories disables the category filter.
const AllCategories = "all"

var (
	DefaultPriceFloor   = decimal.Zero
	DefaultPriceCeiling = decimal.NewFromInt(200)
)

func ParseSortKey(v string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(v)); k {
	case SortName, SortAuthor, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", v)
	}
}

// PriceRange is a closed interval over effective prices.
type PriceRange struct {
	Lo decimal.Decimal `json:"lo"`
	Hi decimal.Decimal `json:"hi"`
}

func (r PriceRange) Empty() bool { return r.Lo.GreaterThan(r.Hi) }

func (r PriceRange) Contains(v decimal.Decimal) bool {
	return !v.LessThan(r.Lo) && !v.GreaterThan(r.Hi)
}

type Criteria struct {
	Search     string     `json:"search"`
	Category   string     `json:"category"`
	Sort       SortKey    `json:"sort"`
	PriceRange PriceRange `json:"priceRange"`
	// InStockOnly keeps products with Featured set; stock is not consulted.
	InStockOnly  bool `json:"inStockOnly"`
	FeaturedOnly bool `json:"featuredOnly"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		Category:   AllCategories,
		Sort:       SortName,
		PriceRange: PriceRange{Lo: DefaultPriceFloor, Hi: DefaultPriceCeiling},
	}
}

// Apply returns the visible subset of products for the criteria, ordered by
// the sort key. The input slice is never modified and the result is a fresh
// slice, so identical inputs always produce identical output.
//
// Stages run in a fixed order: text, category, price, availability, sort.
func Apply(products []Product, c Criteria) []Product {
	out := make([]Product, 0, len(products))
	if c.PriceRange.Empty() {
		return out
	}

	term := strings.ToLower(c.Search)
	for _, p := range products {
		if !matchesSearch(p, term) {
			continue
		}
		if !matchesCategory(p, c.Category) {
			continue
		}
		if !c.PriceRange.Contains(p.EffectivePrice()) {
			continue
		}
		if c.InStockOnly && !p.Featured {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, c.Sort)
	return out
}

func matchesSearch(p Product, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Author), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func matchesCategory(p Product, category string) bool {
	return category == "" || category == AllCategories || p.Category == category
}

func sortProducts(ps []Product, key SortKey) {
	cmpFn := comparator(key)
	if cmpFn == nil {
		return
	}
	slices.SortStableFunc(ps, cmpFn)
}

func comparator(key SortKey) func(a, b Product) int {
	switch key {
	case SortName:
		return func(a, b Product) int { return strings.Compare(a.Title, b.Title) }
	case SortAuthor:
		return func(a, b Product) int { return strings.Compare(a.Author, b.Author) }
	case SortPriceLow:
		return func(a, b Product) int { return a.EffectivePrice().Cmp(b.EffectivePrice()) }
	case SortPriceHigh:
		return func(a, b Product) int { return b.EffectivePrice().Cmp(a.EffectivePrice()) }
	case SortRating:
		return func(a, b Product) int {
			ra, rb := a.ratingOrZero(), b.ratingOrZero()
			switch {
			case ra > rb:
				return -1
			case ra < rb:
				return 1
			default:
				return 0
			}
		}
	case SortNewest:
		return func(a, b Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return nil
	}
}
