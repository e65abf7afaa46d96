package catalog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func discount(v string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(v), Valid: true}
}

func rating(v float64) *float64 { return &v }

func titles(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Title)
	}
	return out
}

func duneAndAtlas() []Product {
	return []Product{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Price: dec("50"), Category: "sf"},
		{ID: "2", Title: "Atlas", Author: "Someone", Price: dec("30"), DiscountPrice: discount("20"), Category: "maps"},
	}
}

func fixture() []Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Price: dec("50"), Category: "sf", Description: "Desert planet", Rating: rating(4.5), CreatedAt: base, Stock: 3},
		{ID: "2", Title: "Atlas", Author: "Someone", Price: dec("30"), DiscountPrice: discount("20"), Category: "maps", Featured: true, CreatedAt: base.Add(48 * time.Hour), Stock: 0},
		{ID: "3", Title: "Emma", Author: "Jane Austen", Price: dec("20"), Category: "classics", Rating: rating(4.9), CreatedAt: base.Add(24 * time.Hour), Stock: 1},
		{ID: "4", Title: "Beloved", Author: "Toni Morrison", Price: dec("200"), Category: "classics", Featured: true, CreatedAt: base.Add(72 * time.Hour), Stock: 7},
		{ID: "5", Title: "Cosmos", Author: "Carl Sagan", Price: dec("0"), Category: "science", Description: "A personal voyage through the desert of space", Stock: 2},
	}
}

func TestApplyScenarios(t *testing.T) {
	tests := map[string]struct {
		products []Product
		mutate   func(*Criteria)
		want     []string
	}{
		"price-low uses discount price": {
			products: duneAndAtlas(),
			mutate:   func(c *Criteria) { c.Sort = SortPriceLow },
			want:     []string{"Atlas", "Dune"},
		},
		"search is case-insensitive": {
			products: duneAndAtlas(),
			mutate:   func(c *Criteria) { c.Search = "atlas" },
			want:     []string{"Atlas"},
		},
		"empty product list": {
			products: nil,
			mutate:   func(c *Criteria) { c.Search = "anything"; c.Sort = SortRating },
			want:     []string{},
		},
		"search matches author and description": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Search = "DESERT" },
			want:     []string{"Cosmos", "Dune"},
		},
		"category filter": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Category = "classics" },
			want:     []string{"Beloved", "Emma"},
		},
		"price bounds are inclusive": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.PriceRange = PriceRange{Lo: dec("20"), Hi: dec("50")} },
			want:     []string{"Atlas", "Dune", "Emma"},
		},
		"discount price excludes list price from range": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.PriceRange = PriceRange{Lo: dec("25"), Hi: dec("35")} },
			want:     []string{},
		},
		"inverted range is empty": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.PriceRange = PriceRange{Lo: dec("100"), Hi: dec("10")} },
			want:     []string{},
		},
		"in-stock only keeps featured products": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.InStockOnly = true },
			want:     []string{"Atlas", "Beloved"},
		},
		"featured only applies no filter": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.FeaturedOnly = true },
			want:     []string{"Atlas", "Beloved", "Cosmos", "Dune", "Emma"},
		},
		"author sort": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Sort = SortAuthor },
			want:     []string{"Cosmos", "Dune", "Emma", "Atlas", "Beloved"},
		},
		"price-high": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Sort = SortPriceHigh },
			want:     []string{"Beloved", "Dune", "Atlas", "Emma", "Cosmos"},
		},
		"rating descending with missing as zero": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Sort = SortRating },
			want:     []string{"Emma", "Dune", "Atlas", "Beloved", "Cosmos"},
		},
		"newest first": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Sort = SortNewest },
			want:     []string{"Beloved", "Atlas", "Emma", "Dune", "Cosmos"},
		},
		"unknown sort keeps input order": {
			products: fixture(),
			mutate:   func(c *Criteria) { c.Sort = "popularity" },
			want:     []string{"Dune", "Atlas", "Emma", "Beloved", "Cosmos"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultCriteria()
			tc.mutate(&c)
			got := Apply(tc.products, c)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, titles(got))
		})
	}
}

func TestApplyPriceTiesKeepInputOrder(t *testing.T) {
	ps := []Product{
		{ID: "a", Title: "Zeta", Price: dec("10")},
		{ID: "b", Title: "Alpha", Price: dec("15"), DiscountPrice: discount("10")},
		{ID: "c", Title: "Mid", Price: dec("5")},
		{ID: "d", Title: "Beta", Price: dec("10.00")},
	}
	c := DefaultCriteria()
	c.Sort = SortPriceLow

	got := Apply(ps, c)
	assert.Equal(t, []string{"Mid", "Zeta", "Alpha", "Beta"}, titles(got))

	c.Sort = SortPriceHigh
	got = Apply(ps, c)
	assert.Equal(t, []string{"Zeta", "Alpha", "Beta", "Mid"}, titles(got))
}

func TestApplyDeterministicAndPure(t *testing.T) {
	ps := fixture()
	before := titles(ps)
	c := DefaultCriteria()
	c.Sort = SortPriceLow

	first := Apply(ps, c)
	second := Apply(ps, c)
	assert.Equal(t, first, second)
	assert.Equal(t, before, titles(ps), "input must not be reordered")

	first[0].Title = "mutated"
	assert.NotEqual(t, "mutated", Apply(ps, c)[0].Title)
}

func TestApplyDefaultCriteriaKeepsEverything(t *testing.T) {
	ps := fixture()
	// default range is [0,200]; fixture spans exactly those bounds
	assert.Len(t, Apply(ps, DefaultCriteria()), len(ps))
}

func TestApplyNameSortIsNonDecreasing(t *testing.T) {
	got := Apply(fixture(), DefaultCriteria())
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, strings.Compare(got[i-1].Title, got[i].Title), 0)
	}
}

func TestEffectivePrice(t *testing.T) {
	p := Product{Price: dec("30"), DiscountPrice: discount("20")}
	assert.True(t, p.EffectivePrice().Equal(dec("20")))
	assert.EqualValues(t, 33, p.DiscountPercent())

	p.DiscountPrice = decimal.NullDecimal{}
	assert.True(t, p.EffectivePrice().Equal(dec("30")))
	assert.EqualValues(t, 0, p.DiscountPercent())

	p.DiscountPrice = discount("0")
	assert.True(t, p.EffectivePrice().Equal(dec("30")), "zero discount counts as absent")
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"sf", "maps", "classics", "science"}, Categories(fixture()))
	assert.Empty(t, Categories(nil))
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey(" price-high ")
	require.NoError(t, err)
	assert.Equal(t, SortPriceHigh, k)

	_, err = ParseSortKey("cheapest")
	assert.Error(t, err)
}

func TestProductDecodesLenientFields(t *testing.T) {
	raw := `{
		"id": 42,
		"title": "Ion",
		"author": "Liviu Rebreanu",
		"price": 39.99,
		"discountPrice": null,
		"stock": 4,
		"category": "classics",
		"rating": 4.2,
		"specifications": {"publisher": "Polirom", "pages": 480, "year": "1920"},
		"featured": true,
		"isActive": true,
		"createdAt": "2024-02-10T08:00:00Z"
	}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, FlexString("42"), p.ID)
	assert.Equal(t, FlexString("480"), p.Specifications.Pages)
	assert.Equal(t, FlexString("1920"), p.Specifications.Year)
	assert.False(t, p.DiscountPrice.Valid)
	assert.True(t, p.EffectivePrice().Equal(dec("39.99")))
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.2, *p.Rating, 0.0001)

	found, ok := Find([]Product{p}, "42")
	assert.True(t, ok)
	assert.Equal(t, "Ion", found.Title)
}
