package cart

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// Item is the backend's denormalized snapshot of a product in the cart.
type Item struct {
	ProductID catalog.FlexString `json:"productId"`
	Title     string             `json:"title"`
	Author    string             `json:"author"`
	Price     decimal.Decimal    `json:"price"`
	Quantity  int                `json:"quantity"`
	ImageURL  string             `json:"imageUrl"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the client's cached copy of the remote cart. It is stale as soon as
// any mutating call has been issued and must be refreshed from the server.
type Cart struct {
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"totalItems"`
}

func (c Cart) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c Cart) ComputedTotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Normalized fills Total and TotalItems from the items when the backend
// omitted them.
func (c Cart) Normalized() Cart {
	if c.Items == nil {
		c.Items = []Item{}
	}
	if c.Total.IsZero() && len(c.Items) > 0 {
		c.Total = c.ComputedTotal()
	}
	if c.TotalItems == 0 && len(c.Items) > 0 {
		c.TotalItems = c.ComputedTotalItems()
	}
	return c
}

// WithShipping is the amount charged at checkout.
func (c Cart) WithShipping(fee decimal.Decimal) decimal.Decimal {
	return c.Total.Add(fee)
}
