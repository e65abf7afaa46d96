package clients

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

type productsResponse struct {
	Products []catalog.Product `json:"products"`
}

func (cc *CatalogClient) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out productsResponse
	if err := cc.c.call(ctx, "list products", http.MethodGet, "/api/products", "", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []catalog.Product{}
	}
	return out.Products, nil
}
