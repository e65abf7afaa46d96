package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

type cartResponse struct {
	Cart cart.Cart `json:"cart"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (cc *CartClient) GetCart(ctx context.Context) (cart.Cart, error) {
	var out cartResponse
	if err := cc.c.call(ctx, "get cart", http.MethodGet, "/api/cart", "", nil, nil, &out); err != nil {
		return cart.Cart{}, err
	}
	return out.Cart.Normalized(), nil
}

func (cc *CartClient) AddItem(ctx context.Context, productID string, quantity int) (cart.Cart, error) {
	var out cartResponse
	req := addItemRequest{ProductID: productID, Quantity: quantity}
	if err := cc.c.call(ctx, "add to cart", http.MethodPost, "/api/cart", "", req, nil, &out); err != nil {
		return cart.Cart{}, err
	}
	return out.Cart.Normalized(), nil
}

func (cc *CartClient) RemoveItem(ctx context.Context, productID string) (cart.Cart, error) {
	var out cartResponse
	path := "/api/cart/" + url.PathEscape(productID)
	if err := cc.c.call(ctx, "remove from cart", http.MethodDelete, path, "", nil, nil, &out); err != nil {
		return cart.Cart{}, err
	}
	return out.Cart.Normalized(), nil
}

func (cc *CartClient) ClearCart(ctx context.Context) error {
	return cc.c.call(ctx, "clear cart", http.MethodPost, "/api/clear-cart", "", struct{}{}, nil, nil)
}
