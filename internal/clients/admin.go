package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type AdminClient struct{ c *Client }

func NewAdminClient(c *Client) *AdminClient { return &AdminClient{c: c} }

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the bearer token and the user profile exactly as the
// backend sent it; the profile is persisted without interpretation.
type LoginResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// AdminFilter is the server-side admin list filter. Empty search and status
// "all" are omitted from the query.
type AdminFilter struct {
	Search string
	Status string
}

func (f AdminFilter) query() string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" && f.Status != "all" {
		q.Set("status", f.Status)
	}
	return q.Encode()
}

// ProductPayload is the body of an admin create or update.
type ProductPayload struct {
	Title          string                 `json:"title"`
	Author         string                 `json:"author"`
	Price          decimal.Decimal        `json:"price"`
	DiscountPrice  decimal.NullDecimal    `json:"discountPrice"`
	Stock          int                    `json:"stock"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	ISBN           string                 `json:"isbn"`
	ImageURL       string                 `json:"imageUrl"`
	Featured       bool                   `json:"featured"`
	Specifications catalog.Specifications `json:"specifications"`
}

type statusPatch struct {
	IsActive bool `json:"isActive"`
}

func (ac *AdminClient) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var out LoginResult
	if err := ac.c.call(ctx, "admin login", http.MethodPost, "/api/admin/login", "", creds, nil, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (ac *AdminClient) ListProducts(ctx context.Context, token string, f AdminFilter) ([]catalog.Product, error) {
	var out productsResponse
	if err := ac.c.call(ctx, "admin list products", http.MethodGet, "/api/admin/products", f.query(), nil, bearer(token), &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []catalog.Product{}
	}
	return out.Products, nil
}

func (ac *AdminClient) CreateProduct(ctx context.Context, token string, p ProductPayload) error {
	return ac.c.call(ctx, "admin create product", http.MethodPost, "/api/admin/products", "", p, bearer(token), nil)
}

func (ac *AdminClient) UpdateProduct(ctx context.Context, token, id string, p ProductPayload) error {
	return ac.c.call(ctx, "admin update product", http.MethodPut, productPath(id), "", p, bearer(token), nil)
}

func (ac *AdminClient) SetActive(ctx context.Context, token, id string, active bool) error {
	return ac.c.call(ctx, "admin set status", http.MethodPut, productPath(id), "", statusPatch{IsActive: active}, bearer(token), nil)
}

func (ac *AdminClient) DeleteProduct(ctx context.Context, token, id string) error {
	return ac.c.call(ctx, "admin delete product", http.MethodDelete, productPath(id), "", nil, bearer(token), nil)
}

func productPath(id string) string {
	return "/api/admin/products/" + url.PathEscape(id)
}
