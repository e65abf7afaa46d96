package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// criteriaFromQuery overlays the query parameters that are present on the
// current criteria; absent parameters keep their current value.
func criteriaFromQuery(cur catalog.Criteria, q url.Values) (catalog.Criteria, error) {
	c := cur
	if q.Has("search") {
		c.Search = q.Get("search")
	}
	if q.Has("category") {
		c.Category = q.Get("category")
		if c.Category == "" {
			c.Category = catalog.AllCategories
		}
	}
	if q.Has("sort") {
		k, err := catalog.ParseSortKey(q.Get("sort"))
		if err != nil {
			return cur, err
		}
		c.Sort = k
	}
	for param, dst := range map[string]*decimal.Decimal{
		"minPrice": &c.PriceRange.Lo,
		"maxPrice": &c.PriceRange.Hi,
	} {
		if !q.Has(param) {
			continue
		}
		v, err := decimal.NewFromString(q.Get(param))
		if err != nil {
			return cur, errors.Wrapf(err, "%s", param)
		}
		*dst = v
	}
	for param, dst := range map[string]*bool{
		"inStock":  &c.InStockOnly,
		"featured": &c.FeaturedOnly,
	} {
		if !q.Has(param) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(param))
		if err != nil {
			return cur, errors.Wrapf(err, "%s", param)
		}
		*dst = v
	}
	return c, nil
}

func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(h.view.Criteria(), r.URL.Query())
	if err != nil {
		writeErrorMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.view.SetCriteria(c)
	writeJSON(w, http.StatusOK, h.view.Snapshot())
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.view.ClearFilters()
	writeJSON(w, http.StatusOK, h.view.Snapshot())
}

// Reload behaves like a fresh page load, including checkout reconciliation.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.view.Load(r.Context())
	writeJSON(w, http.StatusOK, h.view.Snapshot())
}

type cartView struct {
	Open          bool            `json:"open"`
	Cart          *cart.Cart      `json:"cart,omitempty"`
	Error         string          `json:"error,omitempty"`
	Badge         int             `json:"badge"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	CheckoutTotal decimal.Decimal `json:"checkoutTotal"`
}

func (h *Handler) cartView() cartView {
	s := h.view.Snapshot()
	return cartView{
		Open:          s.CartOpen,
		Cart:          s.Cart,
		Error:         s.CartError,
		Badge:         s.CartBadge,
		ShippingFee:   s.ShippingFee,
		CheckoutTotal: s.CheckoutTotal,
	}
}

func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	h.view.OpenCart(r.Context())
	writeJSON(w, http.StatusOK, h.cartView())
}

type addItemRequest struct {
	ProductID catalog.FlexString `json:"productId"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		writeErrorMessage(w, r, http.StatusBadRequest, "productId is required")
		return
	}
	if _, err := h.view.AddToCart(r.Context(), req.ProductID.String()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if _, err := h.view.RemoveFromCart(r.Context(), chi.URLParam(r, "productId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	h.view.CloseCart(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionURL, err := h.view.Checkout(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sessionUrl": sessionURL})
}

// CheckoutReturn is where the payment provider sends the shopper back.
func (h *Handler) CheckoutReturn(w http.ResponseWriter, r *http.Request) {
	h.view.Load(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
