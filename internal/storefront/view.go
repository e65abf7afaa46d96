// Package storefront holds the catalog view state for one shopper: the loaded
// products, the active filter criteria, the cart badge and the open cart.
package storefront

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
)

const (
	MsgProductsFailed = "failed to load products"
	MsgCartFailed     = "failed to load cart"
	MsgNoProducts     = "no products match the current filters"
)

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrOutOfStock     = errors.New("product is out of stock")
)

type CatalogSource interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

type CartService interface {
	GetCart(ctx context.Context) (cart.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (cart.Cart, error)
	RemoveItem(ctx context.Context, productID string) (cart.Cart, error)
	ClearCart(ctx context.Context) error
}

type Deps struct {
	Catalog  CatalogSource
	Cart     CartService
	Payments checkout.PaymentService
	Store    kv.Store
	Checkout checkout.Options
	Logger   logrus.FieldLogger
}

// View is the catalog view controller. Remote calls run outside the lock and
// their results are applied in the order they complete.
type View struct {
	deps Deps
	log  logrus.FieldLogger

	mu            sync.Mutex
	products      []catalog.Product
	criteria      catalog.Criteria
	loading       bool
	loadErr       string
	badge         int
	cartOpen      bool
	cart          cart.Cart
	cartErr       string
	lastReconcile *checkout.Result
}

func NewView(d Deps) *View {
	if d.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Logger = l
	}
	if d.Checkout.Logger == nil {
		d.Checkout.Logger = d.Logger
	}
	return &View{
		deps:     d,
		log:      d.Logger.WithField("component", "storefront"),
		products: []catalog.Product{},
		criteria: catalog.DefaultCriteria(),
		cart:     cart.Cart{Items: []cart.Item{}},
	}
}

func (v *View) newReconciler() *checkout.Reconciler {
	return checkout.NewReconciler(v.deps.Cart, v.deps.Payments, v.deps.Store, v.deps.Checkout)
}

// Load behaves like a fresh page load: products, cart badge, then the
// pending-checkout reconciliation, each exactly once.
func (v *View) Load(ctx context.Context) checkout.Result {
	v.mu.Lock()
	v.loading = true
	v.loadErr = ""
	v.mu.Unlock()

	products, err := v.deps.Catalog.ListProducts(ctx)
	v.mu.Lock()
	v.loading = false
	if err != nil {
		v.loadErr = MsgProductsFailed
		v.log.WithError(err).Warn("load products failed")
	} else {
		v.products = products
	}
	v.mu.Unlock()

	v.RefreshBadge(ctx)

	res := v.newReconciler().Run(ctx)
	v.mu.Lock()
	v.lastReconcile = &res
	if res.Cart != nil {
		v.badge = res.Cart.TotalItems
		if v.cartOpen {
			v.cart = *res.Cart
		}
	}
	v.mu.Unlock()
	return res
}

// RefreshBadge re-reads the cart item count. Failures are only logged.
func (v *View) RefreshBadge(ctx context.Context) {
	c, err := v.deps.Cart.GetCart(ctx)
	if err != nil {
		v.log.WithError(err).Warn("load cart badge failed")
		return
	}
	v.mu.Lock()
	v.badge = c.TotalItems
	v.mu.Unlock()
}

func (v *View) Visible() []catalog.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return catalog.Apply(v.products, v.criteria)
}

func (v *View) Criteria() catalog.Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

func (v *View) update(fn func(c *catalog.Criteria)) {
	v.mu.Lock()
	fn(&v.criteria)
	v.mu.Unlock()
}

func (v *View) SetSearch(s string) { v.update(func(c *catalog.Criteria) { c.Search = s }) }
func (v *View) SetCategory(s string) { v.update(func(c *catalog.Criteria) { c.Category = s }) }
func (v *View) SetSort(k catalog.SortKey) { v.update(func(c *catalog.Criteria) { c.Sort = k }) }
func (v *View) SetInStockOnly(on bool) { v.update(func(c *catalog.Criteria) { c.InStockOnly = on }) }
func (v *View) SetFeaturedOnly(on bool) { v.update(func(c *catalog.Criteria) { c.FeaturedOnly = on }) }
func (v *View) SetCriteria(c catalog.Criteria) { v.update(func(dst *catalog.Criteria) { *dst = c }) }

func (v *View) SetPriceRange(lo, hi decimal.Decimal) {
	v.update(func(c *catalog.Criteria) { c.PriceRange = catalog.PriceRange{Lo: lo, Hi: hi} })
}

func (v *View) ClearFilters() {
	v.update(func(c *catalog.Criteria) { *c = catalog.DefaultCriteria() })
}

// AddToCart adds one unit. Unknown and sold-out products are refused before
// any call; a failed call leaves the badge as it was.
func (v *View) AddToCart(ctx context.Context, productID string) (cart.Cart, error) {
	v.mu.Lock()
	p, ok := catalog.Find(v.products, productID)
	v.mu.Unlock()
	if !ok {
		return cart.Cart{}, ErrUnknownProduct
	}
	if !p.InStock() {
		return cart.Cart{}, ErrOutOfStock
	}

	c, err := v.deps.Cart.AddItem(ctx, productID, 1)
	if err != nil {
		v.log.WithError(err).WithField("productId", productID).Warn("add to cart failed")
		return cart.Cart{}, errors.Wrap(err, "add to cart")
	}
	v.applyCart(c)
	return c, nil
}

func (v *View) RemoveFromCart(ctx context.Context, productID string) (cart.Cart, error) {
	c, err := v.deps.Cart.RemoveItem(ctx, productID)
	if err != nil {
		v.log.WithError(err).WithField("productId", productID).Warn("remove from cart failed")
		return cart.Cart{}, errors.Wrap(err, "remove from cart")
	}
	v.applyCart(c)
	return c, nil
}

func (v *View) applyCart(c cart.Cart) {
	v.mu.Lock()
	v.badge = c.TotalItems
	if v.cartOpen {
		v.cart = c
	}
	v.mu.Unlock()
}

// OpenCart fetches the full cart. A failure is shown inline.
func (v *View) OpenCart(ctx context.Context) {
	v.mu.Lock()
	v.cartOpen = true
	v.mu.Unlock()

	c, err := v.deps.Cart.GetCart(ctx)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.cartErr = MsgCartFailed
		v.log.WithError(err).Warn("open cart failed")
		return
	}
	v.cartErr = ""
	v.cart = c
	v.badge = c.TotalItems
}

func (v *View) CloseCart(ctx context.Context) {
	v.mu.Lock()
	v.cartOpen = false
	v.cartErr = ""
	v.mu.Unlock()

	v.RefreshBadge(ctx)
}

// Checkout starts a hosted payment for the current server cart and returns
// the URL to redirect to.
func (v *View) Checkout(ctx context.Context) (string, error) {
	c, err := v.deps.Cart.GetCart(ctx)
	if err != nil {
		return "", errors.Wrap(err, "load cart for checkout")
	}
	return v.newReconciler().BeginCheckout(ctx, c)
}

type Snapshot struct {
	Products      []catalog.Product `json:"products"`
	Count         int               `json:"count"`
	Total         int               `json:"total"`
	Categories    []string          `json:"categories"`
	Criteria      catalog.Criteria  `json:"criteria"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	Message       string            `json:"message,omitempty"`
	CartBadge     int               `json:"cartBadge"`
	CartOpen      bool              `json:"cartOpen"`
	Cart          *cart.Cart        `json:"cart,omitempty"`
	CartError     string            `json:"cartError,omitempty"`
	ShippingFee   decimal.Decimal   `json:"shippingFee"`
	CheckoutTotal decimal.Decimal   `json:"checkoutTotal"`
	LastReconcile *checkout.Result  `json:"lastReconcile,omitempty"`
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	visible := catalog.Apply(v.products, v.criteria)
	fee := v.shippingFee()
	s := Snapshot{
		Products:      visible,
		Count:         len(visible),
		Total:         len(v.products),
		Categories:    catalog.Categories(v.products),
		Criteria:      v.criteria,
		Loading:       v.loading,
		Error:         v.loadErr,
		CartBadge:     v.badge,
		CartOpen:      v.cartOpen,
		CartError:     v.cartErr,
		ShippingFee:   fee,
		CheckoutTotal: v.cart.WithShipping(fee),
		LastReconcile: v.lastReconcile,
	}
	if len(visible) == 0 && v.loadErr == "" && !v.loading {
		s.Message = MsgNoProducts
	}
	if v.cartOpen {
		c := v.cart
		s.Cart = &c
	}
	return s
}

func (v *View) shippingFee() decimal.Decimal {
	return v.deps.Checkout.Fee()
}
