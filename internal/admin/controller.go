// Package admin implements the administrator session and the product list
// controller behind the admin screens.
package admin

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clock"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/debounce"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
)

const (
	KeyToken = "adminToken"
	KeyUser  = "adminUser"

	DefaultSearchDebounce = 400 * time.Millisecond

	searchTask = "admin-search"

	MsgListFailed = "failed to load products"
)

var (
	ErrNotLoggedIn   = errors.New("admin not logged in")
	ErrInvalidStatus = errors.New("invalid status filter")
)

type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func ParseStatus(v string) (Status, error) {
	switch s := Status(strings.TrimSpace(v)); s {
	case StatusAll, StatusActive, StatusInactive:
		return s, nil
	case "":
		return StatusAll, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", v)
	}
}

// API is the admin side of the bookstore backend.
type API interface {
	Login(ctx context.Context, creds clients.Credentials) (clients.LoginResult, error)
	ListProducts(ctx context.Context, token string, f clients.AdminFilter) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, token string, p clients.ProductPayload) error
	UpdateProduct(ctx context.Context, token, id string, p clients.ProductPayload) error
	SetActive(ctx context.Context, token, id string, active bool) error
	DeleteProduct(ctx context.Context, token, id string) error
}

type Options struct {
	Debounce time.Duration
	Clock    clock.Clock
	Logger   logrus.FieldLogger
	// OnLogout runs after the session is dropped, forced or not.
	OnLogout func()
	// Context is used for debounced fetches, which outlive the request that
	// scheduled them.
	Context context.Context
}

// Controller holds the admin search state. Text queries are debounced, status
// changes fetch immediately, and only the most recently launched fetch may
// replace the displayed list.
type Controller struct {
	api      API
	store    kv.Store
	sched    *debounce.Scheduler
	delay    time.Duration
	log      logrus.FieldLogger
	onLogout func()
	baseCtx  context.Context

	mu       sync.Mutex
	query    string
	status   Status
	products []catalog.Product
	loading  bool
	lastErr  string
	issued   uint64
}

func NewController(api API, store kv.Store, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultSearchDebounce
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Logger = l
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Controller{
		api:      api,
		store:    store,
		sched:    debounce.New(opts.Clock),
		delay:    opts.Debounce,
		log:      opts.Logger.WithField("component", "admin"),
		onLogout: opts.OnLogout,
		baseCtx:  opts.Context,
		status:   StatusAll,
		products: []catalog.Product{},
	}
}

// Close cancels a pending debounced search.
func (c *Controller) Close() { c.sched.Stop() }

func (c *Controller) Login(ctx context.Context, email, password string) (clients.LoginResult, error) {
	if strings.TrimSpace(email) == "" {
		return clients.LoginResult{}, &ValidationError{Field: "email", Reason: "is required"}
	}
	if password == "" {
		return clients.LoginResult{}, &ValidationError{Field: "password", Reason: "is required"}
	}

	res, err := c.api.Login(ctx, clients.Credentials{Email: email, Password: password})
	if err != nil {
		return clients.LoginResult{}, err
	}
	if err := c.store.Set(ctx, KeyToken, res.Token); err != nil {
		return clients.LoginResult{}, errors.Wrap(err, "persist admin token")
	}
	user := "null"
	if len(res.User) > 0 {
		user = string(res.User)
	}
	if err := c.store.Set(ctx, KeyUser, user); err != nil {
		return clients.LoginResult{}, errors.Wrap(err, "persist admin user")
	}
	c.log.WithField("email", email).Info("admin logged in")
	return res, nil
}

func (c *Controller) Logout(ctx context.Context) error {
	return c.dropSession(ctx, "logout")
}

func (c *Controller) dropSession(ctx context.Context, reason string) error {
	c.sched.Cancel(searchTask)
	errToken := c.store.Remove(ctx, KeyToken)
	errUser := c.store.Remove(ctx, KeyUser)

	c.mu.Lock()
	// replies to fetches launched before the drop must not refill the list
	c.issued++
	c.products = []catalog.Product{}
	c.loading = false
	c.lastErr = ""
	c.mu.Unlock()

	c.log.WithField("reason", reason).Info("admin session dropped")
	if c.onLogout != nil {
		c.onLogout()
	}
	if errToken != nil {
		return errors.Wrap(errToken, "remove admin token")
	}
	return errors.Wrap(errUser, "remove admin user")
}

func (c *Controller) LoggedIn(ctx context.Context) bool {
	_, err := c.token(ctx)
	return err == nil
}

// User returns the stored profile blob as it was received at login.
func (c *Controller) User(ctx context.Context) (json.RawMessage, error) {
	v, err := c.store.Get(ctx, KeyUser)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(v), nil
}

func (c *Controller) token(ctx context.Context) (string, error) {
	t, err := c.store.Get(ctx, KeyToken)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && t == "") {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", errors.Wrap(err, "read admin token")
	}
	return t, nil
}

// SetQuery records a keystroke and (re)schedules the trailing search fetch.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()

	c.sched.Schedule(searchTask, c.delay, func() {
		if err := c.fetch(c.baseCtx); err != nil && !errors.Is(err, ErrNotLoggedIn) {
			c.log.WithError(err).Warn("debounced admin search failed")
		}
	})
}

// SetStatus changes the status filter and fetches right away. A pending
// debounced search is left to fire.
func (c *Controller) SetStatus(ctx context.Context, s Status) error {
	parsed, err := ParseStatus(string(s))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.status = parsed
	c.mu.Unlock()
	return c.fetch(ctx)
}

func (c *Controller) Refresh(ctx context.Context) error { return c.fetch(ctx) }

// fetch loads the list for the current filters. The sequence number is taken
// at launch; a reply that is not for the latest launch is dropped.
func (c *Controller) fetch(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.issued++
	seq := c.issued
	filter := clients.AdminFilter{Search: c.query, Status: string(c.status)}
	c.loading = true
	c.mu.Unlock()

	products, err := c.api.ListProducts(ctx, token, filter)

	if clients.IsAuthExpired(err) {
		_ = c.dropSession(ctx, "session expired")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.issued {
		c.log.WithField("seq", seq).Debug("superseded admin list reply dropped")
		return nil
	}
	c.loading = false
	if err != nil {
		c.lastErr = MsgListFailed
		return err
	}
	c.lastErr = ""
	c.products = products
	return nil
}

// SaveProduct creates the product when editingID is empty and updates it
// otherwise, then refreshes the list.
func (c *Controller) SaveProduct(ctx context.Context, form ProductForm, editingID string) error {
	if err := form.Validate(); err != nil {
		return err
	}
	return c.mutate(ctx, func(token string) error {
		if editingID == "" {
			return c.api.CreateProduct(ctx, token, form.Payload())
		}
		return c.api.UpdateProduct(ctx, token, editingID, form.Payload())
	})
}

func (c *Controller) DeleteProduct(ctx context.Context, id string) error {
	return c.mutate(ctx, func(token string) error {
		return c.api.DeleteProduct(ctx, token, id)
	})
}

// ToggleStatus flips isActive from its currently displayed value.
func (c *Controller) ToggleStatus(ctx context.Context, id string, current bool) error {
	return c.mutate(ctx, func(token string) error {
		return c.api.SetActive(ctx, token, id, !current)
	})
}

func (c *Controller) mutate(ctx context.Context, call func(token string) error) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if err := call(token); err != nil {
		if clients.IsAuthExpired(err) {
			_ = c.dropSession(ctx, "session expired")
		}
		return err
	}
	return c.fetch(ctx)
}

type Snapshot struct {
	Query         string            `json:"query"`
	Status        Status            `json:"status"`
	Products      []catalog.Product `json:"products"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	SearchPending bool              `json:"searchPending"`
	LoggedIn      bool              `json:"loggedIn"`
}

func (c *Controller) Snapshot(ctx context.Context) Snapshot {
	loggedIn := c.LoggedIn(ctx)
	pending := c.sched.Pending(searchTask)

	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Query:         c.query,
		Status:        c.status,
		Products:      c.products,
		Loading:       c.loading,
		Error:         c.lastErr,
		SearchPending: pending,
		LoggedIn:      loggedIn,
	}
}
