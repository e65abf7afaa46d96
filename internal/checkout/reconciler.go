package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clock"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidState = errors.New("checkout already started")
)

// DefaultShippingFee is added to the cart total when a session is created.
var DefaultShippingFee = decimal.RequireFromString("19.99")

type CartService interface {
	GetCart(ctx context.Context) (cart.Cart, error)
	ClearCart(ctx context.Context) error
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, req clients.CheckoutRequest) (clients.CheckoutSession, error)
	PaymentStatus(ctx context.Context, sessionID string) (string, error)
}

// Observer is told about every completed reconciliation.
type Observer interface {
	Reconciled(ctx context.Context, res Result)
}

type State int

const (
	Idle State = iota
	AwaitingRedirectReturn
	Reconciling
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingRedirectReturn:
		return "awaiting-redirect-return"
	case Reconciling:
		return "reconciling"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

type Outcome string

const (
	OutcomeNoSession        Outcome = "no-session"
	OutcomeExpired          Outcome = "expired"
	OutcomePaid             Outcome = "paid"
	OutcomeUnpaid           Outcome = "unpaid"
	OutcomeTransportFailure Outcome = "transport-failure"
	OutcomeStorageFailure   Outcome = "storage-failure"
)

// Result describes the path a reconciliation took. Cart is the refreshed cart
// when a refresh happened and succeeded.
type Result struct {
	Outcome       Outcome    `json:"outcome"`
	SessionID     string     `json:"sessionId,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	CartCleared   bool       `json:"cartCleared"`
	Cart          *cart.Cart `json:"cart,omitempty"`
	Err           error      `json:"-"`
}

type Options struct {
	Freshness time.Duration
	// ShippingFee left invalid means DefaultShippingFee; a valid zero is a
	// free-shipping configuration.
	ShippingFee decimal.NullDecimal
	Clock       clock.Clock
	Logger      logrus.FieldLogger
	Observer    Observer
}

// Fee is the shipping fee added to every checkout amount.
func (o Options) Fee() decimal.Decimal {
	if !o.ShippingFee.Valid {
		return DefaultShippingFee
	}
	return o.ShippingFee.Decimal
}

// Reconciler is the per-load state machine that carries a checkout across the
// payment redirect. Phase one (BeginCheckout) persists a PendingSession before
// the caller leaves; phase two (Run) consumes it on the next load. No
// in-memory state is shared between the phases.
type Reconciler struct {
	cart     CartService
	payments PaymentService
	sessions *SessionStore

	freshness time.Duration
	fee       decimal.Decimal
	clock     clock.Clock
	log       logrus.FieldLogger
	observer  Observer

	mu    sync.Mutex
	state State

	once   sync.Once
	result Result
}

func NewReconciler(cs CartService, ps PaymentService, store kv.Store, opts Options) *Reconciler {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Logger = l
	}
	return &Reconciler{
		cart:      cs,
		payments:  ps,
		sessions:  NewSessionStore(store),
		freshness: opts.Freshness,
		fee:       opts.Fee(),
		clock:     opts.Clock,
		log:       opts.Logger.WithField("component", "checkout"),
		observer:  opts.Observer,
		state:     Idle,
	}
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Reconciler) ShippingFee() decimal.Decimal { return r.fee }

// Amount is what the payment page will charge for c.
func (r *Reconciler) Amount(c cart.Cart) decimal.Decimal { return c.WithShipping(r.fee) }

// BeginCheckout creates a hosted checkout session for c and persists the
// pending record, overwriting any earlier one. The returned URL is where the
// caller must send the shopper. On error nothing is persisted and the state
// stays Idle.
func (r *Reconciler) BeginCheckout(ctx context.Context, c cart.Cart) (string, error) {
	if c.IsEmpty() {
		return "", ErrEmptyCart
	}
	r.mu.Lock()
	if r.state != Idle {
		r.mu.Unlock()
		return "", ErrInvalidState
	}
	r.mu.Unlock()

	sess, err := r.payments.CreateCheckoutSession(ctx, clients.CheckoutRequest{
		Amount:    r.Amount(c),
		CartItems: c.Items,
	})
	if err != nil {
		return "", errors.Wrap(err, "create checkout session")
	}

	pending := PendingSession{SessionID: sess.SessionID, CreatedAt: r.clock.Now()}
	if err := r.sessions.Save(ctx, pending); err != nil {
		// a half-written record must not survive
		_ = r.sessions.Discard(ctx)
		return "", err
	}

	r.setState(AwaitingRedirectReturn)
	r.log.WithFields(logrus.Fields{
		"sessionId": sess.SessionID,
		"amount":    r.Amount(c).StringFixed(2),
	}).Info("checkout session created")
	return sess.SessionURL, nil
}

// Run performs the load-time reconciliation. It runs to Done exactly once per
// Reconciler; later calls return the first result without side effects.
func (r *Reconciler) Run(ctx context.Context) Result {
	r.once.Do(func() {
		r.result = r.run(ctx)
		if r.observer != nil {
			r.observer.Reconciled(ctx, r.result)
		}
	})
	return r.result
}

func (r *Reconciler) run(ctx context.Context) Result {
	pending, ok, err := r.sessions.Load(ctx)
	if err != nil {
		r.log.WithError(err).Warn("pending checkout unreadable")
		return r.finish(ctx, Result{Outcome: OutcomeStorageFailure, Err: err})
	}
	if !ok {
		return r.finish(ctx, Result{Outcome: OutcomeNoSession})
	}

	log := r.log.WithField("sessionId", pending.SessionID)
	if !pending.Fresh(r.clock.Now(), r.freshness) {
		log.Info("pending checkout expired")
		return r.finish(ctx, Result{Outcome: OutcomeExpired, SessionID: pending.SessionID})
	}

	r.setState(Reconciling)
	res := Result{SessionID: pending.SessionID}

	status, err := r.payments.PaymentStatus(ctx, pending.SessionID)
	switch {
	case clients.IsTransport(err):
		log.WithError(err).Warn("payment status unavailable, cart left untouched")
		res.Outcome = OutcomeTransportFailure
		res.Err = err
		return r.finish(ctx, res)
	case err != nil:
		// a rejection counts the same as an unpaid status
		log.WithError(err).Warn("payment status rejected")
		res.Outcome = OutcomeUnpaid
		res.Err = err
	case status == clients.PaymentStatusPaid:
		res.Outcome = OutcomePaid
		res.PaymentStatus = status
		if err := r.cart.ClearCart(ctx); err != nil {
			log.WithError(err).Warn("clear cart after payment failed")
			res.Err = err
		} else {
			res.CartCleared = true
		}
	default:
		res.Outcome = OutcomeUnpaid
		res.PaymentStatus = status
	}

	refreshed, err := r.cart.GetCart(ctx)
	if err != nil {
		log.WithError(err).Warn("cart refresh after checkout failed")
		if res.Err == nil {
			res.Err = err
		}
	} else {
		res.Cart = &refreshed
	}

	log.WithFields(logrus.Fields{
		"outcome":       res.Outcome,
		"paymentStatus": res.PaymentStatus,
		"cartCleared":   res.CartCleared,
	}).Info("checkout reconciled")
	return r.finish(ctx, res)
}

// finish enters Done. The pending record is removed on every path.
func (r *Reconciler) finish(ctx context.Context, res Result) Result {
	if err := r.sessions.Discard(ctx); err != nil {
		r.log.WithError(err).Warn("discard pending checkout failed")
		if res.Err == nil {
			res.Err = err
		}
	}
	r.setState(Done)
	return res
}
