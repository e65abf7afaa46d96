package clients

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// PaymentStatusPaid is the only status that lets reconciliation clear the cart.
const PaymentStatusPaid = "paid"

type PaymentClient struct{ c *Client }

func NewPaymentClient(c *Client) *PaymentClient { return &PaymentClient{c: c} }

type CheckoutRequest struct {
	Amount    decimal.Decimal
	CartItems []cart.Item
}

type checkoutSessionBody struct {
	Amount    float64     `json:"amount"`
	CartItems []cart.Item `json:"cartItems"`
}

type CheckoutSession struct {
	SessionID  string `json:"sessionId"`
	SessionURL string `json:"sessionUrl"`
}

type paymentStatusResponse struct {
	PaymentStatus string `json:"paymentStatus"`
}

// CreateCheckoutSession asks the backend for a hosted payment page. The
// session id falls back to the last path segment of the session url when the
// backend does not return one.
func (pc *PaymentClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	amount, _ := req.Amount.Round(2).Float64()
	body := checkoutSessionBody{Amount: amount, CartItems: req.CartItems}
	if body.CartItems == nil {
		body.CartItems = []cart.Item{}
	}

	var out CheckoutSession
	if err := pc.c.call(ctx, "create checkout session", http.MethodPost, "/api/create-checkout-session", "", body, nil, &out); err != nil {
		return CheckoutSession{}, err
	}
	if out.SessionURL == "" {
		return CheckoutSession{}, &ServerRejection{Service: pc.c.Name, Op: "create checkout session", StatusCode: http.StatusOK, Message: "missing sessionUrl"}
	}
	if out.SessionID == "" {
		id, err := sessionIDFromURL(out.SessionURL)
		if err != nil {
			return CheckoutSession{}, &ServerRejection{Service: pc.c.Name, Op: "create checkout session", StatusCode: http.StatusOK, Message: err.Error()}
		}
		out.SessionID = id
	}
	return out, nil
}

func (pc *PaymentClient) PaymentStatus(ctx context.Context, sessionID string) (string, error) {
	var out paymentStatusResponse
	p := "/api/check-payment-status/" + url.PathEscape(sessionID)
	if err := pc.c.call(ctx, "check payment status", http.MethodGet, p, "", nil, nil, &out); err != nil {
		return "", err
	}
	return out.PaymentStatus, nil
}

func sessionIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse sessionUrl")
	}
	if id := u.Query().Get("session_id"); id != "" {
		return id, nil
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "" || seg == "/" || seg == "." {
		return "", errors.Errorf("no session id in %q", raw)
	}
	return seg, nil
}
