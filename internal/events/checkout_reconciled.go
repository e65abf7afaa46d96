package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
)

const (
	EventTypeCheckoutReconciled = "CheckoutReconciled"
	checkoutReconciledSchema    = "storefront.checkout.reconciled.v1"
)

type CheckoutReconciledPayload struct {
	ClientID       string          `json:"clientId"`
	SessionID      string          `json:"sessionId,omitempty"`
	Outcome        string          `json:"outcome"`
	PaymentStatus  string          `json:"paymentStatus,omitempty"`
	CartCleared    bool            `json:"cartCleared"`
	CartTotal      decimal.Decimal `json:"cartTotal"`
	CartTotalItems int             `json:"cartTotalItems"`
	Error          string          `json:"error,omitempty"`
}

type CheckoutReconciledEvent struct {
	EventEnvelope
	Payload CheckoutReconciledPayload `json:"payload"`
}

func payloadFromResult(clientID string, res checkout.Result) CheckoutReconciledPayload {
	p := CheckoutReconciledPayload{
		ClientID:      clientID,
		SessionID:     res.SessionID,
		Outcome:       string(res.Outcome),
		PaymentStatus: res.PaymentStatus,
		CartCleared:   res.CartCleared,
		CartTotal:     decimal.Zero,
	}
	if res.Cart != nil {
		p.CartTotal = res.Cart.Total
		p.CartTotalItems = res.Cart.TotalItems
	}
	if res.Err != nil {
		p.Error = res.Err.Error()
	}
	return p
}

func newCheckoutReconciledEvent(correlationID string, seq int64, producer string, payload CheckoutReconciledPayload, occurredAt time.Time) CheckoutReconciledEvent {
	return CheckoutReconciledEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeCheckoutReconciled,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: correlationID,
			Producer:      producer,
			PartitionKey:  payload.ClientID,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        checkoutReconciledSchema,
		},
		Payload: payload,
	}
}
