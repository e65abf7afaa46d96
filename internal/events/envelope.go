package events

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// EventEnvelope is the shared v1 envelope used across the ecommerce.events
// exchange.
type EventEnvelope struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
}

func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return errors.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return errors.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return errors.New("missing partitionKey")
	}
	if e.EventID == "" {
		return errors.New("missing eventId")
	}
	return nil
}

// DecodeCheckoutReconciled parses and validates a published event body.
func DecodeCheckoutReconciled(body []byte) (CheckoutReconciledEvent, error) {
	var ev CheckoutReconciledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return CheckoutReconciledEvent{}, errors.Wrap(err, "decode CheckoutReconciled")
	}
	if err := ev.Validate(EventTypeCheckoutReconciled, 1); err != nil {
		return CheckoutReconciledEvent{}, err
	}
	return ev, nil
}
