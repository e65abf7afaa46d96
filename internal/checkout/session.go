package checkout

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
)

const (
	KeySessionID = "lastCheckoutSession"
	KeyTimestamp = "checkoutTimestamp"

	DefaultFreshness = 5 * time.Minute
)

// PendingSession is the record that carries a checkout across the redirect
// to the payment page.
type PendingSession struct {
	SessionID string
	CreatedAt time.Time
}

// Fresh reports whether the record is still inside the freshness window. A
// zero CreatedAt is never fresh.
func (p PendingSession) Fresh(now time.Time, window time.Duration) bool {
	if p.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(p.CreatedAt) < window
}

// SessionStore reads and writes the PendingSession through the kv port as two
// plain string keys, the timestamp in Unix milliseconds.
type SessionStore struct {
	kv kv.Store
}

func NewSessionStore(store kv.Store) *SessionStore {
	return &SessionStore{kv: store}
}

func (s *SessionStore) Save(ctx context.Context, p PendingSession) error {
	if err := s.kv.Set(ctx, KeySessionID, p.SessionID); err != nil {
		return errors.Wrap(err, "persist checkout session")
	}
	ts := strconv.FormatInt(p.CreatedAt.UnixMilli(), 10)
	if err := s.kv.Set(ctx, KeyTimestamp, ts); err != nil {
		return errors.Wrap(err, "persist checkout timestamp")
	}
	return nil
}

// Load returns ok=false when no session id is stored. A missing or unparsable
// timestamp yields a zero CreatedAt so the record is treated as stale.
func (s *SessionStore) Load(ctx context.Context) (PendingSession, bool, error) {
	id, err := s.kv.Get(ctx, KeySessionID)
	if errors.Is(err, kv.ErrNotFound) {
		return PendingSession{}, false, nil
	}
	if err != nil {
		return PendingSession{}, false, errors.Wrap(err, "read checkout session")
	}

	p := PendingSession{SessionID: id}
	raw, err := s.kv.Get(ctx, KeyTimestamp)
	if errors.Is(err, kv.ErrNotFound) {
		return p, true, nil
	}
	if err != nil {
		return PendingSession{}, false, errors.Wrap(err, "read checkout timestamp")
	}

	if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil && ms > 0 {
		p.CreatedAt = time.UnixMilli(ms)
	}
	return p, true, nil
}

// Discard removes both keys, attempting the second even if the first fails.
func (s *SessionStore) Discard(ctx context.Context) error {
	errID := s.kv.Remove(ctx, KeySessionID)
	errTS := s.kv.Remove(ctx, KeyTimestamp)
	if errID != nil {
		return errors.Wrap(errID, "discard checkout session")
	}
	if errTS != nil {
		return errors.Wrap(errTS, "discard checkout timestamp")
	}
	return nil
}
