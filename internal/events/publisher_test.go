package events

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, PublisherOptions{ClientID: "web-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ecommerce.events:topic"}, ch.declared)
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestCheckoutReconciledEnvelope(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, PublisherOptions{ClientID: "web-1"})
	require.NoError(t, err)
	fixed := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	refreshed := cart.Cart{Items: []cart.Item{}, Total: decimal.Zero}
	ctx := middleware.WithCorrelationID(context.Background(), "cid-42")
	p.Reconciled(ctx, checkout.Result{
		Outcome:       checkout.OutcomePaid,
		SessionID:     "cs_1",
		PaymentStatus: "paid",
		CartCleared:   true,
		Cart:          &refreshed,
	})

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, EventsExchange, got.exchange)
	assert.Equal(t, CheckoutReconciledRoutingKey, got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	ev, err := DecodeCheckoutReconciled(got.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "cid-42", ev.CorrelationID)
	assert.Equal(t, "web-1", ev.PartitionKey)
	assert.Equal(t, "storefront-go", ev.Producer)
	assert.EqualValues(t, 1, ev.Sequence)
	assert.Equal(t, checkoutReconciledSchema, ev.Schema)
	assert.True(t, ev.OccurredAt.Equal(fixed))
	assert.Equal(t, "paid", ev.Payload.Outcome)
	assert.True(t, ev.Payload.CartCleared)
	assert.Equal(t, "cs_1", ev.Payload.SessionID)
}

func TestSequenceIncreasesPerEvent(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, PublisherOptions{ClientID: "web-1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.PublishCheckoutReconciled(context.Background(), checkout.Result{Outcome: checkout.OutcomeExpired}))
	}

	var seqs []int64
	for _, m := range ch.published {
		ev, err := DecodeCheckoutReconciled(m.msg.Body)
		require.NoError(t, err)
		seqs = append(seqs, ev.Sequence)
	}
	assert.Equal(t, []int64{1, 2, 3}, seqs)
}

func TestReconciledSkipsNoSessionAndSwallowsErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, PublisherOptions{ClientID: "web-1", Logger: logger})
	require.NoError(t, err)

	p.Reconciled(context.Background(), checkout.Result{Outcome: checkout.OutcomeNoSession})
	assert.Empty(t, ch.published)

	ch.publishErr = errors.New("channel closed")
	p.Reconciled(context.Background(), checkout.Result{Outcome: checkout.OutcomeExpired, SessionID: "cs_9"})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "publish CheckoutReconciled failed", hook.LastEntry().Message)
}

func TestDecodeRejectsWrongEvent(t *testing.T) {
	_, err := DecodeCheckoutReconciled([]byte(`{"eventName":"StockReserved","eventVersion":1,"eventId":"x","partitionKey":"p"}`))
	assert.Error(t, err)

	_, err = DecodeCheckoutReconciled([]byte(`{"eventName":"CheckoutReconciled","eventVersion":1,"eventId":"x"}`))
	assert.Error(t, err)
}
