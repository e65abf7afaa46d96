package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

// Publisher announces checkout reconciliations on the shared events exchange.
// It implements checkout.Observer.
type Publisher struct {
	conn     *amqp.Connection
	ch       Channel
	producer string
	clientID string
	log      logrus.FieldLogger
	now      func() time.Time

	mu  sync.Mutex
	seq atomic.Int64
}

type PublisherOptions struct {
	Producer string
	ClientID string
	Logger   logrus.FieldLogger
}

// Dial connects to RabbitMQ and declares the events exchange.
func Dial(url string, opts PublisherOptions) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	p, err := NewPublisher(ch, opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewPublisher(ch Channel, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, errors.Wrap(err, "declare events exchange")
	}

	producer := opts.Producer
	if producer == "" {
		producer = storefrontServiceName
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}

	return &Publisher{
		ch:       ch,
		producer: producer,
		clientID: opts.ClientID,
		log:      logger.WithField("component", "events"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) PublishCheckoutReconciled(ctx context.Context, res checkout.Result) error {
	payload := payloadFromResult(p.clientID, res)
	ev := newCheckoutReconciledEvent(middleware.GetCorrelationID(ctx), p.seq.Add(1), p.producer, payload, p.now())

	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal CheckoutReconciled envelope")
	}
	return p.publishJSON(ctx, CheckoutReconciledRoutingKey, body)
}

// Reconciled publishes the result. Nothing-to-do loads are not announced and
// publish failures are only logged; reconciliation never waits on the broker.
func (p *Publisher) Reconciled(ctx context.Context, res checkout.Result) {
	if res.Outcome == checkout.OutcomeNoSession {
		return
	}
	if err := p.PublishCheckoutReconciled(ctx, res); err != nil {
		p.log.WithError(err).WithField("sessionId", res.SessionID).Warn("publish CheckoutReconciled failed")
	}
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
