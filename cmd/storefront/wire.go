package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/kv"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

type app struct {
	base     *clients.Client
	cart     *clients.CartClient
	payments *clients.PaymentClient
	store    kv.Store
	checkout checkout.Options
	view     *storefront.View
	admin    *admin.Controller

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) reconciler() *checkout.Reconciler {
	return checkout.NewReconciler(a.cart, a.payments, a.store, a.checkout)
}

func newBaseClient(cfg config.Config) *clients.Client {
	return clients.NewClient("bookstore-api", cfg.APIURL, clients.NewHTTPClient(cfg.UpstreamTimeout))
}

// build wires the backend clients, the client-state store and the optional
// event publisher into the view and admin controllers.
func build(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{base: newBaseClient(cfg)}
	a.cart = clients.NewCartClient(a.base)
	a.payments = clients.NewPaymentClient(a.base)

	store, err := openStore(ctx, cfg, logger, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	a.checkout = checkout.Options{
		Freshness:   cfg.CheckoutFreshness,
		ShippingFee: decimal.NewNullDecimal(cfg.ShippingFee),
		Logger:      logger,
	}
	if cfg.RabbitMQURL != "" {
		pub, err := events.Dial(cfg.RabbitMQURL, events.PublisherOptions{ClientID: cfg.ClientID, Logger: logger})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		a.checkout.Observer = pub
	}

	a.view = storefront.NewView(storefront.Deps{
		Catalog:  clients.NewCatalogClient(a.base),
		Cart:     a.cart,
		Payments: a.payments,
		Store:    a.store,
		Checkout: a.checkout,
		Logger:   logger,
	})
	a.admin = admin.NewController(clients.NewAdminClient(a.base), a.store, admin.Options{
		Debounce: cfg.AdminSearchDebounce,
		Logger:   logger,
		Context:  ctx,
	})
	a.closers = append(a.closers, a.admin.Close)
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger, a *app) (kv.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		rs, err := kv.NewRedisStore(cfg.RedisURL, cfg.ClientID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		if err := rs.Ping(ctx); err != nil {
			return nil, errors.Wrap(err, "ping redis")
		}
		return rs, nil

	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		return kv.NewPostgresStore(pool, cfg.ClientID), nil

	default:
		return kv.NewMemoryStore(), nil
	}
}
