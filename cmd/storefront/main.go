package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

func main() {
	// the bookstore API expects JSON numbers for prices
	decimal.MarshalJSONWithoutQuotes = true

	var (
		cfg    config.Config
		logger *logrus.Logger
	)

	app := &cli.App{
		Name:  "storefront",
		Usage: "bookstore storefront client and BFF",
		Before: func(c *cli.Context) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the storefront HTTP API",
				Action: func(c *cli.Context) error {
					return serve(cfg, logger)
				},
			},
			{
				Name:  "catalog",
				Usage: "load the catalog once and print the filtered list",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search"},
					&cli.StringFlag{Name: "category", Value: catalog.AllCategories},
					&cli.StringFlag{Name: "sort", Value: string(catalog.SortName)},
					&cli.StringFlag{Name: "min", Value: catalog.DefaultPriceFloor.String()},
					&cli.StringFlag{Name: "max", Value: catalog.DefaultPriceCeiling.String()},
					&cli.BoolFlag{Name: "in-stock"},
				},
				Action: func(c *cli.Context) error {
					return printCatalog(c, cfg, logger)
				},
			},
			{
				Name:  "reconcile",
				Usage: "run the pending-checkout reconciliation once",
				Action: func(c *cli.Context) error {
					return reconcileOnce(c, cfg, logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply the postgres client-state migrations",
				Action: func(c *cli.Context) error {
					if cfg.DatabaseDSN == "" {
						return errors.New("STOREFRONT_DATABASE_DSN is required")
					}
					return db.RunMigrations(cfg.DatabaseDSN, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config, logger *logrus.Logger) error {
	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// first page load, so the catalog is warm before traffic arrives
	a.view.Load(middleware.WithCorrelationID(ctx, uuid.NewString()))

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		View:             a.view,
		Admin:            a.admin,
		HealthProbes: []clients.HealthProbe{
			{Name: "bookstore-api", Client: a.base, Path: "/api/products"},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "storefront"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "server error")
	case <-ctx.Done():
	}
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown error")
	}
	logger.Info("shutdown complete")
	return nil
}

func printCatalog(c *cli.Context, cfg config.Config, logger *logrus.Logger) error {
	criteria := catalog.DefaultCriteria()
	criteria.Search = c.String("search")
	criteria.Category = c.String("category")
	criteria.InStockOnly = c.Bool("in-stock")

	sortKey, err := catalog.ParseSortKey(c.String("sort"))
	if err != nil {
		return err
	}
	criteria.Sort = sortKey
	if criteria.PriceRange.Lo, err = decimal.NewFromString(c.String("min")); err != nil {
		return errors.Wrap(err, "--min")
	}
	if criteria.PriceRange.Hi, err = decimal.NewFromString(c.String("max")); err != nil {
		return errors.Wrap(err, "--max")
	}

	ctx := middleware.WithCorrelationID(c.Context, uuid.NewString())
	base := newBaseClient(cfg)
	products, err := clients.NewCatalogClient(base).ListProducts(ctx)
	if err != nil {
		return err
	}
	visible := catalog.Apply(products, criteria)
	logger.WithFields(logrus.Fields{"total": len(products), "visible": len(visible)}).Debug("catalog filtered")

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPRICE\tSTOCK")
	for _, p := range visible {
		price := p.EffectivePrice().StringFixed(2)
		if p.HasDiscount() {
			price = fmt.Sprintf("%s (-%d%%)", price, p.DiscountPercent())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Author, price, p.Stock)
	}
	if len(visible) == 0 {
		fmt.Fprintln(tw, "-\t(no products)\t\t\t")
	}
	return tw.Flush()
}

func reconcileOnce(c *cli.Context, cfg config.Config, logger *logrus.Logger) error {
	ctx := middleware.WithCorrelationID(c.Context, uuid.NewString())
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.reconciler().Run(ctx)
	fmt.Fprintf(c.App.Writer, "outcome=%s session=%s status=%s cleared=%t\n",
		res.Outcome, res.SessionID, res.PaymentStatus, res.CartCleared)
	if res.Cart != nil {
		fmt.Fprintf(c.App.Writer, "cart items=%d total=%s\n", res.Cart.TotalItems, res.Cart.Total.StringFixed(2))
	}
	return res.Err
}
