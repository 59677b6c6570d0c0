// Command coursegate runs the entitlement service: provider webhook
// ingestion, checkout creation, entitlement reads, and live watch
// streaming over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/checkout"
	"github.com/coursegate/coursegate/config"
	"github.com/coursegate/coursegate/httpapi"
	"github.com/coursegate/coursegate/lesson"
	"github.com/coursegate/coursegate/store"
	"github.com/coursegate/coursegate/store/memory"
	"github.com/coursegate/coursegate/store/mongo"
	"github.com/coursegate/coursegate/store/postgres"
	"github.com/coursegate/coursegate/store/sqlite"
	"github.com/coursegate/coursegate/types"
	"github.com/coursegate/coursegate/watch"
	"github.com/coursegate/coursegate/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	catalog, err := lesson.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Warn("lesson catalog unavailable", "path", cfg.CatalogPath, "error", err)
		catalog = nil
	}

	checkoutClient := checkout.NewClient(cfg.StripeSecretKey, cfg.AppURL,
		checkout.WithLogger(logger),
		checkout.WithProduct(checkout.Product{
			Name:  cfg.PriceName,
			Price: types.USD(cfg.PriceCents),
		}),
	)

	opts := []coursegate.Option{
		coursegate.WithLogger(logger),
		coursegate.WithCheckout(checkoutClient),
	}
	if catalog != nil {
		opts = append(opts, coursegate.WithCatalog(catalog))
	}

	svc := coursegate.New(st, opts...)

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rb := watch.NewRedisBroadcaster(redis.NewClient(redisOpts), svc.Hub(),
			watch.WithRedisLogger(logger),
		)
		if err := rb.Start(ctx); err != nil {
			return fmt.Errorf("start redis broadcaster: %w", err)
		}
		svc.SetBroadcaster(rb)
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			logger.Warn("service stop failed", "error", err)
		}
	}()

	wh := webhook.NewHandler(st, cfg.StripeWebhookSecret,
		webhook.WithLogger(logger),
		webhook.WithPublisher(svc.Hub()),
		webhook.WithTolerance(cfg.WebhookTolerance),
	)

	srv := httpapi.NewServer(svc, cfg.Addr(),
		httpapi.WithLogger(logger),
		httpapi.WithWebhook(wh),
		httpapi.WithAuthSecret(cfg.AuthSecret),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore selects a backend from the database URL: postgres:// and
// mongodb:// URLs get their drivers, a plain path gets sqlite, and an
// empty value falls back to the in-memory store.
func openStore(ctx context.Context, databaseURL string) (store.Store, error) {
	switch {
	case databaseURL == "":
		return memory.New(), nil

	case strings.HasPrefix(databaseURL, "postgres://"),
		strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(ctx, databaseURL)

	case strings.HasPrefix(databaseURL, "mongodb://"),
		strings.HasPrefix(databaseURL, "mongodb+srv://"):
		u, err := url.Parse(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse mongodb url: %w", err)
		}
		database := strings.TrimPrefix(u.Path, "/")
		if database == "" {
			database = "coursegate"
		}
		return mongo.Open(ctx, databaseURL, database)

	default:
		return sqlite.Open(databaseURL)
	}
}
