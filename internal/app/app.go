// Package app wires the application together: configuration, storage,
// messaging, domain services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/domain/order"
	"github.com/shoplane/commerce-core/internal/domain/product"
	"github.com/shoplane/commerce-core/internal/events"
	"github.com/shoplane/commerce-core/internal/handler"
	"github.com/shoplane/commerce-core/internal/storage/postgres"
	"github.com/shoplane/commerce-core/internal/storage/rediscache"
	"github.com/shoplane/commerce-core/pkg/health"
	"github.com/shoplane/commerce-core/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the event
// consumer, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories, with the optional Redis read-through cache on products.
	productRepo := postgres.NewProductRepository(pool)
	discountRepo := postgres.NewDiscountRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	cartItemRepo := postgres.NewCartItemRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	var products product.Repository = productRepo
	var invalidator events.CacheInvalidator
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})

		cache := rediscache.NewProductCache(productRepo, rdb, cfg.CacheTTL, lg)
		products = cache
		invalidator = cache
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Event broker and the expiry consumer.
	broker := events.NewKafkaBroker(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
	defer broker.Close()

	expiredHandler := events.NewDiscountExpiredHandler(products, invalidator, lg)
	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, expiredHandler, lg)

	// Domain services.
	clk := clock.System()
	discountService := discount.NewService(discountRepo, products, broker, clk, lg)
	cartService := cart.NewService(cartRepo, cartItemRepo, products, discountRepo, clk, lg)
	orderService := order.NewService(orderRepo, cartRepo, products, clk, lg)

	// HTTP handlers: health endpoints + API routes on one server.
	h := handler.NewHandler(products, discountService, cartService, orderService, lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(ctx)
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	return g.Wait()
}
