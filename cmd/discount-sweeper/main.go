// Command discount-sweeper reconciles discount windows with the product
// catalog on an interval: it caches the discounted price on products whose
// window just became active and deletes discounts whose window elapsed,
// which publishes the expiry event for each.
package main

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/shoplane/commerce-core/internal/app"
	"github.com/shoplane/commerce-core/internal/clock"
	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/events"
	"github.com/shoplane/commerce-core/internal/storage/postgres"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg *appkg.Config) error {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	broker := events.NewKafkaBroker(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
	defer broker.Close()

	products := postgres.NewProductRepository(pool)
	discounts := postgres.NewDiscountRepository(pool)
	clk := clock.System()
	service := discount.NewService(discounts, products, broker, clk, lg)

	sweeper := &sweeper{
		products:  products,
		discounts: discounts,
		service:   service,
		clock:     clk,
		lg:        lg,
	}

	lg.Info("sweeper running", zap.Duration("interval", cfg.SweepInterval))

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		if err := sweeper.sweep(ctx); err != nil {
			lg.Error("sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type sweeper struct {
	products  *postgres.ProductRepository
	discounts *postgres.DiscountRepository
	service   *discount.Service
	clock     clock.Clock
	lg        *zap.Logger
}

// sweep expires elapsed discounts first, then activates windows that have
// started. Each discount is handled independently so one failure does not
// block the rest of the pass.
func (s *sweeper) sweep(ctx context.Context) error {
	now := s.clock.Now()

	expired, err := s.discounts.ListExpired(ctx, now)
	if err != nil {
		return errors.Wrap(err, "list expired discounts")
	}
	for _, d := range expired {
		if err := s.service.Delete(ctx, d.ID); err != nil {
			s.lg.Error("expire discount",
				zap.String("discount_id", d.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.activate(ctx, now); err != nil {
		return err
	}

	if len(expired) > 0 {
		s.lg.Info("sweep complete", zap.Int("expired", len(expired)))
	}
	return nil
}

// activate caches the discounted price on every product whose discount
// window contains now but whose cache is still empty.
func (s *sweeper) activate(ctx context.Context, now time.Time) error {
	all, err := s.products.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	for i := range all {
		p := &all[i]
		if p.DiscountedPrice != nil {
			continue
		}

		d, err := s.discounts.FindActive(ctx, p.ID, now)
		if err != nil {
			if errors.Is(err, discount.ErrNotFound) {
				continue
			}
			return errors.Wrapf(err, "find active discount for product %s", p.ID)
		}

		if err := p.SetDiscountedPrice(d.NewPrice); err != nil {
			s.lg.Error("activate discount",
				zap.String("discount_id", d.ID),
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		if err := s.products.Update(ctx, p); err != nil {
			return errors.Wrapf(err, "update product %s", p.ID)
		}

		s.lg.Info("discount activated",
			zap.String("discount_id", d.ID),
			zap.String("product_id", p.ID),
		)
	}
	return nil
}
