// Command catalog-import bulk-loads product catalog feeds into the database.
// Feeds are gzip-compressed JSON lines files; files are parsed concurrently
// and duplicate SKUs across feeds are dropped with a bloom filter.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
	"github.com/shoplane/commerce-core/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// feedEntry is one line of a catalog feed file.
type feedEntry struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Manufacturer  string `json:"manufacturer"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	StandardPrice string `json:"standardPrice"`
	Currency      string `json:"currency"`
	ImageURL      string `json:"imageUrl"`
	IsAvailable   bool   `json:"isAvailable"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog-*.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "catalog-*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no catalog-*.gz files in %s", dataDir)
	}

	slog.Info("parsing feed files", slog.Int("files", len(files)))

	parsed, err := parseFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	// Drop duplicate SKUs across feeds: first occurrence wins. The bloom
	// filter may rarely report a false positive, which only skips an upsert
	// for a product a later full import picks up again.
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var products []product.Product
	var duplicates int
	for _, fileProducts := range parsed {
		for _, p := range fileProducts {
			if seen.TestAndAddString(p.SKU) {
				duplicates++
				continue
			}
			products = append(products, p)
		}
	}

	slog.Info("feeds parsed",
		slog.Int("products", len(products)),
		slog.Int("duplicates_skipped", duplicates),
	)
	if len(products) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeProducts(ctx, postgres.NewProductRepository(pool), products)
}

// parseFeeds streams every feed file concurrently and returns the parsed
// products per file, preserving file order.
func parseFeeds(ctx context.Context, files []string) ([][]product.Product, error) {
	parsed := make([][]product.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFeedFile(ctx, i, f, parsed))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func parseFeedFile(ctx context.Context, idx int, path string, parsed [][]product.Product) func() error {
	return func() error {
		var (
			products []product.Product
			count    uint64
		)

		if err := streamGzFile(ctx, path, func(line []byte) error {
			var entry feedEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return errors.Wrapf(err, "parse feed line %d", count+1)
			}

			p, err := entryToProduct(entry)
			if err != nil {
				return errors.Wrapf(err, "feed line %d", count+1)
			}
			products = append(products, p)

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", count),
				)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}

		slog.Info("file parsed",
			slog.String("file", filepath.Base(path)),
			slog.Int("products", len(products)),
		)

		parsed[idx] = products
		return nil
	}
}

func entryToProduct(entry feedEntry) (product.Product, error) {
	if entry.ID == "" || entry.SKU == "" || entry.Name == "" {
		return product.Product{}, errors.New("id, sku and name are required")
	}

	amount, err := decimal.NewFromString(entry.StandardPrice)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "parse price for sku %s", entry.SKU)
	}
	price, err := money.New(amount, entry.Currency)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "price for sku %s", entry.SKU)
	}

	return product.Product{
		ID:            entry.ID,
		SKU:           entry.SKU,
		Name:          entry.Name,
		Manufacturer:  entry.Manufacturer,
		Description:   entry.Description,
		Category:      entry.Category,
		StandardPrice: price,
		ImageURL:      entry.ImageURL,
		IsAvailable:   entry.IsAvailable,
	}, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeProducts upserts all parsed products into the database.
func writeProducts(ctx context.Context, repo *postgres.ProductRepository, products []product.Product) error {
	slog.Info("writing products to database", slog.Int("count", len(products)))

	for i := range products {
		if err := repo.Upsert(ctx, &products[i]); err != nil {
			return errors.Wrapf(err, "upsert product %s", products[i].SKU)
		}

		if (i+1)%1000 == 0 || i+1 == len(products) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(products)))
		}
	}
	return nil
}
