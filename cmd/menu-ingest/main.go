// Command menu-ingest loads menu CSV files into the PostgreSQL menu table
// used by the bot server. Files ending in .gz are decompressed on the fly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mochabot/chatcart/internal/catalog"
	"github.com/mochabot/chatcart/internal/domain/menu"
	"github.com/mochabot/chatcart/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no menu files given: pass one or more CSV paths")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("menu ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	// Parse all files concurrently before touching the database, so a bad
	// file aborts the whole run without a half-loaded menu.
	var (
		mu    sync.Mutex
		items []menu.Item
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			parsed, err := catalog.ReadFile(path)
			if err != nil {
				return err
			}
			slog.Info("parsed menu file",
				slog.String("file", path),
				slog.Int("items", len(parsed)),
			)

			mu.Lock()
			items = append(items, parsed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	repo := postgres.NewMenuRepository(pool)
	for i, it := range items {
		if err := repo.Upsert(ctx, it); err != nil {
			return err
		}
		if (i+1)%100 == 0 || i+1 == len(items) {
			slog.Info("upsert progress", slog.Int("written", i+1), slog.Int("total", len(items)))
		}
	}
	return nil
}
