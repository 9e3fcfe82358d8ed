package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mochabot/chatcart/internal/domain/menu"
)

var _ menu.Catalog = (*MenuRepository)(nil)

// MenuRepository implements menu.Catalog backed by PostgreSQL. The bot
// server only reads; cmd/menu-ingest owns the writes.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// Lookup returns the menu item with the given name.
// Returns menu.ErrNotFound when no such item exists.
func (r *MenuRepository) Lookup(ctx context.Context, name string) (*menu.Item, error) {
	const q = `SELECT name, category, price, tags FROM menu_items WHERE name = $1`

	var it menu.Item
	err := r.pool.QueryRow(ctx, q, name).Scan(&it.Name, &it.Category, &it.Price, &it.Tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("looking up menu item %q: %w", name, err)
	}
	return &it, nil
}

// List returns all menu items ordered by category and name.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	const q = `SELECT name, category, price, tags FROM menu_items ORDER BY category, name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.Name, &it.Category, &it.Price, &it.Tags); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu items: %w", err)
	}
	return items, nil
}

// Upsert inserts or updates one menu item. Used by the ingest tool.
func (r *MenuRepository) Upsert(ctx context.Context, it menu.Item) error {
	const q = `
		INSERT INTO menu_items (name, category, price, tags)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET category = EXCLUDED.category,
		    price    = EXCLUDED.price,
		    tags     = EXCLUDED.tags`

	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	if _, err := r.pool.Exec(ctx, q, it.Name, it.Category, it.Price, tags); err != nil {
		return fmt.Errorf("upserting menu item %q: %w", it.Name, err)
	}
	return nil
}
