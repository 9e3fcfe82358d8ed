package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item represents one entry of the shop menu.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Category string
	Tags     []string
}

// Catalog provides read access to the menu. It is loaded once at process
// start and never reloaded mid-process.
type Catalog interface {
	// Lookup returns the item with the given name, or ErrNotFound.
	Lookup(ctx context.Context, name string) (*Item, error)
	// List returns all items in a stable order.
	List(ctx context.Context) ([]Item, error)
}
