package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mochabot/chatcart/internal/domain/menu"
)

// Store holds one in-memory cart per user, keyed by an opaque user
// identifier. Carts live for the lifetime of the process; there is no
// persistence across restarts.
//
// Mutations for different users never contend. Mutations for the same user
// are serialized by a per-user mutex, so rapid double-submission cannot
// interleave an add with a summarize-and-clear.
type Store struct {
	menu menu.Catalog

	mu    sync.Mutex
	carts map[string]*userCart
}

type userCart struct {
	mu    sync.Mutex
	lines []Line
}

// NewStore creates an empty Store that validates added items against the
// given menu catalog.
func NewStore(catalog menu.Catalog) *Store {
	return &Store{
		menu:  catalog,
		carts: make(map[string]*userCart),
	}
}

// cart returns the user's cart, creating it on first use.
func (s *Store) cart(userID string) *userCart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = &userCart{}
		s.carts[userID] = c
	}
	return c
}

// Add looks up the item on the menu and appends quantity single-unit lines
// to the user's cart, freezing the unit price at add time. It returns the
// number of lines added and the unit price.
//
// A quantity of zero or less is a no-op that still succeeds with added=0.
// An unknown item returns ItemNotFoundError and leaves the cart untouched.
func (s *Store) Add(ctx context.Context, userID, itemName string, quantity int, attrs map[string]string) (int, decimal.Decimal, error) {
	item, err := s.menu.Lookup(ctx, itemName)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return 0, decimal.Zero, &ItemNotFoundError{Item: itemName}
		}
		return 0, decimal.Zero, errors.Wrapf(err, "lookup %q", itemName)
	}

	if quantity <= 0 {
		return 0, item.Price, nil
	}

	var lineAttrs map[string]string
	if len(attrs) > 0 {
		lineAttrs = make(map[string]string, len(attrs))
		for k, v := range attrs {
			lineAttrs[k] = v
		}
	}

	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	for range quantity {
		c.lines = append(c.lines, Line{
			ItemName:   item.Name,
			UnitPrice:  item.Price,
			Attributes: lineAttrs,
		})
	}
	return quantity, item.Price, nil
}

// Remove deletes up to quantity lines matching the item name, ignoring
// attributes, and reports how many were actually removed. Removing fewer
// lines than requested is not an error; removing from a cart that has no
// matching line returns ItemNotFoundError.
func (s *Store) Remove(userID, itemName string, quantity int) (int, error) {
	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	present := 0
	for _, l := range c.lines {
		if l.ItemName == itemName {
			present++
		}
	}
	if present == 0 {
		return 0, &ItemNotFoundError{Item: itemName}
	}
	if quantity <= 0 {
		return 0, nil
	}

	toRemove := min(quantity, present)
	kept := c.lines[:0]
	removed := 0
	for _, l := range c.lines {
		if removed < toRemove && l.ItemName == itemName {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	c.lines = kept
	return removed, nil
}

// Summarize groups the user's cart by (item name, attributes) in order of
// first appearance. An empty or unknown cart yields an empty summary.
func (s *Store) Summarize(userID string) []SummaryRow {
	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	return summarize(c.lines)
}

func summarize(lines []Line) []SummaryRow {
	rows := make([]SummaryRow, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, l := range lines {
		key := groupKey(l.ItemName, l.Attributes)
		if i, ok := index[key]; ok {
			rows[i].Quantity++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, SummaryRow{
			ItemName:   l.ItemName,
			Attributes: l.Attributes,
			UnitPrice:  l.UnitPrice,
			Quantity:   1,
		})
	}

	for i := range rows {
		rows[i].LineTotal = rows[i].UnitPrice.Mul(decimal.NewFromInt(int64(rows[i].Quantity)))
	}
	return rows
}

// Clear empties the user's cart. It is idempotent.
func (s *Store) Clear(userID string) {
	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
}

// Flush summarizes the user's cart, hands the rows to export, and clears the
// cart only when export returns nil. The per-user lock is held for the whole
// sequence, so a concurrent add can neither leak into the exported rows nor
// be lost by the clear. On export failure the cart is left untouched.
func (s *Store) Flush(userID string, export func(rows []SummaryRow) error) error {
	c := s.cart(userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := export(summarize(c.lines)); err != nil {
		return err
	}
	c.lines = nil
	return nil
}
