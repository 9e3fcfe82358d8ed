// Package catalog loads the menu from tabular CSV sources and serves it as
// an in-memory menu.Catalog.
package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/mochabot/chatcart/internal/domain/menu"
)

// Memory is a read-only menu.Catalog backed by a map. It is immutable after
// construction and safe for concurrent use.
type Memory struct {
	items map[string]menu.Item
	order []string
}

var _ menu.Catalog = (*Memory)(nil)

// NewMemory builds a Memory catalog from the given items. Later duplicates
// of a name override earlier ones.
func NewMemory(items []menu.Item) *Memory {
	m := &Memory{items: make(map[string]menu.Item, len(items))}
	for _, it := range items {
		if _, ok := m.items[it.Name]; !ok {
			m.order = append(m.order, it.Name)
		}
		m.items[it.Name] = it
	}
	return m
}

// Lookup returns the item with the given name, or menu.ErrNotFound.
func (m *Memory) Lookup(_ context.Context, name string) (*menu.Item, error) {
	it, ok := m.items[name]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &it, nil
}

// List returns all items in file order.
func (m *Memory) List(_ context.Context) ([]menu.Item, error) {
	items := make([]menu.Item, 0, len(m.order))
	for _, name := range m.order {
		items = append(items, m.items[name])
	}
	return items, nil
}

// LoadFile reads a menu CSV file and returns a Memory catalog. Files ending
// in .gz are transparently decompressed.
func LoadFile(path string) (*Memory, error) {
	items, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(items), nil
}

// ReadFile parses a menu CSV file with columns category, item name, price,
// tag. A header row is detected by a non-numeric price column and skipped.
// A corrupt data row fails the whole load: a menu that cannot be parsed at
// startup is a fatal collaborator failure, not something to limp past.
func ReadFile(path string) ([]menu.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return readCSV(r, path)
}

func readCSV(r io.Reader, name string) ([]menu.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var items []menu.Item
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		if len(rec) < 3 {
			return nil, errors.Errorf("%s:%d: want at least 3 columns, got %d", name, line, len(rec))
		}

		price, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, errors.Wrapf(err, "%s:%d: parse price %q", name, line, rec[2])
		}
		if price.IsNegative() {
			return nil, errors.Errorf("%s:%d: negative price %s", name, line, price)
		}

		item := menu.Item{
			Name:     strings.TrimSpace(rec[1]),
			Price:    price,
			Category: strings.TrimSpace(rec[0]),
		}
		if item.Name == "" {
			return nil, errors.Errorf("%s:%d: empty item name", name, line)
		}
		if len(rec) > 3 {
			if tag := strings.TrimSpace(rec[3]); tag != "" {
				item.Tags = strings.Split(tag, "|")
			}
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, errors.Errorf("%s: no menu items", name)
	}
	return items, nil
}
