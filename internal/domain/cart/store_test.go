package cart_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mochabot/chatcart/internal/domain/cart"
	"github.com/mochabot/chatcart/internal/domain/menu"
)

// mapCatalog is a menu.Catalog over a plain map for tests.
type mapCatalog map[string]decimal.Decimal

func (m mapCatalog) Lookup(_ context.Context, name string) (*menu.Item, error) {
	price, ok := m[name]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &menu.Item{Name: name, Price: price}, nil
}

func (m mapCatalog) List(_ context.Context) ([]menu.Item, error) {
	items := make([]menu.Item, 0, len(m))
	for name, price := range m {
		items = append(items, menu.Item{Name: name, Price: price})
	}
	return items, nil
}

func testCatalog() mapCatalog {
	return mapCatalog{
		"美式": decimal.NewFromInt(50),
		"拿鐵": decimal.NewFromInt(90),
	}
}

func row(name string, unitPrice int64, quantity int) cart.SummaryRow {
	return cart.SummaryRow{
		ItemName:  name,
		UnitPrice: decimal.NewFromInt(unitPrice),
		Quantity:  quantity,
		LineTotal: decimal.NewFromInt(unitPrice * int64(quantity)),
	}
}

func TestStore_AddAndSummarize(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	added, price, err := s.Add(ctx, "u1", "美式", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.True(t, price.Equal(decimal.NewFromInt(50)))

	got := s.Summarize("u1")
	want := []cart.SummaryRow{row("美式", 50, 1)}
	assert.Empty(t, cmp.Diff(want, got))

	_, _, err = s.Add(ctx, "u1", "拿鐵", 2, nil)
	require.NoError(t, err)

	got = s.Summarize("u1")
	want = []cart.SummaryRow{row("美式", 50, 1), row("拿鐵", 90, 2)}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestStore_Add_unknownItem(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	_, _, err := s.Add(ctx, "u2", "不存在品項", 1, nil)

	var notFound *cart.ItemNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "不存在品項", notFound.Item)
	assert.Empty(t, s.Summarize("u2"), "no phantom line must be added")
}

func TestStore_Add_zeroQuantity(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	added, price, err := s.Add(ctx, "u1", "美式", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.True(t, price.Equal(decimal.NewFromInt(50)))
	assert.Empty(t, s.Summarize("u1"))
}

func TestStore_Add_roundTrip(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	for range 5 {
		_, _, err := s.Add(ctx, "u1", "拿鐵", 1, nil)
		require.NoError(t, err)
	}

	got := s.Summarize("u1")
	want := []cart.SummaryRow{row("拿鐵", 90, 5)}
	assert.Empty(t, cmp.Diff(want, got), "N unit adds collapse into one row")
}

func TestStore_Add_frozenPrice(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	s := cart.NewStore(catalog)

	_, _, err := s.Add(ctx, "u1", "美式", 1, nil)
	require.NoError(t, err)

	// A later menu price change must not affect the line already added.
	catalog["美式"] = decimal.NewFromInt(60)
	_, _, err = s.Add(ctx, "u1", "美式", 1, nil)
	require.NoError(t, err)

	got := s.Summarize("u1")
	require.Len(t, got, 2)
	assert.True(t, got[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, got[1].UnitPrice.Equal(decimal.NewFromInt(60)))
}

func TestStore_Add_attributesSplitGroups(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	hot := map[string]string{"溫度": "熱"}
	iced := map[string]string{"溫度": "冰"}

	_, _, err := s.Add(ctx, "u1", "拿鐵", 1, hot)
	require.NoError(t, err)
	_, _, err = s.Add(ctx, "u1", "拿鐵", 2, iced)
	require.NoError(t, err)
	_, _, err = s.Add(ctx, "u1", "拿鐵", 1, hot)
	require.NoError(t, err)

	got := s.Summarize("u1")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, map[string]string{"溫度": "熱"}, got[0].Attributes)
	assert.Equal(t, 2, got[1].Quantity)
	assert.Equal(t, map[string]string{"溫度": "冰"}, got[1].Attributes)
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		addQty      int
		removeItem  string
		removeQty   int
		wantRemoved int
		wantErr     bool
		wantLeft    int
	}{
		{
			name:   "remove one of three",
			addQty: 3, removeItem: "美式", removeQty: 1,
			wantRemoved: 1, wantLeft: 2,
		},
		{
			name:   "remove more than present removes all",
			addQty: 2, removeItem: "美式", removeQty: 5,
			wantRemoved: 2, wantLeft: 0,
		},
		{
			name:   "remove zero is a no-op",
			addQty: 2, removeItem: "美式", removeQty: 0,
			wantRemoved: 0, wantLeft: 2,
		},
		{
			name:   "remove absent item",
			addQty: 2, removeItem: "拿鐵", removeQty: 1,
			wantErr: true, wantLeft: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cart.NewStore(testCatalog())
			_, _, err := s.Add(ctx, "u1", "美式", tt.addQty, nil)
			require.NoError(t, err)

			removed, err := s.Remove("u1", tt.removeItem, tt.removeQty)
			if tt.wantErr {
				var notFound *cart.ItemNotFoundError
				require.ErrorAs(t, err, &notFound)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRemoved, removed)
			}

			rows := s.Summarize("u1")
			left := 0
			for _, r := range rows {
				left += r.Quantity
			}
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestStore_Remove_restoresPriorSummary(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	_, _, err := s.Add(ctx, "u1", "美式", 2, nil)
	require.NoError(t, err)
	before := s.Summarize("u1")

	_, _, err = s.Add(ctx, "u1", "拿鐵", 3, nil)
	require.NoError(t, err)
	_, err = s.Remove("u1", "拿鐵", 3)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(before, s.Summarize("u1")),
		"add then remove of the same quantity must restore the prior summary")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	_, _, err := s.Add(ctx, "u1", "美式", 2, nil)
	require.NoError(t, err)

	s.Clear("u1")
	assert.Empty(t, s.Summarize("u1"))

	// Idempotent, including for users never seen before.
	s.Clear("u1")
	s.Clear("ghost")
	assert.Empty(t, s.Summarize("u1"))
}

func TestStore_Flush(t *testing.T) {
	ctx := context.Background()

	t.Run("export failure keeps the cart", func(t *testing.T) {
		s := cart.NewStore(testCatalog())
		_, _, err := s.Add(ctx, "u1", "美式", 2, nil)
		require.NoError(t, err)

		sentinel := assert.AnError
		err = s.Flush("u1", func([]cart.SummaryRow) error { return sentinel })
		require.ErrorIs(t, err, sentinel)

		assert.Empty(t, cmp.Diff([]cart.SummaryRow{row("美式", 50, 2)}, s.Summarize("u1")))
	})

	t.Run("export success clears the cart", func(t *testing.T) {
		s := cart.NewStore(testCatalog())
		_, _, err := s.Add(ctx, "u1", "美式", 2, nil)
		require.NoError(t, err)

		var exported []cart.SummaryRow
		err = s.Flush("u1", func(rows []cart.SummaryRow) error {
			exported = rows
			return nil
		})
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff([]cart.SummaryRow{row("美式", 50, 2)}, exported))
		assert.Empty(t, s.Summarize("u1"))
	})
}

func TestStore_concurrentUsers(t *testing.T) {
	ctx := context.Background()
	s := cart.NewStore(testCatalog())

	const (
		users  = 8
		rounds = 50
	)

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := string(rune('a' + i))
			for range rounds {
				_, _, err := s.Add(ctx, userID, "美式", 1, nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for i := range users {
		userID := string(rune('a' + i))
		rows := s.Summarize(userID)
		require.Len(t, rows, 1)
		assert.Equal(t, rounds, rows[0].Quantity)
	}
}
