package postgres_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mochabot/chatcart/internal/domain/cart"
	"github.com/mochabot/chatcart/internal/domain/order"
	"github.com/mochabot/chatcart/internal/storage/postgres"
)

type orderArchiveSuite struct {
	suite.Suite

	archive *postgres.OrderArchive
	pool    *pgxpool.Pool
}

// entry point to run the tests in the suite
func TestOrderArchiveSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	suite.Run(t, new(orderArchiveSuite))
}

// before all tests in the suite
func (suite *orderArchiveSuite) SetupSuite() {
	ctx := suite.T().Context()

	_, connStr, err := startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = postgres.NewPool(ctx, connStr)
	suite.NoError(err)

	suite.archive = postgres.NewOrderArchive(suite.pool)
}

// after all tests in the suite
func (suite *orderArchiveSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *orderArchiveSuite) TestAppend() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	rec := &order.Record{
		OrderID:     "03150930",
		Timestamp:   "2024-03-15 09:30:45",
		OrderedAt:   time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC),
		TableNumber: "5",
		UserID:      gofakeit.UUID(),
		Rows: []cart.SummaryRow{
			{
				ItemName:  "美式",
				UnitPrice: decimal.NewFromInt(50),
				Quantity:  1,
				LineTotal: decimal.NewFromInt(50),
			},
			{
				ItemName:   "拿鐵",
				Attributes: map[string]string{"溫度": "熱"},
				UnitPrice:  decimal.NewFromInt(90),
				Quantity:   2,
				LineTotal:  decimal.NewFromInt(180),
			},
		},
		Total: decimal.NewFromInt(230),
	}
	require.NoError(t, suite.archive.Append(ctx, rec))

	var (
		orderID     string
		userID      string
		tableNumber string
		total       decimal.Decimal
		rowsJSON    []byte
		orderedAt   time.Time
	)
	err := suite.pool.QueryRow(ctx,
		`SELECT order_id, user_id, table_number, total, rows, ordered_at FROM orders`,
	).Scan(&orderID, &userID, &tableNumber, &total, &rowsJSON, &orderedAt)
	require.NoError(t, err)

	assert.Equal(t, rec.OrderID, orderID)
	assert.Equal(t, rec.UserID, userID)
	assert.Equal(t, rec.TableNumber, tableNumber)
	assert.True(t, total.Equal(rec.Total))
	assert.True(t, orderedAt.Equal(rec.OrderedAt))

	var rows []struct {
		Item       string            `json:"item"`
		Attributes map[string]string `json:"attributes"`
		UnitPrice  string            `json:"unit_price"`
		Quantity   int               `json:"quantity"`
		LineTotal  string            `json:"line_total"`
	}
	require.NoError(t, json.Unmarshal(rowsJSON, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "美式", rows[0].Item)
	assert.Equal(t, "50", rows[0].UnitPrice)
	assert.Equal(t, 1, rows[0].Quantity)
	assert.Empty(t, rows[0].Attributes)

	assert.Equal(t, "拿鐵", rows[1].Item)
	assert.Equal(t, map[string]string{"溫度": "熱"}, rows[1].Attributes)
	assert.Equal(t, "180", rows[1].LineTotal)
}

func (suite *orderArchiveSuite) TestAppend_multipleOrdersSameID() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	// Two orders confirmed in the same minute share an order_id; both rows
	// must be kept.
	for _, userID := range []string{gofakeit.UUID(), gofakeit.UUID()} {
		rec := &order.Record{
			OrderID:   "03150930",
			OrderedAt: time.Now(),
			UserID:    userID,
			Rows: []cart.SummaryRow{{
				ItemName:  "美式",
				UnitPrice: decimal.NewFromInt(50),
				Quantity:  1,
				LineTotal: decimal.NewFromInt(50),
			}},
			Total: decimal.NewFromInt(50),
		}
		require.NoError(t, suite.archive.Append(ctx, rec))
	}

	var count int
	err := suite.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE order_id = '03150930'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func (suite *orderArchiveSuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE orders CASCADE")
	suite.NoError(err)
}
