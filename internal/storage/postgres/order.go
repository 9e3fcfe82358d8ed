package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mochabot/chatcart/internal/domain/cart"
	"github.com/mochabot/chatcart/internal/domain/order"
)

var _ order.Writer = (*OrderArchive)(nil)

// OrderArchive implements order.Writer backed by PostgreSQL, keeping a
// durable copy of every confirmed order alongside the spreadsheet export.
type OrderArchive struct {
	pool *pgxpool.Pool
}

// NewOrderArchive returns an OrderArchive that uses the given pool.
func NewOrderArchive(pool *pgxpool.Pool) *OrderArchive {
	return &OrderArchive{pool: pool}
}

// archiveRow is the JSONB shape of one summary row.
type archiveRow struct {
	Item       string            `json:"item"`
	Attributes map[string]string `json:"attributes,omitempty"`
	UnitPrice  string            `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	LineTotal  string            `json:"line_total"`
}

// Append persists an order record. The summary rows are serialized to JSON
// for storage in the JSONB column, with decimal amounts kept as strings.
func (a *OrderArchive) Append(ctx context.Context, rec *order.Record) error {
	rowsJSON, err := json.Marshal(toArchiveRows(rec.Rows))
	if err != nil {
		return fmt.Errorf("marshaling order rows: %w", err)
	}

	const q = `
		INSERT INTO orders (order_id, user_id, table_number, total, rows, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = a.pool.Exec(ctx, q,
		rec.OrderID, rec.UserID, rec.TableNumber, rec.Total, rowsJSON, rec.OrderedAt)
	if err != nil {
		return fmt.Errorf("archiving order %q: %w", rec.OrderID, err)
	}
	return nil
}

func toArchiveRows(rows []cart.SummaryRow) []archiveRow {
	out := make([]archiveRow, len(rows))
	for i, r := range rows {
		out[i] = archiveRow{
			Item:       r.ItemName,
			Attributes: r.Attributes,
			UnitPrice:  r.UnitPrice.String(),
			Quantity:   r.Quantity,
			LineTotal:  r.LineTotal.String(),
		}
	}
	return out
}
