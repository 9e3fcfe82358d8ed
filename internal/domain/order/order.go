package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mochabot/chatcart/internal/domain/cart"
)

// ErrEmptyCart is returned when an order is built from a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Record is a confirmed order as handed to external sinks. It is derived at
// confirmation time and discarded afterwards; the carts remain the only
// in-process state.
type Record struct {
	// OrderID is derived from the local time (MMDDhhmm). It is not globally
	// unique; collisions under concurrent confirmations are an accepted
	// limitation.
	OrderID string
	// Timestamp is a fixed-width local time string for spreadsheet rows.
	Timestamp   string
	OrderedAt   time.Time
	TableNumber string
	UserID      string
	Rows        []cart.SummaryRow
	Total       decimal.Decimal
}

// Writer durably records a confirmed order in an external system. Retries
// and backoff belong to the writer; the core only distinguishes success
// from failure.
type Writer interface {
	Append(ctx context.Context, rec *Record) error
}

// MultiWriter fans an order out to several sinks. Append succeeds only when
// every sink succeeds. A partial failure keeps the cart intact so the user
// can retry, which may duplicate rows in sinks that already accepted the
// order.
type MultiWriter []Writer

func (m MultiWriter) Append(ctx context.Context, rec *Record) error {
	for i, w := range m {
		if err := w.Append(ctx, rec); err != nil {
			return errors.Wrapf(err, "writer %d", i)
		}
	}
	return nil
}
