package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mochabot/chatcart/internal/domain/cart"
)

const (
	orderIDFormat   = "01021504"
	timestampFormat = "2006-01-02 15:04:05"
)

// Service turns a user's cart into order records and hands them to the
// configured writer. The cart is cleared only after the writer reports
// success; a failed external write never loses the user's cart.
type Service struct {
	carts  *cart.Store
	writer Writer
	now    func() time.Time
}

// NewService creates an order Service over the given cart store and writer.
func NewService(carts *cart.Store, writer Writer) *Service {
	return &Service{
		carts:  carts,
		writer: writer,
		now:    time.Now,
	}
}

func buildRecord(userID, tableNumber string, now time.Time, rows []cart.SummaryRow) *Record {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.LineTotal)
	}
	return &Record{
		OrderID:     now.Format(orderIDFormat),
		Timestamp:   now.Format(timestampFormat),
		OrderedAt:   now,
		TableNumber: tableNumber,
		UserID:      userID,
		Rows:        rows,
		Total:       total,
	}
}

// Build computes the order record for the user's current cart without
// writing anything or clearing the cart. Returns ErrEmptyCart when there is
// nothing to order.
func (s *Service) Build(userID, tableNumber string) (*Record, error) {
	rows := s.carts.Summarize(userID)
	if len(rows) == 0 {
		return nil, ErrEmptyCart
	}
	return buildRecord(userID, tableNumber, s.now(), rows), nil
}

// Confirm builds the order record, appends it through the writer, and clears
// the cart on success. The whole sequence holds the user's cart lock, so
// concurrent adds for the same user are ordered strictly before or after the
// confirmation. On writer failure the cart is preserved for retry and the
// error is returned.
func (s *Service) Confirm(ctx context.Context, userID, tableNumber string) (*Record, error) {
	var rec *Record
	err := s.carts.Flush(userID, func(rows []cart.SummaryRow) error {
		if len(rows) == 0 {
			return ErrEmptyCart
		}
		rec = buildRecord(userID, tableNumber, s.now(), rows)
		if err := s.writer.Append(ctx, rec); err != nil {
			return errors.Wrap(err, "append order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
