// Package sheets appends confirmed orders to a remote spreadsheet endpoint
// over HTTP. The endpoint (typically an Apps Script web app) owns the actual
// spreadsheet semantics.
package sheets

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/mochabot/chatcart/internal/domain/order"
)

// Config configures the sheet writer.
type Config struct {
	// URL receives one POST per confirmed order.
	URL string
	// Token, when set, is sent as a bearer token.
	Token   string
	Timeout time.Duration
}

// Writer implements order.Writer by posting the order as JSON. Any non-2xx
// response is a failure; the caller keeps the cart and retries.
type Writer struct {
	cfg  Config
	http *http.Client
}

var _ order.Writer = (*Writer)(nil)

// NewWriter creates a Writer with its own timeout-bounded HTTP client.
func NewWriter(cfg Config) *Writer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Writer{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Append posts the order record to the configured endpoint.
func (w *Writer) Append(ctx context.Context, rec *order.Record) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_id", func(e *jx.Encoder) { e.Str(rec.OrderID) })
		e.Field("ordered_at", func(e *jx.Encoder) { e.Str(rec.Timestamp) })
		e.Field("table_number", func(e *jx.Encoder) { e.Str(rec.TableNumber) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(rec.Total.InexactFloat64()) })
		e.Field("rows", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, row := range rec.Rows {
					e.Obj(func(e *jx.Encoder) {
						e.Field("item", func(e *jx.Encoder) { e.Str(row.ItemName) })
						if len(row.Attributes) > 0 {
							e.Field("attributes", func(e *jx.Encoder) {
								e.Obj(func(e *jx.Encoder) {
									for k, v := range row.Attributes {
										e.Field(k, func(e *jx.Encoder) { e.Str(v) })
									}
								})
							})
						}
						e.Field("unit_price", func(e *jx.Encoder) { e.Float64(row.UnitPrice.InexactFloat64()) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(row.Quantity) })
						e.Field("line_total", func(e *jx.Encoder) { e.Float64(row.LineTotal.InexactFloat64()) })
					})
				}
			})
		})
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post order")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("post order %s: status %d", rec.OrderID, resp.StatusCode)
	}
	return nil
}
