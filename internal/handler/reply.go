package handler

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ReplierConfig configures the HTTP reply transport.
type ReplierConfig struct {
	// URL is the platform reply endpoint.
	URL string
	// Token is the channel access token, sent as a bearer token.
	Token   string
	Timeout time.Duration
}

// HTTPReplier posts replies back to the messaging platform.
type HTTPReplier struct {
	cfg  ReplierConfig
	http *http.Client
}

var _ Replier = (*HTTPReplier)(nil)

// NewHTTPReplier creates a replier with its own timeout-bounded HTTP client.
func NewHTTPReplier(cfg ReplierConfig) *HTTPReplier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPReplier{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Reply sends one text message for the given reply token.
func (r *HTTPReplier) Reply(ctx context.Context, replyToken, text string) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("replyToken", func(e *jx.Encoder) { e.Str(replyToken) })
		e.Field("messages", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("type", func(e *jx.Encoder) { e.Str("text") })
					e.Field("text", func(e *jx.Encoder) { e.Str(text) })
				})
			})
		})
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.Token)

	resp, err := r.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post reply")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("post reply: status %d", resp.StatusCode)
	}
	return nil
}
