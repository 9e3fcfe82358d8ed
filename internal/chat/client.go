package chat

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// maxResponseBytes caps how much of the completion response is read.
const maxResponseBytes = 1 << 20

// ClientConfig configures the chat-completions HTTP client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// SystemPrompts are sent before the user message on every request. The
	// menu context prompt belongs here.
	SystemPrompts []string
}

// Client implements Completer against an OpenAI-compatible chat-completions
// endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

var _ Completer = (*Client)(nil)

// NewClient creates a Client with its own timeout-bounded HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends the user message with the configured system prompts and
// returns the first choice's content.
func (c *Client) Complete(ctx context.Context, userText string) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("model", func(e *jx.Encoder) { e.Str(c.cfg.Model) })
		e.Field("messages", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range c.cfg.SystemPrompts {
					encodeMessage(e, "system", p)
				}
				encodeMessage(e, "user", userText)
			})
		})
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(e.Bytes()))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("chat completion: status %d", resp.StatusCode)
	}

	content, err := decodeContent(body)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return content, nil
}

func encodeMessage(e *jx.Encoder, role, content string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("role", func(e *jx.Encoder) { e.Str(role) })
		e.Field("content", func(e *jx.Encoder) { e.Str(content) })
	})
}

// decodeContent pulls choices[0].message.content out of the completion
// response, skipping everything else.
func decodeContent(body []byte) (string, error) {
	var content string
	found := false

	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "choices" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			if found {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "message" {
					return d.Skip()
				}
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "content" {
						return d.Skip()
					}
					s, err := d.Str()
					if err != nil {
						return err
					}
					content = s
					found = true
					return nil
				})
			})
		})
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.New("no choices in response")
	}
	return content, nil
}
