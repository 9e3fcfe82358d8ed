// Package handler exposes the messaging-platform webhook over HTTP. It
// decodes inbound events, hands text messages to the bot, and replies
// through the transport's reply endpoint. Signature verification belongs to
// the platform edge in front of this service.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// maxBodyBytes caps the webhook request body size.
const maxBodyBytes = 1 << 20

// Bot handles one inbound text message and produces the reply text.
type Bot interface {
	HandleMessage(ctx context.Context, userID, text string) string
}

// Replier delivers a reply over the messaging transport.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// event is one decoded webhook event. Only text message events are handled;
// everything else is ignored.
type event struct {
	Type       string
	ReplyToken string
	UserID     string
	Text       string
	isText     bool
}

// Webhook is the HTTP handler for the messaging platform callback.
type Webhook struct {
	bot     Bot
	replier Replier
}

// NewWebhook creates the callback handler.
func NewWebhook(bot Bot, replier Replier) *Webhook {
	return &Webhook{bot: bot, replier: replier}
}

// Callback handles POST callbacks from the messaging platform. Malformed
// payloads get 400; everything else gets 200 with "OK", matching what the
// platform expects regardless of how individual events were handled.
func (h *Webhook) Callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		zctx.From(r.Context()).Warn("Malformed webhook payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	for _, ev := range events {
		if ev.Type != "message" || !ev.isText || ev.UserID == "" {
			continue
		}

		reply := h.bot.HandleMessage(ctx, ev.UserID, ev.Text)
		if err := h.replier.Reply(ctx, ev.ReplyToken, reply); err != nil {
			// Reply failures are transport trouble, not order loss: the cart
			// state already reflects the handled message.
			zctx.From(ctx).Error("Reply failed",
				zap.String("user_id", ev.UserID),
				zap.Error(err),
			)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// decodeEvents parses the webhook body. Unknown fields are skipped so new
// platform fields never break the handler.
func decodeEvents(body []byte) ([]event, error) {
	var events []event

	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "events" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			ev, err := decodeEvent(d)
			if err != nil {
				return err
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func decodeEvent(d *jx.Decoder) (event, error) {
	var ev event
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			s, err := d.Str()
			ev.Type = s
			return err
		case "replyToken":
			s, err := d.Str()
			ev.ReplyToken = s
			return err
		case "source":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "userId" {
					return d.Skip()
				}
				s, err := d.Str()
				ev.UserID = s
				return err
			})
		case "message":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "type":
					s, err := d.Str()
					ev.isText = s == "text"
					return err
				case "text":
					s, err := d.Str()
					ev.Text = s
					return err
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	return ev, err
}
