// Package bot routes inbound customer messages to the cart, the order
// service, or the chat model, and formats every reply. It is the only layer
// that speaks to the user; the domain packages below it return errors, not
// prose.
package bot

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mochabot/chatcart/internal/chat"
	"github.com/mochabot/chatcart/internal/domain/cart"
	"github.com/mochabot/chatcart/internal/domain/order"
	"github.com/mochabot/chatcart/internal/parse"
)

// attrTemperature is the attribute key for hot/iced/warm drink variants.
const attrTemperature = "溫度"

// temperaturePrefixes are stripped from item names that miss the menu and
// retried as a temperature attribute on the bare name.
var temperaturePrefixes = []string{"熱", "冰", "溫"}

// viewCommands show the cart.
var viewCommands = []string{"查看購物車", "cart", "check cart"}

// removeKeywords mark a message as a removal request.
var removeKeywords = []string{"移除", "刪除", "拿掉"}

// confirmCommand confirms the order; an optional table number may follow.
const confirmCommand = "確認訂單"

// maxLineQuantity bounds a single extracted order line. The cart stores one
// line per unit, so an absurd quantity in a model reply must not be allowed
// to allocate that many lines.
const maxLineQuantity = 99

// Service handles one customer message at a time and returns the reply text.
type Service struct {
	carts     *cart.Store
	orders    *order.Service
	completer chat.Completer
	extractor *parse.Extractor
}

// DefaultExtractor returns an extractor over the default order vocabulary.
func DefaultExtractor() *parse.Extractor {
	return parse.NewExtractor(parse.DefaultVocabulary())
}

// NewService wires the conversation router.
func NewService(carts *cart.Store, orders *order.Service, completer chat.Completer, extractor *parse.Extractor) *Service {
	return &Service{
		carts:     carts,
		orders:    orders,
		completer: completer,
		extractor: extractor,
	}
}

// HandleMessage dispatches one inbound message and returns the reply. It
// never returns an error: every failure becomes a stable user-facing
// message, and unexpected ones are logged.
func (s *Service) HandleMessage(ctx context.Context, userID, text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case isViewCommand(lower):
		return renderCart(s.carts.Summarize(userID))
	case containsAnyKeyword(trimmed, removeKeywords):
		return s.handleRemove(userID, trimmed)
	case strings.HasPrefix(trimmed, confirmCommand):
		return s.handleConfirm(ctx, userID, tableNumberOf(trimmed))
	default:
		return s.handleOrder(ctx, userID, trimmed)
	}
}

func isViewCommand(lower string) bool {
	for _, c := range viewCommands {
		if lower == c {
			return true
		}
	}
	return false
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// tableNumberOf extracts the optional table number after the confirm
// command, e.g. "確認訂單 桌號3" or "確認訂單 3".
func tableNumberOf(text string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(text, confirmCommand))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "桌號"))
	return rest
}

// handleOrder asks the chat model for a reply, extracts order lines from it,
// and adds them to the cart. Lines whose quantity could not be normalized
// are skipped. The model reply is always included so the customer sees what
// the assistant said.
func (s *Service) handleOrder(ctx context.Context, userID, text string) string {
	reply, err := s.completer.Complete(ctx, text)
	if err != nil {
		zctx.From(ctx).Error("Chat completion failed", zap.Error(err))
		return msgChatUnavailable
	}

	lines := s.extractor.Extract(reply)
	parts := []string{reply}
	added := false
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > maxLineQuantity {
			continue
		}
		parts = append(parts, s.addToCart(ctx, userID, l.ItemName, l.Quantity))
		added = true
	}
	if !added {
		parts = append(parts, msgNoItemsInReply)
	}
	return strings.Join(parts, "\n")
}

// addToCart adds one extracted line. A name like 熱美式 that misses the menu
// is retried as 美式 with a temperature attribute before giving up.
func (s *Service) addToCart(ctx context.Context, userID, itemName string, quantity int) string {
	added, _, err := s.carts.Add(ctx, userID, itemName, quantity, nil)
	if err == nil {
		return msgAdded(added, itemName)
	}

	var notFound *cart.ItemNotFoundError
	if errors.As(err, &notFound) {
		for _, prefix := range temperaturePrefixes {
			bare := strings.TrimPrefix(itemName, prefix)
			if bare == itemName || bare == "" {
				continue
			}
			attrs := map[string]string{attrTemperature: prefix}
			if _, _, err := s.carts.Add(ctx, userID, bare, quantity, attrs); err == nil {
				return msgAdded(quantity, itemName)
			}
			break
		}
		return msgItemNotFound(itemName)
	}

	zctx.From(ctx).Error("Cart add failed",
		zap.String("item", itemName),
		zap.Error(err),
	)
	return msgItemNotFound(itemName)
}

// handleRemove extracts lines from the user's own message and removes them.
func (s *Service) handleRemove(userID, text string) string {
	lines := s.extractor.Extract(text)
	if len(lines) == 0 {
		return msgNoItemsToRemove
	}

	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		quantity := l.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		parts = append(parts, s.removeFromCart(userID, l.ItemName, quantity))
	}
	return strings.Join(parts, "\n")
}

// removeFromCart removes one extracted line, retrying a temperature-prefixed
// name as the bare item the same way addToCart does, so the words that added
// an item also remove it. Cart lines are matched by name only.
func (s *Service) removeFromCart(userID, itemName string, quantity int) string {
	removed, err := s.carts.Remove(userID, itemName, quantity)
	if err == nil {
		return msgRemoved(removed, itemName)
	}

	var notFound *cart.ItemNotFoundError
	if errors.As(err, &notFound) {
		for _, prefix := range temperaturePrefixes {
			bare := strings.TrimPrefix(itemName, prefix)
			if bare == itemName || bare == "" {
				continue
			}
			if removed, err := s.carts.Remove(userID, bare, quantity); err == nil {
				return msgRemoved(removed, itemName)
			}
			break
		}
	}
	return msgNotInCart(itemName)
}

// handleConfirm runs the confirm sequence: build record, write externally,
// clear cart on success. A write failure keeps the cart and tells the user
// to retry.
func (s *Service) handleConfirm(ctx context.Context, userID, tableNumber string) string {
	rec, err := s.orders.Confirm(ctx, userID, tableNumber)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			return msgConfirmEmpty
		}
		zctx.From(ctx).Error("Order confirmation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return msgWriteFailed
	}
	return msgConfirmed(rec.OrderID, rec.Total)
}
