// Package chat talks to the LLM endpoint that answers customers in natural
// language. The core only consumes the reply text; everything about the
// model is a collaborator concern.
package chat

import (
	"context"
	"strings"

	"github.com/mochabot/chatcart/internal/domain/menu"
)

// Completer produces the assistant reply for one customer message.
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// MenuPrompt renders the menu as the context string injected into the system
// prompt, listing category, item, price, and tags column by column.
func MenuPrompt(items []menu.Item) string {
	categories := make([]string, len(items))
	names := make([]string, len(items))
	prices := make([]string, len(items))
	tags := make([]string, len(items))
	for i, it := range items {
		categories[i] = it.Category
		names[i] = it.Name
		prices[i] = it.Price.String()
		tags[i] = strings.Join(it.Tags, "|")
	}
	return "Category: [" + strings.Join(categories, ", ") + "], " +
		"Item: [" + strings.Join(names, ", ") + "], " +
		"Price: [" + strings.Join(prices, ", ") + "], " +
		"Tag: [" + strings.Join(tags, ", ") + "]"
}
