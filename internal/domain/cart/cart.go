package cart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is one physical unit of one item. The unit price is frozen when the
// line is added; later menu changes never affect lines already in a cart.
type Line struct {
	ItemName   string
	UnitPrice  decimal.Decimal
	Attributes map[string]string
}

// SummaryRow is a grouped view of a cart: all lines sharing an item name and
// attribute set collapse into one row. Rows are derived on demand and never
// stored.
type SummaryRow struct {
	ItemName   string
	Attributes map[string]string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
}

// ItemNotFoundError indicates an item name that is absent from the menu (on
// add) or from the cart (on remove).
type ItemNotFoundError struct {
	Item string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.Item)
}

// groupKey canonicalizes an (item name, attributes) pair for grouping.
// Attribute keys are sorted so map iteration order cannot split groups.
func groupKey(name string, attrs map[string]string) string {
	if len(attrs) == 0 {
		return name
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrs[k])
	}
	return b.String()
}
