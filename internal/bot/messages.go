package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mochabot/chatcart/internal/domain/cart"
)

// User-facing reply texts. Every core error is converted into one of these
// before it reaches the messaging transport.
const (
	msgCartEmpty       = "您的購物車是空的。"
	msgNoItemsInReply  = "無法從回應中提取品項名稱。"
	msgNoItemsToRemove = "無法從指令中提取要移除的品項名稱。"
	msgConfirmEmpty    = "購物車是空的，無法確認訂單。"
	msgWriteFailed     = "訂單送出失敗，請稍後再試，購物車內容已保留。"
	msgChatUnavailable = "目前無法處理您的訊息，請稍後再試。"
)

func msgAdded(quantity int, itemName string) string {
	return fmt.Sprintf("已將 %d 杯 %s 加入購物車。", quantity, itemName)
}

func msgItemNotFound(itemName string) string {
	return fmt.Sprintf("菜單中找不到品項 %s。", itemName)
}

func msgRemoved(count int, itemName string) string {
	return fmt.Sprintf("已從購物車中移除 %d 個 %s。", count, itemName)
}

func msgNotInCart(itemName string) string {
	return fmt.Sprintf("購物車中沒有找到 %s。", itemName)
}

func msgConfirmed(orderID string, total decimal.Decimal) string {
	return fmt.Sprintf("訂單已確認，訂單編號 %s，總計 %s 元。", orderID, total.String())
}

func renderCart(rows []cart.SummaryRow) string {
	if len(rows) == 0 {
		return msgCartEmpty
	}

	var b strings.Builder
	b.WriteString("當前購物車:")
	total := decimal.Zero
	for _, r := range rows {
		name := r.ItemName
		if t, ok := r.Attributes[attrTemperature]; ok {
			name = t + name
		}
		fmt.Fprintf(&b, "\n品項: %s 價格: %s 數量: %d", name, r.UnitPrice.String(), r.Quantity)
		total = total.Add(r.LineTotal)
	}
	fmt.Fprintf(&b, "\n總計: %s 元", total.String())
	return b.String()
}
