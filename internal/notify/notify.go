package notify

import (
	"context"
	"log"
)

type OrderSummary struct {
	OrderID    string   `json:"order_id"`
	TotalCents int      `json:"total_cents"`
	ItemNames  []string `json:"item_names"`
}

// Sender: fire-and-forget dari sisi core; gagal kirim cuma dicatat, tidak
// pernah dipropagasi sebagai kegagalan checkout.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, recipient string, summary OrderSummary) error
}

// LogSender: implementasi default — rendering email ada di collaborator luar,
// di sini cukup dicatat.
type LogSender struct{}

func (LogSender) SendOrderConfirmation(_ context.Context, recipient string, summary OrderSummary) error {
	log.Printf("order confirmation -> %s (order=%s total_cents=%d)", recipient, summary.OrderID, summary.TotalCents)
	return nil
}
