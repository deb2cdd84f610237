package checkout

import (
	"encoding/json"
	"time"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
	EventPaymentFailed  = "PaymentFailed"
)

const (
	TopicOrderConfirmed = "storefront.order.confirmed"
	TopicPaymentFailed  = "storefront.order.payment_failed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderConfirmedPayload struct {
	OrderID    string   `json:"order_id"`
	OwnerKey   string   `json:"owner_key"`
	Email      string   `json:"email,omitempty"`
	TotalCents int      `json:"total_cents"`
	RateID     string   `json:"rate_id,omitempty"`
	ItemNames  []string `json:"item_names,omitempty"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}
