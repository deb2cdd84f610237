package redisx

import "time"

const (
	// Dedup webhook gateway: dedup:webhook:{event_id}
	KeyWebhookDedup = "dedup:webhook:%s"

	// Dedup event kafka per consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status":"...","payment_status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Idempotency checkout session per owner: idem:checkout:{owner_key} -> session_id
	KeyIdemCheckout = "idem:checkout:%s"
)

var (
	TTLWebhookDedup = 48 * time.Hour
	TTLDedup        = 48 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLIdemCheckout = 30 * time.Minute
)
