package gateway

import (
	"context"
	"errors"
)

// ErrUnavailable: gateway tidak bisa dihubungi; retryable oleh caller, state
// lokal tidak boleh berubah.
var ErrUnavailable = errors.New("gateway: unavailable")

type LineItem struct {
	Name        string `json:"name"`
	Qty         int    `json:"qty"`
	AmountCents int    `json:"amount_cents"`
}

type SessionRequest struct {
	LineItems []LineItem `json:"line_items"`
	// Metadata: correlation — "order_id" utk retry-payment, "snapshot" (JSON)
	// utk checkout baru tanpa order row.
	Metadata   map[string]string `json:"metadata"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client: satu-satunya panggilan keluar ke gateway; wajib cancellable via ctx.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}
