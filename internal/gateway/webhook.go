package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"

	SignatureHeader = "X-Gateway-Signature"

	MetaOrderID  = "order_id"
	MetaSnapshot = "snapshot"
)

var ErrBadSignature = errors.New("gateway: bad webhook signature")

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Event: payload webhook dari gateway setelah verifikasi signature.
type Event struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Metadata     map[string]string `json:"metadata"`
	PayerEmail   string            `json:"payer_email"`
	PayerAddress Address           `json:"payer_address"`
	AmountCents  int               `json:"amount_paid_minor_units"`
}

// VerifySignature: HMAC-SHA256 hex atas raw body. Gagal verifikasi harus
// short-circuit SEBELUM ada mutasi state apa pun.
func VerifySignature(secret string, payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// ParseEvent: verifikasi dulu, baru decode.
func ParseEvent(secret string, payload []byte, signature string) (Event, error) {
	if err := VerifySignature(secret, payload, signature); err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, fmt.Errorf("webhook event missing id/type")
	}
	return ev, nil
}

// Sign: helper utk test & simulasi.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
