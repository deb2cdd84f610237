package gateway

import (
	"errors"
	"testing"
)

const secret = "whsec_test"

func TestParseEvent(t *testing.T) {
	body := []byte(`{"id":"evt-1","type":"payment_succeeded","metadata":{"order_id":"ord-1"},"payer_email":"a@b.c","amount_paid_minor_units":2700}`)

	t.Run("valid signature decodes the event", func(t *testing.T) {
		ev, err := ParseEvent(secret, body, Sign(secret, body))
		if err != nil {
			t.Fatal(err)
		}
		if ev.ID != "evt-1" || ev.Type != EventPaymentSucceeded {
			t.Fatalf("event = %+v", ev)
		}
		if ev.Metadata[MetaOrderID] != "ord-1" || ev.AmountCents != 2700 {
			t.Fatalf("event = %+v", ev)
		}
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		sig := Sign(secret, body)
		tampered := []byte(`{"id":"evt-1","type":"payment_succeeded","amount_paid_minor_units":1}`)
		if _, err := ParseEvent(secret, tampered, sig); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("got %v, want ErrBadSignature", err)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		if _, err := ParseEvent("whsec_other", body, Sign(secret, body)); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("got %v, want ErrBadSignature", err)
		}
	})

	t.Run("missing id or type is rejected even when signed", func(t *testing.T) {
		bare := []byte(`{"metadata":{}}`)
		if _, err := ParseEvent(secret, bare, Sign(secret, bare)); err == nil {
			t.Fatal("want error for event without id/type")
		}
	})

	t.Run("garbage body is rejected even when signed", func(t *testing.T) {
		junk := []byte(`not-json`)
		if _, err := ParseEvent(secret, junk, Sign(secret, junk)); err == nil {
			t.Fatal("want decode error")
		}
	})
}
