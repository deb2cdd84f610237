package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	kafkax "github.com/ariefcatur/go-pack-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
	kafkago "github.com/segmentio/kafka-go"
)

type fakeShipping struct {
	calls int
	fail  error
}

func (f *fakeShipping) GetRates(_ context.Context, _ shipping.Address, _ []shipping.Parcel) ([]shipping.Rate, error) {
	return nil, nil
}

func (f *fakeShipping) CreateShipment(_ context.Context, rateID string) (shipping.Shipment, error) {
	f.calls++
	if f.fail != nil {
		return shipping.Shipment{}, f.fail
	}
	return shipping.Shipment{TrackingNumber: "TRK-1", TrackingURL: "https://track.example/TRK-1", LabelCostCents: 450}, nil
}

func confirmedMessage(t *testing.T, p checkout.OrderConfirmedPayload) kafkago.Message {
	t.Helper()
	env := checkout.Envelope{
		EventID:       "evt-1",
		EventType:     checkout.EventOrderConfirmed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "api-test",
		CorrelationID: p.OrderID,
		Payload:       kafkax.MustMarshal(p),
	}
	return kafkago.Message{Key: checkout.PartitionKey(p.OrderID), Value: kafkax.MustMarshal(env)}
}

func seedConfirmedOrder(t *testing.T, store *orders.Memory) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateAwaitingPayment(ctx, orders.Order{ID: "ord-1", GuestID: "g-1", ShippingRateID: "rate-1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkPaidAndCommit(ctx, "ord-1", ""); err != nil {
		t.Fatal(err)
	}
}

func TestHandleOrderConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("buys a label and stores the tracking info", func(t *testing.T) {
		store := orders.NewMemory(stock.NewMemory())
		seedConfirmedOrder(t, store)
		ship := &fakeShipping{}
		svc := &Service{Orders: store, Shipping: ship, ServiceName: "fulfillment-test"}

		msg := confirmedMessage(t, checkout.OrderConfirmedPayload{OrderID: "ord-1", RateID: "rate-1"})
		if err := svc.HandleOrderConfirmed(ctx, msg); err != nil {
			t.Fatal(err)
		}
		o, _ := store.Get(ctx, "ord-1")
		if o.TrackingNumber != "TRK-1" || o.LabelCostCents != 450 {
			t.Fatalf("order = %+v", o)
		}
	})

	t.Run("no rate chosen at checkout means no shipment", func(t *testing.T) {
		store := orders.NewMemory(stock.NewMemory())
		seedConfirmedOrder(t, store)
		ship := &fakeShipping{}
		svc := &Service{Orders: store, Shipping: ship}

		msg := confirmedMessage(t, checkout.OrderConfirmedPayload{OrderID: "ord-1"})
		if err := svc.HandleOrderConfirmed(ctx, msg); err != nil {
			t.Fatal(err)
		}
		if ship.calls != 0 {
			t.Fatalf("shipping calls = %d, want 0", ship.calls)
		}
	})

	t.Run("carrier failure is swallowed, order untouched", func(t *testing.T) {
		store := orders.NewMemory(stock.NewMemory())
		seedConfirmedOrder(t, store)
		ship := &fakeShipping{fail: shipping.ErrUnavailable}
		svc := &Service{Orders: store, Shipping: ship}

		msg := confirmedMessage(t, checkout.OrderConfirmedPayload{OrderID: "ord-1", RateID: "rate-1"})
		if err := svc.HandleOrderConfirmed(ctx, msg); err != nil {
			t.Fatalf("carrier failure must not bubble into a consumer retry: %v", err)
		}
		o, _ := store.Get(ctx, "ord-1")
		if o.TrackingNumber != "" {
			t.Fatalf("tracking = %q, want empty", o.TrackingNumber)
		}
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		store := orders.NewMemory(stock.NewMemory())
		ship := &fakeShipping{}
		svc := &Service{Orders: store, Shipping: ship}

		env := checkout.Envelope{EventID: "evt-2", EventType: checkout.EventPaymentFailed, Payload: kafkax.MustMarshal(checkout.PaymentFailedPayload{OrderID: "ord-9"})}
		msg := kafkago.Message{Value: kafkax.MustMarshal(env)}
		if err := svc.HandleOrderConfirmed(ctx, msg); err != nil {
			t.Fatal(err)
		}
		if ship.calls != 0 {
			t.Fatalf("shipping calls = %d, want 0", ship.calls)
		}
	})

	t.Run("garbage message errors for the consumer to retry", func(t *testing.T) {
		svc := &Service{Orders: orders.NewMemory(stock.NewMemory()), Shipping: &fakeShipping{}}
		if err := svc.HandleOrderConfirmed(ctx, kafkago.Message{Value: []byte("not-json")}); err == nil {
			t.Fatal("want decode error")
		}
	})
}
