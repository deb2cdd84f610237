package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/cart"
	"github.com/ariefcatur/go-pack-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-pack-storefront.git/internal/identity"
	kafkax "github.com/ariefcatur/go-pack-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-pack-storefront.git/internal/notify"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

var ErrEmptyCart = errors.New("checkout: cart is empty")

// Coordinator: dua jalur masuk ke state akhir yg sama.
// Path A: cart -> intent beku -> sesi gateway (tanpa row order utk checkout baru).
// Path B: event konfirmasi gateway -> commit stok sekali + materialisasi/update order.
type Coordinator struct {
	Cart     *cart.Service
	Orders   orders.Store
	Engine   *reservation.Engine
	Gateway  gateway.Client
	Redis    *redis.Client
	Notifier notify.Sender

	ProducerConfirmed *kafkax.Producer
	ProducerFailed    *kafkax.Producer

	ServiceName string
	SuccessURL  string
	CancelURL   string
}

// ---- Path A ----

// StartCheckout: checkout baru (deferred creation). Cart TIDAK disentuh —
// reservation tetap jalan terus dan baru dikonsumsi saat webhook paid datang;
// attempt yg abandoned tidak meninggalkan apa-apa selain sesi gateway.
func (c *Coordinator) StartCheckout(ctx context.Context, owner identity.Owner, guestEmail, rateID string, shippingCents int) (gateway.Session, error) {
	snap, lineItems, err := c.freeze(ctx, owner, guestEmail, rateID, shippingCents)
	if err != nil {
		return gateway.Session{}, err
	}

	sess, err := c.Gateway.CreateCheckoutSession(ctx, gateway.SessionRequest{
		LineItems:  lineItems,
		Metadata:   map[string]string{gateway.MetaSnapshot: snap.Marshal()},
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
	})
	if err != nil {
		return gateway.Session{}, err
	}
	c.cacheSessionID(ctx, owner.Key, sess.ID)
	return sess, nil
}

// PlaceOrder: varian sinkron — order pending/pending dibuat dulu dari cart,
// cart dikonsumsi (line dihapus TANPA release, reservation pindah ke order),
// lalu sesi gateway dibuat dgn referensi order_id. Kalau gateway down, order
// tetap utuh dan bisa dicoba lagi lewat RetryPayment.
func (c *Coordinator) PlaceOrder(ctx context.Context, owner identity.Owner, guestEmail, rateID string, shippingCents int) (orders.Order, gateway.Session, error) {
	snap, lineItems, err := c.freeze(ctx, owner, guestEmail, rateID, shippingCents)
	if err != nil {
		return orders.Order{}, gateway.Session{}, err
	}

	o := orderFromSnapshot(snap, "")
	o.Status = orders.StatusPending
	o.PaymentStatus = orders.PaymentPending
	if err := c.Orders.CreateAwaitingPayment(ctx, o); err != nil {
		return orders.Order{}, gateway.Session{}, err
	}
	if err := c.Cart.Consume(ctx, owner.Key, frozenSKUs(snap)); err != nil {
		log.Printf("consume cart %s: %v", owner.Key, err)
	}

	sess, err := c.Gateway.CreateCheckoutSession(ctx, gateway.SessionRequest{
		LineItems:  lineItems,
		Metadata:   map[string]string{gateway.MetaOrderID: o.ID},
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
	})
	if err != nil {
		return o, gateway.Session{}, err
	}
	c.cacheSessionID(ctx, owner.Key, sess.ID)
	return o, sess, nil
}

// RetryPayment: attempt baru utk order yg sudah ada dan belum paid.
func (c *Coordinator) RetryPayment(ctx context.Context, orderID string) (gateway.Session, error) {
	o, err := c.Orders.Get(ctx, orderID)
	if err != nil {
		return gateway.Session{}, err
	}
	if o.PaymentStatus == orders.PaymentPaid || o.PaymentStatus == orders.PaymentRefunded {
		return gateway.Session{}, orders.ErrConflict
	}

	lineItems := make([]gateway.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		lineItems = append(lineItems, gateway.LineItem{Name: itemName(it.RecipeID, it.PackName), Qty: it.Qty, AmountCents: it.PriceCents})
	}
	return c.Gateway.CreateCheckoutSession(ctx, gateway.SessionRequest{
		LineItems:  lineItems,
		Metadata:   map[string]string{gateway.MetaOrderID: o.ID},
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
	})
}

// freeze: bekukan cart jadi snapshot. Komposisi tiap line divalidasi ulang
// (recipe/flavor bisa saja dimatikan sejak add-to-cart); stok TIDAK dicek
// ulang di sini karena reservation line ini masih outstanding — commit nanti
// mengkonsumsi reservation itu, bukan reserve baru.
func (c *Coordinator) freeze(ctx context.Context, owner identity.Owner, guestEmail, rateID string, shippingCents int) (Snapshot, []gateway.LineItem, error) {
	lines, err := c.Cart.Lines(ctx, owner.Key)
	if err != nil {
		return Snapshot{}, nil, err
	}
	if len(lines) == 0 {
		return Snapshot{}, nil, ErrEmptyCart
	}

	snap := Snapshot{
		SnapshotID:    uuid.NewString(),
		OwnerKey:      owner.Key,
		Guest:         owner.Guest,
		GuestEmail:    guestEmail,
		ShippingCents: shippingCents,
		RateID:        rateID,
		CapturedAt:    time.Now().UTC(),
	}
	lineItems := make([]gateway.LineItem, 0, len(lines))
	for _, l := range lines {
		in := reservation.Intent{RecipeID: l.RecipeID, FlavorIDs: l.FlavorIDs, Qty: l.Qty}
		reqs, err := c.Engine.Requirements(ctx, in)
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("line %s: %w", l.ID, err)
		}
		name := itemName(l.RecipeID, l.PackName)
		snap.Items = append(snap.Items, SnapshotItem{
			Name:         name,
			RecipeID:     l.RecipeID,
			PackName:     l.PackName,
			FlavorIDs:    l.FlavorIDs,
			Qty:          l.Qty,
			PriceCents:   l.UnitPriceCents,
			Requirements: reqs,
		})
		snap.TotalCents += l.SubtotalCents()
		lineItems = append(lineItems, gateway.LineItem{Name: name, Qty: l.Qty, AmountCents: l.UnitPriceCents})
	}
	snap.TotalCents += shippingCents
	return snap, lineItems, nil
}

// ---- Path B ----

// HandleEvent: konsumsi event webhook yg SUDAH lolos verifikasi signature.
// Aman terhadap at-least-once delivery: dedup redis cuma fast path, kebenaran
// ada di guard payment_status di dalam transaksi commit. Dedup ditandai HANYA
// setelah sukses — kegagalan transien tidak boleh membuat delivery ulang
// event id yg sama di-skip sebelum commit pernah terjadi.
func (c *Coordinator) HandleEvent(ctx context.Context, ev gateway.Event) error {
	if c.seenEvent(ctx, ev.ID) {
		return nil
	}

	var err error
	switch ev.Type {
	case gateway.EventPaymentSucceeded:
		err = c.handlePaid(ctx, ev)
	case gateway.EventPaymentFailed:
		err = c.handleFailed(ctx, ev)
	default:
		return nil // tipe lain diabaikan
	}
	if err != nil {
		return err
	}
	c.markEventSeen(ctx, ev.ID)
	return nil
}

func (c *Coordinator) seenEvent(ctx context.Context, eventID string) bool {
	if c.Redis == nil {
		return false
	}
	ok, _ := redisx.Exists(ctx, c.Redis, fmt.Sprintf(redisx.KeyWebhookDedup, eventID))
	return ok
}

func (c *Coordinator) markEventSeen(ctx context.Context, eventID string) {
	if c.Redis == nil {
		return
	}
	_ = c.Redis.Set(ctx, fmt.Sprintf(redisx.KeyWebhookDedup, eventID), "1", redisx.TTLWebhookDedup).Err()
}

func (c *Coordinator) handlePaid(ctx context.Context, ev gateway.Event) error {
	if orderID := ev.Metadata[gateway.MetaOrderID]; orderID != "" {
		err := c.Orders.MarkPaidAndCommit(ctx, orderID, ev.PayerEmail)
		if errors.Is(err, orders.ErrAlreadyCommitted) {
			// duplikat delivery: jalur no-op yg diharapkan
			log.Printf("order %s already committed, skip", orderID)
			return nil
		}
		if err != nil {
			// payment_status belum berubah; retry webhook berikutnya aman
			return err
		}
		c.afterPaid(ctx, orderID, ev)
		return nil
	}

	raw := ev.Metadata[gateway.MetaSnapshot]
	if raw == "" {
		return fmt.Errorf("paid event %s without correlation metadata", ev.ID)
	}
	snap, err := ParseSnapshot(raw)
	if err != nil {
		return err
	}

	// order id = snapshot id: delivery ulang event yg sama menemukan order
	// yg sudah ada dan berhenti tanpa commit kedua
	if _, err := c.Orders.Get(ctx, snap.SnapshotID); err == nil {
		log.Printf("order %s already materialized, skip", snap.SnapshotID)
		return nil
	} else if !errors.Is(err, orders.ErrNotFound) {
		return err
	}

	o := orderFromSnapshot(snap, ev.PayerEmail)
	o.GatewayRef = ev.ID
	if err := c.Orders.CreatePaidFromSnapshot(ctx, o); err != nil {
		return err
	}
	if err := c.Cart.Consume(ctx, snap.OwnerKey, frozenSKUs(snap)); err != nil {
		log.Printf("consume cart %s: %v", snap.OwnerKey, err)
	}
	c.afterPaid(ctx, o.ID, ev)
	return nil
}

func (c *Coordinator) handleFailed(ctx context.Context, ev gateway.Event) error {
	orderID := ev.Metadata[gateway.MetaOrderID]
	if orderID == "" {
		// checkout snapshot yg gagal bayar: tidak ada order, tidak ada
		// reservation utk dilepas — cart masih utuh, user bisa coba lagi
		log.Printf("payment failed for snapshot checkout, event %s", ev.ID)
		return nil
	}
	if err := c.Orders.MarkPaymentFailed(ctx, orderID); err != nil {
		if errors.Is(err, orders.ErrConflict) {
			// failed yg nyusul setelah paid (delivery out-of-order): order
			// sudah settled, tidak ada yg perlu diubah
			log.Printf("order %s already settled, ignore failed event", orderID)
			return nil
		}
		return err
	}
	c.publish(c.ProducerFailed, EventPaymentFailed, orderID, PaymentFailedPayload{OrderID: orderID, Reason: "gateway_declined"})
	return nil
}

// afterPaid: side effect setelah commit sukses. Semuanya best-effort —
// kegagalan di sini tidak boleh menggagalkan checkout yg sudah durable.
func (c *Coordinator) afterPaid(ctx context.Context, orderID string, ev gateway.Event) {
	o, err := c.Orders.Get(ctx, orderID)
	if err != nil {
		log.Printf("load order %s after commit: %v", orderID, err)
		return
	}

	if c.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
		body := fmt.Sprintf(`{"status":%q,"payment_status":%q}`, o.Status, o.PaymentStatus)
		_ = c.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}

	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		names = append(names, itemName(it.RecipeID, it.PackName))
	}
	c.publish(c.ProducerConfirmed, EventOrderConfirmed, o.ID, OrderConfirmedPayload{
		OrderID:    o.ID,
		OwnerKey:   ownerKeyOf(o),
		Email:      recipientOf(o, ev),
		TotalCents: o.TotalCents,
		RateID:     o.ShippingRateID,
		ItemNames:  names,
	})

	if c.Notifier != nil {
		if rcpt := recipientOf(o, ev); rcpt != "" {
			if err := c.Notifier.SendOrderConfirmation(ctx, rcpt, notify.OrderSummary{
				OrderID: o.ID, TotalCents: o.TotalCents, ItemNames: names,
			}); err != nil {
				log.Printf("send confirmation for %s: %v", o.ID, err)
			}
		}
	}
}

func (c *Coordinator) publish(p *kafkax.Producer, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (c *Coordinator) cacheSessionID(ctx context.Context, ownerKey, sessionID string) {
	if c.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyIdemCheckout, ownerKey)
	_ = c.Redis.Set(ctx, key, sessionID, redisx.TTLIdemCheckout).Err()
}

func orderFromSnapshot(snap Snapshot, payerEmail string) orders.Order {
	userID, guestID := identity.Parse(snap.OwnerKey)
	o := orders.Order{
		ID:             snap.SnapshotID,
		UserID:         userID,
		GuestID:        guestID,
		TotalCents:     snap.TotalCents,
		ShippingRateID: snap.RateID,
	}
	if guestID != "" {
		o.GuestEmail = snap.GuestEmail
		if o.GuestEmail == "" {
			// fallback: identitas guest diturunkan dari kontak pembayar
			o.GuestEmail = payerEmail
		}
	}
	for _, it := range snap.Items {
		o.Items = append(o.Items, orders.Item{
			ID:           uuid.NewString(),
			OrderID:      o.ID,
			RecipeID:     it.RecipeID,
			PackName:     it.PackName,
			FlavorIDs:    it.FlavorIDs,
			Qty:          it.Qty,
			PriceCents:   it.PriceCents,
			Requirements: it.Requirements,
		})
	}
	return o
}

// frozenSKUs: komposisi yg ikut dibekukan saat checkout, keyed sku -> qty.
// Cart.Consume cuma boleh mengkonsumsi line ini; line yg ditambah user setelah
// checkout bukan bagian order dan harus tetap hidup bersama reservation-nya.
func frozenSKUs(snap Snapshot) map[string]int {
	m := make(map[string]int, len(snap.Items))
	for _, it := range snap.Items {
		if it.RecipeID != "" {
			m[cart.SKUForRecipe(it.RecipeID)] += it.Qty
			continue
		}
		m[cart.SKUForPack(it.FlavorIDs)] += it.Qty
	}
	return m
}

func ownerKeyOf(o orders.Order) string {
	if o.UserID != "" {
		return "user:" + o.UserID
	}
	return "guest:" + o.GuestID
}

func recipientOf(o orders.Order, ev gateway.Event) string {
	if o.GuestEmail != "" {
		return o.GuestEmail
	}
	return ev.PayerEmail
}

func itemName(recipeID, packName string) string {
	if recipeID != "" {
		return "Recipe " + recipeID
	}
	if packName != "" {
		return packName
	}
	return "Custom pack"
}
