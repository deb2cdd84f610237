package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	kafkax "github.com/ariefcatur/go-pack-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service: beli label shipping utk order yg sudah confirmed dan punya rate
// pilihan. Oportunistik: kegagalan di sini dicatat dan dilewati, tidak pernah
// roll back order ataupun commit stok.
type Service struct {
	Orders      orders.Store
	Shipping    shipping.Client
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderConfirmed: dipasang sebagai handler consumer.
func (s *Service) HandleOrderConfirmed(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventOrderConfirmed {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[checkout.OrderConfirmedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.RateID == "" {
		return nil // tidak ada quote shipping yg dipilih saat checkout
	}

	shp, err := s.Shipping.CreateShipment(ctx, p.RateID)
	if err != nil {
		log.Printf("create shipment for order %s: %v", p.OrderID, err)
		return nil // jangan retry ke state order
	}
	if err := s.Orders.SetShipment(ctx, p.OrderID, shp.TrackingNumber, shp.TrackingURL, shp.LabelCostCents); err != nil {
		log.Printf("store shipment for order %s: %v", p.OrderID, err)
	}
	return nil
}
