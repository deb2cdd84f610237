package shipping

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("shipping: unavailable")

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Parcel struct {
	WeightGrams int `json:"weight_grams"`
}

type Rate struct {
	RateID      string `json:"rate_id"`
	Carrier     string `json:"carrier"`
	AmountCents int    `json:"amount_cents"`
	ETADays     int    `json:"eta_days"`
}

type Shipment struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	LabelCostCents int    `json:"label_cost_cents"`
}

// Client: dikonsumsi oportunistik setelah order jadi; gagal di sini tidak
// pernah membatalkan order ataupun commit stok.
type Client interface {
	GetRates(ctx context.Context, addr Address, parcels []Parcel) ([]Rate, error)
	CreateShipment(ctx context.Context, rateID string) (Shipment, error)
}
