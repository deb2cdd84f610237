package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-pack-storefront.git/internal/identity"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type CheckoutHandler struct {
	Coordinator *checkout.Coordinator
	Orders      orders.Store
	Shipping    shipping.Client
	Resolver    identity.Resolver
	Redis       *redis.Client
}

type CheckoutReq struct {
	// PlaceOrder=true: order pending dibuat sinkron sebelum ke gateway.
	// Default: deferred — order baru ada setelah payment confirmed.
	PlaceOrder    bool   `json:"place_order,omitempty"`
	GuestEmail    string `json:"guest_email,omitempty"`
	RateID        string `json:"rate_id,omitempty"`
	ShippingCents int    `json:"shipping_cents,omitempty"`
}

type CheckoutResp struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
	OrderID    string `json:"order_id,omitempty"`
}

type RatesReq struct {
	Address shipping.Address  `json:"address"`
	Parcels []shipping.Parcel `json:"parcels"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.startCheckout)
	r.Post("/orders/{id}/retry-payment", h.retryPayment)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/shipping/rates", h.getRates)
}

func (h *CheckoutHandler) startCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if req.PlaceOrder {
		o, sess, err := h.Coordinator.PlaceOrder(ctx, owner, req.GuestEmail, req.RateID, req.ShippingCents)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, CheckoutResp{SessionID: sess.ID, SessionURL: sess.URL, OrderID: o.ID})
		return
	}

	sess, err := h.Coordinator.StartCheckout(ctx, owner, req.GuestEmail, req.RateID, req.ShippingCents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CheckoutResp{SessionID: sess.ID, SessionURL: sess.URL})
}

func (h *CheckoutHandler) retryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, err := h.Coordinator.RetryPayment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, CheckoutResp{SessionID: sess.ID, SessionURL: sess.URL})
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback store
	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	body := map[string]any{"status": o.Status, "payment_status": o.PaymentStatus}
	if h.Redis != nil {
		b, _ := json.Marshal(body)
		_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID), b, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *CheckoutHandler) getRates(w http.ResponseWriter, r *http.Request) {
	var req RatesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rates, err := h.Shipping.GetRates(ctx, req.Address, req.Parcels)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rates": rates})
}
