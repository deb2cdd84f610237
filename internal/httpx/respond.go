package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-pack-storefront.git/internal/cart"
	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-pack-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr: petakan taxonomy error domain ke status HTTP; detail kekurangan
// stok ikut dikirim supaya UI bisa render pesannya.
func writeErr(w http.ResponseWriter, err error) {
	var insuff *stock.InsufficientError
	if errors.As(err, &insuff) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "insufficient stock",
			"details": insuff.Shortages,
		})
		return
	}
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, stock.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrInvalidIntent),
		errors.Is(err, cart.ErrInvalidQty),
		errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrUnavailable),
		errors.Is(err, shipping.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
