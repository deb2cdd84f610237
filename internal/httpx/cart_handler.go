package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/cart"
	"github.com/ariefcatur/go-pack-storefront.git/internal/identity"
	"github.com/ariefcatur/go-pack-storefront.git/internal/metrics"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	Cart     *cart.Service
	Resolver identity.Resolver
	Metrics  *metrics.Metrics
}

type AddItemReq struct {
	RecipeID  string   `json:"recipe_id,omitempty"`
	FlavorIDs []string `json:"flavor_ids,omitempty"`
	PackName  string   `json:"pack_name,omitempty"`
	Qty       int      `json:"qty"`
}

type UpdateQtyReq struct {
	Qty int `json:"qty"`
}

type CartResp struct {
	Lines         []LineResp `json:"lines"`
	SubtotalCents int        `json:"subtotal_cents"`
}

type LineResp struct {
	ID             string   `json:"id"`
	SKU            string   `json:"sku"`
	RecipeID       string   `json:"recipe_id,omitempty"`
	FlavorIDs      []string `json:"flavor_ids,omitempty"`
	PackName       string   `json:"pack_name,omitempty"`
	Qty            int      `json:"qty"`
	UnitPriceCents int      `json:"unit_price_cents"`
	SubtotalCents  int      `json:"subtotal_cents"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/{id}", h.updateQty)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Delete("/cart", h.clear)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Cart.Lines(ctx, owner.Key)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(lines))
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	l, err := h.Cart.Add(ctx, owner.Key, reservation.Intent{
		RecipeID:  req.RecipeID,
		FlavorIDs: req.FlavorIDs,
		Qty:       req.Qty,
	}, req.PackName)
	if err != nil {
		h.countReservation(err)
		writeErr(w, err)
		return
	}
	h.countReservation(nil)
	writeJSON(w, http.StatusCreated, toLineResp(l))
}

func (h *CartHandler) updateQty(w http.ResponseWriter, r *http.Request) {
	var req UpdateQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	l, err := h.Cart.UpdateQuantity(ctx, owner.Key, chi.URLParam(r, "id"), req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResp(l))
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, owner.Key, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	owner := h.Resolver.Resolve(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	warnings := h.Cart.Clear(ctx, owner.Key)
	if len(warnings) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	msgs := make([]string, 0, len(warnings))
	for _, werr := range warnings {
		msgs = append(msgs, werr.Error())
	}
	// cart tetap kosong; warning cuma informasi
	writeJSON(w, http.StatusOK, map[string]any{"warnings": msgs})
}

func (h *CartHandler) countReservation(err error) {
	if h.Metrics == nil {
		return
	}
	outcome := "ok"
	var insuff *stock.InsufficientError
	switch {
	case err == nil:
	case errors.As(err, &insuff):
		outcome = "insufficient"
	default:
		outcome = "error"
	}
	h.Metrics.Reservations.WithLabelValues(outcome).Inc()
}

func toCartResp(lines []cart.Line) CartResp {
	resp := CartResp{Lines: []LineResp{}}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toLineResp(l))
		resp.SubtotalCents += l.SubtotalCents()
	}
	return resp
}

func toLineResp(l cart.Line) LineResp {
	return LineResp{
		ID:             l.ID,
		SKU:            l.SKU,
		RecipeID:       l.RecipeID,
		FlavorIDs:      l.FlavorIDs,
		PackName:       l.PackName,
		Qty:            l.Qty,
		UnitPriceCents: l.UnitPriceCents,
		SubtotalCents:  l.SubtotalCents(),
	}
}
