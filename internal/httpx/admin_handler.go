package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminHandler: jalur admin (auth middleware di luar scope). Payment status
// TIDAK bisa ditulis dari sini — cuma gateway (webhook) yg boleh.
type AdminHandler struct {
	Orders  orders.Store
	Catalog catalog.Store
}

type UpdateStatusReq struct {
	Status string `json:"status"`
	// PaymentStatus ditolak di boundary, bukan sekadar konvensi
	PaymentStatus string `json:"payment_status,omitempty"`
}

type CreateFlavorReq struct {
	Name string `json:"name"`
}

type CreateRecipeReq struct {
	Name       string           `json:"name"`
	PriceCents int              `json:"price_cents"`
	Items      []RecipeItemBody `json:"items"`
}

type RecipeItemBody struct {
	FlavorID string `json:"flavor_id"`
	Qty      int    `json:"qty"`
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Patch("/admin/orders/{id}/status", h.updateStatus)
	r.Post("/admin/flavors", h.createFlavor)
	r.Delete("/admin/flavors/{id}", h.deactivateFlavor)
	r.Post("/admin/recipes", h.createRecipe)
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.PaymentStatus != "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "payment_status is gateway-managed"})
		return
	}
	to := orders.Status(req.Status)
	if !orders.ValidStatus(to) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), to); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *AdminHandler) createFlavor(w http.ResponseWriter, r *http.Request) {
	var req CreateFlavorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing name"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	f := catalog.Flavor{ID: uuid.NewString(), Name: req.Name, Active: true}
	if err := h.Catalog.CreateFlavor(ctx, f); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": f.ID})
}

func (h *AdminHandler) deactivateFlavor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.DeactivateFlavor(ctx, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	rec := catalog.Recipe{ID: uuid.NewString(), Name: req.Name, Active: true, PriceCents: req.PriceCents}
	for _, it := range req.Items {
		rec.Items = append(rec.Items, catalog.RecipeItem{FlavorID: it.FlavorID, Qty: it.Qty})
	}
	if rec.UnitTotal() != catalog.PackSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipe must total exactly 3 units"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.CreateRecipe(ctx, rec); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}
