package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-pack-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-pack-storefront.git/internal/metrics"
	"github.com/go-chi/chi/v5"
)

type WebhookHandler struct {
	Coordinator *checkout.Coordinator
	Secret      string
	Metrics     *metrics.Metrics
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.paymentWebhook)
}

func (h *WebhookHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}

	// verifikasi signature SEBELUM sentuh state apa pun
	ev, err := gateway.ParseEvent(h.Secret, body, r.Header.Get(gateway.SignatureHeader))
	if err != nil {
		h.count("unknown", "rejected")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Coordinator.HandleEvent(ctx, ev); err != nil {
		h.count(ev.Type, "error")
		// non-2xx: gateway akan kirim ulang; guard idempotency yg jaga
		// supaya commit tetap sekali
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.count(ev.Type, "ok")
	if h.Metrics != nil && ev.Type == gateway.EventPaymentSucceeded {
		h.Metrics.StockCommits.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": ev.ID})
}

func (h *WebhookHandler) count(eventType, outcome string) {
	if h.Metrics != nil {
		h.Metrics.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
	}
}
