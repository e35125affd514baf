package handler

import (
	"net/http"

	"store-api/internal/model"
	"store-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// acknowledgement is the body of every callback response.
type acknowledgement struct {
	Received bool `json:"received"`
}

// SwishHandler serves payment status polling and the gateway's callbacks.
type SwishHandler struct {
	orders service.OrderService
	logger zerolog.Logger
}

// NewSwishHandler creates a new Swish handler.
func NewSwishHandler(orders service.OrderService, logger zerolog.Logger) *SwishHandler {
	return &SwishHandler{
		orders: orders,
		logger: logger.With().Str("handler", "swish").Logger(),
	}
}

// PaymentStatus handles GET /api/swish/payments/{swishId}.
func (h *SwishHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := h.orders.GetPaymentStatus(r.Context(), chi.URLParam(r, "swishId"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// PaymentCallback handles POST /api/swish/callbacks/payment.
// The gateway always gets 200 so that it stops retrying; failures are only logged.
func (h *SwishHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var payload model.SwishPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		h.logger.Error().Err(err).Msg("unreadable payment callback")
		writeJSON(w, http.StatusOK, acknowledgement{Received: true})
		return
	}

	if err := h.orders.HandlePaymentCallback(r.Context(), &payload); err != nil {
		h.logger.Error().
			Err(err).
			Str("swish_id", payload.ID).
			Str("payee_payment_reference", payload.PayeePaymentReference).
			Str("status", payload.Status).
			Msg("payment callback not applied")
	}

	writeJSON(w, http.StatusOK, acknowledgement{Received: true})
}

// RefundCallback handles POST /api/swish/callbacks/refund.
func (h *SwishHandler) RefundCallback(w http.ResponseWriter, r *http.Request) {
	var payload model.SwishRefundPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		h.logger.Error().Err(err).Msg("unreadable refund callback")
		writeJSON(w, http.StatusOK, acknowledgement{Received: true})
		return
	}

	if err := h.orders.HandleRefundCallback(r.Context(), &payload); err != nil {
		h.logger.Error().
			Err(err).
			Str("refund_id", payload.ID).
			Str("status", payload.Status).
			Msg("refund callback not applied")
	}

	writeJSON(w, http.StatusOK, acknowledgement{Received: true})
}
