package handler

import (
	"net/http"

	"store-api/internal/model"
	"store-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AdminHandler handles the authenticated order administration endpoints.
type AdminHandler struct {
	orders service.OrderService
	logger zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(orders service.OrderService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		logger: logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/admin/orders/{orderId}.
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "orderId")
	if !ok {
		writeDomainError(w, r, model.ErrOrderNotFound, h.logger)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// SetStatus handles PUT /api/admin/orders/{orderId}/status.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "orderId")
	if !ok {
		writeDomainError(w, r, model.ErrOrderNotFound, h.logger)
		return
	}

	var req model.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.orders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// RequestRefund handles POST /api/admin/orders/{orderId}/refunds.
func (h *AdminHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "orderId")
	if !ok {
		writeDomainError(w, r, model.ErrOrderNotFound, h.logger)
		return
	}

	var req model.RefundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.orders.RequestRefund(r.Context(), id, req.Amount)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// CheckRefund handles GET /api/admin/refunds/{refundId}.
func (h *AdminHandler) CheckRefund(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CheckRefund(r.Context(), chi.URLParam(r, "refundId"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
