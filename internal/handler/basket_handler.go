package handler

import (
	"net/http"

	"store-api/internal/model"
	"store-api/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BasketHandler handles basket maintenance and checkout.
type BasketHandler struct {
	baskets service.BasketService
	orders  service.OrderService
	logger  zerolog.Logger
}

// NewBasketHandler creates a new basket handler.
func NewBasketHandler(baskets service.BasketService, orders service.OrderService, logger zerolog.Logger) *BasketHandler {
	return &BasketHandler{
		baskets: baskets,
		orders:  orders,
		logger:  logger.With().Str("handler", "basket").Logger(),
	}
}

// Create handles POST /api/baskets requests.
func (h *BasketHandler) Create(w http.ResponseWriter, r *http.Request) {
	basket, err := h.baskets.CreateBasket(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, basket)
}

// Get handles GET /api/baskets/{basketId}. A missing basket is replaced by a new one.
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "basketId")
	if !ok {
		h.Create(w, r)
		return
	}

	basket, err := h.baskets.GetOrCreateBasket(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, basket)
}

// Delete handles DELETE /api/baskets/{basketId}.
func (h *BasketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "basketId")
	if !ok {
		writeDomainError(w, r, model.ErrBasketNotFound, h.logger)
		return
	}

	if err := h.baskets.DeleteBasket(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateItem handles PUT /api/baskets/{basketId}/items.
func (h *BasketHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	basket, err := h.baskets.UpdateItem(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, basket)
}

// RemoveItem handles PUT /api/baskets/{basketId}/items/remove.
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.itemRequest(w, r)
	if !ok {
		return
	}

	basket, err := h.baskets.RemoveItem(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, basket)
}

// UpdateZone handles PUT /api/baskets/{basketId}/zone.
func (h *BasketHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "basketId")
	if !ok {
		writeDomainError(w, r, model.ErrBasketNotFound, h.logger)
		return
	}

	var location model.Location
	if err := decodeJSON(w, r, &location); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	basket, err := h.baskets.UpdateZone(r.Context(), id, location)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, basket)
}

// Checkout handles POST /api/baskets/{basketId}/checkout. A payment request rejected by
// the gateway is answered with 200 and an ERROR payload carrying the gateway's reason.
func (h *BasketHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "basketId")
	if !ok {
		writeDomainError(w, r, model.ErrBasketNotFound, h.logger)
		return
	}

	var form model.CheckoutForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.orders.CreateOrder(r.Context(), id, form)
	if resp != nil && resp.Status == model.StatusError {
		h.logger.Warn().Err(err).
			Str("basket_id", id.String()).
			Str("error_code", resp.ErrorCode).
			Msg("checkout failed at payment gateway")
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *BasketHandler) itemRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, model.BasketItemRequest, bool) {
	var req model.BasketItemRequest

	id, ok := uuidParam(r, "basketId")
	if !ok {
		writeDomainError(w, r, model.ErrBasketNotFound, h.logger)
		return id, req, false
	}

	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return id, req, false
	}
	if req.ProductSlug == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "productSlug is required", h.logger)
		return id, req, false
	}

	return id, req, true
}
