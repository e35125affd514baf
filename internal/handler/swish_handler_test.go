package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"store-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSwishHandler_PaymentStatus(t *testing.T) {
	orders := new(MockOrderService)
	handler := NewSwishHandler(orders, zerolog.Nop())

	orders.On("GetPaymentStatus", mock.Anything, "SWISH-1").Return(&model.SwishPayload{ID: "SWISH-1", Status: model.SwishStatusPaid}, nil)
	orders.On("GetPaymentStatus", mock.Anything, "SWISH-404").Return(nil, model.ErrPaymentNotFound)

	w := httptest.NewRecorder()
	handler.PaymentStatus(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"swishId": "SWISH-1"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)

	w = httptest.NewRecorder()
	handler.PaymentStatus(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"swishId": "SWISH-404"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwishHandler_CallbacksAlwaysAcknowledge(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name       string
		refund     bool
		body       string
		serviceErr error
		expectCall bool
	}{
		{
			name:       "payment applied",
			body:       `{"id":"SWISH-1","payeePaymentReference":"` + orderID.String() + `","status":"PAID","amount":21.5}`,
			expectCall: true,
		},
		{
			name:       "payment for unknown order",
			body:       `{"id":"SWISH-1","payeePaymentReference":"` + uuid.NewString() + `","status":"PAID"}`,
			serviceErr: model.ErrOrderNotFound,
			expectCall: true,
		},
		{
			name:       "payment storage failure",
			body:       `{"id":"SWISH-1","payeePaymentReference":"` + orderID.String() + `","status":"PAID"}`,
			serviceErr: model.NewPersistenceError("failed to update payment", errors.New("connection refused")),
			expectCall: true,
		},
		{
			name: "unreadable payment",
			body: `not json`,
		},
		{
			name:       "refund applied",
			refund:     true,
			body:       `{"id":"REFUND-1","originalPaymentReference":"PAYREF-1","status":"PAID","amount":5}`,
			expectCall: true,
		},
		{
			name:       "unknown refund",
			refund:     true,
			body:       `{"id":"REFUND-404","status":"PAID"}`,
			serviceErr: model.ErrRefundNotFound,
			expectCall: true,
		},
		{
			name:   "unreadable refund",
			refund: true,
			body:   `{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			handler := NewSwishHandler(orders, zerolog.Nop())

			method := "HandlePaymentCallback"
			serve := handler.PaymentCallback
			if tt.refund {
				method = "HandleRefundCallback"
				serve = handler.RefundCallback
			}
			if tt.expectCall {
				orders.On(method, mock.Anything, mock.Anything).Return(tt.serviceErr).Once()
			}

			w := httptest.NewRecorder()
			serve(w, httptest.NewRequest(http.MethodPost, "/api/swish/callbacks", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"received":true}`, w.Body.String())
			if tt.expectCall {
				orders.AssertExpectations(t)
			} else {
				orders.AssertNotCalled(t, method, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSwishHandler_PaymentCallbackDecodesPayload(t *testing.T) {
	orders := new(MockOrderService)
	handler := NewSwishHandler(orders, zerolog.Nop())

	orders.On("HandlePaymentCallback", mock.Anything, mock.MatchedBy(func(p *model.SwishPayload) bool {
		return p.ID == "SWISH-1" && p.PaymentReference == "PAYREF-1" && p.Amount == 21.5 && p.Status == model.SwishStatusPaid
	})).Return(nil)

	body := `{"id":"SWISH-1","payeePaymentReference":"x","paymentReference":"PAYREF-1","amount":21.50,"currency":"SEK","status":"PAID"}`
	w := httptest.NewRecorder()
	handler.PaymentCallback(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	orders.AssertExpectations(t)
}
