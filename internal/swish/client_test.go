package swish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"store-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	c := NewClient(Config{
		BaseURL:            server.URL,
		PayeeAlias:         "1231181189",
		PaymentCallbackURL: "https://shop.example.com/api/swish/callbacks/payment",
		RefundCallbackURL:  "https://shop.example.com/api/swish/callbacks/refund",
	}, server.Client(), zerolog.Nop())
	c.newID = func() string { return "INSTRUCTION1" }
	return c
}

func TestClient_CreatePaymentRequest(t *testing.T) {
	var got paymentRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v2/paymentrequests/INSTRUCTION1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Location", "/api/v1/paymentrequests/INSTRUCTION1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	id, err := newTestClient(server).CreatePaymentRequest(context.Background(), PaymentRequest{
		PhoneNumber: "070-123 45 67",
		Amount:      2150,
		Reference:   "order-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTION1", id)
	assert.Equal(t, "21.50", got.Amount)
	assert.Equal(t, "SEK", got.Currency)
	assert.Equal(t, "46701234567", got.PayerAlias)
	assert.Equal(t, "1231181189", got.PayeeAlias)
	assert.Equal(t, "order-1", got.PayeePaymentReference)
	assert.Equal(t, "https://shop.example.com/api/swish/callbacks/payment", got.CallbackURL)
}

func TestClient_CreatePaymentRequest_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`[{"errorCode":"BE18","errorMessage":"Payer alias is invalid"},{"errorCode":"PA02","errorMessage":"Amount value is missing"}]`))
	}))
	defer server.Close()

	_, err := newTestClient(server).CreatePaymentRequest(context.Background(), PaymentRequest{PhoneNumber: "1", Amount: 100})

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Len(t, apiErr.Errors, 2)
	assert.Equal(t, ErrorDetail{ErrorCode: "BE18", ErrorMessage: "Payer alias is invalid"}, apiErr.First())
	assert.Contains(t, apiErr.Error(), "BE18")
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server).CreateRefundRequest(context.Background(), RefundRequest{Amount: 100})

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "HTTP_401", apiErr.First().ErrorCode)
}

func TestClient_CreateRefundRequest(t *testing.T) {
	var got refundRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v2/refunds/INSTRUCTION1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	id, err := newTestClient(server).CreateRefundRequest(context.Background(), RefundRequest{
		OriginalPaymentReference: "PAYREF",
		PayerPaymentReference:    "order-1",
		Amount:                   500,
		Message:                  "Refund for a cake that was never baked because the oven broke down",
	})

	require.NoError(t, err)
	assert.Equal(t, "INSTRUCTION1", id)
	assert.Equal(t, "5.00", got.Amount)
	assert.Equal(t, "PAYREF", got.OriginalPaymentReference)
	assert.Equal(t, "1231181189", got.PayerAlias)
	assert.Len(t, []rune(got.Message), maxMessageLength)
}

func TestClient_RetrieveRefundRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/refunds/R1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"R1","originalPaymentReference":"PAYREF","amount":5.0,"status":"PAID"}`))
	}))
	defer server.Close()

	refund, err := newTestClient(server).RetrieveRefundRequest(context.Background(), "R1")

	require.NoError(t, err)
	assert.Equal(t, "R1", refund.ID)
	assert.Equal(t, model.RefundStatusPaid, refund.Status)
	assert.Equal(t, int64(500), refund.AmountMinor())
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.RetrieveRefundRequest(context.Background(), "R1")

	require.Error(t, err)
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}

func TestInstructionID(t *testing.T) {
	id := InstructionID()
	assert.Len(t, id, 32)
	assert.Regexp(t, `^[0-9A-F]{32}$`, id)
	assert.NotEqual(t, id, InstructionID())
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := map[string]string{
		"0701234567":       "46701234567",
		"+46 70 123 45 67": "46701234567",
		"0046701234567":    "46701234567",
		"46701234567":      "46701234567",
		"":                 "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, NormalizePhoneNumber(in), in)
	}
}
