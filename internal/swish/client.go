// Package swish is a client for the Swish merchant API: payment requests, refunds and
// refund lookups over client-certificate TLS.
package swish

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"store-api/internal/model"
	"store-api/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	currency         = "SEK"
	maxMessageLength = 50
)

// Gateway is the subset of the Swish API the order flow depends on.
type Gateway interface {
	// CreatePaymentRequest returns the gateway id of the new payment request.
	CreatePaymentRequest(ctx context.Context, req PaymentRequest) (string, error)

	// CreateRefundRequest returns the gateway id of the new refund.
	CreateRefundRequest(ctx context.Context, req RefundRequest) (string, error)

	RetrieveRefundRequest(ctx context.Context, id string) (*model.SwishRefundPayload, error)
}

// PaymentRequest asks the payer to approve a payment in their app.
type PaymentRequest struct {
	PhoneNumber string
	Amount      int64 // öre
	Reference   string
	Message     string
}

// RefundRequest returns part or all of a settled payment.
type RefundRequest struct {
	OriginalPaymentReference string
	PayerPaymentReference    string
	Amount                   int64 // öre
	Message                  string
}

// Config holds the merchant settings sent with every request.
type Config struct {
	BaseURL            string
	PayeeAlias         string
	PaymentCallbackURL string
	RefundCallbackURL  string
}

// Client implements Gateway over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
	newID      func() string
}

// NewClient creates a gateway client. httpClient carries the TLS identity and timeout.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "swish").Logger(),
		newID:      InstructionID,
	}
}

// NewTLSHTTPClient loads the merchant certificate and an optional CA bundle.
func NewTLSHTTPClient(certFile, keyFile, caFile string, timeout time.Duration) (*http.Client, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load swish client certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read swish CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caFile)
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// InstructionID returns a fresh upper-case, dash-free UUID as the gateway expects.
func InstructionID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

type paymentRequestBody struct {
	PayeePaymentReference string `json:"payeePaymentReference"`
	CallbackURL           string `json:"callbackUrl"`
	PayerAlias            string `json:"payerAlias,omitempty"`
	PayeeAlias            string `json:"payeeAlias"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Message               string `json:"message,omitempty"`
}

type refundRequestBody struct {
	OriginalPaymentReference string `json:"originalPaymentReference"`
	PayerPaymentReference    string `json:"payerPaymentReference,omitempty"`
	CallbackURL              string `json:"callbackUrl"`
	PayerAlias               string `json:"payerAlias"`
	Amount                   string `json:"amount"`
	Currency                 string `json:"currency"`
	Message                  string `json:"message,omitempty"`
}

func (c *Client) CreatePaymentRequest(ctx context.Context, req PaymentRequest) (string, error) {
	id := c.newID()
	body := paymentRequestBody{
		PayeePaymentReference: req.Reference,
		CallbackURL:           c.cfg.PaymentCallbackURL,
		PayerAlias:            NormalizePhoneNumber(req.PhoneNumber),
		PayeeAlias:            c.cfg.PayeeAlias,
		Amount:                pricing.GatewayAmount(req.Amount),
		Currency:              currency,
		Message:               truncate(req.Message, maxMessageLength),
	}

	if err := c.do(ctx, http.MethodPut, "/api/v2/paymentrequests/"+id, body, nil); err != nil {
		c.logger.Warn().Err(err).Str("reference", req.Reference).Msg("payment request rejected")
		return "", err
	}

	c.logger.Info().
		Str("swish_id", id).
		Str("reference", req.Reference).
		Int64("amount", req.Amount).
		Msg("payment request created")

	return id, nil
}

func (c *Client) CreateRefundRequest(ctx context.Context, req RefundRequest) (string, error) {
	id := c.newID()
	body := refundRequestBody{
		OriginalPaymentReference: req.OriginalPaymentReference,
		PayerPaymentReference:    req.PayerPaymentReference,
		CallbackURL:              c.cfg.RefundCallbackURL,
		PayerAlias:               c.cfg.PayeeAlias,
		Amount:                   pricing.GatewayAmount(req.Amount),
		Currency:                 currency,
		Message:                  truncate(req.Message, maxMessageLength),
	}

	if err := c.do(ctx, http.MethodPut, "/api/v2/refunds/"+id, body, nil); err != nil {
		c.logger.Warn().Err(err).Str("reference", req.PayerPaymentReference).Msg("refund request rejected")
		return "", err
	}

	c.logger.Info().
		Str("refund_id", id).
		Str("reference", req.PayerPaymentReference).
		Int64("amount", req.Amount).
		Msg("refund request created")

	return id, nil
}

func (c *Client) RetrieveRefundRequest(ctx context.Context, id string) (*model.SwishRefundPayload, error) {
	var payload model.SwishRefundPayload
	if err := c.do(ctx, http.MethodGet, "/api/v1/refunds/"+id, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode swish request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build swish request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("swish request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read swish response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &apiErr.Errors); err != nil {
				c.logger.Debug().Int("status", resp.StatusCode).Msg("swish error body is not an error list")
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode swish response: %w", err)
		}
	}

	return nil
}

// AsAPIError extracts the gateway error from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NormalizePhoneNumber converts a Swedish mobile number to the gateway's 46XXXXXXXXX form.
func NormalizePhoneNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "0046"):
		return "46" + digits[4:]
	case strings.HasPrefix(digits, "46"):
		return digits
	case strings.HasPrefix(digits, "0"):
		return "46" + digits[1:]
	}
	return digits
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
