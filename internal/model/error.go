package model

import (
	"errors"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ErrorKind classifies domain errors so callers can decide how to react.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindValidation  ErrorKind = "VALIDATION"
	KindGateway     ErrorKind = "GATEWAY"
	KindPersistence ErrorKind = "PERSISTENCE"
	KindEnrichment  ErrorKind = "ENRICHMENT"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidParameter    = "INVALID_PARAMETER"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeBasketNotFound      = "BASKET_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeRefundNotFound      = "REFUND_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidDeliveryType = "INVALID_DELIVERY_TYPE"
	ErrCodeInvalidDeliveryDate = "INVALID_DELIVERY_DATE"
	ErrCodeInvalidZone         = "INVALID_ZONE"
	ErrCodeInvalidPayment      = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeEmptyBasket         = "EMPTY_BASKET"
	ErrCodeUndeliverable       = "UNDELIVERABLE"
	ErrCodeRefundNotSupported  = "REFUND_NOT_SUPPORTED"
	ErrCodeRefundNotAllowed    = "REFUND_NOT_ALLOWED"
	ErrCodeInvalidRefundAmount = "INVALID_REFUND_AMOUNT"
	ErrCodeEnrichmentFailure   = "ENRICHMENT_FAILURE"
	ErrCodeGatewayError        = "GATEWAY_ERROR"
	ErrCodePersistenceError    = "PERSISTENCE_ERROR"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is the error type returned by the service layer.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so sentinels survive wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a custom message.
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewPersistenceError wraps a storage failure.
func NewPersistenceError(message string, err error) *DomainError {
	return &DomainError{
		Kind:    KindPersistence,
		Code:    ErrCodePersistenceError,
		Message: message,
		Err:     err,
	}
}

// NewGatewayError wraps a payment gateway failure.
func NewGatewayError(message string, err error) *DomainError {
	return &DomainError{
		Kind:    KindGateway,
		Code:    ErrCodeGatewayError,
		Message: message,
		Err:     err,
	}
}

// NewEnrichmentError reports catalog lookups that returned nothing.
func NewEnrichmentError(missing []string) *DomainError {
	return &DomainError{
		Kind:    KindEnrichment,
		Code:    ErrCodeEnrichmentFailure,
		Message: "products not found in catalog: " + strings.Join(missing, ", "),
	}
}

// KindOf returns the kind of the first DomainError in the chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common domain errors
var (
	ErrBasketNotFound      = NewDomainError(KindNotFound, ErrCodeBasketNotFound, "Basket not found")
	ErrOrderNotFound       = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound     = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrPaymentNotFound     = NewDomainError(KindNotFound, ErrCodePaymentNotFound, "Payment not found")
	ErrRefundNotFound      = NewDomainError(KindNotFound, ErrCodeRefundNotFound, "Refund not found")
	ErrInvalidQuantity     = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidDeliveryType = NewDomainError(KindValidation, ErrCodeInvalidDeliveryType, "Delivery type must be delivery, collection or email")
	ErrInvalidDeliveryDate = NewDomainError(KindValidation, ErrCodeInvalidDeliveryDate, "Delivery date code is invalid")
	ErrInvalidZone         = NewDomainError(KindValidation, ErrCodeInvalidZone, "Delivery zone must not be negative")
	ErrInvalidPayment      = NewDomainError(KindValidation, ErrCodeInvalidPayment, "Payment method must be swish or paymentLink")
	ErrInvalidStatus       = NewDomainError(KindValidation, ErrCodeInvalidStatus, "Unknown order status")
	ErrEmptyBasket         = NewDomainError(KindValidation, ErrCodeEmptyBasket, "Basket is empty")
	ErrUndeliverable       = NewDomainError(KindValidation, ErrCodeUndeliverable, "Basket contains items that cannot be delivered to the selected zone")
	ErrRefundNotSupported  = NewDomainError(KindValidation, ErrCodeRefundNotSupported, "Refunds are only supported for Swish orders")
	ErrRefundNotAllowed    = NewDomainError(KindValidation, ErrCodeRefundNotAllowed, "Order has no settled payment to refund")
	ErrInvalidRefundAmount = NewDomainError(KindValidation, ErrCodeInvalidRefundAmount, "Refund amount must be positive and not exceed the refundable remainder")
)
