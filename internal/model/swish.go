package model

import "time"

// Gateway payment statuses.
const (
	SwishStatusCreated   = "CREATED"
	SwishStatusPaid      = "PAID"
	SwishStatusDeclined  = "DECLINED"
	SwishStatusCancelled = "CANCELLED"
	SwishStatusError     = "ERROR"
)

// Gateway refund statuses.
const (
	RefundStatusCreated = "CREATED"
	RefundStatusDebited = "DEBITED"
	RefundStatusPaid    = "PAID"
	RefundStatusError   = "ERROR"
)

// SwishPayload is the gateway's payment record, as received on callbacks.
type SwishPayload struct {
	ID                    string     `json:"id"`
	PayeePaymentReference string     `json:"payeePaymentReference"`
	PaymentReference      string     `json:"paymentReference,omitempty"`
	CallbackURL           string     `json:"callbackUrl,omitempty"`
	PayerAlias            string     `json:"payerAlias,omitempty"`
	PayeeAlias            string     `json:"payeeAlias,omitempty"`
	Amount                float64    `json:"amount"`
	Currency              string     `json:"currency,omitempty"`
	Message               string     `json:"message,omitempty"`
	Status                string     `json:"status"`
	DateCreated           *time.Time `json:"dateCreated,omitempty"`
	DatePaid              *time.Time `json:"datePaid,omitempty"`
	ErrorCode             string     `json:"errorCode,omitempty"`
	ErrorMessage          string     `json:"errorMessage,omitempty"`
}

// IsFinal reports whether the gateway will not change this payment any more.
func (p *SwishPayload) IsFinal() bool {
	return p.Status != "" && p.Status != SwishStatusCreated
}

// OrderStatus maps the gateway payment status onto the order lifecycle.
func (p *SwishPayload) OrderStatus() (OrderStatus, bool) {
	switch p.Status {
	case SwishStatusCreated:
		return StatusCreated, true
	case SwishStatusPaid:
		return StatusPaid, true
	case SwishStatusDeclined:
		return StatusDeclined, true
	case SwishStatusCancelled:
		return StatusCancelled, true
	case SwishStatusError:
		return StatusError, true
	}
	return "", false
}

// SwishRefundPayload is the gateway's refund record.
type SwishRefundPayload struct {
	ID                       string     `json:"id"`
	PaymentReference         string     `json:"paymentReference,omitempty"`
	PayerPaymentReference    string     `json:"payerPaymentReference,omitempty"`
	OriginalPaymentReference string     `json:"originalPaymentReference"`
	CallbackURL              string     `json:"callbackUrl,omitempty"`
	PayerAlias               string     `json:"payerAlias,omitempty"`
	PayeeAlias               string     `json:"payeeAlias,omitempty"`
	Amount                   float64    `json:"amount"`
	Currency                 string     `json:"currency,omitempty"`
	Message                  string     `json:"message,omitempty"`
	Status                   string     `json:"status"`
	DateCreated              *time.Time `json:"dateCreated,omitempty"`
	DatePaid                 *time.Time `json:"datePaid,omitempty"`
	ErrorCode                string     `json:"errorCode,omitempty"`
	ErrorMessage             string     `json:"errorMessage,omitempty"`
	AdditionalInformation    string     `json:"additionalInformation,omitempty"`
}

// AmountMinor returns the refund amount in öre.
func (r *SwishRefundPayload) AmountMinor() int64 {
	return MinorUnits(r.Amount)
}

// Counts reports whether the refund reserves money against the original payment.
func (r *SwishRefundPayload) Counts() bool {
	return r.Status != RefundStatusError
}

// MinorUnits converts a gateway SEK amount to öre.
func MinorUnits(amount float64) int64 {
	if amount < 0 {
		return -int64(-amount*100 + 0.5)
	}
	return int64(amount*100 + 0.5)
}
