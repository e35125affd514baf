package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod tags the payment variant of an order.
type PaymentMethod string

const (
	PaymentMethodSwish       PaymentMethod = "swish"
	PaymentMethodPaymentLink PaymentMethod = "paymentLink"
)

// CheckoutForm represents the request payload for creating an order from a basket.
type CheckoutForm struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Telephone     string        `json:"telephone"`
	Address       string        `json:"address"`
	Notes         string        `json:"notes"`
}

// CustomerDetails is the customer part of an order.
type CustomerDetails struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
}

// OrderItem is a price-locked line of an order.
type OrderItem struct {
	ProductSlug  string `json:"productSlug"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	GrossPrice   int64  `json:"grossPrice"`
	MomsRate     int    `json:"momsRate"`
	LinePrice    int64  `json:"linePrice"`
	DeliveryType string `json:"deliveryType"`
	DeliveryDate string `json:"deliveryDate,omitempty"`
}

// Order is the immutable snapshot of a basket taken at checkout.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	BasketID   uuid.UUID       `json:"basketId"`
	Details    CustomerDetails `json:"details"`
	Items      []OrderItem     `json:"items"`
	Delivery   []DeliveryGroup `json:"delivery"`
	BottomLine BottomLine      `json:"bottomLine"`
	Payment    Payment         `json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Status returns the payment status of the order.
func (o *Order) Status() OrderStatus {
	if o.Payment == nil {
		return StatusNotOrdered
	}
	return o.Payment.PaymentStatus()
}

// OwesConfirmation reports whether the order is in a state that warrants a confirmation email.
func (o *Order) OwesConfirmation() bool {
	if o.Payment == nil {
		return false
	}
	status := o.Payment.PaymentStatus()
	for _, s := range ConfirmationStatuses(o.Payment.Method()) {
		if s == status {
			return true
		}
	}
	return false
}

// Payment is the tagged payment sub-record of an order.
// Implemented by *PaymentLinkPayment and *SwishPayment only.
type Payment interface {
	Method() PaymentMethod
	PaymentStatus() OrderStatus
	EmailSent() bool
	isPayment()
}

// PaymentLinkPayment is paid outside the store through a link sent by email.
type PaymentLinkPayment struct {
	Status                OrderStatus `json:"status"`
	ConfirmationEmailSent bool        `json:"confirmationEmailSent"`
}

func (*PaymentLinkPayment) Method() PaymentMethod        { return PaymentMethodPaymentLink }
func (p *PaymentLinkPayment) PaymentStatus() OrderStatus { return p.Status }
func (p *PaymentLinkPayment) EmailSent() bool            { return p.ConfirmationEmailSent }
func (*PaymentLinkPayment) isPayment()                   {}

// SwishPayment is paid through the Swish gateway and may carry refunds.
type SwishPayment struct {
	Status                OrderStatus          `json:"status"`
	ConfirmationEmailSent bool                 `json:"confirmationEmailSent"`
	Swish                 *SwishPayload        `json:"swish,omitempty"`
	Refunds               []SwishRefundPayload `json:"refunds"`
}

func (*SwishPayment) Method() PaymentMethod        { return PaymentMethodSwish }
func (p *SwishPayment) PaymentStatus() OrderStatus { return p.Status }
func (p *SwishPayment) EmailSent() bool            { return p.ConfirmationEmailSent }
func (*SwishPayment) isPayment()                   {}

// PaymentReference returns the gateway's settlement reference, if the payment has been settled.
func (p *SwishPayment) PaymentReference() string {
	if p.Swish == nil {
		return ""
	}
	return p.Swish.PaymentReference
}

// RefundedAmount sums, in öre, every refund that has not failed.
func (p *SwishPayment) RefundedAmount() int64 {
	var total int64
	for i := range p.Refunds {
		if p.Refunds[i].Counts() {
			total += p.Refunds[i].AmountMinor()
		}
	}
	return total
}

// NewPayment builds the initial payment variant for a checkout.
func NewPayment(method PaymentMethod) (Payment, error) {
	switch method {
	case PaymentMethodSwish:
		return &SwishPayment{Status: StatusNotOrdered, Refunds: []SwishRefundPayload{}}, nil
	case PaymentMethodPaymentLink:
		return &PaymentLinkPayment{Status: StatusNotOrdered}, nil
	}
	return nil, ErrInvalidPayment
}

// MarshalJSON writes the payment as a tagged object under "payment".
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	var payment json.RawMessage
	if o.Payment != nil {
		var err error
		payment, err = marshalPayment(o.Payment)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(struct {
		alias
		Payment json.RawMessage `json:"payment,omitempty"`
	}{alias: alias(o), Payment: payment})
}

// UnmarshalJSON restores the concrete payment variant from its method tag.
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		*alias
		Payment json.RawMessage `json:"payment"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Payment) == 0 || string(aux.Payment) == "null" {
		o.Payment = nil
		return nil
	}
	payment, err := unmarshalPayment(aux.Payment)
	if err != nil {
		return err
	}
	o.Payment = payment
	return nil
}

func marshalPayment(p Payment) ([]byte, error) {
	switch v := p.(type) {
	case *PaymentLinkPayment:
		return json.Marshal(struct {
			Method PaymentMethod `json:"method"`
			*PaymentLinkPayment
		}{Method: v.Method(), PaymentLinkPayment: v})
	case *SwishPayment:
		return json.Marshal(struct {
			Method PaymentMethod `json:"method"`
			*SwishPayment
		}{Method: v.Method(), SwishPayment: v})
	}
	return nil, fmt.Errorf("unsupported payment type %T", p)
}

func unmarshalPayment(data []byte) (Payment, error) {
	var tag struct {
		Method PaymentMethod `json:"method"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}
	switch tag.Method {
	case PaymentMethodPaymentLink:
		var p PaymentLinkPayment
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case PaymentMethodSwish:
		var p SwishPayment
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.Refunds == nil {
			p.Refunds = []SwishRefundPayload{}
		}
		return &p, nil
	}
	return nil, fmt.Errorf("unknown payment method %q", tag.Method)
}

// CheckoutResponse is the application-level result of a checkout. A rejected gateway
// request is reported with status ERROR and the gateway's first error.
type CheckoutResponse struct {
	OrderID               *uuid.UUID    `json:"orderId,omitempty"`
	Status                OrderStatus   `json:"status"`
	SwishID               string        `json:"id,omitempty"`
	PaymentMethod         PaymentMethod `json:"paymentMethod,omitempty"`
	ErrorCode             string        `json:"errorCode,omitempty"`
	ErrorMessage          string        `json:"errorMessage,omitempty"`
	AdditionalInformation string        `json:"additionalInformation,omitempty"`
}

// RefundRequest represents the admin payload for a partial or full refund.
type RefundRequest struct {
	Amount int64 `json:"amount"`
}

// StatusRequest represents the admin payload for a status override.
type StatusRequest struct {
	Status string `json:"status"`
}
