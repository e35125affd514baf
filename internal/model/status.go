package model

// OrderStatus is the lifecycle state shared by every payment variant.
type OrderStatus string

const (
	StatusNotOrdered OrderStatus = "NOT_ORDERED"
	StatusCreated    OrderStatus = "CREATED"
	StatusInvoiced   OrderStatus = "INVOICED"
	StatusPaid       OrderStatus = "PAID"
	StatusFulfilled  OrderStatus = "FULFILLED"
	StatusDeclined   OrderStatus = "DECLINED"
	StatusError      OrderStatus = "ERROR"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// forwardRank orders the main lifecycle. Side-states are absent.
var forwardRank = map[OrderStatus]int{
	StatusNotOrdered: 0,
	StatusCreated:    1,
	StatusInvoiced:   2,
	StatusPaid:       3,
	StatusFulfilled:  4,
}

var allStatuses = []OrderStatus{
	StatusNotOrdered,
	StatusCreated,
	StatusInvoiced,
	StatusPaid,
	StatusFulfilled,
	StatusDeclined,
	StatusError,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsSideState reports whether s is one of the terminal failure states.
func (s OrderStatus) IsSideState() bool {
	return s == StatusDeclined || s == StatusError || s == StatusCancelled
}

// IsPrePayment reports whether no money has been settled yet in s.
func (s OrderStatus) IsPrePayment() bool {
	rank, ok := forwardRank[s]
	return ok && rank < forwardRank[StatusPaid]
}

// CanAdvanceTo reports whether an event-driven (non-admin) transition from s to next is allowed.
// The main lifecycle only moves forward; side-states are reachable only before payment and
// are never left.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if next.IsSideState() {
		return s.IsPrePayment()
	}
	from, ok := forwardRank[s]
	if !ok {
		return false
	}
	to, ok := forwardRank[next]
	if !ok {
		return false
	}
	return to > from
}

// AllowedPredecessors lists every status from which CanAdvanceTo(to) holds.
func AllowedPredecessors(to OrderStatus) []OrderStatus {
	var from []OrderStatus
	for _, s := range allStatuses {
		if s.CanAdvanceTo(to) {
			from = append(from, s)
		}
	}
	return from
}

// ConfirmationStatuses lists the statuses in which an order paid by method is owed a
// confirmation email. Swish orders are confirmed only once the money has settled.
func ConfirmationStatuses(method PaymentMethod) []OrderStatus {
	switch method {
	case PaymentMethodPaymentLink:
		return []OrderStatus{StatusCreated, StatusInvoiced, StatusPaid, StatusFulfilled}
	case PaymentMethodSwish:
		return []OrderStatus{StatusPaid, StatusFulfilled}
	}
	return nil
}

// ParseOrderStatus validates a status coming from outside the process.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
