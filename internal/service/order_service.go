package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"store-api/internal/model"
	"store-api/internal/repository"
	"store-api/internal/swish"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	basketRepo repository.BasketRepository
	baskets    BasketService
	gateway    swish.Gateway
	emails     EmailQueue
	logger     zerolog.Logger
	now        func() time.Time

	refundLocks orderLocks
}

// NewOrderService creates a new order service. A nil gateway disables Swish checkout
// and refunds.
func NewOrderService(
	orderRepo repository.OrderRepository,
	basketRepo repository.BasketRepository,
	baskets BasketService,
	gateway swish.Gateway,
	emails EmailQueue,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		basketRepo: basketRepo,
		baskets:    baskets,
		gateway:    gateway,
		emails:     emails,
		logger:     logger.With().Str("service", "order").Logger(),
		now:        time.Now,
	}
}

// CreateOrder prices the basket, snapshots it into an order and starts the payment.
// When the gateway rejects a Swish payment request the order is deleted again and the
// returned response carries the gateway's error alongside a gateway error.
func (s *orderService) CreateOrder(ctx context.Context, basketID uuid.UUID, form model.CheckoutForm) (*model.CheckoutResponse, error) {
	if form.PaymentMethod == model.PaymentMethodSwish && s.gateway == nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidPayment, "Swish payments are not enabled")
	}

	basket, err := s.baskets.PriceBasket(ctx, basketID)
	if err != nil {
		return nil, err
	}

	order, err := AssembleOrder(form, basket)
	if err != nil {
		s.logger.Debug().Err(err).Str("basket_id", basketID.String()).Msg("checkout rejected")
		return nil, err
	}

	now := s.now()
	order.ID = uuid.New()
	order.CreatedAt = now
	order.UpdatedAt = now

	switch payment := order.Payment.(type) {
	case *model.PaymentLinkPayment:
		return s.createPaymentLinkOrder(ctx, order, payment)
	case *model.SwishPayment:
		return s.createSwishOrder(ctx, order, payment)
	}

	return nil, model.ErrInvalidPayment
}

func (s *orderService) createPaymentLinkOrder(ctx context.Context, order *model.Order, payment *model.PaymentLinkPayment) (*model.CheckoutResponse, error) {
	payment.Status = model.StatusCreated

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, model.NewPersistenceError("failed to create order", err)
	}

	s.enqueueConfirmation(order.ID)
	s.deleteBasket(ctx, order.BasketID)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_method", string(payment.Method())).
		Int64("total_price", order.BottomLine.TotalPrice).
		Msg("order created")

	return &model.CheckoutResponse{
		OrderID:       &order.ID,
		Status:        model.StatusCreated,
		PaymentMethod: payment.Method(),
	}, nil
}

func (s *orderService) createSwishOrder(ctx context.Context, order *model.Order, payment *model.SwishPayment) (*model.CheckoutResponse, error) {
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, model.NewPersistenceError("failed to create order", err)
	}

	logger := s.logger.With().Str("order_id", order.ID.String()).Logger()

	swishID, err := s.gateway.CreatePaymentRequest(ctx, swish.PaymentRequest{
		PhoneNumber: order.Details.Telephone,
		Amount:      order.BottomLine.TotalPrice,
		Reference:   order.ID.String(),
		Message:     "Order " + shortOrderID(order.ID),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("payment request rejected, removing order")
		if delErr := s.orderRepo.Delete(context.WithoutCancel(ctx), order.ID); delErr != nil {
			logger.Error().Err(delErr).Msg("failed to remove order after rejected payment request")
		}
		return checkoutFailure(model.ErrCodeGatewayError, err), model.NewGatewayError("payment request rejected", err)
	}

	created := s.now()
	record := &model.SwishPayload{
		ID:                    swishID,
		PayeePaymentReference: order.ID.String(),
		Amount:                float64(order.BottomLine.TotalPrice) / 100,
		Currency:              "SEK",
		Status:                model.SwishStatusCreated,
		DateCreated:           &created,
	}

	marked, err := s.orderRepo.MarkSwishCreated(ctx, order.ID, record)
	if err != nil {
		return checkoutFailure(model.ErrCodePersistenceError, err), model.NewPersistenceError("failed to store payment request", err)
	}
	if !marked {
		logger.Warn().Str("swish_id", swishID).Msg("order already moved on before the payment request was stored")
	}

	payment.Status = model.StatusCreated
	payment.Swish = record
	s.deleteBasket(ctx, order.BasketID)

	logger.Info().
		Str("swish_id", swishID).
		Int64("total_price", order.BottomLine.TotalPrice).
		Msg("swish order created")

	return &model.CheckoutResponse{
		OrderID:       &order.ID,
		Status:        model.StatusCreated,
		SwishID:       swishID,
		PaymentMethod: payment.Method(),
	}, nil
}

func (s *orderService) GetPaymentStatus(ctx context.Context, swishID string) (*model.SwishPayload, error) {
	payload, err := s.orderRepo.GetSwishPayment(ctx, swishID)
	if err != nil {
		return nil, model.NewPersistenceError("failed to get payment", err)
	}
	if payload == nil {
		return nil, model.ErrPaymentNotFound
	}
	return payload, nil
}

// HandlePaymentCallback applies a gateway payment notification. Notifications may arrive
// more than once and out of order; the status only ever moves forward.
func (s *orderService) HandlePaymentCallback(ctx context.Context, payload *model.SwishPayload) error {
	orderID, err := uuid.Parse(payload.PayeePaymentReference)
	if err != nil {
		return model.ErrOrderNotFound
	}

	logger := s.logger.With().
		Str("order_id", orderID.String()).
		Str("swish_id", payload.ID).
		Str("swish_status", payload.Status).
		Logger()

	status, known := payload.OrderStatus()
	if !known {
		return model.NewValidationError(model.ErrCodeInvalidStatus, "unknown payment status "+payload.Status)
	}

	stored, err := s.orderRepo.UpdateSwishPayment(ctx, orderID, payload)
	if err != nil {
		return model.NewPersistenceError("failed to update payment", err)
	}
	if !stored {
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		payment, ok := order.Payment.(*model.SwishPayment)
		if !ok {
			logger.Warn().Msg("payment notification for an order not paid by Swish rejected")
			return model.NewValidationError(model.ErrCodeInvalidPayment, "order is not paid by Swish")
		}
		if payment.Swish != nil && payment.Swish.ID != payload.ID {
			logger.Warn().Str("stored_swish_id", payment.Swish.ID).Msg("payment notification for another payment request rejected")
			return model.ErrPaymentNotFound
		}
		logger.Debug().Msg("stale payment notification ignored")
	}

	advanced, err := s.orderRepo.AdvanceSwishStatus(ctx, orderID, status)
	if err != nil {
		return model.NewPersistenceError("failed to update order status", err)
	}

	if advanced {
		logger.Info().Str("status", string(status)).Msg("order status advanced")
	} else {
		logger.Debug().Str("status", string(status)).Msg("order status unchanged")
	}

	if status != model.StatusPaid {
		return nil
	}
	if !advanced {
		// A repeated PAID re-enqueues; the email claim lets only one send through.
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.OwesConfirmation() {
			logger.Warn().Str("status", string(order.Status())).Msg("paid notification for an order that cannot be confirmed")
			return nil
		}
	}
	s.enqueueConfirmation(orderID)

	return nil
}

func (s *orderService) HandleRefundCallback(ctx context.Context, payload *model.SwishRefundPayload) error {
	orderID, found, err := s.orderRepo.UpdateRefund(ctx, payload)
	if err != nil {
		return model.NewPersistenceError("failed to update refund", err)
	}
	if !found {
		return model.ErrRefundNotFound
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("refund_id", payload.ID).
		Str("refund_status", payload.Status).
		Msg("refund updated")

	return nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, model.NewPersistenceError("failed to list orders", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, model.NewPersistenceError("failed to get order", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, raw string) (*model.Order, error) {
	status, err := model.ParseOrderStatus(raw)
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, model.NewPersistenceError("failed to set order status", err)
	}
	if !updated {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Warn().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status overridden")

	return s.GetOrder(ctx, id)
}

// RequestRefund holds the order's refund lock from the remainder check until the refund
// is recorded, so concurrent requests in this process cannot over-refund.
func (s *orderService) RequestRefund(ctx context.Context, id uuid.UUID, amount int64) (*model.Order, error) {
	unlock := s.refundLocks.lock(id)
	defer unlock()

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	payment, ok := order.Payment.(*model.SwishPayment)
	if !ok {
		return nil, model.ErrRefundNotSupported
	}

	status := payment.Status
	if status != model.StatusPaid && status != model.StatusFulfilled {
		return nil, model.ErrRefundNotAllowed
	}
	reference := payment.PaymentReference()
	if reference == "" {
		return nil, model.ErrRefundNotAllowed
	}

	paid := order.BottomLine.TotalPrice
	if payment.Swish != nil && payment.Swish.Amount > 0 {
		paid = model.MinorUnits(payment.Swish.Amount)
	}
	if amount <= 0 || amount > paid-payment.RefundedAmount() {
		return nil, model.ErrInvalidRefundAmount
	}

	if s.gateway == nil {
		return nil, model.NewGatewayError("Swish refunds are not enabled", nil)
	}

	refundID, err := s.gateway.CreateRefundRequest(ctx, swish.RefundRequest{
		OriginalPaymentReference: reference,
		PayerPaymentReference:    order.ID.String(),
		Amount:                   amount,
		Message:                  "Refund order " + shortOrderID(order.ID),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("refund request rejected")
		return nil, model.NewGatewayError("refund request rejected", err)
	}

	created := s.now()
	refund := &model.SwishRefundPayload{
		ID:                       refundID,
		PayerPaymentReference:    order.ID.String(),
		OriginalPaymentReference: reference,
		Amount:                   float64(amount) / 100,
		Currency:                 "SEK",
		Status:                   model.RefundStatusCreated,
		DateCreated:              &created,
	}

	if err := s.orderRepo.AppendRefund(ctx, order.ID, refund); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("refund_id", refundID).
			Msg("refund accepted by gateway but not recorded")
		return nil, model.NewPersistenceError("failed to record refund", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("refund_id", refundID).
		Int64("amount", amount).
		Msg("refund requested")

	return s.GetOrder(ctx, id)
}

func (s *orderService) CheckRefund(ctx context.Context, refundID string) (*model.Order, error) {
	if s.gateway == nil {
		return nil, model.NewGatewayError("Swish refunds are not enabled", nil)
	}

	payload, err := s.gateway.RetrieveRefundRequest(ctx, refundID)
	if err != nil {
		return nil, model.NewGatewayError("failed to retrieve refund", err)
	}
	if payload.ID == "" {
		payload.ID = refundID
	}

	orderID, found, err := s.orderRepo.UpdateRefund(ctx, payload)
	if err != nil {
		return nil, model.NewPersistenceError("failed to update refund", err)
	}
	if !found {
		return nil, model.ErrRefundNotFound
	}

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) enqueueConfirmation(orderID uuid.UUID) {
	if !s.emails.Enqueue(orderID) {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("confirmation email left for the sweep")
	}
}

// deleteBasket removes the checked-out basket. A failure leaves an identical basket
// behind, which is harmless.
func (s *orderService) deleteBasket(ctx context.Context, basketID uuid.UUID) {
	if err := s.basketRepo.Delete(ctx, basketID); err != nil {
		s.logger.Warn().Err(err).Str("basket_id", basketID.String()).Msg("failed to delete checked out basket")
	}
}

// checkoutFailure builds the ERROR payload returned to the customer. Gateway errors are
// surfaced verbatim; anything else is reported under code.
func checkoutFailure(code string, err error) *model.CheckoutResponse {
	resp := &model.CheckoutResponse{
		Status:        model.StatusError,
		PaymentMethod: model.PaymentMethodSwish,
	}

	if apiErr, ok := swish.AsAPIError(err); ok {
		first := apiErr.First()
		resp.ErrorCode = first.ErrorCode
		resp.ErrorMessage = first.ErrorMessage
		resp.AdditionalInformation = first.AdditionalInformation
		return resp
	}

	resp.ErrorCode = code
	resp.ErrorMessage = err.Error()
	return resp
}

func shortOrderID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// orderLocks hands out one mutex per order id and forgets it once released.
type orderLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*orderLock
}

type orderLock struct {
	sync.Mutex
	waiters int
}

func (l *orderLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*orderLock)
	}
	entry, ok := l.locks[id]
	if !ok {
		entry = &orderLock{}
		l.locks[id] = entry
	}
	entry.waiters++
	l.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		l.mu.Lock()
		entry.waiters--
		if entry.waiters == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
