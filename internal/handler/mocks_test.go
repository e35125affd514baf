package handler

import (
	"context"
	"net/http"

	"store-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockBasketService is a mock implementation of BasketService.
type MockBasketService struct {
	mock.Mock
}

func (m *MockBasketService) basket(args mock.Arguments) (*model.Basket, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Basket), args.Error(1)
}

func (m *MockBasketService) CreateBasket(ctx context.Context) (*model.Basket, error) {
	return m.basket(m.Called(ctx))
}

func (m *MockBasketService) PriceBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error) {
	return m.basket(m.Called(ctx, id))
}

func (m *MockBasketService) GetOrCreateBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error) {
	return m.basket(m.Called(ctx, id))
}

func (m *MockBasketService) DeleteBasket(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBasketService) UpdateItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error) {
	return m.basket(m.Called(ctx, id, req))
}

func (m *MockBasketService) RemoveItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error) {
	return m.basket(m.Called(ctx, id, req))
}

func (m *MockBasketService) UpdateZone(ctx context.Context, id uuid.UUID, location model.Location) (*model.Basket, error) {
	return m.basket(m.Called(ctx, id, location))
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, basketID uuid.UUID, form model.CheckoutForm) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, basketID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) GetPaymentStatus(ctx context.Context, swishID string) (*model.SwishPayload, error) {
	args := m.Called(ctx, swishID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SwishPayload), args.Error(1)
}

func (m *MockOrderService) HandlePaymentCallback(ctx context.Context, payload *model.SwishPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockOrderService) HandleRefundCallback(ctx context.Context, payload *model.SwishRefundPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, status))
}

func (m *MockOrderService) RequestRefund(ctx context.Context, id uuid.UUID, amount int64) (*model.Order, error) {
	return m.order(m.Called(ctx, id, amount))
}

func (m *MockOrderService) CheckRefund(ctx context.Context, refundID string) (*model.Order, error) {
	return m.order(m.Called(ctx, refundID))
}

// withURLParams attaches chi route parameters to a request built with httptest.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
