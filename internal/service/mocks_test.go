package service

import (
	"context"
	"time"

	"store-api/internal/model"
	"store-api/internal/swish"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, products []model.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

// MockBasketRepository is a mock implementation of BasketRepository.
type MockBasketRepository struct {
	mock.Mock
}

func (m *MockBasketRepository) Create(ctx context.Context, basket *model.StoredBasket) error {
	args := m.Called(ctx, basket)
	return args.Error(0)
}

func (m *MockBasketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoredBasket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredBasket), args.Error(1)
}

func (m *MockBasketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBasketRepository) UpsertItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) error {
	args := m.Called(ctx, basketID, item)
	return args.Error(0)
}

func (m *MockBasketRepository) RemoveItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) (bool, error) {
	args := m.Called(ctx, basketID, item)
	return args.Bool(0), args.Error(1)
}

func (m *MockBasketRepository) UpdateZone(ctx context.Context, basketID uuid.UUID, location model.Location) (bool, error) {
	args := m.Called(ctx, basketID, location)
	return args.Bool(0), args.Error(1)
}

func (m *MockBasketRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockGateway is a mock implementation of swish.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentRequest(ctx context.Context, req swish.PaymentRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateRefundRequest(ctx context.Context, req swish.RefundRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) RetrieveRefundRequest(ctx context.Context, id string) (*model.SwishRefundPayload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SwishRefundPayload), args.Error(1)
}

// MockEmailQueue is a mock implementation of EmailQueue.
type MockEmailQueue struct {
	mock.Mock
}

func (m *MockEmailQueue) Enqueue(orderID uuid.UUID) bool {
	args := m.Called(orderID)
	return args.Bool(0)
}
