package service

import (
	"context"

	"store-api/internal/model"

	"github.com/google/uuid"
)

// ProductService defines read operations on the catalogue.
type ProductService interface {
	// GetAll retrieves products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetBySlug retrieves a single product.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
}

// BasketService defines operations for basket maintenance and valuation.
// Every mutating operation returns the freshly priced basket.
type BasketService interface {
	// CreateBasket stores an empty basket and purges expired ones on a best-effort basis.
	CreateBasket(ctx context.Context) (*model.Basket, error)

	// PriceBasket values the stored basket against the current catalogue.
	PriceBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error)

	// GetOrCreateBasket prices the basket, replacing it with a new one only when it does not exist.
	GetOrCreateBasket(ctx context.Context, id uuid.UUID) (*model.Basket, error)

	DeleteBasket(ctx context.Context, id uuid.UUID) error
	UpdateItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error)
	RemoveItem(ctx context.Context, id uuid.UUID, req model.BasketItemRequest) (*model.Basket, error)
	UpdateZone(ctx context.Context, id uuid.UUID, location model.Location) (*model.Basket, error)
}

// OrderService owns the order lifecycle from checkout to refund.
type OrderService interface {
	// CreateOrder checks out a basket.
	CreateOrder(ctx context.Context, basketID uuid.UUID, form model.CheckoutForm) (*model.CheckoutResponse, error)

	// GetPaymentStatus returns the stored gateway record for a Swish payment id.
	GetPaymentStatus(ctx context.Context, swishID string) (*model.SwishPayload, error)

	HandlePaymentCallback(ctx context.Context, payload *model.SwishPayload) error
	HandleRefundCallback(ctx context.Context, payload *model.SwishRefundPayload) error

	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// SetStatus is the admin override. Any known status may be set.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Order, error)

	// RequestRefund refunds amount öre of a settled Swish order.
	RequestRefund(ctx context.Context, id uuid.UUID, amount int64) (*model.Order, error)

	// CheckRefund polls the gateway for a refund and stores the result.
	CheckRefund(ctx context.Context, refundID string) (*model.Order, error)
}

// EmailQueue schedules confirmation emails without blocking the caller.
type EmailQueue interface {
	Enqueue(orderID uuid.UUID) bool
}
