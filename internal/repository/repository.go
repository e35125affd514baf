package repository

import (
	"context"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
)

// Not-found results are reported as a nil value or a false flag, never as an error.

// ProductRepository defines the interface for catalogue data access operations.
type ProductRepository interface {
	// GetAll retrieves products ordered by name with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetBySlug retrieves a single product.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Upsert inserts or replaces products by slug.
	Upsert(ctx context.Context, products []model.Product) error
}

// BasketRepository defines the interface for stored basket operations.
type BasketRepository interface {
	Create(ctx context.Context, basket *model.StoredBasket) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StoredBasket, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpsertItem replaces the quantity of the line matching slug, type and date, or adds it.
	UpsertItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) error

	// RemoveItem deletes the line matching slug, type and date.
	RemoveItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) (bool, error)

	UpdateZone(ctx context.Context, basketID uuid.UUID, location model.Location) (bool, error)

	// DeleteOlderThan removes baskets created before cutoff and returns how many went.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository defines the interface for order data access operations.
// Every mutation is a single conditional statement.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List returns orders newest first.
	List(ctx context.Context) ([]model.Order, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// MarkSwishCreated stores the gateway record and moves NOT_ORDERED to CREATED.
	MarkSwishCreated(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error)

	// UpdateSwishPayment replaces the gateway record of a swish order. The record is only
	// replaced by one with the same gateway id, and a CREATED record never replaces a final one.
	UpdateSwishPayment(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error)

	// GetSwishPayment returns the gateway record stored under the gateway id.
	GetSwishPayment(ctx context.Context, swishID string) (*model.SwishPayload, error)

	// AdvanceSwishStatus moves a swish order to status only from a state that may precede it.
	AdvanceSwishStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error)

	// SetStatus overwrites the status unconditionally.
	SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error)

	// ClaimConfirmationEmail takes a lease on sending the confirmation email. It succeeds
	// only while the order owes a confirmation, the email is unsent and no other live lease exists.
	ClaimConfirmationEmail(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)

	// RecordConfirmationEmail stores the send outcome and releases the lease.
	RecordConfirmationEmail(ctx context.Context, id uuid.UUID, sent bool) error

	// ListPendingConfirmations returns orders owed a confirmation email and not currently leased.
	ListPendingConfirmations(ctx context.Context, limit int) ([]uuid.UUID, error)

	AppendRefund(ctx context.Context, orderID uuid.UUID, refund *model.SwishRefundPayload) error

	// UpdateRefund replaces the refund record with the same id and returns its order.
	UpdateRefund(ctx context.Context, refund *model.SwishRefundPayload) (uuid.UUID, bool, error)
}
