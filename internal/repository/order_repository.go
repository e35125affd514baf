package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `o.id, o.basket_id, o.customer_name, o.customer_email, o.customer_telephone,
		o.customer_address, o.customer_notes, o.items, o.delivery, o.total_delivery, o.total_moms,
		o.total_price, o.payment_method, o.status, o.confirmation_email_sent, o.swish,
		COALESCE((SELECT jsonb_agg(r.payload ORDER BY r.created_at) FROM order_refunds r WHERE r.order_id = o.id), '[]'::jsonb),
		o.created_at, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	now    func() time.Time
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
		now:    time.Now,
	}
}

// Create inserts a new order snapshot.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.Payment == nil {
		return fmt.Errorf("failed to create order: payment is required")
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	delivery, err := json.Marshal(nonNil(order.Delivery))
	if err != nil {
		return fmt.Errorf("failed to encode order delivery: %w", err)
	}

	var swishID *string
	var swish []byte
	if p, ok := order.Payment.(*model.SwishPayment); ok && p.Swish != nil {
		swishID = &p.Swish.ID
		if swish, err = json.Marshal(p.Swish); err != nil {
			return fmt.Errorf("failed to encode swish payload: %w", err)
		}
	}

	query := `
		INSERT INTO orders (id, basket_id, customer_name, customer_email, customer_telephone,
			customer_address, customer_notes, items, delivery, total_delivery, total_moms, total_price,
			payment_method, status, confirmation_email_sent, swish_id, swish, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = r.pool.Exec(ctx, query,
		order.ID, order.BasketID,
		order.Details.Name, order.Details.Email, order.Details.Telephone,
		order.Details.Address, order.Details.Notes,
		items, delivery,
		order.BottomLine.TotalDelivery, order.BottomLine.TotalMoms, order.BottomLine.TotalPrice,
		string(order.Payment.Method()), string(order.Payment.PaymentStatus()), order.Payment.EmailSent(),
		swishID, swish,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("payment_method", string(order.Payment.Method())).
		Msg("order created")

	return nil
}

// GetByID retrieves an order with its refunds.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// List returns all orders newest first.
func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o ORDER BY o.created_at DESC, o.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (r *orderRepository) MarkSwishCreated(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error) {
	swish, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode swish payload: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $2, swish_id = $3, swish = $4, updated_at = NOW()
		WHERE id = $1 AND payment_method = 'swish' AND status = $5
	`

	tag, err := r.pool.Exec(ctx, query, id, string(model.StatusCreated), payload.ID, swish, string(model.StatusNotOrdered))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark swish order created")
		return false, fmt.Errorf("failed to mark swish order created: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) UpdateSwishPayment(ctx context.Context, id uuid.UUID, payload *model.SwishPayload) (bool, error) {
	swish, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode swish payload: %w", err)
	}

	query := `
		UPDATE orders
		SET swish = $2, swish_id = $3, updated_at = NOW()
		WHERE id = $1
		AND payment_method = 'swish'
		AND (swish_id IS NULL OR swish_id = $3)
		AND NOT ($4::text = 'CREATED' AND swish IS NOT NULL AND COALESCE(swish->>'status', 'CREATED') <> 'CREATED')
	`

	tag, err := r.pool.Exec(ctx, query, id, swish, payload.ID, payload.Status)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update swish payment")
		return false, fmt.Errorf("failed to update swish payment: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) GetSwishPayment(ctx context.Context, swishID string) (*model.SwishPayload, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT swish FROM orders WHERE swish_id = $1`, swishID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("swish_id", swishID).Msg("failed to query swish payment")
		return nil, fmt.Errorf("failed to query swish payment: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var payload model.SwishPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode swish payment: %w", err)
	}

	return &payload, nil
}

func (r *orderRepository) AdvanceSwishStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	from := model.AllowedPredecessors(status)
	if len(from) == 0 {
		return false, nil
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_method = 'swish' AND status = ANY($3)
	`

	tag, err := r.pool.Exec(ctx, query, id, string(status), statusStrings(from))
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to advance order status")
		return false, fmt.Errorf("failed to advance order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set order status")
		return false, fmt.Errorf("failed to set order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) ClaimConfirmationEmail(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	now := r.now()

	query := `
		UPDATE orders
		SET email_claimed_until = $2
		WHERE id = $1
		AND confirmation_email_sent = FALSE
		AND (email_claimed_until IS NULL OR email_claimed_until < $3)
		AND (
			(payment_method = 'paymentLink' AND status = ANY($4))
			OR (payment_method = 'swish' AND status = ANY($5))
		)
	`

	tag, err := r.pool.Exec(ctx, query, id, now.Add(lease), now,
		statusStrings(model.ConfirmationStatuses(model.PaymentMethodPaymentLink)),
		statusStrings(model.ConfirmationStatuses(model.PaymentMethodSwish)),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to claim confirmation email")
		return false, fmt.Errorf("failed to claim confirmation email: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) RecordConfirmationEmail(ctx context.Context, id uuid.UUID, sent bool) error {
	query := `
		UPDATE orders
		SET confirmation_email_sent = $2, email_claimed_until = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, sent); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to record confirmation email")
		return fmt.Errorf("failed to record confirmation email: %w", err)
	}

	return nil
}

func (r *orderRepository) ListPendingConfirmations(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM orders
		WHERE confirmation_email_sent = FALSE
		AND (email_claimed_until IS NULL OR email_claimed_until < $1)
		AND (
			(payment_method = 'paymentLink' AND status = ANY($2))
			OR (payment_method = 'swish' AND status = ANY($3))
		)
		ORDER BY created_at
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, r.now(),
		statusStrings(model.ConfirmationStatuses(model.PaymentMethodPaymentLink)),
		statusStrings(model.ConfirmationStatuses(model.PaymentMethodSwish)),
		limit,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pending confirmations")
		return nil, fmt.Errorf("failed to query pending confirmations: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending confirmations: %w", err)
	}

	return ids, nil
}

func (r *orderRepository) AppendRefund(ctx context.Context, orderID uuid.UUID, refund *model.SwishRefundPayload) error {
	payload, err := json.Marshal(refund)
	if err != nil {
		return fmt.Errorf("failed to encode refund: %w", err)
	}

	query := `INSERT INTO order_refunds (id, order_id, payload) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, refund.ID, orderID, payload); err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("refund_id", refund.ID).
			Msg("failed to append refund")
		return fmt.Errorf("failed to append refund: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateRefund(ctx context.Context, refund *model.SwishRefundPayload) (uuid.UUID, bool, error) {
	payload, err := json.Marshal(refund)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to encode refund: %w", err)
	}

	query := `
		UPDATE order_refunds
		SET payload = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING order_id
	`

	var orderID uuid.UUID
	if err := r.pool.QueryRow(ctx, query, refund.ID, payload).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		r.logger.Error().Err(err).Str("refund_id", refund.ID).Msg("failed to update refund")
		return uuid.Nil, false, fmt.Errorf("failed to update refund: %w", err)
	}

	return orderID, true, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o         model.Order
		items     []byte
		delivery  []byte
		method    string
		status    string
		emailSent bool
		swish     []byte
		refunds   []byte
	)

	err := row.Scan(
		&o.ID, &o.BasketID,
		&o.Details.Name, &o.Details.Email, &o.Details.Telephone, &o.Details.Address, &o.Details.Notes,
		&items, &delivery,
		&o.BottomLine.TotalDelivery, &o.BottomLine.TotalMoms, &o.BottomLine.TotalPrice,
		&method, &status, &emailSent, &swish, &refunds,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(delivery, &o.Delivery); err != nil {
		return nil, fmt.Errorf("failed to decode order delivery: %w", err)
	}

	switch model.PaymentMethod(method) {
	case model.PaymentMethodPaymentLink:
		o.Payment = &model.PaymentLinkPayment{
			Status:                model.OrderStatus(status),
			ConfirmationEmailSent: emailSent,
		}
	case model.PaymentMethodSwish:
		p := &model.SwishPayment{
			Status:                model.OrderStatus(status),
			ConfirmationEmailSent: emailSent,
			Refunds:               []model.SwishRefundPayload{},
		}
		if swish != nil {
			p.Swish = &model.SwishPayload{}
			if err := json.Unmarshal(swish, p.Swish); err != nil {
				return nil, fmt.Errorf("failed to decode swish payload: %w", err)
			}
		}
		if err := json.Unmarshal(refunds, &p.Refunds); err != nil {
			return nil, fmt.Errorf("failed to decode refunds: %w", err)
		}
		o.Payment = p
	default:
		return nil, fmt.Errorf("unknown payment method %q", method)
	}

	return &o, nil
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
