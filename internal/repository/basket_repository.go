package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// basketRepository implements the BasketRepository interface using PostgreSQL.
type basketRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBasketRepository creates a new PostgreSQL-backed basket repository.
func NewBasketRepository(pool *pgxpool.Pool, logger zerolog.Logger) BasketRepository {
	return &basketRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "basket").Logger(),
	}
}

func (r *basketRepository) Create(ctx context.Context, basket *model.StoredBasket) error {
	query := `
		INSERT INTO baskets (id, address, zone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, basket.ID, basket.Location.Address, basket.Location.Zone,
		basket.CreatedAt, basket.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("basket_id", basket.ID.String()).Msg("failed to create basket")
		return fmt.Errorf("failed to create basket: %w", err)
	}

	return nil
}

func (r *basketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoredBasket, error) {
	basketQuery := `
		SELECT id, address, zone, created_at, updated_at
		FROM baskets
		WHERE id = $1
	`

	var b model.StoredBasket
	err := r.pool.QueryRow(ctx, basketQuery, id).Scan(
		&b.ID,
		&b.Location.Address,
		&b.Location.Zone,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("basket_id", id.String()).Msg("basket not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to query basket")
		return nil, fmt.Errorf("failed to query basket: %w", err)
	}

	itemsQuery := `
		SELECT product_slug, quantity, delivery_type, delivery_date
		FROM basket_items
		WHERE basket_id = $1
		ORDER BY added_at, product_slug
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to query basket items")
		return nil, fmt.Errorf("failed to query basket items: %w", err)
	}
	defer rows.Close()

	b.Items = []model.StoredItem{}
	for rows.Next() {
		var item model.StoredItem
		if err := rows.Scan(&item.ProductSlug, &item.Quantity, &item.DeliveryType, &item.DeliveryDate); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan basket item row")
			return nil, fmt.Errorf("failed to scan basket item: %w", err)
		}
		b.Items = append(b.Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating basket item rows")
		return nil, fmt.Errorf("error iterating basket items: %w", err)
	}

	return &b, nil
}

func (r *basketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM baskets WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("basket_id", id.String()).Msg("failed to delete basket")
		return fmt.Errorf("failed to delete basket: %w", err)
	}
	return nil
}

func (r *basketRepository) UpsertItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) error {
	query := `
		WITH touched AS (
			UPDATE baskets SET updated_at = NOW() WHERE id = $1 RETURNING id
		)
		INSERT INTO basket_items (basket_id, product_slug, quantity, delivery_type, delivery_date)
		SELECT id, $2, $3, $4, $5 FROM touched
		ON CONFLICT (basket_id, product_slug, delivery_type, delivery_date)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`

	_, err := r.pool.Exec(ctx, query, basketID, item.ProductSlug, item.Quantity, item.DeliveryType, item.DeliveryDate)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("basket_id", basketID.String()).
			Str("slug", item.ProductSlug).
			Msg("failed to upsert basket item")
		return fmt.Errorf("failed to upsert basket item: %w", err)
	}

	return nil
}

func (r *basketRepository) RemoveItem(ctx context.Context, basketID uuid.UUID, item model.StoredItem) (bool, error) {
	query := `
		DELETE FROM basket_items
		WHERE basket_id = $1 AND product_slug = $2 AND delivery_type = $3 AND delivery_date = $4
	`

	tag, err := r.pool.Exec(ctx, query, basketID, item.ProductSlug, item.DeliveryType, item.DeliveryDate)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("basket_id", basketID.String()).
			Str("slug", item.ProductSlug).
			Msg("failed to remove basket item")
		return false, fmt.Errorf("failed to remove basket item: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *basketRepository) UpdateZone(ctx context.Context, basketID uuid.UUID, location model.Location) (bool, error) {
	query := `
		UPDATE baskets
		SET address = $2, zone = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, basketID, location.Address, location.Zone)
	if err != nil {
		r.logger.Error().Err(err).Str("basket_id", basketID.String()).Msg("failed to update basket zone")
		return false, fmt.Errorf("failed to update basket zone: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *basketRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM baskets WHERE created_at < $1`, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to delete old baskets")
		return 0, fmt.Errorf("failed to delete old baskets: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		r.logger.Info().Int64("count", n).Time("cutoff", cutoff).Msg("old baskets deleted")
	}

	return tag.RowsAffected(), nil
}
