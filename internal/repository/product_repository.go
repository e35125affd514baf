package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"store-api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `slug, name, brand, category, description, available, gross_price, moms_rate,
		delivery_methods, delivery, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves products ordered by name with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY name, slug
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetBySlug retrieves a single product.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE slug = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("slug", slug).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Upsert inserts or replaces products by slug in one batch.
func (r *productRepository) Upsert(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (slug, name, brand, category, description, available, gross_price,
			moms_rate, delivery_methods, delivery)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			available = EXCLUDED.available,
			gross_price = EXCLUDED.gross_price,
			moms_rate = EXCLUDED.moms_rate,
			delivery_methods = EXCLUDED.delivery_methods,
			delivery = EXCLUDED.delivery,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for i := range products {
		p := &products[i]
		description, err := json.Marshal(nonNil(p.Description))
		if err != nil {
			return fmt.Errorf("failed to encode description of %s: %w", p.Slug, err)
		}
		methods, err := json.Marshal(nonNil(p.DeliveryMethods))
		if err != nil {
			return fmt.Errorf("failed to encode delivery methods of %s: %w", p.Slug, err)
		}
		delivery, err := json.Marshal(p.Delivery)
		if err != nil {
			return fmt.Errorf("failed to encode delivery of %s: %w", p.Slug, err)
		}
		batch.Queue(query, p.Slug, p.Name, p.Brand, p.Category, description, p.Available,
			p.GrossPrice, p.MomsRate, methods, delivery)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range products {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("slug", products[i].Slug).
				Msg("failed to upsert product")
			return fmt.Errorf("failed to upsert product %s: %w", products[i].Slug, err)
		}
	}

	r.logger.Debug().
		Int("count", len(products)).
		Msg("products upserted")

	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p           model.Product
		description []byte
		methods     []byte
		delivery    []byte
	)
	err := row.Scan(&p.Slug, &p.Name, &p.Brand, &p.Category, &description, &p.Available,
		&p.GrossPrice, &p.MomsRate, &methods, &delivery, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(description, &p.Description); err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	if err := json.Unmarshal(methods, &p.DeliveryMethods); err != nil {
		return nil, fmt.Errorf("failed to decode delivery methods: %w", err)
	}
	if err := json.Unmarshal(delivery, &p.Delivery); err != nil {
		return nil, fmt.Errorf("failed to decode delivery: %w", err)
	}
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
