package repository

import (
	"context"
	"encoding/json"
	"time"

	"store-api/internal/cache"
	"store-api/internal/model"

	"github.com/rs/zerolog"
)

// cachedProductRepository serves GetBySlug from the cache and falls through to the
// wrapped repository on a miss or any cache failure.
type cachedProductRepository struct {
	next   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedProductRepository wraps next with a read-through product cache.
func NewCachedProductRepository(next ProductRepository, c cache.Cache, ttl time.Duration, logger zerolog.Logger) ProductRepository {
	return &cachedProductRepository{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger.With().Str("repository", "product_cache").Logger(),
	}
}

func (r *cachedProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	return r.next.GetAll(ctx, limit, offset)
}

func (r *cachedProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	key := r.cache.GenerateKey("product", slug)

	cached, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("slug", slug).Msg("product cache read failed")
	} else if cached != "" {
		var p model.Product
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
		r.logger.Warn().Str("slug", slug).Msg("discarding undecodable cached product")
	}

	p, err := r.next.GetBySlug(ctx, slug)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.logger.Warn().Err(err).Str("slug", slug).Msg("product cache write failed")
		}
	}

	return p, nil
}

// Upsert writes through and evicts the affected slugs.
func (r *cachedProductRepository) Upsert(ctx context.Context, products []model.Product) error {
	if err := r.next.Upsert(ctx, products); err != nil {
		return err
	}

	keys := make([]string, len(products))
	for i := range products {
		keys[i] = r.cache.GenerateKey("product", products[i].Slug)
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn().Err(err).Int("count", len(keys)).Msg("product cache eviction failed")
	}

	return nil
}
