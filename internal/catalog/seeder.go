package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"store-api/internal/model"

	"github.com/rs/zerolog"
)

// ProductWriter stores seeded products.
type ProductWriter interface {
	Upsert(ctx context.Context, products []model.Product) error
}

// Seeder loads catalogue files and writes them to the product store.
type Seeder struct {
	loader Loader
	store  ProductWriter
	logger zerolog.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(loader Loader, store ProductWriter, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "catalog-seeder").Logger(),
	}
}

// Seed loads every file concurrently and upserts the merged catalogue. When a slug
// appears in several files the entry from the later file wins. It returns the number
// of products written.
func (s *Seeder) Seed(ctx context.Context, files []string) (int, error) {
	products, err := s.load(ctx, files)
	if err != nil {
		return 0, err
	}

	if len(products) == 0 {
		s.logger.Warn().Strs("files", files).Msg("catalog is empty, nothing to seed")
		return 0, nil
	}

	if err := s.store.Upsert(ctx, products); err != nil {
		return 0, fmt.Errorf("failed to store catalog: %w", err)
	}

	s.logger.Info().Int("products", len(products)).Msg("catalog seeded")
	return len(products), nil
}

func (s *Seeder) load(ctx context.Context, files []string) ([]model.Product, error) {
	type loadResult struct {
		index    int
		products []model.Product
		err      error
	}

	resultChan := make(chan loadResult, len(files))
	var wg sync.WaitGroup

	for i, name := range files {
		wg.Add(1)
		go func(index int, name string) {
			defer wg.Done()

			products, err := s.loader.Load(ctx, name)
			resultChan <- loadResult{index: index, products: products, err: err}
		}(i, name)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(files))
	for result := range resultChan {
		results[result.index] = result
	}

	merged := make(map[string]model.Product)
	for i, result := range results {
		if result.err != nil {
			s.logger.Error().Err(result.err).Str("file", files[i]).Msg("failed to load catalog file")
			return nil, fmt.Errorf("failed to load catalog file %s: %w", files[i], result.err)
		}
		for _, p := range result.products {
			merged[p.Slug] = p
		}
	}

	products := make([]model.Product, 0, len(merged))
	for _, p := range merged {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Slug < products[j].Slug })

	return products, nil
}
