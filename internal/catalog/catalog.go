// Package catalog loads product catalogue files and seeds them into the product store.
package catalog

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"store-api/internal/model"

	"gopkg.in/yaml.v3"
)

// Loader reads a single catalogue file.
type Loader interface {
	// Load returns the products listed in the named file. Names ending in ".gz" are
	// decompressed first.
	Load(ctx context.Context, name string) ([]model.Product, error)
}

// decode parses a YAML list of products, gunzipping r first when name says so.
func decode(name string, r io.Reader) ([]model.Product, error) {
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gz.Close()
		r = gz
	}

	var products []model.Product
	if err := yaml.NewDecoder(r).Decode(&products); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Product{}, nil
		}
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", name, err)
	}

	for i, p := range products {
		if strings.TrimSpace(p.Slug) == "" {
			return nil, fmt.Errorf("catalog file %s: product %d has no slug", name, i)
		}
	}

	return products, nil
}
