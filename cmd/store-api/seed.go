package main

import (
	"fmt"

	"store-api/internal/catalog"
	"store-api/internal/config"
	"store-api/internal/database"
	"store-api/internal/repository"

	"github.com/spf13/cobra"
)

func seedCatalogCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load catalog files into the products table",
		Long: `Load catalog YAML files (optionally gzipped) and upsert every product.

Files are read from S3 when S3_ENABLED is set, falling back to CATALOG_DIR.

Examples:
  store-api seed-catalog
  store-api seed-catalog --file products.yaml --file seasonal.yaml.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := config.NewLogger(cfg.Logger)
			ctx := cmd.Context()

			if len(files) == 0 {
				files = cfg.Catalog.Files
			}

			pool, err := database.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to initialise database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool, logger); err != nil {
				return err
			}

			fileLoader := catalog.NewFileLoader(cfg.Catalog.Dir, logger)
			var s3Loader catalog.Loader
			if cfg.S3.Enabled {
				s3Loader, err = catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
				if err != nil {
					logger.Warn().
						Err(err).
						Msg("failed to initialise S3 loader, falling back to local file system only")
					s3Loader = nil
				}
			}
			loader := catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)

			seeder := catalog.NewSeeder(loader, repository.NewProductRepository(pool, logger), logger)
			count, err := seeder.Seed(ctx, files)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products from %d files\n", count, len(files))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "catalog file to load (repeatable); defaults to CATALOG_FILES")

	return cmd
}
