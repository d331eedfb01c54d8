package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"meal-kart/internal/config"
	"meal-kart/internal/database"
	"meal-kart/internal/mealimport"
	"meal-kart/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "catalogue file, relative to MEAL_IMPORT_DIR locally or S3_PREFIX in the bucket")
	flag.Parse()
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	// S3 first when enabled, local directory otherwise or on failure
	var s3Loader mealimport.Loader
	if cfg.Import.S3Enabled {
		s3Loader, err = mealimport.NewS3Loader(ctx, cfg.Import.Bucket, cfg.Import.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	}
	loader := mealimport.NewFallbackLoader(
		s3Loader,
		mealimport.NewDirLoader(cfg.Import.LocalDir, logger),
		cfg.Import.Prefix,
		cfg.Import.S3Enabled,
		logger,
	)

	importer := mealimport.NewImporter(loader, repository.NewMealRepository(pool, logger), logger)
	report, err := importer.Import(ctx, *file)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info().
		Str("file", *file).
		Int("read", report.Read).
		Int("inserted", report.Inserted).
		Int("existing", report.Existing).
		Msg("meal import completed")
	return nil
}
