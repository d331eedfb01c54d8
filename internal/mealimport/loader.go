package mealimport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"meal-kart/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader reads catalogue files from the local file system.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "meal-loader").Logger(),
	}
}

// NewDirLoader creates a file-based loader that resolves relative paths
// against dir.
func NewDirLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "meal-loader").Str("dir", dir).Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Meal, error) {
	if l.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	l.logger.Info().Str("file", path).Msg("loading meal catalogue")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalogue file")
		return nil, fmt.Errorf("failed to open catalogue file %s: %w", path, err)
	}
	defer file.Close()

	meals, skipped, err := Parse(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("error reading catalogue file")
		return nil, fmt.Errorf("error reading catalogue file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("meals_loaded", len(meals)).
		Int("rows_skipped", skipped).
		Msg("meal catalogue loaded")

	return meals, nil
}
