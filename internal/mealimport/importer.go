package mealimport

import (
	"context"
	"fmt"

	"meal-kart/internal/model"

	"github.com/rs/zerolog"
)

const batchSize = 500

// MealWriter inserts meals, skipping ids that already exist.
type MealWriter interface {
	InsertBatch(ctx context.Context, meals []model.Meal) (int, error)
}

// Report summarises an import run.
type Report struct {
	Read     int `json:"read"`
	Inserted int `json:"inserted"`
	Existing int `json:"existing"`
}

// Importer loads a catalogue file and stores new meals. Existing meals are
// left untouched, so re-running an import is safe.
type Importer struct {
	loader Loader
	meals  MealWriter
	logger zerolog.Logger
}

// NewImporter creates an importer.
func NewImporter(loader Loader, meals MealWriter, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		meals:  meals,
		logger: logger.With().Str("component", "meal-import").Logger(),
	}
}

// Import loads path and inserts its meals in batches.
func (i *Importer) Import(ctx context.Context, path string) (Report, error) {
	meals, err := i.loader.Load(ctx, path)
	if err != nil {
		return Report{}, err
	}

	report := Report{Read: len(meals)}
	for start := 0; start < len(meals); start += batchSize {
		end := min(start+batchSize, len(meals))
		inserted, err := i.meals.InsertBatch(ctx, meals[start:end])
		if err != nil {
			return report, fmt.Errorf("failed to insert meals %d-%d: %w", start, end, err)
		}
		report.Inserted += inserted
	}
	report.Existing = report.Read - report.Inserted

	i.logger.Info().
		Str("path", path).
		Int("read", report.Read).
		Int("inserted", report.Inserted).
		Int("existing", report.Existing).
		Msg("meal import finished")
	return report, nil
}
