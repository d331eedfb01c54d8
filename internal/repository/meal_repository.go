package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-kart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const mealColumns = `id, name, description, type, category, tags, photo, price, available, created_at, updated_at`

type mealRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMealRepository creates a new PostgreSQL-backed meal repository.
func NewMealRepository(pool *pgxpool.Pool, logger zerolog.Logger) MealRepository {
	return &mealRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "meal").Logger(),
	}
}

func scanMeal(row pgx.Row, m *model.Meal) error {
	return row.Scan(&m.ID, &m.Name, &m.Description, &m.Type, &m.Category, &m.Tags,
		&m.Photo, &m.Price, &m.Available, &m.CreatedAt, &m.UpdatedAt)
}

func (r *mealRepository) collect(rows pgx.Rows) ([]model.Meal, error) {
	defer rows.Close()

	meals := []model.Meal{}
	for rows.Next() {
		var m model.Meal
		if err := scanMeal(rows, &m); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan meal row")
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating meal rows")
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}
	return meals, nil
}

const insertMealSQL = `
	INSERT INTO meals (id, name, description, type, category, tags, photo, price, available)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING`

func insertMealArgs(m *model.Meal) []any {
	return []any{m.ID, m.Name, m.Description, m.Type, m.Category, nonNilStrings(m.Tags), m.Photo, m.Price, m.Available}
}

// Insert adds a meal, returning false when the id already exists.
func (r *mealRepository) Insert(ctx context.Context, meal *model.Meal) (bool, error) {
	tag, err := r.pool.Exec(ctx, insertMealSQL, insertMealArgs(meal)...)
	if err != nil {
		r.logger.Error().Err(err).Str("meal_id", meal.ID).Msg("failed to insert meal")
		return false, fmt.Errorf("failed to insert meal: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertBatch adds meals in one round trip, skipping existing ids.
func (r *mealRepository) InsertBatch(ctx context.Context, meals []model.Meal) (int, error) {
	if len(meals) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range meals {
		batch.Queue(insertMealSQL, insertMealArgs(&meals[i])...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := range meals {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().Err(err).Str("meal_id", meals[i].ID).Msg("failed to insert meal")
			return inserted, fmt.Errorf("failed to insert meal %s: %w", meals[i].ID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	r.logger.Debug().Int("inserted", inserted).Int("total", len(meals)).Msg("meal batch inserted")
	return inserted, nil
}

// List returns meals matching the filter ordered by name.
func (r *mealRepository) List(ctx context.Context, filter model.MealFilter) ([]model.Meal, error) {
	var (
		where []string
		args  []any
	)
	if filter.Available != nil {
		args = append(args, *filter.Available)
		where = append(where, fmt.Sprintf("available = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	query := `SELECT ` + mealColumns + ` FROM meals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query meals")
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	return r.collect(rows)
}

// GetByID retrieves a single meal.
func (r *mealRepository) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	var m model.Meal
	err := scanMeal(r.pool.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, id), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("meal_id", id).Msg("failed to query meal")
		return nil, fmt.Errorf("failed to query meal: %w", err)
	}
	return &m, nil
}

// GetByIDs retrieves the meals among ids, available or not.
func (r *mealRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Meal, error) {
	if len(ids) == 0 {
		return []model.Meal{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query meals by IDs")
		return nil, fmt.Errorf("failed to query meals by IDs: %w", err)
	}
	return r.collect(rows)
}

// Update overwrites the mutable meal fields.
func (r *mealRepository) Update(ctx context.Context, m *model.Meal) error {
	query := `
		UPDATE meals
		SET name = $2, description = $3, type = $4, category = $5, tags = $6,
			photo = $7, price = $8, available = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, m.ID, m.Name, m.Description, m.Type, m.Category,
		nonNilStrings(m.Tags), m.Photo, m.Price, m.Available).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewNotFoundError("Meal not found")
		}
		r.logger.Error().Err(err).Str("meal_id", m.ID).Msg("failed to update meal")
		return fmt.Errorf("failed to update meal: %w", err)
	}
	return nil
}

// Delete removes a meal, reporting whether it existed.
func (r *mealRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("meal_id", id).Msg("failed to delete meal")
		return false, fmt.Errorf("failed to delete meal: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
