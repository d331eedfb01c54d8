package repository

import (
	"context"
	"fmt"

	"meal-kart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type scheduleRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewScheduleRepository creates a new PostgreSQL-backed schedule repository.
func NewScheduleRepository(pool *pgxpool.Pool, logger zerolog.Logger) ScheduleRepository {
	return &scheduleRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "schedule").Logger(),
	}
}

// Upsert creates or replaces a day's schedule.
func (r *scheduleRepository) Upsert(ctx context.Context, d *model.ScheduleDay) error {
	query := `
		INSERT INTO schedule_days (day, meals, snack_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (day) DO UPDATE
		SET meals = EXCLUDED.meals, snack_id = EXCLUDED.snack_id, updated_at = NOW()
		RETURNING updated_at`

	if err := r.pool.QueryRow(ctx, query, d.Day, nonNilStrings(d.Meals), d.SnackID).Scan(&d.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("day", d.Day).Msg("failed to upsert schedule day")
		return fmt.Errorf("failed to upsert schedule day: %w", err)
	}
	return nil
}

// FindAll returns every scheduled day, Sunday first.
func (r *scheduleRepository) FindAll(ctx context.Context) ([]model.ScheduleDay, error) {
	query := `
		SELECT day, meals, snack_id, updated_at
		FROM schedule_days
		ORDER BY array_position(ARRAY['Sunday','Monday','Tuesday','Wednesday','Thursday','Friday','Saturday'], day)`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query schedule")
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	days := []model.ScheduleDay{}
	for rows.Next() {
		var d model.ScheduleDay
		if err := rows.Scan(&d.Day, &d.Meals, &d.SnackID, &d.UpdatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan schedule row")
			return nil, fmt.Errorf("failed to scan schedule day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule: %w", err)
	}
	return days, nil
}

// Delete removes a day's schedule.
func (r *scheduleRepository) Delete(ctx context.Context, day string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_days WHERE day = $1`, day)
	if err != nil {
		r.logger.Error().Err(err).Str("day", day).Msg("failed to delete schedule day")
		return false, fmt.Errorf("failed to delete schedule day: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
