package repository

import (
	"context"
	"errors"
	"fmt"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const planColumns = `id, user_id, type, status, no_meals, no_days, snack, no_breakfast, specify_days,
	custom_protein, custom_carb, estimated_price, start_date, expiry_date, created_at, updated_at`

type planRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPlanRepository creates a new PostgreSQL-backed plan repository.
func NewPlanRepository(pool *pgxpool.Pool, logger zerolog.Logger) PlanRepository {
	return &planRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "plan").Logger(),
	}
}

func scanPlan(row pgx.Row, p *model.Plan) error {
	return row.Scan(&p.ID, &p.UserID, &p.Type, &p.Status, &p.NoMeals, &p.NoDays, &p.Snack,
		&p.NoBreakfast, &p.SpecifyDays, &p.CustomProtein, &p.CustomCarb, &p.EstimatedPrice,
		&p.StartDate, &p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt)
}

func (r *planRepository) collect(rows pgx.Rows) ([]model.Plan, error) {
	defer rows.Close()

	plans := []model.Plan{}
	for rows.Next() {
		var p model.Plan
		if err := scanPlan(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan plan row")
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating plan rows")
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

// BeginTx starts a new database transaction.
func (r *planRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a plan.
func (r *planRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Plan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO plans (id, user_id, type, status, no_meals, no_days, snack, no_breakfast,
			specify_days, custom_protein, custom_carb, estimated_price, start_date, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := querier(r.pool, tx).QueryRow(ctx, query,
		p.ID, p.UserID, p.Type, p.Status, p.NoMeals, p.NoDays, p.Snack, p.NoBreakfast,
		nonNilStrings(p.SpecifyDays), p.CustomProtein, p.CustomCarb, p.EstimatedPrice,
		p.StartDate, p.ExpiryDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("plan_id", p.ID.String()).Msg("failed to create plan")
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.logger.Debug().Str("plan_id", p.ID.String()).Str("user_id", p.UserID.String()).Msg("plan created successfully")
	return nil
}

// GetByID retrieves a plan.
func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var p model.Plan
	err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("plan_id", id.String()).Msg("failed to query plan")
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	return &p, nil
}

// List returns plans, newest first. An empty status excludes cancelled plans,
// "cancelled" selects only those, and any other value must match exactly.
func (r *planRepository) List(ctx context.Context, filter model.PlanFilter) ([]model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE `
	var args []any

	switch filter.Status {
	case "":
		query += `status <> 'cancelled'`
	case string(model.PlanStatusCancelled):
		query += `status = 'cancelled'`
	default:
		args = append(args, filter.Status)
		query += `status = $1 AND status <> 'cancelled'`
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query plans")
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	return r.collect(rows)
}

// ListActive returns active plans, optionally restricted to one type.
func (r *planRepository) ListActive(ctx context.Context, planType *model.PlanType) ([]model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE status = 'active'`
	var args []any
	if planType != nil {
		args = append(args, *planType)
		query += ` AND type = $1`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query active plans")
		return nil, fmt.Errorf("failed to query active plans: %w", err)
	}
	return r.collect(rows)
}

// Update overwrites the mutable plan fields.
func (r *planRepository) Update(ctx context.Context, tx pgx.Tx, p *model.Plan) error {
	query := `
		UPDATE plans
		SET type = $2, status = $3, no_meals = $4, no_days = $5, snack = $6, no_breakfast = $7,
			specify_days = $8, custom_protein = $9, custom_carb = $10, estimated_price = $11,
			start_date = $12, expiry_date = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := querier(r.pool, tx).QueryRow(ctx, query,
		p.ID, p.Type, p.Status, p.NoMeals, p.NoDays, p.Snack, p.NoBreakfast,
		nonNilStrings(p.SpecifyDays), p.CustomProtein, p.CustomCarb, p.EstimatedPrice,
		p.StartDate, p.ExpiryDate,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewNotFoundError("Plan not found")
		}
		r.logger.Error().Err(err).Str("plan_id", p.ID.String()).Msg("failed to update plan")
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of a plan, reporting whether it existed.
func (r *planRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.PlanStatus) (bool, error) {
	tag, err := querier(r.pool, tx).Exec(ctx,
		`UPDATE plans SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("plan_id", id.String()).Str("status", string(status)).Msg("failed to update plan status")
		return false, fmt.Errorf("failed to update plan status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a plan, reporting whether it existed.
func (r *planRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("plan_id", id.String()).Msg("failed to delete plan")
		return false, fmt.Errorf("failed to delete plan: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
