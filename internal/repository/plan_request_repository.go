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

const planRequestColumns = `id, user_id, plan_id, type, status, reason, requested_data, admin_notes,
	refunded_at, created_at, updated_at`

type planRequestRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPlanRequestRepository creates a new PostgreSQL-backed plan request repository.
func NewPlanRequestRepository(pool *pgxpool.Pool, logger zerolog.Logger) PlanRequestRepository {
	return &planRequestRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "plan_request").Logger(),
	}
}

func scanPlanRequest(row pgx.Row, req *model.PlanRequest) error {
	var data []byte
	if err := row.Scan(&req.ID, &req.UserID, &req.PlanID, &req.Type, &req.Status, &req.Reason,
		&data, &req.AdminNotes, &req.RefundedAt, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return err
	}
	req.RequestedData = data
	return nil
}

// Create inserts a request; a second PENDING request for the plan yields
// model.ErrPendingRequest.
func (r *planRequestRepository) Create(ctx context.Context, req *model.PlanRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = model.RequestPending
	}

	query := `
		INSERT INTO plan_requests (id, user_id, plan_id, type, status, reason, requested_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, req.ID, req.UserID, req.PlanID, req.Type, req.Status,
		req.Reason, jsonParam(req.RequestedData)).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "plan_requests_pending_key") {
			return model.ErrPendingRequest
		}
		r.logger.Error().Err(err).Str("plan_id", req.PlanID.String()).Msg("failed to create plan request")
		return fmt.Errorf("failed to create plan request: %w", err)
	}
	return nil
}

// HasPending reports whether the plan has a PENDING request.
func (r *planRequestRepository) HasPending(ctx context.Context, planID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM plan_requests WHERE plan_id = $1 AND status = $2)`,
		planID, model.RequestPending).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("plan_id", planID.String()).Msg("failed to check pending requests")
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a request.
func (r *planRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error) {
	var req model.PlanRequest
	err := scanPlanRequest(r.pool.QueryRow(ctx, `SELECT `+planRequestColumns+` FROM plan_requests WHERE id = $1`, id), &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("request_id", id.String()).Msg("failed to query plan request")
		return nil, fmt.Errorf("failed to query plan request: %w", err)
	}
	return &req, nil
}

// List pages through requests, newest first.
func (r *planRequestRepository) List(ctx context.Context, filter model.PlanRequestFilter) ([]model.PlanRequest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM plan_requests WHERE ($1::uuid IS NULL OR user_id = $1)`, filter.UserID,
	).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count plan requests")
		return nil, 0, fmt.Errorf("failed to count plan requests: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	rows, err := r.pool.Query(ctx, `
		SELECT `+planRequestColumns+`
		FROM plan_requests
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, filter.UserID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query plan requests")
		return nil, 0, fmt.Errorf("failed to query plan requests: %w", err)
	}
	defer rows.Close()

	requests := []model.PlanRequest{}
	for rows.Next() {
		var req model.PlanRequest
		if err := scanPlanRequest(rows, &req); err != nil {
			return nil, 0, fmt.Errorf("failed to scan plan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating plan requests: %w", err)
	}
	return requests, total, nil
}

// UpdateStatus applies t, recording notes and refund time when supplied. The
// write only matches while the request is in one of t.From, so of two
// concurrent reviews exactly one wins; the other gets ErrRequestReviewed.
func (r *planRequestRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, t model.RequestTransition) error {
	query := `
		UPDATE plan_requests
		SET status = $2,
			admin_notes = COALESCE($3, admin_notes),
			refunded_at = COALESCE($4, refunded_at),
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($5)`

	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	q := querier(r.pool, tx)
	tag, err := q.Exec(ctx, query, id, t.To, t.AdminNotes, t.RefundedAt, from)
	if err != nil {
		r.logger.Error().Err(err).Str("request_id", id.String()).Str("status", string(t.To)).Msg("failed to update plan request")
		return fmt.Errorf("failed to update plan request: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM plan_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check plan request: %w", err)
	}
	if !exists {
		return model.NewNotFoundError("Request not found")
	}
	r.logger.Warn().Str("request_id", id.String()).Str("status", string(t.To)).Msg("plan request already reviewed")
	return model.ErrRequestReviewed
}
