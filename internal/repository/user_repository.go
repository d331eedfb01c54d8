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

const userColumns = `id, email, full_name, phone, roles, address, created_at, updated_at`

type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func scanUser(row pgx.Row, u *model.User) error {
	var address []byte
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Roles, &address, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Address = address
	return nil
}

// Create inserts a user; a duplicate email yields model.ErrEmailInUse.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, full_name, phone, roles, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, u.ID, u.Email, u.FullName, u.Phone, nonNilStrings(u.Roles), jsonParam(u.Address)).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return model.ErrEmailInUse
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", u.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// GetByIDs retrieves users keyed by id.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	users := make(map[uuid.UUID]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query users by IDs")
		return nil, fmt.Errorf("failed to query users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Update overwrites the mutable user fields.
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET email = $2, full_name = $3, phone = $4, roles = $5, address = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, u.ID, u.Email, u.FullName, u.Phone, nonNilStrings(u.Roles), jsonParam(u.Address)).
		Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewNotFoundError("User not found")
		}
		if isUniqueViolation(err, "users_email_key") {
			return model.ErrEmailInUse
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// List pages through users whose name or email matches query.
func (r *userRepository) List(ctx context.Context, query string, limit, offset int) ([]model.User, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE full_name ILIKE $1 OR email ILIKE $1`, pattern,
	).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count users")
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE full_name ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}
