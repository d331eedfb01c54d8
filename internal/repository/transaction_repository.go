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

const transactionColumns = `id, user_id, order_id, amount, currency, method, status, receipt, created_at`

type transactionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTransactionRepository creates a new PostgreSQL-backed transaction repository.
func NewTransactionRepository(pool *pgxpool.Pool, logger zerolog.Logger) TransactionRepository {
	return &transactionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "transaction").Logger(),
	}
}

func scanTransaction(row pgx.Row, t *model.Transaction) error {
	var receipt []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.OrderID, &t.Amount, &t.Currency, &t.Method,
		&t.Status, &receipt, &t.CreatedAt); err != nil {
		return err
	}
	t.Receipt = receipt
	return nil
}

// Create inserts a transaction. The payment intent and checkout session ids
// from the receipt are each unique, so a repeated gateway notification inserts
// nothing and returns false, even when the session carried no intent.
func (r *transactionRepository) Create(ctx context.Context, tx pgx.Tx, t *model.Transaction) (bool, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	receipt := t.DecodeReceipt()
	intentID := nullable(receipt.PaymentIntentID)
	sessionID := nullable(receipt.CheckoutSessionID)

	query := `
		INSERT INTO transactions (id, user_id, order_id, amount, currency, method, status, receipt,
			payment_intent_id, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING created_at`

	err := querier(r.pool, tx).QueryRow(ctx, query,
		t.ID, t.UserID, t.OrderID, t.Amount, t.Currency, t.Method, t.Status, jsonParam(t.Receipt),
		intentID, sessionID,
	).Scan(&t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Info().
				Interface("payment_intent_id", intentID).
				Interface("checkout_session_id", sessionID).
				Msg("transaction already recorded")
			return false, nil
		}
		r.logger.Error().Err(err).Str("transaction_id", t.ID.String()).Msg("failed to create transaction")
		return false, fmt.Errorf("failed to create transaction: %w", err)
	}
	return true, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetByID retrieves a transaction.
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("transaction_id", id.String()).Msg("failed to query transaction")
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return &t, nil
}

// LatestPaidWithIntent returns the user's newest paid transaction that
// carries a payment intent.
func (r *transactionRepository) LatestPaidWithIntent(ctx context.Context, userID uuid.UUID) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND status = $2 AND payment_intent_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`

	var t model.Transaction
	err := scanTransaction(r.pool.QueryRow(ctx, query, userID, model.TransactionPaid), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query latest paid transaction")
		return nil, fmt.Errorf("failed to query latest paid transaction: %w", err)
	}
	return &t, nil
}

// List returns transactions, newest first, optionally for one user.
func (r *transactionRepository) List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query transactions")
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan transaction row")
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// UpdateStatus sets the status of a transaction.
func (r *transactionRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.TransactionStatus) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("transaction_id", id.String()).Msg("failed to update transaction status")
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("Transaction not found")
	}
	return nil
}
