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

const cartItemColumns = `id, cart_id, product_id, plan, quantity, created_at`

type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func scanCartItem(row pgx.Row, item *model.CartItem) error {
	var (
		productID *string
		plan      []byte
	)
	if err := row.Scan(&item.ID, &item.CartID, &productID, &plan, &item.Quantity, &item.CreatedAt); err != nil {
		return err
	}
	var pid string
	if productID != nil {
		pid = *productID
	}
	ref, err := model.LineRefFrom(pid, "", plan)
	if err != nil {
		return fmt.Errorf("cart item %s: %w", item.ID, err)
	}
	item.Ref = ref
	return nil
}

func cartItemParams(item *model.CartItem) (productID *string, plan any) {
	if id, ok := item.Ref.ProductID(); ok {
		productID = &id
	}
	if snapshot, ok := item.Ref.Plan(); ok {
		plan = jsonParam(snapshot)
	}
	return productID, plan
}

// Create inserts a cart; a second cart for the user yields model.ErrCartExists.
func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) RETURNING created_at`,
		cart.ID, cart.UserID).Scan(&cart.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrCartExists
		}
		r.logger.Error().Err(err).Str("user_id", cart.UserID.String()).Msg("failed to create cart")
		return fmt.Errorf("failed to create cart: %w", err)
	}
	cart.Items = []model.CartItem{}
	return nil
}

func (r *cartRepository) getBy(ctx context.Context, column string, value uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM carts WHERE `+column+` = $1`, value,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str(column, value.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	items, err := r.ListItems(ctx, &cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

// GetByID returns a cart with its items.
func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUser returns the user's cart with its items.
func (r *cartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.getBy(ctx, "user_id", userID)
}

// ListItems returns items, oldest first, optionally restricted to one cart.
func (r *cartRepository) ListItems(ctx context.Context, cartID *uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items
		WHERE ($1::uuid IS NULL OR cart_id = $1)
		ORDER BY created_at`, cartID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		if err := scanCartItem(rows, &item); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// GetItem retrieves a cart item.
func (r *cartRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := scanCartItem(r.pool.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, id), &item)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("cart_item_id", id.String()).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &item, nil
}

// AddItem inserts a cart item.
func (r *cartRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	productID, plan := cartItemParams(item)

	err := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, plan, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		item.ID, item.CartID, productID, plan, item.Quantity).Scan(&item.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", item.CartID.String()).Msg("failed to add cart item")
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// UpdateItem overwrites the reference and quantity of a cart item.
func (r *cartRepository) UpdateItem(ctx context.Context, item *model.CartItem) error {
	productID, plan := cartItemParams(item)

	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET product_id = $2, plan = $3, quantity = $4 WHERE id = $1`,
		item.ID, productID, plan, item.Quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_item_id", item.ID.String()).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("Cart item not found")
	}
	return nil
}

// DeleteItem removes a cart item, reporting whether it existed.
func (r *cartRepository) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_item_id", id.String()).Msg("failed to delete cart item")
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
