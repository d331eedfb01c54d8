package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `o.id, o.user_id, o.status, o.source, o.plan_id, o.plan_type, o.nutrition_profile,
	o.subtotal, o.delivery_fee, o.total, o.delivery_address, o.delivery_eta, o.driver_id,
	o.payment_method, o.note, o.cancel_reason, o.cancel_date, o.created_at, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row, o *model.Order) error {
	var (
		planType *string
		profile  []byte
		address  []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Source, &o.PlanID, &planType, &profile,
		&o.Subtotal, &o.DeliveryFee, &o.Total, &address, &o.DeliveryEta, &o.DriverID,
		&o.PaymentMethod, &o.Note, &o.CancelReason, &o.CancelDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}
	if planType != nil {
		pt := model.PlanType(*planType)
		o.PlanType = &pt
	}
	o.DeliveryAddress = address
	o.NutritionProfile, err = unmarshalColumn[model.NutritionProfile](profile)
	if err != nil {
		return fmt.Errorf("invalid nutrition profile: %w", err)
	}
	o.Items = []model.OrderItem{}
	return nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts an order and its items. Plan orders that collide with an
// existing plan order for the same user and delivery day are skipped.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order, deliveryDay *time.Time) (bool, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = model.OrderStatusPreparing
	}
	if order.Source == "" {
		order.Source = model.OrderSourceAdHoc
	}

	profile, err := marshalParam(order.NutritionProfile)
	if err != nil {
		return false, fmt.Errorf("failed to encode nutrition profile: %w", err)
	}

	var day any
	if deliveryDay != nil {
		day = deliveryDay.Format(time.DateOnly)
	}

	query := `
		INSERT INTO orders (id, user_id, status, source, plan_id, plan_type, nutrition_profile,
			subtotal, delivery_fee, total, delivery_address, delivery_eta, delivery_day,
			payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::date, $14, $15)
		ON CONFLICT (user_id, delivery_day) WHERE source = 'plan' DO NOTHING
		RETURNING created_at, updated_at`

	q := querier(r.pool, tx)
	err = q.QueryRow(ctx, query,
		order.ID, order.UserID, order.Status, order.Source, order.PlanID, order.PlanType, profile,
		order.Subtotal, order.DeliveryFee, order.Total, jsonParam(order.DeliveryAddress),
		order.DeliveryEta, day, order.PaymentMethod, order.Note,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("user_id", order.UserID.String()).
				Interface("delivery_day", day).
				Msg("plan order already exists for day")
			return false, nil
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return false, fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.createItems(ctx, q, order); err != nil {
		return false, err
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return true, nil
}

func (r *orderRepository) createItems(ctx context.Context, q Querier, order *model.Order) error {
	if len(order.Items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, meal_id, name, quantity,
			unit_price, total_price, nutrition_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID

		var productID, mealID *string
		if id, ok := item.Ref.ProductID(); ok {
			productID = &id
		}
		if id, ok := item.Ref.MealID(); ok {
			mealID = &id
		}
		nutrition, err := marshalParam(item.NutritionContext)
		if err != nil {
			return fmt.Errorf("failed to encode nutrition context: %w", err)
		}
		batch.Queue(query, item.ID, item.OrderID, productID, mealID, item.Name, item.Quantity,
			item.UnitPrice, item.TotalPrice, nutrition)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := range order.Items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Int("item_index", i).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

// FindFirstByUserAndDayWindow returns the earliest order of the user whose
// delivery ETA lies in [start, end].
func (r *orderRepository) FindFirstByUserAndDayWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.user_id = $1 AND o.delivery_eta >= $2 AND o.delivery_eta <= $3
		ORDER BY o.delivery_eta
		LIMIT 1`

	var o model.Order
	err := scanOrder(r.pool.QueryRow(ctx, query, userID, start, end), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders in day window")
		return nil, fmt.Errorf("failed to query orders in day window: %w", err)
	}
	return &o, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachItems loads the items of all given orders in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query := `
		SELECT id, order_id, product_id, meal_id, name, quantity, unit_price, total_price, nutrition_context
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, (nutrition_context->>'mealIndex')::int NULLS LAST, name`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item              model.OrderItem
			productID, mealID *string
			nutrition         []byte
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &mealID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &nutrition); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		var pid, mid string
		if productID != nil {
			pid = *productID
		}
		if mealID != nil {
			mid = *mealID
		}
		if item.Ref, err = model.LineRefFrom(pid, mid, nil); err != nil {
			return fmt.Errorf("order item %s: %w", item.ID, err)
		}
		if item.NutritionContext, err = unmarshalColumn[model.NutritionContext](nutrition); err != nil {
			return fmt.Errorf("order item %s: invalid nutrition context: %w", item.ID, err)
		}

		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

// List pages through orders, newest first. An empty status filter hides
// cancelled orders.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status == "" {
		where = append(where, `o.status <> 'CANCELLED'`)
	} else {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf(`o.status = $%d`, len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf(`o.user_id = $%d`, len(args)))
	}
	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		where = append(where, fmt.Sprintf(`o.driver_id = $%d`, len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf(`u.full_name ILIKE $%d`, len(args)))
	}
	from := ` FROM orders o JOIN users u ON u.id = o.user_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	args = append(args, limit, offset)
	query := `SELECT ` + orderColumns + from +
		fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update overwrites the patchable order fields. A non-nil deliveryDay moves
// a plan order's calendar day; ad-hoc orders keep theirs.
func (r *orderRepository) Update(ctx context.Context, o *model.Order, deliveryDay *time.Time) error {
	var day any
	if deliveryDay != nil {
		day = deliveryDay.Format(time.DateOnly)
	}

	query := `
		UPDATE orders
		SET note = $2, delivery_eta = $3, delivery_fee = $4, total = $5,
			delivery_address = $6, payment_method = $7,
			delivery_day = CASE WHEN source = 'plan' AND $8::date IS NOT NULL THEN $8::date ELSE delivery_day END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, o.ID, o.Note, o.DeliveryEta, o.DeliveryFee, o.Total,
		jsonParam(o.DeliveryAddress), o.PaymentMethod, day).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewNotFoundError("Order not found")
		}
		if isUniqueViolation(err, "orders_plan_user_day_key") {
			return model.NewConflictError(model.ErrCodeOrderExists, "An order already exists for this day")
		}
		r.logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// UpdateStatus writes status and, when given, the cancellation fields.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, cancelReason *string, cancelDate *time.Time) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $2,
			cancel_reason = COALESCE($3, cancel_reason),
			cancel_date = COALESCE($4, cancel_date),
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, cancelReason, cancelDate)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Str("status", string(status)).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// AssignDriver sets the driver and moves the order to EN_ROUTE.
func (r *orderRepository) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET driver_id = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, driverID, model.OrderStatusEnRoute)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to assign driver")
		return nil, fmt.Errorf("failed to assign driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// CancelPreparing cancels every PREPARING order of the user.
func (r *orderRepository) CancelPreparing(ctx context.Context, tx pgx.Tx, c model.Cancellation) (int64, error) {
	query := `
		UPDATE orders
		SET status = $2, cancel_reason = $3, cancel_date = $4, updated_at = NOW()
		WHERE user_id = $1 AND status = $5`

	tag, err := querier(r.pool, tx).Exec(ctx, query,
		c.UserID, model.OrderStatusCancelled, c.Reason, c.At, model.OrderStatusPreparing)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", c.UserID.String()).Msg("failed to cancel preparing orders")
		return 0, fmt.Errorf("failed to cancel preparing orders: %w", err)
	}

	r.logger.Debug().
		Str("user_id", c.UserID.String()).
		Int64("cancelled", tag.RowsAffected()).
		Msg("preparing orders cancelled")
	return tag.RowsAffected(), nil
}

// Delete removes an order and its items.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
