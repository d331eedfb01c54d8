package repository

import (
	"context"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Lookups return (nil, nil) when the record does not exist. Methods taking a
// pgx.Tx run on the pool when tx is nil.

// TxBeginner starts database transactions.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// MealRepository defines data access for catalogue meals.
type MealRepository interface {
	// Insert adds a meal, returning false when the id already exists.
	Insert(ctx context.Context, meal *model.Meal) (bool, error)

	// InsertBatch adds meals, skipping existing ids, and returns how many were inserted.
	InsertBatch(ctx context.Context, meals []model.Meal) (int, error)

	// List returns meals matching the filter ordered by name.
	List(ctx context.Context, filter model.MealFilter) ([]model.Meal, error)

	// GetByID retrieves a single meal.
	GetByID(ctx context.Context, id string) (*model.Meal, error)

	// GetByIDs retrieves the meals among ids, available or not.
	GetByIDs(ctx context.Context, ids []string) ([]model.Meal, error)

	// Update overwrites the mutable meal fields.
	Update(ctx context.Context, meal *model.Meal) error

	// Delete removes a meal, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Create inserts a product.
	Create(ctx context.Context, product *model.Product) error

	// Update overwrites the mutable product fields.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product and any cart lines holding it, reporting
	// whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a user; a duplicate email yields model.ErrEmailInUse.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByIDs retrieves users keyed by id.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)

	// Update overwrites the mutable user fields.
	Update(ctx context.Context, user *model.User) error

	// List pages through users whose name or email matches query.
	List(ctx context.Context, query string, limit, offset int) ([]model.User, int, error)
}

// PlanRepository defines data access for subscription plans.
type PlanRepository interface {
	TxBeginner

	Create(ctx context.Context, tx pgx.Tx, plan *model.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	List(ctx context.Context, filter model.PlanFilter) ([]model.Plan, error)

	// ListActive returns active plans, optionally restricted to one type.
	ListActive(ctx context.Context, planType *model.PlanType) ([]model.Plan, error)

	// Update overwrites the mutable plan fields.
	Update(ctx context.Context, tx pgx.Tx, plan *model.Plan) error

	// UpdateStatus sets the status of a plan, reporting whether it existed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.PlanStatus) (bool, error)

	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ScheduleRepository defines data access for the weekly menu.
type ScheduleRepository interface {
	// Upsert creates or replaces a day's schedule.
	Upsert(ctx context.Context, day *model.ScheduleDay) error

	// FindAll returns every scheduled day.
	FindAll(ctx context.Context) ([]model.ScheduleDay, error)

	Delete(ctx context.Context, day string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	TxBeginner

	// Create inserts an order and its items. It returns false without writing
	// anything when a plan order already exists for the user and delivery day.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order, deliveryDay *time.Time) (bool, error)

	// FindFirstByUserAndDayWindow returns the earliest order of the user whose
	// delivery ETA lies in [start, end].
	FindFirstByUserAndDayWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.Order, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List pages through orders, newest first, with items.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	// Update overwrites the patchable order fields. For plan orders a
	// non-nil deliveryDay replaces the stored calendar day; taking a day
	// that already has a plan order yields a ConflictError.
	Update(ctx context.Context, order *model.Order, deliveryDay *time.Time) error

	// UpdateStatus writes status and the cancellation fields.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, cancelReason *string, cancelDate *time.Time) (*model.Order, error)

	// AssignDriver sets the driver and moves the order to EN_ROUTE.
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error)

	// CancelPreparing cancels every PREPARING order of the user.
	CancelPreparing(ctx context.Context, tx pgx.Tx, c model.Cancellation) (int64, error)

	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// TransactionRepository defines data access for payment records.
type TransactionRepository interface {
	// Create inserts a transaction, returning false when its payment intent
	// has already been recorded.
	Create(ctx context.Context, tx pgx.Tx, t *model.Transaction) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)

	// LatestPaidWithIntent returns the user's newest paid transaction that
	// carries a payment intent.
	LatestPaidWithIntent(ctx context.Context, userID uuid.UUID) (*model.Transaction, error)

	List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]model.Transaction, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.TransactionStatus) error
}

// PlanRequestRepository defines data access for plan change and cancellation requests.
type PlanRequestRepository interface {
	// Create inserts a request; a second PENDING request for the plan yields
	// model.ErrPendingRequest.
	Create(ctx context.Context, req *model.PlanRequest) error

	// HasPending reports whether the plan has a PENDING request.
	HasPending(ctx context.Context, planID uuid.UUID) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error)
	List(ctx context.Context, filter model.PlanRequestFilter) ([]model.PlanRequest, int, error)

	// UpdateStatus applies the transition if the request is still in one of
	// its source states, else returns model.ErrRequestReviewed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, t model.RequestTransition) error
}

// CartRepository defines data access for carts and their items.
type CartRepository interface {
	// Create inserts a cart; a second cart for the user yields model.ErrCartExists.
	Create(ctx context.Context, cart *model.Cart) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// GetByUser returns the user's cart with its items.
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// ListItems returns items, optionally restricted to one cart.
	ListItems(ctx context.Context, cartID *uuid.UUID) ([]model.CartItem, error)

	GetItem(ctx context.Context, id uuid.UUID) (*model.CartItem, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)
}
