package service

import (
	"context"
	"time"

	"meal-kart/internal/model"
	"meal-kart/internal/notify"

	"github.com/google/uuid"
)

// CatalogService defines operations for meals and products.
type CatalogService interface {
	ListMeals(ctx context.Context, filter model.MealFilter) ([]model.Meal, error)
	GetMeal(ctx context.Context, id string) (*model.Meal, error)

	// CreateMeal stores a meal; available defaults to true.
	CreateMeal(ctx context.Context, in model.MealInput) (*model.Meal, error)
	UpdateMeal(ctx context.Context, id string, in model.MealInput) (*model.Meal, error)
	DeleteMeal(ctx context.Context, id string) error

	// ListProducts retrieves products with pagination.
	ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// UserService defines operations for user accounts.
type UserService interface {
	Create(ctx context.Context, in model.UserInput) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, in model.UserInput) (*model.User, error)
	List(ctx context.Context, query string, page, pageSize int) ([]model.User, int, error)
}

// PlanService defines administrative plan management.
type PlanService interface {
	Create(ctx context.Context, in model.PlanInput) (*model.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	List(ctx context.Context, filter model.PlanFilter) ([]model.Plan, error)
	Update(ctx context.Context, id uuid.UUID, patch model.PlanPatch) (*model.Plan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleService defines operations on the weekly menu.
type ScheduleService interface {
	Upsert(ctx context.Context, in model.ScheduleInput) (*model.ScheduleDay, error)
	List(ctx context.Context) ([]model.ScheduleDay, error)
	Delete(ctx context.Context, day string) error
}

// OrderService defines operations for order management.
type OrderService interface {
	// Create places an ad-hoc order priced from the catalogue.
	Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error)
	Update(ctx context.Context, id uuid.UUID, patch model.OrderPatch) (*model.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateStatus(ctx context.Context, id uuid.UUID, upd model.StatusUpdate) (*model.Order, error)
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error)

	FromPlan(ctx context.Context, planID uuid.UUID, req model.FromPlanRequest) (*model.Order, error)
	FromPlansByType(ctx context.Context, req model.FromPlansRequest) (*model.FulfillmentResult, error)
	PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error)
}

// PlanRequestService defines the customer request and admin review workflow.
type PlanRequestService interface {
	Create(ctx context.Context, in model.PlanRequestInput) (*model.PlanRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error)
	List(ctx context.Context, filter model.PlanRequestFilter) (*model.PlanRequestList, error)
	Accept(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error)
	Deny(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error)
	Refund(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error)
}

// PaymentService defines plan purchases and payment records.
type PaymentService interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// HandleWebhook applies a signed gateway notification. A nil outcome
	// means the event was verified and ignored.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.PaymentOutcome, error)

	ListTransactions(ctx context.Context, userID *uuid.UUID, page, pageSize int) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
}

// CartService defines operations on carts and their items.
type CartService interface {
	Create(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	ListItems(ctx context.Context, cartID *uuid.UUID) ([]model.CartItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.CartItem, error)
	AddItem(ctx context.Context, in model.CartItemInput) (*model.CartItem, error)

	// UpdateItem returns nil when a non-positive quantity removed the item.
	UpdateItem(ctx context.Context, id uuid.UUID, patch model.CartItemPatch) (*model.CartItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// Fulfiller creates plan orders.
type Fulfiller interface {
	FromPlan(ctx context.Context, planID uuid.UUID, req model.FromPlanRequest) (*model.Order, error)
	FromPlansByType(ctx context.Context, req model.FromPlansRequest) (*model.FulfillmentResult, error)
	PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error)
	PopulatePlanWeek(ctx context.Context, plan *model.Plan) (*model.FulfillmentResult, error)

	// DeliveryDay is the local calendar day an ETA falls on.
	DeliveryDay(eta time.Time) time.Time
}

// StatusChanger moves orders through their lifecycle.
type StatusChanger interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, upd model.StatusUpdate) (*model.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error)
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error)
}

// RequestNotifier emails plan request lifecycle events.
type RequestNotifier interface {
	PlanRequest(ctx context.Context, event notify.RequestEvent, user *model.User, req *model.PlanRequest) error
}

// pagination clamps page and pageSize to 1..n and 1..100.
func pagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
