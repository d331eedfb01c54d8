package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusEnRoute   OrderStatus = "EN_ROUTE"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus rejects values outside the known lifecycle.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPreparing, OrderStatusEnRoute, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	default:
		return "", NewValidationError(ErrCodeInvalidStatus, "unknown order status "+s)
	}
}

// Terminal reports whether no further transitions are expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderSource records how an order was produced.
type OrderSource string

const (
	OrderSourcePlan  OrderSource = "plan"
	OrderSourceAdHoc OrderSource = "adhoc"
)

// NutritionProfile is captured when a plan order is created so later plan
// edits do not alter past orders.
type NutritionProfile struct {
	PlanType      PlanType `json:"planType"`
	ProteinTarget int      `json:"proteinTarget"`
	CarbTarget    int      `json:"carbTarget"`
	MealsPerDay   int      `json:"mealsPerDay"`
	Snack         bool     `json:"snack"`
}

// NutritionContext positions a meal within the day's meals.
type NutritionContext struct {
	MealIndex   int `json:"mealIndex"`
	MealsPerDay int `json:"mealsPerDay"`
}

// Order is one delivery occasion for one user.
type Order struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	UserID           uuid.UUID         `json:"userId" db:"user_id"`
	Status           OrderStatus       `json:"status" db:"status"`
	Source           OrderSource       `json:"source" db:"source"`
	PlanID           *uuid.UUID        `json:"planId,omitempty" db:"plan_id"`
	PlanType         *PlanType         `json:"planType,omitempty" db:"plan_type"`
	NutritionProfile *NutritionProfile `json:"nutritionProfile,omitempty" db:"nutrition_profile"`
	Subtotal         decimal.Decimal   `json:"subtotal" db:"subtotal"`
	DeliveryFee      decimal.Decimal   `json:"deliveryFee" db:"delivery_fee"`
	Total            decimal.Decimal   `json:"total" db:"total"`
	DeliveryAddress  json.RawMessage   `json:"deliveryAddress,omitempty" db:"delivery_address"`
	DeliveryEta      *time.Time        `json:"deliveryEta,omitempty" db:"delivery_eta"`
	DriverID         *uuid.UUID        `json:"driverId,omitempty" db:"driver_id"`
	PaymentMethod    *string           `json:"paymentMethod,omitempty" db:"payment_method"`
	Note             *string           `json:"note,omitempty" db:"note"`
	CancelReason     *string           `json:"cancelReason,omitempty" db:"cancel_reason"`
	CancelDate       *time.Time        `json:"cancelDate,omitempty" db:"cancel_date"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" db:"updated_at"`
	Items            []OrderItem       `json:"items"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	OrderID          uuid.UUID         `json:"orderId" db:"order_id"`
	Ref              LineRef           `json:"ref"`
	Name             string            `json:"name" db:"name"`
	Quantity         int               `json:"quantity" db:"quantity"`
	UnitPrice        decimal.Decimal   `json:"unitPrice" db:"unit_price"`
	TotalPrice       decimal.Decimal   `json:"totalPrice" db:"total_price"`
	NutritionContext *NutritionContext `json:"nutritionContext,omitempty" db:"nutrition_context"`
}

// OrderItemRequest is a single line of an ad-hoc order request.
type OrderItemRequest struct {
	ProductID string `json:"productId,omitempty"`
	MealID    string `json:"mealId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the payload for an ad-hoc order.
type OrderRequest struct {
	UserID          uuid.UUID          `json:"userId"`
	DeliveryAddress json.RawMessage    `json:"deliveryAddress,omitempty"`
	PaymentMethod   *string            `json:"paymentMethod,omitempty"`
	DeliveryFee     *decimal.Decimal   `json:"deliveryFee,omitempty"`
	DeliveryEta     *time.Time         `json:"deliveryEta,omitempty"`
	Note            *string            `json:"note,omitempty"`
	Items           []OrderItemRequest `json:"items"`
}

// FromPlanRequest supplies the meals for a single plan order.
type FromPlanRequest struct {
	MealIDs      []string   `json:"mealIds"`
	DateAssigned *time.Time `json:"dateAssigned,omitempty"`
}

// FromPlansRequest drives the bulk by-type run.
type FromPlansRequest struct {
	Type         PlanType   `json:"type"`
	MealIDs      []string   `json:"mealIds"`
	DateAssigned *time.Time `json:"dateAssigned,omitempty"`
}

// OrderPatch is the whitelist for general order updates.
type OrderPatch struct {
	Note            *string          `json:"note,omitempty"`
	DeliveryEta     *time.Time       `json:"deliveryEta,omitempty"`
	DeliveryFee     *decimal.Decimal `json:"deliveryFee,omitempty"`
	DeliveryAddress json.RawMessage  `json:"deliveryAddress,omitempty"`
	PaymentMethod   *string          `json:"paymentMethod,omitempty"`
}

// StatusUpdate changes an order's status; CANCELLED needs a reason.
type StatusUpdate struct {
	Status       string  `json:"status"`
	CancelReason *string `json:"cancelReason,omitempty"`
}

// OrderFilter narrows order listings. An empty Status excludes CANCELLED.
type OrderFilter struct {
	UserID   *uuid.UUID
	DriverID *uuid.UUID
	Status   string
	Name     string
	Page     int
	PageSize int
}

// OrderList is a page of orders and the total matching count.
type OrderList struct {
	Orders []Order `json:"orders"`
	Count  int     `json:"count"`
}

// FulfillmentResult reports what an orchestrator run produced.
type FulfillmentResult struct {
	Created int     `json:"created"`
	Skipped int     `json:"skipped"`
	Failed  int     `json:"failed"`
	Orders  []Order `json:"orders"`
}
