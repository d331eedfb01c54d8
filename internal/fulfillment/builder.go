package fulfillment

import (
	"fmt"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode selects how the builder treats meals missing from the catalogue.
type Mode int

const (
	// Strict rejects the draft when any requested meal is missing or unavailable.
	Strict Mode = iota
	// BestEffort drops missing or unavailable meals.
	BestEffort
)

// ErrNoAvailableMeals is returned when a draft would have no items.
var ErrNoAvailableMeals = model.NewValidationError(model.ErrCodeMealUnavailable, "No available meals for this order")

// PlanDraft is the input of BuildPlanOrder.
type PlanDraft struct {
	Plan      *model.Plan
	User      *model.User
	DeliverAt time.Time
	MealIDs   []string
	Catalog   model.MealIndex
	Mode      Mode
}

// BuildPlanOrder turns a plan and candidate meals into an unsaved order. Plan
// orders are prepaid, so every item is priced at zero.
func BuildPlanOrder(d PlanDraft) (*model.Order, error) {
	if d.Plan == nil {
		return nil, model.NewNotFoundError("Plan not found")
	}
	if d.User.DeliveryAddress().IsEmpty() {
		return nil, model.ErrMissingAddress
	}

	targets := Policy(d.Plan)
	if targets.MealCount <= 0 {
		return nil, ErrNoAvailableMeals
	}

	selected := make([]model.Meal, 0, targets.MealCount)
	for _, id := range d.MealIDs {
		if len(selected) == targets.MealCount {
			break
		}
		meal, ok := d.Catalog.Lookup(id)
		if !ok {
			if d.Mode == Strict {
				return nil, model.NewValidationError(model.ErrCodeMealUnavailable,
					fmt.Sprintf("Meal %s is not available", id))
			}
			continue
		}
		selected = append(selected, meal)
	}
	if len(selected) == 0 {
		return nil, ErrNoAvailableMeals
	}

	orderID := uuid.New()
	items := make([]model.OrderItem, len(selected))
	for i, meal := range selected {
		ref, err := model.MealRef(meal.ID)
		if err != nil {
			return nil, err
		}
		items[i] = model.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			Ref:        ref,
			Name:       meal.Name,
			Quantity:   1,
			UnitPrice:  decimal.Zero,
			TotalPrice: decimal.Zero,
			NutritionContext: &model.NutritionContext{
				MealIndex:   i,
				MealsPerDay: targets.MealCount,
			},
		}
	}

	planType := d.Plan.Type
	profile := Profile(d.Plan)
	deliverAt := d.DeliverAt

	return &model.Order{
		ID:               orderID,
		UserID:           d.Plan.UserID,
		Status:           model.OrderStatusPreparing,
		Source:           model.OrderSourcePlan,
		PlanID:           &d.Plan.ID,
		PlanType:         &planType,
		NutritionProfile: &profile,
		Subtotal:         decimal.Zero,
		DeliveryFee:      decimal.Zero,
		Total:            decimal.Zero,
		DeliveryAddress:  d.User.Address,
		DeliveryEta:      &deliverAt,
		Items:            items,
	}, nil
}

// AdHocCatalog holds the catalogue entries referenced by an ad-hoc request.
type AdHocCatalog struct {
	Products map[string]model.Product
	Meals    model.MealIndex
}

// BuildAdHocOrder prices a direct purchase from the current catalogue. Prices
// are copied onto the items and never recomputed.
func BuildAdHocOrder(req *model.OrderRequest, user *model.User, catalog AdHocCatalog) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "Order must contain at least one item")
	}

	address := req.DeliveryAddress
	if model.DecodeAddress(address).IsEmpty() {
		address = user.Address
	}
	if model.DecodeAddress(address).IsEmpty() {
		return nil, model.ErrMissingAddress
	}

	orderID := uuid.New()
	subtotal := decimal.Zero
	seen := make(map[string]bool, len(req.Items))
	items := make([]model.OrderItem, 0, len(req.Items))

	for _, in := range req.Items {
		if in.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		ref, err := model.LineRefFrom(in.ProductID, in.MealID, nil)
		if err != nil {
			return nil, err
		}

		key := string(ref.Kind()) + ":" + in.ProductID + in.MealID
		if seen[key] {
			return nil, model.NewValidationError(model.ErrCodeDuplicateSelection,
				"Each product or meal may appear only once")
		}
		seen[key] = true

		var (
			name  string
			price decimal.Decimal
		)
		if id, ok := ref.ProductID(); ok {
			p, found := catalog.Products[id]
			if !found {
				return nil, model.NewNotFoundError(fmt.Sprintf("Product %s not found", id))
			}
			name, price = p.Name, p.Price
		} else {
			id, _ := ref.MealID()
			m, found := catalog.Meals.Lookup(id)
			if !found {
				return nil, model.NewValidationError(model.ErrCodeMealUnavailable,
					fmt.Sprintf("Meal %s is not available", id))
			}
			name, price = m.Name, m.Price
		}

		total := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		subtotal = subtotal.Add(total)
		items = append(items, model.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			Ref:        ref,
			Name:       name,
			Quantity:   in.Quantity,
			UnitPrice:  price,
			TotalPrice: total,
		})
	}

	fee := decimal.Zero
	if req.DeliveryFee != nil {
		if req.DeliveryFee.IsNegative() {
			return nil, model.NewValidationError(model.ErrCodeInvalidField, "deliveryFee must not be negative")
		}
		fee = *req.DeliveryFee
	}

	return &model.Order{
		ID:              orderID,
		UserID:          user.ID,
		Status:          model.OrderStatusPreparing,
		Source:          model.OrderSourceAdHoc,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           subtotal.Add(fee),
		DeliveryAddress: address,
		DeliveryEta:     req.DeliveryEta,
		PaymentMethod:   req.PaymentMethod,
		Note:            req.Note,
		Items:           items,
	}, nil
}
