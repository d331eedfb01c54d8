package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// populateDays is the length of the rolling window filled by weekly population.
const populateDays = 7

// PlanStore is the plan lookup used by the orchestrator.
type PlanStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	ListActive(ctx context.Context, planType *model.PlanType) ([]model.Plan, error)
}

// UserStore resolves plan owners.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// MealStore resolves catalogue meals.
type MealStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Meal, error)
}

// ScheduleStore reads the weekly menu.
type ScheduleStore interface {
	FindAll(ctx context.Context) ([]model.ScheduleDay, error)
}

// OrderStore persists generated orders.
type OrderStore interface {
	DayFinder
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, order *model.Order, deliveryDay *time.Time) (bool, error)
}

// Orchestrator derives orders from plans and the weekly schedule. Each plan is
// handled independently: a failure is logged and the run continues.
type Orchestrator struct {
	plans    PlanStore
	users    UserStore
	meals    MealStore
	schedule ScheduleStore
	orders   OrderStore
	guard    *Guard
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewOrchestrator creates an orchestrator that evaluates calendar days in loc.
func NewOrchestrator(
	plans PlanStore,
	users UserStore,
	meals MealStore,
	schedule ScheduleStore,
	orders OrderStore,
	loc *time.Location,
	logger zerolog.Logger,
) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	return &Orchestrator{
		plans:    plans,
		users:    users,
		meals:    meals,
		schedule: schedule,
		orders:   orders,
		guard:    NewGuard(orders, loc),
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "fulfillment").Logger(),
	}
}

// FromPlan builds one order from caller-chosen meals. The meal list must
// match the plan's effective meal count exactly and every meal must be
// available.
func (o *Orchestrator) FromPlan(ctx context.Context, planID uuid.UUID, req model.FromPlanRequest) (*model.Order, error) {
	plan, err := o.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, model.NewNotFoundError("Plan not found")
	}
	if plan.Status == model.PlanStatusCancelled {
		return nil, model.NewPreconditionError(model.ErrCodePlanInactive, "Plan is cancelled")
	}

	targets := Policy(plan)
	if len(req.MealIDs) != targets.MealCount {
		return nil, model.NewValidationError(model.ErrCodeMealCountMismatch,
			fmt.Sprintf("Plan requires %d meals, got %d", targets.MealCount, len(req.MealIDs)))
	}
	seen := make(map[string]bool, len(req.MealIDs))
	for _, id := range req.MealIDs {
		if seen[id] {
			return nil, model.NewValidationError(model.ErrCodeDuplicateSelection,
				fmt.Sprintf("Meal %s selected more than once", id))
		}
		seen[id] = true
	}

	user, err := o.users.GetByID(ctx, plan.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}

	catalog, err := o.catalogFor(ctx, req.MealIDs)
	if err != nil {
		return nil, err
	}

	deliverAt := o.now().In(o.loc)
	if req.DateAssigned != nil {
		deliverAt = req.DateAssigned.In(o.loc)
	}

	order, err := BuildPlanOrder(PlanDraft{
		Plan:      plan,
		User:      user,
		DeliverAt: deliverAt,
		MealIDs:   req.MealIDs,
		Catalog:   catalog,
		Mode:      Strict,
	})
	if err != nil {
		return nil, err
	}

	created, err := o.persist(ctx, order, deliverAt)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, model.NewConflictError(model.ErrCodeOrderExists, "An order already exists for this day")
	}

	o.logger.Info().
		Str("order_id", order.ID.String()).
		Str("plan_id", plan.ID.String()).
		Int("meal_count", len(order.Items)).
		Msg("order created from plan")

	return order, nil
}

// FromPlansByType creates today's (or dateAssigned's) order for every active
// plan of the given type, drawing meals from the front of the supplied pool.
func (o *Orchestrator) FromPlansByType(ctx context.Context, req model.FromPlansRequest) (*model.FulfillmentResult, error) {
	if req.Type == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "type is required")
	}
	if len(req.MealIDs) == 0 {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "mealIds is required")
	}

	day := o.now().In(o.loc)
	if req.DateAssigned != nil {
		day = req.DateAssigned.In(o.loc)
	}
	weekday := model.WeekdayName(day)

	planType := req.Type
	plans, err := o.plans.ListActive(ctx, &planType)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	catalog, err := o.catalogFor(ctx, req.MealIDs)
	if err != nil {
		return nil, err
	}

	users := newUserCache(o.users)
	result := newResult()
	for i := range plans {
		plan := &plans[i]
		if plan.ExpiredBy(day) {
			continue
		}
		if len(plan.SpecifyDays) > 0 && !plan.DeliversOn(weekday) {
			continue
		}

		pool := req.MealIDs
		if n := Policy(plan).MealCount; len(pool) > n {
			pool = pool[:n]
		}
		result.add(o.fulfil(ctx, users, plan, day, pool, catalog))
	}

	o.logger.Info().
		Str("plan_type", string(req.Type)).
		Str("weekday", weekday).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("orders created from plans")

	return result.FulfillmentResult, nil
}

// PopulateWeek fills the next seven days, starting tomorrow, for every active
// plan from the weekly schedule.
func (o *Orchestrator) PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error) {
	plans, err := o.plans.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return o.populate(ctx, plans)
}

// PopulatePlanWeek runs weekly population for a single, newly purchased plan.
func (o *Orchestrator) PopulatePlanWeek(ctx context.Context, plan *model.Plan) (*model.FulfillmentResult, error) {
	if plan == nil || plan.Status != model.PlanStatusActive {
		return newResult().FulfillmentResult, nil
	}
	return o.populate(ctx, []model.Plan{*plan})
}

func (o *Orchestrator) populate(ctx context.Context, plans []model.Plan) (*model.FulfillmentResult, error) {
	days, err := o.schedule.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	byDay := make(map[string]model.ScheduleDay, len(days))
	var mealIDs []string
	for _, d := range days {
		byDay[d.Day] = d
		mealIDs = append(mealIDs, d.Meals...)
		if d.SnackID != nil {
			mealIDs = append(mealIDs, *d.SnackID)
		}
	}

	catalog, err := o.catalogFor(ctx, mealIDs)
	if err != nil {
		return nil, err
	}

	tomorrow, _ := DayWindow(o.now().AddDate(0, 0, 1), o.loc)
	users := newUserCache(o.users)
	result := newResult()

	for i := 0; i < populateDays; i++ {
		day := tomorrow.AddDate(0, 0, i)
		weekday := model.WeekdayName(day)
		scheduled, ok := byDay[weekday]
		if !ok {
			o.logger.Debug().Str("weekday", weekday).Msg("no schedule for day")
			continue
		}

		for j := range plans {
			plan := &plans[j]
			if plan.ExpiredBy(day) || !plan.DeliversOn(weekday) {
				continue
			}
			result.add(o.fulfil(ctx, users, plan, day, mealsForDay(plan, scheduled, catalog), catalog))
		}
	}

	o.logger.Info().
		Int("plans", len(plans)).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("weekly population finished")

	return result.FulfillmentResult, nil
}

// mealsForDay takes the first noMeals available scheduled meals, in schedule
// order, and appends the snack when the plan includes one.
func mealsForDay(plan *model.Plan, day model.ScheduleDay, catalog model.MealIndex) []string {
	ids := make([]string, 0, plan.NoMeals+1)
	for _, id := range day.Meals {
		if len(ids) == plan.NoMeals {
			break
		}
		if _, ok := catalog.Lookup(id); ok {
			ids = append(ids, id)
		}
	}
	if plan.Snack && day.SnackID != nil && *day.SnackID != "" {
		ids = append(ids, *day.SnackID)
	}
	return ids
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeSkipped
	outcomeFailed
)

// fulfil creates one best-effort plan order for day.
func (o *Orchestrator) fulfil(ctx context.Context, users *userCache, plan *model.Plan, day time.Time, mealIDs []string, catalog model.MealIndex) (*model.Order, outcome) {
	log := o.logger.With().
		Str("plan_id", plan.ID.String()).
		Str("user_id", plan.UserID.String()).
		Str("day", day.Format(time.DateOnly)).
		Logger()

	exists, err := o.guard.Exists(ctx, plan.UserID, day)
	if err != nil {
		log.Error().Err(err).Msg("duplicate check failed")
		return nil, outcomeFailed
	}
	if exists {
		log.Debug().Msg("order already exists for day")
		return nil, outcomeSkipped
	}

	user, err := users.get(ctx, plan.UserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load plan owner")
		return nil, outcomeFailed
	}
	if user == nil {
		log.Warn().Msg("plan owner not found")
		return nil, outcomeSkipped
	}

	order, err := BuildPlanOrder(PlanDraft{
		Plan:      plan,
		User:      user,
		DeliverAt: day,
		MealIDs:   mealIDs,
		Catalog:   catalog,
		Mode:      BestEffort,
	})
	if err != nil {
		if model.IsKind(err, model.KindPrecondition) || errors.Is(err, ErrNoAvailableMeals) {
			log.Warn().Err(err).Msg("skipping plan")
			return nil, outcomeSkipped
		}
		log.Error().Err(err).Msg("failed to build order")
		return nil, outcomeFailed
	}

	created, err := o.persist(ctx, order, day)
	if err != nil {
		log.Error().Err(err).Msg("failed to create order")
		return nil, outcomeFailed
	}
	if !created {
		return nil, outcomeSkipped
	}
	return order, outcomeCreated
}

// DeliveryDay returns the start of the orchestrator's local day containing eta.
func (o *Orchestrator) DeliveryDay(eta time.Time) time.Time {
	start, _ := DayWindow(eta, o.loc)
	return start
}

// persist writes an order and its items in one transaction.
func (o *Orchestrator) persist(ctx context.Context, order *model.Order, day time.Time) (created bool, err error) {
	tx, err := o.orders.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil || !created {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				o.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	deliveryDay := o.DeliveryDay(day)
	created, err = o.orders.Create(ctx, tx, order, &deliveryDay)
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	if !created {
		return false, nil
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit order: %w", err)
	}
	return true, nil
}

func (o *Orchestrator) catalogFor(ctx context.Context, ids []string) (model.MealIndex, error) {
	if len(ids) == 0 {
		return model.MealIndex{}, nil
	}
	meals, err := o.meals.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	return model.NewMealIndex(meals), nil
}

type userCache struct {
	store UserStore
	users map[uuid.UUID]*model.User
}

func newUserCache(store UserStore) *userCache {
	return &userCache{store: store, users: make(map[uuid.UUID]*model.User)}
}

func (c *userCache) get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := c.users[id]; ok {
		return u, nil
	}
	u, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.users[id] = u
	return u, nil
}

type resultBuilder struct {
	*model.FulfillmentResult
}

func newResult() resultBuilder {
	return resultBuilder{&model.FulfillmentResult{Orders: []model.Order{}}}
}

func (r resultBuilder) add(order *model.Order, out outcome) {
	switch out {
	case outcomeCreated:
		r.Created++
		r.Orders = append(r.Orders, *order)
	case outcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}
