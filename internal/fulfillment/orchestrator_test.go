package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Sunday 31 December 2023; weekly population starts on Monday 1 January.
var sunday = time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC)

type orchestratorMocks struct {
	plans    *MockPlanStore
	users    *MockUserStore
	meals    *MockMealStore
	schedule *MockScheduleStore
	orders   *MockOrderStore
}

func newTestOrchestrator() (*Orchestrator, orchestratorMocks) {
	m := orchestratorMocks{
		plans:    new(MockPlanStore),
		users:    new(MockUserStore),
		meals:    new(MockMealStore),
		schedule: new(MockScheduleStore),
		orders:   new(MockOrderStore),
	}
	o := NewOrchestrator(m.plans, m.users, m.meals, m.schedule, m.orders, time.UTC, zerolog.Nop())
	o.now = func() time.Time { return sunday }
	return o, m
}

func availableMeals(ids ...string) []model.Meal {
	meals := make([]model.Meal, len(ids))
	for i, id := range ids {
		meals[i] = model.Meal{ID: id, Name: "Meal " + id, Available: true}
	}
	return meals
}

func mondaySchedule() []model.ScheduleDay {
	snack := "S1"
	return []model.ScheduleDay{
		{Day: "Monday", Meals: []string{"M1", "M2", "M3", "M4", "M5"}, SnackID: &snack},
	}
}

func TestPopulateWeek_CreatesScheduledOrders(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()
	mockTx := new(MockTx)

	user := testUser(`{"city":"Dubai"}`)
	plan := model.Plan{
		ID: uuid.New(), UserID: user.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive,
		NoMeals: 3, SpecifyDays: []string{"Monday"},
	}
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mondayEnd := monday.Add(24*time.Hour - time.Millisecond)

	var created *model.Order
	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return([]model.Plan{plan}, nil)
	m.schedule.On("FindAll", ctx).Return(mondaySchedule(), nil)
	m.meals.On("GetByIDs", ctx, []string{"M1", "M2", "M3", "M4", "M5", "S1"}).Return(availableMeals("M1", "M2", "M3", "M4", "M5", "S1"), nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, user.ID, monday, mondayEnd).Return(nil, nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)
	m.orders.On("BeginTx", ctx).Return(mockTx, nil)
	m.orders.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order"), &monday).
		Run(func(args mock.Arguments) { created = args.Get(2).(*model.Order) }).
		Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)

	result, err := o.PopulateWeek(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	require.NotNil(t, created)
	require.Len(t, created.Items, 3)
	for i, want := range []string{"M1", "M2", "M3"} {
		id, _ := created.Items[i].Ref.MealID()
		assert.Equal(t, want, id)
	}

	m.orders.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestPopulateWeek_SkipsUnavailableScheduledMeals(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()
	mockTx := new(MockTx)

	user := testUser(`{"city":"Dubai"}`)
	plan := model.Plan{
		ID: uuid.New(), UserID: user.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive,
		NoMeals: 2, Snack: true, SpecifyDays: []string{"Monday"},
	}
	snack := "S1"
	schedule := []model.ScheduleDay{{Day: "Monday", Meals: []string{"X", "A", "B", "C"}, SnackID: &snack}}
	catalogue := append(availableMeals("A", "B", "C", "S1"), model.Meal{ID: "X", Name: "Sold out", Available: false})

	var created *model.Order
	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return([]model.Plan{plan}, nil)
	m.schedule.On("FindAll", ctx).Return(schedule, nil)
	m.meals.On("GetByIDs", ctx, mock.Anything).Return(catalogue, nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, user.ID, mock.Anything, mock.Anything).Return(nil, nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)
	m.orders.On("BeginTx", ctx).Return(mockTx, nil)
	m.orders.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order"), mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(2).(*model.Order) }).
		Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)

	result, err := o.PopulateWeek(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	require.NotNil(t, created)
	require.Len(t, created.Items, 3)
	for i, want := range []string{"A", "B", "S1"} {
		id, _ := created.Items[i].Ref.MealID()
		assert.Equal(t, want, id)
	}
}

func TestPopulateWeek_SecondPassCreatesNothing(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()
	mockTx := new(MockTx)

	user := testUser(`{"city":"Dubai"}`)
	plan := model.Plan{
		ID: uuid.New(), UserID: user.ID, Type: model.PlanTypeLoss, Status: model.PlanStatusActive,
		NoMeals: 2, Snack: true, SpecifyDays: []string{"Monday"},
	}
	existing := &model.Order{ID: uuid.New(), UserID: user.ID}

	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return([]model.Plan{plan}, nil)
	m.schedule.On("FindAll", ctx).Return(mondaySchedule(), nil)
	m.meals.On("GetByIDs", ctx, mock.Anything).Return(availableMeals("M1", "M2", "M3", "M4", "M5", "S1"), nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, user.ID, mock.Anything, mock.Anything).Return(nil, nil).Once()
	m.orders.On("FindFirstByUserAndDayWindow", ctx, user.ID, mock.Anything, mock.Anything).Return(existing, nil)
	m.orders.On("BeginTx", ctx).Return(mockTx, nil).Once()
	m.orders.On("Create", ctx, mockTx, mock.MatchedBy(func(order *model.Order) bool {
		return len(order.Items) == 3 && order.NutritionProfile.Snack
	}), mock.Anything).Return(true, nil).Once()
	mockTx.On("Commit", ctx).Return(nil).Once()

	first, err := o.PopulateWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := o.PopulateWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Empty(t, second.Orders)

	m.orders.AssertNumberOfCalls(t, "Create", 1)
	mockTx.AssertExpectations(t)
}

func TestPopulateWeek_FiltersPlans(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()

	expired := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	plans := []model.Plan{
		{ID: uuid.New(), UserID: uuid.New(), Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2, SpecifyDays: []string{"Tuesday"}},
		{ID: uuid.New(), UserID: uuid.New(), Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2},
		{ID: uuid.New(), UserID: uuid.New(), Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2, SpecifyDays: []string{"Monday"}, ExpiryDate: &expired},
	}

	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return(plans, nil)
	m.schedule.On("FindAll", ctx).Return(mondaySchedule(), nil)
	m.meals.On("GetByIDs", ctx, mock.Anything).Return(availableMeals("M1", "M2"), nil)

	result, err := o.PopulateWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Skipped)

	m.orders.AssertNotCalled(t, "FindFirstByUserAndDayWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPopulateWeek_MissingAddressPersistsNothing(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()

	user := testUser("")
	plan := model.Plan{ID: uuid.New(), UserID: user.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2, SpecifyDays: []string{"Monday"}}

	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return([]model.Plan{plan}, nil)
	m.schedule.On("FindAll", ctx).Return(mondaySchedule(), nil)
	m.meals.On("GetByIDs", ctx, mock.Anything).Return(availableMeals("M1", "M2"), nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, user.ID, mock.Anything, mock.Anything).Return(nil, nil)
	m.users.On("GetByID", ctx, user.ID).Return(user, nil)

	result, err := o.PopulateWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Equal(t, 1, result.Skipped)

	m.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPopulateWeek_IsolatesPlanFailures(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()
	failingTx := new(MockTx)
	okTx := new(MockTx)

	failing := testUser(`{"city":"Dubai"}`)
	healthy := testUser(`{"city":"Sharjah"}`)
	plans := []model.Plan{
		{ID: uuid.New(), UserID: failing.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 1, SpecifyDays: []string{"Monday"}},
		{ID: uuid.New(), UserID: healthy.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 1, SpecifyDays: []string{"Monday"}},
	}

	m.plans.On("ListActive", ctx, (*model.PlanType)(nil)).Return(plans, nil)
	m.schedule.On("FindAll", ctx).Return(mondaySchedule(), nil)
	m.meals.On("GetByIDs", ctx, mock.Anything).Return(availableMeals("M1"), nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	m.users.On("GetByID", ctx, failing.ID).Return(failing, nil)
	m.users.On("GetByID", ctx, healthy.ID).Return(healthy, nil)
	m.orders.On("BeginTx", ctx).Return(failingTx, nil).Once()
	m.orders.On("BeginTx", ctx).Return(okTx, nil).Once()
	m.orders.On("Create", ctx, failingTx, mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))
	m.orders.On("Create", ctx, okTx, mock.Anything, mock.Anything).Return(true, nil)
	failingTx.On("Rollback", ctx).Return(nil)
	okTx.On("Commit", ctx).Return(nil)

	result, err := o.PopulateWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, healthy.ID, result.Orders[0].UserID)

	failingTx.AssertExpectations(t)
	okTx.AssertExpectations(t)
}

func TestPopulatePlanWeek_IgnoresInactivePlan(t *testing.T) {
	o, m := newTestOrchestrator()

	result, err := o.PopulatePlanWeek(context.Background(), &model.Plan{Status: model.PlanStatusCancelled})
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	m.schedule.AssertNotCalled(t, "FindAll", mock.Anything)
}

func TestFromPlan(t *testing.T) {
	ctx := context.Background()
	user := testUser(`{"city":"Dubai"}`)
	plan := &model.Plan{ID: uuid.New(), UserID: user.ID, Type: model.PlanTypeCustom, Status: model.PlanStatusActive, NoMeals: 2, Snack: true}

	t.Run("creates order from exact meal list", func(t *testing.T) {
		o, m := newTestOrchestrator()
		mockTx := new(MockTx)
		ids := []string{"M1", "M2", "S1"}

		m.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)
		m.users.On("GetByID", ctx, user.ID).Return(user, nil)
		m.meals.On("GetByIDs", ctx, ids).Return(availableMeals(ids...), nil)
		m.orders.On("BeginTx", ctx).Return(mockTx, nil)
		m.orders.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order"), mock.Anything).Return(true, nil)
		mockTx.On("Commit", ctx).Return(nil)

		order, err := o.FromPlan(ctx, plan.ID, model.FromPlanRequest{MealIDs: ids})
		require.NoError(t, err)
		assert.Len(t, order.Items, 3)
		assert.Equal(t, 200, order.NutritionProfile.ProteinTarget)
		assert.True(t, order.DeliveryEta.Equal(sunday))
		mockTx.AssertExpectations(t)
	})

	t.Run("rejects wrong meal count", func(t *testing.T) {
		o, m := newTestOrchestrator()
		m.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)

		_, err := o.FromPlan(ctx, plan.ID, model.FromPlanRequest{MealIDs: []string{"M1", "M2"}})
		require.Error(t, err)
		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.ErrCodeMealCountMismatch, de.Code)
	})

	t.Run("rejects duplicate meals", func(t *testing.T) {
		o, m := newTestOrchestrator()
		m.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)

		_, err := o.FromPlan(ctx, plan.ID, model.FromPlanRequest{MealIDs: []string{"M1", "M1", "S1"}})
		require.Error(t, err)
		assert.True(t, model.IsKind(err, model.KindValidation))
	})

	t.Run("rejects unavailable meal", func(t *testing.T) {
		o, m := newTestOrchestrator()
		ids := []string{"M1", "M2", "S1"}
		m.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)
		m.users.On("GetByID", ctx, user.ID).Return(user, nil)
		m.meals.On("GetByIDs", ctx, ids).Return(availableMeals("M1", "S1"), nil)

		_, err := o.FromPlan(ctx, plan.ID, model.FromPlanRequest{MealIDs: ids})
		assert.True(t, model.IsKind(err, model.KindValidation))
		m.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("missing plan", func(t *testing.T) {
		o, m := newTestOrchestrator()
		m.plans.On("GetByID", ctx, mock.Anything).Return(nil, nil)

		_, err := o.FromPlan(ctx, uuid.New(), model.FromPlanRequest{})
		assert.True(t, model.IsKind(err, model.KindNotFound))
	})

	t.Run("existing order for the day", func(t *testing.T) {
		o, m := newTestOrchestrator()
		mockTx := new(MockTx)
		ids := []string{"M1", "M2", "S1"}

		m.plans.On("GetByID", ctx, plan.ID).Return(plan, nil)
		m.users.On("GetByID", ctx, user.ID).Return(user, nil)
		m.meals.On("GetByIDs", ctx, ids).Return(availableMeals(ids...), nil)
		m.orders.On("BeginTx", ctx).Return(mockTx, nil)
		m.orders.On("Create", ctx, mockTx, mock.Anything, mock.Anything).Return(false, nil)
		mockTx.On("Rollback", ctx).Return(nil)

		_, err := o.FromPlan(ctx, plan.ID, model.FromPlanRequest{MealIDs: ids})
		assert.True(t, model.IsKind(err, model.KindConflict))
		mockTx.AssertExpectations(t)
	})
}

func TestFromPlansByType(t *testing.T) {
	ctx := context.Background()
	o, m := newTestOrchestrator()
	mockTx := new(MockTx)

	monday := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	onMonday := testUser(`{"city":"Dubai"}`)
	anyDay := testUser(`{"city":"Ajman"}`)
	notToday := testUser(`{"city":"Sharjah"}`)
	plans := []model.Plan{
		{ID: uuid.New(), UserID: onMonday.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2, SpecifyDays: []string{"Monday"}},
		{ID: uuid.New(), UserID: anyDay.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 1},
		{ID: uuid.New(), UserID: notToday.ID, Type: model.PlanTypeGain, Status: model.PlanStatusActive, NoMeals: 2, SpecifyDays: []string{"Friday"}},
	}
	pool := []string{"M1", "M2", "M3"}
	gain := model.PlanTypeGain

	var sizes []int
	m.plans.On("ListActive", ctx, &gain).Return(plans, nil)
	m.meals.On("GetByIDs", ctx, pool).Return(availableMeals(pool...), nil)
	m.orders.On("FindFirstByUserAndDayWindow", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	m.users.On("GetByID", ctx, onMonday.ID).Return(onMonday, nil)
	m.users.On("GetByID", ctx, anyDay.ID).Return(anyDay, nil)
	m.orders.On("BeginTx", ctx).Return(mockTx, nil)
	m.orders.On("Create", ctx, mockTx, mock.AnythingOfType("*model.Order"), mock.Anything).
		Run(func(args mock.Arguments) { sizes = append(sizes, len(args.Get(2).(*model.Order).Items)) }).
		Return(true, nil)
	mockTx.On("Commit", ctx).Return(nil)

	result, err := o.FromPlansByType(ctx, model.FromPlansRequest{Type: gain, MealIDs: pool, DateAssigned: &monday})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, []int{2, 1}, sizes)
	m.users.AssertNotCalled(t, "GetByID", ctx, notToday.ID)

	_, err = o.FromPlansByType(ctx, model.FromPlansRequest{Type: gain})
	assert.True(t, model.IsKind(err, model.KindValidation))
}
