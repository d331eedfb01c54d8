package service

import (
	"context"
	"time"

	"meal-kart/internal/model"
	"meal-kart/internal/notify"
	"meal-kart/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

func txOrNil(args mock.Arguments) (pgx.Tx, error) {
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMealRepository is a mock implementation of MealRepository.
type MockMealRepository struct {
	mock.Mock
}

func (m *MockMealRepository) Insert(ctx context.Context, meal *model.Meal) (bool, error) {
	args := m.Called(ctx, meal)
	return args.Bool(0), args.Error(1)
}

func (m *MockMealRepository) InsertBatch(ctx context.Context, meals []model.Meal) (int, error) {
	args := m.Called(ctx, meals)
	return args.Int(0), args.Error(1)
}

func (m *MockMealRepository) List(ctx context.Context, filter model.MealFilter) ([]model.Meal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MockMealRepository) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

func (m *MockMealRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Meal, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MockMealRepository) Update(ctx context.Context, meal *model.Meal) error {
	return m.Called(ctx, meal).Error(0)
}

func (m *MockMealRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, query string, limit, offset int) ([]model.User, int, error) {
	args := m.Called(ctx, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

// MockPlanRepository is a mock implementation of PlanRepository.
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txOrNil(m.Called(ctx))
}

func (m *MockPlanRepository) Create(ctx context.Context, tx pgx.Tx, plan *model.Plan) error {
	return m.Called(ctx, tx, plan).Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context, filter model.PlanFilter) ([]model.Plan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListActive(ctx context.Context, planType *model.PlanType) ([]model.Plan, error) {
	args := m.Called(ctx, planType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Plan), args.Error(1)
}

func (m *MockPlanRepository) Update(ctx context.Context, tx pgx.Tx, plan *model.Plan) error {
	return m.Called(ctx, tx, plan).Error(0)
}

func (m *MockPlanRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.PlanStatus) (bool, error) {
	args := m.Called(ctx, tx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txOrNil(m.Called(ctx))
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order, deliveryDay *time.Time) (bool, error) {
	args := m.Called(ctx, tx, order, deliveryDay)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindFirstByUserAndDayWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.Order, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *model.Order, deliveryDay *time.Time) error {
	return m.Called(ctx, order, deliveryDay).Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, cancelReason *string, cancelDate *time.Time) (*model.Order, error) {
	args := m.Called(ctx, id, status, cancelReason, cancelDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) CancelPreparing(ctx context.Context, tx pgx.Tx, c model.Cancellation) (int64, error) {
	args := m.Called(ctx, tx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx pgx.Tx, t *model.Transaction) (bool, error) {
	args := m.Called(ctx, tx, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LatestPaidWithIntent(ctx context.Context, userID uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]model.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.TransactionStatus) error {
	return m.Called(ctx, tx, id, status).Error(0)
}

// MockPlanRequestRepository is a mock implementation of PlanRequestRepository.
type MockPlanRequestRepository struct {
	mock.Mock
}

func (m *MockPlanRequestRepository) Create(ctx context.Context, req *model.PlanRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockPlanRequestRepository) HasPending(ctx context.Context, planID uuid.UUID) (bool, error) {
	args := m.Called(ctx, planID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlanRequest), args.Error(1)
}

func (m *MockPlanRequestRepository) List(ctx context.Context, filter model.PlanRequestFilter) ([]model.PlanRequest, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.PlanRequest), args.Int(1), args.Error(2)
}

func (m *MockPlanRequestRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, t model.RequestTransition) error {
	return m.Called(ctx, tx, id, t).Error(0)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Create(ctx context.Context, cart *model.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) ListItems(ctx context.Context, cartID *uuid.UUID) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) UpdateItem(ctx context.Context, item *model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockFulfiller is a mock implementation of Fulfiller.
type MockFulfiller struct {
	mock.Mock
}

func (m *MockFulfiller) FromPlan(ctx context.Context, planID uuid.UUID, req model.FromPlanRequest) (*model.Order, error) {
	args := m.Called(ctx, planID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockFulfiller) FromPlansByType(ctx context.Context, req model.FromPlansRequest) (*model.FulfillmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FulfillmentResult), args.Error(1)
}

func (m *MockFulfiller) PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FulfillmentResult), args.Error(1)
}

func (m *MockFulfiller) DeliveryDay(eta time.Time) time.Time {
	return m.Called(eta).Get(0).(time.Time)
}

func (m *MockFulfiller) PopulatePlanWeek(ctx context.Context, plan *model.Plan) (*model.FulfillmentResult, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FulfillmentResult), args.Error(1)
}

// MockRequestNotifier is a mock implementation of RequestNotifier.
type MockRequestNotifier struct {
	mock.Mock
}

func (m *MockRequestNotifier) PlanRequest(ctx context.Context, event notify.RequestEvent, user *model.User, req *model.PlanRequest) error {
	return m.Called(ctx, event, user, req).Error(0)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Session), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, paymentIntentID string) error {
	return m.Called(ctx, paymentIntentID).Error(0)
}

func (m *MockGateway) ParseCompletion(payload []byte, signature string) (*model.CheckoutCompletion, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutCompletion), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
