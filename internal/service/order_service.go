package service

import (
	"context"
	"fmt"
	"time"

	"meal-kart/internal/fulfillment"
	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	mealRepo    repository.MealRepository
	userRepo    repository.UserRepository
	fulfiller   Fulfiller
	status      StatusChanger
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	mealRepo repository.MealRepository,
	userRepo repository.UserRepository,
	fulfiller Fulfiller,
	status StatusChanger,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mealRepo:    mealRepo,
		userRepo:    userRepo,
		fulfiller:   fulfiller,
		status:      status,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create places an ad-hoc order priced from the current catalogue.
func (s *orderService) Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if req == nil || req.UserID == uuid.Nil {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "userId is required")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}

	catalog, err := s.catalogFor(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order, err := fulfillment.BuildAdHocOrder(req, user, catalog)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("ad-hoc order rejected")
		return nil, err
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var created bool
	if created, err = s.orderRepo.Create(ctx, tx, order, nil); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if !created {
		err = model.NewConflictError(model.ErrCodeOrderExists, "Order already exists")
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created successfully")

	return order, nil
}

func (s *orderService) catalogFor(ctx context.Context, items []model.OrderItemRequest) (fulfillment.AdHocCatalog, error) {
	var productIDs, mealIDs []string
	for _, item := range items {
		if item.ProductID != "" {
			productIDs = append(productIDs, item.ProductID)
		}
		if item.MealID != "" {
			mealIDs = append(mealIDs, item.MealID)
		}
	}

	catalog := fulfillment.AdHocCatalog{
		Products: make(map[string]model.Product, len(productIDs)),
		Meals:    model.MealIndex{},
	}
	if len(productIDs) > 0 {
		products, err := s.productRepo.GetByIDs(ctx, productIDs)
		if err != nil {
			return catalog, fmt.Errorf("failed to retrieve product details: %w", err)
		}
		for _, p := range products {
			catalog.Products[p.ID] = p
		}
	}
	if len(mealIDs) > 0 {
		meals, err := s.mealRepo.GetByIDs(ctx, mealIDs)
		if err != nil {
			return catalog, fmt.Errorf("failed to retrieve meal details: %w", err)
		}
		catalog.Meals = model.NewMealIndex(meals)
	}
	return catalog, nil
}

// GetByID retrieves an order by its ID with all items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.NewNotFoundError("Order not found")
	}
	return order, nil
}

// List pages through orders. Without a status filter cancelled orders are
// hidden.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error) {
	if filter.Status != "" {
		if _, err := model.ParseOrderStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	filter.Page, filter.PageSize = pagination(filter.Page, filter.PageSize)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &model.OrderList{Orders: orders, Count: total}, nil
}

// Update applies the whitelisted fields. A new delivery fee recomputes the
// total from the stored subtotal.
func (s *orderService) Update(ctx context.Context, id uuid.UUID, patch model.OrderPatch) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DeliveryFee != nil {
		if patch.DeliveryFee.IsNegative() {
			return nil, model.NewValidationError(model.ErrCodeInvalidField, "deliveryFee must not be negative")
		}
		order.DeliveryFee = *patch.DeliveryFee
		order.Total = order.Subtotal.Add(order.DeliveryFee)
	}
	if patch.DeliveryAddress != nil {
		if model.DecodeAddress(patch.DeliveryAddress).IsEmpty() {
			return nil, model.NewValidationError(model.ErrCodeInvalidField, "deliveryAddress must not be empty")
		}
		order.DeliveryAddress = patch.DeliveryAddress
	}
	if patch.Note != nil {
		order.Note = patch.Note
	}
	var deliveryDay *time.Time
	if patch.DeliveryEta != nil {
		order.DeliveryEta = patch.DeliveryEta
		if order.Source == model.OrderSourcePlan {
			day := s.fulfiller.DeliveryDay(*patch.DeliveryEta)
			deliveryDay = &day
		}
	}
	if patch.PaymentMethod != nil {
		order.PaymentMethod = patch.PaymentMethod
	}

	if err := s.orderRepo.Update(ctx, order, deliveryDay); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.orderRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Order not found")
	}
	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, upd model.StatusUpdate) (*model.Order, error) {
	return s.status.UpdateStatus(ctx, id, upd)
}

func (s *orderService) AssignDriver(ctx context.Context, id, driverID uuid.UUID) (*model.Order, error) {
	return s.status.AssignDriver(ctx, id, driverID)
}

func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Order, error) {
	return s.status.Cancel(ctx, id, reason)
}

func (s *orderService) FromPlan(ctx context.Context, planID uuid.UUID, req model.FromPlanRequest) (*model.Order, error) {
	return s.fulfiller.FromPlan(ctx, planID, req)
}

func (s *orderService) FromPlansByType(ctx context.Context, req model.FromPlansRequest) (*model.FulfillmentResult, error) {
	return s.fulfiller.FromPlansByType(ctx, req)
}

func (s *orderService) PopulateWeek(ctx context.Context) (*model.FulfillmentResult, error) {
	return s.fulfiller.PopulateWeek(ctx)
}
