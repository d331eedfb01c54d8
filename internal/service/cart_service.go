package service

import (
	"context"
	"fmt"

	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Create opens the user's cart. Each user has at most one.
func (s *cartService) Create(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	if userID == uuid.Nil {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "userId is required")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}

	cart := &model.Cart{ID: uuid.New(), UserID: userID}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, err
	}
	s.logger.Info().Str("cart_id", cart.ID.String()).Str("user_id", userID.String()).Msg("cart created")
	return cart, nil
}

func (s *cartService) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, model.NewNotFoundError("Cart not found")
	}
	return cart, nil
}

func (s *cartService) ListItems(ctx context.Context, cartID *uuid.UUID) ([]model.CartItem, error) {
	items, err := s.cartRepo.ListItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

func (s *cartService) GetItem(ctx context.Context, id uuid.UUID) (*model.CartItem, error) {
	item, err := s.cartRepo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, model.NewNotFoundError("Cart item not found")
	}
	return item, nil
}

// AddItem puts a product or a plan snapshot in a cart. Quantity defaults to 1.
func (s *cartService) AddItem(ctx context.Context, in model.CartItemInput) (*model.CartItem, error) {
	if in.CartID == uuid.Nil {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "cartId is required")
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetByID(ctx, in.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return nil, model.NewNotFoundError("Cart not found")
	}

	ref, err := s.resolveRef(ctx, in.ProductID, in.Plan)
	if err != nil {
		return nil, err
	}

	item := &model.CartItem{ID: uuid.New(), CartID: cart.ID, Ref: ref, Quantity: quantity}
	if err := s.cartRepo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem changes an item's reference or quantity. A quantity of zero or
// less removes the item and returns nil.
func (s *cartService) UpdateItem(ctx context.Context, id uuid.UUID, patch model.CartItemPatch) (*model.CartItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Quantity != nil && *patch.Quantity <= 0 {
		if _, err := s.cartRepo.DeleteItem(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		s.logger.Debug().Str("item_id", id.String()).Msg("cart item removed by quantity")
		return nil, nil
	}

	if patch.ProductID != "" || len(patch.Plan) > 0 {
		ref, err := s.resolveRef(ctx, patch.ProductID, patch.Plan)
		if err != nil {
			return nil, err
		}
		item.Ref = ref
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}

	if err := s.cartRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.cartRepo.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Cart item not found")
	}
	return nil
}

// resolveRef builds the item reference, checking that a product exists.
func (s *cartService) resolveRef(ctx context.Context, productID string, plan []byte) (model.LineRef, error) {
	ref, err := model.LineRefFrom(productID, "", plan)
	if err != nil {
		return model.LineRef{}, err
	}
	if id, ok := ref.ProductID(); ok {
		product, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return model.LineRef{}, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return model.LineRef{}, model.NewNotFoundError(fmt.Sprintf("Product %s not found", id))
		}
	}
	return ref, nil
}
