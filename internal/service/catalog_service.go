package service

import (
	"context"
	"fmt"
	"strings"

	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	mealRepo    repository.MealRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalogue service.
func NewCatalogService(mealRepo repository.MealRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CatalogService {
	return &catalogService{
		mealRepo:    mealRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListMeals(ctx context.Context, filter model.MealFilter) ([]model.Meal, error) {
	meals, err := s.mealRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

func (s *catalogService) GetMeal(ctx context.Context, id string) (*model.Meal, error) {
	if id == "" {
		return nil, model.NewNotFoundError("Meal not found")
	}
	meal, err := s.mealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if meal == nil {
		s.logger.Debug().Str("meal_id", id).Msg("meal not found")
		return nil, model.NewNotFoundError("Meal not found")
	}
	return meal, nil
}

// CreateMeal stores a meal. An id is generated when none is supplied.
func (s *catalogService) CreateMeal(ctx context.Context, in model.MealInput) (*model.Meal, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "name is required")
	}

	meal := &model.Meal{ID: strings.TrimSpace(in.ID), Available: true, Tags: []string{}}
	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}
	if err := applyMealInput(meal, in); err != nil {
		return nil, err
	}

	inserted, err := s.mealRepo.Insert(ctx, meal)
	if err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	if !inserted {
		return nil, model.NewConflictError(model.ErrCodeMealExists, "Meal id already exists")
	}

	s.logger.Info().Str("meal_id", meal.ID).Msg("meal created")
	return meal, nil
}

func (s *catalogService) UpdateMeal(ctx context.Context, id string, in model.MealInput) (*model.Meal, error) {
	meal, err := s.GetMeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, model.NewValidationError(model.ErrCodeInvalidField, "name must not be empty")
	}
	if err := applyMealInput(meal, in); err != nil {
		return nil, err
	}
	if err := s.mealRepo.Update(ctx, meal); err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *catalogService) DeleteMeal(ctx context.Context, id string) error {
	deleted, err := s.mealRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Meal not found")
	}
	s.logger.Info().Str("meal_id", id).Msg("meal deleted")
	return nil
}

// applyMealInput copies the whitelisted fields; the id is never changed.
func applyMealInput(meal *model.Meal, in model.MealInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return model.NewValidationError(model.ErrCodeInvalidField, "price must not be negative")
	}
	if in.Name != nil {
		meal.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		meal.Description = in.Description
	}
	if in.Type != nil {
		meal.Type = in.Type
	}
	if in.Category != nil {
		meal.Category = in.Category
	}
	if in.Tags != nil {
		meal.Tags = in.Tags
	}
	if in.Photo != nil {
		meal.Photo = in.Photo
	}
	if in.Price != nil {
		meal.Price = *in.Price
	}
	if in.Available != nil {
		meal.Available = *in.Available
	}
	return nil
}

// ListProducts retrieves products with pagination.
func (s *catalogService) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetProduct retrieves a single product by ID.
func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.NewNotFoundError("Product not found")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.NewNotFoundError("Product not found")
	}

	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product == nil || strings.TrimSpace(product.Name) == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "name is required")
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info().Str("product_id", product.ID).Msg("product created")
	return product, nil
}

// UpdateProduct applies patch to an existing product; the id never changes.
func (s *catalogService) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, model.NewValidationError(model.ErrCodeInvalidField, "name must not be empty")
		}
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		product.Description = patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = patch.Stock
	}
	if patch.Photo != nil {
		product.Photo = patch.Photo
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info().Str("product_id", id).Msg("product updated")
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Product not found")
	}
	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func validateProduct(p *model.Product) error {
	if p.Price.IsNegative() {
		return model.NewValidationError(model.ErrCodeInvalidField, "price must not be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return model.NewValidationError(model.ErrCodeInvalidField, "stock must not be negative")
	}
	return nil
}
