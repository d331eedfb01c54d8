package service

import (
	"context"
	"fmt"

	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type planService struct {
	planRepo repository.PlanRepository
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewPlanService creates a new plan service.
func NewPlanService(planRepo repository.PlanRepository, userRepo repository.UserRepository, logger zerolog.Logger) PlanService {
	return &planService{
		planRepo: planRepo,
		userRepo: userRepo,
		logger:   logger.With().Str("service", "plan").Logger(),
	}
}

// Create stores a plan on behalf of a user. Status defaults to active.
func (s *planService) Create(ctx context.Context, in model.PlanInput) (*model.Plan, error) {
	if in.UserID == uuid.Nil || in.Type == nil || *in.Type == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "userId and type are required")
	}
	patch, err := in.PlanPatch.Normalize()
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}

	plan := patch.Apply(model.Plan{
		ID:          uuid.New(),
		UserID:      in.UserID,
		Status:      model.PlanStatusActive,
		SpecifyDays: []string{},
	})
	if err := s.planRepo.Create(ctx, nil, &plan); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("plan_id", plan.ID.String()).
		Str("user_id", plan.UserID.String()).
		Str("type", string(plan.Type)).
		Msg("plan created")
	return &plan, nil
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, model.NewNotFoundError("Plan not found")
	}
	return plan, nil
}

func (s *planService) List(ctx context.Context, filter model.PlanFilter) ([]model.Plan, error) {
	plans, err := s.planRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Update applies the whitelisted patch fields.
func (s *planService) Update(ctx context.Context, id uuid.UUID, patch model.PlanPatch) (*model.Plan, error) {
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := patch.Apply(*current)
	if err := s.planRepo.Update(ctx, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *planService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.planRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Plan not found")
	}
	s.logger.Info().Str("plan_id", id.String()).Msg("plan deleted")
	return nil
}
