package service

import (
	"context"
	"fmt"

	"meal-kart/internal/model"
	"meal-kart/internal/repository"

	"github.com/rs/zerolog"
)

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	logger       zerolog.Logger
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(scheduleRepo repository.ScheduleRepository, logger zerolog.Logger) ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		logger:       logger.With().Str("service", "schedule").Logger(),
	}
}

// Upsert replaces the menu of one weekday.
func (s *scheduleService) Upsert(ctx context.Context, in model.ScheduleInput) (*model.ScheduleDay, error) {
	day, err := in.Validate()
	if err != nil {
		return nil, err
	}

	entry := &model.ScheduleDay{Day: day, Meals: in.Meals, SnackID: in.SnackID}
	if entry.SnackID != nil && *entry.SnackID == "" {
		entry.SnackID = nil
	}
	if err := s.scheduleRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info().Str("day", day).Int("meals", len(entry.Meals)).Msg("schedule day saved")
	return entry, nil
}

// List returns the week ordered Sunday to Saturday.
func (s *scheduleService) List(ctx context.Context) ([]model.ScheduleDay, error) {
	days, err := s.scheduleRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	return days, nil
}

func (s *scheduleService) Delete(ctx context.Context, day string) error {
	canonical, ok := model.CanonicalWeekday(day)
	if !ok {
		return model.NewValidationError(model.ErrCodeInvalidField, "day must be a weekday name")
	}
	deleted, err := s.scheduleRepo.Delete(ctx, canonical)
	if err != nil {
		return fmt.Errorf("failed to delete schedule day: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Schedule day not found")
	}
	return nil
}
