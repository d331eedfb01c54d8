package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"meal-kart/internal/model"
	"meal-kart/internal/notify"
	"meal-kart/internal/payment"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	acceptedCancelReason = "Plan cancelled"
	refundCancelReason   = "Plan refunded"
)

var (
	reviewableStatuses = []model.PlanRequestStatus{model.RequestPending}
	refundableStatuses = []model.PlanRequestStatus{model.RequestPending, model.RequestAccepted}
)

type planRequestService struct {
	requestRepo     repository.PlanRequestRepository
	planRepo        repository.PlanRepository
	orderRepo       repository.OrderRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	gateway         payment.Gateway
	notifier        RequestNotifier
	now             func() time.Time
	logger          zerolog.Logger
}

// NewPlanRequestService creates the plan request workflow.
func NewPlanRequestService(
	requestRepo repository.PlanRequestRepository,
	planRepo repository.PlanRepository,
	orderRepo repository.OrderRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	gateway payment.Gateway,
	notifier RequestNotifier,
	logger zerolog.Logger,
) PlanRequestService {
	return &planRequestService{
		requestRepo:     requestRepo,
		planRepo:        planRepo,
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		gateway:         gateway,
		notifier:        notifier,
		now:             time.Now,
		logger:          logger.With().Str("service", "plan_request").Logger(),
	}
}

// Create files a request against one of the user's plans. A plan has at
// most one PENDING request.
func (s *planRequestService) Create(ctx context.Context, in model.PlanRequestInput) (*model.PlanRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.loadPlan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != in.UserID {
		return nil, model.NewValidationError(model.ErrCodeInvalidField, "Plan does not belong to user")
	}

	pending, err := s.requestRepo.HasPending(ctx, in.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pending {
		return nil, model.ErrPendingRequest
	}

	req := &model.PlanRequest{
		ID:            uuid.New(),
		UserID:        in.UserID,
		PlanID:        in.PlanID,
		Type:          in.Type,
		Status:        model.RequestPending,
		Reason:        in.Reason,
		RequestedData: in.RequestedData,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("plan_id", req.PlanID.String()).
		Str("type", string(req.Type)).
		Msg("plan request created")

	s.notify(ctx, notify.RequestReceived, req)
	return req, nil
}

func (s *planRequestService) GetByID(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan request: %w", err)
	}
	if req == nil {
		return nil, model.NewNotFoundError("Request not found")
	}
	return req, nil
}

func (s *planRequestService) List(ctx context.Context, filter model.PlanRequestFilter) (*model.PlanRequestList, error) {
	filter.Page, filter.PageSize = pagination(filter.Page, filter.PageSize)
	requests, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan requests: %w", err)
	}
	if requests == nil {
		requests = []model.PlanRequest{}
	}
	return &model.PlanRequestList{Requests: requests, Count: total}, nil
}

// Accept applies the request. A cancellation ends the plan and cancels the
// user's PREPARING orders; a plan change applies the requested patch. The
// request is claimed first, inside the same transaction as the plan changes.
func (s *planRequestService) Accept(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error) {
	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.loadPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	var patch model.PlanPatch
	if req.Type == model.RequestPlanChange {
		if patch, err = model.DecodePlanPatch(req.RequestedData); err != nil {
			return nil, err
		}
		if patch, err = patch.Normalize(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.requestRepo.UpdateStatus(ctx, tx, req.ID, model.RequestTransition{
			From:       reviewableStatuses,
			To:         model.RequestAccepted,
			AdminNotes: review.AdminNotes,
		}); err != nil {
			return err
		}
		switch req.Type {
		case model.RequestCancellation:
			return s.cancelPlan(ctx, tx, plan, reasonOr(req.Reason, acceptedCancelReason), now)
		case model.RequestPlanChange:
			updated := patch.Apply(*plan)
			return s.planRepo.Update(ctx, tx, &updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = model.RequestAccepted
	req.AdminNotes = review.AdminNotes
	req.UpdatedAt = now

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("type", string(req.Type)).
		Msg("plan request accepted")

	s.notify(ctx, notify.RequestAccepted, req)
	return req, nil
}

// Deny rejects a PENDING request without touching the plan.
func (s *planRequestService) Deny(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error) {
	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.UpdateStatus(ctx, nil, req.ID, model.RequestTransition{
		From:       reviewableStatuses,
		To:         model.RequestDenied,
		AdminNotes: review.AdminNotes,
	}); err != nil {
		return nil, err
	}

	req.Status = model.RequestDenied
	req.AdminNotes = review.AdminNotes
	req.UpdatedAt = s.now()

	s.logger.Info().Str("request_id", req.ID.String()).Msg("plan request denied")
	s.notify(ctx, notify.RequestDenied, req)
	return req, nil
}

// Refund returns the user's latest payment for a cancellation request. The
// request is claimed, the gateway refund issued, and the plan, transaction and
// PREPARING orders updated in one database transaction; a gateway failure
// rolls the claim back.
func (s *planRequestService) Refund(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Type != model.RequestCancellation {
		return nil, model.NewValidationError(model.ErrCodeInvalidField, "Only cancellation requests can be refunded")
	}
	if !slices.Contains(refundableStatuses, req.Status) {
		return nil, model.NewValidationError(model.ErrCodeRequestNotPending,
			fmt.Sprintf("Request is %s and cannot be refunded", req.Status))
	}

	plan, err := s.loadPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	txn, err := s.transactionRepo.LatestPaidWithIntent(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	if txn == nil {
		return nil, model.NewPreconditionError(model.ErrCodeNoPayment, "No refundable payment found for user")
	}
	intentID := txn.DecodeReceipt().PaymentIntentID

	now := s.now()
	refunded := false
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.requestRepo.UpdateStatus(ctx, tx, req.ID, model.RequestTransition{
			From:       refundableStatuses,
			To:         model.RequestRefunded,
			AdminNotes: review.AdminNotes,
			RefundedAt: &now,
		}); err != nil {
			return err
		}
		if err := s.gateway.Refund(ctx, intentID); err != nil {
			s.logger.Error().
				Err(err).
				Str("request_id", req.ID.String()).
				Str("payment_intent", intentID).
				Msg("gateway refund failed")
			return model.NewExternalError(model.ErrCodePaymentGateway, "Refund failed at the payment provider", err)
		}
		refunded = true
		if err := s.cancelPlan(ctx, tx, plan, refundCancelReason, now); err != nil {
			return err
		}
		return s.transactionRepo.UpdateStatus(ctx, tx, txn.ID, model.TransactionRefunded)
	})
	if err != nil {
		if refunded {
			// The money has already moved; this needs manual reconciliation.
			s.logger.Error().
				Err(err).
				Str("request_id", req.ID.String()).
				Str("transaction_id", txn.ID.String()).
				Msg("refund issued but local state not updated")
		}
		return nil, err
	}

	req.Status = model.RequestRefunded
	req.RefundedAt = &now
	if review.AdminNotes != nil {
		req.AdminNotes = review.AdminNotes
	}
	req.UpdatedAt = now

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Msg("plan refunded")

	s.notify(ctx, notify.RequestRefunded, req)
	return req, nil
}

func (s *planRequestService) cancelPlan(ctx context.Context, tx pgx.Tx, plan *model.Plan, reason string, at time.Time) error {
	found, err := s.planRepo.UpdateStatus(ctx, tx, plan.ID, model.PlanStatusCancelled)
	if err != nil {
		return err
	}
	if !found {
		return model.NewNotFoundError("Plan not found")
	}
	cancelled, err := s.orderRepo.CancelPreparing(ctx, tx, model.Cancellation{UserID: plan.UserID, Reason: reason, At: at})
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("plan_id", plan.ID.String()).
		Int64("orders_cancelled", cancelled).
		Msg("plan cancelled")
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *planRequestService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.planRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *planRequestService) loadPending(ctx context.Context, id uuid.UUID) (*model.PlanRequest, error) {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, model.ErrRequestNotActive
	}
	return req, nil
}

func (s *planRequestService) loadPlan(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, model.NewNotFoundError("Plan not found")
	}
	return plan, nil
}

// notify emails the customer and admin. Failures are logged only.
func (s *planRequestService) notify(ctx context.Context, event notify.RequestEvent, req *model.PlanRequest) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err == nil && user == nil {
		err = errors.New("user not found")
	}
	if err == nil {
		err = s.notifier.PlanRequest(ctx, event, user, req)
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("request_id", req.ID.String()).
			Str("event", string(event)).
			Msg("failed to send request notification")
	}
}

func reasonOr(reason *string, fallback string) string {
	if reason != nil && *reason != "" {
		return *reason
	}
	return fallback
}
