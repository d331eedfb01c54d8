package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-kart/internal/config"
	"meal-kart/internal/model"
	"meal-kart/internal/payment"
	"meal-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type paymentService struct {
	gateway         payment.Gateway
	planRepo        repository.PlanRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	fulfiller       Fulfiller
	cfg             config.StripeConfig
	now             func() time.Time
	logger          zerolog.Logger
}

// NewPaymentService creates the plan purchase service.
func NewPaymentService(
	gateway payment.Gateway,
	planRepo repository.PlanRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	fulfiller Fulfiller,
	cfg config.StripeConfig,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		gateway:         gateway,
		planRepo:        planRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		fulfiller:       fulfiller,
		cfg:             cfg,
		now:             time.Now,
		logger:          logger.With().Str("service", "payment").Logger(),
	}
}

// Checkout opens a hosted payment page for a plan. The plan itself is only
// created once the gateway reports the payment complete.
func (s *paymentService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User not found")
	}

	meta, err := payment.EncodeMetadata(req)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		Currency:   s.cfg.Currency,
		SuccessURL: s.cfg.SuccessURL(),
		CancelURL:  s.cfg.CancelURL(),
		Metadata:   meta,
		Items: []payment.LineItem{{
			Name:     fmt.Sprintf("Meal Plan (%s)", req.PlanType),
			Amount:   payment.MinorUnits(req.Price),
			Quantity: 1,
		}},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID.String()).Msg("failed to create checkout session")
		return nil, model.NewExternalError(model.ErrCodePaymentGateway, "Failed to create checkout session", err)
	}

	s.logger.Info().
		Str("user_id", req.UserID.String()).
		Str("session_id", session.ID).
		Str("plan_type", string(req.PlanType)).
		Msg("checkout session created")

	return &model.CheckoutResponse{URL: session.URL, SessionID: session.ID}, nil
}

func validateCheckout(req *model.CheckoutRequest) error {
	if req == nil || req.UserID == uuid.Nil || req.PlanType == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "userId and planType are required")
	}
	if req.NoMeals < 1 || req.NoDays < 1 {
		return model.NewValidationError(model.ErrCodeInvalidField, "noMeals and noDays must be at least 1")
	}
	if !req.Price.IsPositive() {
		return model.NewValidationError(model.ErrCodeInvalidField, "price must be greater than zero")
	}
	days, err := model.CanonicalWeekdays(req.SpecifyDays)
	if err != nil {
		return err
	}
	req.SpecifyDays = days
	return nil
}

// HandleWebhook records a completed checkout as a plan and a paid
// transaction. Redelivered notifications for the same payment intent are
// acknowledged without writing anything.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.PaymentOutcome, error) {
	completion, err := s.gateway.ParseCompletion(payload, signature)
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		return nil, model.NewExternalError(model.ErrCodePaymentGateway, "Payment gateway is not configured", err)
	case err != nil:
		s.logger.Warn().Err(err).Msg("rejected webhook")
		return nil, &model.DomainError{
			Kind:    model.KindValidation,
			Code:    model.ErrCodeInvalidField,
			Message: "Webhook signature verification failed",
			Err:     err,
		}
	case completion == nil:
		return nil, nil
	}

	now := s.now()
	plan, err := payment.DecodePlan(completion, now)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", completion.SessionID).Msg("checkout metadata unreadable")
		return nil, err
	}

	receipt, err := json.Marshal(model.Receipt{
		PaymentIntentID:   completion.PaymentIntentID,
		CheckoutSessionID: completion.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}
	currency := strings.ToUpper(completion.Currency)
	if currency == "" {
		currency = payment.DefaultCurrency
	}
	txn := &model.Transaction{
		ID:        uuid.New(),
		UserID:    plan.UserID,
		Amount:    payment.MajorUnits(completion.AmountTotal),
		Currency:  currency,
		Method:    "card",
		Status:    model.TransactionPaid,
		Receipt:   receipt,
		CreatedAt: now,
	}

	outcome, err := s.record(ctx, plan, txn)
	if err != nil {
		return nil, err
	}
	if outcome.Duplicate {
		s.logger.Info().
			Str("payment_intent", completion.PaymentIntentID).
			Msg("duplicate checkout completion ignored")
		return outcome, nil
	}

	s.logger.Info().
		Str("plan_id", plan.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Str("amount", txn.Amount.StringFixed(2)).
		Msg("plan purchased")

	// The purchase stands even if the first week cannot be generated; the
	// scheduled population picks the plan up later.
	result, err := s.fulfiller.PopulatePlanWeek(ctx, plan)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", plan.ID.String()).Msg("failed to populate first week")
		return outcome, nil
	}
	outcome.Populated = result.Created
	return outcome, nil
}

func (s *paymentService) record(ctx context.Context, plan *model.Plan, txn *model.Transaction) (outcome *model.PaymentOutcome, err error) {
	tx, err := s.planRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil || outcome.Duplicate {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	created, err := s.transactionRepo.Create(ctx, tx, txn)
	if err != nil {
		return nil, err
	}
	if !created {
		return &model.PaymentOutcome{Duplicate: true}, nil
	}
	if err = s.planRepo.Create(ctx, tx, plan); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &model.PaymentOutcome{Plan: plan, Transaction: txn}, nil
}

func (s *paymentService) ListTransactions(ctx context.Context, userID *uuid.UUID, page, pageSize int) ([]model.Transaction, error) {
	page, pageSize = pagination(page, pageSize)
	txns, err := s.transactionRepo.List(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	return txns, nil
}

func (s *paymentService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, model.NewNotFoundError("Transaction not found")
	}
	return txn, nil
}
