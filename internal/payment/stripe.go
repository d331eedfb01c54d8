package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"meal-kart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// ErrInvalidSignature means the webhook payload failed verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	sessions      stripeSessionAPI
	refunds       stripeRefundAPI
	webhookSecret string
	logger        zerolog.Logger
}

// NewStripeGateway creates a gateway for the given secret key.
func NewStripeGateway(secretKey, webhookSecret string, logger zerolog.Logger) (*StripeGateway, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	sc := client.New(secretKey, nil)
	return newStripeGateway(sc.CheckoutSessions, sc.Refunds, webhookSecret, logger), nil
}

func newStripeGateway(sessions stripeSessionAPI, refunds stripeRefundAPI, webhookSecret string, logger zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		sessions:      sessions,
		refunds:       refunds,
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("component", "stripe").Logger(),
	}
}

// CreateCheckoutSession creates a payment-mode Checkout session.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{
			string(stripe.PaymentMethodTypeCard),
		}),
	}
	params.Context = ctx

	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(item.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	session, err := g.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	g.logger.Info().
		Str("session_id", session.ID).
		Str("currency", string(session.Currency)).
		Msg("checkout session created")

	return Session{ID: session.ID, URL: session.URL}, nil
}

// Refund refunds the full amount of a payment intent.
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return errors.New("stripe: payment intent is required")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	refund, err := g.refunds.New(params)
	if err != nil {
		return fmt.Errorf("stripe: refund payment intent: %w", err)
	}

	g.logger.Info().
		Str("payment_intent", paymentIntentID).
		Str("refund_id", refund.ID).
		Str("status", string(refund.Status)).
		Msg("payment refunded")
	return nil
}

// ParseCompletion verifies the Stripe-Signature header and extracts a
// completed checkout session.
func (g *StripeGateway) ParseCompletion(payload []byte, signature string) (*model.CheckoutCompletion, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		g.logger.Debug().Str("event_type", string(event.Type)).Msg("ignoring webhook event")
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}

	completion := &model.CheckoutCompletion{
		SessionID:   session.ID,
		AmountTotal: session.AmountTotal,
		Currency:    strings.ToUpper(string(session.Currency)),
		Metadata:    session.Metadata,
	}
	if session.PaymentIntent != nil {
		completion.PaymentIntentID = session.PaymentIntent.ID
	}
	return completion, nil
}
