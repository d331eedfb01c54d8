package payment

import (
	"context"
	"errors"

	"meal-kart/internal/model"
)

// ErrNotConfigured is returned by Disabled for every call.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// LineItem is one line of a hosted checkout page.
type LineItem struct {
	Name     string
	Amount   int64 // minor units
	Quantity int64
}

// SessionRequest describes a hosted checkout session.
type SessionRequest struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
	Items      []LineItem
}

// Session is the created checkout session.
type Session struct {
	ID  string
	URL string
}

// Gateway is the payment provider used for plan purchases.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	Refund(ctx context.Context, paymentIntentID string) error

	// ParseCompletion verifies a webhook payload. It returns nil without an
	// error for verified events other than a completed checkout.
	ParseCompletion(payload []byte, signature string) (*model.CheckoutCompletion, error)
}

// Disabled is used when no gateway credentials are configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, SessionRequest) (Session, error) {
	return Session{}, ErrNotConfigured
}

func (Disabled) Refund(context.Context, string) error { return ErrNotConfigured }

func (Disabled) ParseCompletion([]byte, string) (*model.CheckoutCompletion, error) {
	return nil, ErrNotConfigured
}
