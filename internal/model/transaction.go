package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the payment record state.
type TransactionStatus string

const (
	TransactionPaid     TransactionStatus = "paid"
	TransactionRefunded TransactionStatus = "refunded"
)

// Receipt holds gateway identifiers used for idempotency and refunds.
type Receipt struct {
	PaymentIntentID   string `json:"paymentIntentId,omitempty"`
	CheckoutSessionID string `json:"checkoutSessionId,omitempty"`
}

// Transaction is a payment record.
type Transaction struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	UserID    uuid.UUID         `json:"userId" db:"user_id"`
	OrderID   *uuid.UUID        `json:"orderId,omitempty" db:"order_id"`
	Amount    decimal.Decimal   `json:"amount" db:"amount"`
	Currency  string            `json:"currency" db:"currency"`
	Method    string            `json:"method" db:"method"`
	Status    TransactionStatus `json:"status" db:"status"`
	Receipt   json.RawMessage   `json:"receipt,omitempty" db:"receipt"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}

// DecodeReceipt reads the gateway identifiers; an unreadable receipt yields
// an empty Receipt.
func (t *Transaction) DecodeReceipt() Receipt {
	var r Receipt
	if t == nil || len(t.Receipt) == 0 {
		return r
	}
	_ = json.Unmarshal(t.Receipt, &r)
	return r
}

// CheckoutRequest starts a plan purchase.
type CheckoutRequest struct {
	UserID        uuid.UUID       `json:"userId"`
	PlanType      PlanType        `json:"planType"`
	NoMeals       int             `json:"noMeals"`
	NoDays        int             `json:"noDays"`
	Price         decimal.Decimal `json:"price"`
	SpecifyDays   []string        `json:"specifyDays,omitempty"`
	Snack         bool            `json:"snack"`
	NoBreakfast   bool            `json:"noBreakfast"`
	CustomProtein *int            `json:"customProtein,omitempty"`
	CustomCarb    *int            `json:"customCarb,omitempty"`
}

// CheckoutResponse carries the hosted payment page URL.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CheckoutCompletion is a verified checkout.session.completed notification.
type CheckoutCompletion struct {
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

// PaymentOutcome reports how a completion notification was applied.
type PaymentOutcome struct {
	Duplicate   bool         `json:"duplicate"`
	Plan        *Plan        `json:"plan,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Populated   int          `json:"populated"`
}
