package notify

import (
	"context"
	"errors"
	"fmt"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DriverNotice is what a driver needs to complete a delivery. Every field is
// already rendered; undecodable values read "None Provided".
type DriverNotice struct {
	OrderID uuid.UUID
	Address string
	ETA     string
	Contact string
	Items   []string
}

// RequestEvent is a stage of the plan request lifecycle.
type RequestEvent string

const (
	RequestReceived RequestEvent = "received"
	RequestAccepted RequestEvent = "accepted"
	RequestDenied   RequestEvent = "denied"
	RequestRefunded RequestEvent = "refunded"
)

var requestCopy = map[RequestEvent]struct {
	subject string
	heading string
	body    string
}{
	RequestReceived: {"We received your request", "Request received", "We have received your request and will review it shortly."},
	RequestAccepted: {"Your request was accepted", "Request accepted", "Your request has been accepted and your plan has been updated."},
	RequestDenied:   {"Your request was denied", "Request denied", "Unfortunately your request could not be approved."},
	RequestRefunded: {"Your refund is on its way", "Refund issued", "Your plan has been cancelled and a refund has been issued to your original payment method."},
}

// Notifier renders and sends transactional email. Callers treat every error
// as non-fatal.
type Notifier struct {
	mailer Mailer
	admin  string
	logger zerolog.Logger
}

// NewNotifier creates a notifier. Admin copies are skipped when adminAddress
// is empty.
func NewNotifier(mailer Mailer, adminAddress string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		mailer: mailer,
		admin:  adminAddress,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// DriverAssigned tells a driver about a new delivery.
func (n *Notifier) DriverAssigned(ctx context.Context, driverEmail string, notice DriverNotice) error {
	if driverEmail == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "driver has no email address")
	}
	html, err := render("driver", notice)
	if err != nil {
		return fmt.Errorf("failed to render driver notice: %w", err)
	}
	return n.mailer.Send(ctx, Message{
		To:      driverEmail,
		Subject: "New delivery assigned",
		HTML:    html,
	})
}

// PlanRequest tells the customer and the administrator about a request
// lifecycle event.
func (n *Notifier) PlanRequest(ctx context.Context, event RequestEvent, user *model.User, req *model.PlanRequest) error {
	copyText, ok := requestCopy[event]
	if !ok {
		return fmt.Errorf("unknown request event %q", event)
	}
	if user == nil || req == nil {
		return model.NewValidationError(model.ErrCodeMissingField, "user and request are required")
	}

	data := map[string]any{
		"Heading":   copyText.heading,
		"Body":      copyText.body,
		"Name":      user.FullName,
		"Email":     user.Email,
		"RequestID": req.ID.String(),
		"PlanID":    req.PlanID.String(),
		"Type":      string(req.Type),
		"Status":    string(req.Status),
		"Reason":    optionalRichText(req.Reason),
		"Notes":     optionalRichText(req.AdminNotes),
	}

	var errs []error
	if user.Email != "" {
		html, err := render("request", data)
		if err != nil {
			return fmt.Errorf("failed to render request notice: %w", err)
		}
		errs = append(errs, n.mailer.Send(ctx, Message{To: user.Email, Subject: copyText.subject, HTML: html}))
	}
	if n.admin != "" {
		html, err := render("admin", data)
		if err != nil {
			return fmt.Errorf("failed to render admin notice: %w", err)
		}
		subject := fmt.Sprintf("[admin] %s request %s", req.Type, event)
		errs = append(errs, n.mailer.Send(ctx, Message{To: n.admin, Subject: subject, HTML: html}))
	}
	return errors.Join(errs...)
}

func optionalRichText(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return richText(*s)
}
