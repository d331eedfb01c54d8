package fulfillment

import (
	"context"
	"fmt"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
)

// DayWindow returns [00:00:00.000, 23:59:59.999] of t's calendar day in loc.
func DayWindow(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// DayFinder looks up orders inside a delivery window.
type DayFinder interface {
	FindFirstByUserAndDayWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) (*model.Order, error)
}

// Guard reports whether a user already has an order on a calendar day. The
// orders table also carries a unique index on (user, delivery day) for plan
// orders, so a lost race surfaces as a skipped insert rather than a duplicate.
type Guard struct {
	orders DayFinder
	loc    *time.Location
}

// NewGuard creates a duplicate guard evaluating days in loc.
func NewGuard(orders DayFinder, loc *time.Location) *Guard {
	if loc == nil {
		loc = time.Local
	}
	return &Guard{orders: orders, loc: loc}
}

// Exists reports whether userID has an order delivered on day.
func (g *Guard) Exists(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	start, end := DayWindow(day, g.loc)
	existing, err := g.orders.FindFirstByUserAndDayWindow(ctx, userID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check existing orders: %w", err)
	}
	return existing != nil, nil
}
