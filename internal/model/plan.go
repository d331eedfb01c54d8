package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanType selects the nutrition targets of a plan.
type PlanType string

const (
	PlanTypeGain   PlanType = "gain"
	PlanTypeLoss   PlanType = "loss"
	PlanTypeCustom PlanType = "custom"
)

// PlanStatus is free-form in storage; these are the values the system writes.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCancelled PlanStatus = "cancelled"
	PlanStatusPending   PlanStatus = "pending"
)

// Plan is a user's meal subscription.
type Plan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	Type           PlanType        `json:"type" db:"type"`
	Status         PlanStatus      `json:"status" db:"status"`
	NoMeals        int             `json:"noMeals" db:"no_meals"`
	NoDays         int             `json:"noDays" db:"no_days"`
	Snack          bool            `json:"snack" db:"snack"`
	NoBreakfast    bool            `json:"noBreakfast" db:"no_breakfast"`
	SpecifyDays    []string        `json:"specifyDays" db:"specify_days"`
	CustomProtein  *int            `json:"customProtein,omitempty" db:"custom_protein"`
	CustomCarb     *int            `json:"customCarb,omitempty" db:"custom_carb"`
	EstimatedPrice decimal.Decimal `json:"estimatedPrice" db:"estimated_price"`
	StartDate      *time.Time      `json:"startDate,omitempty" db:"start_date"`
	ExpiryDate     *time.Time      `json:"expiryDate,omitempty" db:"expiry_date"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// DeliversOn reports whether day is one of the plan's selected weekdays.
func (p *Plan) DeliversOn(day string) bool {
	for _, d := range p.SpecifyDays {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}

// ExpiredBy reports whether the plan expires before t. Plans without an
// expiry date never expire.
func (p *Plan) ExpiredBy(t time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.Before(t)
}

// PlanPatch is the whitelist of plan fields that may be changed by an
// administrator or an accepted PLAN_CHANGE request.
type PlanPatch struct {
	Type           *PlanType        `json:"type,omitempty"`
	Status         *PlanStatus      `json:"status,omitempty"`
	NoMeals        *int             `json:"noMeals,omitempty"`
	NoDays         *int             `json:"noDays,omitempty"`
	Snack          *bool            `json:"snack,omitempty"`
	NoBreakfast    *bool            `json:"noBreakfast,omitempty"`
	SpecifyDays    []string         `json:"specifyDays,omitempty"`
	CustomProtein  *int             `json:"customProtein,omitempty"`
	CustomCarb     *int             `json:"customCarb,omitempty"`
	EstimatedPrice *decimal.Decimal `json:"estimatedPrice,omitempty"`
	StartDate      *time.Time       `json:"startDate,omitempty"`
	ExpiryDate     *time.Time       `json:"expiryDate,omitempty"`
}

// DecodePlanPatch reads a PLAN_CHANGE payload. Unknown keys are dropped.
func DecodePlanPatch(raw json.RawMessage) (PlanPatch, error) {
	var patch PlanPatch
	if len(raw) == 0 {
		return patch, nil
	}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return PlanPatch{}, NewValidationError(ErrCodeInvalidField, "requestedData is not a valid plan change")
	}
	return patch, nil
}

// Normalize validates the patch and canonicalises weekday names.
func (p PlanPatch) Normalize() (PlanPatch, error) {
	if p.NoMeals != nil && *p.NoMeals < 0 {
		return p, NewValidationError(ErrCodeInvalidField, "noMeals must not be negative")
	}
	if p.NoDays != nil && *p.NoDays < 0 {
		return p, NewValidationError(ErrCodeInvalidField, "noDays must not be negative")
	}
	if p.SpecifyDays != nil {
		days, err := CanonicalWeekdays(p.SpecifyDays)
		if err != nil {
			return p, err
		}
		p.SpecifyDays = days
	}
	return p, nil
}

// Apply returns a copy of plan with the patch applied.
func (p PlanPatch) Apply(plan Plan) Plan {
	if p.Type != nil {
		plan.Type = *p.Type
	}
	if p.Status != nil {
		plan.Status = *p.Status
	}
	if p.NoMeals != nil {
		plan.NoMeals = *p.NoMeals
	}
	if p.NoDays != nil {
		plan.NoDays = *p.NoDays
	}
	if p.Snack != nil {
		plan.Snack = *p.Snack
	}
	if p.NoBreakfast != nil {
		plan.NoBreakfast = *p.NoBreakfast
	}
	if p.SpecifyDays != nil {
		plan.SpecifyDays = p.SpecifyDays
	}
	if p.CustomProtein != nil {
		plan.CustomProtein = p.CustomProtein
	}
	if p.CustomCarb != nil {
		plan.CustomCarb = p.CustomCarb
	}
	if p.EstimatedPrice != nil {
		plan.EstimatedPrice = *p.EstimatedPrice
	}
	if p.StartDate != nil {
		plan.StartDate = p.StartDate
	}
	if p.ExpiryDate != nil {
		plan.ExpiryDate = p.ExpiryDate
	}
	return plan
}

// PlanInput is the administrative create payload.
type PlanInput struct {
	UserID uuid.UUID `json:"userId"`
	PlanPatch
}

// PlanFilter narrows plan listings. An empty Status excludes cancelled plans.
type PlanFilter struct {
	UserID *uuid.UUID
	Status string
}
