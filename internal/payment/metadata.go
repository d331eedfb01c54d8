package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"meal-kart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metadata keys carried on the checkout session.
const (
	metaUserID        = "userId"
	metaPlanType      = "planType"
	metaNoMeals       = "noMeals"
	metaNoDays        = "noDays"
	metaSpecifyDays   = "specifyDays"
	metaSnack         = "snack"
	metaNoBreakfast   = "noBreakfast"
	metaCustomProtein = "customProtein"
	metaCustomCarb    = "customCarb"
)

// DefaultCurrency is recorded when the gateway omits one.
const DefaultCurrency = "AED"

// PlanTerm is how long a purchased plan stays active.
const PlanTerm = 30 * 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a major-unit amount to the gateway's integer amount.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// MajorUnits converts a gateway amount back to major units.
func MajorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(hundred)
}

// EncodeMetadata records the plan being purchased on the session.
func EncodeMetadata(req *model.CheckoutRequest) (map[string]string, error) {
	days := req.SpecifyDays
	if days == nil {
		days = []string{}
	}
	rawDays, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("failed to encode specifyDays: %w", err)
	}

	meta := map[string]string{
		metaUserID:      req.UserID.String(),
		metaPlanType:    string(req.PlanType),
		metaNoMeals:     strconv.Itoa(req.NoMeals),
		metaNoDays:      strconv.Itoa(req.NoDays),
		metaSpecifyDays: string(rawDays),
		metaSnack:       strconv.FormatBool(req.Snack),
		metaNoBreakfast: strconv.FormatBool(req.NoBreakfast),
	}
	if req.CustomProtein != nil {
		meta[metaCustomProtein] = strconv.Itoa(*req.CustomProtein)
	}
	if req.CustomCarb != nil {
		meta[metaCustomCarb] = strconv.Itoa(*req.CustomCarb)
	}
	return meta, nil
}

// DecodePlan rebuilds the purchased plan from a completed session. The plan
// is active from now until now + PlanTerm.
func DecodePlan(c *model.CheckoutCompletion, now time.Time) (*model.Plan, error) {
	meta := c.Metadata

	userID, err := uuid.Parse(meta[metaUserID])
	if err != nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidField, "metadata userId is missing or invalid")
	}
	planType := model.PlanType(strings.TrimSpace(meta[metaPlanType]))
	if planType == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "metadata planType is missing")
	}

	noMeals, err := intField(meta, metaNoMeals)
	if err != nil {
		return nil, err
	}
	noDays, err := intField(meta, metaNoDays)
	if err != nil {
		return nil, err
	}

	var days []string
	if raw := meta[metaSpecifyDays]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &days); err != nil {
			return nil, model.NewValidationError(model.ErrCodeInvalidField, "metadata specifyDays is not a JSON array")
		}
	}
	days, err = model.CanonicalWeekdays(days)
	if err != nil {
		return nil, err
	}

	expiry := now.Add(PlanTerm)
	plan := &model.Plan{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           planType,
		Status:         model.PlanStatusActive,
		NoMeals:        noMeals,
		NoDays:         noDays,
		Snack:          meta[metaSnack] == "true",
		NoBreakfast:    meta[metaNoBreakfast] == "true",
		SpecifyDays:    days,
		EstimatedPrice: MajorUnits(c.AmountTotal),
		StartDate:      &now,
		ExpiryDate:     &expiry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if plan.CustomProtein, err = optionalIntField(meta, metaCustomProtein); err != nil {
		return nil, err
	}
	if plan.CustomCarb, err = optionalIntField(meta, metaCustomCarb); err != nil {
		return nil, err
	}
	return plan, nil
}

func intField(meta map[string]string, key string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(meta[key]))
	if err != nil || v < 0 {
		return 0, model.NewValidationError(model.ErrCodeInvalidField, "metadata "+key+" is missing or invalid")
	}
	return v, nil
}

func optionalIntField(meta map[string]string, key string) (*int, error) {
	if strings.TrimSpace(meta[key]) == "" {
		return nil, nil
	}
	v, err := intField(meta, key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
