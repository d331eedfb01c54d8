package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LineRefKind tags what an order or cart line points at.
type LineRefKind string

const (
	LineRefProduct LineRefKind = "product"
	LineRefMeal    LineRefKind = "meal"
	LineRefPlan    LineRefKind = "plan"
)

// LineRef is a tagged variant: exactly one of a product reference, a meal
// reference or a free-form plan snapshot. Build it with the constructors.
type LineRef struct {
	kind LineRefKind
	id   string
	plan json.RawMessage
}

// ProductRef references a catalogue product.
func ProductRef(id string) (LineRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return LineRef{}, NewValidationError(ErrCodeMissingField, "productId is required")
	}
	return LineRef{kind: LineRefProduct, id: id}, nil
}

// MealRef references a catalogue meal.
func MealRef(id string) (LineRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return LineRef{}, NewValidationError(ErrCodeMissingField, "mealId is required")
	}
	return LineRef{kind: LineRefMeal, id: id}, nil
}

// PlanSnapshotRef holds a plan configuration selected in the cart before
// checkout. The snapshot must be a JSON object.
func PlanSnapshotRef(snapshot json.RawMessage) (LineRef, error) {
	trimmed := bytes.TrimSpace(snapshot)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return LineRef{}, NewValidationError(ErrCodeInvalidField, "plan must be a valid object")
	}
	return LineRef{kind: LineRefPlan, plan: append(json.RawMessage(nil), trimmed...)}, nil
}

// LineRefFrom enforces that exactly one of the alternatives is supplied.
func LineRefFrom(productID, mealID string, plan json.RawMessage) (LineRef, error) {
	set := 0
	if productID != "" {
		set++
	}
	if mealID != "" {
		set++
	}
	if len(bytes.TrimSpace(plan)) > 0 && !bytes.Equal(bytes.TrimSpace(plan), []byte("null")) {
		set++
	}
	switch {
	case set == 0:
		return LineRef{}, NewValidationError(ErrCodeMissingField, "each item must have productId, mealId or plan")
	case set > 1:
		return LineRef{}, NewValidationError(ErrCodeDuplicateSelection, "provide exactly one of productId, mealId or plan")
	case productID != "":
		return ProductRef(productID)
	case mealID != "":
		return MealRef(mealID)
	default:
		return PlanSnapshotRef(plan)
	}
}

// Kind returns the variant tag; the zero LineRef has an empty kind.
func (r LineRef) Kind() LineRefKind { return r.kind }

// ProductID returns the product id and whether r is a product reference.
func (r LineRef) ProductID() (string, bool) { return r.id, r.kind == LineRefProduct }

// MealID returns the meal id and whether r is a meal reference.
func (r LineRef) MealID() (string, bool) { return r.id, r.kind == LineRefMeal }

// Plan returns the plan snapshot and whether r is a plan snapshot.
func (r LineRef) Plan() (json.RawMessage, bool) { return r.plan, r.kind == LineRefPlan }

// IsZero reports whether r was never constructed.
func (r LineRef) IsZero() bool { return r.kind == "" }

type lineRefJSON struct {
	ProductID string          `json:"productId,omitempty"`
	MealID    string          `json:"mealId,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
}

// MarshalJSON renders the single populated alternative.
func (r LineRef) MarshalJSON() ([]byte, error) {
	var out lineRefJSON
	switch r.kind {
	case LineRefProduct:
		out.ProductID = r.id
	case LineRefMeal:
		out.MealID = r.id
	case LineRefPlan:
		out.Plan = r.plan
	}
	return json.Marshal(out)
}

// UnmarshalJSON validates the variant while decoding.
func (r *LineRef) UnmarshalJSON(data []byte) error {
	var in lineRefJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ref, err := LineRefFrom(in.ProductID, in.MealID, in.Plan)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
