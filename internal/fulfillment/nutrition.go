package fulfillment

import "meal-kart/internal/model"

// Macro targets in grams per day.
const (
	gainTarget    = 250
	lossTarget    = 150
	defaultTarget = 200
)

// Targets is the nutrition policy outcome for a plan.
type Targets struct {
	Protein   int
	Carb      int
	MealCount int
}

// Policy maps a plan to its macro targets and effective meal count. The
// effective count includes the snack and is what every meal-count check uses.
func Policy(plan *model.Plan) Targets {
	t := Targets{Protein: defaultTarget, Carb: defaultTarget, MealCount: plan.NoMeals}
	if plan.Snack {
		t.MealCount++
	}

	switch plan.Type {
	case model.PlanTypeGain:
		t.Protein, t.Carb = gainTarget, gainTarget
	case model.PlanTypeLoss:
		t.Protein, t.Carb = lossTarget, lossTarget
	case model.PlanTypeCustom:
		if plan.CustomProtein != nil {
			t.Protein = *plan.CustomProtein
		}
		if plan.CustomCarb != nil {
			t.Carb = *plan.CustomCarb
		}
	}
	return t
}

// Profile is the snapshot stored on every plan-derived order.
func Profile(plan *model.Plan) model.NutritionProfile {
	t := Policy(plan)
	return model.NutritionProfile{
		PlanType:      plan.Type,
		ProteinTarget: t.Protein,
		CarbTarget:    t.Carb,
		MealsPerDay:   t.MealCount,
		Snack:         plan.Snack,
	}
}
