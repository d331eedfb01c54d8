package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meal is a catalogue entry used for scheduling and plan orders. Its price is
// informational only; plan-derived orders never charge per meal.
type Meal struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Type        *string         `json:"type,omitempty" db:"type"`
	Category    *string         `json:"category,omitempty" db:"category"`
	Tags        []string        `json:"tags" db:"tags"`
	Photo       *string         `json:"photo,omitempty" db:"photo"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Available   bool            `json:"available" db:"available"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// MealInput holds the whitelisted, client-settable meal fields.
type MealInput struct {
	ID          string           `json:"id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Photo       *string          `json:"photo,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

// MealFilter narrows meal listings.
type MealFilter struct {
	Available *bool
	Category  string
	Query     string
}

// Product represents a directly purchasable catalogue item.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       *int            `json:"stock,omitempty" db:"stock"`
	Photo       *string         `json:"photo,omitempty" db:"photo"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// ProductPatch holds the product fields a PATCH may change.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Photo       *string          `json:"photo,omitempty"`
}

// MealIndex maps meal ids to the available meals among them.
type MealIndex map[string]Meal

// NewMealIndex indexes the given meals by id.
func NewMealIndex(meals []Meal) MealIndex {
	idx := make(MealIndex, len(meals))
	for _, m := range meals {
		idx[m.ID] = m
	}
	return idx
}

// Lookup returns the meal when it is present and available.
func (idx MealIndex) Lookup(id string) (Meal, bool) {
	m, ok := idx[id]
	if !ok || !m.Available {
		return Meal{}, false
	}
	return m, true
}
