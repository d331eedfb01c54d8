package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Cart is the single shopping cart owned by a user.
type Cart struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	Items     []CartItem `json:"items"`
}

// CartItem is a product or a plan snapshot waiting for checkout.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cartId" db:"cart_id"`
	Ref       LineRef   `json:"ref"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CartItemInput adds an item to a cart.
type CartItemInput struct {
	CartID    uuid.UUID       `json:"cartId"`
	ProductID string          `json:"productId,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
	Quantity  *int            `json:"quantity,omitempty"`
}

// CartItemPatch updates an item. A quantity of zero or less removes it.
type CartItemPatch struct {
	ProductID string          `json:"productId,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
	Quantity  *int            `json:"quantity,omitempty"`
}
