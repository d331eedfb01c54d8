package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is a customer, driver or administrator account.
type User struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Email     string          `json:"email" db:"email"`
	FullName  string          `json:"fullName" db:"full_name"`
	Phone     *string         `json:"phone,omitempty" db:"phone"`
	Roles     []string        `json:"roles" db:"roles"`
	Address   json.RawMessage `json:"address,omitempty" db:"address"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// DeliveryAddress decodes the user's stored address.
func (u *User) DeliveryAddress() Address {
	if u == nil {
		return Address{}
	}
	return DecodeAddress(u.Address)
}

// ContactLine renders name, phone and email for delivery notices.
func (u *User) ContactLine() string {
	if u == nil {
		return NoneProvided
	}
	line := u.FullName
	if u.Phone != nil && *u.Phone != "" {
		line += " / " + *u.Phone
	}
	if u.Email != "" {
		line += " / " + u.Email
	}
	if line == "" {
		return NoneProvided
	}
	return line
}

// UserInput carries the fields accepted on create and update.
type UserInput struct {
	Email    *string         `json:"email,omitempty"`
	FullName *string         `json:"fullName,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Roles    []string        `json:"roles,omitempty"`
	Address  json.RawMessage `json:"address,omitempty"`
}
