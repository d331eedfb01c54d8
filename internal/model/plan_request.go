package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlanRequestType distinguishes plan changes from cancellations.
type PlanRequestType string

const (
	RequestPlanChange   PlanRequestType = "PLAN_CHANGE"
	RequestCancellation PlanRequestType = "CANCELLATION"
)

// PlanRequestStatus is the admin review state of a request.
type PlanRequestStatus string

const (
	RequestPending  PlanRequestStatus = "PENDING"
	RequestAccepted PlanRequestStatus = "ACCEPTED"
	RequestDenied   PlanRequestStatus = "DENIED"
	RequestRefunded PlanRequestStatus = "REFUNDED"
)

// PlanRequest is a customer-initiated change or cancellation of a plan.
type PlanRequest struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	UserID        uuid.UUID         `json:"userId" db:"user_id"`
	PlanID        uuid.UUID         `json:"planId" db:"plan_id"`
	Type          PlanRequestType   `json:"type" db:"type"`
	Status        PlanRequestStatus `json:"status" db:"status"`
	Reason        *string           `json:"reason,omitempty" db:"reason"`
	RequestedData json.RawMessage   `json:"requestedData,omitempty" db:"requested_data"`
	AdminNotes    *string           `json:"adminNotes,omitempty" db:"admin_notes"`
	RefundedAt    *time.Time        `json:"refundedAt,omitempty" db:"refunded_at"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time         `json:"updatedAt" db:"updated_at"`
}

// PlanRequestInput is the customer payload.
type PlanRequestInput struct {
	UserID        uuid.UUID       `json:"userId"`
	PlanID        uuid.UUID       `json:"planId"`
	Type          PlanRequestType `json:"type"`
	Reason        *string         `json:"reason,omitempty"`
	RequestedData json.RawMessage `json:"requestedData,omitempty"`
}

// Validate checks required fields and the request type.
func (in PlanRequestInput) Validate() error {
	if in.UserID == uuid.Nil || in.PlanID == uuid.Nil || in.Type == "" {
		return NewValidationError(ErrCodeMissingField, "Missing required fields")
	}
	switch in.Type {
	case RequestPlanChange:
		if _, err := DecodePlanPatch(in.RequestedData); err != nil {
			return err
		}
	case RequestCancellation:
		if in.Reason == nil || *in.Reason == "" {
			return NewValidationError(ErrCodeMissingField, "Cancellation reason is required")
		}
	default:
		return NewValidationError(ErrCodeInvalidField, "type must be PLAN_CHANGE or CANCELLATION")
	}
	return nil
}

// ReviewInput carries the administrator's notes on accept or deny.
type ReviewInput struct {
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// PlanRequestFilter narrows request listings.
type PlanRequestFilter struct {
	UserID   *uuid.UUID
	Page     int
	PageSize int
}

// PlanRequestList is a page of requests and the total matching count.
type PlanRequestList struct {
	Requests []PlanRequest `json:"requests"`
	Count    int           `json:"count"`
}

// Cancellation is the order cascade applied when a plan ends.
type Cancellation struct {
	UserID uuid.UUID
	Reason string
	At     time.Time
}

// RequestTransition moves a request to To only while it is still in one of
// From.
type RequestTransition struct {
	From       []PlanRequestStatus
	To         PlanRequestStatus
	AdminNotes *string
	RefundedAt *time.Time
}
