package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidField        = "INVALID_FIELD"
	ErrCodeMealCountMismatch   = "MEAL_COUNT_MISMATCH"
	ErrCodeMealUnavailable     = "MEAL_UNAVAILABLE"
	ErrCodeDuplicateSelection  = "DUPLICATE_SELECTION"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMissingAddress      = "MISSING_DELIVERY_ADDRESS"
	ErrCodeOrderExists         = "ORDER_EXISTS"
	ErrCodePlanInactive        = "PLAN_INACTIVE"
	ErrCodeNoPayment           = "NO_PAYMENT_ON_FILE"
	ErrCodeRequestNotPending   = "REQUEST_NOT_PENDING"
	ErrCodePendingRequest      = "PENDING_REQUEST_EXISTS"
	ErrCodeCartExists          = "CART_EXISTS"
	ErrCodeMealExists          = "MEAL_EXISTS"
	ErrCodeEmailInUse          = "EMAIL_IN_USE"
	ErrCodePaymentGateway      = "PAYMENT_GATEWAY_ERROR"
	ErrCodeNotificationFailure = "NOTIFICATION_FAILURE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// ErrorKind classifies domain errors so transports can map them to responses.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindPrecondition ErrorKind = "precondition"
	KindConflict     ErrorKind = "conflict"
	KindExternal     ErrorKind = "external"
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports bad or missing input.
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNotFoundError reports an absent plan, meal, order or other record.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(KindNotFound, ErrCodeNotFound, message)
}

// NewPreconditionError reports state that prevents the operation, such as a
// missing delivery address.
func NewPreconditionError(code, message string) *DomainError {
	return NewDomainError(KindPrecondition, code, message)
}

// NewConflictError reports a uniqueness clash.
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewExternalError wraps a failure of the payment gateway or mail channel.
func NewExternalError(code, message string, err error) *DomainError {
	return &DomainError{
		Kind:    KindExternal,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first DomainError in err's chain, or an
// empty kind when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common domain errors
var (
	ErrInvalidQuantity  = NewValidationError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrMissingAddress   = NewPreconditionError(ErrCodeMissingAddress, "User needs a delivery address")
	ErrPendingRequest   = NewConflictError(ErrCodePendingRequest, "You already have a pending request for this plan")
	ErrCartExists       = NewConflictError(ErrCodeCartExists, "Cart already exists for user")
	ErrEmailInUse       = NewConflictError(ErrCodeEmailInUse, "Email already in use")
	ErrRequestNotActive = NewValidationError(ErrCodeRequestNotPending, "Request is not pending")
	ErrRequestReviewed  = NewConflictError(ErrCodeRequestNotPending, "Request was reviewed by someone else")
)
