package shipping

import (
	"fmt"
	"strings"
)

// NotFoundError: the referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError carries a field-level message for the admin UI.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError: the operation is not allowed in the current state,
// e.g. booking a shipment that is already BOOKED.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// BookingAttempt records one courier call for diagnostic display.
type BookingAttempt struct {
	Courier     string `json:"courier"`
	ServiceType string `json:"service_type"`
	Error       string `json:"error,omitempty"`
}

// ExternalServiceError: every courier attempt failed. Carries per-attempt
// detail so the operator can see which courier failed and why.
type ExternalServiceError struct {
	Attempts []BookingAttempt
}

func (e *ExternalServiceError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", a.Courier, a.ServiceType, a.Error))
	}
	return "all booking attempts failed: " + strings.Join(parts, "; ")
}

// AuthorizationError maps to 401 (missing credentials) or 403 (wrong credentials).
type AuthorizationError struct {
	Missing bool
}

func (e *AuthorizationError) Error() string {
	if e.Missing {
		return "admin token required"
	}
	return "admin token rejected"
}
