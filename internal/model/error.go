package model

import (
	"errors"
	"sort"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string              `json:"error"`
	Message       string              `json:"message"`
	Errors        map[string][]string `json:"errors,omitempty"`
	CorrelationID string              `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound   = "CATEGORY_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// ErrorKind classifies a domain error for the transport layer.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindAuthentication ErrorKind = "authentication"
	KindConflict       ErrorKind = "conflict"
)

// Error is the failure arm of every service call. Fields is only set for
// validation and conflict errors and maps a JSON field name to every rule
// it violated.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors of the same kind and code so sentinel comparisons work
// through errors.Is even when Fields differ.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// FieldNames returns the violating field names in sorted order.
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying the given field violations.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// NewConflictError reports a uniqueness or reference violation detected by the
// database. It renders exactly like a validation error.
func NewConflictError(field, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    ErrCodeConflict,
		Message: "The given data was invalid.",
		Fields:  map[string][]string{field: {message}},
	}
}

// Common domain errors
var (
	ErrUserNotFound       = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrProductNotFound    = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrCategoryNotFound   = NewDomainError(KindNotFound, ErrCodeCategoryNotFound, "Category not found")
	ErrInvalidCredentials = NewDomainError(KindAuthentication, ErrCodeInvalidCredentials, "Invalid credentials")
	ErrUnauthenticated    = NewDomainError(KindAuthentication, ErrCodeUnauthorised, "Unauthenticated")
)

// AsError extracts a domain error from err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsError(err)
	return ok && de.Kind == kind
}
