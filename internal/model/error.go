package model

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string            `json:"error"`
	Message       string            `json:"message"`
	Fields        map[string]string `json:"fields,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	ErrCodeInvalidOrderState   = "INVALID_ORDER_STATE"
	ErrCodeCategoryExists      = "CATEGORY_EXISTS"
	ErrCodeInvalidSpecialPrice = "INVALID_SPECIAL_PRICE"
	ErrCodeInvalidFile         = "INVALID_FILE"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeGateway             = "GATEWAY_ERROR"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a stable code. Two domain
// errors are considered equal by errors.Is when their codes match, so a
// message built at the point of detection still matches the sentinel.
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError builds a VALIDATION_FAILED error from per-field messages.
func NewValidationError(fields map[string]string) *DomainError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return &DomainError{
		Code:    ErrCodeValidationFailed,
		Message: "validation failed: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

// NotFound builds a not-found error for the given resource lookup.
func NotFound(code, resource, field string, value any) *DomainError {
	return NewDomainError(code, fmt.Sprintf("%s not found with %s: %v", resource, field, value))
}

// Common domain errors
var (
	ErrResourceNotFound    = NewDomainError(ErrCodeResourceNotFound, "resource not found")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "product not found")
	ErrCategoryNotFound    = NewDomainError(ErrCodeCategoryNotFound, "category not found")
	ErrAddressNotFound     = NewDomainError(ErrCodeAddressNotFound, "address not found")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "order not found")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "insufficient stock")
	ErrOutOfStock          = NewDomainError(ErrCodeOutOfStock, "product out of stock")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Cannot proceed to checkout with an empty cart.")
	ErrProductUnavailable  = NewDomainError(ErrCodeProductUnavailable, "product is no longer available")
	ErrInvalidOrderState   = NewDomainError(ErrCodeInvalidOrderState, "order is not awaiting payment")
	ErrCategoryExists      = NewDomainError(ErrCodeCategoryExists, "category already exists")
	ErrInvalidSpecialPrice = NewDomainError(ErrCodeInvalidSpecialPrice, "Special price must be less than the regular price.")
	ErrInvalidFile         = NewDomainError(ErrCodeInvalidFile, "invalid file name")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrValidation          = NewDomainError(ErrCodeValidationFailed, "validation failed")
	ErrGateway             = NewDomainError(ErrCodeGateway, "payment provider unavailable, try again")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "authentication required")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "resource belongs to another user")
)
