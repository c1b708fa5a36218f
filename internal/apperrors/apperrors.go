// Package apperrors defines the error taxonomy shared by services, adapters
// and handlers. Every failure the API can surface is one of these codes, so
// handlers map errors to HTTP responses in a single place instead of matching
// on error strings.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodePriceMismatch     Code = "PRICE_MISMATCH"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeInvalidSignature  Code = "INVALID_SIGNATURE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeGatewayDown       Code = "GATEWAY_UNAVAILABLE"
	CodeRefundFailed      Code = "REFUND_FAILED"
	CodeUnserviceable     Code = "UNSERVICEABLE_DESTINATION"
	CodeShipmentBooking   Code = "SHIPMENT_BOOKING_FAILED"
	CodeInternal          Code = "INTERNAL"
)

// Error carries the failure class, the HTTP status to respond with, a
// client-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, status int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

// Validation reports missing or malformed input (400).
func Validation(format string, args ...interface{}) *Error {
	return newError(CodeValidation, 400, format, args...)
}

// NotFound reports a missing order, address or product (404).
func NotFound(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, 404, format, args...)
}

// Forbidden reports an authorization failure (403).
func Forbidden(format string, args ...interface{}) *Error {
	return newError(CodeForbidden, 403, format, args...)
}

// PriceMismatch reports a client-supplied total outside tolerance (400).
func PriceMismatch(format string, args ...interface{}) *Error {
	return newError(CodePriceMismatch, 400, format, args...)
}

// InsufficientStock reports a stock shortfall for the named product (400).
func InsufficientStock(productName string) *Error {
	return newError(CodeInsufficientStock, 400, "not enough stock for %q", productName)
}

// InvalidSignature reports a failed payment signature check (400).
func InvalidSignature(format string, args ...interface{}) *Error {
	return newError(CodeInvalidSignature, 400, format, args...)
}

// InvalidTransition reports an order already in a terminal state (400).
func InvalidTransition(format string, args ...interface{}) *Error {
	return newError(CodeInvalidTransition, 400, format, args...)
}

// GatewayUnavailable reports a payment gateway outage (502).
func GatewayUnavailable(err error) *Error {
	return &Error{Code: CodeGatewayDown, Status: 502, Message: "payment gateway unavailable", Err: err}
}

// RefundFailed reports a refund the gateway rejected (502).
func RefundFailed(err error) *Error {
	return &Error{Code: CodeRefundFailed, Status: 502, Message: "refund failed", Err: err}
}

// Unserviceable reports a destination the courier cannot quote (502).
func Unserviceable(postalCode string) *Error {
	return newError(CodeUnserviceable, 502, "courier cannot service postal code %s", postalCode)
}

// ShipmentBookingFailed reports a courier booking failure (502).
func ShipmentBookingFailed(err error) *Error {
	return &Error{Code: CodeShipmentBooking, Status: 502, Message: "shipment booking failed", Err: err}
}

// Internal wraps an unexpected failure without leaking detail to clients (500).
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: 500, Message: "internal server error", Err: err}
}

// From extracts the *Error from err's chain, or wraps err as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
