package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrPayeeNotFound            = errors.New("payee not found")
	ErrPayeeAccountNotActive    = errors.New("payee payment account is not active")
	ErrCurrencyUnsupported      = errors.New("currency not supported for payee country")
	ErrPaymentMethodUnsupported = errors.New("payment method not supported")
	ErrAmountBelowMinimum       = errors.New("amount below minimum")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrPaymentNotFound          = errors.New("payment record not found")
	ErrCountryUnsupported       = errors.New("country not supported")
	ErrOnboardingInProgress     = errors.New("onboarding already in progress")
	ErrInvalidRequest           = errors.New("invalid request")
)

// Error is a caller-facing failure. Kind is one of the sentinels above or a
// processor error class, so errors.Is works on it.
type Error struct {
	Kind    error
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, details map[string]any, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Details: details}
}

type validationErr struct {
	field   string
	message string
}

func (e *validationErr) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.message)
}

func (e *validationErr) Unwrap() error {
	return ErrInvalidRequest
}
