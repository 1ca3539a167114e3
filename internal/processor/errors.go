package processor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrNotConfigured         = errors.New("payment processor is not configured")
	ErrProcessorUnavailable  = errors.New("payment processor unavailable")
	ErrInvalidAddress        = errors.New("payee account has an invalid address on file")
	ErrTransfersNotAllowed   = errors.New("transfers are not allowed between these accounts")
	ErrCrossBorderRestricted = errors.New("destination or cross-border restriction")
	ErrInvalidResponse       = errors.New("invalid payment processor response")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidPayload        = errors.New("invalid webhook payload")
)

// APIError is an error response returned by the processor.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Param      string `json:"param"`
	kind       error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("processor error (%d %s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("processor error (%d): %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, apiErr APIError) *APIError {
	apiErr.StatusCode = status
	apiErr.kind = classifyAPIError(&apiErr)
	return &apiErr
}

func classifyAPIError(e *APIError) error {
	if e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests {
		return ErrProcessorUnavailable
	}

	code := strings.ToLower(e.Code)
	msg := strings.ToLower(e.Message)
	param := strings.ToLower(e.Param)

	switch {
	case strings.Contains(msg, "address") || strings.Contains(param, "address"):
		return ErrInvalidAddress
	case code == "transfers_not_allowed",
		strings.Contains(msg, "transfers") && (strings.Contains(msg, "not allowed") ||
			strings.Contains(msg, "capability") || strings.Contains(msg, "cannot")):
		return ErrTransfersNotAllowed
	case strings.Contains(msg, "on_behalf_of"), strings.Contains(msg, "cross-border"),
		strings.Contains(msg, "cross border"), strings.Contains(param, "destination"),
		strings.Contains(msg, "destination"):
		return ErrCrossBorderRestricted
	}
	return nil
}

// Classify normalizes transport failures to ErrProcessorUnavailable. API
// errors are returned unchanged since they already unwrap to their class.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrInvalidResponse) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrProcessorUnavailable, err)
	}
	return err
}

// Remediation returns an operator-facing hint for configuration errors, or
// an empty string when none applies.
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return "ask the payee to update their address in payout onboarding"
	case errors.Is(err, ErrTransfersNotAllowed):
		return "ask the payee to complete onboarding so transfers are enabled"
	case errors.Is(err, ErrCrossBorderRestricted):
		return "the payee's country cannot receive this payment directly; ask the payee to complete onboarding or use a supported currency"
	case errors.Is(err, ErrProcessorUnavailable):
		return "the payment processor is temporarily unavailable; try again later"
	}
	return ""
}

// IsConfigurationError reports whether err points at a misconfigured account
// rather than a transient fault.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrTransfersNotAllowed) ||
		errors.Is(err, ErrCrossBorderRestricted)
}
