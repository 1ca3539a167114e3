package service

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/anyulbade/annotation-payouts/internal/processor"
)

var ErrProcessorRejected = errors.New("payment processor rejected the request")

var processorKinds = []error{
	processor.ErrNotConfigured,
	processor.ErrProcessorUnavailable,
	processor.ErrInvalidAddress,
	processor.ErrTransfersNotAllowed,
	processor.ErrCrossBorderRestricted,
}

// processorFailure turns a processor error into a caller-facing *Error with
// a remediation hint. op names the call for the log line.
func processorFailure(op string, err error) error {
	err = processor.Classify(err)

	kind := ErrProcessorRejected
	for _, k := range processorKinds {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}

	details := map[string]any{}
	var apiErr *processor.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			details["processor_message"] = apiErr.Message
		}
		if apiErr.Code != "" {
			details["processor_code"] = apiErr.Code
		}
	}
	if hint := processor.Remediation(err); hint != "" {
		details["remediation"] = hint
	}

	switch {
	case processor.IsConfigurationError(err), errors.Is(err, processor.ErrNotConfigured):
		log.Warn().Err(err).Str("op", op).Msg("processor configuration error")
	default:
		log.Error().Err(err).Str("op", op).Msg("processor call failed")
	}

	if len(details) == 0 {
		details = nil
	}
	return &Error{Kind: kind, Message: kind.Error(), Details: details}
}
