package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/anyulbade/annotation-payouts/internal/metrics"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

type SignatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type IngestResult struct {
	EventID    string
	Type       string
	Duplicate  bool
	Ignored    bool
	Settlement *SettlementResult
}

// WebhookService authenticates processor webhooks, records each event once
// and routes it to the settlement or account service.
type WebhookService struct {
	verifier   SignatureVerifier
	events     EventStore
	settlement *SettlementService
	accounts   *AccountService
	metrics    *metrics.PayoutMetrics
}

func NewWebhookService(verifier SignatureVerifier, events EventStore, settlement *SettlementService, accounts *AccountService, m *metrics.PayoutMetrics) *WebhookService {
	return &WebhookService{
		verifier:   verifier,
		events:     events,
		settlement: settlement,
		accounts:   accounts,
		metrics:    m,
	}
}

func (s *WebhookService) Ingest(ctx context.Context, payload []byte, headers http.Header) (*IngestResult, error) {
	if err := s.verifier.Verify(payload, headers); err != nil {
		s.metrics.IncWebhookEvent("unknown", "rejected")
		if errors.Is(err, processor.ErrNotConfigured) {
			log.Warn().Msg("webhook received but no signing secret is configured")
			return nil, &Error{Kind: processor.ErrNotConfigured, Message: "webhook signing secret is not configured"}
		}
		log.Warn().Err(err).Msg("webhook signature rejected")
		return nil, &Error{Kind: processor.ErrInvalidSignature, Message: "invalid webhook signature"}
	}

	event, err := processor.ParseEvent(payload)
	if err != nil {
		s.metrics.IncWebhookEvent("unknown", "rejected")
		return nil, &Error{Kind: processor.ErrInvalidPayload, Message: "invalid webhook payload"}
	}

	result := &IngestResult{EventID: event.ID, Type: event.Type}
	logger := log.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	record := &model.ProcessorEvent{
		ID:              event.ID,
		Type:            event.Type,
		PaymentIntentID: intentIDOf(event),
		Payload:         payload,
	}
	inserted, err := s.events.Record(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("record event: %w", err)
	}
	if !inserted {
		existing, err := s.events.FindByID(ctx, event.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load event: %w", err)
		}
		if existing != nil && existing.ProcessedAt != nil {
			s.metrics.IncWebhookEvent(event.Type, "duplicate")
			logger.Info().Msg("webhook event already processed")
			result.Duplicate = true
			return result, nil
		}
		logger.Info().Msg("retrying unprocessed webhook event")
	}

	handled, err := s.dispatch(ctx, event, result)
	if err != nil {
		s.metrics.IncWebhookEvent(event.Type, "error")
		return nil, err
	}
	if !handled {
		result.Ignored = true
	}

	if err := s.events.MarkProcessed(ctx, event.ID); err != nil {
		logger.Error().Err(err).Msg("mark webhook event processed")
	}

	outcome := "processed"
	if result.Ignored {
		outcome = "ignored"
	}
	s.metrics.IncWebhookEvent(event.Type, outcome)
	logger.Debug().Str("outcome", outcome).Msg("webhook event handled")
	return result, nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *processor.Event, result *IngestResult) (bool, error) {
	switch event.Type {
	case processor.EventPaymentIntentSucceeded:
		intent, err := event.PaymentIntent()
		if err != nil {
			return false, &Error{Kind: processor.ErrInvalidPayload, Message: "payment intent missing from event"}
		}
		settlement, err := s.settlement.HandlePaymentSucceeded(ctx, intent.ID, intent.LatestCharge)
		if err != nil {
			return false, err
		}
		result.Settlement = settlement
		return true, nil

	case processor.EventPaymentIntentFailed:
		intent, err := event.PaymentIntent()
		if err != nil {
			return false, &Error{Kind: processor.ErrInvalidPayload, Message: "payment intent missing from event"}
		}
		return true, s.settlement.HandlePaymentFailed(ctx, intent.ID, intent.FailureMessage())

	case processor.EventPaymentIntentCanceled:
		intent, err := event.PaymentIntent()
		if err != nil {
			return false, &Error{Kind: processor.ErrInvalidPayload, Message: "payment intent missing from event"}
		}
		return true, s.settlement.HandlePaymentCanceled(ctx, intent.ID, intent.CancellationReason)

	case processor.EventChargeRefunded:
		charge, err := event.Charge()
		if err != nil {
			return false, &Error{Kind: processor.ErrInvalidPayload, Message: "charge missing from event"}
		}
		if charge.PaymentIntent == "" {
			return false, nil
		}
		fully := charge.Refunded || (charge.Amount > 0 && charge.AmountRefunded >= charge.Amount)
		return true, s.settlement.HandleRefunded(ctx, charge.PaymentIntent, fully)

	case processor.EventAccountUpdated:
		account, err := event.Account()
		if err != nil {
			return false, &Error{Kind: processor.ErrInvalidPayload, Message: "account missing from event"}
		}
		return true, s.accounts.SyncAccount(ctx, account)
	}
	return false, nil
}

func intentIDOf(event *processor.Event) string {
	switch event.Type {
	case processor.EventPaymentIntentSucceeded, processor.EventPaymentIntentFailed, processor.EventPaymentIntentCanceled:
		if intent, err := event.PaymentIntent(); err == nil {
			return intent.ID
		}
	case processor.EventChargeRefunded:
		if charge, err := event.Charge(); err == nil {
			return charge.PaymentIntent
		}
	}
	return ""
}
