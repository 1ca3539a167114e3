package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/anyulbade/annotation-payouts/internal/metrics"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/money"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

type SettlementResult struct {
	Success        bool
	PaymentID      string
	Status         model.PaymentStatus
	TransferID     string
	AlreadySettled bool
	ErrorMessage   string
}

type SettlementService struct {
	payments  PaymentStore
	accounts  PayeeAccountStore
	processor Processor
	metrics   *metrics.PayoutMetrics
}

func NewSettlementService(payments PaymentStore, accounts PayeeAccountStore, proc Processor, m *metrics.PayoutMetrics) *SettlementService {
	return &SettlementService{
		payments:  payments,
		accounts:  accounts,
		processor: proc,
		metrics:   m,
	}
}

// HandlePaymentSucceeded settles the payment for a succeeded intent. Same-country
// payments complete immediately; cross-border payments get a transfer of the
// amount net of the platform fee. sourceCharge, when known, ties the transfer
// to the captured charge.
//
// Only a pending payment is settled. Any later delivery for the same intent
// returns the stored outcome with AlreadySettled set. Lookups that can fail
// run before the claim, so an error leaves the payment pending for the next
// delivery.
func (s *SettlementService) HandlePaymentSucceeded(ctx context.Context, paymentIntentID, sourceCharge string) (*SettlementResult, error) {
	destination, err := s.transferDestination(ctx, paymentIntentID)
	if err != nil {
		s.metrics.IncSettlement(metrics.OutcomeError)
		return nil, err
	}

	payment, claimed, err := s.payments.ClaimPending(ctx, paymentIntentID)
	if err != nil {
		s.metrics.IncSettlement(metrics.OutcomeError)
		return nil, fmt.Errorf("claim payment: %w", err)
	}
	if !claimed {
		return s.alreadySettled(ctx, paymentIntentID)
	}

	logger := log.With().
		Str("payment_id", payment.ID).
		Str("payment_intent_id", paymentIntentID).
		Bool("cross_border", payment.CrossBorderPayment).
		Logger()

	if !payment.CrossBorderPayment {
		if err := s.payments.Transition(ctx, payment.ID, model.PaymentStatusProcessing, model.PaymentStatusCompleted, repository.TransitionUpdate{}); err != nil {
			s.metrics.IncSettlement(metrics.OutcomeError)
			return nil, fmt.Errorf("complete payment: %w", err)
		}
		s.metrics.IncSettlement(metrics.OutcomeCompleted)
		logger.Info().Msg("payment settled")
		return &SettlementResult{Success: true, PaymentID: payment.ID, Status: model.PaymentStatusCompleted}, nil
	}

	if destination == "" {
		return s.failTransfer(ctx, payment, "payee has no connected payment account for the cross-border transfer")
	}

	amountMinor := money.ToMinorUnits(payment.Amount, payment.Currency)
	feeMinor := money.ToMinorUnits(payment.PlatformFee, payment.Currency)
	transfer, err := s.processor.CreateTransfer(ctx, processor.TransferParams{
		Amount:            amountMinor - feeMinor,
		Currency:          payment.Currency,
		Destination:       destination,
		SourceTransaction: sourceCharge,
		Metadata: map[string]string{
			"payment_id":         payment.ID,
			"payment_intent_id":  paymentIntentID,
			"original_amount":    strconv.FormatInt(amountMinor, 10),
			"platform_fee":       strconv.FormatInt(feeMinor, 10),
			"amount_major_units": money.Format(payment.Amount, payment.Currency),
		},
		IdempotencyKey: "transfer:" + payment.ID,
	})
	if err != nil {
		logger.Error().Err(err).Str("destination", destination).Msg("cross-border transfer failed")
		return s.failTransfer(ctx, payment, transferFailureMessage(err))
	}

	if err := s.payments.Transition(ctx, payment.ID, model.PaymentStatusProcessing, model.PaymentStatusCompleted, repository.TransitionUpdate{
		TransferID: &transfer.ID,
	}); err != nil {
		logger.Error().Err(err).Str("transfer_id", transfer.ID).Msg("transfer created but payment not updated")
		s.metrics.IncSettlement(metrics.OutcomeError)
		return nil, fmt.Errorf("complete payment: %w", err)
	}

	s.metrics.IncSettlement(metrics.OutcomeCompleted)
	logger.Info().
		Str("transfer_id", transfer.ID).
		Int64("transfer_amount_minor", transfer.Amount).
		Msg("payment settled with transfer")
	return &SettlementResult{
		Success:    true,
		PaymentID:  payment.ID,
		Status:     model.PaymentStatusCompleted,
		TransferID: transfer.ID,
	}, nil
}

func (s *SettlementService) alreadySettled(ctx context.Context, paymentIntentID string) (*SettlementResult, error) {
	existing, err := s.payments.FindByIntentID(ctx, paymentIntentID)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.IncSettlement(metrics.OutcomeNotFound)
		log.Warn().Str("payment_intent_id", paymentIntentID).Msg("no payment record for succeeded intent")
		return nil, newError(ErrPaymentNotFound, map[string]any{"payment_intent_id": paymentIntentID},
			"no payment record for payment intent %s", paymentIntentID)
	}
	if err != nil {
		s.metrics.IncSettlement(metrics.OutcomeError)
		return nil, fmt.Errorf("load payment: %w", err)
	}

	s.metrics.IncSettlement(metrics.OutcomeAlreadySettled)
	log.Info().
		Str("payment_id", existing.ID).
		Str("payment_intent_id", paymentIntentID).
		Str("status", string(existing.Status)).
		Msg("payment already settled, skipping")

	result := &SettlementResult{
		Success:        true,
		PaymentID:      existing.ID,
		Status:         existing.Status,
		AlreadySettled: true,
	}
	if existing.TransferID != nil {
		result.TransferID = *existing.TransferID
	}
	if existing.ErrorMessage != nil {
		result.ErrorMessage = *existing.ErrorMessage
	}
	return result, nil
}

// transferDestination returns the payee's connected account for a pending
// cross-border payment, or "" when there is nothing to transfer to.
func (s *SettlementService) transferDestination(ctx context.Context, paymentIntentID string) (string, error) {
	payment, err := s.payments.FindByIntentID(ctx, paymentIntentID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load payment: %w", err)
	}
	if payment.Status != model.PaymentStatusPending || !payment.CrossBorderPayment {
		return "", nil
	}
	return s.currentAccountID(ctx, payment.PayeeID)
}

func (s *SettlementService) currentAccountID(ctx context.Context, payeeID string) (string, error) {
	account, err := s.accounts.FindByUserID(ctx, payeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load payee account: %w", err)
	}
	return account.ExternalID, nil
}

func (s *SettlementService) failTransfer(ctx context.Context, payment *model.Payment, message string) (*SettlementResult, error) {
	err := s.payments.Transition(ctx, payment.ID, model.PaymentStatusProcessing, model.PaymentStatusTransferFailed, repository.TransitionUpdate{
		ErrorMessage: &message,
	})
	if err != nil {
		s.metrics.IncSettlement(metrics.OutcomeError)
		return nil, fmt.Errorf("mark transfer failed: %w", err)
	}

	s.metrics.IncSettlement(metrics.OutcomeTransferFailed)
	log.Error().
		Str("payment_id", payment.ID).
		Str("payment_intent_id", payment.PaymentIntentID).
		Str("error_message", message).
		Msg("payment needs manual follow-up: transfer failed")
	return &SettlementResult{
		Success:      false,
		PaymentID:    payment.ID,
		Status:       model.PaymentStatusTransferFailed,
		ErrorMessage: message,
	}, nil
}

func transferFailureMessage(err error) string {
	var apiErr *processor.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// HandlePaymentFailed keeps the latest failure reason on a pending payment.
// The payer may still retry the same intent, so the status is unchanged.
func (s *SettlementService) HandlePaymentFailed(ctx context.Context, paymentIntentID, message string) error {
	payment, err := s.findByIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if payment.Status != model.PaymentStatusPending {
		log.Info().Str("payment_id", payment.ID).Str("status", string(payment.Status)).Msg("ignoring failure for non-pending payment")
		return nil
	}
	if err := s.payments.RecordError(ctx, payment.ID, model.PaymentStatusPending, message); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil
		}
		return fmt.Errorf("record payment failure: %w", err)
	}
	log.Warn().Str("payment_id", payment.ID).Str("error_message", message).Msg("payment attempt failed")
	return nil
}

// HandlePaymentCanceled moves a pending payment to failed once its intent
// can no longer succeed.
func (s *SettlementService) HandlePaymentCanceled(ctx context.Context, paymentIntentID, reason string) error {
	payment, err := s.findByIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if payment.Status != model.PaymentStatusPending {
		return nil
	}

	message := "payment intent canceled"
	if reason != "" {
		message += ": " + reason
	}
	err = s.payments.Transition(ctx, payment.ID, model.PaymentStatusPending, model.PaymentStatusFailed, repository.TransitionUpdate{
		ErrorMessage: &message,
	})
	if err != nil && !errors.Is(err, repository.ErrStaleStatus) {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	log.Warn().Str("payment_id", payment.ID).Str("error_message", message).Msg("payment failed")
	return nil
}

// HandleRefunded marks a completed payment refunded once the charge is fully refunded.
func (s *SettlementService) HandleRefunded(ctx context.Context, paymentIntentID string, fullyRefunded bool) error {
	payment, err := s.findByIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if !fullyRefunded || payment.Status != model.PaymentStatusCompleted {
		log.Info().
			Str("payment_id", payment.ID).
			Str("status", string(payment.Status)).
			Bool("fully_refunded", fullyRefunded).
			Msg("refund does not change payment status")
		return nil
	}

	err = s.payments.Transition(ctx, payment.ID, model.PaymentStatusCompleted, model.PaymentStatusRefunded, repository.TransitionUpdate{})
	if err != nil && !errors.Is(err, repository.ErrStaleStatus) {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	log.Info().Str("payment_id", payment.ID).Msg("payment refunded")
	return nil
}

func (s *SettlementService) findByIntent(ctx context.Context, paymentIntentID string) (*model.Payment, error) {
	payment, err := s.payments.FindByIntentID(ctx, paymentIntentID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("payment_intent_id", paymentIntentID).Msg("no payment record for intent")
		return nil, newError(ErrPaymentNotFound, map[string]any{"payment_intent_id": paymentIntentID},
			"no payment record for payment intent %s", paymentIntentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return payment, nil
}
