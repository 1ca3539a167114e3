package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/anyulbade/annotation-payouts/internal/catalog"
	"github.com/anyulbade/annotation-payouts/internal/metrics"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/money"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

const maxDescriptionLength = 500

// PaymentConfig holds the platform-level routing settings.
type PaymentConfig struct {
	PlatformCountry string
	FeeRate         decimal.Decimal
}

type CreatePaymentIntentInput struct {
	PayeeID       string
	ProjectID     *string
	Amount        decimal.Decimal
	Description   string
	Currency      string
	PaymentMethod string
}

type PaymentIntentResult struct {
	ClientSecret    string
	PaymentID       string
	PaymentIntentID string
	Amount          decimal.Decimal
	PlatformFee     decimal.Decimal
	Currency        string
	CrossBorder     bool
}

type PaymentService struct {
	users     UserStore
	accounts  PayeeAccountStore
	payments  PaymentStore
	processor Processor
	metrics   *metrics.PayoutMetrics
	cfg       PaymentConfig
	newID     func() string
}

func NewPaymentService(users UserStore, accounts PayeeAccountStore, payments PaymentStore, proc Processor, m *metrics.PayoutMetrics, cfg PaymentConfig) *PaymentService {
	cfg.PlatformCountry = catalog.NormalizeCountry(cfg.PlatformCountry)
	return &PaymentService{
		users:     users,
		accounts:  accounts,
		payments:  payments,
		processor: proc,
		metrics:   m,
		cfg:       cfg,
		newID:     uuid.NewString,
	}
}

// CreatePaymentIntent validates a payment from caller to a payee, asks the
// processor for a payment intent routed for the payee's country, and stores
// the pending payment record.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, caller *model.User, in CreatePaymentIntentInput) (*PaymentIntentResult, error) {
	if caller == nil || caller.Role != model.RolePayer {
		return nil, s.reject(newError(ErrUnauthorized, nil, "only payers can create payments"))
	}
	if err := validateIntentInput(in); err != nil {
		return nil, s.reject(err)
	}

	account, err := s.activePayeeAccount(ctx, in.PayeeID)
	if err != nil {
		return nil, s.reject(err)
	}

	payeeCountry, err := s.resolvePayeeCountry(ctx, account)
	if err != nil {
		return nil, err
	}

	currency := money.Normalize(in.Currency)
	if !catalog.IsSupported(payeeCountry, currency) {
		supported := catalog.CurrenciesFor(payeeCountry)
		return nil, s.reject(newError(ErrCurrencyUnsupported,
			map[string]any{"supported_currencies": supported, "payee_country": payeeCountry},
			"currency %q is not supported for payees in %s; supported: %s",
			currency, payeeCountry, strings.Join(supported, ", ")))
	}

	method := catalog.ParseMethod(in.PaymentMethod)
	if method == "" {
		method = catalog.MethodCard
	}
	if !catalog.MethodAvailable(s.cfg.PlatformCountry, method) {
		return nil, s.reject(newError(ErrPaymentMethodUnsupported,
			map[string]any{"supported_methods": catalog.MethodsFor(s.cfg.PlatformCountry)},
			"payment method %q is not available", method))
	}

	if !in.Amount.IsPositive() {
		return nil, s.reject(newError(ErrInvalidAmount, nil, "amount must be greater than zero"))
	}
	amountMinor, err := money.MinorUnits(in.Amount, currency)
	if err != nil {
		return nil, s.reject(newError(ErrInvalidAmount, nil, "amount %s is too large", in.Amount))
	}
	feeMinor := money.FeeMinorUnits(amountMinor, s.cfg.FeeRate)

	if minimum := catalog.MinimumCharge(currency); amountMinor < minimum {
		minMajor := money.Format(money.ToMajorUnits(minimum, currency), currency)
		return nil, s.reject(newError(ErrAmountBelowMinimum,
			map[string]any{"minimum_amount": minMajor, "currency": currency},
			"amount must be at least %s %s", minMajor, strings.ToUpper(currency)))
	}

	crossBorder := catalog.NeedsCrossBorder(payeeCountry, s.cfg.PlatformCountry)

	payment := &model.Payment{
		ID:                 s.newID(),
		PayerID:            caller.ID,
		PayeeID:            account.UserID,
		ProjectID:          in.ProjectID,
		Amount:             money.ToMajorUnits(amountMinor, currency),
		Currency:           currency,
		Description:        in.Description,
		PaymentMethod:      string(method),
		PlatformFee:        money.ToMajorUnits(feeMinor, currency),
		Status:             model.PaymentStatusPending,
		PayeeCountry:       payeeCountry,
		CrossBorderPayment: crossBorder,
	}

	route := metrics.RouteSameCountry
	if crossBorder {
		route = metrics.RouteCrossBorder
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, s.intentParams(payment, account.ExternalID, amountMinor, feeMinor, ""))
	if err != nil && !crossBorder && errors.Is(processor.Classify(err), processor.ErrCrossBorderRestricted) {
		log.Warn().Err(err).
			Str("payment_id", payment.ID).
			Str("payee_country", payeeCountry).
			Msg("destination charge rejected, retrying with on_behalf_of")
		payment.CrossBorderPayment = true
		route = metrics.RouteFallback
		intent, err = s.processor.CreatePaymentIntent(ctx, s.intentParams(payment, account.ExternalID, amountMinor, feeMinor, ":on_behalf_of"))
	}
	if err != nil {
		s.metrics.IncIntentRejected("processor")
		return nil, processorFailure("create_payment_intent", err)
	}

	payment.PaymentIntentID = intent.ID
	if err := s.payments.Insert(ctx, payment); err != nil {
		s.metrics.IncOrphanedIntent()
		log.Error().Err(err).
			Str("payment_id", payment.ID).
			Str("payment_intent_id", intent.ID).
			Str("payer_id", payment.PayerID).
			Str("payee_id", payment.PayeeID).
			Msg("payment intent created without a local record")
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	s.metrics.IncIntentCreated(route, currency)
	log.Info().
		Str("payment_id", payment.ID).
		Str("payment_intent_id", intent.ID).
		Str("route", route).
		Str("currency", currency).
		Int64("amount_minor", amountMinor).
		Msg("payment intent created")

	return &PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentID:       payment.ID,
		PaymentIntentID: intent.ID,
		Amount:          payment.Amount,
		PlatformFee:     payment.PlatformFee,
		Currency:        currency,
		CrossBorder:     payment.CrossBorderPayment,
	}, nil
}

func validateIntentInput(in CreatePaymentIntentInput) error {
	if strings.TrimSpace(in.PayeeID) == "" {
		return &validationErr{field: "payee_id", message: "is required"}
	}
	if strings.TrimSpace(in.Currency) == "" {
		return &validationErr{field: "currency", message: "is required"}
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return &validationErr{field: "description", message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	return nil
}

func (s *PaymentService) activePayeeAccount(ctx context.Context, payeeID string) (*model.PayeeAccount, error) {
	payee, err := s.users.FindByID(ctx, payeeID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && payee.Role != model.RolePayee) {
		return nil, newError(ErrPayeeNotFound, nil, "payee %s not found", payeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load payee: %w", err)
	}

	account, err := s.accounts.FindByUserID(ctx, payee.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrPayeeAccountNotActive,
			map[string]any{"status": model.AccountStatusNone},
			"payee has not set up a payment account")
	}
	if err != nil {
		return nil, fmt.Errorf("load payee account: %w", err)
	}
	if account.Status != model.AccountStatusActive {
		return nil, newError(ErrPayeeAccountNotActive,
			map[string]any{"status": account.Status},
			"payee payment account is %s; ask the payee to complete onboarding", account.Status)
	}
	return account, nil
}

// resolvePayeeCountry reads the country from the processor account and
// refreshes the local snapshot when it drifted.
func (s *PaymentService) resolvePayeeCountry(ctx context.Context, account *model.PayeeAccount) (string, error) {
	remote, err := s.processor.RetrieveAccount(ctx, account.ExternalID)
	if err != nil {
		s.metrics.IncIntentRejected("processor")
		return "", processorFailure("retrieve_account", err)
	}

	country := catalog.NormalizeCountry(remote.Country)
	if country == "" {
		return catalog.NormalizeCountry(account.Country), nil
	}
	if country != catalog.NormalizeCountry(account.Country) {
		log.Warn().
			Str("user_id", account.UserID).
			Str("stored_country", account.Country).
			Str("processor_country", country).
			Msg("payee account country drifted from processor")
		account.Country = country
		if err := s.accounts.Save(ctx, account); err != nil {
			log.Error().Err(err).Str("user_id", account.UserID).Msg("refresh payee account snapshot")
		}
	}
	return country, nil
}

func (s *PaymentService) intentParams(p *model.Payment, destination string, amountMinor, feeMinor int64, keySuffix string) processor.PaymentIntentParams {
	params := processor.PaymentIntentParams{
		Amount:             amountMinor,
		Currency:           p.Currency,
		PaymentMethodTypes: []string{p.PaymentMethod},
		Description:        p.Description,
		Metadata: map[string]string{
			"payment_id":         p.ID,
			"payer_id":           p.PayerID,
			"payee_id":           p.PayeeID,
			"platform_fee":       strconv.FormatInt(feeMinor, 10),
			"cross_border":       strconv.FormatBool(p.CrossBorderPayment),
			"payee_country":      p.PayeeCountry,
			"amount_major_units": money.Format(p.Amount, p.Currency),
		},
		IdempotencyKey: "payment:" + p.ID + keySuffix,
	}
	if p.ProjectID != nil {
		params.Metadata["project_id"] = *p.ProjectID
	}

	if p.CrossBorderPayment {
		params.OnBehalfOf = destination
	} else {
		fee := feeMinor
		params.ApplicationFeeAmount = &fee
		params.TransferDestination = destination
	}
	return params
}

var rejectReasons = map[error]string{
	ErrUnauthorized:             "unauthorized",
	ErrPayeeNotFound:            "payee_not_found",
	ErrPayeeAccountNotActive:    "payee_account_not_active",
	ErrCurrencyUnsupported:      "currency_unsupported",
	ErrPaymentMethodUnsupported: "payment_method_unsupported",
	ErrInvalidAmount:            "invalid_amount",
	ErrAmountBelowMinimum:       "amount_below_minimum",
}

// reject counts a validation failure and logs it at debug level.
func (s *PaymentService) reject(err error) error {
	var reason string
	var svcErr *Error
	var vErr *validationErr
	switch {
	case errors.As(err, &svcErr):
		reason = rejectReasons[svcErr.Kind]
	case errors.As(err, &vErr):
		reason = "validation"
	default:
		return err
	}
	s.metrics.IncIntentRejected(reason)
	log.Debug().Err(err).Str("reason", reason).Msg("payment intent rejected")
	return err
}
