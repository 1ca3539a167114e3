package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/anyulbade/annotation-payouts/internal/catalog"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

const DefaultOnboardingLockTTL = 30 * time.Second

type OnboardResult struct {
	AccountID     string
	Country       string
	Status        model.AccountStatus
	OnboardingURL string
	ExpiresAt     time.Time
	Created       bool
}

type AccountStatusResult struct {
	Status              model.AccountStatus
	AccountID           string
	Country             string
	ChargesEnabled      bool
	PayoutsEnabled      bool
	DetailsSubmitted    bool
	CurrentlyDue        []string
	DisabledReason      string
	SupportedCurrencies []string
}

type AccountService struct {
	accounts  PayeeAccountStore
	processor Processor
	locker    Locker
	lockTTL   time.Duration
}

// NewAccountService builds the onboarding service. locker may be nil, in
// which case concurrent onboarding requests are not serialized.
func NewAccountService(accounts PayeeAccountStore, proc Processor, locker Locker, lockTTL time.Duration) *AccountService {
	if lockTTL <= 0 {
		lockTTL = DefaultOnboardingLockTTL
	}
	return &AccountService{
		accounts:  accounts,
		processor: proc,
		locker:    locker,
		lockTTL:   lockTTL,
	}
}

func onboardingLockKey(userID string) string {
	return "payee-onboarding:" + userID
}

// Onboard creates the payee's processor account on first use and returns a
// fresh onboarding link. A payee that already has an account keeps its
// country; country only applies to account creation.
func (s *AccountService) Onboard(ctx context.Context, user *model.User, country, refreshURL, returnURL string) (*OnboardResult, error) {
	if user == nil || user.Role != model.RolePayee {
		return nil, newError(ErrUnauthorized, nil, "only payees can set up payouts")
	}
	if refreshURL == "" || returnURL == "" {
		return nil, &validationErr{field: "return_url", message: "refresh_url and return_url are required"}
	}

	if s.locker != nil {
		key := onboardingLockKey(user.ID)
		token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire onboarding lock: %w", err)
		}
		if !ok {
			return nil, newError(ErrOnboardingInProgress, nil, "onboarding is already in progress for this payee")
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID).Msg("release onboarding lock")
			}
		}()
	}

	account, err := s.accounts.FindByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load payee account: %w", err)
	}

	created := false
	if account == nil {
		account, err = s.createAccount(ctx, user, country)
		if err != nil {
			return nil, err
		}
		created = true
	}

	link, err := s.processor.CreateAccountLink(ctx, processor.AccountLinkParams{
		AccountID:  account.ExternalID,
		RefreshURL: refreshURL,
		ReturnURL:  returnURL,
	})
	if err != nil {
		return nil, processorFailure("create_account_link", err)
	}

	return &OnboardResult{
		AccountID:     account.ExternalID,
		Country:       account.Country,
		Status:        account.Status,
		OnboardingURL: link.URL,
		ExpiresAt:     time.Unix(link.ExpiresAt, 0).UTC(),
		Created:       created,
	}, nil
}

func (s *AccountService) createAccount(ctx context.Context, user *model.User, country string) (*model.PayeeAccount, error) {
	country = catalog.NormalizeCountry(country)
	if !catalog.IsSupportedCountry(country) {
		return nil, newError(ErrCountryUnsupported,
			map[string]any{"supported_countries": catalog.CountryCodes()},
			"payouts are not available in %q", country)
	}

	capabilities := catalog.CapabilitiesFor(country).Names()
	names := make([]string, len(capabilities))
	for i, c := range capabilities {
		names[i] = string(c)
	}

	remote, err := s.processor.CreateAccount(ctx, processor.AccountParams{
		Country:      country,
		Email:        user.Email,
		Capabilities: names,
		Metadata:     map[string]string{"user_id": user.ID},
	})
	if err != nil {
		return nil, processorFailure("create_account", err)
	}

	account := &model.PayeeAccount{
		UserID:           user.ID,
		ExternalID:       remote.ID,
		Country:          country,
		Status:           model.AccountStatusIncomplete,
		ChargesEnabled:   remote.ChargesEnabled,
		PayoutsEnabled:   remote.PayoutsEnabled,
		DetailsSubmitted: remote.DetailsSubmitted,
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		log.Error().Err(err).
			Str("user_id", user.ID).
			Str("account_id", remote.ID).
			Msg("processor account created without a local record")
		return nil, fmt.Errorf("save payee account: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("account_id", remote.ID).
		Str("country", country).
		Strs("capabilities", names).
		Msg("payee account created")
	return account, nil
}

// GetConnectAccountStatus refreshes the payee's account from the processor
// and reports its onboarding state.
func (s *AccountService) GetConnectAccountStatus(ctx context.Context, user *model.User) (*AccountStatusResult, error) {
	if user == nil {
		return nil, newError(ErrUnauthorized, nil, "authentication required")
	}

	account, err := s.accounts.FindByUserID(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &AccountStatusResult{Status: model.AccountStatusNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load payee account: %w", err)
	}

	remote, err := s.processor.RetrieveAccount(ctx, account.ExternalID)
	if err != nil {
		return nil, processorFailure("retrieve_account", err)
	}
	if err := s.apply(ctx, account, remote); err != nil {
		return nil, err
	}

	return &AccountStatusResult{
		Status:              account.Status,
		AccountID:           account.ExternalID,
		Country:             account.Country,
		ChargesEnabled:      account.ChargesEnabled,
		PayoutsEnabled:      account.PayoutsEnabled,
		DetailsSubmitted:    account.DetailsSubmitted,
		CurrentlyDue:        remote.Requirements.CurrentlyDue,
		DisabledReason:      remote.Requirements.DisabledReason,
		SupportedCurrencies: catalog.CurrenciesFor(account.Country),
	}, nil
}

// SyncAccount applies an account snapshot pushed by the processor. Unknown
// accounts are ignored.
func (s *AccountService) SyncAccount(ctx context.Context, remote *processor.Account) error {
	account, err := s.accounts.FindByExternalID(ctx, remote.ID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Debug().Str("account_id", remote.ID).Msg("account update for unknown account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payee account: %w", err)
	}
	return s.apply(ctx, account, remote)
}

func (s *AccountService) apply(ctx context.Context, account *model.PayeeAccount, remote *processor.Account) error {
	status := model.DeriveAccountStatus(remote.DetailsSubmitted, remote.ChargesEnabled, remote.PayoutsEnabled)
	country := catalog.NormalizeCountry(remote.Country)
	if country == "" {
		country = account.Country
	}

	if status == account.Status &&
		country == account.Country &&
		remote.ChargesEnabled == account.ChargesEnabled &&
		remote.PayoutsEnabled == account.PayoutsEnabled &&
		remote.DetailsSubmitted == account.DetailsSubmitted {
		return nil
	}

	previous := account.Status
	account.Status = status
	account.Country = country
	account.ChargesEnabled = remote.ChargesEnabled
	account.PayoutsEnabled = remote.PayoutsEnabled
	account.DetailsSubmitted = remote.DetailsSubmitted
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("save payee account: %w", err)
	}

	log.Info().
		Str("user_id", account.UserID).
		Str("account_id", account.ExternalID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("payee account status updated")
	return nil
}
