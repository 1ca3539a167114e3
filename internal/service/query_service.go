package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/anyulbade/annotation-payouts/internal/catalog"
	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PaymentsPage struct {
	Payments []*model.Payment
	Total    int
	Limit    int
	Offset   int
}

type CountriesInfo struct {
	PlatformCountry string
	PlatformMethods []catalog.PaymentMethod
	Countries       []catalog.CountryInfo
}

type QueryService struct {
	payments        PaymentStore
	platformCountry string
}

func NewQueryService(payments PaymentStore, platformCountry string) *QueryService {
	return &QueryService{payments: payments, platformCountry: catalog.NormalizeCountry(platformCountry)}
}

// GetMyPayments lists the caller's payments, newest first. Payers see what
// they paid, payees what they received.
func (s *QueryService) GetMyPayments(ctx context.Context, user *model.User, status string, limit, offset int) (*PaymentsPage, error) {
	if user == nil || (user.Role != model.RolePayer && user.Role != model.RolePayee) {
		return nil, newError(ErrUnauthorized, nil, "only payers and payees have payments")
	}
	if status != "" {
		if _, ok := model.ParsePaymentStatus(status); !ok {
			return nil, &validationErr{field: "status", message: fmt.Sprintf("unknown payment status %q", status)}
		}
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := repository.PaymentFilter{
		UserID:  user.ID,
		AsPayer: user.Role == model.RolePayer,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	}

	var (
		payments []*model.Payment
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.payments.List(gctx, filter)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.payments.Count(gctx, filter)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if payments == nil {
		payments = []*model.Payment{}
	}
	return &PaymentsPage{Payments: payments, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *QueryService) GetSupportedCountriesInfo() *CountriesInfo {
	return &CountriesInfo{
		PlatformCountry: s.platformCountry,
		PlatformMethods: catalog.MethodsFor(s.platformCountry),
		Countries:       catalog.SupportedCountries(),
	}
}
