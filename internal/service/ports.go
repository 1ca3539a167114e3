package service

import (
	"context"
	"time"

	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type PayeeAccountStore interface {
	FindByUserID(ctx context.Context, userID string) (*model.PayeeAccount, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.PayeeAccount, error)
	Save(ctx context.Context, account *model.PayeeAccount) error
}

type PaymentStore interface {
	Insert(ctx context.Context, p *model.Payment) error
	FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
	ClaimPending(ctx context.Context, intentID string) (*model.Payment, bool, error)
	Transition(ctx context.Context, id string, from, to model.PaymentStatus, upd repository.TransitionUpdate) error
	RecordError(ctx context.Context, id string, status model.PaymentStatus, message string) error
	List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error)
	Count(ctx context.Context, f repository.PaymentFilter) (int, error)
}

type EventStore interface {
	Record(ctx context.Context, e *model.ProcessorEvent) (bool, error)
	FindByID(ctx context.Context, id string) (*model.ProcessorEvent, error)
	MarkProcessed(ctx context.Context, id string) error
}

// Processor is the subset of the payment processor API the services call.
type Processor interface {
	RetrieveAccount(ctx context.Context, accountID string) (*processor.Account, error)
	CreateAccount(ctx context.Context, params processor.AccountParams) (*processor.Account, error)
	CreateAccountLink(ctx context.Context, params processor.AccountLinkParams) (*processor.AccountLink, error)
	CreatePaymentIntent(ctx context.Context, params processor.PaymentIntentParams) (*processor.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params processor.TransferParams) (*processor.Transfer, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}
