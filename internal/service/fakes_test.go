package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
)

type fakeUsers struct {
	users map[string]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*model.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.PayeeAccount
	saves    int
	saveErr  error
}

func newFakeAccounts(accounts ...*model.PayeeAccount) *fakeAccounts {
	f := &fakeAccounts{accounts: map[string]*model.PayeeAccount{}}
	for _, a := range accounts {
		f.accounts[a.UserID] = a
	}
	return f
}

func (f *fakeAccounts) FindByUserID(_ context.Context, userID string) (*model.PayeeAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) FindByExternalID(_ context.Context, externalID string) (*model.PayeeAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ExternalID == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccounts) Save(_ context.Context, a *model.PayeeAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	cp := *a
	f.accounts[a.UserID] = &cp
	return nil
}

type fakePayments struct {
	mu        sync.Mutex
	byIntent  map[string]*model.Payment
	insertErr error
	listErr   error
}

func newFakePayments(payments ...*model.Payment) *fakePayments {
	f := &fakePayments{byIntent: map[string]*model.Payment{}}
	for _, p := range payments {
		f.byIntent[p.PaymentIntentID] = p
	}
	return f
}

func (f *fakePayments) get(intentID string) *model.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byIntent[intentID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (f *fakePayments) Insert(_ context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, exists := f.byIntent[p.PaymentIntentID]; exists {
		return repository.ErrConflict
	}
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byIntent[p.PaymentIntentID] = &cp
	return nil
}

func (f *fakePayments) FindByIntentID(_ context.Context, intentID string) (*model.Payment, error) {
	p := f.get(intentID)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) ClaimPending(_ context.Context, intentID string) (*model.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byIntent[intentID]
	if !ok || p.Status != model.PaymentStatusPending {
		return nil, false, nil
	}
	p.Status = model.PaymentStatusProcessing
	cp := *p
	return &cp, true, nil
}

func (f *fakePayments) Transition(_ context.Context, id string, from, to model.PaymentStatus, upd repository.TransitionUpdate) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, from, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byIntent {
		if p.ID != id {
			continue
		}
		if p.Status != from {
			return repository.ErrStaleStatus
		}
		p.Status = to
		if upd.TransferID != nil {
			p.TransferID = upd.TransferID
		}
		if upd.ErrorMessage != nil {
			p.ErrorMessage = upd.ErrorMessage
		}
		return nil
	}
	return repository.ErrStaleStatus
}

func (f *fakePayments) RecordError(_ context.Context, id string, status model.PaymentStatus, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byIntent {
		if p.ID == id && p.Status == status {
			p.ErrorMessage = &message
			return nil
		}
	}
	return repository.ErrStaleStatus
}

func (f *fakePayments) filtered(flt repository.PaymentFilter) []*model.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Payment
	for _, p := range f.byIntent {
		owner := p.PayeeID
		if flt.AsPayer {
			owner = p.PayerID
		}
		if owner != flt.UserID || (flt.Status != "" && string(p.Status) != flt.Status) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePayments) List(_ context.Context, flt repository.PaymentFilter) ([]*model.Payment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.filtered(flt)
	if flt.Offset >= len(all) {
		return nil, nil
	}
	end := flt.Offset + flt.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[flt.Offset:end], nil
}

func (f *fakePayments) Count(_ context.Context, flt repository.PaymentFilter) (int, error) {
	return len(f.filtered(flt)), nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[string]*model.ProcessorEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: map[string]*model.ProcessorEvent{}}
}

func (f *fakeEvents) Record(_ context.Context, e *model.ProcessorEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.ID]; ok {
		return false, nil
	}
	cp := *e
	cp.ReceivedAt = time.Now()
	f.events[e.ID] = &cp
	return true, nil
}

func (f *fakeEvents) FindByID(_ context.Context, id string) (*model.ProcessorEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) MarkProcessed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	e.ProcessedAt = &now
	return nil
}

// fakeProcessor records every request. Errors can be queued per call.
type fakeProcessor struct {
	mu sync.Mutex

	accounts     map[string]*processor.Account
	intentErrs   []error
	transferErr  error
	retrieveErr  error
	createAccErr error

	intentCalls   []processor.PaymentIntentParams
	transferCalls []processor.TransferParams
	accountCalls  []processor.AccountParams
	linkCalls     []processor.AccountLinkParams
}

func newFakeProcessor(accounts ...*processor.Account) *fakeProcessor {
	f := &fakeProcessor{accounts: map[string]*processor.Account{}}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeProcessor) RetrieveAccount(_ context.Context, accountID string) (*processor.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, &processor.APIError{StatusCode: http.StatusNotFound, Message: "No such account"}
	}
	cp := *a
	return &cp, nil
}

func (f *fakeProcessor) CreateAccount(_ context.Context, params processor.AccountParams) (*processor.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountCalls = append(f.accountCalls, params)
	if f.createAccErr != nil {
		return nil, f.createAccErr
	}
	a := &processor.Account{ID: fmt.Sprintf("acct_%d", len(f.accountCalls)), Country: params.Country, Email: params.Email}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeProcessor) CreateAccountLink(_ context.Context, params processor.AccountLinkParams) (*processor.AccountLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls = append(f.linkCalls, params)
	return &processor.AccountLink{URL: "https://connect.example.com/setup/" + params.AccountID, ExpiresAt: 1700000000}, nil
}

func (f *fakeProcessor) CreatePaymentIntent(_ context.Context, params processor.PaymentIntentParams) (*processor.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentCalls = append(f.intentCalls, params)
	if len(f.intentErrs) > 0 {
		err := f.intentErrs[0]
		f.intentErrs = f.intentErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	id := fmt.Sprintf("pi_%d", len(f.intentCalls))
	return &processor.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       params.Amount,
		Currency:     params.Currency,
	}, nil
}

func (f *fakeProcessor) CreateTransfer(_ context.Context, params processor.TransferParams) (*processor.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transferCalls = append(f.transferCalls, params)
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &processor.Transfer{
		ID:          fmt.Sprintf("tr_%d", len(f.transferCalls)),
		Amount:      params.Amount,
		Currency:    params.Currency,
		Destination: params.Destination,
	}, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]string{}}
}

func (f *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.held[key]; ok {
		return "", false, nil
	}
	token := "token-" + key
	f.held[key] = token
	return token, true, nil
}

func (f *fakeLocker) Release(_ context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == token {
		delete(f.held, key)
		f.released = append(f.released, key)
	}
	return nil
}

type staticVerifier struct {
	err error
}

func (v staticVerifier) Verify([]byte, http.Header) error {
	return v.err
}
