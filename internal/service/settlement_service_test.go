package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyulbade/annotation-payouts/internal/model"
	"github.com/anyulbade/annotation-payouts/internal/processor"
)

func pendingPayment(intentID string, crossBorder bool, amount, fee, currency string) *model.Payment {
	return &model.Payment{
		ID:                 "pay-" + intentID,
		PayerID:            testPayer.ID,
		PayeeID:            testPayeeDE.ID,
		Amount:             decimal.RequireFromString(amount),
		PlatformFee:        decimal.RequireFromString(fee),
		Currency:           currency,
		PaymentIntentID:    intentID,
		Status:             model.PaymentStatusPending,
		PayeeCountry:       "DE",
		CrossBorderPayment: crossBorder,
	}
}

func newSettlementFixture(payments ...*model.Payment) (*SettlementService, *fakePayments, *fakeAccounts, *fakeProcessor) {
	store := newFakePayments(payments...)
	accounts := newFakeAccounts(
		&model.PayeeAccount{UserID: testPayeeDE.ID, ExternalID: "acct_de", Country: "DE", Status: model.AccountStatusActive},
	)
	proc := newFakeProcessor()
	return NewSettlementService(store, accounts, proc, nil), store, accounts, proc
}

func TestHandlePaymentSucceeded_SameCountry(t *testing.T) {
	svc, store, _, proc := newSettlementFixture(pendingPayment("pi_a", false, "100", "5", "usd"))

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_a", "ch_a")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadySettled)
	assert.Equal(t, model.PaymentStatusCompleted, res.Status)

	assert.Empty(t, proc.transferCalls, "no transfer for same-country payments")
	assert.Equal(t, model.PaymentStatusCompleted, store.get("pi_a").Status)
}

func TestHandlePaymentSucceeded_CrossBorderTransfer(t *testing.T) {
	svc, store, _, proc := newSettlementFixture(pendingPayment("pi_b", true, "100.00", "5.00", "eur"))

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_b", "ch_b")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "tr_1", res.TransferID)

	require.Len(t, proc.transferCalls, 1)
	call := proc.transferCalls[0]
	assert.Equal(t, int64(9500), call.Amount)
	assert.Equal(t, "eur", call.Currency)
	assert.Equal(t, "acct_de", call.Destination)
	assert.Equal(t, "ch_b", call.SourceTransaction)
	assert.Equal(t, "transfer:pay-pi_b", call.IdempotencyKey)
	assert.Equal(t, "pay-pi_b", call.Metadata["payment_id"])
	assert.Equal(t, "10000", call.Metadata["original_amount"])
	assert.Equal(t, "500", call.Metadata["platform_fee"])

	stored := store.get("pi_b")
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.TransferID)
	assert.Equal(t, "tr_1", *stored.TransferID)
}

func TestHandlePaymentSucceeded_ThreeDecimalNetAmount(t *testing.T) {
	svc, _, _, proc := newSettlementFixture(pendingPayment("pi_k", true, "12.345", "0.617", "kwd"))

	_, err := svc.HandlePaymentSucceeded(context.Background(), "pi_k", "")
	require.NoError(t, err)
	require.Len(t, proc.transferCalls, 1)
	assert.Equal(t, int64(12345-617), proc.transferCalls[0].Amount)
	assert.Empty(t, proc.transferCalls[0].SourceTransaction)
}

func TestHandlePaymentSucceeded_MissingAccount(t *testing.T) {
	svc, store, accounts, proc := newSettlementFixture(pendingPayment("pi_c", true, "100", "5", "eur"))
	delete(accounts.accounts, testPayeeDE.ID)

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_c", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.PaymentStatusTransferFailed, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
	assert.Empty(t, proc.transferCalls)

	stored := store.get("pi_c")
	assert.Equal(t, model.PaymentStatusTransferFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.NotEmpty(t, *stored.ErrorMessage)
}

// flakyAccounts fails the next n account lookups.
type flakyAccounts struct {
	*fakeAccounts
	failures int
}

func (f *flakyAccounts) FindByUserID(ctx context.Context, userID string) (*model.PayeeAccount, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset by peer")
	}
	return f.fakeAccounts.FindByUserID(ctx, userID)
}

func TestHandlePaymentSucceeded_AccountLookupErrorKeepsPending(t *testing.T) {
	_, store, accounts, proc := newSettlementFixture(pendingPayment("pi_f", true, "100", "5", "eur"))
	svc := NewSettlementService(store, &flakyAccounts{fakeAccounts: accounts, failures: 1}, proc, nil)

	_, err := svc.HandlePaymentSucceeded(context.Background(), "pi_f", "ch_f")
	require.Error(t, err)
	assert.Equal(t, model.PaymentStatusPending, store.get("pi_f").Status)
	assert.Empty(t, proc.transferCalls)

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_f", "ch_f")
	require.NoError(t, err)
	assert.False(t, res.AlreadySettled)
	assert.True(t, res.Success)
	assert.Equal(t, model.PaymentStatusCompleted, store.get("pi_f").Status)
	require.Len(t, proc.transferCalls, 1)
	assert.Equal(t, "acct_de", proc.transferCalls[0].Destination)
}

func TestHandlePaymentSucceeded_TransferFails(t *testing.T) {
	svc, store, _, proc := newSettlementFixture(pendingPayment("pi_d", true, "100", "5", "eur"))
	proc.transferErr = &processor.APIError{StatusCode: 400, Message: "Insufficient funds in Stripe account"}

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_d", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Insufficient funds in Stripe account", res.ErrorMessage)

	stored := store.get("pi_d")
	assert.Equal(t, model.PaymentStatusTransferFailed, stored.Status)
	assert.Equal(t, "Insufficient funds in Stripe account", *stored.ErrorMessage)

	again, err := svc.HandlePaymentSucceeded(context.Background(), "pi_d", "")
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.Len(t, proc.transferCalls, 1, "transfer failures are not retried")
}

func TestHandlePaymentSucceeded_RedeliveryIsNoOp(t *testing.T) {
	svc, store, _, proc := newSettlementFixture(pendingPayment("pi_e", true, "100", "5", "eur"))

	first, err := svc.HandlePaymentSucceeded(context.Background(), "pi_e", "")
	require.NoError(t, err)

	second, err := svc.HandlePaymentSucceeded(context.Background(), "pi_e", "")
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadySettled)
	assert.Equal(t, first.TransferID, second.TransferID)
	assert.Equal(t, model.PaymentStatusCompleted, second.Status)

	assert.Len(t, proc.transferCalls, 1)
	assert.Equal(t, model.PaymentStatusCompleted, store.get("pi_e").Status)
}

func TestHandlePaymentSucceeded_ConcurrentDeliveries(t *testing.T) {
	svc, _, _, proc := newSettlementFixture(pendingPayment("pi_f", true, "100", "5", "eur"))

	var wg sync.WaitGroup
	results := make([]*SettlementResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_f", "")
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	settled := 0
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.Success)
		if !res.AlreadySettled {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
	assert.Len(t, proc.transferCalls, 1)
}

func TestHandlePaymentSucceeded_RecordNotFound(t *testing.T) {
	svc, _, _, proc := newSettlementFixture()

	_, err := svc.HandlePaymentSucceeded(context.Background(), "pi_missing", "")
	requireKind(t, err, ErrPaymentNotFound)
	assert.Empty(t, proc.transferCalls)
}

func TestHandlePaymentFailed_KeepsPending(t *testing.T) {
	svc, store, _, _ := newSettlementFixture(pendingPayment("pi_g", false, "100", "5", "usd"))

	require.NoError(t, svc.HandlePaymentFailed(context.Background(), "pi_g", "Your card was declined."))

	stored := store.get("pi_g")
	assert.Equal(t, model.PaymentStatusPending, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "Your card was declined.", *stored.ErrorMessage)

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_g", "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, res.Status, "a later successful attempt still settles")
}

func TestHandlePaymentCanceled(t *testing.T) {
	svc, store, _, _ := newSettlementFixture(pendingPayment("pi_h", false, "100", "5", "usd"))

	require.NoError(t, svc.HandlePaymentCanceled(context.Background(), "pi_h", "abandoned"))
	stored := store.get("pi_h")
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
	assert.Equal(t, "payment intent canceled: abandoned", *stored.ErrorMessage)

	res, err := svc.HandlePaymentSucceeded(context.Background(), "pi_h", "")
	require.NoError(t, err)
	assert.True(t, res.AlreadySettled)
	assert.Equal(t, model.PaymentStatusFailed, res.Status)
}

func TestHandleRefunded(t *testing.T) {
	svc, store, _, _ := newSettlementFixture(pendingPayment("pi_r", false, "100", "5", "usd"))

	require.NoError(t, svc.HandleRefunded(context.Background(), "pi_r", true))
	assert.Equal(t, model.PaymentStatusPending, store.get("pi_r").Status, "only completed payments are refunded")

	_, err := svc.HandlePaymentSucceeded(context.Background(), "pi_r", "")
	require.NoError(t, err)

	require.NoError(t, svc.HandleRefunded(context.Background(), "pi_r", false))
	assert.Equal(t, model.PaymentStatusCompleted, store.get("pi_r").Status, "partial refunds keep the payment completed")

	require.NoError(t, svc.HandleRefunded(context.Background(), "pi_r", true))
	assert.Equal(t, model.PaymentStatusRefunded, store.get("pi_r").Status)
}
