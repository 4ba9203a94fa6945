package services

import (
	"sync"
	"testing"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	cashier := f.user("cashier", domain.RoleCashier)
	reader := f.client("r")
	fine := f.pendingFine(reader, 900, "10.00")

	session, err := f.cash.Open(f.ctx, cashier.ID, dec("50.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.CashSessionOpen, session.State)

	_, err = f.cash.Open(f.ctx, cashier.ID, dec("0"))
	assert.True(t, errors.Is(err, domain.ErrSessionAlreadyOpen), "got %v", err)

	// partial, then the rest
	paid, err := f.cash.PayFine(f.ctx, PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("4.00")}, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FinePending, paid.Fine.State)
	assert.True(t, paid.Fine.Outstanding().Equal(dec("6.00")))

	paid, err = f.cash.PayFine(f.ctx, PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("6.00")}, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FinePaid, paid.Fine.State)

	_, err = f.cash.PayFine(f.ctx, PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("1.00")}, cashier.ID)
	assert.True(t, errors.Is(err, domain.ErrFineNotPending), "got %v", err)

	current, err := f.cash.Current(f.ctx, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)
	assert.True(t, current.ExpectedTotal.Equal(dec("60.00")))

	summary, err := f.cash.Close(f.ctx, session.ID, dec("58.50"), cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CashSessionClosed, summary.Session.State)
	assert.Len(t, summary.Payments, 2)
	assert.True(t, summary.Collected.Equal(dec("10.00")))
	assert.True(t, summary.Discrepancy.Equal(dec("-1.50")), "discrepancy %s", summary.Discrepancy)

	_, err = f.cash.Current(f.ctx, cashier.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound), "got %v", err)

	stored, err := f.cash.Summary(f.ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Discrepancy.Equal(dec("-1.50")))

	// a fresh session may be opened once the last one is closed
	_, err = f.cash.Open(f.ctx, cashier.ID, decimal.Zero)
	assert.NoError(t, err)
}

func TestPayFineRejections(t *testing.T) {
	f := newFixture(t)
	cashier := f.user("cashier", domain.RoleCashier)
	other := f.user("other", domain.RoleCashier)
	reader := f.client("r")
	fine := f.pendingFine(reader, 900, "5.00")

	session, err := f.cash.Open(f.ctx, cashier.ID, decimal.Zero)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   PayFineInput
		cashier uint
		want    error
	}{
		{"zero amount", PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: decimal.Zero}, cashier.ID, domain.ErrInvalidAmount},
		{"negative amount", PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("-1")}, cashier.ID, domain.ErrInvalidAmount},
		{"overpayment", PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("5.01")}, cashier.ID, domain.ErrOverpayment},
		{"someone else's session", PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("1")}, other.ID, domain.ErrSessionNotOwned},
		{"unknown fine", PayFineInput{SessionID: session.ID, FineID: 404, Amount: dec("1")}, cashier.ID, domain.ErrFineNotFound},
		{"unknown session", PayFineInput{SessionID: 404, FineID: fine.ID, Amount: dec("1")}, cashier.ID, domain.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cash.PayFine(f.ctx, tt.input, tt.cashier)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err = f.cash.Close(f.ctx, session.ID, decimal.Zero, cashier.ID)
	require.NoError(t, err)
	_, err = f.cash.PayFine(f.ctx, PayFineInput{SessionID: session.ID, FineID: fine.ID, Amount: dec("1")}, cashier.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionClosed), "got %v", err)

	got, err := f.fines.GetFine(f.ctx, fine.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountPaid.IsZero())
}

func TestOpenSessionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.cash.Open(f.ctx, f.user("c", domain.RoleCashier).ID, dec("-5"))
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount), "got %v", err)

	_, err = f.cash.Open(f.ctx, 404, decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound), "got %v", err)
}

func TestConcurrentOpenSession(t *testing.T) {
	f := newFixture(t)
	cashier := f.user("cashier", domain.RoleCashier)

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.cash.Open(f.ctx, cashier.ID, dec("20.00"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrSessionAlreadyOpen), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var open int64
	require.NoError(t, f.store.DB().Model(&models.CashSession{}).
		Where("cashier_id = ? AND state = ?", cashier.ID, domain.CashSessionOpen).
		Count(&open).Error)
	assert.Equal(t, int64(1), open)
}
