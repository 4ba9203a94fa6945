package services

import (
	"testing"
	"time"

	"library-loanhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCirculationDashboard(t *testing.T) {
	f := newFixture(t)
	book := f.book("B1")
	held := f.copyOf(book, "C1")
	f.copyOf(book, "C2")
	lent := f.copyOf(f.book("B2"), "C3")

	returned := f.lend(f.client("a"), held)
	f.reserve(f.client("b"), book)
	_, err := f.ledger.ReturnLoan(f.ctx, returned.ID, 1)
	require.NoError(t, err)
	f.reserve(f.client("c"), book)

	f.lend(f.client("d"), lent)
	f.pendingFine(f.client("e"), 900, "7.50")
	_, err = f.cash.Open(f.ctx, f.user("cashier", domain.RoleCashier).ID, dec("0"))
	require.NoError(t, err)

	f.clock.Advance(15 * 24 * time.Hour)
	dash := NewDashboardService(f.store, f.clock)
	data, err := dash.GetCirculationDashboard(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), data.CopiesByState[domain.CopyReserved])
	assert.Equal(t, int64(1), data.CopiesByState[domain.CopyAvailable])
	assert.Equal(t, int64(1), data.CopiesByState[domain.CopyLoaned])
	assert.Equal(t, int64(1), data.OpenLoans)
	assert.Equal(t, int64(1), data.OverdueLoans)
	assert.Equal(t, int64(2), data.PendingReservations)
	assert.Equal(t, int64(1), data.HoldsAwaitingPickup)
	assert.True(t, data.OutstandingFines.Equal(dec("7.50")))
	assert.Equal(t, int64(1), data.OpenCashSessions)
	assert.True(t, data.GeneratedAt.Equal(f.clock.Now()))
}
