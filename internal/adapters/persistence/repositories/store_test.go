package repositories

import (
	"context"
	"testing"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/testdb"
	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBook(t *testing.T, s *Store, isbn string) *models.Book {
	t.Helper()
	book := &models.Book{ISBN: isbn, Title: "Title " + isbn, IsActive: true}
	require.NoError(t, s.Books.Create(context.Background(), book))
	return book
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testdb.Open(t))
	book := seedBook(t, store, "111")

	err := store.Transaction(ctx, func(tx *Store) error {
		if err := tx.Copies.Create(ctx, &models.Copy{BookID: book.ID, Barcode: "C-1", State: domain.CopyAvailable, IsActive: true}); err != nil {
			return err
		}
		return domain.ErrCopyNotAvailable
	})
	assert.True(t, errors.Is(err, domain.ErrCopyNotAvailable))

	_, err = store.Copies.GetByBarcode(ctx, "C-1")
	assert.True(t, errors.Is(err, domain.ErrCopyNotFound))
}

func TestLookupsMapMissingRows(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testdb.Open(t))

	_, err := store.Loans.GetByID(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrLoanNotFound))

	_, err = store.Clients.IsActiveAndUnblocked(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrClientNotFound))

	_, err = store.Copies.ResolveBookIDForCopy(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrCopyNotFound))

	_, err = store.Books.Lock(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrBookNotFound))

	_, err = store.Users.Lock(ctx, 99)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))

	open, err := store.Loans.FindOpenByCopy(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestTotalPendingFinesIgnoresSettledFines(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testdb.Open(t))
	client := &models.Client{CardNumber: "P-1", FullName: "Reader", IsActive: true}
	require.NoError(t, store.Clients.Create(ctx, client))

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fines := []models.Fine{
		{LoanID: 1, AmountCalculated: decimal.NewFromInt(10), AmountPaid: decimal.NewFromInt(4), State: domain.FinePending},
		{LoanID: 2, AmountCalculated: decimal.NewFromInt(6), AmountPaid: decimal.Zero, State: domain.FinePending},
		{LoanID: 3, AmountCalculated: decimal.NewFromInt(8), AmountPaid: decimal.NewFromInt(8), State: domain.FinePaid},
		{LoanID: 4, AmountCalculated: decimal.NewFromInt(9), AmountPaid: decimal.Zero, State: domain.FineExonerated},
	}
	for i := range fines {
		fines[i].ClientID = client.ID
		fines[i].GeneratedAt = now
		fines[i].PaymentDeadline = now.AddDate(0, 0, 30)
		require.NoError(t, store.Fines.Create(ctx, &fines[i]))
	}

	total, err := store.Clients.TotalPendingFines(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(12)), "got %s", total)
}

func TestNextWaitingSkipsHeldReservations(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testdb.Open(t))
	book := seedBook(t, store, "222")
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	copyID := uint(5)
	held := &models.Reservation{ClientID: 1, BookID: book.ID, State: domain.ReservationPending, QueuePosition: 1, HeldCopyID: &copyID, CreatedAt: now}
	waiting := &models.Reservation{ClientID: 2, BookID: book.ID, State: domain.ReservationPending, QueuePosition: 2, CreatedAt: now}
	require.NoError(t, store.Reservations.Create(ctx, held))
	require.NoError(t, store.Reservations.Create(ctx, waiting))

	next, err := store.Reservations.NextWaiting(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, waiting.ID, next.ID)

	holding, err := store.Reservations.FindHolding(ctx, copyID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, held.ID, holding.ID)
}
