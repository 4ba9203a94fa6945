package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/adapters/persistence/testdb"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/clock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []SSEEvent
}

func (n *recordingNotifier) Publish(events ...SSEEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) named(name string) []SSEEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []SSEEvent
	for _, e := range n.events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *repositories.Store
	clock    *clock.Fixed
	policy   config.CirculationConfig
	notifier *recordingNotifier
	copies   *CopyRegistry
	queue    *ReservationQueue
	ledger   *LoanLedger
	fines    *FineService
	cash     *CashSessionService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPolicy(t, func(*config.CirculationConfig) {})
}

func newFixtureWithPolicy(t *testing.T, adjust func(*config.CirculationConfig)) *fixture {
	t.Helper()

	policy := config.DefaultCirculation()
	adjust(&policy)

	store := repositories.NewStore(testdb.Open(t))
	clk := clock.NewFixed(baseTime)
	notifier := &recordingNotifier{}
	copies := NewCopyRegistry(store, nil)
	queue := NewReservationQueue(store, clk, policy, copies, notifier, nil)

	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		clock:    clk,
		policy:   policy,
		notifier: notifier,
		copies:   copies,
		queue:    queue,
		ledger:   NewLoanLedger(store, clk, policy, copies, queue, notifier, nil),
		fines:    NewFineService(store, nil),
		cash:     NewCashSessionService(store, clk, nil),
	}
}

func (f *fixture) book(isbn string) *models.Book {
	f.t.Helper()
	b := &models.Book{ISBN: isbn, Title: "Book " + isbn, Author: "Author", IsActive: true}
	require.NoError(f.t, f.store.Books.Create(f.ctx, b))
	return b
}

func (f *fixture) copyOf(book *models.Book, barcode string) *models.Copy {
	f.t.Helper()
	c := &models.Copy{BookID: book.ID, Barcode: barcode, State: domain.CopyAvailable, IsActive: true}
	require.NoError(f.t, f.store.Copies.Create(f.ctx, c))
	return c
}

func (f *fixture) client(card string) *models.Client {
	f.t.Helper()
	c := &models.Client{CardNumber: card, FullName: "Patron " + card, IsActive: true}
	require.NoError(f.t, f.store.Clients.Create(f.ctx, c))
	return c
}

func (f *fixture) blockedClient(card string) *models.Client {
	f.t.Helper()
	c := &models.Client{CardNumber: card, FullName: "Patron " + card, IsActive: true, IsBlocked: true}
	require.NoError(f.t, f.store.Clients.Create(f.ctx, c))
	return c
}

func (f *fixture) user(username string, role domain.Role) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, FullName: username, Password: "x", Role: role, IsActive: true}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u
}

// pendingFine inserts a PENDING fine not tied to a real loan
func (f *fixture) pendingFine(client *models.Client, loanID uint, amount string) *models.Fine {
	f.t.Helper()
	fine := &models.Fine{
		LoanID:           loanID,
		ClientID:         client.ID,
		DaysLate:         1,
		AmountCalculated: decimal.RequireFromString(amount),
		AmountPaid:       decimal.Zero,
		State:            domain.FinePending,
		GeneratedAt:      f.clock.Now(),
		PaymentDeadline:  f.clock.Now().AddDate(0, 0, 30),
	}
	require.NoError(f.t, f.store.Fines.Create(f.ctx, fine))
	return fine
}

func (f *fixture) lend(client *models.Client, c *models.Copy) *models.Loan {
	f.t.Helper()
	loan, err := f.ledger.CreateLoan(f.ctx, CreateLoanInput{ClientID: client.ID, CopyID: c.ID}, 1)
	require.NoError(f.t, err)
	return loan
}

func (f *fixture) reserve(client *models.Client, book *models.Book) *models.Reservation {
	f.t.Helper()
	res, err := f.queue.Enqueue(f.ctx, CreateReservationInput{ClientID: client.ID, BookID: book.ID})
	require.NoError(f.t, err)
	return res
}

func (f *fixture) copyState(id uint) domain.CopyState {
	f.t.Helper()
	c, err := f.store.Copies.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return c.State
}

func (f *fixture) reservation(id uint) *models.Reservation {
	f.t.Helper()
	res, err := f.store.Reservations.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return res
}

// positions returns the PENDING queue positions of a book in order
func (f *fixture) positions(bookID uint) []int {
	f.t.Helper()
	list, err := f.store.Reservations.ListPending(f.ctx, bookID)
	require.NoError(f.t, err)
	out := make([]int, 0, len(list))
	for _, r := range list {
		out = append(out, r.QueuePosition)
	}
	return out
}

func contiguous(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
