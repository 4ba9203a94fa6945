package services

import (
	"context"
	"log"
	"strings"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/clock"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LoanDetail is a loan and the fine it produced, if any
type LoanDetail struct {
	Loan *models.Loan `json:"loan"`
	Fine *models.Fine `json:"fine"`
}

// LoanLedger runs the loan lifecycle. Each operation is one transaction that
// locks book, then loan, then copy and reservation rows.
type LoanLedger struct {
	store    *repositories.Store
	clock    clock.Clock
	policy   config.CirculationConfig
	copies   *CopyRegistry
	queue    *ReservationQueue
	fines    FineCalculator
	notifier Notifier
	metrics  MetricsRecorder
}

// NewLoanLedger creates a new loan ledger
func NewLoanLedger(
	store *repositories.Store,
	clk clock.Clock,
	policy config.CirculationConfig,
	copies *CopyRegistry,
	queue *ReservationQueue,
	notifier Notifier,
	metrics MetricsRecorder,
) *LoanLedger {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &LoanLedger{
		store:    store,
		clock:    clk,
		policy:   policy,
		copies:   copies,
		queue:    queue,
		notifier: notifier,
		metrics:  metrics,
	}
}

// ============================================================
// Create
// ============================================================

// CreateLoan lends a copy to a client. Preconditions are checked in a fixed
// order and the first failure is returned.
func (l *LoanLedger) CreateLoan(ctx context.Context, input CreateLoanInput, executingUser uint) (loan *models.Loan, err error) {
	defer observe(l.metrics, "create_loan", time.Now(), &err)

	if input.ClientID == 0 || input.CopyID == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "client_id and copy_id are required")
	}

	var events outbox
	err = l.store.Transaction(ctx, func(tx *repositories.Store) error {
		var directory ClientDirectory = tx.Clients
		var catalog BookCatalog = tx.Copies

		// 1. Client in good standing
		ok, err := directory.IsActiveAndUnblocked(ctx, input.ClientID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(domain.ErrClientBlocked, "client %d", input.ClientID)
		}

		// 2. Copy loanable by this client
		bookID, err := catalog.ResolveBookIDForCopy(ctx, input.CopyID)
		if err != nil {
			return err
		}
		book, err := tx.Books.Lock(ctx, bookID)
		if err != nil {
			return err
		}
		c, err := tx.Copies.Lock(ctx, input.CopyID)
		if err != nil {
			return err
		}
		if !book.IsActive && c.State != domain.CopyReserved {
			return errors.Wrapf(domain.ErrCopyNotAvailable, "book %d is withdrawn from the catalog", bookID)
		}
		claim, err := l.claimableBy(ctx, tx, c, input.ClientID)
		if err != nil {
			return err
		}

		// 3. No second open loan of the same title
		dup, err := tx.Loans.ExistsOpenForClientBook(ctx, input.ClientID, bookID)
		if err != nil {
			return err
		}
		if dup {
			return errors.Wrapf(domain.ErrDuplicateLoan, "client %d, book %d", input.ClientID, bookID)
		}

		// 4. Outstanding fines below the ceiling
		if l.policy.FineCeiling.IsPositive() {
			owed, err := directory.TotalPendingFines(ctx, input.ClientID)
			if err != nil {
				return err
			}
			if owed.GreaterThanOrEqual(l.policy.FineCeiling) {
				return errors.Wrapf(domain.ErrFineCeilingExceeded, "client %d owes %s", input.ClientID, owed.StringFixed(2))
			}
		}

		// 5. Commit: copy, loan, reservation
		if err := l.copies.markLoaned(ctx, tx, c); err != nil {
			return err
		}

		now := l.clock.Now()
		loan = &models.Loan{
			ClientID:    input.ClientID,
			CopyID:      c.ID,
			BookID:      bookID,
			LibrarianID: executingUser,
			BorrowedAt:  now,
			DueAt:       now.AddDate(0, 0, l.policy.LoanPeriodDays),
			State:       domain.LoanActive,
		}
		if err := tx.Loans.Create(ctx, loan); err != nil {
			return err
		}

		if claim == nil {
			claim, err = tx.Reservations.FindPendingByClientBook(ctx, input.ClientID, bookID)
			if err != nil {
				return err
			}
		}
		if claim != nil {
			return l.queue.fulfill(ctx, tx, claim, c.ID, &events)
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	l.notifier.Publish(events...)
	log.Printf("✅ Loan %d created: copy %d to client %d, due %s", loan.ID, loan.CopyID, loan.ClientID, loan.DueAt.Format(time.RFC3339))
	return loan, nil
}

// claimableBy checks a locked copy: AVAILABLE copies go to anyone, RESERVED
// copies only to the patron they are held for. Returns that reservation.
func (l *LoanLedger) claimableBy(ctx context.Context, tx *repositories.Store, c *models.Copy, clientID uint) (*models.Reservation, error) {
	if !c.IsActive {
		return nil, errors.Wrapf(domain.ErrCopyNotAvailable, "copy %d is deactivated", c.ID)
	}
	switch c.State {
	case domain.CopyAvailable:
		return nil, nil
	case domain.CopyReserved:
		hold, err := tx.Reservations.FindHolding(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if hold != nil && hold.ClientID == clientID {
			return hold, nil
		}
		return nil, errors.Wrapf(domain.ErrCopyNotAvailable, "copy %d is held for another patron", c.ID)
	default:
		return nil, errors.Wrapf(domain.ErrCopyNotAvailable, "copy %d is %s", c.ID, c.State)
	}
}

// ============================================================
// Renew
// ============================================================

// RenewLoan pushes the due date out by one loan period
func (l *LoanLedger) RenewLoan(ctx context.Context, loanID uint, executingUser uint) (loan *models.Loan, err error) {
	defer observe(l.metrics, "renew_loan", time.Now(), &err)

	err = l.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if _, err := tx.Books.Lock(ctx, current.BookID); err != nil {
			return err
		}
		loan, err = tx.Loans.Lock(ctx, loanID)
		if err != nil {
			return err
		}

		if !loan.State.IsOpen() {
			return errors.Wrapf(domain.ErrLoanNotOpen, "loan %d is %s", loan.ID, loan.State)
		}
		pending, err := l.queue.hasPendingFor(ctx, tx, loan.BookID)
		if err != nil {
			return err
		}
		if pending {
			return errors.Wrapf(domain.ErrReservationPending, "book %d", loan.BookID)
		}
		if loan.RenewalCount >= l.policy.MaxRenewals {
			return errors.Wrapf(domain.ErrRenewalLimitExceeded, "loan %d renewed %d times", loan.ID, loan.RenewalCount)
		}

		loan.DueAt = loan.DueAt.AddDate(0, 0, l.policy.LoanPeriodDays)
		loan.RenewalCount++
		loan.Refresh(l.clock.Now())
		return tx.Loans.Save(ctx, loan)
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Loan %d renewed by user %d, due %s (%d/%d)",
		loan.ID, executingUser, loan.DueAt.Format(time.RFC3339), loan.RenewalCount, l.policy.MaxRenewals)
	return loan, nil
}

// ============================================================
// Return
// ============================================================

// ReturnLoan closes a loan, charges any late fine and routes the copy to
// the next waiting patron or back to the shelf
func (l *LoanLedger) ReturnLoan(ctx context.Context, loanID uint, executingUser uint) (result *LoanDetail, err error) {
	defer observe(l.metrics, "return_loan", time.Now(), &err)

	var events outbox
	err = l.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if _, err := tx.Books.Lock(ctx, current.BookID); err != nil {
			return err
		}
		loan, err := tx.Loans.Lock(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.State.IsOpen() {
			return errors.Wrapf(domain.ErrLoanNotOpen, "loan %d is %s", loan.ID, loan.State)
		}
		c, err := tx.Copies.Lock(ctx, loan.CopyID)
		if err != nil {
			return err
		}

		// 1. Close the loan
		now := l.clock.Now()
		loan.ReturnedAt = &now
		loan.ReturnedBy = &executingUser
		loan.State = domain.LoanClosed
		if err := tx.Loans.Save(ctx, loan); err != nil {
			return err
		}
		result = &LoanDetail{Loan: loan}

		// 2. Late fine
		charge := l.fines.Compute(loan.DueAt, now, l.policy.FineDailyRate, l.policy.FineMaxCap)
		if charge.Amount.IsPositive() {
			fine := &models.Fine{
				LoanID:           loan.ID,
				ClientID:         loan.ClientID,
				DaysLate:         charge.DaysLate,
				AmountCalculated: charge.Amount,
				AmountPaid:       decimal.Zero,
				State:            domain.FinePending,
				GeneratedAt:      now,
				PaymentDeadline:  now.AddDate(0, 0, l.policy.FinePaymentDays),
			}
			if err := tx.Fines.Create(ctx, fine); err != nil {
				return err
			}
			result.Fine = fine
			events.add(SSEEvent{
				Event:    EventFineCreated,
				ClientID: fine.ClientID,
				Data: map[string]interface{}{
					"fine_id":   fine.ID,
					"loan_id":   loan.ID,
					"days_late": fine.DaysLate,
					"amount":    fine.AmountCalculated.StringFixed(2),
				},
			})
		}

		// 3. Copy goes to the queue head or back to the shelf
		waiting, err := l.queue.hasWaiting(ctx, tx, loan.BookID)
		if err != nil {
			return err
		}
		if err := l.copies.markReturned(ctx, tx, c, waiting); err != nil {
			return err
		}
		if waiting {
			if _, err := l.queue.promoteHead(ctx, tx, loan.BookID, c.ID, &events); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	l.notifier.Publish(events...)
	if result.Fine != nil {
		log.Printf("✅ Loan %d returned %d days late, fine %s", result.Loan.ID, result.Fine.DaysLate, result.Fine.AmountCalculated.StringFixed(2))
	} else {
		log.Printf("✅ Loan %d returned", result.Loan.ID)
	}
	return result, nil
}

// ReturnByBarcode finds the open loan for a scanned copy and returns it
func (l *LoanLedger) ReturnByBarcode(ctx context.Context, barcode string, executingUser uint) (*LoanDetail, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "barcode is required")
	}
	c, err := l.store.Copies.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, domain.Storage(err)
	}
	open, err := l.store.Loans.FindOpenByCopy(ctx, c.ID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	if open == nil {
		return nil, errors.Wrapf(domain.ErrLoanNotFound, "no open loan for barcode %q", barcode)
	}
	return l.ReturnLoan(ctx, open.ID, executingUser)
}

// ============================================================
// Queries (overdue state is derived on read)
// ============================================================

// GetLoan returns a loan, with its state evaluated against now, and its fine
func (l *LoanLedger) GetLoan(ctx context.Context, id uint) (*LoanDetail, error) {
	loan, err := l.store.Loans.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Storage(err)
	}
	loan.Refresh(l.clock.Now())

	fine, err := l.store.Fines.GetByLoan(ctx, id)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return &LoanDetail{Loan: loan, Fine: fine}, nil
}

// ListOpenLoans returns a client's open loans, soonest due first
func (l *LoanLedger) ListOpenLoans(ctx context.Context, clientID uint) ([]models.Loan, error) {
	if _, err := l.store.Clients.GetByID(ctx, clientID); err != nil {
		return nil, domain.Storage(err)
	}
	loans, err := l.store.Loans.ListOpenByClient(ctx, clientID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	now := l.clock.Now()
	for i := range loans {
		loans[i].Refresh(now)
	}
	return loans, nil
}

// ListOverdue returns every open loan past its due date, most overdue first
func (l *LoanLedger) ListOverdue(ctx context.Context) ([]models.Loan, error) {
	open, err := l.store.Loans.ListOpen(ctx)
	if err != nil {
		return nil, domain.Storage(err)
	}

	now := l.clock.Now()
	overdue := make([]models.Loan, 0)
	for i := range open {
		open[i].Refresh(now)
		if open[i].State == domain.LoanOverdue {
			overdue = append(overdue, open[i])
		}
	}
	return overdue, nil
}
