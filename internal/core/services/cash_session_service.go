package services

import (
	"context"
	"log"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/clock"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CashSessionService runs the fines desk: one open session per cashier,
// payments against pending fines, and a counted close.
type CashSessionService struct {
	store   *repositories.Store
	clock   clock.Clock
	metrics MetricsRecorder
}

// NewCashSessionService creates a new cash session service
func NewCashSessionService(store *repositories.Store, clk clock.Clock, metrics MetricsRecorder) *CashSessionService {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &CashSessionService{store: store, clock: clk, metrics: metrics}
}

// PaymentResult is a recorded payment and the fine after it
type PaymentResult struct {
	Payment *models.FinePayment `json:"payment"`
	Fine    *models.Fine        `json:"fine"`
}

// SessionSummary is a session with its payments
type SessionSummary struct {
	Session     *models.CashSession  `json:"session"`
	Payments    []models.FinePayment `json:"payments"`
	Collected   decimal.Decimal      `json:"collected"`
	Discrepancy decimal.Decimal      `json:"discrepancy"`
}

// Open starts a session for the cashier
func (s *CashSessionService) Open(ctx context.Context, cashierID uint, openingBalance decimal.Decimal) (session *models.CashSession, err error) {
	defer observe(s.metrics, "open_cash_session", time.Now(), &err)

	if openingBalance.IsNegative() {
		return nil, errors.Wrap(domain.ErrInvalidAmount, "opening balance must not be negative")
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		// Cashier row lock keeps the open-session check and the insert together
		if _, err := tx.Users.Lock(ctx, cashierID); err != nil {
			return err
		}
		open, err := tx.Cash.FindOpenByCashier(ctx, cashierID)
		if err != nil {
			return err
		}
		if open != nil {
			return errors.Wrapf(domain.ErrSessionAlreadyOpen, "session %d", open.ID)
		}
		session = &models.CashSession{
			CashierID:      cashierID,
			State:          domain.CashSessionOpen,
			OpeningBalance: openingBalance.Round(2),
			ExpectedTotal:  openingBalance.Round(2),
			OpenedAt:       s.clock.Now(),
		}
		return tx.Cash.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Cash session %d opened by cashier %d", session.ID, cashierID)
	return session, nil
}

// PayFine takes a full or partial payment. A fine paid in full becomes PAID.
func (s *CashSessionService) PayFine(ctx context.Context, input PayFineInput, cashierID uint) (result *PaymentResult, err error) {
	defer observe(s.metrics, "pay_fine", time.Now(), &err)

	if input.SessionID == 0 || input.FineID == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "session_id and fine_id are required")
	}
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		// 1. Session must be open and owned by the caller
		session, err := tx.Cash.LockSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		if session.State != domain.CashSessionOpen {
			return errors.Wrapf(domain.ErrSessionClosed, "session %d", session.ID)
		}
		if session.CashierID != cashierID {
			return errors.Wrapf(domain.ErrSessionNotOwned, "session %d", session.ID)
		}

		// 2. Fine must be pending and not overpaid
		fine, err := tx.Fines.Lock(ctx, input.FineID)
		if err != nil {
			return err
		}
		if fine.State != domain.FinePending {
			return errors.Wrapf(domain.ErrFineNotPending, "fine %d is %s", fine.ID, fine.State)
		}
		outstanding := fine.Outstanding()
		if amount.GreaterThan(outstanding) {
			return errors.Wrapf(domain.ErrOverpayment, "fine %d owes %s", fine.ID, outstanding.StringFixed(2))
		}

		// 3. Apply
		now := s.clock.Now()
		fine.AmountPaid = fine.AmountPaid.Add(amount)
		if fine.AmountPaid.Equal(fine.AmountCalculated) {
			fine.State = domain.FinePaid
		}
		if err := tx.Fines.Save(ctx, fine); err != nil {
			return err
		}

		payment := &models.FinePayment{
			SessionID: session.ID,
			FineID:    fine.ID,
			Amount:    amount,
			PaidAt:    now,
		}
		if err := tx.Cash.CreatePayment(ctx, payment); err != nil {
			return err
		}

		session.ExpectedTotal = session.ExpectedTotal.Add(amount)
		if err := tx.Cash.SaveSession(ctx, session); err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Fine: fine}
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Payment %s on fine %d in session %d", amount.StringFixed(2), input.FineID, input.SessionID)
	return result, nil
}

// Close records the counted cash and ends the session
func (s *CashSessionService) Close(ctx context.Context, sessionID uint, counted decimal.Decimal, cashierID uint) (summary *SessionSummary, err error) {
	defer observe(s.metrics, "close_cash_session", time.Now(), &err)

	if counted.IsNegative() {
		return nil, errors.Wrap(domain.ErrInvalidAmount, "counted balance must not be negative")
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		session, err := tx.Cash.LockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.State != domain.CashSessionOpen {
			return errors.Wrapf(domain.ErrSessionClosed, "session %d", session.ID)
		}
		if session.CashierID != cashierID {
			return errors.Wrapf(domain.ErrSessionNotOwned, "session %d", session.ID)
		}

		payments, err := tx.Cash.ListPayments(ctx, session.ID)
		if err != nil {
			return err
		}
		collected := sumPayments(payments)

		now := s.clock.Now()
		closing := counted.Round(2)
		session.ExpectedTotal = session.OpeningBalance.Add(collected)
		session.ClosingBalance = &closing
		session.ClosedAt = &now
		session.State = domain.CashSessionClosed
		if err := tx.Cash.SaveSession(ctx, session); err != nil {
			return err
		}

		summary = &SessionSummary{
			Session:     session,
			Payments:    payments,
			Collected:   collected,
			Discrepancy: session.Discrepancy(),
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	if !summary.Discrepancy.IsZero() {
		log.Printf("⚠️ Cash session %d closed with discrepancy %s", sessionID, summary.Discrepancy.StringFixed(2))
	} else {
		log.Printf("✅ Cash session %d closed", sessionID)
	}
	return summary, nil
}

// Summary returns a session with its payments
func (s *CashSessionService) Summary(ctx context.Context, sessionID uint) (*SessionSummary, error) {
	session, err := s.store.Cash.GetSession(ctx, sessionID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	payments, err := s.store.Cash.ListPayments(ctx, sessionID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return &SessionSummary{
		Session:     session,
		Payments:    payments,
		Collected:   sumPayments(payments),
		Discrepancy: session.Discrepancy(),
	}, nil
}

// Current returns the cashier's open session, if any
func (s *CashSessionService) Current(ctx context.Context, cashierID uint) (*models.CashSession, error) {
	session, err := s.store.Cash.FindOpenByCashier(ctx, cashierID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	if session == nil {
		return nil, errors.Wrapf(domain.ErrSessionNotFound, "no open session for cashier %d", cashierID)
	}
	return session, nil
}

func sumPayments(payments []models.FinePayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
