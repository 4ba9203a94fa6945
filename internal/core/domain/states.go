package domain

import "time"

// ============================================================
// Copy lifecycle
// ============================================================

// CopyState is the physical/circulation status of a single copy.
type CopyState string

const (
	CopyAvailable CopyState = "AVAILABLE"
	CopyReserved  CopyState = "RESERVED"
	CopyLoaned    CopyState = "LOANED"
	CopyWithdrawn CopyState = "WITHDRAWN"
	CopyLost      CopyState = "LOST"
	CopyDamaged   CopyState = "DAMAGED"
)

var copyTransitions = map[CopyState][]CopyState{
	CopyAvailable: {CopyLoaned, CopyWithdrawn, CopyLost, CopyDamaged},
	CopyReserved:  {CopyLoaned, CopyAvailable},
	CopyLoaned:    {CopyAvailable, CopyReserved},
	CopyWithdrawn: {CopyAvailable},
	CopyLost:      {CopyAvailable},
	CopyDamaged:   {CopyAvailable},
}

// Valid reports whether s is a known copy state.
func (s CopyState) Valid() bool {
	_, ok := copyTransitions[s]
	return ok
}

// CanTransitionTo reports whether the copy state machine allows s -> next.
func (s CopyState) CanTransitionTo(next CopyState) bool {
	for _, allowed := range copyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OutOfCirculation covers the states a librarian sets by hand.
func (s CopyState) OutOfCirculation() bool {
	return s == CopyWithdrawn || s == CopyLost || s == CopyDamaged
}

// ============================================================
// Loan lifecycle
// ============================================================

type LoanState string

const (
	LoanActive    LoanState = "ACTIVE"
	LoanOverdue   LoanState = "OVERDUE"
	LoanClosed    LoanState = "CLOSED"
	LoanCancelled LoanState = "CANCELLED"
)

// IsOpen reports whether the loan still holds its copy.
func (s LoanState) IsOpen() bool {
	return s == LoanActive || s == LoanOverdue
}

// OpenLoanState derives ACTIVE/OVERDUE for an open loan from its due date.
func OpenLoanState(dueAt, now time.Time) LoanState {
	if now.After(dueAt) {
		return LoanOverdue
	}
	return LoanActive
}

// ============================================================
// Reservations, fines, cash sessions
// ============================================================

type ReservationState string

const (
	ReservationPending   ReservationState = "PENDING"
	ReservationFulfilled ReservationState = "FULFILLED"
	ReservationExpired   ReservationState = "EXPIRED"
	ReservationCancelled ReservationState = "CANCELLED"
)

type FineState string

const (
	FinePending    FineState = "PENDING"
	FinePaid       FineState = "PAID"
	FineExonerated FineState = "EXONERATED"
)

func (s FineState) Valid() bool {
	switch s {
	case FinePending, FinePaid, FineExonerated:
		return true
	}
	return false
}

type CashSessionState string

const (
	CashSessionOpen   CashSessionState = "OPEN"
	CashSessionClosed CashSessionState = "CLOSED"
)

// Role is a staff role carried in access tokens.
type Role string

const (
	RoleLibrarian Role = "LIBRARIAN"
	RoleCashier   Role = "CASHIER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known staff role.
func (r Role) Valid() bool {
	return r == RoleLibrarian || r == RoleCashier || r == RoleAdmin
}
