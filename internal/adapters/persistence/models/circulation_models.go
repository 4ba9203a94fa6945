package models

import (
	"time"

	"library-loanhub/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Loans & reservations
// ============================================================

// Loan ties one copy to one client for a period. BookID is copied from the
// copy so duplicate-loan checks need no join.
type Loan struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	ClientID     uint             `gorm:"index;not null" json:"client_id"`
	CopyID       uint             `gorm:"index;not null" json:"copy_id"`
	BookID       uint             `gorm:"index;not null" json:"book_id"`
	LibrarianID  uint             `gorm:"not null" json:"librarian_id"`
	BorrowedAt   time.Time        `gorm:"not null" json:"borrowed_at"`
	DueAt        time.Time        `gorm:"index;not null" json:"due_at"`
	ReturnedAt   *time.Time       `json:"returned_at"`
	ReturnedBy   *uint            `json:"returned_by"`
	RenewalCount int              `gorm:"not null" json:"renewal_count"`
	State        domain.LoanState `gorm:"size:16;index;not null" json:"state"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

// Refresh re-derives ACTIVE/OVERDUE for an open loan. Closed loans are left as is.
func (l *Loan) Refresh(now time.Time) {
	if !l.State.IsOpen() {
		return
	}
	l.State = domain.OpenLoanState(l.DueAt, now)
}

// Reservation is a client's place in a book's waiting queue. A promoted
// reservation stays PENDING with HeldCopyID set until pickup or expiry.
type Reservation struct {
	ID             uint                    `gorm:"primaryKey" json:"id"`
	ClientID       uint                    `gorm:"index;not null" json:"client_id"`
	BookID         uint                    `gorm:"index;not null" json:"book_id"`
	State          domain.ReservationState `gorm:"size:16;index;not null" json:"state"`
	QueuePosition  int                     `gorm:"not null" json:"queue_position"`
	HeldCopyID     *uint                   `gorm:"index" json:"held_copy_id"`
	ReadyAt        *time.Time              `json:"ready_at"`
	PickupDeadline *time.Time              `json:"pickup_deadline"`
	ClosedAt       *time.Time              `json:"closed_at"`
	CreatedAt      time.Time               `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// IsHolding reports whether a copy is set aside for this reservation.
func (r *Reservation) IsHolding() bool {
	return r.State == domain.ReservationPending && r.HeldCopyID != nil
}

// ============================================================
// Fines & cash desk
// ============================================================

// Fine is at most one per loan
type Fine struct {
	ID                       uint             `gorm:"primaryKey" json:"id"`
	LoanID                   uint             `gorm:"uniqueIndex;not null" json:"loan_id"`
	ClientID                 uint             `gorm:"index;not null" json:"client_id"`
	DaysLate                 int              `gorm:"not null" json:"days_late"`
	AmountCalculated         decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount_calculated"`
	AmountPaid               decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount_paid"`
	State                    domain.FineState `gorm:"size:16;index;not null" json:"state"`
	GeneratedAt              time.Time        `gorm:"not null" json:"generated_at"`
	PaymentDeadline          time.Time        `gorm:"not null" json:"payment_deadline"`
	ExonerationJustification string           `gorm:"type:text" json:"exoneration_justification,omitempty"`
	ExoneratedBy             *uint            `json:"exonerated_by,omitempty"`
	CreatedAt                time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Fine) TableName() string {
	return "fines"
}

// Outstanding is what the client still owes on this fine.
func (f *Fine) Outstanding() decimal.Decimal {
	if f.State != domain.FinePending {
		return decimal.Zero
	}
	return f.AmountCalculated.Sub(f.AmountPaid)
}

// CashSession is one cashier shift at the fines desk
type CashSession struct {
	ID             uint                    `gorm:"primaryKey" json:"id"`
	CashierID      uint                    `gorm:"index;not null" json:"cashier_id"`
	State          domain.CashSessionState `gorm:"size:16;index;not null" json:"state"`
	OpeningBalance decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"opening_balance"`
	ExpectedTotal  decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"expected_total"`
	ClosingBalance *decimal.Decimal        `gorm:"type:decimal(10,2)" json:"closing_balance"`
	OpenedAt       time.Time               `gorm:"not null" json:"opened_at"`
	ClosedAt       *time.Time              `json:"closed_at"`
	CreatedAt      time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CashSession) TableName() string {
	return "cash_sessions"
}

// Discrepancy is counted minus expected; zero while the session is open.
func (s *CashSession) Discrepancy() decimal.Decimal {
	if s.ClosingBalance == nil {
		return decimal.Zero
	}
	return s.ClosingBalance.Sub(s.ExpectedTotal)
}

// FinePayment is a single amount taken against a fine in a session
type FinePayment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SessionID uint            `gorm:"index;not null" json:"session_id"`
	FineID    uint            `gorm:"index;not null" json:"fine_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (FinePayment) TableName() string {
	return "fine_payments"
}
