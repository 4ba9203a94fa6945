package services

import (
	"context"
	"time"

	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ClientDirectory answers patron eligibility questions
type ClientDirectory interface {
	IsActiveAndUnblocked(ctx context.Context, clientID uint) (bool, error)
	TotalPendingFines(ctx context.Context, clientID uint) (decimal.Decimal, error)
}

// BookCatalog maps physical copies to titles
type BookCatalog interface {
	ResolveBookIDForCopy(ctx context.Context, copyID uint) (uint, error)
}

var (
	_ ClientDirectory = (*repositories.ClientRepository)(nil)
	_ BookCatalog     = (*repositories.CopyRepository)(nil)
)

// Notifier delivers events once the transaction that produced them commits
type Notifier interface {
	Publish(events ...SSEEvent)
}

// MetricsRecorder receives one sample per service operation
type MetricsRecorder interface {
	Observe(operation, result string, elapsed time.Duration)
}

type noopNotifier struct{}

func (noopNotifier) Publish(...SSEEvent) {}

type noopRecorder struct{}

func (noopRecorder) Observe(string, string, time.Duration) {}

// observe is deferred by operations with a named error result
func observe(m MetricsRecorder, operation string, start time.Time, err *error) {
	result := "ok"
	if *err != nil {
		result = domain.KindOf(*err).String()
	}
	m.Observe(operation, result, time.Since(start))
}

// Input DTOs

// CreateLoanInput for lending a copy
type CreateLoanInput struct {
	ClientID uint `json:"client_id"`
	CopyID   uint `json:"copy_id"`
}

// CreateReservationInput for joining a book's queue
type CreateReservationInput struct {
	ClientID uint `json:"client_id"`
	BookID   uint `json:"book_id"`
}

// PayFineInput for taking a payment at the cash desk
type PayFineInput struct {
	SessionID uint            `json:"session_id"`
	FineID    uint            `json:"fine_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// ExonerateFineInput for waiving a fine
type ExonerateFineInput struct {
	Justification string `json:"justification"`
}
