package services

import (
	"context"
	"log"
	"strings"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// FineService serves fine lookups and exoneration
type FineService struct {
	store   *repositories.Store
	metrics MetricsRecorder
}

// NewFineService creates a new fine service
func NewFineService(store *repositories.Store, metrics MetricsRecorder) *FineService {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &FineService{store: store, metrics: metrics}
}

// ClientFines is a client's fines and what is still owed on them
type ClientFines struct {
	Fines       []models.Fine   `json:"fines"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// GetFine returns a fine by ID
func (s *FineService) GetFine(ctx context.Context, id uint) (*models.Fine, error) {
	fine, err := s.store.Fines.GetByID(ctx, id)
	return fine, domain.Storage(err)
}

// ListByClient returns a client's fines, optionally filtered by state
func (s *FineService) ListByClient(ctx context.Context, clientID uint, state domain.FineState) (*ClientFines, error) {
	if _, err := s.store.Clients.GetByID(ctx, clientID); err != nil {
		return nil, domain.Storage(err)
	}
	fines, err := s.store.Fines.ListByClient(ctx, clientID, state)
	if err != nil {
		return nil, domain.Storage(err)
	}
	owed, err := s.store.Clients.TotalPendingFines(ctx, clientID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	return &ClientFines{Fines: fines, Outstanding: owed}, nil
}

// Exonerate waives a pending fine. The justification is kept on the fine.
func (s *FineService) Exonerate(ctx context.Context, fineID uint, input ExonerateFineInput, executingUser uint) (fine *models.Fine, err error) {
	defer observe(s.metrics, "exonerate_fine", time.Now(), &err)

	justification := strings.TrimSpace(input.Justification)
	if justification == "" {
		return nil, domain.ErrJustificationRequired
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		fine, err = tx.Fines.Lock(ctx, fineID)
		if err != nil {
			return err
		}
		if fine.State != domain.FinePending {
			return errors.Wrapf(domain.ErrFineNotPending, "fine %d is %s", fine.ID, fine.State)
		}
		fine.State = domain.FineExonerated
		fine.ExonerationJustification = justification
		fine.ExoneratedBy = &executingUser
		return tx.Fines.Save(ctx, fine)
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Fine %d exonerated by user %d", fine.ID, executingUser)
	return fine, nil
}
