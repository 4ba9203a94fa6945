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
)

// CopyRegistry is the only writer of Copy.state. Transitional methods take
// a copy the caller has already locked inside tx.
type CopyRegistry struct {
	store   *repositories.Store
	metrics MetricsRecorder
}

// NewCopyRegistry creates a new copy registry
func NewCopyRegistry(store *repositories.Store, metrics MetricsRecorder) *CopyRegistry {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &CopyRegistry{store: store, metrics: metrics}
}

// FindByBarcode returns a copy in any state, for status display
func (r *CopyRegistry) FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "barcode is required")
	}
	c, err := r.store.Copies.GetByBarcode(ctx, barcode)
	return c, domain.Storage(err)
}

// FindLoanable lists active AVAILABLE copies of an active book
func (r *CopyRegistry) FindLoanable(ctx context.Context, bookID uint) ([]models.Copy, error) {
	book, err := r.store.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, domain.Storage(err)
	}
	if !book.IsActive {
		return []models.Copy{}, nil
	}
	copies, err := r.store.Copies.ListActiveByBookAndState(ctx, bookID, domain.CopyAvailable)
	return copies, domain.Storage(err)
}

// SetActive soft-deactivates a copy or restores it. A copy on loan or on
// hold must come back first.
func (r *CopyRegistry) SetActive(ctx context.Context, copyID uint, active bool) (result *models.Copy, err error) {
	defer observe(r.metrics, "set_copy_active", time.Now(), &err)

	err = r.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookID, err := tx.Copies.ResolveBookIDForCopy(ctx, copyID)
		if err != nil {
			return err
		}
		if _, err := tx.Books.Lock(ctx, bookID); err != nil {
			return err
		}
		c, err := tx.Copies.Lock(ctx, copyID)
		if err != nil {
			return err
		}
		if !active && (c.State == domain.CopyLoaned || c.State == domain.CopyReserved) {
			return errors.Wrapf(domain.ErrCopyInCirculation, "copy %d is %s", c.ID, c.State)
		}
		if err := tx.Copies.SetActive(ctx, c.ID, active); err != nil {
			return err
		}
		c.IsActive = active
		result = c
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Copy %s active=%t", result.Barcode, result.IsActive)
	return result, nil
}

// SetBookActive withdraws a title from the catalog or restores it. Open
// loans and queued reservations run their course; no new ones are accepted.
func (r *CopyRegistry) SetBookActive(ctx context.Context, bookID uint, active bool) (book *models.Book, err error) {
	defer observe(r.metrics, "set_book_active", time.Now(), &err)

	err = r.store.Transaction(ctx, func(tx *repositories.Store) error {
		book, err = tx.Books.Lock(ctx, bookID)
		if err != nil {
			return err
		}
		if err := tx.Books.SetActive(ctx, bookID, active); err != nil {
			return err
		}
		book.IsActive = active
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Book %s active=%t", book.ISBN, book.IsActive)
	return book, nil
}

// SetCondition moves a copy in or out of circulation (WITHDRAWN, LOST,
// DAMAGED, back to AVAILABLE). Copies on loan or on hold cannot be changed here.
func (r *CopyRegistry) SetCondition(ctx context.Context, copyID uint, state domain.CopyState) (result *models.Copy, err error) {
	defer observe(r.metrics, "set_copy_condition", time.Now(), &err)

	if !state.Valid() || !(state.OutOfCirculation() || state == domain.CopyAvailable) {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "state %q cannot be set by hand", state)
	}

	err = r.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookID, err := tx.Copies.ResolveBookIDForCopy(ctx, copyID)
		if err != nil {
			return err
		}
		if _, err := tx.Books.Lock(ctx, bookID); err != nil {
			return err
		}
		c, err := tx.Copies.Lock(ctx, copyID)
		if err != nil {
			return err
		}
		if state == domain.CopyAvailable {
			err = r.transition(ctx, tx, c, []domain.CopyState{domain.CopyWithdrawn, domain.CopyLost, domain.CopyDamaged}, state)
		} else {
			err = r.transition(ctx, tx, c, []domain.CopyState{domain.CopyAvailable}, state)
		}
		result = c
		return err
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	log.Printf("✅ Copy %s condition set to %s", result.Barcode, result.State)
	return result, nil
}

// ============================================================
// Transitions driven by LoanLedger / ReservationQueue
// ============================================================

// markLoaned: AVAILABLE|RESERVED -> LOANED
func (r *CopyRegistry) markLoaned(ctx context.Context, tx *repositories.Store, c *models.Copy) error {
	return r.transition(ctx, tx, c, []domain.CopyState{domain.CopyAvailable, domain.CopyReserved}, domain.CopyLoaned)
}

// markReturned: LOANED -> RESERVED when someone is waiting, else AVAILABLE
func (r *CopyRegistry) markReturned(ctx context.Context, tx *repositories.Store, c *models.Copy, hasWaitingReservation bool) error {
	next := domain.CopyAvailable
	if hasWaitingReservation {
		next = domain.CopyReserved
	}
	return r.transition(ctx, tx, c, []domain.CopyState{domain.CopyLoaned}, next)
}

// releaseHold: RESERVED -> AVAILABLE when a hold ends with nobody left waiting
func (r *CopyRegistry) releaseHold(ctx context.Context, tx *repositories.Store, c *models.Copy) error {
	return r.transition(ctx, tx, c, []domain.CopyState{domain.CopyReserved}, domain.CopyAvailable)
}

func (r *CopyRegistry) transition(ctx context.Context, tx *repositories.Store, c *models.Copy, from []domain.CopyState, to domain.CopyState) error {
	allowed := false
	for _, s := range from {
		if c.State == s {
			allowed = true
			break
		}
	}
	if !allowed || !c.State.CanTransitionTo(to) {
		return errors.Wrapf(domain.ErrInvalidStateTransition, "copy %d: %s -> %s", c.ID, c.State, to)
	}
	if err := tx.Copies.UpdateState(ctx, c.ID, to); err != nil {
		return err
	}
	c.State = to
	return nil
}
