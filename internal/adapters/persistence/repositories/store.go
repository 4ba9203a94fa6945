package repositories

import (
	"context"

	"library-loanhub/internal/core/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store bundles every repository over one gorm handle. Inside Transaction
// the handle is the open transaction, so all reads and writes share it.
type Store struct {
	db *gorm.DB

	Users        UserRepository
	Books        *BookRepository
	Copies       *CopyRepository
	Clients      *ClientRepository
	Loans        *LoanRepository
	Reservations *ReservationRepository
	Fines        *FineRepository
	Cash         *CashRepository
}

// NewStore creates a store bound to db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Books:        NewBookRepository(db),
		Copies:       NewCopyRepository(db),
		Clients:      NewClientRepository(db),
		Loans:        NewLoanRepository(db),
		Reservations: NewReservationRepository(db),
		Fines:        NewFineRepository(db),
		Cash:         NewCashRepository(db),
	}
}

// DB exposes the underlying handle for health checks and seeding
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn atomically. Any error returned by fn rolls back every
// write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has row locks.
// SQLite serializes writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm.ErrRecordNotFound onto a domain sentinel
func notFound(err error, sentinel *domain.Error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(sentinel, format, args...)
	}
	return err
}
