package repositories

import (
	"context"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"

	"gorm.io/gorm"
)

var openLoanStates = []domain.LoanState{domain.LoanActive, domain.LoanOverdue}

// LoanRepository handles loan rows
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *LoanRepository) Save(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound, "loan %d", id)
	}
	return &loan, nil
}

func (r *LoanRepository) Lock(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := forUpdate(r.db.WithContext(ctx)).First(&loan, id).Error; err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound, "loan %d", id)
	}
	return &loan, nil
}

// FindOpenByCopy returns the open loan holding a copy, or nil, nil
func (r *LoanRepository) FindOpenByCopy(ctx context.Context, copyID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("copy_id = ? AND state IN ?", copyID, openLoanStates).
		First(&loan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ExistsOpenForClientBook checks for an open loan of any copy of the book
func (r *LoanRepository) ExistsOpenForClientBook(ctx context.Context, clientID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("client_id = ? AND book_id = ? AND state IN ?", clientID, bookID, openLoanStates).
		Count(&count).Error
	return count > 0, err
}

func (r *LoanRepository) ListOpenByClient(ctx context.Context, clientID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND state IN ?", clientID, openLoanStates).
		Order("due_at ASC, id ASC").
		Find(&loans).Error
	return loans, err
}

// ListOpen returns every open loan ordered by due date
func (r *LoanRepository) ListOpen(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("state IN ?", openLoanStates).
		Order("due_at ASC, id ASC").
		Find(&loans).Error
	return loans, err
}

func (r *LoanRepository) ListByClient(ctx context.Context, clientID uint, offset, limit int) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{}).Where("client_id = ?", clientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}
