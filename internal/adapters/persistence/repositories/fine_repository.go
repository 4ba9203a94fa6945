package repositories

import (
	"context"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Fines
// ============================================================

// FineRepository handles fine rows
type FineRepository struct {
	db *gorm.DB
}

// NewFineRepository creates a new fine repository
func NewFineRepository(db *gorm.DB) *FineRepository {
	return &FineRepository{db: db}
}

func (r *FineRepository) Create(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Create(fine).Error
}

func (r *FineRepository) Save(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Save(fine).Error
}

func (r *FineRepository) GetByID(ctx context.Context, id uint) (*models.Fine, error) {
	var fine models.Fine
	if err := r.db.WithContext(ctx).First(&fine, id).Error; err != nil {
		return nil, notFound(err, domain.ErrFineNotFound, "fine %d", id)
	}
	return &fine, nil
}

func (r *FineRepository) Lock(ctx context.Context, id uint) (*models.Fine, error) {
	var fine models.Fine
	if err := forUpdate(r.db.WithContext(ctx)).First(&fine, id).Error; err != nil {
		return nil, notFound(err, domain.ErrFineNotFound, "fine %d", id)
	}
	return &fine, nil
}

// GetByLoan returns nil, nil when the loan produced no fine
func (r *FineRepository) GetByLoan(ctx context.Context, loanID uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&fine).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (r *FineRepository) ListByClient(ctx context.Context, clientID uint, state domain.FineState) ([]models.Fine, error) {
	var fines []models.Fine
	query := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	if state != "" {
		query = query.Where("state = ?", state)
	}
	err := query.Order("id ASC").Find(&fines).Error
	return fines, err
}

// ============================================================
// Cash sessions & payments
// ============================================================

// CashRepository handles cash desk rows
type CashRepository struct {
	db *gorm.DB
}

// NewCashRepository creates a new cash repository
func NewCashRepository(db *gorm.DB) *CashRepository {
	return &CashRepository{db: db}
}

func (r *CashRepository) CreateSession(ctx context.Context, session *models.CashSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *CashRepository) SaveSession(ctx context.Context, session *models.CashSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *CashRepository) GetSession(ctx context.Context, id uint) (*models.CashSession, error) {
	var session models.CashSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound, "session %d", id)
	}
	return &session, nil
}

func (r *CashRepository) LockSession(ctx context.Context, id uint) (*models.CashSession, error) {
	var session models.CashSession
	if err := forUpdate(r.db.WithContext(ctx)).First(&session, id).Error; err != nil {
		return nil, notFound(err, domain.ErrSessionNotFound, "session %d", id)
	}
	return &session, nil
}

// FindOpenByCashier returns nil, nil when the cashier has no open session
func (r *CashRepository) FindOpenByCashier(ctx context.Context, cashierID uint) (*models.CashSession, error) {
	var session models.CashSession
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND state = ?", cashierID, domain.CashSessionOpen).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *CashRepository) CreatePayment(ctx context.Context, payment *models.FinePayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *CashRepository) ListPayments(ctx context.Context, sessionID uint) ([]models.FinePayment, error) {
	var payments []models.FinePayment
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&payments).Error
	return payments, err
}
