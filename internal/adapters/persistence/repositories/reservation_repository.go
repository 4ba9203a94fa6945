package repositories

import (
	"context"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"

	"gorm.io/gorm"
)

// ReservationRepository handles reservation queue rows
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *ReservationRepository) Save(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, notFound(err, domain.ErrReservationNotFound, "reservation %d", id)
	}
	return &res, nil
}

func (r *ReservationRepository) Lock(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := forUpdate(r.db.WithContext(ctx)).First(&res, id).Error; err != nil {
		return nil, notFound(err, domain.ErrReservationNotFound, "reservation %d", id)
	}
	return &res, nil
}

// ============================================================
// Queue queries (callers hold the book lock)
// ============================================================

// ListPending returns the PENDING queue of a book in position order
func (r *ReservationRepository) ListPending(ctx context.Context, bookID uint) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND state = ?", bookID, domain.ReservationPending).
		Order("queue_position ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *ReservationRepository) CountPending(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("book_id = ? AND state = ?", bookID, domain.ReservationPending).
		Count(&count).Error
	return count, err
}

// FindPendingByClientBook returns nil, nil when the client is not queued
func (r *ReservationRepository) FindPendingByClientBook(ctx context.Context, clientID, bookID uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND book_id = ? AND state = ?", clientID, bookID, domain.ReservationPending).
		First(&res).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// NextWaiting returns the lowest-position PENDING reservation with no held
// copy, or nil, nil
func (r *ReservationRepository) NextWaiting(ctx context.Context, bookID uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND state = ? AND held_copy_id IS NULL", bookID, domain.ReservationPending).
		Order("queue_position ASC, id ASC").
		First(&res).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindHolding returns the PENDING reservation a copy is held for, or nil, nil
func (r *ReservationRepository) FindHolding(ctx context.Context, copyID uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Where("held_copy_id = ? AND state = ?", copyID, domain.ReservationPending).
		First(&res).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListHolding returns every PENDING reservation that holds a copy
func (r *ReservationRepository) ListHolding(ctx context.Context) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("state = ? AND held_copy_id IS NOT NULL", domain.ReservationPending).
		Order("pickup_deadline ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *ReservationRepository) ListByClient(ctx context.Context, clientID uint) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *ReservationRepository) UpdatePosition(ctx context.Context, id uint, position int) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("queue_position", position).Error
}
