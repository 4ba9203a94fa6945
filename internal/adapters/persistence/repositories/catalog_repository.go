package repositories

import (
	"context"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Books
// ============================================================

// BookRepository handles book rows
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, notFound(err, domain.ErrBookNotFound, "book %d", id)
	}
	return &book, nil
}

// GetByISBN returns nil, nil when no book matches
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Lock takes the per-book row lock that serializes queue and copy changes.
func (r *BookRepository) Lock(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := forUpdate(r.db.WithContext(ctx)).First(&book, id).Error; err != nil {
		return nil, notFound(err, domain.ErrBookNotFound, "book %d", id)
	}
	return &book, nil
}

// SetActive withdraws a title from the catalog or restores it
func (r *BookRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Update("is_active", active).Error
}

// ============================================================
// Copies
// ============================================================

// CopyRepository handles copy rows
type CopyRepository struct {
	db *gorm.DB
}

// NewCopyRepository creates a new copy repository
func NewCopyRepository(db *gorm.DB) *CopyRepository {
	return &CopyRepository{db: db}
}

func (r *CopyRepository) Create(ctx context.Context, item *models.Copy) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CopyRepository) GetByID(ctx context.Context, id uint) (*models.Copy, error) {
	var item models.Copy
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, domain.ErrCopyNotFound, "copy %d", id)
	}
	return &item, nil
}

func (r *CopyRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	var item models.Copy
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&item).Error; err != nil {
		return nil, notFound(err, domain.ErrCopyNotFound, "barcode %q", barcode)
	}
	return &item, nil
}

func (r *CopyRepository) Lock(ctx context.Context, id uint) (*models.Copy, error) {
	var item models.Copy
	if err := forUpdate(r.db.WithContext(ctx)).First(&item, id).Error; err != nil {
		return nil, notFound(err, domain.ErrCopyNotFound, "copy %d", id)
	}
	return &item, nil
}

// ResolveBookIDForCopy returns the title a copy belongs to
func (r *CopyRepository) ResolveBookIDForCopy(ctx context.Context, copyID uint) (uint, error) {
	item, err := r.GetByID(ctx, copyID)
	if err != nil {
		return 0, err
	}
	return item.BookID, nil
}

// ListActiveByBookAndState returns the active copies of a book in the given
// state, oldest first
func (r *CopyRepository) ListActiveByBookAndState(ctx context.Context, bookID uint, state domain.CopyState) ([]models.Copy, error) {
	var copies []models.Copy
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND state = ? AND is_active = ?", bookID, state, true).
		Order("id ASC").
		Find(&copies).Error
	return copies, err
}

// SetActive soft-deactivates or restores a copy
func (r *CopyRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Copy{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *CopyRepository) UpdateState(ctx context.Context, id uint, state domain.CopyState) error {
	return r.db.WithContext(ctx).Model(&models.Copy{}).Where("id = ?", id).Update("state", state).Error
}

func (r *CopyRepository) CountByState(ctx context.Context) (map[domain.CopyState]int64, error) {
	var rows []struct {
		State domain.CopyState
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.Copy{}).
		Select("state, COUNT(*) AS total").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.CopyState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}

// ============================================================
// Clients
// ============================================================

// ClientRepository handles patron rows and answers eligibility questions
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, notFound(err, domain.ErrClientNotFound, "client %d", id)
	}
	return &client, nil
}

// GetByCardNumber returns nil, nil when no client matches
func (r *ClientRepository) GetByCardNumber(ctx context.Context, card string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("card_number = ?", card).First(&client).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) IsActiveAndUnblocked(ctx context.Context, clientID uint) (bool, error) {
	client, err := r.GetByID(ctx, clientID)
	if err != nil {
		return false, err
	}
	return client.CanBorrow(), nil
}

// TotalPendingFines sums what the client still owes on PENDING fines
func (r *ClientRepository) TotalPendingFines(ctx context.Context, clientID uint) (decimal.Decimal, error) {
	var fines []models.Fine
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND state = ?", clientID, domain.FinePending).
		Find(&fines).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range fines {
		total = total.Add(fines[i].Outstanding())
	}
	return total, nil
}
