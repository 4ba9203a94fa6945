package models

import (
	"time"

	"library-loanhub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Staff accounts
// ============================================================

// User represents users table (librarians, cashiers, admins)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	FullName  string         `gorm:"size:150;not null" json:"full_name"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      domain.Role    `gorm:"size:20;not null" json:"role"`
	IsActive  bool           `gorm:"not null" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
	IsActive bool        `json:"is_active"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

// ============================================================
// Catalog
// ============================================================

// Book is a catalog title; its row doubles as the per-title queue lock
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ISBN      string    `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Author    string    `gorm:"size:150" json:"author"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// Copy is one physical item of a Book. Copies are never deleted; a
// deactivated copy keeps its history but cannot circulate.
type Copy struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	BookID    uint             `gorm:"index;not null" json:"book_id"`
	Barcode   string           `gorm:"uniqueIndex;size:50;not null" json:"barcode"`
	State     domain.CopyState `gorm:"size:16;index;not null" json:"state"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Copy) TableName() string {
	return "copies"
}

// Client is a library patron
type Client struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CardNumber string    `gorm:"uniqueIndex;size:30;not null" json:"card_number"`
	FullName   string    `gorm:"size:150;not null" json:"full_name"`
	Email      string    `gorm:"size:100" json:"email"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	IsBlocked  bool      `gorm:"not null" json:"is_blocked"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// CanBorrow reports whether the patron account is in good standing
func (c *Client) CanBorrow() bool {
	return c.IsActive && !c.IsBlocked
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		// catalog
		&Book{},
		&Copy{},
		&Client{},
		// circulation
		&Loan{},
		&Reservation{},
		&Fine{},
		// cash desk
		&CashSession{},
		&FinePayment{},
	)
}
