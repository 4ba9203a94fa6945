package config

import (
	"fmt"
	"log"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

type staffSeed struct {
	username string
	fullName string
	password string
	role     domain.Role
}

type bookSeed struct {
	isbn   string
	title  string
	author string
	copies int
}

// Development accounts. Production staff are created through a secure process.
var defaultStaff = []staffSeed{
	{"admin", "System Administrator", "admin123456", domain.RoleAdmin},
	{"librarian", "Front Desk Librarian", "librarian123", domain.RoleLibrarian},
	{"cashier", "Fines Desk Cashier", "cashier12345", domain.RoleCashier},
}

var demoBooks = []bookSeed{
	{"9780134190440", "The Go Programming Language", "Alan Donovan, Brian Kernighan", 3},
	{"9781617293726", "Concurrency in Go", "Katherine Cox-Buday", 2},
	{"9780262033848", "Introduction to Algorithms", "Cormen, Leiserson, Rivest, Stein", 1},
	{"9780131103627", "The C Programming Language", "Brian Kernighan, Dennis Ritchie", 2},
}

var demoClients = []models.Client{
	{CardNumber: "P-0001", FullName: "Ada Lovelace", Email: "ada@example.org", IsActive: true},
	{CardNumber: "P-0002", FullName: "Alan Turing", Email: "alan@example.org", IsActive: true},
	{CardNumber: "P-0003", FullName: "Grace Hopper", Email: "grace@example.org", IsActive: true},
	{CardNumber: "P-0004", FullName: "Blocked Patron", Email: "blocked@example.org", IsActive: true, IsBlocked: true},
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedStaff(); err != nil {
		return fmt.Errorf("staff seeder: %w", err)
	}
	if err := s.seedCatalog(); err != nil {
		return fmt.Errorf("catalog seeder: %w", err)
	}
	if err := s.seedClients(); err != nil {
		return fmt.Errorf("client seeder: %w", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedStaff creates the development staff accounts that do not exist yet
func (s *Seeder) seedStaff() error {
	for _, seed := range defaultStaff {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", seed.username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hashed, err := password.Hash(seed.password)
		if err != nil {
			return err
		}
		user := &models.User{
			Username: seed.username,
			FullName: seed.fullName,
			Password: hashed,
			Role:     seed.role,
			IsActive: true,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("✅ Staff user created: %s (%s)", user.Username, user.Role)
	}
	return nil
}

// seedCatalog adds demo titles with barcoded copies, once
func (s *Seeder) seedCatalog() error {
	var count int64
	if err := s.db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range demoBooks {
			book := &models.Book{ISBN: seed.isbn, Title: seed.title, Author: seed.author, IsActive: true}
			if err := tx.Create(book).Error; err != nil {
				return err
			}
			for i := 1; i <= seed.copies; i++ {
				item := &models.Copy{
					BookID:   book.ID,
					Barcode:  fmt.Sprintf("BC-%s-%02d", seed.isbn[len(seed.isbn)-4:], i),
					State:    domain.CopyAvailable,
					IsActive: true,
				}
				if err := tx.Create(item).Error; err != nil {
					return err
				}
			}
		}
		log.Printf("✅ Seeded %d demo titles", len(demoBooks))
		return nil
	})
}

// seedClients adds demo patrons, once
func (s *Seeder) seedClients() error {
	var count int64
	if err := s.db.Model(&models.Client{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	clients := make([]models.Client, len(demoClients))
	copy(clients, demoClients)
	if err := s.db.Create(&clients).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded %d demo patrons", len(clients))
	return nil
}
