package config

import (
	"log"
	"os"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/pkg/password"

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

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedSuperadmin(); err != nil {
		log.Printf("⚠️ Superadmin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedSuperadmin seeds the bootstrap superadmin when none exists.
// Credentials come from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD; the dev
// defaults must be rotated before any real deployment.
func (s *Seeder) seedSuperadmin() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "superadmin").Count(&count)
	if count > 0 {
		return nil // superadmin already exists
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@volunteerhub.local"
	}
	plain := os.Getenv("SEED_ADMIN_PASSWORD")
	if plain == "" {
		plain = "admin123456"
	}

	hashedPassword, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "Portal Admin",
		Email:    email,
		Password: hashedPassword,
		Role:     "superadmin",
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Superadmin user created: %s", admin.Email)
	return nil
}
