package config

import (
	"errors"
	"fmt"

	"github.com/farellandr/homestay/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const overlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
		EXCLUDE USING gist (
			homestay_id WITH =,
			daterange(check_in_date, check_out_date, '[)') WITH &&
		) WHERE (status IN ('pending', 'confirmed', 'payment_pending', 'rented'));
	END IF;
END $$;`

// Migrate creates the schema. On PostgreSQL it also installs the exclusion
// constraint that rejects overlapping active bookings for one homestay.
func Migrate(db *gorm.DB) error {
	postgres := db.Dialector.Name() == "postgres"

	if postgres {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
			return fmt.Errorf("enable btree_gist: %w", err)
		}
	}

	err := db.AutoMigrate(&models.Role{}, &models.User{}, &models.Homestay{}, &models.Booking{}, &models.Review{})
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if postgres {
		if err := db.Exec(overlapConstraint).Error; err != nil {
			return fmt.Errorf("add overlap constraint: %w", err)
		}
	}

	return nil
}

func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{models.RoleUser, models.RoleAdmin} {
		role := models.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// SeedAdmin creates the admin account from configuration when a seed
// password is set and no user with that email exists yet.
func SeedAdmin(db *gorm.DB, admin Admin) error {
	if admin.SeedPassword == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var role models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("load admin role: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Create(&models.User{
		Email:         admin.Email,
		Password:      string(hashed),
		FirstName:     "Admin",
		EmailVerified: true,
		RoleID:        role.ID,
	}).Error
}
