// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/farellandr/homestay/config"
	"github.com/farellandr/homestay/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema and roles.
// The pool holds a single connection, so transactions from concurrent
// goroutines run one after another.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.SeedRoles(db))
	return db
}

// CreateUser inserts a user with the given role and the password "password".
func CreateUser(t testing.TB, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	var r models.Role
	require.NoError(t, db.Where("name = ?", role).First(&r).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:         email,
		Password:      string(hashed),
		FirstName:     "Test",
		LastName:      "User",
		EmailVerified: true,
		RoleID:        r.ID,
	}
	require.NoError(t, db.Create(user).Error)
	user.Role = r
	return user
}

func CreateHomestay(t testing.TB, db *gorm.DB, ownerID uuid.UUID, price int64, capacity int) *models.Homestay {
	t.Helper()

	homestay := &models.Homestay{
		OwnerID:  ownerID,
		Name:     "Sunrise Homestay",
		Address:  "12 Tran Phu, Da Lat",
		Location: "Da Lat",
		Price:    price,
		Capacity: capacity,
		Status:   models.HomestayActive,
	}
	require.NoError(t, db.Create(homestay).Error)
	return homestay
}
