package repository_test

import (
	"context"
	"testing"

	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunPostgres builds statements with the postgres dialect without a
// server and returns every query SQL it would have sent.
func dryRunPostgres(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=homestay dbname=homestay sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var statements []string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}))
	return db, &statements
}

func TestFindForUpdateLocksHomestayRow(t *testing.T) {
	db, statements := dryRunPostgres(t)
	homestays := repository.NewHomestayRepository(db)

	_, err := homestays.FindForUpdate(context.Background(), uuid.New())
	if err != nil {
		require.ErrorIs(t, err, repository.ErrNotFound)
	}

	require.Len(t, *statements, 1)
	assert.Contains(t, (*statements)[0], `FROM "homestays"`)
	assert.Contains(t, (*statements)[0], "FOR UPDATE")
}

func TestFindHomestayDoesNotLock(t *testing.T) {
	db, statements := dryRunPostgres(t)
	homestays := repository.NewHomestayRepository(db)

	_, err := homestays.FindHomestay(context.Background(), uuid.New())
	if err != nil {
		require.ErrorIs(t, err, repository.ErrNotFound)
	}

	require.Len(t, *statements, 1)
	assert.NotContains(t, (*statements)[0], "FOR UPDATE")
}
