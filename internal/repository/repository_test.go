package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/farellandr/homestay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	tm := repository.NewTxManager(db)
	users := repository.NewUserRepository(db)
	homestays := repository.NewHomestayRepository(db)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleAdmin)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := homestays.Create(txCtx, &models.Homestay{OwnerID: owner.ID, Name: "A", Address: "x", Price: 1, Capacity: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, total, err := homestays.Search(ctx, repository.HomestayFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	err = tm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := homestays.FindForUpdate(txCtx, owner.ID); !errors.Is(err, repository.ErrNotFound) {
			return errors.New("expected not found")
		}
		_, err := users.FindUser(txCtx, owner.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()
	created := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	u, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.True(t, u.IsAdmin())

	require.NoError(t, users.UpdateProfile(ctx, u.ID, "Lan", "Nguyen", "0900000000"))
	u, err = users.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lan Nguyen", u.FullName())

	role, err := users.FindRole(ctx, models.RoleUser)
	require.NoError(t, err)
	dup := &models.User{Email: "admin@example.com", Password: "x", FirstName: "x", LastName: "y", RoleID: role.ID}
	assert.Error(t, users.Create(ctx, dup))

	_, err = users.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHomestaySearch(t *testing.T) {
	db := testutil.NewDB(t)
	homestays := repository.NewHomestayRepository(db)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleAdmin)
	ctx := context.Background()

	for _, h := range []models.Homestay{
		{Name: "Pine", Address: "1 Hill", Location: "Da Lat", Price: 500_000, Capacity: 2},
		{Name: "Sea", Address: "2 Beach", Location: "Nha Trang", Price: 1_200_000, Capacity: 6},
		{Name: "Mist", Address: "3 Valley", Location: "Da Lat", Price: 900_000, Capacity: 4, Status: models.HomestayMaintenance},
	} {
		h := h
		h.OwnerID = owner.ID
		require.NoError(t, homestays.Create(ctx, &h))
	}

	list, total, err := homestays.Search(ctx, repository.HomestayFilter{Location: "Da Lat"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	maxPrice := int64(1_000_000)
	_, total, err = homestays.Search(ctx, repository.HomestayFilter{MaxPrice: &maxPrice, MinCapacity: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	other := testutil.CreateUser(t, db, "other@example.com", models.RoleAdmin)
	testutil.CreateHomestay(t, db, other.ID, 300_000, 2)
	owned, total, err := homestays.Search(ctx, repository.HomestayFilter{OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, h := range owned {
		assert.Equal(t, owner.ID, h.OwnerID)
	}

	list, total, err = homestays.Search(ctx, repository.HomestayFilter{Status: models.HomestayActive, OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, h := range list {
		assert.True(t, h.IsActive())
	}

	require.NoError(t, homestays.Delete(ctx, list[0].ID))
	_, err = homestays.FindHomestay(ctx, list[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, homestays.Delete(ctx, list[0].ID), repository.ErrNotFound)
}

func TestReviewRepository(t *testing.T) {
	db := testutil.NewDB(t)
	reviews := repository.NewReviewRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleAdmin)
	guest := testutil.CreateUser(t, db, "guest@example.com", models.RoleUser)
	homestay := testutil.CreateHomestay(t, db, owner.ID, 500_000, 2)

	avg, err := reviews.AverageRating(ctx, homestay.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	require.NoError(t, reviews.Create(ctx, &models.Review{UserID: guest.ID, HomestayID: homestay.ID, Rating: 4, Comment: "Nice"}))
	require.NoError(t, reviews.Create(ctx, &models.Review{UserID: owner.ID, HomestayID: homestay.ID, Rating: 5}))

	exists, err := reviews.Exists(ctx, guest.ID, homestay.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	avg, err = reviews.AverageRating(ctx, homestay.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)

	list, total, err := reviews.ListByHomestay(ctx, homestay.ID, repository.ReviewFilter{MaxRating: 4, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, guest.Email, list[0].User.Email)
}
