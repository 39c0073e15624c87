package repository

import (
	"context"
	"fmt"

	"github.com/farellandr/homestay/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HomestayFilter struct {
	Location    string
	MinPrice    *int64
	MaxPrice    *int64
	MinCapacity int
	OwnerID     *uuid.UUID
	Status      models.HomestayStatus
	Page        int
	Limit       int
}

type HomestayRepository struct {
	db *gorm.DB
}

func NewHomestayRepository(db *gorm.DB) *HomestayRepository {
	return &HomestayRepository{db: db}
}

func (r *HomestayRepository) Create(ctx context.Context, homestay *models.Homestay) error {
	if err := conn(ctx, r.db).Create(homestay).Error; err != nil {
		return fmt.Errorf("create homestay: %w", translate(err))
	}
	return nil
}

func (r *HomestayRepository) FindHomestay(ctx context.Context, id uuid.UUID) (*models.Homestay, error) {
	var homestay models.Homestay
	if err := conn(ctx, r.db).First(&homestay, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &homestay, nil
}

// FindForUpdate loads the homestay and row-locks it until the surrounding
// transaction ends. Booking creation for one homestay is serialized on it.
func (r *HomestayRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Homestay, error) {
	var homestay models.Homestay
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&homestay, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &homestay, nil
}

func (r *HomestayRepository) Update(ctx context.Context, homestay *models.Homestay) error {
	if err := conn(ctx, r.db).Save(homestay).Error; err != nil {
		return fmt.Errorf("update homestay: %w", translate(err))
	}
	return nil
}

func (r *HomestayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&models.Homestay{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete homestay: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *HomestayRepository) Search(ctx context.Context, f HomestayFilter) ([]models.Homestay, int64, error) {
	q := conn(ctx, r.db).Model(&models.Homestay{})
	if f.Location != "" {
		like := "%" + f.Location + "%"
		q = q.Where("(location LIKE ? OR address LIKE ?)", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinCapacity > 0 {
		q = q.Where("capacity >= ?", f.MinCapacity)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count homestays: %w", err)
	}

	var homestays []models.Homestay
	if err := q.Scopes(paginate(f.Page, f.Limit)).Order("created_at DESC").Find(&homestays).Error; err != nil {
		return nil, 0, fmt.Errorf("list homestays: %w", err)
	}
	return homestays, total, nil
}
