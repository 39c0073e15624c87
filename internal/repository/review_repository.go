package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/farellandr/homestay/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewFilter struct {
	MinRating int
	MaxRating int
	Page      int
	Limit     int
}

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := conn(ctx, r.db).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", translate(err))
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := conn(ctx, r.db).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (r *ReviewRepository) Exists(ctx context.Context, userID, homestayID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Review{}).
		Where("user_id = ? AND homestay_id = ?", userID, homestayID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return count > 0, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *models.Review) error {
	if err := conn(ctx, r.db).Save(review).Error; err != nil {
		return fmt.Errorf("save review: %w", translate(err))
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) ListByHomestay(ctx context.Context, homestayID uuid.UUID, f ReviewFilter) ([]models.Review, int64, error) {
	q := conn(ctx, r.db).Model(&models.Review{}).Where("homestay_id = ?", homestayID)
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}
	if f.MaxRating > 0 {
		q = q.Where("rating <= ?", f.MaxRating)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var reviews []models.Review
	err := q.Scopes(paginate(f.Page, f.Limit)).
		Preload("User").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// AverageRating returns 0 when the homestay has no reviews.
func (r *ReviewRepository) AverageRating(ctx context.Context, homestayID uuid.UUID) (float64, error) {
	var avg sql.NullFloat64
	err := conn(ctx, r.db).Model(&models.Review{}).
		Select("AVG(rating)").
		Where("homestay_id = ?", homestayID).
		Row().Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg.Float64, nil
}
