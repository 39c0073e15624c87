package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Exists(ctx context.Context, userID, homestayID uuid.UUID) (bool, error)
	Save(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByHomestay(ctx context.Context, homestayID uuid.UUID, f repository.ReviewFilter) ([]models.Review, int64, error)
	AverageRating(ctx context.Context, homestayID uuid.UUID) (float64, error)
}

type ReviewList struct {
	Page[models.Review]
	AverageRating float64 `json:"average_rating"`
}

type ReviewService struct {
	reviews   ReviewStore
	homestays HomestayCatalog
	log       *logrus.Logger
	now       func() time.Time
}

func NewReviewService(reviews ReviewStore, homestays HomestayCatalog, log *logrus.Logger) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		homestays: homestays,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create adds the user's single review of a homestay.
func (s *ReviewService) Create(ctx context.Context, userID, homestayID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.homestays.FindHomestay(ctx, homestayID); err != nil {
		return nil, lookupErr(err, "homestay")
	}

	exists, err := s.reviews.Exists(ctx, userID, homestayID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("review", "you have already reviewed this homestay")
	}

	review := &models.Review{
		UserID:     userID,
		HomestayID: homestayID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("review", "you have already reviewed this homestay")
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"review_id": review.ID, "homestay_id": homestayID}).Info("review created")
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id uuid.UUID, rating int, comment string) (*models.Review, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "review")
	}
	if review.UserID != actor.ID {
		return nil, forbidden("you can only edit your own review")
	}

	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	if err := s.reviews.Save(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "review")
	}
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return forbidden("you can only delete your own review")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return lookupErr(err, "review")
	}
	return nil
}

// Respond sets the host response shown under a review. Only the homestay's
// owner or an admin may respond.
func (s *ReviewService) Respond(ctx context.Context, actor Actor, id uuid.UUID, response string) (*models.Review, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, invalidInput("response", "response is required")
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "review")
	}
	homestay, err := s.homestays.FindHomestay(ctx, review.HomestayID)
	if err != nil {
		return nil, lookupErr(err, "homestay")
	}
	if homestay.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, forbidden("only the host can respond to this review")
	}

	now := s.now()
	review.Response = &response
	review.RespondedAt = &now
	if err := s.reviews.Save(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, homestayID uuid.UUID, f repository.ReviewFilter) (*ReviewList, error) {
	if _, err := s.homestays.FindHomestay(ctx, homestayID); err != nil {
		return nil, lookupErr(err, "homestay")
	}
	reviews, total, err := s.reviews.ListByHomestay(ctx, homestayID, f)
	if err != nil {
		return nil, err
	}
	avg, err := s.reviews.AverageRating(ctx, homestayID)
	if err != nil {
		return nil, err
	}
	return &ReviewList{Page: newPage(reviews, total, f.Page, f.Limit), AverageRating: avg}, nil
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalidInput("rating", "rating must be between 1 and 5")
	}
	return nil
}
