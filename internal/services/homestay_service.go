package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type HomestayStore interface {
	Create(ctx context.Context, homestay *models.Homestay) error
	FindHomestay(ctx context.Context, id uuid.UUID) (*models.Homestay, error)
	Update(ctx context.Context, homestay *models.Homestay) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f repository.HomestayFilter) ([]models.Homestay, int64, error)
}

type HomestayInput struct {
	Name               string
	Address            string
	Location           string
	Description        string
	Price              int64
	Capacity           int
	CancellationPolicy string
	Status             models.HomestayStatus
}

type HomestayAvailability struct {
	HomestayID   uuid.UUID `json:"homestay_id"`
	CheckInDate  string    `json:"check_in_date"`
	CheckOutDate string    `json:"check_out_date"`
	Available    bool      `json:"available"`
}

type HomestayService struct {
	homestays    HomestayStore
	availability *AvailabilityChecker
	log          *logrus.Logger
}

func NewHomestayService(homestays HomestayStore, availability *AvailabilityChecker, log *logrus.Logger) *HomestayService {
	return &HomestayService{homestays: homestays, availability: availability, log: log}
}

func (s *HomestayService) Create(ctx context.Context, ownerID uuid.UUID, in HomestayInput) (*models.Homestay, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	homestay := &models.Homestay{OwnerID: ownerID}
	in.apply(homestay)
	if err := s.homestays.Create(ctx, homestay); err != nil {
		return nil, err
	}
	s.log.WithField("homestay_id", homestay.ID).Info("homestay created")
	return homestay, nil
}

func (s *HomestayService) Update(ctx context.Context, id uuid.UUID, in HomestayInput) (*models.Homestay, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	homestay, err := s.homestays.FindHomestay(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "homestay")
	}
	in.apply(homestay)
	if err := s.homestays.Update(ctx, homestay); err != nil {
		return nil, err
	}
	return homestay, nil
}

func (s *HomestayService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.homestays.Delete(ctx, id); err != nil {
		return lookupErr(err, "homestay")
	}
	s.log.WithField("homestay_id", id).Info("homestay deleted")
	return nil
}

func (s *HomestayService) Get(ctx context.Context, id uuid.UUID) (*models.Homestay, error) {
	homestay, err := s.homestays.FindHomestay(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "homestay")
	}
	return homestay, nil
}

// Search lists homestays. Only active listings are returned unless the
// filter asks for a status.
func (s *HomestayService) Search(ctx context.Context, f repository.HomestayFilter) (Page[models.Homestay], error) {
	if f.Status == "" {
		f.Status = models.HomestayActive
	} else if !f.Status.Valid() {
		return Page[models.Homestay]{}, invalidInput("status", fmt.Sprintf("unknown homestay status %q", f.Status))
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return Page[models.Homestay]{}, invalidInput("price", "minimum price exceeds maximum price")
	}

	homestays, total, err := s.homestays.Search(ctx, f)
	if err != nil {
		return Page[models.Homestay]{}, err
	}
	return newPage(homestays, total, f.Page, f.Limit), nil
}

// ListOwned lists the owner's homestays in every status unless one is given.
func (s *HomestayService) ListOwned(ctx context.Context, ownerID uuid.UUID, status models.HomestayStatus, page, limit int) (Page[models.Homestay], error) {
	if status != "" && !status.Valid() {
		return Page[models.Homestay]{}, invalidInput("status", fmt.Sprintf("unknown homestay status %q", status))
	}
	homestays, total, err := s.homestays.Search(ctx, repository.HomestayFilter{
		OwnerID: &ownerID,
		Status:  status,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return Page[models.Homestay]{}, err
	}
	return newPage(homestays, total, page, limit), nil
}

func (s *HomestayService) Availability(ctx context.Context, id uuid.UUID, checkIn, checkOut time.Time) (*HomestayAvailability, error) {
	homestay, err := s.homestays.FindHomestay(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "homestay")
	}
	available, err := s.availability.IsAvailable(ctx, homestay.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return &HomestayAvailability{
		HomestayID:   homestay.ID,
		CheckInDate:  dateOnly(checkIn).Format("2006-01-02"),
		CheckOutDate: dateOnly(checkOut).Format("2006-01-02"),
		Available:    available && homestay.IsActive(),
	}, nil
}

func (in HomestayInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalidInput("name", "name is required")
	case strings.TrimSpace(in.Address) == "":
		return invalidInput("address", "address is required")
	case in.Price <= 0:
		return invalidInput("price", "price must be positive")
	case in.Capacity <= 0:
		return invalidInput("capacity", "capacity must be positive")
	case in.Status != "" && !in.Status.Valid():
		return invalidInput("status", fmt.Sprintf("unknown homestay status %q", in.Status))
	}
	return nil
}

func (in HomestayInput) apply(h *models.Homestay) {
	h.Name = strings.TrimSpace(in.Name)
	h.Address = strings.TrimSpace(in.Address)
	h.Location = strings.TrimSpace(in.Location)
	h.Description = in.Description
	h.Price = in.Price
	h.Capacity = in.Capacity
	h.CancellationPolicy = in.CancellationPolicy
	if in.Status != "" {
		h.Status = in.Status
	}
}
