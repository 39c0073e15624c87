package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HomestayStatus string

const (
	HomestayActive      HomestayStatus = "active"
	HomestayInactive    HomestayStatus = "inactive"
	HomestayMaintenance HomestayStatus = "maintenance"
)

func (s HomestayStatus) Valid() bool {
	switch s {
	case HomestayActive, HomestayInactive, HomestayMaintenance:
		return true
	}
	return false
}

// Homestay prices are whole currency units per night.
type Homestay struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name               string         `gorm:"size:100;not null" json:"name"`
	Address            string         `gorm:"type:text;not null" json:"address"`
	Location           string         `gorm:"size:100;index" json:"location"`
	Description        string         `gorm:"type:text" json:"description"`
	Price              int64          `gorm:"not null" json:"price"`
	Capacity           int            `gorm:"not null" json:"capacity"`
	CancellationPolicy string         `gorm:"type:text" json:"cancellation_policy,omitempty"`
	Status             HomestayStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (homestay *Homestay) BeforeCreate(tx *gorm.DB) (err error) {
	if homestay.ID == uuid.Nil {
		homestay.ID = uuid.New()
	}
	if homestay.Status == "" {
		homestay.Status = HomestayActive
	}
	return
}

func (homestay *Homestay) IsActive() bool {
	return homestay.Status == HomestayActive
}
