package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_homestay" json:"user_id"`
	User        *User      `json:"user,omitempty"`
	HomestayID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_homestay;index" json:"homestay_id"`
	Rating      int        `gorm:"not null" json:"rating"`
	Comment     string     `gorm:"type:text" json:"comment"`
	Response    *string    `gorm:"type:text" json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (review *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return
}
