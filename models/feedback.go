package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is a public rating left by a visitor or patient
type Feedback struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UUID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_feedbacks_uuid" json:"uuid"`
	Name    string    `gorm:"size:255;not null" json:"name"`
	Email   *string   `gorm:"size:255" json:"email,omitempty"`
	Rating  int       `gorm:"not null;check:chk_feedbacks_rating,rating BETWEEN 1 AND 5;index:idx_feedbacks_rating" json:"rating"`
	Comment *string   `gorm:"type:text" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_feedbacks_created_at" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.UUID == uuid.Nil {
		f.UUID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = utils.UTCNow()
	}
	return nil
}

type FeedbackFilter struct {
	ID        *uint
	UUID      *uuid.UUID
	MinRating *int
}
