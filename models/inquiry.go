package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InquiryStatusOpen     = "open"
	InquiryStatusAnswered = "answered"
)

// Inquiry is a contact-form question submitted from the public site
type Inquiry struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UUID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_inquiries_uuid" json:"uuid"`
	Name    string    `gorm:"size:255;not null" json:"name"`
	Email   string    `gorm:"size:255;not null" json:"email"`
	Phone   *string   `gorm:"size:20" json:"phone,omitempty"`
	Subject string    `gorm:"size:255;not null" json:"subject"`
	Message string    `gorm:"type:text;not null" json:"message"`

	Status     string     `gorm:"size:20;not null;default:'open';index:idx_inquiries_status" json:"status"`
	Response   *string    `gorm:"type:text" json:"response,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_inquiries_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}

func (q *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.Status == "" {
		q.Status = InquiryStatusOpen
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// InquiryFilter represents filter criteria for inquiry queries
type InquiryFilter struct {
	ID     *uint
	UUID   *uuid.UUID
	Status *string
}
