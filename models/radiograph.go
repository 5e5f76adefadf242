package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Radiograph kinds
const (
	RadiographKindPeriapical = "periapical"
	RadiographKindBitewing   = "bitewing"
	RadiographKindPanoramic  = "panoramic"
	RadiographKindOther      = "other"
)

// Radiograph is an x-ray image uploaded for a patient and stored on disk.
type Radiograph struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID             uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_radiographs_uuid;not null" json:"uuid"`
	PatientID        uint      `gorm:"not null;index:idx_radiographs_patient_id" json:"patient_id"`
	Kind             string    `gorm:"type:varchar(20);not null;default:'other'" json:"kind"`
	OriginalFilename string    `gorm:"type:varchar(255);not null" json:"original_filename"`
	StoredPath       string    `gorm:"type:text;not null" json:"-"`
	SizeBytes        int64     `gorm:"type:bigint;not null" json:"size_bytes"`
	MimeType         string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	Width            int       `gorm:"not null;default:0" json:"width"`
	Height           int       `gorm:"not null;default:0" json:"height"`

	TakenAt   *time.Time `json:"taken_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	Patient *Patient `gorm:"foreignKey:PatientID;references:ID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
}

func (Radiograph) TableName() string { return "radiographs" }

func (r *Radiograph) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Kind == "" {
		r.Kind = RadiographKindOther
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

type RadiographFilter struct {
	ID        *uint      `json:"id,omitempty"`
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	PatientID *uint      `json:"patient_id,omitempty"`
	Kind      *string    `json:"kind,omitempty"`
}
