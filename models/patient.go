package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Patient genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type Patient struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_patients_uuid" json:"uuid"`

	FirstName    string         `gorm:"size:255;not null" json:"first_name"`
	LastName     string         `gorm:"size:255;not null;index:idx_patients_last_name" json:"last_name"`
	Mobile       string         `gorm:"size:20;not null;uniqueIndex:uk_patients_mobile" json:"mobile"`
	Email        *string        `gorm:"size:255;index:idx_patients_email" json:"email,omitempty"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	Gender       *string        `gorm:"size:10" json:"gender,omitempty"`
	Address      *string        `gorm:"type:text" json:"address,omitempty"`
	MedicalNotes *string        `gorm:"type:text" json:"medical_notes,omitempty"`
	Allergies    pq.StringArray `gorm:"type:text[]" json:"allergies"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_patients_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// FullName returns first and last name joined by a space
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PatientFilter represents filter criteria for patient queries
type PatientFilter struct {
	ID     *uint
	UUID   *uuid.UUID
	Mobile *string
	Email  *string
	Search *string // matches first name, last name or mobile
}
