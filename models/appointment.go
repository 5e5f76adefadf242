package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusNoShow    = "no_show"
)

type Appointment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_appointments_uuid" json:"uuid"`
	PatientID uint      `gorm:"not null;index:idx_appointments_patient_id" json:"patient_id"`

	DentistName     string    `gorm:"size:255;not null;index:idx_appointments_dentist_scheduled,priority:1" json:"dentist_name"`
	Treatment       string    `gorm:"size:255;not null" json:"treatment"`
	ScheduledAt     time.Time `gorm:"not null;index:idx_appointments_dentist_scheduled,priority:2;index:idx_appointments_scheduled_at" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null;default:30" json:"duration_minutes"`
	Status          string    `gorm:"size:20;not null;default:'scheduled';index:idx_appointments_status" json:"status"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Patient *Patient `gorm:"foreignKey:PatientID;references:ID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// EndsAt returns the end of the appointment slot
func (a Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the slot [start, end) intersects this appointment
func (a Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndsAt()) && a.ScheduledAt.Before(end)
}

// AppointmentFilter represents filter criteria for appointment queries
type AppointmentFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	PatientID       *uint
	DentistName     *string
	Status          *string
	ScheduledAfter  *time.Time
	ScheduledBefore *time.Time
	// ReminderPending selects appointments whose reminder has not gone out yet
	ReminderPending *bool
}
