package dto

import "time"

// CreateAppointmentRequest books a slot for a patient
type CreateAppointmentRequest struct {
	PatientUUID     string    `json:"patient_uuid" validate:"required,uuid4"`
	DentistName     string    `json:"dentist_name" validate:"required,max=255"`
	Treatment       string    `json:"treatment" validate:"required,max=255"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,gte=5,lte=480"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	SendReminder    bool      `json:"send_reminder"`
}

// UpdateAppointmentRequest reschedules or edits an appointment
type UpdateAppointmentRequest struct {
	DentistName     string    `json:"dentist_name" validate:"required,max=255"`
	Treatment       string    `json:"treatment" validate:"required,max=255"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,gte=5,lte=480"`
	Status          string    `json:"status" validate:"required,oneof=scheduled completed cancelled no_show"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type AppointmentDTO struct {
	ID              uint    `json:"id" example:"1"`
	UUID            string  `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	PatientID       uint    `json:"patient_id" example:"1"`
	PatientName     string  `json:"patient_name,omitempty" example:"Sara Karimi"`
	DentistName     string  `json:"dentist_name" example:"Dr. Rahimi"`
	Treatment       string  `json:"treatment" example:"Scaling"`
	ScheduledAt     string  `json:"scheduled_at" example:"2024-01-15T10:30:00Z"`
	EndsAt          string  `json:"ends_at" example:"2024-01-15T11:00:00Z"`
	DurationMinutes int     `json:"duration_minutes" example:"30"`
	Status          string  `json:"status" example:"scheduled"`
	Notes           *string `json:"notes,omitempty"`
	ReminderSentAt  *string `json:"reminder_sent_at,omitempty"`
	CreatedAt       string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt       string  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type ListAppointmentsRequest struct {
	Page        int     `query:"page"`
	Limit       int     `query:"limit"`
	PatientUUID *string `query:"patient_uuid" validate:"omitempty,uuid4"`
	DentistName *string `query:"dentist"`
	Status      *string `query:"status" validate:"omitempty,oneof=scheduled completed cancelled no_show"`
	From        *string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To          *string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

type ListAppointmentsResponse struct {
	Items      []AppointmentDTO `json:"items"`
	Pagination PaginationInfo   `json:"pagination"`
}
