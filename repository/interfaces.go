// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/dentalcare/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CounterRepository is the Postgres-backed counter store plus read access for the admin API
type CounterRepository interface {
	IncrementAndGet(ctx context.Context, scope string) (int64, error)
	ResetTo(ctx context.Context, scope string, value int64) error
	Get(ctx context.Context, scope string) (int64, error)
	List(ctx context.Context) ([]*models.SequenceCounter, error)
}

// StaffRepository defines operations for staff accounts
type StaffRepository interface {
	Repository[models.Staff, models.StaffFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Staff, error)
	ByUsername(ctx context.Context, username string) (*models.Staff, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// InventoryItemRepository defines operations for inventory items
type InventoryItemRepository interface {
	Repository[models.InventoryItem, models.InventoryItemFilter]
	ByUUID(ctx context.Context, uuid string) (*models.InventoryItem, error)
	ByCode(ctx context.Context, code string) (*models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem, omit ...string) error
	AdjustQuantity(ctx context.Context, id uint, delta int) (*models.InventoryItem, error)
	DeleteByID(ctx context.Context, id uint) error
	CountAll(ctx context.Context) (int64, error)
}

// InventoryRequestRepository defines operations for inventory requests
type InventoryRequestRepository interface {
	Repository[models.InventoryRequest, models.InventoryRequestFilter]
	ByUUID(ctx context.Context, uuid string) (*models.InventoryRequest, error)
	ByCode(ctx context.Context, code string) (*models.InventoryRequest, error)
	UpdateStatus(ctx context.Context, id uint, from, to string, decidedAt *time.Time) error
	DeleteByID(ctx context.Context, id uint) error
	CountAll(ctx context.Context) (int64, error)
}

// PatientRepository defines operations for patients
type PatientRepository interface {
	Repository[models.Patient, models.PatientFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Patient, error)
	ByMobile(ctx context.Context, mobile string) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient, omit ...string) error
	DeleteByID(ctx context.Context, id uint) error
}

// AppointmentRepository defines operations for appointments
type AppointmentRepository interface {
	Repository[models.Appointment, models.AppointmentFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Appointment, error)
	LockDentistSchedule(ctx context.Context, dentistName string) error
	ListOverlapping(ctx context.Context, dentistName string, start, end time.Time, excludeID uint) ([]*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment, omit ...string) error
	DeleteByID(ctx context.Context, id uint) error
}

// RadiographRepository defines operations for radiograph metadata
type RadiographRepository interface {
	Repository[models.Radiograph, models.RadiographFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Radiograph, error)
	ByPatientID(ctx context.Context, patientID uint, limit, offset int) ([]*models.Radiograph, error)
	DeleteByID(ctx context.Context, id uint) error
}

// FeedbackRepository defines operations for feedback entries
type FeedbackRepository interface {
	Repository[models.Feedback, models.FeedbackFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Feedback, error)
	AverageRating(ctx context.Context, filter models.FeedbackFilter) (float64, error)
	DeleteByID(ctx context.Context, id uint) error
}

// InquiryRepository defines operations for inquiries
type InquiryRepository interface {
	Repository[models.Inquiry, models.InquiryFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Inquiry, error)
	Answer(ctx context.Context, id uint, response string, answeredAt time.Time) error
	DeleteByID(ctx context.Context, id uint) error
}
