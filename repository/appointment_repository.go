package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// AppointmentRepositoryImpl implements AppointmentRepository interface
type AppointmentRepositoryImpl struct {
	*BaseRepository[models.Appointment, models.AppointmentFilter]
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &AppointmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Appointment, models.AppointmentFilter](db),
	}
}

// ByUUID retrieves an appointment by UUID
func (r *AppointmentRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Appointment, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.AppointmentFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LockDentistSchedule takes a transaction-scoped advisory lock on the dentist's
// calendar. Bookings that hold it check for overlaps and write one at a time;
// outside a transaction the lock is released immediately.
func (r *AppointmentRepositoryImpl) LockDentistSchedule(ctx context.Context, dentistName string) error {
	db := r.getDB(ctx)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "appointments:"+dentistName).Error; err != nil {
		return fmt.Errorf("failed to lock schedule of %s: %w", dentistName, err)
	}
	return nil
}

// ListOverlapping returns scheduled appointments of a dentist that intersect [start, end).
// excludeID skips the appointment being rescheduled; pass 0 to check all.
func (r *AppointmentRepositoryImpl) ListOverlapping(ctx context.Context, dentistName string, start, end time.Time, excludeID uint) ([]*models.Appointment, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Appointment{}).
		Where("dentist_name = ? AND status = ?", dentistName, models.AppointmentStatusScheduled).
		Where("scheduled_at < ?", end).
		Where("scheduled_at + (duration_minutes * interval '1 minute') > ?", start)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []*models.Appointment
	if err := query.Order("scheduled_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AppointmentRepositoryImpl) applyFilter(query *gorm.DB, filter models.AppointmentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DentistName != nil {
		query = query.Where("dentist_name = ?", *filter.DentistName)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ScheduledAfter != nil {
		query = query.Where("scheduled_at >= ?", *filter.ScheduledAfter)
	}
	if filter.ScheduledBefore != nil {
		query = query.Where("scheduled_at < ?", *filter.ScheduledBefore)
	}
	if filter.ReminderPending != nil {
		if *filter.ReminderPending {
			query = query.Where("reminder_sent_at IS NULL")
		} else {
			query = query.Where("reminder_sent_at IS NOT NULL")
		}
	}
	return query
}

// ByFilter retrieves appointments based on filter criteria
func (r *AppointmentRepositoryImpl) ByFilter(ctx context.Context, filter models.AppointmentFilter, orderBy string, limit, offset int) ([]*models.Appointment, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Appointment{}), filter)

	if orderBy == "" {
		orderBy = "scheduled_at ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Appointment
	if err := query.Preload("Patient").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of appointments matching the filter
func (r *AppointmentRepositoryImpl) Count(ctx context.Context, filter models.AppointmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Appointment{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
