package repository

import (
	"context"
	"strings"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// PatientRepositoryImpl implements PatientRepository interface
type PatientRepositoryImpl struct {
	*BaseRepository[models.Patient, models.PatientFilter]
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &PatientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Patient, models.PatientFilter](db),
	}
}

// ByUUID retrieves a patient by UUID
func (r *PatientRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Patient, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	patients, err := r.ByFilter(ctx, models.PatientFilter{UUID: &parsedUUID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, nil
	}

	return patients[0], nil
}

// ByMobile retrieves a patient by mobile number
func (r *PatientRepositoryImpl) ByMobile(ctx context.Context, mobile string) (*models.Patient, error) {
	patients, err := r.ByFilter(ctx, models.PatientFilter{Mobile: &mobile}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, nil
	}

	return patients[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *PatientRepositoryImpl) applyFilter(query *gorm.DB, filter models.PatientFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Mobile != nil {
		query = query.Where("mobile = ?", *filter.Mobile)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Search != nil {
		if term := strings.TrimSpace(*filter.Search); term != "" {
			like := "%" + term + "%"
			query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR mobile LIKE ?", like, like, like)
		}
	}
	return query
}

// ByFilter retrieves patients based on filter criteria
func (r *PatientRepositoryImpl) ByFilter(ctx context.Context, filter models.PatientFilter, orderBy string, limit, offset int) ([]*models.Patient, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Patient{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var patients []*models.Patient
	err := query.Find(&patients).Error
	if err != nil {
		return nil, err
	}

	return patients, nil
}

// Count returns the number of patients matching the filter
func (r *PatientRepositoryImpl) Count(ctx context.Context, filter models.PatientFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Patient{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
