package repository

import (
	"context"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// RadiographRepositoryImpl implements RadiographRepository interface.
type RadiographRepositoryImpl struct {
	*BaseRepository[models.Radiograph, models.RadiographFilter]
}

// NewRadiographRepository creates a new radiograph repository.
func NewRadiographRepository(db *gorm.DB) RadiographRepository {
	return &RadiographRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Radiograph, models.RadiographFilter](db),
	}
}

// ByUUID retrieves a radiograph by UUID.
func (r *RadiographRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Radiograph, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.RadiographFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByPatientID retrieves radiographs for a patient, newest first.
func (r *RadiographRepositoryImpl) ByPatientID(ctx context.Context, patientID uint, limit, offset int) ([]*models.Radiograph, error) {
	return r.ByFilter(ctx, models.RadiographFilter{PatientID: &patientID}, "id DESC", limit, offset)
}

// applyFilter applies filter criteria to a GORM query.
func (r *RadiographRepositoryImpl) applyFilter(query *gorm.DB, filter models.RadiographFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	return query
}

// ByFilter retrieves radiographs based on filter criteria.
func (r *RadiographRepositoryImpl) ByFilter(ctx context.Context, filter models.RadiographFilter, orderBy string, limit, offset int) ([]*models.Radiograph, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Radiograph{}), filter)
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
	var rows []*models.Radiograph
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of radiographs matching the filter.
func (r *RadiographRepositoryImpl) Count(ctx context.Context, filter models.RadiographFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Radiograph{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
