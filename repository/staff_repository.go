package repository

import (
	"context"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// StaffRepositoryImpl implements StaffRepository interface
type StaffRepositoryImpl struct {
	*BaseRepository[models.Staff, models.StaffFilter]
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &StaffRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Staff, models.StaffFilter](db),
	}
}

// ByUUID retrieves a staff member by UUID
func (r *StaffRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Staff, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.StaffFilter{UUID: &parsedUUID}
	staff, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(staff) == 0 {
		return nil, nil
	}

	return staff[0], nil
}

// ByUsername retrieves a staff member by username
func (r *StaffRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Staff, error) {
	filter := models.StaffFilter{Username: &username}
	staff, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(staff) == 0 {
		return nil, nil
	}

	return staff[0], nil
}

// UpdateLastLogin stamps the last successful login time
func (r *StaffRepositoryImpl) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.Staff{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at": at,
		"updated_at":    utils.UTCNow(),
	}).Error
}

// applyFilter applies filter criteria to a GORM query
func (r *StaffRepositoryImpl) applyFilter(query *gorm.DB, filter models.StaffFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves staff based on filter criteria
func (r *StaffRepositoryImpl) ByFilter(ctx context.Context, filter models.StaffFilter, orderBy string, limit, offset int) ([]*models.Staff, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Staff{})

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

	var staff []*models.Staff
	err := query.Find(&staff).Error
	if err != nil {
		return nil, err
	}

	return staff, nil
}

// Count returns the number of staff matching the filter
func (r *StaffRepositoryImpl) Count(ctx context.Context, filter models.StaffFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Staff{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
