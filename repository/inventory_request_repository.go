package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// InventoryRequestRepositoryImpl implements InventoryRequestRepository interface
type InventoryRequestRepositoryImpl struct {
	*BaseRepository[models.InventoryRequest, models.InventoryRequestFilter]
}

// NewInventoryRequestRepository creates a new inventory request repository
func NewInventoryRequestRepository(db *gorm.DB) InventoryRequestRepository {
	return &InventoryRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.InventoryRequest, models.InventoryRequestFilter](db),
	}
}

// ByUUID retrieves an inventory request by UUID
func (r *InventoryRequestRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.InventoryRequest, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.InventoryRequestFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByCode retrieves an inventory request by its generated code
func (r *InventoryRequestRepositoryImpl) ByCode(ctx context.Context, code string) (*models.InventoryRequest, error) {
	rows, err := r.ByFilter(ctx, models.InventoryRequestFilter{Code: &code}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpdateStatus moves the request from one status to another and records the decision time.
// Returns ErrStatusChanged when the stored status is no longer from.
func (r *InventoryRequestRepositoryImpl) UpdateStatus(ctx context.Context, id uint, from, to string, decidedAt *time.Time) error {
	db := r.getDB(ctx)
	res := db.Model(&models.InventoryRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"decided_at": decidedAt,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update status of request %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// CountAll returns the number of stored requests
func (r *InventoryRequestRepositoryImpl) CountAll(ctx context.Context) (int64, error) {
	return r.Count(ctx, models.InventoryRequestFilter{})
}

// applyFilter applies filter criteria to a GORM query
func (r *InventoryRequestRepositoryImpl) applyFilter(query *gorm.DB, filter models.InventoryRequestFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves inventory requests based on filter criteria
func (r *InventoryRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.InventoryRequestFilter, orderBy string, limit, offset int) ([]*models.InventoryRequest, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.InventoryRequest{}), filter)

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

	var rows []*models.InventoryRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of inventory requests matching the filter
func (r *InventoryRequestRepositoryImpl) Count(ctx context.Context, filter models.InventoryRequestFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.InventoryRequest{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
