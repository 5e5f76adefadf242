package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when an adjustment would drive quantity below zero
var ErrInsufficientStock = errors.New("insufficient stock")

// InventoryItemRepositoryImpl implements InventoryItemRepository interface
type InventoryItemRepositoryImpl struct {
	*BaseRepository[models.InventoryItem, models.InventoryItemFilter]
}

// NewInventoryItemRepository creates a new inventory item repository
func NewInventoryItemRepository(db *gorm.DB) InventoryItemRepository {
	return &InventoryItemRepositoryImpl{
		BaseRepository: NewBaseRepository[models.InventoryItem, models.InventoryItemFilter](db),
	}
}

// ByUUID retrieves an inventory item by UUID
func (r *InventoryItemRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.InventoryItem, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.InventoryItemFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByCode retrieves an inventory item by its generated code
func (r *InventoryItemRepositoryImpl) ByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	rows, err := r.ByFilter(ctx, models.InventoryItemFilter{Code: &code}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// AdjustQuantity adds delta to the stored quantity in one statement and returns the updated row.
// Returns ErrInsufficientStock when the result would be negative and (nil, nil) when the item is gone.
func (r *InventoryItemRepositoryImpl) AdjustQuantity(ctx context.Context, id uint, delta int) (*models.InventoryItem, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.InventoryItem{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to adjust quantity of item %d: %w", id, res.Error)
	}

	item, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if res.RowsAffected == 0 {
		return item, ErrInsufficientStock
	}
	return item, nil
}

// CountAll returns the number of stored items
func (r *InventoryItemRepositoryImpl) CountAll(ctx context.Context) (int64, error) {
	return r.Count(ctx, models.InventoryItemFilter{})
}

// applyFilter applies filter criteria to a GORM query
func (r *InventoryItemRepositoryImpl) applyFilter(query *gorm.DB, filter models.InventoryItemFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.NameContains != nil && strings.TrimSpace(*filter.NameContains) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*filter.NameContains)+"%")
	}
	if filter.LowStock != nil {
		if *filter.LowStock {
			query = query.Where("quantity <= reorder_level")
		} else {
			query = query.Where("quantity > reorder_level")
		}
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date < ?", *filter.ExpiresBefore)
	}
	return query
}

// ByFilter retrieves inventory items based on filter criteria
func (r *InventoryItemRepositoryImpl) ByFilter(ctx context.Context, filter models.InventoryItemFilter, orderBy string, limit, offset int) ([]*models.InventoryItem, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.InventoryItem{}), filter)

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

	var rows []*models.InventoryItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of inventory items matching the filter
func (r *InventoryItemRepositoryImpl) Count(ctx context.Context, filter models.InventoryItemFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.InventoryItem{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
