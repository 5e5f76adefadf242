package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

// InquiryRepositoryImpl implements InquiryRepository interface
type InquiryRepositoryImpl struct {
	*BaseRepository[models.Inquiry, models.InquiryFilter]
}

// NewInquiryRepository creates a new inquiry repository
func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &InquiryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Inquiry, models.InquiryFilter](db),
	}
}

// ByUUID retrieves an inquiry by UUID
func (r *InquiryRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Inquiry, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.InquiryFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Answer stores the staff response and marks the inquiry answered
func (r *InquiryRepositoryImpl) Answer(ctx context.Context, id uint, response string, answeredAt time.Time) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Inquiry{}).
		Where("id = ? AND status = ?", id, models.InquiryStatusOpen).
		Updates(map[string]any{
			"status":      models.InquiryStatusAnswered,
			"response":    response,
			"answered_at": answeredAt,
			"updated_at":  utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to answer inquiry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *InquiryRepositoryImpl) applyFilter(query *gorm.DB, filter models.InquiryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves inquiries based on filter criteria
func (r *InquiryRepositoryImpl) ByFilter(ctx context.Context, filter models.InquiryFilter, orderBy string, limit, offset int) ([]*models.Inquiry, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Inquiry{}), filter)

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

	var rows []*models.Inquiry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of inquiries matching the filter
func (r *InquiryRepositoryImpl) Count(ctx context.Context, filter models.InquiryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Inquiry{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
