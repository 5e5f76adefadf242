package repository

import (
	"context"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
)

type FeedbackRepositoryImpl struct {
	*BaseRepository[models.Feedback, models.FeedbackFilter]
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &FeedbackRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Feedback, models.FeedbackFilter](db),
	}
}

func (r *FeedbackRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Feedback, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.FeedbackFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *FeedbackRepositoryImpl) applyFilter(query *gorm.DB, filter models.FeedbackFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.MinRating != nil {
		query = query.Where("rating >= ?", *filter.MinRating)
	}
	return query
}

func (r *FeedbackRepositoryImpl) ByFilter(ctx context.Context, filter models.FeedbackFilter, orderBy string, limit, offset int) ([]*models.Feedback, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Feedback{}), filter)
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
	var rows []*models.Feedback
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FeedbackRepositoryImpl) Count(ctx context.Context, filter models.FeedbackFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Feedback{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AverageRating returns the mean rating of matching feedback, 0 when there is none
func (r *FeedbackRepositoryImpl) AverageRating(ctx context.Context, filter models.FeedbackFilter) (float64, error) {
	db := r.getDB(ctx)
	var avg *float64
	if err := r.applyFilter(db.Model(&models.Feedback{}), filter).Select("AVG(rating)").Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
