package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepositoryImpl implements CounterRepository on the sequence_counters table
type CounterRepositoryImpl struct {
	*BaseRepository[models.SequenceCounter, struct{}]
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &CounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SequenceCounter, struct{}](db),
	}
}

// IncrementAndGet creates the scope row at 1 or bumps it by one in a single
// upsert statement. Row-level locking on the conflict target keeps concurrent
// callers on the same scope strictly ordered.
func (r *CounterRepositoryImpl) IncrementAndGet(ctx context.Context, scope string) (int64, error) {
	db := r.getDB(ctx)
	now := utils.UTCNow()

	counter := models.SequenceCounter{Scope: scope, Seq: 1, CreatedAt: now, UpdatedAt: now}
	err := db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}},
			DoUpdates: clause.Assignments(map[string]any{
				"seq":        gorm.Expr("sequence_counters.seq + 1"),
				"updated_at": now,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "seq"}}},
	).Create(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", scope, err)
	}

	return counter.Seq, nil
}

// ResetTo overwrites the stored value for scope, creating the row if needed
func (r *CounterRepositoryImpl) ResetTo(ctx context.Context, scope string, value int64) error {
	db := r.getDB(ctx)
	now := utils.UTCNow()

	// Seq is listed explicitly so a zero value is written instead of the column default
	err := db.Select("scope", "seq", "created_at", "updated_at").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.Assignments(map[string]any{
			"seq":        value,
			"updated_at": now,
		}),
	}).Create(&models.SequenceCounter{Scope: scope, Seq: value, CreatedAt: now, UpdatedAt: now}).Error
	if err != nil {
		return fmt.Errorf("failed to reset counter %s: %w", scope, err)
	}

	return nil
}

// Get returns the last issued value for scope, 0 when the scope was never used
func (r *CounterRepositoryImpl) Get(ctx context.Context, scope string) (int64, error) {
	db := r.getDB(ctx)

	var counter models.SequenceCounter
	err := db.Where("scope = ?", scope).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", scope, err)
	}

	return counter.Seq, nil
}

// List returns every counter ordered by scope
func (r *CounterRepositoryImpl) List(ctx context.Context) ([]*models.SequenceCounter, error) {
	db := r.getDB(ctx)

	var counters []*models.SequenceCounter
	if err := db.Order("scope ASC").Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}

	return counters, nil
}
