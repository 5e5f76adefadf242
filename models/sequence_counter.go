// Package models contains domain entities and persistence models for the clinic API
package models

import "time"

// SequenceCounter stores the last value issued for a named code scope.
// Rows are created on first use and never deleted; Seq only moves forward
// except for an explicit reset to zero.
type SequenceCounter struct {
	Scope     string    `gorm:"primaryKey;size:64" json:"scope"`
	Seq       int64     `gorm:"not null;default:0" json:"seq"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
