package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles
const (
	StaffRoleAdmin        = "admin"
	StaffRoleDentist      = "dentist"
	StaffRoleReceptionist = "receptionist"
)

// Staff is a clinic employee allowed to use the back-office API
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_staff_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_staff_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255;not null;default:''" json:"full_name"`
	Role         string    `gorm:"size:20;not null;default:'receptionist';index:idx_staff_role" json:"role"`

	IsActive    *bool      `gorm:"default:true;index:idx_staff_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_staff_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_staff_last_login_at" json:"last_login_at,omitempty"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// StaffFilter represents filter criteria for staff queries
type StaffFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Username *string
	Role     *string
	IsActive *bool
}
