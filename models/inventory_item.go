package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is a consumable or instrument kept in clinic stock.
// Code is assigned once by the code generator (ITEM-001, ITEM-002, ...) before insert.
type InventoryItem struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_inventory_items_uuid" json:"uuid"`
	Code string    `gorm:"size:32;not null;uniqueIndex:uk_inventory_items_code" json:"code"`

	Name         string     `gorm:"size:255;not null;index:idx_inventory_items_name" json:"name"`
	Category     string     `gorm:"size:64;not null;index:idx_inventory_items_category" json:"category"`
	Quantity     int        `gorm:"not null;default:0" json:"quantity"`
	Unit         string     `gorm:"size:32;not null" json:"unit"`
	ReorderLevel int        `gorm:"not null;default:0" json:"reorder_level"`
	UnitPrice    float64    `gorm:"type:numeric(12,2);not null;default:0" json:"unit_price"`
	Supplier     *string    `gorm:"size:255" json:"supplier,omitempty"`
	ExpiryDate   *time.Time `gorm:"index:idx_inventory_items_expiry_date" json:"expiry_date,omitempty"`
	Notes        *string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_inventory_items_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// BeforeCreate fills UUID and timestamps. It never touches Code.
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == uuid.Nil {
		i.UUID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsLowStock reports whether the item is at or below its reorder level
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// InventoryItemFilter represents filter criteria for inventory item queries
type InventoryItemFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Code          *string
	Category      *string
	NameContains  *string
	LowStock      *bool
	ExpiresBefore *time.Time
}
