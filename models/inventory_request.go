package models

import (
	"time"

	"github.com/amirphl/dentalcare/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory request statuses
const (
	InventoryRequestStatusPending   = "pending"
	InventoryRequestStatusApproved  = "approved"
	InventoryRequestStatusRejected  = "rejected"
	InventoryRequestStatusFulfilled = "fulfilled"
)

// InventoryRequest is a staff request to restock or purchase an item.
// Code is assigned once by the code generator (RI-001, ...); numbering restarts
// after the table has been emptied.
type InventoryRequest struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_inventory_requests_uuid" json:"uuid"`
	Code string    `gorm:"size:32;not null;uniqueIndex:uk_inventory_requests_code" json:"code"`

	ItemID      *uint   `gorm:"index:idx_inventory_requests_item_id" json:"item_id,omitempty"`
	ItemName    string  `gorm:"size:255;not null" json:"item_name"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	RequestedBy string  `gorm:"size:255;not null" json:"requested_by"`
	Reason      *string `gorm:"type:text" json:"reason,omitempty"`
	Status      string  `gorm:"size:20;not null;default:'pending';index:idx_inventory_requests_status" json:"status"`

	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_inventory_requests_created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Item *InventoryItem `gorm:"foreignKey:ItemID;references:ID;constraint:OnDelete:SET NULL" json:"item,omitempty"`
}

func (InventoryRequest) TableName() string { return "inventory_requests" }

func (r *InventoryRequest) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = InventoryRequestStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// InventoryRequestFilter represents filter criteria for inventory request queries
type InventoryRequestFilter struct {
	ID     *uint
	UUID   *uuid.UUID
	Code   *string
	ItemID *uint
	Status *string
}
