package dto

// CreateInventoryItemRequest represents the payload to register a new stock item.
// The item code is generated by the server and cannot be supplied.
type CreateInventoryItemRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=255"`
	Category     string  `json:"category" validate:"required,max=64"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"required,max=32"`
	ReorderLevel int     `json:"reorder_level" validate:"gte=0"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
	Supplier     *string `json:"supplier,omitempty" validate:"omitempty,max=255"`
	ExpiryDate   *string `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateInventoryItemRequest replaces the editable fields of an item. Code is immutable.
type UpdateInventoryItemRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=255"`
	Category     string  `json:"category" validate:"required,max=64"`
	Unit         string  `json:"unit" validate:"required,max=32"`
	ReorderLevel int     `json:"reorder_level" validate:"gte=0"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
	Supplier     *string `json:"supplier,omitempty" validate:"omitempty,max=255"`
	ExpiryDate   *string `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AdjustStockRequest adds (positive) or removes (negative) units
type AdjustStockRequest struct {
	Delta  int     `json:"delta" validate:"required,ne=0"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}

type InventoryItemDTO struct {
	ID           uint    `json:"id" example:"1"`
	UUID         string  `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Code         string  `json:"code" example:"ITEM-001"`
	Name         string  `json:"name" example:"Composite resin A2"`
	Category     string  `json:"category" example:"restorative"`
	Quantity     int     `json:"quantity" example:"12"`
	Unit         string  `json:"unit" example:"syringe"`
	ReorderLevel int     `json:"reorder_level" example:"5"`
	LowStock     bool    `json:"low_stock"`
	UnitPrice    float64 `json:"unit_price" example:"18.50"`
	Supplier     *string `json:"supplier,omitempty"`
	ExpiryDate   *string `json:"expiry_date,omitempty" example:"2027-01-31"`
	Notes        *string `json:"notes,omitempty"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    string  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// ListInventoryItemsRequest represents list query parameters
type ListInventoryItemsRequest struct {
	Page         int     `query:"page"`
	Limit        int     `query:"limit"`
	Category     *string `query:"category"`
	NameContains *string `query:"q"`
	LowStock     *bool   `query:"low_stock"`
}

type ListInventoryItemsResponse struct {
	Items      []InventoryItemDTO `json:"items"`
	Pagination PaginationInfo     `json:"pagination"`
}

// CreateInventoryRequestRequest represents the payload to open a restock request.
// The request code is generated by the server.
type CreateInventoryRequestRequest struct {
	ItemUUID    *string `json:"item_uuid,omitempty" validate:"omitempty,uuid4"`
	ItemName    string  `json:"item_name" validate:"required_without=ItemUUID,max=255"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	RequestedBy string  `json:"requested_by" validate:"required,max=255"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

type UpdateInventoryRequestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected fulfilled"`
}

type InventoryRequestDTO struct {
	ID          uint    `json:"id" example:"1"`
	UUID        string  `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Code        string  `json:"code" example:"RI-001"`
	ItemID      *uint   `json:"item_id,omitempty"`
	ItemName    string  `json:"item_name" example:"Nitrile gloves M"`
	Quantity    int     `json:"quantity" example:"10"`
	RequestedBy string  `json:"requested_by" example:"Dr. Rahimi"`
	Reason      *string `json:"reason,omitempty"`
	Status      string  `json:"status" example:"pending"`
	DecidedAt   *string `json:"decided_at,omitempty"`
	CreatedAt   string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   string  `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type ListInventoryRequestsRequest struct {
	Page   int     `query:"page"`
	Limit  int     `query:"limit"`
	Status *string `query:"status" validate:"omitempty,oneof=pending approved rejected fulfilled"`
}

type ListInventoryRequestsResponse struct {
	Items      []InventoryRequestDTO `json:"items"`
	Pagination PaginationInfo        `json:"pagination"`
}
