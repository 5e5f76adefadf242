package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// InventoryItemFlow handles stock item use cases
type InventoryItemFlow interface {
	Create(ctx context.Context, req *dto.CreateInventoryItemRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error)
	List(ctx context.Context, req *dto.ListInventoryItemsRequest) (*dto.ListInventoryItemsResponse, error)
	GetByUUID(ctx context.Context, itemUUID string) (*dto.InventoryItemDTO, error)
	GetByCode(ctx context.Context, code string) (*dto.InventoryItemDTO, error)
	Update(ctx context.Context, itemUUID string, req *dto.UpdateInventoryItemRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error)
	AdjustStock(ctx context.Context, itemUUID string, req *dto.AdjustStockRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error)
	Delete(ctx context.Context, itemUUID string, metadata *ClientMetadata) error
	ExportXLSX(ctx context.Context) (string, []byte, error)
}

type InventoryItemFlowImpl struct {
	itemRepo repository.InventoryItemRepository
	codeGen  services.CodeGenerator
}

func NewInventoryItemFlow(itemRepo repository.InventoryItemRepository, codeGen services.CodeGenerator) InventoryItemFlow {
	return &InventoryItemFlowImpl{
		itemRepo: itemRepo,
		codeGen:  codeGen,
	}
}

func (f *InventoryItemFlowImpl) Create(ctx context.Context, req *dto.CreateInventoryItemRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVENTORY_ITEM_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_VALIDATION_FAILED", "expiry_date must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}

	code, err := issueCode(ctx, f.codeGen, inventoryItemCodes, f.itemRepo, metadata)
	if err != nil {
		return nil, err
	}

	item := models.InventoryItem{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Category:     normalizeCategory(req.Category),
		Quantity:     req.Quantity,
		Unit:         strings.TrimSpace(req.Unit),
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    req.UnitPrice,
		Supplier:     utils.TrimPtr(req.Supplier),
		ExpiryDate:   expiry,
		Notes:        utils.TrimPtr(req.Notes),
	}
	if err := f.itemRepo.Save(ctx, &item); err != nil {
		return nil, saveCodedError(err, code)
	}

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"code": item.Code,
		"uuid": item.UUID.String(),
	}).Info("inventory item created")

	resp := ToInventoryItemDTO(item)
	return &resp, nil
}

func (f *InventoryItemFlowImpl) List(ctx context.Context, req *dto.ListInventoryItemsRequest) (*dto.ListInventoryItemsResponse, error) {
	if req == nil {
		req = &dto.ListInventoryItemsRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)

	filter := models.InventoryItemFilter{
		NameContains: utils.TrimPtr(req.NameContains),
		LowStock:     req.LowStock,
	}
	if c := utils.TrimPtr(req.Category); c != nil {
		filter.Category = utils.ToPtr(normalizeCategory(*c))
	}

	items, err := f.itemRepo.ByFilter(ctx, filter, "code ASC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_LIST_FAILED", "Failed to list inventory items", err)
	}
	total, err := f.itemRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_LIST_FAILED", "Failed to count inventory items", err)
	}

	out := make([]dto.InventoryItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, ToInventoryItemDTO(*it))
	}
	return &dto.ListInventoryItemsResponse{
		Items:      out,
		Pagination: newPaginationInfo(total, page, limit),
	}, nil
}

func (f *InventoryItemFlowImpl) GetByUUID(ctx context.Context, itemUUID string) (*dto.InventoryItemDTO, error) {
	item, err := f.getItem(ctx, itemUUID)
	if err != nil {
		return nil, err
	}
	resp := ToInventoryItemDTO(*item)
	return &resp, nil
}

func (f *InventoryItemFlowImpl) GetByCode(ctx context.Context, code string) (*dto.InventoryItemDTO, error) {
	code, err := normalizeCode(code, services.PrefixInventoryItem)
	if err != nil {
		return nil, err
	}
	item, err := f.itemRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_LOOKUP_FAILED", "Failed to lookup inventory item", err)
	}
	if item == nil {
		return nil, NewBusinessError("INVENTORY_ITEM_NOT_FOUND", "Inventory item not found", ErrInventoryItemNotFound)
	}
	resp := ToInventoryItemDTO(*item)
	return &resp, nil
}

func (f *InventoryItemFlowImpl) Update(ctx context.Context, itemUUID string, req *dto.UpdateInventoryItemRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVENTORY_ITEM_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_VALIDATION_FAILED", "expiry_date must be YYYY-MM-DD", fmt.Errorf("%w: %w", ErrValidationFailed, err))
	}

	item, err := f.getItem(ctx, itemUUID)
	if err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(req.Name)
	item.Category = normalizeCategory(req.Category)
	item.Unit = strings.TrimSpace(req.Unit)
	item.ReorderLevel = req.ReorderLevel
	item.UnitPrice = req.UnitPrice
	item.Supplier = utils.TrimPtr(req.Supplier)
	item.ExpiryDate = expiry
	item.Notes = utils.TrimPtr(req.Notes)
	item.UpdatedAt = utils.UTCNow()

	// quantity only moves through AdjustStock
	if err := f.itemRepo.Update(ctx, item, "code", "uuid", "quantity"); err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_UPDATE_FAILED", "Failed to update inventory item", err)
	}

	utils.Logger.WithFields(metadata.logFields()).WithField("code", item.Code).Info("inventory item updated")

	resp := ToInventoryItemDTO(*item)
	return &resp, nil
}

func (f *InventoryItemFlowImpl) AdjustStock(ctx context.Context, itemUUID string, req *dto.AdjustStockRequest, metadata *ClientMetadata) (*dto.InventoryItemDTO, error) {
	if req == nil || req.Delta == 0 {
		return nil, NewBusinessError("INVENTORY_ITEM_VALIDATION_FAILED", "delta must be non-zero", ErrValidationFailed)
	}
	item, err := f.getItem(ctx, itemUUID)
	if err != nil {
		return nil, err
	}

	updated, err := f.itemRepo.AdjustQuantity(ctx, item.ID, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, NewBusinessErrorf("INSUFFICIENT_STOCK", "Only %d %s of %s in stock", ErrInsufficientStock, item.Quantity, item.Unit, item.Code)
		}
		return nil, NewBusinessError("INVENTORY_ITEM_ADJUST_FAILED", "Failed to adjust stock", err)
	}
	if updated == nil {
		return nil, NewBusinessError("INVENTORY_ITEM_NOT_FOUND", "Inventory item not found", ErrInventoryItemNotFound)
	}

	fields := logrus.Fields{"code": updated.Code, "delta": req.Delta, "quantity": updated.Quantity}
	if req.Reason != nil {
		fields["reason"] = *req.Reason
	}
	log := utils.Logger.WithFields(metadata.logFields()).WithFields(fields)
	if updated.IsLowStock() {
		log.Warn("inventory item at or below reorder level")
	} else {
		log.Info("inventory stock adjusted")
	}

	resp := ToInventoryItemDTO(*updated)
	return &resp, nil
}

func (f *InventoryItemFlowImpl) Delete(ctx context.Context, itemUUID string, metadata *ClientMetadata) error {
	item, err := f.getItem(ctx, itemUUID)
	if err != nil {
		return err
	}
	if err := f.itemRepo.DeleteByID(ctx, item.ID); err != nil {
		return NewBusinessError("INVENTORY_ITEM_DELETE_FAILED", "Failed to delete inventory item", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("code", item.Code).Info("inventory item deleted")
	return nil
}

// ExportXLSX writes every item into a single-sheet workbook
func (f *InventoryItemFlowImpl) ExportXLSX(ctx context.Context) (string, []byte, error) {
	items, err := f.itemRepo.ByFilter(ctx, models.InventoryItemFilter{}, "code ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("INVENTORY_ITEM_LIST_FAILED", "Failed to list inventory items", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	const sheet = "Inventory"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"code", "name", "category", "quantity", "unit", "reorder_level", "low_stock", "unit_price", "supplier", "expiry_date", "updated_at"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel header", err)
	}

	for i, it := range items {
		supplier := ""
		if it.Supplier != nil {
			supplier = *it.Supplier
		}
		expiry := ""
		if d := formatDate(it.ExpiryDate); d != nil {
			expiry = *d
		}
		record := []any{
			it.Code,
			it.Name,
			it.Category,
			it.Quantity,
			it.Unit,
			it.ReorderLevel,
			strconv.FormatBool(it.IsLowStock()),
			it.UnitPrice,
			supplier,
			expiry,
			it.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
			return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("inventory_%s.xlsx", utils.UTCNow().Format("20060102"))
	return filename, buf.Bytes(), nil
}

func (f *InventoryItemFlowImpl) getItem(ctx context.Context, itemUUID string) (*models.InventoryItem, error) {
	if _, err := utils.ParseUUID(itemUUID); err != nil {
		return nil, NewBusinessError("INVALID_UUID", "Invalid inventory item UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	item, err := f.itemRepo.ByUUID(ctx, itemUUID)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_ITEM_LOOKUP_FAILED", "Failed to lookup inventory item", err)
	}
	if item == nil {
		return nil, NewBusinessError("INVENTORY_ITEM_NOT_FOUND", "Inventory item not found", ErrInventoryItemNotFound)
	}
	return item, nil
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
