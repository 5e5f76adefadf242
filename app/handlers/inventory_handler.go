package handlers

import (
	"fmt"

	"github.com/amirphl/dentalcare/app/dto"
	businessflow "github.com/amirphl/dentalcare/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandlerInterface defines the contract for inventory item and request handlers
type InventoryHandlerInterface interface {
	CreateItem(c fiber.Ctx) error
	ListItems(c fiber.Ctx) error
	GetItem(c fiber.Ctx) error
	GetItemByCode(c fiber.Ctx) error
	UpdateItem(c fiber.Ctx) error
	AdjustStock(c fiber.Ctx) error
	DeleteItem(c fiber.Ctx) error
	ExportItems(c fiber.Ctx) error

	CreateRequest(c fiber.Ctx) error
	ListRequests(c fiber.Ctx) error
	GetRequest(c fiber.Ctx) error
	GetRequestByCode(c fiber.Ctx) error
	UpdateRequestStatus(c fiber.Ctx) error
	DeleteRequest(c fiber.Ctx) error
}

type InventoryHandler struct {
	baseHandler
	items    businessflow.InventoryItemFlow
	requests businessflow.InventoryRequestFlow
}

func NewInventoryHandler(items businessflow.InventoryItemFlow, requests businessflow.InventoryRequestFlow) *InventoryHandler {
	return &InventoryHandler{
		baseHandler: newBaseHandler(),
		items:       items,
		requests:    requests,
	}
}

// CreateItem registers a stock item; the server assigns the next ITEM-NNN code
// @Summary Create Inventory Item
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateInventoryItemRequest true "Item"
// @Success 201 {object} dto.APIResponse{data=dto.InventoryItemDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Code conflict"
// @Failure 500 {object} dto.APIResponse "Code generation failed"
// @Router /api/v1/inventory/items [post]
func (h *InventoryHandler) CreateItem(c fiber.Ctx) error {
	var req dto.CreateInventoryItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items")
	defer cancel()

	item, err := h.items.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to create inventory item", "CREATE_ITEM_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Inventory item created", item)
}

// ListItems
// @Summary List Inventory Items
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param category query string false "Category"
// @Param q query string false "Name contains"
// @Param low_stock query bool false "Only items at or below reorder level"
// @Success 200 {object} dto.APIResponse{data=dto.ListInventoryItemsResponse}
// @Router /api/v1/inventory/items [get]
func (h *InventoryHandler) ListItems(c fiber.Ctx) error {
	var req dto.ListInventoryItemsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items")
	defer cancel()

	resp, err := h.items.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list inventory items", "LIST_ITEMS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory items retrieved", resp)
}

// GetItem
// @Summary Get Inventory Item
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Item UUID"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryItemDTO}
// @Failure 404 {object} dto.APIResponse "Not found"
// @Router /api/v1/inventory/items/{uuid} [get]
func (h *InventoryHandler) GetItem(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/:uuid")
	defer cancel()

	item, err := h.items.GetByUUID(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get inventory item", "GET_ITEM_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory item retrieved", item)
}

// GetItemByCode
// @Summary Get Inventory Item By Code
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param code path string true "Item code, e.g. ITEM-007"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryItemDTO}
// @Failure 400 {object} dto.APIResponse "Malformed code"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Router /api/v1/inventory/items/code/{code} [get]
func (h *InventoryHandler) GetItemByCode(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/code/:code")
	defer cancel()

	item, err := h.items.GetByCode(ctx, c.Params("code"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get inventory item", "GET_ITEM_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory item retrieved", item)
}

// UpdateItem edits an item; its code and quantity are left untouched
// @Summary Update Inventory Item
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Item UUID"
// @Param request body dto.UpdateInventoryItemRequest true "Item"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryItemDTO}
// @Router /api/v1/inventory/items/{uuid} [put]
func (h *InventoryHandler) UpdateItem(c fiber.Ctx) error {
	var req dto.UpdateInventoryItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/:uuid")
	defer cancel()

	item, err := h.items.Update(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to update inventory item", "UPDATE_ITEM_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory item updated", item)
}

// AdjustStock
// @Summary Adjust Stock
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Item UUID"
// @Param request body dto.AdjustStockRequest true "Delta"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryItemDTO}
// @Failure 409 {object} dto.APIResponse "Insufficient stock"
// @Router /api/v1/inventory/items/{uuid}/stock [post]
func (h *InventoryHandler) AdjustStock(c fiber.Ctx) error {
	var req dto.AdjustStockRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/:uuid/stock")
	defer cancel()

	item, err := h.items.AdjustStock(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to adjust stock", "ADJUST_STOCK_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Stock adjusted", item)
}

// DeleteItem
// @Summary Delete Inventory Item
// @Tags Inventory
// @Security BearerAuth
// @Param uuid path string true "Item UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/inventory/items/{uuid} [delete]
func (h *InventoryHandler) DeleteItem(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/:uuid")
	defer cancel()

	if err := h.items.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete inventory item", "DELETE_ITEM_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory item deleted", nil)
}

// ExportItems streams all items as an Excel workbook
// @Summary Export Inventory
// @Tags Inventory
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /api/v1/inventory/items/export [get]
func (h *InventoryHandler) ExportItems(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/items/export")
	defer cancel()

	filename, data, err := h.items.ExportXLSX(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to export inventory", "EXPORT_FAILED")
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(data)
}

// CreateRequest opens a restock request; the server assigns the next RI-NNN code
// @Summary Create Inventory Request
// @Tags Inventory Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateInventoryRequestRequest true "Request"
// @Success 201 {object} dto.APIResponse{data=dto.InventoryRequestDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Linked item not found"
// @Router /api/v1/inventory/requests [post]
func (h *InventoryHandler) CreateRequest(c fiber.Ctx) error {
	var req dto.CreateInventoryRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests")
	defer cancel()

	created, err := h.requests.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to create inventory request", "CREATE_REQUEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Inventory request created", created)
}

// ListRequests
// @Summary List Inventory Requests
// @Tags Inventory Requests
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "pending|approved|rejected|fulfilled"
// @Success 200 {object} dto.APIResponse{data=dto.ListInventoryRequestsResponse}
// @Router /api/v1/inventory/requests [get]
func (h *InventoryHandler) ListRequests(c fiber.Ctx) error {
	var req dto.ListInventoryRequestsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests")
	defer cancel()

	resp, err := h.requests.List(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list inventory requests", "LIST_REQUESTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory requests retrieved", resp)
}

// GetRequest
// @Summary Get Inventory Request
// @Tags Inventory Requests
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Request UUID"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryRequestDTO}
// @Router /api/v1/inventory/requests/{uuid} [get]
func (h *InventoryHandler) GetRequest(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests/:uuid")
	defer cancel()

	r, err := h.requests.GetByUUID(ctx, c.Params("uuid"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get inventory request", "GET_REQUEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory request retrieved", r)
}

// GetRequestByCode
// @Summary Get Inventory Request By Code
// @Tags Inventory Requests
// @Produce json
// @Security BearerAuth
// @Param code path string true "Request code, e.g. RI-004"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryRequestDTO}
// @Router /api/v1/inventory/requests/code/{code} [get]
func (h *InventoryHandler) GetRequestByCode(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests/code/:code")
	defer cancel()

	r, err := h.requests.GetByCode(ctx, c.Params("code"))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get inventory request", "GET_REQUEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory request retrieved", r)
}

// UpdateRequestStatus approves, rejects or fulfils a request
// @Summary Update Inventory Request Status
// @Tags Inventory Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Request UUID"
// @Param request body dto.UpdateInventoryRequestStatusRequest true "Status"
// @Success 200 {object} dto.APIResponse{data=dto.InventoryRequestDTO}
// @Failure 400 {object} dto.APIResponse "Invalid transition"
// @Router /api/v1/inventory/requests/{uuid}/status [patch]
func (h *InventoryHandler) UpdateRequestStatus(c fiber.Ctx) error {
	var req dto.UpdateInventoryRequestStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests/:uuid/status")
	defer cancel()

	r, err := h.requests.UpdateStatus(ctx, c.Params("uuid"), &req, h.metadata(c))
	if err != nil {
		return h.handleFlowError(c, err, "Failed to update inventory request", "UPDATE_REQUEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory request updated", r)
}

// DeleteRequest
// @Summary Delete Inventory Request
// @Tags Inventory Requests
// @Security BearerAuth
// @Param uuid path string true "Request UUID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/inventory/requests/{uuid} [delete]
func (h *InventoryHandler) DeleteRequest(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/inventory/requests/:uuid")
	defer cancel()

	if err := h.requests.Delete(ctx, c.Params("uuid"), h.metadata(c)); err != nil {
		return h.handleFlowError(c, err, "Failed to delete inventory request", "DELETE_REQUEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Inventory request deleted", nil)
}
