package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/models"
	"github.com/amirphl/dentalcare/repository"
	"github.com/amirphl/dentalcare/utils"
	"github.com/sirupsen/logrus"
)

// InventoryRequestFlow handles restock requests. Request codes restart at
// RI-001 whenever the request table has been emptied.
type InventoryRequestFlow interface {
	Create(ctx context.Context, req *dto.CreateInventoryRequestRequest, metadata *ClientMetadata) (*dto.InventoryRequestDTO, error)
	List(ctx context.Context, req *dto.ListInventoryRequestsRequest) (*dto.ListInventoryRequestsResponse, error)
	GetByUUID(ctx context.Context, requestUUID string) (*dto.InventoryRequestDTO, error)
	GetByCode(ctx context.Context, code string) (*dto.InventoryRequestDTO, error)
	UpdateStatus(ctx context.Context, requestUUID string, req *dto.UpdateInventoryRequestStatusRequest, metadata *ClientMetadata) (*dto.InventoryRequestDTO, error)
	Delete(ctx context.Context, requestUUID string, metadata *ClientMetadata) error
}

type InventoryRequestFlowImpl struct {
	requestRepo repository.InventoryRequestRepository
	itemRepo    repository.InventoryItemRepository
	codeGen     services.CodeGenerator
	runTx       TxRunner
}

func NewInventoryRequestFlow(requestRepo repository.InventoryRequestRepository, itemRepo repository.InventoryItemRepository, codeGen services.CodeGenerator, runTx TxRunner) InventoryRequestFlow {
	return &InventoryRequestFlowImpl{
		requestRepo: requestRepo,
		itemRepo:    itemRepo,
		codeGen:     codeGen,
		runTx:       runTx,
	}
}

// allowedRequestTransitions lists the statuses reachable from each status
var allowedRequestTransitions = map[string][]string{
	models.InventoryRequestStatusPending:  {models.InventoryRequestStatusApproved, models.InventoryRequestStatusRejected},
	models.InventoryRequestStatusApproved: {models.InventoryRequestStatusFulfilled},
}

func canTransition(from, to string) bool {
	for _, s := range allowedRequestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (f *InventoryRequestFlowImpl) Create(ctx context.Context, req *dto.CreateInventoryRequestRequest, metadata *ClientMetadata) (*dto.InventoryRequestDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	if req.Quantity <= 0 {
		return nil, NewBusinessError("INVENTORY_REQUEST_VALIDATION_FAILED", "quantity must be positive", ErrValidationFailed)
	}

	entity := models.InventoryRequest{
		ItemName:    strings.TrimSpace(req.ItemName),
		Quantity:    req.Quantity,
		RequestedBy: strings.TrimSpace(req.RequestedBy),
		Reason:      utils.TrimPtr(req.Reason),
		Status:      models.InventoryRequestStatusPending,
	}

	if itemUUID := utils.TrimPtr(req.ItemUUID); itemUUID != nil {
		if _, err := utils.ParseUUID(*itemUUID); err != nil {
			return nil, NewBusinessError("INVALID_UUID", "Invalid inventory item UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
		}
		item, err := f.itemRepo.ByUUID(ctx, *itemUUID)
		if err != nil {
			return nil, NewBusinessError("INVENTORY_ITEM_LOOKUP_FAILED", "Failed to lookup inventory item", err)
		}
		if item == nil {
			return nil, NewBusinessError("INVENTORY_ITEM_NOT_FOUND", "Inventory item not found", ErrInventoryItemNotFound)
		}
		entity.ItemID = &item.ID
		if entity.ItemName == "" {
			entity.ItemName = item.Name
		}
	}
	if entity.ItemName == "" {
		return nil, NewBusinessError("INVENTORY_REQUEST_VALIDATION_FAILED", "item_name or item_uuid is required", ErrValidationFailed)
	}

	code, err := issueCode(ctx, f.codeGen, inventoryRequestCodes, f.requestRepo, metadata)
	if err != nil {
		return nil, err
	}
	entity.Code = code

	if err := f.requestRepo.Save(ctx, &entity); err != nil {
		return nil, saveCodedError(err, code)
	}

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"code":     entity.Code,
		"item":     entity.ItemName,
		"quantity": entity.Quantity,
	}).Info("inventory request created")

	resp := ToInventoryRequestDTO(entity)
	return &resp, nil
}

func (f *InventoryRequestFlowImpl) List(ctx context.Context, req *dto.ListInventoryRequestsRequest) (*dto.ListInventoryRequestsResponse, error) {
	if req == nil {
		req = &dto.ListInventoryRequestsRequest{}
	}
	page, limit, offset := normalizePagination(req.Page, req.Limit)

	filter := models.InventoryRequestFilter{Status: utils.TrimPtr(req.Status)}
	if filter.Status != nil && !isInventoryRequestStatus(*filter.Status) {
		return nil, NewBusinessError("INVALID_STATUS", "Unknown inventory request status", ErrInvalidInventoryRequestState)
	}

	rows, err := f.requestRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_LIST_FAILED", "Failed to list inventory requests", err)
	}
	total, err := f.requestRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_LIST_FAILED", "Failed to count inventory requests", err)
	}

	out := make([]dto.InventoryRequestDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToInventoryRequestDTO(*r))
	}
	return &dto.ListInventoryRequestsResponse{
		Items:      out,
		Pagination: newPaginationInfo(total, page, limit),
	}, nil
}

func (f *InventoryRequestFlowImpl) GetByUUID(ctx context.Context, requestUUID string) (*dto.InventoryRequestDTO, error) {
	entity, err := f.getRequest(ctx, requestUUID)
	if err != nil {
		return nil, err
	}
	resp := ToInventoryRequestDTO(*entity)
	return &resp, nil
}

func (f *InventoryRequestFlowImpl) GetByCode(ctx context.Context, code string) (*dto.InventoryRequestDTO, error) {
	code, err := normalizeCode(code, services.PrefixInventoryRequest)
	if err != nil {
		return nil, err
	}
	entity, err := f.requestRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_LOOKUP_FAILED", "Failed to lookup inventory request", err)
	}
	if entity == nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_NOT_FOUND", "Inventory request not found", ErrInventoryRequestNotFound)
	}
	resp := ToInventoryRequestDTO(*entity)
	return &resp, nil
}

// UpdateStatus moves a request through pending -> approved|rejected and approved -> fulfilled.
// Fulfilling a request linked to an item adds the requested quantity to stock in the same transaction.
// The status write is conditional on the status read here, so of two concurrent updates from the
// same status only the first commits and stock is adjusted once.
func (f *InventoryRequestFlowImpl) UpdateStatus(ctx context.Context, requestUUID string, req *dto.UpdateInventoryRequestStatusRequest, metadata *ClientMetadata) (*dto.InventoryRequestDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_VALIDATION_FAILED", "Request body is required", ErrValidationFailed)
	}
	target := strings.TrimSpace(req.Status)
	if !isInventoryRequestStatus(target) {
		return nil, NewBusinessError("INVALID_STATUS", "Unknown inventory request status", ErrInvalidInventoryRequestState)
	}

	entity, err := f.getRequest(ctx, requestUUID)
	if err != nil {
		return nil, err
	}
	if !canTransition(entity.Status, target) {
		return nil, NewBusinessErrorf("INVALID_STATUS_TRANSITION", "Cannot move request from %s to %s", ErrInvalidStatusTransition, entity.Status, target)
	}

	now := utils.UTCNow()
	err = f.runTx(ctx, func(txCtx context.Context) error {
		if err := f.requestRepo.UpdateStatus(txCtx, entity.ID, entity.Status, target, &now); err != nil {
			return err
		}
		if target == models.InventoryRequestStatusFulfilled && entity.ItemID != nil {
			item, err := f.itemRepo.AdjustQuantity(txCtx, *entity.ItemID, entity.Quantity)
			if err != nil {
				return err
			}
			if item != nil {
				utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
					"code":     entity.Code,
					"item":     item.Code,
					"quantity": item.Quantity,
				}).Info("inventory request fulfilled into stock")
			}
		}
		return nil
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, NewBusinessErrorf("INVALID_STATUS_TRANSITION", "Request %s is no longer %s", fmt.Errorf("%w: %w", ErrInvalidStatusTransition, err), entity.Code, entity.Status)
	}
	if err != nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_UPDATE_FAILED", "Failed to update inventory request", err)
	}

	entity.Status = target
	entity.DecidedAt = &now
	entity.UpdatedAt = now

	utils.Logger.WithFields(metadata.logFields()).WithFields(logrus.Fields{
		"code":   entity.Code,
		"status": target,
	}).Info("inventory request status changed")

	resp := ToInventoryRequestDTO(*entity)
	return &resp, nil
}

func (f *InventoryRequestFlowImpl) Delete(ctx context.Context, requestUUID string, metadata *ClientMetadata) error {
	entity, err := f.getRequest(ctx, requestUUID)
	if err != nil {
		return err
	}
	if err := f.requestRepo.DeleteByID(ctx, entity.ID); err != nil {
		return NewBusinessError("INVENTORY_REQUEST_DELETE_FAILED", "Failed to delete inventory request", err)
	}
	utils.Logger.WithFields(metadata.logFields()).WithField("code", entity.Code).Info("inventory request deleted")
	return nil
}

func (f *InventoryRequestFlowImpl) getRequest(ctx context.Context, requestUUID string) (*models.InventoryRequest, error) {
	if _, err := utils.ParseUUID(requestUUID); err != nil {
		return nil, NewBusinessError("INVALID_UUID", "Invalid inventory request UUID", fmt.Errorf("%w: %w", ErrInvalidUUID, err))
	}
	entity, err := f.requestRepo.ByUUID(ctx, requestUUID)
	if err != nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_LOOKUP_FAILED", "Failed to lookup inventory request", err)
	}
	if entity == nil {
		return nil, NewBusinessError("INVENTORY_REQUEST_NOT_FOUND", "Inventory request not found", ErrInventoryRequestNotFound)
	}
	return entity, nil
}

func isInventoryRequestStatus(s string) bool {
	switch s {
	case models.InventoryRequestStatusPending,
		models.InventoryRequestStatusApproved,
		models.InventoryRequestStatusRejected,
		models.InventoryRequestStatusFulfilled:
		return true
	}
	return false
}
