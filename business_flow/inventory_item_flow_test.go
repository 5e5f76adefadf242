package businessflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
	"github.com/amirphl/dentalcare/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newItemRequest(name string, qty, reorder int) *dto.CreateInventoryItemRequest {
	return &dto.CreateInventoryItemRequest{
		Name:         name,
		Category:     " Restorative ",
		Quantity:     qty,
		Unit:         "box",
		ReorderLevel: reorder,
		UnitPrice:    12.5,
		Supplier:     utils.ToPtr("  Dentsply "),
	}
}

func TestInventoryItemFlow(t *testing.T) {
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")

	t.Run("SequentialCodes", func(t *testing.T) {
		repo := newFakeItemRepo()
		flow := NewInventoryItemFlow(repo, services.NewCodeGenerator(services.NewMemoryCounterStore()))

		for _, want := range []string{"ITEM-001", "ITEM-002", "ITEM-003"} {
			item, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
			require.NoError(t, err)
			assert.Equal(t, want, item.Code)
		}
		assert.Len(t, repo.rows, 3)
	})

	t.Run("CodesNeverReusedAfterDelete", func(t *testing.T) {
		repo := newFakeItemRepo()
		flow := NewInventoryItemFlow(repo, services.NewCodeGenerator(services.NewMemoryCounterStore()))

		first, err := flow.Create(ctx, newItemRequest("Gloves", 100, 10), meta)
		require.NoError(t, err)
		require.NoError(t, flow.Delete(ctx, first.UUID, meta))

		second, err := flow.Create(ctx, newItemRequest("Masks", 50, 10), meta)
		require.NoError(t, err)
		assert.Equal(t, "ITEM-002", second.Code)
	})

	t.Run("NormalizesInput", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))

		item, err := flow.Create(ctx, newItemRequest("  Composite  ", 1, 2), meta)
		require.NoError(t, err)
		assert.Equal(t, "Composite", item.Name)
		assert.Equal(t, "restorative", item.Category)
		require.NotNil(t, item.Supplier)
		assert.Equal(t, "Dentsply", *item.Supplier)
		assert.True(t, item.LowStock)
	})

	t.Run("GenerationFailurePersistsNothing", func(t *testing.T) {
		repo := newFakeItemRepo()
		flow := NewInventoryItemFlow(repo, failingCodeGen{err: errFakeDB})

		item, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
		require.Error(t, err)
		assert.Nil(t, item)
		assert.True(t, IsCodeGenerationFailed(err))
		assert.ErrorIs(t, err, errFakeDB)
		assert.Equal(t, "CODE_GENERATION_FAILED", BusinessErrorCode(err))
		assert.Empty(t, repo.rows)
	})

	t.Run("DuplicateCodeIsConflict", func(t *testing.T) {
		repo := newFakeItemRepo()
		flow := NewInventoryItemFlow(repo, fixedCodeGen{code: "ITEM-001"})

		_, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
		require.NoError(t, err)

		_, err = flow.Create(ctx, newItemRequest("Bond", 5, 1), meta)
		require.Error(t, err)
		assert.True(t, IsCodeConflict(err))
		assert.True(t, IsConflict(err))
		assert.Equal(t, "CODE_CONFLICT", BusinessErrorCode(err))
		assert.Len(t, repo.rows, 1)
	})

	t.Run("InvalidExpiryDate", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		req := newItemRequest("Composite", 10, 2)
		req.ExpiryDate = utils.ToPtr("31/12/2030")

		_, err := flow.Create(ctx, req, meta)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("GetByCode", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		created, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
		require.NoError(t, err)

		found, err := flow.GetByCode(ctx, " item-001 ")
		require.NoError(t, err)
		assert.Equal(t, created.UUID, found.UUID)

		_, err = flow.GetByCode(ctx, "ITEM-002")
		assert.True(t, IsInventoryItemNotFound(err))

		_, err = flow.GetByCode(ctx, "RI-001")
		assert.True(t, IsInvalidCodeFormat(err))

		_, err = flow.GetByCode(ctx, "ITEM-1")
		assert.True(t, IsInvalidCodeFormat(err))
	})

	t.Run("UpdateKeepsCodeAndQuantity", func(t *testing.T) {
		repo := newFakeItemRepo()
		flow := NewInventoryItemFlow(repo, services.NewCodeGenerator(services.NewMemoryCounterStore()))
		created, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
		require.NoError(t, err)

		updated, err := flow.Update(ctx, created.UUID, &dto.UpdateInventoryItemRequest{
			Name:         "Composite A3",
			Category:     "restorative",
			Unit:         "syringe",
			ReorderLevel: 4,
			UnitPrice:    15,
			ExpiryDate:   utils.ToPtr("2030-12-31"),
		}, meta)
		require.NoError(t, err)
		assert.Equal(t, "ITEM-001", updated.Code)
		assert.Equal(t, 10, updated.Quantity)
		assert.Equal(t, "Composite A3", updated.Name)
		require.NotNil(t, updated.ExpiryDate)
		assert.Equal(t, "2030-12-31", *updated.ExpiryDate)
	})

	t.Run("AdjustStock", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		created, err := flow.Create(ctx, newItemRequest("Gloves", 10, 3), meta)
		require.NoError(t, err)

		item, err := flow.AdjustStock(ctx, created.UUID, &dto.AdjustStockRequest{Delta: -8}, meta)
		require.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
		assert.True(t, item.LowStock)

		_, err = flow.AdjustStock(ctx, created.UUID, &dto.AdjustStockRequest{Delta: -3}, meta)
		require.Error(t, err)
		assert.True(t, IsInsufficientStock(err))
		assert.True(t, IsConflict(err))

		_, err = flow.AdjustStock(ctx, created.UUID, &dto.AdjustStockRequest{Delta: 0}, meta)
		assert.True(t, IsValidationError(err))
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		_, err := flow.GetByUUID(ctx, "not-a-uuid")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("ListPaginates", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		for i := 0; i < 5; i++ {
			_, err := flow.Create(ctx, newItemRequest("Item", 10, 2), meta)
			require.NoError(t, err)
		}

		resp, err := flow.List(ctx, &dto.ListInventoryItemsRequest{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "ITEM-003", resp.Items[0].Code)
		assert.Equal(t, int64(5), resp.Pagination.Total)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
	})

	t.Run("ExportXLSX", func(t *testing.T) {
		flow := NewInventoryItemFlow(newFakeItemRepo(), services.NewCodeGenerator(services.NewMemoryCounterStore()))
		_, err := flow.Create(ctx, newItemRequest("Composite", 10, 2), meta)
		require.NoError(t, err)
		_, err = flow.Create(ctx, newItemRequest("Gloves", 1, 5), meta)
		require.NoError(t, err)

		name, data, err := flow.ExportXLSX(ctx)
		require.NoError(t, err)
		assert.Regexp(t, `^inventory_\d{8}\.xlsx$`, name)

		xl, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer xl.Close()

		rows, err := xl.GetRows("Inventory")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "code", rows[0][0])
		assert.Equal(t, "ITEM-001", rows[1][0])
		assert.Equal(t, "ITEM-002", rows[2][0])
		assert.Equal(t, "true", rows[2][6])
	})
}
