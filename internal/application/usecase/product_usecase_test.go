package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/usecase"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/memory"
)

func newProductUC(t *testing.T) (*memory.Store, *usecase.ProductUseCase) {
	t.Helper()
	store := memory.NewStore()
	return store, usecase.NewProductUseCase(store.ProductRepo(), store.WorkOrderRepo())
}

func strPtr(s string) *string { return &s }

func TestCreateProduct_CantidadInicialCero(t *testing.T) {
	_, uc := newProductUC(t)

	out, err := uc.Create(context.Background(), dto.CreateProductRequest{
		SKU: "FLT-001", Name: "Filtro de aceite",
		ReorderPoint: decimal.NewFromInt(10),
		UnitCost:     decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	assert.True(t, out.Quantity.IsZero(), "el alta de stock es un movimiento RECEIPT, no parte del create")
	assert.Equal(t, int64(1), out.Version)
	assert.Equal(t, entity.CostMethodAverage, out.CostMethod, "método de costeo por defecto")
}

func TestCreateProduct_SKUDuplicado(t *testing.T) {
	_, uc := newProductUC(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "FLT-001", Name: "Filtro"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "FLT-001", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateProduct_VersionObsoleta(t *testing.T) {
	_, uc := newProductUC(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "FLT-001", Name: "Filtro"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name: strPtr("Filtro v2"), Version: created.Version,
	})
	require.NoError(t, err)

	// Segundo cliente con la versión vieja: pierde.
	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name: strPtr("Filtro v3"), Version: created.Version,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	got, _ := uc.GetByID(ctx, created.ID)
	assert.Equal(t, "Filtro v2", got.Name)
}

func TestDeleteProduct_BloqueadoPorOrdenesAbiertas(t *testing.T) {
	store, uc := newProductUC(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "FLT-001", Name: "Filtro"})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.WorkOrderRepo().Create(&entity.WorkOrder{
		ID: "wo1", OrderNumber: "OT-20260828-0001", Title: "Mantenimiento",
		Priority: entity.PriorityMedium, Status: entity.WorkOrderStatusSubmitted,
		RequestedBy: "u1", Version: 1, CreatedAt: now, UpdatedAt: now,
		Items: []*entity.WorkOrderItem{{
			ID: "it1", WorkOrderID: "wo1", ProductID: created.ID,
			QuantityRequested: decimal.NewFromInt(2), CreatedAt: now, UpdatedAt: now,
		}},
	}))

	err = uc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrBusinessRule, "con órdenes abiertas no se elimina")

	// Orden cerrada: el soft delete procede y el historial se conserva.
	wo, _ := store.WorkOrderRepo().GetByID("wo1")
	wo.Status = entity.WorkOrderStatusCancelled
	require.NoError(t, store.WorkOrderRepo().UpdateStatus(wo, wo.Version))

	require.NoError(t, uc.Delete(ctx, created.ID))
	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "eliminado no aparece en lecturas")
}

func TestLowStock_SugerenciaDePedido(t *testing.T) {
	store, uc := newProductUC(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.ProductRepo().Create(&entity.Product{
		ID: "p1", SKU: "FLT-001", Name: "Filtro", Quantity: decimal.NewFromInt(4),
		ReorderPoint: decimal.NewFromInt(10), ReorderQty: decimal.NewFromInt(50),
		Version: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.ProductRepo().Create(&entity.Product{
		ID: "p2", SKU: "COR-002", Name: "Correa", Quantity: decimal.NewFromInt(3),
		ReorderPoint: decimal.NewFromInt(10), Version: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.ProductRepo().Create(&entity.Product{
		ID: "p3", SKU: "TOR-003", Name: "Tornillo", Quantity: decimal.NewFromInt(500),
		ReorderPoint: decimal.NewFromInt(100), Version: 1, CreatedAt: now, UpdatedAt: now,
	}))

	out, err := uc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2, "solo los que están en o bajo el punto de reorden")

	bySKU := map[string]decimal.Decimal{}
	for _, item := range out {
		bySKU[item.SKU] = item.SuggestedQty
	}
	assert.True(t, bySKU["COR-002"].Equal(decimal.NewFromInt(7)), "sin reorder_qty sugiere reorder_point - quantity")
	assert.True(t, bySKU["FLT-001"].Equal(decimal.NewFromInt(50)), "con reorder_qty la sugerencia es fija")
}
