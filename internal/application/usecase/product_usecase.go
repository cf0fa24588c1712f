package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. La cantidad se maneja
// exclusivamente vía el libro de movimientos; aquí solo atributos descriptivos.
type ProductUseCase struct {
	repo   repository.ProductRepository
	woRepo repository.WorkOrderRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, woRepo repository.WorkOrderRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, woRepo: woRepo}
}

// Create registra un producto nuevo. Quantity inicia en 0 (el alta de stock
// es un movimiento RECEIPT) y Version en 1.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.ReorderPoint.LessThan(decimal.Zero) || in.ReorderQty.LessThan(decimal.Zero) || in.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if in.CostMethod == "" {
		in.CostMethod = entity.CostMethodAverage
	}
	if in.CostMethod != entity.CostMethodFIFO && in.CostMethod != entity.CostMethodLIFO && in.CostMethod != entity.CostMethodAverage {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetBySKU(in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		Quantity:     decimal.Zero,
		ReorderPoint: in.ReorderPoint,
		ReorderQty:   in.ReorderQty,
		UnitCost:     in.UnitCost,
		UnitMeasure:  in.UnitMeasure,
		Location:     in.Location,
		CostMethod:   in.CostMethod,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID. Nil si no existe (o fue eliminado).
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza atributos descriptivos con CAS sobre la versión que leyó el
// cliente. No toca Quantity ni Location (se mutan vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Version != product.Version {
		return nil, domain.ErrConcurrencyConflict
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.ReorderPoint != nil {
		if in.ReorderPoint.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.ReorderPoint = *in.ReorderPoint
	}
	if in.ReorderQty != nil {
		if in.ReorderQty.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.ReorderQty = *in.ReorderQty
	}
	if in.UnitCost != nil {
		if in.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.UnitCost = *in.UnitCost
	}
	if in.UnitMeasure != nil {
		product.UnitMeasure = *in.UnitMeasure
	}
	if in.CostMethod != nil {
		cm := *in.CostMethod
		if cm != entity.CostMethodFIFO && cm != entity.CostMethodLIFO && cm != entity.CostMethodAverage {
			return nil, domain.ErrInvalidInput
		}
		product.CostMethod = cm
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(product, in.Version); err != nil {
		return nil, err
	}
	product.Version++
	return toProductResponse(product), nil
}

// Delete marca el producto como eliminado (soft delete). Se rechaza con
// violación de regla de negocio si órdenes de trabajo abiertas lo referencian;
// el historial de movimientos y de ítems cerrados se preserva siempre.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	refs, err := uc.woRepo.CountOpenByProduct(id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrBusinessRule
	}
	return uc.repo.SoftDelete(id, product.Version)
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Products: make([]*dto.ProductResponse, 0, len(list)),
		Page:     dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, p := range list {
		out.Products = append(out.Products, toProductResponse(p))
	}
	return out, nil
}

// LowStock devuelve los SKUs en o por debajo del punto de reorden con la
// cantidad sugerida de pedido.
func (uc *ProductUseCase) LowStock(ctx context.Context) ([]*dto.LowStockItemDTO, error) {
	list, err := uc.repo.ListBelowReorderPoint()
	if err != nil {
		return nil, err
	}
	out := make([]*dto.LowStockItemDTO, 0, len(list))
	for _, p := range list {
		suggested := p.ReorderQty
		if suggested.IsZero() {
			suggested = p.ReorderPoint.Sub(p.Quantity)
		}
		out = append(out, &dto.LowStockItemDTO{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			Quantity:     p.Quantity,
			ReorderPoint: p.ReorderPoint,
			SuggestedQty: suggested,
		})
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		Quantity:     p.Quantity,
		ReorderPoint: p.ReorderPoint,
		ReorderQty:   p.ReorderQty,
		UnitCost:     p.UnitCost,
		UnitMeasure:  p.UnitMeasure,
		Location:     p.Location,
		CostMethod:   p.CostMethod,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
