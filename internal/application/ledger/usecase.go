package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

// RecordMovementUseCase es la única autoridad que muta Product.Quantity.
// Todo cambio de cantidad (recepción, salida, ajuste, devolución) pasa por
// aquí y queda registrado como entrada inmutable del libro de movimientos.
//
// El write del producto es un compare-and-swap sobre su versión: si otro
// writer cambió la fila desde la lectura, la operación completa falla con
// domain.ErrConcurrencyConflict y el caller debe recargar y reintentar
// (el núcleo no reintenta solo: tras recargar pueden aplicar nuevas
// precondiciones, p.ej. stock insuficiente).
type RecordMovementUseCase struct {
	txRunner TxRunner
	notifier notify.Notifier
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(txRunner TxRunner, notifier notify.Notifier) *RecordMovementUseCase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &RecordMovementUseCase{txRunner: txRunner, notifier: notifier}
}

// MovementInput entrada para registrar un movimiento de stock.
// Quantity siempre > 0; el signo lo implica Type (Direction en ajustes).
// UserID es la identidad del actor, siempre explícita.
type MovementInput struct {
	ProductID    string
	WorkOrderID  string
	Type         string
	Quantity     decimal.Decimal
	Direction    string // solo ADJUSTMENT: INCREASE o DECREASE
	FromLocation string
	ToLocation   string
	Reason       string
	Reference    string
	UnitCost     *decimal.Decimal // nil = costo unitario actual del producto
	UserID       string
}

// MovementResult es el movimiento creado más el estado post-update del producto.
type MovementResult struct {
	Movement    *entity.StockMovement
	NewQuantity decimal.Decimal
	NewVersion  int64
}

// RecordMovement valida la entrada, aplica el movimiento en una transacción
// (update de producto + insert del movimiento, atómicos) y emite la
// notificación de stock bajo si aplica. La notificación es best-effort y
// ocurre después del commit: nunca revierte el cambio.
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, input MovementInput) (*MovementResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *MovementResult
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		_ repository.WorkOrderRepository,
	) error {
		res, p, err := ApplyMovement(movRepo, productRepo, input, time.Now())
		if err != nil {
			return err
		}
		result = res
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if product.ReorderPoint.GreaterThan(decimal.Zero) && result.NewQuantity.LessThanOrEqual(product.ReorderPoint) {
		uc.notifier.LowStock(notify.LowStockEvent{
			ProductID:    product.ID,
			SKU:          product.SKU,
			Name:         product.Name,
			Quantity:     result.NewQuantity,
			ReorderPoint: product.ReorderPoint,
			SuggestedQty: product.ReorderQty,
		})
	}
	return result, nil
}

// ApplyMovement ejecuta un movimiento usando los repositorios proporcionados
// (misma transacción del caller). Lo usa RecordMovement y también la emisión
// de ítems de órdenes de trabajo, que envuelve varias líneas en una sola tx.
// Devuelve además el producto tal como se leyó (para chequeos de reorden).
func ApplyMovement(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	input MovementInput,
	now time.Time,
) (*MovementResult, *entity.Product, error) {
	product, err := productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.ErrNotFound
	}

	unitCost := product.UnitCost
	if input.UnitCost != nil {
		if input.UnitCost.LessThan(decimal.Zero) {
			return nil, nil, domain.ErrInvalidInput
		}
		unitCost = *input.UnitCost
	}

	mov := &entity.StockMovement{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		WorkOrderID:  input.WorkOrderID,
		Type:         input.Type,
		Quantity:     input.Quantity,
		Direction:    input.Direction,
		FromLocation: input.FromLocation,
		ToLocation:   input.ToLocation,
		Reason:       input.Reason,
		Reference:    input.Reference,
		UnitCost:     unitCost,
		PerformedBy:  input.UserID,
		CreatedAt:    now,
	}

	newQty := product.Quantity
	newLocation := ""
	if input.Type == entity.MovementTypeTransfer {
		// TRANSFER solo mueve la ubicación; la cantidad no cambia.
		if mov.FromLocation == "" {
			mov.FromLocation = product.Location
		}
		newLocation = input.ToLocation
	} else {
		delta := mov.SignedDelta()
		if mov.IsDecreasing() && product.Quantity.LessThan(input.Quantity) {
			return nil, nil, &domain.InsufficientStockError{
				ProductID: product.ID,
				Available: product.Quantity,
				Requested: input.Quantity,
			}
		}
		newQty = product.Quantity.Add(delta)
	}

	// CAS sobre la versión leída: si otro writer ganó, toda la operación falla
	// y el rollback de la tx descarta el movimiento.
	if err := productRepo.UpdateQuantity(product.ID, newQty, newLocation, product.Version); err != nil {
		return nil, nil, err
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, nil, err
	}
	return &MovementResult{Movement: mov, NewQuantity: newQty, NewVersion: product.Version + 1}, product, nil
}

func validateInput(input MovementInput) error {
	if input.ProductID == "" || input.UserID == "" {
		return domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	switch input.Type {
	case entity.MovementTypeReceipt, entity.MovementTypeIssue, entity.MovementTypeReturn:
		if input.Direction != "" {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeAdjustment:
		// Dirección explícita: los ajustes crudos pueden ir en ambos sentidos
		// y el signo de la cantidad no la decide.
		if input.Direction != entity.DirectionIncrease && input.Direction != entity.DirectionDecrease {
			return domain.ErrInvalidInput
		}
	case entity.MovementTypeTransfer:
		if input.ToLocation == "" {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	return nil
}
