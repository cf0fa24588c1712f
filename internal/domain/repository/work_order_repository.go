package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

// WorkOrderRepository define el puerto de persistencia para órdenes de trabajo.
// UpdateStatus condiciona sobre expectedVersion (CAS optimista): una transición
// concurrente sobre la misma orden hace que exactamente una falle con
// domain.ErrConcurrencyConflict.
type WorkOrderRepository interface {
	// Create inserta la orden con sus ítems en una sola operación.
	Create(wo *entity.WorkOrder) error
	// GetByID carga la orden con sus ítems. Nil si no existe.
	GetByID(id string) (*entity.WorkOrder, error)
	GetByNumber(orderNumber string) (*entity.WorkOrder, error)
	// UpdateStatus persiste status, assigned_to, reject_reason y completed_at
	// con CAS sobre la versión; incrementa version en 1.
	UpdateStatus(wo *entity.WorkOrder, expectedVersion int64) error
	AddItem(item *entity.WorkOrderItem) error
	UpdateItemIssued(itemID string, issued decimal.Decimal) error
	// NextSequence devuelve el siguiente consecutivo para un prefijo de número
	// de orden (p.ej. "OT-20250828-"). Llamar dentro de la transacción del insert.
	NextSequence(prefix string) (int, error)
	List(status string, limit, offset int) ([]*entity.WorkOrder, error)
	// CountOpenByProduct cuenta ítems que referencian el producto en órdenes
	// no terminales (bloquea el soft delete del producto).
	CountOpenByProduct(productID string) (int, error)
}
