package ledger

import (
	"context"

	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el libro de
// movimientos y para la emisión de ítems de órdenes de trabajo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		workOrderRepo repository.WorkOrderRepository,
	) error) error
}
