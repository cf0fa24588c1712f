package repository

import (
	"time"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos.
// Solo inserción y lectura: el libro es append-only por construcción.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByWorkOrder(workOrderID string) ([]*entity.StockMovement, error)
	List(from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
