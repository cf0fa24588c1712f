package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Todas las lecturas excluyen productos con soft delete de forma explícita.
// Los writes condicionan sobre expectedVersion (compare-and-swap optimista):
// si la fila cambió desde la lectura, retornan domain.ErrConcurrencyConflict.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	// Update actualiza atributos descriptivos; cantidad y ubicación se mutan
	// solo vía UpdateQuantity (libro de movimientos).
	Update(product *entity.Product, expectedVersion int64) error
	// UpdateQuantity aplica la nueva cantidad (y ubicación si location != "")
	// con CAS sobre la versión; incrementa version en 1.
	UpdateQuantity(productID string, quantity decimal.Decimal, location string, expectedVersion int64) error
	SoftDelete(id string, expectedVersion int64) error
	List(limit, offset int) ([]*entity.Product, error)
	ListBelowReorderPoint() ([]*entity.Product, error)
}
