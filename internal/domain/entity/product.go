package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de costeo (informativos; el motor no los interpreta).
const (
	CostMethodFIFO    = "FIFO"
	CostMethodLIFO    = "LIFO"
	CostMethodAverage = "AVERAGE"
)

// Product representa un producto o SKU del almacén.
// Quantity solo se muta a través del libro de movimientos (Stock Ledger);
// Version es el token de concurrencia optimista: se incrementa en cada update
// y todo write condiciona sobre la versión leída.
type Product struct {
	ID           string
	SKU          string // código único de negocio
	Name         string
	Category     string
	Quantity     decimal.Decimal // invariante: >= 0
	ReorderPoint decimal.Decimal
	ReorderQty   decimal.Decimal
	UnitCost     decimal.Decimal
	UnitMeasure  string
	Location     string
	CostMethod   string // FIFO, LIFO, AVERAGE
	Version      int64
	IsDeleted    bool // soft delete: preserva historial de movimientos e ítems
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BelowReorderPoint indica si el stock actual está en o por debajo del punto de reorden.
func (p *Product) BelowReorderPoint() bool {
	return p.ReorderPoint.GreaterThan(decimal.Zero) && p.Quantity.LessThanOrEqual(p.ReorderPoint)
}
