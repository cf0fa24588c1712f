package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeReceipt    = "RECEIPT"    // entrada
	MovementTypeIssue      = "ISSUE"      // salida (consumo, orden de trabajo)
	MovementTypeAdjustment = "ADJUSTMENT" // ajuste de conteo (dirección explícita)
	MovementTypeTransfer   = "TRANSFER"   // cambio de ubicación, sin afectar cantidad
	MovementTypeReturn     = "RETURN"     // devolución al almacén
)

// Dirección explícita para ADJUSTMENT. Los demás tipos la implican.
const (
	DirectionIncrease = "INCREASE"
	DirectionDecrease = "DECREASE"
)

// StockMovement es una entrada inmutable del libro de movimientos: se crea una
// vez y nunca se edita ni se borra; una corrección es un movimiento nuevo.
// Quantity se guarda siempre positiva; el signo lo implica el tipo (y Direction
// en ajustes).
type StockMovement struct {
	ID           string
	ProductID    string
	WorkOrderID  string          // opcional: salida asociada a una orden de trabajo
	Type         string          // RECEIPT, ISSUE, ADJUSTMENT, TRANSFER, RETURN
	Quantity     decimal.Decimal // siempre > 0
	Direction    string          // INCREASE/DECREASE solo para ADJUSTMENT
	FromLocation string
	ToLocation   string
	Reason       string
	Reference    string // factura, orden de compra, nota externa
	UnitCost     decimal.Decimal // costo unitario al momento de la transacción
	PerformedBy  string          // UserID, siempre explícito (nunca estado ambiente)
	CreatedAt    time.Time
}

// SignedDelta devuelve el delta con signo que el movimiento aplica a la cantidad
// del producto. TRANSFER no afecta cantidad.
func (m *StockMovement) SignedDelta() decimal.Decimal {
	switch m.Type {
	case MovementTypeReceipt, MovementTypeReturn:
		return m.Quantity
	case MovementTypeIssue:
		return m.Quantity.Neg()
	case MovementTypeAdjustment:
		if m.Direction == DirectionDecrease {
			return m.Quantity.Neg()
		}
		return m.Quantity
	}
	return decimal.Zero
}

// IsDecreasing indica si el movimiento resta stock (requiere verificación de disponibilidad).
func (m *StockMovement) IsDecreasing() bool {
	return m.SignedDelta().LessThan(decimal.Zero)
}
