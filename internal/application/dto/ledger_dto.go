package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest body para POST /api/inventory/movements.
// Quantity siempre positiva; direction obligatoria solo en ADJUSTMENT.
type RecordMovementRequest struct {
	ProductID    string           `json:"product_id"`
	WorkOrderID  string           `json:"work_order_id,omitempty"`
	Type         string           `json:"type"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Direction    string           `json:"direction,omitempty"`
	FromLocation string           `json:"from_location,omitempty"`
	ToLocation   string           `json:"to_location,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Reference    string           `json:"reference,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	WorkOrderID  string          `json:"work_order_id,omitempty"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Direction    string          `json:"direction,omitempty"`
	FromLocation string          `json:"from_location,omitempty"`
	ToLocation   string          `json:"to_location,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PerformedBy  string          `json:"performed_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RecordMovementResponse movimiento creado más el estado post-update del producto.
type RecordMovementResponse struct {
	Movement    MovementResponse `json:"movement"`
	NewQuantity decimal.Decimal  `json:"new_quantity"`
	NewVersion  int64            `json:"new_version"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Movements []*MovementResponse `json:"movements"`
	Page      PageResponse        `json:"page"`
}
