// Package notify define el puerto de notificaciones del núcleo.
// El contrato es fire-and-forget: las implementaciones no bloquean al caller
// y un fallo de entrega jamás revierte el cambio de estado que lo originó.
package notify

import "github.com/shopspring/decimal"

// WorkOrderStatusEvent se emite tras una transición de estado exitosa.
type WorkOrderStatusEvent struct {
	WorkOrderID string `json:"work_order_id"`
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// LowStockEvent se emite cuando un movimiento deja el stock en o por debajo
// del punto de reorden.
type LowStockEvent struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"`
}

// Notifier es el sink externo (pub/sub, push). Best-effort.
type Notifier interface {
	WorkOrderStatusChanged(evt WorkOrderStatusEvent)
	LowStock(evt LowStockEvent)
}

// Nop descarta todas las notificaciones. Útil en tests y herramientas CLI.
type Nop struct{}

func (Nop) WorkOrderStatusChanged(WorkOrderStatusEvent) {}
func (Nop) LowStock(LowStockEvent)                      {}
