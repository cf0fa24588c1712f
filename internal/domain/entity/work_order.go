package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de trabajo.
const (
	WorkOrderStatusDraft      = "DRAFT"
	WorkOrderStatusSubmitted  = "SUBMITTED"
	WorkOrderStatusApproved   = "APPROVED"
	WorkOrderStatusInProgress = "IN_PROGRESS"
	WorkOrderStatusCompleted  = "COMPLETED"
	WorkOrderStatusRejected   = "REJECTED"
	WorkOrderStatusCancelled  = "CANCELLED"
)

// Prioridades de una orden de trabajo.
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// WorkOrder representa una orden de trabajo de mantenimiento con sus ítems
// solicitados. OrderNumber es secuencial por fecha e inmutable una vez asignado.
// Version es el token de concurrencia optimista de la orden: toda transición
// de estado condiciona el write sobre la versión leída (evita lost updates
// entre, p.ej., Approve y Cancel concurrentes).
type WorkOrder struct {
	ID           string
	OrderNumber  string // "OT-YYYYMMDD-NNNN", único
	Title        string
	Description  string
	Priority     string // LOW, MEDIUM, HIGH, CRITICAL
	Status       string
	DueDate      *time.Time
	CompletedAt  *time.Time
	RequestedBy  string
	AssignedTo   string // vacío hasta Approve
	RejectReason string
	Version      int64
	Items        []*WorkOrderItem // composición: se eliminan con la orden
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkOrderItem es una línea de la orden: producto y cantidad solicitada.
// Invariante: QuantityIssued <= QuantityRequested en todo momento; solo se
// emite mientras la orden está IN_PROGRESS.
type WorkOrderItem struct {
	ID                string
	WorkOrderID       string
	ProductID         string // restrict-delete: el producto no se elimina con ítems vivos
	QuantityRequested decimal.Decimal
	QuantityIssued    decimal.Decimal // acumulado
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ItemByProduct busca la línea que referencia un producto. Nil si no existe.
func (w *WorkOrder) ItemByProduct(productID string) *WorkOrderItem {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return it
		}
	}
	return nil
}

// Pending devuelve la cantidad aún no emitida de la línea.
func (i *WorkOrderItem) Pending() decimal.Decimal {
	return i.QuantityRequested.Sub(i.QuantityIssued)
}

// ValidPriority valida el valor de prioridad.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
