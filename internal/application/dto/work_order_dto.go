package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWorkOrderRequest body para POST /api/work-orders. Se crea en DRAFT;
// los ítems son opcionales en la creación (se exige >= 1 al enviar).
type CreateWorkOrderRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    string                 `json:"priority"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	Items       []WorkOrderItemRequest `json:"items,omitempty"`
}

// WorkOrderItemRequest línea solicitada: producto y cantidad.
type WorkOrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes,omitempty"`
}

// ApproveWorkOrderRequest body para POST /api/work-orders/:id/approve.
type ApproveWorkOrderRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// RejectWorkOrderRequest body para POST /api/work-orders/:id/reject.
type RejectWorkOrderRequest struct {
	Reason string `json:"reason"`
}

// IssueItemsRequest body para POST /api/work-orders/:id/issue.
type IssueItemsRequest struct {
	Lines []IssueLineRequest `json:"lines"`
}

// IssueLineRequest una línea a emitir contra la orden.
type IssueLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// WorkOrderItemResponse línea de la orden con lo emitido acumulado.
type WorkOrderItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityIssued    decimal.Decimal `json:"quantity_issued"`
	Notes             string          `json:"notes,omitempty"`
}

// WorkOrderResponse respuesta de orden de trabajo.
type WorkOrderResponse struct {
	ID           string                   `json:"id"`
	OrderNumber  string                   `json:"order_number"`
	Title        string                   `json:"title"`
	Description  string                   `json:"description,omitempty"`
	Priority     string                   `json:"priority"`
	Status       string                   `json:"status"`
	DueDate      *time.Time               `json:"due_date,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	RequestedBy  string                   `json:"requested_by"`
	AssignedTo   string                   `json:"assigned_to,omitempty"`
	RejectReason string                   `json:"reject_reason,omitempty"`
	Version      int64                    `json:"version"`
	Items        []*WorkOrderItemResponse `json:"items"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// WorkOrderListResponse listado paginado de órdenes.
type WorkOrderListResponse struct {
	WorkOrders []*WorkOrderResponse `json:"work_orders"`
	Page       PageResponse         `json:"page"`
}
