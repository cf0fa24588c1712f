// Package workorder contiene la máquina de estados de las órdenes de trabajo.
// La tabla de transiciones es pura (estado actual + operación -> resultado),
// sin efectos sobre almacenamiento, de modo que el motor se prueba sin DB.
package workorder

import (
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

// validEdges define el grafo de transiciones permitidas.
// DRAFT -> SUBMITTED -> APPROVED -> IN_PROGRESS -> COMPLETED,
// SUBMITTED -> REJECTED, y no-terminales -> CANCELLED.
var validEdges = map[string][]string{
	entity.WorkOrderStatusDraft:      {entity.WorkOrderStatusSubmitted, entity.WorkOrderStatusCancelled},
	entity.WorkOrderStatusSubmitted:  {entity.WorkOrderStatusApproved, entity.WorkOrderStatusRejected, entity.WorkOrderStatusCancelled},
	entity.WorkOrderStatusApproved:   {entity.WorkOrderStatusInProgress, entity.WorkOrderStatusCancelled},
	entity.WorkOrderStatusInProgress: {entity.WorkOrderStatusCompleted, entity.WorkOrderStatusCancelled},
	// COMPLETED, REJECTED y CANCELLED son terminales: sin salidas.
}

// CanTransition indica si la arista from->to existe en el grafo.
func CanTransition(from, to string) bool {
	for _, next := range validEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado no tiene transiciones de salida.
func IsTerminal(status string) bool {
	return len(validEdges[status]) == 0
}

// EnsureTransition valida la arista y devuelve el error de dominio que
// corresponde cuando es ilegal. Cancelar una orden COMPLETED es violación de
// regla de negocio (no un simple estado inválido); el resto de aristas
// ilegales son ErrInvalidState.
func EnsureTransition(from, to string) error {
	if CanTransition(from, to) {
		return nil
	}
	if to == entity.WorkOrderStatusCancelled && from == entity.WorkOrderStatusCompleted {
		return domain.ErrBusinessRule
	}
	return domain.ErrInvalidState
}

// CanIssueItems indica si la orden admite emisión de ítems (solo IN_PROGRESS).
func CanIssueItems(status string) bool {
	return status == entity.WorkOrderStatusInProgress
}
