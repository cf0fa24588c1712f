package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

// HistoryUseCase consultas de solo lectura sobre el libro de movimientos.
type HistoryUseCase struct {
	movRepo repository.StockMovementRepository
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(movRepo repository.StockMovementRepository) *HistoryUseCase {
	return &HistoryUseCase{movRepo: movRepo}
}

// HistoryFilter filtros para listados del libro.
type HistoryFilter struct {
	ProductID   string
	WorkOrderID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// List lista movimientos según filtro. WorkOrderID tiene prioridad sobre
// ProductID; sin filtro de entidad lista el libro completo paginado.
func (uc *HistoryUseCase) List(ctx context.Context, f HistoryFilter) (*dto.MovementListResponse, error) {
	var (
		list []*entity.StockMovement
		err  error
	)
	switch {
	case f.WorkOrderID != "":
		list, err = uc.movRepo.ListByWorkOrder(f.WorkOrderID)
	case f.ProductID != "":
		list, err = uc.movRepo.ListByProduct(f.ProductID, f.From, f.To, f.Limit, f.Offset)
	default:
		list, err = uc.movRepo.List(f.From, f.To, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, err
	}
	out := &dto.MovementListResponse{
		Movements: make([]*dto.MovementResponse, 0, len(list)),
		Page:      dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}
	for _, m := range list {
		out.Movements = append(out.Movements, ToMovementResponse(m))
	}
	return out, nil
}

// ToMovementResponse mapea la entidad al DTO de respuesta.
func ToMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		WorkOrderID:  m.WorkOrderID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		Direction:    m.Direction,
		FromLocation: m.FromLocation,
		ToLocation:   m.ToLocation,
		Reason:       m.Reason,
		Reference:    m.Reference,
		UnitCost:     m.UnitCost,
		PerformedBy:  m.PerformedBy,
		CreatedAt:    m.CreatedAt,
	}
}
