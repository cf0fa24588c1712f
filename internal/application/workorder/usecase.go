package workorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
	domainwo "github.com/jhoicas/almacen-ot-api/internal/domain/workorder"
)

// UseCase implementa el ciclo de vida de las órdenes de trabajo:
// DRAFT -> SUBMITTED -> APPROVED -> IN_PROGRESS -> COMPLETED, con rechazo y
// cancelación según el grafo de internal/domain/workorder.
//
// Toda transición escribe con compare-and-swap sobre la versión de la orden:
// de dos transiciones concurrentes (p.ej. Approve y Cancel) exactamente una
// gana y la otra recibe domain.ErrConcurrencyConflict.
//
// IssueItems es la única operación que cruza al libro de movimientos y se
// ejecuta completa en una transacción: o todas las líneas quedan emitidas con
// sus movimientos, o ninguna.
type UseCase struct {
	txRunner    ledger.TxRunner
	woRepo      repository.WorkOrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	notifier    notify.Notifier
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	woRepo repository.WorkOrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
) *UseCase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &UseCase{
		txRunner:    txRunner,
		woRepo:      woRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// Create crea una orden en DRAFT con número consecutivo por fecha. Los ítems
// iniciales son opcionales; cada producto debe existir (y no estar eliminado).
func (uc *UseCase) Create(ctx context.Context, requesterID string, in dto.CreateWorkOrderRequest) (*dto.WorkOrderResponse, error) {
	if in.Title == "" || requesterID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Priority == "" {
		in.Priority = entity.PriorityMedium
	}
	if !entity.ValidPriority(in.Priority) {
		return nil, domain.ErrInvalidInput
	}
	requester, err := uc.userRepo.GetByID(requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	wo := &entity.WorkOrder{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      entity.WorkOrderStatusDraft,
		DueDate:     in.DueDate,
		RequestedBy: requesterID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, itemIn := range in.Items {
		// Misma regla que AddItem: un producto por línea, sin repetir.
		if wo.ItemByProduct(itemIn.ProductID) != nil {
			return nil, domain.ErrDuplicate
		}
		item, err := uc.buildItem(wo, itemIn, now)
		if err != nil {
			return nil, err
		}
		wo.Items = append(wo.Items, item)
	}

	// Número de orden y el insert comparten transacción para que el consecutivo
	// por fecha no tenga huecos por carreras de creación.
	err = uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		woRepo repository.WorkOrderRepository,
	) error {
		prefix := orderNumberPrefix(now)
		seq, err := woRepo.NextSequence(prefix)
		if err != nil {
			return err
		}
		wo.OrderNumber = formatOrderNumber(prefix, seq)
		return woRepo.Create(wo)
	})
	if err != nil {
		return nil, err
	}
	return toWorkOrderResponse(wo), nil
}

// AddItem agrega una línea a una orden en DRAFT. Un producto solo puede
// aparecer en una línea por orden.
func (uc *UseCase) AddItem(ctx context.Context, workOrderID string, in dto.WorkOrderItemRequest) (*dto.WorkOrderResponse, error) {
	wo, err := uc.woRepo.GetByID(workOrderID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	if wo.Status != entity.WorkOrderStatusDraft {
		return nil, domain.ErrInvalidState
	}
	if wo.ItemByProduct(in.ProductID) != nil {
		return nil, domain.ErrDuplicate
	}
	item, err := uc.buildItem(wo, in, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.woRepo.AddItem(item); err != nil {
		return nil, err
	}
	wo.Items = append(wo.Items, item)
	return toWorkOrderResponse(wo), nil
}

func (uc *UseCase) buildItem(wo *entity.WorkOrder, in dto.WorkOrderItemRequest, now time.Time) (*entity.WorkOrderItem, error) {
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return &entity.WorkOrderItem{
		ID:                uuid.New().String(),
		WorkOrderID:       wo.ID,
		ProductID:         in.ProductID,
		QuantityRequested: in.Quantity,
		QuantityIssued:    decimal.Zero,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Submit envía la orden a aprobación. Exige al menos un ítem.
func (uc *UseCase) Submit(ctx context.Context, workOrderID string) (*dto.WorkOrderResponse, error) {
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusSubmitted, func(wo *entity.WorkOrder) error {
		if len(wo.Items) == 0 {
			return domain.ErrBusinessRule
		}
		return nil
	})
}

// Approve aprueba la orden y asigna el operario responsable.
func (uc *UseCase) Approve(ctx context.Context, workOrderID, assigneeID string) (*dto.WorkOrderResponse, error) {
	if assigneeID == "" {
		return nil, domain.ErrInvalidInput
	}
	assignee, err := uc.userRepo.GetByID(assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, domain.ErrNotFound
	}
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusApproved, func(wo *entity.WorkOrder) error {
		wo.AssignedTo = assigneeID
		return nil
	})
}

// Reject rechaza la orden registrando el motivo.
func (uc *UseCase) Reject(ctx context.Context, workOrderID, reason string) (*dto.WorkOrderResponse, error) {
	if reason == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusRejected, func(wo *entity.WorkOrder) error {
		wo.RejectReason = reason
		return nil
	})
}

// Start pone la orden en ejecución.
func (uc *UseCase) Start(ctx context.Context, workOrderID string) (*dto.WorkOrderResponse, error) {
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusInProgress, nil)
}

// Complete termina la orden y registra la fecha de finalización.
func (uc *UseCase) Complete(ctx context.Context, workOrderID string) (*dto.WorkOrderResponse, error) {
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusCompleted, func(wo *entity.WorkOrder) error {
		now := time.Now()
		wo.CompletedAt = &now
		return nil
	})
}

// Cancel cancela la orden desde cualquier estado no terminal. Cancelar una
// orden COMPLETED es violación de regla de negocio (lo resuelve la tabla de
// transiciones).
func (uc *UseCase) Cancel(ctx context.Context, workOrderID string) (*dto.WorkOrderResponse, error) {
	return uc.transition(ctx, workOrderID, entity.WorkOrderStatusCancelled, nil)
}

// transition carga la orden, valida la arista con la tabla pura y escribe con
// CAS sobre la versión leída. precondition corre entre la validación de la
// arista y el write (precondiciones extra + mutación de campos).
func (uc *UseCase) transition(ctx context.Context, workOrderID, to string, precondition func(*entity.WorkOrder) error) (*dto.WorkOrderResponse, error) {
	wo, err := uc.woRepo.GetByID(workOrderID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	old := wo.Status
	if err := domainwo.EnsureTransition(old, to); err != nil {
		return nil, err
	}
	if precondition != nil {
		if err := precondition(wo); err != nil {
			return nil, err
		}
	}
	wo.Status = to
	wo.UpdatedAt = time.Now()
	if err := uc.woRepo.UpdateStatus(wo, wo.Version); err != nil {
		return nil, err
	}
	wo.Version++

	uc.notifier.WorkOrderStatusChanged(notify.WorkOrderStatusEvent{
		WorkOrderID: wo.ID,
		OrderNumber: wo.OrderNumber,
		OldStatus:   old,
		NewStatus:   to,
	})
	return toWorkOrderResponse(wo), nil
}

// IssueItems emite líneas contra una orden IN_PROGRESS. Por cada línea valida
// emitido + solicitado, registra la salida en el libro de movimientos (misma
// transacción) y acumula la cantidad emitida del ítem. Cualquier fallo hace
// rollback de todas las líneas: ninguna emisión parcial queda visible.
func (uc *UseCase) IssueItems(ctx context.Context, workOrderID, userID string, in dto.IssueItemsRequest) (*dto.WorkOrderResponse, error) {
	if len(in.Lines) == 0 || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range in.Lines {
		if line.ProductID == "" || !line.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	var wo *entity.WorkOrder
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		woRepo repository.WorkOrderRepository,
	) error {
		var err error
		wo, err = woRepo.GetByID(workOrderID)
		if err != nil {
			return err
		}
		if wo == nil {
			return domain.ErrNotFound
		}
		if !domainwo.CanIssueItems(wo.Status) {
			return domain.ErrInvalidState
		}

		now := time.Now()
		for _, line := range in.Lines {
			item := wo.ItemByProduct(line.ProductID)
			if item == nil {
				return domain.ErrNotFound
			}
			if line.Quantity.GreaterThan(item.Pending()) {
				// Sobre-emisión: emitido + solicitado excedería lo pedido.
				return domain.ErrBusinessRule
			}
			_, _, err := ledger.ApplyMovement(movRepo, productRepo, ledger.MovementInput{
				ProductID:   line.ProductID,
				WorkOrderID: wo.ID,
				Type:        entity.MovementTypeIssue,
				Quantity:    line.Quantity,
				Reference:   wo.OrderNumber,
				UserID:      userID,
			}, now)
			if err != nil {
				return err
			}
			item.QuantityIssued = item.QuantityIssued.Add(line.Quantity)
			item.UpdatedAt = now
			if err := woRepo.UpdateItemIssued(item.ID, item.QuantityIssued); err != nil {
				return err
			}
		}

		// CAS sobre la orden sin cambiar el estado: serializa IssueItems frente
		// a transiciones concurrentes (p.ej. un Cancel simultáneo pierde o gana,
		// nunca ambos).
		wo.UpdatedAt = now
		if err := woRepo.UpdateStatus(wo, wo.Version); err != nil {
			return err
		}
		wo.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toWorkOrderResponse(wo), nil
}

// GetByID obtiene una orden con sus ítems.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.WorkOrderResponse, error) {
	wo, err := uc.woRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, nil
	}
	return toWorkOrderResponse(wo), nil
}

// List lista órdenes, opcionalmente filtradas por estado.
func (uc *UseCase) List(ctx context.Context, status string, limit, offset int) (*dto.WorkOrderListResponse, error) {
	list, err := uc.woRepo.List(status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.WorkOrderListResponse{
		WorkOrders: make([]*dto.WorkOrderResponse, 0, len(list)),
		Page:       dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, wo := range list {
		out.WorkOrders = append(out.WorkOrders, toWorkOrderResponse(wo))
	}
	return out, nil
}

func toWorkOrderResponse(wo *entity.WorkOrder) *dto.WorkOrderResponse {
	if wo == nil {
		return nil
	}
	resp := &dto.WorkOrderResponse{
		ID:           wo.ID,
		OrderNumber:  wo.OrderNumber,
		Title:        wo.Title,
		Description:  wo.Description,
		Priority:     wo.Priority,
		Status:       wo.Status,
		DueDate:      wo.DueDate,
		CompletedAt:  wo.CompletedAt,
		RequestedBy:  wo.RequestedBy,
		AssignedTo:   wo.AssignedTo,
		RejectReason: wo.RejectReason,
		Version:      wo.Version,
		Items:        make([]*dto.WorkOrderItemResponse, 0, len(wo.Items)),
		CreatedAt:    wo.CreatedAt,
		UpdatedAt:    wo.UpdatedAt,
	}
	for _, it := range wo.Items {
		resp.Items = append(resp.Items, &dto.WorkOrderItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			QuantityRequested: it.QuantityRequested,
			QuantityIssued:    it.QuantityIssued,
			Notes:             it.Notes,
		})
	}
	return resp
}
