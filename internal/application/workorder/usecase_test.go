package workorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
	"github.com/jhoicas/almacen-ot-api/internal/application/workorder"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/memory"
)

type recorder struct {
	statusEvents   []notify.WorkOrderStatusEvent
	lowStockEvents []notify.LowStockEvent
}

func (r *recorder) WorkOrderStatusChanged(evt notify.WorkOrderStatusEvent) {
	r.statusEvents = append(r.statusEvents, evt)
}
func (r *recorder) LowStock(evt notify.LowStockEvent) {
	r.lowStockEvents = append(r.lowStockEvents, evt)
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

type fixture struct {
	store *memory.Store
	uc    *workorder.UseCase
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{}
	uc := workorder.NewUseCase(store, store.WorkOrderRepo(), store.ProductRepo(), store.UserRepo(), rec)

	now := time.Now()
	for _, u := range []*entity.User{
		{ID: "sup", Email: "sup@almacen.local", Role: entity.RoleSupervisor, Status: "active"},
		{ID: "tec", Email: "tec@almacen.local", Role: entity.RoleTecnico, Status: "active"},
		{ID: "bod", Email: "bod@almacen.local", Role: entity.RoleBodeguero, Status: "active"},
	} {
		u.CreatedAt, u.UpdatedAt = now, now
		require.NoError(t, store.UserRepo().Create(u))
	}
	for _, p := range []*entity.Product{
		{ID: "p1", SKU: "FLT-001", Name: "Filtro de aceite", Quantity: qty(100), Version: 1},
		{ID: "p2", SKU: "COR-002", Name: "Correa", Quantity: qty(5), Version: 1},
	} {
		p.CreatedAt, p.UpdatedAt = now, now
		require.NoError(t, store.ProductRepo().Create(p))
	}
	return &fixture{store: store, uc: uc, rec: rec}
}

// createOrder crea una orden DRAFT con las líneas dadas.
func (f *fixture) createOrder(t *testing.T, items ...dto.WorkOrderItemRequest) *dto.WorkOrderResponse {
	t.Helper()
	out, err := f.uc.Create(context.Background(), "tec", dto.CreateWorkOrderRequest{
		Title:    "Mantenimiento bomba",
		Priority: entity.PriorityHigh,
		Items:    items,
	})
	require.NoError(t, err)
	return out
}

// toInProgress lleva la orden DRAFT hasta IN_PROGRESS.
func (f *fixture) toInProgress(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.uc.Submit(ctx, id)
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, id, "tec")
	require.NoError(t, err)
	_, err = f.uc.Start(ctx, id)
	require.NoError(t, err)
}

func line(productID string, n int64) dto.WorkOrderItemRequest {
	return dto.WorkOrderItemRequest{ProductID: productID, Quantity: qty(n)}
}

// ── creación ──────────────────────────────────────────────────────────────────

func TestCreate_NumeroConsecutivoPorFecha(t *testing.T) {
	f := newFixture(t)

	first := f.createOrder(t, line("p1", 2))
	second := f.createOrder(t, line("p1", 1))

	prefix := "OT-" + time.Now().Format("20060102") + "-"
	assert.Equal(t, prefix+"0001", first.OrderNumber)
	assert.Equal(t, prefix+"0002", second.OrderNumber)
	assert.Equal(t, entity.WorkOrderStatusDraft, first.Status)
	assert.Equal(t, int64(1), first.Version)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, "tec", dto.CreateWorkOrderRequest{Title: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "título requerido")

	_, err = f.uc.Create(ctx, "tec", dto.CreateWorkOrderRequest{Title: "x", Priority: "URGENTISIMA"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "prioridad inválida")

	_, err = f.uc.Create(ctx, "fantasma", dto.CreateWorkOrderRequest{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "solicitante inexistente")

	_, err = f.uc.Create(ctx, "tec", dto.CreateWorkOrderRequest{
		Title: "x", Items: []dto.WorkOrderItemRequest{line("fantasma", 1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente en línea")

	_, err = f.uc.Create(ctx, "tec", dto.CreateWorkOrderRequest{
		Title: "x", Items: []dto.WorkOrderItemRequest{line("p1", 0)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad solicitada debe ser > 0")
}

// La regla de un producto por línea aplica también en la creación: si se
// aceptaran líneas repetidas, la emisión solo vería la primera y la cantidad
// de la segunda quedaría inalcanzable.
func TestCreate_LineasDuplicadasRechazadas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, "tec", dto.CreateWorkOrderRequest{
		Title: "Mantenimiento bomba",
		Items: []dto.WorkOrderItemRequest{line("p1", 5), line("p1", 3)},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// Con la línea consolidada, la cantidad completa sí es emitible.
	wo := f.createOrder(t, line("p1", 8))
	f.toInProgress(t, wo.ID)
	out, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(8)}},
	})
	require.NoError(t, err)
	assert.True(t, out.Items[0].QuantityIssued.Equal(qty(8)))
}

func TestAddItem_SoloEnDraftYSinDuplicados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 2))

	out, err := f.uc.AddItem(ctx, wo.ID, line("p2", 3))
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	_, err = f.uc.AddItem(ctx, wo.ID, line("p1", 1))
	assert.ErrorIs(t, err, domain.ErrDuplicate, "un producto por línea y por orden")

	_, err = f.uc.Submit(ctx, wo.ID)
	require.NoError(t, err)
	_, err = f.uc.AddItem(ctx, wo.ID, line("p2", 1))
	assert.ErrorIs(t, err, domain.ErrInvalidState, "fuera de DRAFT no se agregan líneas")
}

// ── transiciones ──────────────────────────────────────────────────────────────

func TestSubmit_RequiereAlMenosUnaLinea(t *testing.T) {
	f := newFixture(t)
	wo := f.createOrder(t)
	_, err := f.uc.Submit(context.Background(), wo.ID)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
}

func TestLifecycle_FlujoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 10))

	_, err := f.uc.Submit(ctx, wo.ID)
	require.NoError(t, err)
	approved, err := f.uc.Approve(ctx, wo.ID, "tec")
	require.NoError(t, err)
	assert.Equal(t, "tec", approved.AssignedTo)
	_, err = f.uc.Start(ctx, wo.ID)
	require.NoError(t, err)

	issued, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(4)}},
	})
	require.NoError(t, err)
	assert.True(t, issued.Items[0].QuantityIssued.Equal(qty(4)))

	completed, err := f.uc.Complete(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.WorkOrderStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	// Stock descontado y libro con la referencia de la orden.
	p, _ := f.store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(96)))
	movs, _ := f.store.MovementRepo().ListByWorkOrder(wo.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIssue, movs[0].Type)
	assert.Equal(t, wo.OrderNumber, movs[0].Reference)
	assert.Equal(t, "bod", movs[0].PerformedBy)

	// Una notificación por transición, en orden.
	var seq []string
	for _, evt := range f.rec.statusEvents {
		seq = append(seq, evt.NewStatus)
	}
	assert.Equal(t, []string{
		entity.WorkOrderStatusSubmitted,
		entity.WorkOrderStatusApproved,
		entity.WorkOrderStatusInProgress,
		entity.WorkOrderStatusCompleted,
	}, seq)
}

func TestTransicionesIlegales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 1))

	_, err := f.uc.Start(ctx, wo.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "DRAFT no puede pasar a IN_PROGRESS")

	_, err = f.uc.Approve(ctx, wo.ID, "tec")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "DRAFT no puede aprobarse")
}

func TestCancel_DesdeTerminales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wo := f.createOrder(t, line("p1", 1))
	f.toInProgress(t, wo.ID)
	_, err := f.uc.Complete(ctx, wo.ID)
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, wo.ID)
	assert.ErrorIs(t, err, domain.ErrBusinessRule, "cancelar una COMPLETED es regla de negocio")

	other := f.createOrder(t, line("p1", 1))
	_, err = f.uc.Cancel(ctx, other.ID)
	require.NoError(t, err)
	_, err = f.uc.Cancel(ctx, other.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "cancelar dos veces no es válido")
}

func TestReject_RequiereMotivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 1))
	_, err := f.uc.Submit(ctx, wo.ID)
	require.NoError(t, err)

	_, err = f.uc.Reject(ctx, wo.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := f.uc.Reject(ctx, wo.ID, "repuesto descontinuado")
	require.NoError(t, err)
	assert.Equal(t, entity.WorkOrderStatusRejected, out.Status)
	assert.Equal(t, "repuesto descontinuado", out.RejectReason)
}

func TestApprove_AsignadoInexistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 1))
	_, err := f.uc.Submit(ctx, wo.ID)
	require.NoError(t, err)

	_, err = f.uc.Approve(ctx, wo.ID, "fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderNumber_InmutableEnTransiciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 1))
	f.toInProgress(t, wo.ID)

	got, err := f.uc.GetByID(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, wo.OrderNumber, got.OrderNumber)
}

// ── emisión de ítems ──────────────────────────────────────────────────────────

func TestIssueItems_SoloInProgress(t *testing.T) {
	f := newFixture(t)
	wo := f.createOrder(t, line("p1", 5))
	_, err := f.uc.IssueItems(context.Background(), wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestIssueItems_SobreEmision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 5))
	f.toInProgress(t, wo.ID)

	_, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(3)}},
	})
	require.NoError(t, err)

	// 3 emitidas + 3 más excede las 5 solicitadas.
	_, err = f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(3)}},
	})
	assert.ErrorIs(t, err, domain.ErrBusinessRule)

	got, _ := f.uc.GetByID(ctx, wo.ID)
	assert.True(t, got.Items[0].QuantityIssued.Equal(qty(3)), "la emisión fallida no acumula")
}

func TestIssueItems_ProductoFueraDeLaOrden(t *testing.T) {
	f := newFixture(t)
	wo := f.createOrder(t, line("p1", 5))
	f.toInProgress(t, wo.ID)

	_, err := f.uc.IssueItems(context.Background(), wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p2", Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Una línea sin stock aborta la emisión completa: ni movimientos, ni acumulados,
// ni stock tocado de las líneas anteriores.
func TestIssueItems_FalloEnUnaLineaRevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 10), line("p2", 10))
	f.toInProgress(t, wo.ID)

	_, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{
			{ProductID: "p1", Quantity: qty(10)}, // alcanza
			{ProductID: "p2", Quantity: qty(10)}, // solo hay 5
		},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p2", insufficient.ProductID)

	p1, _ := f.store.ProductRepo().GetByID("p1")
	assert.True(t, p1.Quantity.Equal(qty(100)), "la línea buena también se revierte")
	got, _ := f.uc.GetByID(ctx, wo.ID)
	assert.True(t, got.Items[0].QuantityIssued.IsZero())
	movs, _ := f.store.MovementRepo().ListByWorkOrder(wo.ID)
	assert.Empty(t, movs)
}

func TestIssueItems_EmisionesParcialesAcumulan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 10))
	f.toInProgress(t, wo.ID)

	for i := 0; i < 2; i++ {
		_, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
			Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(4)}},
		})
		require.NoError(t, err)
	}

	got, _ := f.uc.GetByID(ctx, wo.ID)
	assert.True(t, got.Items[0].QuantityIssued.Equal(qty(8)))
	movs, _ := f.store.MovementRepo().ListByWorkOrder(wo.ID)
	assert.Len(t, movs, 2, "cada emisión es una entrada nueva del libro")
	p, _ := f.store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(92)))
}

func TestIssueItems_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.createOrder(t, line("p1", 5))
	f.toInProgress(t, wo.ID)

	_, err := f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin líneas")

	_, err = f.uc.IssueItems(ctx, wo.ID, "", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin actor")

	_, err = f.uc.IssueItems(ctx, wo.ID, "bod", dto.IssueItemsRequest{
		Lines: []dto.IssueLineRequest{{ProductID: "p1", Quantity: qty(0)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")
}
