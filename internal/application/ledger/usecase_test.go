package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/application/notify"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/memory"
)

// recorder captura las notificaciones emitidas por el caso de uso.
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

func newFixture(t *testing.T) (*memory.Store, *ledger.RecordMovementUseCase, *recorder) {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{}
	uc := ledger.NewRecordMovementUseCase(store, rec)

	now := time.Now()
	require.NoError(t, store.ProductRepo().Create(&entity.Product{
		ID:           "p1",
		SKU:          "FLT-001",
		Name:         "Filtro de aceite",
		Quantity:     decimal.NewFromInt(100),
		ReorderPoint: decimal.NewFromInt(10),
		ReorderQty:   decimal.NewFromInt(50),
		UnitCost:     decimal.RequireFromString("12.50"),
		Location:     "A-01",
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	return store, uc, rec
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRecordMovement_Receipt_SumaStock(t *testing.T) {
	store, uc, _ := newFixture(t)

	result, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1",
		Type:      entity.MovementTypeReceipt,
		Quantity:  qty(25),
		Reference: "OC-9921",
		UserID:    "u1",
	})
	require.NoError(t, err)

	assert.True(t, result.NewQuantity.Equal(qty(125)))
	assert.Equal(t, int64(2), result.NewVersion, "el write debe incrementar la versión")
	assert.Equal(t, entity.MovementTypeReceipt, result.Movement.Type)
	assert.Equal(t, "u1", result.Movement.PerformedBy)

	p, _ := store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(125)))

	movs, _ := store.MovementRepo().ListByProduct("p1", nil, nil, 10, 0)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(qty(25)), "la cantidad se guarda positiva")
}

func TestRecordMovement_Issue_StockInsuficiente(t *testing.T) {
	store, uc, _ := newFixture(t)

	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1",
		Type:      entity.MovementTypeIssue,
		Quantity:  qty(150),
		UserID:    "u1",
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, insufficient.Available.Equal(qty(100)))
	assert.True(t, insufficient.Requested.Equal(qty(150)))

	// Nada cambió: ni cantidad, ni versión, ni libro.
	p, _ := store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(100)))
	assert.Equal(t, int64(1), p.Version)
	movs, _ := store.MovementRepo().List(nil, nil, 10, 0)
	assert.Empty(t, movs)
}

func TestRecordMovement_Issue_ExactamenteDisponible(t *testing.T) {
	store, uc, _ := newFixture(t)

	result, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1",
		Type:      entity.MovementTypeIssue,
		Quantity:  qty(100),
		UserID:    "u1",
	})
	require.NoError(t, err, "emitir exactamente el disponible debe permitirse")
	assert.True(t, result.NewQuantity.IsZero())

	p, _ := store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.IsZero(), "el stock puede llegar a 0 pero nunca ser negativo")
}

func TestRecordMovement_Adjustment_DireccionExplicita(t *testing.T) {
	store, uc, _ := newFixture(t)

	// Sin dirección: inválido. El signo nunca se infiere de la cantidad.
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeAdjustment, Quantity: qty(5), UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// DECREASE resta.
	result, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeAdjustment, Quantity: qty(5),
		Direction: entity.DirectionDecrease, Reason: "conteo físico", UserID: "u1",
	})
	require.NoError(t, err)
	assert.True(t, result.NewQuantity.Equal(qty(95)))

	// INCREASE suma.
	result, err = uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeAdjustment, Quantity: qty(10),
		Direction: entity.DirectionIncrease, Reason: "conteo físico", UserID: "u1",
	})
	require.NoError(t, err)
	assert.True(t, result.NewQuantity.Equal(qty(105)))

	p, _ := store.ProductRepo().GetByID("p1")
	assert.Equal(t, int64(3), p.Version, "dos movimientos, dos incrementos de versión")
}

func TestRecordMovement_DireccionSoloEnAjustes(t *testing.T) {
	_, uc, _ := newFixture(t)
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeReceipt, Quantity: qty(5),
		Direction: entity.DirectionIncrease, UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_Transfer_SoloUbicacion(t *testing.T) {
	store, uc, _ := newFixture(t)

	result, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID:  "p1",
		Type:       entity.MovementTypeTransfer,
		Quantity:   qty(100),
		ToLocation: "B-07",
		UserID:     "u1",
	})
	require.NoError(t, err)

	assert.True(t, result.NewQuantity.Equal(qty(100)), "transfer no cambia la cantidad")
	assert.Equal(t, "A-01", result.Movement.FromLocation, "origen implícito: ubicación actual")
	assert.Equal(t, "B-07", result.Movement.ToLocation)

	p, _ := store.ProductRepo().GetByID("p1")
	assert.Equal(t, "B-07", p.Location)
	assert.Equal(t, int64(2), p.Version, "el cambio de ubicación también versiona")
}

func TestRecordMovement_Transfer_SinDestinoEsInvalido(t *testing.T) {
	_, uc, _ := newFixture(t)
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeTransfer, Quantity: qty(1), UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_Validaciones(t *testing.T) {
	_, uc, _ := newFixture(t)
	cases := []struct {
		name string
		in   ledger.MovementInput
	}{
		{"cantidad cero", ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeReceipt, Quantity: qty(0), UserID: "u1"}},
		{"cantidad negativa", ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeReceipt, Quantity: qty(-5), UserID: "u1"}},
		{"tipo desconocido", ledger.MovementInput{ProductID: "p1", Type: "ROBO", Quantity: qty(5), UserID: "u1"}},
		{"sin actor", ledger.MovementInput{ProductID: "p1", Type: entity.MovementTypeReceipt, Quantity: qty(5)}},
		{"sin producto", ledger.MovementInput{Type: entity.MovementTypeReceipt, Quantity: qty(5), UserID: "u1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.RecordMovement(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRecordMovement_ProductoInexistente(t *testing.T) {
	_, uc, _ := newFixture(t)
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "fantasma", Type: entity.MovementTypeReceipt, Quantity: qty(5), UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_NotificaStockBajo(t *testing.T) {
	_, uc, rec := newFixture(t)

	// 100 -> 8, por debajo del punto de reorden (10).
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeIssue, Quantity: qty(92), UserID: "u1",
	})
	require.NoError(t, err)

	require.Len(t, rec.lowStockEvents, 1)
	evt := rec.lowStockEvents[0]
	assert.Equal(t, "FLT-001", evt.SKU)
	assert.True(t, evt.Quantity.Equal(qty(8)))
	assert.True(t, evt.SuggestedQty.Equal(qty(50)))
}

func TestRecordMovement_SinAlertaSobreElPuntoDeReorden(t *testing.T) {
	_, uc, rec := newFixture(t)
	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeIssue, Quantity: qty(10), UserID: "u1",
	})
	require.NoError(t, err)
	assert.Empty(t, rec.lowStockEvents)
}

// ── conflicto de concurrencia ─────────────────────────────────────────────────

// conflictProductRepo simula perder la carrera CAS: la lectura ve una versión
// que otro writer invalida antes del write.
type conflictProductRepo struct {
	repository.ProductRepository
	product *entity.Product
}

func (r *conflictProductRepo) GetByID(string) (*entity.Product, error) {
	cp := *r.product
	return &cp, nil
}

func (r *conflictProductRepo) UpdateQuantity(string, decimal.Decimal, string, int64) error {
	return domain.ErrConcurrencyConflict
}

type countingMovRepo struct {
	repository.StockMovementRepository
	creates int
}

func (r *countingMovRepo) Create(*entity.StockMovement) error {
	r.creates++
	return nil
}

// directRunner ejecuta fn sin transacción real, con los repos dados.
type directRunner struct {
	mov  repository.StockMovementRepository
	prod repository.ProductRepository
}

func (r *directRunner) Run(_ context.Context, fn func(
	repository.StockMovementRepository,
	repository.ProductRepository,
	repository.WorkOrderRepository,
) error) error {
	return fn(r.mov, r.prod, nil)
}

// El conflicto se expone al caller tal cual: el núcleo no reintenta, porque
// tras recargar pueden aplicar nuevas precondiciones (p.ej. stock insuficiente).
func TestRecordMovement_ConflictoSeExponeSinReintentos(t *testing.T) {
	prod := &conflictProductRepo{product: &entity.Product{
		ID: "p1", SKU: "FLT-001", Quantity: qty(100), Version: 3,
	}}
	mov := &countingMovRepo{}
	uc := ledger.NewRecordMovementUseCase(&directRunner{mov: mov, prod: prod}, nil)

	_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeIssue, Quantity: qty(5), UserID: "u1",
	})
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
	assert.Zero(t, mov.creates, "un write perdedor no registra movimiento")
}

// flakyProductRepo pierde la carrera CAS exactamente una vez y luego delega
// en el repositorio real.
type flakyProductRepo struct {
	repository.ProductRepository
	failures int
}

func (r *flakyProductRepo) UpdateQuantity(id string, quantity decimal.Decimal, location string, expectedVersion int64) error {
	if r.failures > 0 {
		r.failures--
		return domain.ErrConcurrencyConflict
	}
	return r.ProductRepository.UpdateQuantity(id, quantity, location, expectedVersion)
}

// Segundo tramo del escenario de conflicto: tras perder la carrera, el caller
// reintenta (el caso de uso relee el producto) y la segunda pasada gana.
func TestRecordMovement_TrasElConflictoElReintentoGana(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	require.NoError(t, store.ProductRepo().Create(&entity.Product{
		ID: "p1", SKU: "FLT-001", Name: "Filtro de aceite",
		Quantity: qty(100), Version: 1, CreatedAt: now, UpdatedAt: now,
	}))
	prod := &flakyProductRepo{ProductRepository: store.ProductRepo(), failures: 1}
	uc := ledger.NewRecordMovementUseCase(&directRunner{mov: store.MovementRepo(), prod: prod}, nil)

	in := ledger.MovementInput{
		ProductID: "p1", Type: entity.MovementTypeIssue, Quantity: qty(5), UserID: "u1",
	}
	_, err := uc.RecordMovement(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	result, err := uc.RecordMovement(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.NewQuantity.Equal(qty(95)))

	movs, _ := store.MovementRepo().List(nil, nil, 10, 0)
	require.Len(t, movs, 1, "solo el intento ganador registra movimiento")
	p, _ := store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(95)))
}

// Conservación bajo concurrencia: N writers que reintentan ante conflicto de
// versión aplican exactamente N deltas, con N entradas en el libro y N
// incrementos de versión. Ningún update se pierde.
func TestRecordMovement_EscritoresConcurrentesConReintento(t *testing.T) {
	store, uc, _ := newFixture(t)
	const writers = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := uc.RecordMovement(context.Background(), ledger.MovementInput{
					ProductID: "p1", Type: entity.MovementTypeIssue, Quantity: qty(2), UserID: "u1",
				})
				if errors.Is(err, domain.ErrConcurrencyConflict) {
					// Recargar y reintentar es responsabilidad del caller.
					continue
				}
				errs <- err
				return
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, _ := store.ProductRepo().GetByID("p1")
	assert.True(t, p.Quantity.Equal(qty(100-2*writers)), "cada delta aplica exactamente una vez")
	assert.Equal(t, int64(1+writers), p.Version, "un incremento de versión por write ganador")
	movs, _ := store.MovementRepo().List(nil, nil, writers+1, 0)
	assert.Len(t, movs, writers)
}
