// Package memory implementa los puertos de repositorio sobre mapas en memoria,
// con la misma semántica de concurrencia optimista que el adaptador PostgreSQL:
// writes compare-and-swap sobre la versión y transacciones con rollback real
// (snapshot + restore). Lo usan los tests de los casos de uso y sirve para
// correr la API sin base de datos en desarrollo.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*Store)(nil)

// Store contiene todo el estado. Un solo mutex serializa el acceso; las
// transacciones lo retienen completo, igual que una tx corta de tests.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	products  map[string]*entity.Product
	users     map[string]*entity.User
	orders    map[string]*entity.WorkOrder
	movements []*entity.StockMovement
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

func newState() *state {
	return &state{
		products: make(map[string]*entity.Product),
		users:    make(map[string]*entity.User),
		orders:   make(map[string]*entity.WorkOrder),
	}
}

// Run ejecuta fn como transacción: toma un snapshot del estado y lo restaura
// si fn falla, de modo que ningún efecto parcial queda visible.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	workOrderRepo repository.WorkOrderRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	err := fn(
		&movementRepo{s: s, locked: true},
		&productRepo{s: s, locked: true},
		&workOrderRepo{s: s, locked: true},
	)
	if err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// ProductRepo devuelve el repositorio de productos sobre este store.
func (s *Store) ProductRepo() repository.ProductRepository {
	return &productRepo{s: s}
}

// MovementRepo devuelve el repositorio del libro de movimientos.
func (s *Store) MovementRepo() repository.StockMovementRepository {
	return &movementRepo{s: s}
}

// WorkOrderRepo devuelve el repositorio de órdenes de trabajo.
func (s *Store) WorkOrderRepo() repository.WorkOrderRepository {
	return &workOrderRepo{s: s}
}

// UserRepo devuelve el repositorio de usuarios.
func (s *Store) UserRepo() repository.UserRepository {
	return &userRepo{s: s}
}

// lock toma el mutex salvo que el caller ya lo tenga (dentro de una tx).
func (s *Store) lock(locked bool) func() {
	if locked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ── clones ────────────────────────────────────────────────────────────────────

func (st *state) clone() *state {
	cp := newState()
	for id, p := range st.products {
		cp.products[id] = cloneProduct(p)
	}
	for id, u := range st.users {
		cu := *u
		cp.users[id] = &cu
	}
	for id, wo := range st.orders {
		cp.orders[id] = cloneOrder(wo)
	}
	// las entradas del libro son inmutables; basta copiar el slice
	cp.movements = append([]*entity.StockMovement(nil), st.movements...)
	return cp
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

func cloneOrder(wo *entity.WorkOrder) *entity.WorkOrder {
	cp := *wo
	cp.Items = make([]*entity.WorkOrderItem, len(wo.Items))
	for i, it := range wo.Items {
		ci := *it
		cp.Items[i] = &ci
	}
	return &cp
}

// sequenceFor calcula el siguiente consecutivo para un prefijo de número de orden.
func (st *state) sequenceFor(prefix string) int {
	max := 0
	for _, wo := range st.orders {
		if !strings.HasPrefix(wo.OrderNumber, prefix) {
			continue
		}
		n, err := strconv.Atoi(wo.OrderNumber[len(prefix):])
		if err == nil && n > max {
			max = n
		}
	}
	return max + 1
}
