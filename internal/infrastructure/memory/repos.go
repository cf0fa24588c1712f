package memory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
	_ repository.WorkOrderRepository     = (*workOrderRepo)(nil)
	_ repository.UserRepository          = (*userRepo)(nil)
)

// ── productos ─────────────────────────────────────────────────────────────────

type productRepo struct {
	s      *Store
	locked bool
}

func (r *productRepo) Create(product *entity.Product) error {
	defer r.s.lock(r.locked)()
	for _, p := range r.s.st.products {
		if p.SKU == product.SKU && !p.IsDeleted {
			return domain.ErrDuplicate
		}
	}
	r.s.st.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *productRepo) GetByID(id string) (*entity.Product, error) {
	defer r.s.lock(r.locked)()
	p, ok := r.s.st.products[id]
	if !ok || p.IsDeleted {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *productRepo) GetBySKU(sku string) (*entity.Product, error) {
	defer r.s.lock(r.locked)()
	for _, p := range r.s.st.products {
		if p.SKU == sku && !p.IsDeleted {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepo) Update(product *entity.Product, expectedVersion int64) error {
	defer r.s.lock(r.locked)()
	stored, err := r.casTarget(product.ID, expectedVersion)
	if err != nil {
		return err
	}
	stored.Name = product.Name
	stored.Category = product.Category
	stored.ReorderPoint = product.ReorderPoint
	stored.ReorderQty = product.ReorderQty
	stored.UnitCost = product.UnitCost
	stored.UnitMeasure = product.UnitMeasure
	stored.CostMethod = product.CostMethod
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = product.UpdatedAt
	return nil
}

func (r *productRepo) UpdateQuantity(productID string, quantity decimal.Decimal, location string, expectedVersion int64) error {
	defer r.s.lock(r.locked)()
	stored, err := r.casTarget(productID, expectedVersion)
	if err != nil {
		return err
	}
	stored.Quantity = quantity
	if location != "" {
		stored.Location = location
	}
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *productRepo) SoftDelete(id string, expectedVersion int64) error {
	defer r.s.lock(r.locked)()
	stored, err := r.casTarget(id, expectedVersion)
	if err != nil {
		return err
	}
	stored.IsDeleted = true
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	return nil
}

// casTarget resuelve la fila viva a mutar, distinguiendo conflicto de versión
// de producto inexistente. Llamar con el lock tomado.
func (r *productRepo) casTarget(id string, expectedVersion int64) (*entity.Product, error) {
	stored, ok := r.s.st.products[id]
	if !ok || stored.IsDeleted {
		return nil, domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return nil, domain.ErrConcurrencyConflict
	}
	return stored, nil
}

func (r *productRepo) List(limit, offset int) ([]*entity.Product, error) {
	defer r.s.lock(r.locked)()
	var list []*entity.Product
	for _, p := range r.s.st.products {
		if !p.IsDeleted {
			list = append(list, cloneProduct(p))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return paginate(list, limit, offset), nil
}

func (r *productRepo) ListBelowReorderPoint() ([]*entity.Product, error) {
	defer r.s.lock(r.locked)()
	var list []*entity.Product
	for _, p := range r.s.st.products {
		if !p.IsDeleted && p.BelowReorderPoint() {
			list = append(list, cloneProduct(p))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list, nil
}

// ── libro de movimientos ──────────────────────────────────────────────────────

type movementRepo struct {
	s      *Store
	locked bool
}

func (r *movementRepo) Create(movement *entity.StockMovement) error {
	defer r.s.lock(r.locked)()
	m := *movement
	r.s.st.movements = append(r.s.st.movements, &m)
	return nil
}

func (r *movementRepo) GetByID(id string) (*entity.StockMovement, error) {
	defer r.s.lock(r.locked)()
	for _, m := range r.s.st.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool {
		return m.ProductID == productID && inRange(m.CreatedAt, from, to)
	}, limit, offset)
}

func (r *movementRepo) ListByWorkOrder(workOrderID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool {
		return m.WorkOrderID == workOrderID
	}, 0, 0)
}

func (r *movementRepo) List(from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool {
		return inRange(m.CreatedAt, from, to)
	}, limit, offset)
}

func (r *movementRepo) filter(keep func(*entity.StockMovement) bool, limit, offset int) ([]*entity.StockMovement, error) {
	defer r.s.lock(r.locked)()
	var list []*entity.StockMovement
	for _, m := range r.s.st.movements {
		if keep(m) {
			cp := *m
			list = append(list, &cp)
		}
	}
	if limit > 0 {
		list = paginate(list, limit, offset)
	}
	return list, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// ── órdenes de trabajo ────────────────────────────────────────────────────────

type workOrderRepo struct {
	s      *Store
	locked bool
}

func (r *workOrderRepo) Create(wo *entity.WorkOrder) error {
	defer r.s.lock(r.locked)()
	for _, existing := range r.s.st.orders {
		if existing.OrderNumber == wo.OrderNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.st.orders[wo.ID] = cloneOrder(wo)
	return nil
}

func (r *workOrderRepo) GetByID(id string) (*entity.WorkOrder, error) {
	defer r.s.lock(r.locked)()
	wo, ok := r.s.st.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(wo), nil
}

func (r *workOrderRepo) GetByNumber(orderNumber string) (*entity.WorkOrder, error) {
	defer r.s.lock(r.locked)()
	for _, wo := range r.s.st.orders {
		if wo.OrderNumber == orderNumber {
			return cloneOrder(wo), nil
		}
	}
	return nil, nil
}

func (r *workOrderRepo) UpdateStatus(wo *entity.WorkOrder, expectedVersion int64) error {
	defer r.s.lock(r.locked)()
	stored, ok := r.s.st.orders[wo.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrConcurrencyConflict
	}
	stored.Status = wo.Status
	stored.AssignedTo = wo.AssignedTo
	stored.RejectReason = wo.RejectReason
	stored.CompletedAt = wo.CompletedAt
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = wo.UpdatedAt
	return nil
}

func (r *workOrderRepo) AddItem(item *entity.WorkOrderItem) error {
	defer r.s.lock(r.locked)()
	wo, ok := r.s.st.orders[item.WorkOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	ci := *item
	wo.Items = append(wo.Items, &ci)
	return nil
}

func (r *workOrderRepo) UpdateItemIssued(itemID string, issued decimal.Decimal) error {
	defer r.s.lock(r.locked)()
	for _, wo := range r.s.st.orders {
		for _, it := range wo.Items {
			if it.ID == itemID {
				it.QuantityIssued = issued
				it.UpdatedAt = time.Now()
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *workOrderRepo) NextSequence(prefix string) (int, error) {
	defer r.s.lock(r.locked)()
	return r.s.st.sequenceFor(prefix), nil
}

func (r *workOrderRepo) List(status string, limit, offset int) ([]*entity.WorkOrder, error) {
	defer r.s.lock(r.locked)()
	var list []*entity.WorkOrder
	for _, wo := range r.s.st.orders {
		if status == "" || wo.Status == status {
			list = append(list, cloneOrder(wo))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].OrderNumber < list[j].OrderNumber })
	return paginate(list, limit, offset), nil
}

func (r *workOrderRepo) CountOpenByProduct(productID string) (int, error) {
	defer r.s.lock(r.locked)()
	count := 0
	for _, wo := range r.s.st.orders {
		switch wo.Status {
		case entity.WorkOrderStatusCompleted, entity.WorkOrderStatusRejected, entity.WorkOrderStatusCancelled:
			continue
		}
		for _, it := range wo.Items {
			if it.ProductID == productID {
				count++
			}
		}
	}
	return count, nil
}

// ── usuarios ──────────────────────────────────────────────────────────────────

type userRepo struct {
	s      *Store
	locked bool
}

func (r *userRepo) Create(user *entity.User) error {
	defer r.s.lock(r.locked)()
	for _, u := range r.s.st.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cu := *user
	r.s.st.users[user.ID] = &cu
	return nil
}

func (r *userRepo) GetByID(id string) (*entity.User, error) {
	defer r.s.lock(r.locked)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	cu := *u
	return &cu, nil
}

func (r *userRepo) FindByEmail(email string) (*entity.User, error) {
	defer r.s.lock(r.locked)()
	for _, u := range r.s.st.users {
		if u.Email == email {
			cu := *u
			return &cu, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(limit, offset int) ([]*entity.User, error) {
	defer r.s.lock(r.locked)()
	var list []*entity.User
	for _, u := range r.s.st.users {
		cu := *u
		list = append(list, &cu)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Email < list[j].Email })
	return paginate(list, limit, offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
