package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

var _ repository.WorkOrderRepository = (*WorkOrderRepo)(nil)

const workOrderColumns = `id, order_number, title, description, priority, status, due_date, completed_at, requested_by, assigned_to, reject_reason, version, created_at, updated_at`

// WorkOrderRepo implementación sobre PostgreSQL (usable con pool o tx).
// UpdateStatus es compare-and-swap sobre la columna version.
type WorkOrderRepo struct {
	q Querier
}

// NewWorkOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWorkOrderRepository(q Querier) *WorkOrderRepo {
	return &WorkOrderRepo{q: q}
}

// Create inserta la orden y sus ítems. Llamar dentro de una transacción junto
// con NextSequence para que el consecutivo quede serializado.
func (r *WorkOrderRepo) Create(wo *entity.WorkOrder) error {
	query := `
		INSERT INTO work_orders (` + workOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	assignedTo := (*string)(nil)
	if wo.AssignedTo != "" {
		assignedTo = &wo.AssignedTo
	}
	_, err := r.q.Exec(context.Background(), query,
		wo.ID, wo.OrderNumber, wo.Title, wo.Description, wo.Priority, wo.Status,
		wo.DueDate, wo.CompletedAt, wo.RequestedBy, assignedTo, wo.RejectReason,
		wo.Version, wo.CreatedAt, wo.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert work order: %w", err)
	}
	for _, item := range wo.Items {
		if err := r.AddItem(item); err != nil {
			return err
		}
	}
	return nil
}

// GetByID carga la orden con sus ítems. Nil si no existe.
func (r *WorkOrderRepo) GetByID(id string) (*entity.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`
	return r.getOne(query, id)
}

// GetByNumber carga la orden por número. Nil si no existe.
func (r *WorkOrderRepo) GetByNumber(orderNumber string) (*entity.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE order_number = $1`
	return r.getOne(query, orderNumber)
}

func (r *WorkOrderRepo) getOne(query string, arg any) (*entity.WorkOrder, error) {
	wo, err := scanWorkOrder(r.q.QueryRow(context.Background(), query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get work order: %w", err)
	}
	items, err := r.listItems(wo.ID)
	if err != nil {
		return nil, err
	}
	wo.Items = items
	return wo, nil
}

// UpdateStatus persiste status, assigned_to, reject_reason, completed_at con
// CAS sobre la versión leída. order_number jamás se actualiza: es inmutable.
func (r *WorkOrderRepo) UpdateStatus(wo *entity.WorkOrder, expectedVersion int64) error {
	query := `
		UPDATE work_orders
		SET status = $2, assigned_to = $3, reject_reason = $4, completed_at = $5,
		    version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $7`
	assignedTo := (*string)(nil)
	if wo.AssignedTo != "" {
		assignedTo = &wo.AssignedTo
	}
	cmd, err := r.q.Exec(context.Background(), query,
		wo.ID, wo.Status, assignedTo, wo.RejectReason, wo.CompletedAt, wo.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(context.Background(),
			`SELECT EXISTS (SELECT 1 FROM work_orders WHERE id = $1)`, wo.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check work order exists: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConcurrencyConflict
	}
	return nil
}

// AddItem inserta una línea de la orden.
func (r *WorkOrderRepo) AddItem(item *entity.WorkOrderItem) error {
	query := `
		INSERT INTO work_order_items (id, work_order_id, product_id, quantity_requested, quantity_issued, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.WorkOrderID, item.ProductID, item.QuantityRequested,
		item.QuantityIssued, item.Notes, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work order item: %w", err)
	}
	return nil
}

// UpdateItemIssued acumula la cantidad emitida de una línea.
func (r *WorkOrderRepo) UpdateItemIssued(itemID string, issued decimal.Decimal) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE work_order_items SET quantity_issued = $2, updated_at = now() WHERE id = $1`,
		itemID, issued,
	)
	if err != nil {
		return fmt.Errorf("update item issued: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextSequence devuelve el siguiente consecutivo para un prefijo de número de
// orden. Usa el máximo actual + 1; serializado por la transacción del caller
// más el unique constraint de order_number.
func (r *WorkOrderRepo) NextSequence(prefix string) (int, error) {
	var max *int
	query := `
		SELECT MAX(CAST(SUBSTRING(order_number FROM LENGTH($1) + 1) AS INTEGER))
		FROM work_orders WHERE order_number LIKE $1 || '%'`
	if err := r.q.QueryRow(context.Background(), query, prefix).Scan(&max); err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// List lista órdenes, opcionalmente filtradas por estado, con ítems.
func (r *WorkOrderRepo) List(status string, limit, offset int) ([]*entity.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	var args []any
	if status != "" {
		args = append(args, status)
		query += " WHERE status = $1"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		list = append(list, wo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, wo := range list {
		items, err := r.listItems(wo.ID)
		if err != nil {
			return nil, err
		}
		wo.Items = items
	}
	return list, nil
}

// CountOpenByProduct cuenta ítems que referencian el producto en órdenes no
// terminales (DRAFT, SUBMITTED, APPROVED, IN_PROGRESS).
func (r *WorkOrderRepo) CountOpenByProduct(productID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM work_order_items i
		JOIN work_orders w ON w.id = i.work_order_id
		WHERE i.product_id = $1 AND w.status IN ($2, $3, $4, $5)`
	var count int
	err := r.q.QueryRow(context.Background(), query, productID,
		entity.WorkOrderStatusDraft, entity.WorkOrderStatusSubmitted,
		entity.WorkOrderStatusApproved, entity.WorkOrderStatusInProgress,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open refs: %w", err)
	}
	return count, nil
}

func (r *WorkOrderRepo) listItems(workOrderID string) ([]*entity.WorkOrderItem, error) {
	query := `
		SELECT id, work_order_id, product_id, quantity_requested, quantity_issued, notes, created_at, updated_at
		FROM work_order_items WHERE work_order_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list work order items: %w", err)
	}
	defer rows.Close()
	var items []*entity.WorkOrderItem
	for rows.Next() {
		var it entity.WorkOrderItem
		if err := rows.Scan(&it.ID, &it.WorkOrderID, &it.ProductID, &it.QuantityRequested,
			&it.QuantityIssued, &it.Notes, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func scanWorkOrder(row pgx.Row) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	var assignedTo *string
	err := row.Scan(
		&wo.ID, &wo.OrderNumber, &wo.Title, &wo.Description, &wo.Priority, &wo.Status,
		&wo.DueDate, &wo.CompletedAt, &wo.RequestedBy, &assignedTo, &wo.RejectReason,
		&wo.Version, &wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo != nil {
		wo.AssignedTo = *assignedTo
	}
	return &wo, nil
}
