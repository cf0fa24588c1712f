package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, work_order_id, type, quantity, direction, from_location, to_location, reason, reference, unit_cost, performed_by, created_at`

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// Solo INSERT y SELECT: el libro es append-only y ningún camino de código
// actualiza ni borra entradas.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste una entrada del libro de movimientos.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	workOrderID := (*string)(nil)
	if movement.WorkOrderID != "" {
		workOrderID = &movement.WorkOrderID
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, workOrderID, movement.Type, movement.Quantity,
		movement.Direction, movement.FromLocation, movement.ToLocation, movement.Reason,
		movement.Reference, movement.UnitCost, movement.PerformedBy, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	row := r.q.QueryRow(context.Background(), query, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`
	args := []any{productID}
	query, args = appendDateRange(query, args, from, to)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.list(query, args)
}

// ListByWorkOrder lista movimientos asociados a una orden de trabajo.
func (r *StockMovementRepo) ListByWorkOrder(workOrderID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE work_order_id = $1 ORDER BY created_at ASC`
	return r.list(query, []any{workOrderID})
}

// List lista el libro completo en un rango de fechas, paginado.
func (r *StockMovementRepo) List(from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	var args []any
	query, args = appendDateRange(query, args, from, to)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.list(query, args)
}

func appendDateRange(query string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	return query, args
}

func (r *StockMovementRepo) list(query string, args []any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var workOrderID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &workOrderID, &m.Type, &m.Quantity, &m.Direction,
		&m.FromLocation, &m.ToLocation, &m.Reason, &m.Reference, &m.UnitCost,
		&m.PerformedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if workOrderID != nil {
		m.WorkOrderID = *workOrderID
	}
	return &m, nil
}
