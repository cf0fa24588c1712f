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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, quantity, reorder_point, reorder_qty, unit_cost, unit_measure, location, cost_method, version, is_deleted, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// El filtro is_deleted = false es explícito en cada lectura, no un interceptor.
// Los writes son compare-and-swap sobre la columna version.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. Quantity inicia en 0 y version en 1.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, category, quantity, reorder_point, reorder_qty, unit_cost, unit_measure, location, cost_method, version, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.SKU, product.Name, product.Category, product.Quantity,
		product.ReorderPoint, product.ReorderQty, product.UnitCost, product.UnitMeasure,
		product.Location, product.CostMethod, product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID (excluye eliminados).
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_deleted = false`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetBySKU obtiene un producto por SKU (excluye eliminados).
func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1 AND is_deleted = false`
	return r.scanOne(r.q.QueryRow(context.Background(), query, sku))
}

// Update actualiza atributos descriptivos con CAS sobre la versión.
// No toca quantity ni location (se mutan vía UpdateQuantity).
func (r *ProductRepo) Update(product *entity.Product, expectedVersion int64) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, reorder_point = $4, reorder_qty = $5, unit_cost = $6,
		    unit_measure = $7, cost_method = $8, version = version + 1, updated_at = $9
		WHERE id = $1 AND version = $10 AND is_deleted = false`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Category, product.ReorderPoint, product.ReorderQty,
		product.UnitCost, product.UnitMeasure, product.CostMethod, product.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.casFailure(product.ID)
	}
	return nil
}

// UpdateQuantity aplica la nueva cantidad (y ubicación si location != "") con
// CAS sobre la versión leída. Cero filas afectadas = otro writer ganó (o el
// producto ya no existe).
func (r *ProductRepo) UpdateQuantity(productID string, quantity decimal.Decimal, location string, expectedVersion int64) error {
	query := `
		UPDATE products
		SET quantity = $2,
		    location = CASE WHEN $3 = '' THEN location ELSE $3 END,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4 AND is_deleted = false`
	cmd, err := r.q.Exec(context.Background(), query, productID, quantity, location, expectedVersion)
	if err != nil {
		return fmt.Errorf("update product quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.casFailure(productID)
	}
	return nil
}

// SoftDelete marca el producto como eliminado con CAS sobre la versión.
func (r *ProductRepo) SoftDelete(id string, expectedVersion int64) error {
	query := `
		UPDATE products SET is_deleted = true, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND is_deleted = false`
	cmd, err := r.q.Exec(context.Background(), query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return r.casFailure(id)
	}
	return nil
}

// List lista productos con paginación (excluye eliminados).
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_deleted = false ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListBelowReorderPoint lista productos en o por debajo del punto de reorden.
func (r *ProductRepo) ListBelowReorderPoint() ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_deleted = false AND reorder_point > 0 AND quantity <= reorder_point
		ORDER BY quantity / reorder_point ASC`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// casFailure distingue conflicto de versión de producto inexistente.
func (r *ProductRepo) casFailure(id string) error {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_deleted = false)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConcurrencyConflict
}

func (r *ProductRepo) scanOne(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Quantity, &p.ReorderPoint, &p.ReorderQty,
		&p.UnitCost, &p.UnitMeasure, &p.Location, &p.CostMethod, &p.Version, &p.IsDeleted,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) scanMany(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Category, &p.Quantity, &p.ReorderPoint, &p.ReorderQty,
			&p.UnitCost, &p.UnitMeasure, &p.Location, &p.CostMethod, &p.Version, &p.IsDeleted,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
