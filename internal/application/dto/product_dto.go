package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	ReorderQty   decimal.Decimal `json:"reorder_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitMeasure  string          `json:"unit_measure"`
	Location     string          `json:"location"`
	CostMethod   string          `json:"cost_method"`
}

// UpdateProductRequest body para PUT /api/products/:id. Campos nil = sin cambio.
// Version es la versión leída por el cliente; el update es CAS sobre ella.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	ReorderQty   *decimal.Decimal `json:"reorder_qty"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
	UnitMeasure  *string          `json:"unit_measure"`
	CostMethod   *string          `json:"cost_method"`
	Version      int64            `json:"version"`
}

// ProductResponse respuesta de producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	ReorderQty   decimal.Decimal `json:"reorder_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitMeasure  string          `json:"unit_measure"`
	Location     string          `json:"location"`
	CostMethod   string          `json:"cost_method"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Products []*ProductResponse `json:"products"`
	Page     PageResponse       `json:"page"`
}

// LowStockItemDTO producto en o por debajo de su punto de reorden, con la
// cantidad sugerida de pedido.
type LowStockItemDTO struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"`
}
