// Package excel genera reportes XLSX del libro de movimientos.
package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

const movementsSheet = "Movimientos"

// MovementExporter genera el reporte XLSX del libro de movimientos.
type MovementExporter struct{}

// NewMovementExporter construye el exportador.
func NewMovementExporter() *MovementExporter { return &MovementExporter{} }

var movementHeaders = []string{
	"ID", "Producto", "Orden de Trabajo", "Tipo", "Cantidad", "Dirección",
	"Desde", "Hacia", "Motivo", "Referencia", "Costo Unitario", "Realizado Por", "Fecha",
}

// Export genera el archivo XLSX con los movimientos dados y devuelve sus bytes.
func (e *MovementExporter) Export(movements []*entity.StockMovement) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(movementsSheet)
	if err != nil {
		return nil, fmt.Errorf("excel: crear hoja: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo de encabezado: %w", err)
	}

	for i, header := range movementHeaders {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(movementsSheet, cell, header)
		f.SetCellStyle(movementsSheet, cell, cell, headerStyle)
	}

	for rowIdx, m := range movements {
		values := []any{
			m.ID, m.ProductID, m.WorkOrderID, m.Type, m.Quantity.String(), m.Direction,
			m.FromLocation, m.ToLocation, m.Reason, m.Reference, m.UnitCost.String(),
			m.PerformedBy, m.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range values {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(movementsSheet, cell, value)
		}
	}

	for i := range movementHeaders {
		col := string(rune('A' + i))
		f.SetColWidth(movementsSheet, col, col, 18)
	}
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("excel: escribir archivo: %w", err)
	}
	return buf.Bytes(), nil
}
