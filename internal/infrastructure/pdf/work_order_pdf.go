// Package pdf genera la ficha imprimible de una orden de trabajo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° Orden + Título       │  Estado + Prioridad      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Solicitante / Asignado / Fechas                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Solicitado | Emitido | Pendiente   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: motivo de rechazo (si aplica) + fecha de emisión   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// WorkOrderPDFGenerator genera la ficha de una orden usando Maroto v2.
type WorkOrderPDFGenerator struct{}

// NewWorkOrderPDFGenerator construye el generador.
func NewWorkOrderPDFGenerator() *WorkOrderPDFGenerator { return &WorkOrderPDFGenerator{} }

// Generate genera el PDF de la orden y devuelve sus bytes. products mapea
// product_id a producto para mostrar SKU y nombre en la tabla de ítems.
func (g *WorkOrderPDFGenerator) Generate(wo *entity.WorkOrder, products map[string]*entity.Product) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de Trabajo "+wo.OrderNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(wo))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(detailRows(wo)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, it := range wo.Items {
		m.AddRows(itemRow(it, products[it.ProductID]))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(wo)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: N° orden + título (izq), estado y prioridad (der).
func headerRow(wo *entity.WorkOrder) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(wo.OrderNumber, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(wo.Title, props.Text{Size: 10, Top: 9}),
		),
		col.New(4).Add(
			text.New("Estado: "+wo.Status, props.Text{
				Size: 10, Top: 1, Align: align.Right, Style: fontstyle.Bold,
			}),
			text.New("Prioridad: "+wo.Priority, props.Text{
				Size: 9, Top: 9, Align: align.Right, Color: colorGray,
			}),
		),
	)
}

func detailRows(wo *entity.WorkOrder) []core.Row {
	rows := []core.Row{
		labelValueRow("Solicitado por", wo.RequestedBy),
	}
	if wo.AssignedTo != "" {
		rows = append(rows, labelValueRow("Asignado a", wo.AssignedTo))
	}
	if wo.DueDate != nil {
		rows = append(rows, labelValueRow("Fecha límite", wo.DueDate.Format("02/01/2006")))
	}
	if wo.CompletedAt != nil {
		rows = append(rows, labelValueRow("Completada", wo.CompletedAt.Format("02/01/2006 15:04")))
	}
	if wo.Description != "" {
		rows = append(rows, labelValueRow("Descripción", wo.Description))
	}
	return rows
}

func labelValueRow(label, value string) core.Row {
	return row.New(6).Add(
		col.New(3).Add(text.New(label+":", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorGray})),
		col.New(9).Add(text.New(value, props.Text{Size: 9})),
	)
}

func tableHeaderRow() core.Row {
	header := props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary}
	return row.New(8).Add(
		col.New(2).Add(text.New("SKU", header)),
		col.New(4).Add(text.New("Producto", header)),
		col.New(2).Add(text.New("Solicitado", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right})),
		col.New(2).Add(text.New("Emitido", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right})),
		col.New(2).Add(text.New("Pendiente", props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right})),
	)
}

func itemRow(it *entity.WorkOrderItem, product *entity.Product) core.Row {
	sku, name := it.ProductID, ""
	if product != nil {
		sku, name = product.SKU, product.Name
	}
	return row.New(6).Add(
		col.New(2).Add(text.New(sku, props.Text{Size: 8})),
		col.New(4).Add(text.New(name, props.Text{Size: 8})),
		col.New(2).Add(text.New(it.QuantityRequested.String(), props.Text{Size: 8, Align: align.Right})),
		col.New(2).Add(text.New(it.QuantityIssued.String(), props.Text{Size: 8, Align: align.Right})),
		col.New(2).Add(text.New(it.Pending().String(), props.Text{Size: 8, Align: align.Right})),
	)
}

func footerRows(wo *entity.WorkOrder) []core.Row {
	var rows []core.Row
	if wo.RejectReason != "" {
		rows = append(rows, labelValueRow("Motivo de rechazo", wo.RejectReason))
	}
	rows = append(rows, row.New(5).Add(
		col.New(12).Add(text.New(
			"Generado el "+time.Now().Format("02/01/2006 15:04"),
			props.Text{Size: 7, Color: colorGray, Align: align.Right},
		)),
	))
	return rows
}
