// Package report genera los reportes descargables: libro de movimientos en
// XLSX y ficha imprimible de una orden de trabajo en PDF.
package report

import (
	"context"

	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/domain"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/domain/repository"
)

// MovementExporter serializa movimientos a XLSX.
type MovementExporter interface {
	Export(movements []*entity.StockMovement) ([]byte, error)
}

// WorkOrderPDFGenerator genera la ficha PDF de una orden.
type WorkOrderPDFGenerator interface {
	Generate(wo *entity.WorkOrder, products map[string]*entity.Product) ([]byte, error)
}

// UseCase casos de uso de reportes, de solo lectura.
type UseCase struct {
	movRepo     repository.StockMovementRepository
	woRepo      repository.WorkOrderRepository
	productRepo repository.ProductRepository
	exporter    MovementExporter
	pdfGen      WorkOrderPDFGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	movRepo repository.StockMovementRepository,
	woRepo repository.WorkOrderRepository,
	productRepo repository.ProductRepository,
	exporter MovementExporter,
	pdfGen WorkOrderPDFGenerator,
) *UseCase {
	return &UseCase{
		movRepo:     movRepo,
		woRepo:      woRepo,
		productRepo: productRepo,
		exporter:    exporter,
		pdfGen:      pdfGen,
	}
}

// MovementsXLSX exporta el libro de movimientos (según filtro) a XLSX.
func (uc *UseCase) MovementsXLSX(ctx context.Context, f ledger.HistoryFilter) ([]byte, error) {
	var (
		list []*entity.StockMovement
		err  error
	)
	switch {
	case f.WorkOrderID != "":
		list, err = uc.movRepo.ListByWorkOrder(f.WorkOrderID)
	case f.ProductID != "":
		list, err = uc.movRepo.ListByProduct(f.ProductID, f.From, f.To, f.Limit, f.Offset)
	default:
		list, err = uc.movRepo.List(f.From, f.To, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, err
	}
	return uc.exporter.Export(list)
}

// WorkOrderPDF genera la ficha PDF de una orden con sus ítems. Los productos
// eliminados después de cerrar la orden se muestran solo con su ID.
func (uc *UseCase) WorkOrderPDF(ctx context.Context, workOrderID string) ([]byte, error) {
	wo, err := uc.woRepo.GetByID(workOrderID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	products := make(map[string]*entity.Product, len(wo.Items))
	for _, it := range wo.Items {
		p, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			products[it.ProductID] = p
		}
	}
	return uc.pdfGen.Generate(wo, products)
}
