package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/report"
)

// ReportHandler maneja los reportes descargables: XLSX de movimientos y PDF de
// órdenes de trabajo.
type ReportHandler struct {
	uc *report.UseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.UseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// MovementsXLSX descarga el libro de movimientos en XLSX. Acepta los mismos
// filtros que el historial.
func (h *ReportHandler) MovementsXLSX(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtro inválido"})
	}
	data, err := h.uc.MovementsXLSX(c.Context(), filter)
	if err != nil {
		return writeDomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=movimientos.xlsx`)
	return c.Send(data)
}

// WorkOrderPDF descarga la ficha PDF de una orden de trabajo.
func (h *ReportHandler) WorkOrderPDF(c *fiber.Ctx) error {
	data, err := h.uc.WorkOrderPDF(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=orden.pdf`)
	return c.Send(data)
}
