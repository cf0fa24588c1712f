package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
)

// LedgerHandler maneja el libro de movimientos: registrar y consultar.
type LedgerHandler struct {
	record  *ledger.RecordMovementUseCase
	history *ledger.HistoryUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(record *ledger.RecordMovementUseCase, history *ledger.HistoryUseCase) *LedgerHandler {
	return &LedgerHandler{record: record, history: history}
}

// RecordMovement registra un movimiento de stock. El actor sale del token,
// nunca del body.
func (h *LedgerHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.record.RecordMovement(c.Context(), ledger.MovementInput{
		ProductID:    in.ProductID,
		WorkOrderID:  in.WorkOrderID,
		Type:         in.Type,
		Quantity:     in.Quantity,
		Direction:    in.Direction,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		Reason:       in.Reason,
		Reference:    in.Reference,
		UnitCost:     in.UnitCost,
		UserID:       GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordMovementResponse{
		Movement:    *ledger.ToMovementResponse(result.Movement),
		NewQuantity: result.NewQuantity,
		NewVersion:  result.NewVersion,
	})
}

// History lista movimientos. Filtros: product_id, work_order_id, from, to
// (RFC 3339), más paginación.
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "filtro inválido"})
	}
	out, err := h.history.List(c.Context(), filter)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

func parseHistoryFilter(c *fiber.Ctx) (ledger.HistoryFilter, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return ledger.HistoryFilter{}, err
	}
	page.DefaultPage()
	f := ledger.HistoryFilter{
		ProductID:   c.Query("product_id"),
		WorkOrderID: c.Query("work_order_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return ledger.HistoryFilter{}, err
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return ledger.HistoryFilter{}, err
		}
		f.To = &t
	}
	return f, nil
}
