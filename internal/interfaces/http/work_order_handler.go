package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ot-api/internal/application/dto"
	"github.com/jhoicas/almacen-ot-api/internal/application/workorder"
)

// WorkOrderHandler maneja el ciclo de vida de las órdenes de trabajo.
type WorkOrderHandler struct {
	uc *workorder.UseCase
}

// NewWorkOrderHandler construye el handler.
func NewWorkOrderHandler(uc *workorder.UseCase) *WorkOrderHandler {
	return &WorkOrderHandler{uc: uc}
}

// Create crea una orden en DRAFT. El solicitante sale del token.
func (h *WorkOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List lista órdenes, opcionalmente filtradas por estado.
func (h *WorkOrderHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	out, err := h.uc.List(c.Context(), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// GetByID obtiene una orden con sus ítems.
func (h *WorkOrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "orden no encontrada"})
	}
	return c.JSON(out)
}

// AddItem agrega una línea a una orden en DRAFT.
func (h *WorkOrderHandler) AddItem(c *fiber.Ctx) error {
	var in dto.WorkOrderItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.AddItem(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Submit envía la orden a aprobación.
func (h *WorkOrderHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.Submit(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Approve aprueba la orden y asigna el responsable.
func (h *WorkOrderHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Approve(c.Context(), c.Params("id"), in.AssigneeID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Reject rechaza la orden registrando el motivo.
func (h *WorkOrderHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reason es requerido"})
	}
	out, err := h.uc.Reject(c.Context(), c.Params("id"), in.Reason)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Start pone la orden en ejecución.
func (h *WorkOrderHandler) Start(c *fiber.Ctx) error {
	out, err := h.uc.Start(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Complete termina la orden.
func (h *WorkOrderHandler) Complete(c *fiber.Ctx) error {
	out, err := h.uc.Complete(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Cancel cancela la orden.
func (h *WorkOrderHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}

// Issue emite líneas de material contra una orden IN_PROGRESS. Todo o nada:
// un fallo en cualquier línea deja el estado exactamente como estaba.
func (h *WorkOrderHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.IssueItems(c.Context(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(out)
}
