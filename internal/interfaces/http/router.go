package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ot-api/internal/application/auth"
	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/application/report"
	"github.com/jhoicas/almacen-ot-api/internal/application/usecase"
	"github.com/jhoicas/almacen-ot-api/internal/application/workorder"
	"github.com/jhoicas/almacen-ot-api/internal/domain/entity"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	ProductUC      *usecase.ProductUseCase
	RecordMovement *ledger.RecordMovementUseCase
	History        *ledger.HistoryUseCase
	WorkOrderUC    *workorder.UseCase
	ReportUC       *report.UseCase
	Hub            *ws.Hub
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	supervisors := RequireRole(entity.RoleAdmin, entity.RoleSupervisor)
	storekeepers := RequireRole(entity.RoleAdmin, entity.RoleSupervisor, entity.RoleBodeguero)
	technicians := RequireRole(entity.RoleAdmin, entity.RoleSupervisor, entity.RoleTecnico)

	// Products: lectura para todos los autenticados, escritura para supervisores
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", supervisors, productHandler.Create)
	products.Put("/:id", supervisors, productHandler.Update)
	products.Delete("/:id", supervisors, productHandler.Delete)

	// Inventory: el libro de movimientos
	invGroup := protected.Group("/inventory")
	ledgerHandler := NewLedgerHandler(deps.RecordMovement, deps.History)
	invGroup.Post("/movements", storekeepers, ledgerHandler.RecordMovement)
	invGroup.Get("/movements", ledgerHandler.History)

	// Work orders: ciclo de vida completo
	workOrders := protected.Group("/work-orders")
	workOrderHandler := NewWorkOrderHandler(deps.WorkOrderUC)
	workOrders.Post("/", workOrderHandler.Create)
	workOrders.Get("/", workOrderHandler.List)
	workOrders.Get("/:id", workOrderHandler.GetByID)
	workOrders.Post("/:id/items", workOrderHandler.AddItem)
	workOrders.Post("/:id/submit", workOrderHandler.Submit)
	workOrders.Post("/:id/approve", supervisors, workOrderHandler.Approve)
	workOrders.Post("/:id/reject", supervisors, workOrderHandler.Reject)
	workOrders.Post("/:id/start", technicians, workOrderHandler.Start)
	workOrders.Post("/:id/complete", technicians, workOrderHandler.Complete)
	workOrders.Post("/:id/cancel", supervisors, workOrderHandler.Cancel)
	workOrders.Post("/:id/issue", storekeepers, workOrderHandler.Issue)

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC)
	protected.Get("/reports/movements.xlsx", reportHandler.MovementsXLSX)
	workOrders.Get("/:id/pdf", reportHandler.WorkOrderPDF)

	// WebSocket: eventos de transiciones y stock bajo
	if deps.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(deps.Hub.Handler()))
	}
}
