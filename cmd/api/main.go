package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/almacen-ot-api/internal/application/auth"
	"github.com/jhoicas/almacen-ot-api/internal/application/ledger"
	"github.com/jhoicas/almacen-ot-api/internal/application/report"
	"github.com/jhoicas/almacen-ot-api/internal/application/usecase"
	"github.com/jhoicas/almacen-ot-api/internal/application/workorder"
	infraexcel "github.com/jhoicas/almacen-ot-api/internal/infrastructure/excel"
	infrapdf "github.com/jhoicas/almacen-ot-api/internal/infrastructure/pdf"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/postgres"
	"github.com/jhoicas/almacen-ot-api/internal/infrastructure/ws"
	httpRouter "github.com/jhoicas/almacen-ot-api/internal/interfaces/http"
	"github.com/jhoicas/almacen-ot-api/pkg/config"
	"github.com/jhoicas/almacen-ot-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	workOrderRepo := postgres.NewWorkOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	hub := ws.NewHub()

	recordMovementUC := ledger.NewRecordMovementUseCase(txRunner, hub)
	historyUC := ledger.NewHistoryUseCase(movementRepo)
	workOrderUC := workorder.NewUseCase(txRunner, workOrderRepo, productRepo, userRepo, hub)
	productUC := usecase.NewProductUseCase(productRepo, workOrderRepo)
	reportUC := report.NewUseCase(
		movementRepo, workOrderRepo, productRepo,
		infraexcel.NewMovementExporter(), infrapdf.NewWorkOrderPDFGenerator(),
	)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ProductUC:      productUC,
		RecordMovement: recordMovementUC,
		History:        historyUC,
		WorkOrderUC:    workOrderUC,
		ReportUC:       reportUC,
		Hub:            hub,
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
