package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appauth "github.com/jhoicas/pos-sucursales/internal/application/auth"
	"github.com/jhoicas/pos-sucursales/internal/application/billing"
	"github.com/jhoicas/pos-sucursales/internal/application/inventory"
	"github.com/jhoicas/pos-sucursales/internal/application/usecase"
	infrapdf "github.com/jhoicas/pos-sucursales/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-sucursales/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-sucursales/internal/interfaces/http"
	"github.com/jhoicas/pos-sucursales/pkg/config"
	"github.com/jhoicas/pos-sucursales/pkg/logger"

	_ "github.com/jhoicas/pos-sucursales/docs" // registro del swagger generado
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   "info",
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
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledger := inventory.NewStockLedger()
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, ledger, productRepo, movementRepo)
	productUC := usecase.NewProductUseCase(productRepo, txRunner, ledger)

	createInvoiceUC := billing.NewCreateInvoiceUseCase(txRunner, ledger, productRepo, invoiceRepo)
	paymentUC := billing.NewPaymentUseCase(txRunner, paymentRepo, invoiceRepo)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	invoicePDFUC := billing.NewPDFUseCase(invoiceRepo, pdfGenerator)

	authUC := appauth.NewAuthUseCase(userRepo, appauth.JWTConfig{
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
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Sucursales API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:           authUC,
		ProductUC:        productUC,
		RegisterMovement: registerMovementUC,
		CreateInvoice:    createInvoiceUC,
		InvoicePDF:       invoicePDFUC,
		PaymentUC:        paymentUC,
		JWTSecret:        cfg.JWT.Secret,
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
