package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	cataloghandler "github.com/wareflow/wareflow-backend/internal/catalog/handler"
	catalogrepo "github.com/wareflow/wareflow-backend/internal/catalog/repository"
	fundhandler "github.com/wareflow/wareflow-backend/internal/fund/handler"
	fundrepo "github.com/wareflow/wareflow-backend/internal/fund/repository"
	fundservice "github.com/wareflow/wareflow-backend/internal/fund/service"
	invconsumers "github.com/wareflow/wareflow-backend/internal/inventory/consumers"
	invevents "github.com/wareflow/wareflow-backend/internal/inventory/events"
	invhandler "github.com/wareflow/wareflow-backend/internal/inventory/handler"
	invrepo "github.com/wareflow/wareflow-backend/internal/inventory/repository"
	invservice "github.com/wareflow/wareflow-backend/internal/inventory/service"
	salesevents "github.com/wareflow/wareflow-backend/internal/sales/events"
	saleshandler "github.com/wareflow/wareflow-backend/internal/sales/handler"
	salesrepo "github.com/wareflow/wareflow-backend/internal/sales/repository"
	salesservice "github.com/wareflow/wareflow-backend/internal/sales/service"
	warrantyhandler "github.com/wareflow/wareflow-backend/internal/warranty/handler"
	warrantyrepo "github.com/wareflow/wareflow-backend/internal/warranty/repository"
	warrantyservice "github.com/wareflow/wareflow-backend/internal/warranty/service"
	"github.com/wareflow/wareflow-backend/pkg/auth"
	"github.com/wareflow/wareflow-backend/pkg/config"
	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("backoffice-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("backoffice-service", cfg.Server.Environment)
	log.Info().Msg("starting Back Office Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publishers
	inventoryPublisher, err := invevents.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory event publisher")
	}
	orderPublisher, err := salesevents.NewOrderEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create order event publisher")
	}

	// Initialize consumers
	checkConsumer, err := invconsumers.NewCheckEventConsumer(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create check event consumer")
	}

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if err := checkConsumer.Start(consumerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start check event consumer")
	}

	// Initialize repositories
	categoryRepo := catalogrepo.NewCategoryRepository(db)
	productRepo := catalogrepo.NewProductRepository(db)
	warehouseRepo := invrepo.NewWarehouseRepository(db)
	supplierRepo := invrepo.NewSupplierRepository(db)
	stockRepo := invrepo.NewStockRepository(db)
	movementRepo := invrepo.NewMovementRepository(db)
	ledgerRepo := invrepo.NewLedgerRepository(db)
	carrierRepo := salesrepo.NewCarrierRepository(db)
	orderRepo := salesrepo.NewOrderRepository(db)
	saleRepo := salesrepo.NewSaleRepository(db)
	debtRepo := salesrepo.NewDebtRepository(db)
	accountRepo := fundrepo.NewAccountRepository(db)
	revenueTypeRepo := fundrepo.NewRevenueTypeRepository(db)
	receiptRepo := fundrepo.NewReceiptRepository(db)
	warrantyRepo := warrantyrepo.NewWarrantyRepository(db)

	// Initialize services
	movementService := invservice.NewMovementService(
		db, movementRepo, stockRepo, productRepo, warehouseRepo, supplierRepo,
		inventoryPublisher, log,
	)
	ledgerService := invservice.NewLedgerService(ledgerRepo, stockRepo, log)
	orderService := salesservice.NewOrderService(
		db, orderRepo, productRepo, stockRepo, warehouseRepo, carrierRepo,
		movementService, orderPublisher, inventoryPublisher, log,
	)
	saleService := salesservice.NewSaleService(
		db, saleRepo, productRepo, warehouseRepo, carrierRepo,
		movementService, inventoryPublisher, log,
	)
	debtService := salesservice.NewDebtService(db, debtRepo, orderRepo, log)
	fundService := fundservice.NewFundService(db, accountRepo, revenueTypeRepo, receiptRepo, log)
	warrantyService := warrantyservice.NewWarrantyService(db, warrantyRepo, productRepo, warehouseRepo, log)

	// Initialize handlers
	productHandler := cataloghandler.NewProductHandler(productRepo, categoryRepo, log)
	categoryHandler := cataloghandler.NewCategoryHandler(categoryRepo, log)
	warehouseHandler := invhandler.NewWarehouseHandler(warehouseRepo, supplierRepo, log)
	inventoryHandler := invhandler.NewInventoryHandler(movementService, ledgerService, stockRepo, movementRepo, log)
	carrierHandler := saleshandler.NewCarrierHandler(carrierRepo, log)
	orderHandler := saleshandler.NewOrderHandler(orderService, log)
	saleHandler := saleshandler.NewSaleHandler(saleService, log)
	debtHandler := saleshandler.NewDebtHandler(debtService, log)
	fundHandler := fundhandler.NewFundHandler(fundService, log)
	warrantyHandler := warrantyhandler.NewWarrantyHandler(warrantyService, log)

	// Token verification; issuance lives in an external identity service
	verifier := auth.NewVerifier(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "backoffice-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		// Catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)
			r.Put("/{id}", categoryHandler.Update)
		})

		// Warehouses, suppliers and shipping carriers
		r.Route("/warehouses", func(r chi.Router) {
			r.Get("/", warehouseHandler.ListWarehouses)
			r.Post("/", warehouseHandler.CreateWarehouse)
			r.Get("/{id}", warehouseHandler.GetWarehouse)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", warehouseHandler.ListSuppliers)
			r.Post("/", warehouseHandler.CreateSupplier)
			r.Get("/{id}", warehouseHandler.GetSupplier)
		})
		r.Route("/shipping-carriers", func(r chi.Router) {
			r.Get("/", carrierHandler.List)
			r.Post("/", carrierHandler.Create)
		})

		// Inventory ledger
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventoryHandler.ListStock)
			r.Get("/initial", inventoryHandler.InitialInventory)
			r.Route("/imports", func(r chi.Router) {
				r.Get("/", inventoryHandler.ListImports)
				r.Post("/", inventoryHandler.CreateImport)
			})
			r.Route("/exports", func(r chi.Router) {
				r.Get("/", inventoryHandler.ListExports)
				r.Post("/", inventoryHandler.CreateExport)
			})
			r.Route("/transfers", func(r chi.Router) {
				r.Get("/", inventoryHandler.ListTransfers)
				r.Post("/", inventoryHandler.CreateTransfer)
			})
			r.Post("/checks", inventoryHandler.CreateCheck)
		})

		// Orders
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Post("/", orderHandler.Create)
			r.Get("/report", orderHandler.Report)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.Get)
				r.Put("/", orderHandler.Update)
				r.Delete("/", orderHandler.Cancel)
				r.Post("/confirm", orderHandler.Confirm)
				r.Get("/status", orderHandler.StatusHistory)
				r.Post("/payment", orderHandler.Pay)
			})
		})

		// Sales
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", saleHandler.List)
			r.Post("/", saleHandler.Create)
		})

		// Debts
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", debtHandler.List)
			r.Post("/", debtHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", debtHandler.Get)
				r.Get("/payments", debtHandler.Payments)
				r.Post("/payments", debtHandler.Pay)
			})
		})

		// Fund
		r.Route("/fund", func(r chi.Router) {
			r.Route("/revenue-types", func(r chi.Router) {
				r.Get("/", fundHandler.ListRevenueTypes)
				r.Post("/", fundHandler.CreateRevenueType)
			})
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", fundHandler.ListAccounts)
				r.Post("/", fundHandler.CreateAccount)
			})
			r.Route("/receipts", func(r chi.Router) {
				r.Get("/", fundHandler.ListReceipts)
				r.Post("/", fundHandler.CreateReceipt)
			})
			r.Get("/balance", fundHandler.Balance)
		})

		// Warranty
		r.Route("/warranty", func(r chi.Router) {
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", warrantyHandler.ListRequests)
				r.Post("/", warrantyHandler.ReceiveRequest)
			})
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", warrantyHandler.ListInventory)
				r.Post("/", warrantyHandler.AddInventory)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the consumer before draining HTTP connections
	consumerCancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
