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
	"github.com/vidaplus/vidaplus-backend/internal/inventory/events"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/handler"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/auth"
	"github.com/vidaplus/vidaplus-backend/pkg/config"
	"github.com/vidaplus/vidaplus-backend/pkg/database"
	"github.com/vidaplus/vidaplus-backend/pkg/httputil"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

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

	// Initialize event publisher
	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(itemRepo, movementRepo, publisher, log)
	stockService := service.NewStockService(db, itemRepo, movementRepo, publisher, log, cfg.Stock.LockTimeout)
	alertService := service.NewAlertService(itemRepo, movementRepo, log)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(catalogService, log)
	stockHandler := handler.NewStockHandler(stockService, log)
	alertHandler := handler.NewAlertHandler(alertService, cfg.Stock.ExpiryLookaheadDays, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background alert scanner
	var scanner *service.AlertScanner
	if cfg.Stock.ScanInterval > 0 {
		scanner = service.NewAlertScanner(alertService, publisher, cfg.Stock.ScanInterval, cfg.Stock.ExpiryLookaheadDays, log)
		scanner.Start(ctx)
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			// Allow localhost variations (development)
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			// Allow *.vidaplus.com.br for production
			if len(origin) > 16 && origin[len(origin)-16:] == ".vidaplus.com.br" {
				return true
			}
			if origin == "https://vidaplus.com.br" {
				return true
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Resolve the acting user from the bearer token when one is present
	r.Use(auth.Middleware(auth.NewVerifier(&cfg.JWT)))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Item catalog
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/{id}", itemHandler.Get)
			r.Patch("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Delete)
			r.Get("/{id}/balance", itemHandler.Balance)
		})

		// Stock ledger
		r.Route("/stock", func(r chi.Router) {
			r.Post("/move", stockHandler.Move)
			r.Get("/movements", stockHandler.ListMovements)
			r.Get("/balance/{id}", itemHandler.Balance)
			r.Get("/alerts/low", alertHandler.LowStock)
			r.Get("/alerts/expiry", alertHandler.Expiry)
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

	// Cancel context to stop the scanner
	cancel()
	if scanner != nil {
		scanner.Stop()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
