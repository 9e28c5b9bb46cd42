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

	authhandler "github.com/GabrielSchiavo/smartstock-sub002/internal/auth/handler"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/jwt"
	authmw "github.com/GabrielSchiavo/smartstock-sub002/internal/auth/middleware"
	authrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/auth/repository"
	authservice "github.com/GabrielSchiavo/smartstock-sub002/internal/auth/service"
	invhandler "github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/handler"
	invrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	invservice "github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/service"
	mdhandler "github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/handler"
	mdrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/repository"
	mdservice "github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/service"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/consumers"
	userhandler "github.com/GabrielSchiavo/smartstock-sub002/internal/user/handler"
	userrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	userservice "github.com/GabrielSchiavo/smartstock-sub002/internal/user/service"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/config"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/i18n"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// collectionPaths maps each reference collection to its URL segment.
var collectionPaths = map[string]string{
	"category": "categories",
	"group":    "groups",
	"subgroup": "subgroups",
	"donor":    "donors",
	"supplier": "suppliers",
}

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("smartstock-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("smartstock-api", cfg.Server.Environment)
	log.Info().Msg("starting SmartStock API")

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

	// Event publishers, one per exchange
	inventoryPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "smartstock-api", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory publisher")
	}
	reportPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeReportEvents, "smartstock-api", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create report publisher")
	}
	userPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeUserEvents, "smartstock-api", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user publisher")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories
	productRepo := invrepo.NewProductRepository(db)
	movementRepo := invrepo.NewMovementRepository(db)
	alertRepo := invrepo.NewAlertRepository(db)
	userRepo := userrepo.NewUserRepository(db)
	roleRepo := userrepo.NewRoleRepository(db)
	auditRepo := userrepo.NewAuditRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)

	// Seed the default roles on a fresh database
	if err := roleRepo.EnsureDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default roles")
	}

	// Services
	thresholdDays := cfg.Expiry.ThresholdDays
	productService := invservice.NewProductService(db, productRepo, movementRepo, alertRepo, inventoryPublisher, thresholdDays, log)
	alertService := invservice.NewAlertService(alertRepo, log)
	reportService := invservice.NewReportService(productRepo, reportPublisher, thresholdDays, log)
	userService := userservice.NewUserService(userRepo, roleRepo, auditRepo, userPublisher, log)

	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authservice.NewAuthService(sessionRepo, userRepo, jwtManager, log)

	// Background alert scanning
	scanner := invservice.NewAlertScanner(productRepo, alertRepo, inventoryPublisher, thresholdDays, log)
	scheduler := invservice.NewAlertScheduler(scanner, cfg.Expiry.ScanInterval, log)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Periodic session cleanup
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authService.CleanExpiredSessions(ctx); err != nil {
					log.Warn().Err(err).Msg("session cleanup failed")
				}
			}
		}
	}()

	// Audit trail consumer for inventory events
	auditConsumer, err := consumers.NewAuditEventConsumer(rmq, auditRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create audit event consumer")
	}
	if err := auditConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start audit event consumer")
	}

	// Handlers
	productHandler := invhandler.NewProductHandler(productService, log)
	dashboardHandler := invhandler.NewDashboardHandler(productService, log)
	alertHandler := invhandler.NewAlertHandler(alertService, log)
	reportHandler := invhandler.NewReportHandler(reportService, log)
	userHandler := userhandler.NewUserHandler(userService, log)
	roleHandler := userhandler.NewRoleHandler(userService, log)
	auditHandler := userhandler.NewAuditHandler(userService, log)
	authHandler := authhandler.NewAuthHandler(authService, log)

	auth := authmw.New(jwtManager, log)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(i18n.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "smartstock-api",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/refresh", authHandler.Refresh)
			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Get("/me", authHandler.Me)
				r.Put("/me/password", userHandler.ChangeOwnPassword)
			})
		})

		// Everything below requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission("inventory.read"))
				r.Mount("/products", productHandler.Routes())
				r.Mount("/dashboard", dashboardHandler.Routes())
				r.Mount("/alerts", alertHandler.Routes())
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission("reports.read"))
				r.Mount("/reports", reportHandler.Routes())
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission("masterdata.read"))
				for _, col := range mdrepo.AllCollections {
					repo := mdrepo.NewReferenceRepository(db, col)
					svc := mdservice.NewReferenceService(repo, inventoryPublisher, log)
					h := mdhandler.NewReferenceHandler(svc, log)
					r.Mount("/"+collectionPaths[col.Resource], h.Routes())
				}
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission("users.manage"))
				r.Mount("/users", userHandler.Routes())
				r.Mount("/roles", roleHandler.Routes())
				r.Mount("/audit", auditHandler.Routes())
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

	// Stop the alert scheduler
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
