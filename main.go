package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/subwatch/backend/src/config"
	"github.com/username/subwatch/backend/src/database"
	"github.com/username/subwatch/backend/src/engine"
	"github.com/username/subwatch/backend/src/handlers"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/providers"
	"github.com/username/subwatch/backend/src/security"
	"github.com/username/subwatch/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := make(map[string]bool, len(config.Cfg.AllowedOrigins))
		for _, o := range config.Cfg.AllowedOrigins {
			allowed[o] = true
		}

		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("subwatch backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	authService := security.NewAuthService(config.Cfg.JWTSecret)

	source, err := providers.NewOpenBankingClient(providers.ClientConfig{
		BaseURL:      config.Cfg.ProviderBaseURL,
		ClientID:     config.Cfg.ProviderClientID,
		ClientSecret: config.Cfg.ProviderClientSecret,
		TokenURL:     config.Cfg.ProviderTokenURL,
		Timeout:      config.Cfg.ProviderTimeout,
	})
	if err != nil {
		stdlog.Fatalf("Failed to initialize bank data provider: %v", err)
	}

	detectionEngine := engine.New(engine.Config{
		MinConfidence:     config.Cfg.MinConfidence,
		MinTransactions:   config.Cfg.MinTransactions,
		MinHistoryDays:    config.Cfg.MinHistoryDays,
		MinDistinctGroups: config.Cfg.MinDistinctGroups,
	})

	store := services.NewSQLStore(database.DB)
	detectionService := services.NewDetectionService(source, detectionEngine, store, reportCache)
	enrichmentService := services.NewEnrichmentService(source, store, services.EnrichmentConfig{
		PriceChangeThreshold:     config.Cfg.PriceChangeThreshold,
		PriceChangeLookback:      config.Cfg.PriceChangeLookback,
		AnomalyRelativeThreshold: config.Cfg.AnomalyRelativeThreshold,
		AnomalyAbsoluteFloor:     config.Cfg.AnomalyAbsoluteFloor,
		AnomalyLookback:          config.Cfg.AnomalyLookback,
	})
	scanService := services.NewScanService(store, detectionService, enrichmentService, services.ScanConfig{
		Interval:     config.Cfg.ScanInterval,
		RetryBackoff: config.Cfg.ScanRetryBackoff,
		MaxAttempts:  config.Cfg.MaxScanAttempts,
		Workers:      config.Cfg.ScanWorkers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	scanService.Start(ctx)

	userHandler := handlers.NewUserHandler(authService)
	subscriptionHandler := handlers.NewSubscriptionHandler(detectionService)
	scanHandler := handlers.NewScanHandler(scanService, source)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "subwatch backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", userHandler.RegisterUserHandler)
			r.Post("/auth/login", userHandler.LoginUserHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(authService))

			r.Post("/accounts", scanHandler.HandleLinkAccount)
			r.Post("/scans", scanHandler.HandleTriggerScan)
			r.Get("/scans/{scanID}", scanHandler.HandleGetScan)
			r.Get("/subscriptions", subscriptionHandler.HandleGetSubscriptions)
			r.Get("/subscriptions/price-changes", subscriptionHandler.HandleGetPriceChanges)
			r.Get("/subscriptions/anomalies", subscriptionHandler.HandleGetAnomalies)
			r.Get("/provider/diagnostics", scanHandler.HandleProviderDiagnostics)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
