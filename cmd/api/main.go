package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"settlement-engine/config"
	"settlement-engine/internal/delivery/http/middleware"
	v1 "settlement-engine/internal/delivery/http/v1"
	"settlement-engine/internal/domain"
	"settlement-engine/internal/infrastructure/cache"
	"settlement-engine/internal/repository/memory"
	"settlement-engine/internal/repository/pgstore"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/logger"
	"settlement-engine/pkg/metrics"
	"settlement-engine/pkg/storage"
	"settlement-engine/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

const serviceName = "settlement-engine"

// repositories is the set of collaborators the settlement path needs.
type repositories struct {
	catalog   domain.CatalogReader
	coupons   domain.CouponRepository
	promos    domain.PromotionRepository
	shipping  domain.ShippingRuleRepository
	inventory domain.InventoryStore
	orders    domain.OrderRepository
	users     domain.UserRepository
	integrity domain.IntegrityRepository
	txManager domain.TransactionManager
}

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel, cfg.LogFile)

	ctx := context.Background()

	// Initialize Repositories
	var (
		repos   repositories
		pgxPool *pgxpool.Pool
	)
	if cfg.DBUrl != "" {
		var err error
		pgxPool, err = pgstore.NewPgxPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		logger.Info().Msg("Successfully connected to PostgreSQL via pgx")

		txManager := pgstore.NewTransactionManager(pgxPool)
		repos = repositories{
			catalog:   pgstore.NewCatalogRepository(pgxPool),
			coupons:   pgstore.NewCouponRepository(pgxPool),
			promos:    pgstore.NewPromotionRepository(pgxPool),
			shipping:  pgstore.NewShippingRuleRepository(pgxPool),
			inventory: pgstore.NewInventoryRepository(pgxPool, txManager),
			orders:    pgstore.NewOrderRepository(pgxPool),
			users:     pgstore.NewUserRepository(pgxPool),
			integrity: pgstore.NewIntegrityRepository(pgxPool),
			txManager: txManager,
		}
	} else {
		store := memory.NewStore()
		repos = repositories{
			catalog:   store,
			coupons:   store,
			promos:    store,
			shipping:  store,
			inventory: store,
			orders:    store,
			users:     store,
			integrity: store,
			txManager: store,
		}
		logger.Warn().Msg("Running on the in-memory store; data is lost on restart")
	}

	// --- Integrity Ledger Backend (R2) ---
	if cfg.IntegrityBackend == "r2" {
		r2Ledger, err := storage.NewR2Ledger(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2Timeout,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize R2 integrity ledger")
		}
		repos.integrity = r2Ledger
	}

	// Initialize Cache (In-Memory)
	// Entries expire with the master-data TTL, swept every 2 TTLs
	memCache := cache.NewMemoryStore(cfg.CacheMasterDataTTL, 2*cfg.CacheMasterDataTTL)
	masterData := usecase.NewMasterData(repos.promos, repos.shipping, memCache, cfg.CacheMasterDataTTL)

	// --- Settlement Module ---
	reconciler := usecase.NewReconciler(
		repos.catalog,
		usecase.NewCouponValidator(repos.coupons, repos.orders, repos.catalog),
		usecase.NewPromotionEngine(repos.users),
		usecase.NewShippingCalculator(cfg.LegacyShippingSingle, cfg.LegacyShippingMulti, cfg.DefaultItemWeight),
		masterData,
		cfg.ReconcileTolerance,
		cfg.ComboTolerance,
	)
	committer := usecase.NewCommitter(
		repos.inventory,
		repos.txManager,
		usecase.NewRetryPolicy(cfg.SettlementMaxAttempts, cfg.SettlementBackoffStep),
	)
	ledger := usecase.NewIntegrityLedger(repos.integrity, repos.orders, cfg.IntegritySecret)
	settlementUC := usecase.NewSettlementUsecase(reconciler, committer, ledger, repos.coupons, repos.orders, cfg.DefaultStockLocation)

	settlementHandler := v1.NewSettlementHandler(settlementUC)
	couponHandler := v1.NewCouponHandler(settlementUC)
	adminOrderHandler := v1.NewAdminOrderHandler(settlementUC)
	configHandler := v1.NewConfigHandler(masterData)
	adminConfigHandler := v1.NewAdminConfigHandler(masterData)

	// Set up Router
	mux := http.NewServeMux()

	// Settlement (guest or authenticated; store channel checks staff role)
	mux.Handle("POST /api/v1/settlement/quote", middleware.OptionalAuth(http.HandlerFunc(settlementHandler.Quote)))
	mux.Handle("POST /api/v1/settlement/orders", middleware.OptionalAuth(http.HandlerFunc(settlementHandler.Settle)))
	mux.Handle("POST /api/v1/coupons/validate", middleware.OptionalAuth(http.HandlerFunc(couponHandler.ValidateCoupon)))

	// Config (Public)
	mux.HandleFunc("GET /api/v1/config/enums", configHandler.GetEnums)

	// Admin (Protected)
	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}
	mux.Handle("GET /api/v1/admin/orders/{id}", adminMiddleware(adminOrderHandler.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/integrity", adminMiddleware(adminOrderHandler.VerifyIntegrity))
	mux.Handle("GET /api/v1/admin/config/promotions", adminMiddleware(adminConfigHandler.GetPromotions))
	mux.Handle("GET /api/v1/admin/config/shipping-rules", adminMiddleware(adminConfigHandler.GetShippingRules))
	mux.Handle("POST /api/v1/admin/config/invalidate", adminMiddleware(adminConfigHandler.InvalidateMasterData))

	// Metrics
	mux.Handle("GET /metrics", metrics.Handler())

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		backend := "memory"
		if pgxPool != nil {
			backend = "postgres"
			if err := pgxPool.Ping(r.Context()); err != nil {
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": backend})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	// cleanup every minute, visitor TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, "1.0.0", cfg.Port)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	// L9: Graceful shutdown - stop rate limiter cleanup goroutine
	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	if pgxPool != nil {
		pgxPool.Close()
	}

	logger.ServiceStop(serviceName)
}
