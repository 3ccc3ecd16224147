package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/handler"
	"go-pos-checkout/internal/repository"
	"go-pos-checkout/internal/service"
	"go-pos-checkout/internal/ws"
	"go-pos-checkout/pkg/config"
	"go-pos-checkout/pkg/database"
	"go-pos-checkout/pkg/jwt"
	applog "go-pos-checkout/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const (
	defaultManagerName     = "admin"
	defaultManagerPassword = "admin123"
	registerPruneInterval  = 15 * time.Minute
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if cfg.JWTSecret == "" {
		zl.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, cfg.LogLevel)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	// Auto Migrate (use a dedicated migration tool in production)
	if err := database.Migrate(db); err != nil {
		zl.Fatal("database migrate failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zl)
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	userRepo := repository.NewUserRepo(db)
	reportRepo := repository.NewReportRepo(db)

	snapshot := catalog.NewSnapshot(productRepo)
	if err := snapshot.Refresh(ctx); err != nil {
		zl.Fatal("catalog load failed", zap.Error(err))
	}
	zl.Info("catalog loaded", zap.Int("items", snapshot.Len()))

	checkoutService := service.NewCheckoutService(db, productRepo, saleRepo, auditRepo, wsHub, zl, service.CheckoutOptions{
		StrictStock: cfg.StockPolicy == config.StockPolicyStrict,
		AuditSales:  cfg.AuditSales,
	})
	registerService := service.NewRegisterService(snapshot, checkoutService, cfg.TaxRate, zl)
	go pruneRegisters(ctx, registerService, zl)
	invService := service.NewInventoryService(db, productRepo, auditRepo, snapshot, wsHub, zl)
	dashService := service.NewDashboardService(reportRepo, cfg.PerishableWindowDays)
	authService := service.NewAuthService(userRepo, registerService, zl)
	userService := service.NewUserService(userRepo)

	// 5. Seed the first manager account
	created, err := userService.EnsureDefaultManager(ctx, defaultManagerName, defaultManagerPassword)
	if err != nil {
		zl.Warn("failed to seed default manager", zap.Error(err))
	} else if created {
		zl.Info("default manager created", zap.String("name", defaultManagerName))
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Checkout v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.RegisterRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Catalog:   handler.NewCatalogHandler(snapshot, wsHub),
		Register:  handler.NewRegisterHandler(registerService),
		Inventory: handler.NewInventoryHandler(invService, cfg.PerishableWindowDays),
		Dashboard: handler.NewDashboardHandler(dashService),
		User:      handler.NewUserHandler(userService),
	}, userRepo, wsHub)

	// 8. Graceful Shutdown
	go func() {
		zl.Info("listening", zap.String("port", cfg.Port), zap.String("stock_policy", cfg.StockPolicy))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Panic("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server", zap.Int("open_registers", registerService.OpenSessions()))
	stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Fatal("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}

// pruneRegisters drops register sessions whose login token has expired.
func pruneRegisters(ctx context.Context, registers *service.RegisterService, zl *zap.Logger) {
	ticker := time.NewTicker(registerPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registers.Prune(jwt.TokenTTL); n > 0 {
				zl.Info("expired register sessions pruned", zap.Int("count", n))
			}
		}
	}
}
