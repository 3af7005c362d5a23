package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/hongfa/admin-api/app/db"
	"github.com/hongfa/admin-api/config"
	"github.com/hongfa/admin-api/internal/api/analytics"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/api/customer"
	"github.com/hongfa/admin-api/internal/api/inventory"
	"github.com/hongfa/admin-api/internal/api/order"
	"github.com/hongfa/admin-api/internal/api/product"
	"github.com/hongfa/admin-api/internal/api/settings"
	"github.com/hongfa/admin-api/internal/api/upload"
	"github.com/hongfa/admin-api/internal/api/user"
	"github.com/hongfa/admin-api/internal/events"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Hub    *events.Hub

	AuthService auth.Service

	AuthHandler      *auth.HandlerImpl
	UserHandler      *user.HandlerImpl
	ProductHandler   *product.HandlerImpl
	OrderHandler     *order.HandlerImpl
	CustomerHandler  *customer.HandlerImpl
	InventoryHandler *inventory.HandlerImpl
	AnalyticsHandler *analytics.HandlerImpl
	SettingsHandler  *settings.HandlerImpl
	UploadHandler    *upload.HandlerImpl
	WSHandler        *events.WSHandler
}

// NewContainer wires repositories, services and handlers for every domain.
// The analytics service doubles as the activity tracker injected into the
// other services; the hub is the shared event broadcaster.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	hub := events.NewHub(logger)

	analyticsRepo := analytics.NewPostgresAnalyticsRepo(pool, logger)
	analyticsService := analytics.NewService(analyticsRepo, logger)
	analyticsHandler := analytics.NewHandlerImpl(analyticsService, logger)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewService(authRepo, cfg.JWT, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewService(userRepo, analyticsService, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	uploadService, err := upload.NewService(cfg.Uploads.Dir, cfg.Uploads.MaxFileSize, logger)
	if err != nil {
		logger.Error("Failed to initialize upload service", slog.Any("error", err))
		pool.Close()
		return nil, err
	}
	uploadHandler := upload.NewHandlerImpl(uploadService, logger)

	productRepo := product.NewPostgresProductRepo(pool, logger)
	productService := product.NewService(productRepo, hub, analyticsService, uploadService, logger)
	productHandler := product.NewHandlerImpl(productService, logger)

	orderRepo := order.NewPostgresOrderRepo(pool, logger)
	orderService := order.NewService(orderRepo, hub, analyticsService, logger)
	orderHandler := order.NewHandlerImpl(orderService, logger)

	customerRepo := customer.NewPostgresCustomerRepo(pool, logger)
	customerService := customer.NewService(customerRepo, analyticsService, logger)
	customerHandler := customer.NewHandlerImpl(customerService, logger)

	inventoryRepo := inventory.NewPostgresInventoryRepo(pool, logger)
	inventoryService := inventory.NewService(inventoryRepo, hub, analyticsService, logger)
	inventoryHandler := inventory.NewHandlerImpl(inventoryService, logger)

	settingsRepo := settings.NewPostgresSettingsRepo(pool, logger)
	settingsService := settings.NewService(settingsRepo, analyticsService, cfg.Mode, logger)
	settingsHandler := settings.NewHandlerImpl(settingsService, logger)

	wsHandler := events.NewWSHandler(hub, logger, cfg.Frontend.URL)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		Hub:              hub,
		AuthService:      authService,
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		ProductHandler:   productHandler,
		OrderHandler:     orderHandler,
		CustomerHandler:  customerHandler,
		InventoryHandler: inventoryHandler,
		AnalyticsHandler: analyticsHandler,
		SettingsHandler:  settingsHandler,
		UploadHandler:    uploadHandler,
		WSHandler:        wsHandler,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
