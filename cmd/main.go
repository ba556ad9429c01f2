package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bunjang_bridge_v1/internal/bunjang"
	"bunjang_bridge_v1/internal/config"
	"bunjang_bridge_v1/internal/controller"
	"bunjang_bridge_v1/internal/model"
	"bunjang_bridge_v1/internal/repository"
	"bunjang_bridge_v1/internal/router"
	"bunjang_bridge_v1/internal/service"
	"bunjang_bridge_v1/internal/shopify"
	"bunjang_bridge_v1/internal/task"
	"bunjang_bridge_v1/pkg/database"
	"bunjang_bridge_v1/pkg/logger"
)

func main() {
	// 1. 配置与日志
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 数据库
	db := initDatabase(cfg, log)

	// 3. 依赖装配
	deps := initDependencies(cfg, db, log)

	// 4. 定时任务
	taskManager := initTasks(cfg, deps, log)
	defer taskManager.Stop()

	// 5. 路由与服务
	r := router.SetupRouter(deps.Controllers, cfg.Shopify.WebhookSecret, log)
	startServer(r, cfg.Port, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Mapping repository.MappingRepository
}

// Services 服务集合
type Services struct {
	Order     *service.OrderService
	Inventory *service.InventoryService
	Status    *service.StatusSyncService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, log *zap.Logger) *gorm.DB {
	db, err := database.InitDB(
		cfg.Database.DSN(),
		cfg.Environment == "development",
		&model.ProductMapping{},
	)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	log.Info("数据库连接成功")
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Mapping: repository.NewMappingRepository(db),
	}

	// -------- 网关层 --------
	shopifyClient := shopify.NewClient(cfg.Shopify, log)
	shopifyGW := shopify.NewGateway(shopifyClient, log)
	bunjangGW := bunjang.NewClient(cfg.Bunjang, log)

	// -------- 对账引擎 --------
	services := &Services{}
	services.Order = service.NewOrderService(
		repos.Mapping, shopifyGW, bunjangGW,
		cfg.Sync.LowPointThreshold, log,
	)
	services.Inventory = service.NewInventoryService(
		repos.Mapping, shopifyGW, bunjangGW,
		cfg.Sync.WarehouseLocationGID,
		cfg.Sync.FullSyncBatchSize,
		cfg.Sync.SettleDelay,
		cfg.Sync.InventoryPacing,
		log,
	)
	services.Status = service.NewStatusSyncService(
		shopifyGW, bunjangGW, cfg.Sync.StatusPageSize, log,
	)

	// -------- 控制器 --------
	controllers := &router.Controllers{
		Webhook: controller.NewWebhookController(services.Order, repos.Mapping, log),
		Sync:    controller.NewSyncController(services.Status, services.Inventory, log),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initTasks 启动定时任务
func initTasks(cfg *config.Config, deps *Dependencies, log *zap.Logger) *task.TaskManager {
	tm := task.NewTaskManager(
		&task.TaskManagerDeps{
			StatusService:    deps.Services.Status,
			InventoryService: deps.Services.Inventory,
		},
		&task.TaskManagerConfig{
			Enabled:            cfg.Sync.TasksEnabled,
			DebounceDelay:      cfg.Sync.DebounceDelay,
			FrequentStatusSync: cfg.Sync.FrequentStatusSync,
		},
		log,
	)
	if err := tm.Start(); err != nil {
		log.Fatal("定时任务启动失败", zap.Error(err))
	}
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务并等待退出信号
func startServer(r *gin.Engine, port string, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Info("服务启动", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务强制关闭", zap.Error(err))
	}

	log.Info("服务已退出")
}
