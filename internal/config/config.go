package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 全局配置
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	Database DatabaseConfig
	Shopify  ShopifyConfig
	Bunjang  BunjangConfig
	Sync     SyncConfig
}

// DatabaseConfig Postgres 连接配置
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN 拼接 gorm Postgres 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// ShopifyConfig Shopify Admin API 配置
type ShopifyConfig struct {
	ShopDomain    string
	AccessToken   string
	APIVersion    string
	WebhookSecret string
}

// BunjangConfig Bunjang 开放 API 配置
type BunjangConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// SyncConfig 同步策略配置
type SyncConfig struct {
	// Shopify 侧代表 Bunjang 库存的虚拟仓库 Location（GID 形式）
	WarehouseLocationGID string

	// 下单后余额低于该值时在订单上打低余额警告标签（KRW）
	LowPointThreshold int64

	// 全量库存同步单批上限
	FullSyncBatchSize int

	// 全量库存同步节流间隔（每处理 2 个暂停一次）
	InventoryPacing time.Duration

	// Shopify 库存写操作的生效等待时间（追踪开关/激活均为异步生效）
	SettleDelay time.Duration

	// 订单状态轮询分页大小（Bunjang API 上限 100）
	StatusPageSize int

	// 定时触发前的防抖延迟，合并相邻触发
	DebounceDelay time.Duration

	// 是否启用 30 分钟一次的高频状态轮询
	FrequentStatusSync bool

	// 定时任务总开关
	TasksEnabled bool
}

// ==================== 加载 ====================

// Load 读取配置：.env 文件（可选）+ 环境变量，环境变量优先
func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("SHOPIFY_API_VERSION", "2024-01")

	viper.SetDefault("BUNJANG_BASE_URL", "https://openapi.bunjang.co.kr")
	viper.SetDefault("BUNJANG_TIMEOUT_SECONDS", 30)

	viper.SetDefault("SYNC_LOW_POINT_THRESHOLD", 200000)
	viper.SetDefault("SYNC_FULL_BATCH_SIZE", 500)
	viper.SetDefault("SYNC_INVENTORY_PACING_MS", 1000)
	viper.SetDefault("SYNC_SETTLE_DELAY_MS", 2000)
	viper.SetDefault("SYNC_STATUS_PAGE_SIZE", 100)
	viper.SetDefault("SYNC_DEBOUNCE_DELAY_MS", 5000)
	viper.SetDefault("SYNC_FREQUENT_STATUS_SYNC", false)
	viper.SetDefault("SYNC_TASKS_ENABLED", true)

	viper.AutomaticEnv()

	// .env 不存在不算错误，直接用环境变量
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{
		Port:        viper.GetString("PORT"),
		Environment: viper.GetString("ENVIRONMENT"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:    viper.GetString("SHOPIFY_SHOP_DOMAIN"),
			AccessToken:   viper.GetString("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:    viper.GetString("SHOPIFY_API_VERSION"),
			WebhookSecret: viper.GetString("SHOPIFY_WEBHOOK_SECRET"),
		},
		Bunjang: BunjangConfig{
			BaseURL:     viper.GetString("BUNJANG_BASE_URL"),
			AccessToken: viper.GetString("BUNJANG_ACCESS_TOKEN"),
			Timeout:     time.Duration(viper.GetInt("BUNJANG_TIMEOUT_SECONDS")) * time.Second,
		},
		Sync: SyncConfig{
			WarehouseLocationGID: viper.GetString("SYNC_WAREHOUSE_LOCATION_GID"),
			LowPointThreshold:    viper.GetInt64("SYNC_LOW_POINT_THRESHOLD"),
			FullSyncBatchSize:    viper.GetInt("SYNC_FULL_BATCH_SIZE"),
			InventoryPacing:      time.Duration(viper.GetInt("SYNC_INVENTORY_PACING_MS")) * time.Millisecond,
			SettleDelay:          time.Duration(viper.GetInt("SYNC_SETTLE_DELAY_MS")) * time.Millisecond,
			StatusPageSize:       viper.GetInt("SYNC_STATUS_PAGE_SIZE"),
			DebounceDelay:        time.Duration(viper.GetInt("SYNC_DEBOUNCE_DELAY_MS")) * time.Millisecond,
			FrequentStatusSync:   viper.GetBool("SYNC_FREQUENT_STATUS_SYNC"),
			TasksEnabled:         viper.GetBool("SYNC_TASKS_ENABLED"),
		},
	}

	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("缺少必填配置 SHOPIFY_SHOP_DOMAIN")
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, fmt.Errorf("缺少必填配置 SHOPIFY_ACCESS_TOKEN")
	}
	if cfg.Bunjang.AccessToken == "" {
		return nil, fmt.Errorf("缺少必填配置 BUNJANG_ACCESS_TOKEN")
	}
	if cfg.Sync.WarehouseLocationGID == "" {
		return nil, fmt.Errorf("缺少必填配置 SYNC_WAREHOUSE_LOCATION_GID")
	}

	return cfg, nil
}
