package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ==================== 枚举 ====================

// MappingSyncStatus 商品映射的同步状态
type MappingSyncStatus string

const (
	SyncStatusSynced        MappingSyncStatus = "SYNCED"
	SyncStatusError         MappingSyncStatus = "ERROR"
	SyncStatusPending       MappingSyncStatus = "PENDING"
	SyncStatusPartialError  MappingSyncStatus = "PARTIAL_ERROR"
	SyncStatusSkippedNoDiff MappingSyncStatus = "SKIPPED_NO_CHANGE"
)

// ShopifyListingStatus Shopify 侧商品上架状态
type ShopifyListingStatus string

const (
	ShopifyStatusActive   ShopifyListingStatus = "ACTIVE"
	ShopifyStatusDraft    ShopifyListingStatus = "DRAFT"
	ShopifyStatusArchived ShopifyListingStatus = "ARCHIVED"
)

// ==================== ProductMapping ====================

// ProductMapping Bunjang 商品与 Shopify 商品的映射关系
// 每个 Bunjang PID 一条记录，PID 全局唯一且不复用；
// 关联后同一 Shopify 商品最多对应一条映射。
// 仅在 Shopify 商品被删除时级联删除，其它场景只更新不删除。
type ProductMapping struct {
	BaseModel

	// --- Bunjang 身份（唯一键，不可变） ---
	// 显式指定列名：默认命名策略会把 PID/GID 拆成 p_id/g_id
	BunjangPID string `gorm:"column:bunjang_pid;size:32;uniqueIndex;not null"`

	// --- Shopify 身份（首次关联后写入，可为空） ---
	ShopifyGID       string `gorm:"column:shopify_gid;size:128;index"` // gid://shopify/Product/xxx
	ShopifyProductID int64  `gorm:"index;default:0"`
	ShopifyHandle    string `gorm:"size:255"`

	// --- Bunjang 商品快照（最近一次同步时镜像） ---
	BunjangName        string `gorm:"size:255"`
	BunjangCategoryID  string `gorm:"size:32"`
	BunjangBrandName   string `gorm:"size:128"`
	BunjangSellerUID   string `gorm:"size:64"`
	BunjangCondition   string `gorm:"size:32"` // NEW / LIKE_NEW / USED 等
	BunjangPrice       int64  `gorm:"default:0"` // KRW，最小币值单位
	BunjangShippingFee int64  `gorm:"default:0"`
	BunjangQuantity    int    `gorm:"default:0"`

	// --- 大字段快照 (jsonb / 数组) ---
	BunjangOptions  datatypes.JSON `gorm:"type:jsonb"`
	BunjangImages   datatypes.JSON `gorm:"type:jsonb"`
	BunjangKeywords pq.StringArray `gorm:"type:text[]"`

	// --- Bunjang 侧时间戳 ---
	BunjangUpdatedAt *time.Time
	BunjangCreatedAt *time.Time

	// --- Shopify 侧状态（可为空） ---
	ShopifyStatus ShopifyListingStatus `gorm:"size:16"`

	// --- 同步簿记 ---
	LastSyncAttemptAt    *time.Time
	LastSuccessfulSyncAt *time.Time
	LastInventorySyncAt  *time.Time
	SyncStatus           MappingSyncStatus `gorm:"size:32;index;default:PENDING"`
	SyncErrorMessage     string            `gorm:"size:1024"`
	SyncErrorStackSample string            `gorm:"type:text"`
	SyncRetryCount       int               `gorm:"default:0"`

	// --- 策略字段 ---
	IsFilteredOut bool   `gorm:"default:false;index"` // 按策略排除出同步范围
	Notes         string `gorm:"type:text"`
}

func (ProductMapping) TableName() string {
	return "product_mappings"
}

// IsLinked 是否已关联 Shopify 商品
func (m *ProductMapping) IsLinked() bool {
	return m.ShopifyGID != "" || m.ShopifyProductID != 0
}
