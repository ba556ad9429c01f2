package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bunjang_bridge_v1/internal/model"
)

// ==================== 接口定义 ====================

// MappingRepository 商品映射仓储接口
type MappingRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, mapping *model.ProductMapping) error
	Update(ctx context.Context, mapping *model.ProductMapping) error
	UpdateFields(ctx context.Context, bunjangPID string, fields map[string]interface{}) error
	Upsert(ctx context.Context, mapping *model.ProductMapping) error

	// 查询：订单对账按 派生GID -> 数字ID -> 字符串ID 的顺序逐级回退
	GetByBunjangPID(ctx context.Context, pid string) (*model.ProductMapping, error)
	GetByShopifyGID(ctx context.Context, gid string) (*model.ProductMapping, error)
	GetByShopifyProductID(ctx context.Context, productID int64) (*model.ProductMapping, error)
	GetByShopifyProductIDString(ctx context.Context, productID string) (*model.ProductMapping, error)

	// 列表
	ListBySyncStatus(ctx context.Context, status model.MappingSyncStatus, limit int) ([]model.ProductMapping, error)
	List(ctx context.Context, filter MappingFilter) ([]model.ProductMapping, int64, error)

	// Shopify 商品删除时级联删除映射
	DeleteByShopifyProductID(ctx context.Context, productID int64) error
}

// ==================== 过滤条件 ====================

// MappingFilter 映射查询条件
type MappingFilter struct {
	SyncStatus    model.MappingSyncStatus
	LinkedOnly    bool
	IncludeHidden bool // 是否包含 IsFilteredOut 的记录
	Page          int
	PageSize      int
}

// ==================== 仓储实现 ====================

type mappingRepo struct {
	db *gorm.DB
}

// NewMappingRepository 创建映射仓储
func NewMappingRepository(db *gorm.DB) MappingRepository {
	return &mappingRepo{db: db}
}

func (r *mappingRepo) Create(ctx context.Context, mapping *model.ProductMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

func (r *mappingRepo) Update(ctx context.Context, mapping *model.ProductMapping) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

func (r *mappingRepo) UpdateFields(ctx context.Context, bunjangPID string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductMapping{}).
		Where("bunjang_pid = ?", bunjangPID).
		Updates(fields).Error
}

// Upsert 按 BunjangPID 幂等写入，并发同步任务覆盖写为可接受行为（last-write-wins）
func (r *mappingRepo) Upsert(ctx context.Context, mapping *model.ProductMapping) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bunjang_pid"}},
			UpdateAll: true,
		}).
		Create(mapping).Error
}

func (r *mappingRepo) GetByBunjangPID(ctx context.Context, pid string) (*model.ProductMapping, error) {
	var mapping model.ProductMapping
	err := r.db.WithContext(ctx).Where("bunjang_pid = ?", pid).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *mappingRepo) GetByShopifyGID(ctx context.Context, gid string) (*model.ProductMapping, error) {
	var mapping model.ProductMapping
	err := r.db.WithContext(ctx).Where("shopify_gid = ?", gid).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *mappingRepo) GetByShopifyProductID(ctx context.Context, productID int64) (*model.ProductMapping, error) {
	var mapping model.ProductMapping
	err := r.db.WithContext(ctx).Where("shopify_product_id = ?", productID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// GetByShopifyProductIDString 字符串形式商品 ID 的查找入口
// 本库商品 ID 是数字列，这一级只是解析后复用数字查找；
// 非数字输入按未找到处理，不作为错误上抛
func (r *mappingRepo) GetByShopifyProductIDString(ctx context.Context, productID string) (*model.ProductMapping, error) {
	id, err := strconv.ParseInt(productID, 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByShopifyProductID(ctx, id)
}

func (r *mappingRepo) ListBySyncStatus(ctx context.Context, status model.MappingSyncStatus, limit int) ([]model.ProductMapping, error) {
	var mappings []model.ProductMapping
	q := r.db.WithContext(ctx).
		Where("sync_status = ?", status).
		Where("is_filtered_out = ?", false).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *mappingRepo) List(ctx context.Context, filter MappingFilter) ([]model.ProductMapping, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductMapping{})

	if filter.SyncStatus != "" {
		q = q.Where("sync_status = ?", filter.SyncStatus)
	}
	if filter.LinkedOnly {
		q = q.Where("shopify_product_id <> 0")
	}
	if !filter.IncludeHidden {
		q = q.Where("is_filtered_out = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		q = q.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var mappings []model.ProductMapping
	if err := q.Order("id ASC").Find(&mappings).Error; err != nil {
		return nil, 0, err
	}
	return mappings, total, nil
}

func (r *mappingRepo) DeleteByShopifyProductID(ctx context.Context, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("shopify_product_id = ?", productID).
		Delete(&model.ProductMapping{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
