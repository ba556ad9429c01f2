package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bunjang_bridge_v1/internal/model"
)

// ==================== 测试辅助 ====================

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.ProductMapping{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newMapping(pid string, productID int64) *model.ProductMapping {
	m := &model.ProductMapping{
		BunjangPID:       pid,
		ShopifyProductID: productID,
		BunjangName:      "商品 " + pid,
		BunjangPrice:     50000,
		SyncStatus:       model.SyncStatusSynced,
	}
	if productID != 0 {
		m.ShopifyGID = "gid://shopify/Product/" + pid
	}
	return m
}

// ==================== CRUD ====================

func TestMappingRepo_CreateAndGet(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7001", 1001)))

	got, err := repo.GetByBunjangPID(ctx, "7001")
	require.NoError(t, err)
	assert.Equal(t, "7001", got.BunjangPID)
	assert.Equal(t, int64(1001), got.ShopifyProductID)
	assert.True(t, got.IsLinked())

	_, err = repo.GetByBunjangPID(ctx, "不存在")
	assert.True(t, IsNotFound(err))
}

func TestMappingRepo_LookupFallbacks(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7002", 1002)))

	// GID 查找
	got, err := repo.GetByShopifyGID(ctx, "gid://shopify/Product/7002")
	require.NoError(t, err)
	assert.Equal(t, "7002", got.BunjangPID)

	// 数字 ID 查找
	got, err = repo.GetByShopifyProductID(ctx, 1002)
	require.NoError(t, err)
	assert.Equal(t, "7002", got.BunjangPID)

	// 字符串形式的数字 ID
	got, err = repo.GetByShopifyProductIDString(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, "7002", got.BunjangPID)

	// 非数字字符串按未找到处理，不报解析错误
	_, err = repo.GetByShopifyProductIDString(ctx, "abc")
	assert.True(t, IsNotFound(err))
}

func TestMappingRepo_UpdateFields(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7003", 1003)))
	require.NoError(t, repo.UpdateFields(ctx, "7003", map[string]interface{}{
		"sync_status":        model.SyncStatusError,
		"sync_error_message": "下游拒绝",
	}))

	got, err := repo.GetByBunjangPID(ctx, "7003")
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusError, got.SyncStatus)
	assert.Equal(t, "下游拒绝", got.SyncErrorMessage)
}

// ==================== Upsert 幂等 ====================

func TestMappingRepo_UpsertIdempotent(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newMapping("7004", 1004)))

	// 同 PID 再次写入：覆盖而非新增
	updated := newMapping("7004", 1004)
	updated.BunjangPrice = 60000
	require.NoError(t, repo.Upsert(ctx, updated))

	_, total, err := repo.List(ctx, MappingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	got, err := repo.GetByBunjangPID(ctx, "7004")
	require.NoError(t, err)
	assert.Equal(t, int64(60000), got.BunjangPrice)
}

// ==================== 列表 ====================

func TestMappingRepo_ListBySyncStatus(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7005", 1005)))
	require.NoError(t, repo.Create(ctx, newMapping("7006", 1006)))

	errored := newMapping("7007", 1007)
	errored.SyncStatus = model.SyncStatusError
	require.NoError(t, repo.Create(ctx, errored))

	// 被过滤的映射不参与批处理
	hidden := newMapping("7008", 1008)
	hidden.IsFilteredOut = true
	require.NoError(t, repo.Create(ctx, hidden))

	list, err := repo.ListBySyncStatus(ctx, model.SyncStatusSynced, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "7005", list[0].BunjangPID)
	assert.Equal(t, "7006", list[1].BunjangPID)

	list, err = repo.ListBySyncStatus(ctx, model.SyncStatusSynced, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMappingRepo_ListFilters(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7009", 1009)))
	require.NoError(t, repo.Create(ctx, newMapping("7010", 0))) // 未挂接

	hidden := newMapping("7011", 1011)
	hidden.IsFilteredOut = true
	require.NoError(t, repo.Create(ctx, hidden))

	// 默认排除隐藏记录
	_, total, err := repo.List(ctx, MappingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 仅已挂接
	list, total, err := repo.List(ctx, MappingFilter{LinkedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "7009", list[0].BunjangPID)

	// 包含隐藏记录
	_, total, err = repo.List(ctx, MappingFilter{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// 分页
	list, total, err = repo.List(ctx, MappingFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, "7010", list[0].BunjangPID)
}

// ==================== 级联删除 ====================

func TestMappingRepo_DeleteByShopifyProductID(t *testing.T) {
	repo := NewMappingRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMapping("7012", 1012)))
	require.NoError(t, repo.DeleteByShopifyProductID(ctx, 1012))

	_, err := repo.GetByBunjangPID(ctx, "7012")
	assert.True(t, IsNotFound(err))

	// 删除不存在的商品不报错
	assert.NoError(t, repo.DeleteByShopifyProductID(ctx, 404404))
}
