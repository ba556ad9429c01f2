package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/model"
	"bunjang_bridge_v1/internal/repository"
)

// ==================== 测试环境 ====================

const testLocationGID = "gid://shopify/Location/9000"

type inventoryTestEnv struct {
	repo    repository.MappingRepository
	shopify *fakeShopifyGW
	bunjang *fakeBunjangGW
	svc     *InventoryService
}

func setupInventoryTest(t *testing.T) *inventoryTestEnv {
	db := setupTestDB(t)
	env := &inventoryTestEnv{
		repo:    repository.NewMappingRepository(db),
		shopify: newFakeShopifyGW(),
		bunjang: newFakeBunjangGW(),
	}
	env.svc = NewInventoryService(
		env.repo, env.shopify, env.bunjang,
		testLocationGID, 500, 0, 0, zap.NewNop(),
	)
	env.svc.sleep = func(time.Duration) {}
	return env
}

// addLinkedListing 预置一条已关联映射和对应的 Shopify 库存状态
func (env *inventoryTestEnv) addLinkedListing(t *testing.T, pid string, productID int64, tracked bool, onHand int) {
	require.NoError(t, env.repo.Create(context.Background(), &model.ProductMapping{
		BunjangPID:       pid,
		ShopifyGID:       gidOfProduct(productID),
		ShopifyProductID: productID,
		SyncStatus:       model.SyncStatusSynced,
	}))

	env.shopify.inventories[gidOfProduct(productID)] = &fakeInventory{
		variantGID: "gid://shopify/ProductVariant/" + pid,
		itemGID:    "gid://shopify/InventoryItem/" + pid,
		tracked:    tracked,
		levels:     map[string]int{testLocationGID: onHand},
	}
}

func (env *inventoryTestEnv) onHand(productID int64) int {
	return env.shopify.inventories[gidOfProduct(productID)].levels[testLocationGID]
}

// ==================== 核心不变量 ====================

// 无论同步前是什么值，成功同步后虚拟仓位在手数量必须恰为 1
func TestSyncInventory_ForcesQuantityToOne(t *testing.T) {
	cases := []struct {
		name   string
		before int
	}{
		{"从零", 0},
		{"负数", -3},
		{"超量", 5},
		{"已是一", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupInventoryTest(t)
			env.addLinkedListing(t, "8001", 201, true, tc.before)

			ok, err := env.svc.SyncInventory(context.Background(), "8001")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 1, env.onHand(201))
		})
	}
}

func TestSyncInventory_UpdatesMappingBookkeeping(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8001", 201, true, 0)

	_, err := env.svc.SyncInventory(context.Background(), "8001")
	require.NoError(t, err)

	mapping, err := env.repo.GetByBunjangPID(context.Background(), "8001")
	require.NoError(t, err)
	assert.Equal(t, 1, mapping.BunjangQuantity)
	assert.NotNil(t, mapping.LastInventorySyncAt)
}

// 追踪关闭时先开启追踪再设置数量
func TestSyncInventory_EnablesTrackingFirst(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8002", 202, false, 0)

	ok, err := env.svc.SyncInventory(context.Background(), "8002")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, env.shopify.trackingCalls)
	assert.True(t, env.shopify.inventories[gidOfProduct(202)].tracked)
	assert.Equal(t, 1, env.onHand(202))
}

// 映射不存在/未关联不是错误：调用方可能与关联流程竞争
func TestSyncInventory_MissingOrUnlinkedMapping(t *testing.T) {
	env := setupInventoryTest(t)

	ok, err := env.svc.SyncInventory(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.repo.Create(context.Background(), &model.ProductMapping{
		BunjangPID: "8003",
		SyncStatus: model.SyncStatusPending,
	}))
	ok, err = env.svc.SyncInventory(context.Background(), "8003")
	require.NoError(t, err)
	assert.False(t, ok)
}

// set 未生效时执行且仅执行一次差值修正
func TestSyncInventory_OneShotCorrection(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8004", 204, true, 5)
	env.shopify.ignoreSetOnHand = true

	ok, err := env.svc.SyncInventory(context.Background(), "8004")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, env.shopify.adjustCalls)
	assert.Equal(t, 1, env.onHand(204))
}

// ==================== 派生操作 ====================

func TestBatchSyncInventory_Tally(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8001", 201, true, 0)
	env.addLinkedListing(t, "8002", 202, true, 7)

	result := env.svc.BatchSyncInventory(context.Background(), []string{"8001", "8002", "missing"})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Failures, "missing")
	assert.Equal(t, 1, env.onHand(201))
	assert.Equal(t, 1, env.onHand(202))
}

func TestCheckAndSyncBunjangInventory(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8001", 201, true, 0)
	env.bunjang.addProduct("8001", 50000, 1)

	got, err := env.svc.CheckAndSyncBunjangInventory(context.Background(), "8001")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, env.onHand(201))

	// 远端商品取不到时返回 -1，不触碰 Shopify 库存
	got, err = env.svc.CheckAndSyncBunjangInventory(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, -1, got)
}

func TestPerformFullInventorySync(t *testing.T) {
	env := setupInventoryTest(t)
	env.addLinkedListing(t, "8001", 201, true, 0)
	env.addLinkedListing(t, "8002", 202, true, 9)
	// ERROR 状态的映射不进入全量同步
	require.NoError(t, env.repo.Create(context.Background(), &model.ProductMapping{
		BunjangPID: "8009",
		SyncStatus: model.SyncStatusError,
	}))

	result, err := env.svc.PerformFullInventorySync(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, env.onHand(201))
	assert.Equal(t, 1, env.onHand(202))
}
