package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bunjang_bridge_v1/internal/bunjang"
	"bunjang_bridge_v1/internal/model"
	"bunjang_bridge_v1/internal/shopify"
	"bunjang_bridge_v1/pkg/apperrors"
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

// ==================== Shopify 网关打桩 ====================

// fakeInventory 单个商品的库存状态
type fakeInventory struct {
	variantGID string
	itemGID    string
	tracked    bool
	levels     map[string]int // locationGID -> on_hand，仓位存在即视为已激活
}

type fakeShopifyGW struct {
	// 订单状态
	orderTags       map[string][]string          // orderGID -> tags
	orderMetafields map[string]map[string]string // orderGID -> "ns.key" -> value

	// 商品状态
	productTags map[string]*shopify.ProductTags
	inventories map[string]*fakeInventory // productGID -> 库存

	// 行为开关
	metafieldReadErr error
	updateOrderErr   error
	ignoreSetOnHand  bool // 模拟最终一致性窗口：set 调用不生效

	// 调用计数
	setOnHandCalls  int
	adjustCalls     int
	trackingCalls   int
	activationCalls int
}

func newFakeShopifyGW() *fakeShopifyGW {
	return &fakeShopifyGW{
		orderTags:       make(map[string][]string),
		orderMetafields: make(map[string]map[string]string),
		productTags:     make(map[string]*shopify.ProductTags),
		inventories:     make(map[string]*fakeInventory),
	}
}

func (f *fakeShopifyGW) GetOrderMetafield(_ context.Context, orderGID, namespace, key string) (string, error) {
	if f.metafieldReadErr != nil {
		return "", f.metafieldReadErr
	}
	return f.orderMetafields[orderGID][namespace+"."+key], nil
}

func (f *fakeShopifyGW) UpdateOrder(_ context.Context, input shopify.UpdateOrderInput) error {
	if f.updateOrderErr != nil {
		return f.updateOrderErr
	}
	// tagsAdd 为集合语义，重复标签不追加
	for _, tag := range input.AddTags {
		exists := false
		for _, got := range f.orderTags[input.OrderGID] {
			if got == tag {
				exists = true
				break
			}
		}
		if !exists {
			f.orderTags[input.OrderGID] = append(f.orderTags[input.OrderGID], tag)
		}
	}
	// metafieldsSet 为同键覆盖写
	for _, mf := range input.Metafields {
		if f.orderMetafields[input.OrderGID] == nil {
			f.orderMetafields[input.OrderGID] = make(map[string]string)
		}
		f.orderMetafields[input.OrderGID][mf.Namespace+"."+mf.Key] = mf.Value
	}
	return nil
}

func (f *fakeShopifyGW) GetProductTags(_ context.Context, productGID string) (*shopify.ProductTags, error) {
	return f.productTags[productGID], nil
}

func (f *fakeShopifyGW) GetVariantInventory(_ context.Context, productGID string) (*shopify.VariantInventory, error) {
	inv, ok := f.inventories[productGID]
	if !ok {
		return nil, nil
	}
	view := &shopify.VariantInventory{
		VariantGID:       inv.variantGID,
		InventoryItemGID: inv.itemGID,
		Tracked:          inv.tracked,
	}
	for loc, qty := range inv.levels {
		view.Levels = append(view.Levels, shopify.InventoryLevel{
			LocationGID: loc,
			OnHand:      qty,
		})
	}
	return view, nil
}

func (f *fakeShopifyGW) EnableInventoryTracking(_ context.Context, inventoryItemGID string) error {
	f.trackingCalls++
	for _, inv := range f.inventories {
		if inv.itemGID == inventoryItemGID {
			inv.tracked = true
		}
	}
	return nil
}

func (f *fakeShopifyGW) ActivateInventoryAtLocation(_ context.Context, inventoryItemGID, locationGID string) error {
	f.activationCalls++
	for _, inv := range f.inventories {
		if inv.itemGID == inventoryItemGID {
			if _, ok := inv.levels[locationGID]; !ok {
				inv.levels[locationGID] = 0
			}
		}
	}
	return nil
}

func (f *fakeShopifyGW) SetOnHandQuantity(_ context.Context, inventoryItemGID, locationGID string, quantity int, _ string) error {
	f.setOnHandCalls++
	if f.ignoreSetOnHand {
		return nil
	}
	for _, inv := range f.inventories {
		if inv.itemGID == inventoryItemGID {
			inv.levels[locationGID] = quantity
		}
	}
	return nil
}

func (f *fakeShopifyGW) AdjustOnHandQuantity(_ context.Context, inventoryItemGID, locationGID string, delta int, _ string) error {
	f.adjustCalls++
	for _, inv := range f.inventories {
		if inv.itemGID == inventoryItemGID {
			inv.levels[locationGID] += delta
		}
	}
	return nil
}

func (f *fakeShopifyGW) FindOrderGIDByTag(_ context.Context, tag string) (string, error) {
	for gid, tags := range f.orderTags {
		for _, got := range tags {
			if got == tag {
				return gid, nil
			}
		}
	}
	return "", nil
}

func (f *fakeShopifyGW) hasOrderTag(orderGID, tag string) bool {
	for _, got := range f.orderTags[orderGID] {
		if got == tag {
			return true
		}
	}
	return false
}

// ==================== Bunjang 网关打桩 ====================

type fakeBunjangGW struct {
	products map[string]*bunjang.ProductDetail
	failPIDs map[string]string // pid -> 下单时返回的远端错误码

	balance     int64
	balanceErr  error
	nextOrderID int64
	created     []bunjang.CreateOrderRequest

	pages      []bunjang.OrdersPage
	getOrdersN int
}

func newFakeBunjangGW() *fakeBunjangGW {
	return &fakeBunjangGW{
		products:    make(map[string]*bunjang.ProductDetail),
		failPIDs:    make(map[string]string),
		balance:     10_000_000,
		nextOrderID: 9001,
	}
}

func (f *fakeBunjangGW) addProduct(pid string, price int64, quantity int) {
	f.products[pid] = &bunjang.ProductDetail{
		PID:      pid,
		Name:     "商品 " + pid,
		Price:    price,
		Quantity: quantity,
		Status:   "SELLING",
	}
}

func (f *fakeBunjangGW) GetProductDetails(_ context.Context, pid string) (*bunjang.ProductDetail, error) {
	return f.products[pid], nil
}

func (f *fakeBunjangGW) CreateOrderV2(_ context.Context, req bunjang.CreateOrderRequest) (*bunjang.CreateOrderResponse, error) {
	pid := strconv.FormatInt(req.Product.ID, 10)
	if code, ok := f.failPIDs[pid]; ok {
		return nil, apperrors.NewExternalServiceError("bunjang", code, "下单被拒绝", nil)
	}

	f.created = append(f.created, req)
	id := f.nextOrderID
	f.nextOrderID++
	return &bunjang.CreateOrderResponse{ID: id}, nil
}

func (f *fakeBunjangGW) GetPointBalance(_ context.Context) (*bunjang.PointBalance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &bunjang.PointBalance{Balance: f.balance}, nil
}

func (f *fakeBunjangGW) GetOrders(_ context.Context, query bunjang.OrdersQuery) (*bunjang.OrdersPage, error) {
	f.getOrdersN++
	if len(f.pages) == 0 {
		return &bunjang.OrdersPage{TotalPages: 0}, nil
	}
	if query.Page >= len(f.pages) {
		return nil, fmt.Errorf("页码越界: %d", query.Page)
	}
	page := f.pages[query.Page]
	page.TotalPages = len(f.pages)
	return &page, nil
}
