package service

import (
	"context"

	"bunjang_bridge_v1/internal/bunjang"
	"bunjang_bridge_v1/internal/shopify"
)

// ==================== 协作方接口 ====================

// ShopifyGateway 对账引擎依赖的 Shopify 操作集合
type ShopifyGateway interface {
	GetOrderMetafield(ctx context.Context, orderGID, namespace, key string) (string, error)
	UpdateOrder(ctx context.Context, input shopify.UpdateOrderInput) error
	GetProductTags(ctx context.Context, productGID string) (*shopify.ProductTags, error)
	GetVariantInventory(ctx context.Context, productGID string) (*shopify.VariantInventory, error)
	EnableInventoryTracking(ctx context.Context, inventoryItemGID string) error
	ActivateInventoryAtLocation(ctx context.Context, inventoryItemGID, locationGID string) error
	SetOnHandQuantity(ctx context.Context, inventoryItemGID, locationGID string, quantity int, reason string) error
	AdjustOnHandQuantity(ctx context.Context, inventoryItemGID, locationGID string, delta int, reason string) error
	FindOrderGIDByTag(ctx context.Context, tag string) (string, error)
}

// BunjangGateway 对账引擎依赖的 Bunjang 操作集合
type BunjangGateway interface {
	GetProductDetails(ctx context.Context, pid string) (*bunjang.ProductDetail, error)
	CreateOrderV2(ctx context.Context, req bunjang.CreateOrderRequest) (*bunjang.CreateOrderResponse, error)
	GetPointBalance(ctx context.Context) (*bunjang.PointBalance, error)
	GetOrders(ctx context.Context, query bunjang.OrdersQuery) (*bunjang.OrdersPage, error)
}

// ==================== 领域常量 ====================

const (
	// OrderTagPrefix 已下单订单的标识标签前缀：BunjangOrder-<远端订单ID>
	OrderTagPrefix = "BunjangOrder-"

	// OrderErrorTag 订单对账存在失败条目时的汇总标签
	OrderErrorTag = "BunjangOrder_Error"

	// OrderPlacedTag 至少成功下出一单时的汇总标签
	OrderPlacedTag = "BunjangOrder_Placed"

	// LowBalanceTag 账户余额低于阈值时的警告标签
	LowBalanceTag = "Bunjang_LowPointBalance"

	// AutoLinkTagPrefix Shopify 商品标签中携带的自动关联标记：bunjang_pid:<id>
	AutoLinkTagPrefix = "bunjang_pid:"

	// MetafieldNamespace 本系统在 Shopify 订单上使用的 metafield 命名空间
	MetafieldNamespace = "bunjang"

	// MetafieldKeyOrderIDs 幂等记录：已创建的远端订单 ID 列表
	MetafieldKeyOrderIDs = "order_ids"

	// MetafieldKeyConfirmed / MetafieldKeyConfirmedAt 购买确认状态
	MetafieldKeyConfirmed   = "purchase_confirmed"
	MetafieldKeyConfirmedAt = "purchase_confirmed_at"

	// MetafieldKeyLastStatus / MetafieldKeyLastSyncedAt 最近一次状态同步记录
	MetafieldKeyLastStatus   = "last_synced_status"
	MetafieldKeyLastSyncedAt = "last_synced_at"
)
