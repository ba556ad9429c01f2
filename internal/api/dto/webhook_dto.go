package dto

import (
	"strconv"

	"bunjang_bridge_v1/internal/service"
)

// ==================== Shopify Webhook 载荷 ====================

// OrderWebhook Shopify 订单 webhook（orders/create、orders/updated、orders/cancelled）
// 网关边界做显式结构化，对账引擎只消费校验后的领域对象
type OrderWebhook struct {
	ID        int64             `json:"id"`
	AdminGID  string            `json:"admin_graphql_api_id"`
	Name      string            `json:"name"`
	LineItems []WebhookLineItem `json:"line_items"`
}

// WebhookLineItem webhook 中的订单行
type WebhookLineItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
}

// ToStorefrontOrder 转换为对账引擎的领域订单
// 字段缺失不在此处拦截，由引擎的入参校验统一报 ValidationError
func (w *OrderWebhook) ToStorefrontOrder() *service.StorefrontOrder {
	order := &service.StorefrontOrder{
		GID:  w.AdminGID,
		Name: w.Name,
	}
	if w.ID != 0 {
		order.ID = strconv.FormatInt(w.ID, 10)
	}
	for _, item := range w.LineItems {
		order.LineItems = append(order.LineItems, service.OrderLineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
		})
	}
	return order
}

// ProductDeleteWebhook Shopify 商品删除 webhook（products/delete）
type ProductDeleteWebhook struct {
	ID int64 `json:"id"`
}

// ==================== 手动触发 ====================

// StatusSyncRequest 手动触发订单状态同步
type StatusSyncRequest struct {
	StartDate string `json:"start_date" binding:"required"` // RFC3339
	EndDate   string `json:"end_date" binding:"required"`
}

// BatchInventorySyncRequest 手动触发批量库存同步
type BatchInventorySyncRequest struct {
	PIDs []string `json:"pids" binding:"required,min=1"`
}
