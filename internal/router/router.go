package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/controller"
	"bunjang_bridge_v1/internal/middleware"
)

// Controllers 路由需要的控制器集合
type Controllers struct {
	Webhook *controller.WebhookController
	Sync    *controller.SyncController
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers, webhookSecret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// webhook 组：统一走 HMAC 签名校验
	webhooks := r.Group("/webhooks", middleware.ShopifyWebhookVerify(webhookSecret, logger))
	{
		webhooks.POST("/orders/create", ctls.Webhook.OrderCreated)
		webhooks.POST("/orders/updated", ctls.Webhook.OrderUpdated)
		webhooks.POST("/orders/cancelled", ctls.Webhook.OrderCancelled)
		webhooks.POST("/products/delete", ctls.Webhook.ProductDeleted)
	}

	// 手动触发组（运营/调试）
	api := r.Group("/api")
	{
		sync := api.Group("/sync")
		{
			sync.POST("/orders",
				middleware.SyncCooldown(middleware.SyncTypeOrderStatus, 0),
				ctls.Sync.SyncOrderStatuses)
			sync.POST("/inventory/full",
				middleware.SyncCooldown(middleware.SyncTypeInventoryFull, 0),
				ctls.Sync.FullInventorySync)
			sync.POST("/inventory/batch", ctls.Sync.BatchSyncInventory)
			sync.POST("/inventory/:pid", ctls.Sync.SyncInventory)
		}
	}

	return r
}
