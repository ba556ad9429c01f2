package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/api/dto"
	"bunjang_bridge_v1/internal/repository"
	"bunjang_bridge_v1/internal/service"
	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== WebhookController ====================

// WebhookController Shopify webhook 接收器
// 只要对账函数正常返回（即使 success=false）就回 200：
// 订单可能已经部分落签/部分下单，让事件源重试只会放大重复下单的风险
type WebhookController struct {
	orderSvc    *service.OrderService
	mappingRepo repository.MappingRepository
	logger      *zap.Logger
}

// NewWebhookController 创建 webhook 控制器
func NewWebhookController(orderSvc *service.OrderService, mappingRepo repository.MappingRepository, logger *zap.Logger) *WebhookController {
	return &WebhookController{
		orderSvc:    orderSvc,
		mappingRepo: mappingRepo,
		logger:      logger.Named("webhook"),
	}
}

// ==================== Handler 实现 ====================

// OrderCreated 处理 orders/create
func (c *WebhookController) OrderCreated(ctx *gin.Context) {
	c.reconcile(ctx)
}

// OrderUpdated 处理 orders/updated
// 幂等记录保证重复对账不会重复下单，直接复用同一流程
func (c *WebhookController) OrderUpdated(ctx *gin.Context) {
	c.reconcile(ctx)
}

// OrderCancelled 处理 orders/cancelled
// Bunjang 侧取消没有自动化通道，记录告警留给运营处理
func (c *WebhookController) OrderCancelled(ctx *gin.Context) {
	var payload dto.OrderWebhook
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "载荷解析失败"})
		return
	}

	c.logger.Warn("店面订单已取消，如已在 Bunjang 下单需人工处理取消",
		zap.Int64("order_id", payload.ID),
		zap.String("order_name", payload.Name))
	ctx.JSON(http.StatusOK, gin.H{"message": "acknowledged"})
}

// ProductDeleted 处理 products/delete：级联删除映射
func (c *WebhookController) ProductDeleted(ctx *gin.Context) {
	var payload dto.ProductDeleteWebhook
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "载荷解析失败"})
		return
	}

	if err := c.mappingRepo.DeleteByShopifyProductID(ctx.Request.Context(), payload.ID); err != nil {
		c.logger.Error("级联删除映射失败",
			zap.Int64("product_id", payload.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "映射删除失败"})
		return
	}

	c.logger.Info("商品删除，映射已级联删除", zap.Int64("product_id", payload.ID))
	ctx.JSON(http.StatusOK, gin.H{"message": "acknowledged"})
}

// reconcile 公共的订单事件处理路径
func (c *WebhookController) reconcile(ctx *gin.Context) {
	var payload dto.OrderWebhook
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "载荷解析失败"})
		return
	}

	correlationID := ctx.GetHeader("X-Shopify-Webhook-Id")
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	result, err := c.orderSvc.ReconcileOrder(ctx.Request.Context(), payload.ToStorefrontOrder(), correlationID)
	if err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			// 载荷不完整，重试也不会变完整，按客户端错误处理
			ctx.JSON(http.StatusBadRequest, gin.H{"message": vErr.Error()})
			return
		}
		c.logger.Error("订单对账异常退出",
			zap.String("correlation_id", correlationID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	// success=false 也回 200：结果已经落到订单标签上，重投无益
	ctx.JSON(http.StatusOK, result)
}
