package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/api/dto"
	"bunjang_bridge_v1/internal/service"
	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== SyncController ====================

// SyncController 手动同步触发入口（运营/调试用）
type SyncController struct {
	statusSvc    *service.StatusSyncService
	inventorySvc *service.InventoryService
	logger       *zap.Logger
}

// NewSyncController 创建同步控制器
func NewSyncController(statusSvc *service.StatusSyncService, inventorySvc *service.InventoryService, logger *zap.Logger) *SyncController {
	return &SyncController{
		statusSvc:    statusSvc,
		inventorySvc: inventorySvc,
		logger:       logger.Named("sync_ctl"),
	}
}

// ==================== Handler 实现 ====================

// SyncOrderStatuses 手动触发指定窗口的订单状态同步
func (c *SyncController) SyncOrderStatuses(ctx *gin.Context) {
	var req dto.StatusSyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "start_date 格式无效，应为 RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "end_date 格式无效，应为 RFC3339"})
		return
	}

	result, err := c.statusSvc.SyncOrderStatuses(ctx.Request.Context(), start, end, uuid.NewString())
	if err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": vErr.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// SyncInventory 手动触发单个商品的库存同步
func (c *SyncController) SyncInventory(ctx *gin.Context) {
	pid := ctx.Param("pid")
	if pid == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "缺少 pid"})
		return
	}

	ok, err := c.inventorySvc.SyncInventory(ctx.Request.Context(), pid)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "映射不存在或未关联"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "库存已同步", "pid": pid})
}

// BatchSyncInventory 手动触发一组商品的库存同步
func (c *SyncController) BatchSyncInventory(ctx *gin.Context) {
	var req dto.BatchInventorySyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result := c.inventorySvc.BatchSyncInventory(ctx.Request.Context(), req.PIDs)
	ctx.JSON(http.StatusOK, result)
}

// FullInventorySync 手动触发全量库存同步（异步执行，立即返回 jobId）
func (c *SyncController) FullInventorySync(ctx *gin.Context) {
	jobID := uuid.NewString()

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()
		if _, err := c.inventorySvc.PerformFullInventorySync(runCtx, jobID); err != nil {
			c.logger.Error("手动全量库存同步失败",
				zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	ctx.JSON(http.StatusAccepted, gin.H{"message": "全量库存同步已触发", "job_id": jobID})
}
