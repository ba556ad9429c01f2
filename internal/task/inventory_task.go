package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/service"
)

// ==================== InventorySyncTask 全量库存同步任务 ====================

// InventorySyncTask 定时对所有 SYNCED 映射做全量库存再断言
type InventorySyncTask struct {
	inventorySvc *service.InventoryService
	cron         *cron.Cron
	logger       *zap.Logger
}

// NewInventorySyncTask 创建全量库存同步任务
func NewInventorySyncTask(inventorySvc *service.InventoryService, logger *zap.Logger) *InventorySyncTask {
	return &InventorySyncTask{
		inventorySvc: inventorySvc,
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger.Named("inventory_task"),
	}
}

// Start 注册调度并启动（每天 04:00，错开状态轮询高峰）
func (t *InventorySyncTask) Start() error {
	if _, err := t.cron.AddFunc("0 0 4 * * *", t.runFullSync); err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("全量库存同步任务已启动")
	return nil
}

// Stop 停止任务并等待在途执行结束
func (t *InventorySyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("全量库存同步任务已停止")
}

func (t *InventorySyncTask) runFullSync() {
	jobID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	result, err := t.inventorySvc.PerformFullInventorySync(ctx, jobID)
	if err != nil {
		t.logger.Error("全量库存同步执行失败",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}
	t.logger.Info("全量库存同步执行完成",
		zap.String("job_id", jobID),
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
}
