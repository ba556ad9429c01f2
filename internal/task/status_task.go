package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/service"
)

// ==================== StatusSyncTask 订单状态轮询任务 ====================

// StatusSyncTask 定时轮询 Bunjang 订单状态
// 调度策略：
//   - 每小时：2 小时回溯窗口
//   - 每天一次：完整的前一天窗口（补漏）
//   - 可选每 30 分钟：1 小时回溯窗口（高频开关控制）
//
// 所有触发先经过短暂防抖延迟，合并相邻触发
type StatusSyncTask struct {
	statusSvc *service.StatusSyncService
	cron      *cron.Cron
	logger    *zap.Logger

	debounce        time.Duration
	frequentEnabled bool
}

// NewStatusSyncTask 创建状态轮询任务
func NewStatusSyncTask(statusSvc *service.StatusSyncService, debounce time.Duration, frequentEnabled bool, logger *zap.Logger) *StatusSyncTask {
	return &StatusSyncTask{
		statusSvc:       statusSvc,
		cron:            cron.New(cron.WithSeconds()),
		debounce:        debounce,
		frequentEnabled: frequentEnabled,
		logger:          logger.Named("status_task"),
	}
}

// Start 注册调度并启动
func (t *StatusSyncTask) Start() error {
	// 每小时整点：2 小时回溯窗口
	if _, err := t.cron.AddFunc("0 0 * * * *", func() {
		now := time.Now()
		t.runWindow(now.Add(-2*time.Hour), now, "hourly-2h")
	}); err != nil {
		return err
	}

	// 每天 02:30：前一天完整窗口
	if _, err := t.cron.AddFunc("0 30 2 * * *", func() {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
		dayEnd := dayStart.Add(24*time.Hour - time.Second)
		t.runWindow(dayStart, dayEnd, "daily-prev-day")
	}); err != nil {
		return err
	}

	// 可选：每 30 分钟一次的高频轮询，1 小时回溯窗口
	if t.frequentEnabled {
		if _, err := t.cron.AddFunc("0 */30 * * * *", func() {
			now := time.Now()
			t.runWindow(now.Add(-time.Hour), now, "frequent-1h")
		}); err != nil {
			return err
		}
	}

	t.cron.Start()
	t.logger.Info("状态轮询任务已启动",
		zap.Bool("frequent_enabled", t.frequentEnabled))
	return nil
}

// Stop 停止任务并等待在途执行结束
func (t *StatusSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("状态轮询任务已停止")
}

// runWindow 防抖后执行一个窗口的状态同步
func (t *StatusSyncTask) runWindow(start, end time.Time, label string) {
	time.Sleep(t.debounce)

	jobID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	result, err := t.statusSvc.SyncOrderStatuses(ctx, start, end, jobID)
	if err != nil {
		t.logger.Error("状态同步执行失败",
			zap.String("label", label),
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}
	t.logger.Info("状态同步执行完成",
		zap.String("label", label),
		zap.String("job_id", jobID),
		zap.Int("synced", result.SyncedOrders),
		zap.Int("errors", result.Errors))
}
