package task

import (
	"time"

	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理定时同步任务的生命周期
// 调度注册全部收敛在这里，不允许包加载期的全局副作用
type TaskManager struct {
	statusTask    *StatusSyncTask
	inventoryTask *InventorySyncTask
	logger        *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	StatusService    *service.StatusSyncService
	InventoryService *service.InventoryService
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	Enabled            bool
	DebounceDelay      time.Duration
	FrequentStatusSync bool
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	tm := &TaskManager{logger: logger.Named("task_manager")}

	if !cfg.Enabled {
		return tm
	}

	if deps.StatusService != nil {
		tm.statusTask = NewStatusSyncTask(deps.StatusService, cfg.DebounceDelay, cfg.FrequentStatusSync, logger)
	}
	if deps.InventoryService != nil {
		tm.inventoryTask = NewInventorySyncTask(deps.InventoryService, logger)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.logger.Info("正在启动同步任务...")

	if tm.statusTask != nil {
		if err := tm.statusTask.Start(); err != nil {
			return err
		}
	}
	if tm.inventoryTask != nil {
		if err := tm.inventoryTask.Start(); err != nil {
			return err
		}
	}

	tm.logger.Info("同步任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info("正在停止同步任务...")

	if tm.statusTask != nil {
		tm.statusTask.Stop()
	}
	if tm.inventoryTask != nil {
		tm.inventoryTask.Stop()
	}

	tm.logger.Info("同步任务已全部停止")
}
