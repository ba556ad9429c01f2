package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/model"
	"bunjang_bridge_v1/internal/repository"
)

// ==================== 结果结构 ====================

// BatchSyncResult 批量库存同步结果
type BatchSyncResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"` // pid -> 失败原因
}

// FullSyncResult 全量库存同步结果
type FullSyncResult struct {
	JobID     string `json:"jobId"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// ==================== InventoryService ====================

// InventoryService 库存对账引擎
// Bunjang 为单件库存制，关联商品在 Shopify 虚拟仓位的在手数量必须恒等于 1。
// 店面侧的"零库存/删除"信号一律不信任：单件制下瞬时库存误算很常见，
// 引擎只做再断言（重设为 1），从不因此删除映射或商品。
type InventoryService struct {
	mappingRepo repository.MappingRepository
	shopifyGW   ShopifyGateway
	bunjangGW   BunjangGateway
	locationGID string
	batchSize   int
	logger      *zap.Logger

	// 异步生效等待与节流间隔，测试中可设为 0
	settleDelay time.Duration
	pacing      time.Duration
	sleep       func(time.Duration)
}

// NewInventoryService 创建库存对账引擎
func NewInventoryService(
	mappingRepo repository.MappingRepository,
	shopifyGW ShopifyGateway,
	bunjangGW BunjangGateway,
	locationGID string,
	batchSize int,
	settleDelay, pacing time.Duration,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		mappingRepo: mappingRepo,
		shopifyGW:   shopifyGW,
		bunjangGW:   bunjangGW,
		locationGID: locationGID,
		batchSize:   batchSize,
		settleDelay: settleDelay,
		pacing:      pacing,
		sleep:       time.Sleep,
		logger:      logger.Named("inventory_reconcile"),
	}
}

// ==================== 核心原语 ====================

// SyncInventory 将映射商品在虚拟仓位的在手数量强制为 1
// 映射不存在/未关联不是错误（调用方可能与未完成的关联竞争），直接返回 false
// 远端读写失败向调用方传播，由调用方决定重试策略
func (s *InventoryService) SyncInventory(ctx context.Context, pid string) (bool, error) {
	log := s.logger.With(zap.String("bunjang_pid", pid))

	// -------- 1. 解析映射 --------
	mapping, err := s.mappingRepo.GetByBunjangPID(ctx, pid)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Info("映射不存在，跳过库存同步")
			return false, nil
		}
		return false, err
	}
	if !mapping.IsLinked() {
		log.Info("映射尚未关联 Shopify 商品，跳过库存同步")
		return false, nil
	}

	gid := mapping.ShopifyGID
	if gid == "" {
		gid = fmt.Sprintf("gid://shopify/Product/%d", mapping.ShopifyProductID)
	}

	// -------- 2. 读取当前库存视图 --------
	inv, err := s.shopifyGW.GetVariantInventory(ctx, gid)
	if err != nil {
		return false, err
	}
	if inv == nil {
		return false, fmt.Errorf("shopify 商品 %s 没有可用变体", gid)
	}

	if onHand, ok := inv.OnHandAt(s.locationGID); ok {
		log.Info("同步前库存", zap.Int("on_hand", onHand))
	} else {
		log.Info("虚拟仓位尚未激活")
	}

	// -------- 3. 追踪开关（设置库存的前置条件，后端异步生效）--------
	if !inv.Tracked {
		if err := s.shopifyGW.EnableInventoryTracking(ctx, inv.InventoryItemGID); err != nil {
			return false, err
		}
		s.sleep(s.settleDelay)
	}

	// -------- 4. 仓位激活（幂等，后端异步生效）--------
	if err := s.shopifyGW.ActivateInventoryAtLocation(ctx, inv.InventoryItemGID, s.locationGID); err != nil {
		return false, err
	}
	s.sleep(s.settleDelay)

	// -------- 5. 设置在手数量为 1 --------
	if err := s.shopifyGW.SetOnHandQuantity(ctx, inv.InventoryItemGID, s.locationGID, 1, "correction"); err != nil {
		return false, err
	}

	// -------- 6. 回读校验 + 一次性兜底修正 --------
	// 针对 Shopify 后端的最终一致性窗口，只修正一次，不做重试循环
	s.sleep(s.settleDelay)
	s.verifyAndCorrect(ctx, log, gid)

	// -------- 7. 更新映射簿记 --------
	now := time.Now()
	err = s.mappingRepo.UpdateFields(ctx, pid, map[string]interface{}{
		"bunjang_quantity":       1,
		"last_inventory_sync_at": &now,
	})
	if err != nil {
		log.Warn("映射簿记更新失败", zap.Error(err))
	}

	log.Info("库存同步完成")
	return true, nil
}

// verifyAndCorrect 回读仓位库存，不为 1 时做一次差值修正
func (s *InventoryService) verifyAndCorrect(ctx context.Context, log *zap.Logger, gid string) {
	inv, err := s.shopifyGW.GetVariantInventory(ctx, gid)
	if err != nil || inv == nil {
		log.Warn("回读库存失败，跳过兜底修正", zap.Error(err))
		return
	}

	onHand, ok := inv.OnHandAt(s.locationGID)
	if ok && onHand == 1 {
		return
	}

	log.Warn("回读库存与期望不一致，执行一次修正",
		zap.Int("on_hand", onHand),
		zap.Bool("activated", ok))
	if err := s.shopifyGW.AdjustOnHandQuantity(ctx, inv.InventoryItemGID, s.locationGID, 1-onHand, "correction"); err != nil {
		log.Warn("兜底修正失败", zap.Error(err))
	}
}

// ==================== 派生操作 ====================

// BatchSyncInventory 对一组 PID 逐个执行库存同步，单个失败不中断批次
func (s *InventoryService) BatchSyncInventory(ctx context.Context, pids []string) *BatchSyncResult {
	result := &BatchSyncResult{
		Total:    len(pids),
		Failures: make(map[string]string),
	}

	for _, pid := range pids {
		ok, err := s.SyncInventory(ctx, pid)
		switch {
		case err != nil:
			result.Failed++
			result.Failures[pid] = err.Error()
			s.logger.Warn("批量库存同步单项失败",
				zap.String("bunjang_pid", pid), zap.Error(err))
		case ok:
			result.Succeeded++
		default:
			// 映射不存在视为失败项计数，便于运营发现脏数据
			result.Failed++
			result.Failures[pid] = "mapping not found or unlinked"
		}
	}
	return result
}

// CheckAndSyncBunjangInventory 先做远端存在性检查，再强制库存为 1
// 返回 1 表示成功；远端商品取不到时返回 -1
func (s *InventoryService) CheckAndSyncBunjangInventory(ctx context.Context, pid string) (int, error) {
	detail, err := s.bunjangGW.GetProductDetails(ctx, pid)
	if err != nil || detail == nil {
		if err != nil {
			s.logger.Warn("远端商品详情获取失败",
				zap.String("bunjang_pid", pid), zap.Error(err))
		}
		return -1, nil
	}

	if _, err := s.SyncInventory(ctx, pid); err != nil {
		return -1, err
	}
	return 1, nil
}

// PerformFullInventorySync 对所有 SYNCED 状态的映射做一轮全量库存同步
// 每处理 2 个暂停一次，尊重远端限流
func (s *InventoryService) PerformFullInventorySync(ctx context.Context, jobID string) (*FullSyncResult, error) {
	log := s.logger.With(zap.String("job_id", jobID))

	mappings, err := s.mappingRepo.ListBySyncStatus(ctx, model.SyncStatusSynced, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("加载待同步映射失败: %w", err)
	}

	result := &FullSyncResult{JobID: jobID, Total: len(mappings)}
	log.Info("全量库存同步开始", zap.Int("total", result.Total))

	for i := range mappings {
		ok, err := s.SyncInventory(ctx, mappings[i].BunjangPID)
		if err != nil || !ok {
			result.Failed++
			if err != nil {
				log.Warn("全量同步单项失败",
					zap.String("bunjang_pid", mappings[i].BunjangPID), zap.Error(err))
			}
		} else {
			result.Succeeded++
		}

		if (i+1)%2 == 0 {
			s.sleep(s.pacing)
		}
	}

	log.Info("全量库存同步结束",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}
