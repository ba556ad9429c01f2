package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/bunjang"
	"bunjang_bridge_v1/internal/model"
	"bunjang_bridge_v1/internal/repository"
	"bunjang_bridge_v1/internal/shopify"
	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== 输入/输出 ====================

// OrderLineItem 订单行条目
type OrderLineItem struct {
	ProductGID string // gid://shopify/Product/xxx，可为空（由 ProductID 派生）
	ProductID  int64
	Title      string
	Quantity   int
}

// StorefrontOrder webhook 校验后传入的店面订单
type StorefrontOrder struct {
	ID        string // Shopify 数字订单 ID
	GID       string // gid://shopify/Order/xxx
	Name      string // 面向买家的订单号，仅用于日志
	LineItems []OrderLineItem
}

// ReconcileResult 订单对账结果
// 预期内的单条目失败不会以 error 形式抛出，整体结果用 Success 表达
type ReconcileResult struct {
	Success          bool     `json:"success"`
	BunjangOrderIDs  []string `json:"bunjangOrderIds,omitempty"`
	AlreadyProcessed bool     `json:"alreadyProcessed,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// orderIDsRecord 幂等记录的 metafield JSON 结构
type orderIDsRecord struct {
	OrderIDs  []string `json:"orderIds"`
	CreatedAt string   `json:"createdAt"`
}

// ==================== OrderService ====================

// OrderService 订单对账引擎
// 一个 Shopify 订单事件 -> 零或多个 Bunjang 下单，严格幂等、条目级失败隔离
type OrderService struct {
	mappingRepo       repository.MappingRepository
	shopifyGW         ShopifyGateway
	bunjangGW         BunjangGateway
	lowPointThreshold int64
	logger            *zap.Logger
}

// NewOrderService 创建订单对账引擎
func NewOrderService(
	mappingRepo repository.MappingRepository,
	shopifyGW ShopifyGateway,
	bunjangGW BunjangGateway,
	lowPointThreshold int64,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		mappingRepo:       mappingRepo,
		shopifyGW:         shopifyGW,
		bunjangGW:         bunjangGW,
		lowPointThreshold: lowPointThreshold,
		logger:            logger.Named("order_reconcile"),
	}
}

// ==================== 主流程 ====================

// ReconcileOrder 对账一个店面订单事件
// 仅入参校验失败返回 error；其余预期内失败均收敛到 ReconcileResult
func (s *OrderService) ReconcileOrder(ctx context.Context, order *StorefrontOrder, correlationID string) (*ReconcileResult, error) {
	// -------- 1. 入参校验 --------
	if order == nil || order.ID == "" {
		return nil, apperrors.NewValidationError("id", "订单 ID 不能为空")
	}
	if order.GID == "" {
		return nil, apperrors.NewValidationError("admin_graphql_api_id", "订单全局标识不能为空")
	}
	if len(order.LineItems) == 0 {
		return nil, apperrors.NewValidationError("line_items", "订单行不能为空")
	}

	log := s.logger.With(
		zap.String("order_id", order.ID),
		zap.String("correlation_id", correlationID),
	)

	// -------- 2. 幂等检查（fail-open）--------
	// metafield 读取失败只记日志不中断：漏掉一笔新订单比偶发重复更不可接受
	if record, err := s.readOrderIDsRecord(ctx, order.GID); err != nil {
		log.Warn("幂等检查读取失败，继续处理", zap.Error(err))
	} else if record != nil && len(record.OrderIDs) > 0 {
		log.Info("订单已处理过，跳过", zap.Strings("bunjang_order_ids", record.OrderIDs))
		return &ReconcileResult{
			Success:          true,
			AlreadyProcessed: true,
			BunjangOrderIDs:  record.OrderIDs,
		}, nil
	}

	// -------- 3. 逐条目处理 --------
	// 条目串行处理：保持日志可关联，同时对远端形成天然限流
	var (
		createdIDs []string
		hadFailure bool
	)

	for i := range order.LineItems {
		item := &order.LineItems[i]
		id, ok := s.reconcileLineItem(ctx, log, order, item)
		if !ok {
			hadFailure = true
			continue
		}
		if id != "" {
			createdIDs = append(createdIDs, id)
		}
	}

	// -------- 4. 收尾：幂等记录 + 汇总标签 --------
	if hadFailure {
		s.addOrderTags(ctx, log, order.GID, []string{OrderErrorTag})
	}

	if len(createdIDs) == 0 {
		msg := "没有任何订单行产生 Bunjang 订单"
		log.Info(msg, zap.Bool("had_failure", hadFailure))
		return &ReconcileResult{Success: false, Message: msg}, nil
	}

	s.persistOrderIDsRecord(ctx, log, order.GID, createdIDs)

	log.Info("订单对账完成",
		zap.Strings("bunjang_order_ids", createdIDs),
		zap.Bool("had_failure", hadFailure))
	return &ReconcileResult{
		Success:         true,
		BunjangOrderIDs: createdIDs,
		Message:         fmt.Sprintf("已创建 %d 笔 Bunjang 订单", len(createdIDs)),
	}, nil
}

// ==================== 单条目处理 ====================

// reconcileLineItem 处理单个订单行
// 返回 (远端订单ID, 是否未发生失败)；条目未映射属于正常跳过，不算失败
func (s *OrderService) reconcileLineItem(ctx context.Context, log *zap.Logger, order *StorefrontOrder, item *OrderLineItem) (string, bool) {
	itemLog := log.With(zap.Int64("product_id", item.ProductID))

	// -------- 3.1 解析映射 --------
	mapping := s.resolveMapping(ctx, itemLog, item)
	if mapping == nil {
		// 未映射且无自动关联标签：该商品未在 Bunjang 侧上架，正常跳过
		itemLog.Debug("条目无映射，跳过")
		return "", true
	}
	pid := mapping.BunjangPID
	itemLog = itemLog.With(zap.String("bunjang_pid", pid))

	// -------- 3.2 实时详情 --------
	detail, err := s.bunjangGW.GetProductDetails(ctx, pid)
	if err != nil || detail == nil {
		if err != nil {
			itemLog.Warn("商品详情获取失败", zap.Error(err))
		} else {
			itemLog.Warn("商品在 Bunjang 侧已不存在")
		}
		s.addOrderTags(ctx, itemLog, order.GID, []string{pid + "-NotFound"})
		return "", false
	}

	// -------- 3.3 库存校验 --------
	if detail.Quantity < item.Quantity {
		itemLog.Warn("库存不足",
			zap.Int("available", detail.Quantity),
			zap.Int("ordered", item.Quantity))
		s.addOrderTags(ctx, itemLog, order.GID, []string{pid + "-InsufficientStock"})
		return "", false
	}

	// -------- 3.4 下单 --------
	// 价格取实时价；运费固定为 0（运费吸收为既定业务策略，与商品实际运费无关）
	pidNum, err := strconv.ParseInt(pid, 10, 64)
	if err != nil {
		itemLog.Error("PID 非数字，无法下单", zap.Error(err))
		s.addOrderTags(ctx, itemLog, order.GID, []string{pid + "-" + string(bunjang.FailureCreateFail)})
		return "", false
	}

	resp, err := s.bunjangGW.CreateOrderV2(ctx, bunjang.CreateOrderRequest{
		Product:       bunjang.CreateOrderProduct{ID: pidNum, Price: detail.Price},
		DeliveryPrice: 0,
	})
	if err != nil {
		kind := bunjang.ClassifyOrderError(err)
		if kind == bunjang.FailureInsufficientPoints {
			// 余额不足会阻塞后续所有下单，升级日志级别作为运营告警
			itemLog.Error("Bunjang 余额不足，后续下单将全部失败", zap.Error(err))
		} else {
			itemLog.Warn("Bunjang 下单失败", zap.String("kind", string(kind)), zap.Error(err))
		}
		s.addOrderTags(ctx, itemLog, order.GID, []string{pid + "-" + string(kind)})
		return "", false
	}

	remoteID := strconv.FormatInt(resp.ID, 10)
	s.addOrderTags(ctx, itemLog, order.GID, []string{OrderTagPrefix + remoteID})
	itemLog.Info("Bunjang 下单成功", zap.String("bunjang_order_id", remoteID))

	// -------- 3.5 余额检查（尽力而为）--------
	s.checkPointBalance(ctx, itemLog, order.GID)

	return remoteID, true
}

// resolveMapping 按 派生GID -> 数字ID -> 字符串ID 的顺序查映射，未命中则尝试自动关联
func (s *OrderService) resolveMapping(ctx context.Context, log *zap.Logger, item *OrderLineItem) *model.ProductMapping {
	gid := item.ProductGID
	if gid == "" && item.ProductID != 0 {
		gid = fmt.Sprintf("gid://shopify/Product/%d", item.ProductID)
	}

	if gid != "" {
		if m, err := s.mappingRepo.GetByShopifyGID(ctx, gid); err == nil {
			return m
		} else if !repository.IsNotFound(err) {
			log.Warn("按 GID 查映射失败", zap.Error(err))
		}
	}
	if item.ProductID != 0 {
		if m, err := s.mappingRepo.GetByShopifyProductID(ctx, item.ProductID); err == nil {
			return m
		} else if !repository.IsNotFound(err) {
			log.Warn("按数字 ID 查映射失败", zap.Error(err))
		}
		if m, err := s.mappingRepo.GetByShopifyProductIDString(ctx, strconv.FormatInt(item.ProductID, 10)); err == nil {
			return m
		}
	}

	return s.autoLink(ctx, log, item, gid)
}

// autoLink 读取商品标签，发现 bunjang_pid:<id> 标记时现场建立映射
func (s *OrderService) autoLink(ctx context.Context, log *zap.Logger, item *OrderLineItem, gid string) *model.ProductMapping {
	if gid == "" {
		return nil
	}

	tags, err := s.shopifyGW.GetProductTags(ctx, gid)
	if err != nil {
		log.Warn("读取商品标签失败，无法自动关联", zap.Error(err))
		return nil
	}
	if tags == nil {
		return nil
	}

	var pid string
	for _, tag := range tags.Tags {
		if len(tag) > len(AutoLinkTagPrefix) && tag[:len(AutoLinkTagPrefix)] == AutoLinkTagPrefix {
			pid = tag[len(AutoLinkTagPrefix):]
			break
		}
	}
	if pid == "" {
		return nil
	}

	now := time.Now()
	mapping := &model.ProductMapping{
		BunjangPID:           pid,
		ShopifyGID:           gid,
		ShopifyProductID:     item.ProductID,
		ShopifyHandle:        tags.Handle,
		SyncStatus:           model.SyncStatusSynced,
		LastSyncAttemptAt:    &now,
		LastSuccessfulSyncAt: &now,
	}
	if err := s.mappingRepo.Upsert(ctx, mapping); err != nil {
		log.Warn("自动关联映射写入失败", zap.String("bunjang_pid", pid), zap.Error(err))
		return nil
	}

	log.Info("订单事件触发自动关联", zap.String("bunjang_pid", pid))
	return mapping
}

// ==================== 辅助 ====================

// readOrderIDsRecord 读取幂等记录，metafield 不存在时返回 nil
func (s *OrderService) readOrderIDsRecord(ctx context.Context, orderGID string) (*orderIDsRecord, error) {
	value, err := s.shopifyGW.GetOrderMetafield(ctx, orderGID, MetafieldNamespace, MetafieldKeyOrderIDs)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}

	var record orderIDsRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return nil, fmt.Errorf("幂等记录解析失败: %w", err)
	}
	return &record, nil
}

// persistOrderIDsRecord 持久化幂等记录并打汇总标签
// 写入失败只记日志：订单/标签已经落到双方系统，此处不再回滚
func (s *OrderService) persistOrderIDsRecord(ctx context.Context, log *zap.Logger, orderGID string, ids []string) {
	record := orderIDsRecord{
		OrderIDs:  ids,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	value, _ := json.Marshal(record)

	err := s.shopifyGW.UpdateOrder(ctx, shopify.UpdateOrderInput{
		OrderGID: orderGID,
		AddTags:  []string{OrderPlacedTag},
		Metafields: []shopify.MetafieldInput{
			{
				Namespace: MetafieldNamespace,
				Key:       MetafieldKeyOrderIDs,
				Type:      "json",
				Value:     string(value),
			},
		},
	})
	if err != nil {
		log.Error("幂等记录写入失败，重复投递可能造成重复下单", zap.Error(err))
	}
}

// addOrderTags 给订单追加标签，失败只记日志不向上传播
func (s *OrderService) addOrderTags(ctx context.Context, log *zap.Logger, orderGID string, tags []string) {
	err := s.shopifyGW.UpdateOrder(ctx, shopify.UpdateOrderInput{
		OrderGID: orderGID,
		AddTags:  tags,
	})
	if err != nil {
		log.Warn("订单打标签失败", zap.Strings("tags", tags), zap.Error(err))
	}
}

// checkPointBalance 下单后顺带检查账户余额，低于阈值时打警告标签（尽力而为）
func (s *OrderService) checkPointBalance(ctx context.Context, log *zap.Logger, orderGID string) {
	balance, err := s.bunjangGW.GetPointBalance(ctx)
	if err != nil {
		log.Warn("余额查询失败", zap.Error(err))
		return
	}
	if balance.Balance < s.lowPointThreshold {
		log.Warn("账户余额低于阈值",
			zap.Int64("balance", balance.Balance),
			zap.Int64("threshold", s.lowPointThreshold))
		s.addOrderTags(ctx, log, orderGID, []string{LowBalanceTag})
	}
}
