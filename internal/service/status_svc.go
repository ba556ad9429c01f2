package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/bunjang"
	"bunjang_bridge_v1/internal/shopify"
	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== 状态分类 ====================

// maxStatusWindow Bunjang 订单查询 API 的窗口跨度硬限制
const maxStatusWindow = 15 * 24 * time.Hour

// bunjangTimeLayout Bunjang API 的时间参数格式
const bunjangTimeLayout = "2006-01-02T15:04:05"

// 物流生命周期状态：转发给履约更新钩子
var shippingStatuses = map[string]bool{
	"SHIP_READY":         true,
	"IN_TRANSIT":         true,
	"DELIVERY_COMPLETED": true,
}

// 取消/退款/退货族状态：打标签并留给下游退款流程
var cancellationStatuses = map[string]bool{
	"CANCELED_BEFORE_SHIPPING": true,
	"REFUNDED":                 true,
	"RETURN_REQUESTED":         true,
	"RETURNED":                 true,
}

// purchaseConfirmedStatus 购买确认状态
const purchaseConfirmedStatus = "PURCHASE_CONFIRM"

// ==================== 结果结构 ====================

// StatusSyncResult 状态轮询结果
type StatusSyncResult struct {
	Success      bool `json:"success"`
	SyncedOrders int  `json:"syncedOrders"`
	Errors       int  `json:"errors"`
}

// ==================== StatusSyncService ====================

// StatusSyncService 订单状态同步引擎
// Bunjang 不推送订单生命周期 webhook，只能按窗口轮询并把状态镜像回 Shopify 订单
type StatusSyncService struct {
	shopifyGW ShopifyGateway
	bunjangGW BunjangGateway
	pageSize  int
	logger    *zap.Logger
}

// NewStatusSyncService 创建状态同步引擎
func NewStatusSyncService(shopifyGW ShopifyGateway, bunjangGW BunjangGateway, pageSize int, logger *zap.Logger) *StatusSyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &StatusSyncService{
		shopifyGW: shopifyGW,
		bunjangGW: bunjangGW,
		pageSize:  pageSize,
		logger:    logger.Named("status_sync"),
	}
}

// ==================== 主流程 ====================

// SyncOrderStatuses 轮询窗口内状态变更的远端订单并镜像到 Shopify
// 窗口跨度超过 15 天直接返回 ValidationError（远端 API 硬限制）
// 单个订单的失败计数后继续，不中断分页
func (s *StatusSyncService) SyncOrderStatuses(ctx context.Context, startDate, endDate time.Time, jobID string) (*StatusSyncResult, error) {
	if endDate.Sub(startDate) > maxStatusWindow {
		return nil, apperrors.NewValidationError("date_range",
			fmt.Sprintf("请求窗口 %s 超过 15 天上限", endDate.Sub(startDate)))
	}

	log := s.logger.With(zap.String("job_id", jobID))
	log.Info("订单状态同步开始",
		zap.Time("start", startDate),
		zap.Time("end", endDate))

	result := &StatusSyncResult{}

	page := 0
	for {
		ordersPage, err := s.bunjangGW.GetOrders(ctx, bunjang.OrdersQuery{
			StatusUpdateStartDate: startDate.Format(bunjangTimeLayout),
			StatusUpdateEndDate:   endDate.Format(bunjangTimeLayout),
			Page:                  page,
			Size:                  s.pageSize,
		})
		if err != nil {
			// 分页拉取失败无法继续，带上已完成的计数返回
			result.Success = false
			return result, fmt.Errorf("拉取订单第 %d 页失败: %w", page, err)
		}

		for i := range ordersPage.Data {
			processed, err := s.syncOne(ctx, log, &ordersPage.Data[i])
			if err != nil {
				result.Errors++
				log.Warn("单个订单状态同步失败",
					zap.Int64("bunjang_order_id", ordersPage.Data[i].OrderID),
					zap.Error(err))
				continue
			}
			if processed {
				result.SyncedOrders++
			}
		}

		page++
		if page >= ordersPage.TotalPages {
			break
		}
	}

	result.Success = result.Errors == 0
	log.Info("订单状态同步结束",
		zap.Int("synced", result.SyncedOrders),
		zap.Int("errors", result.Errors))
	return result, nil
}

// ==================== 单订单处理 ====================

// syncOne 把一个远端订单的条目状态镜像到对应的 Shopify 订单
// 找不到对应订单时告警跳过（订单可能已删除，或与下单打标存在先后竞争）
func (s *StatusSyncService) syncOne(ctx context.Context, log *zap.Logger, order *bunjang.Order) (bool, error) {
	remoteID := strconv.FormatInt(order.OrderID, 10)
	tag := OrderTagPrefix + remoteID

	orderGID, err := s.shopifyGW.FindOrderGIDByTag(ctx, tag)
	if err != nil {
		return false, err
	}
	if orderGID == "" {
		log.Warn("未找到携带远端订单标签的 Shopify 订单，跳过",
			zap.String("tag", tag))
		return false, nil
	}

	for i := range order.OrderItems {
		if err := s.applyItemStatus(ctx, log, orderGID, remoteID, &order.OrderItems[i]); err != nil {
			return false, err
		}
	}
	return true, nil
}

// applyItemStatus 按状态类别执行对应的 Shopify 侧动作
// 无论类别如何都盖上"最近同步状态/时间"metafield：同键覆盖写，
// 重复轮询同一窗口只是重写相同值，观察上幂等
func (s *StatusSyncService) applyItemStatus(ctx context.Context, log *zap.Logger, orderGID, remoteID string, item *bunjang.OrderItem) error {
	status := item.Status
	now := time.Now().UTC().Format(time.RFC3339)

	input := shopify.UpdateOrderInput{
		OrderGID: orderGID,
		Metafields: []shopify.MetafieldInput{
			{
				Namespace: MetafieldNamespace,
				Key:       MetafieldKeyLastStatus,
				Type:      "single_line_text_field",
				Value:     status,
			},
			{
				Namespace: MetafieldNamespace,
				Key:       MetafieldKeyLastSyncedAt,
				Type:      "date_time",
				Value:     now,
			},
		},
	}

	switch {
	case shippingStatuses[status]:
		s.handleFulfillmentUpdate(log, orderGID, remoteID, status)

	case status == purchaseConfirmedStatus:
		input.Metafields = append(input.Metafields,
			shopify.MetafieldInput{
				Namespace: MetafieldNamespace,
				Key:       MetafieldKeyConfirmed,
				Type:      "boolean",
				Value:     "true",
			},
			shopify.MetafieldInput{
				Namespace: MetafieldNamespace,
				Key:       MetafieldKeyConfirmedAt,
				Type:      "date_time",
				Value:     now,
			})

	case cancellationStatuses[status]:
		input.AddTags = append(input.AddTags, "Bunjang-"+status)
		log.Warn("远端订单进入取消/退款族状态，需要下游人工处理退款",
			zap.String("bunjang_order_id", remoteID),
			zap.String("status", status))

	default:
		log.Debug("未归类的远端状态，仅记录同步时间",
			zap.String("bunjang_order_id", remoteID),
			zap.String("status", status))
	}

	return s.shopifyGW.UpdateOrder(ctx, input)
}

// handleFulfillmentUpdate 履约状态转发钩子
// TODO: 对接 Shopify fulfillmentCreateV2，需要先确定履约单与远端物流的映射关系
func (s *StatusSyncService) handleFulfillmentUpdate(log *zap.Logger, orderGID, remoteID, status string) {
	log.Info("收到物流状态，履约同步待实现",
		zap.String("order_gid", orderGID),
		zap.String("bunjang_order_id", remoteID),
		zap.String("status", status))
}
