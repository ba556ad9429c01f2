package bunjang

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"bunjang_bridge_v1/internal/config"
	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== 客户端 ====================

// Client Bunjang 开放 API 客户端
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient 创建 Bunjang 客户端
// 设置超时和有限重试，防止网络波动；重试只针对传输层错误，不重试业务错误
func NewClient(cfg config.BunjangConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetHeader("Authorization", "Bearer "+cfg.AccessToken).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		logger: logger.Named("bunjang"),
	}
}

// apiError 把非 2xx 响应转换为带错误码的外部服务错误
func (c *Client) apiError(resp *resty.Response) error {
	var apiErr APIError
	if err := json.Unmarshal(resp.Body(), &apiErr); err != nil || apiErr.ErrorCode == "" {
		return apperrors.NewExternalServiceError("bunjang",
			fmt.Sprintf("HTTP_%d", resp.StatusCode()), string(resp.Body()), nil)
	}
	return apperrors.NewExternalServiceError("bunjang", apiErr.ErrorCode, apiErr.Reason, nil)
}

// ==================== 商品 ====================

// GetProductDetails 查询商品实时详情
// 商品不存在或已下架（404）时返回 nil 而非错误，由调用方决定后续动作
func (c *Client) GetProductDetails(ctx context.Context, pid string) (*ProductDetail, error) {
	var detail ProductDetail
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&detail).
		Get("/api/v1/products/" + pid)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("bunjang", "", "商品详情请求失败", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, c.apiError(resp)
	}
	return &detail, nil
}

// ==================== 下单 ====================

// CreateOrderV2 创建订单（v2 接口）
func (c *Client) CreateOrderV2(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	var result CreateOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/api/v2/orders")
	if err != nil {
		return nil, apperrors.NewExternalServiceError("bunjang", "", "下单请求失败", err)
	}
	if resp.IsError() {
		return nil, c.apiError(resp)
	}

	c.logger.Info("Bunjang 下单成功",
		zap.Int64("order_id", result.ID),
		zap.Int64("pid", req.Product.ID),
		zap.Int64("price", req.Product.Price))
	return &result, nil
}

// ==================== 余额 ====================

// GetPointBalance 查询账户余额
func (c *Client) GetPointBalance(ctx context.Context) (*PointBalance, error) {
	var balance PointBalance
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&balance).
		Get("/api/v1/points/balance")
	if err != nil {
		return nil, apperrors.NewExternalServiceError("bunjang", "", "余额查询失败", err)
	}
	if resp.IsError() {
		return nil, c.apiError(resp)
	}
	return &balance, nil
}

// ==================== 订单轮询 ====================

// GetOrders 按状态变更时间窗口分页查询订单
// 远端硬限制：窗口跨度不得超过 15 天，超限由上层校验拦截
func (c *Client) GetOrders(ctx context.Context, query OrdersQuery) (*OrdersPage, error) {
	var page OrdersPage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"statusUpdateStartDate": query.StatusUpdateStartDate,
			"statusUpdateEndDate":   query.StatusUpdateEndDate,
			"page":                  strconv.Itoa(query.Page),
			"size":                  strconv.Itoa(query.Size),
		}).
		SetResult(&page).
		Get("/api/v1/orders")
	if err != nil {
		return nil, apperrors.NewExternalServiceError("bunjang", "", "订单列表请求失败", err)
	}
	if resp.IsError() {
		return nil, c.apiError(resp)
	}
	return &page, nil
}
