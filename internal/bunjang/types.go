package bunjang

import "encoding/json"

// ==================== 商品 ====================

// ProductDetail Bunjang 商品详情
// 单件库存制：Quantity 只会是 1（在售）或 0（已售出/下架）
type ProductDetail struct {
	PID         string          `json:"pid"`
	Name        string          `json:"name"`
	CategoryID  string          `json:"categoryId"`
	BrandName   string          `json:"brandName"`
	SellerUID   string          `json:"sellerUid"`
	Condition   string          `json:"condition"` // NEW / LIKE_NEW / USED
	Price       int64           `json:"price"`     // KRW
	ShippingFee int64           `json:"shippingFee"`
	Quantity    int             `json:"quantity"`
	Status      string          `json:"status"` // SELLING / SOLD / DELETED
	Options     json.RawMessage `json:"options"`
	Images      json.RawMessage `json:"images"`
	Keywords    []string        `json:"keywords"`
	UpdatedAt   string          `json:"updatedAt"`
	CreatedAt   string          `json:"createdAt"`
}

// ==================== 下单 ====================

// CreateOrderProduct 下单商品信息，价格必须携带实时价防止价格变动
type CreateOrderProduct struct {
	ID    int64 `json:"id"`
	Price int64 `json:"price"`
}

// CreateOrderRequest v2 下单请求
// DeliveryPrice 固定传 0：运费由我方吸收，为既定业务策略
type CreateOrderRequest struct {
	Product       CreateOrderProduct `json:"product"`
	DeliveryPrice int64              `json:"deliveryPrice"`
}

// CreateOrderResponse v2 下单响应
type CreateOrderResponse struct {
	ID int64 `json:"id"`
}

// ==================== 余额 ====================

// PointBalance 账户余额
type PointBalance struct {
	Balance int64 `json:"balance"`
}

// ==================== 订单轮询 ====================

// OrdersQuery 订单变更窗口查询参数
type OrdersQuery struct {
	StatusUpdateStartDate string // yyyy-MM-dd'T'HH:mm:ss
	StatusUpdateEndDate   string
	Page                  int
	Size                  int
}

// OrderItem 订单内单个商品条目
type OrderItem struct {
	Product struct {
		PID string `json:"pid"`
	} `json:"product"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt"`
}

// Order 远端订单
type Order struct {
	OrderID    int64       `json:"id"`
	OrderItems []OrderItem `json:"orderItems"`
}

// OrdersPage 订单分页结果
type OrdersPage struct {
	Data       []Order `json:"data"`
	TotalPages int     `json:"totalPages"`
}

// ==================== 错误响应 ====================

// APIError Bunjang 开放 API 的标准错误体
type APIError struct {
	ErrorCode string `json:"errorCode"`
	Reason    string `json:"reason"`
}
