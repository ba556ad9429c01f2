package bunjang

import (
	"errors"

	"bunjang_bridge_v1/pkg/apperrors"
)

// ==================== 下单失败分类 ====================

// OrderFailureKind 下单失败的本地分类
// 远端错误码不稳定且语义分散，统一收敛到这组封闭变体后再做标签/告警处理
type OrderFailureKind string

const (
	FailureNotAvailable       OrderFailureKind = "NotAvailable"
	FailurePriceChanged       OrderFailureKind = "PriceChanged"
	FailureInsufficientPoints OrderFailureKind = "InsufficientPoints"
	FailureCreateFail         OrderFailureKind = "CreateFail"
	FailureUnknown            OrderFailureKind = "Unknown"
)

// failureByCode 远端错误码 -> 本地分类的封闭映射，分类逻辑只允许存在于此处
var failureByCode = map[string]OrderFailureKind{
	// 商品不可购买：已售出、已删除、状态变更
	"ITEM_SOLD_OUT":       FailureNotAvailable,
	"ITEM_DELETED":        FailureNotAvailable,
	"ITEM_NOT_AVAILABLE":  FailureNotAvailable,
	"ITEM_STATUS_CHANGED": FailureNotAvailable,

	// 下单价格与实时价不一致
	"ITEM_PRICE_CHANGED": FailurePriceChanged,
	"PRICE_MISMATCH":     FailurePriceChanged,

	// 账户余额不足，会阻塞后续所有下单，需要运营充值
	"NOT_ENOUGH_POINT":     FailureInsufficientPoints,
	"INSUFFICIENT_BALANCE": FailureInsufficientPoints,

	// 一般性下单失败
	"ORDER_CREATE_FAILED": FailureCreateFail,
	"INVALID_REQUEST":     FailureCreateFail,
}

// ClassifyOrderError 将下单错误归类
// 非外部服务错误或未知错误码一律归为 Unknown
func ClassifyOrderError(err error) OrderFailureKind {
	var extErr *apperrors.ExternalServiceError
	if !errors.As(err, &extErr) {
		return FailureUnknown
	}
	if kind, ok := failureByCode[extErr.Code]; ok {
		return kind
	}
	return FailureUnknown
}
