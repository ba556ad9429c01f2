package apperrors

import "fmt"

// ValidationError 表示调用方传入的数据不完整或超出允许范围。
// 此类错误直接终止当前操作并原样返回给调用方，不做重试。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ExternalServiceError 表示对外部系统（Shopify / Bunjang）的调用失败。
// Code 为远端返回的错误码（可能为空），用于上层做分类处理。
type ExternalServiceError struct {
	Service string
	Code    string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error [%s]: %s", e.Service, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError 创建外部服务错误
func NewExternalServiceError(service, code, message string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Code: code, Message: message, Err: err}
}
