// internal/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 定义错误类型
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindConfig     Kind = "config_error"
	KindUpstream   Kind = "upstream_error"
	KindInternal   Kind = "internal_error"
)

// AppError 应用程序错误结构
type AppError struct {
	Kind    Kind
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的 AppError
func New(kind Kind, message string, originalError error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     originalError,
		Code:    codeFor(kind),
	}
}

// NewValidation 创建验证错误
func NewValidation(message string) *AppError {
	return New(KindValidation, message, nil)
}

// NewNotFound 创建未找到错误
func NewNotFound(message string) *AppError {
	return New(KindNotFound, message, nil)
}

// NewConfig 创建配置缺失错误
func NewConfig(message string) *AppError {
	return New(KindConfig, message, nil)
}

// NewUpstream 创建外部服务错误
func NewUpstream(message string, originalError error) *AppError {
	return New(KindUpstream, message, originalError)
}

// NewInternal 创建内部错误
func NewInternal(message string, originalError error) *AppError {
	return New(KindInternal, message, originalError)
}

// KindOf 返回错误的类型，非 AppError 一律视为内部错误
func KindOf(err error) Kind {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Kind
	}
	return KindInternal
}

// IsValidation 检查是否为验证错误
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConfig 检查是否为配置错误
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}

// IsUpstream 检查是否为外部服务错误
func IsUpstream(err error) bool {
	return KindOf(err) == KindUpstream
}

// HTTPStatus 集中映射错误类型到HTTP状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConfig, KindUpstream, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Detail 返回诊断细节，仅当底层错误存在时非空
func Detail(err error) string {
	var appError *AppError
	if errors.As(err, &appError) && appError.Err != nil {
		return appError.Err.Error()
	}
	return ""
}

// codeFor 根据错误类型生成错误代码
func codeFor(kind Kind) string {
	switch kind {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConfig:
		return "CONFIG_ERROR"
	case KindUpstream:
		return "UPSTREAM_ERROR"
	case KindInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Wrap 包装现有错误；已是 AppError 时保留原类型
func Wrap(err error, message string, kind Kind) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Kind:    appError.Kind,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return New(kind, message, err)
}
