// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/gin-gonic/gin"
)

// ResponseHelper 响应助手类
//
// 所有端点返回统一的 {ok, ...} 信封，错误时为 {ok:false, error, detail?}。
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// OK 成功响应，payload会与 ok:true 合并
func (rh *ResponseHelper) OK(c *gin.Context, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail 错误响应
func (rh *ResponseHelper) Fail(c *gin.Context, statusCode int, message string, detail ...string) {
	body := gin.H{
		"ok":    false,
		"error": message,
	}
	if len(detail) > 0 && detail[0] != "" {
		body["detail"] = detail[0]
	}

	c.JSON(statusCode, body)
}

// FailFromError 根据错误类型集中映射状态码
func (rh *ResponseHelper) FailFromError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()

	var appError *apperr.AppError
	if errors.As(err, &appError) {
		// 对外只暴露错误消息，底层错误进detail
		message = appError.Message
	}

	rh.Fail(c, status, message, apperr.Detail(err))
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, detail ...string) {
	rh.Fail(c, http.StatusBadRequest, message, detail...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, detail ...string) {
	rh.Fail(c, http.StatusNotFound, message, detail...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, detail ...string) {
	rh.Fail(c, http.StatusInternalServerError, message, detail...)
}
