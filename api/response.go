package api

import (
	"errors"
	"net/http"

	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// ServiceUnavailable 503 错误响应，客户端可稍后重试
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// Fail 按错误类型返回对应状态码
// 存储不可用返回 503，区分“没有数据”与“读不到数据”
func Fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, store.ErrDefaultCategory):
		BadRequest(c, "默认类别不可删除")
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, database.ErrStoreUnavailable):
		ServiceUnavailable(c, "数据存储暂不可用，请稍后重试")
	default:
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}
