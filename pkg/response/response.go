// Package response 统一 HTTP 响应结构。
// 成功响应为 {"code":0,"msg":...,"data":...}，失败响应为 {"code":<HTTP 状态码>,"msg":<可公开的说明>,"detail":<错误码>}，
// 由 wyfcoding/pkg/response 负责输出；request id 通过 X-Request-ID 响应头返回。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/logger"
	wresponse "github.com/wyfcoding/pkg/response"
)

// RequestIDKey gin context 中 request id 的键
const RequestIDKey = "request_id"

// Page 嵌套在业务数据中的分页结构
type Page struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// Success 200 成功响应
func Success(c *gin.Context, data any) {
	wresponse.Success(c, data)
}

// Created 201 成功响应
func Created(c *gin.Context, data any) {
	wresponse.SuccessWithStatus(c, http.StatusCreated, "created", data)
}

// Paged 分页成功响应，total/page/size 与 data 同级
func Paged(c *gin.Context, items any, total int64, page, size int) {
	wresponse.SuccessWithPagination(c, items, total, int32(page), int32(size))
}

// Error 按错误分类返回响应，内部错误会记录日志且不暴露原始错误
func Error(c *gin.Context, err error) {
	e := apperr.From(err)
	statusCode := apperr.HTTPStatus(e)
	if statusCode >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "request_id", c.GetString(RequestIDKey), "error", err)
	}
	Abort(c, statusCode, e.Code, apperr.PublicMessage(e))
}

// BadRequest 参数绑定失败时使用
func BadRequest(c *gin.Context, err error) {
	Abort(c, http.StatusBadRequest, "invalid_argument", err.Error())
}

// Abort 写出错误响应并终止后续 handler
func Abort(c *gin.Context, status int, code, msg string) {
	wresponse.ErrorWithStatus(c, status, msg, code)
	c.Abort()
}
