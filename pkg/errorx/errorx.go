// Package errorx 业务错误码与带码错误
// Service/Repository 层返回 *CodeError，Handler 层和 websocket 网关据此决定响应
package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// 业务状态码
const (
	CodeSuccess      = 1000 // 成功
	CodeInvalidParam = 1001 // 请求参数错误
	CodeUserExist    = 1002 // 用户已存在
	CodeServerBusy   = 1005 // 服务繁忙
	CodeUnauthorized = 1006 // 未授权/认证失败
	CodeForbidden    = 1007 // 无权操作该资源
	CodeNotFound     = 1008 // 资源不存在
	CodeConflict     = 1009 // 唯一约束冲突
	CodeDBError      = 1010 // 数据库错误
	CodeCacheError   = 1011 // 缓存错误
)

// CodeError 带业务码的错误，cause 只用于日志，不会返回给客户端
type CodeError struct {
	Code  int
	Msg   string
	cause error
}

func (e *CodeError) Error() string {
	if e.cause == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.cause.Error()
}

// Unwrap 让 errors.Is/As 能追溯到底层错误
func (e *CodeError) Unwrap() error { return e.cause }

// New 创建 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// Newf 格式化消息
func Newf(code int, format string, args ...any) *CodeError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 给底层错误附加业务码，用法: errorx.Wrap(err, CodeNotFound, "message not found")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg, cause: err}
}

// Wrapf 同 Wrap，支持格式化消息
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// 常用错误实例，可直接返回
var (
	ErrInvalidParam = New(CodeInvalidParam, "请求参数错误")
	ErrServerBusy   = New(CodeServerBusy, "服务繁忙")
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")
)

// As 取出错误链上的 CodeError
func As(err error) (*CodeError, bool) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetCode 不是 CodeError 时按服务繁忙处理
func GetCode(err error) int {
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return CodeServerBusy
}

// Message 对外展示的错误消息，不暴露底层 cause
func Message(err error) string {
	if ce, ok := As(err); ok {
		return ce.Msg
	}
	return ErrServerBusy.Msg
}

// IsNotFound 资源不存在
func IsNotFound(err error) bool {
	return err != nil && GetCode(err) == CodeNotFound
}

// HTTPStatus 业务码到 HTTP 状态码的映射
func HTTPStatus(code int) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUserExist, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
