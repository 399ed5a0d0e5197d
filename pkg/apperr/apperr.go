// Package apperr 定义跨层使用的业务错误类型，并负责映射到 HTTP 状态码与 gRPC 错误码
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind 错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindBadRequest
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同一 Code 的错误视为相等，使 errors.Is 可以匹配包装后的哨兵错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// Wrap 基于哨兵错误包装底层原因
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

// WithMessage 基于哨兵错误替换提示信息
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// NotFound 资源不存在
func NotFound(code, msg string) *Error { return newErr(KindNotFound, code, msg) }

// Unauthorized 未认证
func Unauthorized(code, msg string) *Error { return newErr(KindUnauthorized, code, msg) }

// Forbidden 无权限
func Forbidden(code, msg string) *Error { return newErr(KindForbidden, code, msg) }

// BadRequest 参数错误
func BadRequest(code, msg string) *Error { return newErr(KindBadRequest, code, msg) }

// Conflict 资源冲突（唯一约束等）
func Conflict(code, msg string) *Error { return newErr(KindConflict, code, msg) }

// Internal 内部错误
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal server error", Err: err}
}

// From 将任意错误转换为 *Error，未知错误视为内部错误
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf 返回错误分类
func KindOf(err error) Kind {
	return From(err).Kind
}

// HTTPStatus 错误对应的 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode 错误对应的 gRPC 状态码
func GRPCCode(err error) codes.Code {
	switch KindOf(err) {
	case KindNotFound:
		return codes.NotFound
	case KindUnauthorized:
		return codes.Unauthenticated
	case KindForbidden:
		return codes.PermissionDenied
	case KindBadRequest:
		return codes.InvalidArgument
	case KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// PublicMessage 可以返回给调用方的错误信息，内部错误不暴露细节
func PublicMessage(err error) string {
	e := From(err)
	if e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Message
}

// ToGRPC 转换为 gRPC status 错误
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(GRPCCode(err), PublicMessage(err))
}
