// Package errs 定义业务错误分类，统一映射为 HTTP 状态码与 {"error": {"code", "message"}} 响应体.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误类型.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindQuotaExceeded
	KindLinkExpired
	KindRestoreWindowClosed
	KindSourceUnavailable
	KindPreviewGeneration
)

// 错误码，与响应体中的 code 字段一致.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeLinkExpired         = "LINK_EXPIRED"
	CodeRestoreWindowClosed = "RESTORE_WINDOW_CLOSED"
	CodeSourceUnavailable   = "SOURCE_UNAVAILABLE"
	CodePreviewGeneration   = "PREVIEW_GENERATION_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// String 返回错误码.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return CodeValidationError
	case KindNotFound:
		return CodeNotFound
	case KindQuotaExceeded:
		return CodeQuotaExceeded
	case KindLinkExpired:
		return CodeLinkExpired
	case KindRestoreWindowClosed:
		return CodeRestoreWindowClosed
	case KindSourceUnavailable:
		return CodeSourceUnavailable
	case KindPreviewGeneration:
		return CodePreviewGeneration
	case KindInternal:
		fallthrough
	default:
		return CodeInternalError
	}
}

// Error 携带类型的业务错误.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同类型即视为相等，使 errors.Is(err, errs.ErrNotFound) 可用.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// 哨兵错误，仅用于 errors.Is 比较.
var (
	ErrValidation          = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrQuotaExceeded       = &Error{Kind: KindQuotaExceeded, Message: "storage quota exceeded"}
	ErrLinkExpired         = &Error{Kind: KindLinkExpired, Message: "link is invalid or expired"}
	ErrRestoreWindowClosed = &Error{Kind: KindRestoreWindowClosed, Message: "restore window has closed"}
	ErrSourceUnavailable   = &Error{Kind: KindSourceUnavailable, Message: "source content unavailable"}
	ErrPreviewGeneration   = &Error{Kind: KindPreviewGeneration, Message: "preview generation failed"}
)

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Validation 构造参数校验错误.
func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

// NotFound 构造资源不存在错误，不区分不存在与无权访问.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// QuotaExceeded 构造配额不足错误.
func QuotaExceeded(used, additional, limit int64) *Error {
	return newf(KindQuotaExceeded, "storage quota exceeded: used %d + %d > limit %d", used, additional, limit)
}

// LinkExpired 构造分享链接失效错误.
func LinkExpired() *Error { return newf(KindLinkExpired, "link is invalid or expired") }

// RestoreWindowClosed 构造超出恢复期限错误.
func RestoreWindowClosed(days int) *Error {
	return newf(KindRestoreWindowClosed, "file can only be restored within %d days of deletion", days)
}

// SourceUnavailable 包装读取原件失败的错误.
func SourceUnavailable(err error) *Error {
	return &Error{Kind: KindSourceUnavailable, Message: "source content unavailable", Err: err}
}

// PreviewGeneration 包装解码或转码失败的错误.
func PreviewGeneration(err error) *Error {
	return &Error{Kind: KindPreviewGeneration, Message: "preview generation failed", Err: err}
}

// KindOf 返回错误链中第一个 *Error 的类型，非业务错误视为 KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// HTTPStatus 将错误映射为 HTTP 状态码.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindQuotaExceeded, KindRestoreWindowClosed:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindLinkExpired:
		return http.StatusGone
	case KindInternal, KindSourceUnavailable, KindPreviewGeneration:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Body 错误响应体.
type Body struct {
	Error Detail `json:"error"`
}

// Detail 错误详情.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToBody 构造响应体，内部错误不向调用方暴露细节.
func ToBody(err error) Body {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return Body{Error: Detail{Code: e.Kind.String(), Message: e.Message}}
	}

	return Body{Error: Detail{Code: CodeInternalError, Message: "internal server error"}}
}
