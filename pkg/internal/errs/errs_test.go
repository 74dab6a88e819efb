package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestHTTPStatus 测试错误类型到状态码的映射.
func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{QuotaExceeded(1, 2, 2), http.StatusForbidden},
		{RestoreWindowClosed(30), http.StatusForbidden},
		{NotFound("file %s", "x"), http.StatusNotFound},
		{LinkExpired(), http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrap: %w", NotFound("x")), http.StatusNotFound},
	}

	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

// TestIs 测试同类型错误可用 errors.Is 比较.
func TestIs(t *testing.T) {
	err := fmt.Errorf("upload: %w", QuotaExceeded(10, 10, 5))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("expected errors.Is to match ErrQuotaExceeded")
	}

	if errors.Is(err, ErrNotFound) {
		t.Error("quota error must not match ErrNotFound")
	}

	src := errors.New("no such key")
	if !errors.Is(SourceUnavailable(src), src) {
		t.Error("wrapped cause should be reachable")
	}
}

// TestToBody 测试内部错误不泄露细节.
func TestToBody(t *testing.T) {
	b := ToBody(errors.New("dial tcp: secret host"))
	if b.Error.Code != CodeInternalError || b.Error.Message != "internal server error" {
		t.Errorf("unexpected body %+v", b)
	}

	b = ToBody(Validation("folder %q does not exist", "abc"))
	if b.Error.Code != CodeValidationError || b.Error.Message != `folder "abc" does not exist` {
		t.Errorf("unexpected body %+v", b)
	}
}
