package types

import (
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/rule"
)

// TestNewFileResponse 测试只有存在预览时才返回 preview_url.
func TestNewFileResponse(t *testing.T) {
	f := &model.File{ID: "f1", Name: "a.png", Size: 3, MimeType: "image/png"}

	r := NewFileResponse(f)
	if r.PreviewURL != "" || r.DownloadURL != "/api/v1/files/f1/download" {
		t.Errorf("response = %+v", r)
	}

	key := "previews/aa/bb/f1.jpeg"
	f.PreviewKey = &key

	if r := NewFileResponse(f); r.PreviewURL != "/api/v1/files/f1/preview" {
		t.Errorf("preview url = %q", r.PreviewURL)
	}
}

// TestNewQuotaResponse 测试配额剩余量计算.
func TestNewQuotaResponse(t *testing.T) {
	if q := NewQuotaResponse(5, 0); !q.Unlimited || q.Remaining != 0 {
		t.Errorf("unlimited = %+v", q)
	}

	if q := NewQuotaResponse(12, 10); q.Remaining != 0 {
		t.Errorf("over limit = %+v", q)
	}

	if q := NewQuotaResponse(4, 10); q.Remaining != 6 {
		t.Errorf("remaining = %+v", q)
	}
}

// TestShareRequestRules 测试请求结构的校验规则.
func TestShareRequestRules(t *testing.T) {
	neg, zero, one := -1, 0, 1

	cases := []struct {
		req  ShareRequest
		fail bool
	}{
		{ShareRequest{}, false},
		{ShareRequest{TTLMinutes: &zero, MaxDownloads: &one}, false},
		{ShareRequest{TTLMinutes: &neg}, true},
		{ShareRequest{MaxDownloads: &zero}, true},
	}

	for i, tc := range cases {
		err := rule.ValidateStruct(&tc.req)
		if (err != nil) != tc.fail {
			t.Errorf("case %d: err = %v", i, err)
		}
	}

	if err := rule.ValidateStruct(&CreateFolderRequest{}); err == nil {
		t.Errorf("empty folder name accepted")
	}
}
