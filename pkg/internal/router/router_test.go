package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/scheduler"
)

const alice = "alice@example.com"

type testServer struct {
	engine *gin.Engine
	svc    *service.Services
	cfg    *configs.AppConfig
}

type upload struct {
	field, filename, mimeType, content string
}

// newTestServer 使用 sqlite + 本地磁盘 + 内存 KV + gochannel 启动完整路由.
func newTestServer(t *testing.T, sched *scheduler.Scheduler, mutate func(cfg *configs.AppConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()

	cfg := configs.Default()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(dir, "fv")
	cfg.Blob.Type = configs.BlobTypeLocal
	cfg.Blob.LocalRoot = filepath.Join(dir, "blobs")
	cfg.KV.Type = configs.KVTypeMemory
	cfg.MQ.Type = configs.MQTypeGoChannel
	cfg.Auth.Enabled = true
	cfg.Upload.AllowedMimeTypes = []string{"text/plain", "image/*"}
	cfg.Upload.QuotaBytesPerUser = 0
	cfg.Preview.Enabled = false

	if mutate != nil {
		mutate(cfg)
	}

	mgr, err := storage.Init(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("storage.Init: %v", err)
	}

	t.Cleanup(func() { _ = mgr.Close() })

	svc := service.New(service.Deps{
		DB:     mgr.GetDBClient().GetDB(),
		Blobs:  mgr.GetBlobStore(),
		MQ:     mgr.GetMQClient(),
		KV:     mgr.GetKVClient(),
		Config: cfg,
		Logger: log.Nop(),
	})

	engine := New(Deps{
		Handlers:  handle.New(svc, cfg),
		Config:    cfg,
		Manager:   mgr,
		Scheduler: sched,
	})

	return &testServer{engine: engine, svc: svc, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

// as 以 alice 身份发送请求.
func (s *testServer) as(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	h := map[string]string{"X-Auth-Request-Email": alice}
	if contentType != "" {
		h["Content-Type"] = contentType
	}

	return s.do(t, method, path, body, h)
}

func (s *testServer) upload(t *testing.T, path string, files []upload, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}

	for _, f := range files {
		var (
			part io.Writer
			err  error
		)

		if f.mimeType == "" {
			part, err = mw.CreateFormFile(f.field, f.filename)
		} else {
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
			h.Set("Content-Type", f.mimeType)
			part, err = mw.CreatePart(h)
		}

		if err != nil {
			t.Fatalf("create part: %v", err)
		}

		_, _ = io.WriteString(part, f.content)
	}

	_ = mw.Close()

	return s.as(t, http.MethodPost, path, &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}

	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)

	if got := decode[errs.Body](t, w).Error.Code; got != code {
		t.Errorf("error code = %q, want %q", got, code)
	}
}

// TestAuthRequired 测试未认证请求被拒绝，跳过路径与公开路由不受影响.
func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, nil, nil)

	expectCode(t, s.do(t, http.MethodGet, "/api/v1/files", nil, nil), http.StatusUnauthorized, "UNAUTHORIZED")
	expectCode(t, s.do(t, http.MethodGet, "/api/v1/files", nil, map[string]string{"X-User": "not-an-email"}),
		http.StatusUnauthorized, "UNAUTHORIZED")
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health/db", nil, nil), http.StatusOK)
	expectCode(t, s.do(t, http.MethodGet, "/p/missing/", nil, nil), http.StatusNotFound, errs.CodeNotFound)
}

// TestFileLifecycle 测试上传、列表、下载、删除、恢复与永久删除.
func TestFileLifecycle(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.upload(t, "/api/v1/files", []upload{{field: "file", filename: "note.txt", content: "hello world"}}, nil)
	expectStatus(t, w, http.StatusCreated)

	f := decode[types.FileResponse](t, w)
	if f.Size != 11 || f.MimeType != "text/plain" || f.PreviewURL != "" || f.Folder != nil {
		t.Fatalf("upload response = %+v", f)
	}

	list := decode[[]types.FileResponse](t, s.as(t, http.MethodGet, "/api/v1/files", nil, ""))
	if len(list) != 1 || list[0].ID != f.ID {
		t.Fatalf("list = %+v", list)
	}

	w = s.as(t, http.MethodGet, f.DownloadURL, nil, "")
	expectStatus(t, w, http.StatusOK)

	if w.Body.String() != "hello world" {
		t.Errorf("download body = %q", w.Body.String())
	}

	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="note.txt"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	expectCode(t, s.as(t, http.MethodGet, "/api/v1/files/"+f.ID+"/preview", nil, ""), http.StatusNotFound, errs.CodeNotFound)

	expectStatus(t, s.as(t, http.MethodDelete, "/api/v1/files/"+f.ID, nil, ""), http.StatusNoContent)
	expectCode(t, s.as(t, http.MethodGet, "/api/v1/files/"+f.ID, nil, ""), http.StatusNotFound, errs.CodeNotFound)

	trash := decode[[]types.TrashItem](t, s.as(t, http.MethodGet, "/api/v1/trash", nil, ""))
	if len(trash) != 1 || trash[0].ID != f.ID || trash[0].DeletedAt.IsZero() {
		t.Fatalf("trash = %+v", trash)
	}

	expectStatus(t, s.as(t, http.MethodPost, "/api/v1/trash/"+f.ID+"/restore", nil, ""), http.StatusOK)
	expectStatus(t, s.as(t, http.MethodGet, "/api/v1/files/"+f.ID, nil, ""), http.StatusOK)

	// 永久删除只作用于回收站中的文件
	expectCode(t, s.as(t, http.MethodDelete, "/api/v1/trash/"+f.ID, nil, ""), http.StatusNotFound, errs.CodeNotFound)
	expectStatus(t, s.as(t, http.MethodDelete, "/api/v1/files/"+f.ID, nil, ""), http.StatusNoContent)
	expectStatus(t, s.as(t, http.MethodDelete, "/api/v1/trash/"+f.ID, nil, ""), http.StatusNoContent)

	if trash := decode[[]types.TrashItem](t, s.as(t, http.MethodGet, "/api/v1/trash", nil, "")); len(trash) != 0 {
		t.Errorf("trash after purge = %+v", trash)
	}
}

// TestUploadErrors 测试上传的参数与配额错误.
func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, nil, func(cfg *configs.AppConfig) { cfg.Upload.QuotaBytesPerUser = 5 })

	w := s.upload(t, "/api/v1/files", []upload{{field: "file", filename: "big.txt", content: "0123456789"}}, nil)
	expectCode(t, w, http.StatusForbidden, errs.CodeQuotaExceeded)

	w = s.upload(t, "/api/v1/files", []upload{{field: "file", filename: "a.bin", mimeType: "application/zip", content: "x"}}, nil)
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	w = s.upload(t, "/api/v1/files", []upload{{field: "other", filename: "a.txt", content: "x"}}, nil)
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	w = s.upload(t, "/api/v1/files", []upload{{field: "file", filename: "a.txt", content: "x"}}, map[string]string{"folder": "missing"})
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	if list := decode[[]types.FileResponse](t, s.as(t, http.MethodGet, "/api/v1/files", nil, "")); len(list) != 0 {
		t.Errorf("rejected uploads wrote files: %+v", list)
	}
}

// TestBulkUpload 测试批量上传，任一文件类型不合法时整体拒绝.
func TestBulkUpload(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.upload(t, "/api/v1/files/bulk", []upload{
		{field: "files", filename: "a.txt", content: "aaa"},
		{field: "files", filename: "b.txt", mimeType: "text/plain; charset=utf-8", content: "bb"},
	}, nil)
	expectStatus(t, w, http.StatusCreated)

	if got := decode[[]types.FileResponse](t, w); len(got) != 2 || got[1].MimeType != "text/plain" {
		t.Fatalf("bulk response = %+v", got)
	}

	w = s.upload(t, "/api/v1/files/bulk", []upload{
		{field: "files", filename: "c.txt", content: "c"},
		{field: "files", filename: "d.exe", mimeType: "application/x-msdownload", content: "d"},
	}, nil)
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	if list := decode[[]types.FileResponse](t, s.as(t, http.MethodGet, "/api/v1/files", nil, "")); len(list) != 2 {
		t.Errorf("files = %d, want 2", len(list))
	}
}

// TestBulkUploadName 测试批量上传的 name 字段作用于每一项.
func TestBulkUploadName(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.upload(t, "/api/v1/files/bulk", []upload{
		{field: "files", filename: "a.txt", content: "aaa"},
		{field: "files", filename: "b.txt", content: "bb"},
	}, map[string]string{"name": "  report.txt "})
	expectStatus(t, w, http.StatusCreated)

	got := decode[[]types.FileResponse](t, w)
	if len(got) != 2 {
		t.Fatalf("bulk response = %+v", got)
	}

	for _, f := range got {
		if f.Name != "report.txt" {
			t.Errorf("file %s name = %q, want %q", f.ID, f.Name, "report.txt")
		}
	}
}

// TestShareFlow 测试分享链接的下载次数限制.
func TestShareFlow(t *testing.T) {
	s := newTestServer(t, nil, nil)

	f := decode[types.FileResponse](t, s.upload(t, "/api/v1/files",
		[]upload{{field: "file", filename: "s.txt", content: "shared"}}, nil))

	w := s.as(t, http.MethodPost, "/api/v1/files/"+f.ID+"/share", strings.NewReader(`{"max_downloads": 1}`), "application/json")
	expectStatus(t, w, http.StatusCreated)

	share := decode[types.ShareResponse](t, w)

	u, err := url.Parse(share.URL)
	if err != nil || u.Host != "example.com" || !strings.HasPrefix(u.Path, "/p/") || share.ExpiresAt == nil {
		t.Fatalf("share = %+v (%v)", share, err)
	}

	w = s.do(t, http.MethodGet, u.Path, nil, nil)
	expectStatus(t, w, http.StatusOK)

	if w.Body.String() != "shared" {
		t.Errorf("public body = %q", w.Body.String())
	}

	expectCode(t, s.do(t, http.MethodGet, u.Path, nil, nil), http.StatusGone, errs.CodeLinkExpired)

	links := decode[[]types.LinkResponse](t, s.as(t, http.MethodGet, "/api/v1/files/"+f.ID+"/shares", nil, ""))
	if len(links) != 1 || links[0].DownloadCount != 1 || links[0].State != "exhausted" {
		t.Errorf("links = %+v", links)
	}

	w = s.as(t, http.MethodPost, "/api/v1/files/"+f.ID+"/share", strings.NewReader(`{"max_downloads": 0}`), "application/json")
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	expectCode(t, s.as(t, http.MethodPost, "/api/v1/files/missing/share", nil, ""), http.StatusNotFound, errs.CodeNotFound)
}

// TestFolders 测试目录创建、内容、移动与删除.
func TestFolders(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.as(t, http.MethodPost, "/api/v1/folders", strings.NewReader(`{"name": "docs"}`), "application/json")
	expectStatus(t, w, http.StatusCreated)

	docs := decode[types.FolderResponse](t, w)

	w = s.as(t, http.MethodPost, "/api/v1/folders", strings.NewReader(`{"name": "sub", "parent": "`+docs.ID+`"}`), "application/json")
	expectStatus(t, w, http.StatusCreated)

	sub := decode[types.FolderResponse](t, w)

	expectCode(t, s.as(t, http.MethodPost, "/api/v1/folders", strings.NewReader(`{"name": ""}`), "application/json"),
		http.StatusBadRequest, errs.CodeValidationError)

	f := decode[types.FileResponse](t, s.upload(t, "/api/v1/files",
		[]upload{{field: "file", filename: "in.txt", content: "x"}}, map[string]string{"folder": docs.ID}))
	if f.Folder == nil || *f.Folder != docs.ID {
		t.Fatalf("file folder = %v", f.Folder)
	}

	root := decode[types.FolderContentsResponse](t, s.as(t, http.MethodGet, "/api/v1/folders/root/content", nil, ""))
	if root.Folder != nil || len(root.Folders) != 1 || len(root.Files) != 0 {
		t.Errorf("root = %+v", root)
	}

	content := decode[types.FolderContentsResponse](t, s.as(t, http.MethodGet, "/api/v1/folders/"+docs.ID+"/content", nil, ""))
	if content.Folder == nil || len(content.Folders) != 1 || len(content.Files) != 1 {
		t.Errorf("docs = %+v", content)
	}

	w = s.as(t, http.MethodPost, "/api/v1/folders/"+docs.ID+"/move", strings.NewReader(`{"folder": "`+sub.ID+`"}`), "application/json")
	expectCode(t, w, http.StatusBadRequest, errs.CodeValidationError)

	w = s.as(t, http.MethodPost, "/api/v1/files/"+f.ID+"/move", strings.NewReader(`{"folder": null}`), "application/json")
	expectStatus(t, w, http.StatusOK)

	if moved := decode[types.FileResponse](t, w); moved.Folder != nil {
		t.Errorf("moved folder = %v", moved.Folder)
	}

	expectStatus(t, s.as(t, http.MethodDelete, "/api/v1/folders/"+docs.ID, nil, ""), http.StatusNoContent)
	expectCode(t, s.as(t, http.MethodGet, "/api/v1/folders/"+sub.ID+"/content", nil, ""), http.StatusNotFound, errs.CodeNotFound)
}

// TestStatsAndQuota 测试统计与配额接口.
func TestStatsAndQuota(t *testing.T) {
	s := newTestServer(t, nil, func(cfg *configs.AppConfig) { cfg.Upload.QuotaBytesPerUser = 100 })

	for _, c := range []string{"aaaa", "bbbbbb"} {
		expectStatus(t, s.upload(t, "/api/v1/files", []upload{{field: "file", filename: "x.txt", content: c}}, nil), http.StatusCreated)
	}

	counts := decode[[]service.TypeCount](t, s.as(t, http.MethodGet, "/api/v1/stats/types", nil, ""))
	if len(counts) != 1 || counts[0].MimeType != "text/plain" || counts[0].Count != 2 {
		t.Errorf("counts = %+v", counts)
	}

	if total := decode[service.TotalStorage](t, s.as(t, http.MethodGet, "/api/v1/stats/storage", nil, "")); total.TotalSize != 10 {
		t.Errorf("total = %+v", total)
	}

	sizes := decode[[]service.TypeSize](t, s.as(t, http.MethodGet, "/api/v1/stats/storage/types", nil, ""))
	if len(sizes) != 1 || sizes[0].TotalSize != 10 {
		t.Errorf("sizes = %+v", sizes)
	}

	q := decode[types.QuotaResponse](t, s.as(t, http.MethodGet, "/api/v1/quota", nil, ""))
	if q.Used != 10 || q.Limit != 100 || q.Remaining != 90 || q.Unlimited {
		t.Errorf("quota = %+v", q)
	}
}

// TestHealthRoutes 测试组件健康检查.
func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, c := range []string{"db", "blob", "kv", "mq"} {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health/"+c, nil, nil), http.StatusOK)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health/s3", nil, nil), http.StatusServiceUnavailable)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health/unknown", nil, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/health", nil, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodHead, "/api/v1/health/db", nil, nil), http.StatusOK)
}

// TestSchedulerRoutes 测试调度器接口需要管理员角色.
func TestSchedulerRoutes(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	t.Cleanup(func() { _ = sched.Stop() })
	sched.Start()

	if err := sched.AddCron(context.Background(), "noop", "0 0 1 1 *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddCron: %v", err)
	}

	s := newTestServer(t, sched, nil)
	admin := map[string]string{"X-Auth-Request-Email": alice, "X-Role": "admin"}

	expectCode(t, s.as(t, http.MethodGet, "/api/v1/scheduler/jobs", nil, ""), http.StatusForbidden, "FORBIDDEN")

	w := s.do(t, http.MethodGet, "/api/v1/scheduler/jobs", nil, admin)
	expectStatus(t, w, http.StatusOK)

	jobs := decode[map[string][]scheduler.JobInfo](t, w)["jobs"]
	if len(jobs) != 1 || jobs[0].Name != "noop" {
		t.Errorf("jobs = %+v", jobs)
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/scheduler/jobs/noop/run", nil, admin), http.StatusAccepted)
	expectCode(t, s.do(t, http.MethodPost, "/api/v1/scheduler/jobs/missing/run", nil, admin), http.StatusNotFound, errs.CodeNotFound)
	expectStatus(t, s.do(t, http.MethodDelete, "/api/v1/scheduler/jobs/noop", nil, admin), http.StatusOK)
	expectCode(t, s.do(t, http.MethodDelete, "/api/v1/scheduler/jobs/noop", nil, admin), http.StatusNotFound, errs.CodeNotFound)
}
