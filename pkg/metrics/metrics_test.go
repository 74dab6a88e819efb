package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
)

// TestStartMetricsServer 测试指标端点输出业务指标与常量标签.
func TestStartMetricsServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{
		Enabled:         true,
		Endpoint:        "/metrics",
		CollectInterval: time.Second,
		Labels:          map[string]string{"service": "filevault"},
	}

	if err := InitMetrics(cfg); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}

	// 重复初始化不报错
	if err := InitMetrics(cfg); err != nil {
		t.Fatalf("second InitMetrics: %v", err)
	}

	QuotaDenied.Inc()
	PreviewJobs.WithLabelValues(ResultGenerated).Inc()

	engine := gin.New()
	if err := StartMetricsServer(cfg, engine); err != nil {
		t.Fatalf("StartMetricsServer: %v", err)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`filevault_quota_denied_total{service="filevault"}`,
		`filevault_preview_jobs_total{result="generated",service="filevault"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

// TestDisabled 测试关闭时不挂载端点.
func TestDisabled(t *testing.T) {
	engine := gin.New()
	if err := StartMetricsServer(configs.MetricsConfig{Endpoint: "/metrics"}, engine); err != nil {
		t.Fatalf("StartMetricsServer: %v", err)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
