// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP 与业务指标.
//
// Example:
//
//	import "github.com/yeisme/filevault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/api/v1/files", "2xx").Inc()
//	metrics.QuotaDenied.Inc()
package metrics

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filevault/pkg/configs"
)

const namespace = "filevault"

// 结果标签取值.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"

	ResultGenerated = "generated"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"

	ResultExpired  = "expired"
	ResultNotFound = "not_found"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by status class",
		},
		[]string{"method", "endpoint", "code"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// UploadsTotal 上传文件数, result=ok|rejected|error.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Number of uploaded files by result",
		},
		[]string{"result"},
	)

	// UploadedBytes 成功写入的字节数.
	UploadedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes of file content accepted",
		},
	)

	// QuotaDenied 配额拒绝次数.
	QuotaDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denied_total",
			Help:      "Number of admissions denied by the storage quota",
		},
	)

	// PreviewJobs 预览任务结果, result=generated|skipped|failed|dropped.
	PreviewJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_jobs_total",
			Help:      "Preview generation jobs by result",
		},
		[]string{"result"},
	)

	// PreviewDuration 单次预览生成耗时, kind=image|video.
	PreviewDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preview_duration_seconds",
			Help:      "Time spent generating one preview",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"kind"},
	)

	// ShareResolves 分享链接解析结果, result=ok|expired|not_found.
	ShareResolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_resolves_total",
			Help:      "Public share link resolutions by result",
		},
		[]string{"result"},
	)

	// SweepPurged 保留期清理删除的文件数.
	SweepPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_purged_total",
			Help:      "Files permanently removed by the retention sweeper",
		},
	)

	// SweepFailures 保留期清理失败项, stage=blob|preview|row.
	SweepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failures_total",
			Help:      "Per-file failures during the retention sweep",
		},
		[]string{"stage"},
	)

	// SweepDuration 单次清理耗时.
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one retention sweep",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// JobRuns 定时任务执行次数, result=ok|error.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by result",
		},
		[]string{"job", "result"},
	)

	// JobDuration 定时任务单次耗时.
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of one scheduled job execution",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"job"},
	)

	// BreakerState 熔断器状态，0 关闭 1 半开 2 打开.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per route (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	initOnce sync.Once
	initErr  error
)

// InitMetrics 初始化Metrics, 重复调用只生效一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		initErr = register(config)
	})

	return initErr
}

func register(config configs.MetricsConfig) error {
	// 注册标准收集器
	if config.RuntimeMetrics {
		if err := registerAll(registry,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		); err != nil {
			return err
		}
	}

	if err := registerAll(registry, RequestCounter, RequestDuration, ActiveConnections, BreakerState); err != nil {
		return err
	}

	// 业务指标带上配置中的常量标签
	business := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

	return registerAll(business,
		UploadsTotal, UploadedBytes, QuotaDenied,
		PreviewJobs, PreviewDuration,
		ShareResolves,
		SweepPurged, SweepFailures, SweepDuration,
		JobRuns, JobDuration,
	)
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}

			return err
		}
	}

	return nil
}

// StartMetricsServer 在 engine 上挂载指标端点.
// 同时导出默认注册表, gorm 连接池指标注册在那里.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	gatherers := prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	engine.GET(config.Endpoint, gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{EnableOpenMetrics: true})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.HandlerFunc(servePprof)))
	}

	return nil
}

func servePprof(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/debug/pprof/cmdline":
		pprof.Cmdline(w, r)
	case "/debug/pprof/profile":
		pprof.Profile(w, r)
	case "/debug/pprof/symbol":
		pprof.Symbol(w, r)
	case "/debug/pprof/trace":
		pprof.Trace(w, r)
	default:
		pprof.Index(w, r)
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
