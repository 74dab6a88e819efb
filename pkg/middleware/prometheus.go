package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filevault/pkg/metrics"
)

// PrometheusMiddleware 记录请求数、耗时与进行中的请求数. 以路由模板作为 endpoint 标签.
// 请求被采样追踪时以 trace_id 作为 exemplar，便于从指标跳到链路.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		c.Next()

		endpoint := routeOf(c)
		code := strconv.Itoa(c.Writer.Status()/100) + "xx"
		elapsed := time.Since(start).Seconds()

		counter := metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint, code)
		observer := metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint)

		exemplar := traceExemplar(c)
		if exemplar == nil {
			counter.Inc()
			observer.Observe(elapsed)

			return
		}

		if ea, ok := counter.(prometheus.ExemplarAdder); ok {
			ea.AddWithExemplar(1, exemplar)
		} else {
			counter.Inc()
		}

		if eo, ok := observer.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(elapsed, exemplar)
		} else {
			observer.Observe(elapsed)
		}
	}
}

// traceExemplar 未采样时返回 nil.
func traceExemplar(c *gin.Context) prometheus.Labels {
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.IsSampled() {
		return nil
	}

	return prometheus.Labels{"trace_id": sc.TraceID().String()}
}
