// Package server Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标
	LoginsTotal           prometheus.Counter
	RegistrationsTotal    prometheus.Counter
	ProofSubmissionsTotal prometheus.Counter
	ApprovalsTotal        prometheus.Counter
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		LoginsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total successful logins",
			},
		),
		RegistrationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total accounts registered",
			},
		),
		ProofSubmissionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proof_submissions_total",
				Help:      "Total payment proofs submitted",
			},
		),
		ApprovalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "approvals_total",
				Help:      "Total accounts approved",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
// 业务计数器由成功响应推导，避免向各领域处理器透传指标依赖
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		m.recordBusiness(r.Method, r.URL.Path, wrapped.statusCode)
	})
}

// recordBusiness 从请求结果推导业务计数器
func (m *Metrics) recordBusiness(method, path string, status int) {
	if status < 200 || status >= 300 {
		return
	}
	switch {
	case method == http.MethodPost && path == "/api/v1/auth/login":
		m.LoginsTotal.Inc()
	case method == http.MethodPost && path == "/api/v1/auth/register":
		m.RegistrationsTotal.Inc()
	case method == http.MethodPost && path == "/api/v1/payments/proof":
		m.ProofSubmissionsTotal.Inc()
	case method == http.MethodPost && strings.HasSuffix(path, "/approve"):
		m.ApprovalsTotal.Inc()
	}
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 ID 替换为占位符，避免高基数
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/accounts/") && strings.HasSuffix(path, "/approve"):
		return "/api/v1/accounts/{id}/approve"
	case strings.HasPrefix(path, "/api/v1/forecasts/") && strings.HasSuffix(path, "/analysis"):
		return "/api/v1/forecasts/{id}/analysis"
	case strings.HasPrefix(path, "/api/v1/forecasts/") && path != "/api/v1/forecasts/all":
		return "/api/v1/forecasts/{id}"
	default:
		return path
	}
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
