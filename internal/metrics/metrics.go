// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 应用指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 层
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// 排班引擎
	BuildsTotal    *prometheus.CounterVec
	BuildDuration  prometheus.Histogram
	FillRate       prometheus.Gauge
	SlotsTotal     prometheus.Gauge
	Understaffed   prometheus.Gauge
	PlanAssigned   prometheus.Gauge
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunban",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP请求总数",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lunban",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "builds_total",
			Help:      "排班生成次数",
		}, []string{"result"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "build_duration_seconds",
			Help:      "排班生成耗时",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		FillRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "fill_rate",
			Help:      "最近一次生成的槽位填充率 (0-1)",
		}),
		SlotsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "slots_total",
			Help:      "最近一次生成的槽位总数",
		}),
		Understaffed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "understaffed_slots",
			Help:      "最近一次生成的人手不足槽位数",
		}),
		PlanAssigned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lunban",
			Subsystem: "engine",
			Name:      "plan_assignments",
			Help:      "最近一次生成的分配总数",
		}),
	}
}

// ObserveBuild 记录一次排班生成结果
func (m *Metrics) ObserveBuild(duration time.Duration, slotsTotal, slotsFilled, assigned, understaffed int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.BuildsTotal.WithLabelValues(result).Inc()
	if err != nil {
		return
	}

	m.BuildDuration.Observe(duration.Seconds())
	m.SlotsTotal.Set(float64(slotsTotal))
	m.Understaffed.Set(float64(understaffed))
	m.PlanAssigned.Set(float64(assigned))
	if slotsTotal > 0 {
		m.FillRate.Set(float64(slotsFilled) / float64(slotsTotal))
	}
}

// ObserveRequest 记录一次HTTP请求
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler 返回 /metrics 的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
