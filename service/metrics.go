package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/fakereview/core"
)

// 错误类别，对应 fakereview_prediction_errors_total 的 kind 标签
const (
	ErrorKindValidation = "validation"
	ErrorKindInference  = "inference"
)

// Metrics 是推理服务的 Prometheus 指标。
// 每个实例使用独立的 Registry，便于在同一进程内创建多个 Server。
type Metrics struct {
	Registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     prometheus.Histogram
}

// NewMetrics 创建并注册指标
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fakereview_predictions_total",
			Help: "Total successful predictions by label",
		}, []string{"label"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fakereview_prediction_errors_total",
			Help: "Total failed prediction requests by kind",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fakereview_prediction_duration_seconds",
			Help:    "Time spent classifying one review",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.Registry.MustRegister(
		m.predictions,
		m.errors,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, l := range core.Labels {
		m.predictions.WithLabelValues(l.String())
	}
	return m
}

// Observe 记录一次 Classify 的结果
func (m *Metrics) Observe(label core.Label, err error, elapsed time.Duration) {
	m.latency.Observe(elapsed.Seconds())
	switch {
	case err == nil:
		m.predictions.WithLabelValues(label.String()).Inc()
	case core.IsValidation(err):
		m.errors.WithLabelValues(ErrorKindValidation).Inc()
	default:
		m.errors.WithLabelValues(ErrorKindInference).Inc()
	}
}

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
