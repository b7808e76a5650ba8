package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deeplooplabs/ai-client/openai"
)

// Metrics holds all Prometheus metrics for the client. Labels use operation
// names such as "CreateRun", never request paths.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensUsed      *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RetriesTotal    *prometheus.CounterVec
	ActiveRequests  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "aiclient"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of API calls by final status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "API call duration in seconds, retries included",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_used_total",
				Help:      "Total number of tokens reported by the API",
			},
			[]string{"model", "type"}, // type: input, output, total
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed API calls",
			},
			[]string{"operation", "error_type"},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retried attempts",
			},
			[]string{"operation", "reason"},
		),
		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_requests",
				Help:      "Number of API calls in flight",
			},
		),
	}
}

func (m *Metrics) observe(operation string, status int, seconds float64) {
	m.RequestsTotal.WithLabelValues(operation, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) recordUsage(model string, usage *openai.Usage) {
	if usage == nil || model == "" {
		return
	}
	m.TokensUsed.WithLabelValues(model, "input").Add(float64(usage.PromptTokens))
	m.TokensUsed.WithLabelValues(model, "output").Add(float64(usage.CompletionTokens))
	m.TokensUsed.WithLabelValues(model, "total").Add(float64(usage.TotalTokens))
}

func (m *Metrics) recordRetry(operation string, status int) {
	reason := "transport"
	if status != 0 {
		reason = strconv.Itoa(status)
	}
	m.RetriesTotal.WithLabelValues(operation, reason).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
