package proxy

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/azrelay/proxy/worker"
)

const metricsNamespace = "azrelay"

// Rejection reasons reported on azrelay_rejections_total.
const (
	rejectNotFound       = "not_found"
	rejectMissingMapping = "missing_mapping"
	rejectUnauthorized   = "unauthorized"
	rejectInvalidBody    = "invalid_body"
)

// Metrics tracks relay traffic.
//
// Metrics:
//   - azrelay_requests_total: relayed requests by operation and status
//   - azrelay_request_duration_seconds: relay duration histogram
//   - azrelay_stream_frames_total: frames written on streamed responses
//   - azrelay_tokens_total: token usage reported by upstream
//   - azrelay_rejections_total: requests answered without an upstream call
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	framesTotal     *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates the relay metrics and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of requests relayed to Azure OpenAI",
			},
			[]string{"operation", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of relayed requests in seconds, including the streamed body",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation", "streaming"},
		),

		framesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "stream_frames_total",
				Help:      "Total number of SSE frames relayed on streamed responses",
			},
			[]string{"operation"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by upstream usage blocks",
			},
			[]string{"operation", "kind"},
		),

		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rejections_total",
				Help:      "Total number of requests rejected without an upstream call",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.framesTotal,
		m.tokensTotal,
		m.rejectionsTotal,
	)

	return m
}

// Record implements worker.Recorder.
func (m *Metrics) Record(job worker.Job) {
	m.requestsTotal.WithLabelValues(job.Operation, strconv.Itoa(job.Status)).Inc()
	m.requestDuration.WithLabelValues(job.Operation, strconv.FormatBool(job.Streaming)).Observe(job.Duration.Seconds())

	if job.Streaming {
		m.framesTotal.WithLabelValues(job.Operation).Add(float64(job.Frames))
	}

	if job.Usage != nil {
		if job.Usage.PromptTokens > 0 {
			m.tokensTotal.WithLabelValues(job.Operation, "prompt").Add(float64(job.Usage.PromptTokens))
		}
		if job.Usage.CompletionTokens > 0 {
			m.tokensTotal.WithLabelValues(job.Operation, "completion").Add(float64(job.Usage.CompletionTokens))
		}
	}
}

// Reject counts a request answered without contacting upstream.
func (m *Metrics) Reject(reason string) {
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}
