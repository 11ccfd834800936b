// Package metrics exposes Prometheus collectors for the ask pipeline and
// the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "pageask"

// Collector holds the pipeline and HTTP metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	asksTotal         *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	analyzeDuration   prometheus.Histogram
	captchaDetections prometheus.Counter
	captchaAttempts   prometheus.Counter
	modelErrors       prometheus.Counter
	embeddedImages    prometheus.Histogram
}

// NewCollector registers the metrics in a new registry, together with the
// Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		asksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "asks_total",
				Help:      "Total number of questions processed",
			},
			[]string{"status"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Page fetch duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		analyzeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "analyze_duration_seconds",
				Help:      "Model analysis duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		captchaDetections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "captcha_detections_total",
				Help:      "Pages on which a CAPTCHA challenge was detected",
			},
		),
		captchaAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "captcha_attempts_total",
				Help:      "CAPTCHA read attempts",
			},
		),
		modelErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "model_errors_total",
				Help:      "Failed language model invocations",
			},
		),
		embeddedImages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "embedded_images",
				Help:      "Images embedded per page",
				Buckets:   []float64{0, 1, 2, 4, 8, 16},
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordAsk records the outcome of one question: "ok" or "error".
func (c *Collector) RecordAsk(status string) {
	if c == nil {
		return
	}
	c.asksTotal.WithLabelValues(status).Inc()
}

// ObserveFetch records a page fetch and the number of images it yielded.
func (c *Collector) ObserveFetch(d time.Duration, images int, captcha bool) {
	if c == nil {
		return
	}
	c.fetchDuration.Observe(d.Seconds())
	c.embeddedImages.Observe(float64(images))
	if captcha {
		c.captchaDetections.Inc()
	}
}

// ObserveAnalyze records a model analysis. Failed calls also count as
// model errors.
func (c *Collector) ObserveAnalyze(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.analyzeDuration.Observe(d.Seconds())
	if err != nil {
		c.modelErrors.Inc()
	}
}

// IncCaptchaAttempt records one CAPTCHA read attempt.
func (c *Collector) IncCaptchaAttempt() {
	if c == nil {
		return
	}
	c.captchaAttempts.Inc()
}
