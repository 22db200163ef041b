package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics of the download service.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Download metrics
	streamsTotal      *prometheus.CounterVec
	streamDuration    prometheus.Histogram
	bytesTotal        prometheus.Counter
	chunksTotal       prometheus.Counter
	archiversActive   prometheus.Gauge
	archiverExitTotal *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.streamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_streams_total",
			Help: "Total number of archive downloads by outcome",
		},
		[]string{"outcome"},
	)
	r.streamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "download_stream_duration_seconds",
			Help:    "Archive streaming duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
	)
	r.bytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "download_bytes_total",
			Help: "Total number of archive bytes written to clients",
		},
	)
	r.chunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "download_chunks_total",
			Help: "Total number of archive chunks written to clients",
		},
	)
	r.archiversActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "archiver_processes_active",
			Help: "Number of running archiver processes",
		},
	)
	r.archiverExitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_exits_total",
			Help: "Total number of reaped archiver processes",
		},
		[]string{"reason"},
	)

	reg.MustRegister(r.streamsTotal)
	reg.MustRegister(r.streamDuration)
	reg.MustRegister(r.bytesTotal)
	reg.MustRegister(r.chunksTotal)
	reg.MustRegister(r.archiversActive)
	reg.MustRegister(r.archiverExitTotal)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordDownload records a download that ended before streaming started
// (not_found, start_failed).
func (r *Registry) RecordDownload(outcome string) {
	r.streamsTotal.WithLabelValues(outcome).Inc()
}

// RecordStream records a finished archive stream.
func (r *Registry) RecordStream(outcome string, bytes int64, chunks int, duration float64) {
	r.streamsTotal.WithLabelValues(outcome).Inc()
	r.streamDuration.Observe(duration)
	r.bytesTotal.Add(float64(bytes))
	r.chunksTotal.Add(float64(chunks))
}

// ArchiverStarted increments the number of running archivers.
func (r *Registry) ArchiverStarted() {
	r.archiversActive.Inc()
}

// ArchiverReaped decrements the number of running archivers.
func (r *Registry) ArchiverReaped(reason string) {
	r.archiversActive.Dec()
	r.archiverExitTotal.WithLabelValues(reason).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
