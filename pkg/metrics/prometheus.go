package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"DipScan/internal/domain/models"
)

const namespace = "dipscan"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	assetsTotal     *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	scanDuration    prometheus.Histogram
	averageProb     *prometheus.GaugeVec
	signalsTotal    *prometheus.CounterVec
	sinkErrorsTotal *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the collectors on reg; nil uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		assetsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assets_total",
				Help:      "Assets processed per scan by outcome (ok or skip reason)",
			},
			[]string{"outcome"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Price history retrieval latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"provider"},
		),
		scanDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of a full universe scan",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		averageProb: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "asset_average_probability",
				Help:      "Latest average dip probability per asset, in percent",
			},
			[]string{"ticker"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Signals emitted by class",
			},
			[]string{"signal"},
		),
		sinkErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_errors_total",
				Help:      "Report sink failures",
			},
			[]string{"sink"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Dashboard HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Dashboard HTTP request duration",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route", "method"},
		),
	}
}

func (r *Recorder) RecordAsset(outcome string) {
	r.assetsTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordFetch(provider string, elapsed time.Duration) {
	r.fetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (r *Recorder) RecordScan(elapsed time.Duration) {
	r.scanDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) RecordSignal(ticker string, avg float64, signal models.Signal) {
	r.averageProb.WithLabelValues(ticker).Set(avg)
	r.signalsTotal.WithLabelValues(string(signal)).Inc()
}

func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordHTTP is used by the request metrics middleware. Route should be the
// registered path template to keep label cardinality low.
func (r *Recorder) RecordHTTP(route, method string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Nop discards everything; handy in tests and one-off commands.
type Nop struct{}

func (Nop) RecordAsset(string)                            {}
func (Nop) RecordFetch(string, time.Duration)             {}
func (Nop) RecordScan(time.Duration)                      {}
func (Nop) RecordSignal(string, float64, models.Signal)   {}
func (Nop) RecordSinkError(string)                        {}
func (Nop) RecordHTTP(string, string, int, time.Duration) {}
