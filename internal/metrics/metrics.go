package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelBrand    = "brand"
	labelCategory = "category"
	labelResult   = "result"
	labelMethod   = "method"
	labelPath     = "path"
	labelStatus   = "status"

	resultOK = "ok"

	defaultStatusCode = http.StatusOK
)

// Metrics groups the collectors of the assembly pipeline and the HTTP API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DirectoryFetches *prometheus.CounterVec
	ImageFetches     *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	Assemblies       *prometheus.CounterVec
	AssemblyLatency  prometheus.Histogram
	CatalogEntries   prometheus.Gauge
	Requests         *prometheus.CounterVec
	Latency          *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DirectoryFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_directory_fetches_total",
				Help: "Directory listing requests by brand, category and result",
			},
			[]string{labelBrand, labelCategory, labelResult},
		),
		ImageFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_image_fetches_total",
				Help: "Image downloads by result",
			},
			[]string{labelResult},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_image_cache_lookups_total",
				Help: "Image cache lookups by result (hit or miss)",
			},
			[]string{labelResult},
		),
		Assemblies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kiosk_assemblies_total",
				Help: "Catalog assembly runs by result",
			},
			[]string{labelResult},
		),
		AssemblyLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kiosk_assembly_duration_seconds",
				Help:    "Catalog assembly latency",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		CatalogEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kiosk_catalog_entries",
				Help: "Entries in the last assembled catalog",
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP latency",
			},
			[]string{labelMethod, labelPath},
		),
	}

	reg.MustRegister(
		m.DirectoryFetches,
		m.ImageFetches,
		m.CacheLookups,
		m.Assemblies,
		m.AssemblyLatency,
		m.CatalogEntries,
		m.Requests,
		m.Latency,
	)
	return m
}

func result(kind string) string {
	if kind == "" {
		return resultOK
	}
	return kind
}

// ObserveDirectoryFetch records one listing request; kind is the error
// kind, empty on success.
func (m *Metrics) ObserveDirectoryFetch(brand, category, kind string) {
	if m == nil {
		return
	}
	m.DirectoryFetches.WithLabelValues(brand, category, result(kind)).Inc()
}

func (m *Metrics) ObserveImageFetch(kind string) {
	if m == nil {
		return
	}
	m.ImageFetches.WithLabelValues(result(kind)).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveAssembly(start time.Time, entries int, kind string) {
	if m == nil {
		return
	}
	m.Assemblies.WithLabelValues(result(kind)).Inc()
	m.AssemblyLatency.Observe(time.Since(start).Seconds())
	if kind == "" {
		m.CatalogEntries.Set(float64(entries))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *Metrics) Middleware(pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				status:         defaultStatusCode,
			}

			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.Latency.WithLabelValues(r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).
				Inc()
		})
	}
}
