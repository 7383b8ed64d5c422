package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.ObserveDirectoryFetch("Mega", "CoffeeHOT", "")
	m.ObserveImageFetch("server_error")
	m.ObserveCacheLookup(true)
	m.ObserveAssembly(time.Now(), 3, "")

	h := m.Middleware(func(r *http.Request) string { return r.URL.Path })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDirectoryFetch("Mega", "CoffeeHOT", "")
	m.ObserveDirectoryFetch("Mega", "CoffeeHOT", "server_error")
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveAssembly(time.Now(), 42, "")

	if got := testutil.ToFloat64(m.DirectoryFetches.WithLabelValues("Mega", "CoffeeHOT", "ok")); got != 1 {
		t.Errorf("ok fetches=%v", got)
	}
	if got := testutil.ToFloat64(m.DirectoryFetches.WithLabelValues("Mega", "CoffeeHOT", "server_error")); got != 1 {
		t.Errorf("failed fetches=%v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses=%v", got)
	}
	if got := testutil.ToFloat64(m.CatalogEntries); got != 42 {
		t.Errorf("entries=%v", got)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	h := m.Middleware(func(r *http.Request) string { return "/catalog" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog", nil))

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/catalog", "503")); got != 1 {
		t.Errorf("requests=%v", got)
	}
}
