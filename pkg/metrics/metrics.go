package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tenancy"

// Collector counts tenant pipeline outcomes. It implements tenancy.Observer.
type Collector struct {
	admitted         prometheus.Counter
	rejected         *prometheus.CounterVec
	limitUnavailable prometheus.Counter
	duration         *prometheus.HistogramVec
	gatherer         prometheus.Gatherer
}

// New registers the collector's metrics with reg. A nil reg uses a fresh
// registry that Handler serves.
func New(reg prometheus.Registerer) (*Collector, error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_admitted_total",
			Help:      "Requests that reached the application with a bound tenant.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Requests rejected by the tenant pipeline, by reason.",
		}, []string{"reason"}),
		limitUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_store_unavailable_total",
			Help:      "Requests let through because the rate limit counter store failed.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code"}),
		gatherer: gatherer,
	}

	for _, m := range []prometheus.Collector{c.admitted, c.rejected, c.limitUnavailable, c.duration} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TenantAdmitted counts an admitted request.
func (c *Collector) TenantAdmitted(string) {
	c.admitted.Inc()
}

// RequestRejected counts a rejection under its error kind.
func (c *Collector) RequestRejected(kind string) {
	c.rejected.WithLabelValues(kind).Inc()
}

// RateLimitUnavailable counts a fail-open rate limit check.
func (c *Collector) RateLimitUnavailable() {
	c.limitUnavailable.Inc()
}

// Handler serves the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware observes request durations by response status.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.duration.WithLabelValues(strconv.Itoa(sw.status)).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
