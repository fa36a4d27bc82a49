package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh and login outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

var (
	registerOnce sync.Once

	SessionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bafcc_session_refresh_total",
			Help: "Access token refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	SessionLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bafcc_session_login_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	TransportRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bafcc_transport_retries_total",
		Help: "Requests resent after a silent token refresh.",
	})

	ForcedLogouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bafcc_session_forced_logouts_total",
		Help: "Sessions ended because the refresh token was rejected.",
	})

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bafcc_http_request_duration_seconds",
			Help:    "Console HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Register adds all collectors to reg, once per process.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(SessionRefreshes, SessionLogins, TransportRetries, ForcedLogouts, httpRequestDuration)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request latency under the given route label.
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w, Code: http.StatusOK}
		next(sw, r)
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.Code)).Observe(time.Since(start).Seconds())
	}
}

// StatusWriter remembers the status code written by a handler.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (w *StatusWriter) WriteHeader(code int) {
	w.Code = code
	w.ResponseWriter.WriteHeader(code)
}
