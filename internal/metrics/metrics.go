// Package metrics exposes Prometheus collectors for the API and notify servers.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aura"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	proposalsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proposals",
		Name:      "created_total",
		Help:      "Aura proposals created.",
	})

	votesCast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proposals",
		Name:      "votes_total",
		Help:      "Votes cast or changed on pending proposals.",
	})

	proposalsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proposals",
		Name:      "resolved_total",
		Help:      "Proposals moved to a terminal status.",
	}, []string{"status", "trigger"})

	sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "proposals",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of pending proposal sweeps.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "websocket_clients",
		Help:      "Currently connected WebSocket clients.",
	})

	notificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "notifications_total",
		Help:      "Notification frames handed to the hub.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		proposalsCreated,
		votesCast,
		proposalsResolved,
		sweepDuration,
		wsClients,
		notificationsDelivered,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler is a mux middleware recording request count and latency per route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func ProposalCreated() { proposalsCreated.Inc() }

func VoteCast() { votesCast.Inc() }

// ProposalResolved counts a transition. trigger is "sweep" or "manual".
func ProposalResolved(status, trigger string) {
	proposalsResolved.WithLabelValues(status, trigger).Inc()
}

func ObserveSweep(d time.Duration) { sweepDuration.Observe(d.Seconds()) }

func WebSocketConnected() { wsClients.Inc() }

func WebSocketDisconnected() { wsClients.Dec() }

// NotificationDelivered counts frames by result: "delivered", "offline" or "dropped".
func NotificationDelivered(result string) {
	notificationsDelivered.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routeTemplate keeps label cardinality bounded by using the mux path template.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
