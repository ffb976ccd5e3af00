// Package metrics exposes workshop counters and HTTP latency to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"ideaforge/contexts/ideation/workshop-service/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Workshop implements the workshop metrics port on a private registry.
type Workshop struct {
	registry       *prometheus.Registry
	sessions       prometheus.Counter
	transitions    *prometheus.CounterVec
	contributions  prometheus.Counter
	votes          prometheus.Counter
	rejectedVotes  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewWorkshop(namespace string) *Workshop {
	if namespace == "" {
		namespace = "ideaforge"
	}
	m := &Workshop{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workshop",
			Name:      "sessions_created_total",
			Help:      "Workshop sessions created.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workshop",
			Name:      "state_transitions_total",
			Help:      "Session state transitions by source and target state.",
		}, []string{"from", "to"}),
		contributions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workshop",
			Name:      "contributions_submitted_total",
			Help:      "Contribution items accepted in submission batches.",
		}),
		votes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workshop",
			Name:      "votes_cast_total",
			Help:      "Votes recorded.",
		}),
		rejectedVotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workshop",
			Name:      "votes_rejected_total",
			Help:      "Vote attempts rejected, by error kind.",
		}, []string{"reason"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessions,
		m.transitions,
		m.contributions,
		m.votes,
		m.rejectedVotes,
		m.requestLatency,
	)
	return m
}

func (m *Workshop) SessionCreated() {
	m.sessions.Inc()
}

func (m *Workshop) StateChanged(from entities.SessionState, to entities.SessionState) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Workshop) ContributionsSubmitted(count int) {
	m.contributions.Add(float64(count))
}

func (m *Workshop) VoteCast() {
	m.votes.Inc()
}

func (m *Workshop) VoteRejected(reason string) {
	m.rejectedVotes.WithLabelValues(reason).Inc()
}

// Registry exposes the collectors, mainly for tests.
func (m *Workshop) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Workshop) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument records the latency of next under route, the mux pattern the
// request matched.
func (m *Workshop) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(recorder, r)
		m.requestLatency.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(started).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
