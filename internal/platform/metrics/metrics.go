package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the auth counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AccountsCreated     prometheus.Counter
	Logins              *prometheus.CounterVec
	Refreshes           *prometheus.CounterVec
	Activations         *prometheus.CounterVec
	GateRejections      *prometheus.CounterVec
	SessionCacheLatency *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "learnhub_accounts_created_total",
			Help: "Total number of accounts created by activation or social sign-in",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_logins_total",
			Help: "Login attempts by method and outcome",
		}, []string{"method", "outcome"}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_token_refreshes_total",
			Help: "Token refresh attempts by outcome",
		}, []string{"outcome"}),
		Activations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_activations_total",
			Help: "Activation attempts by stage (begin, complete) and outcome",
		}, []string{"stage", "outcome"}),
		GateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_gate_rejections_total",
			Help: "Requests rejected by the authorization gate by reason",
		}, []string{"reason"}),
		SessionCacheLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learnhub_session_cache_latency_seconds",
			Help:    "Session cache operation latency",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"op"}),
	}
}

// IncrementAccountsCreated increments the accounts created counter by 1.
func (m *Metrics) IncrementAccountsCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

func (m *Metrics) ObserveLogin(method, outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveActivation(stage, outcome string) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) ObserveGateRejection(reason string) {
	if m == nil {
		return
	}
	m.GateRejections.WithLabelValues(reason).Inc()
}

// ObserveCacheOp records the duration of a session cache operation started at start.
func (m *Metrics) ObserveCacheOp(op string, start time.Time) {
	if m == nil {
		return
	}
	m.SessionCacheLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
