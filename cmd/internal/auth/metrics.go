package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts auth outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	logouts       prometheus.Counter
}

// NewMetrics creates the auth counters and registers them on reg (when non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nra",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nra",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nra",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Refresh attempts by result (rotated, kept, rejected).",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nra",
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Completed logouts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.registrations, m.logins, m.refreshes, m.logouts)
	}
	return m
}

func (m *Metrics) registration(result string) {
	if m != nil {
		m.registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) refresh(result string) {
	if m != nil {
		m.refreshes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) logout() {
	if m != nil {
		m.logouts.Inc()
	}
}
