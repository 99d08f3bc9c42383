package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the auth counters.
const (
	outcomeSuccess   = "success"
	outcomeExists    = "exists"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"
	outcomeForbidden = "forbidden"
	outcomeNoSession = "no_session"
)

// Metrics contains the Prometheus counters for credential flows.
type Metrics struct {
	SignupsTotal *prometheus.CounterVec
	LoginsTotal  *prometheus.CounterVec
	ProfileViews *prometheus.CounterVec
}

// NewMetrics creates and registers the counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_signups_total",
				Help: "Total number of signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ProfileViews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authflow_profile_views_total",
				Help: "Total number of profile requests by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.SignupsTotal)
	reg.MustRegister(m.LoginsTotal)
	reg.MustRegister(m.ProfileViews)

	return m
}
