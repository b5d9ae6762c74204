// Package metrics exposes Prometheus counters for the session flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth counts login, registration and session-validation outcomes.
// A nil *Auth is valid and records nothing.
type Auth struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	rejections    *prometheus.CounterVec
}

// NewAuth creates the counters and registers them with reg.
func NewAuth(reg prometheus.Registerer) *Auth {
	a := &Auth{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome and requested role.",
		}, []string{"outcome", "role"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "session_rejections_total",
			Help:      "Requests rejected by the session validator, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(a.logins, a.registrations, a.rejections)
	return a
}

// Login records a login attempt outcome.
func (a *Auth) Login(outcome string) {
	if a == nil {
		return
	}
	a.logins.WithLabelValues(outcome).Inc()
}

// Registration records a registration outcome for the requested role.
func (a *Auth) Registration(outcome, role string) {
	if a == nil {
		return
	}
	a.registrations.WithLabelValues(outcome, role).Inc()
}

// SessionRejected records a request turned away by the validator.
func (a *Auth) SessionRejected(reason string) {
	if a == nil {
		return
	}
	a.rejections.WithLabelValues(reason).Inc()
}
