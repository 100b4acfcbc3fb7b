/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package stats exposes Prometheus counters for the session lifecycle. A
// nil *Stats is valid and records nothing, so instrumentation stays
// optional for embedders that do not scrape metrics.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stats holds the collectors for one coordinator instance
type Stats struct {
	logins          *prometheus.CounterVec
	pushes          *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	sessionErrors   *prometheus.CounterVec
	deferredFlushes prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to use the process-wide registry.
func New(reg prometheus.Registerer) *Stats {
	s := &Stats{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicepush",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicepush",
			Name:      "pushes_total",
			Help:      "Incoming push payloads by classification.",
		}, []string{"type"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicepush",
			Name:      "token_registrations_total",
			Help:      "Push token registration attempts by result.",
		}, []string{"result"}),
		sessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicepush",
			Name:      "session_errors_total",
			Help:      "Session errors by reason.",
		}, []string{"reason"}),
		deferredFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicepush",
			Name:      "deferred_actions_flushed_total",
			Help:      "Call actions that were deferred behind a login and later run.",
		}),
	}
	reg.MustRegister(s.logins, s.pushes, s.registrations, s.sessionErrors, s.deferredFlushes)
	return s
}

func (s *Stats) Login(result string) {
	if s == nil {
		return
	}
	s.logins.WithLabelValues(result).Inc()
}

func (s *Stats) Push(pushType string) {
	if s == nil {
		return
	}
	s.pushes.WithLabelValues(pushType).Inc()
}

func (s *Stats) Registration(result string) {
	if s == nil {
		return
	}
	s.registrations.WithLabelValues(result).Inc()
}

func (s *Stats) SessionError(reason string) {
	if s == nil {
		return
	}
	s.sessionErrors.WithLabelValues(reason).Inc()
}

func (s *Stats) DeferredFlush() {
	if s == nil {
		return
	}
	s.deferredFlushes.Inc()
}
