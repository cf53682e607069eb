// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifications counts classifier calls by outcome ("ok", "failed").
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "painsignal",
		Name:      "classifications_total",
		Help:      "Classifier calls by outcome.",
	}, []string{"outcome"})

	// Ingestions counts ingest calls by target and result.
	Ingestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "painsignal",
		Name:      "ingestions_total",
		Help:      "Ingest calls by target collection and result.",
	}, []string{"target", "result"})

	// PublicEvictions counts records removed to keep the public collection bounded.
	PublicEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "painsignal",
		Name:      "public_evictions_total",
		Help:      "Oldest public entries deleted before insert.",
	})

	// Notifications counts notification deliveries by sink and result.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "painsignal",
		Name:      "notifications_total",
		Help:      "Notification deliveries by sink and result.",
	}, []string{"sink", "result"})

	// WaitlistSignups counts waitlist attempts by result.
	WaitlistSignups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "painsignal",
		Name:      "waitlist_signups_total",
		Help:      "Waitlist signup attempts by result.",
	}, []string{"result"})
)
