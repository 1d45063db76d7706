package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters for the memory service. Registered on the default
// registry; the gateway serves them on /metrics.
var (
	readsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "reads_total",
		Help:      "Memory read operations.",
	})

	appendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "appends_total",
		Help:      "Memory append operations.",
	})

	messagesAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "messages_appended_total",
		Help:      "Individual messages appended across all sessions.",
	})

	deletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "deletes_total",
		Help:      "Session delete operations.",
	})

	trimRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "trim_rejections_total",
		Help:      "Verified trims rejected by the expected-text check.",
	})

	compactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "compactions_total",
		Help:      "Background compaction runs by outcome.",
	}, []string{"outcome"})

	storeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Name:      "store_errors_total",
		Help:      "Errors returned by the backing store.",
	})
)
