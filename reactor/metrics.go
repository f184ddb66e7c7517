// File: reactor/metrics.go

package reactor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fc",
		Subsystem: "reactor",
		Name:      "operations_total",
		Help:      "I/O operations executed by the reactor, by kind.",
	}, []string{"kind"})

	pollWakeups = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fc",
		Subsystem: "reactor",
		Name:      "poll_wakeups_total",
		Help:      "Readiness wakeups delivered by the poll service.",
	})
)
