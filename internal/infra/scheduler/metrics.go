package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts cron firings by kind and outcome (triggered, busy, error).
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_scheduler_ticks_total",
			Help: "Total number of scheduler firings by job kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// LastTriggerTimestamp is the Unix time of the last job the scheduler started.
	LastTriggerTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extractor_scheduler_last_trigger_timestamp_seconds",
			Help: "Unix timestamp of the last scheduled job that was accepted",
		},
		[]string{"kind"},
	)
)
