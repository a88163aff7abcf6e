package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle and messaging metrics exposed on /metrics.
var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_cycles_total",
		Help: "Completed signal cycles, successful or not.",
	})

	CycleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_cycle_failures_total",
		Help: "Signal cycles aborted early, by failure stage.",
	}, []string{"stage"})

	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signals_emitted_total",
		Help: "Latest-candle signals emitted per cycle, by type.",
	}, []string{"signal"})

	MessagesInbound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messages_inbound_total",
		Help: "Inbound webhook messages dispatched to the trade machine.",
	})

	RepliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messages_replies_total",
		Help: "Reply messages handed to the messenger.",
	})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "message_delivery_failures_total",
		Help: "Outbound deliveries that failed after retries.",
	})

	LastCycleUnix = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_last_cycle_timestamp_seconds",
		Help: "Unix time of the last successful signal cycle.",
	})
)
