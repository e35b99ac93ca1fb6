package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deviceExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_device_exchanges_total",
		Help: "Device link exchanges by operation and outcome.",
	}, []string{"op", "outcome"})

	deviceExchangeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monitor_device_exchange_seconds",
		Help:    "Duration of device link exchanges.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"op"})

	ledOn = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_led_on",
		Help: "Last committed LED state (1 = on).",
	})

	pollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_poll_cycles_total",
		Help: "Background device poll cycles by outcome.",
	}, []string{"outcome"})
)

// ObserveDeviceExchange records one device link round trip.
func ObserveDeviceExchange(op, outcome string, d time.Duration) {
	deviceExchanges.WithLabelValues(op, outcome).Inc()
	deviceExchangeSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// SetLedState mirrors the committed LED state into the gauge.
func SetLedState(on bool) {
	if on {
		ledOn.Set(1)
	} else {
		ledOn.Set(0)
	}
}

// CountPollCycle records the outcome of one background poll cycle.
func CountPollCycle(outcome string) {
	pollCycles.WithLabelValues(outcome).Inc()
}
