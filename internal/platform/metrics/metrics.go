// Package metrics provides observability for the simulation server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick metrics

var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "ticks_total",
	Help:      "Total simulation ticks processed.",
})

var TickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "tycoon",
	Name:      "tick_latency_seconds",
	Help:      "Wall time spent running one tick pipeline.",
	Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
})

// Economy metrics

var IncomeRealized = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "income_realized_total",
	Help:      "Money credited by completed business cycles.",
})

var CyclesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "cycles_completed_total",
	Help:      "Completed income cycles per business.",
}, []string{"business"})

var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "level_ups_total",
	Help:      "Level-up requests applied.",
})

var UpgradesPurchased = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "upgrades_purchased_total",
	Help:      "Upgrade-purchased requests applied.",
})

var RequestsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "requests_discarded_total",
	Help:      "Requests dropped as stale or invalid.",
}, []string{"kind"})

// Persistence metrics

var Saves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "saves_total",
	Help:      "Save attempts by result.",
}, []string{"result"})

// WebSocket metrics

var WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "tycoon",
	Name:      "ws_connections",
	Help:      "Active WebSocket connections.",
})

var WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tycoon",
	Name:      "ws_messages_total",
	Help:      "WebSocket messages by direction.",
}, []string{"direction"})

// RecordTick records a tick cycle completion.
func RecordTick(latency time.Duration) {
	TicksTotal.Inc()
	TickLatency.Observe(latency.Seconds())
}

// RecordSave records the outcome of a save request.
func RecordSave(err error) {
	if err != nil {
		Saves.WithLabelValues("error").Inc()
		return
	}
	Saves.WithLabelValues("ok").Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
