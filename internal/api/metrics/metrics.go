// Package metrics defines and registers the custom Prometheus metrics of the
// storefront. It is the single source of truth for metric names, labels, and
// help strings.
//
// All counters register with the default registry on package load; the
// gauges that read live state register through RegisterGauges at startup.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

const namespace = "storefront"

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreMutationsTotal counts mutations applied to a store.
// Labels:
//   - store: "session" or "cart"
//   - op: the mutator (e.g. "add_item", "login")
var StoreMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Total number of store mutations, by store and operation.",
	},
	[]string{"store", "op"},
)

// StorageFailuresTotal counts snapshot writes or deletes that failed.
var StorageFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_failures_total",
		Help:      "Total number of failed storage writes, by store and operation.",
	},
	[]string{"store", "op"},
)

// RehydrationsTotal counts rehydration outcomes.
// Label:
//   - result: "restored", "empty", "corrupt" or "failed"
var RehydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rehydrations_total",
		Help:      "Total number of store rehydrations, by store and result.",
	},
	[]string{"store", "result"},
)

// SessionTransitionsTotal counts session state changes.
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"from", "to"},
)

// ProfilesEvictedTotal counts profiles dropped from memory.
// Label:
//   - reason: "capacity" or "idle"
var ProfilesEvictedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profiles_evicted_total",
		Help:      "Total number of browser profiles evicted from memory, by reason.",
	},
	[]string{"reason"},
)

// ── Checkout metrics ──────────────────────────────────────────────────────────

// StaleLinesTotal counts cart lines found out of date at checkout.
// Label:
//   - reason: "unavailable", "insufficient_stock", "price_changed" or "missing"
var StaleLinesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_stale_lines_total",
		Help:      "Total number of cart lines found stale at checkout, by reason.",
	},
	[]string{"reason"},
)

// ── Stream metrics ────────────────────────────────────────────────────────────

// StreamDroppedTotal counts change events dropped because the queue was full.
var StreamDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_dropped_total",
		Help:      "Total number of change events dropped on a full queue, by kind.",
	},
	[]string{"kind"},
)

var registerGauges sync.Once

// RegisterGauges exposes live counts read from the running components.
// Only the first call registers.
func RegisterGauges(queueDepth, openProfiles, streamClients func() int) {
	registerGauges.Do(func() {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_queue_depth",
			Help:      "Current number of change events waiting for delivery.",
		}, func() float64 { return float64(queueDepth()) })

		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_open",
			Help:      "Current number of open browser profiles.",
		}, func() float64 { return float64(openProfiles()) })

		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Current number of connected change-stream clients.",
		}, func() float64 { return float64(streamClients()) })
	})
}

// Observer feeds store activity into the counters above.
type Observer struct{}

var _ ports.Observer = Observer{}

func (Observer) Mutation(store, op string) {
	StoreMutationsTotal.WithLabelValues(store, op).Inc()
}

func (Observer) SessionTransition(from, to domain.SessionState) {
	SessionTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

func (Observer) Rehydrated(store, result string) {
	RehydrationsTotal.WithLabelValues(store, result).Inc()
}

func (Observer) StorageFailed(store, op string) {
	StorageFailuresTotal.WithLabelValues(store, op).Inc()
}

func (Observer) ProfilesEvicted(reason string, n int) {
	ProfilesEvictedTotal.WithLabelValues(reason).Add(float64(n))
}
