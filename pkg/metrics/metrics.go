// Package metrics exposes the broker's Prometheus instrumentation: message
// throughput, lease contention, settlement outcomes, and reaper activity.
//
// Instruments are package-level and guarded by IsEnabled, following the
// lineage's pattern of a process-wide registry initialized once at startup.
// Every Record* function is a no-op when metrics are disabled, so callers
// never need to nil-check before recording.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	messagesProduced   *prometheus.CounterVec
	leaseAcquired      *prometheus.CounterVec
	leaseRaceLost      *prometheus.CounterVec
	leaseLazyReclaimed *prometheus.CounterVec
	leaseReaped        prometheus.Counter
	settlements        *prometheus.CounterVec
	activeConnections  prometheus.Gauge
	reapDuration       prometheus.Histogram
)

// Init builds the process-wide Prometheus registry and registers all broker
// instruments. Call once at startup before serving traffic. enabled=false
// leaves the registry nil; every Record* call becomes a no-op.
func Init(enabled bool) {
	if !enabled {
		registry = nil
		return
	}

	registry = prometheus.NewRegistry()

	messagesProduced = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_produced_total",
			Help: "Total number of messages appended to a log.",
		},
		[]string{"log_id"},
	)
	leaseAcquired = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_lease_acquired_total",
			Help: "Total number of leases successfully acquired.",
		},
		[]string{"log_id", "group_id"},
	)
	leaseRaceLost = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_lease_race_lost_total",
			Help: "Total number of acquire_next rescans caused by losing a lease race.",
		},
		[]string{"log_id", "group_id"},
	)
	leaseLazyReclaimed = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_lease_lazy_reclaimed_total",
			Help: "Total number of in_progress messages downgraded to pending on scan because their lease had no holder.",
		},
		[]string{"log_id", "group_id"},
	)
	leaseReaped = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "broker_lease_reaped_total",
			Help: "Total number of expired leases removed by the background reaper.",
		},
	)
	settlements = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_settlements_total",
			Help: "Total number of settle calls by outcome.",
		},
		[]string{"log_id", "group_id", "outcome"}, // outcome: processed, failed, dead, wrong_owner
	)
	activeConnections = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "broker_active_connections",
			Help: "Number of currently accepted TCP connections.",
		},
	)
	reapDuration = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broker_reap_duration_seconds",
			Help:    "Duration of a single lease-reaper sweep.",
			Buckets: prometheus.DefBuckets,
		},
	)
}

// IsEnabled reports whether the registry is active.
func IsEnabled() bool {
	return registry != nil
}

// GetRegistry returns the active Prometheus registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

func RecordProduced(logID string) {
	if !IsEnabled() {
		return
	}
	messagesProduced.WithLabelValues(logID).Inc()
}

func RecordLeaseAcquired(logID, groupID string) {
	if !IsEnabled() {
		return
	}
	leaseAcquired.WithLabelValues(logID, groupID).Inc()
}

func RecordLeaseRaceLost(logID, groupID string) {
	if !IsEnabled() {
		return
	}
	leaseRaceLost.WithLabelValues(logID, groupID).Inc()
}

func RecordLeaseLazyReclaimed(logID, groupID string) {
	if !IsEnabled() {
		return
	}
	leaseLazyReclaimed.WithLabelValues(logID, groupID).Inc()
}

func RecordLeaseReaped(n int) {
	if !IsEnabled() || n <= 0 {
		return
	}
	leaseReaped.Add(float64(n))
}

func RecordSettlement(logID, groupID, outcome string) {
	if !IsEnabled() {
		return
	}
	settlements.WithLabelValues(logID, groupID, outcome).Inc()
}

func SetActiveConnections(n int32) {
	if !IsEnabled() {
		return
	}
	activeConnections.Set(float64(n))
}

func ObserveReapDuration(d time.Duration) {
	if !IsEnabled() {
		return
	}
	reapDuration.Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler for the active registry, to
// be mounted by pkg/admin onto the shared admin mux. Returns nil if metrics
// are disabled.
func Handler() http.Handler {
	if !IsEnabled() {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
