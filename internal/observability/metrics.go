package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meshwap"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	datagrams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wdp",
			Name:      "datagrams_total",
			Help:      "WDP datagrams by role and direction.",
		},
		[]string{"role", "direction"},
	)
	datagramDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wdp",
			Name:      "dropped_total",
			Help:      "Inbound datagrams dropped before delivery.",
		},
		[]string{"role", "reason"},
	)
	reassemblies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wdp",
			Name:      "reassemblies_total",
			Help:      "Concatenated message reassemblies by outcome.",
		},
		[]string{"role", "outcome"},
	)
	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "total",
			Help:      "Client WSP exchanges by outcome.",
		},
		[]string{"outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "duration_seconds",
			Help:      "Client WSP exchange duration in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)
	decompiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wmlc",
			Name:      "decompiles_total",
			Help:      "WMLC decompilations, labelled by truncation.",
		},
		[]string{"truncated"},
	)
	relayPending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "pending",
			Help:      "Proxy relay entries awaiting a gateway reply.",
		},
		[]string{"node"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			datagrams, datagramDrops, reassemblies,
			exchanges, exchangeDuration,
			decompiles, relayPending,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDatagrams counts n datagrams. direction is "sent" or "received".
func RecordDatagrams(role, direction string, n int) {
	RegisterMetrics()
	datagrams.WithLabelValues(role, direction).Add(float64(n))
}

func RecordDrop(role, reason string) {
	RegisterMetrics()
	datagramDrops.WithLabelValues(role, reason).Inc()
}

// RecordReassembly counts n reassemblies. outcome is "completed" or "evicted".
func RecordReassembly(role, outcome string, n int) {
	RegisterMetrics()
	reassemblies.WithLabelValues(role, outcome).Add(float64(n))
}

func RecordExchange(outcome string, duration time.Duration) {
	RegisterMetrics()
	exchanges.WithLabelValues(outcome).Inc()
	exchangeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordDecompile(truncated bool) {
	RegisterMetrics()
	decompiles.WithLabelValues(strconv.FormatBool(truncated)).Inc()
}

func SetRelayPending(node string, n int) {
	RegisterMetrics()
	relayPending.WithLabelValues(node).Set(float64(n))
}
