package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// State metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clamm_pool_count",
		Help: "Total number of pools",
	})

	TickCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clamm_tick_count",
		Help: "Total number of initialized ticks across all pools",
	})

	PositionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clamm_position_count",
		Help: "Total number of open positions",
	})

	FeeTierCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clamm_fee_tier_count",
		Help: "Number of registered fee tiers",
	})

	// Entry point metrics
	Calls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clamm_calls_total",
			Help: "Total number of entry point calls",
		},
		[]string{"method", "status"},
	)

	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clamm_call_duration_seconds",
			Help:    "Entry point duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"method"},
	)

	Failures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clamm_failures_total",
			Help: "Failed entry point calls by error code",
		},
		[]string{"method", "code"},
	)

	// Swap metrics
	Swaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clamm_swaps_total",
			Help: "Total number of executed swaps",
		},
		[]string{"direction"},
	)

	TicksCrossed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clamm_ticks_crossed",
		Help:    "Number of ticks crossed per swap",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
	})

	SwapSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clamm_swap_steps",
		Help:    "Number of swap steps per swap",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
	})

	RouteHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clamm_route_hops",
		Help:    "Number of hops per routed swap",
		Buckets: []float64{1, 2, 3, 4, 5, 8},
	})

	RouteCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clamm_route_candidates",
		Help:    "Number of routes quoted per route search",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	// Persistence metrics
	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clamm_snapshot_duration_seconds",
		Help:    "Duration of a state snapshot save",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clamm_snapshot_failures_total",
		Help: "Total number of failed snapshot saves",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clamm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clamm_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
