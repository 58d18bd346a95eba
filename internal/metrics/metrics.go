package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_router_quote_requests_total",
			Help: "Total number of route requests",
		},
		[]string{"trade_type", "status"},
	)

	RouteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amm_router_route_duration_seconds",
			Help:    "Duration of each routing phase in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"phase"},
	)

	CandidatePools = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amm_router_candidate_pools",
		Help:    "Number of pools kept by candidate selection",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	RoutesEnumerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amm_router_routes_enumerated",
		Help:    "Number of routes found by the enumerator per request",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
	})

	// Optimizer metrics
	SplitCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amm_router_split_count",
		Help:    "Number of routes in the chosen split",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7},
	})

	CandidatesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amm_router_candidates_evaluated_total",
		Help: "Total number of split assignments scored by the optimizer",
	})

	RouteQuotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_router_route_quotes_total",
			Help: "Route quotes computed, by outcome",
		},
		[]string{"result"},
	)

	HopDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amm_router_hop_duration_seconds",
			Help:    "Single pool swap simulation duration in seconds (sampled)",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		},
		[]string{"protocol"},
	)

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amm_router_price_impact_bps",
			Help:    "Price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amm_router_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
