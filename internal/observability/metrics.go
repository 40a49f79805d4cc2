package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "rides_created_total", Help: "Rides created, by initiator role"},
		[]string{"role"},
	)
	AcceptsWon = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "accepts_won_total", Help: "Acceptance attempts that claimed the ride"},
	)
	AcceptConflicts = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "accept_conflicts_total", Help: "Acceptance attempts that lost the race"},
	)
	RidesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "rides_completed_total", Help: "Rides completed"},
	)
	RidesCancelled = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "rides_cancelled_total", Help: "Rides cancelled"},
	)
	WalletSettlements = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "wallet_settlements_total", Help: "Wallet fare settlements, by outcome"},
		[]string{"outcome"},
	)
	NearbyQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "ridematch", Name: "nearby_query_duration_seconds", Help: "Latency of geo radius queries"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridematch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridematch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
