package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_relay_records_written_total",
		Help: "The total number of records echoed to the console",
	}, []string{"level"})
	recordsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "log_relay_records_discarded_total",
		Help: "Records dropped because metadata was disabled",
	})
	forwardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_relay_forwards_total",
		Help: "Remote forward attempts by outcome",
	}, []string{"outcome"})
	forwardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "log_relay_forward_duration_seconds",
		Help:    "Time taken by remote forward requests",
		Buckets: prometheus.DefBuckets,
	})
	forwardsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "log_relay_forwards_in_flight",
		Help: "Number of remote forwards currently running",
	})
)

const (
	outcomeSuccess        = "success"
	outcomeTransportError = "transport_error"
	outcomeServerError    = "server_error"
)
