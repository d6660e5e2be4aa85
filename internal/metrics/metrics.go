// Package metrics defines the Prometheus collectors for the ingestion
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	RecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hawktail_records_total",
			Help: "Total number of records decoded from all sessions",
		},
	)

	BytesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hawktail_bytes_received_total",
			Help: "Total bytes read from client connections",
		},
	)

	FrameErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hawktail_frame_errors_total",
			Help: "Total number of malformed or oversized frames",
		},
	)

	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hawktail_sessions_active",
			Help: "Number of currently connected sessions",
		},
	)

	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hawktail_sessions_total",
			Help: "Total sessions by terminal state",
		},
		[]string{"state"},
	)

	// Store metrics
	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hawktail_store_records",
			Help: "Number of records held per store",
		},
		[]string{"store"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hawktail_queue_depth",
			Help: "Current depth of each store's intake queue",
		},
		[]string{"store"},
	)
)
