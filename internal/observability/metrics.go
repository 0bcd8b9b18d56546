// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Chain metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec
	ChangeCalls    *prometheus.CounterVec

	// Pinning metrics
	PinsTotal  *prometheus.CounterVec
	PinLatency prometheus.Histogram

	// Marketplace metrics
	MintsTotal     *prometheus.CounterVec
	ApprovalsTotal prometheus.Counter
	PurchasesTotal prometheus.Counter

	// Indexer metrics
	IndexerSyncsTotal   *prometheus.CounterVec
	IndexerSyncDuration prometheus.Histogram
	ClassesIndexed      prometheus.Gauge
	SellerCandidates    prometheus.Gauge

	// API metrics
	HTTPRequestDuration *prometheus.HistogramVec
	WSClientsConnected  prometheus.Gauge

	// Health metrics
	LastSuccessfulSync prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "near_sft_market"
	}

	return &Metrics{
		// Chain metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "near",
			Name:      "rpc_call_latency_seconds",
			Help:      "NEAR RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "near",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of NEAR RPC call errors by method",
		}, []string{"method"}),
		ChangeCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "near",
			Name:      "change_calls_total",
			Help:      "Total number of submitted change calls by contract method and status",
		}, []string{"method", "status"}),

		// Pinning metrics
		PinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "pins_total",
			Help:      "Total number of pin uploads by kind and status",
		}, []string{"kind", "status"}),
		PinLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "pin_latency_seconds",
			Help:      "Pin upload latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Marketplace metrics
		MintsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "mints_total",
			Help:      "Total number of mint operations by kind (new_class, supply_increase)",
		}, []string{"kind"}),
		ApprovalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "approvals_total",
			Help:      "Total number of marketplace approvals submitted",
		}),
		PurchasesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "purchases_total",
			Help:      "Total number of marketplace purchases submitted",
		}),

		// Indexer metrics
		IndexerSyncsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "syncs_total",
			Help:      "Total number of indexer sync runs by status",
		}, []string{"status"}),
		IndexerSyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "sync_duration_seconds",
			Help:      "Indexer sync duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ClassesIndexed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "classes_indexed",
			Help:      "Number of token classes in the local index",
		}),
		SellerCandidates: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "seller_candidates",
			Help:      "Number of seller candidate accounts observed",
		}),

		// API metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients_connected",
			Help:      "Number of connected WebSocket event subscribers",
		}),

		// Health metrics
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of last successful indexer sync",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCCall records RPC call latency and errors.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordChangeCall records a submitted change call.
func RecordChangeCall(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ChangeCalls.WithLabelValues(method, status).Inc()
}

// RecordPin records a pin upload.
func RecordPin(kind string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.PinsTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.PinLatency.Observe(seconds)
}

// RecordMint records a mint by kind (new_class or supply_increase).
func RecordMint(kind string) {
	DefaultMetrics.MintsTotal.WithLabelValues(kind).Inc()
}

// RecordApproval increments the approvals counter.
func RecordApproval() {
	DefaultMetrics.ApprovalsTotal.Inc()
}

// RecordPurchase increments the purchases counter.
func RecordPurchase() {
	DefaultMetrics.PurchasesTotal.Inc()
}

// RecordIndexerSync records an indexer sync run.
func RecordIndexerSync(seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.IndexerSyncsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.IndexerSyncDuration.Observe(seconds)
}

// UpdateIndexSizes updates the index size gauges.
func UpdateIndexSizes(classes, sellerCandidates int) {
	DefaultMetrics.ClassesIndexed.Set(float64(classes))
	DefaultMetrics.SellerCandidates.Set(float64(sellerCandidates))
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(path, method, status string, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(path, method, status).Observe(seconds)
}

// WSClientConnected increments the connected WebSocket clients gauge.
func WSClientConnected() {
	DefaultMetrics.WSClientsConnected.Inc()
}

// WSClientDisconnected decrements the connected WebSocket clients gauge.
func WSClientDisconnected() {
	DefaultMetrics.WSClientsConnected.Dec()
}

// StartUptimeTracking increments the uptime counter once per second until
// the context is canceled.
func StartUptimeTracking(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()
}
