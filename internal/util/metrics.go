package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order operations",
	}, []string{"operation", "reason"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"to"})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of deleted orders",
	})

	StockReservedUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reserved_units_total",
		Help: "Units of stock reserved by orders",
	}, []string{"product_code"})

	StockClampedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_clamped_total",
		Help: "Stock adjustments that would have gone below zero and were clamped",
	}, []string{"product_code"})

	CreateOrderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "create_order_latency_seconds",
		Help:    "Latency of the order creation protocol including persistence",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotPersistLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_persist_latency_seconds",
		Help:    "Latency of snapshot writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	SnapshotPersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_persist_failures_total",
		Help: "Total number of failed snapshot writes",
	}, []string{"backend"})

	SnapshotBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_size_bytes",
		Help: "Size of the most recent engine snapshot",
	})

	EventsPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_publish_failures_total",
		Help: "Total number of order events that could not be published",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
