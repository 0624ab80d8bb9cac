// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package metrics provides Prometheus instrumentation for the exporter.
// All metrics are registered at package init via promauto and exposed
// via the /actuator/prometheus endpoint. Per-destination gauges are
// GaugeVecs keyed by (queue_name|exchange_name, environment, region);
// WithLabelValues(...).Set(...) is the idempotent upsert the metrics
// publisher component needs — the first call for a label set creates
// the series, every later call just overwrites its value.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueMessagesInQueue tracks the latest messagesInQueue sample per queue.
	QueueMessagesInQueue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_messages_in_queue",
		Help: "Number of messages currently sitting in the queue (latest sample).",
	}, []string{"queue_name", "environment", "region"})

	// QueueMessagesInFlight tracks the latest messagesInFlight sample per queue.
	QueueMessagesInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_messages_in_flight",
		Help: "Number of messages delivered but not yet acknowledged (latest sample).",
	}, []string{"queue_name", "environment", "region"})

	// QueueMessagesSent reports the latest window's sent count. Exposed
	// as a gauge, not a counter: upstream supplies a windowed rate, not
	// a monotonic total.
	QueueMessagesSent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_messages_sent",
		Help: "Messages sent to the queue during the last stats window (gauge, not cumulative).",
	}, []string{"queue_name", "environment", "region"})

	// QueueMessagesReceived reports the latest window's received count.
	QueueMessagesReceived = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_messages_received",
		Help: "Messages received from the queue during the last stats window (gauge, not cumulative).",
	}, []string{"queue_name", "environment", "region"})

	// QueueMessagesAcked reports the latest window's acked count.
	QueueMessagesAcked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_messages_acked",
		Help: "Messages acknowledged on the queue during the last stats window (gauge, not cumulative).",
	}, []string{"queue_name", "environment", "region"})

	// QueueMetadata carries queue attributes as labels; value is always 1.
	QueueMetadata = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue",
		Help: "Presence and attributes of a queue (value always 1). Labels carry fifo/dlq/delivery/ttl state.",
	}, []string{"queue_name", "environment", "region", "is_fifo", "is_dlq", "max_deliveries", "ttl"})

	// QueueHealthScore exposes the composite QueueHealth score in [0,1].
	QueueHealthScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_queue_health_score",
		Help: "Composite queue health score in the range 0-1 (1 is healthiest).",
	}, []string{"queue_name", "environment", "region"})

	// ExchangeMessagesPublished reports the latest window's publish count.
	ExchangeMessagesPublished = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_exchange_messages_published",
		Help: "Messages published to the exchange during the last stats window (gauge, not cumulative).",
	}, []string{"exchange_name", "environment", "region"})

	// ExchangeMessagesDelivered reports the latest window's delivery count.
	ExchangeMessagesDelivered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anypoint_mq_exchange_messages_delivered",
		Help: "Messages delivered from the exchange during the last stats window (gauge, not cumulative).",
	}, []string{"exchange_name", "environment", "region"})

	// ScrapeErrorsTotal counts per-cause collection failures that were
	// isolated and did not abort their enclosing cycle.
	ScrapeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_errors_total",
		Help: "Count of isolated collection failures by cause.",
	}, []string{"cause"})

	// ScrapeDuration records how long a full collection cycle took.
	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anypoint_mq_scrape_duration_seconds",
		Help:    "Duration of a full collection cycle across all environments and regions.",
		Buckets: prometheus.DefBuckets,
	})

	// DiscoveryDuration records how long a tenant/environment discovery pass took.
	DiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anypoint_mq_discovery_duration_seconds",
		Help:    "Duration of a tenant/environment discovery pass.",
		Buckets: prometheus.DefBuckets,
	})

	// LastScrapeTimestamp is the Unix time in seconds of the last
	// collection cycle that completed without being fully failed.
	LastScrapeTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "last_scrape_timestamp_seconds",
		Help: "Unix timestamp of the last collection cycle that was not fully failed.",
	})

	// NotificationsTotal counts dispatch attempts by outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification dispatch attempts by monitor, channel, channel type, and outcome.",
	}, []string{"monitor", "channel", "type", "status"})

	// NotificationsFailedTotal counts failed dispatches by error class.
	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Failed notification dispatches by monitor, channel, channel type, and error class.",
	}, []string{"monitor", "channel", "type", "error"})

	// DiscoveredTenants reports the tenant count in the latest snapshot.
	DiscoveredTenants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anypoint_mq_discovered_tenants",
		Help: "Number of tenants (root plus members) in the latest discovery snapshot.",
	})

	// DiscoveredEnvironments reports the environment count in the latest snapshot.
	DiscoveredEnvironments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anypoint_mq_discovered_environments",
		Help: "Number of environments across all tenants in the latest discovery snapshot.",
	})
)
