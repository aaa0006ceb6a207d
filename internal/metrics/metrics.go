// Package metrics exposes the Synchronizer's Prometheus instrumentation.
// It is optional: a Runtime with no Metrics attached simply skips every
// call, so embedders that don't care about observability pay nothing for
// it (spec §9's ambient, not domain, concern).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jabolina/go-sync/internal/protocol"
)

// Metrics bundles every counter/gauge/histogram the runtime and façade
// report against. Construct once per process with New and pass the same
// registry to an HTTP handler if the embedder wants to serve /metrics.
type Metrics struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	channelsAdded    prometheus.Counter
	channelsRemoved  prometheus.Counter
	batchSize        prometheus.Histogram
	heartbeatsSent   prometheus.Counter
	pendingWaiters   prometheus.Gauge
}

// New registers every metric against reg and returns the bundle. Passing
// prometheus.DefaultRegisterer matches the package-level convenience most
// of the examples use; tests should pass a fresh prometheus.NewRegistry()
// instead to avoid cross-test collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gosync",
			Name:      "messages_sent_total",
			Help:      "Messages sent by wire type.",
		}, []string{"type"}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gosync",
			Name:      "messages_received_total",
			Help:      "Messages received by wire type.",
		}, []string{"type"}),
		channelsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gosync",
			Name:      "channels_added_total",
			Help:      "Channels reported by an adapter as pending.",
		}),
		channelsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gosync",
			Name:      "channels_removed_total",
			Help:      "Channels torn down, by loss or local stop.",
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gosync",
			Name:      "outbound_batch_messages",
			Help:      "Number of messages folded into one outbound batch frame.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}),
		heartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gosync",
			Name:      "ephemeral_heartbeats_sent_total",
			Help:      "Ephemeral heartbeat frames sent.",
		}),
		pendingWaiters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gosync",
			Name:      "wait_for_sync_pending",
			Help:      "Number of waitForSync callers still blocked.",
		}),
	}
}

// MessageSent records one outbound message of kind.
func (m *Metrics) MessageSent(kind protocol.Type) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(kind.String()).Inc()
}

// MessageReceived records one inbound message of kind.
func (m *Metrics) MessageReceived(kind protocol.Type) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(kind.String()).Inc()
}

// ChannelAdded records a newly reported pending channel.
func (m *Metrics) ChannelAdded() {
	if m == nil {
		return
	}
	m.channelsAdded.Inc()
}

// ChannelRemoved records a torn-down channel.
func (m *Metrics) ChannelRemoved() {
	if m == nil {
		return
	}
	m.channelsRemoved.Inc()
}

// BatchFlushed records how many messages one outbound envelope folded
// together (1 for a bare message, N for a protocol.Batch).
func (m *Metrics) BatchFlushed(size int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}

// HeartbeatSent records one ephemeral heartbeat frame going out.
func (m *Metrics) HeartbeatSent() {
	if m == nil {
		return
	}
	m.heartbeatsSent.Inc()
}

// SetPendingWaiters reports the current count of blocked waitForSync
// callers.
func (m *Metrics) SetPendingWaiters(n int) {
	if m == nil {
		return
	}
	m.pendingWaiters.Set(float64(n))
}
