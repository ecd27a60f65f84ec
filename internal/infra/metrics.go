package infra

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the sequencer, dispatcher and feed do.
// Uses atomic operations for thread-safety; Collect reads the same counters for Prometheus.
type Metrics struct {
	// Counters
	eventsProcessed atomic.Uint64
	commandsIssued  atomic.Uint64
	acksApplied     atomic.Uint64
	staleAcks       atomic.Uint64
	transportErrors atomic.Uint64
	feedReconnects  atomic.Uint64

	// Latency tracking (publish to applied)
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
	inflightCommands  atomic.Int32
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordEvent records an applied event with its queue latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordCommand records a command handed to the dispatcher.
func (m *Metrics) RecordCommand() {
	m.commandsIssued.Add(1)
	m.inflightCommands.Add(1)
}

// RecordCommandDone marks a dispatched command as finished.
func (m *Metrics) RecordCommandDone() {
	m.inflightCommands.Add(-1)
}

// RecordAck records an acknowledgement applied to the active order.
func (m *Metrics) RecordAck() {
	m.acksApplied.Add(1)
}

// RecordStaleAck records an acknowledgement that did not match the active order.
func (m *Metrics) RecordStaleAck() {
	m.staleAcks.Add(1)
}

// RecordError records a transport failure.
func (m *Metrics) RecordError() {
	m.transportErrors.Add(1)
}

// RecordReconnect records a feed reconnect attempt.
func (m *Metrics) RecordReconnect() {
	m.feedReconnects.Add(1)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed   uint64
	CommandsIssued    uint64
	AcksApplied       uint64
	StaleAcks         uint64
	TransportErrors   uint64
	FeedReconnects    uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	InflightCommands  int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:   m.eventsProcessed.Load(),
		CommandsIssued:    m.commandsIssued.Load(),
		AcksApplied:       m.acksApplied.Load(),
		StaleAcks:         m.staleAcks.Load(),
		TransportErrors:   m.transportErrors.Load(),
		FeedReconnects:    m.feedReconnects.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		InflightCommands:  m.inflightCommands.Load(),
		Timestamp:         time.Now(),
	}
}

var (
	descEvents = prometheus.NewDesc("warrior_events_processed_total",
		"Events applied by the sequencer.", nil, nil)
	descCommands = prometheus.NewDesc("warrior_commands_issued_total",
		"Order commands handed to the dispatcher.", nil, nil)
	descAcks = prometheus.NewDesc("warrior_acks_applied_total",
		"Order acknowledgements applied to the active order.", nil, nil)
	descStaleAcks = prometheus.NewDesc("warrior_acks_discarded_total",
		"Order acknowledgements discarded because the id did not match.", nil, nil)
	descErrors = prometheus.NewDesc("warrior_transport_errors_total",
		"Failed or timed out order commands.", nil, nil)
	descReconnects = prometheus.NewDesc("warrior_feed_reconnects_total",
		"Feed reconnect attempts.", nil, nil)
	descLatency = prometheus.NewDesc("warrior_event_latency_avg_seconds",
		"Average publish to apply latency.", nil, nil)
	descConnections = prometheus.NewDesc("warrior_feed_connections",
		"Open feed connections.", nil, nil)
	descInflight = prometheus.NewDesc("warrior_inflight_commands",
		"Order commands waiting for the transport.", nil, nil)
)

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descEvents
	ch <- descCommands
	ch <- descAcks
	ch <- descStaleAcks
	ch <- descErrors
	ch <- descReconnects
	ch <- descLatency
	ch <- descConnections
	ch <- descInflight
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	s := m.Snapshot()
	ch <- prometheus.MustNewConstMetric(descEvents, prometheus.CounterValue, float64(s.EventsProcessed))
	ch <- prometheus.MustNewConstMetric(descCommands, prometheus.CounterValue, float64(s.CommandsIssued))
	ch <- prometheus.MustNewConstMetric(descAcks, prometheus.CounterValue, float64(s.AcksApplied))
	ch <- prometheus.MustNewConstMetric(descStaleAcks, prometheus.CounterValue, float64(s.StaleAcks))
	ch <- prometheus.MustNewConstMetric(descErrors, prometheus.CounterValue, float64(s.TransportErrors))
	ch <- prometheus.MustNewConstMetric(descReconnects, prometheus.CounterValue, float64(s.FeedReconnects))
	ch <- prometheus.MustNewConstMetric(descLatency, prometheus.GaugeValue, float64(s.AvgLatencyNs)/float64(time.Second))
	ch <- prometheus.MustNewConstMetric(descConnections, prometheus.GaugeValue, float64(s.ActiveConnections))
	ch <- prometheus.MustNewConstMetric(descInflight, prometheus.GaugeValue, float64(s.InflightCommands))
}
