package infra

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_RecordEvent(t *testing.T) {
	m := NewMetrics()

	m.RecordEvent(1000)
	m.RecordEvent(2000)
	m.RecordEvent(3000)

	snap := m.Snapshot()

	if snap.EventsProcessed != 3 {
		t.Errorf("Expected 3 events, got %d", snap.EventsProcessed)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Connections(t *testing.T) {
	m := NewMetrics()

	m.IncrementConnections()
	m.IncrementConnections()
	m.IncrementConnections()

	snap := m.Snapshot()
	if snap.ActiveConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", snap.ActiveConnections)
	}

	m.DecrementConnections()
	snap = m.Snapshot()
	if snap.ActiveConnections != 2 {
		t.Errorf("Expected 2 connections, got %d", snap.ActiveConnections)
	}
}

func TestMetrics_Commands(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand()
	m.RecordCommand()
	m.RecordCommandDone()

	snap := m.Snapshot()
	if snap.CommandsIssued != 2 {
		t.Errorf("Expected 2 commands, got %d", snap.CommandsIssued)
	}
	if snap.InflightCommands != 1 {
		t.Errorf("Expected 1 in-flight command, got %d", snap.InflightCommands)
	}
}

func TestMetrics_Collector(t *testing.T) {
	m := NewMetrics()
	m.RecordStaleAck()
	m.RecordStaleAck()
	m.RecordAck()

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(m); err != nil {
		t.Fatalf("register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				got[mf.GetName()] = c.GetValue()
			}
		}
	}

	if got["warrior_acks_discarded_total"] != 2 {
		t.Errorf("Expected 2 discarded acks, got %v", got["warrior_acks_discarded_total"])
	}
	if got["warrior_acks_applied_total"] != 1 {
		t.Errorf("Expected 1 applied ack, got %v", got["warrior_acks_applied_total"])
	}
	if len(families) != 9 {
		t.Errorf("Expected 9 metric families, got %d", len(families))
	}
}
