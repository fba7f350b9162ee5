package vcrtos

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// numStatuses sizes the per-status counters below; it must stay in
// sync with the number of tcb.Status values.
const numStatuses = 12

// Metrics tracks scheduler activity for introspection and tuning using
// an atomic-counters-plus-Snapshot shape: schedule events,
// context-switch requests (split by thread-context vs. deferred
// ISR-context), and a histogram of why
// threads blocked.
type Metrics struct {
	Schedules                  atomic.Uint64 // total Run() promotions to a new active thread
	ContextSwitchRequests      atomic.Uint64 // total ContextSwitch calls that decided a switch was needed
	ContextSwitchRequestsISR   atomic.Uint64 // subset of the above deferred because InISR() was true
	Wakes                      atomic.Uint64 // total Wakeup calls that actually woke a sleeping thread

	// BlockReasons[s] counts transitions into tcb.Status(s) for s < Running.
	BlockReasons [numStatuses]atomic.Uint64

	StartTime atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSchedule records one Run() promotion.
func (m *Metrics) RecordSchedule() { m.Schedules.Add(1) }

// RecordContextSwitchRequest records one ContextSwitch decision.
func (m *Metrics) RecordContextSwitchRequest(fromISR bool) {
	m.ContextSwitchRequests.Add(1)
	if fromISR {
		m.ContextSwitchRequestsISR.Add(1)
	}
}

// RecordWake records one successful Wakeup.
func (m *Metrics) RecordWake() { m.Wakes.Add(1) }

// RecordBlock records a thread transitioning to a blocked status.
func (m *Metrics) RecordBlock(s tcb.Status) {
	if int(s) < 0 || int(s) >= numStatuses {
		return
	}
	m.BlockReasons[s].Add(1)
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to retain
// and print without further synchronization.
type MetricsSnapshot struct {
	Schedules                uint64
	ContextSwitchRequests    uint64
	ContextSwitchRequestsISR uint64
	Wakes                    uint64
	BlockReasons             map[string]uint64
	UptimeNs                 uint64
}

// Snapshot creates a point-in-time copy of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Schedules:                m.Schedules.Load(),
		ContextSwitchRequests:    m.ContextSwitchRequests.Load(),
		ContextSwitchRequestsISR: m.ContextSwitchRequestsISR.Load(),
		Wakes:                    m.Wakes.Load(),
		BlockReasons:             make(map[string]uint64, numStatuses),
	}

	for s := 0; s < numStatuses; s++ {
		if count := m.BlockReasons[s].Load(); count > 0 {
			snap.BlockReasons[tcb.Status(s).String()] = count
		}
	}

	start := m.StartTime.Load()
	snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	return snap
}

// Reset clears all counters (useful for testing).
func (m *Metrics) Reset() {
	m.Schedules.Store(0)
	m.ContextSwitchRequests.Store(0)
	m.ContextSwitchRequestsISR.Store(0)
	m.Wakes.Store(0)
	for i := range m.BlockReasons {
		m.BlockReasons[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
}

// Observer allows pluggable scheduler instrumentation, grounded on the
// teacher's metrics.go Observer/NoOpObserver pair and reshaped to the
// internal/interfaces.Observer surface every kernel primitive calls.
type Observer interface {
	ObserveSchedule(p pid.PID, priority int)
	ObserveBlock(p pid.PID, reason string)
	ObserveWake(p pid.PID)
	ObserveContextSwitchRequest(fromISR bool)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSchedule(pid.PID, int)             {}
func (NoOpObserver) ObserveBlock(pid.PID, string)             {}
func (NoOpObserver) ObserveWake(pid.PID)                      {}
func (NoOpObserver) ObserveContextSwitchRequest(bool)       {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSchedule(pid.PID, int) { o.metrics.RecordSchedule() }
func (o *MetricsObserver) ObserveBlock(_ pid.PID, reason string) {
	for s := 0; s < numStatuses; s++ {
		if tcb.Status(s).String() == reason {
			o.metrics.RecordBlock(tcb.Status(s))
			return
		}
	}
}
func (o *MetricsObserver) ObserveWake(pid.PID)                    { o.metrics.RecordWake() }
func (o *MetricsObserver) ObserveContextSwitchRequest(fromISR bool) {
	o.metrics.RecordContextSwitchRequest(fromISR)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = NoOpObserver{}
)
