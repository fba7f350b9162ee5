package vcrtos

import "testing"

func TestNewKernelConfig(t *testing.T) {
	cfg := DefaultConfig()
	kn, _, _ := NewTestKernel(cfg)
	if got := kn.Config(); got != cfg {
		t.Fatalf("Config() = %+v, want %+v", got, cfg)
	}
}

func TestKernelActivePIDBeforeRunIsUndef(t *testing.T) {
	kn, _, _ := NewTestKernel(DefaultConfig())
	if kn.ActivePID() != PIDUndef {
		t.Fatalf("ActivePID() before Run() = %d, want PIDUndef", kn.ActivePID())
	}
	if kn.Active() != nil {
		t.Fatal("Active() before Run() should be nil")
	}
}

func TestKernelRunPicksHighestPriority(t *testing.T) {
	kn, _, _ := NewTestKernel(DefaultConfig())
	low := newScenarioThread(t, kn, 10, "low", FlagWithoutYield)
	high := newScenarioThread(t, kn, 2, "high", FlagWithoutYield)

	kn.Run()
	if kn.ActivePID() != high.PID() {
		t.Fatalf("ActivePID() = %d, want high (%d)", kn.ActivePID(), high.PID())
	}
	active := kn.Active()
	if active == nil || active.PID() != high.PID() {
		t.Fatalf("Active() = %v, want high", active)
	}
	_ = low
}

func TestKernelThreadLookup(t *testing.T) {
	kn, _, _ := NewTestKernel(DefaultConfig())
	th := newScenarioThread(t, kn, 5, "solo", FlagWithoutYield)

	got := kn.Thread(th.PID())
	if got == nil || got.PID() != th.PID() {
		t.Fatalf("Thread(%d) = %v, want a handle to solo", th.PID(), got)
	}
	if kn.Thread(PID(999)) != nil {
		t.Fatal("Thread() for an unused PID should be nil")
	}
}

func TestKernelInISRAndEndOfISR(t *testing.T) {
	kn, arch, _ := NewTestKernel(DefaultConfig())
	if kn.InISR() {
		t.Fatal("InISR() should be false before EnterISR")
	}
	arch.EnterISR()
	if !kn.InISR() {
		t.Fatal("InISR() should be true after EnterISR")
	}
	arch.ExitISR()
	kn.EndOfISR() // should not panic when no switch was requested
	if kn.InISR() {
		t.Fatal("InISR() should be false after ExitISR")
	}
}

func TestKernelTerminateRemovesThread(t *testing.T) {
	kn, _, _ := NewTestKernel(DefaultConfig())
	th := newScenarioThread(t, kn, 5, "doomed", FlagWithoutYield)

	kn.Terminate(th.PID())
	if kn.Thread(th.PID()) != nil {
		t.Fatal("Thread() should be nil after Terminate")
	}
}

func TestKernelMetricsTracksSchedulesAndBlocks(t *testing.T) {
	kn, _, _ := NewTestKernel(DefaultConfig())
	th := newScenarioThread(t, kn, 5, "worker", FlagWithoutYield)

	kn.Run()
	kn.SetStatus(th, MutexBlocked)

	snap := kn.Metrics().Snapshot()
	if snap.Schedules == 0 {
		t.Fatal("Schedules should be nonzero after at least one Run()")
	}
	if got := snap.BlockReasons[MutexBlocked.String()]; got != 1 {
		t.Fatalf("BlockReasons[%s] = %d, want 1", MutexBlocked, got)
	}
}

// recordingObserver captures every callback it receives, used to
// verify NewKernel forwards to a caller-supplied Observer in addition
// to its own built-in Metrics.
type recordingObserver struct {
	scheduled int
	blocked   int
	woken     int
	switches  int
}

func (r *recordingObserver) ObserveSchedule(PID, int)         { r.scheduled++ }
func (r *recordingObserver) ObserveBlock(PID, string)         { r.blocked++ }
func (r *recordingObserver) ObserveWake(PID)                  { r.woken++ }
func (r *recordingObserver) ObserveContextSwitchRequest(bool) { r.switches++ }

func TestNewKernelForwardsToUserObserver(t *testing.T) {
	arch := NewMockArch()
	obs := &recordingObserver{}
	kn := NewKernel(DefaultConfig(), arch, NewMockLogger(), obs)
	arch.RunFn = kn.Run

	newScenarioThread(t, kn, 5, "worker", FlagWithoutYield)
	kn.Run()

	if obs.scheduled == 0 {
		t.Fatal("user Observer.ObserveSchedule should have been called")
	}
	if kn.Metrics().Snapshot().Schedules == 0 {
		t.Fatal("built-in Metrics should still record alongside the user Observer")
	}
}
