// Package archsim is a reference Arch binding for development, tests,
// and the demo binary: it stands in for real Cortex-M exception-frame
// construction and PendSV trapping with parked goroutines and channels
// — one pinned goroutine per simulated thread, with OS-thread affinity
// available via golang.org/x/sys/unix.
//
// StackInit cannot itself spawn a goroutine: the kernel calls it before
// a TCB's PID is installed in the thread table, and before any code
// outside the kernel even knows which PID was assigned. Instead it
// returns a synthetic monotonically increasing token standing in for a
// saved stack pointer. Spawn, called by the demo/test driver once
// CreateThread has returned a TCB, does the real work of wiring a
// resume channel and starting the goroutine that runs the thread's
// entry function.
package archsim

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Sim is a single-process Arch binding. The zero value is not usable;
// construct with New.
type Sim struct {
	runFn func() // invoked to re-enter the scheduler's pick-next step

	mu          sync.Mutex
	inISR       bool
	irqState    uint32
	cpuAffinity int // <0 disables pinning

	nextToken uintptr

	resumers map[uintptr]chan struct{} // stack token -> this thread's resume gate
	started  map[uintptr]bool
}

// New constructs a Sim bound to runFn, the scheduler's Run method. runFn
// is called synchronously from YieldHigher and EndOfISR, from whatever
// goroutine happens to be running a thread at the time (exactly as a
// real PendSV handler runs on whatever context trapped into it).
func New(runFn func()) *Sim {
	return &Sim{
		runFn:       runFn,
		cpuAffinity: -1,
		resumers:    make(map[uintptr]chan struct{}),
		started:     make(map[uintptr]bool),
	}
}

// SetCPUAffinity pins every goroutine this Sim spawns to the given CPU
// index, best-effort: affinity is a scheduling hint here, not a
// correctness requirement, so a failure is not fatal. Call before any
// Spawn.
func (s *Sim) SetCPUAffinity(cpu int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpuAffinity = cpu
}

// StackInit returns a synthetic stack-pointer token. entry and arg are
// stashed nowhere here; the caller must hand them to Spawn once it has
// a PID to associate the goroutine with. size is accepted only to
// satisfy the Arch interface — archsim does not paint or bound real
// stack memory itself (internal/tcb already does that independently of
// the Arch binding).
func (s *Sim) StackInit(entry func(arg any), arg any, stackStart uintptr, size int) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextToken++
	token := stackStart + s.nextToken
	s.resumers[token] = make(chan struct{}, 1)
	return token
}

// Spawn starts the goroutine backing the thread whose stack pointer is
// token (the value StackInit returned for it). The goroutine pins
// itself to the configured CPU affinity, blocks on its resume gate, and
// calls entry exactly once it is first let through. A real board has no
// equivalent call: this exists only because a simulated thread needs an
// actual goroutine, and the kernel's StackInit hook fires before a PID
// is known.
func (s *Sim) Spawn(token uintptr, entry func()) {
	s.mu.Lock()
	gate, ok := s.resumers[token]
	already := s.started[token]
	if ok && !already {
		s.started[token] = true
	}
	affinity := s.cpuAffinity
	s.mu.Unlock()

	if !ok || already {
		return
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if affinity >= 0 {
			var mask unix.CPUSet
			mask.Set(affinity)
			_ = unix.SchedSetaffinity(0, &mask) // best-effort, not fatal
		}

		<-gate
		entry()
	}()
}

// Resume lets the goroutine parked behind token proceed. It is the
// simulated equivalent of a real context-switch trap restoring that
// thread's saved registers and returning from exception; called by
// whichever goroutine is driving the scheduler once Run has picked
// token's thread as the new Active.
func (s *Sim) Resume(token uintptr) {
	s.mu.Lock()
	gate := s.resumers[token]
	s.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case gate <- struct{}{}:
	default:
	}
}

// YieldHigher re-enters the scheduler's Run synchronously, exactly as a
// real PendSV handler would. It is called strictly outside the
// kernel's critical section (internal/kernel's evaluateSwitchLocked /
// applySwitchDecision split guarantees this), so re-entering Run here
// never deadlocks against the lock the caller just released.
func (s *Sim) YieldHigher() {
	s.runFn()
}

// SwitchContextExit never returns: it parks the calling goroutine
// forever, the simulated equivalent of a thread whose exception frame
// will never again be restored.
func (s *Sim) SwitchContextExit() {
	select {}
}

// IRQDisable sets a simulated IRQ-disabled flag and returns its
// previous value; the single-process simulation has no real interrupts
// to mask, but keeps the flag so IRQRestore/IRQEnable observe a
// consistent state.
func (s *Sim) IRQDisable() uint32 {
	return atomic.SwapUint32(&s.irqState, 1)
}

// IRQRestore restores a previously saved state from IRQDisable.
func (s *Sim) IRQRestore(prev uint32) {
	atomic.StoreUint32(&s.irqState, prev)
}

// IRQEnable unconditionally clears the simulated IRQ-disable state.
func (s *Sim) IRQEnable() {
	atomic.StoreUint32(&s.irqState, 0)
}

// InISR reports whether EnterISR/ExitISR currently bracket the caller.
func (s *Sim) InISR() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inISR
}

// EnterISR marks the simulation as executing in interrupt context,
// for test/demo code driving SendFromISR-shaped scenarios. There is no
// real interrupt controller to model here, so entry/exit is explicit.
func (s *Sim) EnterISR() {
	s.mu.Lock()
	s.inISR = true
	s.mu.Unlock()
}

// ExitISR clears interrupt-context state and runs EndOfISR's deferred
// switch if one was requested while servicing it.
func (s *Sim) ExitISR(endOfISR func()) {
	s.mu.Lock()
	s.inISR = false
	s.mu.Unlock()
	endOfISR()
}

// TriggerPendSV is a no-op in this simulation: YieldHigher already
// performs the equivalent synchronous re-entry, so there is no separate
// deferred-exception state to arm.
func (s *Sim) TriggerPendSV() {}

// EndOfISR is unused by archsim directly — callers use ExitISR, which
// takes the kernel's EndOfISR as a parameter so the simulation doesn't
// need to hold a reference back to the kernel. It is implemented here
// only to satisfy the Arch interface for bindings that call it
// directly instead of through ExitISR.
func (s *Sim) EndOfISR() {}
