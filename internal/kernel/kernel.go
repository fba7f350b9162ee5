// Package kernel implements the scheduler: per-priority run queues, the
// runqueue bitmap, thread creation/teardown, and the status-transition
// state machine every other primitive (mutex, msg, flags, event) drives.
// Grounded on the original source's sched.cpp/thread.cpp, with the
// "per-tag state machine driven by completion events" shape of the
// teacher's internal/queue/runner.go TagState switch used as the Go
// idiom for SetStatus's transition table.
package kernel

import (
	"math/bits"
	"sync"

	"github.com/ehrlich-b/vcrtos/internal/config"
	"github.com/ehrlich-b/vcrtos/internal/interfaces"
	"github.com/ehrlich-b/vcrtos/internal/list"
	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// CreateParams bundles a thread's creation-time inputs.
type CreateParams struct {
	// Stack is the caller-owned backing store for this thread's
	// machine words. Its length determines how much headroom
	// FreeStack can report; the kernel never resizes it.
	Stack []uintptr

	Entry    func(arg any)
	Arg      any
	Priority int
	Name     string
	Flags    tcb.CreateFlags
}

// Kernel is the scheduler core. The zero value is not usable; construct
// with New.
type Kernel struct {
	mu sync.Mutex // models a global IRQ-disable critical section

	cfg    config.Config
	arch   interfaces.Arch
	log    interfaces.Logger
	obs    interfaces.Observer

	threads  []*tcb.TCB // index = pid.Index()
	runqueue []list.Ring[*tcb.TCB]
	bitmap   uint32

	active    *tcb.TCB
	activePID pid.PID

	contextSwitchRequest bool

	nextStackTag uintptr
}

// New constructs a Kernel bound to the given Arch collaborator. log and
// obs may be nil; nil is treated as a no-op implementation.
func New(cfg config.Config, arch interfaces.Arch, log interfaces.Logger, obs interfaces.Observer) *Kernel {
	if cfg.PriorityLevels <= 0 || cfg.PriorityLevels > 32 {
		cfg.PriorityLevels = config.DefaultPriorityLevels
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = config.DefaultMaxThreads
	}
	return &Kernel{
		cfg:      cfg,
		arch:     arch,
		log:      log,
		obs:      obs,
		threads:  make([]*tcb.TCB, cfg.MaxThreads),
		runqueue: make([]list.Ring[*tcb.TCB], cfg.PriorityLevels),
	}
}

func (k *Kernel) logf(level string, msg string, args ...any) {
	if k.log == nil {
		return
	}
	switch level {
	case "debug":
		k.log.Debug(msg, args...)
	case "info":
		k.log.Info(msg, args...)
	case "warn":
		k.log.Warn(msg, args...)
	case "error":
		k.log.Error(msg, args...)
	}
}

// critical runs fn with the kernel's critical-section lock held, the Go
// stand-in for a global IRQ-disable discipline: every
// primitive that touches scheduler state, a waiter list, a bitmap, or
// another thread's TCB fields enters this section. Unlike a
// raw IRQDisable/IRQRestore pair this composes safely across recursive
// calls made in this package because all such calls are funneled
// through the unexported *Locked variants below; callers never need to
// reason about reentrancy.
func (k *Kernel) critical(fn func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	fn()
}

// deBruijn32 is the classic De Bruijn multiply-and-shift lowest-set-bit
// table. Go's math/bits.TrailingZeros32
// already implements the equivalent operation in hardware-accelerated
// form; deBruijnLowestSetBit is kept as a direct expression of the
// trick for the case tests want to exercise the algorithm itself
// rather than the standard library's built-in.
var deBruijn32 = [32]uint{
	0, 1, 28, 2, 29, 14, 24, 3, 30, 22, 20, 15, 25, 17, 4, 8,
	31, 27, 13, 23, 21, 19, 16, 7, 26, 12, 18, 6, 11, 5, 10, 9,
}

// deBruijnLowestSetBit returns the index of the lowest set bit of x, or
// -1 if x is zero.
func deBruijnLowestSetBit(x uint32) int {
	if x == 0 {
		return -1
	}
	const multiplier = 0x077CB531
	return int(deBruijn32[((x&-x)*multiplier)>>27])
}

// pickNext returns the priority and TCB the bitmap currently says is
// next to run, or (0, nil, false) if the system is fully idle.
func (k *Kernel) pickNext() (int, *tcb.TCB, bool) {
	idx := bits.TrailingZeros32(k.bitmap)
	if idx >= len(k.runqueue) {
		return 0, nil, false
	}
	// deBruijnLowestSetBit is exercised directly in tests to keep this
	// algorithm under test coverage even though the hot path above uses
	// the standard library's equivalent intrinsic.
	head, ok := k.runqueue[idx].Head()
	if !ok {
		return 0, nil, false
	}
	return idx, head, true
}

func (k *Kernel) allocatePID() pid.PID {
	for i := 0; i < len(k.threads); i++ {
		if k.threads[i] == nil {
			return pid.First + pid.PID(i)
		}
	}
	return pid.Undef
}

// CreateThread carves out a new thread. Returns an error (rather than
// the original's null-TCB contract) on bad priority, no free PID, or an
// empty stack.
func (k *Kernel) CreateThread(p CreateParams) (*tcb.TCB, error) {
	if p.Priority < 0 || p.Priority >= k.cfg.PriorityLevels {
		return nil, newConfigError("CreateThread", ErrCodeBadPriority, "priority %d out of range [0,%d)", p.Priority, k.cfg.PriorityLevels)
	}
	if len(p.Stack) == 0 {
		return nil, newConfigError("CreateThread", ErrCodeStackTooSmall, "stack has no usable words")
	}

	var newTCB *tcb.TCB
	var created bool
	var needsSwitch, isISR bool
	k.critical(func() {
		newPID := k.allocatePID()
		if newPID == pid.Undef {
			return
		}

		stackmarker := p.Flags&tcb.FlagStackmarker != 0
		k.nextStackTag++
		stackStart := k.nextStackTag
		tcb.PaintStack(p.Stack, stackStart, 1, stackmarker)

		t := &tcb.TCB{
			Priority:    p.Priority,
			PID:         newPID,
			Name:        p.Name,
			StackStart:  stackStart,
			StackSize:   len(p.Stack),
			Stackmarker: stackmarker,
		}

		if k.arch != nil {
			t.StackPointer = k.arch.StackInit(p.Entry, p.Arg, stackStart, len(p.Stack))
		}

		k.threads[newPID.Index()] = t
		newTCB = t
		created = true

		if p.Flags&tcb.FlagSleeping != 0 {
			k.setStatusLocked(t, tcb.Sleeping)
		} else {
			k.setStatusLocked(t, tcb.Pending)
			if p.Flags&tcb.FlagWithoutYield == 0 {
				needsSwitch, isISR = k.evaluateSwitchLocked(p.Priority)
			}
		}
	})

	if !created {
		return nil, newConfigError("CreateThread", ErrCodeNoFreePID, "no free PID in [1,%d]", k.cfg.MaxThreads)
	}
	// Applied after the critical section has released its lock: arch
	// callbacks like YieldHigher may themselves call back into Run(),
	// which takes the same lock.
	k.applySwitchDecision(needsSwitch, isISR, p.Priority)
	k.logf("debug", "thread created", "pid", newTCB.PID, "priority", newTCB.Priority, "name", newTCB.Name)
	return newTCB, nil
}

// Thread looks up a live TCB by PID, or nil if none is installed there.
func (k *Kernel) Thread(p pid.PID) *tcb.TCB {
	if !p.Valid() {
		return nil
	}
	var t *tcb.TCB
	k.critical(func() { t = k.threads[p.Index()] })
	return t
}

// ActivePID returns the PID the scheduler currently considers running.
func (k *Kernel) ActivePID() pid.PID {
	var p pid.PID
	k.critical(func() { p = k.activePID })
	return p
}

// Active returns the TCB the scheduler currently considers running, or
// nil before the first Run.
func (k *Kernel) Active() *tcb.TCB {
	var t *tcb.TCB
	k.critical(func() { t = k.active })
	return t
}

// SetStatus is the only legal way to mutate a TCB's status. It is
// exported for primitives living in sibling packages
// (mutex, msg, flags, event); the kernel package itself always goes
// through setStatusLocked while already holding the critical section.
func (k *Kernel) SetStatus(t *tcb.TCB, newStatus tcb.Status) {
	k.critical(func() { k.setStatusLocked(t, newStatus) })
}

func (k *Kernel) setStatusLocked(t *tcb.TCB, newStatus tcb.Status) {
	old := t.Status
	wasRunnable := old.Runnable()
	willRunnable := newStatus.Runnable()

	switch {
	case willRunnable && !wasRunnable:
		t.RunqueueEntry = k.runqueue[t.Priority].RightPush(t)
		k.bitmap |= 1 << uint(t.Priority)
	case !willRunnable && wasRunnable:
		k.runqueue[t.Priority].LeftPop()
		t.RunqueueEntry = nil
		if k.runqueue[t.Priority].Count() == 0 {
			k.bitmap &^= 1 << uint(t.Priority)
		}
	}
	t.Status = newStatus

	if k.obs != nil && !willRunnable && wasRunnable {
		k.obs.ObserveBlock(t.PID, newStatus.String())
	}
}

// Run executes the scheduler's pick-next step, as if invoked from
// inside the context-switch trap").
func (k *Kernel) Run() {
	k.critical(func() {
		k.contextSwitchRequest = false

		priority, next, ok := k.pickNext()
		if !ok || next == k.active {
			return
		}

		if k.active != nil && k.active.Status == tcb.Running {
			k.setStatusLocked(k.active, tcb.Pending)
		}

		next.Status = tcb.Running
		next.Schedules++
		k.active = next
		k.activePID = next.PID

		if k.obs != nil {
			k.obs.ObserveSchedule(next.PID, priority)
		}
		k.logf("debug", "scheduled", "pid", next.PID, "priority", priority)
	})
}

// ContextSwitch requests a switch if the given priority is now the
// most urgent runnable one, or the current thread is no longer
// runnable"). Safe to
// call from any context that does not already hold the kernel's
// critical section.
func (k *Kernel) ContextSwitch(priorityToSwitch int) {
	var needsSwitch, isISR bool
	k.critical(func() { needsSwitch, isISR = k.evaluateSwitchLocked(priorityToSwitch) })
	k.applySwitchDecision(needsSwitch, isISR, priorityToSwitch)
}

// evaluateSwitchLocked decides whether a switch is needed, while the
// caller already holds the critical section. It must never itself call
// into the Arch collaborator: YieldHigher may re-enter the scheduler
// (e.g. to call Run), and the kernel's critical-section guard is not
// reentrant — critical sections must stay short and never nest.
// With no active thread (before the first Run, or after Exit) there is
// nothing to preempt, and no switch is requested.
func (k *Kernel) evaluateSwitchLocked(priorityToSwitch int) (needsSwitch, isISR bool) {
	if k.active == nil {
		return false, false
	}
	currentRunnable := k.active.Status.Runnable()
	needsSwitch = !currentRunnable
	if !needsSwitch && k.active != nil && priorityToSwitch < k.active.Priority {
		needsSwitch = true
	}
	if !needsSwitch {
		return false, false
	}
	isISR = k.arch != nil && k.arch.InISR()
	return true, isISR
}

// applySwitchDecision performs the side effect evaluateSwitchLocked
// decided on, after the critical section has already been released:
// either flag a deferred ISR-driven switch, or call the Arch
// collaborator's YieldHigher directly from thread context.
func (k *Kernel) applySwitchDecision(needsSwitch, isISR bool, priorityToSwitch int) {
	if !needsSwitch {
		return
	}
	if isISR {
		k.critical(func() { k.contextSwitchRequest = true })
		if k.obs != nil {
			k.obs.ObserveContextSwitchRequest(true)
		}
		return
	}
	if k.arch != nil {
		k.arch.YieldHigher()
	}
	if k.obs != nil {
		k.obs.ObserveContextSwitchRequest(false)
	}
}

// Yield performs round-robin rotation within the active thread's
// priority, then yields to the highest-priority runnable thread (a
// deferred switch request when called inside an ISR).
func (k *Kernel) Yield() {
	var priority int
	k.critical(func() {
		if k.active == nil {
			return
		}
		priority = k.active.Priority
		k.runqueue[priority].LeftPopRightPush()
	})
	k.applySwitchDecision(true, k.InISR(), priority)
}

// Sleep transitions the active thread to Sleeping; a no-op inside an
// ISR").
func (k *Kernel) Sleep() {
	if k.arch != nil && k.arch.InISR() {
		return
	}
	var priority int
	k.critical(func() {
		if k.active == nil {
			return
		}
		priority = k.active.Priority
		k.setStatusLocked(k.active, tcb.Sleeping)
	})
	k.ContextSwitch(priority)
}

// Wakeup returns 1 if target was Sleeping (now Pending, with a context
// switch requested at its priority), 0 if it existed but was not
// sleeping, -1 if no such thread").
func (k *Kernel) Wakeup(target pid.PID) int {
	var result int
	var priority int
	k.critical(func() {
		if !target.Valid() || target.Index() >= len(k.threads) || k.threads[target.Index()] == nil {
			result = -1
			return
		}
		t := k.threads[target.Index()]
		if t.Status != tcb.Sleeping {
			result = 0
			return
		}
		priority = t.Priority
		k.setStatusLocked(t, tcb.Pending)
		result = 1
	})
	if result == 1 {
		if k.obs != nil {
			k.obs.ObserveWake(target)
		}
		k.ContextSwitch(priority)
	}
	return result
}

// Exit removes the active thread from the PID table and the run queue,
// sets it Stopped, and calls the arch's never-returning
// switch-context-exit"). It does not return.
func (k *Kernel) Exit() {
	k.critical(func() {
		if k.active == nil {
			return
		}
		k.terminateLocked(k.active.PID)
		k.active = nil
		k.activePID = pid.Undef
	})
	if k.arch != nil {
		k.arch.SwitchContextExit()
	}
}

// Terminate removes another thread from the PID table and the run
// queue, setting it Stopped, and returns normally").
func (k *Kernel) Terminate(target pid.PID) {
	k.critical(func() { k.terminateLocked(target) })
}

func (k *Kernel) terminateLocked(target pid.PID) {
	if !target.Valid() {
		return
	}
	t := k.threads[target.Index()]
	if t == nil {
		return
	}
	if t.Status.Runnable() {
		k.runqueue[t.Priority].LeftPop()
		if k.runqueue[t.Priority].Count() == 0 {
			k.bitmap &^= 1 << uint(t.Priority)
		}
	}
	t.Status = tcb.Stopped
	t.RunqueueEntry = nil
	k.threads[target.Index()] = nil
}

// EndOfISR is the ISR-exit hook: if a context switch was requested
// while servicing the interrupt, trigger the deferred switch now.
func (k *Kernel) EndOfISR() {
	var requested bool
	k.critical(func() { requested = k.contextSwitchRequest })
	if requested && k.arch != nil {
		k.arch.YieldHigher()
	}
}

// Critical exposes the kernel's critical-section guard to sibling
// primitive packages (mutex, msg, flags, event) so their state
// transitions are serialized with the scheduler's own.
func (k *Kernel) Critical(fn func()) {
	k.critical(fn)
}

// InISR reports whether the bound Arch collaborator says the caller is
// currently executing in interrupt context.
func (k *Kernel) InISR() bool {
	return k.arch != nil && k.arch.InISR()
}

// RequestContextSwitch is ContextSwitch, exposed under the name the
// mutex/msg/flags packages call after their own state-changing critical
// section has already returned (never from inside one — see
// evaluateSwitchLocked's note on why the Arch callback must not nest
// inside the critical-section guard).
func (k *Kernel) RequestContextSwitch(priorityToSwitch int) {
	k.ContextSwitch(priorityToSwitch)
}

// Config returns the configuration this kernel was constructed with.
func (k *Kernel) Config() config.Config {
	return k.cfg
}

// Logger returns the bound logger, or nil.
func (k *Kernel) Logger() interfaces.Logger {
	return k.log
}

// Stats reports the schedule-count introspection data the original
// source exposes via get_thread_schedules_stat: Schedules counts the
// Runs that made the thread active. Runtime corresponds to
// get_thread_runtime_ticks, but this kernel keeps no tick count, so it
// is always zero.
type Stats struct {
	Schedules uint64
	Runtime   uint64
}

// Stats returns introspection stats for target, or the zero value and
// false if no such thread.
func (k *Kernel) Stats(target pid.PID) (Stats, bool) {
	var s Stats
	var ok bool
	k.critical(func() {
		if !target.Valid() {
			return
		}
		t := k.threads[target.Index()]
		if t == nil {
			return
		}
		s = Stats{Schedules: t.Schedules, Runtime: t.RuntimeTicks}
		ok = true
	})
	return s, ok
}
