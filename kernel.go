package vcrtos

import (
	"github.com/ehrlich-b/vcrtos/internal/config"
	"github.com/ehrlich-b/vcrtos/internal/interfaces"
	"github.com/ehrlich-b/vcrtos/internal/kernel"
	"github.com/ehrlich-b/vcrtos/internal/pid"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// Config mirrors the original source's compile-time kernel tuning
// knobs as runtime fields.
type Config = config.Config

// DefaultConfig returns the configuration the original source ships
// with out of the box.
func DefaultConfig() Config { return config.DefaultConfig() }

// Arch is the per-CPU collaborator a real board binds to actual
// registers and internal/archsim binds to parked goroutines.
type Arch = interfaces.Arch

// Logger is the leveled logging interface every kernel collaborator
// accepts.
type Logger = interfaces.Logger

// Kernel is the public handle to a running scheduler: thread table,
// run queues, and the primitives (Mutex, Msg, Flags, Event) that block
// and wake threads through it. The zero value is not usable; construct
// with NewKernel.
type Kernel struct {
	k       *kernel.Kernel
	metrics *Metrics
}

// NewKernel constructs a Kernel bound to arch. log and obs may be nil.
// Scheduler events are always recorded into a built-in Metrics,
// retrievable with Metrics(); if obs is non-nil they are also forwarded
// to it.
func NewKernel(cfg Config, arch Arch, log Logger, obs Observer) *Kernel {
	m := NewMetrics()
	combined := &combinedObserver{metrics: m, user: obs}
	return &Kernel{
		k:       kernel.New(cfg, arch, log, combined),
		metrics: m,
	}
}

// combinedObserver always records into the built-in Metrics and, if
// the caller supplied their own Observer, forwards to it too.
type combinedObserver struct {
	metrics *Metrics
	user    Observer
}

func (c *combinedObserver) ObserveSchedule(p pid.PID, priority int) {
	c.metrics.RecordSchedule()
	if c.user != nil {
		c.user.ObserveSchedule(p, priority)
	}
}

func (c *combinedObserver) ObserveBlock(p pid.PID, reason string) {
	for s := 0; s < numStatuses; s++ {
		if tcb.Status(s).String() == reason {
			c.metrics.RecordBlock(tcb.Status(s))
			break
		}
	}
	if c.user != nil {
		c.user.ObserveBlock(p, reason)
	}
}

func (c *combinedObserver) ObserveWake(p pid.PID) {
	c.metrics.RecordWake()
	if c.user != nil {
		c.user.ObserveWake(p)
	}
}

func (c *combinedObserver) ObserveContextSwitchRequest(fromISR bool) {
	c.metrics.RecordContextSwitchRequest(fromISR)
	if c.user != nil {
		c.user.ObserveContextSwitchRequest(fromISR)
	}
}

// Metrics returns this kernel's built-in scheduling metrics.
func (kn *Kernel) Metrics() *Metrics { return kn.metrics }

// Config returns the configuration this kernel was constructed with.
func (kn *Kernel) Config() Config { return kn.k.Config() }

// Run executes the scheduler's pick-next step. Arch bindings call this
// from their context-switch trap.
func (kn *Kernel) Run() { kn.k.Run() }

// ActivePID returns the PID the scheduler currently considers running.
func (kn *Kernel) ActivePID() PID { return kn.k.ActivePID() }

// Active returns the Thread the scheduler currently considers running,
// or nil before the first Run.
func (kn *Kernel) Active() *Thread {
	t := kn.k.Active()
	if t == nil {
		return nil
	}
	return &Thread{k: kn.k, t: t}
}

// Thread looks up a live thread by PID, or nil if none is installed
// there.
func (kn *Kernel) Thread(p PID) *Thread {
	t := kn.k.Thread(p)
	if t == nil {
		return nil
	}
	return &Thread{k: kn.k, t: t}
}

// InISR reports whether the bound Arch collaborator says the caller is
// currently executing in interrupt context.
func (kn *Kernel) InISR() bool { return kn.k.InISR() }

// EndOfISR is the ISR-exit hook: if a context switch was requested
// while servicing the interrupt, it triggers the deferred switch now.
func (kn *Kernel) EndOfISR() { kn.k.EndOfISR() }

// Terminate removes target from the PID table and run queue.
func (kn *Kernel) Terminate(target PID) { kn.k.Terminate(target) }

// Stats reports a thread's introspection counters: the schedule count,
// and Runtime, which is always zero because the kernel keeps no tick
// count.
type Stats = kernel.Stats
