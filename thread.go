package vcrtos

import (
	"github.com/ehrlich-b/vcrtos/internal/kernel"
	"github.com/ehrlich-b/vcrtos/internal/tcb"
)

// PID already aliases internal/pid.PID (see constants.go).

// Status is a thread's scheduling state; statuses >= Running are
// runnable, lower values are blocked.
type Status = tcb.Status

const (
	Stopped        = tcb.Stopped
	Sleeping       = tcb.Sleeping
	MutexBlocked   = tcb.MutexBlocked
	ReceiveBlocked = tcb.ReceiveBlocked
	SendBlocked    = tcb.SendBlocked
	ReplyBlocked   = tcb.ReplyBlocked
	FlagBlockedAny = tcb.FlagBlockedAny
	FlagBlockedAll = tcb.FlagBlockedAll
	MboxBlocked    = tcb.MboxBlocked
	CondBlocked    = tcb.CondBlocked
	Running        = tcb.Running
	Pending        = tcb.Pending
)

// CreateFlags are thread-creation options.
type CreateFlags = tcb.CreateFlags

const (
	FlagSleeping     = tcb.FlagSleeping
	FlagWithoutYield = tcb.FlagWithoutYield
	FlagStackmarker  = tcb.FlagStackmarker
)

// ThreadParams bundles a thread's creation-time inputs.
type ThreadParams struct {
	// Stack is the caller-owned backing store for this thread's
	// machine words.
	Stack []uintptr

	Entry    func(arg any)
	Arg      any
	Priority int
	Name     string
	Flags    CreateFlags
}

// Thread is a handle to one schedulable thread's control block.
type Thread struct {
	k *kernel.Kernel
	t *tcb.TCB
}

// CreateThread carves out a new thread. Returns an error on
// bad priority, no free thread slot, or an empty stack.
func (kn *Kernel) CreateThread(p ThreadParams) (*Thread, error) {
	t, err := kn.k.CreateThread(kernel.CreateParams{
		Stack:    p.Stack,
		Entry:    p.Entry,
		Arg:      p.Arg,
		Priority: p.Priority,
		Name:     p.Name,
		Flags:    p.Flags,
	})
	if err != nil {
		return nil, wrapConfigError(err)
	}
	return &Thread{k: kn.k, t: t}, nil
}

// PID returns this thread's identifier.
func (th *Thread) PID() PID { return th.t.PID }

// Name returns this thread's creation-time name.
func (th *Thread) Name() string { return th.t.Name }

// Priority returns this thread's priority level (lower is more urgent).
func (th *Thread) Priority() int { return th.t.Priority }

// Status returns this thread's current scheduling status.
func (th *Thread) Status() Status { return th.t.Status }

// StackPointer returns the thread's Arch-opaque saved stack pointer.
func (th *Thread) StackPointer() uintptr { return th.t.StackPointer }

// FreeStack reports unused stack words, meaningful only for threads
// created with FlagStackmarker.
func (th *Thread) FreeStack(region []uintptr, wordSize uintptr) int {
	return th.t.FreeStack(region, wordSize)
}

// Stats reports this thread's introspection counters.
func (th *Thread) Stats() (Stats, bool) {
	return th.k.Stats(th.t.PID)
}

// tcbOf returns the underlying TCB; package-private escape hatch used
// by mutex.go/msg.go/flags.go/event.go to hand the raw TCB to the
// internal primitive packages, which operate on *tcb.TCB directly.
func (th *Thread) tcbOf() *tcb.TCB { return th.t }

// SetStatus is the only legal way to mutate a thread's status from
// outside the scheduler's own primitives; exported for callers
// implementing custom blocking primitives atop this package.
func (kn *Kernel) SetStatus(th *Thread, newStatus Status) {
	kn.k.SetStatus(th.t, newStatus)
}

// Yield performs round-robin rotation within the active thread's
// priority, then requests a switch").
func (kn *Kernel) Yield() { kn.k.Yield() }

// Sleep transitions the active thread to Sleeping; a no-op inside an
// ISR").
func (kn *Kernel) Sleep() { kn.k.Sleep() }

// Wakeup returns 1 if target was Sleeping (now Pending), 0 if it
// existed but was not sleeping, -1 if no such thread").
func (kn *Kernel) Wakeup(target PID) int { return kn.k.Wakeup(target) }

// Exit removes the active thread and calls the Arch's never-returning
// switch-context-exit"). It does not return.
func (kn *Kernel) Exit() { kn.k.Exit() }

// ContextSwitch requests a switch if priorityToSwitch is now the most
// urgent runnable one, or the current thread is no longer runnable
//. Safe to call from any context that
// does not already hold the kernel's internal critical section — i.e.
// any normal caller.
func (kn *Kernel) ContextSwitch(priorityToSwitch int) { kn.k.ContextSwitch(priorityToSwitch) }
