// Package tcb implements the thread control block: per-thread state,
// stack painting, and the stack-marker free-space scan. Grounded on the
// original source's thread.cpp/thread.hpp (STACKMARKER painting,
// thread_status_to_string).
package tcb

import (
	"github.com/ehrlich-b/vcrtos/internal/cib"
	"github.com/ehrlich-b/vcrtos/internal/list"
	"github.com/ehrlich-b/vcrtos/internal/message"
	"github.com/ehrlich-b/vcrtos/internal/pid"
)

// Status is a thread's scheduling state. Ordering matters: Runnable
// reports status >= Running; statuses below Running are all blocked
// states of one kind or another.
type Status int

const (
	Stopped Status = iota
	Sleeping
	MutexBlocked
	ReceiveBlocked
	SendBlocked
	ReplyBlocked
	FlagBlockedAny
	FlagBlockedAll
	MboxBlocked
	CondBlocked
	Running
	Pending
)

// Runnable reports whether a thread in this status sits in a run queue.
func (s Status) Runnable() bool {
	return s >= Running
}

// String returns the fixed introspection label. Statuses the
// original's thread_status_to_string switch never cases on
// (MboxBlocked, CondBlocked) fall through to "unknown", matching that
// function's behavior exactly rather than inventing new labels for them.
func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Pending:
		return "pending"
	case Stopped:
		return "stopped"
	case Sleeping:
		return "sleeping"
	case MutexBlocked:
		return "bl mutex"
	case ReceiveBlocked:
		return "bl rx"
	case SendBlocked:
		return "bl send"
	case ReplyBlocked:
		return "bl reply"
	case FlagBlockedAny:
		return "bl flag"
	case FlagBlockedAll:
		return "bl flags"
	default:
		return "unknown"
	}
}

// CreateFlags are the thread-creation options.
type CreateFlags uint8

const (
	// FlagSleeping starts the thread SLEEPING instead of PENDING.
	FlagSleeping CreateFlags = 1 << iota
	// FlagWithoutYield suppresses the post-creation context_switch
	// call even if the thread is immediately PENDING.
	FlagWithoutYield
	// FlagStackmarker paints the stack with the self-address pattern
	// instead of a single guard word, enabling FreeStack().
	FlagStackmarker
)

// TCB is the per-thread control block. It is conceptually carved out of
// the top of the caller's stack in the original source; here it is an
// ordinary Go struct since Go has no placement-new.
type TCB struct {
	// StackPointer is opaque to the kernel core; only the bound Arch
	// implementation writes it during a context switch.
	StackPointer uintptr

	Status   Status
	Priority int
	PID      pid.PID
	Name     string

	// RunqueueEntry is non-nil while the TCB sits in a run queue or a
	// primitive's waiter list; never both at once.
	RunqueueEntry *list.Node[*TCB]

	// WaitData is an opaque handle to whatever the thread is blocked
	// on: *message.Message for IPC, a mutex handle for MutexBlocked,
	// etc. Interpretation is owned entirely by the blocking primitive.
	WaitData any

	// MsgWaiters holds threads blocked trying to send to this one.
	MsgWaiters list.WaitList[*TCB]

	// MsgQueue/MsgArray back an optional bounded incoming-message
	// queue; MsgQueue is nil if the thread never installed one.
	MsgQueue *cib.CIB
	MsgArray []message.Message

	Flags       uint16
	WaitedFlags uint16

	StackStart uintptr
	StackSize  int
	Stackmarker bool

	// Stats. Schedules is incremented by the scheduler each time Run
	// makes this thread active; LastStartTick and RuntimeTicks are never
	// updated by the kernel and stay zero.
	Schedules    uint64
	LastStartTick uint64
	RuntimeTicks  uint64
}

// paintAddress lays down the self-address pattern FreeStack scans for.
// Real boards paint each free word with its own address (so a thread's
// actual stack contents, which are almost never equal to their own
// address, reliably stop the scan); this Go model uses the same scheme
// over a caller-supplied []uintptr region.
func paintAddress(region []uintptr, base uintptr, wordSize uintptr) {
	for i := range region {
		region[i] = base + uintptr(i)*wordSize
	}
}

// PaintStack fills region with the requested marker pattern:
// self-address pattern if stackmarker is set, otherwise a single guard
// word equal to the stack-base address at region[0].
func PaintStack(region []uintptr, base uintptr, wordSize uintptr, stackmarker bool) {
	if stackmarker {
		paintAddress(region, base, wordSize)
		return
	}
	if len(region) > 0 {
		region[0] = base
	}
}

// FreeStack scans region (the thread's stack, expressed as a slice of
// machine words starting at StackStart) and returns the number of
// unused words: those still equal to the self-address pattern laid
// down by PaintStack, counting from the low (painted) end until the
// first mismatch. Only meaningful when the TCB was created with
// FlagStackmarker; otherwise it always returns 0, mirroring the
// original's guard-word mode giving no introspection signal.
func (t *TCB) FreeStack(region []uintptr, wordSize uintptr) int {
	if !t.Stackmarker {
		return 0
	}
	free := 0
	for i, word := range region {
		want := t.StackStart + uintptr(i)*wordSize
		if word != want {
			break
		}
		free++
	}
	return free
}
