// Package pid defines the thread-identifier space shared by every kernel
// collaborator. It is deliberately tiny and dependency-free so that every
// other internal package (list, tcb, kernel, mutex, msg, flags, event) can
// import it without risking a cycle.
package pid

// PID identifies a thread slot in the kernel's fixed-size thread table.
// Slot 0 is reserved (Undef); valid threads occupy [First, Last].
type PID int16

const (
	// MaxThreads bounds the number of schedulable threads, matching the
	// original source's MAXTHREADS.
	MaxThreads = 32

	// Undef is never a valid thread PID. It is the zero value of PID so
	// a zero-initialized TCB or PID variable reads as "no thread".
	Undef PID = 0

	// First is the lowest allocatable PID.
	First PID = 1

	// Last is the highest allocatable PID slot, MaxThreads itself.
	Last PID = MaxThreads

	// ISR is the SenderPID stamped on messages sent from interrupt
	// context (msg.SendFromISR); Kernel.ActivePID never reports it. As
	// in the original source it aliases a slot of the ordinary
	// allocation range (Last-1), and that overlap is kept and flagged
	// here: a system that allocates MaxThreads-1 live threads will have
	// a thread whose PID is indistinguishable from ISR's sentinel value
	// in a message's SenderPID or in any log line that prints PIDs.
	ISR PID = Last - 1
)

// Valid reports whether p is an allocatable thread slot (excludes Undef).
func (p PID) Valid() bool {
	return p >= First && p <= Last
}

// Index returns the zero-based slot index into a [MaxThreads]T thread
// table. Callers must only call this on a Valid PID.
func (p PID) Index() int {
	return int(p - First)
}
