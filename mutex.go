package vcrtos

import (
	"github.com/ehrlich-b/vcrtos/internal/mutex"
)

// Mutex is a binary lock with a FIFO, priority-ordered waiter list
//. The zero value is not usable; construct with
// Kernel.NewMutex.
type Mutex struct {
	m *mutex.Mutex
}

// NewMutex constructs a Mutex bound to kn.
func (kn *Kernel) NewMutex() *Mutex {
	return &Mutex{m: mutex.New(kn.k)}
}

// TryLock attempts to acquire m without blocking. Returns true if
// acquired.
func (m *Mutex) TryLock() bool { return m.m.TryLock() }

// Lock acquires m, blocking self if it is already held.
func (m *Mutex) Lock(self *Thread) { m.m.Lock(self.tcbOf()) }

// Unlock releases m, transferring it to the highest-priority waiter if
// any are queued.
func (m *Mutex) Unlock() { m.m.Unlock() }

// UnlockAndSleep performs Unlock and self's Sleep transition atomically
// with respect to each other.
func (m *Mutex) UnlockAndSleep(self *Thread) { m.m.UnlockAndSleep(self.tcbOf()) }

// Peek returns the PID of the head waiter, or PIDUndef if m is unlocked
// or has no waiters.
func (m *Mutex) Peek() PID { return m.m.Peek() }
