// Package config holds the kernel's compile-time-equivalent tuning
// knobs as a struct-with-defaults value, the same shape used elsewhere
// in this codebase for parameter structs.
package config

// Config mirrors the original source's configuration macros
// (PRIORITY_LEVELS, MAXTHREADS, THREAD_FLAGS_ENABLE,
// THREAD_EVENT_ENABLE, MULTIPLE_INSTANCE_ENABLE) as runtime fields on a
// value passed to NewKernel, rather than build tags, so a single binary
// can host kernels with different shapes if MultipleInstanceEnable is
// set.
type Config struct {
	// PriorityLevels sizes the run-queue array and the scheduler
	// bitmap; must be <= 32 so a single machine word holds the bitmap.
	PriorityLevels int

	// MaxThreads sizes the PID table.
	MaxThreads int

	// ThreadFlagsEnable mirrors THREAD_FLAGS_ENABLE. No package reads
	// it: the thread-flags subsystem is available whatever its value.
	ThreadFlagsEnable bool

	// ThreadEventEnable mirrors THREAD_EVENT_ENABLE for the event
	// queue, which is built on thread flags. No package reads it: the
	// event queue is available whatever its value.
	ThreadEventEnable bool

	// MultipleInstanceEnable allows more than one *Kernel to coexist
	// in a single process. When false, callers are expected (but not
	// enforced) to keep a single instance, matching the original
	// source's default static-singleton deployment.
	MultipleInstanceEnable bool
}

// Default priority levels and thread count, matching
// include/vcrtos/default-config.h.
const (
	DefaultPriorityLevels = 16
	DefaultMaxThreads     = 32

	// PriorityIdle and PriorityMain match the default-config derived
	// priorities used throughout this package's test scenarios.
	PriorityIdle = DefaultPriorityLevels - 1
	PriorityMain = DefaultPriorityLevels/2 - 1
)

// DefaultConfig returns the configuration the original source ships
// with out of the box.
func DefaultConfig() Config {
	return Config{
		PriorityLevels:         DefaultPriorityLevels,
		MaxThreads:             DefaultMaxThreads,
		ThreadFlagsEnable:      true,
		ThreadEventEnable:      true,
		MultipleInstanceEnable: false,
	}
}
