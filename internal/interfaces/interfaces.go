// Package interfaces provides internal interface definitions shared across
// the kernel packages. Kept separate from the public package to avoid
// circular imports between the root package and internal/kernel et al.
package interfaces

import "github.com/ehrlich-b/vcrtos/internal/pid"

// Arch is the per-CPU collaborator the kernel core never implements
// itself: stack frame construction, the context-switch trap, and
// interrupt control. A real board binds this to actual Cortex-M
// registers; internal/archsim binds it to parked goroutines for tests
// and the demo binary.
type Arch interface {
	// StackInit forges an initial exception frame inside the region
	// [stackStart, stackStart+size) suitable for the context-switch
	// trap to restore, with entry/arg installed in the appropriate
	// register slots, and returns the saved stack pointer.
	StackInit(entry func(arg any), arg any, stackStart uintptr, size int) uintptr

	// YieldHigher triggers a deferred context-switch trap that
	// eventually calls the scheduler's Run from privileged mode.
	YieldHigher()

	// SwitchContextExit never returns; used after a thread's self-exit.
	SwitchContextExit()

	// IRQDisable disables interrupts and returns the previous state,
	// for IRQRestore to hand back later.
	IRQDisable() uint32
	// IRQRestore restores a previously saved interrupt state.
	IRQRestore(prev uint32)
	// IRQEnable unconditionally enables interrupts.
	IRQEnable()

	// InISR reports whether the caller is currently executing in
	// interrupt context.
	InISR() bool
	// TriggerPendSV requests the low-priority context-switch
	// exception, the deferred-switch mechanism ISRs use.
	TriggerPendSV()
	// EndOfISR is the ISR-exit hook: it calls YieldHigher iff a
	// context switch was requested while servicing the interrupt.
	EndOfISR()
}

// Logger is the leveled logging interface every kernel collaborator
// accepts instead of depending on a concrete implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives scheduler and primitive events for metrics
// collection. Implementations must be safe to call from inside a
// critical section; they must not block or call back into the kernel.
type Observer interface {
	ObserveSchedule(p pid.PID, priority int)
	ObserveBlock(p pid.PID, reason string)
	ObserveWake(p pid.PID)
	ObserveContextSwitchRequest(fromISR bool)
}

// CommandInterpreter is the CLI collaborator's minimal surface. It
// exposes both a variadic Printf and an explicit-slice VPrintf so an
// implementation that wants to forward a caller's already-collected
// argument slice never has to pass variadic arguments through another
// variadic parameter — the source's cli_uart.cpp bug (forwarding a
// va_list into a "(fmt, ...)" parameter) has no Go equivalent to
// reproduce, so this interface gives callers the non-variadic escape
// hatch directly instead.
type CommandInterpreter interface {
	Printf(format string, args ...any)
	VPrintf(format string, args []any)
}
