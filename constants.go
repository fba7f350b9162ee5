package vcrtos

import (
	"github.com/ehrlich-b/vcrtos/internal/config"
	"github.com/ehrlich-b/vcrtos/internal/pid"
)

// Re-exported tuning knobs and identifiers.
const (
	DefaultPriorityLevels = config.DefaultPriorityLevels
	DefaultMaxThreads     = config.DefaultMaxThreads
	PriorityIdle          = config.PriorityIdle
	PriorityMain          = config.PriorityMain

	MaxThreads = pid.MaxThreads
)

// PID identifies a schedulable thread. The zero value, PIDUndef, never
// names a real thread.
type PID = pid.PID

// PIDUndef is the PID value meaning "no thread".
const PIDUndef = pid.Undef

// PIDISR is the SenderPID stamped on messages sent with SendFromISR
// (see pid.ISR's doc comment for the allocation-range overlap this
// preserves from the original source).
const PIDISR = pid.ISR
