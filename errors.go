package vcrtos

import (
	"errors"
	"fmt"

	"github.com/ehrlich-b/vcrtos/internal/kernel"
	"github.com/ehrlich-b/vcrtos/internal/pid"
)

// ErrorCode is a small, stable, string-backed taxonomy callers can
// switch on without depending on the wrapped *Error's internals.
type ErrorCode string

const (
	ErrCodeBadPriority   ErrorCode = "bad priority"
	ErrCodeNoFreeThread  ErrorCode = "no free thread slot"
	ErrCodeStackTooSmall ErrorCode = "stack too small"
	ErrCodeInvalidTarget ErrorCode = "invalid target thread"
	ErrCodeWouldBlock    ErrorCode = "operation would block"
	ErrCodeNotReplyable  ErrorCode = "target is not reply-blocked"
	ErrCodeNoMsgQueue    ErrorCode = "target has no message queue"
)

// Error is a structured kernel error with operation and thread context.
// There is no errno to map since every failure this kernel raises is a
// capacity or protocol violation rather than an OS-level syscall
// failure.
type Error struct {
	Op    string
	PID   pid.PID // pid.Undef if not applicable
	Code  ErrorCode
	Msg   string
	Inner error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.PID != pid.Undef {
		return fmt.Sprintf("vcrtos: %s (pid=%d): %s", e.Op, e.PID, msg)
	}
	return fmt.Sprintf("vcrtos: %s: %s", e.Op, msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a structured error with no thread context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewThreadError creates a structured error naming the offending PID.
func NewThreadError(op string, target pid.PID, code ErrorCode, msg string) *Error {
	return &Error{Op: op, PID: target, Code: code, Msg: msg}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// wrapConfigError translates internal/kernel's lightweight ConfigError
// (which cannot itself depend on this package without an import cycle)
// into the public, documented *Error taxonomy.
func wrapConfigError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *kernel.ConfigError
	if !errors.As(err, &ce) {
		return &Error{Op: "CreateThread", Code: ErrCodeBadPriority, Msg: err.Error(), Inner: err}
	}
	code := ErrCodeBadPriority
	switch ce.Code {
	case kernel.ErrCodeNoFreePID:
		code = ErrCodeNoFreeThread
	case kernel.ErrCodeStackTooSmall:
		code = ErrCodeStackTooSmall
	}
	return &Error{Op: ce.Op, Code: code, Msg: ce.Msg, Inner: ce}
}
