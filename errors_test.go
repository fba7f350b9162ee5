package vcrtos

import (
	"errors"
	"testing"

	"github.com/ehrlich-b/vcrtos/internal/kernel"
)

func TestStructuredError(t *testing.T) {
	err := NewError("CreateThread", ErrCodeBadPriority, "priority out of range")

	if err.Op != "CreateThread" {
		t.Errorf("Op = %s, want CreateThread", err.Op)
	}
	if err.Code != ErrCodeBadPriority {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeBadPriority)
	}

	expected := "vcrtos: CreateThread: priority out of range"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestThreadError(t *testing.T) {
	err := NewThreadError("Send", 5, ErrCodeNoMsgQueue, "no queue installed")

	if err.PID != 5 {
		t.Errorf("PID = %d, want 5", err.PID)
	}

	expected := "vcrtos: Send (pid=5): no queue installed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestErrorIs(t *testing.T) {
	a := &Error{Code: ErrCodeWouldBlock}
	b := &Error{Code: ErrCodeWouldBlock}
	c := &Error{Code: ErrCodeBadPriority}

	if !errors.Is(a, b) {
		t.Error("errors with the same code should satisfy errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("errors with different codes should not satisfy errors.Is")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("Lock", ErrCodeWouldBlock, "mutex held")

	if !IsCode(err, ErrCodeWouldBlock) {
		t.Error("IsCode should return true for a matching code")
	}
	if IsCode(err, ErrCodeBadPriority) {
		t.Error("IsCode should return false for a non-matching code")
	}
	if IsCode(nil, ErrCodeWouldBlock) {
		t.Error("IsCode should return false for a nil error")
	}
}

func TestWrapConfigErrorMapsKernelCodes(t *testing.T) {
	testCases := []struct {
		kernelCode kernel.ErrCode
		want       ErrorCode
	}{
		{kernel.ErrCodeBadPriority, ErrCodeBadPriority},
		{kernel.ErrCodeNoFreePID, ErrCodeNoFreeThread},
		{kernel.ErrCodeStackTooSmall, ErrCodeStackTooSmall},
	}

	for _, tc := range testCases {
		ce := &kernel.ConfigError{Op: "CreateThread", Code: tc.kernelCode, Msg: "test"}
		got := wrapConfigError(ce)
		if got.Code != tc.want {
			t.Errorf("wrapConfigError(%v).Code = %s, want %s", tc.kernelCode, got.Code, tc.want)
		}
		if !errors.Is(got, ce) {
			t.Error("wrapConfigError's result should unwrap to the original ConfigError")
		}
	}
}

func TestWrapConfigErrorNilIsNil(t *testing.T) {
	if wrapConfigError(nil) != nil {
		t.Error("wrapConfigError(nil) should be nil")
	}
}
