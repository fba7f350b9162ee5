package vcrtos

import "sync"

// MockArch is a minimal synchronous Arch implementation for unit tests
// that exercise the scheduler's state machine without a real
// context-switch trap: StackInit is a no-op returning stackStart
// unchanged, YieldHigher synchronously re-enters Run (the caller is
// responsible for supplying it), and ISR state is toggled explicitly
// via EnterISR/ExitISR. A hand-rolled collaborator double with call
// tracking, in the same vein as a storage backend's mock but for the
// kernel's Arch collaborator.
type MockArch struct {
	// RunFn is invoked by YieldHigher (which Kernel.EndOfISR calls if a
	// switch was requested); tests normally set this to the bound
	// Kernel's Run.
	RunFn func()

	mu             sync.Mutex
	inISR          bool
	irqState       uint32
	yieldCalls     int
	stackInitCalls int
}

// NewMockArch constructs a MockArch. Set RunFn before binding it to a
// Kernel if the test needs YieldHigher to actually reschedule.
func NewMockArch() *MockArch {
	return &MockArch{}
}

func (a *MockArch) StackInit(entry func(arg any), arg any, stackStart uintptr, size int) uintptr {
	a.mu.Lock()
	a.stackInitCalls++
	a.mu.Unlock()
	return stackStart
}

func (a *MockArch) YieldHigher() {
	a.mu.Lock()
	a.yieldCalls++
	run := a.RunFn
	a.mu.Unlock()
	if run != nil {
		run()
	}
}

func (a *MockArch) SwitchContextExit() { select {} }

func (a *MockArch) IRQDisable() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.irqState
	a.irqState = 1
	return prev
}

func (a *MockArch) IRQRestore(prev uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.irqState = prev
}

func (a *MockArch) IRQEnable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.irqState = 0
}

func (a *MockArch) InISR() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inISR
}

// EnterISR marks the mock as executing in interrupt context.
func (a *MockArch) EnterISR() {
	a.mu.Lock()
	a.inISR = true
	a.mu.Unlock()
}

// ExitISR clears interrupt-context state.
func (a *MockArch) ExitISR() {
	a.mu.Lock()
	a.inISR = false
	a.mu.Unlock()
}

func (a *MockArch) TriggerPendSV() {}

func (a *MockArch) EndOfISR() {}

// YieldCalls returns how many times YieldHigher has been invoked.
func (a *MockArch) YieldCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.yieldCalls
}

// StackInitCalls returns how many times StackInit has been invoked.
func (a *MockArch) StackInitCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stackInitCalls
}

// MockLogger records every leveled log call for assertions, instead of
// writing anywhere.
type MockLogger struct {
	mu     sync.Mutex
	Debugs []string
	Infos  []string
	Warns  []string
	Errors []string
}

// NewMockLogger constructs an empty MockLogger.
func NewMockLogger() *MockLogger { return &MockLogger{} }

func (l *MockLogger) Debug(msg string, args ...any) { l.record(&l.Debugs, msg) }
func (l *MockLogger) Info(msg string, args ...any)  { l.record(&l.Infos, msg) }
func (l *MockLogger) Warn(msg string, args ...any)  { l.record(&l.Warns, msg) }
func (l *MockLogger) Error(msg string, args ...any) { l.record(&l.Errors, msg) }

func (l *MockLogger) record(dst *[]string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*dst = append(*dst, msg)
}

// NewTestKernel constructs a Kernel wired to a MockArch (whose RunFn is
// set to the new kernel's own Run, so YieldHigher reschedules exactly
// like a real context-switch trap would) and a MockLogger, convenient
// for tests exercising the public API end to end without a real board
// or internal/archsim's goroutine machinery.
func NewTestKernel(cfg Config) (*Kernel, *MockArch, *MockLogger) {
	arch := NewMockArch()
	logger := NewMockLogger()
	kn := NewKernel(cfg, arch, logger, nil)
	arch.RunFn = kn.Run
	return kn, arch, logger
}

// Compile-time interface checks.
var (
	_ Arch   = (*MockArch)(nil)
	_ Logger = (*MockLogger)(nil)
)
