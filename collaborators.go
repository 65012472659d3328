package rtsched

import "sync"

// PanicKind enumerates the fatal conditions the scheduler core can raise
// through the Arch collaborator. There are exactly two failure kinds in
// the core (see §7 of the design): stack overflow is the only one the
// scheduler itself detects and routes through Arch.Panic.
type PanicKind uint8

const (
	// StackOverflow indicates a stack-canary mismatch was detected while
	// unscheduling a thread.
	StackOverflow PanicKind = iota
)

// IRQ abstracts the architecture's interrupt-enable/disable intrinsics.
// Disable/Restore must nest safely: Restore(state) undoes exactly the
// Disable() call that produced state, regardless of intervening nested
// Disable/Restore pairs.
type IRQ interface {
	// Disable masks interrupts and returns the previous mask state.
	Disable() (state bool)
	// Restore reinstates a previously captured mask state.
	Restore(state bool)
	// IsInInterrupt reports whether the calling goroutine is standing in
	// for interrupt context (i.e. is running on the simulated ISR stack).
	IsInInterrupt() bool
}

// Timer abstracts a single-shot, monotonic microsecond timer with one
// pending callback. Overwriting an already-armed timer is legal and
// cancels the previous callback, matching ztimer_set's semantics.
type Timer interface {
	// Set arms the timer to fire fn after us microseconds, replacing any
	// previously armed callback.
	Set(us uint32, fn func())
}

// Arch abstracts the architecture-specific primitives the scheduler core
// consumes but does not implement: the idle loop, the yield-to-scheduler
// trigger, the terminal context drop, and the fatal panic channel.
type Arch interface {
	// Idle halts the hart until the next interrupt, returning with
	// interrupts momentarily re-enabled (so a pending wakeup can land).
	Idle()
	// YieldHigher triggers PickNext via a software interrupt or direct
	// call, from thread context.
	YieldHigher()
	// SwitchContextExit performs the final, non-returning context drop for
	// an exiting thread. Implementations must not return; the default
	// implementation parks the calling goroutine forever.
	SwitchContextExit()
	// Panic reports a fatal, unrecoverable condition. Implementations must
	// not return.
	Panic(kind PanicKind, err error)
}

// Collaborators bundles the external interfaces a Scheduler needs. Use
// DefaultCollaborators for a goroutine-based simulation suitable for tests
// and the cmd/rrtester demo.
type Collaborators struct {
	IRQ   IRQ
	Timer Timer
	Arch  Arch
}

// mutexIRQ is a straightforward IRQ implementation backed by a mutex: the
// "interrupt-disabled critical section" becomes "the mutex is held". This
// is faithful to the single-hart model (at most one holder at a time) and
// lets goroutines stand in for both thread context and "interrupt context"
// callers.
//
// Unlike real irq_disable/irq_restore, a goroutine that calls Disable twice
// in a row without an intervening Restore will deadlock against itself: the
// scheduler core never nests Disable/Restore pairs internally (each public
// entry point that needs the critical section takes it exactly once), so
// this is a caller contract, not a core limitation.
type mutexIRQ struct {
	mu      sync.Mutex
	held    bool
	flagMu  sync.Mutex
	isInIRQ bool
}

// NewMutexIRQ returns an IRQ collaborator backed by a single mutex.
func NewMutexIRQ() IRQ {
	return &mutexIRQ{}
}

func (m *mutexIRQ) Disable() bool {
	m.mu.Lock()
	prev := m.held
	m.held = true
	return prev
}

func (m *mutexIRQ) Restore(state bool) {
	m.held = state
	m.mu.Unlock()
}

func (m *mutexIRQ) IsInInterrupt() bool {
	m.flagMu.Lock()
	defer m.flagMu.Unlock()
	return m.isInIRQ
}

// MarkInterruptContext lets a test or host simulate running on the ISR
// stack for the duration of fn: calls to Switch made while fn runs observe
// IsInInterrupt() == true.
func MarkInterruptContext(irq IRQ, fn func()) {
	m, ok := irq.(*mutexIRQ)
	if !ok {
		fn()
		return
	}
	m.flagMu.Lock()
	m.isInIRQ = true
	m.flagMu.Unlock()
	defer func() {
		m.flagMu.Lock()
		m.isInIRQ = false
		m.flagMu.Unlock()
	}()
	fn()
}

// funcArch is an Arch implementation that delegates to plain funcs, with
// sensible zero-value defaults (Idle/YieldHigher as no-ops, Panic calling
// the standard library's panic, SwitchContextExit blocking forever).
type funcArch struct {
	IdleFunc         func()
	YieldHigherFunc  func()
	SwitchExitFunc   func()
	PanicFunc        func(PanicKind, error)
}

func (a *funcArch) Idle() {
	if a.IdleFunc != nil {
		a.IdleFunc()
	}
}

func (a *funcArch) YieldHigher() {
	if a.YieldHigherFunc != nil {
		a.YieldHigherFunc()
	}
}

func (a *funcArch) SwitchContextExit() {
	if a.SwitchExitFunc != nil {
		a.SwitchExitFunc()
		return
	}
	select {}
}

func (a *funcArch) Panic(kind PanicKind, err error) {
	if a.PanicFunc != nil {
		a.PanicFunc(kind, err)
		return
	}
	panic(err)
}

// NewFuncArch builds an Arch collaborator from individual callbacks. Any
// nil callback gets the zero-value default described on funcArch.
func NewFuncArch(idle, yieldHigher, switchExit func(), panicFn func(PanicKind, error)) Arch {
	return &funcArch{
		IdleFunc:        idle,
		YieldHigherFunc: yieldHigher,
		SwitchExitFunc:  switchExit,
		PanicFunc:       panicFn,
	}
}

// timerFunc is a Timer implementation backed by time.AfterFunc-style
// single-shot scheduling, supplied by the caller to avoid a hard
// dependency on any one timer package (the real timer subsystem is an
// out-of-scope external collaborator per the design).
type timerFunc struct {
	set func(us uint32, fn func())
}

// NewTimer builds a Timer collaborator from a scheduling function, e.g.:
//
//	rtsched.NewTimer(func(us uint32, fn func()) {
//	    time.AfterFunc(time.Duration(us)*time.Microsecond, fn)
//	})
func NewTimer(set func(us uint32, fn func())) Timer {
	return &timerFunc{set: set}
}

func (t *timerFunc) Set(us uint32, fn func()) {
	t.set(us, fn)
}

// DefaultCollaborators returns a goroutine-friendly Collaborators set: a
// mutex-backed IRQ, a time.AfterFunc-backed Timer (see defaultTimerSet in
// arch_default.go; its Set does not cancel a callback armed by an earlier
// Set), and an Arch whose Idle is a runtime.Gosched-based spin and whose
// SwitchContextExit parks the calling goroutine forever.
func DefaultCollaborators() Collaborators {
	return Collaborators{
		IRQ:   NewMutexIRQ(),
		Timer: NewTimer(defaultTimerSet),
		Arch:  NewFuncArch(defaultIdle, nil, nil, nil),
	}
}
