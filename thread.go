package rtsched

// PID is a dense, small integer naming a thread; it indexes the
// scheduler's process table. UndefPID is the sentinel "no such thread"
// value, mirroring KERNEL_PID_UNDEF.
type PID int32

// UndefPID is the sentinel value used in place of a PID when there is no
// applicable thread (e.g. the "previous" slot in a scheduler callback fired
// after a sleep).
const UndefPID PID = -1

// Priority is a scheduling class in [0, PrioLevels). Numerically smaller
// means more urgent.
type Priority uint8

// Thread is the scheduler's view of a schedulable unit of execution. The
// fields below are exactly the ones the core depends on (§3 of the design);
// everything else about a real thread (registers, TLS, open handles, ...)
// is the host's business.
//
// A Thread must be created via NewThread (or embedded via ThreadOption) and
// admitted into a Scheduler with Scheduler.Admit before any other method is
// called on it.
type Thread struct {
	// PID is assigned by the scheduler on Admit and is stable for the
	// thread's lifetime.
	PID PID
	// Name is an optional diagnostic label.
	Name string

	// Status is the thread's current scheduling state. Mutated only by
	// Scheduler.SetStatus / Scheduler.PickNext and by the
	// FeedbackController's quantum-expiry handler, all with the IRQ
	// critical section held.
	Status Status
	// Priority is the thread's current scheduling class.
	Priority Priority

	// ServiceTime is the remaining CPU budget in microseconds, decremented
	// by the feedback controller. Zero means "budget exhausted". Threads
	// not under feedback-controller management simply never have this
	// field touched.
	ServiceTime uint32

	// StackStart/StackSize describe the thread's stack for canary
	// checking. The canary check compares the value returned by the
	// thread's canary func against StackStart (the original's convention
	// is that the first stack word holds the address of the stack); the
	// default func returns StackStart itself, so the check always passes.
	// A host that maps real memory can instead supply a func reading the
	// live first word; see WithCanaryFunc.
	StackStart uintptr
	StackSize  uintptr
	canary     func() uintptr

	// rqNext/rqPrev implement the intrusive circular FIFO link (rq_entry)
	// by PID rather than by pointer/offset, per the design's
	// handle-based-queue resolution of "intrusive lists via raw offsets".
	// Valid only while Status.OnRunqueue() is true.
	rqNext PID
	rqPrev PID
}

// ThreadOption configures a Thread at construction time.
type ThreadOption func(*Thread)

// WithStack records the stack bounds used for the canary check performed
// during unschedule. The default canary function returns StackStart
// itself, i.e. assumes the caller has written the sentinel word — callers
// that want the scheduler to actually own and validate a real canary word
// should supply WithCanaryFunc.
func WithStack(start, size uintptr) ThreadOption {
	return func(t *Thread) {
		t.StackStart = start
		t.StackSize = size
	}
}

// WithCanaryFunc overrides how the canary word is read during unschedule.
// The default reads back StackStart unconditionally (i.e. always passes),
// appropriate for hosts (like cmd/rrtester) that do not manage real
// machine stacks. A host with real memory should supply a function that
// dereferences StackStart and compares against it.
func WithCanaryFunc(fn func() uintptr) ThreadOption {
	return func(t *Thread) {
		t.canary = fn
	}
}

// WithServiceTime sets the initial feedback-controller CPU budget, in
// microseconds.
func WithServiceTime(us uint32) ThreadOption {
	return func(t *Thread) {
		t.ServiceTime = us
	}
}

// NewThread constructs a Thread descriptor with the given name and initial
// priority. It starts in StatusStopped, per the lifecycle in §3: a thread
// enters the scheduler via a first Scheduler.SetStatus(t, StatusPending)
// call. The PID field is UndefPID until Scheduler.Admit assigns one.
func NewThread(name string, priority Priority, opts ...ThreadOption) *Thread {
	t := &Thread{
		PID:      UndefPID,
		Name:     name,
		Status:   StatusStopped,
		Priority: priority,
		rqNext:   UndefPID,
		rqPrev:   UndefPID,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.canary == nil {
		t.canary = func() uintptr { return t.StackStart }
	}
	return t
}

// canaryIntact reports whether the thread's stack canary still holds.
func (t *Thread) canaryIntact() bool {
	if t.canary == nil {
		return true
	}
	return t.canary() == t.StackStart
}
