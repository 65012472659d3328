package rtsched

// idleFeedbackPriority is the IDLE sentinel (0xFF in the source): no
// quantum timer is currently armed.
const idleFeedbackPriority Priority = 0xFF

// FeedbackController implements the multi-level feedback-queue policy
// described in §4.9: a timer-driven controller that observes the running
// thread's remaining service time and demotes it through priority classes,
// time-slicing the bottom class round-robin.
//
// Priority 0 is reserved as a "never runnable, observer only" class (the
// controller ignores on_runq_change(0)); runnable classes are [1, MaxQ].
// FeedbackController subscribes to exactly one Scheduler's runqueue-change
// notifier — see Init.
type FeedbackController struct {
	sched *Scheduler

	maxQ      Priority
	quantumUS uint32

	current Priority // IDLE, or the priority class the armed timer is observing
}

// FeedbackOption configures a FeedbackController at construction time.
type FeedbackOption func(*FeedbackController)

// WithMaxQ sets the bottom (least urgent) runnable priority class, MAX_Q in
// the design. Defaults to 3, matching the reference workload.
func WithMaxQ(maxQ Priority) FeedbackOption {
	return func(f *FeedbackController) {
		f.maxQ = maxQ
	}
}

// WithQuantum sets the quantum length in microseconds, QUANTUM_US in the
// design. Defaults to 500,000 (500ms), matching the reference workload.
func WithQuantum(us uint32) FeedbackOption {
	return func(f *FeedbackController) {
		f.quantumUS = us
	}
}

// NewFeedbackController constructs a controller. Call Init to bind it to a
// Scheduler and arm its first observation.
func NewFeedbackController(opts ...FeedbackOption) *FeedbackController {
	f := &FeedbackController{
		maxQ:      3,
		quantumUS: 500000,
		current:   idleFeedbackPriority,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Init binds the controller to sched, installs it as the scheduler's sole
// runqueue-change observer, and — mirroring sched_feedback_init in the
// original — forces the currently active thread (if any) to priority 1 and
// primes the arming rule with its class.
func (f *FeedbackController) Init(sched *Scheduler) {
	f.sched = sched
	f.current = idleFeedbackPriority

	// The observer is installed after the forced priority change, so the
	// pop of the thread's old class cannot arm a timer on that class.
	active := sched.ActiveThread()
	if active != nil {
		_ = sched.ChangePriority(active, 1)
	}

	sched.SetRunqueueChangeFunc(f.onRunqChange)

	if active != nil {
		f.onRunqChange(active.Priority)
	}
}

// onRunqChange implements the arming rule: on a transition with p != 0, if
// no timer is currently armed, arm one quantum observing p.
func (f *FeedbackController) onRunqChange(p Priority) {
	if p == 0 {
		return
	}
	if f.current != idleFeedbackPriority {
		return
	}
	f.current = p
	f.sched.Timer().Set(f.quantumUS, f.onQuantumExpiry)
}

// onQuantumExpiry implements the quantum-expiry algorithm of §4.9. The
// active thread is sampled exactly once, at the top, and every subsequent
// decision in this function uses that single snapshot — per the design's
// "single-sample discipline" open question, active_thread is never
// re-queried mid-callback even though FIFO rotations happen along the way.
//
// The arm is released (current reset to IDLE) only just before rearm: the
// pops made below fire the runqueue-change notifier synchronously, and
// while current still names the expired class those notifications cannot
// arm a timer on a class the active thread has just left.
func (f *FeedbackController) onQuantumExpiry() {
	prio := f.current

	a := f.sched.ActiveThread()
	if a == nil {
		// Gracefully degrade: the thread that armed this timer is already
		// gone (exited or the scheduler was otherwise left idle).
		f.current = idleFeedbackPriority
		f.rearm(prio)
		return
	}
	ap := a.Priority

	if a.ServiceTime == 0 {
		// A STOPPED thread has no business remaining linked into a
		// runqueue FIFO, so this pops it outright (releasing any other
		// occupant of the class to become the new head) rather than
		// merely rotating past it.
		state := f.sched.irq.Disable()
		a.Status = StatusStopped
		f.sched.rqPop(a)
		f.sched.irq.Restore(state)
		f.sched.arch.YieldHigher()
		f.current = idleFeedbackPriority
		f.rearm(prio)
		return
	}

	// Each mutation below takes its own Disable/Restore pair rather than
	// one spanning the whole callback, since ChangePriority manages its
	// own critical section and the scheduler's mutexIRQ is not reentrant
	// (see mutexIRQ's doc comment) — holding the lock across the call
	// would deadlock.
	switch {
	case ap == prio && ap < f.maxQ:
		logDemotion(f.sched.logger, a.PID, ap, ap+1)
		_ = f.sched.ChangePriority(a, ap+1)
		if f.sched.rqEmpty(prio) {
			prio++
		}
	case ap == f.maxQ:
		state := f.sched.irq.Disable()
		f.sched.rqAdvance(f.maxQ)
		f.sched.irq.Restore(state)
		f.sched.arch.YieldHigher()
	}

	state := f.sched.irq.Disable()
	a.ServiceTime = saturatingSubU32(a.ServiceTime, f.quantumUS)
	f.sched.irq.Restore(state)

	f.current = idleFeedbackPriority
	f.rearm(prio)
}

// rearm re-invokes the arming rule with (possibly updated) prio, which may
// arm the timer for the next non-empty class.
func (f *FeedbackController) rearm(prio Priority) {
	f.onRunqChange(prio)
}

// saturatingSubU32 returns a-b, saturating at 0 rather than wrapping.
func saturatingSubU32(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}
