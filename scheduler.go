package rtsched

// SchedulerCallback is the optional scheduler-event observer installed via
// Scheduler.SetCallback (register_cb in the design). It is invoked with
// (prevPID, nextPID); either side may be UndefPID, per §4.4.
type SchedulerCallback func(prevPID, nextPID PID)

// RunqueueChangeFunc is the sole runqueue-change observer (§4.8). It fires
// when a push makes the currently active thread's priority class go from
// empty to non-empty, and when a pop leaves any priority class empty. The
// feedback controller is the only intended subscriber; the slot holds at
// most one function.
type RunqueueChangeFunc func(p Priority)

// Scheduler implements the base priority scheduler core: runqueue
// management, next-thread selection, context-switch request handling, and
// thread state transitions, exactly as specified in §4.1-§4.7 of the
// design.
//
// All exported methods that the design marks "precondition: interrupts
// disabled" trust that precondition; the Scheduler itself never calls
// s.irq.Disable from within such a method (SetStatus, PickNext). Methods
// that themselves own the critical section (ChangePriority, TaskExit) call
// Disable/Restore exactly once, never nested.
type Scheduler struct {
	prioLevels int
	maxThreads int

	cache bitCache
	heads []PID // heads[p] = PID at the head of priority class p, or UndefPID

	procs []*Thread // process table, indexed by PID
	free  []PID     // free PIDs available for Admit
	live  int       // live thread count

	activePID PID
	active    *Thread

	csRequest bool // context-switch-request flag, set only from Switch

	onRunqChange RunqueueChangeFunc
	callback     SchedulerCallback

	irq   IRQ
	timer Timer
	arch  Arch

	logger Logger
}

// NewScheduler constructs a Scheduler. See Option for configuration knobs.
func NewScheduler(opts ...Option) *Scheduler {
	c := resolveConfig(opts)

	debugAssertf(c.prioLevels > 0 && c.prioLevels <= 32, "NewScheduler",
		"prioLevels %d out of range (0, 32]: bitCache indexes priorities with a 5-bit shift and silently corrupts occupancy above 32", c.prioLevels)

	s := &Scheduler{
		prioLevels: c.prioLevels,
		maxThreads: c.maxThreads,
		cache:      newBitCache(c.bitEncoding),
		heads:      make([]PID, c.prioLevels),
		procs:      make([]*Thread, c.maxThreads),
		free:       make([]PID, c.maxThreads),
		activePID:  UndefPID,
		irq:        c.collaborators.IRQ,
		timer:      c.collaborators.Timer,
		arch:       c.collaborators.Arch,
		logger:     c.logger,
	}
	for p := range s.heads {
		s.heads[p] = UndefPID
	}
	for i := range s.free {
		s.free[i] = PID(c.maxThreads - 1 - i) // pop from the tail -> ascending PID allocation order
	}
	return s
}

// PrioLevels returns the configured number of priority classes.
func (s *Scheduler) PrioLevels() int { return s.prioLevels }

// Timer returns the Timer collaborator the scheduler was constructed with,
// for use by a FeedbackController sharing the same Scheduler.
func (s *Scheduler) Timer() Timer { return s.timer }

// IRQ returns the IRQ collaborator the scheduler was constructed with.
func (s *Scheduler) IRQ() IRQ { return s.irq }

// Arch returns the Arch collaborator the scheduler was constructed with.
func (s *Scheduler) Arch() Arch { return s.arch }

// Logger returns the configured structured logger, or nil.
func (s *Scheduler) Logger() Logger { return s.logger }

// SetCallback installs the scheduler-event observer. Pass nil to remove
// it.
func (s *Scheduler) SetCallback(fn SchedulerCallback) {
	s.callback = fn
}

// SetRunqueueChangeFunc installs the single runqueue-change observer. Pass
// nil to remove it. Per §4.8 and the design notes, this slot holds at most
// one observer — installing a second replaces the first rather than
// broadcasting to both.
func (s *Scheduler) SetRunqueueChangeFunc(fn RunqueueChangeFunc) {
	s.onRunqChange = fn
}

// ActivePID returns the PID of the currently running thread, or UndefPID.
func (s *Scheduler) ActivePID() PID { return s.activePID }

// ActiveThread returns the currently running thread, or nil.
func (s *Scheduler) ActiveThread() *Thread { return s.active }

// LiveThreads returns the number of admitted, not-yet-exited threads.
func (s *Scheduler) LiveThreads() int { return s.live }

// Thread looks up a thread by PID. Returns nil if pid does not name a live
// thread.
func (s *Scheduler) Thread(pid PID) *Thread {
	if pid < 0 || int(pid) >= len(s.procs) {
		return nil
	}
	return s.procs[pid]
}

// Admit assigns t a PID and inserts it into the process table. t must not
// already be admitted. The thread starts outside the scheduler
// (StatusStopped, off every runqueue) until a subsequent SetStatus call
// brings it onto a runqueue, matching the lifecycle in §3: "enter the
// scheduler by a first set_status(t, PENDING)".
func (s *Scheduler) Admit(t *Thread) (PID, error) {
	if t == nil {
		return UndefPID, ErrNilThread
	}
	if t.PID != UndefPID {
		return UndefPID, ErrAlreadyAdmitted
	}
	if len(s.free) == 0 {
		return UndefPID, ErrProcessTableFull
	}
	if int(t.Priority) >= s.prioLevels {
		return UndefPID, ErrInvalidPriority
	}

	pid := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	t.PID = pid
	t.rqNext, t.rqPrev = UndefPID, UndefPID
	s.procs[pid] = t
	s.live++
	return pid, nil
}

// SetStatus transitions t between the "on runqueue" and "off runqueue"
// classes, per §4.3. Precondition: interrupts disabled by the caller; the
// scheduler does not manipulate the interrupt mask here.
func (s *Scheduler) SetStatus(t *Thread, newStatus Status) {
	if t == nil {
		debugAssertf(false, "SetStatus", "nil thread")
		return
	}
	wasOnRQ := t.Status.OnRunqueue()
	nowOnRQ := newStatus.OnRunqueue()

	switch {
	case nowOnRQ && !wasOnRQ:
		s.rqPush(t, t.Priority)
		logPushPop(s.logger, "push", t.PID, t.Priority, false)
	case !nowOnRQ && wasOnRQ:
		s.rqPop(t)
		logPushPop(s.logger, "pop", t.PID, t.Priority, s.rqEmpty(t.Priority))
	}

	t.Status = newStatus
}

// PickNext implements the selection operation described in §4.4. It must
// be called with interrupts disabled, either from the tail of an ISR
// (after Switch set the context-switch-request flag) or from thread
// context via Arch.YieldHigher.
func (s *Scheduler) PickNext() *Thread {
	prev := s.active

	if s.cache.empty() {
		if prev != nil {
			s.unschedule(prev)
			s.activePID, s.active = UndefPID, nil
		}
		for s.cache.empty() {
			s.arch.Idle()
		}
	}

	s.csRequest = false

	p, ok := s.cache.highest()
	if !ok {
		// unreachable: the loop above only exits once the cache is
		// non-empty.
		return nil
	}
	next := s.rqHead(p)
	logSelect(s.logger, boolPID(prev), next.PID, prev == next)

	next.Status = StatusRunning

	if next == prev {
		// Call the callback again only if s.active is nil: that means a
		// sleep happened between descheduling prev and picking next back
		// up, and re-firing here keeps the sleep from being counted as
		// run time for prev (mirrors sched_run's "active_thread == NULL"
		// check, core/sched.c).
		if s.callback != nil && s.active == nil {
			s.callback(UndefPID, next.PID)
		}
		s.activePID, s.active = next.PID, next
		return next
	}

	// s.active, not prev: the idle path above has already unscheduled prev
	// and cleared s.active.
	if s.active != nil {
		s.unschedule(s.active)
	}
	s.activePID = next.PID
	s.active = next
	if s.callback != nil {
		s.callback(UndefPID, next.PID)
	}
	return next
}

// boolPID is a tiny helper so logSelect can log UndefPID for a nil prev
// thread without every call site repeating the nil check.
func boolPID(t *Thread) PID {
	if t == nil {
		return UndefPID
	}
	return t.PID
}

// unschedule demotes a RUNNING thread back to PENDING, verifies its stack
// canary, and fires the scheduler callback for the "descheduled" half of a
// transition. A canary mismatch is fatal: Arch.Panic is invoked with
// StackOverflow and unschedule does not return in that case (assuming the
// supplied Arch implementation honors its noreturn contract).
func (s *Scheduler) unschedule(t *Thread) {
	if t.Status == StatusRunning {
		t.Status = StatusPending
	}

	if !t.canaryIntact() {
		logStackOverflow(s.logger, t.PID, t.Name)
		s.arch.Panic(StackOverflow, &StackOverflowError{PID: t.PID, Name: t.Name})
		return
	}

	if s.callback != nil {
		s.callback(t.PID, UndefPID)
	}
}

// Switch implements the voluntary yield hint of §4.5: some action made a
// thread at priority otherPrio eligible, and the caller wants a preemption
// to happen if that makes it the new highest-priority runnable thread.
func (s *Scheduler) Switch(otherPrio Priority) {
	active := s.active
	if active == nil || !active.Status.OnRunqueue() || active.Priority > otherPrio {
		if s.irq.IsInInterrupt() {
			s.csRequest = true
		} else {
			s.arch.YieldHigher()
		}
	}
}

// ContextSwitchRequested reports whether Switch set the context-switch-
// request flag from interrupt context since the last PickNext call. An ISR
// epilogue typically checks this to decide whether to invoke PickNext
// before returning to thread context.
func (s *Scheduler) ContextSwitchRequested() bool {
	return s.csRequest
}

// ChangePriority atomically moves t to newPrio, whether t is on a runqueue
// or not, per §4.6. Safe to call from thread context; disables interrupts
// internally for the duration of the runqueue mutation.
func (s *Scheduler) ChangePriority(t *Thread, newPrio Priority) error {
	if t == nil {
		return ErrNilThread
	}
	if int(newPrio) >= s.prioLevels {
		return ErrInvalidPriority
	}
	if t.Priority == newPrio {
		return nil
	}

	state := s.irq.Disable()
	onRQ := t.Status.OnRunqueue()
	if onRQ {
		s.rqPop(t)
		s.rqPush(t, newPrio)
	}
	t.Priority = newPrio
	s.irq.Restore(state)

	active := s.active
	if active == t || (active != nil && active.Priority > newPrio && onRQ) {
		s.arch.YieldHigher()
	}
	return nil
}

// TaskExit retires the calling thread, never returning to its caller in
// spirit: per §4.7 interrupts stay disabled until cpu_switch_context_exit,
// since the exiting thread never executes another instruction of its own.
// On real hardware the architecture-specific context switch that follows
// restores whichever interrupt-mask state the next thread was saved with,
// as part of restoring its register context; our Arch collaborator has no
// such per-thread saved flags, so we restore the mask here before the
// (non-returning) call to SwitchContextExit, to let the rest of the
// simulated system keep servicing other threads.
func (s *Scheduler) TaskExit(currentPID PID) {
	state := s.irq.Disable()

	t := s.Thread(currentPID)
	if t != nil {
		s.procs[currentPID] = nil
		s.free = append(s.free, currentPID)
		s.live--
		s.SetStatus(t, StatusStopped)
	}
	s.active = nil
	s.activePID = UndefPID

	s.irq.Restore(state)

	s.arch.SwitchContextExit()
}
