package rtsched

// rqPush appends t onto the tail of priority class p's FIFO and sets the
// bit-cache bit for p. If the class was empty beforehand and p is the
// priority of the currently running thread, the runqueue-change notifier
// fires — see §4.2 and §4.8 of the design.
func (s *Scheduler) rqPush(t *Thread, p Priority) {
	head := s.heads[p]
	wasEmpty := head == UndefPID
	if wasEmpty {
		t.rqNext = t.PID
		t.rqPrev = t.PID
		s.heads[p] = t.PID
	} else {
		tail := s.procs[head].rqPrev
		s.procs[tail].rqNext = t.PID
		t.rqPrev = tail
		t.rqNext = head
		s.procs[head].rqPrev = t.PID
	}
	s.cache.set(p)

	if wasEmpty && s.activePID != UndefPID && s.procs[s.activePID].Priority == p {
		s.fireRunqChange(p)
	}
}

// rqPop unlinks t from the FIFO of priority class t.Priority. If that
// leaves the class empty, the bit-cache bit is cleared and the
// runqueue-change notifier fires. The unlink itself works at any position
// in the ring, and SetStatus and ChangePriority also pop pending threads
// that are not the head. Under -tags rtsched_debug, t is asserted to be
// the head of its class — the position PickNext leaves the selected
// thread in (see the "head is running" design note).
func (s *Scheduler) rqPop(t *Thread) {
	p := t.Priority
	debugAssertf(s.heads[p] == t.PID, "rqPop", "thread %d is not the head of runqueue %d", t.PID, p)

	if t.rqNext == t.PID {
		s.heads[p] = UndefPID
		s.cache.clear(p)
		t.rqNext, t.rqPrev = UndefPID, UndefPID
		s.fireRunqChange(p)
		return
	}

	next, prev := t.rqNext, t.rqPrev
	s.procs[prev].rqNext = next
	s.procs[next].rqPrev = prev
	if s.heads[p] == t.PID {
		s.heads[p] = next
	}
	t.rqNext, t.rqPrev = UndefPID, UndefPID
}

// rqAdvance rotates priority class p's FIFO by one position (head moves to
// tail), implementing the round-robin step the feedback controller uses at
// quantum boundaries. It is a pure O(1) pointer swing: occupancy does not
// change, so the bit-cache and notifier are untouched.
func (s *Scheduler) rqAdvance(p Priority) {
	head := s.heads[p]
	if head == UndefPID {
		return
	}
	if s.procs[head].rqNext == head {
		return // single element, rotating is a no-op
	}
	s.heads[p] = s.procs[head].rqNext
}

// rqHead returns the thread at the head of priority class p, or nil if the
// class is empty.
func (s *Scheduler) rqHead(p Priority) *Thread {
	head := s.heads[p]
	if head == UndefPID {
		return nil
	}
	return s.procs[head]
}

// rqEmpty reports whether priority class p currently has no threads.
func (s *Scheduler) rqEmpty(p Priority) bool {
	return s.heads[p] == UndefPID
}

// fireRunqChange invokes the scheduler's single runqueue-change observer,
// if one is registered. Firing happens with the IRQ critical section
// already held by the caller (rqPush/rqPop run only under that section),
// so the observer — in practice FeedbackController.onRunqChange — must not
// itself try to re-disable interrupts.
func (s *Scheduler) fireRunqChange(p Priority) {
	if s.onRunqChange != nil {
		s.onRunqChange(p)
	}
}
