package rtsched

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type threaded through Scheduler and
// FeedbackController: github.com/joeycumines/logiface's generic builder,
// backed by github.com/joeycumines/stumpy's JSON writer. A nil Logger is
// always safe to use — every helper below checks for nil before logging.
type Logger = *logiface.Logger[*stumpy.Event]

// NewJSONLogger builds a Logger writing newline-delimited JSON to w at the
// given minimum level, following logiface-stumpy's own construction
// pattern (L.New(L.WithStumpy(WithWriter(w)))).
func NewJSONLogger(w io.Writer, level logiface.Level) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}

// logPushPop records a push or pop against a priority class.
func logPushPop(l Logger, op string, pid PID, p Priority, becameEmpty bool) {
	if l == nil {
		return
	}
	l.Debug().
		Str("op", op).
		Int("pid", int(pid)).
		Int("priority", int(p)).
		Bool("class_empty", becameEmpty).
		Log("runqueue mutation")
}

// logSelect records a PickNext decision.
func logSelect(l Logger, prev, next PID, sameThread bool) {
	if l == nil {
		return
	}
	l.Trace().
		Int("prev_pid", int(prev)).
		Int("next_pid", int(next)).
		Bool("same_thread", sameThread).
		Log("pick_next")
}

// logDemotion records a feedback-controller priority demotion.
func logDemotion(l Logger, pid PID, from, to Priority) {
	if l == nil {
		return
	}
	l.Debug().
		Int("pid", int(pid)).
		Int("from", int(from)).
		Int("to", int(to)).
		Log("feedback demotion")
}

// logStackOverflow records a fatal stack-canary mismatch before the Arch
// collaborator's Panic is invoked.
func logStackOverflow(l Logger, pid PID, name string) {
	if l == nil {
		return
	}
	l.Crit().
		Int("pid", int(pid)).
		Str("name", name).
		Log("stack overflow detected")
}
