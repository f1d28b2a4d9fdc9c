package sched

import "fmt"

// DefaultTraceLimit is the default cap on retained trace lines.
const DefaultTraceLimit = 200

// TraceLog is a bounded log of timer and event lifecycle lines kept for
// test debugging. When the cap is reached the oldest lines are dropped.
type TraceLog struct {
	lines []string
	limit int
}

// NewTraceLog returns a log retaining at most limit lines.
func NewTraceLog(limit int) *TraceLog {
	return &TraceLog{limit: limit}
}

// SetLimit changes the cap, trimming the oldest lines if needed.
func (t *TraceLog) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	t.limit = n
	t.trim()
}

// Addf appends a formatted line.
func (t *TraceLog) Addf(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
	t.trim()
}

func (t *TraceLog) trim() {
	if t.limit >= 0 && len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

// Lines returns a copy of the retained lines, oldest first.
func (t *TraceLog) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Reset discards all lines.
func (t *TraceLog) Reset() {
	t.lines = nil
}
