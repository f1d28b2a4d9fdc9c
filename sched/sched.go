// Package sched is the cooperative concurrency core: a macrotask timer queue
// driven by an explicit virtual clock, plus the microtask queue promise
// reactions run on. Nothing here touches real time; the clock only moves
// when a caller advances it, which makes every run replayable.
package sched

import (
	"fmt"
	"sort"
)

// Task is one scheduled macrotask. Ordering key is (DueAt, Seq): ties on due
// time are broken by scheduling order, which holds even across cancellation
// because Seq is never reused.
type Task struct {
	ID       int64
	DueAt    int64
	Seq      int64
	Interval int64 // 0 for one-shot timers
	Fn       func() error
}

// DefaultFlushLimit bounds Flush so a repeating interval that never clears
// itself becomes a reported error instead of an infinite loop.
const DefaultFlushLimit = 10000

// Loop owns the virtual clock, the timer queue and the microtask queue.
type Loop struct {
	now        int64
	tasks      []*Task
	micro      []func()
	nextID     int64
	nextSeq    int64
	runningID  int64 // id of the in-flight timer, 0 otherwise
	canceledID map[int64]bool
	FlushLimit int
	trace      *TraceLog
}

// New returns an empty loop with the clock at zero.
func New() *Loop {
	return &Loop{
		canceledID: make(map[int64]bool),
		FlushLimit: DefaultFlushLimit,
		trace:      NewTraceLog(DefaultTraceLimit),
	}
}

// Now returns the virtual clock in milliseconds.
func (l *Loop) Now() int64 { return l.now }

// Trace returns the loop's trace log.
func (l *Loop) Trace() *TraceLog { return l.trace }

// SetTimeout schedules fn once after delay milliseconds and returns its id.
func (l *Loop) SetTimeout(delay int64, fn func() error) int64 {
	return l.schedule(delay, 0, fn)
}

// SetInterval schedules fn every interval milliseconds and returns its id.
// A non-positive interval is treated as 1 to keep phase arithmetic sane.
func (l *Loop) SetInterval(interval int64, fn func() error) int64 {
	if interval < 1 {
		interval = 1
	}
	return l.schedule(interval, interval, fn)
}

func (l *Loop) schedule(delay, interval int64, fn func() error) int64 {
	if delay < 0 {
		delay = 0
	}
	l.nextID++
	l.nextSeq++
	t := &Task{
		ID:       l.nextID,
		DueAt:    l.now + delay,
		Seq:      l.nextSeq,
		Interval: interval,
		Fn:       fn,
	}
	l.tasks = append(l.tasks, t)
	l.trace.Addf("timer %d scheduled due=%d interval=%d", t.ID, t.DueAt, interval)
	return t.ID
}

// Clear cancels timer id. Clearing a timer already dequeued for execution
// has no effect on the current invocation, but a repeating task that clears
// itself mid-flight suppresses its own re-enqueue.
func (l *Loop) Clear(id int64) {
	if id == l.runningID {
		l.canceledID[id] = true
		l.trace.Addf("timer %d canceled in flight", id)
		return
	}
	for i, t := range l.tasks {
		if t.ID == id {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			l.trace.Addf("timer %d canceled", id)
			return
		}
	}
}

// PendingTimers returns the ids of queued timers in execution order.
func (l *Loop) PendingTimers() []int64 {
	l.sortTasks()
	out := make([]int64, len(l.tasks))
	for i, t := range l.tasks {
		out[i] = t.ID
	}
	return out
}

func (l *Loop) sortTasks() {
	sort.SliceStable(l.tasks, func(i, j int) bool {
		if l.tasks[i].DueAt != l.tasks[j].DueAt {
			return l.tasks[i].DueAt < l.tasks[j].DueAt
		}
		return l.tasks[i].Seq < l.tasks[j].Seq
	})
}

// pop removes and returns the next task by (DueAt, Seq), or nil.
func (l *Loop) pop() *Task {
	if len(l.tasks) == 0 {
		return nil
	}
	l.sortTasks()
	t := l.tasks[0]
	l.tasks = l.tasks[1:]
	return t
}

// runTask executes one dequeued task, drains microtasks, and re-enqueues
// interval tasks at previous due + interval so the phase is preserved.
func (l *Loop) runTask(t *Task) error {
	l.runningID = t.ID
	l.trace.Addf("timer %d fired at=%d", t.ID, l.now)
	err := t.Fn()
	l.runningID = 0
	canceled := l.canceledID[t.ID]
	delete(l.canceledID, t.ID)
	if err == nil {
		err = l.DrainMicrotasks()
	} else {
		l.DrainMicrotasks()
	}
	if t.Interval > 0 && !canceled {
		l.nextSeq++
		l.tasks = append(l.tasks, &Task{
			ID:       t.ID,
			DueAt:    t.DueAt + t.Interval,
			Seq:      l.nextSeq,
			Interval: t.Interval,
			Fn:       t.Fn,
		})
	}
	return err
}

// AdvanceTime moves the clock forward by delta and runs every task that
// comes due, in (DueAt, Seq) order. Negative deltas are rejected.
func (l *Loop) AdvanceTime(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("RuntimeError: cannot advance time by a negative amount (%d)", delta)
	}
	return l.AdvanceTimeTo(l.now + delta)
}

// AdvanceTimeTo moves the clock to target, running due tasks along the way.
// Moving backward is rejected.
func (l *Loop) AdvanceTimeTo(target int64) error {
	if target < l.now {
		return fmt.Errorf("RuntimeError: cannot move the clock backward (now=%d target=%d)", l.now, target)
	}
	steps := 0
	for {
		l.sortTasks()
		if len(l.tasks) == 0 || l.tasks[0].DueAt > target {
			break
		}
		steps++
		if steps > l.FlushLimit {
			return fmt.Errorf("RuntimeError: timer step limit of %d exceeded while advancing time", l.FlushLimit)
		}
		t := l.pop()
		if t.DueAt > l.now {
			l.now = t.DueAt
		}
		if err := l.runTask(t); err != nil {
			return err
		}
	}
	l.now = target
	return nil
}

// RunNextTimer runs the next queued timer regardless of due time, advancing
// the clock to its due time. It reports whether a timer ran.
func (l *Loop) RunNextTimer() (bool, error) {
	t := l.pop()
	if t == nil {
		return false, nil
	}
	if t.DueAt > l.now {
		l.now = t.DueAt
	}
	return true, l.runTask(t)
}

// RunNextDueTimer runs the next timer only if it is already due.
func (l *Loop) RunNextDueTimer() (bool, error) {
	l.sortTasks()
	if len(l.tasks) == 0 || l.tasks[0].DueAt > l.now {
		return false, nil
	}
	return l.RunNextTimer()
}

// Flush drains the whole timer queue, advancing the clock as each task
// runs. The step limit turns a runaway repeating interval into an error.
func (l *Loop) Flush() error {
	steps := 0
	for len(l.tasks) > 0 {
		steps++
		if steps > l.FlushLimit {
			return fmt.Errorf("RuntimeError: timer step limit of %d exceeded during flush (runaway interval?)", l.FlushLimit)
		}
		if _, err := l.RunNextTimer(); err != nil {
			return err
		}
	}
	return nil
}

// QueueMicrotask appends fn to the microtask queue.
func (l *Loop) QueueMicrotask(fn func()) {
	l.micro = append(l.micro, fn)
}

// DrainMicrotasks runs queued microtasks to exhaustion, including ones
// queued by microtasks themselves. Every synchronous burst (an event
// dispatch, a timer firing, a flush step) drains before control returns to
// the caller.
func (l *Loop) DrainMicrotasks() error {
	steps := 0
	for len(l.micro) > 0 {
		steps++
		if steps > l.FlushLimit {
			return fmt.Errorf("RuntimeError: microtask step limit of %d exceeded", l.FlushLimit)
		}
		fn := l.micro[0]
		l.micro = l.micro[1:]
		fn()
	}
	return nil
}

// MicrotaskCount returns the number of queued microtasks (testing helper).
func (l *Loop) MicrotaskCount() int { return len(l.micro) }
