package sched

import (
	"errors"
	"strings"
	"testing"
)

func logTo(log *[]string, s string) func() error {
	return func() error {
		*log = append(*log, s)
		return nil
	}
}

func TestTimeoutFiresAtDueTime(t *testing.T) {
	l := New()
	var log []string
	l.SetTimeout(100, logTo(&log, "fired"))
	if err := l.AdvanceTime(99); err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Fatalf("fired early: %v", log)
	}
	if err := l.AdvanceTime(1); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 {
		t.Fatalf("expected one firing, got %v", log)
	}
	if n := len(l.PendingTimers()); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestEqualDueTimeRunsInScheduleOrder(t *testing.T) {
	l := New()
	var log []string
	l.SetTimeout(10, logTo(&log, "first"))
	l.SetTimeout(10, logTo(&log, "second"))
	l.SetTimeout(5, logTo(&log, "early"))
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	want := "early,first,second"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestScheduleOrderSurvivesCancellation(t *testing.T) {
	l := New()
	var log []string
	l.SetTimeout(10, logTo(&log, "a"))
	id := l.SetTimeout(10, logTo(&log, "b"))
	l.SetTimeout(10, logTo(&log, "c"))
	l.Clear(id)
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log, ","); got != "a,c" {
		t.Fatalf("expected a,c, got %s", got)
	}
}

func TestClockAdvancesToEachDueTime(t *testing.T) {
	l := New()
	var seen []int64
	l.SetTimeout(10, func() error { seen = append(seen, l.Now()); return nil })
	l.SetTimeout(30, func() error { seen = append(seen, l.Now()); return nil })
	if err := l.AdvanceTime(50); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != 10 || seen[1] != 30 {
		t.Fatalf("expected callbacks at 10 and 30, got %v", seen)
	}
	if l.Now() != 50 {
		t.Fatalf("clock should land on the target, got %d", l.Now())
	}
}

func TestIntervalKeepsPhase(t *testing.T) {
	l := New()
	var seen []int64
	l.SetInterval(10, func() error { seen = append(seen, l.Now()); return nil })
	if err := l.AdvanceTime(35); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 || seen[0] != 10 || seen[1] != 20 || seen[2] != 30 {
		t.Fatalf("expected firings at 10,20,30, got %v", seen)
	}
}

func TestIntervalSelfClearSuppressesReenqueue(t *testing.T) {
	l := New()
	runs := 0
	var id int64
	id = l.SetInterval(10, func() error {
		runs++
		if runs == 2 {
			l.Clear(id)
		}
		return nil
	})
	if err := l.AdvanceTime(100); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
	if n := len(l.PendingTimers()); n != 0 {
		t.Fatalf("expected no pending timers, got %d", n)
	}
}

func TestNonPositiveIntervalClampedToOne(t *testing.T) {
	l := New()
	runs := 0
	id := l.SetInterval(0, func() error { runs++; return nil })
	if err := l.AdvanceTime(3); err != nil {
		t.Fatal(err)
	}
	l.Clear(id)
	if runs != 3 {
		t.Fatalf("expected 3 runs, got %d", runs)
	}
}

func TestNegativeDelayRunsImmediately(t *testing.T) {
	l := New()
	fired := false
	l.SetTimeout(-5, func() error { fired = true; return nil })
	if err := l.AdvanceTime(0); err != nil {
		t.Fatal(err)
	}
	if !fired {
		t.Fatal("timer with negative delay should be due at once")
	}
}

func TestBackwardMovesRejected(t *testing.T) {
	l := New()
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	if err := l.AdvanceTime(-1); err == nil || !strings.Contains(err.Error(), "negative") {
		t.Fatalf("expected negative delta error, got %v", err)
	}
	if err := l.AdvanceTimeTo(5); err == nil || !strings.Contains(err.Error(), "backward") {
		t.Fatalf("expected backward clock error, got %v", err)
	}
}

func TestFlushStepLimit(t *testing.T) {
	l := New()
	l.FlushLimit = 10
	l.SetInterval(1, func() error { return nil })
	err := l.Flush()
	if err == nil || !strings.Contains(err.Error(), "step limit") {
		t.Fatalf("expected step limit error, got %v", err)
	}
}

func TestFlushRunsChainedTimeouts(t *testing.T) {
	l := New()
	hops := 0
	var hop func() error
	hop = func() error {
		hops++
		if hops < 3 {
			l.SetTimeout(10, hop)
		}
		return nil
	}
	l.SetTimeout(10, hop)
	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}
	if hops != 3 || l.Now() != 30 {
		t.Fatalf("expected 3 hops ending at 30, got %d at %d", hops, l.Now())
	}
}

func TestTaskErrorStopsAdvance(t *testing.T) {
	l := New()
	boom := errors.New("task failed")
	l.SetTimeout(10, func() error { return boom })
	fired := false
	l.SetTimeout(20, func() error { fired = true; return nil })
	if err := l.AdvanceTime(50); !errors.Is(err, boom) {
		t.Fatalf("expected the task error, got %v", err)
	}
	if fired {
		t.Fatal("later timer must not run after a failure")
	}
}

func TestMicrotasksDrainAfterEachTask(t *testing.T) {
	l := New()
	var log []string
	l.SetTimeout(10, func() error {
		log = append(log, "task 1")
		l.QueueMicrotask(func() { log = append(log, "micro") })
		return nil
	})
	l.SetTimeout(10, logTo(&log, "task 2"))
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log, ","); got != "task 1,micro,task 2" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestMicrotasksCanQueueMicrotasks(t *testing.T) {
	l := New()
	var log []string
	l.QueueMicrotask(func() {
		log = append(log, "outer")
		l.QueueMicrotask(func() { log = append(log, "inner") })
	})
	if err := l.DrainMicrotasks(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log, ","); got != "outer,inner" {
		t.Fatalf("unexpected order: %s", got)
	}
	if l.MicrotaskCount() != 0 {
		t.Fatal("queue should be empty after a drain")
	}
}

func TestRunNextTimerJumpsTheClock(t *testing.T) {
	l := New()
	fired := false
	l.SetTimeout(500, func() error { fired = true; return nil })
	ran, err := l.RunNextTimer()
	if err != nil || !ran || !fired {
		t.Fatalf("expected the timer to run: ran=%v fired=%v err=%v", ran, fired, err)
	}
	if l.Now() != 500 {
		t.Fatalf("clock should jump to the due time, got %d", l.Now())
	}
	if ran, _ := l.RunNextTimer(); ran {
		t.Fatal("no further timers expected")
	}
}

func TestRunNextDueTimerRespectsTheClock(t *testing.T) {
	l := New()
	l.SetTimeout(10, func() error { return nil })
	if ran, _ := l.RunNextDueTimer(); ran {
		t.Fatal("timer is not due yet")
	}
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	if n := len(l.PendingTimers()); n != 0 {
		t.Fatalf("expected the advance to run it, got %d pending", n)
	}
}

func TestTraceRecordsLifecycle(t *testing.T) {
	l := New()
	id := l.SetTimeout(10, func() error { return nil })
	if err := l.AdvanceTime(10); err != nil {
		t.Fatal(err)
	}
	l.Clear(id) // already fired; must be a no-op
	joined := strings.Join(l.Trace().Lines(), "\n")
	if !strings.Contains(joined, "scheduled due=10") || !strings.Contains(joined, "fired at=10") {
		t.Fatalf("unexpected trace:\n%s", joined)
	}
}

func TestTraceLimitKeepsNewestLines(t *testing.T) {
	l := New()
	l.Trace().SetLimit(2)
	for i := 0; i < 5; i++ {
		l.SetTimeout(int64(i+1), func() error { return nil })
	}
	lines := l.Trace().Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "timer 5 scheduled") {
		t.Fatalf("expected the newest line to survive, got %v", lines)
	}
}
