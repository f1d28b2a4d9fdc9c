package interp

import (
	"strings"
	"testing"

	"github.com/example/pagejs/sched"
)

func runScript(t *testing.T, in *Interpreter, src string) {
	t.Helper()
	if _, err := in.Run(src); err != nil {
		t.Fatalf("Run error for %q: %v", src, err)
	}
}

func wantConsole(t *testing.T, in *Interpreter, want ...string) {
	t.Helper()
	if len(in.Console) != len(want) {
		t.Fatalf("expected console %v, got %v", want, in.Console)
	}
	for i, w := range want {
		if in.Console[i] != w {
			t.Fatalf("console line %d: expected %q, got %q (full: %v)", i, w, in.Console[i], in.Console)
		}
	}
}

func TestSetTimeoutOrdering(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		setTimeout(() => console.log("late"), 100);
		setTimeout(() => console.log("early"), 10);
		console.log("sync");
	`)
	wantConsole(t, in, "sync")
	if err := loop.AdvanceTime(50); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "sync", "early")
	if err := loop.AdvanceTime(50); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "sync", "early", "late")
}

func TestTimerExtraArguments(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `setTimeout((a, b) => console.log(a + b), 5, 40, 2)`)
	if err := loop.AdvanceTime(5); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "42")
}

func TestClearTimeout(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		const id = setTimeout(() => console.log("never"), 10);
		clearTimeout(id);
	`)
	if err := loop.AdvanceTime(100); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in)
	if n := len(loop.PendingTimers()); n != 0 {
		t.Fatalf("expected no pending timers, got %d", n)
	}
}

func TestIntervalPhasePreserved(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `setInterval(() => console.log("tick " + Date.now()), 10)`)
	// a large jump runs each missed occurrence at its own due time
	if err := loop.AdvanceTime(35); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "tick 10", "tick 20", "tick 30")
}

func TestIntervalSelfCancel(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		let runs = 0;
		const id = setInterval(() => {
			runs++;
			console.log("run " + runs);
			if (runs === 2) clearInterval(id);
		}, 10);
	`)
	if err := loop.AdvanceTime(100); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "run 1", "run 2")
	if n := len(loop.PendingTimers()); n != 0 {
		t.Fatalf("expected interval gone after self-cancel, got %d pending", n)
	}
}

func TestFlushStepLimit(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `setInterval(() => {}, 1)`)
	err := loop.Flush()
	if err == nil || !strings.Contains(err.Error(), "RuntimeError") {
		t.Fatalf("expected step limit RuntimeError, got %v", err)
	}
}

func TestBackwardClockRejected(t *testing.T) {
	loop := sched.New()
	if err := loop.AdvanceTime(10); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	if err := loop.AdvanceTimeTo(5); err == nil {
		t.Fatal("expected error moving the clock backward")
	}
	if err := loop.AdvanceTime(-1); err == nil {
		t.Fatal("expected error on negative delta")
	}
}

func TestMicrotasksDrainBeforeNextTimer(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		setTimeout(() => {
			console.log("timer 1");
			Promise.resolve().then(() => console.log("micro 1"));
		}, 10);
		setTimeout(() => console.log("timer 2"), 10);
	`)
	if err := loop.AdvanceTime(10); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "timer 1", "micro 1", "timer 2")
}

func TestPromiseOrdering(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		console.log("start");
		Promise.resolve(1).then((v) => {
			console.log("then " + v);
			return v + 1;
		}).then((v) => console.log("then " + v));
		console.log("end");
	`)
	// microtasks drained at the end of the run, after synchronous code
	wantConsole(t, in, "start", "end", "then 1", "then 2")
}

func TestPromiseChainValueThreading(t *testing.T) {
	expectIntAfter(t, `
		let got;
		Promise.resolve(2)
			.then((v) => v * 3)
			.then((v) => Promise.resolve(v + 1))
			.then((v) => { got = v; });`, "got", 7)
}

func TestPromiseCatchRecovery(t *testing.T) {
	expectStringAfter(t, `
		let got;
		Promise.reject(new Error("first"))
			.catch((e) => "recovered from " + e.message)
			.then((v) => { got = v; });`, "got", "recovered from first")
	// a throw inside then rejects the derived promise
	expectStringAfter(t, `
		let got;
		Promise.resolve(1)
			.then(() => { throw new Error("mid"); })
			.catch((e) => { got = e.message; });`, "got", "mid")
}

func TestPromiseFinally(t *testing.T) {
	expectStringAfter(t, `
		let steps = "";
		Promise.resolve("v")
			.finally(() => { steps += "f"; })
			.then((v) => { steps += v; });`, "steps", "fv")
	expectStringAfter(t, `
		let steps = "";
		Promise.reject(new Error("r"))
			.finally(() => { steps += "f"; })
			.catch((e) => { steps += e.message; });`, "steps", "fr")
}

func TestPromiseExecutorCapabilities(t *testing.T) {
	expectIntAfter(t, `
		let got;
		new Promise((resolve) => resolve(5)).then((v) => { got = v; });`, "got", 5)
	expectStringAfter(t, `
		let got;
		new Promise((resolve, reject) => reject(new Error("no"))).catch((e) => { got = e.message; });`,
		"got", "no")
	// the executor's capabilities are single use
	expectIntAfter(t, `
		let got;
		new Promise((resolve) => { resolve(1); resolve(2); }).then((v) => { got = v; });`, "got", 1)
	// an executor throw rejects
	expectStringAfter(t, `
		let got;
		new Promise(() => { throw new Error("exec"); }).catch((e) => { got = e.message; });`, "got", "exec")
}

func TestPromiseCombinators(t *testing.T) {
	expectStringAfter(t, `
		let got;
		Promise.all([Promise.resolve(1), 2, Promise.resolve(3)]).then((vs) => { got = vs.join(","); });`,
		"got", "1,2,3")
	expectStringAfter(t, `
		let got;
		Promise.all([Promise.resolve(1), Promise.reject(new Error("boom"))]).catch((e) => { got = e.message; });`,
		"got", "boom")
	expectStringAfter(t, `
		let got;
		Promise.allSettled([Promise.resolve(1), Promise.reject(new Error("x"))])
			.then((rs) => { got = rs.map((r) => r.status).join(","); });`,
		"got", "fulfilled,rejected")
	expectIntAfter(t, `
		let got;
		Promise.race([Promise.resolve(9), Promise.resolve(1)]).then((v) => { got = v; });`, "got", 9)
	expectIntAfter(t, `
		let got;
		Promise.any([Promise.reject(new Error("a")), Promise.resolve(7)]).then((v) => { got = v; });`,
		"got", 7)
	expectIntAfter(t, `
		let got;
		Promise.any([Promise.reject(new Error("a")), Promise.reject(new Error("b"))])
			.catch((e) => { got = e.errors.length; });`,
		"got", 2)
}

func TestPromiseAllLateRejection(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		const fast = new Promise((resolve) => setTimeout(() => resolve(1), 10));
		const slow = new Promise((resolve, reject) => setTimeout(() => reject(new Error("slow")), 20));
		Promise.all([slow, fast]).then(
			(vs) => console.log("fulfilled " + vs.join(",")),
			(e) => console.log("rejected " + e.message));
	`)
	if err := loop.AdvanceTime(10); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	// fast has settled but slow is still pending, so the combined promise is too
	wantConsole(t, in)
	if err := loop.AdvanceTime(10); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	wantConsole(t, in, "rejected slow")
}

func TestThenableAdoption(t *testing.T) {
	expectStringAfter(t, `
		let got;
		Promise.resolve({ then(resolve) { resolve(42); } }).then((v) => { got = typeof v; });`,
		"got", "number")
	expectStringAfter(t, `
		let got;
		Promise.resolve({ then(resolve, reject) { reject(new Error("nope")); } })
			.catch((e) => { got = e.message; });`,
		"got", "nope")
	// a throw after a capability ran is ignored
	expectIntAfter(t, `
		let got;
		Promise.resolve({ then(resolve) { resolve(7); throw new Error("late"); } })
			.then((v) => { got = v; });`,
		"got", 7)
	expectStringAfter(t, `
		let got;
		Promise.resolve({ then() { throw new Error("broken"); } })
			.catch((e) => { got = e.message; });`,
		"got", "broken")
	// the adoption capabilities are single use
	expectIntAfter(t, `
		let got;
		Promise.resolve({ then(resolve) { resolve(1); resolve(2); } }).then((v) => { got = v; });`,
		"got", 1)
}

func TestQueueMicrotask(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `
		console.log("sync");
		queueMicrotask(() => console.log("micro"));
	`)
	wantConsole(t, in, "sync", "micro")
}

func TestQueueMicrotaskErrorSurfaces(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `queueMicrotask(() => { throwsHere(); })`)
	if err := in.TakeAsyncError(); err == nil {
		t.Fatal("expected the microtask error to be recorded")
	}
}

func TestChainingCycleDetected(t *testing.T) {
	expectStringAfter(t, `
		let got;
		let p = Promise.resolve(1).then(() => p);
		p.catch((e) => { got = e.message; });`, "got", "Chaining cycle detected for promise")
}

func TestTraceLogRecordsTimers(t *testing.T) {
	loop := sched.New()
	in := New(nil, loop)
	runScript(t, in, `setTimeout(() => {}, 10)`)
	if err := loop.AdvanceTime(10); err != nil {
		t.Fatalf("AdvanceTime: %v", err)
	}
	lines := loop.Trace().Lines()
	if len(lines) == 0 {
		t.Fatal("expected trace lines")
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "scheduled") || !strings.Contains(joined, "fired") {
		t.Fatalf("expected schedule and fire lines, got:\n%s", joined)
	}
}
