package runtime

import "testing"

// queue is a minimal MicrotaskQueue for tests.
type queue struct {
	fns []func()
}

func (q *queue) QueueMicrotask(fn func()) { q.fns = append(q.fns, fn) }

func (q *queue) drain() {
	for len(q.fns) > 0 {
		fn := q.fns[0]
		q.fns = q.fns[1:]
		fn()
	}
}

func TestFulfillRunsReactionsAsMicrotasks(t *testing.T) {
	q := &queue{}
	p := NewPromise()
	var got *Value
	p.OnSettle(q, func(v *Value) { got = v }, nil)
	p.Fulfill(q, NewInt(42))
	if got != nil {
		t.Fatal("reaction must not run synchronously")
	}
	q.drain()
	if got == nil || got.Int != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestSettlementIsIdempotent(t *testing.T) {
	q := &queue{}
	p := NewPromise()
	p.Fulfill(q, NewInt(1))
	p.Fulfill(q, NewInt(2))
	p.Reject(q, NewString("late"))
	q.drain()
	if p.State != PromiseFulfilled || p.Result.Int != 1 {
		t.Fatalf("first settlement must win, got %s %s", p.State, p.Result.Inspect())
	}
}

func TestRejectAfterFulfillIgnored(t *testing.T) {
	q := &queue{}
	p := NewPromise()
	fulfilled, rejected := 0, 0
	p.OnSettle(q, func(*Value) { fulfilled++ }, func(*Value) { rejected++ })
	p.Fulfill(q, Undefined)
	p.Reject(q, Undefined)
	q.drain()
	if fulfilled != 1 || rejected != 0 {
		t.Fatalf("expected only the fulfill reaction, got f=%d r=%d", fulfilled, rejected)
	}
}

func TestOnSettleAfterSettlement(t *testing.T) {
	q := &queue{}
	p := NewPromise()
	p.Reject(q, NewString("reason"))
	var got *Value
	p.OnSettle(q, nil, func(v *Value) { got = v })
	if got != nil {
		t.Fatal("late reaction still goes through the microtask queue")
	}
	q.drain()
	if got == nil || got.Str != "reason" {
		t.Fatalf("expected the rejection reason, got %v", got)
	}
}

func TestMultipleReactionsRunInOrder(t *testing.T) {
	q := &queue{}
	p := NewPromise()
	var order []int
	p.OnSettle(q, func(*Value) { order = append(order, 1) }, nil)
	p.OnSettle(q, func(*Value) { order = append(order, 2) }, nil)
	p.Fulfill(q, Undefined)
	q.drain()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("reactions must run in registration order, got %v", order)
	}
}

func TestPromiseIdentity(t *testing.T) {
	a, b := NewPromise(), NewPromise()
	if a.ID == b.ID {
		t.Fatal("each promise needs a distinct identity")
	}
}

func TestStateString(t *testing.T) {
	if PromisePending.String() != "pending" ||
		PromiseFulfilled.String() != "fulfilled" ||
		PromiseRejected.String() != "rejected" {
		t.Fatal("unexpected state names")
	}
}
