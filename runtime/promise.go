package runtime

// PromiseState is the settlement state of a promise.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// MicrotaskQueue schedules promise reactions. The scheduler implements it.
type MicrotaskQueue interface {
	QueueMicrotask(fn func())
}

// Reaction is one registered settlement callback pair.
type Reaction struct {
	OnFulfill func(*Value)
	OnReject  func(*Value)
}

// PromiseValue is the promise state machine. ID gives each promise an
// identity independent of structural equality, used to detect
// self-resolution. Once the state leaves Pending it never changes again;
// Fulfill and Reject enforce that at their entry points.
type PromiseValue struct {
	ID        int64
	State     PromiseState
	Result    *Value
	reactions []Reaction
}

var promiseSeq int64

// NewPromise returns a pending promise with a fresh identity.
func NewPromise() *PromiseValue {
	promiseSeq++
	return &PromiseValue{ID: promiseSeq, Result: Undefined}
}

// NewPromiseValue wraps a fresh pending promise in a Value.
func NewPromiseValue() *Value {
	return &Value{Kind: KindPromise, Promise: NewPromise()}
}

// Fulfill settles the promise with v. A second settlement is a no-op.
// Reactions queued while pending are scheduled as microtasks now.
func (p *PromiseValue) Fulfill(q MicrotaskQueue, v *Value) {
	if p.State != PromisePending {
		return
	}
	p.State = PromiseFulfilled
	p.Result = v
	p.drain(q)
}

// Reject settles the promise with reason r. A second settlement is a no-op.
func (p *PromiseValue) Reject(q MicrotaskQueue, r *Value) {
	if p.State != PromisePending {
		return
	}
	p.State = PromiseRejected
	p.Result = r
	p.drain(q)
}

func (p *PromiseValue) drain(q MicrotaskQueue) {
	reactions := p.reactions
	p.reactions = nil
	result := p.Result
	fulfilled := p.State == PromiseFulfilled
	for _, r := range reactions {
		r := r
		q.QueueMicrotask(func() {
			if fulfilled {
				if r.OnFulfill != nil {
					r.OnFulfill(result)
				}
			} else {
				if r.OnReject != nil {
					r.OnReject(result)
				}
			}
		})
	}
}

// OnSettle registers a reaction. While pending it is queued on the promise;
// after settlement it is scheduled as a microtask immediately with the
// already-known outcome.
func (p *PromiseValue) OnSettle(q MicrotaskQueue, onFulfill, onReject func(*Value)) {
	switch p.State {
	case PromisePending:
		p.reactions = append(p.reactions, Reaction{OnFulfill: onFulfill, OnReject: onReject})
	case PromiseFulfilled:
		result := p.Result
		q.QueueMicrotask(func() {
			if onFulfill != nil {
				onFulfill(result)
			}
		})
	case PromiseRejected:
		result := p.Result
		q.QueueMicrotask(func() {
			if onReject != nil {
				onReject(result)
			}
		})
	}
}
