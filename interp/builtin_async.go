package interp

import (
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

// newPromiseWithExecutor runs a Promise executor synchronously with
// single-use resolve and reject capabilities.
func (in *Interpreter) newPromiseWithExecutor(executor *runtime.Value) (*runtime.Value, error) {
	pv := runtime.NewPromiseValue()
	p := pv.Promise
	settled := false
	resolve := runtime.NewFunction(&runtime.FunctionValue{
		Kind: runtime.CallablePromiseCapability,
		Name: "resolve",
		Native: func(args []*runtime.Value) (*runtime.Value, error) {
			if !settled {
				settled = true
				in.resolveWith(pv.Promise, argAt(args, 0))
			}
			return runtime.Undefined, nil
		},
	})
	reject := runtime.NewFunction(&runtime.FunctionValue{
		Kind: runtime.CallablePromiseCapability,
		Name: "reject",
		Native: func(args []*runtime.Value) (*runtime.Value, error) {
			if !settled {
				settled = true
				p.Reject(in.Loop, argAt(args, 0))
			}
			return runtime.Undefined, nil
		},
	})
	if _, err := in.callFunction(executor, []*runtime.Value{resolve, reject}, nil); err != nil {
		if !settled {
			settled = true
			p.Reject(in.Loop, in.ThrownValue(err))
		}
	}
	return pv, nil
}

// chained returns a derived promise whose settlement runs handler on the
// parent's result. A nil handler passes the outcome through.
func (in *Interpreter) chained(parent *runtime.PromiseValue, onFulfill, onReject *runtime.Value) *runtime.Value {
	out := runtime.NewPromiseValue()
	run := func(fn *runtime.Value, v *runtime.Value, passRejection bool) {
		if fn == nil {
			if passRejection {
				out.Promise.Reject(in.Loop, v)
			} else {
				in.resolveWith(out.Promise, v)
			}
			return
		}
		res, err := in.callFunction(fn, []*runtime.Value{v}, nil)
		if err != nil {
			out.Promise.Reject(in.Loop, in.ThrownValue(err))
			return
		}
		in.resolveWith(out.Promise, res)
	}
	parent.OnSettle(in.Loop,
		func(v *runtime.Value) { run(onFulfill, v, false) },
		func(r *runtime.Value) { run(onReject, r, true) })
	return out
}

func (in *Interpreter) promiseOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.PromiseResolve:
		v := argAt(args, 0)
		if v.Kind == runtime.KindPromise {
			return v, nil
		}
		out := runtime.NewPromiseValue()
		in.resolveWith(out.Promise, v)
		return out, nil
	case ast.PromiseReject:
		out := runtime.NewPromiseValue()
		out.Promise.Reject(in.Loop, argAt(args, 0))
		return out, nil
	case ast.PromiseAll, ast.PromiseAllSettled, ast.PromiseAny, ast.PromiseRace:
		return in.promiseCombinator(op, argAt(args, 0))
	}

	if recv == nil || recv.Kind != runtime.KindPromise {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	handlerAt := func(i int) *runtime.Value {
		if a := argAt(args, i); a.Kind == runtime.KindFunction {
			return a
		}
		return nil
	}
	switch op {
	case ast.PromiseThen:
		return in.chained(recv.Promise, handlerAt(0), handlerAt(1)), nil
	case ast.PromiseCatch:
		return in.chained(recv.Promise, nil, handlerAt(0)), nil
	case ast.PromiseFinally:
		fn := handlerAt(0)
		wrap := func(pass bool) *runtime.Value {
			return runtime.NewFunction(&runtime.FunctionValue{
				Kind: runtime.CallablePromiseCapability,
				Native: func(inner []*runtime.Value) (*runtime.Value, error) {
					if fn != nil {
						if _, err := in.callFunction(fn, nil, nil); err != nil {
							return nil, err
						}
					}
					if pass {
						return argAt(inner, 0), nil
					}
					return nil, &jsError{value: argAt(inner, 0)}
				},
			})
		}
		return in.chained(recv.Promise, wrap(true), wrap(false)), nil
	}
	return nil, typeErrorf("unsupported promise operation %s", op)
}

func (in *Interpreter) promiseCombinator(op ast.BuiltinOp, arg *runtime.Value) (*runtime.Value, error) {
	items, err := in.iterate(arg)
	if err != nil {
		return nil, err
	}
	out := runtime.NewPromiseValue()
	n := len(items)

	asPromise := func(v *runtime.Value) *runtime.PromiseValue {
		if v.Kind == runtime.KindPromise {
			return v.Promise
		}
		pv := runtime.NewPromiseValue()
		in.resolveWith(pv.Promise, v)
		return pv.Promise
	}

	switch op {
	case ast.PromiseRace:
		if n == 0 {
			return out, nil // forever pending
		}
		for _, it := range items {
			asPromise(it).OnSettle(in.Loop,
				func(v *runtime.Value) { in.resolveWith(out.Promise, v) },
				func(r *runtime.Value) { out.Promise.Reject(in.Loop, r) })
		}
		return out, nil
	case ast.PromiseAll:
		results := make([]*runtime.Value, n)
		remaining := n
		if remaining == 0 {
			out.Promise.Fulfill(in.Loop, runtime.NewArray(nil))
			return out, nil
		}
		for i, it := range items {
			i := i
			asPromise(it).OnSettle(in.Loop,
				func(v *runtime.Value) {
					results[i] = v
					remaining--
					if remaining == 0 {
						out.Promise.Fulfill(in.Loop, runtime.NewArray(results))
					}
				},
				func(r *runtime.Value) { out.Promise.Reject(in.Loop, r) })
		}
		return out, nil
	case ast.PromiseAllSettled:
		results := make([]*runtime.Value, n)
		remaining := n
		if remaining == 0 {
			out.Promise.Fulfill(in.Loop, runtime.NewArray(nil))
			return out, nil
		}
		record := func(i int, status string, key string, v *runtime.Value) {
			obj := runtime.NewObjectValue()
			obj.Set("status", runtime.NewString(status))
			obj.Set(key, v)
			results[i] = runtime.NewObject(obj)
			remaining--
			if remaining == 0 {
				out.Promise.Fulfill(in.Loop, runtime.NewArray(results))
			}
		}
		for i, it := range items {
			i := i
			asPromise(it).OnSettle(in.Loop,
				func(v *runtime.Value) { record(i, "fulfilled", "value", v) },
				func(r *runtime.Value) { record(i, "rejected", "reason", r) })
		}
		return out, nil
	default: // PromiseAny
		errors := make([]*runtime.Value, n)
		remaining := n
		if remaining == 0 {
			out.Promise.Reject(in.Loop, in.aggregateError(nil))
			return out, nil
		}
		for i, it := range items {
			i := i
			asPromise(it).OnSettle(in.Loop,
				func(v *runtime.Value) { out.Promise.Fulfill(in.Loop, v) },
				func(r *runtime.Value) {
					errors[i] = r
					remaining--
					if remaining == 0 {
						out.Promise.Reject(in.Loop, in.aggregateError(errors))
					}
				})
		}
		return out, nil
	}
}

func (in *Interpreter) aggregateError(errors []*runtime.Value) *runtime.Value {
	v := newErrorValue("AggregateError", "All promises were rejected")
	v.Obj.Set("errors", runtime.NewArray(errors))
	return v
}

// ---------- timers ----------

func (in *Interpreter) timerOp(op ast.BuiltinOp, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.TimerClearTimeout, ast.TimerClearInterval:
		if a := argAt(args, 0); a.Kind == runtime.KindNumber {
			in.Loop.Clear(a.Int)
		}
		return runtime.Undefined, nil
	case ast.QueueMicrotask:
		fn, err := wantFunction(argAt(args, 0), "queueMicrotask callback")
		if err != nil {
			return nil, err
		}
		in.Loop.QueueMicrotask(func() {
			if _, err := in.callFunction(fn, nil, nil); err != nil {
				in.noteAsyncError(err)
			}
		})
		return runtime.Undefined, nil
	}

	fn, err := wantFunction(argAt(args, 0), "timer callback")
	if err != nil {
		return nil, err
	}
	delay := int64(argAt(args, 1).ToFloat())
	var extra []*runtime.Value
	if len(args) > 2 {
		extra = args[2:]
	}
	task := func() error {
		_, err := in.callFunction(fn, extra, nil)
		return err
	}
	var id int64
	if op == ast.TimerSetInterval {
		id = in.Loop.SetInterval(delay, task)
	} else {
		id = in.Loop.SetTimeout(delay, task)
	}
	return runtime.NewInt(id), nil
}

// ---------- console ----------

func (in *Interpreter) consoleOp(op ast.BuiltinOp, args []*runtime.Value) (*runtime.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = in.displayString(a)
	}
	line := strings.Join(parts, " ")
	switch op {
	case ast.ConsoleWarn:
		line = "[warn] " + line
	case ast.ConsoleError:
		line = "[error] " + line
	}
	in.Console = append(in.Console, line)
	return runtime.Undefined, nil
}
