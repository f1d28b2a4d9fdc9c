package interp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

func typeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("TypeError: "+format, args...)
}

func rangeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("RangeError: "+format, args...)
}

func itoa(n int) string { return strconv.Itoa(n) }

// makeFunction closes a function literal over env. Arrows capture the
// receiver of the scope that created them.
func (in *Interpreter) makeFunction(fl *ast.FunctionLiteral, env *runtime.Environment) *runtime.Value {
	fn := &runtime.FunctionValue{
		Kind: runtime.CallableClosure,
		Name: fl.Name,
		Decl: fl,
	}
	if !env.IsGlobal() {
		fn.Captured = env
	}
	if fl.Arrow {
		if this, err := env.Get("this"); err == nil {
			fn.BoundThis = this
		}
	}
	return runtime.NewFunction(fn)
}

// callFunction invokes fn with args and an optional receiver. Generators
// materialize their yields eagerly; async functions run synchronously and
// wrap the outcome in a promise.
func (in *Interpreter) callFunction(fn *runtime.Value, args []*runtime.Value, this *runtime.Value) (*runtime.Value, error) {
	if fn.Kind != runtime.KindFunction {
		return nil, typeErrorf("%s is not a function", fn.ToString())
	}
	f := fn.Fn
	if f.Native != nil {
		return f.Native(args)
	}
	if f.Decl == nil {
		return nil, typeErrorf("%s is not callable", f.Name)
	}
	if f.Decl.Generator {
		return in.runGenerator(f, args, this)
	}
	if f.Decl.Async {
		p := runtime.NewPromiseValue()
		out, err := in.invoke(f, args, this)
		if err != nil {
			p.Promise.Reject(in.Loop, in.ThrownValue(err))
		} else {
			in.resolveWith(p.Promise, out)
		}
		return p, nil
	}
	return in.invoke(f, args, this)
}

// invoke runs a closure body in a fresh call environment and reconciles the
// captured snapshot and the global map afterwards.
func (in *Interpreter) invoke(f *runtime.FunctionValue, args []*runtime.Value, this *runtime.Value) (*runtime.Value, error) {
	env := runtime.NewCall(f.Captured, in.Global)

	recv := this
	if f.BoundThis != nil {
		recv = f.BoundThis
	}
	if recv == nil {
		recv = runtime.Undefined
	}
	if err := env.Declare("this", "let", recv); err != nil {
		return nil, err
	}
	if f.Name != "" && !env.Has(f.Name) {
		env.Declare(f.Name, "let", runtime.NewFunction(f))
	}
	if err := in.bindParams(f.Decl, args, env); err != nil {
		return nil, err
	}

	in.frames = append(in.frames, frame{this: recv, class: f.Class})
	out, err := in.runBody(f.Decl, env)
	in.frames = in.frames[:len(in.frames)-1]

	env.FinishCall(f.Captured)
	return out, err
}

func (in *Interpreter) runBody(decl *ast.FunctionLiteral, env *runtime.Environment) (*runtime.Value, error) {
	if decl.ExprBody != nil {
		v, sig := in.evalExpr(decl.ExprBody, env)
		if err := signalToError(sig); err != nil {
			return nil, err
		}
		return v, nil
	}
	_, sig := in.execStatements(decl.Body.Statements, env)
	switch sig.typ {
	case sigReturn:
		if sig.value == nil {
			return runtime.Undefined, nil
		}
		return sig.value, nil
	case sigThrow:
		return nil, &jsError{value: sig.value}
	case sigBreak, sigContinue:
		return nil, fmt.Errorf("SyntaxError: illegal break or continue outside a loop")
	}
	return runtime.Undefined, nil
}

// bindParams declares parameters, evaluating defaults lazily: a default runs
// only when the argument is missing or undefined. A trailing rest parameter
// collects the remainder into a fresh array.
func (in *Interpreter) bindParams(decl *ast.FunctionLiteral, args []*runtime.Value, env *runtime.Environment) error {
	for i, p := range decl.Params {
		var v *runtime.Value = runtime.Undefined
		if i < len(args) && args[i] != nil {
			v = args[i]
		}
		if v.Kind == runtime.KindUndefined && i < len(decl.Defaults) && decl.Defaults[i] != nil {
			dv, sig := in.evalExpr(decl.Defaults[i], env)
			if err := signalToError(sig); err != nil {
				return err
			}
			v = dv
		}
		if sig := in.bindPattern(p, v, "let", env); sig.typ != sigNone {
			return signalToError(sig)
		}
	}
	if decl.Rest != nil {
		rest := make([]*runtime.Value, 0)
		if len(args) > len(decl.Params) {
			rest = append(rest, args[len(decl.Params):]...)
		}
		if sig := in.bindPattern(decl.Rest, runtime.NewArray(rest), "let", env); sig.typ != sigNone {
			return signalToError(sig)
		}
	}
	return nil
}

// runGenerator materializes every yield of a generator call into an array.
// Generators here are not resumable coroutines: the body runs once to
// completion and the collected yields are the result.
func (in *Interpreter) runGenerator(f *runtime.FunctionValue, args []*runtime.Value, this *runtime.Value) (*runtime.Value, error) {
	in.yieldSink = append(in.yieldSink, nil)
	plain := &runtime.FunctionValue{
		Kind: f.Kind, Name: f.Name, Captured: f.Captured,
		Class: f.Class, BoundThis: f.BoundThis,
		Decl: &ast.FunctionLiteral{
			Name: f.Decl.Name, Params: f.Decl.Params, Defaults: f.Decl.Defaults,
			Rest: f.Decl.Rest, Body: f.Decl.Body, ExprBody: f.Decl.ExprBody,
		},
	}
	_, err := in.invoke(plain, args, this)
	yields := in.yieldSink[len(in.yieldSink)-1]
	in.yieldSink = in.yieldSink[:len(in.yieldSink)-1]
	if err != nil {
		return nil, err
	}
	return runtime.NewArray(yields), nil
}

func (in *Interpreter) evalYield(e *ast.YieldExpression, env *runtime.Environment) (*runtime.Value, signal) {
	if len(in.yieldSink) == 0 {
		return nil, in.throwf("SyntaxError: yield outside a generator")
	}
	top := len(in.yieldSink) - 1
	if e.Delegate {
		src, sig := in.evalExpr(e.Argument, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		items, err := in.iterate(src)
		if err != nil {
			return nil, in.throwErr(err)
		}
		in.yieldSink[top] = append(in.yieldSink[top], items...)
	} else {
		v := runtime.Undefined
		if e.Argument != nil {
			var sig signal
			v, sig = in.evalExpr(e.Argument, env)
			if sig.typ != sigNone {
				return nil, sig
			}
		}
		in.yieldSink[top] = append(in.yieldSink[top], v)
	}
	if len(in.yieldSink[top]) > in.YieldCap {
		return nil, in.throwf("RangeError: generator produced more than %d values", in.YieldCap)
	}
	return runtime.Undefined, signal{}
}

// evalAwait drains the microtask queue, then unwraps the settled promise.
// A promise still pending after the drain can never settle inside this
// synchronous burst, so awaiting it fails closed.
func (in *Interpreter) evalAwait(e *ast.AwaitExpression, env *runtime.Environment) (*runtime.Value, signal) {
	v, sig := in.evalExpr(e.Argument, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	if v.Kind != runtime.KindPromise {
		return v, signal{}
	}
	if err := in.Loop.DrainMicrotasks(); err != nil {
		return nil, in.throwErr(err)
	}
	switch v.Promise.State {
	case runtime.PromiseFulfilled:
		return v.Promise.Result, signal{}
	case runtime.PromiseRejected:
		return nil, signal{typ: sigThrow, value: v.Promise.Result}
	default:
		return nil, in.throwf("TypeError: awaited promise cannot settle in this task")
	}
}

// ---------- classes ----------

func (in *Interpreter) evalClassLiteral(cl *ast.ClassLiteral, env *runtime.Environment) (*runtime.Value, signal) {
	cls := &runtime.ClassValue{Name: cl.Name}
	if !env.IsGlobal() {
		cls.Captured = env
	}
	if cl.SuperClass != nil {
		sv, sig := in.evalExpr(cl.SuperClass, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if sv.Kind != runtime.KindFunction || sv.Fn.Class == nil {
			return nil, in.throwf("TypeError: Class extends value %s is not a constructor", sv.ToString())
		}
		cls.Super = sv.Fn.Class
	}
	for _, m := range cl.Methods {
		if m.Kind == "constructor" {
			cls.Ctor = m.Fn
			continue
		}
		cls.Methods = append(cls.Methods, m)
	}
	ctor := &runtime.FunctionValue{
		Kind:     runtime.CallableClosure,
		Name:     cl.Name,
		Class:    cls,
		Captured: cls.Captured,
	}
	return runtime.NewFunction(ctor), signal{}
}

// instantiate builds a class instance and runs the constructor chain.
func (in *Interpreter) instantiate(cls *runtime.ClassValue, args []*runtime.Value) (*runtime.Value, error) {
	obj := runtime.NewObjectValue()
	obj.Class = cls
	instance := runtime.NewObject(obj)
	if err := in.runConstructor(cls, instance, args); err != nil {
		return nil, err
	}
	return instance, nil
}

// runConstructor runs the nearest declared constructor of cls on instance;
// with no constructor anywhere up the chain, construction is a no-op.
func (in *Interpreter) runConstructor(cls *runtime.ClassValue, instance *runtime.Value, args []*runtime.Value) error {
	for c := cls; c != nil; c = c.Super {
		if c.Ctor == nil {
			continue
		}
		fn := &runtime.FunctionValue{
			Kind:      runtime.CallableClosure,
			Name:      "constructor",
			Decl:      c.Ctor,
			Captured:  c.Captured,
			Class:     c,
			BoundThis: instance,
		}
		_, err := in.invoke(fn, args, instance)
		return err
	}
	return nil
}

// callMethod invokes a resolved method definition on a receiver.
func (in *Interpreter) callMethod(m *ast.MethodDefinition, owner *runtime.ClassValue, this *runtime.Value, args []*runtime.Value) (*runtime.Value, signal) {
	fn := &runtime.FunctionValue{
		Kind:      runtime.CallableClosure,
		Name:      m.Name,
		Decl:      m.Fn,
		Captured:  owner.Captured,
		Class:     owner,
		BoundThis: this,
	}
	out, err := in.invoke(fn, args, this)
	if err != nil {
		return nil, in.throwErr(err)
	}
	return out, signal{}
}

// ---------- intrinsic globals ----------

// installGlobals binds the conversion constructors and error constructors
// that exist as first-class callables rather than parse-time shapes.
func (in *Interpreter) installGlobals() {
	intrinsic := func(name string, fn runtime.NativeFunc) {
		in.Global.Declare(name, "const", runtime.NewFunction(&runtime.FunctionValue{
			Kind:   runtime.CallableIntrinsic,
			Name:   name,
			Native: fn,
		}))
	}
	arg := func(args []*runtime.Value, i int) *runtime.Value {
		if i < len(args) && args[i] != nil {
			return args[i]
		}
		return runtime.Undefined
	}

	intrinsic("String", func(args []*runtime.Value) (*runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewString(""), nil
		}
		return runtime.NewString(in.displayString(arg(args, 0))), nil
	})
	intrinsic("Number", func(args []*runtime.Value) (*runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewInt(0), nil
		}
		v := arg(args, 0)
		if v.Kind == runtime.KindBigInt {
			f, _ := bigOrFloat(v).Float64()
			return runtime.NewFloatOrInt(f), nil
		}
		return runtime.NewFloatOrInt(in.toPrim(v).ToFloat()), nil
	})
	intrinsic("Boolean", func(args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBool(arg(args, 0).ToBoolean()), nil
	})
	intrinsic("Symbol", func(args []*runtime.Value) (*runtime.Value, error) {
		desc := ""
		if len(args) > 0 && args[0].Kind != runtime.KindUndefined {
			desc = args[0].ToString()
		}
		return &runtime.Value{Kind: runtime.KindSymbol, Sym: &runtime.Symbol{Description: desc}}, nil
	})

	for _, name := range []string{"Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError"} {
		name := name
		intrinsic(name, func(args []*runtime.Value) (*runtime.Value, error) {
			msg := ""
			if len(args) > 0 && args[0].Kind != runtime.KindUndefined {
				msg = args[0].ToString()
			}
			return newErrorValue(name, msg), nil
		})
	}

	for _, name := range []string{"Event", "CustomEvent"} {
		intrinsic(name, func(args []*runtime.Value) (*runtime.Value, error) {
			if len(args) == 0 {
				return nil, typeErrorf("Failed to construct 'Event': 1 argument required")
			}
			ev := in.newEventObject(args[0].ToString(), runtime.Null)
			if len(args) > 1 && args[1].Kind == runtime.KindObject {
				if d, ok := args[1].Obj.Get("detail"); ok {
					ev.Obj.Set("detail", d)
				}
			}
			return ev, nil
		})
	}

	in.Global.Declare("NaN", "const", runtime.NewFloat(math.NaN()))
	in.Global.Declare("Infinity", "const", runtime.NewFloat(math.Inf(1)))
	in.Global.Declare("undefined", "const", runtime.Undefined)
}

// newEventObject builds a plain event object with the fields listeners read.
func (in *Interpreter) newEventObject(typ string, target *runtime.Value) *runtime.Value {
	o := runtime.NewObjectValue()
	o.Set("type", runtime.NewString(typ))
	o.Set("target", target)
	o.Set("defaultPrevented", runtime.False)
	return runtime.NewObject(o)
}

// resolveWith fulfills p with v, adopting v's state when it is a promise
// or an object exposing a callable then.
func (in *Interpreter) resolveWith(p *runtime.PromiseValue, v *runtime.Value) {
	if v != nil && v.Kind == runtime.KindPromise {
		if v.Promise.ID == p.ID {
			p.Reject(in.Loop, newErrorValue("TypeError", "Chaining cycle detected for promise"))
			return
		}
		v.Promise.OnSettle(in.Loop,
			func(res *runtime.Value) { in.resolveWith(p, res) },
			func(reason *runtime.Value) { p.Reject(in.Loop, reason) })
		return
	}
	if v != nil && v.Kind == runtime.KindObject {
		then, ok := v.Obj.Get("then")
		if !ok && v.Obj.Class != nil {
			if m, owner := v.Obj.Class.FindMethod("then", "method"); m != nil {
				then = runtime.NewFunction(&runtime.FunctionValue{
					Name: "then", Decl: m.Fn, Captured: owner.Captured, Class: owner, BoundThis: v,
				})
				ok = true
			}
		}
		if ok && then.Kind == runtime.KindFunction {
			in.adoptThenable(p, v, then)
			return
		}
	}
	if v == nil {
		v = runtime.Undefined
	}
	p.Fulfill(in.Loop, v)
}

// adoptThenable resolves p through a thenable's then method. The resolve
// and reject capabilities share one already-called flag, and a throw from
// then rejects p unless a capability ran first.
func (in *Interpreter) adoptThenable(p *runtime.PromiseValue, thenable, then *runtime.Value) {
	done := false
	capability := func(name string, settle func(*runtime.Value)) *runtime.Value {
		return runtime.NewFunction(&runtime.FunctionValue{
			Kind: runtime.CallablePromiseCapability,
			Name: name,
			Native: func(args []*runtime.Value) (*runtime.Value, error) {
				if !done {
					done = true
					settle(argAt(args, 0))
				}
				return runtime.Undefined, nil
			},
		})
	}
	resolve := capability("resolve", func(res *runtime.Value) { in.resolveWith(p, res) })
	reject := capability("reject", func(reason *runtime.Value) { p.Reject(in.Loop, reason) })
	if _, err := in.callFunction(then, []*runtime.Value{resolve, reject}, thenable); err != nil && !done {
		done = true
		p.Reject(in.Loop, in.ThrownValue(err))
	}
}
