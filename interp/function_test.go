package interp

import (
	"strings"
	"testing"

	"github.com/example/pagejs/runtime"
)

func TestFunctionBasics(t *testing.T) {
	expectInt(t, "function add(a, b) { return a + b; } add(2, 3)", 5)
	expectInt(t, "const sq = function (n) { return n * n; }; sq(4)", 16)
	expectInt(t, "const inc = (n) => n + 1; inc(6)", 7)
	expectInt(t, "const two = () => 2; two()", 2)
	expectUndefined(t, "function noReturn() { 1 + 1; } noReturn()")
	expectInt(t, "function f(a, b) { return b === undefined ? -1 : b; } f(1)", -1)
}

func TestDefaultParameters(t *testing.T) {
	expectInt(t, "function f(a, b = 10) { return a + b; } f(1)", 11)
	expectInt(t, "function f(a, b = 10) { return a + b; } f(1, 2)", 3)
	expectInt(t, "function f(a, b = 10) { return a + b; } f(1, undefined)", 11)
	// defaults evaluate lazily, and only when needed
	expectInt(t, `
		let evals = 0;
		function bump() { evals++; return 5; }
		function f(a = bump()) { return a; }
		f(1); f();
		evals`, 1)
	// later defaults see earlier parameters
	expectInt(t, "function f(a, b = a * 2) { return b; } f(3)", 6)
}

func TestRestParameters(t *testing.T) {
	expectInt(t, "function f(first, ...rest) { return rest.length; } f(1, 2, 3, 4)", 3)
	expectInt(t, "function sum(...ns) { return ns.reduce((a, b) => a + b, 0); } sum(1, 2, 3)", 6)
	expectInt(t, "function f(...rest) { return rest.length; } f()", 0)
}

func TestClosures(t *testing.T) {
	expectInt(t, `
		function counter() {
			let n = 0;
			return () => { n++; return n; };
		}
		const c = counter();
		c(); c();
		c()`, 3)
	// separate instances hold separate state
	expectInt(t, `
		function counter() {
			let n = 0;
			return () => ++n;
		}
		const a = counter();
		const b = counter();
		a(); a();
		b()`, 1)
}

func TestGlobalSynchronization(t *testing.T) {
	// a global mutated inside a call is visible after the call
	expectInt(t, "let count = 0; function bump() { count++; } bump(); bump(); count", 2)
	// mutation through a nested callback also lands
	expectInt(t, "let total = 0; [1, 2, 3].forEach((n) => { total += n; }); total", 6)
	// assignment to an undeclared name creates a global
	expectInt(t, "function set() { implicit = 41; } set(); implicit + 1", 42)
}

func TestRecursion(t *testing.T) {
	expectInt(t, "function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); } fib(10)", 55)
	expectInt(t, "const fact = function me(n) { return n <= 1 ? 1 : n * me(n - 1); }; fact(5)", 120)
}

func TestArrowThisBinding(t *testing.T) {
	expectInt(t, `
		class Box {
			constructor() { this.n = 5; }
			read() {
				const get = () => this.n;
				return get();
			}
		}
		new Box().read()`, 5)
}

func TestFunctionsAsValues(t *testing.T) {
	expectInt(t, "function apply(f, x) { return f(x); } apply((n) => n * 3, 4)", 12)
	expectString(t, "function named() {} named.name", "named")
	expectString(t, "const assigned = () => {}; assigned.name", "assigned")
	expectInt(t, "function two(a, b) {} two.length", 2)
}

func TestClasses(t *testing.T) {
	expectInt(t, `
		class Point {
			constructor(x, y) { this.x = x; this.y = y; }
			sum() { return this.x + this.y; }
		}
		new Point(3, 4).sum()`, 7)
	expectInt(t, `
		class Counter {
			constructor() { this.n = 0; }
			bump() { this.n++; return this; }
		}
		new Counter().bump().bump().n`, 2)
	expectUndefined(t, "class Empty {} new Empty().anything")
}

func TestClassInheritance(t *testing.T) {
	expectString(t, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() { return this.name + " makes a sound"; }
		}
		class Dog extends Animal {
			constructor(name) { super(name); }
			speak() { return this.name + " barks"; }
		}
		new Dog("Rex").speak()`, "Rex barks")
	expectString(t, `
		class Base {
			greet() { return "base"; }
		}
		class Derived extends Base {
			greet() { return super.greet() + "+derived"; }
		}
		new Derived().greet()`, "base+derived")
	// inherited methods resolve up the chain
	expectInt(t, `
		class A { ten() { return 10; } }
		class B extends A {}
		new B().ten()`, 10)
}

func TestClassAccessors(t *testing.T) {
	expectInt(t, `
		class Temp {
			constructor() { this.c = 25; }
			get fahrenheit() { return this.c * 9 / 5 + 32; }
			set fahrenheit(f) { this.c = (f - 32) * 5 / 9; }
		}
		const x = new Temp();
		x.fahrenheit = 212;
		x.c`, 100)
	expectInt(t, `
		class Holder {
			get val() { return 7; }
		}
		new Holder().val`, 7)
}

func TestStaticMethods(t *testing.T) {
	expectInt(t, `
		class MathUtil {
			static double(n) { return n * 2; }
		}
		MathUtil.double(21)`, 42)
}

func TestGeneratorsMaterialize(t *testing.T) {
	expectInt(t, `
		function* nums() { yield 1; yield 2; yield 3; }
		let s = 0;
		for (const n of nums()) { s += n; }
		s`, 6)
	expectInt(t, `
		function* pair() { yield "a"; yield "b"; }
		[...pair()].length`, 2)
	// yield* delegates
	expectInt(t, `
		function* inner() { yield 1; yield 2; }
		function* outer() { yield 0; yield* inner(); yield 3; }
		[...outer()].length`, 4)
}

func TestGeneratorYieldLimit(t *testing.T) {
	in := New(nil, nil)
	in.YieldCap = 50
	_, err := in.Run("function* forever() { while (true) { yield 1; } } [...forever()]")
	if err == nil {
		t.Fatal("expected yield limit error")
	}
	if !strings.Contains(err.Error(), "RangeError") {
		t.Fatalf("expected RangeError, got %v", err)
	}
}

// runThenRead executes setup, lets the trailing microtask drain complete,
// then reads expr in the same interpreter.
func runThenRead(t *testing.T, setup, expr string) *runtime.Value {
	t.Helper()
	in := New(nil, nil)
	if _, err := in.Run(setup); err != nil {
		t.Fatalf("Run error for setup: %v", err)
	}
	val, err := in.Run(expr)
	if err != nil {
		t.Fatalf("Run error for %q: %v", expr, err)
	}
	return val
}

func expectIntAfter(t *testing.T, setup, expr string, expected int64) {
	t.Helper()
	val := runThenRead(t, setup, expr)
	if val.Kind != runtime.KindNumber || val.Int != expected {
		t.Fatalf("expected %d for %q, got %s", expected, expr, val.Inspect())
	}
}

func expectStringAfter(t *testing.T, setup, expr, expected string) {
	t.Helper()
	val := runThenRead(t, setup, expr)
	if val.Kind != runtime.KindString || val.Str != expected {
		t.Fatalf("expected %q for %q, got %s", expected, expr, val.Inspect())
	}
}

func TestAsyncFunctionsRunSynchronously(t *testing.T) {
	expectIntAfter(t, `
		async function work() { return 21; }
		let got;
		work().then((v) => { got = v * 2; });`, "got", 42)
	expectStringAfter(t, `
		async function boom() { throw new Error("async fail"); }
		let msg;
		boom().catch((e) => { msg = e.message; });`, "msg", "async fail")
}

func TestAwait(t *testing.T) {
	expectIntAfter(t, `
		async function f() {
			const v = await Promise.resolve(20);
			return v + 1;
		}
		let got;
		f().then((v) => { got = v; });`, "got", 21)
	// awaiting a plain value passes it through
	expectIntAfter(t, `
		async function f() { return (await 5) + 1; }
		let got;
		f().then((v) => { got = v; });`, "got", 6)
	// awaiting a rejected promise throws into the async body
	expectStringAfter(t, `
		async function f() {
			try { await Promise.reject(new Error("nope")); }
			catch (e) { return "caught " + e.message; }
		}
		let got;
		f().then((v) => { got = v; });`, "got", "caught nope")
}

func TestAwaitUnsettledPromiseFails(t *testing.T) {
	expectStringAfter(t, `
		async function f() { await new Promise(() => {}); }
		let msg;
		f().catch((e) => { msg = e.message; });`, "msg", "awaited promise cannot settle in this task")
}

func TestReentrantMutationDuringCall(t *testing.T) {
	// bump() mutates the global both through its own write-back and through
	// the nested call; the independent mutation made by the nested call must
	// not be clobbered by the outer frame's stale copy.
	expectInt(t, `
		let shared = 0;
		function inner() { shared = 10; }
		function outer() { inner(); return shared; }
		outer()`, 10)
	expectInt(t, `
		let shared = 0;
		function inner() { shared += 1; }
		function outer() { inner(); inner(); }
		outer();
		shared`, 2)
}

func TestCallableKinds(t *testing.T) {
	in := New(nil, nil)
	v, err := in.Run("function f() {} f")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if v.Kind != runtime.KindFunction || v.Fn.Kind != runtime.CallableClosure {
		t.Fatalf("expected a plain callable, got %s", v.Inspect())
	}
	v, err = in.Run("String")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if v.Kind != runtime.KindFunction || v.Fn.Kind != runtime.CallableIntrinsic {
		t.Fatalf("expected an intrinsic callable, got %s", v.Inspect())
	}
}
