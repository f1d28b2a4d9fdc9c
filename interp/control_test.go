package interp

import "testing"

func TestIfElse(t *testing.T) {
	expectInt(t, "let r = 0; if (true) { r = 1; } r", 1)
	expectInt(t, "let r = 0; if (false) { r = 1; } else { r = 2; } r", 2)
	expectInt(t, "let r = 0; if (false) { r = 1; } else if (true) { r = 3; } r", 3)
	expectInt(t, `let r = 0; if ("") { r = 1; } r`, 0)
}

func TestWhileLoop(t *testing.T) {
	expectInt(t, "let n = 0; while (n < 5) { n++; } n", 5)
	expectInt(t, "let n = 0; while (true) { n++; if (n === 3) break; } n", 3)
	expectInt(t, "let s = 0; let n = 0; while (n < 5) { n++; if (n % 2 === 0) continue; s += n; } s", 9)
}

func TestDoWhileLoop(t *testing.T) {
	expectInt(t, "let n = 10; do { n++; } while (n < 5); n", 11)
	expectInt(t, "let n = 0; do { n++; } while (n < 3); n", 3)
}

func TestForLoop(t *testing.T) {
	expectInt(t, "let s = 0; for (let i = 0; i < 5; i++) { s += i; } s", 10)
	expectInt(t, "let s = 0; for (let i = 10; i > 0; i -= 3) { s++; } s", 4)
	expectInt(t, "let n = 0; for (;;) { n++; if (n > 7) break; } n", 8)
}

func TestForOfLoop(t *testing.T) {
	expectInt(t, "let s = 0; for (const x of [1, 2, 3]) { s += x; } s", 6)
	expectString(t, `let out = ""; for (const ch of "abc") { out += ch; } out`, "abc")
	expectInt(t, "let s = 0; for (const [k, v] of new Map([[1, 10], [2, 20]])) { s += k + v; } s", 33)
	expectInt(t, "let s = 0; for (const x of new Set([1, 2, 2, 3])) { s += x; } s", 6)
	expectErrorContains(t, "for (const x of 42) {}", "not iterable")
}

func TestForInLoop(t *testing.T) {
	expectString(t, `let out = ""; for (const k in {a: 1, b: 2}) { out += k; } out`, "ab")
	expectString(t, `let out = ""; for (const i in ["x", "y"]) { out += i; } out`, "01")
	expectInt(t, "let n = 0; for (const k in null) { n++; } n", 0)
}

func TestLabeledBreakContinue(t *testing.T) {
	expectInt(t, `
		let hits = 0;
		outer: for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (j === 1) continue outer;
				hits++;
			}
		}
		hits`, 3)
	expectInt(t, `
		let hits = 0;
		outer: for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (i === 1 && j === 1) break outer;
				hits++;
			}
		}
		hits`, 4)
}

func TestSwitch(t *testing.T) {
	expectString(t, `
		let r;
		switch (2) {
			case 1: r = "one"; break;
			case 2: r = "two"; break;
			default: r = "other";
		}
		r`, "two")
	expectString(t, `
		let r;
		switch (9) {
			case 1: r = "one"; break;
			default: r = "other";
		}
		r`, "other")
	// fallthrough without break
	expectString(t, `
		let r = "";
		switch (1) {
			case 1: r += "a";
			case 2: r += "b"; break;
			case 3: r += "c";
		}
		r`, "ab")
	// strict matching: no coercion
	expectString(t, `
		let r = "none";
		switch ("1") {
			case 1: r = "number"; break;
		}
		r`, "none")
}

func TestTryCatchFinally(t *testing.T) {
	expectString(t, `
		let r;
		try { throw new Error("boom"); } catch (e) { r = e.message; }
		r`, "boom")
	expectString(t, `
		let steps = "";
		try { steps += "t"; } catch (e) { steps += "c"; } finally { steps += "f"; }
		steps`, "tf")
	expectString(t, `
		let steps = "";
		try { steps += "t"; throw 1; } catch (e) { steps += "c"; } finally { steps += "f"; }
		steps`, "tcf")
	// catch without a binding
	expectInt(t, "let r = 0; try { throw 1; } catch { r = 9; } r", 9)
	// thrown primitives arrive unchanged
	expectInt(t, "let r; try { throw 42; } catch (e) { r = e; } r", 42)
	// finally return wins
	expectInt(t, `
		function f() {
			try { return 1; } finally { return 2; }
		}
		f()`, 2)
	// rethrow escapes
	expectErrorContains(t, `try { throw new RangeError("still bad"); } catch (e) { throw e; }`, "still bad")
}

func TestNestedTryPropagation(t *testing.T) {
	expectString(t, `
		let r;
		try {
			try { throw new Error("inner"); } finally { }
		} catch (e) { r = e.message; }
		r`, "inner")
}

func TestArrayDestructuring(t *testing.T) {
	expectInt(t, "let [a, b] = [1, 2]; a + b", 3)
	expectInt(t, "let [, second] = [1, 2]; second", 2)
	expectInt(t, "let [a = 9] = []; a", 9)
	expectInt(t, "let [a, ...rest] = [1, 2, 3]; rest.length", 2)
	expectInt(t, "let [x, y] = [1]; y === undefined ? 1 : 0", 1)
	expectString(t, `let [a, b] = "hi"; a + b`, "hi")
}

func TestObjectDestructuring(t *testing.T) {
	expectInt(t, "let {a, b} = {a: 1, b: 2}; a + b", 3)
	expectInt(t, "let {a: renamed} = {a: 5}; renamed", 5)
	expectInt(t, "let {missing = 7} = {}; missing", 7)
	expectInt(t, "let {a, ...rest} = {a: 1, b: 2, c: 3}; rest.b + rest.c", 5)
	expectInt(t, "function f({x, y = 10}) { return x + y; } f({x: 1})", 11)
}

func TestSpread(t *testing.T) {
	expectInt(t, "let a = [1, 2]; let b = [...a, 3]; b.length", 3)
	expectInt(t, "Math.max(...[3, 1, 4, 1, 5])", 5)
	expectInt(t, "let o = {...{a: 1}, b: 2}; o.a + o.b", 3)
	expectInt(t, "let merged = {...{a: 1}, ...{a: 2}}; merged.a", 2)
	expectString(t, `[..."ab"].join("-")`, "a-b")
}

func TestVarHoistingAcrossBlocks(t *testing.T) {
	expectInt(t, "{ var v = 3; } v", 3)
	expectErrorContains(t, "{ let l = 3; } l", "ReferenceError")
}

func TestFunctionDeclarationHoisting(t *testing.T) {
	expectInt(t, "let r = early(); function early() { return 11; } r", 11)
}
