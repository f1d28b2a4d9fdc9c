package interp

import (
	"math"
	"testing"
)

func TestArrayBasics(t *testing.T) {
	expectInt(t, "[1, 2, 3].length", 3)
	expectInt(t, "let a = [1]; a.push(2, 3); a.length", 3)
	expectInt(t, "let a = [1, 2, 3]; a.pop()", 3)
	expectInt(t, "let a = [1, 2, 3]; a.shift()", 1)
	expectInt(t, "let a = [2]; a.unshift(1); a[0]", 1)
	expectString(t, "[3, 1, 2].sort().join(',')", "1,2,3")
	expectString(t, "[3, 1, 2].sort((a, b) => b - a).join(',')", "3,2,1")
	expectString(t, "[1, 2, 3].reverse().join('')", "321")
	expectString(t, "[1, 2, 3].slice(1).join('')", "23")
	expectString(t, "[1, 2, 3, 4].slice(1, -1).join('')", "23")
	expectString(t, "[1, 2].concat([3], 4).join('')", "1234")
	expectString(t, "let a = [1, 2, 3, 4]; a.splice(1, 2); a.join('')", "14")
	expectString(t, "[[1, [2]], 3].flat(Infinity).join('')", "123")
}

func TestArraySearch(t *testing.T) {
	expectBool(t, "[1, 2, NaN].includes(NaN)", true)
	expectInt(t, "[1, 2, 3].indexOf(2)", 1)
	expectInt(t, "[1, 2, 3].indexOf(9)", -1)
	expectInt(t, "[1, 2, 1].lastIndexOf(1)", 2)
	expectInt(t, "[1, 2, 3].at(-1)", 3)
	expectInt(t, "[5, 10, 15].find((n) => n > 7)", 10)
	expectInt(t, "[5, 10, 15].findIndex((n) => n > 7)", 1)
	expectInt(t, "[5, 10, 15].findLast((n) => n > 7)", 15)
	expectBool(t, "[1, 2, 3].some((n) => n === 2)", true)
	expectBool(t, "[1, 2, 3].every((n) => n < 3)", false)
}

func TestArrayTransforms(t *testing.T) {
	expectString(t, "[1, 2, 3].map((n) => n * 2).join(',')", "2,4,6")
	expectString(t, "[1, 2, 3, 4].filter((n) => n % 2 === 0).join(',')", "2,4")
	expectInt(t, "[1, 2, 3, 4].reduce((acc, n) => acc + n, 0)", 10)
	expectInt(t, "[1, 2, 3].reduce((acc, n) => acc + n)", 6)
	expectErrorContains(t, "[].reduce((a, b) => a + b)", "TypeError")
	expectString(t, "[1, 2].flatMap((n) => [n, n * 10]).join(',')", "1,10,2,20")
	expectString(t, "Array.from([1, 2], (n) => n + 1).join(',')", "2,3")
	expectString(t, `Array.from("abc").join("-")`, "a-b-c")
	expectString(t, "Array.from({length: 3}, (_, i) => i).join('')", "012")
	expectString(t, "Array.of(1, 2).join('')", "12")
	expectBool(t, "Array.isArray([])", true)
	expectBool(t, "Array.isArray('nope')", false)
	expectString(t, "[...[1, 2, 3].keys()].join('')", "012")
	expectString(t, "[...[9, 8].entries()].map(([i, v]) => i + ':' + v).join(',')", "0:9,1:8")
}

func TestStringMethods(t *testing.T) {
	expectString(t, `"hello".toUpperCase()`, "HELLO")
	expectString(t, `"HeLLo".toLowerCase()`, "hello")
	expectString(t, `"  pad  ".trim()`, "pad")
	expectString(t, `"x".padStart(3, "0")`, "00x")
	expectString(t, `"x".padEnd(3, ".")`, "x..")
	expectString(t, `"ab".repeat(3)`, "ababab")
	expectBool(t, `"hello".includes("ell")`, true)
	expectBool(t, `"hello".startsWith("he")`, true)
	expectBool(t, `"hello".endsWith("lo")`, true)
	expectInt(t, `"hello".indexOf("l")`, 2)
	expectInt(t, `"hello".lastIndexOf("l")`, 3)
	expectString(t, `"hello".slice(1, 3)`, "el")
	expectString(t, `"hello".slice(-2)`, "lo")
	expectString(t, `"hello".substring(3, 1)`, "el")
	expectString(t, `"a,b,c".split(",").join("|")`, "a|b|c")
	expectInt(t, `"".split(",").length`, 1)
	expectString(t, `"aba".replace("a", "x")`, "xba")
	expectString(t, `"aba".replaceAll("a", "x")`, "xbx")
	expectString(t, `"hello".charAt(1)`, "e")
	expectInt(t, `"A".charCodeAt(0)`, 65)
	expectString(t, `"hello".at(-1)`, "o")
	expectString(t, `String.fromCharCode(72, 105)`, "Hi")
	expectInt(t, `"héllo".length`, 5)
}

func TestStringRegExp(t *testing.T) {
	expectBool(t, `/\d+/.test("abc123")`, true)
	expectBool(t, `/^\d+$/.test("abc")`, false)
	expectString(t, `"a1b2".replace(/\d/g, "#")`, "a#b#")
	expectString(t, `"a1b2".replace(/\d/, "#")`, "a#b2")
	expectString(t, `"2024-05-17".match(/(\d+)-(\d+)/)[2]`, "05")
	expectNull(t, `"abc".match(/\d/)`)
	expectInt(t, `"a1b22".match(/\d+/g).length`, 2)
	expectInt(t, `"xyz".search(/y/)`, 1)
	expectString(t, `"one two".replace(/(\w+) (\w+)/, "$2 $1")`, "two one")
	expectString(t, `"aAbB".replace(/[a-z]/g, (m) => m.toUpperCase())`, "AABB")
	expectInt(t, `[..."a1b2".matchAll(/\d/g)].length`, 2)
}

func TestRegExpLastIndex(t *testing.T) {
	expectInt(t, `
		const re = /\d+/g;
		re.exec("a1b22");
		re.lastIndex`, 2)
	expectString(t, `
		const re = /\d+/g;
		re.exec("a1 b22");
		re.exec("a1 b22")[0]`, "22")
	expectInt(t, `
		const re = /\d/g;
		re.exec("x");
		re.lastIndex`, 0)
}

func TestObjectBuiltins(t *testing.T) {
	expectString(t, "Object.keys({a: 1, b: 2}).join(',')", "a,b")
	expectString(t, "Object.values({a: 1, b: 2}).join(',')", "1,2")
	expectString(t, "Object.entries({a: 1}).map(([k, v]) => k + v).join('')", "a1")
	expectInt(t, "let t = {a: 1}; Object.assign(t, {b: 2}); t.a + t.b", 3)
	expectInt(t, "Object.fromEntries([['a', 1], ['b', 2]]).b", 2)
	expectBool(t, "let o = Object.freeze({a: 1}); o.a = 9; o.a === 1 && Object.isFrozen(o)", true)
	expectBool(t, "let o = {a: 1}; o.hasOwnProperty('a')", true)
	expectBool(t, "let o = {a: 1}; o.hasOwnProperty('b')", false)
}

func TestJSONStringify(t *testing.T) {
	expectString(t, "JSON.stringify({a: 1, b: [true, null]})", `{"a":1,"b":[true,null]}`)
	expectString(t, `JSON.stringify("text")`, `"text"`)
	expectString(t, "JSON.stringify([undefined, () => {}])", "[null,null]")
	expectString(t, "JSON.stringify({skip: undefined, keep: 1})", `{"keep":1}`)
	expectString(t, "JSON.stringify(NaN)", "null")
	expectString(t, "JSON.stringify({a: 1}, null, 2)", "{\n  \"a\": 1\n}")
	expectErrorContains(t, "JSON.stringify(10n)", "serialize a BigInt")
	expectErrorContains(t, "let o = {}; o.self = o; JSON.stringify(o)", "circular")
}

func TestJSONParse(t *testing.T) {
	expectInt(t, `JSON.parse("[1, 2, 3]")[1]`, 2)
	expectInt(t, `JSON.parse('{"a": {"b": 5}}').a.b`, 5)
	expectBool(t, `JSON.parse("true")`, true)
	expectNull(t, `JSON.parse("null")`)
	expectFloat(t, `JSON.parse("1.5")`, 1.5)
	// key order survives a round trip
	expectString(t, `Object.keys(JSON.parse('{"z": 1, "a": 2}')).join(",")`, "z,a")
	expectErrorContains(t, `JSON.parse("{bad}")`, "SyntaxError")
	expectErrorContains(t, `JSON.parse("1 trailing")`, "SyntaxError")
}

func TestMath(t *testing.T) {
	expectInt(t, "Math.abs(-5)", 5)
	expectInt(t, "Math.floor(1.9)", 1)
	expectInt(t, "Math.ceil(1.1)", 2)
	expectInt(t, "Math.round(2.5)", 3)
	expectInt(t, "Math.round(-2.5)", -2)
	expectInt(t, "Math.trunc(-1.9)", -1)
	expectInt(t, "Math.sign(-3)", -1)
	expectInt(t, "Math.max(1, 9, 4)", 9)
	expectInt(t, "Math.min(5, 2, 8)", 2)
	expectFloat(t, "Math.max()", math.Inf(-1))
	expectInt(t, "Math.sqrt(49)", 7)
	expectInt(t, "Math.pow(2, 8)", 256)
	expectInt(t, "Math.hypot(3, 4)", 5)
	expectFloat(t, "Math.max(1, NaN)", math.NaN())
	expectBool(t, "Math.random() >= 0 && Math.random() < 1", true)
}

func TestNumberMethods(t *testing.T) {
	expectString(t, "(3.14159).toFixed(2)", "3.14")
	expectString(t, "(255).toString(16)", "ff")
	expectString(t, "(5).toString(2)", "101")
	expectString(t, "(1234.5678).toPrecision(6)", "1234.57")
	expectBool(t, "Number.isInteger(4)", true)
	expectBool(t, "Number.isInteger(4.5)", false)
	expectBool(t, `Number.isNaN("abc")`, false)
	expectBool(t, "Number.isNaN(NaN)", true)
	expectBool(t, "Number.isFinite(Infinity)", false)
}

func TestBigIntBuiltins(t *testing.T) {
	expectString(t, "BigInt(42).toString()", "42")
	expectString(t, `BigInt("0xff").toString()`, "255")
	expectString(t, "BigInt.asIntN(8, 255n).toString()", "-1")
	expectString(t, "BigInt.asUintN(8, -1n).toString()", "255")
	expectString(t, "(255n).toString(16)", "ff")
	expectErrorContains(t, "BigInt(1.5)", "RangeError")
	expectErrorContains(t, `BigInt("junk")`, "SyntaxError")
}

func TestMapBuiltins(t *testing.T) {
	expectInt(t, "let m = new Map(); m.set('a', 1).set('b', 2); m.size", 2)
	expectInt(t, "let m = new Map([['k', 9]]); m.get('k')", 9)
	expectBool(t, "let m = new Map(); m.has('x')", false)
	expectBool(t, "let m = new Map([['x', 1]]); m.delete('x'); m.has('x')", false)
	expectInt(t, "let m = new Map([['a', 1]]); m.clear(); m.size", 0)
	expectUndefined(t, "new Map().get('missing')")
	// insertion order, object keys by identity
	expectString(t, "let m = new Map(); m.set('z', 1); m.set('a', 2); [...m.keys()].join('')", "za")
	expectInt(t, `
		let k = {};
		let m = new Map();
		m.set(k, 5);
		m.get(k)`, 5)
	expectInt(t, "let m = new Map(); m.set(NaN, 3); m.get(NaN)", 3)
	expectInt(t, `
		let s = 0;
		new Map([["a", 1], ["b", 2]]).forEach((v, k) => { s += v; });
		s`, 3)
}

func TestSetBuiltins(t *testing.T) {
	expectInt(t, "new Set([1, 2, 2, 3]).size", 3)
	expectBool(t, "let s = new Set(); s.add(1); s.has(1)", true)
	expectBool(t, "let s = new Set([1]); s.delete(1); s.has(1)", false)
	expectInt(t, "let s = new Set([1, 2]); s.clear(); s.size", 0)
	expectString(t, "[...new Set(['b', 'a', 'b'])].join('')", "ba")
	expectInt(t, "let s = new Set(); s.add(NaN); s.add(NaN); s.size", 1)
}

func TestTypedArrays(t *testing.T) {
	expectInt(t, "new Int32Array(4).length", 4)
	expectInt(t, "let ta = new Uint8Array([1, 2, 3]); ta[1]", 2)
	expectInt(t, "let ta = new Uint8Array(2); ta[0] = 300; ta[0]", 44)
	expectInt(t, "new Uint8ClampedArray([300])[0]", 255)
	expectInt(t, "new Int8Array([200])[0]", -56)
	expectInt(t, "new Float64Array(3).byteLength", 24)
	expectInt(t, "let buf = new ArrayBuffer(8); new Int32Array(buf).length", 2)
	expectInt(t, "new Int32Array(new ArrayBuffer(16), 4, 2).length", 2)
	expectString(t, "let ta = new Int16Array([5, 6, 7]); ta.slice(1).join(',')", "6,7")
	expectString(t, "let ta = new Int16Array([1, 2, 3, 4]); ta.subarray(1, 3).join(',')", "2,3")
	expectInt(t, "let ta = new Int8Array(4); ta.fill(7, 1, 3); ta[1] + ta[2] + ta[3]", 14)
	expectInt(t, "let ta = new Int8Array(4); ta.set([9, 8], 1); ta[2]", 8)
	// views share the buffer
	expectInt(t, `
		let buf = new ArrayBuffer(4);
		let a = new Uint8Array(buf);
		let b = new Uint8Array(buf);
		a[0] = 42;
		b[0]`, 42)
	expectInt(t, "new ArrayBuffer(6).byteLength", 6)
}

func TestDateBuiltins(t *testing.T) {
	expectInt(t, "Date.now()", 0)
	expectInt(t, "new Date(86400000).getTime()", 86400000)
	expectInt(t, "new Date(0).getFullYear()", 1970)
	expectInt(t, "new Date(0).getDay()", 4) // the epoch was a Thursday
	expectInt(t, "new Date(2024, 0, 15).getMonth()", 0)
	expectInt(t, "new Date(2024, 0, 15).getDate()", 15)
	expectString(t, "new Date(0).toISOString()", "1970-01-01T00:00:00.000Z")
	expectInt(t, `new Date("1970-01-02").getTime()`, 86400000)
	expectInt(t, "new Date(123).getTimezoneOffset()", 0)
}

func TestIntlBuiltins(t *testing.T) {
	expectInt(t, `new Intl.Collator("en").compare("a", "b")`, -1)
	expectBool(t, `new Intl.Collator("en", {numeric: true}).compare("10", "9") > 0`, true)
	expectString(t, `new Intl.NumberFormat("en-US").format(1234567)`, "1,234,567")
	expectString(t, `new Intl.PluralRules("en").select(1)`, "one")
	expectString(t, `new Intl.PluralRules("en").select(5)`, "other")
	expectString(t, `"a".localeCompare("b") < 0 ? "lt" : "ge"`, "lt")
	expectErrorContains(t, `new Intl.Collator("no such locale!")`, "locale")
}

func TestConsoleCapture(t *testing.T) {
	in := New(nil, nil)
	if _, err := in.Run(`console.log("a", 1); console.warn("w"); console.error("e")`); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := []string{"a 1", "[warn] w", "[error] e"}
	if len(in.Console) != len(want) {
		t.Fatalf("expected %d console lines, got %v", len(want), in.Console)
	}
	for i, w := range want {
		if in.Console[i] != w {
			t.Fatalf("console line %d: expected %q, got %q", i, w, in.Console[i])
		}
	}
}

func TestStringNormalize(t *testing.T) {
	expectBool(t, `"é" === "é"`, false)
	expectBool(t, `"é".normalize("NFD") === "é"`, true)
	expectBool(t, `"é".normalize("NFC") === "é"`, true)
	expectErrorContains(t, `"x".normalize("bogus")`, "RangeError")
}

