package runtime

import (
	"math"
	"math/big"
	"testing"
)

func TestToBoolean(t *testing.T) {
	falsy := []*Value{Undefined, Null, False, NewInt(0), NewFloat(0), NewFloat(math.NaN()), NewString(""), NewBigInt(big.NewInt(0))}
	for _, v := range falsy {
		if v.ToBoolean() {
			t.Fatalf("%s should be falsy", v.Inspect())
		}
	}
	truthy := []*Value{True, NewInt(1), NewFloat(0.5), NewString("0"), NewArray(nil), NewObject(NewObjectValue()), NewBigInt(big.NewInt(-1))}
	for _, v := range truthy {
		if !v.ToBoolean() {
			t.Fatalf("%s should be truthy", v.Inspect())
		}
	}
}

func TestStringToFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"  42  ", 42},
		{"3.5", 3.5},
		{"0x10", 16},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	}
	for _, c := range cases {
		if got := StringToFloat(c.in); got != c.want {
			t.Fatalf("StringToFloat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if !math.IsNaN(StringToFloat("junk")) {
		t.Fatal("non-numeric text coerces to NaN")
	}
}

func TestToString(t *testing.T) {
	cases := []struct {
		v    *Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{True, "true"},
		{NewInt(42), "42"},
		{NewFloat(1.5), "1.5"},
		{NewFloat(math.Inf(1)), "Infinity"},
		{NewBigInt(big.NewInt(7)), "7"},
		{NewArray([]*Value{NewInt(1), Null, NewInt(3)}), "1,,3"},
		{NewDateValue(0), "1970-01-01T00:00:00.000Z"},
	}
	for _, c := range cases {
		if got := c.v.ToString(); got != c.want {
			t.Fatalf("ToString(%s) = %q, want %q", c.v.Inspect(), got, c.want)
		}
	}
}

func TestErrorShapedObjectToString(t *testing.T) {
	obj := NewObjectValue()
	obj.Set("name", NewString("TypeError"))
	obj.Set("message", NewString("boom"))
	if got := NewObject(obj).ToString(); got != "TypeError: boom" {
		t.Fatalf("got %q", got)
	}
	plain := NewObjectValue()
	plain.Set("a", NewInt(1))
	if got := NewObject(plain).ToString(); got != "[object Object]" {
		t.Fatalf("got %q", got)
	}
}

func TestStrictEquals(t *testing.T) {
	if !StrictEquals(NewInt(1), NewFloat(1.0)) {
		t.Fatal("1 === 1.0 across the int/float split")
	}
	if StrictEquals(NewFloat(math.NaN()), NewFloat(math.NaN())) {
		t.Fatal("NaN !== NaN")
	}
	if StrictEquals(NewInt(1), NewString("1")) {
		t.Fatal("no cross-type equality")
	}
	if StrictEquals(NewBigInt(big.NewInt(1)), NewInt(1)) {
		t.Fatal("1n !== 1")
	}
	arr := NewArray(nil)
	if !StrictEquals(arr, arr) || StrictEquals(arr, NewArray(nil)) {
		t.Fatal("composites compare by identity")
	}
}

func TestSameValueZero(t *testing.T) {
	if !SameValueZero(NewFloat(math.NaN()), NewFloat(math.NaN())) {
		t.Fatal("SameValueZero treats NaN as equal to itself")
	}
	if !SameValueZero(NewInt(0), NewFloat(0)) {
		t.Fatal("0 and -0 class compare equal")
	}
}

func TestLooseEquals(t *testing.T) {
	cases := []struct {
		a, b *Value
		want bool
	}{
		{Null, Undefined, true},
		{Null, NewInt(0), false},
		{NewInt(1), NewString("1"), true},
		{True, NewInt(1), true},
		{False, NewString("0"), true},
		{NewBigInt(big.NewInt(1)), NewInt(1), true},
		{NewBigInt(big.NewInt(1)), NewString("1"), true},
		{NewBigInt(big.NewInt(1)), NewFloat(1.5), false},
		{NewString("a"), NewString("b"), false},
	}
	for _, c := range cases {
		if got := LooseEquals(c.a, c.b, ToPrimitive); got != c.want {
			t.Fatalf("LooseEquals(%s, %s) = %v, want %v", c.a.Inspect(), c.b.Inspect(), got, c.want)
		}
	}
	// array-to-primitive reduction: [1] == "1"
	if !LooseEquals(NewArray([]*Value{NewInt(1)}), NewString("1"), ToPrimitive) {
		t.Fatal(`[1] == "1" via ToPrimitive`)
	}
}

func TestCivilRoundTrip(t *testing.T) {
	cases := []int64{0, -1, 86400000, 1700000000123, -86400000 * 365}
	for _, ms := range cases {
		y, mo, d, h, mi, s, msec := CivilFromMS(ms)
		if got := MSFromCivil(y, mo, d, h, mi, s, msec); got != ms {
			t.Fatalf("round trip of %d gave %d (%d-%d-%d %d:%d:%d.%d)", ms, got, y, mo, d, h, mi, s, msec)
		}
	}
}

func TestCivilKnownDates(t *testing.T) {
	y, mo, d, h, mi, s, ms := CivilFromMS(0)
	if y != 1970 || mo != 1 || d != 1 || h != 0 || mi != 0 || s != 0 || ms != 0 {
		t.Fatalf("epoch: %d-%d-%d %d:%d:%d.%d", y, mo, d, h, mi, s, ms)
	}
	// leap day
	if got := MSFromCivil(2024, 2, 29, 12, 0, 0, 0); got != 1709208000000 {
		t.Fatalf("2024-02-29T12:00Z = %d", got)
	}
	if got := ISOStringFromMS(1709208000000); got != "2024-02-29T12:00:00.000Z" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
		{1e21, "1e+21"},
	}
	for _, c := range cases {
		if got := FormatFloat(c.in); got != c.want {
			t.Fatalf("FormatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewFloatOrIntFolding(t *testing.T) {
	if v := NewFloatOrInt(3); v.Kind != KindNumber || v.Int != 3 {
		t.Fatalf("integral floats fold to ints, got %s", v.Inspect())
	}
	if v := NewFloatOrInt(3.5); v.Kind != KindFloat {
		t.Fatalf("fractional values stay floats, got %s", v.Inspect())
	}
	if v := NewFloatOrInt(1e300); v.Kind != KindFloat {
		t.Fatalf("values beyond the safe range stay floats, got %s", v.Inspect())
	}
	if v := NewFloatOrInt(math.NaN()); v.Kind != KindFloat {
		t.Fatalf("NaN stays a float, got %s", v.Inspect())
	}
}
