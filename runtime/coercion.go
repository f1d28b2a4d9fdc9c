package runtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ToBoolean implements the ToBoolean abstract operation.
func (v *Value) ToBoolean() bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case KindString:
		return len(v.Str) > 0
	case KindBigInt:
		return v.Big.Sign() != 0
	default:
		return true
	}
}

// ToFloat implements ToNumber, widening to float64. Composite values go
// through ToPrimitive first.
func (v *Value) ToFloat() float64 {
	switch v.Kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case KindNumber:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindString:
		return StringToFloat(v.Str)
	case KindBigInt:
		f, _ := new(big.Float).SetInt(v.Big).Float64()
		return f
	default:
		return ToPrimitive(v).ToFloat()
	}
}

// StringToFloat implements string ToNumber semantics.
func StringToFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if s == "Infinity" || s == "+Infinity" {
		return math.Inf(1)
	}
	if s == "-Infinity" {
		return math.Inf(-1)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToString implements the ToString abstract operation.
func (v *Value) ToString() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return FormatFloat(v.Float)
	case KindString:
		return v.Str
	case KindBigInt:
		return v.Big.String()
	case KindSymbol:
		return "Symbol(" + v.Sym.Description + ")"
	case KindArray:
		parts := make([]string, len(v.Arr.Elems))
		for i, e := range v.Arr.Elems {
			if e == nil || e.Kind == KindUndefined || e.Kind == KindNull {
				parts[i] = ""
			} else {
				parts[i] = e.ToString()
			}
		}
		return strings.Join(parts, ",")
	case KindObject:
		if name, ok := v.Obj.Get("name"); ok {
			if msg, ok2 := v.Obj.Get("message"); ok2 {
				if msg.ToString() == "" {
					return name.ToString()
				}
				return name.ToString() + ": " + msg.ToString()
			}
		}
		return "[object Object]"
	case KindDate:
		return ISOStringFromMS(v.Date.MS)
	case KindRegExp:
		return "/" + v.Re.Source + "/" + v.Re.Flags
	case KindFunction:
		if v.Fn.Name != "" {
			return "function " + v.Fn.Name + "() { [native code] }"
		}
		return "function () { [native code] }"
	case KindPromise:
		return "[object Promise]"
	case KindMap:
		return "[object Map]"
	case KindSet:
		return "[object Set]"
	case KindTypedArray:
		n := v.TA.Len
		parts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			ev, err := v.TA.Get(i)
			if err != nil {
				break
			}
			parts = append(parts, ev.ToString())
		}
		return strings.Join(parts, ",")
	case KindArrayBuffer:
		return "[object ArrayBuffer]"
	case KindNode:
		return "[object HTMLElement]"
	case KindIntl:
		return "[object Intl." + v.Intl.What + "]"
	default:
		return "undefined"
	}
}

// ToPrimitive reduces a composite value to a primitive using the built-in
// valueOf/toString behavior of its kind. User-defined valueOf/toString
// functions are handled by the evaluator before this fallback runs.
func ToPrimitive(v *Value) *Value {
	switch v.Kind {
	case KindDate:
		return NewInt(v.Date.MS)
	case KindArray, KindObject, KindMap, KindSet, KindRegExp, KindFunction,
		KindPromise, KindTypedArray, KindArrayBuffer, KindNode, KindIntl:
		return NewString(v.ToString())
	default:
		return v
	}
}

// StrictEquals implements ===. Composite values compare by reference
// identity; primitives by value with IEEE-754 float rules.
func StrictEquals(a, b *Value) bool {
	an, bn := a.IsNumeric(), b.IsNumeric()
	if an && bn {
		af, bf := a.AsFloat(), b.AsFloat()
		if math.IsNaN(af) || math.IsNaN(bf) {
			return false
		}
		return af == bf
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Str == b.Str
	case KindBigInt:
		return a.Big.Cmp(b.Big) == 0
	case KindSymbol:
		return a.Sym == b.Sym
	case KindArray:
		return a.Arr == b.Arr
	case KindObject:
		return a.Obj == b.Obj
	case KindMap:
		return a.Map == b.Map
	case KindSet:
		return a.Set == b.Set
	case KindPromise:
		return a.Promise == b.Promise
	case KindTypedArray:
		return a.TA == b.TA
	case KindArrayBuffer:
		return a.Buf == b.Buf
	case KindRegExp:
		return a.Re == b.Re
	case KindDate:
		return a.Date == b.Date
	case KindFunction:
		return a.Fn == b.Fn
	case KindIntl:
		return a.Intl == b.Intl
	case KindNode:
		return a.Node == b.Node
	default:
		return false
	}
}

// SameValueZero is StrictEquals except NaN equals NaN. Map and Set key
// identity uses it.
func SameValueZero(a, b *Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.AsFloat(), b.AsFloat()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	return StrictEquals(a, b)
}

// LooseEquals implements == by recursively reducing mixed-type comparisons
// toward a common representation. toPrim reduces a composite to a primitive
// (the evaluator passes a version that consults user valueOf/toString).
func LooseEquals(a, b *Value, toPrim func(*Value) *Value) bool {
	if a.Kind == b.Kind || (a.IsNumeric() && b.IsNumeric()) {
		return StrictEquals(a, b)
	}
	aNullish := a.Kind == KindUndefined || a.Kind == KindNull
	bNullish := b.Kind == KindUndefined || b.Kind == KindNull
	if aNullish || bNullish {
		return aNullish && bNullish
	}
	// BigInt vs string: parse the string as a BigInt.
	if a.Kind == KindBigInt && b.Kind == KindString {
		if n, ok := new(big.Int).SetString(strings.TrimSpace(b.Str), 10); ok {
			return a.Big.Cmp(n) == 0
		}
		return false
	}
	if a.Kind == KindString && b.Kind == KindBigInt {
		return LooseEquals(b, a, toPrim)
	}
	// BigInt vs number: exact comparison when the float is integral.
	if a.Kind == KindBigInt && b.IsNumeric() {
		return bigIntEqualsFloat(a.Big, b.AsFloat())
	}
	if a.IsNumeric() && b.Kind == KindBigInt {
		return bigIntEqualsFloat(b.Big, a.AsFloat())
	}
	// Booleans coerce to numbers and recurse.
	if a.Kind == KindBool {
		return LooseEquals(NewInt(boolToInt(a.Bool)), b, toPrim)
	}
	if b.Kind == KindBool {
		return LooseEquals(a, NewInt(boolToInt(b.Bool)), toPrim)
	}
	// Number vs string.
	if a.IsNumeric() && b.Kind == KindString {
		return LooseEquals(a, NewFloat(StringToFloat(b.Str)), toPrim)
	}
	if a.Kind == KindString && b.IsNumeric() {
		return LooseEquals(NewFloat(StringToFloat(a.Str)), b, toPrim)
	}
	// One primitive vs one composite: reduce the composite and recurse.
	if a.Kind.IsComposite() && !b.Kind.IsComposite() {
		return LooseEquals(toPrim(a), b, toPrim)
	}
	if !a.Kind.IsComposite() && b.Kind.IsComposite() {
		return LooseEquals(a, toPrim(b), toPrim)
	}
	return false
}

func bigIntEqualsFloat(b *big.Int, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f != math.Trunc(f) {
		return false
	}
	bf, _ := new(big.Float).SetInt(b).Float64()
	return bf == f
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ISOStringFromMS renders epoch milliseconds as an ISO 8601 UTC timestamp.
func ISOStringFromMS(ms int64) string {
	y, mo, d, h, mi, s, msec := CivilFromMS(ms)
	return pad(y, 4) + "-" + pad(mo, 2) + "-" + pad(d, 2) + "T" +
		pad(h, 2) + ":" + pad(mi, 2) + ":" + pad(s, 2) + "." + pad(msec, 3) + "Z"
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// CivilFromMS converts epoch milliseconds to UTC civil time fields.
func CivilFromMS(ms int64) (year, month, day, hour, min, sec, msec int) {
	msec = int(((ms % 1000) + 1000) % 1000)
	secs := (ms - int64(msec)) / 1000
	days := secs / 86400
	rem := secs % 86400
	if rem < 0 {
		rem += 86400
		days--
	}
	hour = int(rem / 3600)
	min = int(rem % 3600 / 60)
	sec = int(rem % 60)
	// days since 1970-01-01; civil-from-days (Howard Hinnant's algorithm)
	z := days + 719468
	era := z / 146097
	if z < 0 && z%146097 != 0 {
		era--
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		month = int(mp + 3)
	} else {
		month = int(mp - 9)
	}
	if month <= 2 {
		y++
	}
	year = int(y)
	return
}

// MSFromCivil converts UTC civil time fields to epoch milliseconds.
func MSFromCivil(year, month, day, hour, min, sec, msec int) int64 {
	y := int64(year)
	m := int64(month)
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + int64(day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	days := era*146097 + doe - 719468
	return ((days*24+int64(hour))*60+int64(min))*60*1000 + int64(sec)*1000 + int64(msec)
}
