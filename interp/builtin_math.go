package interp

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) mathOp(op ast.BuiltinOp, args []*runtime.Value) (*runtime.Value, error) {
	f := func(i int) float64 { return argAt(args, i).ToFloat() }
	switch op {
	case ast.MathAbs:
		return runtime.NewFloatOrInt(math.Abs(f(0))), nil
	case ast.MathFloor:
		return runtime.NewFloatOrInt(math.Floor(f(0))), nil
	case ast.MathCeil:
		return runtime.NewFloatOrInt(math.Ceil(f(0))), nil
	case ast.MathRound:
		// JS rounds .5 toward positive infinity
		return runtime.NewFloatOrInt(math.Floor(f(0) + 0.5)), nil
	case ast.MathTrunc:
		return runtime.NewFloatOrInt(math.Trunc(f(0))), nil
	case ast.MathSign:
		x := f(0)
		switch {
		case math.IsNaN(x):
			return runtime.NewFloat(math.NaN()), nil
		case x > 0:
			return runtime.NewInt(1), nil
		case x < 0:
			return runtime.NewInt(-1), nil
		default:
			return runtime.NewInt(0), nil
		}
	case ast.MathSqrt:
		return runtime.NewFloatOrInt(math.Sqrt(f(0))), nil
	case ast.MathCbrt:
		return runtime.NewFloatOrInt(math.Cbrt(f(0))), nil
	case ast.MathPow:
		return runtime.NewFloatOrInt(math.Pow(f(0), f(1))), nil
	case ast.MathMin, ast.MathMax:
		best := math.Inf(1)
		if op == ast.MathMax {
			best = math.Inf(-1)
		}
		for i := range args {
			x := f(i)
			if math.IsNaN(x) {
				return runtime.NewFloat(math.NaN()), nil
			}
			if (op == ast.MathMin && x < best) || (op == ast.MathMax && x > best) {
				best = x
			}
		}
		return runtime.NewFloatOrInt(best), nil
	case ast.MathRandom:
		return runtime.NewFloat(in.rng.Float64()), nil
	case ast.MathHypot:
		sum := 0.0
		for i := range args {
			x := f(i)
			sum += x * x
		}
		return runtime.NewFloatOrInt(math.Sqrt(sum)), nil
	case ast.MathLog:
		return runtime.NewFloatOrInt(math.Log(f(0))), nil
	case ast.MathLog2:
		return runtime.NewFloatOrInt(math.Log2(f(0))), nil
	case ast.MathLog10:
		return runtime.NewFloatOrInt(math.Log10(f(0))), nil
	case ast.MathExp:
		return runtime.NewFloatOrInt(math.Exp(f(0))), nil
	case ast.MathSin:
		return runtime.NewFloatOrInt(math.Sin(f(0))), nil
	case ast.MathCos:
		return runtime.NewFloatOrInt(math.Cos(f(0))), nil
	case ast.MathTan:
		return runtime.NewFloatOrInt(math.Tan(f(0))), nil
	case ast.MathAtan:
		return runtime.NewFloatOrInt(math.Atan(f(0))), nil
	case ast.MathAtan2:
		return runtime.NewFloatOrInt(math.Atan2(f(0), f(1))), nil
	}
	return nil, typeErrorf("unsupported math operation %s", op)
}

func (in *Interpreter) numberOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.NumberIsInteger:
		v := argAt(args, 0)
		if v.Kind == runtime.KindNumber {
			return runtime.True, nil
		}
		if v.Kind == runtime.KindFloat {
			return runtime.NewBool(v.Float == math.Trunc(v.Float) && !math.IsInf(v.Float, 0)), nil
		}
		return runtime.False, nil
	case ast.NumberIsFinite:
		v := argAt(args, 0)
		return runtime.NewBool(v.IsNumeric() && !math.IsNaN(v.AsFloat()) && !math.IsInf(v.AsFloat(), 0)), nil
	case ast.NumberIsNaN:
		v := argAt(args, 0)
		return runtime.NewBool(v.Kind == runtime.KindFloat && math.IsNaN(v.Float)), nil
	case ast.GlobalIsNaN:
		return runtime.NewBool(math.IsNaN(argAt(args, 0).ToFloat())), nil
	case ast.GlobalIsFinite:
		x := argAt(args, 0).ToFloat()
		return runtime.NewBool(!math.IsNaN(x) && !math.IsInf(x, 0)), nil
	case ast.GlobalParseInt:
		return parseIntOp(argAt(args, 0), argAt(args, 1))
	case ast.GlobalParseFloat:
		return parseFloatOp(argAt(args, 0)), nil
	}

	if recv == nil || !recv.IsNumeric() {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	switch op {
	case ast.NumberToFixed:
		digits := 0
		if argAt(args, 0).Kind != runtime.KindUndefined {
			digits = int(args[0].ToFloat())
		}
		if digits < 0 || digits > 100 {
			return nil, rangeErrorf("toFixed() digits argument must be between 0 and 100")
		}
		return runtime.NewString(strconv.FormatFloat(recv.AsFloat(), 'f', digits, 64)), nil
	case ast.NumberToPrecision:
		if argAt(args, 0).Kind == runtime.KindUndefined {
			return runtime.NewString(recv.ToString()), nil
		}
		p := int(args[0].ToFloat())
		if p < 1 || p > 100 {
			return nil, rangeErrorf("toPrecision() argument must be between 1 and 100")
		}
		return runtime.NewString(strconv.FormatFloat(recv.AsFloat(), 'g', p, 64)), nil
	case ast.NumberToStringRadix:
		radix := 10
		if argAt(args, 0).Kind != runtime.KindUndefined {
			radix = int(args[0].ToFloat())
		}
		if radix < 2 || radix > 36 {
			return nil, rangeErrorf("toString() radix must be between 2 and 36")
		}
		if radix == 10 {
			return runtime.NewString(recv.ToString()), nil
		}
		if recv.Kind == runtime.KindNumber {
			return runtime.NewString(strconv.FormatInt(recv.Int, radix)), nil
		}
		return runtime.NewString(floatToRadix(recv.Float, radix)), nil
	}
	return nil, typeErrorf("unsupported number operation %s", op)
}

// floatToRadix renders a non-integral float in an arbitrary radix with up to
// 20 fraction digits.
func floatToRadix(f float64, radix int) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	neg := f < 0
	f = math.Abs(f)
	ip := math.Trunc(f)
	frac := f - ip
	out := strconv.FormatInt(int64(ip), radix)
	if frac > 0 {
		digits := make([]byte, 0, 20)
		const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
		for i := 0; i < 20 && frac > 0; i++ {
			frac *= float64(radix)
			d := int(frac)
			digits = append(digits, alphabet[d])
			frac -= float64(d)
		}
		out += "." + string(digits)
	}
	if neg {
		out = "-" + out
	}
	return out
}

func parseIntOp(str, radixArg *runtime.Value) (*runtime.Value, error) {
	s := strings.TrimSpace(str.ToString())
	radix := 0
	if radixArg.Kind != runtime.KindUndefined {
		radix = int(radixArg.ToFloat())
	}
	sign := 1.0
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	if radix == 16 || radix == 0 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return runtime.NewFloat(math.NaN()), nil
	}
	end := 0
	for end < len(s) && digitValue(s[end]) >= 0 && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return runtime.NewFloat(math.NaN()), nil
	}
	result := 0.0
	for i := 0; i < end; i++ {
		result = result*float64(radix) + float64(digitValue(s[i]))
	}
	return runtime.NewFloatOrInt(sign * result), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

func parseFloatOp(str *runtime.Value) *runtime.Value {
	s := strings.TrimSpace(str.ToString())
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case (c == '+' || c == '-') && end == 0:
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
			if end+1 < len(s) && (s[end+1] == '+' || s[end+1] == '-') {
				end++
			}
		default:
			goto done
		}
		end++
	}
done:
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return runtime.NewFloat(math.Inf(1))
	}
	if strings.HasPrefix(s, "-Infinity") {
		return runtime.NewFloat(math.Inf(-1))
	}
	if !seenDigit {
		return runtime.NewFloat(math.NaN())
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return runtime.NewFloat(math.NaN())
	}
	return runtime.NewFloatOrInt(f)
}

// ---------- BigInt ----------

func (in *Interpreter) bigintOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.BigIntCall:
		return bigintFrom(argAt(args, 0))
	case ast.BigIntAsIntN, ast.BigIntAsUintN:
		bits := int(argAt(args, 0).ToFloat())
		if bits < 0 {
			return nil, rangeErrorf("Invalid BigInt field width")
		}
		v := argAt(args, 1)
		if v.Kind != runtime.KindBigInt {
			return nil, typeErrorf("Cannot convert %s to a BigInt", v.TypeOf())
		}
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		out := new(big.Int).Mod(v.Big, mod)
		if op == ast.BigIntAsIntN && bits > 0 {
			half := new(big.Int).Rsh(mod, 1)
			if out.Cmp(half) >= 0 {
				out.Sub(out, mod)
			}
		}
		return runtime.NewBigInt(out), nil
	case ast.BigIntToString:
		if recv == nil || recv.Kind != runtime.KindBigInt {
			return nil, typeErrorf("toString is not a function on %s", kindOf(recv))
		}
		radix := 10
		if argAt(args, 0).Kind != runtime.KindUndefined {
			radix = int(args[0].ToFloat())
		}
		if radix < 2 || radix > 36 {
			return nil, rangeErrorf("toString() radix must be between 2 and 36")
		}
		return runtime.NewString(recv.Big.Text(radix)), nil
	}
	return nil, typeErrorf("unsupported BigInt operation %s", op)
}

func bigintFrom(v *runtime.Value) (*runtime.Value, error) {
	switch v.Kind {
	case runtime.KindBigInt:
		return v, nil
	case runtime.KindNumber:
		return runtime.NewBigInt(big.NewInt(v.Int)), nil
	case runtime.KindFloat:
		if v.Float != math.Trunc(v.Float) || math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			return nil, rangeErrorf("The number %s cannot be converted to a BigInt because it is not an integer", runtime.FormatFloat(v.Float))
		}
		b, _ := big.NewFloat(v.Float).Int(nil)
		return runtime.NewBigInt(b), nil
	case runtime.KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return runtime.NewBigInt(big.NewInt(0)), nil
		}
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") ||
			strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") ||
			strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O") {
			base = 0
		}
		n, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("SyntaxError: Cannot convert %s to a BigInt", s)
		}
		return runtime.NewBigInt(n), nil
	case runtime.KindBool:
		if v.Bool {
			return runtime.NewBigInt(big.NewInt(1)), nil
		}
		return runtime.NewBigInt(big.NewInt(0)), nil
	default:
		return nil, typeErrorf("Cannot convert %s to a BigInt", v.TypeOf())
	}
}
