package interp

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/intl"
	"github.com/example/pagejs/runtime"
)

func wantString(recv *runtime.Value, method string) (string, error) {
	if recv == nil || recv.Kind != runtime.KindString {
		return "", typeErrorf("%s is not a function on %s", method, kindOf(recv))
	}
	return recv.Str, nil
}

// runeIndex clamps a JS index argument against a rune count.
func runeIndex(v *runtime.Value, n, def int) int {
	if v.Kind == runtime.KindUndefined {
		return def
	}
	i := int(v.ToFloat())
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func (in *Interpreter) stringOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if op == ast.StringFromCharCode {
		var b strings.Builder
		for _, a := range args {
			b.WriteRune(rune(int32(a.ToFloat())))
		}
		return runtime.NewString(b.String()), nil
	}
	s, err := wantString(recv, op.String())
	if err != nil {
		return nil, err
	}
	rs := []rune(s)
	switch op {
	case ast.StringPadStart, ast.StringPadEnd:
		target := int(argAt(args, 0).ToFloat())
		pad := " "
		if argAt(args, 1).Kind != runtime.KindUndefined {
			pad = args[1].ToString()
		}
		if target <= len(rs) || pad == "" {
			return runtime.NewString(s), nil
		}
		fill := make([]rune, 0, target-len(rs))
		for len(fill) < target-len(rs) {
			fill = append(fill, []rune(pad)...)
		}
		fill = fill[:target-len(rs)]
		if op == ast.StringPadStart {
			return runtime.NewString(string(fill) + s), nil
		}
		return runtime.NewString(s + string(fill)), nil
	case ast.StringTrim:
		return runtime.NewString(strings.TrimSpace(s)), nil
	case ast.StringTrimStart:
		return runtime.NewString(strings.TrimLeft(s, " \t\n\r\f\v ")), nil
	case ast.StringTrimEnd:
		return runtime.NewString(strings.TrimRight(s, " \t\n\r\f\v ")), nil
	case ast.StringToUpperCase:
		return runtime.NewString(strings.ToUpper(s)), nil
	case ast.StringToLowerCase:
		return runtime.NewString(strings.ToLower(s)), nil
	case ast.StringIncludes:
		return runtime.NewBool(strings.Contains(s, argAt(args, 0).ToString())), nil
	case ast.StringStartsWith:
		sub := argAt(args, 0).ToString()
		from := runeIndex(argAt(args, 1), len(rs), 0)
		return runtime.NewBool(strings.HasPrefix(string(rs[from:]), sub)), nil
	case ast.StringEndsWith:
		sub := argAt(args, 0).ToString()
		end := runeIndex(argAt(args, 1), len(rs), len(rs))
		return runtime.NewBool(strings.HasSuffix(string(rs[:end]), sub)), nil
	case ast.StringIndexOf:
		sub := []rune(argAt(args, 0).ToString())
		from := runeIndex(argAt(args, 1), len(rs), 0)
		return runtime.NewInt(int64(runeIndexOf(rs, sub, from))), nil
	case ast.StringLastIndexOf:
		sub := []rune(argAt(args, 0).ToString())
		at := -1
		for i := 0; i+len(sub) <= len(rs); i++ {
			if string(rs[i:i+len(sub)]) == string(sub) {
				at = i
			}
		}
		return runtime.NewInt(int64(at)), nil
	case ast.StringSlice:
		begin := runeIndex(argAt(args, 0), len(rs), 0)
		end := runeIndex(argAt(args, 1), len(rs), len(rs))
		if end < begin {
			end = begin
		}
		return runtime.NewString(string(rs[begin:end])), nil
	case ast.StringSubstring:
		a := runeIndex(argAt(args, 0), len(rs), 0)
		b := runeIndex(argAt(args, 1), len(rs), len(rs))
		if a > b {
			a, b = b, a
		}
		return runtime.NewString(string(rs[a:b])), nil
	case ast.StringSplit:
		return in.stringSplit(s, args)
	case ast.StringReplace:
		return in.stringReplace(s, args, true)
	case ast.StringReplaceAll:
		return in.stringReplace(s, args, false)
	case ast.StringRepeat:
		n := int(argAt(args, 0).ToFloat())
		if n < 0 {
			return nil, rangeErrorf("Invalid count value: %d", n)
		}
		return runtime.NewString(strings.Repeat(s, n)), nil
	case ast.StringCharAt:
		i := int(argAt(args, 0).ToFloat())
		if i < 0 || i >= len(rs) {
			return runtime.NewString(""), nil
		}
		return runtime.NewString(string(rs[i])), nil
	case ast.StringCharCodeAt, ast.StringCodePointAt:
		i := int(argAt(args, 0).ToFloat())
		if i < 0 || i >= len(rs) {
			if op == ast.StringCharCodeAt {
				return runtime.NewFloat(math.NaN()), nil
			}
			return runtime.Undefined, nil
		}
		return runtime.NewInt(int64(rs[i])), nil
	case ast.StringAt:
		i := int(argAt(args, 0).ToFloat())
		if i < 0 {
			i += len(rs)
		}
		if i < 0 || i >= len(rs) {
			return runtime.Undefined, nil
		}
		return runtime.NewString(string(rs[i])), nil
	case ast.StringConcat:
		var b strings.Builder
		b.WriteString(s)
		for _, a := range args {
			b.WriteString(in.displayString(a))
		}
		return runtime.NewString(b.String()), nil
	case ast.StringMatch:
		return in.stringMatch(s, args)
	case ast.StringMatchAll:
		return in.stringMatchAll(s, args)
	case ast.StringSearch:
		re, err := patternArg(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		m, ok, err := re.FindFrom(s, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.NewInt(-1), nil
		}
		return runtime.NewInt(int64(m.Index)), nil
	case ast.StringLocaleCompare:
		that := argAt(args, 0).ToString()
		locale := ""
		if argAt(args, 1).Kind != runtime.KindUndefined {
			locale = args[1].ToString()
		}
		cmp, err := intl.NewCollator(locale, intl.CollatorOptions{})
		if err != nil {
			return nil, err
		}
		return runtime.NewInt(int64(cmp(s, that))), nil
	case ast.StringNormalize:
		form := "NFC"
		if argAt(args, 0).Kind != runtime.KindUndefined {
			form = args[0].ToString()
		}
		switch form {
		case "NFC":
			return runtime.NewString(norm.NFC.String(s)), nil
		case "NFD":
			return runtime.NewString(norm.NFD.String(s)), nil
		case "NFKC":
			return runtime.NewString(norm.NFKC.String(s)), nil
		case "NFKD":
			return runtime.NewString(norm.NFKD.String(s)), nil
		default:
			return nil, rangeErrorf("The normalization form should be one of NFC, NFD, NFKC, NFKD")
		}
	}
	return nil, typeErrorf("unsupported string operation %s", op)
}

func runeIndexOf(rs, sub []rune, from int) int {
	if len(sub) == 0 {
		if from > len(rs) {
			return len(rs)
		}
		return from
	}
	for i := from; i+len(sub) <= len(rs); i++ {
		if string(rs[i:i+len(sub)]) == string(sub) {
			return i
		}
	}
	return -1
}

func patternArg(v *runtime.Value) (*runtime.RegExpValue, error) {
	if v.Kind != runtime.KindRegExp {
		return nil, typeErrorf("%s is not a regular expression", v.ToString())
	}
	return v.Re, nil
}

func (in *Interpreter) stringSplit(s string, args []*runtime.Value) (*runtime.Value, error) {
	limit := -1
	if argAt(args, 1).Kind != runtime.KindUndefined {
		limit = int(args[1].ToFloat())
	}
	sep := argAt(args, 0)
	var parts []string
	switch sep.Kind {
	case runtime.KindUndefined:
		parts = []string{s}
	case runtime.KindRegExp:
		pos := 0
		for pos <= len(s) {
			m, ok, err := sep.Re.FindFrom(s, pos)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			end := m.Index + len(m.Text)
			if end == pos && len(m.Text) == 0 {
				// zero-width match: advance to avoid spinning
				if pos >= len(s) {
					break
				}
				end = pos + 1
				parts = append(parts, s[pos:pos+1])
				pos = end
				continue
			}
			parts = append(parts, s[pos:m.Index])
			pos = end
		}
		parts = append(parts, s[pos:])
	default:
		ss := sep.ToString()
		if ss == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, ss)
		}
	}
	if limit >= 0 && len(parts) > limit {
		parts = parts[:limit]
	}
	out := make([]*runtime.Value, len(parts))
	for i, p := range parts {
		out[i] = runtime.NewString(p)
	}
	return runtime.NewArray(out), nil
}

func (in *Interpreter) stringReplace(s string, args []*runtime.Value, firstOnly bool) (*runtime.Value, error) {
	pattern := argAt(args, 0)
	repl := argAt(args, 1)

	if pattern.Kind == runtime.KindRegExp {
		re := pattern.Re
		first := firstOnly && !re.Global()
		if repl.Kind == runtime.KindFunction {
			return in.regexReplaceFunc(s, re, repl, first)
		}
		out, err := re.ReplaceAll(s, repl.ToString(), first)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(out), nil
	}

	pat := pattern.ToString()
	replaceOne := func(src string, idx int) (string, error) {
		r := repl
		if r.Kind == runtime.KindFunction {
			out, err := in.callFunction(r, []*runtime.Value{
				runtime.NewString(pat), runtime.NewInt(int64(idx)), runtime.NewString(s),
			}, nil)
			if err != nil {
				return "", err
			}
			return src[:idx] + in.displayString(out) + src[idx+len(pat):], nil
		}
		return src[:idx] + r.ToString() + src[idx+len(pat):], nil
	}
	if firstOnly {
		idx := strings.Index(s, pat)
		if idx < 0 {
			return runtime.NewString(s), nil
		}
		out, err := replaceOne(s, idx)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(out), nil
	}
	if repl.Kind != runtime.KindFunction {
		return runtime.NewString(strings.ReplaceAll(s, pat, repl.ToString())), nil
	}
	out := s
	offset := 0
	for {
		idx := strings.Index(out[offset:], pat)
		if idx < 0 || pat == "" {
			break
		}
		idx += offset
		next, err := replaceOne(out, idx)
		if err != nil {
			return nil, err
		}
		offset = idx + len(next) - len(out) + len(pat)
		out = next
	}
	return runtime.NewString(out), nil
}

func (in *Interpreter) regexReplaceFunc(s string, re *runtime.RegExpValue, fn *runtime.Value, firstOnly bool) (*runtime.Value, error) {
	var b strings.Builder
	pos := 0
	for pos <= len(s) {
		m, ok, err := re.FindFrom(s, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cargs := make([]*runtime.Value, 0, len(m.Groups)+2)
		for _, g := range m.Groups {
			cargs = append(cargs, runtime.NewString(g))
		}
		cargs = append(cargs, runtime.NewInt(int64(m.Index)), runtime.NewString(s))
		out, err := in.callFunction(fn, cargs, nil)
		if err != nil {
			return nil, err
		}
		b.WriteString(s[pos:m.Index])
		b.WriteString(in.displayString(out))
		end := m.Index + len(m.Text)
		if end == pos && len(m.Text) == 0 {
			if pos >= len(s) {
				pos = end
				break
			}
			b.WriteString(s[pos : pos+1])
			end = pos + 1
		}
		pos = end
		if firstOnly {
			break
		}
	}
	if pos <= len(s) {
		b.WriteString(s[pos:])
	}
	return runtime.NewString(b.String()), nil
}

func matchToArray(m runtime.Match) *runtime.Value {
	out := make([]*runtime.Value, len(m.Groups))
	for i, g := range m.Groups {
		out[i] = runtime.NewString(g)
	}
	return runtime.NewArray(out)
}

func (in *Interpreter) stringMatch(s string, args []*runtime.Value) (*runtime.Value, error) {
	re, err := patternArg(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if !re.Global() {
		m, ok, err := re.FindFrom(s, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Null, nil
		}
		return matchToArray(m), nil
	}
	var out []*runtime.Value
	pos := 0
	for pos <= len(s) {
		m, ok, err := re.FindFrom(s, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, runtime.NewString(m.Text))
		next := m.Index + len(m.Text)
		if next == pos {
			next++
		}
		pos = next
	}
	if len(out) == 0 {
		return runtime.Null, nil
	}
	return runtime.NewArray(out), nil
}

func (in *Interpreter) stringMatchAll(s string, args []*runtime.Value) (*runtime.Value, error) {
	re, err := patternArg(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if !re.Global() {
		return nil, typeErrorf("matchAll must be called with a global RegExp")
	}
	var out []*runtime.Value
	pos := 0
	for pos <= len(s) {
		m, ok, err := re.FindFrom(s, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, matchToArray(m))
		next := m.Index + len(m.Text)
		if next == pos {
			next++
		}
		pos = next
	}
	return runtime.NewArray(out), nil
}
