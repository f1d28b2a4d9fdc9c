package interp

import (
	"time"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/intl"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) collectionOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.MapGet, ast.MapSet, ast.MapHas, ast.MapDelete, ast.MapClear,
		ast.MapForEach, ast.MapKeys, ast.MapValues, ast.MapEntries:
		if recv == nil || recv.Kind != runtime.KindMap {
			return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
		}
		m := recv.Map
		switch op {
		case ast.MapGet:
			v, _ := m.Get(argAt(args, 0))
			return v, nil
		case ast.MapSet:
			m.Set(argAt(args, 0), argAt(args, 1))
			return recv, nil
		case ast.MapHas:
			_, ok := m.Get(argAt(args, 0))
			return runtime.NewBool(ok), nil
		case ast.MapDelete:
			return runtime.NewBool(m.Delete(argAt(args, 0))), nil
		case ast.MapClear:
			m.Entries = nil
			return runtime.Undefined, nil
		case ast.MapForEach:
			cb, err := wantFunction(argAt(args, 0), "forEach callback")
			if err != nil {
				return nil, err
			}
			for _, e := range append([]*runtime.MapEntry(nil), m.Entries...) {
				if _, err := in.callFunction(cb, []*runtime.Value{e.Val, e.Key, recv}, nil); err != nil {
					return nil, err
				}
			}
			return runtime.Undefined, nil
		case ast.MapKeys:
			out := make([]*runtime.Value, 0, m.Len())
			for _, e := range m.Entries {
				out = append(out, e.Key)
			}
			return runtime.NewArray(out), nil
		case ast.MapValues:
			out := make([]*runtime.Value, 0, m.Len())
			for _, e := range m.Entries {
				out = append(out, e.Val)
			}
			return runtime.NewArray(out), nil
		default: // MapEntries
			out := make([]*runtime.Value, 0, m.Len())
			for _, e := range m.Entries {
				out = append(out, runtime.NewArray([]*runtime.Value{e.Key, e.Val}))
			}
			return runtime.NewArray(out), nil
		}
	default:
		if recv == nil || recv.Kind != runtime.KindSet {
			return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
		}
		s := recv.Set
		switch op {
		case ast.SetAdd:
			s.Add(argAt(args, 0))
			return recv, nil
		case ast.SetHas:
			return runtime.NewBool(s.Has(argAt(args, 0))), nil
		case ast.SetDelete:
			return runtime.NewBool(s.Delete(argAt(args, 0))), nil
		case ast.SetClear:
			s.Elems = nil
			return runtime.Undefined, nil
		case ast.SetForEach:
			cb, err := wantFunction(argAt(args, 0), "forEach callback")
			if err != nil {
				return nil, err
			}
			for _, e := range append([]*runtime.Value(nil), s.Elems...) {
				if _, err := in.callFunction(cb, []*runtime.Value{e, e, recv}, nil); err != nil {
					return nil, err
				}
			}
			return runtime.Undefined, nil
		case ast.SetValues:
			return runtime.NewArray(append([]*runtime.Value(nil), s.Elems...)), nil
		}
	}
	return nil, typeErrorf("unsupported collection operation %s", op)
}

// ---------- typed arrays and buffers ----------

func (in *Interpreter) typedOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if op == ast.BufferSlice {
		if recv == nil || recv.Kind != runtime.KindArrayBuffer {
			return nil, typeErrorf("slice is not a function on %s", kindOf(recv))
		}
		if recv.Buf.Detached {
			return nil, typeErrorf("cannot slice a detached ArrayBuffer")
		}
		begin, end := sliceBounds(args, len(recv.Buf.Data))
		out := runtime.NewArrayBuffer(end - begin)
		copy(out.Buf.Data, recv.Buf.Data[begin:end])
		return out, nil
	}
	if recv == nil || recv.Kind != runtime.KindTypedArray {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	ta := recv.TA
	switch op {
	case ast.TypedArraySet:
		src := argAt(args, 0)
		offset := int(argAt(args, 1).ToFloat())
		items, err := in.iterate(src)
		if err != nil {
			return nil, err
		}
		if offset < 0 || offset+len(items) > ta.Len {
			return nil, rangeErrorf("offset is out of bounds")
		}
		for i, it := range items {
			if err := ta.Set(offset+i, it); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	case ast.TypedArraySubarray:
		begin, end := sliceBounds(args, ta.Len)
		return runtime.NewTypedArrayView(ta.Elem, ta.Buf, ta.Offset+begin*ta.Elem.Size(), end-begin)
	case ast.TypedArrayFill:
		v := argAt(args, 0)
		begin, end := sliceBounds(args[1:], ta.Len)
		for i := begin; i < end; i++ {
			if err := ta.Set(i, v); err != nil {
				return nil, err
			}
		}
		return recv, nil
	case ast.TypedArraySlice:
		begin, end := sliceBounds(args, ta.Len)
		out := runtime.NewTypedArray(ta.Elem, end-begin)
		for i := begin; i < end; i++ {
			v, err := ta.Get(i)
			if err != nil {
				return nil, err
			}
			if err := out.TA.Set(i-begin, v); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, typeErrorf("unsupported typed array operation %s", op)
}

// ---------- regexp ----------

func (in *Interpreter) regexpOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if recv == nil || recv.Kind != runtime.KindRegExp {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	re := recv.Re
	s := argAt(args, 0).ToString()
	start := 0
	tracked := re.Global() || re.Sticky()
	if tracked {
		start = re.LastIndex
	}
	m, ok, err := re.FindFrom(s, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		if tracked {
			re.LastIndex = 0
		}
		if op == ast.RegExpTest {
			return runtime.False, nil
		}
		return runtime.Null, nil
	}
	if tracked {
		re.LastIndex = m.Index + len(m.Text)
		if len(m.Text) == 0 {
			re.LastIndex++
		}
	}
	if op == ast.RegExpTest {
		return runtime.True, nil
	}
	return matchToArray(m), nil
}

// ---------- dates ----------

func (in *Interpreter) dateOp(op ast.BuiltinOp, recv *runtime.Value) (*runtime.Value, error) {
	if op == ast.DateNow {
		return runtime.NewInt(in.Loop.Now()), nil
	}
	if recv == nil || recv.Kind != runtime.KindDate {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	ms := recv.Date.MS
	year, month, day, hour, min, sec, msec := runtime.CivilFromMS(ms)
	switch op {
	case ast.DateGetTime:
		return runtime.NewInt(ms), nil
	case ast.DateGetFullYear:
		return runtime.NewInt(int64(year)), nil
	case ast.DateGetMonth:
		return runtime.NewInt(int64(month - 1)), nil
	case ast.DateGetDate:
		return runtime.NewInt(int64(day)), nil
	case ast.DateGetDay:
		days := ms / 86400000
		if ms%86400000 < 0 {
			days--
		}
		// the epoch was a Thursday
		return runtime.NewInt(((days+4)%7 + 7) % 7), nil
	case ast.DateGetHours:
		return runtime.NewInt(int64(hour)), nil
	case ast.DateGetMinutes:
		return runtime.NewInt(int64(min)), nil
	case ast.DateGetSeconds:
		return runtime.NewInt(int64(sec)), nil
	case ast.DateGetMilliseconds:
		return runtime.NewInt(int64(msec)), nil
	case ast.DateToISOString:
		return runtime.NewString(runtime.ISOStringFromMS(ms)), nil
	case ast.DateGetTimezoneOffset:
		// the virtual clock is UTC
		return runtime.NewInt(0), nil
	}
	return nil, typeErrorf("unsupported date operation %s", op)
}

// ---------- Intl handles ----------

func (in *Interpreter) intlMethodOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if recv == nil || recv.Kind != runtime.KindIntl {
		return nil, typeErrorf("%s is not a function on %s", op, kindOf(recv))
	}
	h := recv.Intl
	switch op {
	case ast.IntlCollatorCompare:
		if h.CompareFn == nil {
			return nil, typeErrorf("compare is not a function on Intl.%s", h.What)
		}
		return runtime.NewInt(int64(h.CompareFn(argAt(args, 0).ToString(), argAt(args, 1).ToString()))), nil
	case ast.IntlNumberFormatFormat:
		if h.FormatNum == nil {
			return nil, typeErrorf("format is not a function on Intl.%s", h.What)
		}
		return runtime.NewString(h.FormatNum(argAt(args, 0).ToFloat())), nil
	case ast.IntlPluralRulesSelect:
		if h.SelectFn == nil {
			return nil, typeErrorf("select is not a function on Intl.%s", h.What)
		}
		return runtime.NewString(h.SelectFn(argAt(args, 0).ToFloat())), nil
	case ast.IntlDateTimeFormatFormat:
		if h.FormatDate == nil {
			return nil, typeErrorf("format is not a function on Intl.%s", h.What)
		}
		arg := argAt(args, 0)
		ms := in.Loop.Now()
		if arg.Kind == runtime.KindDate {
			ms = arg.Date.MS
		} else if arg.Kind != runtime.KindUndefined {
			ms = int64(arg.ToFloat())
		}
		return runtime.NewString(h.FormatDate(ms)), nil
	}
	return nil, typeErrorf("unsupported Intl operation %s", op)
}

// ---------- constructors ----------

var typedArrayKinds = map[ast.BuiltinOp]runtime.ElemKind{
	ast.NewInt8Array:         runtime.ElemInt8,
	ast.NewUint8Array:        runtime.ElemUint8,
	ast.NewUint8ClampedArray: runtime.ElemUint8Clamped,
	ast.NewInt16Array:        runtime.ElemInt16,
	ast.NewUint16Array:       runtime.ElemUint16,
	ast.NewInt32Array:        runtime.ElemInt32,
	ast.NewUint32Array:       runtime.ElemUint32,
	ast.NewFloat32Array:      runtime.ElemFloat32,
	ast.NewFloat64Array:      runtime.ElemFloat64,
	ast.NewBigInt64Array:     runtime.ElemBigInt64,
	ast.NewBigUint64Array:    runtime.ElemBigUint64,
}

func (in *Interpreter) constructorOp(op ast.BuiltinOp, args []*runtime.Value) (*runtime.Value, error) {
	if kind, ok := typedArrayKinds[op]; ok {
		return in.newTypedArray(kind, args)
	}
	switch op {
	case ast.NewDate:
		return in.newDate(args)
	case ast.NewMap:
		mv := runtime.NewMapValue()
		if argAt(args, 0).Kind != runtime.KindUndefined {
			items, err := in.iterate(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if it.Kind != runtime.KindArray || len(it.Arr.Elems) < 1 {
					return nil, typeErrorf("Iterator value is not an entry object")
				}
				mv.Map.Set(elemAt(it.Arr, 0), elemAt(it.Arr, 1))
			}
		}
		return mv, nil
	case ast.NewSet:
		sv := runtime.NewSetValue()
		if argAt(args, 0).Kind != runtime.KindUndefined {
			items, err := in.iterate(args[0])
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				sv.Set.Add(it)
			}
		}
		return sv, nil
	case ast.NewPromise:
		executor, err := wantFunction(argAt(args, 0), "Promise executor")
		if err != nil {
			return nil, typeErrorf("Promise resolver %s is not a function", kindOf(argAt(args, 0)))
		}
		return in.newPromiseWithExecutor(executor)
	case ast.NewRegExp:
		pattern := argAt(args, 0)
		source := pattern.ToString()
		flags := ""
		if pattern.Kind == runtime.KindRegExp {
			source = pattern.Re.Source
			flags = pattern.Re.Flags
		}
		if argAt(args, 1).Kind != runtime.KindUndefined {
			flags = args[1].ToString()
		}
		return runtime.NewRegExp(source, flags)
	case ast.NewArrayBuffer:
		n := int(argAt(args, 0).ToFloat())
		if n < 0 {
			return nil, rangeErrorf("Invalid array buffer length")
		}
		return runtime.NewArrayBuffer(n), nil
	case ast.NewIntlCollator:
		return in.newIntlCollator(args)
	case ast.NewIntlNumberFormat:
		return in.newIntlNumberFormat(args)
	case ast.NewIntlPluralRules:
		return in.newIntlPluralRules(args)
	case ast.NewIntlDateTimeFormat:
		return in.newIntlDateTimeFormat(args)
	case ast.NewError:
		name := argAt(args, 0).ToString()
		msg := ""
		if argAt(args, 1).Kind != runtime.KindUndefined {
			msg = args[1].ToString()
		}
		return newErrorValue(name, msg), nil
	}
	return nil, typeErrorf("unsupported constructor %s", op)
}

func (in *Interpreter) newTypedArray(kind runtime.ElemKind, args []*runtime.Value) (*runtime.Value, error) {
	first := argAt(args, 0)
	switch first.Kind {
	case runtime.KindUndefined:
		return runtime.NewTypedArray(kind, 0), nil
	case runtime.KindNumber, runtime.KindFloat:
		n := int(first.ToFloat())
		if n < 0 {
			return nil, rangeErrorf("Invalid typed array length: %d", n)
		}
		return runtime.NewTypedArray(kind, n), nil
	case runtime.KindArrayBuffer:
		offset := int(argAt(args, 1).ToFloat())
		length := -1
		if argAt(args, 2).Kind != runtime.KindUndefined {
			length = int(args[2].ToFloat())
		}
		return runtime.NewTypedArrayView(kind, first.Buf, offset, length)
	case runtime.KindArray, runtime.KindTypedArray:
		items, err := in.iterate(first)
		if err != nil {
			return nil, err
		}
		out := runtime.NewTypedArray(kind, len(items))
		for i, it := range items {
			if err := out.TA.Set(i, it); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, typeErrorf("cannot construct a typed array from %s", first.TypeOf())
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (in *Interpreter) newDate(args []*runtime.Value) (*runtime.Value, error) {
	switch len(args) {
	case 0:
		return runtime.NewDateValue(in.Loop.Now()), nil
	case 1:
		arg := args[0]
		if arg.Kind == runtime.KindString {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, arg.Str); err == nil {
					return runtime.NewDateValue(t.UnixMilli()), nil
				}
			}
			return nil, rangeErrorf("Invalid Date: %s", arg.Str)
		}
		if arg.Kind == runtime.KindDate {
			return runtime.NewDateValue(arg.Date.MS), nil
		}
		return runtime.NewDateValue(int64(arg.ToFloat())), nil
	default:
		field := func(i, def int) int {
			if i < len(args) && args[i].Kind != runtime.KindUndefined {
				return int(args[i].ToFloat())
			}
			return def
		}
		ms := runtime.MSFromCivil(field(0, 1970), field(1, 0)+1, field(2, 1),
			field(3, 0), field(4, 0), field(5, 0), field(6, 0))
		return runtime.NewDateValue(ms), nil
	}
}

// optString reads a string option from an options bag.
func optString(opts *runtime.Value, key string) string {
	if opts == nil || opts.Kind != runtime.KindObject {
		return ""
	}
	if v, ok := opts.Obj.Get(key); ok && v.Kind != runtime.KindUndefined {
		return v.ToString()
	}
	return ""
}

func optBool(opts *runtime.Value, key string, def bool) bool {
	if opts == nil || opts.Kind != runtime.KindObject {
		return def
	}
	if v, ok := opts.Obj.Get(key); ok && v.Kind != runtime.KindUndefined {
		return v.ToBoolean()
	}
	return def
}

func optInt(opts *runtime.Value, key string, def int) int {
	if opts == nil || opts.Kind != runtime.KindObject {
		return def
	}
	if v, ok := opts.Obj.Get(key); ok && v.Kind != runtime.KindUndefined {
		return int(v.ToFloat())
	}
	return def
}

func localeArg(args []*runtime.Value) string {
	if argAt(args, 0).Kind == runtime.KindString {
		return args[0].Str
	}
	return ""
}

func (in *Interpreter) newIntlCollator(args []*runtime.Value) (*runtime.Value, error) {
	locale := localeArg(args)
	opts := argAt(args, 1)
	cmp, err := intl.NewCollator(locale, intl.CollatorOptions{
		Sensitivity: optString(opts, "sensitivity"),
		Numeric:     optBool(opts, "numeric", false),
	})
	if err != nil {
		return nil, err
	}
	return &runtime.Value{Kind: runtime.KindIntl, Intl: &runtime.IntlValue{
		What: "Collator", Locale: locale, CompareFn: cmp,
	}}, nil
}

func (in *Interpreter) newIntlNumberFormat(args []*runtime.Value) (*runtime.Value, error) {
	locale := localeArg(args)
	opts := argAt(args, 1)
	format, err := intl.NewNumberFormat(locale, intl.NumberFormatOptions{
		Style:                 optString(opts, "style"),
		Currency:              optString(opts, "currency"),
		MinimumFractionDigits: optInt(opts, "minimumFractionDigits", 0),
		MaximumFractionDigits: optInt(opts, "maximumFractionDigits", -1),
		UseGrouping:           optBool(opts, "useGrouping", true),
	})
	if err != nil {
		return nil, err
	}
	return &runtime.Value{Kind: runtime.KindIntl, Intl: &runtime.IntlValue{
		What: "NumberFormat", Locale: locale, FormatNum: format,
	}}, nil
}

func (in *Interpreter) newIntlPluralRules(args []*runtime.Value) (*runtime.Value, error) {
	locale := localeArg(args)
	sel, err := intl.NewPluralRules(locale, optString(argAt(args, 1), "type"))
	if err != nil {
		return nil, err
	}
	return &runtime.Value{Kind: runtime.KindIntl, Intl: &runtime.IntlValue{
		What: "PluralRules", Locale: locale, SelectFn: sel,
	}}, nil
}

func (in *Interpreter) newIntlDateTimeFormat(args []*runtime.Value) (*runtime.Value, error) {
	locale := localeArg(args)
	opts := argAt(args, 1)
	format, err := intl.NewDateTimeFormat(locale, intl.DateTimeFormatOptions{
		DateStyle: optString(opts, "dateStyle"),
		TimeStyle: optString(opts, "timeStyle"),
	})
	if err != nil {
		return nil, err
	}
	return &runtime.Value{Kind: runtime.KindIntl, Intl: &runtime.IntlValue{
		What: "DateTimeFormat", Locale: locale, FormatDate: format,
	}}, nil
}
