package interp

import (
	"math"
	"sort"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

func wantArray(recv *runtime.Value, method string) (*runtime.ArrayValue, error) {
	if recv == nil || recv.Kind != runtime.KindArray {
		return nil, typeErrorf("%s is not a function on %s", method, kindOf(recv))
	}
	return recv.Arr, nil
}

func wantFunction(v *runtime.Value, what string) (*runtime.Value, error) {
	if v == nil || v.Kind != runtime.KindFunction {
		return nil, typeErrorf("%s is not a function", what)
	}
	return v, nil
}

func argAt(args []*runtime.Value, i int) *runtime.Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return runtime.Undefined
}

// sliceBounds resolves JS-style begin/end arguments against length n.
func sliceBounds(args []*runtime.Value, n int) (int, int) {
	resolve := func(v *runtime.Value, def int) int {
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
	begin := resolve(argAt(args, 0), 0)
	end := resolve(argAt(args, 1), n)
	if end < begin {
		end = begin
	}
	return begin, end
}

func elemAt(arr *runtime.ArrayValue, i int) *runtime.Value {
	if i < 0 || i >= len(arr.Elems) || arr.Elems[i] == nil {
		return runtime.Undefined
	}
	return arr.Elems[i]
}

func (in *Interpreter) arrayOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.ArrayIsArray:
		return runtime.NewBool(argAt(args, 0).Kind == runtime.KindArray), nil
	case ast.ArrayOf:
		return runtime.NewArray(append([]*runtime.Value(nil), args...)), nil
	case ast.ArrayFrom:
		return in.arrayFrom(args)
	}

	arr, err := wantArray(recv, op.String())
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.ArrayPush:
		arr.Elems = append(arr.Elems, args...)
		return runtime.NewInt(int64(len(arr.Elems))), nil
	case ast.ArrayPop:
		if len(arr.Elems) == 0 {
			return runtime.Undefined, nil
		}
		last := elemAt(arr, len(arr.Elems)-1)
		arr.Elems = arr.Elems[:len(arr.Elems)-1]
		return last, nil
	case ast.ArrayShift:
		if len(arr.Elems) == 0 {
			return runtime.Undefined, nil
		}
		first := elemAt(arr, 0)
		arr.Elems = append(arr.Elems[:0], arr.Elems[1:]...)
		return first, nil
	case ast.ArrayUnshift:
		arr.Elems = append(append([]*runtime.Value(nil), args...), arr.Elems...)
		return runtime.NewInt(int64(len(arr.Elems))), nil
	case ast.ArraySlice:
		begin, end := sliceBounds(args, len(arr.Elems))
		return runtime.NewArray(append([]*runtime.Value(nil), arr.Elems[begin:end]...)), nil
	case ast.ArraySplice:
		return in.arraySplice(arr, args), nil
	case ast.ArrayConcat:
		out := append([]*runtime.Value(nil), arr.Elems...)
		for _, a := range args {
			if a.Kind == runtime.KindArray {
				out = append(out, a.Arr.Elems...)
			} else {
				out = append(out, a)
			}
		}
		return runtime.NewArray(out), nil
	case ast.ArrayJoin:
		sep := ","
		if argAt(args, 0).Kind != runtime.KindUndefined {
			sep = args[0].ToString()
		}
		parts := make([]string, len(arr.Elems))
		for i := range arr.Elems {
			e := elemAt(arr, i)
			if e.Kind != runtime.KindUndefined && e.Kind != runtime.KindNull {
				parts[i] = in.displayString(e)
			}
		}
		return runtime.NewString(strings.Join(parts, sep)), nil
	case ast.ArrayReverse:
		for i, j := 0, len(arr.Elems)-1; i < j; i, j = i+1, j-1 {
			arr.Elems[i], arr.Elems[j] = arr.Elems[j], arr.Elems[i]
		}
		return recv, nil
	case ast.ArraySort:
		return in.arraySort(recv, arr, args)
	case ast.ArrayFill:
		v := argAt(args, 0)
		begin, end := sliceBounds(args[1:], len(arr.Elems))
		for i := begin; i < end; i++ {
			arr.Elems[i] = v
		}
		return recv, nil
	case ast.ArrayIncludes:
		needle := argAt(args, 0)
		for i := range arr.Elems {
			if runtime.SameValueZero(elemAt(arr, i), needle) {
				return runtime.True, nil
			}
		}
		return runtime.False, nil
	case ast.ArrayIndexOf:
		needle := argAt(args, 0)
		for i := range arr.Elems {
			if runtime.StrictEquals(elemAt(arr, i), needle) {
				return runtime.NewInt(int64(i)), nil
			}
		}
		return runtime.NewInt(-1), nil
	case ast.ArrayLastIndexOf:
		needle := argAt(args, 0)
		for i := len(arr.Elems) - 1; i >= 0; i-- {
			if runtime.StrictEquals(elemAt(arr, i), needle) {
				return runtime.NewInt(int64(i)), nil
			}
		}
		return runtime.NewInt(-1), nil
	case ast.ArrayAt:
		i := int(argAt(args, 0).ToFloat())
		if i < 0 {
			i += len(arr.Elems)
		}
		return elemAt(arr, i), nil
	case ast.ArrayFlat:
		depth := 1
		if argAt(args, 0).Kind != runtime.KindUndefined {
			f := args[0].ToFloat()
			if math.IsInf(f, 1) {
				depth = math.MaxInt32
			} else {
				depth = int(f)
			}
		}
		return runtime.NewArray(flatten(arr.Elems, depth)), nil
	case ast.ArrayKeys:
		out := make([]*runtime.Value, len(arr.Elems))
		for i := range arr.Elems {
			out[i] = runtime.NewInt(int64(i))
		}
		return runtime.NewArray(out), nil
	case ast.ArrayValues:
		out := make([]*runtime.Value, len(arr.Elems))
		for i := range arr.Elems {
			out[i] = elemAt(arr, i)
		}
		return runtime.NewArray(out), nil
	case ast.ArrayEntries:
		out := make([]*runtime.Value, len(arr.Elems))
		for i := range arr.Elems {
			out[i] = runtime.NewArray([]*runtime.Value{runtime.NewInt(int64(i)), elemAt(arr, i)})
		}
		return runtime.NewArray(out), nil
	}

	// callback-driven operations
	cb, err := wantFunction(argAt(args, 0), op.String()+" callback")
	if err != nil && op != ast.ArrayReduce && op != ast.ArrayReduceRight {
		return nil, err
	}
	invoke := func(i int) (*runtime.Value, error) {
		return in.callFunction(cb, []*runtime.Value{elemAt(arr, i), runtime.NewInt(int64(i)), recv}, nil)
	}
	switch op {
	case ast.ArrayMap:
		out := make([]*runtime.Value, len(arr.Elems))
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return runtime.NewArray(out), nil
	case ast.ArrayFlatMap:
		var out []*runtime.Value
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if v.Kind == runtime.KindArray {
				out = append(out, v.Arr.Elems...)
			} else {
				out = append(out, v)
			}
		}
		return runtime.NewArray(out), nil
	case ast.ArrayFilter:
		var out []*runtime.Value
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if v.ToBoolean() {
				out = append(out, elemAt(arr, i))
			}
		}
		return runtime.NewArray(out), nil
	case ast.ArrayForEach:
		for i := range arr.Elems {
			if _, err := invoke(i); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	case ast.ArrayFind, ast.ArrayFindIndex:
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if v.ToBoolean() {
				if op == ast.ArrayFind {
					return elemAt(arr, i), nil
				}
				return runtime.NewInt(int64(i)), nil
			}
		}
		if op == ast.ArrayFind {
			return runtime.Undefined, nil
		}
		return runtime.NewInt(-1), nil
	case ast.ArrayFindLast, ast.ArrayFindLastIndex:
		for i := len(arr.Elems) - 1; i >= 0; i-- {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if v.ToBoolean() {
				if op == ast.ArrayFindLast {
					return elemAt(arr, i), nil
				}
				return runtime.NewInt(int64(i)), nil
			}
		}
		if op == ast.ArrayFindLast {
			return runtime.Undefined, nil
		}
		return runtime.NewInt(-1), nil
	case ast.ArraySome:
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if v.ToBoolean() {
				return runtime.True, nil
			}
		}
		return runtime.False, nil
	case ast.ArrayEvery:
		for i := range arr.Elems {
			v, err := invoke(i)
			if err != nil {
				return nil, err
			}
			if !v.ToBoolean() {
				return runtime.False, nil
			}
		}
		return runtime.True, nil
	case ast.ArrayReduce, ast.ArrayReduceRight:
		return in.arrayReduce(op, recv, arr, args)
	}
	return nil, typeErrorf("unsupported array operation %s", op)
}

func (in *Interpreter) arrayFrom(args []*runtime.Value) (*runtime.Value, error) {
	src := argAt(args, 0)
	var items []*runtime.Value
	switch src.Kind {
	case runtime.KindObject:
		// array-like: consume the length property
		if lv, ok := src.Obj.Get("length"); ok {
			n := int(lv.ToFloat())
			for i := 0; i < n; i++ {
				v, _ := src.Obj.Get(itoa(i))
				items = append(items, v)
			}
		}
	default:
		var err error
		items, err = in.iterate(src)
		if err != nil {
			return nil, err
		}
	}
	if argAt(args, 1).Kind == runtime.KindFunction {
		mapped := make([]*runtime.Value, len(items))
		for i, it := range items {
			v, err := in.callFunction(args[1], []*runtime.Value{it, runtime.NewInt(int64(i))}, nil)
			if err != nil {
				return nil, err
			}
			mapped[i] = v
		}
		items = mapped
	}
	return runtime.NewArray(items), nil
}

func (in *Interpreter) arraySplice(arr *runtime.ArrayValue, args []*runtime.Value) *runtime.Value {
	n := len(arr.Elems)
	start := 0
	if argAt(args, 0).Kind != runtime.KindUndefined {
		start = int(args[0].ToFloat())
		if start < 0 {
			start += n
		}
		if start < 0 {
			start = 0
		}
		if start > n {
			start = n
		}
	}
	count := n - start
	if argAt(args, 1).Kind != runtime.KindUndefined {
		count = int(args[1].ToFloat())
		if count < 0 {
			count = 0
		}
		if count > n-start {
			count = n - start
		}
	}
	removed := append([]*runtime.Value(nil), arr.Elems[start:start+count]...)
	var inserted []*runtime.Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	tail := append([]*runtime.Value(nil), arr.Elems[start+count:]...)
	arr.Elems = append(append(arr.Elems[:start], inserted...), tail...)
	return runtime.NewArray(removed)
}

func (in *Interpreter) arraySort(recv *runtime.Value, arr *runtime.ArrayValue, args []*runtime.Value) (*runtime.Value, error) {
	cmpFn := argAt(args, 0)
	var cbErr error
	less := func(a, b *runtime.Value) bool {
		// undefined elements sort to the end
		if a.Kind == runtime.KindUndefined {
			return false
		}
		if b.Kind == runtime.KindUndefined {
			return true
		}
		if cmpFn.Kind == runtime.KindFunction {
			out, err := in.callFunction(cmpFn, []*runtime.Value{a, b}, nil)
			if err != nil && cbErr == nil {
				cbErr = err
			}
			if err != nil {
				return false
			}
			return out.ToFloat() < 0
		}
		return in.displayString(a) < in.displayString(b)
	}
	sort.SliceStable(arr.Elems, func(i, j int) bool {
		return less(elemAt(arr, i), elemAt(arr, j))
	})
	if cbErr != nil {
		return nil, cbErr
	}
	return recv, nil
}

func (in *Interpreter) arrayReduce(op ast.BuiltinOp, recv *runtime.Value, arr *runtime.ArrayValue, args []*runtime.Value) (*runtime.Value, error) {
	cb, err := wantFunction(argAt(args, 0), op.String()+" callback")
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(arr.Elems))
	for i := range indices {
		if op == ast.ArrayReduce {
			indices[i] = i
		} else {
			indices[i] = len(arr.Elems) - 1 - i
		}
	}
	var acc *runtime.Value
	start := 0
	if len(args) > 1 {
		acc = args[1]
	} else {
		if len(indices) == 0 {
			return nil, typeErrorf("Reduce of empty array with no initial value")
		}
		acc = elemAt(arr, indices[0])
		start = 1
	}
	for _, i := range indices[start:] {
		v, err := in.callFunction(cb, []*runtime.Value{acc, elemAt(arr, i), runtime.NewInt(int64(i)), recv}, nil)
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func flatten(elems []*runtime.Value, depth int) []*runtime.Value {
	var out []*runtime.Value
	for _, e := range elems {
		if e != nil && e.Kind == runtime.KindArray && depth > 0 {
			out = append(out, flatten(e.Arr.Elems, depth-1)...)
			continue
		}
		if e == nil {
			e = runtime.Undefined
		}
		out = append(out, e)
	}
	return out
}
