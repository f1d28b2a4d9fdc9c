package interp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) objectOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.ObjectKeys, ast.ObjectGetOwnPropertyNames:
		return runtime.NewArray(ownKeys(argAt(args, 0))), nil
	case ast.ObjectValues:
		src := argAt(args, 0)
		var out []*runtime.Value
		switch src.Kind {
		case runtime.KindObject:
			for _, k := range src.Obj.Keys() {
				v, _ := src.Obj.Get(k)
				out = append(out, v)
			}
		case runtime.KindArray:
			out = append(out, src.Arr.Elems...)
		}
		return runtime.NewArray(out), nil
	case ast.ObjectEntries:
		src := argAt(args, 0)
		var out []*runtime.Value
		switch src.Kind {
		case runtime.KindObject:
			for _, k := range src.Obj.Keys() {
				v, _ := src.Obj.Get(k)
				out = append(out, runtime.NewArray([]*runtime.Value{runtime.NewString(k), v}))
			}
		case runtime.KindArray:
			for i, v := range src.Arr.Elems {
				out = append(out, runtime.NewArray([]*runtime.Value{runtime.NewString(itoa(i)), v}))
			}
		}
		return runtime.NewArray(out), nil
	case ast.ObjectAssign:
		target := argAt(args, 0)
		if target.Kind != runtime.KindObject {
			return nil, typeErrorf("Object.assign target must be an object")
		}
		for _, src := range args[1:] {
			if src.Kind != runtime.KindObject {
				continue
			}
			for _, k := range src.Obj.Keys() {
				v, _ := src.Obj.Get(k)
				target.Obj.Set(k, v)
			}
		}
		return target, nil
	case ast.ObjectFreeze:
		v := argAt(args, 0)
		if v.Kind == runtime.KindObject {
			v.Obj.Frozen = true
		}
		return v, nil
	case ast.ObjectIsFrozen:
		v := argAt(args, 0)
		if v.Kind == runtime.KindObject {
			return runtime.NewBool(v.Obj.Frozen), nil
		}
		return runtime.NewBool(!v.Kind.IsComposite()), nil
	case ast.ObjectFromEntries:
		src := argAt(args, 0)
		items, err := in.iterate(src)
		if err != nil {
			return nil, err
		}
		obj := runtime.NewObjectValue()
		for _, it := range items {
			if it.Kind != runtime.KindArray || len(it.Arr.Elems) < 1 {
				return nil, typeErrorf("Iterator value is not an entry object")
			}
			obj.Set(elemAt(it.Arr, 0).ToString(), elemAt(it.Arr, 1))
		}
		return runtime.NewObject(obj), nil
	case ast.ObjectCreate:
		proto := argAt(args, 0)
		obj := runtime.NewObjectValue()
		// prototype chains are not modeled; a class prototype carries its
		// method table onto the new object
		if proto.Kind == runtime.KindObject && proto.Obj.Class != nil {
			obj.Class = proto.Obj.Class
		}
		return runtime.NewObject(obj), nil
	case ast.ObjectDefineProperty:
		target := argAt(args, 0)
		if target.Kind != runtime.KindObject {
			return nil, typeErrorf("Object.defineProperty called on non-object")
		}
		desc := argAt(args, 2)
		if desc.Kind != runtime.KindObject {
			return nil, typeErrorf("Property description must be an object")
		}
		if desc.Obj.Has("get") || desc.Obj.Has("set") {
			return nil, typeErrorf("accessor property descriptors are not supported")
		}
		v, _ := desc.Obj.Get("value")
		target.Obj.Set(argAt(args, 1).ToString(), v)
		return target, nil
	case ast.ObjectHasOwnProperty:
		key := argAt(args, 0).ToString()
		switch recv.Kind {
		case runtime.KindObject:
			return runtime.NewBool(recv.Obj.Has(key)), nil
		case runtime.KindArray:
			if i, ok := arrayIndex(key); ok {
				return runtime.NewBool(i < len(recv.Arr.Elems)), nil
			}
			return runtime.False, nil
		default:
			return runtime.False, nil
		}
	}
	return nil, typeErrorf("unsupported object operation %s", op)
}

func ownKeys(src *runtime.Value) []*runtime.Value {
	var out []*runtime.Value
	switch src.Kind {
	case runtime.KindObject:
		for _, k := range src.Obj.Keys() {
			out = append(out, runtime.NewString(k))
		}
	case runtime.KindArray:
		for i := range src.Arr.Elems {
			out = append(out, runtime.NewString(itoa(i)))
		}
	}
	return out
}

// ---------- JSON ----------

func (in *Interpreter) jsonOp(op ast.BuiltinOp, args []*runtime.Value) (*runtime.Value, error) {
	if op == ast.JSONParse {
		return jsonParse(argAt(args, 0).ToString())
	}
	return in.jsonStringify(args)
}

// jsonParse decodes through the token stream so object key order survives.
func jsonParse(text string) (*runtime.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := jsonDecodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("SyntaxError: Unexpected token in JSON: %v", err)
	}
	// trailing garbage is a syntax error
	if dec.More() {
		return nil, fmt.Errorf("SyntaxError: Unexpected non-whitespace character after JSON")
	}
	return v, nil
}

func jsonDecodeValue(dec *json.Decoder) (*runtime.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonFromToken(dec, tok)
}

func jsonFromToken(dec *json.Decoder, tok json.Token) (*runtime.Value, error) {
	switch t := tok.(type) {
	case nil:
		return runtime.Null, nil
	case bool:
		return runtime.NewBool(t), nil
	case string:
		return runtime.NewString(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return runtime.NewInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return runtime.NewFloatOrInt(f), nil
	case json.Delim:
		switch t {
		case '[':
			var elems []*runtime.Value
			for dec.More() {
				v, err := jsonDecodeValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return nil, err
			}
			return runtime.NewArray(elems), nil
		case '{':
			obj := runtime.NewObjectValue()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := jsonDecodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil { // closing }
				return nil, err
			}
			return runtime.NewObject(obj), nil
		}
	}
	return nil, typeErrorf("unexpected JSON token")
}

func (in *Interpreter) jsonStringify(args []*runtime.Value) (*runtime.Value, error) {
	value := argAt(args, 0)
	replacer := argAt(args, 1)
	indent := jsonIndent(argAt(args, 2))

	var b strings.Builder
	seen := make(map[interface{}]bool)
	ok, err := in.jsonWrite(&b, value, replacer, indent, "", seen)
	if err != nil {
		return nil, err
	}
	if !ok {
		return runtime.Undefined, nil
	}
	return runtime.NewString(b.String()), nil
}

func jsonIndent(space *runtime.Value) string {
	switch space.Kind {
	case runtime.KindNumber, runtime.KindFloat:
		n := int(space.ToFloat())
		if n > 10 {
			n = 10
		}
		if n <= 0 {
			return ""
		}
		return strings.Repeat(" ", n)
	case runtime.KindString:
		if len(space.Str) > 10 {
			return space.Str[:10]
		}
		return space.Str
	default:
		return ""
	}
}

// jsonWrite serializes v. ok is false when the value is omitted the way JSON
// drops undefined and functions.
func (in *Interpreter) jsonWrite(b *strings.Builder, v *runtime.Value, replacer *runtime.Value, indent, prefix string, seen map[interface{}]bool) (bool, error) {
	switch v.Kind {
	case runtime.KindUndefined, runtime.KindFunction, runtime.KindSymbol:
		return false, nil
	case runtime.KindNull:
		b.WriteString("null")
	case runtime.KindBool:
		b.WriteString(v.ToString())
	case runtime.KindNumber:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case runtime.KindFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			b.WriteString("null")
		} else {
			b.WriteString(runtime.FormatFloat(v.Float))
		}
	case runtime.KindString:
		b.WriteString(quoteJSON(v.Str))
	case runtime.KindBigInt:
		return false, typeErrorf("Do not know how to serialize a BigInt")
	case runtime.KindDate:
		b.WriteString(quoteJSON(runtime.ISOStringFromMS(v.Date.MS)))
	case runtime.KindMap, runtime.KindSet, runtime.KindRegExp, runtime.KindPromise:
		b.WriteString("{}")
	case runtime.KindArray:
		if seen[v.Arr] {
			return false, typeErrorf("Converting circular structure to JSON")
		}
		seen[v.Arr] = true
		defer delete(seen, v.Arr)
		return true, in.jsonWriteArray(b, v, replacer, indent, prefix, seen)
	case runtime.KindObject:
		if seen[v.Obj] {
			return false, typeErrorf("Converting circular structure to JSON")
		}
		seen[v.Obj] = true
		defer delete(seen, v.Obj)
		return true, in.jsonWriteObject(b, v, replacer, indent, prefix, seen)
	default:
		b.WriteString("{}")
	}
	return true, nil
}

func (in *Interpreter) jsonApplyReplacer(key string, v *runtime.Value, replacer *runtime.Value) (*runtime.Value, error) {
	if replacer.Kind != runtime.KindFunction {
		return v, nil
	}
	return in.callFunction(replacer, []*runtime.Value{runtime.NewString(key), v}, nil)
}

func (in *Interpreter) jsonWriteArray(b *strings.Builder, v *runtime.Value, replacer *runtime.Value, indent, prefix string, seen map[interface{}]bool) error {
	elems := v.Arr.Elems
	if len(elems) == 0 {
		b.WriteString("[]")
		return nil
	}
	inner := prefix + indent
	b.WriteString("[")
	for i := range elems {
		if i > 0 {
			b.WriteString(",")
		}
		if indent != "" {
			b.WriteString("\n" + inner)
		}
		e, err := in.jsonApplyReplacer(itoa(i), elemAt(v.Arr, i), replacer)
		if err != nil {
			return err
		}
		ok, err := in.jsonWrite(b, e, replacer, indent, inner, seen)
		if err != nil {
			return err
		}
		if !ok {
			b.WriteString("null")
		}
	}
	if indent != "" {
		b.WriteString("\n" + prefix)
	}
	b.WriteString("]")
	return nil
}

func (in *Interpreter) jsonWriteObject(b *strings.Builder, v *runtime.Value, replacer *runtime.Value, indent, prefix string, seen map[interface{}]bool) error {
	keys := v.Obj.Keys()
	inner := prefix + indent
	b.WriteString("{")
	wrote := false
	for _, k := range keys {
		ev, _ := v.Obj.Get(k)
		ev, err := in.jsonApplyReplacer(k, ev, replacer)
		if err != nil {
			return err
		}
		var sub strings.Builder
		ok, err := in.jsonWrite(&sub, ev, replacer, indent, inner, seen)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if wrote {
			b.WriteString(",")
		}
		if indent != "" {
			b.WriteString("\n" + inner)
		}
		b.WriteString(quoteJSON(k))
		b.WriteString(":")
		if indent != "" {
			b.WriteString(" ")
		}
		b.WriteString(sub.String())
		wrote = true
	}
	if wrote && indent != "" {
		b.WriteString("\n" + prefix)
	}
	b.WriteString("}")
	return nil
}

func quoteJSON(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(out)
}
