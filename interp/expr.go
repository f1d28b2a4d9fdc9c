package interp

import (
	"math"
	"math/big"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) evalExpr(expr ast.Expression, env *runtime.Environment) (*runtime.Value, signal) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.NewInt(e.Value), signal{}
	case *ast.FloatLiteral:
		return runtime.NewFloat(e.Value), signal{}
	case *ast.BigIntLiteral:
		n, ok := new(big.Int).SetString(e.Text, 0)
		if !ok {
			return nil, in.throwf("SyntaxError: invalid BigInt literal %q", e.Text)
		}
		return runtime.NewBigInt(n), signal{}
	case *ast.StringLiteral:
		return runtime.NewString(e.Value), signal{}
	case *ast.BooleanLiteral:
		return runtime.NewBool(e.Value), signal{}
	case *ast.NullLiteral:
		return runtime.Null, signal{}
	case *ast.UndefinedLiteral:
		return runtime.Undefined, signal{}
	case *ast.RegExpLiteral:
		v, err := runtime.NewRegExp(e.Pattern, e.Flags)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	case *ast.TemplateLiteral:
		return in.evalTemplate(e, env)
	case *ast.ArrayLiteral:
		return in.evalArrayLiteral(e, env)
	case *ast.ObjectLiteral:
		return in.evalObjectLiteral(e, env)
	case *ast.Identifier:
		v, err := env.Get(e.Name)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	case *ast.ThisExpression:
		if v, err := env.Get("this"); err == nil {
			return v, signal{}
		}
		return runtime.Undefined, signal{}
	case *ast.FunctionLiteral:
		return in.makeFunction(e, env), signal{}
	case *ast.ClassLiteral:
		return in.evalClassLiteral(e, env)
	case *ast.UnaryExpression:
		return in.evalUnary(e, env)
	case *ast.UpdateExpression:
		return in.evalUpdate(e, env)
	case *ast.BinaryExpression:
		l, sig := in.evalExpr(e.Left, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		r, sig := in.evalExpr(e.Right, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		v, err := in.binaryOp(e.Operator, l, r)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	case *ast.LogicalExpression:
		return in.evalLogical(e, env)
	case *ast.AssignmentExpression:
		return in.evalAssignment(e, env)
	case *ast.ConditionalExpression:
		test, sig := in.evalExpr(e.Test, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if test.ToBoolean() {
			return in.evalExpr(e.Consequent, env)
		}
		return in.evalExpr(e.Alternate, env)
	case *ast.SequenceExpression:
		var last *runtime.Value = runtime.Undefined
		for _, sub := range e.Expressions {
			v, sig := in.evalExpr(sub, env)
			if sig.typ != sigNone {
				return nil, sig
			}
			last = v
		}
		return last, signal{}
	case *ast.CallExpression:
		return in.evalCall(e, env)
	case *ast.NewExpression:
		return in.evalNew(e, env)
	case *ast.MemberExpression:
		return in.evalMember(e, env)
	case *ast.BuiltinCall:
		return in.evalBuiltinCall(e, env)
	case *ast.BuiltinMember:
		recv, sig := in.evalExpr(e.Recv, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		v, err := in.builtinMemberGet(e.Op, recv)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	case *ast.AwaitExpression:
		return in.evalAwait(e, env)
	case *ast.YieldExpression:
		return in.evalYield(e, env)
	case *ast.SuperCallExpression:
		return in.evalSuperCall(e, env)
	case *ast.SuperMethodExpression:
		return in.evalSuperMethod(e, env)
	case *ast.SpreadElement:
		return nil, in.throwf("SyntaxError: unexpected spread element")
	default:
		return nil, in.throwf("TypeError: unsupported expression %T", expr)
	}
}

func (in *Interpreter) evalTemplate(e *ast.TemplateLiteral, env *runtime.Environment) (*runtime.Value, signal) {
	var b strings.Builder
	for i, q := range e.Quasis {
		b.WriteString(q)
		if i < len(e.Expressions) {
			v, sig := in.evalExpr(e.Expressions[i], env)
			if sig.typ != sigNone {
				return nil, sig
			}
			b.WriteString(in.displayString(v))
		}
	}
	return runtime.NewString(b.String()), signal{}
}

func (in *Interpreter) evalArrayLiteral(e *ast.ArrayLiteral, env *runtime.Environment) (*runtime.Value, signal) {
	var elems []*runtime.Value
	for _, el := range e.Elements {
		if el == nil {
			elems = append(elems, runtime.Undefined)
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			src, sig := in.evalExpr(sp.Argument, env)
			if sig.typ != sigNone {
				return nil, sig
			}
			items, err := in.iterate(src)
			if err != nil {
				return nil, in.throwErr(err)
			}
			elems = append(elems, items...)
			continue
		}
		v, sig := in.evalExpr(el, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		elems = append(elems, v)
	}
	return runtime.NewArray(elems), signal{}
}

func (in *Interpreter) evalObjectLiteral(e *ast.ObjectLiteral, env *runtime.Environment) (*runtime.Value, signal) {
	obj := runtime.NewObjectValue()
	for _, p := range e.Properties {
		if p.Spread {
			src, sig := in.evalExpr(p.Value, env)
			if sig.typ != sigNone {
				return nil, sig
			}
			switch src.Kind {
			case runtime.KindObject:
				for _, k := range src.Obj.Keys() {
					v, _ := src.Obj.Get(k)
					obj.Set(k, v)
				}
			case runtime.KindArray:
				for i, v := range src.Arr.Elems {
					obj.Set(itoa(i), v)
				}
			case runtime.KindUndefined, runtime.KindNull:
				// spread of nothing adds nothing
			default:
				return nil, in.throwf("TypeError: cannot spread %s into an object", src.TypeOf())
			}
			continue
		}
		var key string
		if p.Computed {
			kv, sig := in.evalExpr(p.Key, env)
			if sig.typ != sigNone {
				return nil, sig
			}
			key = kv.ToString()
		} else {
			switch k := p.Key.(type) {
			case *ast.Identifier:
				key = k.Name
			case *ast.StringLiteral:
				key = k.Value
			case *ast.NumberLiteral:
				key = runtime.NewInt(k.Value).ToString()
			case *ast.FloatLiteral:
				key = runtime.NewFloat(k.Value).ToString()
			default:
				return nil, in.throwf("TypeError: unsupported property key %T", p.Key)
			}
		}
		v, sig := in.evalExpr(p.Value, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if fn, ok := p.Value.(*ast.FunctionLiteral); ok && fn.Name == "" && v.Kind == runtime.KindFunction {
			v.Fn.Name = key
		}
		obj.Set(key, v)
	}
	return runtime.NewObject(obj), signal{}
}

func (in *Interpreter) evalUnary(e *ast.UnaryExpression, env *runtime.Environment) (*runtime.Value, signal) {
	if e.Operator == "typeof" {
		// typeof never throws for unresolved names
		if id, ok := e.Operand.(*ast.Identifier); ok && !env.Has(id.Name) {
			return runtime.NewString("undefined"), signal{}
		}
	}
	if e.Operator == "delete" {
		return in.evalDelete(e.Operand, env)
	}
	v, sig := in.evalExpr(e.Operand, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	switch e.Operator {
	case "!":
		return runtime.NewBool(!v.ToBoolean()), signal{}
	case "void":
		return runtime.Undefined, signal{}
	case "typeof":
		return runtime.NewString(v.TypeOf()), signal{}
	case "-":
		switch v.Kind {
		case runtime.KindNumber:
			if v.Int == math.MinInt64 {
				return runtime.NewFloat(-float64(v.Int)), signal{}
			}
			return runtime.NewInt(-v.Int), signal{}
		case runtime.KindFloat:
			return runtime.NewFloat(-v.Float), signal{}
		case runtime.KindBigInt:
			return runtime.NewBigInt(new(big.Int).Neg(v.Big)), signal{}
		}
		return runtime.NewFloatOrInt(-in.toPrim(v).ToFloat()), signal{}
	case "+":
		if v.Kind == runtime.KindBigInt {
			return nil, in.throwf("TypeError: Cannot convert a BigInt value to a number")
		}
		if v.IsNumeric() {
			return v, signal{}
		}
		return runtime.NewFloatOrInt(in.toPrim(v).ToFloat()), signal{}
	case "~":
		if v.Kind == runtime.KindBigInt {
			return runtime.NewBigInt(new(big.Int).Not(v.Big)), signal{}
		}
		return runtime.NewInt(int64(^toInt32(v))), signal{}
	default:
		return nil, in.throwf("TypeError: unsupported unary operator %s", e.Operator)
	}
}

func (in *Interpreter) evalDelete(target ast.Expression, env *runtime.Environment) (*runtime.Value, signal) {
	me, ok := target.(*ast.MemberExpression)
	if !ok {
		return runtime.True, signal{}
	}
	obj, sig := in.evalExpr(me.Object, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	key, sig := in.memberKey(me, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	switch obj.Kind {
	case runtime.KindObject:
		return runtime.NewBool(obj.Obj.Delete(key) || !obj.Obj.Has(key)), signal{}
	case runtime.KindArray:
		if i, ok := arrayIndex(key); ok && i >= 0 && i < len(obj.Arr.Elems) {
			obj.Arr.Elems[i] = runtime.Undefined
		}
		return runtime.True, signal{}
	}
	return runtime.True, signal{}
}

func (in *Interpreter) evalUpdate(e *ast.UpdateExpression, env *runtime.Environment) (*runtime.Value, signal) {
	old, sig := in.evalExpr(e.Operand, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	var updated *runtime.Value
	delta := int64(1)
	if e.Operator == "--" {
		delta = -1
	}
	switch old.Kind {
	case runtime.KindNumber:
		n := old.Int + delta
		if (delta > 0 && n < old.Int) || (delta < 0 && n > old.Int) {
			updated = runtime.NewFloat(float64(old.Int) + float64(delta))
		} else {
			updated = runtime.NewInt(n)
		}
	case runtime.KindFloat:
		updated = runtime.NewFloat(old.Float + float64(delta))
	case runtime.KindBigInt:
		updated = runtime.NewBigInt(new(big.Int).Add(old.Big, big.NewInt(delta)))
	default:
		f := in.toPrim(old).ToFloat()
		old = runtime.NewFloatOrInt(f)
		updated = runtime.NewFloatOrInt(f + float64(delta))
	}
	if sig := in.assignTarget(e.Operand, updated, env); sig.typ != sigNone {
		return nil, sig
	}
	if e.Prefix {
		return updated, signal{}
	}
	return old, signal{}
}

func (in *Interpreter) evalLogical(e *ast.LogicalExpression, env *runtime.Environment) (*runtime.Value, signal) {
	l, sig := in.evalExpr(e.Left, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	switch e.Operator {
	case "&&":
		if !l.ToBoolean() {
			return l, signal{}
		}
	case "||":
		if l.ToBoolean() {
			return l, signal{}
		}
	case "??":
		if l.Kind != runtime.KindUndefined && l.Kind != runtime.KindNull {
			return l, signal{}
		}
	}
	return in.evalExpr(e.Right, env)
}

func (in *Interpreter) evalAssignment(e *ast.AssignmentExpression, env *runtime.Environment) (*runtime.Value, signal) {
	switch e.Operator {
	case "=":
		val, sig := in.evalExpr(e.Right, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if fn, ok := e.Right.(*ast.FunctionLiteral); ok && fn.Name == "" && val.Kind == runtime.KindFunction {
			if id, ok := e.Left.(*ast.Identifier); ok {
				val.Fn.Name = id.Name
			}
		}
		if sig := in.assignTarget(e.Left, val, env); sig.typ != sigNone {
			return nil, sig
		}
		return val, signal{}
	case "&&=", "||=", "??=":
		cur, sig := in.evalExpr(e.Left, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		skip := false
		switch e.Operator {
		case "&&=":
			skip = !cur.ToBoolean()
		case "||=":
			skip = cur.ToBoolean()
		case "??=":
			skip = cur.Kind != runtime.KindUndefined && cur.Kind != runtime.KindNull
		}
		if skip {
			return cur, signal{}
		}
		val, sig := in.evalExpr(e.Right, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if sig := in.assignTarget(e.Left, val, env); sig.typ != sigNone {
			return nil, sig
		}
		return val, signal{}
	default:
		cur, sig := in.evalExpr(e.Left, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		right, sig := in.evalExpr(e.Right, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		val, err := in.binaryOp(strings.TrimSuffix(e.Operator, "="), cur, right)
		if err != nil {
			return nil, in.throwErr(err)
		}
		if sig := in.assignTarget(e.Left, val, env); sig.typ != sigNone {
			return nil, sig
		}
		return val, signal{}
	}
}

// assignTarget writes val into an assignment target: a name, a member, a
// recognized built-in property, or a destructuring pattern.
func (in *Interpreter) assignTarget(target ast.Expression, val *runtime.Value, env *runtime.Environment) signal {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := env.Set(t.Name, val); err != nil {
			return in.throwErr(err)
		}
		return signal{}
	case *ast.MemberExpression:
		obj, sig := in.evalExpr(t.Object, env)
		if sig.typ != sigNone {
			return sig
		}
		key, sig := in.memberKey(t, env)
		if sig.typ != sigNone {
			return sig
		}
		return in.setProperty(obj, key, val)
	case *ast.BuiltinMember:
		recv, sig := in.evalExpr(t.Recv, env)
		if sig.typ != sigNone {
			return sig
		}
		if err := in.builtinMemberSet(t.Op, recv, val); err != nil {
			return in.throwErr(err)
		}
		return signal{}
	case *ast.ArrayPattern, *ast.ObjectPattern:
		return in.bindPattern(t, val, "", env)
	default:
		return in.throwf("SyntaxError: invalid assignment target %T", target)
	}
}

// bindPattern binds val to a declaration pattern. kind is the declaration
// kind, or "" for plain assignment through env.Set.
func (in *Interpreter) bindPattern(target ast.Expression, val *runtime.Value, kind string, env *runtime.Environment) signal {
	bind := func(t ast.Expression, v *runtime.Value) signal {
		if id, ok := t.(*ast.Identifier); ok {
			if kind == "" {
				if err := env.Set(id.Name, v); err != nil {
					return in.throwErr(err)
				}
				return signal{}
			}
			if err := env.Declare(id.Name, kind, v); err != nil {
				return in.throwErr(err)
			}
			return signal{}
		}
		return in.bindPattern(t, v, kind, env)
	}
	switch t := target.(type) {
	case *ast.Identifier:
		return bind(t, val)
	case *ast.ArrayPattern:
		if val.Kind == runtime.KindUndefined || val.Kind == runtime.KindNull {
			return in.throwf("TypeError: %s is not iterable", val.ToString())
		}
		items, err := in.iterate(val)
		if err != nil {
			return in.throwErr(err)
		}
		for i, el := range t.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				tail := make([]*runtime.Value, 0, len(items)-i)
				if i < len(items) {
					tail = append(tail, items[i:]...)
				}
				if sig := bind(rest.Argument, runtime.NewArray(tail)); sig.typ != sigNone {
					return sig
				}
				break
			}
			item := runtime.Undefined
			if i < len(items) {
				item = items[i]
			}
			if ap, ok := el.(*ast.AssignmentPattern); ok {
				if item.Kind == runtime.KindUndefined {
					dv, sig := in.evalExpr(ap.Right, env)
					if sig.typ != sigNone {
						return sig
					}
					item = dv
				}
				if sig := bind(ap.Left, item); sig.typ != sigNone {
					return sig
				}
				continue
			}
			if sig := bind(el, item); sig.typ != sigNone {
				return sig
			}
		}
		return signal{}
	case *ast.ObjectPattern:
		if val.Kind == runtime.KindUndefined || val.Kind == runtime.KindNull {
			return in.throwf("TypeError: Cannot destructure '%s'", val.ToString())
		}
		used := make(map[string]bool, len(t.Properties))
		for _, p := range t.Properties {
			used[p.Key] = true
			pv, sig := in.getProperty(val, runtime.NewString(p.Key))
			if sig.typ != sigNone {
				return sig
			}
			if p.Default != nil && pv.Kind == runtime.KindUndefined {
				dv, dsig := in.evalExpr(p.Default, env)
				if dsig.typ != sigNone {
					return dsig
				}
				pv = dv
			}
			if sig := bind(p.Value, pv); sig.typ != sigNone {
				return sig
			}
		}
		if t.Rest != nil {
			rest := runtime.NewObjectValue()
			if val.Kind == runtime.KindObject {
				for _, k := range val.Obj.Keys() {
					if !used[k] {
						v, _ := val.Obj.Get(k)
						rest.Set(k, v)
					}
				}
			}
			if sig := bind(t.Rest, runtime.NewObject(rest)); sig.typ != sigNone {
				return sig
			}
		}
		return signal{}
	case *ast.AssignmentPattern:
		if val.Kind == runtime.KindUndefined {
			dv, sig := in.evalExpr(t.Right, env)
			if sig.typ != sigNone {
				return sig
			}
			val = dv
		}
		return bind(t.Left, val)
	default:
		return in.throwf("SyntaxError: invalid binding pattern %T", target)
	}
}

// ---------- member access ----------

func (in *Interpreter) memberKey(me *ast.MemberExpression, env *runtime.Environment) (string, signal) {
	if !me.Computed {
		return me.Property, signal{}
	}
	kv, sig := in.evalExpr(me.Index, env)
	if sig.typ != sigNone {
		return "", sig
	}
	return kv.ToString(), signal{}
}

func (in *Interpreter) evalMember(e *ast.MemberExpression, env *runtime.Environment) (*runtime.Value, signal) {
	obj, sig := in.evalExpr(e.Object, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	if obj.Kind == runtime.KindUndefined || obj.Kind == runtime.KindNull {
		if e.Optional {
			return runtime.Undefined, signal{}
		}
		name := e.Property
		if e.Computed {
			name = "..."
		}
		return nil, in.throwf("TypeError: Cannot read properties of %s (reading '%s')", obj.ToString(), name)
	}
	if e.Computed {
		kv, ksig := in.evalExpr(e.Index, env)
		if ksig.typ != sigNone {
			return nil, ksig
		}
		return in.getProperty(obj, kv)
	}
	return in.getProperty(obj, runtime.NewString(e.Property))
}

func arrayIndex(key string) (int, bool) {
	n := 0
	if key == "" {
		return 0, false
	}
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	return n, true
}

// getProperty is the generic property read: object keys, class getters and
// methods, array and string indexing, typed array elements.
func (in *Interpreter) getProperty(obj, key *runtime.Value) (*runtime.Value, signal) {
	name := key.ToString()
	switch obj.Kind {
	case runtime.KindObject:
		if v, ok := obj.Obj.Get(name); ok {
			return v, signal{}
		}
		if cls := obj.Obj.Class; cls != nil {
			if m, owner := cls.FindMethod(name, "get"); m != nil {
				return in.callMethod(m, owner, obj, nil)
			}
			if m, owner := cls.FindMethod(name, "method"); m != nil {
				return runtime.NewFunction(&runtime.FunctionValue{
					Name:      name,
					Decl:      m.Fn,
					Captured:  owner.Captured,
					Class:     owner,
					BoundThis: obj,
				}), signal{}
			}
		}
		return runtime.Undefined, signal{}
	case runtime.KindArray:
		if i, ok := arrayIndex(name); ok {
			if i < len(obj.Arr.Elems) {
				v := obj.Arr.Elems[i]
				if v == nil {
					v = runtime.Undefined
				}
				return v, signal{}
			}
			return runtime.Undefined, signal{}
		}
		if name == "length" {
			return runtime.NewInt(int64(len(obj.Arr.Elems))), signal{}
		}
		return runtime.Undefined, signal{}
	case runtime.KindString:
		if i, ok := arrayIndex(name); ok {
			rs := []rune(obj.Str)
			if i < len(rs) {
				return runtime.NewString(string(rs[i])), signal{}
			}
			return runtime.Undefined, signal{}
		}
		if name == "length" {
			return runtime.NewInt(int64(len([]rune(obj.Str)))), signal{}
		}
		return runtime.Undefined, signal{}
	case runtime.KindTypedArray:
		if i, ok := arrayIndex(name); ok {
			if i >= obj.TA.Len {
				return runtime.Undefined, signal{}
			}
			v, err := obj.TA.Get(i)
			if err != nil {
				return nil, in.throwErr(err)
			}
			return v, signal{}
		}
		if name == "length" {
			return runtime.NewInt(int64(obj.TA.Len)), signal{}
		}
		return runtime.Undefined, signal{}
	case runtime.KindFunction:
		if cls := obj.Fn.Class; cls != nil {
			if m, owner := cls.FindStatic(name); m != nil {
				return runtime.NewFunction(&runtime.FunctionValue{
					Name:      name,
					Decl:      m.Fn,
					Captured:  owner.Captured,
					Class:     owner,
					BoundThis: obj,
				}), signal{}
			}
		}
		if name == "name" {
			return runtime.NewString(obj.Fn.Name), signal{}
		}
		return runtime.Undefined, signal{}
	default:
		return runtime.Undefined, signal{}
	}
}

func (in *Interpreter) setProperty(obj *runtime.Value, key string, val *runtime.Value) signal {
	switch obj.Kind {
	case runtime.KindObject:
		if cls := obj.Obj.Class; cls != nil {
			if m, owner := cls.FindMethod(key, "set"); m != nil {
				_, sig := in.callMethod(m, owner, obj, []*runtime.Value{val})
				return sig
			}
		}
		obj.Obj.Set(key, val)
		return signal{}
	case runtime.KindArray:
		if i, ok := arrayIndex(key); ok {
			for len(obj.Arr.Elems) <= i {
				obj.Arr.Elems = append(obj.Arr.Elems, runtime.Undefined)
			}
			obj.Arr.Elems[i] = val
			return signal{}
		}
		return in.throwf("TypeError: cannot set property %q on an array", key)
	case runtime.KindTypedArray:
		if i, ok := arrayIndex(key); ok {
			if err := obj.TA.Set(i, val); err != nil {
				return in.throwErr(err)
			}
			return signal{}
		}
		return in.throwf("TypeError: cannot set property %q on a typed array", key)
	case runtime.KindUndefined, runtime.KindNull:
		return in.throwf("TypeError: Cannot set properties of %s (setting '%s')", obj.ToString(), key)
	default:
		return in.throwf("TypeError: cannot set property %q on %s", key, obj.TypeOf())
	}
}

// ---------- calls ----------

func (in *Interpreter) evalArgs(args []ast.Expression, env *runtime.Environment) ([]*runtime.Value, signal) {
	var out []*runtime.Value
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			src, sig := in.evalExpr(sp.Argument, env)
			if sig.typ != sigNone {
				return nil, sig
			}
			items, err := in.iterate(src)
			if err != nil {
				return nil, in.throwErr(err)
			}
			out = append(out, items...)
			continue
		}
		v, sig := in.evalExpr(a, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		out = append(out, v)
	}
	return out, signal{}
}

func (in *Interpreter) evalCall(e *ast.CallExpression, env *runtime.Environment) (*runtime.Value, signal) {
	var fn, this *runtime.Value
	calleeName := "expression"
	switch callee := e.Callee.(type) {
	case *ast.MemberExpression:
		obj, sig := in.evalExpr(callee.Object, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if obj.Kind == runtime.KindUndefined || obj.Kind == runtime.KindNull {
			if callee.Optional || e.Optional {
				return runtime.Undefined, signal{}
			}
			return nil, in.throwf("TypeError: Cannot read properties of %s (reading '%s')", obj.ToString(), callee.Property)
		}
		var kv *runtime.Value
		if callee.Computed {
			iv, ksig := in.evalExpr(callee.Index, env)
			if ksig.typ != sigNone {
				return nil, ksig
			}
			kv = iv
		} else {
			kv = runtime.NewString(callee.Property)
		}
		calleeName = kv.ToString()
		v, sig := in.getProperty(obj, kv)
		if sig.typ != sigNone {
			return nil, sig
		}
		fn, this = v, obj
	default:
		v, sig := in.evalExpr(e.Callee, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if id, ok := e.Callee.(*ast.Identifier); ok {
			calleeName = id.Name
		}
		fn = v
	}
	if fn.Kind == runtime.KindUndefined || fn.Kind == runtime.KindNull {
		if e.Optional {
			return runtime.Undefined, signal{}
		}
	}
	if fn.Kind != runtime.KindFunction {
		return nil, in.throwf("TypeError: %s is not a function", calleeName)
	}
	args, sig := in.evalArgs(e.Arguments, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	v, err := in.callFunction(fn, args, this)
	if err != nil {
		return nil, in.throwErr(err)
	}
	return v, signal{}
}

func (in *Interpreter) evalNew(e *ast.NewExpression, env *runtime.Environment) (*runtime.Value, signal) {
	callee, sig := in.evalExpr(e.Callee, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	args, sig := in.evalArgs(e.Arguments, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	if callee.Kind != runtime.KindFunction {
		return nil, in.throwf("TypeError: %s is not a constructor", callee.ToString())
	}
	if callee.Fn.Class != nil {
		v, err := in.instantiate(callee.Fn.Class, args)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	}
	if callee.Fn.Native != nil {
		v, err := callee.Fn.Native(args)
		if err != nil {
			return nil, in.throwErr(err)
		}
		return v, signal{}
	}
	return nil, in.throwf("TypeError: %s is not a constructor", callee.Fn.Name)
}

func (in *Interpreter) evalSuperCall(e *ast.SuperCallExpression, env *runtime.Environment) (*runtime.Value, signal) {
	fr := in.currentFrame()
	if fr == nil || fr.class == nil || fr.class.Super == nil {
		return nil, in.throwf("SyntaxError: 'super' keyword unexpected here")
	}
	args, sig := in.evalArgs(e.Arguments, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	if err := in.runConstructor(fr.class.Super, fr.this, args); err != nil {
		return nil, in.throwErr(err)
	}
	return runtime.Undefined, signal{}
}

func (in *Interpreter) evalSuperMethod(e *ast.SuperMethodExpression, env *runtime.Environment) (*runtime.Value, signal) {
	fr := in.currentFrame()
	if fr == nil || fr.class == nil || fr.class.Super == nil {
		return nil, in.throwf("SyntaxError: 'super' keyword unexpected here")
	}
	m, owner := fr.class.Super.FindMethod(e.Method, "method")
	if m == nil {
		return nil, in.throwf("TypeError: (intermediate value).%s is not a function", e.Method)
	}
	args, sig := in.evalArgs(e.Arguments, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	return in.callMethod(m, owner, fr.this, args)
}

func (in *Interpreter) currentFrame() *frame {
	if len(in.frames) == 0 {
		return nil
	}
	return &in.frames[len(in.frames)-1]
}

// ---------- operators ----------

func toInt32(v *runtime.Value) int32 {
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toUint32(v *runtime.Value) uint32 {
	return uint32(toInt32(v))
}

// toPrim reduces a composite value to a primitive, consulting user-defined
// valueOf/toString before the built-in fallback.
func (in *Interpreter) toPrim(v *runtime.Value) *runtime.Value {
	if v.Kind != runtime.KindObject {
		return runtime.ToPrimitive(v)
	}
	for _, name := range []string{"valueOf", "toString"} {
		fn, ok := v.Obj.Get(name)
		if !ok && v.Obj.Class != nil {
			if m, owner := v.Obj.Class.FindMethod(name, "method"); m != nil {
				fn = runtime.NewFunction(&runtime.FunctionValue{
					Name: name, Decl: m.Fn, Captured: owner.Captured, Class: owner, BoundThis: v,
				})
				ok = true
			}
		}
		if ok && fn.Kind == runtime.KindFunction {
			if out, err := in.callFunction(fn, nil, v); err == nil && !out.Kind.IsComposite() {
				return out
			}
		}
	}
	return runtime.ToPrimitive(v)
}

// displayString renders v for templates and console output, honoring user
// toString on plain objects without a custom one falling back to Inspect-free
// ToString semantics.
func (in *Interpreter) displayString(v *runtime.Value) string {
	if v.Kind == runtime.KindObject {
		p := in.toPrim(v)
		if p.Kind == runtime.KindString {
			return p.Str
		}
		return p.ToString()
	}
	return v.ToString()
}

func (in *Interpreter) binaryOp(op string, l, r *runtime.Value) (*runtime.Value, error) {
	switch op {
	case "+":
		return in.addOp(l, r)
	case "-", "*", "/", "%", "**":
		return in.arithOp(op, l, r)
	case "&", "|", "^", "<<", ">>", ">>>":
		return in.bitOp(op, l, r)
	case "<", "<=", ">", ">=":
		return in.compareOp(op, l, r)
	case "==":
		return runtime.NewBool(runtime.LooseEquals(l, r, in.toPrim)), nil
	case "!=":
		return runtime.NewBool(!runtime.LooseEquals(l, r, in.toPrim)), nil
	case "===":
		return runtime.NewBool(runtime.StrictEquals(l, r)), nil
	case "!==":
		return runtime.NewBool(!runtime.StrictEquals(l, r)), nil
	case "instanceof":
		return in.instanceOfOp(l, r)
	case "in":
		return in.inOp(l, r)
	default:
		return nil, typeErrorf("unsupported operator %s", op)
	}
}

func (in *Interpreter) addOp(l, r *runtime.Value) (*runtime.Value, error) {
	lp, rp := in.toPrim(l), in.toPrim(r)
	if lp.Kind == runtime.KindString || rp.Kind == runtime.KindString {
		return runtime.NewString(lp.ToString() + rp.ToString()), nil
	}
	if lp.Kind == runtime.KindBigInt || rp.Kind == runtime.KindBigInt {
		if lp.Kind != rp.Kind {
			return nil, typeErrorf("Cannot mix BigInt and other types, use explicit conversions")
		}
		return runtime.NewBigInt(new(big.Int).Add(lp.Big, rp.Big)), nil
	}
	if lp.Kind == runtime.KindNumber && rp.Kind == runtime.KindNumber {
		s := lp.Int + rp.Int
		if (rp.Int > 0 && s < lp.Int) || (rp.Int < 0 && s > lp.Int) {
			return runtime.NewFloat(float64(lp.Int) + float64(rp.Int)), nil
		}
		return runtime.NewInt(s), nil
	}
	return runtime.NewFloatOrInt(lp.ToFloat() + rp.ToFloat()), nil
}

func (in *Interpreter) arithOp(op string, l, r *runtime.Value) (*runtime.Value, error) {
	lp, rp := in.toPrim(l), in.toPrim(r)
	lb, rb := lp.Kind == runtime.KindBigInt, rp.Kind == runtime.KindBigInt
	if lb != rb {
		return nil, typeErrorf("Cannot mix BigInt and other types, use explicit conversions")
	}
	if lb {
		switch op {
		case "-":
			return runtime.NewBigInt(new(big.Int).Sub(lp.Big, rp.Big)), nil
		case "*":
			return runtime.NewBigInt(new(big.Int).Mul(lp.Big, rp.Big)), nil
		case "/":
			if rp.Big.Sign() == 0 {
				return nil, rangeErrorf("division by zero")
			}
			return runtime.NewBigInt(new(big.Int).Quo(lp.Big, rp.Big)), nil
		case "%":
			if rp.Big.Sign() == 0 {
				return nil, rangeErrorf("division by zero")
			}
			return runtime.NewBigInt(new(big.Int).Rem(lp.Big, rp.Big)), nil
		case "**":
			if rp.Big.Sign() < 0 {
				return nil, rangeErrorf("Exponent must be non-negative")
			}
			return runtime.NewBigInt(new(big.Int).Exp(lp.Big, rp.Big, nil)), nil
		}
	}
	bothInt := lp.Kind == runtime.KindNumber && rp.Kind == runtime.KindNumber
	lf, rf := lp.ToFloat(), rp.ToFloat()
	switch op {
	case "-":
		if bothInt {
			d := lp.Int - rp.Int
			if (rp.Int < 0 && d < lp.Int) || (rp.Int > 0 && d > lp.Int) {
				return runtime.NewFloat(lf - rf), nil
			}
			return runtime.NewInt(d), nil
		}
		return runtime.NewFloatOrInt(lf - rf), nil
	case "*":
		if bothInt {
			if lp.Int != 0 && rp.Int != 0 {
				p := lp.Int * rp.Int
				if p/rp.Int != lp.Int {
					return runtime.NewFloat(lf * rf), nil
				}
				return runtime.NewInt(p), nil
			}
			return runtime.NewInt(0), nil
		}
		return runtime.NewFloatOrInt(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, rangeErrorf("division by zero")
		}
		return runtime.NewFloatOrInt(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, rangeErrorf("division by zero")
		}
		if bothInt {
			return runtime.NewInt(lp.Int % rp.Int), nil
		}
		return runtime.NewFloatOrInt(math.Mod(lf, rf)), nil
	case "**":
		return runtime.NewFloatOrInt(math.Pow(lf, rf)), nil
	}
	return nil, typeErrorf("unsupported operator %s", op)
}

func (in *Interpreter) bitOp(op string, l, r *runtime.Value) (*runtime.Value, error) {
	lp, rp := in.toPrim(l), in.toPrim(r)
	lb, rb := lp.Kind == runtime.KindBigInt, rp.Kind == runtime.KindBigInt
	if lb != rb {
		return nil, typeErrorf("Cannot mix BigInt and other types, use explicit conversions")
	}
	if lb {
		switch op {
		case "&":
			return runtime.NewBigInt(new(big.Int).And(lp.Big, rp.Big)), nil
		case "|":
			return runtime.NewBigInt(new(big.Int).Or(lp.Big, rp.Big)), nil
		case "^":
			return runtime.NewBigInt(new(big.Int).Xor(lp.Big, rp.Big)), nil
		case "<<", ">>":
			if rp.Big.Sign() < 0 || !rp.Big.IsUint64() {
				return nil, rangeErrorf("Invalid BigInt shift amount")
			}
			n := uint(rp.Big.Uint64())
			if op == "<<" {
				return runtime.NewBigInt(new(big.Int).Lsh(lp.Big, n)), nil
			}
			return runtime.NewBigInt(new(big.Int).Rsh(lp.Big, n)), nil
		case ">>>":
			return nil, typeErrorf("BigInts have no unsigned right shift")
		}
	}
	li, ri := toInt32(lp), toInt32(rp)
	switch op {
	case "&":
		return runtime.NewInt(int64(li & ri)), nil
	case "|":
		return runtime.NewInt(int64(li | ri)), nil
	case "^":
		return runtime.NewInt(int64(li ^ ri)), nil
	case "<<":
		return runtime.NewInt(int64(li << (uint32(ri) & 31))), nil
	case ">>":
		return runtime.NewInt(int64(li >> (uint32(ri) & 31))), nil
	case ">>>":
		return runtime.NewInt(int64(uint32(li) >> (uint32(ri) & 31))), nil
	}
	return nil, typeErrorf("unsupported operator %s", op)
}

func (in *Interpreter) compareOp(op string, l, r *runtime.Value) (*runtime.Value, error) {
	lp, rp := in.toPrim(l), in.toPrim(r)
	if lp.Kind == runtime.KindString && rp.Kind == runtime.KindString {
		c := strings.Compare(lp.Str, rp.Str)
		return compareResult(op, float64(c), 0), nil
	}
	if lp.Kind == runtime.KindBigInt && rp.Kind == runtime.KindBigInt {
		return compareResult(op, float64(lp.Big.Cmp(rp.Big)), 0), nil
	}
	if lp.Kind == runtime.KindBigInt || rp.Kind == runtime.KindBigInt {
		// mixed BigInt/Number comparison is exact enough through big.Float
		return compareResult(op, float64(bigOrFloat(lp).Cmp(bigOrFloat(rp))), 0), nil
	}
	lf, rf := lp.ToFloat(), rp.ToFloat()
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return runtime.False, nil
	}
	return compareResult(op, lf, rf), nil
}

func bigOrFloat(v *runtime.Value) *big.Float {
	if v.Kind == runtime.KindBigInt {
		return new(big.Float).SetInt(v.Big)
	}
	return big.NewFloat(v.ToFloat())
}

func compareResult(op string, lf, rf float64) *runtime.Value {
	switch op {
	case "<":
		return runtime.NewBool(lf < rf)
	case "<=":
		return runtime.NewBool(lf <= rf)
	case ">":
		return runtime.NewBool(lf > rf)
	default:
		return runtime.NewBool(lf >= rf)
	}
}

var errorCtorNames = map[string]bool{
	"Error": true, "TypeError": true, "RangeError": true, "SyntaxError": true, "ReferenceError": true,
}

func (in *Interpreter) instanceOfOp(l, r *runtime.Value) (*runtime.Value, error) {
	if r.Kind != runtime.KindFunction {
		return nil, typeErrorf("Right-hand side of 'instanceof' is not callable")
	}
	if r.Fn.Class != nil {
		if l.Kind != runtime.KindObject || l.Obj.Class == nil {
			return runtime.False, nil
		}
		for c := l.Obj.Class; c != nil; c = c.Super {
			if c == r.Fn.Class {
				return runtime.True, nil
			}
		}
		return runtime.False, nil
	}
	if errorCtorNames[r.Fn.Name] {
		if l.Kind != runtime.KindObject {
			return runtime.False, nil
		}
		name, ok := l.Obj.Get("name")
		if !ok || !l.Obj.Has("message") {
			return runtime.False, nil
		}
		if r.Fn.Name == "Error" {
			return runtime.NewBool(errorCtorNames[name.ToString()] || name.ToString() == "AggregateError"), nil
		}
		return runtime.NewBool(name.ToString() == r.Fn.Name), nil
	}
	return runtime.False, nil
}

func (in *Interpreter) inOp(l, r *runtime.Value) (*runtime.Value, error) {
	switch r.Kind {
	case runtime.KindObject:
		return runtime.NewBool(r.Obj.Has(l.ToString())), nil
	case runtime.KindArray:
		if i, ok := arrayIndex(l.ToString()); ok {
			return runtime.NewBool(i < len(r.Arr.Elems)), nil
		}
		return runtime.NewBool(l.ToString() == "length"), nil
	case runtime.KindMap, runtime.KindSet:
		return runtime.False, nil
	default:
		return nil, typeErrorf("Cannot use 'in' operator to search for '%s' in %s", l.ToString(), r.ToString())
	}
}
