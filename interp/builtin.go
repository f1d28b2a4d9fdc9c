package interp

import (
	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/dom"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) evalBuiltinCall(e *ast.BuiltinCall, env *runtime.Environment) (*runtime.Value, signal) {
	var recv *runtime.Value
	if e.Recv != nil {
		v, sig := in.evalExpr(e.Recv, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		recv = v
	}
	args, sig := in.evalArgs(e.Args, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	v, err := in.callBuiltin(e.Op, recv, args)
	if err != nil {
		return nil, in.throwErr(err)
	}
	if v == nil {
		v = runtime.Undefined
	}
	return v, signal{}
}

// remapForReceiver redirects shared method names to the operation family of
// the actual receiver. The parser assigns each name one default family; only
// the runtime kind can finish the dispatch.
func remapForReceiver(op ast.BuiltinOp, recv *runtime.Value) ast.BuiltinOp {
	if recv == nil {
		return op
	}
	switch op {
	case ast.ArraySlice:
		switch recv.Kind {
		case runtime.KindString:
			return ast.StringSlice
		case runtime.KindTypedArray:
			return ast.TypedArraySlice
		case runtime.KindArrayBuffer:
			return ast.BufferSlice
		}
	case ast.ArrayConcat:
		if recv.Kind == runtime.KindString {
			return ast.StringConcat
		}
	case ast.ArrayIncludes:
		if recv.Kind == runtime.KindString {
			return ast.StringIncludes
		}
	case ast.ArrayIndexOf:
		if recv.Kind == runtime.KindString {
			return ast.StringIndexOf
		}
	case ast.ArrayLastIndexOf:
		if recv.Kind == runtime.KindString {
			return ast.StringLastIndexOf
		}
	case ast.ArrayAt:
		if recv.Kind == runtime.KindString {
			return ast.StringAt
		}
	case ast.ArrayFill:
		if recv.Kind == runtime.KindTypedArray {
			return ast.TypedArrayFill
		}
	case ast.ArrayForEach:
		switch recv.Kind {
		case runtime.KindMap:
			return ast.MapForEach
		case runtime.KindSet:
			return ast.SetForEach
		}
	case ast.ArrayKeys:
		if recv.Kind == runtime.KindMap {
			return ast.MapKeys
		}
	case ast.ArrayValues:
		switch recv.Kind {
		case runtime.KindMap:
			return ast.MapValues
		case runtime.KindSet:
			return ast.SetValues
		}
	case ast.ArrayEntries:
		if recv.Kind == runtime.KindMap {
			return ast.MapEntries
		}
	case ast.MapSet:
		if recv.Kind == runtime.KindTypedArray {
			return ast.TypedArraySet
		}
	case ast.MapHas:
		if recv.Kind == runtime.KindSet {
			return ast.SetHas
		}
	case ast.MapDelete:
		if recv.Kind == runtime.KindSet {
			return ast.SetDelete
		}
	case ast.MapClear:
		if recv.Kind == runtime.KindSet {
			return ast.SetClear
		}
	case ast.NumberToStringRadix:
		if recv.Kind == runtime.KindBigInt {
			return ast.BigIntToString
		}
	case ast.IntlNumberFormatFormat:
		if recv.Kind == runtime.KindIntl && recv.Intl.What == "DateTimeFormat" {
			return ast.IntlDateTimeFormatFormat
		}
	}
	return op
}

func (in *Interpreter) callBuiltin(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	op = remapForReceiver(op, recv)
	switch {
	case op >= ast.ArrayIsArray && op <= ast.ArrayAt:
		return in.arrayOp(op, recv, args)
	case op >= ast.StringPadStart && op <= ast.StringFromCharCode:
		return in.stringOp(op, recv, args)
	case op >= ast.ObjectKeys && op <= ast.ObjectHasOwnProperty:
		return in.objectOp(op, recv, args)
	case op >= ast.MathAbs && op <= ast.MathAtan2:
		return in.mathOp(op, args)
	case op >= ast.NumberIsInteger && op <= ast.GlobalIsFinite:
		return in.numberOp(op, recv, args)
	case op == ast.JSONParse || op == ast.JSONStringify:
		return in.jsonOp(op, args)
	case op >= ast.MapGet && op <= ast.SetValues:
		return in.collectionOp(op, recv, args)
	case op >= ast.PromiseResolve && op <= ast.PromiseFinally:
		return in.promiseOp(op, recv, args)
	case op >= ast.TimerSetTimeout && op <= ast.QueueMicrotask:
		return in.timerOp(op, args)
	case op >= ast.BigIntCall && op <= ast.BigIntToString:
		return in.bigintOp(op, recv, args)
	case op >= ast.TypedArraySet && op <= ast.BufferSlice:
		return in.typedOp(op, recv, args)
	case op == ast.RegExpTest || op == ast.RegExpExec:
		return in.regexpOp(op, recv, args)
	case op >= ast.DateNow && op <= ast.DateGetTimezoneOffset:
		return in.dateOp(op, recv)
	case op >= ast.IntlCollatorCompare && op <= ast.IntlDateTimeFormatFormat:
		return in.intlMethodOp(op, recv, args)
	case op >= ast.NewDate && op <= ast.NewError:
		return in.constructorOp(op, args)
	case op >= ast.ConsoleLog && op <= ast.ConsoleError:
		return in.consoleOp(op, args)
	case op >= ast.DocQuerySelector && op <= ast.EventPreventDefault:
		return in.domOp(op, recv, args)
	default:
		return nil, typeErrorf("unsupported built-in operation %s", op)
	}
}

// builtinMemberGet reads a recognized built-in property. Plain objects fall
// back to their own key of the same name, so event-shaped objects keep
// working through the recognized path.
func (in *Interpreter) builtinMemberGet(op ast.BuiltinOp, recv *runtime.Value) (*runtime.Value, error) {
	if recv.Kind == runtime.KindObject {
		v, _ := recv.Obj.Get(op.String())
		return v, nil
	}
	switch op {
	case ast.MemberLength:
		switch recv.Kind {
		case runtime.KindArray:
			return runtime.NewInt(int64(len(recv.Arr.Elems))), nil
		case runtime.KindString:
			return runtime.NewInt(int64(len([]rune(recv.Str)))), nil
		case runtime.KindTypedArray:
			return runtime.NewInt(int64(recv.TA.Len)), nil
		case runtime.KindFunction:
			if recv.Fn.Decl != nil {
				return runtime.NewInt(int64(len(recv.Fn.Decl.Params))), nil
			}
			return runtime.NewInt(0), nil
		}
	case ast.MemberSize:
		switch recv.Kind {
		case runtime.KindMap:
			return runtime.NewInt(int64(recv.Map.Len())), nil
		case runtime.KindSet:
			return runtime.NewInt(int64(recv.Set.Len())), nil
		}
	case ast.MemberByteLength:
		switch recv.Kind {
		case runtime.KindArrayBuffer:
			if recv.Buf.Detached {
				return runtime.NewInt(0), nil
			}
			return runtime.NewInt(int64(len(recv.Buf.Data))), nil
		case runtime.KindTypedArray:
			return runtime.NewInt(int64(recv.TA.Len * recv.TA.Elem.Size())), nil
		}
	case ast.MemberBuffer:
		if recv.Kind == runtime.KindTypedArray {
			return &runtime.Value{Kind: runtime.KindArrayBuffer, Buf: recv.TA.Buf}, nil
		}
	case ast.MemberSource:
		if recv.Kind == runtime.KindRegExp {
			return runtime.NewString(recv.Re.Source), nil
		}
	case ast.MemberFlags:
		if recv.Kind == runtime.KindRegExp {
			return runtime.NewString(recv.Re.Flags), nil
		}
	case ast.MemberLastIndex:
		if recv.Kind == runtime.KindRegExp {
			return runtime.NewInt(int64(recv.Re.LastIndex)), nil
		}
	case ast.MemberTextContent:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		s, err := in.Doc.TextContent(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case ast.MemberValue:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		s, err := in.Doc.Value(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case ast.MemberChecked:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		b, err := in.Doc.Checked(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(b), nil
	case ast.MemberID:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		s, err := in.Doc.ElementID(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case ast.MemberClassName:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		s, err := in.Doc.ClassName(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case ast.MemberTagName:
		id, err := in.nodeID(recv)
		if err != nil {
			return nil, err
		}
		s, err := in.Doc.TagName(id)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case ast.MemberType:
		if recv.Kind == runtime.KindNode {
			id, err := in.nodeID(recv)
			if err != nil {
				return nil, err
			}
			s, err := in.Doc.InputType(id)
			if err != nil {
				return nil, err
			}
			return runtime.NewString(s), nil
		}
	case ast.MemberTarget:
		// only event-shaped objects carry a target; handled above
	}
	return nil, typeErrorf("cannot read property '%s' of %s", op, recv.TypeOf())
}

func (in *Interpreter) builtinMemberSet(op ast.BuiltinOp, recv, val *runtime.Value) error {
	if recv.Kind == runtime.KindObject {
		recv.Obj.Set(op.String(), val)
		return nil
	}
	switch op {
	case ast.MemberValue:
		id, err := in.nodeID(recv)
		if err != nil {
			return err
		}
		return in.Doc.SetValue(id, in.displayString(val))
	case ast.MemberChecked:
		id, err := in.nodeID(recv)
		if err != nil {
			return err
		}
		return in.Doc.SetChecked(id, val.ToBoolean())
	case ast.MemberTextContent:
		id, err := in.nodeID(recv)
		if err != nil {
			return err
		}
		return in.Doc.SetTextContent(id, in.displayString(val))
	case ast.MemberID:
		id, err := in.nodeID(recv)
		if err != nil {
			return err
		}
		return in.Doc.SetAttribute(id, "id", val.ToString())
	case ast.MemberClassName:
		id, err := in.nodeID(recv)
		if err != nil {
			return err
		}
		return in.Doc.SetClassName(id, val.ToString())
	case ast.MemberLastIndex:
		if recv.Kind == runtime.KindRegExp {
			recv.Re.LastIndex = int(val.ToFloat())
			return nil
		}
	case ast.MemberLength:
		if recv.Kind == runtime.KindArray {
			n := int(val.ToFloat())
			if n < 0 {
				return rangeErrorf("Invalid array length")
			}
			for len(recv.Arr.Elems) < n {
				recv.Arr.Elems = append(recv.Arr.Elems, runtime.Undefined)
			}
			recv.Arr.Elems = recv.Arr.Elems[:n]
			return nil
		}
	}
	return typeErrorf("Cannot assign to read-only property '%s' of %s", op, recv.TypeOf())
}

// kindOf names a possibly-missing value's type for error messages.
func kindOf(v *runtime.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.TypeOf()
}

// nodeID checks that v is an element handle and that a document is loaded.
func (in *Interpreter) nodeID(v *runtime.Value) (dom.NodeID, error) {
	if v == nil || v.Kind != runtime.KindNode {
		return 0, typeErrorf("%s is not an element", kindOf(v))
	}
	if in.Doc == nil {
		return 0, typeErrorf("no document is loaded")
	}
	return dom.NodeID(v.Node), nil
}
