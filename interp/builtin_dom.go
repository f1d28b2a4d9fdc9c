package interp

import (
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/dom"
	"github.com/example/pagejs/runtime"
)

func (in *Interpreter) domOp(op ast.BuiltinOp, recv *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	switch op {
	case ast.DocQuerySelector:
		if in.Doc == nil {
			return nil, typeErrorf("no document is loaded")
		}
		id, ok, err := in.Doc.QuerySelector(argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Null, nil
		}
		return runtime.NewNode(int(id)), nil
	case ast.DocQuerySelectorAll:
		if in.Doc == nil {
			return nil, typeErrorf("no document is loaded")
		}
		ids, err := in.Doc.QuerySelectorAll(argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		return nodeList(ids), nil
	case ast.DocGetElementByID:
		if in.Doc == nil {
			return nil, typeErrorf("no document is loaded")
		}
		id, ok := in.Doc.GetElementByID(argAt(args, 0).ToString())
		if !ok {
			return runtime.Null, nil
		}
		return runtime.NewNode(int(id)), nil
	case ast.DocCreateElement:
		if in.Doc == nil {
			return nil, typeErrorf("no document is loaded")
		}
		return runtime.NewNode(int(in.Doc.CreateElement(argAt(args, 0).ToString()))), nil
	case ast.EventPreventDefault:
		if recv != nil && recv.Kind == runtime.KindObject {
			recv.Obj.Set("defaultPrevented", runtime.True)
		}
		return runtime.Undefined, nil
	}

	id, err := in.nodeID(recv)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.ElemQuerySelector:
		sub, ok, err := in.Doc.QuerySelectorFrom(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Null, nil
		}
		return runtime.NewNode(int(sub)), nil
	case ast.ElemQuerySelectorAll:
		ids, err := in.Doc.QuerySelectorAllFrom(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		return nodeList(ids), nil
	case ast.ElemGetAttribute:
		v, ok, err := in.Doc.GetAttribute(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Null, nil
		}
		return runtime.NewString(v), nil
	case ast.ElemSetAttribute:
		return runtime.Undefined, in.Doc.SetAttribute(id, argAt(args, 0).ToString(), argAt(args, 1).ToString())
	case ast.ElemRemoveAttribute:
		return runtime.Undefined, in.Doc.RemoveAttribute(id, argAt(args, 0).ToString())
	case ast.ElemAddEventListener:
		typ := argAt(args, 0).ToString()
		fn := argAt(args, 1)
		if fn.Kind != runtime.KindFunction {
			return nil, typeErrorf("addEventListener handler is not a function")
		}
		in.Listen(id, typ, fn)
		return runtime.Undefined, nil
	case ast.ElemRemoveEventListener:
		typ := argAt(args, 0).ToString()
		fn := argAt(args, 1)
		if byType := in.listeners[id]; byType != nil && fn.Kind == runtime.KindFunction {
			kept := byType[typ][:0]
			for _, l := range byType[typ] {
				if l.Fn != fn.Fn {
					kept = append(kept, l)
				}
			}
			byType[typ] = kept
		}
		return runtime.Undefined, nil
	case ast.ElemDispatchEvent:
		event := argAt(args, 0)
		if event.Kind != runtime.KindObject {
			return nil, typeErrorf("dispatchEvent argument is not an Event")
		}
		typ := "Event"
		if t, ok := event.Obj.Get("type"); ok {
			typ = t.ToString()
		}
		event.Obj.Set("target", recv)
		prevented, err := in.dispatch(id, typ, event, true)
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(!prevented), nil
	case ast.ElemAppendChild:
		child, err := in.nodeID(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		if err := in.Doc.AppendChild(id, child); err != nil {
			return nil, err
		}
		return argAt(args, 0), nil
	case ast.ElemRemoveChild:
		child, err := in.nodeID(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		if err := in.Doc.RemoveChild(id, child); err != nil {
			return nil, err
		}
		return argAt(args, 0), nil
	case ast.ElemFocus:
		return runtime.Undefined, in.Focus(id)
	case ast.ElemBlur:
		return runtime.Undefined, in.Blur(id)
	case ast.ElemClick:
		return runtime.Undefined, in.Click(id)
	case ast.ClassListAdd:
		return runtime.Undefined, in.Doc.ClassListAdd(id, argAt(args, 0).ToString())
	case ast.ClassListRemove:
		return runtime.Undefined, in.Doc.ClassListRemove(id, argAt(args, 0).ToString())
	case ast.ClassListContains:
		ok, err := in.Doc.ClassListContains(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(ok), nil
	case ast.StyleSetProperty:
		return runtime.Undefined, in.setStyleProperty(id, argAt(args, 0).ToString(), argAt(args, 1).ToString())
	case ast.StyleGetPropertyValue:
		v, err := in.styleProperty(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, err
		}
		return runtime.NewString(v), nil
	case ast.ClassListToggle:
		var force *bool
		if argAt(args, 1).Kind != runtime.KindUndefined {
			b := args[1].ToBoolean()
			force = &b
		}
		on, err := in.Doc.ClassListToggle(id, argAt(args, 0).ToString(), force)
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(on), nil
	}
	return nil, typeErrorf("unsupported element operation %s", op)
}

// styleDecls splits a style attribute into ordered name/value pairs.
func styleDecls(attr string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(attr, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, [2]string{name, strings.TrimSpace(value)})
	}
	return out
}

func (in *Interpreter) setStyleProperty(id dom.NodeID, name, value string) error {
	attr, _, err := in.Doc.GetAttribute(id, "style")
	if err != nil {
		return err
	}
	decls := styleDecls(attr)
	replaced := false
	for i, d := range decls {
		if d[0] == name {
			decls[i][1] = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, [2]string{name, value})
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d[0] + ": " + d[1]
	}
	return in.Doc.SetAttribute(id, "style", strings.Join(parts, "; "))
}

func (in *Interpreter) styleProperty(id dom.NodeID, name string) (string, error) {
	attr, _, err := in.Doc.GetAttribute(id, "style")
	if err != nil {
		return "", err
	}
	for _, d := range styleDecls(attr) {
		if d[0] == name {
			return d[1], nil
		}
	}
	return "", nil
}

// Listen registers fn as a listener for typ events on id.
func (in *Interpreter) Listen(id dom.NodeID, typ string, fn *runtime.Value) {
	byType := in.listeners[id]
	if byType == nil {
		byType = make(map[string][]*runtime.Value)
		in.listeners[id] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

func nodeList(ids []dom.NodeID) *runtime.Value {
	out := make([]*runtime.Value, len(ids))
	for i, id := range ids {
		out[i] = runtime.NewNode(int(id))
	}
	return runtime.NewArray(out)
}

// dispatch runs the listeners for typ on id and, when bubbles is set, on
// each ancestor in turn. Listeners registered mid-dispatch on a not yet
// visited ancestor do fire; the per-element list is snapshotted before
// invocation. Microtasks drain before control returns.
func (in *Interpreter) dispatch(id dom.NodeID, typ string, event *runtime.Value, bubbles bool) (bool, error) {
	if in.Doc == nil {
		return false, typeErrorf("no document is loaded")
	}
	in.Loop.Trace().Addf("event %s dispatched node=%d", typ, id)
	cur := id
	for {
		if byType := in.listeners[cur]; byType != nil {
			event.Obj.Set("currentTarget", runtime.NewNode(int(cur)))
			for _, fn := range append([]*runtime.Value(nil), byType[typ]...) {
				if _, err := in.callFunction(fn, []*runtime.Value{event}, nil); err != nil {
					return false, err
				}
			}
		}
		if !bubbles {
			break
		}
		parent, ok, err := in.Doc.Parent(cur)
		if err != nil || !ok {
			break
		}
		cur = parent
	}
	if err := in.Loop.DrainMicrotasks(); err != nil {
		return false, err
	}
	prevented := false
	if p, ok := event.Obj.Get("defaultPrevented"); ok {
		prevented = p.ToBoolean()
	}
	return prevented, nil
}

// Dispatch fires a fresh event of the given type on id, bubbling upward.
func (in *Interpreter) Dispatch(id dom.NodeID, typ string) (bool, error) {
	target := runtime.NewNode(int(id))
	return in.dispatch(id, typ, in.newEventObject(typ, target), true)
}

// Click dispatches a click on id and performs the element's default
// activation unless a listener prevented it: checkboxes and radios
// toggle and fire change, submit buttons fire submit on their form.
func (in *Interpreter) Click(id dom.NodeID) error {
	prevented, err := in.Dispatch(id, "click")
	if err != nil {
		return err
	}
	if prevented {
		return nil
	}
	checkable, err := in.Doc.IsCheckable(id)
	if err != nil {
		return err
	}
	if checkable {
		on, err := in.Doc.Checked(id)
		if err != nil {
			return err
		}
		if err := in.Doc.SetChecked(id, !on); err != nil {
			return err
		}
		_, err = in.Dispatch(id, "change")
		return err
	}
	if submitter, err := in.isSubmitter(id); err != nil {
		return err
	} else if submitter {
		form, ok, err := in.Doc.ClosestForm(id)
		if err != nil {
			return err
		}
		if ok {
			_, err = in.Dispatch(form, "submit")
			return err
		}
	}
	return nil
}

func (in *Interpreter) isSubmitter(id dom.NodeID) (bool, error) {
	tag, err := in.Doc.TagName(id)
	if err != nil {
		return false, err
	}
	typ, has, err := in.Doc.GetAttribute(id, "type")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(tag) {
	case "button":
		return !has || strings.EqualFold(typ, "submit"), nil
	case "input":
		return has && strings.EqualFold(typ, "submit"), nil
	}
	return false, nil
}

// Focus moves focus to id, firing blur on the previous holder and focus
// on the new one. Neither event bubbles.
func (in *Interpreter) Focus(id dom.NodeID) error {
	if prev, ok := in.Doc.Focused(); ok {
		if prev == id {
			return nil
		}
		in.Doc.SetFocused(0)
		target := runtime.NewNode(int(prev))
		if _, err := in.dispatch(prev, "blur", in.newEventObject("blur", target), false); err != nil {
			return err
		}
	}
	in.Doc.SetFocused(id)
	target := runtime.NewNode(int(id))
	_, err := in.dispatch(id, "focus", in.newEventObject("focus", target), false)
	return err
}

// Blur removes focus from id if it holds it.
func (in *Interpreter) Blur(id dom.NodeID) error {
	if cur, ok := in.Doc.Focused(); !ok || cur != id {
		return nil
	}
	in.Doc.SetFocused(0)
	target := runtime.NewNode(int(id))
	_, err := in.dispatch(id, "blur", in.newEventObject("blur", target), false)
	return err
}
