// Package interp is the tree-walking evaluator. Statements produce control
// flow signals; expressions produce values. All built-in calls arrive as
// closed BuiltinCall nodes resolved by the parser, so evaluation dispatches
// on an op code, never on a method name.
package interp

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/dom"
	"github.com/example/pagejs/parser"
	"github.com/example/pagejs/runtime"
	"github.com/example/pagejs/sched"
)

type signalType int

const (
	sigNone signalType = iota
	sigReturn
	sigBreak
	sigContinue
	sigThrow
)

type signal struct {
	typ   signalType
	value *runtime.Value
	label string
}

// DefaultYieldCap bounds eager generator materialization.
const DefaultYieldCap = 10000

// frame is one function activation: the receiver and class linkage super
// resolution needs.
type frame struct {
	this  *runtime.Value
	class *runtime.ClassValue
}

// Interpreter owns the global environment, the event loop, the document and
// the listener registry.
type Interpreter struct {
	Global   *runtime.Environment
	Loop     *sched.Loop
	Doc      *dom.Document
	YieldCap int

	// Console collects console output lines in order.
	Console []string

	listeners map[dom.NodeID]map[string][]*runtime.Value
	frames    []frame
	yieldSink [][]*runtime.Value
	rng       *rand.Rand
	asyncErr  error
}

// New builds an interpreter over doc (which may be nil for pure scripts).
func New(doc *dom.Document, loop *sched.Loop) *Interpreter {
	if loop == nil {
		loop = sched.New()
	}
	in := &Interpreter{
		Global:    runtime.NewGlobal(),
		Loop:      loop,
		Doc:       doc,
		YieldCap:  DefaultYieldCap,
		listeners: make(map[dom.NodeID]map[string][]*runtime.Value),
		rng:       rand.New(rand.NewSource(1)),
	}
	in.installGlobals()
	return in
}

// TakeAsyncError returns and clears the first error raised inside a queued
// microtask or timer callback that had no promise to reject.
func (in *Interpreter) TakeAsyncError() error {
	err := in.asyncErr
	in.asyncErr = nil
	return err
}

func (in *Interpreter) noteAsyncError(err error) {
	if in.asyncErr == nil && err != nil {
		in.asyncErr = err
	}
}

// jsError carries a thrown script value across Go error returns.
type jsError struct {
	value *runtime.Value
}

func (e *jsError) Error() string {
	if e.value == nil {
		return "undefined"
	}
	return e.value.ToString()
}

// ThrownValue unwraps the script value behind err, or wraps the Go message
// in an error object.
func (in *Interpreter) ThrownValue(err error) *runtime.Value {
	if je, ok := err.(*jsError); ok {
		return je.value
	}
	return errorValueFromGo(err)
}

func errorValueFromGo(err error) *runtime.Value {
	msg := err.Error()
	name := "Error"
	for _, n := range []string{"TypeError", "ReferenceError", "RangeError", "SyntaxError"} {
		if strings.HasPrefix(msg, n+": ") {
			name = n
			msg = strings.TrimPrefix(msg, n+": ")
			break
		}
	}
	return newErrorValue(name, msg)
}

func newErrorValue(name, message string) *runtime.Value {
	o := runtime.NewObjectValue()
	o.Set("name", runtime.NewString(name))
	o.Set("message", runtime.NewString(message))
	return runtime.NewObject(o)
}

func (in *Interpreter) throwErr(err error) signal {
	if je, ok := err.(*jsError); ok {
		return signal{typ: sigThrow, value: je.value}
	}
	return signal{typ: sigThrow, value: errorValueFromGo(err)}
}

func (in *Interpreter) throwf(format string, args ...interface{}) signal {
	return in.throwErr(fmt.Errorf(format, args...))
}

func signalToError(sig signal) error {
	if sig.typ != sigThrow {
		return nil
	}
	return &jsError{value: sig.value}
}

// Run parses and executes src in the global scope, returning the value of
// the last expression statement.
func (in *Interpreter) Run(src string) (*runtime.Value, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	return in.RunProgram(prog)
}

// RunProgram executes an already-parsed program.
func (in *Interpreter) RunProgram(prog *ast.Program) (*runtime.Value, error) {
	val, sig := in.execStatements(prog.Statements, in.Global)
	switch sig.typ {
	case sigThrow:
		return nil, &jsError{value: sig.value}
	case sigReturn:
		return sig.value, nil
	case sigBreak, sigContinue:
		return nil, fmt.Errorf("SyntaxError: illegal break or continue outside a loop")
	}
	if err := in.Loop.DrainMicrotasks(); err != nil {
		return nil, err
	}
	if val == nil {
		val = runtime.Undefined
	}
	return val, nil
}

// Eval parses and evaluates a single expression against the global scope.
func (in *Interpreter) Eval(src string) (*runtime.Value, error) {
	expr, err := parser.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	v, sig := in.evalExpr(expr, in.Global)
	if sig.typ == sigThrow {
		return nil, &jsError{value: sig.value}
	}
	if err := in.Loop.DrainMicrotasks(); err != nil {
		return nil, err
	}
	return v, nil
}

// execStatements hoists function declarations, then executes statements in
// order until a control signal escapes.
func (in *Interpreter) execStatements(stmts []ast.Statement, env *runtime.Environment) (*runtime.Value, signal) {
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunctionDeclaration); ok {
			fn := in.makeFunction(fd.Fn, env)
			if err := env.Declare(fd.Fn.Name, "function", fn); err != nil {
				return nil, in.throwErr(err)
			}
		}
	}
	var last *runtime.Value
	for _, s := range stmts {
		val, sig := in.execStmt(s, env)
		if sig.typ != sigNone {
			return val, sig
		}
		if val != nil {
			last = val
		}
	}
	return last, signal{}
}

func (in *Interpreter) execStmt(stmt ast.Statement, env *runtime.Environment) (*runtime.Value, signal) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		return nil, in.execVarDecl(s, env)
	case *ast.ExpressionStatement:
		v, sig := in.evalExpr(s.Expression, env)
		return v, sig
	case *ast.BlockStatement:
		return in.execBlock(s, env)
	case *ast.ReturnStatement:
		if s.Value == nil {
			return nil, signal{typ: sigReturn, value: runtime.Undefined}
		}
		v, sig := in.evalExpr(s.Value, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		return nil, signal{typ: sigReturn, value: v}
	case *ast.IfStatement:
		return in.execIf(s, env)
	case *ast.WhileStatement:
		return in.execWhile(s, env, "")
	case *ast.DoWhileStatement:
		return in.execDoWhile(s, env, "")
	case *ast.ForStatement:
		return in.execFor(s, env, "")
	case *ast.ForOfStatement:
		return in.execForOf(s, env, "")
	case *ast.ForInStatement:
		return in.execForIn(s, env, "")
	case *ast.BreakStatement:
		return nil, signal{typ: sigBreak, label: s.Label}
	case *ast.ContinueStatement:
		return nil, signal{typ: sigContinue, label: s.Label}
	case *ast.SwitchStatement:
		return in.execSwitch(s, env)
	case *ast.ThrowStatement:
		v, sig := in.evalExpr(s.Argument, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		return nil, signal{typ: sigThrow, value: v}
	case *ast.TryStatement:
		return in.execTry(s, env)
	case *ast.FunctionDeclaration:
		return nil, signal{} // hoisted
	case *ast.ClassDeclaration:
		cls, sig := in.evalClassLiteral(s.Class, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if err := env.Declare(s.Class.Name, "let", cls); err != nil {
			return nil, in.throwErr(err)
		}
		return nil, signal{}
	case *ast.LabeledStatement:
		return in.execLabeled(s, env)
	case *ast.EmptyStatement:
		return nil, signal{}
	default:
		return nil, in.throwf("TypeError: unsupported statement %T", stmt)
	}
}

func (in *Interpreter) execVarDecl(s *ast.VariableDeclaration, env *runtime.Environment) signal {
	for _, d := range s.Declarations {
		val := runtime.Undefined
		if d.Value != nil {
			v, sig := in.evalExpr(d.Value, env)
			if sig.typ != sigNone {
				return sig
			}
			val = v
			// a function expression bound by declaration inherits the name
			if fn, ok := d.Value.(*ast.FunctionLiteral); ok && fn.Name == "" && val.Kind == runtime.KindFunction {
				if id, ok := d.Name.(*ast.Identifier); ok {
					val.Fn.Name = id.Name
				}
			}
		}
		if sig := in.bindPattern(d.Name, val, s.Kind, env); sig.typ != sigNone {
			return sig
		}
	}
	return signal{}
}

func (in *Interpreter) execBlock(s *ast.BlockStatement, env *runtime.Environment) (*runtime.Value, signal) {
	inner := env.NewBlock()
	val, sig := in.execStatements(s.Statements, inner)
	inner.FinishScope()
	return val, sig
}

func (in *Interpreter) execIf(s *ast.IfStatement, env *runtime.Environment) (*runtime.Value, signal) {
	cond, sig := in.evalExpr(s.Condition, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	if cond.ToBoolean() {
		return in.execBlock(s.Consequence, env)
	}
	if s.Alternative != nil {
		return in.execStmt(s.Alternative, env)
	}
	return nil, signal{}
}

// loopSignal folds a body signal into loop control flow. done is true when
// the loop should stop; escape carries a signal that must propagate.
func loopSignal(sig signal, label string) (done bool, escape *signal) {
	switch sig.typ {
	case sigBreak:
		if sig.label == "" || sig.label == label {
			return true, nil
		}
		return true, &sig
	case sigContinue:
		if sig.label == "" || sig.label == label {
			return false, nil
		}
		return true, &sig
	case sigReturn, sigThrow:
		return true, &sig
	}
	return false, nil
}

func (in *Interpreter) execWhile(s *ast.WhileStatement, env *runtime.Environment, label string) (*runtime.Value, signal) {
	for {
		cond, sig := in.evalExpr(s.Condition, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if !cond.ToBoolean() {
			return nil, signal{}
		}
		_, bodySig := in.execStmt(s.Body, env)
		done, escape := loopSignal(bodySig, label)
		if escape != nil {
			return nil, *escape
		}
		if done {
			return nil, signal{}
		}
	}
}

func (in *Interpreter) execDoWhile(s *ast.DoWhileStatement, env *runtime.Environment, label string) (*runtime.Value, signal) {
	for {
		_, bodySig := in.execStmt(s.Body, env)
		done, escape := loopSignal(bodySig, label)
		if escape != nil {
			return nil, *escape
		}
		if done {
			return nil, signal{}
		}
		cond, sig := in.evalExpr(s.Condition, env)
		if sig.typ != sigNone {
			return nil, sig
		}
		if !cond.ToBoolean() {
			return nil, signal{}
		}
	}
}

func (in *Interpreter) execFor(s *ast.ForStatement, env *runtime.Environment, label string) (*runtime.Value, signal) {
	inner := env.NewBlock()
	defer inner.FinishScope()
	if s.Init != nil {
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			if sig := in.execVarDecl(init, inner); sig.typ != sigNone {
				return nil, sig
			}
		case ast.Statement:
			if _, sig := in.execStmt(init, inner); sig.typ != sigNone {
				return nil, sig
			}
		case ast.Expression:
			if _, sig := in.evalExpr(init, inner); sig.typ != sigNone {
				return nil, sig
			}
		}
	}
	for {
		if s.Test != nil {
			cond, sig := in.evalExpr(s.Test, inner)
			if sig.typ != sigNone {
				return nil, sig
			}
			if !cond.ToBoolean() {
				return nil, signal{}
			}
		}
		_, bodySig := in.execStmt(s.Body, inner)
		done, escape := loopSignal(bodySig, label)
		if escape != nil {
			return nil, *escape
		}
		if done {
			return nil, signal{}
		}
		if s.Update != nil {
			if _, sig := in.evalExpr(s.Update, inner); sig.typ != sigNone {
				return nil, sig
			}
		}
	}
}

func (in *Interpreter) execForOf(s *ast.ForOfStatement, env *runtime.Environment, label string) (*runtime.Value, signal) {
	src, sig := in.evalExpr(s.Right, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	items, err := in.iterate(src)
	if err != nil {
		return nil, in.throwErr(err)
	}
	for _, item := range items {
		inner := env.NewBlock()
		if sig := in.bindForTarget(s.Left, item, inner); sig.typ != sigNone {
			inner.FinishScope()
			return nil, sig
		}
		_, bodySig := in.execStmt(s.Body, inner)
		inner.FinishScope()
		done, escape := loopSignal(bodySig, label)
		if escape != nil {
			return nil, *escape
		}
		if done {
			return nil, signal{}
		}
	}
	return nil, signal{}
}

func (in *Interpreter) execForIn(s *ast.ForInStatement, env *runtime.Environment, label string) (*runtime.Value, signal) {
	src, sig := in.evalExpr(s.Right, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	var keys []*runtime.Value
	switch src.Kind {
	case runtime.KindObject:
		for _, k := range src.Obj.Keys() {
			keys = append(keys, runtime.NewString(k))
		}
	case runtime.KindArray:
		for i := range src.Arr.Elems {
			keys = append(keys, runtime.NewString(fmt.Sprintf("%d", i)))
		}
	case runtime.KindString:
		for i := range []rune(src.Str) {
			keys = append(keys, runtime.NewString(fmt.Sprintf("%d", i)))
		}
	case runtime.KindUndefined, runtime.KindNull:
		// iterating nothing is allowed
	default:
		return nil, in.throwf("TypeError: cannot enumerate %s with for...in", src.TypeOf())
	}
	for _, key := range keys {
		inner := env.NewBlock()
		if sig := in.bindForTarget(s.Left, key, inner); sig.typ != sigNone {
			inner.FinishScope()
			return nil, sig
		}
		_, bodySig := in.execStmt(s.Body, inner)
		inner.FinishScope()
		done, escape := loopSignal(bodySig, label)
		if escape != nil {
			return nil, *escape
		}
		if done {
			return nil, signal{}
		}
	}
	return nil, signal{}
}

func (in *Interpreter) bindForTarget(left ast.Node, val *runtime.Value, env *runtime.Environment) signal {
	switch t := left.(type) {
	case *ast.VariableDeclaration:
		return in.bindPattern(t.Declarations[0].Name, val, t.Kind, env)
	case ast.Expression:
		return in.assignTarget(t, val, env)
	}
	return in.throwf("TypeError: unsupported loop binding %T", left)
}

func (in *Interpreter) execSwitch(s *ast.SwitchStatement, env *runtime.Environment) (*runtime.Value, signal) {
	disc, sig := in.evalExpr(s.Discriminant, env)
	if sig.typ != sigNone {
		return nil, sig
	}
	inner := env.NewBlock()
	defer inner.FinishScope()

	match := -1
	defaultIdx := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			defaultIdx = i
			continue
		}
		test, tsig := in.evalExpr(c.Test, inner)
		if tsig.typ != sigNone {
			return nil, tsig
		}
		if runtime.StrictEquals(disc, test) {
			match = i
			break
		}
	}
	if match < 0 {
		match = defaultIdx
	}
	if match < 0 {
		return nil, signal{}
	}
	for _, c := range s.Cases[match:] {
		_, csig := in.execStatements(c.Consequent, inner)
		if csig.typ == sigBreak && csig.label == "" {
			return nil, signal{}
		}
		if csig.typ != sigNone {
			return nil, csig
		}
	}
	return nil, signal{}
}

func (in *Interpreter) execTry(s *ast.TryStatement, env *runtime.Environment) (*runtime.Value, signal) {
	_, sig := in.execBlock(s.Block, env)
	if sig.typ == sigThrow && s.Handler != nil {
		inner := env.NewBlock()
		if s.Param != nil {
			thrown := sig.value
			if thrown == nil {
				thrown = runtime.Undefined
			}
			if bindSig := in.bindPattern(s.Param, thrown, "let", inner); bindSig.typ != sigNone {
				inner.FinishScope()
				return nil, bindSig
			}
		}
		_, sig = in.execStatements(s.Handler.Statements, inner)
		inner.FinishScope()
	}
	if s.Finalizer != nil {
		_, fsig := in.execBlock(s.Finalizer, env)
		if fsig.typ != sigNone {
			return nil, fsig // the finalizer's signal wins
		}
	}
	return nil, sig
}

func (in *Interpreter) execLabeled(s *ast.LabeledStatement, env *runtime.Environment) (*runtime.Value, signal) {
	var sig signal
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		_, sig = in.execWhile(body, env, s.Label)
	case *ast.DoWhileStatement:
		_, sig = in.execDoWhile(body, env, s.Label)
	case *ast.ForStatement:
		_, sig = in.execFor(body, env, s.Label)
	case *ast.ForOfStatement:
		_, sig = in.execForOf(body, env, s.Label)
	case *ast.ForInStatement:
		_, sig = in.execForIn(body, env, s.Label)
	default:
		_, sig = in.execStmt(s.Body, env)
		if sig.typ == sigBreak && sig.label == s.Label {
			sig = signal{}
		}
	}
	return nil, sig
}

// iterate materializes the elements of an iterable value.
func (in *Interpreter) iterate(v *runtime.Value) ([]*runtime.Value, error) {
	switch v.Kind {
	case runtime.KindArray:
		out := make([]*runtime.Value, len(v.Arr.Elems))
		for i, e := range v.Arr.Elems {
			if e == nil {
				e = runtime.Undefined
			}
			out[i] = e
		}
		return out, nil
	case runtime.KindString:
		var out []*runtime.Value
		for _, r := range v.Str {
			out = append(out, runtime.NewString(string(r)))
		}
		return out, nil
	case runtime.KindMap:
		out := make([]*runtime.Value, 0, v.Map.Len())
		for _, e := range v.Map.Entries {
			out = append(out, runtime.NewArray([]*runtime.Value{e.Key, e.Val}))
		}
		return out, nil
	case runtime.KindSet:
		out := make([]*runtime.Value, 0, v.Set.Len())
		out = append(out, v.Set.Elems...)
		return out, nil
	case runtime.KindTypedArray:
		out := make([]*runtime.Value, 0, v.TA.Len)
		for i := 0; i < v.TA.Len; i++ {
			ev, err := v.TA.Get(i)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("TypeError: %s is not iterable", v.TypeOf())
	}
}
