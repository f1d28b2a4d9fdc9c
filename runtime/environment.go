package runtime

import "fmt"

// Environment is a flat name-to-value mapping, not a linked scope chain.
// Nested scopes are materialized as fresh maps seeded from the enclosing
// scope's own bindings; global-origin names are never copied in, so any
// name absent from the local map resolves against the live global map at
// access time (late binding) and assignments to it land on the global map
// directly. A mutation made through a nested or reentrant call is therefore
// visible to every frame the moment it happens. var declarations made at
// depth > 0 join a sync-name set and are reconciled with the global map
// when the scope finishes.
type Environment struct {
	vars      map[string]*Value
	consts    map[string]bool
	owned     map[string]bool // names bound at depth > 0 (not global-origin)
	shadowed  map[string]bool // names declared in this very scope
	syncNames map[string]bool
	pre       map[string]*Value // global values at scope creation, for conflict checks
	depth     int
	global    *Environment // nil when this is the global environment
	parent    *Environment // enclosing scope for block write-back; nil for call envs
}

// NewGlobal returns a fresh global environment.
func NewGlobal() *Environment {
	return &Environment{
		vars:     make(map[string]*Value),
		consts:   make(map[string]bool),
		shadowed: make(map[string]bool),
	}
}

// IsGlobal reports whether e is the true global map.
func (e *Environment) IsGlobal() bool { return e.global == nil }

// GlobalEnv returns the true global environment.
func (e *Environment) GlobalEnv() *Environment {
	if e.global == nil {
		return e
	}
	return e.global
}

// Depth returns the scope depth (0 for global).
func (e *Environment) Depth() int { return e.depth }

// NewBlock materializes a nested block scope seeded from e's own bindings.
// A block directly under the global scope starts empty and resolves every
// outer name live.
func (e *Environment) NewBlock() *Environment {
	g := e.GlobalEnv()
	n := &Environment{
		vars:      make(map[string]*Value, len(e.vars)),
		consts:    make(map[string]bool),
		owned:     make(map[string]bool, len(e.owned)),
		shadowed:  make(map[string]bool),
		syncNames: make(map[string]bool, len(e.syncNames)),
		pre:       make(map[string]*Value),
		depth:     e.depth + 1,
		global:    g,
		parent:    e,
	}
	if !e.IsGlobal() {
		for k, v := range e.vars {
			n.vars[k] = v
		}
		for k := range e.consts {
			n.consts[k] = true
		}
		for k := range e.owned {
			n.owned[k] = true
		}
		for k := range e.syncNames {
			n.syncNames[k] = true
		}
		for k, v := range e.pre {
			n.pre[k] = v
		}
	}
	return n
}

// NewCall builds a call environment: the callee's captured bindings over a
// view of the live global map. captured may be nil for global-scope
// functions.
func NewCall(captured *Environment, global *Environment) *Environment {
	g := global.GlobalEnv()
	n := &Environment{
		vars:      make(map[string]*Value),
		consts:    make(map[string]bool),
		owned:     make(map[string]bool),
		shadowed:  make(map[string]bool),
		syncNames: make(map[string]bool),
		pre:       make(map[string]*Value),
		depth:     1,
		global:    g,
	}
	if captured != nil {
		for k := range captured.owned {
			if v, ok := captured.vars[k]; ok {
				n.vars[k] = v
				n.owned[k] = true
				if captured.consts[k] {
					n.consts[k] = true
				}
			}
		}
		n.depth = captured.depth + 1
	}
	return n
}

// Declare binds name in this scope. let/const redeclaration is an error at
// every depth, the global scope included; var at depth > 0 joins the global
// sync set so the binding survives the scope, matching var hoisting to the
// global map.
func (e *Environment) Declare(name, kind string, value *Value) error {
	if kind == "let" || kind == "const" {
		if e.shadowed[name] {
			return fmt.Errorf("SyntaxError: Identifier '%s' has already been declared", name)
		}
	}
	e.vars[name] = value
	if kind == "const" {
		e.consts[name] = true
	} else {
		delete(e.consts, name)
	}
	if e.depth == 0 {
		if kind == "let" || kind == "const" {
			e.shadowed[name] = true
		}
		return nil
	}
	e.shadowed[name] = true
	if kind == "var" || kind == "function" {
		e.syncNames[name] = true
		if _, ok := e.pre[name]; !ok {
			// the global's value at declaration time, nil when absent;
			// FinishCall compares against it to detect reentrant writes
			e.pre[name] = e.globalValue(name)
		}
	} else {
		e.owned[name] = true
		delete(e.syncNames, name)
	}
	return nil
}

// Get resolves name: local bindings first, then the live global map.
func (e *Environment) Get(name string) (*Value, error) {
	if v, ok := e.vars[name]; ok {
		return v, nil
	}
	if e.global != nil {
		if v, ok := e.global.vars[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("ReferenceError: %s is not defined", name)
}

// Has reports whether name resolves in this environment.
func (e *Environment) Has(name string) bool {
	if _, ok := e.vars[name]; ok {
		return true
	}
	if e.global != nil {
		_, ok := e.global.vars[name]
		return ok
	}
	return false
}

// Set assigns name. Unknown names become implicit globals, written to the
// live global map directly.
func (e *Environment) Set(name string, value *Value) error {
	if e.consts[name] {
		return fmt.Errorf("TypeError: Assignment to constant variable '%s'", name)
	}
	if _, ok := e.vars[name]; ok {
		e.vars[name] = value
		return nil
	}
	if e.global != nil {
		if e.global.consts[name] {
			return fmt.Errorf("TypeError: Assignment to constant variable '%s'", name)
		}
		e.global.vars[name] = value
		return nil
	}
	e.vars[name] = value
	return nil
}

// globalValue returns the current value of name in the true global map, or
// nil when absent.
func (e *Environment) globalValue(name string) *Value {
	g := e.GlobalEnv()
	if v, ok := g.vars[name]; ok {
		return v
	}
	return nil
}

// FinishScope reconciles a block scope with its parent: every binding that
// is not block-local shadowing propagates back so mutations made inside the
// block remain visible, and the parent's const set is respected.
func (e *Environment) FinishScope() {
	if e.parent == nil {
		e.FinishCall(nil)
		return
	}
	for k, v := range e.vars {
		if e.shadowed[k] && !e.syncNames[k] {
			continue // let/const declared here: dropped
		}
		if _, ok := e.parent.vars[k]; ok {
			e.parent.vars[k] = v
		} else if e.syncNames[k] {
			// var declared in this block at depth > 0: hoist to parent
			e.parent.vars[k] = v
			if e.parent.depth > 0 {
				e.parent.syncNames[k] = true
				if _, seen := e.parent.pre[k]; !seen {
					e.parent.pre[k] = e.pre[k]
				}
			}
		}
	}
}

// FinishCall writes the call's var declarations back to the true global
// map. A name is propagated only when the global value did not change
// concurrently during the call: if the global moved away from its
// declaration-time snapshot (for example through a listener re-entrantly
// invoked inside the call), the independent global mutation wins and the
// call-local value is dropped. captured, when non-nil, receives the call's
// mutations of the names it owns so sibling closures observe them.
func (e *Environment) FinishCall(captured *Environment) {
	g := e.GlobalEnv()
	for name := range e.syncNames {
		local, ok := e.vars[name]
		if !ok {
			continue
		}
		pre := e.pre[name]
		cur, curOk := g.vars[name]
		if pre == nil && !curOk {
			g.vars[name] = local
			continue
		}
		if pre != nil && curOk && StrictEquals(cur, pre) {
			if !StrictEquals(local, pre) {
				g.vars[name] = local
			}
			continue
		}
		// global changed during the call: keep the global mutation
	}
	if captured != nil {
		for name := range captured.owned {
			if v, ok := e.vars[name]; ok {
				captured.vars[name] = v
			}
		}
	}
}

// Names returns all locally bound names (testing helper).
func (e *Environment) Names() []string {
	out := make([]string, 0, len(e.vars))
	for k := range e.vars {
		out = append(out, k)
	}
	return out
}
