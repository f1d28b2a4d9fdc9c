package runtime

import "testing"

func mustDeclare(t *testing.T, e *Environment, name, kind string, v *Value) {
	t.Helper()
	if err := e.Declare(name, kind, v); err != nil {
		t.Fatalf("Declare %s: %v", name, err)
	}
}

func getInt(t *testing.T, e *Environment, name string) int64 {
	t.Helper()
	v, err := e.Get(name)
	if err != nil {
		t.Fatalf("Get %s: %v", name, err)
	}
	if v.Kind != KindNumber {
		t.Fatalf("Get %s: expected a number, got %s", name, v.Inspect())
	}
	return v.Int
}

func TestGlobalDeclareAndGet(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "x", "let", NewInt(1))
	if getInt(t, g, "x") != 1 {
		t.Fatal("expected x=1")
	}
	if _, err := g.Get("missing"); err == nil {
		t.Fatal("expected ReferenceError")
	}
}

func TestRedeclarationRules(t *testing.T) {
	g := NewGlobal()
	b := g.NewBlock()
	mustDeclare(t, b, "x", "let", NewInt(1))
	if err := b.Declare("x", "let", NewInt(2)); err == nil {
		t.Fatal("let redeclaration must fail")
	}
	mustDeclare(t, b, "y", "var", NewInt(1))
	if err := b.Declare("y", "var", NewInt(2)); err != nil {
		t.Fatalf("var redeclaration should be allowed: %v", err)
	}
}

func TestGlobalRedeclarationRejected(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "x", "let", NewInt(1))
	if err := g.Declare("x", "let", NewInt(2)); err == nil {
		t.Fatal("global let redeclaration must fail")
	}
	mustDeclare(t, g, "k", "const", NewInt(1))
	if err := g.Declare("k", "const", NewInt(2)); err == nil {
		t.Fatal("global const redeclaration must fail")
	}
	mustDeclare(t, g, "v", "var", NewInt(1))
	if err := g.Declare("v", "var", NewInt(2)); err != nil {
		t.Fatalf("global var redeclaration should be allowed: %v", err)
	}
}

func TestConstAssignmentRejected(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "c", "const", NewInt(1))
	if err := g.Set("c", NewInt(2)); err == nil {
		t.Fatal("assignment to const must fail")
	}
	call := NewCall(nil, g)
	if err := call.Set("c", NewInt(2)); err == nil {
		t.Fatal("assignment to a global const inside a call must fail")
	}
}

func TestBlockShadowingDropsOnExit(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "x", "let", NewInt(1))
	b := g.NewBlock()
	mustDeclare(t, b, "x", "let", NewInt(99))
	if getInt(t, b, "x") != 99 {
		t.Fatal("block sees its own shadow")
	}
	b.FinishScope()
	if getInt(t, g, "x") != 1 {
		t.Fatal("shadow must not leak out of the block")
	}
}

func TestBlockMutationPropagates(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "x", "let", NewInt(1))
	b := g.NewBlock()
	if err := b.Set("x", NewInt(5)); err != nil {
		t.Fatal(err)
	}
	b.FinishScope()
	if getInt(t, g, "x") != 5 {
		t.Fatal("mutation of an outer binding must survive the block")
	}
}

func TestVarHoistsOutOfBlock(t *testing.T) {
	g := NewGlobal()
	b := g.NewBlock()
	mustDeclare(t, b, "v", "var", NewInt(7))
	mustDeclare(t, b, "l", "let", NewInt(8))
	b.FinishScope()
	if getInt(t, g, "v") != 7 {
		t.Fatal("var must hoist to the enclosing scope")
	}
	if _, err := g.Get("l"); err == nil {
		t.Fatal("let must not hoist")
	}
}

func TestCallReadsLiveGlobal(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "n", "let", NewInt(0))
	call := NewCall(nil, g)
	// a reentrant mutation lands on the live global mid-call
	g.vars["n"] = NewInt(10)
	if getInt(t, call, "n") != 10 {
		t.Fatal("a call frame must resolve unshadowed globals live")
	}
}

func TestCallWritesGlobalImmediately(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "n", "let", NewInt(0))
	call := NewCall(nil, g)
	if err := call.Set("n", NewInt(3)); err != nil {
		t.Fatal(err)
	}
	// the write is visible before the call finishes
	if getInt(t, g, "n") != 3 {
		t.Fatal("assigning an unshadowed global must hit the live map")
	}
}

func TestNestedCallMutationVisibleToOuterFrame(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "shared", "let", NewInt(0))
	outer := NewCall(nil, g)
	inner := NewCall(nil, g)
	if err := inner.Set("shared", NewInt(10)); err != nil {
		t.Fatal(err)
	}
	inner.FinishCall(nil)
	if getInt(t, outer, "shared") != 10 {
		t.Fatal("the outer frame must observe the nested call's mutation")
	}
}

func TestVarWriteBackKeepsReentrantGlobalMutation(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "n", "let", NewInt(0))
	call := NewCall(nil, g)
	mustDeclare(t, call, "n", "var", NewInt(3))
	// the global moved away from its declaration-time snapshot
	g.vars["n"] = NewInt(100)
	call.FinishCall(nil)
	if getInt(t, g, "n") != 100 {
		t.Fatal("an independent global mutation wins over the stale write-back")
	}
}

func TestVarWriteBackPropagates(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "n", "let", NewInt(0))
	call := NewCall(nil, g)
	mustDeclare(t, call, "n", "var", NewInt(3))
	call.FinishCall(nil)
	if getInt(t, g, "n") != 3 {
		t.Fatal("an uncontested var declaration must reach the global")
	}
}

func TestParamShadowHidesGlobal(t *testing.T) {
	g := NewGlobal()
	mustDeclare(t, g, "n", "let", NewInt(1))
	call := NewCall(nil, g)
	mustDeclare(t, call, "n", "let", NewInt(99))
	if getInt(t, call, "n") != 99 {
		t.Fatal("the local binding shadows the global")
	}
	call.FinishCall(nil)
	if getInt(t, g, "n") != 1 {
		t.Fatal("a shadowing local must not leak into the global map")
	}
}

func TestImplicitGlobalAssignment(t *testing.T) {
	g := NewGlobal()
	call := NewCall(nil, g)
	if err := call.Set("fresh", NewInt(1)); err != nil {
		t.Fatal(err)
	}
	if getInt(t, g, "fresh") != 1 {
		t.Fatal("assigning an undeclared name creates a live global")
	}
}

func TestNewGlobalDeclaredDuringCall(t *testing.T) {
	g := NewGlobal()
	call := NewCall(nil, g)
	mustDeclare(t, call, "v", "var", NewInt(4))
	call.FinishCall(nil)
	if getInt(t, g, "v") != 4 {
		t.Fatal("a var declared in a call syncs to the global map")
	}
}

func TestCapturedBindingsShared(t *testing.T) {
	g := NewGlobal()
	maker := NewCall(nil, g)
	mustDeclare(t, maker, "count", "let", NewInt(0))

	// two closures over the same captured environment
	inner := NewCall(maker, g)
	if err := inner.Set("count", NewInt(1)); err != nil {
		t.Fatal(err)
	}
	inner.FinishCall(maker)

	sibling := NewCall(maker, g)
	if getInt(t, sibling, "count") != 1 {
		t.Fatal("sibling closures share the captured binding")
	}
	if _, err := g.Get("count"); err == nil {
		t.Fatal("captured locals must not leak into the global map")
	}
}

func TestCapturedConstStillConst(t *testing.T) {
	g := NewGlobal()
	maker := NewCall(nil, g)
	mustDeclare(t, maker, "k", "const", NewInt(1))
	inner := NewCall(maker, g)
	if err := inner.Set("k", NewInt(2)); err == nil {
		t.Fatal("captured const must stay const")
	}
}
