// Package runtime holds the value model, the environment model and the
// coercion rules shared by the parser's consumers. Primitive values are
// copied by value; composite values are shared pointers, so mutation through
// one alias is visible through all aliases, matching JS reference semantics.
package runtime

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/example/pagejs/ast"
)

// Kind discriminates the closed Value union.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber // integral, int64
	KindFloat  // non-integral, float64
	KindString
	KindBigInt
	KindSymbol
	KindArray
	KindObject
	KindMap
	KindSet
	KindPromise
	KindTypedArray
	KindArrayBuffer
	KindRegExp
	KindDate
	KindFunction
	KindIntl
	KindNode
)

// IsComposite reports whether values of this kind compare by reference.
func (k Kind) IsComposite() bool {
	return k >= KindArray
}

// Value is a JavaScript value. Exactly one payload field is meaningful,
// selected by Kind.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Big     *big.Int
	Sym     *Symbol
	Arr     *ArrayValue
	Obj     *ObjectValue
	Map     *MapValue
	Set     *SetValue
	Promise *PromiseValue
	TA      *TypedArrayValue
	Buf     *ArrayBufferValue
	Re      *RegExpValue
	Date    *DateValue
	Fn      *FunctionValue
	Intl    *IntlValue
	Node    int // dom.NodeID
}

var (
	Undefined = &Value{Kind: KindUndefined}
	Null      = &Value{Kind: KindNull}
	True      = &Value{Kind: KindBool, Bool: true}
	False     = &Value{Kind: KindBool, Bool: false}
)

func NewInt(n int64) *Value        { return &Value{Kind: KindNumber, Int: n} }
func NewFloat(f float64) *Value    { return &Value{Kind: KindFloat, Float: f} }
func NewString(s string) *Value    { return &Value{Kind: KindString, Str: s} }
func NewBigInt(b *big.Int) *Value  { return &Value{Kind: KindBigInt, Big: b} }
func NewNode(id int) *Value        { return &Value{Kind: KindNode, Node: id} }
func NewDateValue(ms int64) *Value { return &Value{Kind: KindDate, Date: &DateValue{MS: ms}} }

func NewBool(b bool) *Value {
	if b {
		return True
	}
	return False
}

func NewArray(elems []*Value) *Value {
	return &Value{Kind: KindArray, Arr: &ArrayValue{Elems: elems}}
}

func NewObject(obj *ObjectValue) *Value {
	return &Value{Kind: KindObject, Obj: obj}
}

func NewMapValue() *Value { return &Value{Kind: KindMap, Map: &MapValue{}} }
func NewSetValue() *Value { return &Value{Kind: KindSet, Set: &SetValue{}} }

func NewFunction(fn *FunctionValue) *Value {
	return &Value{Kind: KindFunction, Fn: fn}
}

// NewFloatOrInt returns an integral Value when f has no fractional part and
// sits inside the safe-integer range, otherwise a Float. NaN and infinities
// stay floats.
func NewFloatOrInt(f float64) *Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		f >= -9007199254740992 && f <= 9007199254740992 {
		return NewInt(int64(f))
	}
	return NewFloat(f)
}

// ArrayValue is a shared mutable array.
type ArrayValue struct {
	Elems []*Value
}

// MapEntry is one key/value pair of a MapValue.
type MapEntry struct {
	Key *Value
	Val *Value
}

// MapValue is an insertion-ordered map with SameValueZero key identity.
type MapValue struct {
	Entries []*MapEntry
}

func (m *MapValue) find(key *Value) int {
	for i, e := range m.Entries {
		if SameValueZero(e.Key, key) {
			return i
		}
	}
	return -1
}

func (m *MapValue) Get(key *Value) (*Value, bool) {
	if i := m.find(key); i >= 0 {
		return m.Entries[i].Val, true
	}
	return Undefined, false
}

func (m *MapValue) Set(key, val *Value) {
	if i := m.find(key); i >= 0 {
		m.Entries[i].Val = val
		return
	}
	m.Entries = append(m.Entries, &MapEntry{Key: key, Val: val})
}

func (m *MapValue) Delete(key *Value) bool {
	if i := m.find(key); i >= 0 {
		m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
		return true
	}
	return false
}

func (m *MapValue) Len() int { return len(m.Entries) }

// SetValue is an insertion-ordered set with SameValueZero identity.
type SetValue struct {
	Elems []*Value
}

func (s *SetValue) find(v *Value) int {
	for i, e := range s.Elems {
		if SameValueZero(e, v) {
			return i
		}
	}
	return -1
}

func (s *SetValue) Add(v *Value) {
	if s.find(v) < 0 {
		s.Elems = append(s.Elems, v)
	}
}

func (s *SetValue) Has(v *Value) bool { return s.find(v) >= 0 }

func (s *SetValue) Delete(v *Value) bool {
	if i := s.find(v); i >= 0 {
		s.Elems = append(s.Elems[:i], s.Elems[i+1:]...)
		return true
	}
	return false
}

func (s *SetValue) Len() int { return len(s.Elems) }

// Symbol is an ES Symbol primitive.
type Symbol struct {
	Description string
}

// DateValue is a date pinned to the virtual clock's epoch milliseconds.
type DateValue struct {
	MS int64
}

// IntlValue is a handle to one constructed Intl formatter. The formatter
// behavior is supplied by the intl collaborator as plain functions.
type IntlValue struct {
	What       string // "Collator", "NumberFormat", "PluralRules", "DateTimeFormat"
	Locale     string
	CompareFn  func(a, b string) int
	FormatNum  func(f float64) string
	SelectFn   func(f float64) string
	FormatDate func(ms int64) string
}

// CallableKind discriminates the closed set of callable shapes.
type CallableKind int

const (
	CallableClosure CallableKind = iota
	CallablePromiseCapability
	CallableIntrinsic
)

// NativeFunc is the Go signature of capability and intrinsic callables.
type NativeFunc func(args []*Value) (*Value, error)

// FunctionValue owns a handler (params and body), a shared captured
// environment snapshot, and the set of free names it reconciles with the
// global map after each call. Captured is shared, never copied, so closures
// over one lexical scope observe each other's mutations.
type FunctionValue struct {
	Kind      CallableKind
	Name      string
	Decl      *ast.FunctionLiteral
	Captured  *Environment
	SyncNames []string
	Class     *ClassValue // constructor linkage, nil otherwise
	BoundThis *Value      // method receiver, nil otherwise
	Native    NativeFunc
}

// ClassValue carries a class declaration's methods and superclass linkage.
type ClassValue struct {
	Name      string
	Ctor      *ast.FunctionLiteral // may be nil
	Methods   []*ast.MethodDefinition
	Super     *ClassValue
	Captured  *Environment
	SyncNames []string
}

// FindMethod resolves an instance method by name and kind through the
// superclass chain. Static members are invisible on instances.
func (c *ClassValue) FindMethod(name string, kind string) (*ast.MethodDefinition, *ClassValue) {
	for cls := c; cls != nil; cls = cls.Super {
		for _, m := range cls.Methods {
			if m.Name == name && m.Kind == kind && !m.Static {
				return m, cls
			}
		}
	}
	return nil, nil
}

// FindStatic resolves a static method by name through the superclass chain.
func (c *ClassValue) FindStatic(name string) (*ast.MethodDefinition, *ClassValue) {
	for cls := c; cls != nil; cls = cls.Super {
		for _, m := range cls.Methods {
			if m.Name == name && m.Kind == "method" && m.Static {
				return m, cls
			}
		}
	}
	return nil, nil
}

// TypeOf implements the typeof operator.
func (v *Value) TypeOf() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindNumber, KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindBigInt:
		return "bigint"
	case KindSymbol:
		return "symbol"
	case KindFunction:
		return "function"
	default:
		return "object"
	}
}

// IsNumeric reports whether v is a Number or Float.
func (v *Value) IsNumeric() bool {
	return v.Kind == KindNumber || v.Kind == KindFloat
}

// AsFloat returns the numeric payload widened to float64.
func (v *Value) AsFloat() float64 {
	if v.Kind == KindNumber {
		return float64(v.Int)
	}
	return v.Float
}

// Inspect renders v the way console.log does.
func (v *Value) Inspect() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Arr.Elems))
		for i, e := range v.Arr.Elems {
			if e == nil {
				parts[i] = ""
				continue
			}
			if e.Kind == KindString {
				parts[i] = strconv.Quote(e.Str)
			} else {
				parts[i] = e.Inspect()
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		var b strings.Builder
		b.WriteString("{")
		for i, k := range v.Obj.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			ev, _ := v.Obj.Get(k)
			b.WriteString(k)
			b.WriteString(": ")
			if ev.Kind == KindString {
				b.WriteString(strconv.Quote(ev.Str))
			} else {
				b.WriteString(ev.Inspect())
			}
		}
		b.WriteString("}")
		return b.String()
	case KindMap:
		return fmt.Sprintf("Map(%d)", v.Map.Len())
	case KindSet:
		return fmt.Sprintf("Set(%d)", v.Set.Len())
	case KindPromise:
		return "Promise { " + v.Promise.State.String() + " }"
	case KindFunction:
		if v.Fn.Name != "" {
			return "[Function: " + v.Fn.Name + "]"
		}
		return "[Function (anonymous)]"
	case KindNode:
		return fmt.Sprintf("[Node %d]", v.Node)
	default:
		return v.ToString()
	}
}

// FormatFloat renders a float using JS Number-to-string conventions.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
