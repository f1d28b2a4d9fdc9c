// Package ast defines the closed syntax tree produced by the parser. Every
// variant is a fully resolved operation: once a node is built, the evaluator
// branch that handles it is fixed. Recognized built-in calls are carried as
// BuiltinCall nodes keyed by a BuiltinOp, never re-dispatched by name at
// evaluation time.
package ast

// Node is the interface all AST nodes implement.
type Node interface {
	nodeType() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every parsed script.
type Program struct {
	Statements []Statement
}

func (p *Program) nodeType() string { return "Program" }

// ---------- Statements ----------

type VariableDeclaration struct {
	Kind         string // "var", "let", "const"
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	Name  Expression // Identifier or destructuring pattern
	Value Expression // may be nil
}

type ExpressionStatement struct {
	Expression Expression
}

type BlockStatement struct {
	Statements []Statement
}

type ReturnStatement struct {
	Value Expression // may be nil
}

type IfStatement struct {
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // may be nil; *IfStatement or *BlockStatement
}

type WhileStatement struct {
	Condition Expression
	Body      Statement
}

type DoWhileStatement struct {
	Body      Statement
	Condition Expression
}

type ForStatement struct {
	Init   Node       // Statement or Expression, may be nil
	Test   Expression // may be nil
	Update Expression // may be nil
	Body   Statement
}

type ForInStatement struct {
	Left  Node // VariableDeclaration or Expression
	Right Expression
	Body  Statement
}

type ForOfStatement struct {
	Left  Node
	Right Expression
	Body  Statement
}

type BreakStatement struct {
	Label string // "" if unlabeled
}

type ContinueStatement struct {
	Label string
}

type SwitchStatement struct {
	Discriminant Expression
	Cases        []*SwitchCase
}

type SwitchCase struct {
	Test       Expression // nil for default
	Consequent []Statement
}

type ThrowStatement struct {
	Argument Expression
}

type TryStatement struct {
	Block     *BlockStatement
	Param     Expression // catch binding, may be nil
	Handler   *BlockStatement
	Finalizer *BlockStatement
}

type FunctionDeclaration struct {
	Fn *FunctionLiteral
}

type ClassDeclaration struct {
	Class *ClassLiteral
}

type LabeledStatement struct {
	Label string
	Body  Statement
}

type EmptyStatement struct{}

// ---------- Expressions ----------

type Identifier struct {
	Name string
}

// NumberLiteral is an integral numeric literal.
type NumberLiteral struct {
	Value int64
}

// FloatLiteral is a non-integral numeric literal.
type FloatLiteral struct {
	Value float64
}

// BigIntLiteral is an n-suffixed integer literal; Text has no suffix.
type BigIntLiteral struct {
	Text string
}

type StringLiteral struct {
	Value string
}

type BooleanLiteral struct {
	Value bool
}

type NullLiteral struct{}

type UndefinedLiteral struct{}

type RegExpLiteral struct {
	Pattern string
	Flags   string
}

type TemplateLiteral struct {
	Quasis      []string // len(Quasis) == len(Expressions)+1
	Expressions []Expression
}

type ArrayLiteral struct {
	Elements []Expression // nil entries for elisions
}

type ObjectLiteral struct {
	Properties []*Property
}

type Property struct {
	Key      Expression // Identifier, StringLiteral, NumberLiteral, or computed
	Value    Expression
	Computed bool
	Spread   bool // {...x}
}

type FunctionLiteral struct {
	Name      string // "" for anonymous
	Params    []Expression
	Defaults  []Expression // parallel to Params; nil entries for no default
	Rest      Expression   // rest parameter, may be nil
	Body      *BlockStatement
	ExprBody  Expression // arrow concise body; Body is nil when set
	Arrow     bool
	Async     bool
	Generator bool
}

type ClassLiteral struct {
	Name       string
	SuperClass Expression // may be nil
	Methods    []*MethodDefinition
}

type MethodDefinition struct {
	Name   string
	Fn     *FunctionLiteral
	Kind   string // "constructor", "method", "get", "set"
	Static bool
}

type UnaryExpression struct {
	Operator string // ! ~ + - typeof void delete
	Operand  Expression
}

type UpdateExpression struct {
	Operator string // ++ or --
	Operand  Expression
	Prefix   bool
}

type BinaryExpression struct {
	Operator string
	Left     Expression
	Right    Expression
}

type LogicalExpression struct {
	Operator string // && || ??
	Left     Expression
	Right    Expression
}

type AssignmentExpression struct {
	Operator string // = += -= *= /= %= **= &&= ||= ??= &= |= ^= <<= >>=
	Left     Expression
	Right    Expression
}

type ConditionalExpression struct {
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

type CallExpression struct {
	Callee    Expression
	Arguments []Expression
	Optional  bool // x?.(...)
}

type NewExpression struct {
	Callee    Expression
	Arguments []Expression
}

type MemberExpression struct {
	Object   Expression
	Property string     // when not computed
	Index    Expression // when computed
	Computed bool
	Optional bool // x?.y
}

type SequenceExpression struct {
	Expressions []Expression
}

type SpreadElement struct {
	Argument Expression
}

type AwaitExpression struct {
	Argument Expression
}

type YieldExpression struct {
	Argument Expression // may be nil
	Delegate bool
}

type ThisExpression struct{}

type SuperCallExpression struct {
	Arguments []Expression
}

type SuperMethodExpression struct {
	Method    string
	Arguments []Expression
}

// BuiltinCall is a built-in API call fully resolved at parse time. Recv is
// nil for namespace calls such as Math.abs; otherwise it is the receiver
// expression the operation applies to.
type BuiltinCall struct {
	Op   BuiltinOp
	Recv Expression
	Args []Expression
}

// BuiltinMember is a built-in property read resolved at parse time
// (arr.length, map.size, re.source, buffer.byteLength, ...).
type BuiltinMember struct {
	Op   BuiltinOp
	Recv Expression
}

// Destructuring patterns.

type ObjectPattern struct {
	Properties []*PatternProperty
	Rest       Expression // may be nil
}

type PatternProperty struct {
	Key     string
	Value   Expression // Identifier or nested pattern
	Default Expression // may be nil
}

type ArrayPattern struct {
	Elements []Expression // nil entries for holes; may contain *RestElement last
}

type RestElement struct {
	Argument Expression
}

type AssignmentPattern struct {
	Left  Expression
	Right Expression
}

// --- marker methods ---

func (s *VariableDeclaration) statementNode() {}
func (s *ExpressionStatement) statementNode() {}
func (s *BlockStatement) statementNode()      {}
func (s *ReturnStatement) statementNode()     {}
func (s *IfStatement) statementNode()         {}
func (s *WhileStatement) statementNode()      {}
func (s *DoWhileStatement) statementNode()    {}
func (s *ForStatement) statementNode()        {}
func (s *ForInStatement) statementNode()      {}
func (s *ForOfStatement) statementNode()      {}
func (s *BreakStatement) statementNode()      {}
func (s *ContinueStatement) statementNode()   {}
func (s *SwitchStatement) statementNode()     {}
func (s *ThrowStatement) statementNode()      {}
func (s *TryStatement) statementNode()        {}
func (s *FunctionDeclaration) statementNode() {}
func (s *ClassDeclaration) statementNode()    {}
func (s *LabeledStatement) statementNode()    {}
func (s *EmptyStatement) statementNode()      {}

func (e *Identifier) expressionNode()            {}
func (e *NumberLiteral) expressionNode()         {}
func (e *FloatLiteral) expressionNode()          {}
func (e *BigIntLiteral) expressionNode()         {}
func (e *StringLiteral) expressionNode()         {}
func (e *BooleanLiteral) expressionNode()        {}
func (e *NullLiteral) expressionNode()           {}
func (e *UndefinedLiteral) expressionNode()      {}
func (e *RegExpLiteral) expressionNode()         {}
func (e *TemplateLiteral) expressionNode()       {}
func (e *ArrayLiteral) expressionNode()          {}
func (e *ObjectLiteral) expressionNode()         {}
func (e *FunctionLiteral) expressionNode()       {}
func (e *ClassLiteral) expressionNode()          {}
func (e *UnaryExpression) expressionNode()       {}
func (e *UpdateExpression) expressionNode()      {}
func (e *BinaryExpression) expressionNode()      {}
func (e *LogicalExpression) expressionNode()     {}
func (e *AssignmentExpression) expressionNode()  {}
func (e *ConditionalExpression) expressionNode() {}
func (e *CallExpression) expressionNode()        {}
func (e *NewExpression) expressionNode()         {}
func (e *MemberExpression) expressionNode()      {}
func (e *SequenceExpression) expressionNode()    {}
func (e *SpreadElement) expressionNode()         {}
func (e *AwaitExpression) expressionNode()       {}
func (e *YieldExpression) expressionNode()       {}
func (e *ThisExpression) expressionNode()        {}
func (e *SuperCallExpression) expressionNode()   {}
func (e *SuperMethodExpression) expressionNode() {}
func (e *BuiltinCall) expressionNode()           {}
func (e *BuiltinMember) expressionNode()         {}
func (e *ObjectPattern) expressionNode()         {}
func (e *ArrayPattern) expressionNode()          {}
func (e *RestElement) expressionNode()           {}
func (e *AssignmentPattern) expressionNode()     {}

func (s *VariableDeclaration) nodeType() string { return "VariableDeclaration" }
func (s *ExpressionStatement) nodeType() string { return "ExpressionStatement" }
func (s *BlockStatement) nodeType() string      { return "BlockStatement" }
func (s *ReturnStatement) nodeType() string     { return "ReturnStatement" }
func (s *IfStatement) nodeType() string         { return "IfStatement" }
func (s *WhileStatement) nodeType() string      { return "WhileStatement" }
func (s *DoWhileStatement) nodeType() string    { return "DoWhileStatement" }
func (s *ForStatement) nodeType() string        { return "ForStatement" }
func (s *ForInStatement) nodeType() string      { return "ForInStatement" }
func (s *ForOfStatement) nodeType() string      { return "ForOfStatement" }
func (s *BreakStatement) nodeType() string      { return "BreakStatement" }
func (s *ContinueStatement) nodeType() string   { return "ContinueStatement" }
func (s *SwitchStatement) nodeType() string     { return "SwitchStatement" }
func (s *ThrowStatement) nodeType() string      { return "ThrowStatement" }
func (s *TryStatement) nodeType() string        { return "TryStatement" }
func (s *FunctionDeclaration) nodeType() string { return "FunctionDeclaration" }
func (s *ClassDeclaration) nodeType() string    { return "ClassDeclaration" }
func (s *LabeledStatement) nodeType() string    { return "LabeledStatement" }
func (s *EmptyStatement) nodeType() string      { return "EmptyStatement" }

func (e *Identifier) nodeType() string            { return "Identifier" }
func (e *NumberLiteral) nodeType() string         { return "NumberLiteral" }
func (e *FloatLiteral) nodeType() string          { return "FloatLiteral" }
func (e *BigIntLiteral) nodeType() string         { return "BigIntLiteral" }
func (e *StringLiteral) nodeType() string         { return "StringLiteral" }
func (e *BooleanLiteral) nodeType() string        { return "BooleanLiteral" }
func (e *NullLiteral) nodeType() string           { return "NullLiteral" }
func (e *UndefinedLiteral) nodeType() string      { return "UndefinedLiteral" }
func (e *RegExpLiteral) nodeType() string         { return "RegExpLiteral" }
func (e *TemplateLiteral) nodeType() string       { return "TemplateLiteral" }
func (e *ArrayLiteral) nodeType() string          { return "ArrayLiteral" }
func (e *ObjectLiteral) nodeType() string         { return "ObjectLiteral" }
func (e *FunctionLiteral) nodeType() string       { return "FunctionLiteral" }
func (e *ClassLiteral) nodeType() string          { return "ClassLiteral" }
func (e *UnaryExpression) nodeType() string       { return "UnaryExpression" }
func (e *UpdateExpression) nodeType() string      { return "UpdateExpression" }
func (e *BinaryExpression) nodeType() string      { return "BinaryExpression" }
func (e *LogicalExpression) nodeType() string     { return "LogicalExpression" }
func (e *AssignmentExpression) nodeType() string  { return "AssignmentExpression" }
func (e *ConditionalExpression) nodeType() string { return "ConditionalExpression" }
func (e *CallExpression) nodeType() string        { return "CallExpression" }
func (e *NewExpression) nodeType() string         { return "NewExpression" }
func (e *MemberExpression) nodeType() string      { return "MemberExpression" }
func (e *SequenceExpression) nodeType() string    { return "SequenceExpression" }
func (e *SpreadElement) nodeType() string         { return "SpreadElement" }
func (e *AwaitExpression) nodeType() string       { return "AwaitExpression" }
func (e *YieldExpression) nodeType() string       { return "YieldExpression" }
func (e *ThisExpression) nodeType() string        { return "ThisExpression" }
func (e *SuperCallExpression) nodeType() string   { return "SuperCallExpression" }
func (e *SuperMethodExpression) nodeType() string { return "SuperMethodExpression" }
func (e *BuiltinCall) nodeType() string           { return "BuiltinCall" }
func (e *BuiltinMember) nodeType() string         { return "BuiltinMember" }
func (e *ObjectPattern) nodeType() string         { return "ObjectPattern" }
func (e *ArrayPattern) nodeType() string          { return "ArrayPattern" }
func (e *RestElement) nodeType() string           { return "RestElement" }
func (e *AssignmentPattern) nodeType() string     { return "AssignmentPattern" }
