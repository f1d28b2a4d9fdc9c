// Package parser turns script source into the closed syntax tree defined in
// package ast. It works directly on source text: every operator level scans
// for split points at bracket depth zero through the scan cursor, so
// operators inside strings, templates or regex literals are never mistaken
// for structure. Built-in API calls are resolved by shape recognizers at
// parse time; the evaluator never looks methods up by name.
package parser

import (
	"fmt"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/scan"
)

// Error is a script parse error.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "ScriptParse: " + e.Msg }

func errf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// ParseProgram parses a complete script.
func ParseProgram(src string) (*ast.Program, error) {
	src = scan.StripComments(src)
	if err := scan.CheckBalanced(src); err != nil {
		return nil, &Error{Msg: err.Error()}
	}
	stmts, err := parseStatements(src)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Statements: stmts}, nil
}

// ParseExpression parses a single complete expression.
func ParseExpression(src string) (ast.Expression, error) {
	src = scan.StripComments(src)
	if err := scan.CheckBalanced(src); err != nil {
		return nil, &Error{Msg: err.Error()}
	}
	return parseExpression(strings.TrimSpace(src))
}

func parseStatements(src string) ([]ast.Statement, error) {
	var out []ast.Statement
	i := 0
	for {
		i = skipSpace(src, i)
		if i >= len(src) {
			return out, nil
		}
		if src[i] == ';' {
			i++
			continue
		}
		stmt, next, err := parseStatement(src, i)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			out = append(out, stmt)
		}
		if next <= i {
			return nil, errf("parser made no progress at %q", snippet(src[i:]))
		}
		i = next
	}
}

func skipSpace(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// wordAt returns the identifier word starting at i, or "".
func wordAt(src string, i int) string {
	j := i
	for j < len(src) && isIdentChar(src[j]) {
		j++
	}
	return src[i:j]
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// parseStatement parses one statement starting at i and returns it with the
// index just past its end.
func parseStatement(src string, i int) (ast.Statement, int, error) {
	word := wordAt(src, i)
	switch word {
	case "if":
		return parseIf(src, i)
	case "while":
		return parseWhile(src, i)
	case "do":
		return parseDoWhile(src, i)
	case "for":
		return parseFor(src, i)
	case "switch":
		return parseSwitch(src, i)
	case "try":
		return parseTry(src, i)
	case "function":
		return parseFunctionDecl(src, i, false)
	case "async":
		j := skipSpace(src, i+len("async"))
		if wordAt(src, j) == "function" {
			return parseFunctionDecl(src, j, true)
		}
	case "class":
		return parseClassDecl(src, i)
	case "return":
		end := statementEnd(src, i+len(word))
		text := strings.TrimSpace(src[i+len(word) : end])
		if text == "" {
			return &ast.ReturnStatement{}, end, nil
		}
		val, err := parseExpression(text)
		if err != nil {
			return nil, 0, err
		}
		return &ast.ReturnStatement{Value: val}, end, nil
	case "throw":
		end := statementEnd(src, i+len(word))
		text := strings.TrimSpace(src[i+len(word) : end])
		if text == "" {
			return nil, 0, errf("throw requires an argument")
		}
		val, err := parseExpression(text)
		if err != nil {
			return nil, 0, err
		}
		return &ast.ThrowStatement{Argument: val}, end, nil
	case "break", "continue":
		end := statementEnd(src, i+len(word))
		label := strings.TrimSpace(src[i+len(word) : end])
		if label != "" && !isIdent(label) {
			return nil, 0, errf("invalid %s label %q", word, label)
		}
		if word == "break" {
			return &ast.BreakStatement{Label: label}, end, nil
		}
		return &ast.ContinueStatement{Label: label}, end, nil
	case "let", "const", "var":
		end := statementEnd(src, i+len(word))
		decl, err := parseVarDecl(word, src[i+len(word):end])
		if err != nil {
			return nil, 0, err
		}
		return decl, end, nil
	}

	if src[i] == '{' {
		close, err := scan.MatchBracket(src, i)
		if err != nil {
			return nil, 0, &Error{Msg: err.Error()}
		}
		inner, perr := parseStatements(src[i+1 : close])
		if perr != nil {
			return nil, 0, perr
		}
		return &ast.BlockStatement{Statements: inner}, close + 1, nil
	}

	// labeled statement: ident ':' not part of a ternary
	if word != "" && word != "default" && word != "case" {
		j := skipSpace(src, i+len(word))
		if j < len(src) && src[j] == ':' {
			body, next, err := parseStatement(src, skipSpace(src, j+1))
			if err != nil {
				return nil, 0, err
			}
			return &ast.LabeledStatement{Label: word, Body: body}, next, nil
		}
	}

	end := statementEnd(src, i)
	text := strings.TrimSpace(src[i:end])
	if text == "" {
		return nil, end, nil
	}
	expr, err := parseExpression(text)
	if err != nil {
		return nil, 0, err
	}
	return &ast.ExpressionStatement{Expression: expr}, end, nil
}

// statementEnd finds the end of a simple statement starting at i: the next
// semicolon at depth zero, or a newline where automatic termination applies.
func statementEnd(src string, i int) int {
	end := len(src)
	scan.Walk(src[i:], func(j, depth int) bool {
		if depth != 0 {
			return true
		}
		c := src[i+j]
		if c == ';' {
			end = i + j
			return false
		}
		if c == '\n' {
			if asiBreak(src, i+j) {
				end = i + j
				return false
			}
		}
		return true
	})
	return end
}

// asiBreak decides whether a depth-zero newline terminates the statement.
// The line must not end in a continuation character and the next line must
// not begin with one.
func asiBreak(src string, nl int) bool {
	k := nl - 1
	for k >= 0 && (src[k] == ' ' || src[k] == '\t' || src[k] == '\r') {
		k--
	}
	if k < 0 {
		return false
	}
	if strings.IndexByte("+-*/%<>=&|^?:.,([{!~", src[k]) >= 0 {
		return false
	}
	m := nl + 1
	for m < len(src) && (src[m] == ' ' || src[m] == '\t' || src[m] == '\r' || src[m] == '\n') {
		m++
	}
	if m >= len(src) {
		return true
	}
	if strings.IndexByte(".?:)]},=*%&|^", src[m]) >= 0 {
		return false
	}
	if strings.HasPrefix(src[m:], "+ ") || strings.HasPrefix(src[m:], "- ") ||
		strings.HasPrefix(src[m:], "&&") || strings.HasPrefix(src[m:], "||") ||
		strings.HasPrefix(src[m:], "=>") {
		return false
	}
	return true
}

func parseVarDecl(kind, body string) (*ast.VariableDeclaration, error) {
	decl := &ast.VariableDeclaration{Kind: kind}
	parts := scan.SplitTopLevel(body, ',')
	if len(parts) == 0 {
		return nil, errf("%s declaration requires at least one binding", kind)
	}
	// Re-join pieces that belong to one destructuring declarator: a split
	// part without '=' that is not an identifier belongs to its neighbor
	// only when commas sat inside brackets, which SplitTopLevel already
	// respects, so each part is one declarator here.
	for _, part := range parts {
		if part == "" {
			return nil, errf("empty declarator in %s declaration", kind)
		}
		eq := findAssignEq(part)
		if eq < 0 {
			if kind == "const" {
				return nil, errf("missing initializer in const declaration of %q", part)
			}
			name, err := parsePattern(part)
			if err != nil {
				return nil, err
			}
			decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Name: name})
			continue
		}
		name, err := parsePattern(strings.TrimSpace(part[:eq]))
		if err != nil {
			return nil, err
		}
		val, err := parseExpression(strings.TrimSpace(part[eq+1:]))
		if err != nil {
			return nil, err
		}
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{Name: name, Value: val})
	}
	return decl, nil
}

// findAssignEq locates a bare '=' at depth zero (not ==, =>, <=, >=, !=,
// +=, ...), or -1.
func findAssignEq(src string) int {
	found := -1
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || src[i] != '=' {
			return true
		}
		if i+1 < len(src) && (src[i+1] == '=' || src[i+1] == '>') {
			return true
		}
		if i > 0 && strings.IndexByte("=!<>+-*/%&|^", src[i-1]) >= 0 {
			return true
		}
		found = i
		return false
	})
	return found
}

func parseIf(src string, i int) (ast.Statement, int, error) {
	j := skipSpace(src, i+len("if"))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( after if")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	cond, perr := parseExpression(strings.TrimSpace(src[j+1 : close]))
	if perr != nil {
		return nil, 0, perr
	}
	cons, next, perr := parseBody(src, close+1)
	if perr != nil {
		return nil, 0, perr
	}
	stmt := &ast.IfStatement{Condition: cond, Consequence: cons}
	k := skipSpace(src, next)
	if wordAt(src, k) == "else" {
		k = skipSpace(src, k+len("else"))
		if wordAt(src, k) == "if" {
			alt, n2, err2 := parseIf(src, k)
			if err2 != nil {
				return nil, 0, err2
			}
			stmt.Alternative = alt
			return stmt, n2, nil
		}
		alt, n2, err2 := parseBody(src, k)
		if err2 != nil {
			return nil, 0, err2
		}
		stmt.Alternative = alt
		return stmt, n2, nil
	}
	return stmt, next, nil
}

// parseBody parses a braced block, or a single statement wrapped in a block.
func parseBody(src string, i int) (*ast.BlockStatement, int, error) {
	i = skipSpace(src, i)
	if i < len(src) && src[i] == '{' {
		close, err := scan.MatchBracket(src, i)
		if err != nil {
			return nil, 0, &Error{Msg: err.Error()}
		}
		inner, perr := parseStatements(src[i+1 : close])
		if perr != nil {
			return nil, 0, perr
		}
		return &ast.BlockStatement{Statements: inner}, close + 1, nil
	}
	stmt, next, err := parseStatement(src, i)
	if err != nil {
		return nil, 0, err
	}
	return &ast.BlockStatement{Statements: []ast.Statement{stmt}}, next, nil
}

func parseWhile(src string, i int) (ast.Statement, int, error) {
	j := skipSpace(src, i+len("while"))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( after while")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	cond, perr := parseExpression(strings.TrimSpace(src[j+1 : close]))
	if perr != nil {
		return nil, 0, perr
	}
	body, next, perr := parseBody(src, close+1)
	if perr != nil {
		return nil, 0, perr
	}
	return &ast.WhileStatement{Condition: cond, Body: body}, next, nil
}

func parseDoWhile(src string, i int) (ast.Statement, int, error) {
	body, next, err := parseBody(src, i+len("do"))
	if err != nil {
		return nil, 0, err
	}
	j := skipSpace(src, next)
	if wordAt(src, j) != "while" {
		return nil, 0, errf("expected while after do body")
	}
	j = skipSpace(src, j+len("while"))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( after do ... while")
	}
	close, berr := scan.MatchBracket(src, j)
	if berr != nil {
		return nil, 0, &Error{Msg: berr.Error()}
	}
	cond, perr := parseExpression(strings.TrimSpace(src[j+1 : close]))
	if perr != nil {
		return nil, 0, perr
	}
	end := close + 1
	if end < len(src) && src[skipSpace(src, end)] == ';' {
		end = skipSpace(src, end) + 1
	}
	return &ast.DoWhileStatement{Body: body, Condition: cond}, end, nil
}

func parseFor(src string, i int) (ast.Statement, int, error) {
	j := skipSpace(src, i+len("for"))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( after for")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	header := src[j+1 : close]
	body, next, perr := parseBody(src, close+1)
	if perr != nil {
		return nil, 0, perr
	}

	if scan.IndexTopLevel(header, ";") < 0 {
		// for-of / for-in
		if pos := findWordTopLevel(header, "of"); pos >= 0 {
			left, right, perr := parseForBinding(header[:pos], header[pos+2:])
			if perr != nil {
				return nil, 0, perr
			}
			return &ast.ForOfStatement{Left: left, Right: right, Body: body}, next, nil
		}
		if pos := findWordTopLevel(header, "in"); pos >= 0 {
			left, right, perr := parseForBinding(header[:pos], header[pos+2:])
			if perr != nil {
				return nil, 0, perr
			}
			return &ast.ForInStatement{Left: left, Right: right, Body: body}, next, nil
		}
		return nil, 0, errf("malformed for header %q", snippet(header))
	}

	parts := scan.SplitTopLevel(header, ';')
	if len(parts) != 3 {
		return nil, 0, errf("for(;;) header must have three clauses, got %d", len(parts))
	}
	stmt := &ast.ForStatement{Body: body}
	if parts[0] != "" {
		kind := wordAt(parts[0], 0)
		if kind == "let" || kind == "const" || kind == "var" {
			decl, derr := parseVarDecl(kind, parts[0][len(kind):])
			if derr != nil {
				return nil, 0, derr
			}
			stmt.Init = decl
		} else {
			expr, derr := parseExpression(parts[0])
			if derr != nil {
				return nil, 0, derr
			}
			stmt.Init = &ast.ExpressionStatement{Expression: expr}
		}
	}
	if parts[1] != "" {
		test, derr := parseExpression(parts[1])
		if derr != nil {
			return nil, 0, derr
		}
		stmt.Test = test
	}
	if parts[2] != "" {
		update, derr := parseExpression(parts[2])
		if derr != nil {
			return nil, 0, derr
		}
		stmt.Update = update
	}
	return stmt, next, nil
}

// parseForBinding parses the left and right sides of a for-of/for-in header.
func parseForBinding(leftSrc, rightSrc string) (ast.Node, ast.Expression, error) {
	leftSrc = strings.TrimSpace(leftSrc)
	rightSrc = strings.TrimSpace(rightSrc)
	right, err := parseExpression(rightSrc)
	if err != nil {
		return nil, nil, err
	}
	kind := wordAt(leftSrc, 0)
	if kind == "let" || kind == "const" || kind == "var" {
		target, perr := parsePattern(strings.TrimSpace(leftSrc[len(kind):]))
		if perr != nil {
			return nil, nil, perr
		}
		return &ast.VariableDeclaration{
			Kind:         kind,
			Declarations: []*ast.VariableDeclarator{{Name: target}},
		}, right, nil
	}
	target, perr := parsePattern(leftSrc)
	if perr != nil {
		return nil, nil, perr
	}
	return target, right, nil
}

// findWordTopLevel locates a whole word at depth zero, or -1.
func findWordTopLevel(src, word string) int {
	found := -1
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || !strings.HasPrefix(src[i:], word) {
			return true
		}
		if i > 0 && isIdentChar(src[i-1]) {
			return true
		}
		end := i + len(word)
		if end < len(src) && isIdentChar(src[end]) {
			return true
		}
		found = i
		return false
	})
	return found
}

func parseSwitch(src string, i int) (ast.Statement, int, error) {
	j := skipSpace(src, i+len("switch"))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( after switch")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	disc, perr := parseExpression(strings.TrimSpace(src[j+1 : close]))
	if perr != nil {
		return nil, 0, perr
	}
	k := skipSpace(src, close+1)
	if k >= len(src) || src[k] != '{' {
		return nil, 0, errf("expected { after switch(...)")
	}
	bodyClose, berr := scan.MatchBracket(src, k)
	if berr != nil {
		return nil, 0, &Error{Msg: berr.Error()}
	}
	cases, cerr := parseSwitchCases(src[k+1 : bodyClose])
	if cerr != nil {
		return nil, 0, cerr
	}
	return &ast.SwitchStatement{Discriminant: disc, Cases: cases}, bodyClose + 1, nil
}

func parseSwitchCases(body string) ([]*ast.SwitchCase, error) {
	var cases []*ast.SwitchCase
	i := skipSpace(body, 0)
	for i < len(body) {
		word := wordAt(body, i)
		var test ast.Expression
		switch word {
		case "case":
			colon := scan.IndexTopLevel(body[i:], ":")
			if colon < 0 {
				return nil, errf("missing : after case")
			}
			t, err := parseExpression(strings.TrimSpace(body[i+len("case") : i+colon]))
			if err != nil {
				return nil, err
			}
			test = t
			i = i + colon + 1
		case "default":
			j := skipSpace(body, i+len("default"))
			if j >= len(body) || body[j] != ':' {
				return nil, errf("missing : after default")
			}
			i = j + 1
		default:
			return nil, errf("expected case or default in switch body, got %q", snippet(body[i:]))
		}
		// consequent runs until the next top-level case/default
		end := len(body)
		scan.Walk(body[i:], func(j, depth int) bool {
			if depth != 0 {
				return true
			}
			w := wordAt(body, i+j)
			if (w == "case" || w == "default") && (i+j == 0 || !isIdentChar(body[i+j-1])) {
				end = i + j
				return false
			}
			return true
		})
		stmts, err := parseStatements(body[i:end])
		if err != nil {
			return nil, err
		}
		cases = append(cases, &ast.SwitchCase{Test: test, Consequent: stmts})
		i = skipSpace(body, end)
	}
	return cases, nil
}

func parseTry(src string, i int) (ast.Statement, int, error) {
	block, next, err := parseBody(src, i+len("try"))
	if err != nil {
		return nil, 0, err
	}
	stmt := &ast.TryStatement{Block: block}
	j := skipSpace(src, next)
	if wordAt(src, j) == "catch" {
		j = skipSpace(src, j+len("catch"))
		if j < len(src) && src[j] == '(' {
			close, berr := scan.MatchBracket(src, j)
			if berr != nil {
				return nil, 0, &Error{Msg: berr.Error()}
			}
			param, perr := parsePattern(strings.TrimSpace(src[j+1 : close]))
			if perr != nil {
				return nil, 0, perr
			}
			stmt.Param = param
			j = close + 1
		}
		handler, n2, herr := parseBody(src, j)
		if herr != nil {
			return nil, 0, herr
		}
		stmt.Handler = handler
		j = skipSpace(src, n2)
		next = n2
	}
	if wordAt(src, j) == "finally" {
		fin, n3, ferr := parseBody(src, j+len("finally"))
		if ferr != nil {
			return nil, 0, ferr
		}
		stmt.Finalizer = fin
		next = n3
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		return nil, 0, errf("try requires catch or finally")
	}
	return stmt, next, nil
}

func parseFunctionDecl(src string, i int, async bool) (ast.Statement, int, error) {
	fn, next, err := parseFunctionFrom(src, i, async)
	if err != nil {
		return nil, 0, err
	}
	if fn.Name == "" {
		return nil, 0, errf("function declaration requires a name")
	}
	return &ast.FunctionDeclaration{Fn: fn}, next, nil
}

// parseFunctionFrom parses "function [name](params) { body }" starting at
// the function keyword.
func parseFunctionFrom(src string, i int, async bool) (*ast.FunctionLiteral, int, error) {
	j := i + len("function")
	generator := false
	j = skipSpace(src, j)
	if j < len(src) && src[j] == '*' {
		generator = true
		j = skipSpace(src, j+1)
	}
	name := wordAt(src, j)
	j = skipSpace(src, j+len(name))
	if j >= len(src) || src[j] != '(' {
		return nil, 0, errf("expected ( in function definition")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	params, defaults, rest, perr := parseParams(src[j+1 : close])
	if perr != nil {
		return nil, 0, perr
	}
	k := skipSpace(src, close+1)
	if k >= len(src) || src[k] != '{' {
		return nil, 0, errf("expected { in function definition")
	}
	bodyClose, berr := scan.MatchBracket(src, k)
	if berr != nil {
		return nil, 0, &Error{Msg: berr.Error()}
	}
	body, serr := parseStatements(src[k+1 : bodyClose])
	if serr != nil {
		return nil, 0, serr
	}
	return &ast.FunctionLiteral{
		Name:      name,
		Params:    params,
		Defaults:  defaults,
		Rest:      rest,
		Body:      &ast.BlockStatement{Statements: body},
		Async:     async,
		Generator: generator,
	}, bodyClose + 1, nil
}

// parseParams parses a parameter list: identifiers or patterns, lazy
// defaults, and a trailing rest parameter.
func parseParams(src string) (params []ast.Expression, defaults []ast.Expression, rest ast.Expression, err error) {
	parts := scan.SplitTopLevel(src, ',')
	for idx, part := range parts {
		if part == "" {
			return nil, nil, nil, errf("empty parameter")
		}
		if strings.HasPrefix(part, "...") {
			if idx != len(parts)-1 {
				return nil, nil, nil, errf("rest parameter must be last")
			}
			name := strings.TrimSpace(part[3:])
			if !isIdent(name) {
				return nil, nil, nil, errf("invalid rest parameter %q", name)
			}
			rest = &ast.Identifier{Name: name}
			continue
		}
		eq := findAssignEq(part)
		if eq >= 0 {
			target, perr := parsePattern(strings.TrimSpace(part[:eq]))
			if perr != nil {
				return nil, nil, nil, perr
			}
			def, derr := parseExpression(strings.TrimSpace(part[eq+1:]))
			if derr != nil {
				return nil, nil, nil, derr
			}
			params = append(params, target)
			defaults = append(defaults, def)
			continue
		}
		target, perr := parsePattern(part)
		if perr != nil {
			return nil, nil, nil, perr
		}
		params = append(params, target)
		defaults = append(defaults, nil)
	}
	return params, defaults, rest, nil
}

func parseClassDecl(src string, i int) (ast.Statement, int, error) {
	cls, next, err := parseClassFrom(src, i)
	if err != nil {
		return nil, 0, err
	}
	if cls.Name == "" {
		return nil, 0, errf("class declaration requires a name")
	}
	return &ast.ClassDeclaration{Class: cls}, next, nil
}

func parseClassFrom(src string, i int) (*ast.ClassLiteral, int, error) {
	j := skipSpace(src, i+len("class"))
	name := wordAt(src, j)
	j = skipSpace(src, j+len(name))
	cls := &ast.ClassLiteral{Name: name}
	if wordAt(src, j) == "extends" {
		j = skipSpace(src, j+len("extends"))
		// superclass expression runs to the class body brace
		braceRel := scan.IndexTopLevel(src[j:], "{")
		if braceRel < 0 {
			return nil, 0, errf("expected { after extends clause")
		}
		super, err := parseExpression(strings.TrimSpace(src[j : j+braceRel]))
		if err != nil {
			return nil, 0, err
		}
		cls.SuperClass = super
		j = j + braceRel
	}
	if j >= len(src) || src[j] != '{' {
		return nil, 0, errf("expected { in class definition")
	}
	close, err := scan.MatchBracket(src, j)
	if err != nil {
		return nil, 0, &Error{Msg: err.Error()}
	}
	methods, merr := parseClassBody(src[j+1 : close])
	if merr != nil {
		return nil, 0, merr
	}
	cls.Methods = methods
	return cls, close + 1, nil
}

func parseClassBody(body string) ([]*ast.MethodDefinition, error) {
	var methods []*ast.MethodDefinition
	i := skipSpace(body, 0)
	for i < len(body) {
		if body[i] == ';' {
			i = skipSpace(body, i+1)
			continue
		}
		static := false
		kind := "method"
		word := wordAt(body, i)
		if word == "static" {
			static = true
			i = skipSpace(body, i+len(word))
			word = wordAt(body, i)
		}
		if word == "get" || word == "set" {
			j := skipSpace(body, i+len(word))
			if j < len(body) && body[j] != '(' {
				kind = word
				i = j
				word = wordAt(body, i)
			}
		}
		name := word
		if name == "" {
			return nil, errf("expected method name in class body, got %q", snippet(body[i:]))
		}
		i = skipSpace(body, i+len(name))
		if i >= len(body) || body[i] != '(' {
			return nil, errf("expected ( after method name %q", name)
		}
		close, err := scan.MatchBracket(body, i)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		params, defaults, rest, perr := parseParams(body[i+1 : close])
		if perr != nil {
			return nil, perr
		}
		k := skipSpace(body, close+1)
		if k >= len(body) || body[k] != '{' {
			return nil, errf("expected { in method %q", name)
		}
		bodyClose, berr := scan.MatchBracket(body, k)
		if berr != nil {
			return nil, &Error{Msg: berr.Error()}
		}
		stmts, serr := parseStatements(body[k+1 : bodyClose])
		if serr != nil {
			return nil, serr
		}
		if name == "constructor" {
			kind = "constructor"
		}
		methods = append(methods, &ast.MethodDefinition{
			Name:   name,
			Kind:   kind,
			Static: static,
			Fn: &ast.FunctionLiteral{
				Name:     name,
				Params:   params,
				Defaults: defaults,
				Rest:     rest,
				Body:     &ast.BlockStatement{Statements: stmts},
			},
		})
		i = skipSpace(body, bodyClose+1)
	}
	return methods, nil
}

// parsePattern parses a binding target: identifier, array pattern or object
// pattern, possibly with a default.
func parsePattern(src string) (ast.Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errf("empty binding target")
	}
	if eq := findAssignEq(src); eq >= 0 {
		left, err := parsePattern(strings.TrimSpace(src[:eq]))
		if err != nil {
			return nil, err
		}
		right, err := parseExpression(strings.TrimSpace(src[eq+1:]))
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentPattern{Left: left, Right: right}, nil
	}
	switch src[0] {
	case '[':
		close, err := scan.MatchBracket(src, 0)
		if err != nil || close != len(src)-1 {
			return nil, errf("malformed array pattern %q", snippet(src))
		}
		pat := &ast.ArrayPattern{}
		for _, part := range scan.SplitTopLevel(src[1:close], ',') {
			if part == "" {
				pat.Elements = append(pat.Elements, nil)
				continue
			}
			if strings.HasPrefix(part, "...") {
				inner, perr := parsePattern(part[3:])
				if perr != nil {
					return nil, perr
				}
				pat.Elements = append(pat.Elements, &ast.RestElement{Argument: inner})
				continue
			}
			el, perr := parsePattern(part)
			if perr != nil {
				return nil, perr
			}
			pat.Elements = append(pat.Elements, el)
		}
		return pat, nil
	case '{':
		close, err := scan.MatchBracket(src, 0)
		if err != nil || close != len(src)-1 {
			return nil, errf("malformed object pattern %q", snippet(src))
		}
		pat := &ast.ObjectPattern{}
		for _, part := range scan.SplitTopLevel(src[1:close], ',') {
			if part == "" {
				continue
			}
			if strings.HasPrefix(part, "...") {
				name := strings.TrimSpace(part[3:])
				if !isIdent(name) {
					return nil, errf("invalid rest binding %q", name)
				}
				pat.Rest = &ast.Identifier{Name: name}
				continue
			}
			colon := scan.IndexTopLevel(part, ":")
			prop := &ast.PatternProperty{}
			if colon >= 0 {
				prop.Key = strings.TrimSpace(part[:colon])
				inner, perr := parsePattern(strings.TrimSpace(part[colon+1:]))
				if perr != nil {
					return nil, perr
				}
				if ap, ok := inner.(*ast.AssignmentPattern); ok {
					prop.Value = ap.Left
					prop.Default = ap.Right
				} else {
					prop.Value = inner
				}
			} else {
				eq := findAssignEq(part)
				if eq >= 0 {
					prop.Key = strings.TrimSpace(part[:eq])
					def, derr := parseExpression(strings.TrimSpace(part[eq+1:]))
					if derr != nil {
						return nil, derr
					}
					prop.Default = def
					prop.Value = &ast.Identifier{Name: prop.Key}
				} else {
					prop.Key = part
					prop.Value = &ast.Identifier{Name: part}
				}
			}
			if !isIdent(prop.Key) {
				return nil, errf("invalid object pattern key %q", prop.Key)
			}
			pat.Properties = append(pat.Properties, prop)
		}
		return pat, nil
	}
	if !isIdent(src) {
		return nil, errf("invalid binding target %q", snippet(src))
	}
	return &ast.Identifier{Name: src}, nil
}
