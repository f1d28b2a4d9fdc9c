package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/scan"
)

// Expression parsing works by operator precedence over raw text: each level
// looks for its operators at bracket depth zero and splits there. Left
// associative levels split at the rightmost occurrence, right associative
// ones at the leftmost.

func parseExpression(src string) (ast.Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errf("empty expression")
	}
	parts := scan.SplitTopLevel(src, ',')
	if len(parts) > 1 {
		seq := &ast.SequenceExpression{}
		for _, part := range parts {
			e, err := parseAssign(part)
			if err != nil {
				return nil, err
			}
			seq.Expressions = append(seq.Expressions, e)
		}
		return seq, nil
	}
	return parseAssign(src)
}

func parseAssign(src string) (ast.Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errf("empty expression")
	}

	if wordAt(src, 0) == "yield" {
		rest := strings.TrimSpace(src[len("yield"):])
		delegate := false
		if strings.HasPrefix(rest, "*") {
			delegate = true
			rest = strings.TrimSpace(rest[1:])
		}
		y := &ast.YieldExpression{Delegate: delegate}
		if rest != "" {
			arg, err := parseAssign(rest)
			if err != nil {
				return nil, err
			}
			y.Argument = arg
		}
		return y, nil
	}

	if arrowPos := scan.IndexTopLevel(src, "=>"); arrowPos >= 0 {
		if fn, ok, err := tryArrow(src, arrowPos); ok || err != nil {
			return fn, err
		}
	}

	if pos, op := findAssignOp(src); pos >= 0 {
		// a ternary opening before the = means the assignment lives in a
		// branch: a ? b = 1 : c
		if q := findTernaryQ(src); q >= 0 && q < pos {
			return parseConditional(src)
		}
		leftSrc := strings.TrimSpace(src[:pos])
		rightSrc := strings.TrimSpace(src[pos+len(op):])
		if leftSrc == "" || rightSrc == "" {
			return nil, errf("malformed assignment %q", snippet(src))
		}
		var left ast.Expression
		var err error
		if op == "=" && (leftSrc[0] == '[' || leftSrc[0] == '{') {
			left, err = parsePattern(leftSrc)
		} else {
			left, err = parseConditional(leftSrc)
		}
		if err != nil {
			return nil, err
		}
		right, err := parseAssign(rightSrc)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpression{Operator: op, Left: left, Right: right}, nil
	}

	return parseConditional(src)
}

// tryArrow attempts to read src as an arrow function whose => sits at pos.
// ok is false when the prefix is not a valid parameter list.
func tryArrow(src string, pos int) (ast.Expression, bool, error) {
	prefix := strings.TrimSpace(src[:pos])
	async := false
	if wordAt(prefix, 0) == "async" {
		rest := strings.TrimSpace(prefix[len("async"):])
		if rest != "" {
			async = true
			prefix = rest
		}
	}
	var params []ast.Expression
	var defaults []ast.Expression
	var rest ast.Expression
	switch {
	case isIdent(prefix) && !isKeyword(prefix):
		params = []ast.Expression{&ast.Identifier{Name: prefix}}
		defaults = []ast.Expression{nil}
	case prefix != "" && prefix[0] == '(':
		close, err := scan.MatchBracket(prefix, 0)
		if err != nil || close != len(prefix)-1 {
			return nil, false, nil
		}
		params, defaults, rest, err = parseParams(prefix[1:close])
		if err != nil {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}

	bodySrc := strings.TrimSpace(src[pos+2:])
	if bodySrc == "" {
		return nil, false, errf("arrow function has no body")
	}
	fn := &ast.FunctionLiteral{Params: params, Defaults: defaults, Rest: rest, Arrow: true, Async: async}
	if bodySrc[0] == '{' {
		close, err := scan.MatchBracket(bodySrc, 0)
		if err == nil && close == len(bodySrc)-1 {
			stmts, serr := parseStatements(bodySrc[1:close])
			if serr != nil {
				return nil, false, serr
			}
			fn.Body = &ast.BlockStatement{Statements: stmts}
			return fn, true, nil
		}
	}
	body, err := parseAssign(bodySrc)
	if err != nil {
		return nil, false, err
	}
	fn.ExprBody = body
	return fn, true, nil
}

func isKeyword(s string) bool {
	switch s {
	case "true", "false", "null", "undefined", "this", "new", "typeof", "void",
		"delete", "await", "yield", "function", "class", "super", "in", "instanceof":
		return true
	}
	return false
}

// findAssignOp locates the leftmost depth-zero assignment operator. It
// returns the operator's start position and text, or (-1, "").
func findAssignOp(src string) (int, string) {
	pos, op := -1, ""
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || src[i] != '=' {
			return true
		}
		if i+1 < len(src) && (src[i+1] == '=' || src[i+1] == '>') {
			return true
		}
		if i == 0 {
			return true
		}
		prev := src[i-1]
		switch prev {
		case '=', '!':
			return true
		case '<':
			if i >= 2 && src[i-2] == '<' {
				pos, op = i-2, "<<="
				return false
			}
			return true // <=
		case '>':
			if i >= 2 && src[i-2] == '>' {
				if i >= 3 && src[i-3] == '>' {
					pos, op = i-3, ">>>="
				} else {
					pos, op = i-2, ">>="
				}
				return false
			}
			return true // >=
		case '*':
			if i >= 2 && src[i-2] == '*' {
				pos, op = i-2, "**="
			} else {
				pos, op = i-1, "*="
			}
			return false
		case '&':
			if i >= 2 && src[i-2] == '&' {
				pos, op = i-2, "&&="
			} else {
				pos, op = i-1, "&="
			}
			return false
		case '|':
			if i >= 2 && src[i-2] == '|' {
				pos, op = i-2, "||="
			} else {
				pos, op = i-1, "|="
			}
			return false
		case '?':
			if i >= 2 && src[i-2] == '?' {
				pos, op = i-2, "??="
				return false
			}
			return true
		case '+', '-', '/', '%', '^':
			pos, op = i-1, string(prev)+"="
			return false
		}
		pos, op = i, "="
		return false
	})
	return pos, op
}

// findTernaryQ returns the leftmost depth-zero '?' that opens a conditional
// (not ?. or ??), or -1.
func findTernaryQ(src string) int {
	qpos := -1
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || src[i] != '?' {
			return true
		}
		if i+1 < len(src) && (src[i+1] == '.' || src[i+1] == '?') {
			return true
		}
		if i > 0 && src[i-1] == '?' {
			return true
		}
		qpos = i
		return false
	})
	return qpos
}

func parseConditional(src string) (ast.Expression, error) {
	qpos := findTernaryQ(src)
	if qpos < 0 {
		return parseNullish(src)
	}
	// find the colon pairing this ?, counting nested ternaries
	cpos := -1
	ternDepth := 1
	scan.Walk(src[qpos+1:], func(j, depth int) bool {
		if depth != 0 {
			return true
		}
		i := qpos + 1 + j
		switch src[i] {
		case '?':
			if i+1 < len(src) && (src[i+1] == '.' || src[i+1] == '?') {
				return true
			}
			if src[i-1] == '?' {
				return true
			}
			ternDepth++
		case ':':
			ternDepth--
			if ternDepth == 0 {
				cpos = i
				return false
			}
		}
		return true
	})
	if cpos < 0 {
		return nil, errf("conditional missing : in %q", snippet(src))
	}
	test, err := parseNullish(strings.TrimSpace(src[:qpos]))
	if err != nil {
		return nil, err
	}
	cons, err := parseAssign(strings.TrimSpace(src[qpos+1 : cpos]))
	if err != nil {
		return nil, err
	}
	alt, err := parseAssign(strings.TrimSpace(src[cpos+1:]))
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}, nil
}

// splitRight finds the rightmost depth-zero operator accepted by classify
// (which returns the operator length at i, or 0) and returns its position
// and length, or (-1, 0).
func splitRight(src string, classify func(i int) int) (int, int) {
	pos, n := -1, 0
	scan.Walk(src, func(i, depth int) bool {
		if depth == 0 {
			if l := classify(i); l > 0 {
				pos, n = i, l
			}
		}
		return true
	})
	return pos, n
}

func logicalLevel(src, op string, next func(string) (ast.Expression, error)) (ast.Expression, error) {
	c := op[0]
	pos, n := splitRight(src, func(i int) int {
		if !strings.HasPrefix(src[i:], op) {
			return 0
		}
		if i > 0 && src[i-1] == c {
			return 0
		}
		after := i + len(op)
		if after < len(src) && (src[after] == c || src[after] == '=') {
			return 0
		}
		if i == 0 || after >= len(src) {
			return 0
		}
		return len(op)
	})
	if pos < 0 {
		return next(src)
	}
	left, err := logicalLevel(strings.TrimSpace(src[:pos]), op, next)
	if err != nil {
		return nil, err
	}
	right, err := next(strings.TrimSpace(src[pos+n:]))
	if err != nil {
		return nil, err
	}
	return &ast.LogicalExpression{Operator: op, Left: left, Right: right}, nil
}

func parseNullish(src string) (ast.Expression, error) {
	pos, n := splitRight(src, func(i int) int {
		if !strings.HasPrefix(src[i:], "??") {
			return 0
		}
		if i > 0 && src[i-1] == '?' {
			return 0
		}
		if i+2 < len(src) && (src[i+2] == '?' || src[i+2] == '=' || src[i+2] == '.') {
			return 0
		}
		return 2
	})
	if pos < 0 {
		return parseOr(src)
	}
	left, err := parseNullish(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseOr(strings.TrimSpace(src[pos+n:]))
	if err != nil {
		return nil, err
	}
	return &ast.LogicalExpression{Operator: "??", Left: left, Right: right}, nil
}

func parseOr(src string) (ast.Expression, error) {
	return logicalLevel(src, "||", parseAnd)
}

func parseAnd(src string) (ast.Expression, error) {
	return logicalLevel(src, "&&", parseBitOr)
}

func bitLevel(src string, c byte, next func(string) (ast.Expression, error)) (ast.Expression, error) {
	pos, _ := splitRight(src, func(i int) int {
		if src[i] != c {
			return 0
		}
		if i == 0 || i+1 >= len(src) {
			return 0
		}
		if src[i-1] == c || src[i+1] == c || src[i+1] == '=' {
			return 0
		}
		return 1
	})
	if pos < 0 {
		return next(src)
	}
	left, err := bitLevel(strings.TrimSpace(src[:pos]), c, next)
	if err != nil {
		return nil, err
	}
	right, err := next(strings.TrimSpace(src[pos+1:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: string(c), Left: left, Right: right}, nil
}

func parseBitOr(src string) (ast.Expression, error) {
	return bitLevel(src, '|', parseBitXor)
}

func parseBitXor(src string) (ast.Expression, error) {
	return bitLevel(src, '^', parseBitAnd)
}

func parseBitAnd(src string) (ast.Expression, error) {
	return bitLevel(src, '&', parseEquality)
}

func parseEquality(src string) (ast.Expression, error) {
	pos, n := splitRight(src, func(i int) int {
		c := src[i]
		if c != '=' && c != '!' {
			return 0
		}
		if i > 0 && strings.IndexByte("=!<>", src[i-1]) >= 0 {
			return 0
		}
		if strings.HasPrefix(src[i:], "===") || strings.HasPrefix(src[i:], "!==") {
			return 3
		}
		if strings.HasPrefix(src[i:], "==") || strings.HasPrefix(src[i:], "!=") {
			return 2
		}
		return 0
	})
	if pos < 0 {
		return parseRelational(src)
	}
	op := src[pos : pos+n]
	left, err := parseEquality(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseRelational(strings.TrimSpace(src[pos+n:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}, nil
}

func parseRelational(src string) (ast.Expression, error) {
	pos, n := splitRight(src, func(i int) int {
		switch src[i] {
		case '<':
			if i > 0 && src[i-1] == '<' {
				return 0
			}
			if i+1 < len(src) && src[i+1] == '<' {
				return 0
			}
			if i+1 < len(src) && src[i+1] == '=' {
				return 2
			}
			return 1
		case '>':
			if i > 0 && (src[i-1] == '>' || src[i-1] == '=') {
				return 0
			}
			if i+1 < len(src) && src[i+1] == '>' {
				return 0
			}
			if i+1 < len(src) && src[i+1] == '=' {
				return 2
			}
			return 1
		case 'i':
			for _, kw := range []string{"instanceof", "in"} {
				if wholeWordAt(src, i, kw) {
					return len(kw)
				}
			}
		}
		return 0
	})
	if pos < 0 {
		return parseShift(src)
	}
	op := src[pos : pos+n]
	left, err := parseRelational(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseShift(strings.TrimSpace(src[pos+n:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}, nil
}

// wholeWordAt reports whether word occupies src[i:] as a standalone word
// with non-empty text on both sides.
func wholeWordAt(src string, i int, word string) bool {
	if !strings.HasPrefix(src[i:], word) {
		return false
	}
	if i == 0 || isIdentChar(src[i-1]) {
		return false
	}
	end := i + len(word)
	if end >= len(src) || isIdentChar(src[end]) {
		return false
	}
	return true
}

func parseShift(src string) (ast.Expression, error) {
	pos, n := splitRight(src, func(i int) int {
		switch {
		case strings.HasPrefix(src[i:], ">>>"):
			if i+3 < len(src) && src[i+3] == '=' {
				return 0
			}
			return 3
		case strings.HasPrefix(src[i:], ">>"):
			if i > 0 && src[i-1] == '>' {
				return 0
			}
			if i+2 < len(src) && (src[i+2] == '>' || src[i+2] == '=') {
				return 0
			}
			return 2
		case strings.HasPrefix(src[i:], "<<"):
			if i > 0 && src[i-1] == '<' {
				return 0
			}
			if i+2 < len(src) && (src[i+2] == '<' || src[i+2] == '=') {
				return 0
			}
			return 2
		}
		return 0
	})
	if pos < 0 {
		return parseAdditive(src)
	}
	op := src[pos : pos+n]
	left, err := parseShift(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseAdditive(strings.TrimSpace(src[pos+n:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}, nil
}

func parseAdditive(src string) (ast.Expression, error) {
	pos, _ := splitRight(src, func(i int) int {
		c := src[i]
		if c != '+' && c != '-' {
			return 0
		}
		if i == 0 || i+1 >= len(src) {
			return 0
		}
		if src[i-1] == c || src[i+1] == c || src[i+1] == '=' {
			return 0
		}
		// exponent sign inside a numeric literal: 1e-5, 2.5E+10
		if (src[i-1] == 'e' || src[i-1] == 'E') && i >= 2 &&
			(isDigit(src[i-2]) || src[i-2] == '.') &&
			i+1 < len(src) && isDigit(src[i+1]) {
			return 0
		}
		// unary position: previous significant char is an operator or opener
		p := i - 1
		for p >= 0 && (src[p] == ' ' || src[p] == '\t' || src[p] == '\n' || src[p] == '\r') {
			p--
		}
		if p < 0 {
			return 0
		}
		if strings.IndexByte("+-*/%&|^<>=!?~(,[{:;", src[p]) >= 0 {
			return 0
		}
		// "typeof -x", "return -x" style keyword prefixes
		w := p
		for w >= 0 && isIdentChar(src[w]) {
			w--
		}
		switch src[w+1 : p+1] {
		case "typeof", "void", "delete", "in", "instanceof", "new", "await", "yield", "case", "of":
			return 0
		}
		return 1
	})
	if pos < 0 {
		return parseMultiplicative(src)
	}
	op := string(src[pos])
	left, err := parseAdditive(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseMultiplicative(strings.TrimSpace(src[pos+1:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseMultiplicative(src string) (ast.Expression, error) {
	pos, _ := splitRight(src, func(i int) int {
		c := src[i]
		if c != '*' && c != '/' && c != '%' {
			return 0
		}
		if i == 0 || i+1 >= len(src) {
			return 0
		}
		if c == '*' && (src[i-1] == '*' || src[i+1] == '*') {
			return 0
		}
		if src[i+1] == '=' {
			return 0
		}
		return 1
	})
	if pos < 0 {
		return parseExponent(src)
	}
	op := string(src[pos])
	left, err := parseMultiplicative(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseExponent(strings.TrimSpace(src[pos+1:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: op, Left: left, Right: right}, nil
}

// parseExponent handles **, which is right associative: split leftmost.
func parseExponent(src string) (ast.Expression, error) {
	pos := -1
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || !strings.HasPrefix(src[i:], "**") {
			return true
		}
		if i == 0 || (i > 0 && src[i-1] == '*') {
			return true
		}
		if i+2 < len(src) && (src[i+2] == '*' || src[i+2] == '=') {
			return true
		}
		pos = i
		return false
	})
	if pos < 0 {
		return parseUnary(src)
	}
	left, err := parseUnary(strings.TrimSpace(src[:pos]))
	if err != nil {
		return nil, err
	}
	right, err := parseExponent(strings.TrimSpace(src[pos+2:]))
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpression{Operator: "**", Left: left, Right: right}, nil
}

func parseUnary(src string) (ast.Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errf("empty expression")
	}
	if strings.HasPrefix(src, "++") || strings.HasPrefix(src, "--") {
		operand, err := parseUnary(src[2:])
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Operator: src[:2], Operand: operand, Prefix: true}, nil
	}
	switch src[0] {
	case '!', '~', '+', '-':
		operand, err := parseUnary(src[1:])
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: string(src[0]), Operand: operand}, nil
	}
	word := wordAt(src, 0)
	switch word {
	case "typeof", "void", "delete":
		operand, err := parseUnary(src[len(word):])
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: word, Operand: operand}, nil
	case "await":
		operand, err := parseUnary(src[len(word):])
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpression{Argument: operand}, nil
	}
	return parsePostfix(src)
}

// parsePostfix peels call, index and member suffixes off the right-hand end
// of src, bottoming out in parsePrimary.
func parsePostfix(src string) (ast.Expression, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errf("empty expression")
	}

	if wordAt(src, 0) == "new" && len(src) > 3 {
		if end := newExprEnd(src); end == len(src) {
			return parseNewExpression(src)
		}
		// a member or call suffix follows the constructed value; peel it
		// below and parse the constructor head on the recursive visit
	}

	if len(src) > 2 && (strings.HasSuffix(src, "++") || strings.HasSuffix(src, "--")) {
		operand, err := parsePostfix(src[:len(src)-2])
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Operator: src[len(src)-2:], Operand: operand, Prefix: false}, nil
	}

	if strings.HasSuffix(src, ")") {
		open := scan.LastIndexTopLevel(src, "(")
		if open < 0 {
			return nil, errf("stray ) in %q", snippet(src))
		}
		close, err := scan.MatchBracket(src, open)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close == len(src)-1 {
			if open == 0 {
				return parseExpression(src[1:close])
			}
			callee := strings.TrimSpace(src[:open])
			args, aerr := parseArgs(src[open+1 : close])
			if aerr != nil {
				return nil, aerr
			}
			return buildCall(callee, args)
		}
	}

	if strings.HasSuffix(src, "]") {
		open := scan.LastIndexTopLevel(src, "[")
		if open < 0 {
			return nil, errf("stray ] in %q", snippet(src))
		}
		close, err := scan.MatchBracket(src, open)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close == len(src)-1 && open > 0 {
			objSrc := strings.TrimSpace(src[:open])
			optional := false
			if strings.HasSuffix(objSrc, "?.") {
				optional = true
				objSrc = strings.TrimSpace(objSrc[:len(objSrc)-2])
			}
			inner := strings.TrimSpace(src[open+1 : close])
			if inner == "" {
				return nil, errf("empty index expression in %q", snippet(src))
			}
			obj, oerr := parsePostfix(objSrc)
			if oerr != nil {
				return nil, oerr
			}
			idx, ierr := parseExpression(inner)
			if ierr != nil {
				return nil, ierr
			}
			return &ast.MemberExpression{Object: obj, Index: idx, Computed: true, Optional: optional}, nil
		}
	}

	if dot := lastMemberDot(src); dot > 0 {
		prop := strings.TrimSpace(src[dot+1:])
		if isIdent(prop) {
			objSrc := strings.TrimSpace(src[:dot])
			optional := false
			if strings.HasSuffix(objSrc, "?") {
				optional = true
				objSrc = strings.TrimSpace(objSrc[:len(objSrc)-1])
			}
			if lit, ok := namespaceConstant(objSrc, prop); ok {
				return lit, nil
			}
			obj, err := parsePostfix(objSrc)
			if err != nil {
				return nil, err
			}
			if op, ok := memberShapes[prop]; ok {
				return &ast.BuiltinMember{Op: op, Recv: obj}, nil
			}
			return &ast.MemberExpression{Object: obj, Property: prop, Optional: optional}, nil
		}
	}

	return parsePrimary(src)
}

// lastMemberDot returns the rightmost depth-zero '.' that begins a member
// access (not a decimal point, not part of "..."), or -1.
func lastMemberDot(src string) int {
	best := -1
	scan.Walk(src, func(i, depth int) bool {
		if depth != 0 || src[i] != '.' {
			return true
		}
		if i+1 < len(src) && (src[i+1] == '.' || isDigit(src[i+1])) {
			return true
		}
		if i > 0 && src[i-1] == '.' {
			return true
		}
		// decimal point of a bare numeric literal: 1.5, 0.25e3
		if i > 0 && isDigit(src[i-1]) && isNumericHead(src[:i]) {
			return true
		}
		best = i
		return true
	})
	return best
}

// isNumericHead reports whether s is the integer part of a numeric literal.
func isNumericHead(s string) bool {
	j := len(s) - 1
	for j >= 0 && (isDigit(s[j]) || s[j] == '_') {
		j--
	}
	// all digits back to a non-identifier boundary
	return j < 0 || !isIdentChar(s[j])
}

func parseArgs(inner string) ([]ast.Expression, error) {
	parts := scan.SplitTopLevel(inner, ',')
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1] // trailing comma
	}
	var args []ast.Expression
	for _, part := range parts {
		if part == "" {
			return nil, errf("empty argument")
		}
		if strings.HasPrefix(part, "...") {
			arg, err := parseAssign(part[3:])
			if err != nil {
				return nil, err
			}
			args = append(args, &ast.SpreadElement{Argument: arg})
			continue
		}
		arg, err := parseAssign(part)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func parsePrimary(src string) (ast.Expression, error) {
	switch src {
	case "true":
		return &ast.BooleanLiteral{Value: true}, nil
	case "false":
		return &ast.BooleanLiteral{Value: false}, nil
	case "null":
		return &ast.NullLiteral{}, nil
	case "undefined":
		return &ast.UndefinedLiteral{}, nil
	case "this":
		return &ast.ThisExpression{}, nil
	case "NaN":
		return &ast.FloatLiteral{Value: math.NaN()}, nil
	case "Infinity":
		return &ast.FloatLiteral{Value: math.Inf(1)}, nil
	}

	word := wordAt(src, 0)
	switch word {
	case "function":
		fn, next, err := parseFunctionFrom(src, 0, false)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(src[next:]) != "" {
			return nil, errf("unexpected text after function expression: %q", snippet(src[next:]))
		}
		return fn, nil
	case "async":
		j := skipSpace(src, len("async"))
		if wordAt(src, j) == "function" {
			fn, next, err := parseFunctionFrom(src, j, true)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(src[next:]) != "" {
				return nil, errf("unexpected text after function expression: %q", snippet(src[next:]))
			}
			return fn, nil
		}
	case "class":
		cls, next, err := parseClassFrom(src, 0)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(src[next:]) != "" {
			return nil, errf("unexpected text after class expression: %q", snippet(src[next:]))
		}
		return cls, nil
	}

	switch src[0] {
	case '\'', '"':
		return parseStringLiteral(src)
	case '`':
		return parseTemplateLiteral(src)
	case '/':
		return parseRegExpLiteral(src)
	case '(':
		close, err := scan.MatchBracket(src, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close == len(src)-1 {
			return parseExpression(src[1:close])
		}
	case '[':
		close, err := scan.MatchBracket(src, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close == len(src)-1 {
			return parseArrayLiteral(src[1:close])
		}
	case '{':
		close, err := scan.MatchBracket(src, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close == len(src)-1 {
			return parseObjectLiteral(src[1:close])
		}
	}

	if isDigit(src[0]) || (src[0] == '.' && len(src) > 1 && isDigit(src[1])) {
		return parseNumberLiteral(src)
	}
	if isIdent(src) {
		return &ast.Identifier{Name: src}, nil
	}
	return nil, errf("unexpected expression %q", snippet(src))
}

func parseStringLiteral(src string) (ast.Expression, error) {
	if len(src) < 2 || src[len(src)-1] != src[0] {
		return nil, errf("malformed string literal %q", snippet(src))
	}
	s, err := decodeEscapes(src[1 : len(src)-1])
	if err != nil {
		return nil, err
	}
	return &ast.StringLiteral{Value: s}, nil
}

func parseRegExpLiteral(src string) (ast.Expression, error) {
	end := len(src) - 1
	for end > 0 && isFlagLetter(src[end]) {
		end--
	}
	if end < 1 || src[end] != '/' {
		return nil, errf("malformed regular expression literal %q", snippet(src))
	}
	return &ast.RegExpLiteral{Pattern: src[1:end], Flags: src[end+1:]}, nil
}

func isFlagLetter(c byte) bool { return c >= 'a' && c <= 'z' }

func parseTemplateLiteral(src string) (ast.Expression, error) {
	if len(src) < 2 || src[len(src)-1] != '`' {
		return nil, errf("malformed template literal %q", snippet(src))
	}
	body := src[1 : len(src)-1]
	tpl := &ast.TemplateLiteral{}
	var quasi strings.Builder
	i := 0
	for i < len(body) {
		switch body[i] {
		case '\\':
			if i+1 >= len(body) {
				return nil, errf("dangling escape in template literal")
			}
			dec, n, err := decodeOneEscape(body[i:])
			if err != nil {
				return nil, err
			}
			quasi.WriteString(dec)
			i += n
		case '$':
			if i+1 < len(body) && body[i+1] == '{' {
				close, err := scan.MatchBracket(body, i+1)
				if err != nil {
					return nil, &Error{Msg: err.Error()}
				}
				inner := strings.TrimSpace(body[i+2 : close])
				if inner == "" {
					return nil, errf("empty template substitution")
				}
				expr, perr := parseExpression(inner)
				if perr != nil {
					return nil, perr
				}
				tpl.Quasis = append(tpl.Quasis, quasi.String())
				tpl.Expressions = append(tpl.Expressions, expr)
				quasi.Reset()
				i = close + 1
				continue
			}
			quasi.WriteByte('$')
			i++
		default:
			quasi.WriteByte(body[i])
			i++
		}
	}
	tpl.Quasis = append(tpl.Quasis, quasi.String())
	return tpl, nil
}

func decodeEscapes(s string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		dec, n, err := decodeOneEscape(s[i:])
		if err != nil {
			return "", err
		}
		b.WriteString(dec)
		i += n
	}
	return b.String(), nil
}

// decodeOneEscape decodes the escape sequence at the start of s (which
// begins with a backslash) and returns the decoded text and consumed length.
func decodeOneEscape(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 0, errf("dangling escape")
	}
	switch s[1] {
	case 'n':
		return "\n", 2, nil
	case 't':
		return "\t", 2, nil
	case 'r':
		return "\r", 2, nil
	case 'b':
		return "\b", 2, nil
	case 'f':
		return "\f", 2, nil
	case 'v':
		return "\v", 2, nil
	case '0':
		return "\x00", 2, nil
	case 'x':
		if len(s) < 4 {
			return "", 0, errf("malformed \\x escape")
		}
		n, err := strconv.ParseUint(s[2:4], 16, 8)
		if err != nil {
			return "", 0, errf("malformed \\x escape %q", s[:4])
		}
		return string(rune(n)), 4, nil
	case 'u':
		if len(s) >= 3 && s[2] == '{' {
			end := strings.IndexByte(s, '}')
			if end < 0 {
				return "", 0, errf("unterminated \\u{} escape")
			}
			n, err := strconv.ParseUint(s[3:end], 16, 32)
			if err != nil {
				return "", 0, errf("malformed \\u{} escape %q", s[:end+1])
			}
			return string(rune(n)), end + 1, nil
		}
		if len(s) < 6 {
			return "", 0, errf("malformed \\u escape")
		}
		n, err := strconv.ParseUint(s[2:6], 16, 32)
		if err != nil {
			return "", 0, errf("malformed \\u escape %q", s[:6])
		}
		return string(rune(n)), 6, nil
	default:
		return string(s[1]), 2, nil
	}
}

func parseNumberLiteral(src string) (ast.Expression, error) {
	text := strings.ReplaceAll(src, "_", "")
	if strings.HasSuffix(text, "n") {
		return &ast.BigIntLiteral{Text: text[:len(text)-1]}, nil
	}
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return &ast.NumberLiteral{Value: n}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errf("invalid number literal %q", snippet(src))
	}
	if math.IsInf(f, 0) {
		return nil, errf("number literal %q overflows", snippet(src))
	}
	if f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
		return &ast.NumberLiteral{Value: int64(f)}, nil
	}
	return &ast.FloatLiteral{Value: f}, nil
}

func parseArrayLiteral(inner string) (ast.Expression, error) {
	arr := &ast.ArrayLiteral{}
	parts := scan.SplitTopLevel(inner, ',')
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for _, part := range parts {
		if part == "" {
			arr.Elements = append(arr.Elements, nil) // elision
			continue
		}
		if strings.HasPrefix(part, "...") {
			arg, err := parseAssign(part[3:])
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, &ast.SpreadElement{Argument: arg})
			continue
		}
		el, err := parseAssign(part)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
	}
	return arr, nil
}

func parseObjectLiteral(inner string) (ast.Expression, error) {
	obj := &ast.ObjectLiteral{}
	for _, part := range scan.SplitTopLevel(inner, ',') {
		if part == "" {
			continue
		}
		prop, err := parseObjectProperty(part)
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, prop)
	}
	return obj, nil
}

func parseObjectProperty(part string) (*ast.Property, error) {
	if strings.HasPrefix(part, "...") {
		arg, err := parseAssign(part[3:])
		if err != nil {
			return nil, err
		}
		return &ast.Property{Value: arg, Spread: true}, nil
	}

	// computed key [expr]: value
	if part[0] == '[' {
		close, err := scan.MatchBracket(part, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		key, kerr := parseExpression(strings.TrimSpace(part[1:close]))
		if kerr != nil {
			return nil, kerr
		}
		rest := strings.TrimSpace(part[close+1:])
		if !strings.HasPrefix(rest, ":") {
			return nil, errf("expected : after computed property key")
		}
		val, verr := parseAssign(strings.TrimSpace(rest[1:]))
		if verr != nil {
			return nil, verr
		}
		return &ast.Property{Key: key, Value: val, Computed: true}, nil
	}

	colon := scan.IndexTopLevel(part, ":")
	if colon >= 0 {
		keyText := strings.TrimSpace(part[:colon])
		key, err := parsePropertyKey(keyText)
		if err != nil {
			return nil, err
		}
		val, verr := parseAssign(strings.TrimSpace(part[colon+1:]))
		if verr != nil {
			return nil, verr
		}
		return &ast.Property{Key: key, Value: val}, nil
	}

	// method shorthand: name(params) { body }
	if open := scan.IndexTopLevel(part, "("); open > 0 {
		name := strings.TrimSpace(part[:open])
		if isIdent(name) {
			close, err := scan.MatchBracket(part, open)
			if err != nil {
				return nil, &Error{Msg: err.Error()}
			}
			params, defaults, rest, perr := parseParams(part[open+1 : close])
			if perr != nil {
				return nil, perr
			}
			k := skipSpace(part, close+1)
			if k < len(part) && part[k] == '{' {
				bodyClose, berr := scan.MatchBracket(part, k)
				if berr != nil {
					return nil, &Error{Msg: berr.Error()}
				}
				stmts, serr := parseStatements(part[k+1 : bodyClose])
				if serr != nil {
					return nil, serr
				}
				return &ast.Property{
					Key: &ast.Identifier{Name: name},
					Value: &ast.FunctionLiteral{
						Name: name, Params: params, Defaults: defaults, Rest: rest,
						Body: &ast.BlockStatement{Statements: stmts},
					},
				}, nil
			}
		}
	}

	// shorthand {a}
	if !isIdent(part) {
		return nil, errf("malformed object property %q", snippet(part))
	}
	return &ast.Property{Key: &ast.Identifier{Name: part}, Value: &ast.Identifier{Name: part}}, nil
}

func parsePropertyKey(text string) (ast.Expression, error) {
	if text == "" {
		return nil, errf("empty property key")
	}
	if text[0] == '\'' || text[0] == '"' {
		return parseStringLiteral(text)
	}
	if isDigit(text[0]) {
		return parseNumberLiteral(text)
	}
	if !isIdent(text) {
		return nil, errf("invalid property key %q", snippet(text))
	}
	return &ast.Identifier{Name: text}, nil
}
