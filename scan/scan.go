// Package scan provides the depth-aware lexical cursor used by the parser.
// It walks raw source text while tracking string, template, regex and bracket
// nesting, so callers can locate operators and separators that occur at
// bracket depth zero without ever looking inside a literal.
package scan

import (
	"fmt"
	"strings"
)

// ErrUnterminated reports an unterminated string, template or regex literal.
type ErrUnterminated struct {
	What string
	Pos  int
}

func (e *ErrUnterminated) Error() string {
	return fmt.Sprintf("SyntaxError: unterminated %s starting at offset %d", e.What, e.Pos)
}

// ErrUnbalanced reports mismatched brackets.
type ErrUnbalanced struct {
	Char byte
	Pos  int
}

func (e *ErrUnbalanced) Error() string {
	return fmt.Sprintf("SyntaxError: unbalanced %q at offset %d", e.Char, e.Pos)
}

// Walk calls fn(i, depth) for every byte position of src that lies outside
// string, template, regex and comment text. depth is the (), [], {} nesting
// level at that position; template ${ } substitutions count as one level.
// fn may return false to stop early. Walk reports unterminated literals and
// unbalanced brackets.
func Walk(src string, fn func(i, depth int) bool) error {
	depth := 0
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch c {
		case '\'', '"':
			end, err := skipQuoted(src, i)
			if err != nil {
				return err
			}
			i = end
			continue
		case '`':
			end, err := skipTemplateText(src, i, fn, &depth)
			if err != nil {
				return err
			}
			i = end
			continue
		case '/':
			if i+1 < n && src[i+1] == '/' {
				j := strings.IndexByte(src[i:], '\n')
				if j < 0 {
					return nil
				}
				i += j
				continue
			}
			if i+1 < n && src[i+1] == '*' {
				j := strings.Index(src[i+2:], "*/")
				if j < 0 {
					return &ErrUnterminated{What: "comment", Pos: i}
				}
				i += j + 4
				continue
			}
			if regexPossible(src, i) {
				end, err := skipRegex(src, i)
				if err != nil {
					return err
				}
				i = end
				continue
			}
			if !fn(i, depth) {
				return nil
			}
			i++
			continue
		case '(', '[', '{':
			if !fn(i, depth) {
				return nil
			}
			depth++
			i++
			continue
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return &ErrUnbalanced{Char: c, Pos: i}
			}
			if !fn(i, depth) {
				return nil
			}
			i++
			continue
		}
		if !fn(i, depth) {
			return nil
		}
		i++
	}
	if depth != 0 {
		return &ErrUnbalanced{Char: '(', Pos: n}
	}
	return nil
}

// skipQuoted returns the index just past a '...' or "..." literal.
func skipQuoted(src string, start int) (int, error) {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1, nil
		}
	}
	return 0, &ErrUnterminated{What: "string", Pos: start}
}

// skipTemplateText consumes a `...` literal, visiting ${ } substitution
// bodies through fn with the depth bumped by one.
func skipTemplateText(src string, start int, fn func(i, depth int) bool, depth *int) (int, error) {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1, nil
		case '$':
			if i+1 < len(src) && src[i+1] == '{' {
				end, err := matchFrom(src, i+1)
				if err != nil {
					return 0, err
				}
				inner := *depth + 1
				if err := Walk(src[i+2:end], func(j, d int) bool {
					return fn(i+2+j, inner+d)
				}); err != nil {
					return 0, err
				}
				i = end + 1
				continue
			}
			i++
		default:
			i++
		}
	}
	return 0, &ErrUnterminated{What: "template literal", Pos: start}
}

// skipRegex returns the index just past a /.../flags literal.
func skipRegex(src string, start int) (int, error) {
	inClass := false
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return 0, &ErrUnterminated{What: "regular expression", Pos: start}
		case '/':
			if !inClass {
				i++
				for i < len(src) && isFlagChar(src[i]) {
					i++
				}
				return i, nil
			}
		}
	}
	return 0, &ErrUnterminated{What: "regular expression", Pos: start}
}

func isFlagChar(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// regexPossible decides whether a '/' at pos starts a regex literal rather
// than a division, based on the previous significant character.
func regexPossible(src string, pos int) bool {
	i := pos - 1
	for i >= 0 && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i--
	}
	if i < 0 {
		return true
	}
	c := src[i]
	if strings.IndexByte("(,=:;!&|?{[+-*%<>~^", c) >= 0 {
		return true
	}
	// "return /re/" and friends
	for _, kw := range []string{"return", "typeof", "case", "in", "of", "new", "delete", "void", "do", "else"} {
		if i+1 >= len(kw) && src[i+1-len(kw):i+1] == kw {
			if i+1 == len(kw) || !isWordChar(src[i-len(kw)]) {
				return true
			}
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchFrom returns the index of the bracket matching the opener at open.
func matchFrom(src string, open int) (int, error) {
	var close byte
	switch src[open] {
	case '(':
		close = ')'
	case '[':
		close = ']'
	case '{':
		close = '}'
	default:
		return 0, fmt.Errorf("SyntaxError: not a bracket at offset %d", open)
	}
	depth := 0
	result := -1
	err := Walk(src[open:], func(i, d int) bool {
		c := src[open+i]
		if c == src[open] {
			depth++
		} else if c == close {
			depth--
			if depth == 0 {
				result = open + i
				return false
			}
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if result < 0 {
		return 0, &ErrUnbalanced{Char: src[open], Pos: open}
	}
	return result, nil
}

// MatchBracket returns the index of the bracket matching src[open].
func MatchBracket(src string, open int) (int, error) {
	return matchFrom(src, open)
}

// LastIndexTopLevel returns the start of the rightmost occurrence of op at
// bracket depth zero, or -1. Multi-byte operators are matched whole.
func LastIndexTopLevel(src, op string) int {
	best := -1
	Walk(src, func(i, depth int) bool {
		if depth == 0 && strings.HasPrefix(src[i:], op) {
			best = i
		}
		return true
	})
	return best
}

// IndexTopLevel returns the start of the leftmost occurrence of op at
// bracket depth zero, or -1.
func IndexTopLevel(src, op string) int {
	found := -1
	Walk(src, func(i, depth int) bool {
		if depth == 0 && strings.HasPrefix(src[i:], op) {
			found = i
			return false
		}
		return true
	})
	return found
}

// SplitTopLevel splits src at depth-zero occurrences of sep, trimming each
// piece. An empty src yields no pieces.
func SplitTopLevel(src string, sep byte) []string {
	var parts []string
	last := 0
	Walk(src, func(i, depth int) bool {
		if depth == 0 && src[i] == sep {
			parts = append(parts, strings.TrimSpace(src[last:i]))
			last = i + 1
		}
		return true
	})
	tail := strings.TrimSpace(src[last:])
	if len(parts) == 0 && tail == "" {
		return nil
	}
	parts = append(parts, tail)
	return parts
}

// CheckBalanced verifies brackets and literals in src are well formed.
func CheckBalanced(src string) error {
	return Walk(src, func(i, depth int) bool { return true })
}

// StripComments replaces // and /* */ comment text with spaces, preserving
// offsets and everything inside string, template and regex literals.
func StripComments(src string) string {
	out := []byte(src)
	i := 0
	n := len(src)
	for i < n {
		switch src[i] {
		case '\'', '"':
			end, err := skipQuoted(src, i)
			if err != nil {
				return string(out)
			}
			i = end
		case '`':
			end := skipTemplateRaw(src, i)
			if end < 0 {
				return string(out)
			}
			i = end
		case '/':
			if i+1 < n && src[i+1] == '/' {
				for i < n && src[i] != '\n' {
					out[i] = ' '
					i++
				}
			} else if i+1 < n && src[i+1] == '*' {
				j := strings.Index(src[i+2:], "*/")
				if j < 0 {
					j = n - i - 2
				}
				for k := i; k < i+j+4 && k < n; k++ {
					if src[k] != '\n' {
						out[k] = ' '
					}
				}
				i += j + 4
			} else if regexPossible(src, i) {
				end, err := skipRegex(src, i)
				if err != nil {
					return string(out)
				}
				i = end
			} else {
				i++
			}
		default:
			i++
		}
	}
	return string(out)
}

// skipTemplateRaw skips a template literal without visiting substitutions.
func skipTemplateRaw(src string, start int) int {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1
		case '$':
			if i+1 < len(src) && src[i+1] == '{' {
				end, err := matchFrom(src, i+1)
				if err != nil {
					return -1
				}
				i = end + 1
				continue
			}
			i++
		default:
			i++
		}
	}
	return -1
}
