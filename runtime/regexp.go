package runtime

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// RegExpValue wraps a compiled regexp2 pattern. regexp2 speaks the JS regex
// dialect (lookbehind, named groups, backreferences) that the standard
// library engine does not.
type RegExpValue struct {
	Source    string
	Flags     string
	Re        *regexp2.Regexp
	LastIndex int
}

// NewRegExp compiles source with JS flag characters.
func NewRegExp(source, flags string) (*Value, error) {
	var opts regexp2.RegexOptions = regexp2.ECMAScript
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	if strings.ContainsRune(flags, 's') {
		opts |= regexp2.Singleline
	}
	if strings.ContainsRune(flags, 'u') {
		opts |= regexp2.Unicode
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, fmt.Errorf("SyntaxError: invalid regular expression /%s/%s: %v", source, flags, err)
	}
	return &Value{Kind: KindRegExp, Re: &RegExpValue{Source: source, Flags: flags, Re: re}}, nil
}

// Global reports the g flag.
func (r *RegExpValue) Global() bool { return strings.ContainsRune(r.Flags, 'g') }

// Sticky reports the y flag.
func (r *RegExpValue) Sticky() bool { return strings.ContainsRune(r.Flags, 'y') }

// Match is one successful match: the text, its position and capture groups.
type Match struct {
	Text   string
	Index  int
	Groups []string // group 0 is the whole match
	Names  []string // parallel to Groups; "" for unnamed
}

// FindFrom runs the pattern from byte offset start. ok is false when there
// is no match.
func (r *RegExpValue) FindFrom(s string, start int) (Match, bool, error) {
	if start < 0 || start > len(s) {
		return Match{}, false, nil
	}
	m, err := r.Re.FindStringMatchStartingAt(s, start)
	if err != nil {
		return Match{}, false, fmt.Errorf("SyntaxError: regular expression error: %v", err)
	}
	if m == nil {
		return Match{}, false, nil
	}
	if r.Sticky() && m.Index != start {
		return Match{}, false, nil
	}
	out := Match{Text: m.String(), Index: m.Index}
	for _, g := range m.Groups() {
		out.Groups = append(out.Groups, g.String())
		out.Names = append(out.Names, g.Name)
	}
	return out, true, nil
}

// ReplaceAll substitutes every match (or the first, when first is true)
// using a literal replacement with $1.. and $& expansion handled by regexp2.
func (r *RegExpValue) ReplaceAll(s, repl string, first bool) (string, error) {
	count := -1
	if first {
		count = 1
	}
	out, err := r.Re.Replace(s, repl, 0, count)
	if err != nil {
		return "", fmt.Errorf("SyntaxError: regular expression error: %v", err)
	}
	return out, nil
}
