// Package harness drives a loaded page the way a test would: click and type
// against the synthetic DOM, advance the virtual clock, and assert on the
// resulting document state. Scripts run through the interpreter; asserts are
// pure DOM reads.
package harness

import (
	"fmt"
	"strings"

	"github.com/example/pagejs/dom"
	"github.com/example/pagejs/interp"
	"github.com/example/pagejs/runtime"
	"github.com/example/pagejs/sched"
)

// inline on* attributes recognized at load time.
var attrEvents = []string{"click", "change", "input", "submit", "focus", "blur"}

// Page owns one loaded document plus its interpreter and scheduler.
type Page struct {
	Doc  *dom.Document
	Loop *sched.Loop
	In   *interp.Interpreter
}

// Options tune a page's execution limits. Zero values keep the defaults.
type Options struct {
	TraceLogLimit int `yaml:"traceLogLimit,omitempty"` // retained trace lines
	FlushLimit    int `yaml:"flushLimit,omitempty"`    // timer/microtask steps before Flush fails
	YieldCap      int `yaml:"yieldCap,omitempty"`      // generator yields before a runtime error
}

// Load parses html, runs every inline script body in document order, and
// registers on* attribute handlers. A script error aborts the load.
func Load(html string) (*Page, error) {
	return LoadWithOptions(html, Options{})
}

// LoadWithOptions is Load with explicit execution limits.
func LoadWithOptions(html string, opts Options) (*Page, error) {
	doc, err := dom.Parse(html)
	if err != nil {
		return nil, err
	}
	loop := sched.New()
	if opts.TraceLogLimit > 0 {
		loop.Trace().SetLimit(opts.TraceLogLimit)
	}
	if opts.FlushLimit > 0 {
		loop.FlushLimit = opts.FlushLimit
	}
	p := &Page{Doc: doc, Loop: loop, In: interp.New(doc, loop)}
	if opts.YieldCap > 0 {
		p.In.YieldCap = opts.YieldCap
	}
	if err := p.wireAttributeHandlers(); err != nil {
		return nil, err
	}
	scripts, err := doc.QuerySelectorAll("script")
	if err != nil {
		return nil, err
	}
	for _, id := range scripts {
		src, terr := doc.TextContent(id)
		if terr != nil {
			return nil, terr
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		if _, rerr := p.In.Run(src); rerr != nil {
			return nil, scriptError(rerr)
		}
	}
	return p, nil
}

func (p *Page) wireAttributeHandlers() error {
	all, err := p.Doc.QuerySelectorAll("*")
	if err != nil {
		return err
	}
	for _, id := range all {
		for _, event := range attrEvents {
			body, ok, aerr := p.Doc.GetAttribute(id, "on"+event)
			if aerr != nil {
				return aerr
			}
			if !ok || strings.TrimSpace(body) == "" {
				continue
			}
			fn, eerr := p.In.Eval("(event) => { " + body + " }")
			if eerr != nil {
				return scriptError(eerr)
			}
			p.In.Listen(id, event, fn)
		}
	}
	return nil
}

// scriptError folds interpreter failures into the two script error kinds.
// Parse errors already carry their prefix.
func scriptError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "ScriptParse: ") || strings.HasPrefix(msg, "ScriptRuntime: ") {
		return err
	}
	return fmt.Errorf("ScriptRuntime: %s", msg)
}

func (p *Page) find(sel string) (dom.NodeID, error) {
	id, ok, err := p.Doc.QuerySelector(sel)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no element matches %q", sel)
	}
	return id, nil
}

// Script runs src against the page.
func (p *Page) Script(src string) error {
	_, err := p.In.Run(src)
	return scriptError(err)
}

// Eval evaluates a single expression and returns its value.
func (p *Page) Eval(src string) (*runtime.Value, error) {
	v, err := p.In.Eval(src)
	return v, scriptError(err)
}

// Click clicks the first element matching sel, with default activation.
func (p *Page) Click(sel string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	return scriptError(p.In.Click(id))
}

// TypeText sets the control's value and dispatches an input event.
func (p *Page) TypeText(sel, text string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	if err := p.Doc.SetValue(id, text); err != nil {
		return err
	}
	_, derr := p.In.Dispatch(id, "input")
	return scriptError(derr)
}

// SetChecked forces the checked state and dispatches change when it moved.
func (p *Page) SetChecked(sel string, checked bool) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	was, err := p.Doc.Checked(id)
	if err != nil {
		return err
	}
	if was == checked {
		return nil
	}
	if err := p.Doc.SetChecked(id, checked); err != nil {
		return err
	}
	_, derr := p.In.Dispatch(id, "change")
	return scriptError(derr)
}

// Focus moves focus to the matched element.
func (p *Page) Focus(sel string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	return scriptError(p.In.Focus(id))
}

// Blur removes focus from the matched element.
func (p *Page) Blur(sel string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	return scriptError(p.In.Blur(id))
}

// Submit dispatches submit on the matched form, or on the form owning the
// matched control.
func (p *Page) Submit(sel string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	tag, err := p.Doc.TagName(id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(tag, "form") {
		form, ok, ferr := p.Doc.ClosestForm(id)
		if ferr != nil {
			return ferr
		}
		if !ok {
			return fmt.Errorf("%q does not belong to a form", sel)
		}
		id = form
	}
	_, derr := p.In.Dispatch(id, "submit")
	return scriptError(derr)
}

// Dispatch fires an event of the given type on the matched element.
func (p *Page) Dispatch(sel, event string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	_, derr := p.In.Dispatch(id, event)
	return scriptError(derr)
}

// AssertText checks the element's text content.
func (p *Page) AssertText(sel, want string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	got, err := p.Doc.TextContent(id)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("text of %q: expected %q, got %q", sel, want, got)
	}
	return nil
}

// AssertValue checks a form control's current value.
func (p *Page) AssertValue(sel, want string) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	got, err := p.Doc.Value(id)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("value of %q: expected %q, got %q", sel, want, got)
	}
	return nil
}

// AssertChecked checks a checkbox or radio state.
func (p *Page) AssertChecked(sel string, want bool) error {
	id, err := p.find(sel)
	if err != nil {
		return err
	}
	got, err := p.Doc.Checked(id)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checked of %q: expected %v, got %v", sel, want, got)
	}
	return nil
}

// AssertExists checks whether any element matches sel.
func (p *Page) AssertExists(sel string, want bool) error {
	_, ok, err := p.Doc.QuerySelector(sel)
	if err != nil {
		return err
	}
	if ok != want {
		return fmt.Errorf("exists %q: expected %v, got %v", sel, want, ok)
	}
	return nil
}

// AdvanceTime moves the virtual clock forward, firing due timers.
func (p *Page) AdvanceTime(delta int64) error {
	return scriptError(p.Loop.AdvanceTime(delta))
}

// AdvanceTimeTo moves the virtual clock to an absolute time.
func (p *Page) AdvanceTimeTo(target int64) error {
	return scriptError(p.Loop.AdvanceTimeTo(target))
}

// Flush drains the timer queue, bounded by the loop's step limit.
func (p *Page) Flush() error {
	return scriptError(p.Loop.Flush())
}

// PendingTimers returns the ids of timers not yet fired.
func (p *Page) PendingTimers() []int64 {
	return p.Loop.PendingTimers()
}

// Now returns the virtual clock in milliseconds.
func (p *Page) Now() int64 {
	return p.Loop.Now()
}

// TraceLog returns the recorded timer and event lifecycle lines.
func (p *Page) TraceLog() []string {
	return p.Loop.Trace().Lines()
}

// SetTraceLogLimit caps the trace log length.
func (p *Page) SetTraceLogLimit(n int) {
	p.Loop.Trace().SetLimit(n)
}

// Console returns everything the page logged.
func (p *Page) Console() []string {
	return p.In.Console
}

// Render returns the document serialized back to HTML.
func (p *Page) Render() (string, error) {
	root, ok, err := p.Doc.QuerySelector("html")
	if err != nil || !ok {
		return "", fmt.Errorf("no html root: %v", err)
	}
	return p.Doc.Render(root)
}
