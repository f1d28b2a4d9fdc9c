// Package dom holds the synthetic document scripts run against. The tree is
// the golang.org/x/net/html parse tree; elements are addressed by stable
// integer ids so the value layer can hold plain handles instead of pointers.
// Selector matching is delegated to cascadia.
package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID is a stable handle to one element of a Document.
type NodeID int

// overlay carries the live form-control state that diverges from the parsed
// attributes once a script or user interaction writes to it.
type overlay struct {
	value      string
	valueSet   bool
	checked    bool
	checkedSet bool
}

// Document is one parsed HTML document plus the id registry and form-control
// overlays.
type Document struct {
	root     *html.Node
	byID     map[NodeID]*html.Node
	ids      map[*html.Node]NodeID
	next     NodeID
	overlays map[NodeID]*overlay
	focused  NodeID // 0 when nothing has focus
}

// Parse builds a Document from HTML source.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("cannot parse document: %w", err)
	}
	return &Document{
		root:     root,
		byID:     make(map[NodeID]*html.Node),
		ids:      make(map[*html.Node]NodeID),
		overlays: make(map[NodeID]*overlay),
	}, nil
}

// register returns the stable id for n, assigning one on first sight.
func (d *Document) register(n *html.Node) NodeID {
	if id, ok := d.ids[n]; ok {
		return id
	}
	d.next++
	d.ids[n] = d.next
	d.byID[d.next] = n
	return d.next
}

func (d *Document) node(id NodeID) (*html.Node, error) {
	n, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown element handle %d", id)
	}
	return n, nil
}

func (d *Document) ov(id NodeID) *overlay {
	o, ok := d.overlays[id]
	if !ok {
		o = &overlay{}
		d.overlays[id] = o
	}
	return o
}

// QuerySelector returns the first element matching sel, or ok=false.
// An invalid selector is an error.
func (d *Document) QuerySelector(sel string) (NodeID, bool, error) {
	s, err := cascadia.Parse(sel)
	if err != nil {
		return 0, false, fmt.Errorf("invalid selector %q: %v", sel, err)
	}
	n := cascadia.Query(d.root, s)
	if n == nil {
		return 0, false, nil
	}
	return d.register(n), true, nil
}

// QuerySelectorAll returns every element matching sel in document order.
func (d *Document) QuerySelectorAll(sel string) ([]NodeID, error) {
	s, err := cascadia.Parse(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %v", sel, err)
	}
	var out []NodeID
	for _, n := range cascadia.QueryAll(d.root, s) {
		out = append(out, d.register(n))
	}
	return out, nil
}

// QuerySelectorFrom matches sel among the descendants of id.
func (d *Document) QuerySelectorFrom(id NodeID, sel string) (NodeID, bool, error) {
	scope, err := d.node(id)
	if err != nil {
		return 0, false, err
	}
	s, perr := cascadia.Parse(sel)
	if perr != nil {
		return 0, false, fmt.Errorf("invalid selector %q: %v", sel, perr)
	}
	n := cascadia.Query(scope, s)
	if n == nil {
		return 0, false, nil
	}
	return d.register(n), true, nil
}

// QuerySelectorAllFrom matches sel among the descendants of id.
func (d *Document) QuerySelectorAllFrom(id NodeID, sel string) ([]NodeID, error) {
	scope, err := d.node(id)
	if err != nil {
		return nil, err
	}
	s, perr := cascadia.Parse(sel)
	if perr != nil {
		return nil, fmt.Errorf("invalid selector %q: %v", sel, perr)
	}
	var out []NodeID
	for _, n := range cascadia.QueryAll(scope, s) {
		out = append(out, d.register(n))
	}
	return out, nil
}

// GetElementByID returns the element whose id attribute equals id.
func (d *Document) GetElementByID(id string) (NodeID, bool) {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attrValue(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return 0, false
	}
	return d.register(found), true
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// TagName returns the element's tag in upper case.
func (d *Document) TagName(id NodeID) (string, error) {
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(n.Data), nil
}

// GetAttribute returns the attribute value and whether it is present.
func (d *Document) GetAttribute(id NodeID, name string) (string, bool, error) {
	n, err := d.node(id)
	if err != nil {
		return "", false, err
	}
	name = strings.ToLower(name)
	return attrValue(n, name), hasAttr(n, name), nil
}

// SetAttribute sets or replaces an attribute.
func (d *Document) SetAttribute(id NodeID, name, value string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	name = strings.ToLower(name)
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return nil
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// RemoveAttribute drops an attribute if present.
func (d *Document) RemoveAttribute(id NodeID, name string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	name = strings.ToLower(name)
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return nil
		}
	}
	return nil
}

// ElementID returns the id attribute.
func (d *Document) ElementID(id NodeID) (string, error) {
	v, _, err := d.GetAttribute(id, "id")
	return v, err
}

// ClassName returns the class attribute text.
func (d *Document) ClassName(id NodeID) (string, error) {
	v, _, err := d.GetAttribute(id, "class")
	return v, err
}

// SetClassName replaces the class attribute text.
func (d *Document) SetClassName(id NodeID, v string) error {
	return d.SetAttribute(id, "class", v)
}

func (d *Document) classes(id NodeID) ([]string, error) {
	v, err := d.ClassName(id)
	if err != nil {
		return nil, err
	}
	return strings.Fields(v), nil
}

// ClassListContains reports whether class is present.
func (d *Document) ClassListContains(id NodeID, class string) (bool, error) {
	cs, err := d.classes(id)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if c == class {
			return true, nil
		}
	}
	return false, nil
}

// ClassListAdd appends class unless already present.
func (d *Document) ClassListAdd(id NodeID, class string) error {
	has, err := d.ClassListContains(id, class)
	if err != nil || has {
		return err
	}
	cs, _ := d.classes(id)
	return d.SetClassName(id, strings.Join(append(cs, class), " "))
}

// ClassListRemove drops class if present.
func (d *Document) ClassListRemove(id NodeID, class string) error {
	cs, err := d.classes(id)
	if err != nil {
		return err
	}
	out := cs[:0]
	for _, c := range cs {
		if c != class {
			out = append(out, c)
		}
	}
	return d.SetClassName(id, strings.Join(out, " "))
}

// ClassListToggle flips class membership, or forces it when force is set.
// It returns whether the class is present afterwards.
func (d *Document) ClassListToggle(id NodeID, class string, force *bool) (bool, error) {
	has, err := d.ClassListContains(id, class)
	if err != nil {
		return false, err
	}
	want := !has
	if force != nil {
		want = *force
	}
	if want == has {
		return want, nil
	}
	if want {
		return true, d.ClassListAdd(id, class)
	}
	return false, d.ClassListRemove(id, class)
}

// TextContent concatenates the text of all descendant text nodes.
func (d *Document) TextContent(id NodeID) (string, error) {
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String(), nil
}

// SetTextContent replaces every child with a single text node.
func (d *Document) SetTextContent(id NodeID, text string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

// Value reads the control's live value: the overlay when dirty, else the
// value attribute (or the text children for a textarea).
func (d *Document) Value(id NodeID) (string, error) {
	if o, ok := d.overlays[id]; ok && o.valueSet {
		return o.value, nil
	}
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	if n.DataAtom == atom.Textarea {
		return d.TextContent(id)
	}
	return attrValue(n, "value"), nil
}

// SetValue writes the control's live value without touching the attribute.
func (d *Document) SetValue(id NodeID, v string) error {
	if _, err := d.node(id); err != nil {
		return err
	}
	o := d.ov(id)
	o.value = v
	o.valueSet = true
	return nil
}

// Checked reads the control's live checkedness: the overlay when dirty,
// else presence of the checked attribute.
func (d *Document) Checked(id NodeID) (bool, error) {
	if o, ok := d.overlays[id]; ok && o.checkedSet {
		return o.checked, nil
	}
	n, err := d.node(id)
	if err != nil {
		return false, err
	}
	return hasAttr(n, "checked"), nil
}

// SetChecked writes the control's live checkedness.
func (d *Document) SetChecked(id NodeID, v bool) error {
	if _, err := d.node(id); err != nil {
		return err
	}
	o := d.ov(id)
	o.checked = v
	o.checkedSet = true
	return nil
}

// InputType returns the lower-cased type attribute, defaulting to "text"
// for inputs.
func (d *Document) InputType(id NodeID) (string, error) {
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	t := strings.ToLower(attrValue(n, "type"))
	if t == "" && n.DataAtom == atom.Input {
		t = "text"
	}
	return t, nil
}

// IsFormControl reports whether the element is an input, textarea or select.
func (d *Document) IsFormControl(id NodeID) (bool, error) {
	n, err := d.node(id)
	if err != nil {
		return false, err
	}
	switch n.DataAtom {
	case atom.Input, atom.Textarea, atom.Select:
		return true, nil
	}
	return false, nil
}

// IsCheckable reports whether the element is a checkbox or radio input.
func (d *Document) IsCheckable(id NodeID) (bool, error) {
	n, err := d.node(id)
	if err != nil {
		return false, err
	}
	if n.DataAtom != atom.Input {
		return false, nil
	}
	t := strings.ToLower(attrValue(n, "type"))
	return t == "checkbox" || t == "radio", nil
}

// Parent returns the parent element handle, or ok=false at the tree root.
func (d *Document) Parent(id NodeID) (NodeID, bool, error) {
	n, err := d.node(id)
	if err != nil {
		return 0, false, err
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return d.register(p), true, nil
		}
	}
	return 0, false, nil
}

// ClosestForm walks ancestors (the element included) to the nearest form.
func (d *Document) ClosestForm(id NodeID) (NodeID, bool, error) {
	n, err := d.node(id)
	if err != nil {
		return 0, false, err
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Form {
			return d.register(p), true, nil
		}
	}
	return 0, false, nil
}

// CreateElement returns a detached element of the given tag.
func (d *Document) CreateElement(tag string) NodeID {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.register(n)
}

// AppendChild attaches child as the last child of parent, detaching it from
// any previous parent first.
func (d *Document) AppendChild(parent, child NodeID) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	if isAncestor(c, p) {
		return fmt.Errorf("cannot append an ancestor as a child")
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	p.AppendChild(c)
	return nil
}

func isAncestor(candidate, of *html.Node) bool {
	for p := of; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// RemoveChild detaches child from parent. It is an error when child is not a
// child of parent.
func (d *Document) RemoveChild(parent, child NodeID) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	if c.Parent != p {
		return fmt.Errorf("node is not a child of the given parent")
	}
	p.RemoveChild(c)
	return nil
}

// Focused returns the element holding focus, or ok=false.
func (d *Document) Focused() (NodeID, bool) {
	if d.focused == 0 {
		return 0, false
	}
	return d.focused, true
}

// SetFocused records id as the focus holder; 0 clears focus.
func (d *Document) SetFocused(id NodeID) {
	d.focused = id
}

// Render renders the subtree rooted at id back to HTML.
func (d *Document) Render(id NodeID) (string, error) {
	n, err := d.node(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}
