package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<div id="wrap" class="box shaded">
  <p id="msg">hello <b>world</b></p>
  <input id="name" type="text" value="initial">
  <input id="agree" type="checkbox" checked>
</div>
<form id="f">
  <input id="field" type="text">
  <button id="send" type="submit">Send</button>
</form>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	d, err := Parse(page)
	require.NoError(t, err)
	return d
}

func byID(t *testing.T, d *Document, id string) NodeID {
	t.Helper()
	n, ok := d.GetElementByID(id)
	require.True(t, ok, "no element with id %q", id)
	return n
}

func TestQuerySelector(t *testing.T) {
	d := parse(t)

	id, ok, err := d.QuerySelector("#wrap p")
	require.NoError(t, err)
	require.True(t, ok)
	tag, err := d.TagName(id)
	require.NoError(t, err)
	assert.Equal(t, "P", tag)

	_, ok, err = d.QuerySelector(".does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = d.QuerySelector("p[[")
	assert.Error(t, err, "malformed selector must be reported")
}

func TestQuerySelectorAll(t *testing.T) {
	d := parse(t)
	ids, err := d.QuerySelectorAll("input")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	scoped, err := d.QuerySelectorAllFrom(byID(t, d, "wrap"), "input")
	require.NoError(t, err)
	assert.Len(t, scoped, 2, "scoped query must not leave the subtree")
}

func TestAttributes(t *testing.T) {
	d := parse(t)
	wrap := byID(t, d, "wrap")

	v, ok, err := d.GetAttribute(wrap, "class")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "box shaded", v)

	_, ok, err = d.GetAttribute(wrap, "data-x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.SetAttribute(wrap, "data-x", "1"))
	v, ok, _ = d.GetAttribute(wrap, "data-x")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, d.RemoveAttribute(wrap, "data-x"))
	_, ok, _ = d.GetAttribute(wrap, "data-x")
	assert.False(t, ok)
}

func TestClassList(t *testing.T) {
	d := parse(t)
	wrap := byID(t, d, "wrap")

	has, err := d.ClassListContains(wrap, "box")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, d.ClassListAdd(wrap, "lit"))
	require.NoError(t, d.ClassListAdd(wrap, "lit")) // idempotent
	name, err := d.ClassName(wrap)
	require.NoError(t, err)
	assert.Equal(t, "box shaded lit", name)

	require.NoError(t, d.ClassListRemove(wrap, "shaded"))
	name, _ = d.ClassName(wrap)
	assert.Equal(t, "box lit", name)

	on, err := d.ClassListToggle(wrap, "flip", nil)
	require.NoError(t, err)
	assert.True(t, on)
	on, _ = d.ClassListToggle(wrap, "flip", nil)
	assert.False(t, on)

	force := false
	on, _ = d.ClassListToggle(wrap, "flip", &force)
	assert.False(t, on, "toggle with force=false never adds")
}

func TestTextContent(t *testing.T) {
	d := parse(t)
	msg := byID(t, d, "msg")

	text, err := d.TextContent(msg)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text, "nested element text concatenates")

	require.NoError(t, d.SetTextContent(msg, "replaced"))
	text, _ = d.TextContent(msg)
	assert.Equal(t, "replaced", text)

	// children are gone after a text write
	_, ok, err := d.QuerySelectorFrom(msg, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFormControlState(t *testing.T) {
	d := parse(t)
	name := byID(t, d, "name")
	agree := byID(t, d, "agree")

	v, err := d.Value(name)
	require.NoError(t, err)
	assert.Equal(t, "initial", v)

	require.NoError(t, d.SetValue(name, "typed"))
	v, _ = d.Value(name)
	assert.Equal(t, "typed", v)

	on, err := d.Checked(agree)
	require.NoError(t, err)
	assert.True(t, on, "checked attribute seeds the state")

	require.NoError(t, d.SetChecked(agree, false))
	on, _ = d.Checked(agree)
	assert.False(t, on)

	ctrl, err := d.IsFormControl(name)
	require.NoError(t, err)
	assert.True(t, ctrl)
	checkable, err := d.IsCheckable(name)
	require.NoError(t, err)
	assert.False(t, checkable)
	checkable, _ = d.IsCheckable(agree)
	assert.True(t, checkable)
}

func TestParentAndClosestForm(t *testing.T) {
	d := parse(t)
	field := byID(t, d, "field")

	form, ok, err := d.ClosestForm(field)
	require.NoError(t, err)
	require.True(t, ok)
	tag, _ := d.TagName(form)
	assert.Equal(t, "FORM", tag)

	_, ok, err = d.ClosestForm(byID(t, d, "msg"))
	require.NoError(t, err)
	assert.False(t, ok, "elements outside a form have no owner")

	parent, ok, err := d.Parent(byID(t, d, "msg"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byID(t, d, "wrap"), parent)
}

func TestCreateAppendRemove(t *testing.T) {
	d := parse(t)
	wrap := byID(t, d, "wrap")

	span := d.CreateElement("span")
	require.NoError(t, d.SetTextContent(span, "added"))
	require.NoError(t, d.AppendChild(wrap, span))

	id, ok, err := d.QuerySelector("#wrap span")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, span, id)

	require.NoError(t, d.RemoveChild(wrap, span))
	_, ok, _ = d.QuerySelector("#wrap span")
	assert.False(t, ok)
}

func TestAppendChildRejectsCycles(t *testing.T) {
	d := parse(t)
	wrap := byID(t, d, "wrap")
	msg := byID(t, d, "msg")
	assert.Error(t, d.AppendChild(msg, wrap), "appending an ancestor under its descendant")
	assert.Error(t, d.AppendChild(wrap, wrap), "appending a node under itself")
}

func TestAppendChildMovesNodes(t *testing.T) {
	d := parse(t)
	form := byID(t, d, "f")
	msg := byID(t, d, "msg")
	require.NoError(t, d.AppendChild(form, msg))
	parent, ok, err := d.Parent(msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, form, parent)
	_, ok, _ = d.QuerySelector("#wrap p")
	assert.False(t, ok, "node must leave its old parent")
}

func TestFocusTracking(t *testing.T) {
	d := parse(t)
	if _, ok := d.Focused(); ok {
		t.Fatal("nothing should be focused initially")
	}
	name := byID(t, d, "name")
	d.SetFocused(name)
	got, ok := d.Focused()
	require.True(t, ok)
	assert.Equal(t, name, got)
	d.SetFocused(0)
	_, ok = d.Focused()
	assert.False(t, ok)
}

func TestRenderReflectsMutations(t *testing.T) {
	d := parse(t)
	msg := byID(t, d, "msg")
	require.NoError(t, d.SetTextContent(msg, "rendered"))
	require.NoError(t, d.ClassListAdd(byID(t, d, "wrap"), "lit"))

	html, err := d.Render(byID(t, d, "wrap"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "rendered"), "render output: %s", html)
	assert.True(t, strings.Contains(html, "lit"), "render output: %s", html)
}

func TestStaleNodeIDRejected(t *testing.T) {
	d := parse(t)
	_, err := d.TagName(NodeID(99999))
	assert.Error(t, err)
}
