package interp

import (
	"testing"

	"github.com/example/pagejs/dom"
	"github.com/example/pagejs/sched"
)

const fixturePage = `<html><body>
<div id="wrap" class="box">
  <p id="msg">hello</p>
  <button id="btn" type="button">Go</button>
  <input id="name" type="text" value="initial">
  <input id="agree" type="checkbox">
</div>
<form id="f">
  <input id="field" type="text">
  <button id="send">Send</button>
</form>
</body></html>`

func newPage(t *testing.T, src string) (*Interpreter, *dom.Document) {
	t.Helper()
	doc, err := dom.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return New(doc, sched.New()), doc
}

func mustNode(t *testing.T, doc *dom.Document, id string) dom.NodeID {
	t.Helper()
	n, ok := doc.GetElementByID(id)
	if !ok {
		t.Fatalf("no element with id %q", id)
	}
	return n
}

func TestDocumentQueries(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `console.log(document.getElementById("msg").textContent)`)
	wantConsole(t, in, "hello")

	in2, _ := newPage(t, fixturePage)
	runScript(t, in2, `
		console.log(document.querySelector("#wrap p").textContent);
		console.log(document.querySelectorAll("input").length);
		console.log(document.querySelector("#does-not-exist") === null);
	`)
	wantConsole(t, in2, "hello", "3", "true")
}

func TestElementReadsAndWrites(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		const p = document.getElementById("msg");
		p.textContent = "changed";
		const input = document.getElementById("name");
		input.value = "typed";
		console.log(p.textContent, input.value);
	`)
	wantConsole(t, in, "changed typed")
	got, err := doc.TextContent(mustNode(t, doc, "msg"))
	if err != nil || got != "changed" {
		t.Fatalf("textContent not persisted: %q %v", got, err)
	}
}

func TestAttributes(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `
		const el = document.getElementById("wrap");
		el.setAttribute("data-x", "1");
		console.log(el.getAttribute("data-x"));
		console.log(el.getAttribute("missing") === null);
		el.removeAttribute("data-x");
		console.log(el.getAttribute("data-x") === null);
	`)
	wantConsole(t, in, "1", "true", "true")
}

func TestClassList(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `
		const el = document.getElementById("wrap");
		console.log(el.classList.contains("box"));
		el.classList.add("lit");
		console.log(el.className);
		el.classList.remove("box");
		console.log(el.className);
		console.log(el.classList.toggle("flip"));
		console.log(el.classList.toggle("flip"));
		console.log(el.classList.toggle("flip", false));
	`)
	wantConsole(t, in, "true", "box lit", "lit", "true", "false", "false")
}

func TestStyleProperties(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `
		const el = document.getElementById("wrap");
		el.style.setProperty("color", "red");
		el.style.setProperty("display", "none");
		el.style.setProperty("color", "blue");
		console.log(el.getAttribute("style"));
		console.log(el.style.getPropertyValue("color"));
		console.log(el.style.getPropertyValue("missing") === "");
	`)
	wantConsole(t, in, "color: blue; display: none", "blue", "true")
}

func TestEventListeners(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		let count = 0;
		document.getElementById("btn").addEventListener("click", () => {
			count++;
			console.log("clicked " + count);
		});
	`)
	if err := in.Click(mustNode(t, doc, "btn")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := in.Click(mustNode(t, doc, "btn")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	wantConsole(t, in, "clicked 1", "clicked 2")
}

func TestRemoveEventListener(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		const handler = () => console.log("hit");
		const btn = document.getElementById("btn");
		btn.addEventListener("click", handler);
		btn.removeEventListener("click", handler);
	`)
	if err := in.Click(mustNode(t, doc, "btn")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	wantConsole(t, in)
}

func TestEventBubbling(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("btn").addEventListener("click", () => console.log("target"));
		document.getElementById("wrap").addEventListener("click", () => console.log("ancestor"));
	`)
	if err := in.Click(mustNode(t, doc, "btn")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	wantConsole(t, in, "target", "ancestor")
}

func TestCheckboxClickTogglesAndFiresChange(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("agree").addEventListener("change", (e) => {
			console.log("checked=" + e.target.checked);
		});
	`)
	box := mustNode(t, doc, "agree")
	if err := in.Click(box); err != nil {
		t.Fatalf("Click: %v", err)
	}
	on, err := doc.Checked(box)
	if err != nil || !on {
		t.Fatalf("checkbox should be checked: %v %v", on, err)
	}
	wantConsole(t, in, "checked=true")
}

func TestPreventDefaultStopsToggle(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("agree").addEventListener("click", (e) => e.preventDefault());
	`)
	box := mustNode(t, doc, "agree")
	if err := in.Click(box); err != nil {
		t.Fatalf("Click: %v", err)
	}
	on, err := doc.Checked(box)
	if err != nil || on {
		t.Fatalf("prevented click must not toggle, got %v %v", on, err)
	}
}

func TestSubmitButtonFiresFormSubmit(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("f").addEventListener("submit", () => console.log("submitted"));
	`)
	if err := in.Click(mustNode(t, doc, "send")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	wantConsole(t, in, "submitted")
}

func TestFocusBlurEvents(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("name").addEventListener("focus", () => console.log("focus name"));
		document.getElementById("name").addEventListener("blur", () => console.log("blur name"));
		document.getElementById("field").addEventListener("focus", () => console.log("focus field"));
	`)
	if err := in.Focus(mustNode(t, doc, "name")); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	// focusing another element blurs the first
	if err := in.Focus(mustNode(t, doc, "field")); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if err := in.Blur(mustNode(t, doc, "field")); err != nil {
		t.Fatalf("Blur: %v", err)
	}
	wantConsole(t, in, "focus name", "blur name", "focus field")
	if _, ok := doc.Focused(); ok {
		t.Fatal("expected no element focused")
	}
}

func TestCreateAndAppendElements(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `
		const li = document.createElement("span");
		li.textContent = "added";
		document.getElementById("wrap").appendChild(li);
		console.log(document.querySelector("#wrap span").textContent);
	`)
	wantConsole(t, in, "added")
}

func TestRemoveChild(t *testing.T) {
	in, _ := newPage(t, fixturePage)
	runScript(t, in, `
		const wrap = document.getElementById("wrap");
		wrap.removeChild(document.getElementById("msg"));
		console.log(document.getElementById("msg") === null);
	`)
	wantConsole(t, in, "true")
}

func TestDispatchCustomEvent(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("wrap").addEventListener("ping", (e) => {
			console.log("got " + e.detail.n);
		});
	`)
	_ = doc
	runScript(t, in, `
		const ev = new CustomEvent("ping", {detail: {n: 7}});
		document.getElementById("wrap").dispatchEvent(ev);
	`)
	wantConsole(t, in, "got 7")
}

func TestReentrantListenerGlobalConflict(t *testing.T) {
	// outer() runs against a pre-call snapshot of n, so its own read still
	// sees 0 even though the click listener bumped the global mid-call. The
	// listener's mutation must survive the outer frame's write-back because
	// outer never wrote n itself.
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		let n = 0;
		document.getElementById("btn").addEventListener("click", () => { n += 1; });
	`)
	runScript(t, in, `
		function outer() {
			document.getElementById("btn").click();
			return n;
		}
		console.log(outer());
	`)
	wantConsole(t, in, "0")
	if v, err := in.Run("n"); err != nil || v.Int != 1 {
		t.Fatalf("expected the listener's mutation to survive, got %v %v", v, err)
	}
	if err := in.Click(mustNode(t, doc, "btn")); err != nil {
		t.Fatalf("Click: %v", err)
	}
	v, err := in.Run("n")
	if err != nil {
		t.Fatalf("read n: %v", err)
	}
	if v.Int != 2 {
		t.Fatalf("expected n=2 after second click, got %s", v.Inspect())
	}
}

func TestListenerErrorPropagates(t *testing.T) {
	in, doc := newPage(t, fixturePage)
	runScript(t, in, `
		document.getElementById("btn").addEventListener("click", () => { throw new Error("listener boom"); });
	`)
	err := in.Click(mustNode(t, doc, "btn"))
	if err == nil {
		t.Fatal("expected listener error to surface")
	}
}
