package harness

import (
	"strings"
	"testing"
)

func load(t *testing.T, html string) *Page {
	t.Helper()
	p, err := Load(html)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

const counterPage = `<html><body>
<p id="count">0</p>
<button id="bump">+1</button>
<script>
let n = 0;
document.getElementById("bump").addEventListener("click", () => {
  n++;
  document.getElementById("count").textContent = String(n);
});
</script>
</body></html>`

func TestLoadRunsInlineScripts(t *testing.T) {
	p := load(t, `<html><body><p id="x">old</p>
		<script>document.getElementById("x").textContent = "new";</script>
		</body></html>`)
	must(t, p.AssertText("#x", "new"))
}

func TestScriptsRunInDocumentOrder(t *testing.T) {
	p := load(t, `<html><body>
		<script>let order = "a";</script>
		<script>order += "b"; console.log(order);</script>
		</body></html>`)
	if got := p.Console(); len(got) != 1 || got[0] != "ab" {
		t.Fatalf("expected [ab], got %v", got)
	}
}

func TestClickUpdatesDocument(t *testing.T) {
	p := load(t, counterPage)
	must(t, p.Click("#bump"))
	must(t, p.Click("#bump"))
	must(t, p.AssertText("#count", "2"))
}

func TestOnAttributeHandlers(t *testing.T) {
	p := load(t, `<html><body>
		<p id="out">-</p>
		<button id="go" onclick='document.getElementById("out").textContent = "fired"'>Go</button>
		</body></html>`)
	must(t, p.Click("#go"))
	must(t, p.AssertText("#out", "fired"))
}

func TestTypeTextDispatchesInput(t *testing.T) {
	p := load(t, `<html><body>
		<input id="name" type="text">
		<p id="echo"></p>
		<script>
		document.getElementById("name").addEventListener("input", (e) => {
			document.getElementById("echo").textContent = e.target.value;
		});
		</script>
		</body></html>`)
	must(t, p.TypeText("#name", "Ada"))
	must(t, p.AssertValue("#name", "Ada"))
	must(t, p.AssertText("#echo", "Ada"))
}

func TestSetChecked(t *testing.T) {
	p := load(t, `<html><body>
		<input id="opt" type="checkbox">
		<script>
		let changes = 0;
		document.getElementById("opt").addEventListener("change", () => { changes++; });
		</script>
		</body></html>`)
	must(t, p.SetChecked("#opt", true))
	must(t, p.AssertChecked("#opt", true))
	// setting the same state again must not fire change
	must(t, p.SetChecked("#opt", true))
	v, err := p.Eval("changes")
	must(t, err)
	if v.Int != 1 {
		t.Fatalf("expected one change event, got %s", v.Inspect())
	}
}

func TestSubmitOnOwningForm(t *testing.T) {
	p := load(t, `<html><body>
		<form id="f"><input id="field" type="text"></form>
		<script>
		document.getElementById("f").addEventListener("submit", () => console.log("submit"));
		</script>
		</body></html>`)
	must(t, p.Submit("#field"))
	if got := p.Console(); len(got) != 1 || got[0] != "submit" {
		t.Fatalf("expected submit log, got %v", got)
	}
}

func TestAssertExists(t *testing.T) {
	p := load(t, `<html><body><div class="present"></div></body></html>`)
	must(t, p.AssertExists(".present", true))
	must(t, p.AssertExists(".absent", false))
	if err := p.AssertExists(".absent", true); err == nil {
		t.Fatal("expected assertion failure")
	}
}

func TestTimersThroughTheClock(t *testing.T) {
	p := load(t, `<html><body>
		<p id="status">waiting</p>
		<script>
		setTimeout(() => {
			document.getElementById("status").textContent = "done";
		}, 1000);
		</script>
		</body></html>`)
	must(t, p.AssertText("#status", "waiting"))
	must(t, p.AdvanceTime(999))
	must(t, p.AssertText("#status", "waiting"))
	must(t, p.AdvanceTime(1))
	must(t, p.AssertText("#status", "done"))
	if n := len(p.PendingTimers()); n != 0 {
		t.Fatalf("expected empty pending set, got %d", n)
	}
}

func TestFlushRunsChainedTimers(t *testing.T) {
	p := load(t, `<html><body>
		<p id="n">0</p>
		<script>
		let hops = 0;
		function hop() {
			hops++;
			document.getElementById("n").textContent = String(hops);
			if (hops < 3) setTimeout(hop, 10);
		}
		setTimeout(hop, 10);
		</script>
		</body></html>`)
	must(t, p.Flush())
	must(t, p.AssertText("#n", "3"))
	if p.Now() != 30 {
		t.Fatalf("expected clock at 30, got %d", p.Now())
	}
}

func TestLoadWithOptions(t *testing.T) {
	p, err := LoadWithOptions(`<html><body><script>
		function endless() { setTimeout(endless, 1); }
		endless();
		</script></body></html>`, Options{FlushLimit: 5, TraceLogLimit: 3})
	must(t, err)
	if err := p.Flush(); err == nil || !strings.Contains(err.Error(), "step limit") {
		t.Fatalf("expected the lowered flush limit to trip, got %v", err)
	}
	if n := len(p.TraceLog()); n != 3 {
		t.Fatalf("expected the trace capped at 3 lines, got %d", n)
	}
}

func TestRunawayIntervalFailsFlush(t *testing.T) {
	p := load(t, `<html><body><script>setInterval(() => {}, 1);</script></body></html>`)
	err := p.Flush()
	if err == nil || !strings.Contains(err.Error(), "ScriptRuntime") {
		t.Fatalf("expected ScriptRuntime step limit error, got %v", err)
	}
}

func TestScriptErrorKinds(t *testing.T) {
	_, err := Load(`<html><body><script>let x = ((;</script></body></html>`)
	if err == nil || !strings.HasPrefix(err.Error(), "ScriptParse: ") {
		t.Fatalf("expected ScriptParse error, got %v", err)
	}
	_, err = Load(`<html><body><script>missing();</script></body></html>`)
	if err == nil || !strings.HasPrefix(err.Error(), "ScriptRuntime: ") {
		t.Fatalf("expected ScriptRuntime error, got %v", err)
	}
	p := load(t, `<html><body></body></html>`)
	if err := p.Script("1n + 1"); err == nil || !strings.Contains(err.Error(), "TypeError") {
		t.Fatalf("expected BigInt mixing TypeError, got %v", err)
	}
}

func TestTraceLog(t *testing.T) {
	p := load(t, `<html><body><script>setTimeout(() => {}, 5);</script></body></html>`)
	must(t, p.AdvanceTime(5))
	joined := strings.Join(p.TraceLog(), "\n")
	if !strings.Contains(joined, "scheduled") || !strings.Contains(joined, "fired") {
		t.Fatalf("unexpected trace:\n%s", joined)
	}
	p.SetTraceLogLimit(1)
	if n := len(p.TraceLog()); n != 1 {
		t.Fatalf("expected trimmed trace of 1 line, got %d", n)
	}
}

func TestEvalReturnsValues(t *testing.T) {
	p := load(t, `<html><body><script>let theAnswer = 42;</script></body></html>`)
	v, err := p.Eval("theAnswer")
	must(t, err)
	if v.Int != 42 {
		t.Fatalf("expected 42, got %s", v.Inspect())
	}
}

func TestPromiseReactionsSettleWithinBurst(t *testing.T) {
	p := load(t, `<html><body>
		<p id="out">-</p>
		<button id="go">go</button>
		<script>
		document.getElementById("go").addEventListener("click", () => {
			Promise.resolve("settled").then((v) => {
				document.getElementById("out").textContent = v;
			});
		});
		</script>
		</body></html>`)
	must(t, p.Click("#go"))
	// the microtask drained before Click returned
	must(t, p.AssertText("#out", "settled"))
}
