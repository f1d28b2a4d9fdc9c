package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/example/pagejs/harness"
	"github.com/example/pagejs/runtime"
	"github.com/example/pagejs/testrunner"
)

const emptyPage = `<html><body></body></html>`

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: pagejs run <page.html> [options]\n")
	fmt.Fprintf(os.Stderr, "       pagejs scenarios <dir> [options]\n")
	fmt.Fprintf(os.Stderr, "       pagejs repl [page.html]\n")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "run":
		runPage(os.Args[2:])
	case "scenarios":
		runScenarios(os.Args[2:])
	case "repl":
		runRepl(os.Args[2:])
	default:
		usage()
	}
}

// runPage loads an HTML file, runs its scripts, flushes the timer queue
// and prints the console output.
func runPage(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	flush := fs.Bool("flush", true, "drain the timer queue after load")
	render := fs.Bool("render", false, "print the final document HTML")
	trace := fs.Bool("trace", false, "print the timer and event trace")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pagejs run <page.html>\n")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	page, err := harness.Load(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *flush {
		if err := page.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	for _, line := range page.Console() {
		fmt.Println(line)
	}
	if *trace {
		for _, line := range page.TraceLog() {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if *render {
		html, err := page.Render()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(html)
	}
}

// runScenarios executes every YAML scenario under a directory.
func runScenarios(args []string) {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	filter := fs.String("filter", "", "filter scenarios by path substring")
	verbose := fs.Bool("v", false, "verbose output (print each result)")
	fs.Parse(args)

	dir := "scenarios"
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: scenario directory not found at %s\n", dir)
		os.Exit(1)
	}

	cfg := testrunner.Config{Dir: dir, Filter: *filter, Verbose: *verbose}
	results, summary := testrunner.Run(cfg)

	if !*verbose {
		for _, r := range results {
			msg := ""
			if r.Message != "" {
				msg = " " + r.Message
			}
			fmt.Printf("%s %s%s\n", r.Result, r.Path, msg)
		}
	}

	fmt.Println()
	fmt.Println("=== Scenario Summary ===")
	fmt.Printf("Total:   %d\n", summary.Total)
	fmt.Printf("Passed:  %d\n", summary.Passed)
	fmt.Printf("Failed:  %d\n", summary.Failed)
	fmt.Printf("Skipped: %d\n", summary.Skipped)
	fmt.Printf("Errors:  %d\n", summary.Errors)
	fmt.Printf("Elapsed: %s\n", summary.Elapsed)

	if summary.Failed > 0 || summary.Errors > 0 {
		os.Exit(1)
	}
}

// runRepl opens an interactive prompt against a loaded page, or against an
// empty document when no file is given.
func runRepl(args []string) {
	src := emptyPage
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		src = string(data)
	}
	page, err := harness.Load(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, l := range page.Console() {
		fmt.Println(l)
	}
	printed := len(page.Console())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".pagejs_history")
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		v, err := page.Eval(input)
		if err != nil && strings.HasPrefix(err.Error(), "ScriptParse: ") {
			// not a single expression; run it as a statement list
			v = nil
			err = page.Script(input)
		}
		// logged lines appear before the result, in order
		for _, l := range page.Console()[printed:] {
			fmt.Println(l)
		}
		printed = len(page.Console())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		if v != nil && v.Kind != runtime.KindUndefined {
			fmt.Println(v.Inspect())
		}
	}
}
