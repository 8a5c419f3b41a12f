// Package runner drives one aliesce invocation: it merges the option
// sources, dispatches the source-mutating actions, and walks each selected
// script through its save and run stages in file order.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"aliesce/pkg/colors"
	"aliesce/pkg/lock"
	"aliesce/pkg/settings"
	"aliesce/pkg/source"
	"aliesce/pkg/subset"
	"aliesce/pkg/tag"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Runner holds the collaborators of one invocation. Tests swap them out;
// New wires the real ones.
type Runner struct {
	Executor Executor
	Stdin    *os.File
	Out      io.Writer
	Err      io.Writer
}

// New creates a Runner wired to the process's stdio and OS executor.
func New() *Runner {
	return &Runner{
		Executor: OSExecutor{},
		Stdin:    os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
	}
}

// RunAndExit runs with the process arguments and exits with the result.
func (r *Runner) RunAndExit() {
	os.Exit(r.Run(os.Args[1:]))
}

// Run executes one invocation and returns its exit code.
func (r *Runner) Run(args []string) int {
	cliOpts, action, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v (run 'aliesce --help' for usage)\n", colors.Red, colors.Reset, err)
		return ExitUsage
	}

	if action.Version {
		printVersion(r.Out)
		return ExitOK
	}
	if action.Help {
		printUsage(r.Out)
		return ExitOK
	}

	userSettings, err := settings.Load()
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitUsage
	}

	// Base configuration, before any in-file directives are known. The
	// mutators and the stdin pipe use this: they rewrite the source rather
	// than read options out of it.
	base := settings.Effective(userSettings.Options(), settings.FromEnv(), cliOpts)

	if code, done := r.pushPipedPaths(base); done {
		return code
	}

	switch {
	case action.Init:
		return r.doInit(base)
	case action.Push != nil:
		return r.doPush(base, action.Push)
	}

	src, err := source.Load(base.Source, base.Markers)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}

	dirOpts, err := ParseDirectives(src.Preface)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitUsage
	}
	// In-file directives are the highest-precedence option source.
	cfg := settings.Effective(userSettings.Options(), settings.FromEnv(), cliOpts, dirOpts)

	if action.Edit != nil {
		return r.doEdit(cfg, action.Edit)
	}

	var sel subset.Set // nil selects all
	if cfg.Only != "" {
		sel, err = subset.Parse(cfg.Only)
		if err == nil {
			err = sel.Validate(len(src.Scripts))
		}
		if err != nil {
			fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
			return ExitUsage
		}
	}

	if cfg.List {
		printList(r.Out, src.Scripts, sel, cfg.Markers)
		return ExitOK
	}

	// Lex every tag line before any stage runs: a malformed tag aborts the
	// whole invocation with no partial output.
	lines := make([]*tag.Line, len(src.Scripts))
	for i, sc := range src.Scripts {
		l, err := tag.Lex(sc.Line, cfg.Markers)
		if err != nil {
			var perr *tag.ParseError
			if errors.As(err, &perr) {
				perr.LineNo = sc.LineNo
			}
			fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
			return ExitFailure
		}
		lines[i] = l
	}

	reg := BuildRegistry(lines, cfg)

	start := time.Now()
	var outcomes []Outcome
	for i, l := range lines {
		n := i + 1
		if !sel.Has(n) {
			continue
		}
		outcomes = append(outcomes, r.processScript(n, l, src.Scripts[i].Body, reg, cfg))
	}
	printSummary(r.Out, outcomes, time.Since(start))

	for _, o := range outcomes {
		if o.Err != nil {
			return ExitFailure
		}
	}
	return ExitOK
}

// processScript drives one script through its save and run stages. Failures
// are recorded in the outcome, never propagated: the pipeline continues with
// the next selected script.
func (r *Runner) processScript(n int, l *tag.Line, body string, reg Registry, cfg *settings.Config) Outcome {
	o := Outcome{N: n, Label: l.Label}

	if l.SkipSave {
		fmt.Fprintf(r.Err, "Bypassing script no. %d (%s applied)\n", n, cfg.Markers.Signal)
		o.Status = "bypassed"
		return o
	}

	path := reg[n]
	o.Path = path.String()

	// Resolve the command before writing anything: an unresolved reference
	// skips the script entirely.
	prog, args, err := ResolveCommand(l, n, reg, cfg.Markers)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		o.Err = err
		return o
	}

	if err := writeScript(path, body); err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		o.Err = err
		return o
	}
	fmt.Fprintf(r.Out, "%sSaved script no. %d to %s%s\n", colors.Dim, n, o.Path, colors.Reset)

	switch {
	case l.SkipRun:
		fmt.Fprintf(r.Err, "Not running file no. %d (%s applied)\n", n, cfg.Markers.Signal)
		o.Status = "saved, run skipped"
	case prog == "":
		fmt.Fprintf(r.Err, "Not running file no. %d (no command)\n", n)
		o.Status = "saved"
	default:
		if err := r.Executor.Run(prog, args); err != nil {
			o.Err = fmt.Errorf("running %s (exit %d): %w", prog, exitCode(err), err)
			fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, o.Err)
			return o
		}
		o.Status = "ran"
	}
	return o
}

// writeScript saves one body to its resolved path, creating parent
// directories as needed.
func writeScript(path OutputPath, body string) error {
	if err := os.MkdirAll(path.Dir, 0755); err != nil {
		return fmt.Errorf("creating directory %q: %w", path.Dir, err)
	}
	if err := os.WriteFile(path.String(), []byte(body), 0644); err != nil {
		return fmt.Errorf("writing script to %q: %w", path.String(), err)
	}
	return nil
}

// pushPipedPaths appends every file path piped on stdin as a bypassed
// script. Returns done=true when stdin was a pipe carrying paths, in which
// case the invocation is complete.
func (r *Runner) pushPipedPaths(cfg *settings.Config) (int, bool) {
	if r.Stdin == nil || term.IsTerminal(int(r.Stdin.Fd())) {
		return ExitOK, false
	}
	data, err := io.ReadAll(r.Stdin)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s reading stdin: %v\n", colors.Red, colors.Reset, err)
		return ExitFailure, true
	}
	paths := strings.Fields(strings.TrimRight(string(data), "\x00"))
	if len(paths) == 0 {
		return ExitOK, false
	}

	held, err := lock.Acquire(cfg.Source)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure, true
	}
	defer held.Release()

	for _, p := range paths {
		tagged, err := source.Push(cfg.Source, cfg.Markers.Signal, p, cfg.Markers)
		if err != nil {
			fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
			return ExitFailure, true
		}
		fmt.Fprintf(r.Out, "Appended tag line %q and content of %q to %q\n", tagged, p, cfg.Source)
	}
	return ExitOK, true
}

func (r *Runner) doInit(cfg *settings.Config) int {
	if err := source.Init(cfg.Source, cfg.Dest, cfg.Markers); err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}
	fmt.Fprintf(r.Out, "Created template source file at %q\n", cfg.Source)
	return ExitOK
}

func (r *Runner) doPush(cfg *settings.Config, p *PushArgs) int {
	held, err := lock.Acquire(cfg.Source)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}
	defer held.Release()

	tagged, err := source.Push(cfg.Source, p.Line, p.Path, cfg.Markers)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}
	fmt.Fprintf(r.Out, "Appended tag line %q and content of %q to %q\n", tagged, p.Path, cfg.Source)
	return ExitOK
}

func (r *Runner) doEdit(cfg *settings.Config, e *EditArgs) int {
	held, err := lock.Acquire(cfg.Source)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}
	defer held.Release()

	tagged, err := source.Edit(cfg.Source, e.N, e.Line, cfg.Markers)
	if err != nil {
		fmt.Fprintf(r.Err, "%sError:%s %v\n", colors.Red, colors.Reset, err)
		return ExitFailure
	}
	fmt.Fprintf(r.Out, "Updated tag line for script no. %d to %q\n", e.N, tagged)
	return ExitOK
}
