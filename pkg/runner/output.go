package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"aliesce/pkg/colors"
	"aliesce/pkg/settings"
	"aliesce/pkg/source"
	"aliesce/pkg/subset"
	"aliesce/pkg/tag"
)

// Version is the aliesce release version.
const Version = "1.1.0"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "aliesce v%s\n", Version)
}

// printUsage writes the help text: usage line, flag table and format notes.
func printUsage(w io.Writer) {
	printVersion(w)
	fmt.Fprintf(w, "\nUsage: aliesce [FLAGS] [SOURCE]\n\nFlags:\n")

	defs := flagDefs()
	width := 0
	for _, d := range defs {
		if n := len(d.Long) + len(strings.Join(d.Params, " ")); n > width {
			width = n
		}
	}
	for _, d := range defs {
		head := fmt.Sprintf("-%s, --%s %s", d.Short, d.Long, strings.Join(d.Params, " "))
		fmt.Fprintf(w, "  %-*s  %s\n", width+10, head, d.Desc)
	}

	m := tag.DefaultMarkers()
	fmt.Fprintf(w, "\nNotes:\n")
	fmt.Fprintf(w, "  The default source path is '%s'. Each script in the file is preceded by\n", settings.DefaultSourcePath)
	fmt.Fprintf(w, "  a tag line begun with the tag head ('%s') and an optional label closed\n", m.Head)
	fmt.Fprintf(w, "  by the tail ('%s'):\n\n", m.Tail)
	fmt.Fprintf(w, "    %s[ label %s] <OUTPUT EXTENSION / PATH: [[[.../]dirname/]stem.]ext> <COMMAND>\n\n", m.Head, m.Tail)
	fmt.Fprintf(w, "  Each script is saved under the output directory ('%s') with the source\n", settings.DefaultDestDir)
	fmt.Fprintf(w, "  file stem and the EXTENSION, or a PATH overriding stem and/or directory,\n")
	fmt.Fprintf(w, "  then the COMMAND is run with the save path appended. A '%s%s' in a COMMAND\n", m.PlaceOpen, m.PlaceClose)
	fmt.Fprintf(w, "  argument is replaced by the save path instead; '%sn%s' uses the save path\n", m.PlaceOpen, m.PlaceClose)
	fmt.Fprintf(w, "  of script no. n. The '%s' signal before the EXTENSION skips save and run,\n", m.Signal)
	fmt.Fprintf(w, "  before the COMMAND it skips run only. A leading '%s' in a PATH denotes the\n", m.PlaceDir)
	fmt.Fprintf(w, "  output directory. Piped file paths are appended as bypassed scripts.\n")
}

// printList prints number, label and raw tag content for each selected
// script, the whole of list mode.
func printList(w io.Writer, scripts []source.Script, sel subset.Set, m tag.Markers) {
	for _, sc := range scripts {
		if !sel.Has(sc.N) {
			continue
		}
		label, data := tag.SplitLabel(sc.Line, m)
		join := ""
		if label != "" {
			join = " " + label + ":"
		}
		fmt.Fprintf(w, "%d:%s %s\n", sc.N, join, data)
	}
}

// Outcome records what happened to one script in the pipeline.
type Outcome struct {
	N      int
	Label  string
	Path   string // resolved output path, if any
	Status string // bypassed / saved / saved, run skipped / ran
	Err    error  // unresolved reference, write failure or run failure
}

// printSummary writes the per-script outcome table and totals after the
// pipeline has finished.
func printSummary(w io.Writer, outcomes []Outcome, elapsed time.Duration) {
	fmt.Fprintf(w, "\n%s%s══════════════════════════════════════════%s\n", colors.Bold, colors.Cyan, colors.Reset)
	fmt.Fprintf(w, "%s%s  Run Summary%s\n", colors.Bold, colors.Cyan, colors.Reset)
	fmt.Fprintf(w, "%s%s══════════════════════════════════════════%s\n", colors.Bold, colors.Cyan, colors.Reset)

	failed := 0
	for _, o := range outcomes {
		name := fmt.Sprintf("no. %d", o.N)
		if o.Label != "" {
			name += " (" + o.Label + ")"
		}
		if o.Err != nil {
			failed++
			fmt.Fprintf(w, "  %s%-24s%s %sfailed%s  %v\n", colors.Dim, name, colors.Reset, colors.Red, colors.Reset, o.Err)
			continue
		}
		fmt.Fprintf(w, "  %s%-24s%s %s%s%s\n", colors.Dim, name, colors.Reset, colors.Green, o.Status, colors.Reset)
	}

	fmt.Fprintf(w, "  %s───────────────────────────────────────%s\n", colors.Dim, colors.Reset)
	fmt.Fprintf(w, "  %d scripts, %s%d failed%s, %s%s%s\n",
		len(outcomes), summaryFailColor(failed), failed, colors.Reset,
		colors.Yellow, elapsed.Round(time.Millisecond), colors.Reset)
}

func summaryFailColor(failed int) string {
	if failed > 0 {
		return colors.Red
	}
	return colors.Green
}
