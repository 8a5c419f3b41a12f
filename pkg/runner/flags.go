package runner

import (
	"fmt"
	"strconv"
	"strings"

	"aliesce/pkg/settings"
)

// FlagDef describes one flag for parsing and for the help text.
type FlagDef struct {
	Long   string
	Short  string
	Params []string
	Desc   string
}

// flagDefs returns the full CLI surface in display order.
func flagDefs() []FlagDef {
	return []FlagDef{
		{"dest", "d", []string{"DIRNAME"}, "set the output directory ('" + settings.DefaultDestDir + "') to DIRNAME"},
		{"list", "l", nil, "print for each script in SOURCE its number and tag line content, without saving or running"},
		{"only", "o", []string{"SUBSET"}, "include only the scripts whose numbers appear in SUBSET, comma-separated and/or as ranges, e.g. -o 1,3-5"},
		{"push", "p", []string{"LINE", "PATH"}, "append to SOURCE LINE, adding the tag head if none, followed by the content at PATH, then exit"},
		{"edit", "e", []string{"N", "LINE"}, "update the tag line for script number N to LINE, adding the tag head if none, then exit"},
		{"init", "i", nil, "create the source file SOURCE ('" + settings.DefaultSourcePath + "') then exit"},
		{"version", "v", nil, "show name and version number then exit"},
		{"help", "h", nil, "show usage, flags available and notes then exit"},
	}
}

func (f FlagDef) matches(tok string) bool {
	return tok == "--"+f.Long || tok == "-"+f.Short
}

// PushArgs carries the --push operands.
type PushArgs struct {
	Line string
	Path string
}

// EditArgs carries the --edit operands.
type EditArgs struct {
	N    int
	Line string
}

// Action is a CLI-only operation that mutates the source file or prints and
// exits, mutually exclusive with the save/run pipeline.
type Action struct {
	Push    *PushArgs
	Edit    *EditArgs
	Init    bool
	Version bool
	Help    bool
}

// ParseArgs decodes the argument vector into a sparse option layer, any
// requested action, and the positional source path.
func ParseArgs(args []string) (*settings.Options, *Action, error) {
	opts := &settings.Options{}
	action := &Action{}

	take := func(i *int, flag FlagDef) (string, error) {
		*i++
		if *i >= len(args) {
			return "", fmt.Errorf("flag --%s expects %s", flag.Long, strings.Join(flag.Params, " "))
		}
		return args[*i], nil
	}

	defs := flagDefs()
	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch {
		case defs[0].matches(tok): // dest
			v, err := take(&i, defs[0])
			if err != nil {
				return nil, nil, err
			}
			opts.Dest = &v
		case defs[1].matches(tok): // list
			t := true
			opts.List = &t
		case defs[2].matches(tok): // only
			v, err := take(&i, defs[2])
			if err != nil {
				return nil, nil, err
			}
			opts.Only = &v
		case defs[3].matches(tok): // push
			line, err := take(&i, defs[3])
			if err != nil {
				return nil, nil, err
			}
			path, err := take(&i, defs[3])
			if err != nil {
				return nil, nil, err
			}
			action.Push = &PushArgs{Line: line, Path: path}
		case defs[4].matches(tok): // edit
			ns, err := take(&i, defs[4])
			if err != nil {
				return nil, nil, err
			}
			line, err := take(&i, defs[4])
			if err != nil {
				return nil, nil, err
			}
			n, err := strconv.Atoi(ns)
			if err != nil || n < 1 {
				return nil, nil, fmt.Errorf("flag --edit expects a script number, got %q", ns)
			}
			action.Edit = &EditArgs{N: n, Line: line}
		case defs[5].matches(tok): // init
			action.Init = true
		case defs[6].matches(tok): // version
			action.Version = true
		case defs[7].matches(tok): // help
			action.Help = true
		case strings.HasPrefix(tok, "-") && tok != "-":
			return nil, nil, fmt.Errorf("unknown flag %q", tok)
		default:
			if opts.Source != nil {
				return nil, nil, fmt.Errorf("unexpected argument %q", tok)
			}
			src := tok
			opts.Source = &src
		}
	}
	return opts, action, nil
}

// ParseDirectives scans the preface lines of a source file for option
// directives, using the same flag vocabulary as the CLI. Only the value
// options make sense inside a file; action flags and tokens that are not
// recognized flags are passed over, so prose above the first tag line (as
// written by --init) parses cleanly.
func ParseDirectives(preface []string) (*settings.Options, error) {
	opts := &settings.Options{}
	tokens := strings.Fields(strings.Join(preface, " "))

	defs := flagDefs()
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case defs[0].matches(tok): // dest
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("directive --dest expects DIRNAME")
			}
			i++
			opts.Dest = &tokens[i]
		case defs[1].matches(tok): // list
			t := true
			opts.List = &t
		case defs[2].matches(tok): // only
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("directive --only expects SUBSET")
			}
			i++
			opts.Only = &tokens[i]
		}
	}
	return opts, nil
}
