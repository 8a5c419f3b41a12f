// Package tag lexes the one-line annotations that precede each script in an
// aliesce source file. A tag line carries an optional label, an output
// extension or path, skip signals for the save and run stages, and an
// optional command with its arguments.
package tag

import (
	"fmt"
	"strings"
)

// Markers holds the literal strings that delimit and punctuate tag lines.
// The zero value is not usable; start from DefaultMarkers.
type Markers struct {
	Head       string // begins a tag line
	Tail       string // closes an optional label after the head
	Signal     string // suppresses the save or run stage, by position
	PlaceDir   string // expands to the output directory in a path field
	PlaceOpen  string // opens a command placeholder
	PlaceClose string // closes a command placeholder
}

// DefaultMarkers returns the marker set aliesce ships with.
func DefaultMarkers() Markers {
	return Markers{
		Head:       "###",
		Tail:       "#",
		Signal:     "!",
		PlaceDir:   ">",
		PlaceOpen:  ">",
		PlaceClose: "<",
	}
}

// Line is the lexed form of one tag line.
type Line struct {
	Label    string   // free text between head and tail, trimmed; empty if no tail
	PathSpec string   // extension, filename or path; may be empty on skip-save lines
	SkipSave bool     // signal found in the path slot; implies SkipRun
	SkipRun  bool     // signal found between path and command
	Program  string   // empty means save only
	Args     []string // verbatim, placeholder tokens kept literal
}

// ParseError reports a tag line that could not be lexed. LineNo is the
// 1-based line number within the source file, or 0 when unknown.
type ParseError struct {
	LineNo int
	Reason string
}

func (e *ParseError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("malformed tag line %d: %s", e.LineNo, e.Reason)
	}
	return fmt.Sprintf("malformed tag line: %s", e.Reason)
}

// IsTag reports whether line opens a new script section.
func IsTag(line string, m Markers) bool {
	return strings.HasPrefix(line, m.Head)
}

// SplitLabel separates the optional label from the field portion of the
// content after the tag head. List mode needs only this shallow split, so it
// works even on lines whose fields would not lex.
func SplitLabel(content string, m Markers) (label, data string) {
	if i := strings.Index(content, m.Tail); i >= 0 {
		return strings.TrimSpace(content[:i]), strings.TrimSpace(content[i+len(m.Tail):])
	}
	return "", strings.TrimSpace(content)
}

// Lex parses the content of a tag line, i.e. everything after the head
// marker. Fields are whitespace-separated: an optional skip-save signal, the
// path or extension, an optional skip-run signal, then the command program
// and arguments taken verbatim.
func Lex(content string, m Markers) (*Line, error) {
	label, data := SplitLabel(content, m)

	l := &Line{Label: label}

	fields := strings.Fields(data)
	if len(fields) == 0 {
		return nil, &ParseError{Reason: "no tag data"}
	}

	i := 0
	if fields[i] == m.Signal {
		// Signal in the path slot: the whole script is bypassed, and any
		// remaining fields are recorded but never acted on.
		l.SkipSave = true
		l.SkipRun = true
		i++
	}
	if i < len(fields) {
		l.PathSpec = fields[i]
		i++
	}
	if i < len(fields) && fields[i] == m.Signal {
		l.SkipRun = true
		i++
	}
	if i < len(fields) {
		l.Program = fields[i]
		l.Args = fields[i+1:]
	}
	return l, nil
}

// PlaceholderRef locates a command placeholder within a lexed line's
// arguments. N is the referenced script number; 0 stands for the script the
// line belongs to.
type PlaceholderRef struct {
	Arg   int    // index into Line.Args
	N     int    // referenced script number, 0 = current script
	Token string // literal placeholder text, e.g. "><" or ">2<"
}

// Placeholders scans the command arguments for output-path placeholders.
// At most one placeholder is recognized per argument; tokens between the
// open and close markers that are not a plain integer leave the argument
// untouched.
func (l *Line) Placeholders(m Markers) []PlaceholderRef {
	var refs []PlaceholderRef
	for i, arg := range l.Args {
		open := strings.Index(arg, m.PlaceOpen)
		if open < 0 {
			continue
		}
		end := strings.Index(arg[open+len(m.PlaceOpen):], m.PlaceClose)
		if end < 0 {
			continue
		}
		inner := arg[open+len(m.PlaceOpen) : open+len(m.PlaceOpen)+end]
		n := 0
		if inner != "" {
			n = parseUint(inner)
			if n < 0 {
				continue
			}
		}
		refs = append(refs, PlaceholderRef{
			Arg:   i,
			N:     n,
			Token: m.PlaceOpen + inner + m.PlaceClose,
		})
	}
	return refs
}

// parseUint returns the non-negative integer value of s, or -1 if s is not
// all digits. strconv.Atoi would also accept a sign, which must not make a
// token a placeholder.
func parseUint(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
