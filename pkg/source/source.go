// Package source reads and rewrites aliesce source files: a preface of
// directive lines followed by tag-annotated script sections.
package source

import (
	"fmt"
	"os"
	"strings"

	"aliesce/pkg/tag"
)

// Script is one annotated unit of the source file. N is its 1-based position
// of appearance, the stable identity used by cross-references and subsets.
type Script struct {
	N      int
	LineNo int    // 1-based line number of the tag line in the file
	Line   string // tag line content after the head marker, unlexed
	Body   string // verbatim text up to the next tag line, trailing newline kept
}

// Source is a parsed source file.
type Source struct {
	Path    string
	Shebang string   // leading interpreter line, if any, kept out of the preface
	Preface []string // lines above the first tag line
	Scripts []Script
}

// Parse segments text into a preface and an ordered script list. Segmenting
// cannot fail; tag lines are lexed later, once, over the whole registry. A
// leading shebang line is kept apart from the preface so it never reads as a
// directive line but survives a rewrite.
func Parse(path, text string, m tag.Markers) *Source {
	src := &Source{Path: path}
	if text == "" {
		return src
	}

	hadNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	start := 0
	if strings.HasPrefix(lines[0], "#!") {
		src.Shebang = lines[0]
		start = 1
	}

	var cur *Script
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if tag.IsTag(line, m) {
			src.Scripts = append(src.Scripts, Script{
				N:      len(src.Scripts) + 1,
				LineNo: i + 1,
				Line:   line[len(m.Head):],
			})
			cur = &src.Scripts[len(src.Scripts)-1]
			continue
		}
		if cur == nil {
			src.Preface = append(src.Preface, line)
			continue
		}
		if i == len(lines)-1 && !hadNewline {
			cur.Body += line
		} else {
			cur.Body += line + "\n"
		}
	}
	return src
}

// Load reads and parses the source file at path.
func Load(path string, m tag.Markers) (*Source, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("not parsing source file %q: %w", path, err)
	}
	return Parse(path, string(text), m), nil
}

// Text reassembles the whole file from its parsed parts. Parse followed by
// Text reproduces the input for any file ending in a newline.
func (s *Source) Text(m tag.Markers) string {
	var b strings.Builder
	if s.Shebang != "" {
		b.WriteString(s.Shebang)
		b.WriteString("\n")
	}
	for _, line := range s.Preface {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, sc := range s.Scripts {
		b.WriteString(m.Head)
		b.WriteString(sc.Line)
		b.WriteString("\n")
		b.WriteString(sc.Body)
	}
	return b.String()
}
