package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"aliesce/pkg/settings"
	"aliesce/pkg/tag"
)

// UnresolvedRefError reports a command placeholder naming a script that has
// no output path in the registry.
type UnresolvedRefError struct {
	Script int // script whose command carries the placeholder
	Ref    int // referenced script number
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("script no. %d references no. %d, which has no output path", e.Script, e.Ref)
}

// OutputPath is the resolved output location of one script.
type OutputPath struct {
	Dir  string
	Stem string
	Ext  string
}

func (p OutputPath) String() string {
	return p.Dir + "/" + p.Stem + "." + p.Ext
}

// sourceStem returns the output stem derived from the source file name:
// the base name up to its first dot.
func sourceStem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// ResolvePath expands a tag line's path/extension field against the
// effective configuration. A bare extension takes the source stem and the
// output directory; a filename overrides the stem; leading path parts
// override the directory, with the directory placeholder expanding to the
// configured output directory.
func ResolvePath(spec string, cfg *settings.Config) OutputPath {
	parts := strings.Split(spec, "/")
	if parts[0] == cfg.Markers.PlaceDir {
		parts[0] = cfg.Dest
	}

	filename := parts[len(parts)-1]
	dirParts := parts[:len(parts)-1]

	fparts := strings.Split(filename, ".")
	p := OutputPath{Ext: fparts[len(fparts)-1]}
	if len(fparts) > 1 {
		p.Stem = strings.Join(fparts[:len(fparts)-1], ".")
	} else {
		p.Stem = sourceStem(cfg.Source)
	}
	if len(dirParts) > 0 {
		p.Dir = strings.Join(dirParts, "/")
	} else {
		p.Dir = cfg.Dest
	}
	return p
}

// Registry maps script numbers to resolved output paths. It always covers
// the whole file, never just the selected subset, so cross-references
// resolve regardless of declaration order or --only narrowing.
type Registry map[int]OutputPath

// BuildRegistry resolves the output path of every script that declares one.
// Bypassed scripts with a path field are included: their path is
// well-defined even on runs that skip writing it.
func BuildRegistry(lines []*tag.Line, cfg *settings.Config) Registry {
	reg := Registry{}
	for i, l := range lines {
		if l.PathSpec != "" && l.PathSpec != cfg.Markers.Signal {
			reg[i+1] = ResolvePath(l.PathSpec, cfg)
		}
	}
	return reg
}

// ResolveCommand expands the placeholders in script n's command arguments
// against the registry and returns the final program and argument list. When
// no argument carries a placeholder, the script's own output path is
// appended as the last argument. Resolution works on the lexed template, so
// resolving twice yields the same result.
func ResolveCommand(l *tag.Line, n int, reg Registry, m tag.Markers) (string, []string, error) {
	if l.Program == "" {
		return "", nil, nil
	}

	args := make([]string, len(l.Args))
	copy(args, l.Args)

	refs := l.Placeholders(m)
	for _, ref := range refs {
		target := ref.N
		if target == 0 {
			target = n
		}
		path, ok := reg[target]
		if !ok {
			return "", nil, &UnresolvedRefError{Script: n, Ref: target}
		}
		args[ref.Arg] = strings.Replace(args[ref.Arg], ref.Token, path.String(), 1)
	}

	if len(refs) == 0 {
		path, ok := reg[n]
		if !ok {
			return "", nil, &UnresolvedRefError{Script: n, Ref: n}
		}
		args = append(args, path.String())
	}
	return l.Program, args, nil
}
