package runner

import (
	"errors"
	"reflect"
	"testing"

	"aliesce/pkg/settings"
	"aliesce/pkg/tag"
)

func testConfig() *settings.Config {
	return &settings.Config{
		Source:  "src.txt",
		Dest:    "scripts",
		Markers: tag.DefaultMarkers(),
	}
}

func TestResolvePath(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name string
		spec string
		want string
	}{
		{"bare extension", "ext", "scripts/src.ext"},
		{"filename overrides stem", "script.ext", "scripts/script.ext"},
		{"multipart stem", "script.suffix1.suffix2.ext", "scripts/script.suffix1.suffix2.ext"},
		{"explicit directory", "dir/script.ext", "dir/script.ext"},
		{"directory placeholder", ">/script.ext", "scripts/script.ext"},
		{"placeholder with subdirectory", ">/elixir/script.exs", "scripts/elixir/script.exs"},
		{"extension under explicit dir", "dir/ext", "dir/src.ext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(tt.spec, cfg).String(); got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestResolvePath_DestOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Dest = "build"
	if got := ResolvePath("ext", cfg).String(); got != "build/src.ext" {
		t.Errorf("ResolvePath = %q, want build/src.ext", got)
	}
	if got := ResolvePath(">/sub/script.ext", cfg).String(); got != "build/sub/script.ext" {
		t.Errorf("ResolvePath = %q, want build/sub/script.ext", got)
	}
}

func TestSourceStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src.txt", "src"},
		{"dir/source.txt", "source"},
		{"noext", "noext"},
		{"a.b.txt", "a"},
	}
	for _, tt := range tests {
		if got := sourceStem(tt.path); got != tt.want {
			t.Errorf("sourceStem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func lexAll(t *testing.T, m tag.Markers, contents ...string) []*tag.Line {
	t.Helper()
	lines := make([]*tag.Line, len(contents))
	for i, c := range contents {
		l, err := tag.Lex(c, m)
		if err != nil {
			t.Fatalf("Lex(%q): %v", c, err)
		}
		lines[i] = l
	}
	return lines
}

func TestResolveCommand_AppendsOwnPathWithoutPlaceholder(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " exs elixir --flag value")
	reg := BuildRegistry(lines, cfg)

	prog, args, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if prog != "elixir" {
		t.Errorf("prog = %q, want elixir", prog)
	}
	if want := []string{"--flag", "value", "scripts/src.exs"}; !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestResolveCommand_BarePlaceholderIsCurrentScript(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " exs prog run >< now")
	reg := BuildRegistry(lines, cfg)

	_, args, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if want := []string{"run", "scripts/src.exs", "now"}; !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestResolveCommand_CrossReferenceEitherDirection(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers,
		" one.sh sh",
		" two.sh sh",
		" three.sh sh --prev=>1< --next=>2<",
	)
	reg := BuildRegistry(lines, cfg)

	// Script 3 references 1 and 2; a reference in script 1 to script 3
	// resolves just the same, since the registry covers the whole file.
	_, args, err := ResolveCommand(lines[2], 3, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("ResolveCommand: %v", err)
	}
	if want := []string{"--prev=scripts/one.sh", "--next=scripts/two.sh"}; !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}

	forward := lexAll(t, cfg.Markers, " one.sh sh >3<")[0]
	_, args, err = ResolveCommand(forward, 1, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("forward reference: %v", err)
	}
	if want := []string{"scripts/three.sh"}; !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestResolveCommand_UnresolvedReference(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " exs prog >9<")
	reg := BuildRegistry(lines, cfg)

	_, _, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	var uerr *UnresolvedRefError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %v, want UnresolvedRefError", err)
	}
	if uerr.Ref != 9 {
		t.Errorf("Ref = %d, want 9", uerr.Ref)
	}
}

func TestResolveCommand_Idempotent(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " exs prog run ><")
	reg := BuildRegistry(lines, cfg)

	_, first, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	_, second, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not idempotent: %v vs %v", first, second)
	}
}

func TestResolveCommand_NoProgram(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " exs")
	reg := BuildRegistry(lines, cfg)

	prog, args, err := ResolveCommand(lines[0], 1, reg, cfg.Markers)
	if err != nil || prog != "" || args != nil {
		t.Errorf("ResolveCommand = %q/%v/%v, want empty", prog, args, err)
	}
}

func TestBuildRegistry_SkipsPathlessScripts(t *testing.T) {
	cfg := testConfig()
	lines := lexAll(t, cfg.Markers, " one.sh sh", " !")
	reg := BuildRegistry(lines, cfg)

	if _, ok := reg[1]; !ok {
		t.Error("script 1 missing from registry")
	}
	if _, ok := reg[2]; ok {
		t.Error("pathless bypassed script should not be in registry")
	}
}
