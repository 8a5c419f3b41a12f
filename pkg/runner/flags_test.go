package runner

import (
	"testing"
)

func TestParseArgs_ValueFlags(t *testing.T) {
	opts, action, err := ParseArgs([]string{"-d", "build", "--only", "1,3-5", "-l", "alt.txt"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Dest == nil || *opts.Dest != "build" {
		t.Errorf("Dest = %v, want build", opts.Dest)
	}
	if opts.Only == nil || *opts.Only != "1,3-5" {
		t.Errorf("Only = %v, want 1,3-5", opts.Only)
	}
	if opts.List == nil || !*opts.List {
		t.Errorf("List = %v, want true", opts.List)
	}
	if opts.Source == nil || *opts.Source != "alt.txt" {
		t.Errorf("Source = %v, want alt.txt", opts.Source)
	}
	if action.Push != nil || action.Edit != nil || action.Init || action.Version || action.Help {
		t.Errorf("unexpected action: %+v", action)
	}
}

func TestParseArgs_EmptyLeavesAllUnset(t *testing.T) {
	opts, _, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Source != nil || opts.Dest != nil || opts.List != nil || opts.Only != nil {
		t.Errorf("options set without flags: %+v", opts)
	}
}

func TestParseArgs_Push(t *testing.T) {
	_, action, err := ParseArgs([]string{"--push", "sh sh", "snippet.sh"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if action.Push == nil {
		t.Fatal("Push action not set")
	}
	if action.Push.Line != "sh sh" || action.Push.Path != "snippet.sh" {
		t.Errorf("Push = %+v", action.Push)
	}
}

func TestParseArgs_Edit(t *testing.T) {
	_, action, err := ParseArgs([]string{"-e", "2", "exs elixir"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if action.Edit == nil {
		t.Fatal("Edit action not set")
	}
	if action.Edit.N != 2 || action.Edit.Line != "exs elixir" {
		t.Errorf("Edit = %+v", action.Edit)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"dest missing value", []string{"-d"}},
		{"only missing value", []string{"--only"}},
		{"push missing path", []string{"-p", "sh sh"}},
		{"edit non-numeric N", []string{"-e", "x", "sh sh"}},
		{"edit zero N", []string{"-e", "0", "sh sh"}},
		{"second positional", []string{"one.txt", "two.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseArgs(tt.args); err == nil {
				t.Errorf("ParseArgs(%v) succeeded, want error", tt.args)
			}
		})
	}
}

func TestParseDirectives(t *testing.T) {
	opts, err := ParseDirectives([]string{"--dest build", "--only 2"})
	if err != nil {
		t.Fatalf("ParseDirectives: %v", err)
	}
	if opts.Dest == nil || *opts.Dest != "build" {
		t.Errorf("Dest = %v, want build", opts.Dest)
	}
	if opts.Only == nil || *opts.Only != "2" {
		t.Errorf("Only = %v, want 2", opts.Only)
	}
}

func TestParseDirectives_ProseIgnored(t *testing.T) {
	// The init template puts usage notes above the first tag line; anything
	// that is not a recognized option must parse as a no-op.
	opts, err := ParseDirectives([]string{
		"Aliesce source file.",
		"Any options, e.g. --dest build",
	})
	if err != nil {
		t.Fatalf("ParseDirectives: %v", err)
	}
	if opts.Dest == nil || *opts.Dest != "build" {
		t.Errorf("Dest = %v, want build", opts.Dest)
	}
	if opts.List != nil || opts.Only != nil {
		t.Errorf("prose set options: %+v", opts)
	}
}

func TestParseDirectives_MissingValue(t *testing.T) {
	if _, err := ParseDirectives([]string{"--dest"}); err == nil {
		t.Error("expected error for --dest without value")
	}
}
