package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"aliesce/pkg/tag"
)

// BackupDirName is the directory holding the source backup while an edit
// rewrite is in flight. It is removed again once the write succeeds.
const BackupDirName = ".aliesce_tmp"

var (
	// ErrUnknownScript means an edit targeted a script number not in the file.
	ErrUnknownScript = errors.New("unknown script number")
	// ErrSourceExists means init found a file already at the source path.
	ErrSourceExists = errors.New("source file exists")
)

// EnsureHead prefixes line with the tag head unless it already carries one.
func EnsureHead(line string, m tag.Markers) string {
	if strings.HasPrefix(line, m.Head) {
		return line
	}
	return m.Head + " " + strings.TrimSpace(line)
}

// Push appends a tag line followed by the content read from scriptPath to the
// end of the source file. Existing scripts keep their numbers.
func Push(path, line, scriptPath string, m tag.Markers) (string, error) {
	body, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("not reading script file %q: %w", scriptPath, err)
	}
	tagged := EnsureHead(line, m)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("not appending to source file %q: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s\n\n%s", tagged, body); err != nil {
		return "", fmt.Errorf("not appending to source file %q: %w", path, err)
	}
	return tagged, nil
}

// Edit replaces the tag line of script number n in place, leaving its body
// untouched. The source is backed up under BackupDirName for the duration of
// the whole-file rewrite.
func Edit(path string, n int, line string, m tag.Markers) (string, error) {
	src, err := Load(path, m)
	if err != nil {
		return "", err
	}
	if n < 1 || n > len(src.Scripts) {
		return "", fmt.Errorf("%w: %d (source has %d)", ErrUnknownScript, n, len(src.Scripts))
	}

	tagged := EnsureHead(line, m)
	src.Scripts[n-1].Line = strings.TrimPrefix(tagged, m.Head)

	backup, err := backUp(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(src.Text(m)), 0644); err != nil {
		return "", fmt.Errorf("not writing updated source to %q (backup at %q): %w", path, backup, err)
	}
	if err := os.RemoveAll(BackupDirName); err != nil {
		return "", fmt.Errorf("not removing backup directory %q: %w", BackupDirName, err)
	}
	return tagged, nil
}

// backUp copies the source file into BackupDirName and returns the copy's
// path. ULIDs keep concurrent backups of the same stem apart and sortable.
func backUp(path string) (string, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dst := filepath.Join(BackupDirName, fmt.Sprintf("%s_%s%s", stem, ulid.Make().String(), ext))

	if err := os.MkdirAll(BackupDirName, 0755); err != nil {
		return "", fmt.Errorf("not creating backup directory %q: %w", BackupDirName, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("not backing up source %q: %w", path, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("not backing up source to %q: %w", dst, err)
	}
	return dst, nil
}

// Init creates a fresh source file at path, preloaded with format notes and
// one bypassed example section. It refuses to touch an existing file.
func Init(path, dest string, m tag.Markers) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrSourceExists, path)
	}
	return os.WriteFile(path, []byte(Template(path, dest, m)), 0644)
}

// Template returns the initial content written by Init. Lines other than the
// closing example are kept clear of the tag head so the preface parses as
// directives-plus-prose.
func Template(path, dest string, m tag.Markers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<any arguments to aliesce (run 'aliesce --help' for options)>\n\n")
	fmt.Fprintf(&b, "Notes on source file format:\n\n")
	fmt.Fprintf(&b, "Each script is preceded by a tag line begun with the tag head (%q)\n", m.Head)
	fmt.Fprintf(&b, "and an optional label closed by the tail (%q):\n\n", m.Tail)
	fmt.Fprintf(&b, "  %s[ label %s] <OUTPUT EXTENSION / PATH: [[[.../]dirname/]stem.]ext> <COMMAND>\n\n", m.Head, m.Tail)
	fmt.Fprintf(&b, "Each script is saved with the output directory (%q), the source file\n", dest)
	fmt.Fprintf(&b, "stem and the EXTENSION, or a PATH overriding stem and/or directory, then\n")
	fmt.Fprintf(&b, "the COMMAND is run with the save path appended. The %s%s placeholder in a\n", m.PlaceOpen, m.PlaceClose)
	fmt.Fprintf(&b, "COMMAND argument is replaced by the save path instead; with a script\n")
	fmt.Fprintf(&b, "number (%sn%s) the save path of that script is used.\n\n", m.PlaceOpen, m.PlaceClose)
	fmt.Fprintf(&b, "The %q signal before the EXTENSION etc. skips both the save and run\n", m.Signal)
	fmt.Fprintf(&b, "stages, or before the COMMAND skips run only. The %q placeholder at the\n", m.PlaceDir)
	fmt.Fprintf(&b, "start of a full PATH denotes the output directory.\n\n")
	fmt.Fprintf(&b, "One or more file paths can be piped to aliesce to append the content at\n")
	fmt.Fprintf(&b, "each to this file as a bypassed script.\n\n")
	fmt.Fprintf(&b, "%s example %s %s\n\n<script>\n", m.Head, m.Tail, m.Signal)
	return b.String()
}
