// Package settings handles the layered configuration of one invocation:
// built-in defaults, the user settings file at ~/.aliesce/settings.yaml,
// ALIESCE_* environment overrides, CLI flags, and directive lines at the top
// of the source file, merged field by field in that order.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ai8future/chassis-go/v5/config"
	"gopkg.in/yaml.v3"

	"aliesce/pkg/tag"
)

const (
	ConfigDirName  = ".aliesce"
	ConfigFileName = "settings.yaml"

	DefaultSourcePath = "src.txt"
	DefaultDestDir    = "scripts"
)

// Settings is the persistent per-user defaults file. All fields are optional.
type Settings struct {
	Source string `yaml:"source,omitempty"` // default source file path
	Dest   string `yaml:"dest,omitempty"`   // default output directory
}

// EnvOverrides allows environment variables to slot in above the settings
// file and below CLI flags. All fields are optional.
type EnvOverrides struct {
	Source string `env:"ALIESCE_SOURCE" required:"false"`
	Dest   string `env:"ALIESCE_DEST" required:"false"`
}

// Options is one sparse option source; nil fields are unset and defer to the
// layer below.
type Options struct {
	Source *string
	Dest   *string
	List   *bool
	Only   *string
}

// Config is the single effective configuration for one invocation.
type Config struct {
	Source  string      // source file path; its stem doubles as the output stem
	Dest    string      // output directory
	List    bool        // print tag lines instead of saving and running
	Only    string      // subset expression; empty selects all scripts
	Markers tag.Markers // threaded through every component, never ambient
}

// Effective merges option layers lowest-precedence first over the built-in
// defaults, field by field. A later layer only wins for the fields it sets.
func Effective(layers ...*Options) *Config {
	cfg := &Config{
		Source:  DefaultSourcePath,
		Dest:    DefaultDestDir,
		Markers: tag.DefaultMarkers(),
	}
	for _, o := range layers {
		if o == nil {
			continue
		}
		if o.Source != nil {
			cfg.Source = *o.Source
		}
		if o.Dest != nil {
			cfg.Dest = *o.Dest
		}
		if o.List != nil {
			cfg.List = *o.List
		}
		if o.Only != nil {
			cfg.Only = *o.Only
		}
	}
	return cfg
}

// Options converts loaded user settings into a sparse option layer.
func (s *Settings) Options() *Options {
	o := &Options{}
	if s == nil {
		return o
	}
	if s.Source != "" {
		src := expandTilde(s.Source)
		o.Source = &src
	}
	if s.Dest != "" {
		dest := expandTilde(s.Dest)
		o.Dest = &dest
	}
	return o
}

// FromEnv loads environment overrides as a sparse option layer.
func FromEnv() *Options {
	env := config.MustLoad[EnvOverrides]()
	o := &Options{}
	if env.Source != "" {
		src := expandTilde(env.Source)
		o.Source = &src
	}
	if env.Dest != "" {
		dest := expandTilde(env.Dest)
		o.Dest = &dest
	}
	return o
}

// GetConfigDir returns the path to the config directory (~/.aliesce).
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME") // fallback for legacy systems
	}
	return filepath.Join(home, ConfigDirName)
}

// GetConfigPath returns the full path to settings.yaml.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// Load reads the user settings file. A missing file is not an error and
// yields empty settings; a present but unreadable or invalid file is.
func Load() (*Settings, error) {
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", GetConfigPath(), err)
	}
	return &s, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
		if home == "" {
			return path
		}
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
