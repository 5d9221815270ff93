package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	EnvConfigPath         = "GO22DOS_CONFIG"
	appDirName            = "go22dos"
)

// Keymap lists the keys bound to each command. Each entry accepts several
// alternatives, written the way Bubble Tea names keys ("j", "down", "tab").
type Keymap struct {
	GoToTopics []string `toml:"go_to_topics"`
	Quit       []string `toml:"quit"`
	Up         []string `toml:"up"`
	Down       []string `toml:"down"`
	Top        []string `toml:"top"`
	Bottom     []string `toml:"bottom"`
	Select     []string `toml:"select"`
	Toggle     []string `toml:"toggle"`
	Append     []string `toml:"append"`
	Delete     []string `toml:"delete"`
	Exit       []string `toml:"exit"`
	Commit     []string `toml:"commit"`
	Backspace  []string `toml:"backspace"`
}

// Theme holds lipgloss color values (ANSI numbers or hex).
type Theme struct {
	Regular      string `toml:"regular"`
	HighlightFg  string `toml:"highlight_fg"`
	HighlightBg  string `toml:"highlight_bg"`
	CheckboxTodo string `toml:"checkbox_todo"`
	CheckboxDone string `toml:"checkbox_done"`
	Other        string `toml:"other"`
}

type Log struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

type Config struct {
	Keys  Keymap `toml:"keys"`
	Theme Theme  `toml:"theme"`
	Log   Log    `toml:"log"`
}

// ResolveConfigPath picks the config file location: $GO22DOS_CONFIG, then
// the user config directory, then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects keymaps that leave a command unreachable.
func (c Config) Validate() error {
	k := c.Keys
	bindings := []struct {
		name string
		keys []string
	}{
		{"go_to_topics", k.GoToTopics},
		{"quit", k.Quit},
		{"up", k.Up},
		{"down", k.Down},
		{"top", k.Top},
		{"bottom", k.Bottom},
		{"select", k.Select},
		{"toggle", k.Toggle},
		{"append", k.Append},
		{"delete", k.Delete},
		{"exit", k.Exit},
		{"commit", k.Commit},
		{"backspace", k.Backspace},
	}
	var errs []error
	for _, b := range bindings {
		if len(b.keys) == 0 {
			errs = append(errs, fmt.Errorf("keys.%s: no key bound", b.name))
			continue
		}
		for _, key := range b.keys {
			if key == "" {
				errs = append(errs, fmt.Errorf("keys.%s: empty key", b.name))
			}
		}
	}
	return errors.Join(errs...)
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Keys: Keymap{
			GoToTopics: []string{"t"},
			Quit:       []string{"q"},
			Up:         []string{"k", "up"},
			Down:       []string{"j", "down"},
			Top:        []string{"g"},
			Bottom:     []string{"G"},
			Select:     []string{"s"},
			Toggle:     []string{"tab"},
			Append:     []string{"a"},
			Delete:     []string{"d"},
			Exit:       []string{"esc", "e"},
			Commit:     []string{"esc", "enter"},
			Backspace:  []string{"backspace"},
		},
		Theme: Theme{
			Regular:      "7",
			HighlightFg:  "0",
			HighlightBg:  "7",
			CheckboxTodo: "1",
			CheckboxDone: "2",
			Other:        "6",
		},
		Log: Log{
			Level: "info",
		},
	}
}
