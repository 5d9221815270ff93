package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("first load should return defaults, got %#v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(again, Default()) {
		t.Fatalf("written defaults do not round trip:\nwant: %#v\ngot:  %#v", Default(), again)
	}
}

func TestLoadOrCreatePartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	content := `
[keys]
down = ["n"]
toggle = ["x", "tab"]

[theme]
checkbox_done = "#00ff00"

[log]
path = "/tmp/go22dos.log"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !reflect.DeepEqual(cfg.Keys.Down, []string{"n"}) {
		t.Fatalf("down = %v, want [n]", cfg.Keys.Down)
	}
	if !reflect.DeepEqual(cfg.Keys.Toggle, []string{"x", "tab"}) {
		t.Fatalf("toggle = %v", cfg.Keys.Toggle)
	}
	if !reflect.DeepEqual(cfg.Keys.Up, Default().Keys.Up) {
		t.Fatalf("up should keep default, got %v", cfg.Keys.Up)
	}
	if cfg.Theme.CheckboxDone != "#00ff00" || cfg.Theme.CheckboxTodo != Default().Theme.CheckboxTodo {
		t.Fatalf("theme = %#v", cfg.Theme)
	}
	if cfg.Log.Path != "/tmp/go22dos.log" || cfg.Log.Level != "debug" {
		t.Fatalf("log = %#v", cfg.Log)
	}
}

func TestLoadOrCreateRejectsUnboundCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	if err := os.WriteFile(path, []byte("[keys]\nquit = []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadOrCreate(path)
	if err == nil || !strings.Contains(err.Error(), "keys.quit") {
		t.Fatalf("err = %v, want keys.quit error", err)
	}
}

func TestLoadOrCreateRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	if err := os.WriteFile(path, []byte("[keys\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadOrCreate(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestResolveConfigPathEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/go22dos.toml")
	if got := ResolveConfigPath(); got != "/etc/go22dos.toml" {
		t.Fatalf("ResolveConfigPath = %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := ResolveConfigPath(); filepath.Base(got) != DefaultConfigFileName {
		t.Fatalf("ResolveConfigPath = %q, want a %s path", got, DefaultConfigFileName)
	}
}
