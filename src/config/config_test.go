package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestLoadWritesDefaultFile(t *testing.T) {
	home := t.TempDir()
	cfg, err := load(home, nil, env(nil), io.Discard)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	var parsed File
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("default config is not valid YAML: %v", err)
	}
	if parsed != defaultFile() {
		t.Fatalf("default YAML drifted from defaults: %+v", parsed)
	}
	if cfg.Stack != project.StackVanilla || cfg.CommandDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(home, "data") || cfg.LogsDir() != filepath.Join(home, "data", "logs") {
		t.Fatalf("data dir not resolved against home: %s", cfg.DataDir)
	}
	if cfg.Headless() {
		t.Fatalf("no prompt should mean interactive mode")
	}
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	yamlText := strings.TrimSpace(`
version: 1
model: gemini-3-pro-preview
stack: react
data_dir: /srv/studio
command_delay: 2s
`)
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(yamlText), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(home, nil, env(map[string]string{"GOOGLE_API_KEY": " key "}), io.Discard)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Model != "gemini-3-pro-preview" || cfg.Stack != project.StackReact || cfg.DataDir != "/srv/studio" || cfg.CommandDelay != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.APIKey != "key" {
		t.Fatalf("GOOGLE_API_KEY fallback not applied: %q", cfg.APIKey)
	}

	cfg, err = load(home, []string{"--stack", "next", "-p", "make a todo app", "--command-delay", "10ms"},
		env(map[string]string{"GEMINI_API_KEY": "g", "GOOGLE_API_KEY": "o", ModelEnv: "custom-1"}), io.Discard)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.APIKey != "g" || cfg.Model != "custom-1" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Stack != project.StackNextJS || cfg.CommandDelay != 10*time.Millisecond || !cfg.Headless() {
		t.Fatalf("flags not applied: %+v", cfg)
	}

	cfg, err = load(home, []string{"--model", "flag-model"}, env(map[string]string{ModelEnv: "env-model"}), io.Discard)
	if err != nil || cfg.Model != "flag-model" {
		t.Fatalf("flag should win over env: %+v, %v", cfg, err)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	home := t.TempDir()
	if _, err := load(home, []string{"--stack", "svelte"}, env(nil), io.Discard); err == nil {
		t.Fatalf("expected unknown stack error")
	}
	if err := os.WriteFile(filepath.Join(home, "broken.yaml"), []byte("model: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := load(home, []string{"--config", filepath.Join(home, "broken.yaml")}, env(nil), io.Discard); err == nil {
		t.Fatalf("expected parse error")
	}
}
