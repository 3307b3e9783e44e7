package config

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestLoader(t *testing.T, home, cwd string, env map[string]string) *Loader {
	t.Helper()
	l := NewLoader(nil)
	l.homeDir = func() (string, error) { return home, nil }
	l.workDir = func() (string, error) { return cwd, nil }
	l.getenv = func(k string) string { return env[k] }
	return l
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoader_Layers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	cwd := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(cwd, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
site:
  root: "https://user.example"
  name: "User Site"
http:
  addr: ":7000"
`)
	// Found by searching upward from cwd.
	writeFile(t, filepath.Join(project, ProjectConfigFile), `
site:
  root: "https://project.example"
`)

	cfg, err := newTestLoader(t, home, cwd, map[string]string{EnvNATSURL: "nats://env:4222"}).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.Root != "https://project.example" {
		t.Errorf("project config should win over user config, got %s", cfg.Site.Root)
	}
	if cfg.Site.Name != "User Site" {
		t.Errorf("user config values not overridden should survive, got %s", cfg.Site.Name)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Errorf("expected addr from user config, got %s", cfg.HTTP.Addr)
	}
	if cfg.Storage.Backend != BackendNATS || cfg.Storage.NATSURL != "nats://env:4222" {
		t.Errorf("env should select the nats backend, got %+v", cfg.Storage)
	}
}

func TestLoader_EnvSiteRoot(t *testing.T) {
	cfg, err := newTestLoader(t, t.TempDir(), t.TempDir(), map[string]string{EnvSiteRoot: "https://env.example"}).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Site.Root != "https://env.example" {
		t.Errorf("expected env site root, got %s", cfg.Site.Root)
	}
}

func TestLoader_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t, t.TempDir(), dir, nil)

	l.File = filepath.Join(dir, "missing.yaml")
	if _, err := l.Load(); err == nil {
		t.Error("a missing explicit config file should be an error")
	}

	l.File = filepath.Join(dir, "custom.yaml")
	writeFile(t, l.File, "storage:\n  backend: postgres\n")
	if _, err := l.Load(); err == nil {
		t.Error("an invalid config should fail validation")
	}
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := newTestLoader(t, home, t.TempDir(), nil)

	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("user config not created: %v", err)
	}
	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("created user config should load: %v", err)
	}
}
