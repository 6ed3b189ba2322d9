package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathPrefersNearestLocalConfig(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	projectRoot := filepath.Join(root, "project")
	deep := filepath.Join(projectRoot, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir deep: %v", err)
	}

	parentCfg := filepath.Join(projectRoot, ".agora", "config.json")
	if err := os.MkdirAll(filepath.Dir(parentCfg), 0o755); err != nil {
		t.Fatalf("mkdir parent cfg dir: %v", err)
	}
	if err := os.WriteFile(parentCfg, []byte(`{"version":1}`), 0o600); err != nil {
		t.Fatalf("write parent cfg: %v", err)
	}

	nearCfg := filepath.Join(projectRoot, "a", ".agora", "config.json")
	if err := os.MkdirAll(filepath.Dir(nearCfg), 0o755); err != nil {
		t.Fatalf("mkdir near cfg dir: %v", err)
	}
	if err := os.WriteFile(nearCfg, []byte(`{"version":1}`), 0o600); err != nil {
		t.Fatalf("write near cfg: %v", err)
	}

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer func() { _ = os.Chdir(prev) }()
	if err := os.Chdir(deep); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	got, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if got != nearCfg {
		t.Fatalf("Path() = %q, want %q", got, nearCfg)
	}
}

func TestPathFallsBackToHomeWhenNoLocalConfig(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	wd := filepath.Join(root, "work", "x", "y")
	if err := os.MkdirAll(wd, 0o755); err != nil {
		t.Fatalf("mkdir wd: %v", err)
	}

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer func() { _ = os.Chdir(prev) }()
	if err := os.Chdir(wd); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	got, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	want := filepath.Join(home, ".agora", "config.json")
	if got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
}

func TestSaveAndLoadRoundTripUnderHome(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", root)
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer func() { _ = os.Chdir(prev) }()
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	if _, ok := c.Default(); ok {
		t.Fatalf("expected no default server")
	}
	c.SetDefault("http://localhost:8080", "agora_ak_x", "alice")
	if err := Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st, err := os.Stat(filepath.Join(root, ".agora", "config.json"))
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("config mode = %v, want 0600", st.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	srv, ok := loaded.Default()
	if !ok || srv.Agent != "alice" || srv.APIKey != "agora_ak_x" {
		t.Fatalf("unexpected default server %+v", srv)
	}
}

func TestPathHonoursEnvOverride(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv(EnvPath, explicit)

	got, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	if got != explicit {
		t.Fatalf("Path() = %q, want %q", got, explicit)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Version != 1 || c.DefaultServer != "main" || c.Preferences["default_format"] != "table" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
