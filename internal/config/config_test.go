package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/quipucords/chaski/pkg/errors"
)

// isolate points every lookup location at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("GITHUB_TOKEN", "")
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, path, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want none", path)
	}
	want := Default()
	want.Cache.Dir = filepath.Join(dir, "cache", AppName)
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Upload {
		t.Error("upload should default to true")
	}
}

func TestLoadXDGFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", AppName, "config.yaml"), `
github:
  token: from-file
cache:
  ttl: 1h
  redis_url: redis://localhost:6379/0
dependencies_dir: /srv/deps
upload: false
`)

	cfg, path, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != filepath.Join(dir, "config", AppName, "config.yaml") {
		t.Errorf("path = %q", path)
	}
	if cfg.GitHub.Token != "from-file" || cfg.Cache.TTL != time.Hour || cfg.Cache.RedisURL != "redis://localhost:6379/0" || cfg.Upload {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if got := cfg.DependenciesPath("/distgit"); got != "/srv/deps" {
		t.Errorf("DependenciesPath = %q", got)
	}
}

func TestLoadLocalFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, LocalFile), "cargo_bin: /opt/cargo/bin/cargo\n")

	cfg, path, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != LocalFile || cfg.CargoBin != "/opt/cargo/bin/cargo" {
		t.Errorf("path = %q, cargo_bin = %q", path, cfg.CargoBin)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")
	writeFile(t, file, "crates:\n  api_url: https://file.example/api/v1\ncache:\n  ttl: 2h\n")
	t.Setenv("CHASKI_CRATES_API_URL", "https://env.example/api/v1")
	t.Setenv("CHASKI_UPLOAD", "false")
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	cfg, _, err := Load(LoadOptions{File: file})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crates.APIURL != "https://env.example/api/v1" {
		t.Errorf("crates.api_url = %q", cfg.Crates.APIURL)
	}
	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("cache.ttl = %s", cfg.Cache.TTL)
	}
	if cfg.Upload {
		t.Error("CHASKI_UPLOAD=false not applied")
	}
	if cfg.GitHub.Token != "ghp_env" {
		t.Errorf("github.token = %q", cfg.GitHub.Token)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, _, err := Load(LoadOptions{File: filepath.Join(dir, "nope.yaml")})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "cache: [\n"},
		{"negative ttl", "cache:\n  ttl: -1h\n"},
		{"bad url", "github:\n  api_url: ftp://example.com\n"},
		{"escaping dependencies dir", "dependencies_dir: ../outside\n"},
		{"empty binary", "rhpkg_bin: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			file := filepath.Join(dir, "c.yaml")
			writeFile(t, file, tt.body)
			if _, _, err := Load(LoadOptions{File: file}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDependenciesPathRelative(t *testing.T) {
	cfg := Default()
	if got, want := cfg.DependenciesPath("/work/discovery"), filepath.Join("/work/discovery", "dependencies"); got != want {
		t.Errorf("DependenciesPath = %q, want %q", got, want)
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/xdg/config", AppName) {
		t.Errorf("ConfigDir() = %q", dir)
	}

	cache, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if cache != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDir() = %q", cache)
	}
}
