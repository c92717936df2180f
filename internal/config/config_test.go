package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindEnvLocal_InCurrentDir(t *testing.T) {
	// Create temp directory structure
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=value"), 0644); err != nil {
		t.Fatal(err)
	}

	// Change to temp dir
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in current directory")
	}
}

func TestFindEnvLocal_InParentDir(t *testing.T) {
	// Create temp directory structure: parent/.env.local, parent/child/
	tmpDir := t.TempDir()
	childDir := filepath.Join(tmpDir, "child")
	if err := os.Mkdir(childDir, 0755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=parent"), 0644); err != nil {
		t.Fatal(err)
	}

	// Change to child dir
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(childDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in parent directory")
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(envPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	if resultResolved != expectedResolved {
		t.Errorf("expected %s, got %s", expectedResolved, resultResolved)
	}
}

func TestFindEnvLocal_InGrandparentDir(t *testing.T) {
	// Create: grandparent/.env.local, grandparent/parent/child/
	tmpDir := t.TempDir()
	parentDir := filepath.Join(tmpDir, "parent")
	childDir := filepath.Join(parentDir, "child")
	if err := os.MkdirAll(childDir, 0755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=grandparent"), 0644); err != nil {
		t.Fatal(err)
	}

	// Change to grandchild dir
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(childDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in grandparent directory")
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(envPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	if resultResolved != expectedResolved {
		t.Errorf("expected %s, got %s", expectedResolved, resultResolved)
	}
}

func TestFindEnvLocal_ClosestWins(t *testing.T) {
	// Create: grandparent/.env.local, grandparent/parent/.env.local, grandparent/parent/child/
	tmpDir := t.TempDir()
	parentDir := filepath.Join(tmpDir, "parent")
	childDir := filepath.Join(parentDir, "child")
	if err := os.MkdirAll(childDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Create .env.local in both grandparent and parent
	if err := os.WriteFile(filepath.Join(tmpDir, ".env.local"), []byte("TEST=grandparent"), 0644); err != nil {
		t.Fatal(err)
	}
	parentEnvPath := filepath.Join(parentDir, ".env.local")
	if err := os.WriteFile(parentEnvPath, []byte("TEST=parent"), 0644); err != nil {
		t.Fatal(err)
	}

	// Change to child dir
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(childDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(parentEnvPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	if resultResolved != expectedResolved {
		t.Errorf("expected closest .env.local (%s), got %s", expectedResolved, resultResolved)
	}
}

func TestFindEnvLocal_NotFound(t *testing.T) {
	// Create temp directory with no .env.local
	tmpDir := t.TempDir()

	// Change to temp dir
	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result != "" {
		t.Errorf("expected empty string when no .env.local found, got %s", result)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLASHSYNC_BASE_URL", "CLASHSYNC_API_KEY", "CLASHSYNC_API_KEY_FILE", "CLASHSYNC_SLUG",
		"CLASHSYNC_AUTH_SCHEME", "CLASHSYNC_TIMEOUT", "CLASHSYNC_CONFLICTS", "CLASHSYNC_START_ROW",
		"CLASHSYNC_JOURNAL", "CLASHSYNC_LOG_LEVEL", "CLASHSYNC_LOG_FORMAT", "CLASHSYNC_OUTPUT",
	} {
		t.Setenv(key, "")
	}
	// Keep the default ~/.config file and any .env.local out of the picture
	t.Setenv("HOME", t.TempDir())
	oldCwd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(oldCwd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthScheme != "Token" {
		t.Errorf("expected default auth scheme Token, got %q", cfg.AuthScheme)
	}
	if cfg.StartRow != 1 || cfg.Jobs != 1 || cfg.Retries != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if d, _ := cfg.RequestTimeout(); d != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", d)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clashsync.yaml")
	content := "base_url: https://tab.example/api/v1\nslug: wudc\napi_key: from-file\nstart_row: 292\nheader: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLASHSYNC_SLUG", "euros")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "https://tab.example/api/v1" {
		t.Errorf("expected base url from file, got %q", cfg.BaseURL)
	}
	if cfg.Slug != "euros" {
		t.Errorf("expected env to override slug, got %q", cfg.Slug)
	}
	if cfg.StartRow != 292 || !cfg.Header {
		t.Errorf("expected sheet settings from file, got start_row=%d header=%v", cfg.StartRow, cfg.Header)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clashsync.toml")
	content := "base_url = \"https://tab.example/api/v1\"\nslug = \"wudc\"\ntimeout = \"5s\"\ndelimiter = \"tab\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Slug != "wudc" {
		t.Errorf("expected slug from toml, got %q", cfg.Slug)
	}
	if d, _ := cfg.RequestTimeout(); d != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", d)
	}
	if r, _ := cfg.DelimiterRune(); r != '\t' {
		t.Errorf("expected tab delimiter, got %q", r)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoad_APIKeyFromFile(t *testing.T) {
	clearEnv(t)
	keyPath := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyPath, []byte("s3cret\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLASHSYNC_API_KEY_FILE", keyPath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "s3cret" {
		t.Errorf("expected key read from file, got %q", cfg.APIKey)
	}
}

func TestLoad_InvalidStartRowEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLASHSYNC_START_ROW", "abc")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric start row")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{BaseURL: "https://tab.example/api/v1", Slug: "wudc", APIKey: "k", StartRow: 1, Jobs: 1}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		missing bool
	}{
		{"no base url", func(c *Config) { c.BaseURL = "" }, true},
		{"no slug", func(c *Config) { c.Slug = " " }, true},
		{"no key", func(c *Config) { c.APIKey = "" }, true},
		{"zero start row", func(c *Config) { c.StartRow = 0 }, false},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, false},
		{"negative retries", func(c *Config) { c.Retries = -2 }, false},
		{"bad delimiter", func(c *Config) { c.Delimiter = "|" }, false},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, false},
		{"negative timeout", func(c *Config) { c.Timeout = "-1s" }, false},
	}

	for _, tt := range tests {
		cfg := valid()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if errors.Is(err, ErrMissing) != tt.missing {
			t.Errorf("%s: ErrMissing = %v, want %v (%v)", tt.name, errors.Is(err, ErrMissing), tt.missing, err)
		}
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{APIKey: "s3cret", Slug: "wudc"}
	red := cfg.Redacted()
	if red.APIKey == "s3cret" {
		t.Error("expected API key to be redacted")
	}
	if cfg.APIKey != "s3cret" {
		t.Error("Redacted must not modify the original")
	}
	if red.Slug != "wudc" {
		t.Errorf("expected other fields preserved, got %+v", red)
	}
}
