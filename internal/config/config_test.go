package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"jedisim/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	workDir := t.TempDir()
	t.Chdir(workDir)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Paths.WorkDir != wd {
		t.Fatalf("work dir = %q, want %q", cfg.Paths.WorkDir, wd)
	}
	if want := filepath.Join(wd, "physics_settings", "config.sh"); cfg.SettingsPath() != want {
		t.Fatalf("settings path = %q, want %q", cfg.SettingsPath(), want)
	}
	if want := filepath.Join(wd, "executables", "jedipaste"); cfg.ExecutablePath("jedipaste") != want {
		t.Fatalf("executable path = %q, want %q", cfg.ExecutablePath("jedipaste"), want)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "jedisim")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LogDir() != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir %q", cfg.LogDir())
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.LockPath() != filepath.Join(wd, ".jedisim.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
	if cfg.Pipeline.Iterations != 21 || cfg.Pipeline.BatchSize != 1000 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if !cfg.Pipeline.Rotated || !cfg.Pipeline.WriteAverageLists {
		t.Fatalf("expected rotated case and list generation on by default: %+v", cfg.Pipeline)
	}
	if cfg.Paths.CollectDir != filepath.Join(wd, "jedisim_output") {
		t.Fatalf("collect dir = %q", cfg.Paths.CollectDir)
	}
	if cfg.Pipeline.Realizations != 0 {
		t.Fatalf("realizations = %d, want 0", cfg.Pipeline.Realizations)
	}
	if cfg.Paths.PSFPattern != "psf/psf%d.fits" {
		t.Fatalf("unexpected psf pattern %q", cfg.Paths.PSFPattern)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "jedisim.toml")

	type payload struct {
		Paths struct {
			WorkDir      string `toml:"work_dir"`
			SettingsFile string `toml:"settings_file"`
			CollectDir   string `toml:"collect_dir"`
		} `toml:"paths"`
		Executables struct {
			Overrides map[string]string `toml:"overrides"`
		} `toml:"executables"`
		Pipeline struct {
			Iterations   int  `toml:"iterations"`
			Rotated      bool `toml:"rotated"`
			Realizations int  `toml:"realizations"`
		} `toml:"pipeline"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.WorkDir = tempDir
	custom.Paths.SettingsFile = "settings/run.sh"
	custom.Executables.Overrides = map[string]string{"jedinoise": "/opt/bin/jedinoise", "jedipaste": "bin/paste"}
	custom.Pipeline.Iterations = 3
	custom.Pipeline.Realizations = 4
	custom.Paths.CollectDir = "batches"
	custom.Pipeline.Rotated = false
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.SettingsPath() != filepath.Join(tempDir, "settings", "run.sh") {
		t.Fatalf("settings path not anchored at work dir: %q", cfg.SettingsPath())
	}
	if cfg.ExecutablePath("jedinoise") != "/opt/bin/jedinoise" {
		t.Fatalf("override ignored: %q", cfg.ExecutablePath("jedinoise"))
	}
	if cfg.ExecutablePath("jedipaste") != filepath.Join(tempDir, "bin", "paste") {
		t.Fatalf("relative override not anchored: %q", cfg.ExecutablePath("jedipaste"))
	}
	if cfg.ExecutablePath("jedicolor") != filepath.Join(tempDir, "executables", "jedicolor") {
		t.Fatalf("unexpected default executable path %q", cfg.ExecutablePath("jedicolor"))
	}
	if cfg.Pipeline.Iterations != 3 {
		t.Fatalf("iterations = %d, want 3", cfg.Pipeline.Iterations)
	}
	if cfg.Pipeline.Rotated {
		t.Fatal("expected rotated case disabled")
	}
	if cfg.Pipeline.Realizations != 4 {
		t.Fatalf("realizations = %d, want 4", cfg.Pipeline.Realizations)
	}
	if cfg.Paths.CollectDir != filepath.Join(tempDir, "batches") {
		t.Fatalf("collect dir not anchored at work dir: %q", cfg.Paths.CollectDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging values not normalized: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jedisim.toml")
	if err := os.WriteFile(path, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "psf_pattern") {
		t.Fatalf("sample config missing psf pattern: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Pipeline.Iterations != 21 || cfg.Pipeline.Realizations != 0 {
		t.Fatalf("sample pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Paths.CollectDir != "jedisim_output" {
		t.Fatalf("sample collect dir = %q", cfg.Paths.CollectDir)
	}
	if cfg.Paths.SettingsFile != "physics_settings/config.sh" {
		t.Fatalf("sample settings file = %q", cfg.Paths.SettingsFile)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative iterations", func(c *config.Config) { c.Pipeline.Iterations = -1 }},
		{"zero batch size", func(c *config.Config) { c.Pipeline.BatchSize = 0 }},
		{"psf pattern without verb", func(c *config.Config) { c.Paths.PSFPattern = "psf/psf.fits" }},
		{"psf pattern with two verbs", func(c *config.Config) { c.Paths.PSFPattern = "psf%d/psf%d.fits" }},
		{"empty settings file", func(c *config.Config) { c.Paths.SettingsFile = "" }},
		{"unknown format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"unknown level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"negative retention", func(c *config.Config) { c.Logging.RetentionDays = -1 }},
		{"negative realizations", func(c *config.Config) { c.Pipeline.Realizations = -2 }},
		{"empty collect dir", func(c *config.Config) { c.Paths.CollectDir = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/runs")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "runs") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("empty path expanded to %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(cfg.LogDir()); err != nil || !info.IsDir() {
		t.Fatalf("log dir missing: %v", err)
	}
}
