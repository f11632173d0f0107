package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"jedisim/internal/config"
	"jedisim/internal/services/jedi"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The work directory is <base>/work and the state directory <base>/state.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	work := filepath.Join(base, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = work
	cfgVal.Paths.SettingsFile = filepath.Join(work, "physics_settings", "config.sh")
	cfgVal.Paths.ExecutablesDir = filepath.Join(work, "executables")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.PSFPattern = filepath.Join(work, "psf", "psf%d.fits")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithIterations overrides the loop iteration count.
func WithIterations(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Iterations = n
	}
}

// WithoutRotated disables the rotated case.
func WithoutRotated() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Rotated = false
	}
}

// WithStubbedExecutables writes stub executables that exit 0 into the
// configured executables directory. If names is empty, all nine stage
// binaries are stubbed.
func WithStubbedExecutables(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = jedi.Binaries
		}
		for _, name := range names {
			WriteStub(b.t, filepath.Join(b.cfg.Paths.ExecutablesDir, name), 0)
		}
	}
}

// WithFailingExecutable writes a stub for name that exits with code.
func WithFailingExecutable(name string, code int) ConfigOption {
	return func(b *configBuilder) {
		WriteStub(b.t, filepath.Join(b.cfg.Paths.ExecutablesDir, name), code)
	}
}

// WriteStub writes a shell script at path that exits with code.
func WriteStub(t testing.TB, path string, code int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for stub %s: %v", path, err)
	}
	script := []byte(fmt.Sprintf("#!/bin/sh\nexit %d\n", code))
	if err := os.WriteFile(path, script, 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}

// WithScriptedExecutable writes a stub for name that runs body as a shell
// script with the stage arguments as positional parameters.
func WithScriptedExecutable(name, body string) ConfigOption {
	return func(b *configBuilder) {
		WriteScript(b.t, filepath.Join(b.cfg.Paths.ExecutablesDir, name), body)
	}
}

// WriteScript writes an executable shell script at path.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for script %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
