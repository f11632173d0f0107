package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jedisim/internal/config"
	"jedisim/internal/testsupport"
)

const testIterations = 2

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	root       string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{
		testsupport.WithIterations(testIterations),
		testsupport.WithStubbedExecutables(),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Chdir(base)

	root := testsupport.WriteSettings(t, cfg, 2500, 21)
	testsupport.WritePSFs(t, cfg, testIterations)

	configPath := filepath.Join(base, "jedisim.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, root: root}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nwork_dir = %q\nsettings_file = %q\nexecutables_dir = %q\nstate_dir = %q\npsf_pattern = %q\n\n",
		cfg.Paths.WorkDir,
		cfg.Paths.SettingsFile,
		cfg.Paths.ExecutablesDir,
		cfg.Paths.StateDir,
		cfg.Paths.PSFPattern,
	)
	fmt.Fprintf(&b, "[pipeline]\niterations = %d\nrotated = %t\n\n", cfg.Pipeline.Iterations, cfg.Pipeline.Rotated)
	b.WriteString("[logging]\nlevel = \"warn\"\n")
	if len(cfg.Executables.Overrides) > 0 {
		b.WriteString("\n[executables.overrides]\n")
		for name, p := range cfg.Executables.Overrides {
			fmt.Fprintf(&b, "%s = %q\n", name, p)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
