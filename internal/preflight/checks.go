package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"jedisim/internal/config"
	"jedisim/internal/deps"
	"jedisim/internal/services/jedi"
	"jedisim/internal/settings"
	"jedisim/internal/weights"
	"jedisim/internal/workspace"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckExecutables reports one result per stage binary.
func CheckExecutables(cfg *config.Config) []Result {
	requirements := make([]deps.Requirement, 0, len(jedi.Binaries))
	for _, name := range jedi.Binaries {
		requirements = append(requirements, deps.Requirement{
			Name:    name,
			Command: cfg.ExecutablePath(name),
		})
	}
	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Command
		if !s.Available {
			detail = s.Detail
		}
		results = append(results, Result{Name: "Executable " + s.Name, Passed: s.Available, Detail: detail})
	}
	return results
}

// CheckSettings parses and derives the settings file and validates the keys
// the output layout needs. The derived namespace is returned when ok.
func CheckSettings(cfg *config.Config) (Result, settings.Namespace, bool) {
	const name = "Settings file"
	path := cfg.SettingsPath()
	raw, ns, err := settings.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}, settings.Namespace{}, false
	}
	cases := []settings.Case{settings.Baseline}
	if cfg.Pipeline.Rotated {
		cases = append(cases, settings.Rotated)
	}
	layout, err := workspace.BuildLayout(ns, cfg.Pipeline.BatchSize, cases...)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}, settings.Namespace{}, false
	}
	batches := 0
	if len(layout.Numbered) > 0 {
		batches = layout.Numbered[0].Count
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d keys, %d derived, %d batch folders)", path, raw.Len(), ns.Len(), batches),
	}, ns, true
}

// CheckWeights verifies the jedicolor weight table covers every iteration.
func CheckWeights(cfg *config.Config, ns settings.Namespace) Result {
	const name = "Weight table"
	path, err := ns.Require(settings.KeyWeightsInfile)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	path = underWorkDir(cfg, path)
	table, err := weights.LoadFile(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := table.Require(cfg.Pipeline.Iterations); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d rows)", path, table.Rows())}
}

// CheckPSFs verifies a PSF file exists for every iteration.
func CheckPSFs(cfg *config.Config) Result {
	const name = "PSF files"
	var missing []string
	for i := 0; i < cfg.Pipeline.Iterations; i++ {
		path := underWorkDir(cfg, fmt.Sprintf(cfg.Paths.PSFPattern, i))
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%d of %d missing (first: %s)", len(missing), cfg.Pipeline.Iterations, missing[0])}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d present", cfg.Pipeline.Iterations)}
}

func underWorkDir(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Paths.WorkDir, path)
}
