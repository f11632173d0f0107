package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExecutables()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SettingsFile) == "" {
		c.Paths.SettingsFile = defaultSettingsFile
	}
	if c.Paths.SettingsFile, err = resolveUnder(c.Paths.WorkDir, c.Paths.SettingsFile); err != nil {
		return fmt.Errorf("paths.settings_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExecutablesDir) == "" {
		c.Paths.ExecutablesDir = defaultExecutablesDir
	}
	if c.Paths.ExecutablesDir, err = resolveUnder(c.Paths.WorkDir, c.Paths.ExecutablesDir); err != nil {
		return fmt.Errorf("paths.executables_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.PSFPattern = strings.TrimSpace(c.Paths.PSFPattern)
	if c.Paths.PSFPattern == "" {
		c.Paths.PSFPattern = defaultPSFPattern
	}
	if strings.TrimSpace(c.Paths.CollectDir) == "" {
		c.Paths.CollectDir = defaultCollectDir
	}
	if c.Paths.CollectDir, err = resolveUnder(c.Paths.WorkDir, c.Paths.CollectDir); err != nil {
		return fmt.Errorf("paths.collect_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExecutables() {
	overrides := make(map[string]string, len(c.Executables.Overrides))
	for name, path := range c.Executables.Overrides {
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if name == "" || path == "" {
			continue
		}
		if resolved, err := resolveUnder(c.Paths.WorkDir, path); err == nil {
			path = resolved
		}
		overrides[name] = path
	}
	c.Executables.Overrides = overrides
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Iterations == 0 {
		c.Pipeline.Iterations = defaultIterations
	}
	if c.Pipeline.BatchSize == 0 {
		c.Pipeline.BatchSize = defaultBatchSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
