package config

const (
	defaultConfigPath       = "~/.config/jedisim/config.toml"
	projectConfigName       = "jedisim.toml"
	defaultWorkDir          = "."
	defaultSettingsFile     = "physics_settings/config.sh"
	defaultExecutablesDir   = "executables"
	defaultStateDir         = "~/.local/share/jedisim"
	defaultPSFPattern       = "psf/psf%d.fits"
	defaultCollectDir       = "jedisim_output"
	defaultIterations       = 21
	defaultBatchSize        = 1000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:        defaultWorkDir,
			SettingsFile:   defaultSettingsFile,
			ExecutablesDir: defaultExecutablesDir,
			StateDir:       defaultStateDir,
			PSFPattern:     defaultPSFPattern,
			CollectDir:     defaultCollectDir,
		},
		Executables: Executables{
			Overrides: map[string]string{},
		},
		Pipeline: Pipeline{
			Iterations:        defaultIterations,
			BatchSize:         defaultBatchSize,
			Rotated:           true,
			WriteAverageLists: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
