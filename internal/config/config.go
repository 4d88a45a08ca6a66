package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/sweepq/internal/taskqueue"
)

// Config represents the complete sweepq configuration
type Config struct {
	Queue    QueueConfig    `mapstructure:"queue" yaml:"queue"`
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// QueueConfig locates the queue files
type QueueConfig struct {
	// WorkDir holds all queue files. Relative paths resolve against the
	// current directory.
	WorkDir string `mapstructure:"work_dir" yaml:"work_dir"`
	// StoreFile is the append-only task store
	StoreFile string `mapstructure:"store_file" yaml:"store_file"`
	// TrackerFile holds one claim marker byte per task
	TrackerFile string `mapstructure:"tracker_file" yaml:"tracker_file"`
	// ProgressFile is the shared progress register
	ProgressFile string `mapstructure:"progress_file" yaml:"progress_file"`
	// TransLogFile is the human-readable "<id>\t<params>" log
	TransLogFile string `mapstructure:"translog_file" yaml:"translog_file"`
}

// GenerateConfig controls the generate command
type GenerateConfig struct {
	// SweepFile is the YAML parameter sweep read by generate
	SweepFile string `mapstructure:"sweep_file" yaml:"sweep_file"`
	// ShuffleSeed seeds the PCG used by --shuffle
	ShuffleSeed uint64 `mapstructure:"shuffle_seed" yaml:"shuffle_seed"`
	// Warnings prints a notice when keys are discovered during expansion
	Warnings bool `mapstructure:"warnings" yaml:"warnings"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes a JSON log to {work_dir}/sweepq.log
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the size at which the log file rotates
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// Paths resolves the queue file locations.
func (q *QueueConfig) Paths() taskqueue.Paths {
	join := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(q.WorkDir, name)
	}
	return taskqueue.Paths{
		Store:    join(q.StoreFile),
		Tracker:  join(q.TrackerFile),
		Progress: join(q.ProgressFile),
		TransLog: join(q.TransLogFile),
	}
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			WorkDir:      ".sweepq",
			StoreFile:    taskqueue.DefaultStoreFile,
			TrackerFile:  taskqueue.DefaultTrackerFile,
			ProgressFile: taskqueue.DefaultProgressFile,
			TransLogFile: taskqueue.DefaultTransLogFile,
		},
		Generate: GenerateConfig{
			SweepFile:   "sweep.yaml",
			ShuffleSeed: 0x5eed,
			Warnings:    true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Queue defaults
	viper.SetDefault("queue.work_dir", defaults.Queue.WorkDir)
	viper.SetDefault("queue.store_file", defaults.Queue.StoreFile)
	viper.SetDefault("queue.tracker_file", defaults.Queue.TrackerFile)
	viper.SetDefault("queue.progress_file", defaults.Queue.ProgressFile)
	viper.SetDefault("queue.translog_file", defaults.Queue.TransLogFile)

	// Generate defaults
	viper.SetDefault("generate.sweep_file", defaults.Generate.SweepFile)
	viper.SetDefault("generate.shuffle_seed", defaults.Generate.ShuffleSeed)
	viper.SetDefault("generate.warnings", defaults.Generate.Warnings)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sweepq")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sweepq"
	}
	return filepath.Join(home, ".config", "sweepq")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
