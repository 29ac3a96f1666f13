package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/hasher"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// appName names the config, state and cache directories.
const appName = "dupesweep"

// ErrInvalidConfig indicates a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// Config represents the application configuration.
type Config struct {
	// Workers fixes every worker pool to this size. Zero means automatic.
	Workers int `mapstructure:"workers" yaml:"workers"`

	Adaptive  bool `mapstructure:"adaptive" yaml:"adaptive"`
	Streaming bool `mapstructure:"streaming" yaml:"streaming"`

	// BatchSize overrides the profiled streaming batch size. Zero means automatic.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`

	Algorithm     string `mapstructure:"algorithm" yaml:"algorithm"`
	MmapThreshold string `mapstructure:"mmap_threshold" yaml:"mmap_threshold"`

	MinSize        string   `mapstructure:"min_size" yaml:"min_size"`
	DefaultPath    string   `mapstructure:"default_path" yaml:"default_path"`
	Exclude        []string `mapstructure:"exclude" yaml:"exclude"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" yaml:"follow_symlinks"`

	Folders           bool `mapstructure:"folders" yaml:"folders"`
	KeepNestedFolders bool `mapstructure:"keep_nested_folders" yaml:"keep_nested_folders"`

	Output  string        `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/dupesweep/config.yaml
//   - $HOME/.config/dupesweep/config.yaml
//
// Environment variables are prefixed with DUPESWEEP_ (e.g., DUPESWEEP_MIN_SIZE).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", appName))
	}

	v.SetEnvPrefix("DUPESWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 0)
	v.SetDefault("adaptive", false)
	v.SetDefault("streaming", false)
	v.SetDefault("batch_size", 0)
	v.SetDefault("cache_size", DefaultCacheSize)
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("mmap_threshold", DefaultMmapThreshold)
	v.SetDefault("min_size", DefaultMinSize)
	v.SetDefault("default_path", DefaultPath)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("follow_symlinks", false)
	v.SetDefault("folders", true)
	v.SetDefault("keep_nested_folders", false)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must not be negative", ErrInvalidConfig)
	}
	if _, err := hasher.LookupAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.MinSizeBytes(); err != nil {
		return err
	}
	if _, err := c.MmapThresholdBytes(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MinSizeBytes parses MinSize.
func (c *Config) MinSizeBytes() (int64, error) {
	return parseSize("min_size", c.MinSize)
}

// MmapThresholdBytes parses MmapThreshold.
func (c *Config) MmapThresholdBytes() (int64, error) {
	return parseSize("mmap_threshold", c.MmapThreshold)
}

func parseSize(key, s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := types.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return n, nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() (logging.Config, error) {
	out := logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Components: c.Logging.Components,
		Rotation: logging.RotationConfig{
			MaxBackups: c.Logging.Rotation.MaxBackups,
		},
	}
	if out.Path == "" {
		out.Path = DefaultLogPath()
	} else if expanded, err := ExpandPath(out.Path); err == nil {
		out.Path = expanded
	}
	maxSize, err := parseSize("logging.rotation.max_size", c.Logging.Rotation.MaxSize)
	if err != nil {
		return out, err
	}
	out.Rotation.MaxSize = maxSize
	return out, nil
}

// ConfigDir returns the configuration directory path, expanding ~ to the user's home directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# dupesweep configuration

# Worker pool size for every stage (0 = size from CPU, memory and disk type)
workers: 0

# Adjust worker counts from observed hashing latency (ignored when workers is set)
adaptive: false

# Hash in batches and reuse prefix digests within a process
streaming: false
batch_size: 0     # 0 = size from available memory
cache_size: %d

# Content hash: sha256, sha1, sha512 or xxhash
algorithm: %s

# Files at least this large are memory-mapped for full hashing
mmap_threshold: %s

# Minimum file size to include in scans
min_size: "%s"

# Default path to scan when none is specified
default_path: %s

# Paths or glob patterns to exclude from scanning
exclude:
  - /proc
  - /sys
  - /dev

follow_symlinks: false

# Duplicate folder detection
folders: true
keep_nested_folders: false

# Report format: pretty, plain, json or yaml
output: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/dupesweep/dupesweep.log)
  path: ""
  rotation:
    max_size: %s
    max_backups: %d
  # Per-component log levels
  components:
    engine: info
    scanner: info
    tuner: info
    executor: warn
    diag: warn
`, DefaultCacheSize, DefaultAlgorithm, DefaultMmapThreshold, DefaultMinSize, DefaultPath,
		DefaultOutput, DefaultLogMaxSize, DefaultLogMaxBackups)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/dupesweep/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), appName+".log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}
