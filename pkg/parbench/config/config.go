package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/jamesainslie/parbench/pkg/parbench/progress"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/spf13/viper"
)

// ImageConfig configures the image workload.
type ImageConfig struct {
	Input      string   `mapstructure:"input" yaml:"input"`
	Output     string   `mapstructure:"output" yaml:"output"`
	Sigma      float64  `mapstructure:"sigma" yaml:"sigma"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level" yaml:"level"`
	Path         string            `mapstructure:"path" yaml:"path"`
	ConsoleLevel string            `mapstructure:"console_level" yaml:"console_level"`
	Components   map[string]string `mapstructure:"components" yaml:"components"`
}

// Config is the resolved application configuration.
type Config struct {
	Workload    string          `mapstructure:"workload" yaml:"workload"`
	Mode        string          `mapstructure:"mode" yaml:"mode"`
	Size        int             `mapstructure:"size" yaml:"size"`
	Fill        string          `mapstructure:"fill" yaml:"fill"`
	Seed        uint64          `mapstructure:"seed" yaml:"seed"`
	Workers     int             `mapstructure:"workers" yaml:"workers"`
	Verify      bool            `mapstructure:"verify" yaml:"verify"`
	Checkpoints []progress.Spec `mapstructure:"checkpoints" yaml:"checkpoints"`
	Image       ImageConfig     `mapstructure:"image" yaml:"image"`
	Output      string          `mapstructure:"output" yaml:"output"`
	Logging     LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// New returns a viper instance with defaults and PARBENCH_* environment
// overrides applied. Flags are bound to it by the caller.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workload", DefaultWorkload)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("size", DefaultSize)
	v.SetDefault("fill", DefaultFill)
	v.SetDefault("seed", DefaultSeed)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("verify", false)
	v.SetDefault("output", DefaultOutput)

	checkpoints := make([]map[string]any, 0, 3)
	for _, s := range progress.DefaultSpecs() {
		checkpoints = append(checkpoints, map[string]any{"at": s.At, "label": s.Label})
	}
	v.SetDefault("checkpoints", checkpoints)

	v.SetDefault("image.input", DefaultImageInput)
	v.SetDefault("image.output", DefaultImageOutput)
	v.SetDefault("image.sigma", DefaultSigma)
	v.SetDefault("image.extensions", DefaultImageExtensions)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", DefaultConsoleLevel)
	v.SetDefault("logging.components", map[string]string{})
}

// Load reads the config file into v and returns the merged configuration.
//
// With an explicit path the file must exist. Otherwise the file is looked
// up as config.yaml in ConfigDir() and a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Workload {
	case WorkloadMatrix, WorkloadImage:
	default:
		errs = append(errs, fmt.Errorf("unknown workload %q (want %s or %s)", c.Workload, WorkloadMatrix, WorkloadImage))
	}

	switch c.Fill {
	case "ones", "random":
	default:
		errs = append(errs, fmt.Errorf("unknown fill %q (want ones or random)", c.Fill))
	}

	if _, err := types.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Size < 0 {
		errs = append(errs, fmt.Errorf("size must not be negative, got %d", c.Size))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Image.Sigma < 0 {
		errs = append(errs, fmt.Errorf("image.sigma must not be negative, got %g", c.Image.Sigma))
	}
	if err := progress.Validate(c.Checkpoints); err != nil {
		errs = append(errs, err)
	}

	for name, level := range map[string]string{"logging.level": c.Logging.Level, "logging.console_level": c.Logging.ConsoleLevel} {
		if level == "" {
			continue
		}
		if _, err := logging.ParseLevel(level); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for component, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			errs = append(errs, fmt.Errorf("logging.components.%s: %w", component, err))
		}
	}

	return errors.Join(errs...)
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:        c.Logging.Level,
		Path:         c.Logging.Path,
		ConsoleLevel: c.Logging.ConsoleLevel,
		Components:   c.Logging.Components,
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/parbench.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "parbench")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// WriteDefault writes the default config to path (ConfigPath() when
// empty) unless a file is already there. It returns the path and whether
// a file was written.
func WriteDefault(path string) (string, bool, error) {
	if path == "" {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return path, false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultYAML()), 0o644); err != nil {
		return path, false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

// DefaultYAML returns the commented default configuration file.
func DefaultYAML() string {
	return fmt.Sprintf(`# parbench configuration

# Workload to run: matrix or image
workload: %s

# Dispatch mode: static (one partition per worker) or streaming (one unit per item)
mode: %s

# Matrix dimension; the run has one work item per row
size: %d

# Matrix inputs: ones (every result entry equals size) or random (seeded)
fill: %s
seed: %d

# Worker goroutines (0 = one per logical core)
workers: %d

# Check the result against a single-threaded reference after the run
verify: false

# Measurement points. "at" is a count ("10"), a percentage of the items
# ("50%%") or a count from the end ("-10").
checkpoints:
  - {at: "10", label: "first 10"}
  - {at: "50%%", label: "half"}
  - {at: "-10", label: "last 10"}

image:
  input: %s
  output: %s
  sigma: %g
  extensions: [.jpg, .jpeg, .png]

# Report format: pretty, plain, json, yaml, csv, markdown
output: %s

logging:
  # File log level: debug, info, warn, error
  level: %s
  # Log file path (empty disables, "default" uses $XDG_STATE_HOME/parbench/parbench.log)
  path: ""
  # Level for stderr output
  console_level: %s
  # Per-component levels: harness, pool, probe, progress, workload, cli
  components: {}
`, DefaultWorkload, DefaultMode, DefaultSize, DefaultFill, DefaultSeed, DefaultWorkers,
		DefaultImageInput, DefaultImageOutput, DefaultSigma, DefaultOutput,
		DefaultLogLevel, DefaultConsoleLevel)
}
