package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gostatsplot/domain/stats"
	"gostatsplot/internal/errors"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GOSTATSPLOT_"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Plot     PlotConfig     `yaml:"plot"`
	Output   OutputConfig   `yaml:"output"`
	LogLevel string         `yaml:"log_level"`
}

// DatabaseConfig holds database connection settings. An empty URL means
// runs are not persisted.
type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort         int           `yaml:"api_port"`
	UIPort          int           `yaml:"ui_port"`
	GinMode         string        `yaml:"gin_mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// PlotConfig holds the default options of every plot operation
type PlotConfig struct {
	Options  stats.Options `yaml:"options"`
	Parallel int           `yaml:"parallel"` // grouped panels built at once
}

// OutputConfig holds file system paths
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png, svg or pdf
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{ConnectTimeout: 10 * time.Second},
		Server: ServerConfig{
			APIPort:         8080,
			UIPort:          8081,
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Plot:     PlotConfig{Options: stats.DefaultOptions(), Parallel: 1},
		Output:   OutputConfig{Dir: "out", Format: "png"},
		LogLevel: "INFO",
	}
}

// Load builds the configuration in layers: defaults, then the YAML file at
// path (skipped when path is empty), then the env files (".env" when none
// are named and it exists), then the process environment. The result is
// validated; every failure carries CodeConfigInvalid.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read config file %s", path))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse config file %s", path))
		}
	}

	if len(envFiles) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			envFiles = []string{".env"}
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to load env file"))
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to apply environment"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Database.URL = getEnvOrDefault("DATABASE_URL", cfg.Database.URL)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.GinMode = getEnvOrDefault("GIN_MODE", cfg.Server.GinMode)
	cfg.Output.Dir = getEnvOrDefault(EnvPrefix+"OUTPUT_DIR", cfg.Output.Dir)
	cfg.Output.Format = getEnvOrDefault(EnvPrefix+"OUTPUT_FORMAT", cfg.Output.Format)

	var err error
	if cfg.Server.APIPort, err = getEnvInt(EnvPrefix+"API_PORT", cfg.Server.APIPort); err != nil {
		return err
	}
	if cfg.Server.UIPort, err = getEnvInt(EnvPrefix+"UI_PORT", cfg.Server.UIPort); err != nil {
		return err
	}
	if cfg.Plot.Parallel, err = getEnvInt(EnvPrefix+"PARALLEL", cfg.Plot.Parallel); err != nil {
		return err
	}

	opts := &cfg.Plot.Options
	if v := os.Getenv(EnvPrefix + "TYPE"); v != "" {
		if opts.Type, err = stats.ParseTestType(v); err != nil {
			return err
		}
	}
	if opts.K, err = getEnvInt(EnvPrefix+"K", opts.K); err != nil {
		return err
	}
	if opts.NBoot, err = getEnvInt(EnvPrefix+"NBOOT", opts.NBoot); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		if opts.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
	}
	if v := os.Getenv(EnvPrefix + "CONF_LEVEL"); v != "" {
		if opts.ConfLevel, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%sCONF_LEVEL: %w", EnvPrefix, err)
		}
	}
	return nil
}

// Validate checks ranges and the default plot options
func (c *Config) Validate() error {
	for name, port := range map[string]int{"server.api_port": c.Server.APIPort, "server.ui_port": c.Server.UIPort} {
		if port < 1 || port > 65535 {
			return errors.ConfigInvalid(fmt.Sprintf("%s must be between 1 and 65535, got %d", name, port))
		}
	}
	if c.Plot.Parallel < 1 {
		return errors.ConfigInvalid("plot.parallel must be at least 1")
	}
	if err := c.Plot.Options.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "invalid plot options"))
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "svg", "pdf":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("output.format must be png, svg or pdf, got %q", c.Output.Format))
	}
	if c.Output.Dir == "" {
		return errors.ConfigInvalid("output.dir is required")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "ERROR", "WARN", "INFO", "DEBUG", "TRACE":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("log_level %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", c.LogLevel))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
