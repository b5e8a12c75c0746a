// Package config loads service settings from defaults, an optional TOML
// file, the environment (including a .env file) and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/TWRT/tasks-api/internal/logging"
	"github.com/TWRT/tasks-api/internal/repository"
)

const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 1 << 20
	DefaultDriver       = repository.DriverSQLite
	DefaultDSN          = "./tasks.db"
	DefaultConfigFile   = "tasks.toml"
	DefaultEnvFile      = ".env"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`

	// Source is the config file that was read, empty when none was found.
	Source string `toml:"-"`
}

type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// flagValues holds raw flag input; only flags present on the command line
// override lower layers.
type flagValues struct {
	configFile string
	envFile    string
	addr       string
	driver     string
	dsn        string
	logLevel   string
}

// Load resolves configuration in priority order:
// defaults, TOML file, environment, flags.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	if fs == nil {
		fs = flag.NewFlagSet("tasks-api", flag.ContinueOnError)
	}

	var fv flagValues
	fs.StringVar(&fv.configFile, "config", "", "Path to TOML config file")
	fs.StringVar(&fv.envFile, "env-file", DefaultEnvFile, "Path to .env file")
	fs.StringVar(&fv.addr, "addr", "", "HTTP listen address")
	fs.StringVar(&fv.driver, "db-driver", "", "Database driver ("+strings.Join(repository.SupportedDrivers(), "|")+")")
	fs.StringVar(&fv.dsn, "db-dsn", "", "Database data source name")
	fs.StringVar(&fv.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := godotenv.Load(fv.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading env file %s: %w", fv.envFile, err)
	}

	cfg := Default()

	path := findConfigFile(fv.configFile)
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = fv.addr
		case "db-driver":
			cfg.Database.Driver = fv.driver
		case "db-dsn":
			cfg.Database.DSN = fv.dsn
		case "log-level":
			cfg.Log.Level = fv.logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			DSN:    DefaultDSN,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// findConfigFile picks the explicit path, then TASKS_CONFIG, then
// tasks.toml in the working directory if it exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("TASKS_CONFIG"); v != "" {
		return v
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TASKS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TASKS_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TASKS_MAX_BODY_BYTES: %w", err)
		}
		cfg.Server.MaxBodyBytes = n
	}
	if v := os.Getenv("TASKS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TASKS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TASKS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TASKS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if !slices.Contains(repository.SupportedDrivers(), c.Database.Driver) {
		errs = append(errs, fmt.Errorf("database.driver %q is not one of %s", c.Database.Driver, strings.Join(repository.SupportedDrivers(), ", ")))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is empty"))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not recognized", c.Log.Level))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is not recognized", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
