// Package config loads and validates saskit configuration. Values are
// layered: built-in defaults, then the YAML config file, then the
// process environment, highest wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultVerbosity is the SAS console chattiness assumed when nothing
// else sets one (scale 1..10).
const DefaultVerbosity = 4

// Config holds the SAS installation and session settings consumed by
// the dispatcher, the environment bootstrap and the observation facade.
type Config struct {
	SASDir          string `yaml:"sas_dir"`          // SAS installation root
	CCFPath         string `yaml:"ccfpath"`          // calibration file search path
	DataDir         string `yaml:"data_dir"`         // per-observation workspaces live here
	Verbosity       int    `yaml:"verbosity"`        // 1..10
	SuppressWarning int    `yaml:"suppress_warning"` // warning suppression level
	Clobber         bool   `yaml:"clobber"`          // overwrite existing output files
	TaskLogDir      string `yaml:"task_log_dir"`     // per-task log directory
	TaskLogFMode    string `yaml:"task_log_fmode"`   // "a" append, "w" truncate
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Verbosity:       DefaultVerbosity,
		SuppressWarning: 1,
		Clobber:         true,
		TaskLogFMode:    "a",
	}
}

// Path returns the default config file location,
// <user config dir>/saskit/config.yaml.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "saskit", "config.yaml"), nil
}

// Load builds the effective configuration. path selects the config file;
// empty means the default location. A missing file is not an error. A
// .env file in the working directory is loaded first (without clobbering
// real environment variables), matching how the CLI is used from
// per-project directories.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.SASDir = envStr("SAS_DIR", cfg.SASDir)
	cfg.CCFPath = envStr("SAS_CCFPATH", cfg.CCFPath)
	cfg.DataDir = envStr("SASKIT_DATA_DIR", cfg.DataDir)
	cfg.Verbosity = envInt("SAS_VERBOSITY", cfg.Verbosity)
	cfg.SuppressWarning = envInt("SAS_SUPPRESS_WARNING", cfg.SuppressWarning)
	cfg.Clobber = envBool("SAS_CLOBBER", cfg.Clobber)
	cfg.TaskLogDir = envStr("SAS_TASKLOGDIR", cfg.TaskLogDir)
	cfg.TaskLogFMode = envStr("SAS_TASKLOGFMODE", cfg.TaskLogFMode)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. Path fields are checked by the commands
// that need them, since most commands run fine without a SAS install.
func (c Config) Validate() error {
	if c.Verbosity < 1 || c.Verbosity > 10 {
		return fmt.Errorf("config: verbosity %d outside 1..10", c.Verbosity)
	}
	if c.TaskLogFMode != "a" && c.TaskLogFMode != "w" {
		return fmt.Errorf("config: task_log_fmode %q must be \"a\" or \"w\"", c.TaskLogFMode)
	}
	return nil
}

// Save writes the configuration to path (default location when empty),
// creating parent directories as needed.
func (c Config) Save(path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "y", "yes", "t", "true":
		return true
	case "0", "n", "no", "f", "false":
		return false
	}
	return fallback
}
