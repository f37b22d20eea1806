// internal/config/config.go
//
// This package handles configuration and the .rrfars directory structure.
// Every project that runs the component gets a .rrfars/ folder created in its
// root holding definitions, collected data, and logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".rrfars"

	// EnvPrefix scopes environment overrides, e.g. RRFARS_LOGGING_LEVEL.
	EnvPrefix = "RRFARS"

	defaultDataDir        = "data"
	defaultDefinitionsDir = "definitions"
)

const defaultProjectConfigYAML = `# rrfars project configuration
version: 1

# Where raw and finished data files are written. Relative paths resolve
# against the .rrfars directory.
data_dir: data

# Component definitions (*.yaml or *.go) available to "rrfars run".
definitions_dir: definitions

session:
  # Identifies the study subject in data file headers.
  subject: ""

logging:
  level: info
  console: false
`

// SessionConfig describes who is being tested.
type SessionConfig struct {
	Subject string `mapstructure:"subject"`
	Study   string `mapstructure:"study"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ProjectConfig models .rrfars/config.yaml.
type ProjectConfig struct {
	Version        int           `mapstructure:"version"`
	DataDir        string        `mapstructure:"data_dir"`
	DefinitionsDir string        `mapstructure:"definitions_dir"`
	Session        SessionConfig `mapstructure:"session"`
	Logging        LoggingConfig `mapstructure:"logging"`
}

// Config holds the runtime configuration for a project.
type Config struct {
	// ProjectDir is the directory where the user ran `rrfars` from
	ProjectDir string

	// StateDir is ProjectDir/.rrfars
	StateDir string

	Project ProjectConfig
}

// InitProjectDir creates the .rrfars directory structure in the given project
// directory.
//
// Structure created:
// .rrfars/
// ├── config.yaml
// ├── data/          <- raw and finished data files
// ├── definitions/   <- component definitions
// └── logs/          <- structured log and session journal
func InitProjectDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(stateDir, defaultDataDir),
		filepath.Join(stateDir, defaultDefinitionsDir),
		filepath.Join(stateDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// Environment variables prefixed with RRFARS_ override file values.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// DataDir returns the directory data files are written to.
func (c *Config) DataDir() string {
	return c.Project.DataDir
}

// DefinitionsDir returns the directory holding component definitions.
func (c *Config) DefinitionsDir() string {
	return c.Project.DefinitionsDir
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// JournalPath returns the session journal written by the host.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

func (c *Config) loadProjectConfig() error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaultProjectConfig())

	path := c.ProjectConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := v.Unmarshal(&parsed); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize(c.StateDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func setDefaults(v *viper.Viper, pc ProjectConfig) {
	v.SetDefault("version", pc.Version)
	v.SetDefault("data_dir", pc.DataDir)
	v.SetDefault("definitions_dir", pc.DefinitionsDir)
	v.SetDefault("session.subject", pc.Session.Subject)
	v.SetDefault("session.study", pc.Session.Study)
	v.SetDefault("logging.level", pc.Logging.Level)
	v.SetDefault("logging.console", pc.Logging.Console)
	v.SetDefault("logging.max_size_mb", pc.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", pc.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", pc.Logging.MaxAgeDays)
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:        1,
		DataDir:        defaultDataDir,
		DefinitionsDir: defaultDefinitionsDir,
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.DataDir) == "" {
		pc.DataDir = defaultDataDir
	}
	if strings.TrimSpace(pc.DefinitionsDir) == "" {
		pc.DefinitionsDir = defaultDefinitionsDir
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = "info"
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.DataDir = resolvePath(base, pc.DataDir)
	pc.DefinitionsDir = resolvePath(base, pc.DefinitionsDir)
	pc.Session.Subject = strings.TrimSpace(pc.Session.Subject)
	pc.Session.Study = strings.TrimSpace(pc.Session.Study)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if strings.ContainsAny(pc.Session.Subject, "\t\n") {
		return fmt.Errorf("session.subject must not contain tabs or newlines")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
