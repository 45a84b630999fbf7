package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Components   map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	DefaultPath  string   `mapstructure:"default_path"`
	ManifestName string   `mapstructure:"manifest_name"`
	VerifyMode   string   `mapstructure:"verify_mode"`
	Exclude      []string `mapstructure:"exclude"`
	Cache        struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Logs struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"logs"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/intact/config.yaml
//   - $HOME/.config/intact/config.yaml
//
// Environment variables are prefixed with INTACT_ (e.g., INTACT_VERIFY_MODE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "intact"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "intact"))

	v.SetEnvPrefix("INTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("default_path", DefaultPath)
	v.SetDefault("manifest_name", DefaultManifestName)
	v.SetDefault("verify_mode", DefaultVerifyMode)
	v.SetDefault("exclude", DefaultExclusions)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "") // Empty means DefaultCachePath.

	v.SetDefault("logs.dir", "") // Empty means DefaultChangeLogDir.

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means logging.DefaultLogPath.
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.components", map[string]string{
		"reconcile": "info",
		"report":    "info",
		"cli":       "info",
	})
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

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "intact"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "intact"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
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

// WriteDefault writes a commented default config file if none exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Intact Directory-Integrity Auditor Configuration

# Default directory to audit when none is specified
default_path: %s

# Manifest file name inside the audited directory
manifest_name: %s

# Verification mode: full (size and digest) or fast (size only)
verify_mode: %s

# Patterns to exclude from scanning
exclude:
  - %s
  - %s
  - "%s"

# Digest cache
cache:
  enabled: true
  # path: ~/.cache/intact/digests

# Change log output
logs:
  # dir: ~/.local/state/intact/changes

# Application logging
logging:
  level: info
`,
		DefaultPath, DefaultManifestName, DefaultVerifyMode,
		DefaultExclusions[0], DefaultExclusions[1], DefaultExclusions[2])

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// StateDir returns $XDG_STATE_HOME/intact/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "intact")
}

// DefaultCachePath returns the default digest cache directory,
// $XDG_CACHE_HOME/intact/digests.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "intact", "digests")
}

// DefaultChangeLogDir returns the default directory for change logs,
// $XDG_STATE_HOME/intact/changes.
func DefaultChangeLogDir() string {
	return filepath.Join(StateDir(), "changes")
}
