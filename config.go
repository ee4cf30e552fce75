package krb5keep

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ProgramMode says how the process was started: by a user in a shell, or as
// a managed (systemd/service) unit. The mode governs default file locations
// and whether the credential cache survives process exit.
type ProgramMode string

const (
	ModeInteractive ProgramMode = "interactive"
	ModeManaged     ProgramMode = "managed"
)

// DefaultRefreshInterval is used when no refresh interval is configured.
const DefaultRefreshInterval = 5 * time.Minute

// LogConfig represents logging configuration
type LogConfig struct {
	MaxSizeMB  int  `json:"max_size_mb,omitempty"`  // Max log file size in MB before rotation (default: 10)
	MaxBackups int  `json:"max_backups,omitempty"`  // Max number of old log files to keep (default: 7)
	MaxAgeDays int  `json:"max_age_days,omitempty"` // Max days to retain old log files (default: 7)
	Compress   bool `json:"compress,omitempty"`     // Compress rotated log files (default: true)
	ToStdout   bool `json:"to_stdout,omitempty"`    // Also write logs to stdout (default: true)
}

// DefaultLogConfig returns the default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		MaxSizeMB:  10,
		MaxBackups: 7,
		MaxAgeDays: 7,
		Compress:   true,
		ToStdout:   true,
	}
}

// HookConfig names Lua scripts (filenames in the scripts folder) that run
// after credential lifecycle events.
type HookConfig struct {
	OnCreate string `json:"on_create,omitempty"` // Runs after a successful initial issue
	OnRenew  string `json:"on_renew,omitempty"`  // Runs after a successful renewal
	OnFail   string `json:"on_fail,omitempty"`   // Runs after a refresh that returned failure
}

// Config represents the application configuration
type Config struct {
	Mode               string      `json:"mode,omitempty"`                 // "interactive" or "managed"
	InstallDir         string      `json:"install_dir,omitempty"`          // Base path for managed-mode keytab/ccache defaults
	KeytabPath         string      `json:"keytab,omitempty"`               // Explicit key table path (overrides defaults)
	CCachePath         string      `json:"ccache,omitempty"`               // Explicit credential cache path (overrides defaults)
	Krb5ConfPath       string      `json:"krb5_conf,omitempty"`            // krb5.conf location (default: /etc/krb5.conf)
	RefreshIntervalSec int         `json:"refresh_interval_sec,omitempty"` // Seconds between refresh attempts
	Hooks              *HookConfig `json:"hooks,omitempty"`
	Logging            *LogConfig  `json:"logging,omitempty"`
}

// ProgramMode returns the resolved process mode. An explicit config value
// wins, then the KRB5KEEP_MODE environment variable, then interactive.
func (c *Config) ProgramMode() ProgramMode {
	if c != nil && c.Mode != "" {
		if ProgramMode(c.Mode) == ModeManaged {
			return ModeManaged
		}
		return ModeInteractive
	}
	if os.Getenv("KRB5KEEP_MODE") == string(ModeManaged) {
		return ModeManaged
	}
	return ModeInteractive
}

// RefreshInterval returns the configured refresh interval with the default applied
func (c *Config) RefreshInterval() time.Duration {
	if c == nil || c.RefreshIntervalSec <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// GetLogConfigWithDefaults returns log config, using defaults if logging section is absent
func (c *Config) GetLogConfigWithDefaults() LogConfig {
	if c == nil || c.Logging == nil {
		return DefaultLogConfig()
	}

	cfg := DefaultLogConfig()

	// Override with user values if set
	if c.Logging.MaxSizeMB > 0 {
		cfg.MaxSizeMB = c.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups > 0 {
		cfg.MaxBackups = c.Logging.MaxBackups
	}
	if c.Logging.MaxAgeDays > 0 {
		cfg.MaxAgeDays = c.Logging.MaxAgeDays
	}
	// For booleans, only override if the logging section exists
	// This allows users to explicitly set false
	cfg.Compress = c.Logging.Compress
	cfg.ToStdout = c.Logging.ToStdout

	return cfg
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "krb5keep")
}

// ScriptsDir returns the Lua hook scripts directory path
func ScriptsDir() string {
	return filepath.Join(ConfigDir(), "scripts")
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "krb5keep.json")
}

// ScriptPath returns the full path for a hook script filename
func ScriptPath(scriptName string) string {
	return filepath.Join(ScriptsDir(), scriptName)
}

// LoadConfig loads configuration from the specified path
// If path is empty, uses the default path
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig saves configuration to the specified path
// If path is empty, uses the default path
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// CreateDefaultConfig creates a default configuration file if it doesn't exist
func CreateDefaultConfig() error {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		// Config already exists
		return nil
	}

	cfg := &Config{
		Mode:               string(ModeInteractive),
		RefreshIntervalSec: int(DefaultRefreshInterval / time.Second),
	}

	return SaveConfig(cfg, path)
}
