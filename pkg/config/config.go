// Package config loads frencli settings.
//
// Settings are resolved from built-in defaults, then the user config file
// ($XDG_CONFIG_HOME/frencli/config.yaml, or the file named by FRENCLI_CONFIG),
// then FRENCLI_* environment variables:
//
//	audit:
//	  enabled: true
//	  path: ~/.local/state/frencli/audit.log
//	  max_size_mb: 10
//	output:
//	  color: auto        # auto | always | never
//	log:
//	  level: warn        # debug | info | warn | error
//	messages:
//	  apply_success: "Successfully processed {successful} file(s)"
//
// FRENCLI_AUDIT_ENABLED=false disables the audit log for one invocation.
// NO_COLOR forces output.color to never.
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

// Config holds every setting.
type Config struct {
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Messages  MessagesConfig  `mapstructure:"messages" yaml:"messages"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// HistoryConfig configures undo history storage.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// TemplatesConfig configures user templates.
type TemplatesConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// OutputConfig configures terminal output.
type OutputConfig struct {
	Color string `mapstructure:"color" yaml:"color"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// MessagesConfig holds message templates.
type MessagesConfig struct {
	ApplySuccess string `mapstructure:"apply_success" yaml:"apply_success"`
}

// Loader loads configuration for one application name.
type Loader struct {
	appName   string
	envPrefix string
}

// NewLoader creates a new configuration loader.
func NewLoader(appName string) *Loader {
	return &Loader{
		appName:   appName,
		envPrefix: strings.ToUpper(strings.ReplaceAll(appName, "-", "_")),
	}
}

// Defaults returns the built-in configuration.
func (l *Loader) Defaults() *Config {
	return &Config{
		Audit: AuditConfig{
			Enabled:    true,
			Path:       filepath.Join(l.GetStateDir(), "audit.log"),
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		History: HistoryConfig{
			Path: filepath.Join(l.GetStateDir(), "history"),
		},
		Templates: TemplatesConfig{
			Path: filepath.Join(l.GetDataDir(), "templates.yaml"),
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load resolves the configuration. A broken config file still yields the
// defaults plus environment overrides, together with the error so the caller
// can warn about it.
func (l *Loader) Load() (*Config, error) {
	v := l.newViper()

	var fileErr error
	path := l.UserConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			fileErr = fmt.Errorf("failed to load user config %s: %w", path, err)
			v = l.newViper()
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return l.Defaults(), errors.Join(fileErr, fmt.Errorf("failed to decode config: %w", err))
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		config.Output.Color = "never"
	}
	config.Audit.Path = expandHome(config.Audit.Path)
	config.History.Path = expandHome(config.History.Path)
	config.Templates.Path = expandHome(config.Templates.Path)

	if err := config.Validate(); err != nil {
		return l.Defaults(), errors.Join(fileErr, err)
	}

	return config, fileErr
}

func (l *Loader) newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// every key needs a default so AutomaticEnv applies to Unmarshal
	d := l.Defaults()
	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.path", d.Audit.Path)
	v.SetDefault("audit.max_size_mb", d.Audit.MaxSizeMB)
	v.SetDefault("audit.max_backups", d.Audit.MaxBackups)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("templates.path", d.Templates.Path)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("messages.apply_success", d.Messages.ApplySuccess)
	return v
}

// UserConfigPath returns the config file path, honouring <PREFIX>_CONFIG.
func (l *Loader) UserConfigPath() string {
	if customPath := os.Getenv(l.envPrefix + "_CONFIG"); customPath != "" {
		return customPath
	}
	return filepath.Join(xdg.ConfigHome, l.appName, "config.yaml")
}

// GetDataDir returns the XDG-compliant data directory.
func (l *Loader) GetDataDir() string {
	return filepath.Join(xdg.DataHome, l.appName)
}

// GetStateDir returns the XDG-compliant state directory.
func (l *Loader) GetStateDir() string {
	return filepath.Join(xdg.StateHome, l.appName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
