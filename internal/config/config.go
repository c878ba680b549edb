package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for stopwatch, stored in
// <user config dir>/stopwatch/config.yaml. Every key can be overridden from
// the environment with a STOPWATCH_ prefix, e.g. STOPWATCH_HISTORY_DIR or
// STOPWATCH_OUTLOOK_ACTIVITY.
type Config struct {
	// HistoryDir is the history root. Empty means "History" next to the executable.
	HistoryDir string `mapstructure:"history_dir"`
	// Color enables styled terminal output.
	Color bool `mapstructure:"color"`
	// Lock takes an advisory file lock around every record update.
	Lock    bool          `mapstructure:"lock"`
	Outlook OutlookConfig `mapstructure:"outlook"`
}

// OutlookConfig holds Microsoft Graph calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `mapstructure:"client_id"`
	// Activity receives the imported calendar events.
	Activity string `mapstructure:"activity"`
	// Timezone is the IANA timezone for event times. Empty = local time.
	Timezone string `mapstructure:"timezone"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the public Azure CLI app ID, which supports the
	// device code flow without a client secret or app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultActivity is the activity imported meetings are filed under.
	DefaultActivity = "meetings"

	envPrefix = "STOPWATCH"
)

// Default returns a Config pre-filled with the built-in defaults.
func Default() Config {
	return Config{
		Color: true,
		Lock:  true,
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
			Activity: DefaultActivity,
		},
	}
}

const configTemplate = `# stopwatch configuration
#
# Every setting is optional and can also be set through the environment,
# e.g. STOPWATCH_HISTORY_DIR=/data/stopwatch or STOPWATCH_LOCK=false.

# Directory holding one folder per day with one JSON file per activity.
# Leave empty to keep the "History" folder next to the stopwatch binary.
history_dir: ""

# Styled terminal output (disabled automatically when not writing to a terminal).
color: true

# Take an advisory lock around each update so two stopwatch processes
# cannot interleave a start and a stop on the same activity.
lock: true

# Microsoft Graph / Outlook calendar import (stopwatch outlook sync).
outlook:
  # "common" works for personal accounts and most organisations.
  tenant_id: common
  # Public Azure CLI app; replace with your own registration if required.
  client_id: 04b07795-8542-4c4a-95af-30b2c573d5ab
  # Activity that receives imported meetings.
  activity: meetings
  # IANA timezone for event times, e.g. Europe/Berlin. Empty = local time.
  timezone: ""
`

// Dir returns the stopwatch configuration directory. STOPWATCH_CONFIG_DIR
// overrides the platform default.
func Dir() (string, error) {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, "stopwatch"), nil
}

// FilePath returns the path of config.yaml.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads config.yaml, writing the annotated template on first run, and
// applies environment overrides. Zero-valued Outlook settings fall back to
// the built-in defaults.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := FilePath()
	if err != nil {
		return Default(), err
	}

	_, statErr := os.Stat(path)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
		if err := writeDefault(path); err != nil {
			slog.Warn("could not create config file", "path", path, "err", err)
		}
	case statErr != nil:
		return Default(), fmt.Errorf("reading config file %s: %w", path, statErr)
	default:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Outlook.Activity == "" {
		cfg.Outlook.Activity = DefaultActivity
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("history_dir", d.HistoryDir)
	v.SetDefault("color", d.Color)
	v.SetDefault("lock", d.Lock)
	v.SetDefault("outlook.tenant_id", d.Outlook.TenantID)
	v.SetDefault("outlook.client_id", d.Outlook.ClientID)
	v.SetDefault("outlook.activity", d.Outlook.Activity)
	v.SetDefault("outlook.timezone", d.Outlook.Timezone)
}

// writeDefault creates the config directory and writes the annotated template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
