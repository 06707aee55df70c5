// Package config loads rolesmith configuration from defaults, a TOML file and
// the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. Sections are separated by a
// double underscore: ROLESMITH_BOT__TOKEN sets bot.token.
const EnvPrefix = "ROLESMITH_"

// Config represents the application configuration
type Config struct {
	Bot       BotConfig       `koanf:"bot"`
	Database  DatabaseConfig  `koanf:"database"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Log       LogConfig       `koanf:"log"`
}

// BotConfig holds the platform identity and presentation settings.
type BotConfig struct {
	Token         string `koanf:"token"`
	Name          string `koanf:"name"`
	Prefix        string `koanf:"prefix"`
	Colour        string `koanf:"colour"`
	Logo          string `koanf:"logo"`
	OwnerID       string `koanf:"owner_id"`
	SystemChannel string `koanf:"system_channel"`
}

// DatabaseConfig locates the registry store.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// ReconcileConfig controls the background sweeps.
type ReconcileConfig struct {
	CleanupInterval      time.Duration `koanf:"cleanup_interval"`
	QueueRecheckInterval time.Duration `koanf:"queue_recheck_interval"`
	GracePeriod          time.Duration `koanf:"grace_period"`
	FetchRate            float64       `koanf:"fetch_rate"`
	FetchBurst           int           `koanf:"fetch_burst"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"bot.name":                         "Rolesmith",
		"bot.prefix":                       "rs!",
		"bot.colour":                       "0x7289da",
		"database.path":                    "files/rolesmith.db",
		"reconcile.cleanup_interval":       "24h",
		"reconcile.queue_recheck_interval": "6h",
		"reconcile.grace_period":           "24h",
		"reconcile.fetch_rate":             2.0,
		"reconcile.fetch_burst":            5,
		"log.level":                        "info",
		"log.format":                       "console",
	}
}

// DefaultPaths are searched, in order, when no config path is given.
var DefaultPaths = []string{"./files/rolesmith.toml", "./rolesmith.toml", "$HOME/.rolesmith.toml"}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
					return nil, fmt.Errorf("error loading config %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// envKey maps ROLESMITH_RECONCILE__GRACE_PERIOD to reconcile.grace_period.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// InitConfig writes a sample configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# Rolesmith Configuration

[bot]
token = "your-bot-token"
name = "Rolesmith"
prefix = "rs!"
colour = "0x7289da"
logo = ""
owner_id = ""
# Global channel for notifications that no server channel can take
system_channel = ""

[database]
path = "files/rolesmith.db"

[reconcile]
cleanup_interval = "24h"
queue_recheck_interval = "6h"
grace_period = "24h"
fetch_rate = 2.0
fetch_burst = 5

[log]
level = "info"
format = "console"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0600)
}

// Validate validates the configuration. The token is only required by
// commands that connect to the platform.
func Validate(config *Config, requireToken bool) error {
	if requireToken && config.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}

	if config.Bot.Prefix == "" {
		return fmt.Errorf("bot prefix is required")
	}

	if _, err := ParseColour(config.Bot.Colour); err != nil {
		return fmt.Errorf("invalid bot colour: %w", err)
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	r := config.Reconcile
	if r.CleanupInterval <= 0 {
		return fmt.Errorf("reconcile.cleanup_interval must be positive")
	}
	if r.QueueRecheckInterval <= 0 {
		return fmt.Errorf("reconcile.queue_recheck_interval must be positive")
	}
	if r.GracePeriod <= 0 {
		return fmt.Errorf("reconcile.grace_period must be positive")
	}
	if r.FetchRate <= 0 || r.FetchBurst <= 0 {
		return fmt.Errorf("reconcile.fetch_rate and reconcile.fetch_burst must be positive")
	}

	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Log.Format)
	}

	return nil
}

// ParseColour parses an RGB colour written as 0xRRGGBB, #RRGGBB or RRGGBB.
func ParseColour(s string) (int, error) {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), "#")
	if hex == "" {
		return 0, fmt.Errorf("empty colour")
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not hexadecimal", s)
	}
	if v > 0xFFFFFF {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(v), nil
}

// FormatColour renders a colour the way ParseColour reads it.
func FormatColour(c int) string {
	return fmt.Sprintf("0x%06x", c)
}
