// Package daemon manages the LifeQuest configuration and server lifecycle.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/logging"
)

// Config holds all LifeQuest configuration.
type Config struct {
	User      UserConfig      `toml:"user"`
	Store     StoreConfig     `toml:"store"`
	API       APIConfig       `toml:"api"`
	Logging   logging.Config  `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Rules     RulesConfig     `toml:"rules"`
}

// UserConfig picks the document the CLI acts on.
type UserConfig struct {
	ID          string `toml:"id"`
	DisplayName string `toml:"display_name"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	CORSOrigins   []string `toml:"cors_origins"`
	WritesPerSec  float64  `toml:"writes_per_sec"`
	WriteBurst    int      `toml:"write_burst"`
	ShutdownGrace string   `toml:"shutdown_grace"`
}

// TelemetryConfig controls the Prometheus endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// RulesConfig is the economy plus the calendar timezone.
type RulesConfig struct {
	Timezone string `toml:"timezone"` // IANA name; empty uses the local zone
	tracker.Rules
}

// Addr is the API listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the configured timezone.
func (c RulesConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	homeDir := lifequestHome()
	return Config{
		User: UserConfig{
			ID: defaultUser(),
		},
		Store: StoreConfig{
			Dir: homeDir,
		},
		API: APIConfig{
			Host:          "127.0.0.1",
			Port:          7420,
			CORSOrigins:   []string{"*"},
			WritesPerSec:  10,
			WriteBurst:    20,
			ShutdownGrace: "10s",
		},
		Logging: logging.Config{
			Level:      "info",
			File:       filepath.Join(homeDir, "lifequest.log"),
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Console:    true,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Rules: RulesConfig{
			Rules: tracker.DefaultRules(),
		},
	}
}

// LoadConfig reads $LIFEQUEST_HOME/config.toml, falling back to defaults.
// A .env file in the working directory or the home directory is applied to
// the environment first; variables already set win.
func LoadConfig() (Config, error) {
	loadDotenv()
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile decodes path over the defaults. A missing file is not an error.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if env := os.Getenv("LIFEQUEST_USER"); env != "" {
		cfg.User.ID = env
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = lifequestHome()
	}
	if len(cfg.Rules.StreakMilestones) == 0 {
		cfg.Rules.StreakMilestones = tracker.DefaultRules().StreakMilestones
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.User.ID == "" {
		return errors.New("user.id must not be empty")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Rules.DeclineFraction < 0 {
		return errors.New("rules.decline_fraction must not be negative")
	}
	if c.Rules.DareWindowDays < 0 {
		return errors.New("rules.dare_window_days must not be negative")
	}
	if _, err := c.Rules.Location(); err != nil {
		return err
	}
	return nil
}

// SaveConfig writes the config to $LIFEQUEST_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigFile(ConfigPath(), cfg)
}

// SaveConfigFile writes cfg to path.
func SaveConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath is the config file location.
func ConfigPath() string {
	return filepath.Join(lifequestHome(), "config.toml")
}

func loadDotenv() {
	for _, path := range []string{".env", filepath.Join(lifequestHome(), ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// lifequestHome returns the LifeQuest data directory.
func lifequestHome() string {
	if env := os.Getenv("LIFEQUEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lifequest")
}

// LifequestHome is exported for use by other packages.
func LifequestHome() string {
	return lifequestHome()
}

func defaultUser() string {
	if env := os.Getenv("LIFEQUEST_USER"); env != "" {
		return env
	}
	if env := os.Getenv("USER"); env != "" {
		return env
	}
	return "default"
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
