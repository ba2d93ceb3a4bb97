package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the config.yaml schema.
type fileConfig struct {
	Trigger struct {
		Interval int `yaml:"interval"` // seconds between poll cycles
		Count    int `yaml:"count"`    // sliding window size
	} `yaml:"trigger"`
	Sites   map[int]SiteConfig `yaml:"sites"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	UI struct {
		Disable bool `yaml:"disable"`
	} `yaml:"ui"`
}

// DefaultConfig returns baseline settings used before file values are applied.
func DefaultConfig() Config {
	return Config{
		Interval: 60 * time.Second,
		Count:    5,
	}
}

// LoadConfig parses a config.yaml file with CLI overrides applied.
func LoadConfig(path string, overrides CLIOverrides) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if file.Trigger.Interval != 0 {
		cfg.Interval = time.Duration(file.Trigger.Interval) * time.Second
	}
	if file.Trigger.Count != 0 {
		cfg.Count = file.Trigger.Count
	}
	cfg.Sites = file.Sites
	cfg.MetricsListen = normalizeListen(file.Metrics.Listen)
	cfg.UIDisable = file.UI.Disable

	applyCLIOverrides(&cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants the monitor assumes: positive interval,
// window size >= 1, and a complete remediation target per site.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("trigger.interval must be positive, got %s", c.Interval)
	}
	if c.Count < 1 {
		return fmt.Errorf("trigger.count must be >= 1, got %d", c.Count)
	}
	if len(c.Sites) == 0 {
		return errors.New("at least one site must be configured")
	}
	for id, site := range c.Sites {
		if site.Color == "" {
			return fmt.Errorf("site %d: color must not be empty", id)
		}
		if site.UPS == "" {
			return fmt.Errorf("site %d: ups address must not be empty", id)
		}
		if site.Outlet < 1 {
			return fmt.Errorf("site %d: outlet must be >= 1, got %d", id, site.Outlet)
		}
	}
	return nil
}

// LoadCredentials reads API credentials from the environment. The vManage
// set is mandatory; UPS credentials are checked later, when a remediation
// actually needs them.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		SDWANURL:  os.Getenv("SDWAN_URL"),
		SDWANUser: os.Getenv("SDWAN_USER"),
		SDWANPass: os.Getenv("SDWAN_PASS"),
		UPSUser:   os.Getenv("UPS_USER"),
		UPSPass:   os.Getenv("UPS_PASS"),
		LogLevel:  os.Getenv("LOG_LEVEL"),
	}
	if creds.SDWANURL == "" || creds.SDWANUser == "" || creds.SDWANPass == "" {
		return creds, errors.New("SDWAN_URL, SDWAN_USER and SDWAN_PASS must be set")
	}
	return creds, nil
}

func applyCLIOverrides(cfg *Config, overrides CLIOverrides) {
	if overrides.Interval != nil {
		cfg.Interval = *overrides.Interval
	}
	if overrides.Count != nil {
		cfg.Count = *overrides.Count
	}
	if overrides.MetricsListen != nil {
		cfg.MetricsListen = normalizeListen(*overrides.MetricsListen)
	}
	if overrides.UIDisable != nil {
		cfg.UIDisable = *overrides.UIDisable
	}
}

func normalizeListen(value string) string {
	if isDigits(value) {
		return ":" + value
	}
	return value
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
