package config

import "time"

// SiteConfig is the remediation target for one SD-WAN site.
type SiteConfig struct {
	Color  string `yaml:"color"`
	UPS    string `yaml:"ups"`
	Outlet int    `yaml:"outlet"`
}

// Config is the fully resolved configuration: file values with defaults and
// CLI overrides applied.
type Config struct {
	Interval      time.Duration
	Count         int
	Sites         map[int]SiteConfig
	MetricsListen string
	UIDisable     bool
}

// Credentials are loaded from the environment, never from the config file.
type Credentials struct {
	SDWANURL  string
	SDWANUser string
	SDWANPass string
	UPSUser   string
	UPSPass   string
	LogLevel  string
}

// CLIOverrides holds optional CLI values that override config file values.
type CLIOverrides struct {
	Interval      *time.Duration
	Count         *int
	MetricsListen *string
	UIDisable     *bool
}
