package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the persistent ragdesk configuration stored as config.toml
// in the .ragdesk/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	API     APIConfig     `toml:"api"`
	History HistoryConfig `toml:"history"`
	Events  EventsConfig  `toml:"events"`
	Serve   ServeConfig   `toml:"serve"`
}

// APIConfig holds settings for commands that talk to the document service.
type APIConfig struct {
	// Target is the service root URL (scheme + host + port).
	Target string `toml:"target,omitempty"`
	Token  string `toml:"token,omitempty"`
	Tenant string `toml:"tenant,omitempty"`

	// Timeout bounds non-streaming calls, as a Go duration string.
	Timeout string `toml:"timeout,omitempty"`
}

// HistoryConfig selects where finished exchanges are recorded.
type HistoryConfig struct {
	// Driver is one of "memory", "sqlite" or "postgres".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig enables query completion events on Kafka when Brokers is set.
type EventsConfig struct {
	// Brokers is a comma separated host:port list.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// ServeConfig holds settings for the development document service.
type ServeConfig struct {
	Listen  string `toml:"listen,omitempty"`
	DocsDir string `toml:"docs_dir,omitempty"`
}

// TimeoutDuration parses API.Timeout. An empty value yields 0.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for api.timeout: %w", err)
	}
	return d, nil
}

// BrokerList splits Events.Brokers into addresses.
func (c *Config) BrokerList() []string {
	return SplitList(c.Events.Brokers)
}

// SplitList splits a comma separated value, dropping empty entries.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.target": {
		get: func(c *Config) string { return c.API.Target },
		set: func(c *Config, v string) error { c.API.Target = v; return nil },
	},
	"api.token": {
		get: func(c *Config) string { return c.API.Token },
		set: func(c *Config, v string) error { c.API.Token = v; return nil },
	},
	"api.tenant": {
		get: func(c *Config) string { return c.API.Tenant },
		set: func(c *Config, v string) error { c.API.Tenant = v; return nil },
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for api.timeout: %w", err)
			}
			c.API.Timeout = v
			return nil
		},
	},
	"history.driver": {
		get: func(c *Config) string { return c.History.Driver },
		set: func(c *Config, v string) error {
			switch v {
			case "memory", "sqlite", "postgres":
				c.History.Driver = v
				return nil
			default:
				return fmt.Errorf("invalid value for history.driver: %q (expected memory, sqlite or postgres)", v)
			}
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
	"history.postgres_dsn": {
		get: func(c *Config) string { return c.History.PostgresDSN },
		set: func(c *Config, v string) error { c.History.PostgresDSN = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"serve.docs_dir": {
		get: func(c *Config) string { return c.Serve.DocsDir },
		set: func(c *Config, v string) error { c.Serve.DocsDir = v; return nil },
	},
}

// secretKeys are masked by config list.
var secretKeys = map[string]bool{
	"api.token":            true,
	"history.postgres_dsn": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}
