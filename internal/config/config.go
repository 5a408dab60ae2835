// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TutorDesk Contributors

// Package config loads portal configuration from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	flag "github.com/spf13/pflag"
)

// Backend selects the storage implementation for credentials, passcode
// challenges and sessions.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// AllowlistEntry authorizes one email address for passcode login and
// names the account it maps to.
type AllowlistEntry struct {
	Email  string `koanf:"email"`
	UserID string `koanf:"userId"`
}

// Config is the portal's runtime configuration.
type Config struct {
	// ListenAddr is the address of the public HTTP API.
	ListenAddr string `koanf:"listenAddr"`

	// MetricsAddr is the address of the observability endpoints.
	MetricsAddr string `koanf:"metricsAddr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"logFormat"`

	// DemoMode returns issued passcodes to the caller instead of
	// relying solely on delivery. Never enable in production.
	DemoMode bool `koanf:"demoMode"`

	// Backend is one of "memory", "redis" or "postgres".
	// Postgres backs credentials only; challenges and sessions then
	// use Redis when configured, memory otherwise.
	Backend string `koanf:"backend"`

	RedisAddrs    []string `koanf:"redisAddrs"`
	RedisPassword string   `koanf:"redisPassword"`
	RedisCluster  bool     `koanf:"redisCluster"`

	DatabaseURL string `koanf:"databaseUrl"`

	// AdminAllowlist names the email addresses allowed passcode login.
	AdminAllowlist []AllowlistEntry `koanf:"adminAllowlist"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		ListenAddr:  "127.0.0.1:8080",
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
		DemoMode:    false,
		Backend:     BackendMemory,
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (if non-empty), then the given flag set (if non-nil). Later
// sources win.
func Load(path string, flags *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_MISSING").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	// Unmarshal over the defaults so missing keys keep their default
	// values.
	out := Default()
	if err := k.Unmarshal("", &out); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// Validate checks cross-field consistency.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return oops.Code("CONFIG_INVALID").
			With("backend", c.Backend).
			Errorf("unrecognized backend %q", c.Backend)
	}

	if c.Backend == BackendRedis && len(c.RedisAddrs) == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("redis backend requires at least one address")
	}
	if c.Backend == BackendPostgres && c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("postgres backend requires databaseUrl")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("logFormat", c.LogFormat).
			Errorf("log format must be json or text")
	}

	for _, entry := range c.AdminAllowlist {
		if entry.Email == "" || entry.UserID == "" {
			return oops.Code("CONFIG_INVALID").
				Errorf("allowlist entries need both email and userId")
		}
	}
	return nil
}

// AllowlistEmails returns just the email addresses of the allowlist.
func (c Config) AllowlistEmails() []string {
	emails := make([]string, 0, len(c.AdminAllowlist))
	for _, entry := range c.AdminAllowlist {
		emails = append(emails, entry.Email)
	}
	return emails
}
