// Package config loads the prime agent configuration from YAML, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
	"github.com/agent-protocol/prime-agent/pkg/prime"
)

// DefaultPort is the port the agent listens on when none is configured.
const DefaultPort = 8091

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Prime    PrimeConfig  `yaml:"prime"`
	Card     CardConfig   `yaml:"card"`
	LogLevel string       `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicURL is advertised in the agent card.
	PublicURL    string   `yaml:"public_url"`
	AllowOrigins []string `yaml:"allow_origins"`
	RateLimit    float64  `yaml:"rate_limit"`
	Burst        int      `yaml:"burst"`
}

type PrimeConfig struct {
	Min  int     `yaml:"min"`
	Max  int     `yaml:"max"`
	Seed *uint64 `yaml:"seed"`
}

// CardConfig overrides agent card fields when set.
type CardConfig struct {
	Name             string             `yaml:"name"`
	Description      string             `yaml:"description"`
	DocumentationURL string             `yaml:"documentation_url"`
	Provider         *a2a.AgentProvider `yaml:"provider"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: DefaultPort,
		},
		Prime: PrimeConfig{
			Min: prime.DefaultRange.Min,
			Max: prime.DefaultRange.Max,
		},
		LogLevel: "INFO",
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv applies PORT from lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if c.Server.Burst < 0 {
		errs = append(errs, fmt.Errorf("server.burst must not be negative"))
	}
	r := c.Range()
	switch {
	case r.Min > r.Max:
		errs = append(errs, fmt.Errorf("prime.min %d is greater than prime.max %d", r.Min, r.Max))
	case !r.HasPrime():
		errs = append(errs, fmt.Errorf("prime range [%d, %d] contains no prime", r.Min, r.Max))
	}
	return errors.Join(errs...)
}

// Range returns the configured prime range.
func (c *Config) Range() prime.Range {
	return prime.Range{Min: c.Prime.Min, Max: c.Prime.Max}
}

// Source returns a seeded source when a seed is configured, else the global one.
func (c *Config) Source() prime.Source {
	if c.Prime.Seed != nil {
		return prime.NewSeededSource(*c.Prime.Seed)
	}
	return prime.GlobalSource()
}

// URL returns the public URL of the agent.
func (c *Config) URL() string {
	if c.Server.PublicURL != "" {
		return c.Server.PublicURL
	}
	return fmt.Sprintf("http://localhost:%d/", c.Server.Port)
}

// Apply copies the set fields onto card.
func (cc CardConfig) Apply(card *a2a.AgentCard) {
	if cc.Name != "" {
		card.Name = cc.Name
	}
	if cc.Description != "" {
		card.Description = cc.Description
	}
	if cc.DocumentationURL != "" {
		card.DocumentationURL = cc.DocumentationURL
	}
	if cc.Provider != nil {
		provider := *cc.Provider
		card.Provider = &provider
	}
}
