package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	Port            string        `yaml:"port"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	AdminAPIKey     string        `yaml:"admin_api_key"`
	CredentialsPath string        `yaml:"credentials_path"`
	Scopes          []string      `yaml:"scopes"`
	TokenURI        string        `yaml:"token_uri"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:            "9879",
		LogLevel:        "info",
		RefreshInterval: 10 * time.Minute,
		HTTPTimeout:     60 * time.Second,
	}
}

// Load reads path (if non-empty) on top of the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of the defaults and applies environment
// overrides. Empty data yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("PORT", &c.Port)
	set("ENV", &c.Env)
	set("LOG_LEVEL", &c.LogLevel)
	set("ADMIN_API_KEY", &c.AdminAPIKey)
	set("GAUTH_CREDENTIALS", &c.CredentialsPath)
	set("GAUTH_TOKEN_URI", &c.TokenURI)

	if v, ok := lookup("GAUTH_SCOPES"); ok && v != "" {
		c.Scopes = SplitScopes(v)
	}
	if v, ok := lookup("GAUTH_REFRESH_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GAUTH_REFRESH_INTERVAL %q: %w", v, err)
		}
		c.RefreshInterval = d
	}
	return nil
}

// SplitScopes accepts scopes separated by commas and/or whitespace.
func SplitScopes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
