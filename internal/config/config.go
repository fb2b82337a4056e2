// Package config loads console settings from a YAML file, CONSENTCTL_*
// environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-consentform/internal/log"
)

// EnvPrefix prefixes every environment override, e.g.
// CONSENTCTL_BACKEND_BASE_URL.
const EnvPrefix = "CONSENTCTL"

// DefaultConfigName is looked up in the working directory when no file is
// given.
const DefaultConfigName = "consentctl"

type Backend struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type Server struct {
	Address string `yaml:"address" mapstructure:"address"`
	Title   string `yaml:"title" mapstructure:"title"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type Analytics struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Refresh string `yaml:"refresh" mapstructure:"refresh"`
}

type Pipeline struct {
	Sequencing bool `yaml:"sequencing" mapstructure:"sequencing"`
}

type Consent struct {
	Categories []string `yaml:"categories" mapstructure:"categories"`
}

// Config is the full console configuration.
type Config struct {
	Backend   Backend   `yaml:"backend" mapstructure:"backend"`
	Server    Server    `yaml:"server" mapstructure:"server"`
	Log       Log       `yaml:"log" mapstructure:"log"`
	Analytics Analytics `yaml:"analytics" mapstructure:"analytics"`
	Pipeline  Pipeline  `yaml:"pipeline" mapstructure:"pipeline"`
	Consent   Consent   `yaml:"consent" mapstructure:"consent"`
	Preset    string    `yaml:"preset" mapstructure:"preset"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:   Backend{BaseURL: "http://127.0.0.1:8080"},
		Server:    Server{Address: "127.0.0.1:8090", Title: "Klaro consent configuration"},
		Log:       Log{Level: "info", Format: log.FormatText},
		Analytics: Analytics{Enabled: true, Refresh: "@every 5m"},
		Pipeline:  Pipeline{Sequencing: true},
		Consent:   Consent{Categories: []string{"analytics", "marketing"}},
	}
}

// SetDefaults registers every key with its default so environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.title", d.Server.Title)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("analytics.enabled", d.Analytics.Enabled)
	v.SetDefault("analytics.refresh", d.Analytics.Refresh)
	v.SetDefault("pipeline.sequencing", d.Pipeline.Sequencing)
	v.SetDefault("consent.categories", d.Consent.Categories)
	v.SetDefault("preset", d.Preset)
}

// Load reads configuration into a validated Config. An explicit path must
// exist; without one a consentctl.yaml in the working directory is used
// when present. Flags bound to v beforehand take precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Consent.Categories = splitList(cfg.Consent.Categories)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment,
// skipping files that do not exist. Existing variables win.
func LoadDotEnv(files ...string) error {
	var present []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			present = append(present, file)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("config: load env files: %w", err)
	}
	return nil
}

// Validate checks the values other packages would reject later.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: backend.base_url %q must be an absolute URL", c.Backend.BaseURL))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("config: backend.timeout must not be negative"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("config: log.level: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", log.FormatText, log.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("config: log.format %q must be text or json", c.Log.Format))
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, errors.New("config: server.address is required"))
	}
	if len(c.Consent.Categories) == 0 {
		errs = append(errs, errors.New("config: consent.categories must not be empty"))
	}
	return errors.Join(errs...)
}

// splitList accepts both YAML lists and the comma separated form an
// environment variable carries.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func describe(path string) string {
	if path == "" {
		return DefaultConfigName + ".yaml"
	}
	return path
}
