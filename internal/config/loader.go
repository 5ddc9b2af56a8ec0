package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SYMBOLOGY_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML): path, or SYMBOLOGY_CONFIG when path is empty
//  3. env (prefix SYMBOLOGY_, "__" separates nested keys)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SYMBOLOGY_LAYER__URL -> layer.url, SYMBOLOGY_LOG_LEVEL -> log_level
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the map cannot be composed without.
func (c *Config) Validate() error {
	if c.Layer.URL == "" {
		return fmt.Errorf("%w: layer.url must not be empty", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.Layer.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: layer.url %q is not an absolute URL", ErrInvalidConfig, c.Layer.URL)
	}
	if c.Map.Container == "" {
		return fmt.Errorf("%w: map.container must not be empty", ErrInvalidConfig)
	}
	if c.Map.MinZoom < 0 || c.Map.Zoom < c.Map.MinZoom {
		return fmt.Errorf("%w: zoom %d below min_zoom %d", ErrInvalidConfig, c.Map.Zoom, c.Map.MinZoom)
	}
	switch c.Fetch.Mode {
	case FetchShared, FetchIndependent:
	default:
		return fmt.Errorf("%w: fetch.mode %q (want %s or %s)", ErrInvalidConfig, c.Fetch.Mode, FetchShared, FetchIndependent)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("%w: fetch.timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
