package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/pipeline"
	"github.com/matzehuels/stateviz/pkg/render"
)

// Config is the TOML configuration file. Command-line flags override it.
//
//	[sandbox]
//	timeout = "2s"
//
//	[layout]
//	rankdir = "LR"
//
//	[render.theme]
//	active = "#ff6347"
//
//	[server]
//	addr = ":9090"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[log]
//	format = "json"
type Config struct {
	Sandbox SandboxConfig `toml:"sandbox"`
	Layout  LayoutConfig  `toml:"layout"`
	Render  RenderConfig  `toml:"render"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// LogConfig configures log output.
type LogConfig struct {
	Format string `toml:"format"` // text, json or logfmt
}

// SandboxConfig configures script evaluation.
type SandboxConfig struct {
	Timeout duration `toml:"timeout"`
	Strict  bool     `toml:"strict"`
}

// LayoutConfig configures the layout engine.
type LayoutConfig struct {
	RankDir string `toml:"rankdir"`
	Routing *bool  `toml:"routing"`
}

// RenderConfig configures output.
type RenderConfig struct {
	Formats []string     `toml:"formats"`
	Theme   render.Theme `toml:"theme"`
}

// CacheConfig configures the layout and artifact cache.
type CacheConfig struct {
	Disabled bool        `toml:"disabled"`
	Dir      string      `toml:"dir"`
	Redis    RedisConfig `toml:"redis"`
}

// RedisConfig selects a Redis cache for the server. An empty Addr keeps the
// file cache.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
	RequestTimeout duration `toml:"request_timeout"`
	Metrics        *bool    `toml:"metrics"`
}

// duration decodes TOML strings such as "1.5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// configPath returns the default config file location using the XDG
// standard (~/.config/stateviz/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file at path. An empty path reads the default
// location, where a missing file is not an error. Unknown keys are rejected.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
			}
			return &Config{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// pipelineOptions returns the pipeline options described by the config.
func (c *Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Timeout: c.Sandbox.Timeout.Duration,
		Strict:  c.Sandbox.Strict,
		RankDir: c.Layout.RankDir,
		Routing: c.Layout.Routing,
		Formats: c.Render.Formats,
		Theme:   c.Render.Theme,
	}
}
