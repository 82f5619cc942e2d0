// Package config loads reader configuration from a YAML file with
// environment overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full reader configuration.
type Config struct {
	Server struct {
		// BaseURL of the persistence backend.
		BaseURL string `yaml:"base_url"`
		// Token is the bearer token; the FOLIO_TOKEN environment
		// variable overrides it so it can stay out of the file.
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"server"`

	Search struct {
		BatchSize int `yaml:"batch_size"`
	} `yaml:"search"`

	Cache struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"cache"`

	Speech struct {
		Rate   float64 `yaml:"rate"`
		Pitch  float64 `yaml:"pitch"`
		Volume float64 `yaml:"volume"`
		Voice  string  `yaml:"voice"`
	} `yaml:"speech"`

	Text struct {
		SectionSize int `yaml:"section_size"`
	} `yaml:"text"`

	// PrefsPath is where per-book viewer preferences are stored.
	PrefsPath string `yaml:"prefs_path"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Server.Timeout = 15 * time.Second
	cfg.Search.BatchSize = 10
	cfg.Cache.Capacity = 20
	cfg.Speech.Rate = 1.0
	cfg.Speech.Pitch = 1.0
	cfg.Speech.Volume = 1.0
	cfg.Text.SectionSize = 4000
	cfg.PrefsPath = defaultPrefsPath()
	cfg.LogLevel = "info"
	return &cfg
}

// Load reads the config file at path, applying defaults for missing
// fields and environment overrides on top. A missing file yields the
// defaults without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	fillDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = def.Server.Timeout
	}
	if cfg.Search.BatchSize <= 0 {
		cfg.Search.BatchSize = def.Search.BatchSize
	}
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = def.Cache.Capacity
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = def.Speech.Rate
	}
	if cfg.Speech.Pitch == 0 {
		cfg.Speech.Pitch = def.Speech.Pitch
	}
	if cfg.Speech.Volume == 0 {
		cfg.Speech.Volume = def.Speech.Volume
	}
	if cfg.Text.SectionSize <= 0 {
		cfg.Text.SectionSize = def.Text.SectionSize
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = def.PrefsPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FOLIO_SERVER_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("FOLIO_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "folio-prefs.json"
	}
	return filepath.Join(dir, "folio", "prefs.json")
}
