package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stockdash/chart"
)

// EnvPrefix is prepended to every environment variable ApplyEnv reads.
const EnvPrefix = "STOCKDASH_"

// Config represents the complete dashboard configuration
type Config struct {
	Server ServerConfig `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Data   DataConfig   `json:"data" yaml:"data" envPrefix:"DATA_"`
	Theme  ThemeConfig  `json:"theme" yaml:"theme" envPrefix:"THEME_"`
	Log    LogConfig    `json:"log" yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host  string `json:"host" yaml:"host" env:"HOST"`
	Port  int    `json:"port" yaml:"port" env:"PORT"`
	Debug bool   `json:"debug" yaml:"debug" env:"DEBUG"`
}

// DataConfig names the price file and the label used in chart titles.
// An empty Name means the file's base name.
type DataConfig struct {
	Path string `json:"path" yaml:"path" env:"PATH"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" env:"NAME"`
}

// ThemeConfig contains chart colors
type ThemeConfig struct {
	Background string `json:"background" yaml:"background" env:"BACKGROUND"`
	Foreground string `json:"foreground" yaml:"foreground" env:"FOREGROUND"`
	ShowGrid   bool   `json:"show_grid" yaml:"show_grid" env:"SHOW_GRID"`
}

// Chart converts the section into a chart.Theme.
func (t ThemeConfig) Chart() chart.Theme {
	return chart.Theme{
		Background: t.Background,
		Foreground: t.Foreground,
		ShowGrid:   t.ShowGrid,
	}
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level string `json:"level" yaml:"level" env:"LEVEL"` // debug, info, warn or error
}

// Addr is the listen address, host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Missing sections keep their defaults
	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files, or ./.env when none are named, and
// then overrides fields from STOCKDASH_* variables. Missing dotenv files are
// skipped.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("data.path is required")
	}
	if !validColor(c.Theme.Background) {
		return fmt.Errorf("theme.background %q is not a #rrggbb color", c.Theme.Background)
	}
	if !validColor(c.Theme.Foreground) {
		return fmt.Errorf("theme.foreground %q is not a #rrggbb color", c.Theme.Foreground)
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

func validColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range strings.ToLower(s[1:]) {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8050,
		},
		Data: DataConfig{
			Path: "./NFLX.csv",
			Name: "Netflix",
		},
		Theme: ThemeConfig{
			Background: chart.DefaultTheme.Background,
			Foreground: chart.DefaultTheme.Foreground,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
