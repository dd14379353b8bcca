package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/sheetnest/internal/engine"
	"github.com/piwi3910/sheetnest/internal/model"
)

// ErrInvalidConfig is returned when the resolved configuration can not be used.
var ErrInvalidConfig = errors.New("invalid configuration")

const defaultLogLevel = "info"

// Environment variables read by Load.
const (
	EnvKerf          = "SHEETNEST_KERF"
	EnvAllowRotation = "SHEETNEST_ALLOW_ROTATION"
	EnvCacheSize     = "SHEETNEST_CACHE_SIZE"
	EnvLogLevel      = "SHEETNEST_LOG_LEVEL"
)

// Config aggregates the runtime configuration.
type Config struct {
	Settings  model.Settings
	CacheSize int
	LogLevel  string
	// Flags are the command-line overrides Settings was resolved with. They
	// are applied again to job files, which carry their own settings.
	Flags CLIOverrides
}

// yamlConfig is the configuration file layout. Pointers distinguish an
// absent key from an explicit zero.
type yamlConfig struct {
	KerfWidth      *float64                       `yaml:"kerf_width"`
	AllowRotation  *bool                          `yaml:"allow_rotation"`
	StockMaterials map[string]model.StockMaterial `yaml:"stock_materials"`
	CacheSize      *int                           `yaml:"cache_size"`
	LogLevel       string                         `yaml:"log_level"`
}

// CLIOverrides holds command-line flag overrides. Nil fields are not set.
type CLIOverrides struct {
	ConfigFile    string
	KerfWidth     *float64
	AllowRotation *bool
	CacheSize     *int
	LogLevel      *string
	// Stock entries in the form "Material=WIDTHxHEIGHT" or "Material=WIDTHxHEIGHT@PRICE".
	Stock []string
}

// Load resolves configuration with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
		cfg.Flags = *overrides
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Settings:  model.DefaultSettings(),
		CacheSize: engine.DefaultCacheSize,
		LogLevel:  defaultLogLevel,
	}
}

func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &yamlCfg, nil
}

func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.KerfWidth != nil {
		cfg.Settings.KerfWidth = *yamlCfg.KerfWidth
	}
	if yamlCfg.AllowRotation != nil {
		cfg.Settings.AllowRotation = *yamlCfg.AllowRotation
	}
	for name, stock := range yamlCfg.StockMaterials {
		cfg.Settings.StockMaterials[name] = stock
	}
	if yamlCfg.CacheSize != nil {
		cfg.CacheSize = *yamlCfg.CacheSize
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
}

// applyEnvConfig reads the SHEETNEST_* variables. Unlike the file and flags,
// a malformed value here is reported rather than ignored.
func applyEnvConfig(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv(EnvKerf)); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvKerf, raw)
		}
		cfg.Settings.KerfWidth = value
	}

	if raw := strings.TrimSpace(os.Getenv(EnvAllowRotation)); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvAllowRotation, raw)
		}
		cfg.Settings.AllowRotation = value
	}

	if raw := strings.TrimSpace(os.Getenv(EnvCacheSize)); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvCacheSize, raw)
		}
		cfg.CacheSize = value
	}

	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		cfg.LogLevel = raw
	}
	return nil
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	settings, _, err := overrides.Apply(cfg.Settings)
	if err != nil {
		return err
	}
	cfg.Settings = settings
	if overrides.CacheSize != nil {
		cfg.CacheSize = *overrides.CacheSize
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	return nil
}

// Apply returns a copy of settings with the kerf, rotation and stock
// overrides applied, and whether any of them was set. The result is not
// validated.
func (o CLIOverrides) Apply(settings model.Settings) (model.Settings, bool, error) {
	out := settings.Clone()
	changed := false
	if o.KerfWidth != nil {
		out.KerfWidth = *o.KerfWidth
		changed = true
	}
	if o.AllowRotation != nil {
		out.AllowRotation = *o.AllowRotation
		changed = true
	}
	for _, entry := range o.Stock {
		name, stock, err := ParseStock(entry)
		if err != nil {
			return settings, false, fmt.Errorf("parse stock %q: %w", entry, err)
		}
		out.StockMaterials[name] = stock
		changed = true
	}
	return out, changed, nil
}

func validateConfig(cfg Config) error {
	if err := cfg.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("%w: cache size must be >= 0, got %d", ErrInvalidConfig, cfg.CacheSize)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, cfg.LogLevel)
	}
	return nil
}

// ParseStock parses "Material=WIDTHxHEIGHT[@PRICE]".
func ParseStock(entry string) (string, model.StockMaterial, error) {
	name, size, ok := strings.Cut(entry, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", model.StockMaterial{}, fmt.Errorf("expected Material=WIDTHxHEIGHT")
	}

	size, priceStr, hasPrice := strings.Cut(strings.TrimSpace(size), "@")
	wStr, hStr, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return "", model.StockMaterial{}, fmt.Errorf("size %q must be WIDTHxHEIGHT", size)
	}

	var stock model.StockMaterial
	var err error
	if stock.Width, err = strconv.ParseFloat(strings.TrimSpace(wStr), 64); err != nil {
		return "", model.StockMaterial{}, fmt.Errorf("invalid width %q", wStr)
	}
	if stock.Height, err = strconv.ParseFloat(strings.TrimSpace(hStr), 64); err != nil {
		return "", model.StockMaterial{}, fmt.Errorf("invalid height %q", hStr)
	}
	if hasPrice {
		if stock.Price, err = strconv.ParseFloat(strings.TrimSpace(priceStr), 64); err != nil {
			return "", model.StockMaterial{}, fmt.Errorf("invalid price %q", priceStr)
		}
	}
	return name, stock, nil
}
