package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mathdoc/internal/typeset"
	"github.com/alnah/go-mathdoc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxURLLength   = 2048 // Browser limit
	MaxPathLength  = 4096 // PATH_MAX on Linux
	MaxFieldLength = 100  // JSON field names
)

// Engine page limits.
const (
	MinPages = 1
	MaxPages = 8
)

// Defaults applied by DefaultConfig.
const (
	DefaultTimeout    = "10s"
	DefaultTextField  = "text"
	DefaultImageField = "image_url"
)

// Config holds all configuration for reading and rendering documents.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Render RenderConfig `yaml:"render"`
	Input  InputConfig  `yaml:"input"`
}

// EngineConfig defines the KaTeX typesetting engine.
type EngineConfig struct {
	KaTeXURL   string `yaml:"katexURL"`
	KaTeXCSS   string `yaml:"katexCSS"`
	Pages      int    `yaml:"pages"`      // 1-8, 0 = auto
	Timeout    string `yaml:"timeout"`    // Duration per formula, e.g. "10s"
	BrowserBin string `yaml:"browserBin"` // Empty = ROD_BROWSER_BIN or download
}

// RenderConfig defines rendering options.
type RenderConfig struct {
	Workers int    `yaml:"workers"` // 0 = auto from GOMAXPROCS
	Wait    bool   `yaml:"wait"`    // Fail instead of degrading when the engine cannot load
	CSS     string `yaml:"css"`     // Extra stylesheet file appended to the page
}

// InputConfig defines where extraction payloads carry the document.
type InputConfig struct {
	Field      string `yaml:"field"`      // JSON field holding the document
	ImageField string `yaml:"imageField"` // Legacy image URL field, empty = none
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("engine.katexURL", c.Engine.KaTeXURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("engine.katexCSS", c.Engine.KaTeXCSS, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("engine.browserBin", c.Engine.BrowserBin, MaxPathLength); err != nil {
		return err
	}
	if c.Engine.Pages != 0 && (c.Engine.Pages < MinPages || c.Engine.Pages > MaxPages) {
		return fmt.Errorf("%w: engine.pages must be between %d and %d, got %d", ErrInvalidValue, MinPages, MaxPages, c.Engine.Pages)
	}
	if c.Engine.Timeout != "" {
		d, err := time.ParseDuration(c.Engine.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: engine.timeout must be a positive duration, got %q", ErrInvalidValue, c.Engine.Timeout)
		}
	}

	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers must not be negative, got %d", ErrInvalidValue, c.Render.Workers)
	}
	if err := validateFieldLength("render.css", c.Render.CSS, MaxPathLength); err != nil {
		return err
	}

	if err := validateFieldLength("input.field", c.Input.Field, MaxFieldLength); err != nil {
		return err
	}
	if err := validateFieldLength("input.imageField", c.Input.ImageField, MaxFieldLength); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration returns the parsed engine timeout, or zero when unset.
// Call after Validate.
func (e EngineConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			KaTeXURL: typeset.DefaultKaTeXURL,
			KaTeXCSS: typeset.DefaultKaTeXCSS,
			Timeout:  DefaultTimeout,
		},
		Input: InputConfig{
			Field:      DefaultTextField,
			ImageField: DefaultImageField,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mathdoc/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mathdoc", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
