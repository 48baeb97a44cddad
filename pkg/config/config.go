// Package config loads particlex settings with Viper from a YAML file,
// PARTICLEX_* environment variables and bound command-line flags.
//
// Keys use dotted paths (lazyload.attribute); the matching environment
// variable replaces dots with underscores (PARTICLEX_LAZYLOAD_ATTRIBUTE).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix   = "PARTICLEX"
	DefaultName = "particlex"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	LazyLoad LazyLoadConfig `mapstructure:"lazyload"`
	CDN      CDNConfig      `mapstructure:"cdn"`
	Crypt    CryptConfig    `mapstructure:"crypt"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LazyLoadConfig struct {
	Attribute       string  `mapstructure:"attribute"`
	SourceAttribute string  `mapstructure:"source_attribute"`
	ViewportWidth   float64 `mapstructure:"viewport_width"`
	ViewportHeight  float64 `mapstructure:"viewport_height"`
	ScanOnLoad      bool    `mapstructure:"scan_on_load"`
}

type CDNConfig struct {
	Old      string        `mapstructure:"old"`
	New      string        `mapstructure:"new"`
	Dirs     []string      `mapstructure:"dirs"`
	Files    []string      `mapstructure:"files"`
	SkipDirs []string      `mapstructure:"skip_dirs"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type CryptConfig struct {
	Sanitize bool `mapstructure:"sanitize"`
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("lazyload.attribute", "lazy")
	v.SetDefault("lazyload.source_attribute", "src")
	v.SetDefault("lazyload.viewport_width", 800.0)
	v.SetDefault("lazyload.viewport_height", 600.0)
	v.SetDefault("lazyload.scan_on_load", false)

	v.SetDefault("cdn.old", "https://xds.asia")
	v.SetDefault("cdn.new", "")
	v.SetDefault("cdn.dirs", []string{"source"})
	v.SetDefault("cdn.files", []string{
		"_config.yml",
		"themes/particlex/_config.yml",
		"themes/particlex/layout/loading.ejs",
		"themes/particlex-my/layout/import.ejs",
		"themes/particlex-my/source/static/fonts.min.css",
	})
	v.SetDefault("cdn.skip_dirs", []string{"node_modules"})
	v.SetDefault("cdn.debounce", 300*time.Millisecond)

	v.SetDefault("crypt.sanitize", false)
}

// New returns a Viper instance with defaults and environment binding.
// When file is empty, particlex.yml is looked up in the working directory.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultName)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads the configured file into v. A missing default file is not
// an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	// AutomaticEnv values arrive as strings; let viper split them.
	cfg.CDN.Dirs = v.GetStringSlice("cdn.dirs")
	cfg.CDN.Files = v.GetStringSlice("cdn.files")
	cfg.CDN.SkipDirs = v.GetStringSlice("cdn.skip_dirs")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile is New, Read and Load in one step.
func LoadFile(file string) (*Config, error) {
	v := New(file)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Load(v)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LazyLoad.Attribute) == "" {
		errs = append(errs, errors.New("lazyload.attribute must not be empty"))
	}
	if strings.TrimSpace(c.LazyLoad.SourceAttribute) == "" {
		errs = append(errs, errors.New("lazyload.source_attribute must not be empty"))
	}
	if c.LazyLoad.Attribute == c.LazyLoad.SourceAttribute {
		errs = append(errs, errors.New("lazyload.attribute and lazyload.source_attribute must differ"))
	}
	if c.LazyLoad.ViewportWidth <= 0 || c.LazyLoad.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %gx%g",
			c.LazyLoad.ViewportWidth, c.LazyLoad.ViewportHeight))
	}
	if c.CDN.Debounce < 0 {
		errs = append(errs, errors.New("cdn.debounce must not be negative"))
	}
	return errors.Join(errs...)
}
