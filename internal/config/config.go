// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/drivermatch/internal/version"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Driver() DriverConfig
	Cache() CacheConfig
	Browser() BrowserConfig
	Probe() ProbeConfig
	Open() OpenConfig

	// Driver Setters
	SetDriverDir(string)

	// Cache Setters
	SetCacheDisabled(bool)

	// Browser Setters
	SetBrowserBinary(string)
	SetBrowserHeadless(bool)

	// Open Setters
	SetOpenURL(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	DriverCfg  DriverConfig  `mapstructure:"driver" yaml:"driver"`
	CacheCfg   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	ProbeCfg   ProbeConfig   `mapstructure:"probe" yaml:"probe"`
	OpenCfg    OpenConfig    `mapstructure:"open" yaml:"open"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Driver() DriverConfig   { return c.DriverCfg }
func (c *Config) Cache() CacheConfig     { return c.CacheCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Probe() ProbeConfig     { return c.ProbeCfg }
func (c *Config) Open() OpenConfig       { return c.OpenCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetDriverDir(dir string)   { c.DriverCfg.Dir = dir }
func (c *Config) SetCacheDisabled(b bool)   { c.CacheCfg.Disabled = b }
func (c *Config) SetBrowserBinary(p string) { c.BrowserCfg.Binary = p }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetOpenURL(u string)       { c.OpenCfg.URL = u }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
	// Components overrides Level for named components, e.g. {"webdriver": "debug"}.
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DriverConfig locates the driver binaries, one per supported version,
// named <version><suffix>.
type DriverConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Suffix string `mapstructure:"suffix" yaml:"suffix"`
}

// CacheConfig controls the last-known-good version file.
type CacheConfig struct {
	File     string `mapstructure:"file" yaml:"file"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
}

// BrowserConfig describes the browser the drivers will drive.
type BrowserConfig struct {
	// Binary overrides the browser executable. Empty lets the driver find it.
	Binary   string   `mapstructure:"binary" yaml:"binary"`
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
}

// ProbeConfig tunes how driver processes are started and talked to.
type ProbeConfig struct {
	StartupTimeout time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ReadyRetries   int           `mapstructure:"ready_retries" yaml:"ready_retries"`
	ReadyWaitMin   time.Duration `mapstructure:"ready_wait_min" yaml:"ready_wait_min"`
	ReadyWaitMax   time.Duration `mapstructure:"ready_wait_max" yaml:"ready_wait_max"`
}

// OpenConfig holds settings for the open command.
type OpenConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "drivermatch")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Driver --
	v.SetDefault("driver.dir", "resources/driver")
	v.SetDefault("driver.suffix", version.ExecutableSuffix())

	// -- Cache --
	v.SetDefault("cache.file", "resources/chrome_version.txt")
	v.SetDefault("cache.disabled", false)

	// -- Browser --
	v.SetDefault("browser.binary", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})

	// -- Probe --
	v.SetDefault("probe.startup_timeout", "20s")
	v.SetDefault("probe.request_timeout", "60s")
	v.SetDefault("probe.ready_retries", 40)
	v.SetDefault("probe.ready_wait_min", "50ms")
	v.SetDefault("probe.ready_wait_max", "500ms")

	// -- Open --
	v.SetDefault("open.url", "https://example.com")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every configured path.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.DriverCfg.Dir, &c.CacheCfg.File, &c.BrowserCfg.Binary, &c.LoggerCfg.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.DriverCfg.Dir == "" {
		return fmt.Errorf("driver.dir is a required configuration field")
	}
	if !c.CacheCfg.Disabled && c.CacheCfg.File == "" {
		return fmt.Errorf("cache.file is required unless cache.disabled is set")
	}
	if err := c.ProbeCfg.Validate(); err != nil {
		return fmt.Errorf("probe configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the ProbeConfig settings.
func (p *ProbeConfig) Validate() error {
	if p.StartupTimeout <= 0 {
		return fmt.Errorf("startup_timeout must be a positive duration")
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be a positive duration")
	}
	if p.ReadyRetries < 0 {
		return fmt.Errorf("ready_retries must not be negative")
	}
	if p.ReadyWaitMin <= 0 || p.ReadyWaitMax < p.ReadyWaitMin {
		return fmt.Errorf("ready_wait_min must be positive and not exceed ready_wait_max")
	}
	return nil
}
