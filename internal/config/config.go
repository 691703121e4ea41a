package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/csvcharts/internal/utils"
)

const defaultHomeDir = "~/.csvcharts"

// Global configuration structure.
type Global struct {
	// Inference and aggregation
	SampleSize       int     `mapstructure:"sample_size" yaml:"sample_size"`
	NumericThreshold float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`
	MaxCategories    int     `mapstructure:"max_categories" yaml:"max_categories"`
	DefaultBins      int     `mapstructure:"default_bins" yaml:"default_bins"`

	// Loading
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	CacheTTLSec    int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`

	// Dashboard server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Output and storage
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	CatalogDir  string `mapstructure:"catalog_dir" yaml:"catalog_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"sample_size", "numeric_threshold", "max_categories", "default_bins",
	"http_timeout_sec", "cache_ttl_sec", "listen_addr", "allowed_origins",
	"output_dir", "catalog_dir", "chart_width", "chart_height",
	"log_level", "log_format",
}

// defaultPath returns ~/.csvcharts/config.yaml.
func defaultPath() (string, error) {
	dir, err := utils.ExpandHome(defaultHomeDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.csvcharts/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_size", 50)
	v.SetDefault("numeric_threshold", 0.8)
	v.SetDefault("max_categories", 40)
	v.SetDefault("default_bins", 10)
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("cache_ttl_sec", 300)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("output_dir", ".")
	v.SetDefault("catalog_dir", defaultHomeDir)
	v.SetDefault("chart_width", 900)
	v.SetDefault("chart_height", 500)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CSVCHARTS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// env values arrive as a single comma separated string
	if len(c.AllowedOrigins) == 1 && strings.Contains(c.AllowedOrigins[0], ",") {
		c.AllowedOrigins = splitList(c.AllowedOrigins[0])
	}
	dir, err := utils.ExpandHome(c.CatalogDir)
	if err != nil {
		return nil, err
	}
	c.CatalogDir = dir
	return &c, nil
}

// Set assigns a single key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "sample_size":
		c.SampleSize, err = atoi(1)
	case "numeric_threshold":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid float for numeric_threshold: %v (use 0 < t < 1)", val)
		}
		c.NumericThreshold = f
	case "max_categories":
		c.MaxCategories, err = atoi(1)
	case "default_bins":
		c.DefaultBins, err = atoi(1)
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi(0)
	case "listen_addr":
		c.ListenAddr = val
	case "allowed_origins":
		c.AllowedOrigins = splitList(val)
	case "output_dir":
		c.OutputDir = val
	case "catalog_dir":
		c.CatalogDir = val
	case "chart_width":
		c.ChartWidth, err = atoi(100)
	case "chart_height":
		c.ChartHeight, err = atoi(100)
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Get returns the string form of a key, mirroring Set.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "sample_size":
		return strconv.Itoa(c.SampleSize), nil
	case "numeric_threshold":
		return strconv.FormatFloat(c.NumericThreshold, 'f', -1, 64), nil
	case "max_categories":
		return strconv.Itoa(c.MaxCategories), nil
	case "default_bins":
		return strconv.Itoa(c.DefaultBins), nil
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), nil
	case "cache_ttl_sec":
		return strconv.Itoa(c.CacheTTLSec), nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "allowed_origins":
		return strings.Join(c.AllowedOrigins, ","), nil
	case "output_dir":
		return c.OutputDir, nil
	case "catalog_dir":
		return c.CatalogDir, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
