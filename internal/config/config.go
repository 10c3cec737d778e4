package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabex/internal/utils"
)

// Global configuration structure.
type Global struct {
	// HTTP host
	ServerHost         string `mapstructure:"server_host" yaml:"server_host"`
	ServerPort         int    `mapstructure:"server_port" yaml:"server_port"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	MaxUploadMB        int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SessionTTLMin      int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	MaxSessions        int    `mapstructure:"max_sessions" yaml:"max_sessions"`

	// Loading and preview
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	MaxRows     int `mapstructure:"max_rows" yaml:"max_rows"`

	// Chart presentation
	LabelMode     string  `mapstructure:"label_mode" yaml:"label_mode"`
	LabelRotation float64 `mapstructure:"label_rotation" yaml:"label_rotation"`
	FigureWidth   float64 `mapstructure:"figure_width" yaml:"figure_width"`
	FigureHeight  float64 `mapstructure:"figure_height" yaml:"figure_height"`
	Palette       string  `mapstructure:"palette" yaml:"palette"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// MaxPreviewRows caps every head/preview request.
const MaxPreviewRows = 100

// Addr returns host:port for the HTTP listener.
func (c *Global) Addr() string { return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort) }

// ReadTimeout returns the HTTP read timeout.
func (c *Global) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// ShutdownTimeout returns the graceful shutdown deadline.
func (c *Global) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// SessionTTL returns how long an idle session is kept.
func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

// MaxUploadBytes returns the upload limit in bytes.
func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// ClampPreview keeps n within 1..MaxPreviewRows, using PreviewRows when n <= 0.
func (c *Global) ClampPreview(n int) int {
	if n <= 0 {
		n = c.PreviewRows
	}
	if n < 1 {
		n = 1
	}
	if n > MaxPreviewRows {
		n = MaxPreviewRows
	}
	return n
}

// Validate checks every field and reports all failures at once.
func (c *Global) Validate() error {
	var errs []string
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Sprintf("server_port (%d) must be 1-65535", c.ServerPort))
	}
	if c.ReadTimeoutSec < 0 {
		errs = append(errs, "read_timeout_sec must be non-negative")
	}
	if c.ShutdownTimeoutSec <= 0 {
		errs = append(errs, "shutdown_timeout_sec must be positive")
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, "max_upload_mb must be positive")
	}
	if c.SessionTTLMin < 0 {
		errs = append(errs, "session_ttl_min must be non-negative")
	}
	if c.MaxSessions < 0 {
		errs = append(errs, "max_sessions must be non-negative")
	}
	if c.PreviewRows < 1 || c.PreviewRows > MaxPreviewRows {
		errs = append(errs, fmt.Sprintf("preview_rows (%d) must be 1-%d", c.PreviewRows, MaxPreviewRows))
	}
	if c.MaxRows < 0 {
		errs = append(errs, "max_rows must be non-negative")
	}
	switch c.LabelMode {
	case "none", "count", "percent":
	default:
		errs = append(errs, fmt.Sprintf("label_mode %q must be none, count or percent", c.LabelMode))
	}
	if c.FigureWidth <= 0 || c.FigureHeight <= 0 {
		errs = append(errs, "figure_width and figure_height must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format %q must be text or json", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Set assigns a single key from its string form. On error c is unchanged.
func (c *Global) Set(key, val string) error {
	prev := *c
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float for %s: %w", key, err)
		}
		return f, nil
	}
	var err error
	switch key {
	case "server_host":
		c.ServerHost = val
	case "server_port":
		c.ServerPort, err = atoi()
	case "read_timeout_sec":
		c.ReadTimeoutSec, err = atoi()
	case "shutdown_timeout_sec":
		c.ShutdownTimeoutSec, err = atoi()
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi()
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi()
	case "max_sessions":
		c.MaxSessions, err = atoi()
	case "preview_rows":
		c.PreviewRows, err = atoi()
	case "max_rows":
		c.MaxRows, err = atoi()
	case "label_mode":
		c.LabelMode = strings.ToLower(val)
	case "label_rotation":
		c.LabelRotation, err = atof()
	case "figure_width":
		c.FigureWidth, err = atof()
	case "figure_height":
		c.FigureHeight, err = atof()
	case "palette":
		c.Palette = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		err = fmt.Errorf("unknown key: %s", key)
	}
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		*c = prev
		return err
	}
	return nil
}

// DefaultPath returns ~/.tabex/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabex", "config.yaml"), nil
}

// Save writes the configuration as YAML to cfgFile, or to DefaultPath when
// cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
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
	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("server_port", 8080)
	v.SetDefault("read_timeout_sec", 30)
	v.SetDefault("shutdown_timeout_sec", 10)
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("max_sessions", 64)
	v.SetDefault("preview_rows", 10)
	v.SetDefault("max_rows", 1000000)
	v.SetDefault("label_mode", "none")
	v.SetDefault("label_rotation", 0.0)
	v.SetDefault("figure_width", 10.0)
	v.SetDefault("figure_height", 6.0)
	v.SetDefault("palette", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing default config file is
// not an error; an explicit cfgFile that cannot be read is.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABEX")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.LabelMode = strings.ToLower(c.LabelMode)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
