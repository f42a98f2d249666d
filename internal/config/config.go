// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fiscal-bridge/internal/model"
)

// EnvConfigPath overrides the config file location when set
const EnvConfigPath = "FISCAL_BRIDGE_CONFIG"

// Config represents the bridge configuration. The file is flat JSON;
// interval values are milliseconds.
type Config struct {
	APIURL string `mapstructure:"apiUrl"`
	Token  string `mapstructure:"token"`

	PrinterIP   string `mapstructure:"printerIp"`
	PrinterPort int    `mapstructure:"printerPort"`

	PollIntervalMs       int `mapstructure:"pollInterval"`
	HeartbeatIntervalMs  int `mapstructure:"heartbeatInterval"`
	ShiftSyncIntervalMs  int `mapstructure:"shiftSyncInterval"`
	RegisterRetryDelayMs int `mapstructure:"registerRetryDelay"`
	DeviceTimeoutMs      int `mapstructure:"deviceTimeout"`
	BackendTimeoutMs     int `mapstructure:"backendTimeout"`

	LogLevel   string `mapstructure:"logLevel"`
	LogFormat  string `mapstructure:"logFormat"`
	LogOutput  string `mapstructure:"logOutput"`
	LogMaxSize int    `mapstructure:"logMaxSize"`
	LogMaxAge  int    `mapstructure:"logMaxAge"`

	StatusEnabled bool     `mapstructure:"statusEnabled"`
	StatusAddr    string   `mapstructure:"statusAddr"`
	StatusOrigins []string `mapstructure:"statusOrigins"`

	AppName     string `mapstructure:"appName"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig is the logger construction view of the configuration
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Load loads configuration from the JSON config file and environment
// variables. A missing or unparsable file and a missing token or apiUrl
// are fatal startup errors.
func Load() (*Config, error) {
	v := viper.New()

	if path := os.Getenv(EnvConfigPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("FISCAL_BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, &model.ConfigError{Reason: fmt.Sprintf("config file not found: %v", err)}
		}
		return nil, &model.ConfigError{Reason: fmt.Sprintf("error reading config file: %v", err)}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("unable to decode config: %v", err)}
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("printerPort", 4444)

	v.SetDefault("pollInterval", 5000)
	v.SetDefault("heartbeatInterval", 60000)
	v.SetDefault("shiftSyncInterval", 60000)
	v.SetDefault("registerRetryDelay", 30000)
	v.SetDefault("deviceTimeout", 30000)
	v.SetDefault("backendTimeout", 15000)

	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "json")
	v.SetDefault("logOutput", "stdout")
	v.SetDefault("logMaxSize", 50)
	v.SetDefault("logMaxAge", 14)

	v.SetDefault("statusEnabled", true)
	v.SetDefault("statusAddr", "127.0.0.1:8093")

	v.SetDefault("appName", "fiscal-bridge")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("environment", "production")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.APIURL == "" {
		return &model.ConfigError{Reason: "apiUrl is required"}
	}
	if config.Token == "" {
		return &model.ConfigError{Reason: "token is required"}
	}
	if config.PrinterIP == "" {
		return &model.ConfigError{Reason: "printerIp is required"}
	}
	if config.PrinterPort <= 0 || config.PrinterPort > 65535 {
		return &model.ConfigError{Reason: fmt.Sprintf("printerPort %d is out of range", config.PrinterPort)}
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.LogLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return &model.ConfigError{Reason: fmt.Sprintf("logLevel must be one of: %v", validLevels)}
	}

	return nil
}

// Logging returns the logger construction view
func (c *Config) Logging() *LoggingConfig {
	output := c.LogOutput
	if output != "stdout" && output != "stderr" && output != "" {
		output = filepath.Clean(output)
	}
	return &LoggingConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		Output:     output,
		MaxSize:    c.LogMaxSize,
		MaxBackups: 3,
		MaxAge:     c.LogMaxAge,
		Compress:   true,
	}
}

// PrinterURL returns the device base URL
func (c *Config) PrinterURL() string {
	return fmt.Sprintf("http://%s:%d", c.PrinterIP, c.PrinterPort)
}

// PollInterval returns the configured poll interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HeartbeatInterval returns the configured heartbeat interval
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// ShiftSyncInterval returns the configured shift-status sync interval
func (c *Config) ShiftSyncInterval() time.Duration {
	return time.Duration(c.ShiftSyncIntervalMs) * time.Millisecond
}

// RegisterRetryDelay returns the fixed delay between registration attempts
func (c *Config) RegisterRetryDelay() time.Duration {
	return time.Duration(c.RegisterRetryDelayMs) * time.Millisecond
}

// DeviceTimeout returns the per-call device transport timeout
func (c *Config) DeviceTimeout() time.Duration {
	return time.Duration(c.DeviceTimeoutMs) * time.Millisecond
}

// BackendTimeout returns the per-call backend transport timeout
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMs) * time.Millisecond
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
