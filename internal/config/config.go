package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultPort = 8084
	DefaultHost = "0.0.0.0"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              DefaultHost,
			Port:              DefaultPort,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       90 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			PollMaxBodyBytes:  64 * 1024,
			PollRatePerSecond: 5,
			PollRateBurst:     10,
		},
		Proxy: ProxyConfig{
			ConnectionTimeout: 10 * time.Second,
			ResponseTimeout:   30 * time.Second,
			KeepAlive:         60 * time.Second,
			MaxIdleConns:      50,
			MaxBodyBytes:      10 << 20,
		},
		Translator: TranslatorConfig{
			Model:            "gpt-4o-mini",
			MaxBatchSegments: 40,
			MaxBatchChars:    12000,
			RequestTimeout:   60 * time.Second,
			MaxRetries:       2,
			RetryBackoff:     500 * time.Millisecond,
		},
		Store: StoreConfig{
			KeyPrefix:    "pl",
			SiteCacheTTL: 60 * time.Second,
		},
		Deferred: DeferredConfig{
			Enabled:      true,
			Workers:      4,
			QueueSize:    256,
			InflightTTL:  90 * time.Second,
			PollInterval: 1500 * time.Millisecond,
			MaxPolls:     20,
			DrainTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Directory:  "./logs",
			FileOutput: false,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load loads configuration from file and environment variables. The
// onReload callback fires after a successful hot reload of the file.
func Load(onReload func()) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("PANTOLINGO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, check if we have PANTOLINGO_CONFIG_FILE env var
		if configFile := os.Getenv("PANTOLINGO_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if onReload != nil {
		viper.OnConfigChange(func(_ fsnotify.Event) { onReload() })
	}
	viper.WatchConfig()

	return config, nil
}

// Reparse decodes the currently loaded viper state into a fresh Config.
// Used after a hot reload notification.
func Reparse() (*Config, error) {
	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return config, nil
}
