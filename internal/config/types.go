package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Translator TranslatorConfig `yaml:"translator"`
	Store      StoreConfig      `yaml:"store"`
	Deferred   DeferredConfig   `yaml:"deferred"`
	Sites      []SiteEntry      `yaml:"sites"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Poll endpoint protection.
	PollMaxBodyBytes  int64   `yaml:"poll_max_body_bytes"`
	PollRatePerSecond float64 `yaml:"poll_rate_per_second"`
	PollRateBurst     int     `yaml:"poll_rate_burst"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProxyConfig holds origin-fetch configuration
type ProxyConfig struct {
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	ResponseTimeout   time.Duration `yaml:"response_timeout"`
	KeepAlive         time.Duration `yaml:"keep_alive"`
	MaxIdleConns      int           `yaml:"max_idle_conns"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
}

// TranslatorConfig holds model provider and batching configuration
type TranslatorConfig struct {
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	MaxBatchSegments int           `yaml:"max_batch_segments"`
	MaxBatchChars    int           `yaml:"max_batch_chars"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

// StoreConfig holds persistence configuration. With no redis address the
// process falls back to the in-memory store.
type StoreConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	KeyPrefix     string        `yaml:"key_prefix"`
	SiteCacheTTL  time.Duration `yaml:"site_cache_ttl"`
}

// DeferredConfig holds deferred-mode coordination settings
type DeferredConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	InflightTTL  time.Duration `yaml:"inflight_ttl"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxPolls     int           `yaml:"max_polls"`
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// SiteEntry is one configured site mapping
type SiteEntry struct {
	ID               string    `yaml:"id"`
	Hostname         string    `yaml:"hostname"`
	OriginHostname   string    `yaml:"origin_hostname"`
	OriginScheme     string    `yaml:"origin_scheme"`
	SourceLang       string    `yaml:"source_lang"`
	TargetLang       string    `yaml:"target_lang"`
	SkipWords        []string  `yaml:"skip_words"`
	SkipSelectors    []string  `yaml:"skip_selectors"`
	SkipPathPatterns []string  `yaml:"skip_path_patterns"`
	TranslatePaths   bool      `yaml:"translate_paths"`
	Deferred         bool      `yaml:"deferred"`
	CacheDisabledTil time.Time `yaml:"cache_disabled_until"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Directory  string `yaml:"directory"`
	FileOutput bool   `yaml:"file_output"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}
